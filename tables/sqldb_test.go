package tables

import (
	dbsql "database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesadb/mesa/engine"
)

func openSQLite(t *testing.T) *dbsql.DB {
	t.Helper()
	conn, err := dbsql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)`)
	require.NoError(t, err)
	for _, row := range []struct {
		name string
		age  int64
	}{{"alice", 30}, {"bob", 25}, {"carol", 41}} {
		_, err = conn.Exec(`INSERT INTO users (name, age) VALUES (?, ?)`, row.name, row.age)
		require.NoError(t, err)
	}
	return conn
}

func TestSQLDB_Select(t *testing.T) {
	db := engine.New()
	db.Register("users", NewSQLDB(openSQLite(t), "users", "id"))

	rows, err := db.Select("SELECT name, age FROM users WHERE age > ? ORDER BY age", int64(26))
	require.NoError(t, err)
	all, err := rows.All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "alice", all[0].Values["name"])
	assert.Equal(t, int64(30), all[0].Values["age"])
	assert.Equal(t, "carol", all[1].Values["name"])
}

func TestSQLDB_RowIDsFromColumn(t *testing.T) {
	items := drain(t, mustSelect(t, NewSQLDB(openSQLite(t), "users", "id"), "SELECT * FROM users"))
	require.Len(t, items, 3)
	assert.Equal(t, int64(1), items[0].(engine.Row).ID)
	assert.Equal(t, int64(3), items[2].(engine.Row).ID)
}

func TestSQLDB_MissingIDColumn(t *testing.T) {
	it, err := NewSQLDB(openSQLite(t), "users", "nope").Select(selectStmt(t, "SELECT * FROM users"))
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	_, err = it.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row ID")
}

func TestSQLDB_InsertUpdateDelete(t *testing.T) {
	db := engine.New()
	db.Register("users", NewSQLDB(openSQLite(t), "users", "id"))

	n, err := db.Exec("INSERT INTO users (name, age) VALUES (?, ?)", "dave", int64(19))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = db.Exec("UPDATE users SET age = 26 WHERE name = 'bob'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := db.Select("SELECT age FROM users WHERE name = 'bob'")
	require.NoError(t, err)
	all, err := rows.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(26), all[0].Values["age"])

	n, err = db.Exec("DELETE FROM users WHERE age < 30")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "bob and dave go")

	rows, err = db.Select("SELECT * FROM users")
	require.NoError(t, err)
	all, err = rows.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLDB_UpdateNothing(t *testing.T) {
	conn := openSQLite(t)
	db := engine.New()
	db.Register("users", NewSQLDB(conn, "users", "id"))

	n, err := db.Exec("UPDATE users SET age = 99 WHERE age > 100")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM users WHERE age = 99`).Scan(&count))
	assert.Zero(t, count)
}
