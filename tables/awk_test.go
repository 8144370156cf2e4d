package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesadb/mesa/engine"
)

func TestAWK_RowsFromProgramOutput(t *testing.T) {
	input := writeFile(t, t.TempDir(), "metrics.log",
		"web1 0.5\nweb2 1.25\ndb1 0\n")

	tbl, err := NewAWK(`$2 > 0 { print $1, $2 * 2 }`, []string{"host", "twice"}, input)
	require.NoError(t, err)

	items := drain(t, mustSelect(t, tbl, "SELECT * FROM load"))
	require.Len(t, items, 2)

	first := items[0].(engine.Row)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "web1", first.Values["host"])
	assert.Equal(t, int64(1), first.Values["twice"])

	second := items[1].(engine.Row)
	assert.Equal(t, "web2", second.Values["host"])
	assert.Equal(t, 2.5, second.Values["twice"])
}

func TestAWK_BeginOnlyProgram(t *testing.T) {
	tbl, err := NewAWK(`BEGIN { print "a", 1; print "b", 2 }`, []string{"k", "v"})
	require.NoError(t, err)

	items := drain(t, mustSelect(t, tbl, "SELECT * FROM kv"))
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(engine.Row).Values["k"])
	assert.Equal(t, int64(2), items[1].(engine.Row).Values["v"])
}

func TestAWK_MissingFieldsReadNull(t *testing.T) {
	tbl, err := NewAWK(`BEGIN { print "lonely" }`, []string{"a", "b"})
	require.NoError(t, err)

	items := drain(t, mustSelect(t, tbl, "SELECT * FROM t"))
	require.Len(t, items, 1)
	row := items[0].(engine.Row)
	assert.Equal(t, "lonely", row.Values["a"])
	assert.Nil(t, row.Values["b"])
}

func TestAWK_ParseError(t *testing.T) {
	_, err := NewAWK(`{ print`, []string{"x"})
	assert.Error(t, err)
}

func TestAWK_NoColumns(t *testing.T) {
	_, err := NewAWK(`{ print }`, nil)
	assert.Error(t, err)
}

func TestAWK_ThroughEngine(t *testing.T) {
	input := writeFile(t, t.TempDir(), "access.log",
		"GET /a 200\nPOST /b 500\nGET /c 404\nGET /d 200\n")

	tbl, err := NewAWK(`{ print $1, $2, $3 }`, []string{"method", "path", "status"}, input)
	require.NoError(t, err)

	db := engine.New()
	db.Register("requests", tbl)

	rows, err := db.Select("SELECT path FROM requests WHERE status >= 400 ORDER BY path")
	require.NoError(t, err)
	all, err := rows.All()
	require.NoError(t, err)

	var paths []string
	for _, row := range all {
		paths = append(paths, row.Values["path"].(string))
	}
	assert.Equal(t, []string{"/b", "/c"}, paths)
}
