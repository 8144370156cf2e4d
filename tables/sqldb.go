package tables

import (
	dbsql "database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// SQLDB adapts one table of a database/sql database. Reads scan the whole
// table and leave filtering to the engine; mutations push down as real
// UPDATE and DELETE statements keyed on the declared ID column.
// Identifiers are double-quoted, so the adapter works with any driver
// that accepts standard quoting (the CLI and tests use modernc.org/sqlite).
//
// Example usage:
//
//	conn, err := dbsql.Open("sqlite", "app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db.Register("users", tables.NewSQLDB(conn, "users", "id"))
type SQLDB struct {
	db    *dbsql.DB
	table string
	idCol string
}

// NewSQLDB returns a table over the named table of db. idColumn names the
// column whose values become row IDs; it must be present and non-NULL in
// every row.
func NewSQLDB(db *dbsql.DB, table, idColumn string) *SQLDB {
	return &SQLDB{db: db, table: table, idCol: idColumn}
}

func (s *SQLDB) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	rows, err := s.db.Query("SELECT * FROM " + quoteIdent(s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to list columns of %s: %w", s.table, err)
	}
	return &sqlIterator{table: s.table, idCol: s.idCol, rows: rows, cols: cols}, nil
}

// Insert writes one row and returns its ID: the inserted ID column value
// when the caller supplied one, the driver's LastInsertId otherwise.
func (s *SQLDB) Insert(values map[string]interface{}) (interface{}, error) {
	cols := sortedColumns(values)
	quoted := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		args[i] = values[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(quoted, ", "), placeholders(len(cols)))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", s.table, err)
	}
	if id, ok := values[s.idCol]; ok {
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil
	}
	return id, nil
}

// Update applies changes to the rows whose ID column matches ids, in one
// statement.
func (s *SQLDB) Update(ids []interface{}, changes map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(changes) == 0 {
		return 0, nil
	}
	cols := sortedColumns(changes)
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+len(ids))
	for i, col := range cols {
		sets[i] = quoteIdent(col) + " = ?"
		args = append(args, changes[col])
	}
	args = append(args, ids...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s IN (%s)",
		quoteIdent(s.table), strings.Join(sets, ", "), quoteIdent(s.idCol), placeholders(len(ids)))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", s.table, err)
	}
	return res.RowsAffected()
}

// Delete removes the rows whose ID column matches ids, in one statement.
func (s *SQLDB) Delete(ids []interface{}) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		quoteIdent(s.table), quoteIdent(s.idCol), placeholders(len(ids)))
	res, err := s.db.Exec(query, ids...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}
	return res.RowsAffected()
}

type sqlIterator struct {
	table string
	idCol string
	rows  *dbsql.Rows
	cols  []string
}

func (it *sqlIterator) Next() (engine.Item, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", it.table, err)
		}
		return nil, io.EOF
	}
	vals := make([]interface{}, len(it.cols))
	ptrs := make([]interface{}, len(it.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row from %s: %w", it.table, err)
	}
	values := make(map[string]interface{}, len(it.cols))
	for i, col := range it.cols {
		values[col] = sqlValue(vals[i])
	}
	id, ok := values[it.idCol]
	if !ok || id == nil {
		return nil, fmt.Errorf("table %s has no usable %q value for a row ID", it.table, it.idCol)
	}
	return engine.Row{ID: id, Values: values}, nil
}

func (it *sqlIterator) Close() error { return it.rows.Close() }

// sqlValue normalizes driver values: []byte columns read as string.
func sqlValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// placeholders renders n comma-separated ? marks.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// sortedColumns returns the map's keys sorted, so generated SQL is
// deterministic.
func sortedColumns(values map[string]interface{}) []string {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
