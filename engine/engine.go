package engine

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/sql"
)

const defaultStatementCacheSize = 128

// DB executes SQL statements against registered tables. It is safe for
// concurrent use; each statement execution is independent.
type DB struct {
	mu        sync.RWMutex
	tables    map[string]*registration
	collator  collation.Collator
	unsafeDML bool
	cacheSize int
	stmts     *lru.Cache[string, sql.Statement]
}

// registration pairs a table with its per-table settings.
type registration struct {
	name     string
	table    Table
	collator collation.Collator
}

// Option configures a DB.
type Option func(*DB)

// WithCollation sets the default collator for comparisons and ordering.
// Per-table registrations and ORDER BY ... COLLATE both override it.
func WithCollation(c collation.Collator) Option {
	return func(db *DB) { db.collator = c }
}

// WithUnsafeDML allows UPDATE and DELETE statements without a WHERE
// clause. Without it such statements fail with ErrUnsafeMutation.
func WithUnsafeDML() Option {
	return func(db *DB) { db.unsafeDML = true }
}

// WithStatementCacheSize sets how many parsed statements the DB caches by
// query text. Zero or negative disables the cache.
func WithStatementCacheSize(n int) Option {
	return func(db *DB) { db.cacheSize = n }
}

// New returns an empty DB with binary collation and a statement cache of
// 128 entries.
func New(opts ...Option) *DB {
	db := &DB{
		tables:    make(map[string]*registration),
		collator:  collation.Default(),
		cacheSize: defaultStatementCacheSize,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.cacheSize > 0 {
		db.stmts, _ = lru.New[string, sql.Statement](db.cacheSize)
	}
	return db
}

// TableOption configures one table registration.
type TableOption func(*registration)

// TableWithCollation overrides the DB's default collator for statements
// against this table.
func TableWithCollation(c collation.Collator) TableOption {
	return func(r *registration) { r.collator = c }
}

// Register makes t queryable under name. Registering an existing name
// replaces the previous table.
func (db *DB) Register(name string, t Table, opts ...TableOption) {
	reg := &registration{name: name, table: t}
	for _, opt := range opts {
		opt(reg)
	}
	db.mu.Lock()
	db.tables[name] = reg
	db.mu.Unlock()
}

// Deregister removes the table registered under name.
func (db *DB) Deregister(name string) {
	db.mu.Lock()
	delete(db.tables, name)
	db.mu.Unlock()
}

// Tables returns the registered table names, sorted.
func (db *DB) Tables() []string {
	db.mu.RLock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	db.mu.RUnlock()
	sort.Strings(names)
	return names
}

// NamedArg binds a value to a :name placeholder. Pass it among the
// arguments of Select or Exec.
type NamedArg struct {
	Name  string
	Value interface{}
}

// Named returns a NamedArg.
func Named(name string, value interface{}) NamedArg {
	return NamedArg{Name: name, Value: value}
}

// Select parses and executes a SELECT, binding positional arguments to ?
// placeholders in lexical order and NamedArg values to :name placeholders.
// The returned cursor is lazy; close it when not draining it fully.
func (db *DB) Select(query string, args ...interface{}) (*Rows, error) {
	stmt, err := db.parse(query)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*sql.SelectStatement)
	if !ok {
		return nil, fmt.Errorf("Select needs a SELECT statement, got %T", stmt)
	}
	pos, named := splitArgs(args)
	bound := sql.Bind(sel, pos, named).(*sql.SelectStatement)
	return db.selectRows(bound)
}

// Exec parses and executes an INSERT, UPDATE or DELETE and returns the
// number of rows affected.
func (db *DB) Exec(query string, args ...interface{}) (int64, error) {
	stmt, err := db.parse(query)
	if err != nil {
		return 0, err
	}
	pos, named := splitArgs(args)
	bound := sql.Bind(stmt, pos, named)
	switch s := bound.(type) {
	case *sql.InsertStatement:
		reg, ev, err := db.prepare(s.Table, nil)
		if err != nil {
			return 0, err
		}
		return db.execInsert(reg, s, ev)
	case *sql.UpdateStatement:
		reg, ev, err := db.prepare(s.Table, nil)
		if err != nil {
			return 0, err
		}
		return db.execUpdate(reg, s, ev)
	case *sql.DeleteStatement:
		reg, ev, err := db.prepare(s.Table, nil)
		if err != nil {
			return 0, err
		}
		return db.execDelete(reg, s, ev)
	default:
		return 0, fmt.Errorf("Exec needs INSERT, UPDATE or DELETE, got %T", bound)
	}
}

// selectRows executes a bound SELECT. Subqueries re-enter here, so nested
// statements get the full planning treatment.
func (db *DB) selectRows(stmt *sql.SelectStatement) (*Rows, error) {
	reg, ev, err := db.prepare(stmt.Table, stmt)
	if err != nil {
		return nil, err
	}
	return db.runSelect(reg, stmt, ev)
}

// prepare resolves the table and builds the statement's evaluator under
// the active collator: ORDER BY COLLATE beats the table's registration
// override, which beats the DB default.
func (db *DB) prepare(table string, stmt *sql.SelectStatement) (*registration, *Evaluator, error) {
	db.mu.RLock()
	reg, ok := db.tables[table]
	db.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("table %q: %w", table, ErrNoTable)
	}
	active := db.collator
	if reg.collator != nil {
		active = reg.collator
	}
	if stmt != nil && len(stmt.OrderBy) > 0 && stmt.OrderBy[0].Collation != "" {
		var err error
		if active, err = collation.Get(stmt.OrderBy[0].Collation); err != nil {
			return nil, nil, err
		}
	}
	return reg, NewEvaluator(active, db.resolver(active)), nil
}

// resolver builds the SubqueryResolver handed to evaluators: the inner
// SELECT runs through the regular pipeline, lazily, and its single column
// becomes the Value's elements. The Value compares under the outer
// statement's collator.
func (db *DB) resolver(c collation.Collator) SubqueryResolver {
	return func(sub *sql.Subquery) (Value, error) {
		stmt := sub.Stmt
		column := subqueryColumn(stmt)
		return NewLazy(func() ([]interface{}, error) {
			rows, err := db.selectRows(stmt)
			if err != nil {
				return nil, err
			}
			defer rows.Close()
			var vals []interface{}
			for rows.Next() {
				v, err := subqueryValue(rows.Row(), column)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return vals, nil
		}, c), nil
	}
}

// subqueryColumn names the column a subquery produces, empty when the
// projection is a star.
func subqueryColumn(stmt *sql.SelectStatement) string {
	if len(stmt.Columns) == 1 && !stmt.Columns[0].Star {
		return columnName(stmt.Columns[0])
	}
	return ""
}

func subqueryValue(row Row, column string) (interface{}, error) {
	if column != "" {
		if v, ok := row.Values[column]; ok {
			return v, nil
		}
	}
	if len(row.Values) == 1 {
		for _, v := range row.Values {
			return v, nil
		}
	}
	return nil, fmt.Errorf("subquery must produce one column, got %d", len(row.Values))
}

// parse returns the parsed statement for query, consulting the cache.
// Cached trees are shared; Bind copies before substituting parameters, so
// sharing is safe.
func (db *DB) parse(query string) (sql.Statement, error) {
	if db.stmts != nil {
		if stmt, ok := db.stmts.Get(query); ok {
			return stmt, nil
		}
	}
	stmt, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}
	if db.stmts != nil {
		db.stmts.Add(query, stmt)
	}
	return stmt, nil
}

func splitArgs(args []interface{}) ([]interface{}, map[string]interface{}) {
	var pos []interface{}
	var named map[string]interface{}
	for _, a := range args {
		if n, ok := a.(NamedArg); ok {
			if named == nil {
				named = make(map[string]interface{})
			}
			named[n.Name] = n.Value
			continue
		}
		pos = append(pos, a)
	}
	return pos, named
}
