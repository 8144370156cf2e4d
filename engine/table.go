package engine

import (
	"io"

	"github.com/mesadb/mesa/sql"
)

// Row is one record produced by a table. ID identifies the row within its
// table and must be unique across a single result stream; Values maps column
// names to Go values (nil, bool, int64, float64, string, or any numeric
// width, which comparisons normalize).
type Row struct {
	ID     interface{}
	Values map[string]interface{}
}

// OrderInfo is an optional claim a table may yield as the first item of a
// stream, before any row.
//
// Column, Desc and Collation declare the physical order of the rows that
// follow. An empty Column claims no particular order. Collation names the
// collation the order was produced under; empty means binary.
//
// Skipped, when non-nil, declares that the table already evaluated the
// statement's WHERE clause and already skipped that many matching rows
// toward OFFSET. The engine then trusts the rows as pre-filtered, skips
// only the remaining offset, and does not re-evaluate WHERE. A nil Skipped
// leaves filtering and offset handling entirely to the engine.
type OrderInfo struct {
	Column    string
	Desc      bool
	Collation string
	Skipped   *int
}

// Item is one element of a table's result stream: either a Row or an
// OrderInfo claim. The set is sealed; the engine dispatches by type switch.
type Item interface {
	item()
}

func (Row) item()       {}
func (OrderInfo) item() {}

// Iterator is a pull cursor over a table's result stream. Next returns
// io.EOF after the last item. Close releases underlying resources and must
// be safe to call more than once; the engine calls it as soon as it stops
// pulling, which may be before the stream is exhausted.
type Iterator interface {
	Next() (Item, error)
	Close() error
}

// Table is the one capability every data source must provide: produce an
// iterator for a SELECT. The statement is fully bound (no placeholders
// remain) and names the table itself, so implementations may ignore
// everything except the clauses they choose to push down. Returning all
// rows and no OrderInfo is always correct; the engine applies WHERE,
// ORDER BY, LIMIT and OFFSET on top.
type Table interface {
	Select(stmt *sql.SelectStatement) (Iterator, error)
}

// TableFunc adapts a function to the Table interface.
type TableFunc func(stmt *sql.SelectStatement) (Iterator, error)

// Select calls f.
func (f TableFunc) Select(stmt *sql.SelectStatement) (Iterator, error) {
	return f(stmt)
}

// Inserter is implemented by tables that accept INSERT. Insert stores one
// row and returns its new ID.
type Inserter interface {
	Insert(values map[string]interface{}) (interface{}, error)
}

// Updater is implemented by tables that accept UPDATE. The engine resolves
// WHERE itself and passes the IDs of the affected rows; changes holds the
// resolved SET values. Update returns the number of rows changed.
type Updater interface {
	Update(ids []interface{}, changes map[string]interface{}) (int64, error)
}

// Deleter is implemented by tables that accept DELETE. The engine resolves
// WHERE itself and passes the IDs of the affected rows. Delete returns the
// number of rows removed.
type Deleter interface {
	Delete(ids []interface{}) (int64, error)
}

// sliceIterator yields a fixed slice of items.
type sliceIterator struct {
	items []Item
	pos   int
}

// NewSliceIterator returns an Iterator over items. Tables that materialize
// their results can use it instead of writing a cursor by hand.
func NewSliceIterator(items ...Item) Iterator {
	return &sliceIterator{items: items}
}

func (it *sliceIterator) Next() (Item, error) {
	if it.pos >= len(it.items) {
		return nil, io.EOF
	}
	item := it.items[it.pos]
	it.pos++
	return item, nil
}

func (it *sliceIterator) Close() error {
	it.pos = len(it.items)
	return nil
}
