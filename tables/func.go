package tables

import (
	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// Func adapts a generator closure to the Table interface. Each Select
// calls the function for a fresh generator, and each pull calls the
// generator for the next row; returning io.EOF ends the stream. A
// generator may be unbounded, in which case only LIMIT or an abandoned
// cursor ends the scan.
//
// Example usage:
//
//	naturals := tables.Func(func() func() (engine.Row, error) {
//	    var n int64
//	    return func() (engine.Row, error) {
//	        n++
//	        return engine.Row{ID: n, Values: map[string]interface{}{"n": n}}, nil
//	    }
//	})
//	db.Register("naturals", naturals)
//	rows, err := db.Select("SELECT n FROM naturals LIMIT 5")
type Func func() func() (engine.Row, error)

func (f Func) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	return &funcIterator{next: f()}, nil
}

type funcIterator struct {
	next func() (engine.Row, error)
}

func (it *funcIterator) Next() (engine.Item, error) {
	row, err := it.next()
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (it *funcIterator) Close() error { return nil }
