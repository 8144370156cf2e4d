package tables

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// Parquet reads one Apache Parquet file. Rows stream: each pull decodes
// one row, so LIMIT stops without scanning the rest of the file. Row IDs
// are 1-based ordinals.
type Parquet struct {
	path string
}

// NewParquet returns a table over the parquet file at path. The file is
// not touched until the first Select.
//
// Example usage:
//
//	db.Register("events", tables.NewParquet("events.parquet"))
//	rows, err := db.Select("SELECT * FROM events WHERE level = 'error' LIMIT 10")
func NewParquet(path string) *Parquet {
	return &Parquet{path: path}
}

func (p *Parquet) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return &parquetIterator{path: p.path, file: f, r: parquet.NewReader(pf)}, nil
}

type parquetIterator struct {
	path string
	file *os.File
	r    *parquet.Reader
	n    int64
}

func (it *parquetIterator) Next() (engine.Item, error) {
	row := make(map[string]interface{})
	if err := it.r.Read(&row); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row from %s: %w", it.path, err)
	}
	it.n++
	return engine.Row{ID: it.n, Values: row}, nil
}

func (it *parquetIterator) Close() error {
	if it.file == nil {
		return nil
	}
	rerr := it.r.Close()
	ferr := it.file.Close()
	it.file = nil
	if rerr != nil {
		return rerr
	}
	return ferr
}
