package tables

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/parquet-go/parquet-go"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// maxSetFiles caps how many files one glob may expand to.
const maxSetFiles = 1000

// ParquetSet reads every parquet file matching a glob pattern as one
// table. Files load in parallel through a bounded worker pool. Each row
// carries a _file column naming its source file, and its ID has the form
// "path:n" so IDs stay unique across the whole set.
type ParquetSet struct {
	pattern string
	workers int
}

// ParquetSetOption configures a ParquetSet.
type ParquetSetOption func(*ParquetSet)

// ParquetSetWithWorkers bounds the loading pool. The default is the
// number of CPUs.
func ParquetSetWithWorkers(n int) ParquetSetOption {
	return func(ps *ParquetSet) { ps.workers = n }
}

// NewParquetSet returns a table over all parquet files matching pattern
// (filepath.Glob syntax). The glob expands per Select, so files added to
// the directory show up in the next query.
func NewParquetSet(pattern string, opts ...ParquetSetOption) *ParquetSet {
	ps := &ParquetSet{pattern: pattern, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

func (ps *ParquetSet) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	matches, err := filepath.Glob(ps.pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", ps.pattern)
	}
	if len(matches) > maxSetFiles {
		return nil, fmt.Errorf("pattern %s matches %d files, maximum is %d", ps.pattern, len(matches), maxSetFiles)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		byFile  = make([][]engine.Row, len(matches))
		loadErr error
	)
	fail := func(err error) {
		mu.Lock()
		if loadErr == nil {
			loadErr = err
		}
		mu.Unlock()
	}

	pool, err := ants.NewPool(ps.workers, ants.WithPanicHandler(func(v interface{}) {
		fail(fmt.Errorf("parquet load panicked: %v", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to start loader pool: %w", err)
	}
	defer pool.Release()

	for i, path := range matches {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			rows, err := readParquetRows(path)
			if err != nil {
				fail(fmt.Errorf("failed to read %s: %w", path, err))
				return
			}
			mu.Lock()
			byFile[i] = rows
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			fail(err)
		}
	}
	wg.Wait()
	if loadErr != nil {
		return nil, loadErr
	}

	var items []engine.Item
	for _, rows := range byFile {
		for _, row := range rows {
			items = append(items, row)
		}
	}
	return engine.NewSliceIterator(items...), nil
}

// readParquetRows loads one file eagerly, tagging rows with their source.
func readParquetRows(path string) ([]engine.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}
	r := parquet.NewReader(pf)
	defer func() { _ = r.Close() }()

	var rows []engine.Row
	for n := int64(1); ; n++ {
		row := make(map[string]interface{})
		if err := r.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return nil, err
		}
		row["_file"] = path
		rows = append(rows, engine.Row{ID: fmt.Sprintf("%s:%d", path, n), Values: row})
	}
}
