package engine

import "io"

// Rows is a cursor over the result of a SELECT. Rows are produced on
// demand: under a streaming plan each Next pulls from the table, so
// breaking out early leaves unread rows unread. The cursor closes itself
// when exhausted or on error; call Close when abandoning it early.
//
//	rows, err := db.Select("SELECT * FROM users WHERE age > ?", 21)
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    fmt.Println(rows.Row().Values["name"])
//	}
//	return rows.Err()
type Rows struct {
	pull    func() (Row, error)
	closefn func() error
	row     Row
	err     error
	done    bool
	closed  bool
}

// Next advances to the next row. It returns false at the end of the result
// set or on error; Err tells the two apart.
func (r *Rows) Next() bool {
	if r.done {
		return false
	}
	row, err := r.pull()
	if err != nil {
		r.done = true
		if err != io.EOF {
			r.err = err
		}
		r.closeOnce()
		return false
	}
	r.row = row
	return true
}

// Row returns the current row. It is valid only after a Next that returned
// true.
func (r *Rows) Row() Row { return r.row }

// Err returns the error that stopped iteration, if any.
func (r *Rows) Err() error { return r.err }

// Close releases the underlying table iterator. It is safe to call more
// than once and after exhaustion.
func (r *Rows) Close() error {
	r.done = true
	return r.closeOnce()
}

func (r *Rows) closeOnce() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closefn == nil {
		return nil
	}
	return r.closefn()
}

// All drains the cursor and closes it.
func (r *Rows) All() ([]Row, error) {
	defer r.Close()
	var rows []Row
	for r.Next() {
		rows = append(rows, r.row)
	}
	return rows, r.Err()
}

// materializedRows wraps an already-computed result slice, applying
// projection per pull.
func materializedRows(rows []Row, project func(Row) (Row, error)) *Rows {
	i := 0
	return &Rows{pull: func() (Row, error) {
		if i >= len(rows) {
			return Row{}, io.EOF
		}
		row := rows[i]
		i++
		return project(row)
	}}
}
