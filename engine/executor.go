package engine

import (
	"fmt"
	"io"
	"sort"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/sql"
)

// rowStream wraps a table iterator and enforces the stream contract: an
// OrderInfo claim may appear only as the first item, every other item must
// be a Row, and row IDs must be unique across the stream.
type rowStream struct {
	table  string
	it     Iterator
	pos    int
	seen   map[interface{}]struct{}
	peeked *Row
	eof    bool
}

func newRowStream(table string, it Iterator) *rowStream {
	return &rowStream{table: table, it: it, seen: make(map[interface{}]struct{})}
}

// start consumes a leading OrderInfo claim if the table yields one. The
// first row, when there is no claim, is buffered for the next call to next.
func (s *rowStream) start() (*OrderInfo, error) {
	item, err := s.it.Next()
	if err == io.EOF {
		s.eof = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.pos = 1
	switch v := item.(type) {
	case OrderInfo:
		return &v, nil
	case Row:
		if err := s.record(v); err != nil {
			return nil, err
		}
		s.peeked = &v
		return nil, nil
	default:
		return nil, s.violation(fmt.Sprintf("yielded %T, want Row or OrderInfo", item))
	}
}

// next returns the next row, io.EOF after the last.
func (s *rowStream) next() (Row, error) {
	if s.peeked != nil {
		row := *s.peeked
		s.peeked = nil
		return row, nil
	}
	if s.eof {
		return Row{}, io.EOF
	}
	item, err := s.it.Next()
	if err == io.EOF {
		s.eof = true
		return Row{}, io.EOF
	}
	if err != nil {
		return Row{}, err
	}
	s.pos++
	row, ok := item.(Row)
	if !ok {
		if _, claim := item.(OrderInfo); claim {
			return Row{}, s.violation("OrderInfo after the first item")
		}
		return Row{}, s.violation(fmt.Sprintf("yielded %T, want Row", item))
	}
	if err := s.record(row); err != nil {
		return Row{}, err
	}
	return row, nil
}

func (s *rowStream) record(row Row) error {
	if _, dup := s.seen[row.ID]; dup {
		return s.violation(fmt.Sprintf("duplicate row ID %v", row.ID))
	}
	s.seen[row.ID] = struct{}{}
	return nil
}

func (s *rowStream) violation(detail string) error {
	return &ContractError{Table: s.table, Position: s.pos, Detail: detail}
}

// runSelect executes a bound SELECT against a registered table. The
// iterator's first item decides the plan: when the table's order claim
// satisfies the requested ORDER BY, rows flow straight through with
// filtering and pagination applied per pull; otherwise all rows are
// drained, sorted and paginated up front. Both plans apply projection at
// emit time and enforce the stream contract on every item pulled.
func (db *DB) runSelect(reg *registration, stmt *sql.SelectStatement, ev *Evaluator) (*Rows, error) {
	active := ev.collator
	keys, err := sortKeys(stmt.OrderBy, active)
	if err != nil {
		return nil, err
	}

	it, err := reg.table.Select(stmt)
	if err != nil {
		return nil, err
	}
	src := newRowStream(reg.name, it)
	claim, err := src.start()
	if err != nil {
		it.Close()
		return nil, err
	}

	// A non-nil Skipped means the table already applied WHERE and
	// skipped that many matching rows toward OFFSET; the engine then
	// skips only the remainder and does not re-filter.
	trustWhere := claim != nil && claim.Skipped != nil
	var offset int64
	if stmt.Offset != nil {
		offset = *stmt.Offset
	}
	if trustWhere {
		offset -= int64(*claim.Skipped)
		if offset < 0 {
			offset = 0
		}
	}
	limit := int64(-1)
	if stmt.Limit != nil {
		limit = *stmt.Limit
	}

	project := projector(stmt, ev)

	if orderSatisfied(claim, stmt.OrderBy, active) {
		return streamRows(it, src, stmt.Where, ev, trustWhere, offset, limit, project), nil
	}

	rows, err := drainRows(src, stmt.Where, ev, trustWhere)
	it.Close()
	if err != nil {
		return nil, err
	}
	sortRows(rows, keys)
	rows = window(rows, offset, limit)
	return materializedRows(rows, project), nil
}

// orderSatisfied reports whether the claimed physical order makes the
// requested ORDER BY a no-op. Claims carry a single column, so any
// multi-term ORDER BY materializes; the claimed collation must resolve to
// the collator the query orders under.
func orderSatisfied(claim *OrderInfo, terms []sql.OrderingTerm, active collation.Collator) bool {
	if len(terms) == 0 {
		return true
	}
	if claim == nil || claim.Column == "" || len(terms) > 1 {
		return false
	}
	t := terms[0]
	if claim.Column != t.Column || claim.Desc != t.Desc {
		return false
	}
	cc, err := collation.Get(claim.Collation)
	if err != nil {
		return false
	}
	return cc.Name() == active.Name()
}

func streamRows(it Iterator, src *rowStream, where sql.Expression, ev *Evaluator, trustWhere bool, offset, limit int64, project func(Row) (Row, error)) *Rows {
	var emitted int64
	return &Rows{
		pull: func() (Row, error) {
			for {
				if limit >= 0 && emitted >= limit {
					return Row{}, io.EOF
				}
				row, err := src.next()
				if err != nil {
					return Row{}, err
				}
				if !trustWhere {
					ok, err := ev.Matches(row, where)
					if err != nil {
						return Row{}, err
					}
					if !ok {
						continue
					}
				}
				if offset > 0 {
					offset--
					continue
				}
				emitted++
				return project(row)
			}
		},
		closefn: it.Close,
	}
}

func drainRows(src *rowStream, where sql.Expression, ev *Evaluator, trustWhere bool) ([]Row, error) {
	var rows []Row
	for {
		row, err := src.next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if !trustWhere {
			ok, err := ev.Matches(row, where)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row)
	}
}

// sortKey is one resolved ORDER BY term.
type sortKey struct {
	column string
	desc   bool
	coll   collation.Collator
}

func sortKeys(terms []sql.OrderingTerm, active collation.Collator) ([]sortKey, error) {
	keys := make([]sortKey, len(terms))
	for i, t := range terms {
		coll := active
		if t.Collation != "" {
			var err error
			if coll, err = collation.Get(t.Collation); err != nil {
				return nil, err
			}
		}
		keys[i] = sortKey{column: t.Column, desc: t.Desc, coll: coll}
	}
	return keys, nil
}

// sortRows sorts rows by the resolved terms. The sort is stable, so rows
// comparing equal keep their source order. Missing columns read as NULL,
// which sorts first ascending and last descending.
func sortRows(rows []Row, keys []sortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			cmp := k.coll.Compare(rows[i].Values[k.column], rows[j].Values[k.column])
			if cmp == 0 {
				continue
			}
			if k.desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func window(rows []Row, offset, limit int64) []Row {
	if offset > 0 {
		if offset >= int64(len(rows)) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit >= 0 && limit < int64(len(rows)) {
		rows = rows[:limit]
	}
	return rows
}

// projector compiles the projection list once per statement. SELECT *
// passes rows through untouched; expression items are named by alias,
// column, or their printed form.
func projector(stmt *sql.SelectStatement, ev *Evaluator) func(Row) (Row, error) {
	cols := stmt.Columns
	if len(cols) == 0 || (len(cols) == 1 && cols[0].Star) {
		return func(row Row) (Row, error) { return row, nil }
	}
	return func(row Row) (Row, error) {
		out := make(map[string]interface{}, len(cols))
		for _, item := range cols {
			if item.Star {
				for k, v := range row.Values {
					out[k] = v
				}
				continue
			}
			v, err := ev.Scalar(row, item.Expr)
			if err != nil {
				return Row{}, err
			}
			out[columnName(item)] = v
		}
		return Row{ID: row.ID, Values: out}, nil
	}
}

func columnName(item sql.SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if id, ok := item.Expr.(*sql.Identifier); ok {
		return id.Column()
	}
	return sql.ExprString(item.Expr)
}

// execInsert resolves each VALUES tuple and hands it to the table.
func (db *DB) execInsert(reg *registration, stmt *sql.InsertStatement, ev *Evaluator) (int64, error) {
	ins, ok := reg.table.(Inserter)
	if !ok {
		return 0, &CapabilityError{Table: reg.name, Op: "INSERT"}
	}
	var count int64
	for _, tuple := range stmt.Rows {
		if len(tuple) != len(stmt.Columns) {
			return count, fmt.Errorf("INSERT into %q names %d columns but supplies %d values", reg.name, len(stmt.Columns), len(tuple))
		}
		values := make(map[string]interface{}, len(tuple))
		for i, expr := range tuple {
			v, err := ev.Constant(expr)
			if err != nil {
				return count, err
			}
			values[stmt.Columns[i]] = v
		}
		if _, err := ins.Insert(values); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// execUpdate resolves WHERE to a set of row IDs with a full scan, then
// hands IDs and resolved SET values to the table in one call. The scan
// statement carries no WHERE, ORDER BY or LIMIT, and any order claim on it
// is ignored: mutations never trust table-side filtering.
func (db *DB) execUpdate(reg *registration, stmt *sql.UpdateStatement, ev *Evaluator) (int64, error) {
	upd, ok := reg.table.(Updater)
	if !ok {
		return 0, &CapabilityError{Table: reg.name, Op: "UPDATE"}
	}
	if stmt.Where == nil && !db.unsafeDML {
		return 0, fmt.Errorf("table %q: %w", reg.name, ErrUnsafeMutation)
	}
	changes := make(map[string]interface{}, len(stmt.Assignments))
	for _, a := range stmt.Assignments {
		v, err := ev.Constant(a.Value)
		if err != nil {
			return 0, err
		}
		changes[a.Column] = v
	}
	ids, err := db.mutationIDs(reg, stmt.Where, ev)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return upd.Update(ids, changes)
}

// execDelete resolves WHERE to a set of row IDs with a full scan, then
// hands the IDs to the table in one call.
func (db *DB) execDelete(reg *registration, stmt *sql.DeleteStatement, ev *Evaluator) (int64, error) {
	del, ok := reg.table.(Deleter)
	if !ok {
		return 0, &CapabilityError{Table: reg.name, Op: "DELETE"}
	}
	if stmt.Where == nil && !db.unsafeDML {
		return 0, fmt.Errorf("table %q: %w", reg.name, ErrUnsafeMutation)
	}
	ids, err := db.mutationIDs(reg, stmt.Where, ev)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return del.Delete(ids)
}

// mutationIDs scans the whole table and collects the IDs of rows matching
// where. A nil where matches everything.
func (db *DB) mutationIDs(reg *registration, where sql.Expression, ev *Evaluator) ([]interface{}, error) {
	scan := &sql.SelectStatement{
		Columns: []sql.SelectItem{{Star: true}},
		Table:   reg.name,
	}
	it, err := reg.table.Select(scan)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	src := newRowStream(reg.name, it)
	if _, err := src.start(); err != nil {
		return nil, err
	}
	var ids []interface{}
	for {
		row, err := src.next()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		ok, err := ev.Matches(row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, row.ID)
		}
	}
}
