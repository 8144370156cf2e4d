package tables

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// Memory is a mutable in-memory table. It implements every capability:
// SELECT plus INSERT, UPDATE and DELETE. Generated row IDs are UUID
// strings by default; MemoryWithSequentialIDs switches to an int64
// counter.
//
// A Memory built with MemoryWithSort serves its rows sorted by one column
// and announces that order ahead of them, so queries ordered the same way
// stream instead of materializing. A sorted Memory also evaluates simple
// WHERE clauses and the statement's OFFSET itself, declaring the pushdown
// through the order claim's Skipped count.
type Memory struct {
	mu     sync.RWMutex
	rows   []engine.Row
	seq    int64
	useSeq bool
	sort   *memorySort
}

type memorySort struct {
	column string
	desc   bool
	coll   collation.Collator
}

// MemoryOption configures a Memory table.
type MemoryOption func(*Memory)

// MemoryWithSequentialIDs makes Insert assign int64 IDs counting from 1
// instead of UUIDs.
func MemoryWithSequentialIDs() MemoryOption {
	return func(m *Memory) { m.useSeq = true }
}

// MemoryWithSort declares a physical order: rows are served sorted by
// column under c (nil means binary) and Select yields the matching order
// claim. Sorted tables push WHERE and OFFSET down.
func MemoryWithSort(column string, desc bool, c collation.Collator) MemoryOption {
	if c == nil {
		c = collation.Default()
	}
	return func(m *Memory) {
		m.sort = &memorySort{column: column, desc: desc, coll: c}
	}
}

// NewMemory returns an empty Memory table.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Select serves a snapshot of the current rows. Sorted tables order the
// snapshot, filter it against the statement's WHERE when the clause is
// simple enough to evaluate locally, skip up to OFFSET matching rows, and
// declare all of it in the leading order claim.
func (m *Memory) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	m.mu.RLock()
	rows := make([]engine.Row, len(m.rows))
	copy(rows, m.rows)
	m.mu.RUnlock()

	if m.sort == nil {
		items := make([]engine.Item, len(rows))
		for i, row := range rows {
			items[i] = row
		}
		return engine.NewSliceIterator(items...), nil
	}

	s := m.sort
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := s.coll.Compare(rows[i].Values[s.column], rows[j].Values[s.column])
		if s.desc {
			return cmp > 0
		}
		return cmp < 0
	})
	claim := engine.OrderInfo{Column: s.column, Desc: s.desc, Collation: s.coll.Name()}

	if !pushable(stmt.Where) {
		items := make([]engine.Item, 0, len(rows)+1)
		items = append(items, claim)
		for _, row := range rows {
			items = append(items, row)
		}
		return engine.NewSliceIterator(items...), nil
	}

	ev := engine.NewEvaluator(s.coll, nil)
	var offset int64
	if stmt.Offset != nil {
		offset = *stmt.Offset
	}
	skipped := 0
	items := []engine.Item{nil} // claim goes first, once skipped is final
	for _, row := range rows {
		ok, err := ev.Matches(row, stmt.Where)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if int64(skipped) < offset {
			skipped++
			continue
		}
		items = append(items, row)
	}
	claim.Skipped = &skipped
	items[0] = claim
	return engine.NewSliceIterator(items...), nil
}

// Insert stores a copy of values under a fresh ID and returns the ID.
func (m *Memory) Insert(values map[string]interface{}) (interface{}, error) {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var id interface{}
	if m.useSeq {
		m.seq++
		id = m.seq
	} else {
		id = uuid.NewString()
	}
	m.rows = append(m.rows, engine.Row{ID: id, Values: copied})
	return id, nil
}

// Update applies changes to every row whose ID is in ids. Row value maps
// are replaced, not mutated, so snapshots handed to in-flight queries stay
// intact.
func (m *Memory) Update(ids []interface{}, changes map[string]interface{}) (int64, error) {
	want := idSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.rows {
		if _, ok := want[m.rows[i].ID]; !ok {
			continue
		}
		next := make(map[string]interface{}, len(m.rows[i].Values)+len(changes))
		for k, v := range m.rows[i].Values {
			next[k] = v
		}
		for k, v := range changes {
			next[k] = v
		}
		m.rows[i].Values = next
		n++
	}
	return n, nil
}

// Delete removes every row whose ID is in ids.
func (m *Memory) Delete(ids []interface{}) (int64, error) {
	want := idSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]engine.Row, 0, len(m.rows))
	var n int64
	for _, row := range m.rows {
		if _, ok := want[row.ID]; ok {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return n, nil
}

func idSet(ids []interface{}) map[interface{}]struct{} {
	set := make(map[interface{}]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// pushable reports whether cond can be evaluated table-side. Subqueries
// need the engine's resolver, placeholders bind to engine-side arguments,
// and function calls are not evaluable at all, so any of them leaves
// filtering to the engine.
func pushable(cond sql.Expression) bool {
	switch e := cond.(type) {
	case nil:
		return true
	case *sql.Literal, *sql.Identifier:
		return true
	case *sql.Unary:
		return pushable(e.Expr)
	case *sql.Binary:
		return pushable(e.Left) && pushable(e.Right)
	case *sql.In:
		if e.Sub != nil {
			return false
		}
		for _, el := range e.List {
			if !pushable(el) {
				return false
			}
		}
		return pushable(e.Expr)
	case *sql.Like:
		return pushable(e.Expr) && pushable(e.Pattern)
	case *sql.IsNull:
		return pushable(e.Expr)
	default:
		return false
	}
}
