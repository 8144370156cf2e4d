package engine

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/sql"
)

// testTable yields a scripted item stream and records how the engine
// used it.
type testTable struct {
	items   []Item
	selects int
	last    *sql.SelectStatement
	pulls   int
	closes  int
}

func (tt *testTable) Select(stmt *sql.SelectStatement) (Iterator, error) {
	tt.selects++
	tt.last = stmt
	return &testIterator{t: tt}, nil
}

type testIterator struct {
	t   *testTable
	pos int
}

func (it *testIterator) Next() (Item, error) {
	if it.pos >= len(it.t.items) {
		return nil, io.EOF
	}
	item := it.t.items[it.pos]
	it.pos++
	it.t.pulls++
	return item, nil
}

func (it *testIterator) Close() error {
	it.t.closes++
	return nil
}

// writeTable records the mutations the engine hands to it.
type writeTable struct {
	testTable
	inserts []map[string]interface{}
	updates []mutation
	deletes [][]interface{}
}

type mutation struct {
	ids     []interface{}
	changes map[string]interface{}
}

func (wt *writeTable) Insert(values map[string]interface{}) (interface{}, error) {
	wt.inserts = append(wt.inserts, values)
	return int64(len(wt.inserts)), nil
}

func (wt *writeTable) Update(ids []interface{}, changes map[string]interface{}) (int64, error) {
	wt.updates = append(wt.updates, mutation{ids: ids, changes: changes})
	return int64(len(ids)), nil
}

func (wt *writeTable) Delete(ids []interface{}) (int64, error) {
	wt.deletes = append(wt.deletes, ids)
	return int64(len(ids)), nil
}

func user(id int64, name string, age int64) Row {
	return Row{ID: id, Values: map[string]interface{}{
		"id":   id,
		"name": name,
		"age":  age,
	}}
}

// usersTable returns the two-row fixture most tests query: Bob (25) and
// alice (30), in that physical order.
func usersTable() *testTable {
	return &testTable{items: []Item{
		user(1, "Bob", 25),
		user(2, "alice", 30),
	}}
}

func skipped(n int) *int { return &n }

func allRows(t *testing.T, db *DB, query string, args ...interface{}) []Row {
	t.Helper()
	rows, err := db.Select(query, args...)
	if err != nil {
		t.Fatalf("Select(%q) error = %v", query, err)
	}
	got, err := rows.All()
	if err != nil {
		t.Fatalf("Select(%q) drain error = %v", query, err)
	}
	return got
}

func rowIDs(rows []Row) []interface{} {
	ids := make([]interface{}, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestDB_SelectProjection(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	tests := []struct {
		name  string
		query string
		want  map[string]interface{}
	}{
		{
			"star passes the row through",
			"SELECT * FROM users WHERE id = 1",
			map[string]interface{}{"id": int64(1), "name": "Bob", "age": int64(25)},
		},
		{
			"single column",
			"SELECT name FROM users WHERE id = 1",
			map[string]interface{}{"name": "Bob"},
		},
		{
			"aliases and expressions",
			"SELECT name AS n, age * 2 AS twice FROM users WHERE id = 1",
			map[string]interface{}{"n": "Bob", "twice": int64(50)},
		},
		{
			"expression without alias keeps its text",
			"SELECT age + 1 FROM users WHERE id = 1",
			map[string]interface{}{"age + 1": int64(26)},
		},
		{
			"star mixes with expressions",
			"SELECT *, age + 1 AS next FROM users WHERE id = 1",
			map[string]interface{}{"id": int64(1), "name": "Bob", "age": int64(25), "next": int64(26)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := allRows(t, db, tt.query)
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if rows[0].ID != int64(1) {
				t.Errorf("row ID = %v, want 1", rows[0].ID)
			}
			if !reflect.DeepEqual(rows[0].Values, tt.want) {
				t.Errorf("row = %v, want %v", rows[0].Values, tt.want)
			}
		})
	}
}

func TestDB_SelectArgs(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	rows := allRows(t, db, "SELECT name FROM users WHERE age > ?", int64(26))
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2)}) {
		t.Errorf("positional arg: got IDs %v, want [2]", got)
	}

	rows = allRows(t, db, "SELECT name FROM users WHERE age > :min", Named("min", int64(26)))
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2)}) {
		t.Errorf("named arg: got IDs %v, want [2]", got)
	}
}

// The statement cache hands the same parsed tree to every execution, so
// binding must not leak one call's arguments into the next.
func TestDB_StatementCacheRebinds(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	const q = "SELECT name FROM users WHERE age > ?"
	if rows := allRows(t, db, q, int64(26)); len(rows) != 1 {
		t.Fatalf("first run: got %d rows, want 1", len(rows))
	}
	if rows := allRows(t, db, q, int64(1)); len(rows) != 2 {
		t.Fatalf("second run: got %d rows, want 2", len(rows))
	}
	if rows := allRows(t, db, q, int64(99)); len(rows) != 0 {
		t.Fatalf("third run: got %d rows, want 0", len(rows))
	}
}

func TestDB_SelectErrors(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	_, err := db.Select("SELECT * FROM ghosts")
	if !errors.Is(err, ErrNoTable) {
		t.Errorf("unknown table error = %v, want ErrNoTable", err)
	}

	if _, err := db.Select("DELETE FROM users WHERE id = 1"); err == nil {
		t.Error("Select accepted a DELETE statement")
	}
	if _, err := db.Exec("SELECT * FROM users"); err == nil {
		t.Error("Exec accepted a SELECT statement")
	}
}

// The walkthrough scenario: under nocase collation, alice (30) sorts before
// Bob (25) even though the source yields Bob first.
func TestDB_NocaseOrdering(t *testing.T) {
	db := New(WithCollation(collation.NoCase()))
	db.Register("users", usersTable())

	rows := allRows(t, db, "SELECT * FROM users WHERE age > 20 ORDER BY name")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2), int64(1)}) {
		t.Errorf("nocase order = %v, want [2 1]", got)
	}

	// Binary collation flips the pair: 'B' sorts before 'a'.
	db = New()
	db.Register("users", usersTable())
	rows = allRows(t, db, "SELECT * FROM users WHERE age > 20 ORDER BY name")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(1), int64(2)}) {
		t.Errorf("binary order = %v, want [1 2]", got)
	}
}

func TestDB_PerTableCollation(t *testing.T) {
	db := New()
	db.Register("users", usersTable(), TableWithCollation(collation.NoCase()))

	rows := allRows(t, db, "SELECT * FROM users WHERE name = 'ALICE'")
	if len(rows) != 1 {
		t.Fatalf("nocase table: got %d rows, want 1", len(rows))
	}

	// ORDER BY COLLATE outranks the table registration.
	rows = allRows(t, db, "SELECT * FROM users WHERE name = 'ALICE' ORDER BY name COLLATE binary")
	if len(rows) != 0 {
		t.Fatalf("binary override: got %d rows, want 0", len(rows))
	}
}

// ORDER BY ... COLLATE sets the statement's collator, so it changes WHERE
// comparisons too, not just the sort.
func TestDB_OrderByCollateOverride(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	rows := allRows(t, db, "SELECT * FROM users WHERE name = 'ALICE' ORDER BY name COLLATE nocase")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2)}) {
		t.Errorf("got IDs %v, want [2]", got)
	}
}

// A matching order claim lets rows stream: with LIMIT 2 the engine pulls
// the claim and exactly two rows, leaving the rest unread.
func TestDB_LimitStopsPullingStreamingPlan(t *testing.T) {
	tbl := &testTable{items: []Item{
		OrderInfo{Column: "name"},
		user(1, "alice", 30),
		user(2, "bob", 25),
		user(3, "carol", 41),
		user(4, "dave", 19),
		user(5, "erin", 52),
	}}
	db := New()
	db.Register("users", tbl)

	rows := allRows(t, db, "SELECT * FROM users ORDER BY name LIMIT 2")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(1), int64(2)}) {
		t.Fatalf("got IDs %v, want [1 2]", got)
	}
	if tbl.pulls != 3 {
		t.Errorf("pulled %d items, want 3 (claim + LIMIT rows)", tbl.pulls)
	}
	if tbl.closes == 0 {
		t.Error("iterator was never closed")
	}
}

func TestDB_LimitStopsPullingNoOrder(t *testing.T) {
	tbl := &testTable{items: []Item{
		user(1, "alice", 30),
		user(2, "bob", 25),
		user(3, "carol", 41),
	}}
	db := New()
	db.Register("users", tbl)

	rows := allRows(t, db, "SELECT * FROM users LIMIT 2")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if tbl.pulls != 2 {
		t.Errorf("pulled %d items, want 2", tbl.pulls)
	}
}

func TestDB_LimitZero(t *testing.T) {
	db := New()
	db.Register("users", usersTable())
	if rows := allRows(t, db, "SELECT * FROM users LIMIT 0"); len(rows) != 0 {
		t.Errorf("LIMIT 0 returned %d rows", len(rows))
	}
}

// An unsatisfiable order claim forces materialization: every row is
// drained even under LIMIT, and the engine re-sorts.
func TestDB_OrderClaimMismatches(t *testing.T) {
	tests := []struct {
		name    string
		claim   OrderInfo
		query   string
		wantIDs []interface{}
	}{
		{
			"wrong column",
			OrderInfo{Column: "name"},
			"SELECT * FROM t ORDER BY age LIMIT 1",
			[]interface{}{int64(2)},
		},
		{
			"wrong direction",
			OrderInfo{Column: "age"},
			"SELECT * FROM t ORDER BY age DESC LIMIT 1",
			[]interface{}{int64(1)},
		},
		{
			"multi-term order never streams",
			OrderInfo{Column: "age"},
			"SELECT * FROM t ORDER BY age, name LIMIT 1",
			[]interface{}{int64(2)},
		},
		{
			"collation mismatch",
			OrderInfo{Column: "name", Collation: "nocase"},
			"SELECT * FROM t ORDER BY name LIMIT 1",
			[]interface{}{int64(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &testTable{items: []Item{
				tt.claim,
				user(1, "Bob", 25),
				user(2, "alice", 19),
			}}
			db := New()
			db.Register("t", tbl)

			rows := allRows(t, db, tt.query)
			if got := rowIDs(rows); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("got IDs %v, want %v", got, tt.wantIDs)
			}
			if tbl.pulls != len(tbl.items) {
				t.Errorf("pulled %d items, want %d (full drain)", tbl.pulls, len(tbl.items))
			}
		})
	}
}

// Collation names on claims are canonicalized before matching: "iw" is the
// deprecated tag for Hebrew, so a claim under "iw" satisfies ORDER BY
// COLLATE he and the plan streams.
func TestDB_OrderClaimLocaleCanonicalized(t *testing.T) {
	tbl := &testTable{items: []Item{
		OrderInfo{Column: "name", Collation: "iw"},
		user(1, "aleph", 1),
		user(2, "bet", 2),
		user(3, "gimel", 3),
	}}
	db := New()
	db.Register("t", tbl)

	rows := allRows(t, db, "SELECT * FROM t ORDER BY name COLLATE he LIMIT 1")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(1)}) {
		t.Fatalf("got IDs %v, want [1]", got)
	}
	if tbl.pulls != 2 {
		t.Errorf("pulled %d items, want 2 (claim + 1 row)", tbl.pulls)
	}
}

// Streaming and materialized plans must agree: the same query over the
// same data returns the same sequence whether or not the table claims the
// order.
func TestDB_PlanEquivalence(t *testing.T) {
	claimed := &testTable{items: []Item{
		OrderInfo{Column: "age"},
		user(4, "dave", 19),
		user(2, "bob", 25),
		user(1, "alice", 30),
		user(3, "carol", 41),
	}}
	unclaimed := &testTable{items: []Item{
		user(1, "alice", 30),
		user(3, "carol", 41),
		user(4, "dave", 19),
		user(2, "bob", 25),
	}}
	db := New()
	db.Register("a", claimed)
	db.Register("b", unclaimed)

	got := rowIDs(allRows(t, db, "SELECT * FROM a WHERE age > 20 ORDER BY age LIMIT 2"))
	want := rowIDs(allRows(t, db, "SELECT * FROM b WHERE age > 20 ORDER BY age LIMIT 2"))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("plans disagree: streaming %v, materialized %v", got, want)
	}
	if !reflect.DeepEqual(got, []interface{}{int64(2), int64(1)}) {
		t.Errorf("got IDs %v, want [2 1]", got)
	}
}

// A non-nil Skipped means the table already ran WHERE: the engine must not
// re-filter, even when the rows would fail the condition.
func TestDB_TrustedWhereSkipsRefilter(t *testing.T) {
	rows := []Item{
		user(1, "alice", 30),
		user(2, "bob", 25),
	}

	t.Run("streaming", func(t *testing.T) {
		tbl := &testTable{items: append([]Item{OrderInfo{Skipped: skipped(0)}}, rows...)}
		db := New()
		db.Register("t", tbl)
		got := allRows(t, db, "SELECT * FROM t WHERE age > 100")
		if len(got) != 2 {
			t.Errorf("got %d rows, want 2 (table-filtered rows are trusted)", len(got))
		}
	})

	t.Run("materialized keeps the trust", func(t *testing.T) {
		tbl := &testTable{items: append([]Item{OrderInfo{Skipped: skipped(0)}}, rows...)}
		db := New()
		db.Register("t", tbl)
		got := allRows(t, db, "SELECT * FROM t WHERE age > 100 ORDER BY age")
		if len(got) != 2 {
			t.Fatalf("got %d rows, want 2", len(got))
		}
		if got[0].ID != int64(2) {
			t.Errorf("first row ID = %v, want 2 (re-sorted by age)", got[0].ID)
		}
	})

	t.Run("no claim means engine filters", func(t *testing.T) {
		tbl := &testTable{items: rows}
		db := New()
		db.Register("t", tbl)
		if got := allRows(t, db, "SELECT * FROM t WHERE age > 100"); len(got) != 0 {
			t.Errorf("got %d rows, want 0", len(got))
		}
	})
}

// Skipped counts matching rows the table already dropped toward OFFSET;
// the engine skips only the remainder.
func TestDB_TrustedOffsetRemainder(t *testing.T) {
	items := func() []Item {
		return []Item{
			OrderInfo{Skipped: skipped(5)},
			user(6, "f", 6),
			user(7, "g", 7),
			user(8, "h", 8),
			user(9, "i", 9),
			user(10, "j", 10),
		}
	}

	t.Run("remainder skipped", func(t *testing.T) {
		tbl := &testTable{items: items()}
		db := New()
		db.Register("t", tbl)
		rows := allRows(t, db, "SELECT * FROM t WHERE age > 0 OFFSET 8")
		if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(9), int64(10)}) {
			t.Errorf("got IDs %v, want [9 10]", got)
		}
	})

	t.Run("offset already covered", func(t *testing.T) {
		tbl := &testTable{items: items()}
		db := New()
		db.Register("t", tbl)
		rows := allRows(t, db, "SELECT * FROM t WHERE age > 0 OFFSET 3")
		if len(rows) != 5 {
			t.Errorf("got %d rows, want all 5 (offset over-covered)", len(rows))
		}
	})
}

func TestDB_ContractDuplicateID(t *testing.T) {
	tbl := &testTable{items: []Item{
		user(7, "alice", 30),
		user(8, "bob", 25),
		user(7, "carol", 41),
	}}
	db := New()
	db.Register("users", tbl)

	rows, err := db.Select("SELECT * FROM users")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	_, err = rows.All()
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("drain error = %v, want ContractError", err)
	}
	if ce.Table != "users" || ce.Position != 3 {
		t.Errorf("ContractError{Table: %q, Position: %d}, want users/3", ce.Table, ce.Position)
	}
	if !strings.Contains(ce.Error(), "duplicate row ID 7") {
		t.Errorf("error %q does not name the duplicate ID", ce.Error())
	}
}

func TestDB_ContractOrderInfoAfterFirst(t *testing.T) {
	tbl := &testTable{items: []Item{
		user(1, "alice", 30),
		OrderInfo{Column: "name"},
		user(2, "bob", 25),
	}}
	db := New()
	db.Register("users", tbl)

	rows, err := db.Select("SELECT * FROM users")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	_, err = rows.All()
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("drain error = %v, want ContractError", err)
	}
	if ce.Position != 2 {
		t.Errorf("Position = %d, want 2", ce.Position)
	}
	if !strings.Contains(ce.Detail, "OrderInfo") {
		t.Errorf("Detail = %q, want mention of OrderInfo", ce.Detail)
	}
}

// The inner SELECT of IN (SELECT ...) runs once per statement, however
// many rows the outer scan tests.
func TestDB_SubqueryRunsOnce(t *testing.T) {
	inner := &testTable{items: []Item{
		Row{ID: int64(1), Values: map[string]interface{}{"user_id": int64(2)}},
		Row{ID: int64(2), Values: map[string]interface{}{"user_id": int64(4)}},
	}}
	outer := &testTable{items: []Item{
		user(1, "a", 1), user(2, "b", 2), user(3, "c", 3), user(4, "d", 4), user(5, "e", 5),
	}}
	db := New()
	db.Register("orders", inner)
	db.Register("users", outer)

	rows := allRows(t, db, "SELECT * FROM users WHERE id IN (SELECT user_id FROM orders)")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2), int64(4)}) {
		t.Errorf("got IDs %v, want [2 4]", got)
	}
	if inner.selects != 1 {
		t.Errorf("inner query ran %d times, want 1", inner.selects)
	}
}

func TestDB_ScalarSubqueryArity(t *testing.T) {
	db := New()
	db.Register("users", usersTable())

	tests := []struct {
		name  string
		inner []Item
		count int
	}{
		{"two rows", []Item{
			Row{ID: int64(1), Values: map[string]interface{}{"age": int64(25)}},
			Row{ID: int64(2), Values: map[string]interface{}{"age": int64(30)}},
		}, 2},
		{"no rows", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db.Register("limits", &testTable{items: tt.inner})
			rows, err := db.Select("SELECT * FROM users WHERE age = (SELECT age FROM limits)")
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			_, err = rows.All()
			var ae *ArityError
			if !errors.As(err, &ae) {
				t.Fatalf("drain error = %v, want ArityError", err)
			}
			if ae.Count != tt.count {
				t.Errorf("ArityError.Count = %d, want %d", ae.Count, tt.count)
			}
		})
	}

	db.Register("limits", &testTable{items: []Item{
		Row{ID: int64(1), Values: map[string]interface{}{"age": int64(30)}},
	}})
	rows := allRows(t, db, "SELECT * FROM users WHERE age = (SELECT age FROM limits)")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2)}) {
		t.Errorf("got IDs %v, want [2]", got)
	}
}

func TestDB_ExecInsert(t *testing.T) {
	wt := &writeTable{}
	db := New()
	db.Register("users", wt)

	n, err := db.Exec("INSERT INTO users (name, age) VALUES ('carol', 28), ('dave', ?)", int64(35))
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Exec() = %d, want 2", n)
	}
	want := []map[string]interface{}{
		{"name": "carol", "age": int64(28)},
		{"name": "dave", "age": int64(35)},
	}
	if !reflect.DeepEqual(wt.inserts, want) {
		t.Errorf("inserted %v, want %v", wt.inserts, want)
	}
}

func TestDB_ExecInsertColumnMismatch(t *testing.T) {
	wt := &writeTable{}
	db := New()
	db.Register("users", wt)

	_, err := db.Exec("INSERT INTO users (name, age) VALUES ('carol')")
	if err == nil || !strings.Contains(err.Error(), "2 columns") {
		t.Errorf("Exec() error = %v, want column count mismatch", err)
	}
}

// UPDATE runs in two phases: a bare full scan resolves WHERE to row IDs,
// then one Update call carries the IDs and resolved SET values. The scan
// statement pushes nothing down.
func TestDB_ExecUpdate(t *testing.T) {
	wt := &writeTable{testTable: *usersTable()}
	db := New()
	db.Register("users", wt)

	n, err := db.Exec("UPDATE users SET age = 31, note = 'checked' WHERE name = 'alice'")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Exec() = %d, want 1", n)
	}
	if len(wt.updates) != 1 {
		t.Fatalf("Update called %d times, want 1", len(wt.updates))
	}
	got := wt.updates[0]
	if !reflect.DeepEqual(got.ids, []interface{}{int64(2)}) {
		t.Errorf("updated IDs %v, want [2]", got.ids)
	}
	wantChanges := map[string]interface{}{"age": int64(31), "note": "checked"}
	if !reflect.DeepEqual(got.changes, wantChanges) {
		t.Errorf("changes = %v, want %v", got.changes, wantChanges)
	}

	scan := wt.last
	if scan.Where != nil || len(scan.OrderBy) != 0 || scan.Limit != nil || scan.Offset != nil {
		t.Errorf("mutation scan pushed clauses down: %s", sql.SelectString(scan))
	}
}

func TestDB_ExecDelete(t *testing.T) {
	wt := &writeTable{testTable: *usersTable()}
	db := New()
	db.Register("users", wt)

	n, err := db.Exec("DELETE FROM users WHERE age < 28")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Exec() = %d, want 1", n)
	}
	if len(wt.deletes) != 1 || !reflect.DeepEqual(wt.deletes[0], []interface{}{int64(1)}) {
		t.Errorf("deleted %v, want [[1]]", wt.deletes)
	}
}

// No matching rows means the table is never asked to mutate.
func TestDB_ExecNoMatchesSkipsTable(t *testing.T) {
	wt := &writeTable{testTable: *usersTable()}
	db := New()
	db.Register("users", wt)

	n, err := db.Exec("UPDATE users SET age = 1 WHERE name = 'nobody'")
	if err != nil {
		t.Fatalf("UPDATE error = %v", err)
	}
	if n != 0 || len(wt.updates) != 0 {
		t.Errorf("UPDATE: n = %d, calls = %d, want 0/0", n, len(wt.updates))
	}

	n, err = db.Exec("DELETE FROM users WHERE name = 'nobody'")
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	if n != 0 || len(wt.deletes) != 0 {
		t.Errorf("DELETE: n = %d, calls = %d, want 0/0", n, len(wt.deletes))
	}
}

// Mutations never trust table-side filtering: an order claim with Skipped
// on the scan stream is consumed and ignored.
func TestDB_ExecIgnoresScanClaims(t *testing.T) {
	wt := &writeTable{testTable: testTable{items: []Item{
		OrderInfo{Skipped: skipped(99)},
		user(1, "alice", 30),
	}}}
	db := New()
	db.Register("users", wt)

	n, err := db.Exec("UPDATE users SET age = 1 WHERE age > 100")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 0 || len(wt.updates) != 0 {
		t.Errorf("n = %d, calls = %d, want 0/0 (claim must not be trusted)", n, len(wt.updates))
	}
}

func TestDB_ExecUnsafeMutation(t *testing.T) {
	wt := &writeTable{testTable: *usersTable()}
	db := New()
	db.Register("users", wt)

	_, err := db.Exec("UPDATE users SET age = 1")
	if !errors.Is(err, ErrUnsafeMutation) {
		t.Errorf("UPDATE without WHERE error = %v, want ErrUnsafeMutation", err)
	}
	_, err = db.Exec("DELETE FROM users")
	if !errors.Is(err, ErrUnsafeMutation) {
		t.Errorf("DELETE without WHERE error = %v, want ErrUnsafeMutation", err)
	}

	unsafe := New(WithUnsafeDML())
	unsafe.Register("users", wt)
	n, err := unsafe.Exec("DELETE FROM users")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Exec() = %d, want 2", n)
	}
}

func TestDB_ExecCapabilityErrors(t *testing.T) {
	db := New(WithUnsafeDML())
	db.Register("users", usersTable())

	tests := []struct {
		query string
		op    string
	}{
		{"INSERT INTO users (name) VALUES ('x')", "INSERT"},
		{"UPDATE users SET name = 'x' WHERE id = 1", "UPDATE"},
		{"DELETE FROM users WHERE id = 1", "DELETE"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			_, err := db.Exec(tt.query)
			var ce *CapabilityError
			if !errors.As(err, &ce) {
				t.Fatalf("Exec(%q) error = %v, want CapabilityError", tt.query, err)
			}
			if ce.Op != tt.op || ce.Table != "users" {
				t.Errorf("CapabilityError{Table: %q, Op: %q}, want users/%s", ce.Table, ce.Op, tt.op)
			}
			if !errors.Is(err, ErrNotSupported) {
				t.Error("CapabilityError does not match ErrNotSupported")
			}
		})
	}
}

func TestDB_EarlyCloseReleasesIterator(t *testing.T) {
	tbl := &testTable{items: []Item{
		user(1, "alice", 30),
		user(2, "bob", 25),
		user(3, "carol", 41),
	}}
	db := New()
	db.Register("users", tbl)

	rows, err := db.Select("SELECT * FROM users")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !rows.Next() {
		t.Fatalf("Next() = false, err = %v", rows.Err())
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if tbl.closes != 1 {
		t.Errorf("iterator closed %d times, want 1", tbl.closes)
	}
	if rows.Next() {
		t.Error("Next() after Close() = true")
	}
	if err := rows.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if tbl.closes != 1 {
		t.Errorf("double Close reached the iterator: %d calls", tbl.closes)
	}
}

func TestDB_RegisterAndDeregister(t *testing.T) {
	db := New()
	db.Register("b", usersTable())
	db.Register("a", usersTable())
	db.Register("c", usersTable())

	if got := db.Tables(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Tables() = %v, want [a b c]", got)
	}

	db.Deregister("b")
	if got := db.Tables(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Tables() = %v, want [a c]", got)
	}
	if _, err := db.Select("SELECT * FROM b"); !errors.Is(err, ErrNoTable) {
		t.Errorf("dropped table error = %v, want ErrNoTable", err)
	}
}

func TestDB_TableFunc(t *testing.T) {
	db := New()
	db.Register("nums", TableFunc(func(stmt *sql.SelectStatement) (Iterator, error) {
		return NewSliceIterator(
			Row{ID: int64(1), Values: map[string]interface{}{"n": int64(1)}},
			Row{ID: int64(2), Values: map[string]interface{}{"n": int64(2)}},
		), nil
	}))

	rows := allRows(t, db, "SELECT * FROM nums WHERE n > 1")
	if got := rowIDs(rows); !reflect.DeepEqual(got, []interface{}{int64(2)}) {
		t.Errorf("got IDs %v, want [2]", got)
	}
}
