package engine

import (
	"errors"
	"testing"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/sql"
)

// whereExpr parses cond as a WHERE clause.
func whereExpr(t *testing.T, cond string) sql.Expression {
	t.Helper()
	stmt, err := sql.ParseSelect("SELECT * FROM t WHERE " + cond)
	if err != nil {
		t.Fatalf("parse %q: %v", cond, err)
	}
	return stmt.Where
}

// scalarExpr parses expr as a projection item.
func scalarExpr(t *testing.T, expr string) sql.Expression {
	t.Helper()
	stmt, err := sql.ParseSelect("SELECT " + expr + " FROM t")
	if err != nil {
		t.Fatalf("parse %q: %v", expr, err)
	}
	return stmt.Columns[0].Expr
}

func TestEvaluator_Matches(t *testing.T) {
	row := Row{ID: 1, Values: map[string]interface{}{
		"name":  "alice",
		"age":   int64(30),
		"bio":   nil,
		"score": 7.5,
	}}

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"greater than", "age > 21", true},
		{"greater than false", "age > 30", false},
		{"greater or equal", "age >= 30", true},
		{"equality", "name = 'alice'", true},
		{"equality is case sensitive under binary", "name = 'ALICE'", false},
		{"not equal", "name != 'bob'", true},
		{"and", "age = 30 AND name = 'alice'", true},
		{"and short circuit", "age < 10 AND name = 'alice'", false},
		{"or", "age < 10 OR name = 'alice'", true},
		{"not", "NOT age < 10", true},
		{"in list", "age IN (25, 30, 35)", true},
		{"not in list", "age NOT IN (25, 35)", true},
		{"like prefix", "name LIKE 'al%'", true},
		{"like ignores case", "name LIKE 'AL%'", true},
		{"like single char", "name LIKE 'a_ice'", true},
		{"not like", "name NOT LIKE 'b%'", true},
		{"is null", "bio IS NULL", true},
		{"is not null", "bio IS NOT NULL", false},
		{"missing column reads as null", "nickname IS NULL", true},
		{"equality with null", "nickname = NULL", true},
		{"numeric strings compare numerically", "'10' > '9'", true},
		{"division by zero yields null", "age / 0 IS NULL", true},
		{"float comparison", "score >= 7.5", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(collation.Binary(), nil)
			got, err := ev.Matches(row, whereExpr(t, tt.cond))
			if err != nil {
				t.Fatalf("Matches(%q) error = %v", tt.cond, err)
			}
			if got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluator_MatchesNilCondition(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil)
	got, err := ev.Matches(Row{ID: 1}, nil)
	if err != nil {
		t.Fatalf("Matches(nil) error = %v", err)
	}
	if !got {
		t.Error("Matches(nil) = false, want true")
	}
}

func TestEvaluator_MatchesTypeErrors(t *testing.T) {
	row := Row{ID: 1, Values: map[string]interface{}{"age": int64(30), "name": "alice"}}

	tests := []struct {
		name string
		cond string
	}{
		{"bare column", "age"},
		{"arithmetic as condition", "age + 1"},
		{"literal as condition", "1"},
		{"like with numeric pattern", "name LIKE 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(collation.Binary(), nil)
			if _, err := ev.Matches(row, whereExpr(t, tt.cond)); err == nil {
				t.Errorf("Matches(%q) succeeded, want type error", tt.cond)
			}
		})
	}
}

func TestEvaluator_MatchesNocase(t *testing.T) {
	ev := NewEvaluator(collation.NoCase(), nil)
	row := Row{ID: 1, Values: map[string]interface{}{"name": "Alice"}}
	got, err := ev.Matches(row, whereExpr(t, "name = 'ALICE'"))
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if !got {
		t.Error("Matches(name = 'ALICE') = false under nocase, want true")
	}
}

func TestEvaluator_Scalar(t *testing.T) {
	row := Row{ID: 1, Values: map[string]interface{}{
		"name": "alice",
		"age":  int64(30),
	}}

	tests := []struct {
		name string
		expr string
		want interface{}
	}{
		{"column", "age", int64(30)},
		{"literal", "42", int64(42)},
		{"integer addition keeps int64", "age + 1", int64(31)},
		{"mixed arithmetic promotes to float", "age + 1.5", float64(31.5)},
		{"division is float", "age / 4", float64(7.5)},
		{"division by zero is null", "age / 0", nil},
		{"negation", "-age", int64(-30)},
		{"precedence", "age * 2 - 10", int64(50)},
		{"null propagates", "nickname + 1", nil},
		{"numeric string coerces", "'3' + 4", int64(7)},
		{"condition in value position", "age >= 18", true},
		{"missing column", "nickname", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(collation.Binary(), nil)
			got, err := ev.Scalar(row, scalarExpr(t, tt.expr))
			if err != nil {
				t.Fatalf("Scalar(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Scalar(%q) = %v (%T), want %v (%T)", tt.expr, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestEvaluator_ScalarErrors(t *testing.T) {
	row := Row{ID: 1, Values: map[string]interface{}{"name": "alice"}}
	ev := NewEvaluator(collation.Binary(), nil)

	if _, err := ev.Scalar(row, scalarExpr(t, "name + 1")); err == nil {
		t.Error("Scalar(name + 1) succeeded, want non-numeric operand error")
	}

	_, err := ev.Scalar(row, scalarExpr(t, "upper(name)"))
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("Scalar(upper(name)) error = %v, want ErrNotSupported", err)
	}
}

func TestEvaluator_ConstantRejectsColumns(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil)

	got, err := ev.Constant(scalarExpr(t, "2 + 3"))
	if err != nil {
		t.Fatalf("Constant(2 + 3) error = %v", err)
	}
	if got != int64(5) {
		t.Errorf("Constant(2 + 3) = %v, want 5", got)
	}

	_, err = ev.Constant(scalarExpr(t, "age + 1"))
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("Constant(age + 1) error = %v, want ErrNotSupported", err)
	}
}

// The same subquery node must resolve once per statement, not once per row.
func TestEvaluator_SubqueryResolvedOnce(t *testing.T) {
	calls := 0
	resolve := func(sub *sql.Subquery) (Value, error) {
		calls++
		return NewList([]interface{}{int64(1), int64(2)}, collation.Binary()), nil
	}
	ev := NewEvaluator(collation.Binary(), resolve)
	cond := whereExpr(t, "id IN (SELECT user_id FROM orders)")

	matched := 0
	for i := int64(1); i <= 5; i++ {
		row := Row{ID: i, Values: map[string]interface{}{"id": i}}
		ok, err := ev.Matches(row, cond)
		if err != nil {
			t.Fatalf("Matches() error = %v", err)
		}
		if ok {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("matched %d rows, want 2", matched)
	}
	if calls != 1 {
		t.Errorf("subquery resolved %d times, want 1", calls)
	}
}

// Two ? placeholders must consume the first two arguments on every row:
// the positional cursor is per-row state, not per-statement state.
func TestEvaluator_PlaceholderRebindingPerRow(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil, int64(21), "active")
	cond := whereExpr(t, "age > ? AND status = ?")

	rows := []Row{
		{ID: 1, Values: map[string]interface{}{"age": int64(30), "status": "active"}},
		{ID: 2, Values: map[string]interface{}{"age": int64(18), "status": "active"}},
		{ID: 3, Values: map[string]interface{}{"age": int64(40), "status": "active"}},
		{ID: 4, Values: map[string]interface{}{"age": int64(50), "status": "inactive"}},
	}
	want := []bool{true, false, true, false}
	for i, row := range rows {
		got, err := ev.Matches(row, cond)
		if err != nil {
			t.Fatalf("row %v: Matches() error = %v", row.ID, err)
		}
		if got != want[i] {
			t.Errorf("row %v: Matches() = %v, want %v", row.ID, got, want[i])
		}
	}
}

func TestEvaluator_NamedAndMissingArgs(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil, Named("min", int64(21)))
	row := Row{ID: 1, Values: map[string]interface{}{"age": int64(30)}}

	got, err := ev.Matches(row, whereExpr(t, "age > :min"))
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if !got {
		t.Error("Matches(age > :min) = false, want true")
	}

	// Unbound parameters read as NULL rather than failing.
	got, err = ev.Matches(row, whereExpr(t, "? IS NULL AND :absent IS NULL"))
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if !got {
		t.Error("unbound placeholders should evaluate as NULL")
	}
}

func TestEvaluator_SubqueryWithoutResolver(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil)
	row := Row{ID: 1, Values: map[string]interface{}{"id": int64(1)}}
	_, err := ev.Matches(row, whereExpr(t, "id IN (SELECT id FROM other)"))
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("Matches() error = %v, want ErrNotSupported", err)
	}
}

func TestEvaluator_LikePattern(t *testing.T) {
	cond := whereExpr(t, "s LIKE 'a%c_e'")

	tests := []struct {
		input string
		want  bool
	}{
		{"abcde", true},
		{"acde", true},
		{"aXXXcYe", true},
		{"Abcde", true},
		{"ace", false},
		{"abce", false},
		{"abcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ev := NewEvaluator(collation.Binary(), nil)
			row := Row{ID: 1, Values: map[string]interface{}{"s": tt.input}}
			got, err := ev.Matches(row, cond)
			if err != nil {
				t.Fatalf("Matches() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("%q LIKE 'a%%c_e' = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluator_LikeNullOperand(t *testing.T) {
	ev := NewEvaluator(collation.Binary(), nil)
	row := Row{ID: 1, Values: map[string]interface{}{"s": nil}}
	got, err := ev.Matches(row, whereExpr(t, "s LIKE '%'"))
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if got {
		t.Error("NULL LIKE '%' = true, want false")
	}
}
