package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/sql"
)

// SubqueryResolver produces the Value of an uncorrelated subquery. The
// engine installs one that runs the inner SELECT against its registered
// tables; tests can substitute fixed Values.
type SubqueryResolver func(sub *sql.Subquery) (Value, error)

// Evaluator evaluates bound expressions against rows. One Evaluator serves
// one statement execution: subquery Values and compiled LIKE patterns are
// cached for its lifetime, so IN (SELECT ...) runs the inner query at most
// once no matter how many rows are tested.
//
// The logic is two-valued throughout: comparisons against NULL go through
// the collator (where NULL equals NULL and sorts below everything) instead
// of SQL's three-valued UNKNOWN.
type Evaluator struct {
	collator collation.Collator
	resolve  SubqueryResolver
	args     []interface{}
	named    map[string]interface{}
	subs     map[*sql.Subquery]Value
	patterns map[string]*regexp.Regexp
}

// NewEvaluator returns an Evaluator comparing under c. resolve may be nil,
// in which case subqueries fail with ErrNotSupported.
//
// args bind placeholders still present in the expressions: plain values
// bind ? in order and NamedArg values bind :name. The positional cursor is
// part of the per-row evaluation state, so a condition with two ? consumes
// the same two arguments for every row instead of drifting through the
// list. Missing arguments read as NULL. The DB substitutes parameters into
// the statement before evaluation, so it never passes args here; they
// serve direct users of the Evaluator.
func NewEvaluator(c collation.Collator, resolve SubqueryResolver, args ...interface{}) *Evaluator {
	pos, named := splitArgs(args)
	return &Evaluator{
		collator: c,
		resolve:  resolve,
		args:     pos,
		named:    named,
		subs:     make(map[*sql.Subquery]Value),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Matches reports whether row satisfies the condition. A nil condition
// matches every row.
func (ev *Evaluator) Matches(row Row, cond sql.Expression) (bool, error) {
	if cond == nil {
		return true, nil
	}
	c := evalCtx{ev: ev, row: row, hasRow: true}
	return c.predicate(cond)
}

// Scalar evaluates expr against row. Missing columns read as NULL.
func (ev *Evaluator) Scalar(row Row, expr sql.Expression) (interface{}, error) {
	c := evalCtx{ev: ev, row: row, hasRow: true}
	return c.scalar(expr)
}

// Constant evaluates an expression that must not reference columns, as in
// INSERT values and UPDATE assignments.
func (ev *Evaluator) Constant(expr sql.Expression) (interface{}, error) {
	c := evalCtx{ev: ev}
	return c.scalar(expr)
}

// evalCtx is the per-row evaluation state. A fresh one is built for every
// row, which is what resets the positional-argument cursor between rows.
type evalCtx struct {
	ev     *Evaluator
	row    Row
	hasRow bool
	arg    int
}

// predicate evaluates expr in condition position. Node kinds that do not
// produce a boolean fail with a type error rather than coercing.
func (c *evalCtx) predicate(expr sql.Expression) (bool, error) {
	switch e := expr.(type) {
	case *sql.Binary:
		switch e.Op {
		case sql.OpAnd:
			left, err := c.predicate(e.Left)
			if err != nil || !left {
				return false, err
			}
			return c.predicate(e.Right)
		case sql.OpOr:
			left, err := c.predicate(e.Left)
			if err != nil || left {
				return left, err
			}
			return c.predicate(e.Right)
		case sql.OpEq, sql.OpNe, sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe:
			return c.compare(e)
		default:
			return false, fmt.Errorf("%s is not a condition", sql.ExprString(e))
		}
	case *sql.Unary:
		if e.Op == sql.OpNot {
			ok, err := c.predicate(e.Expr)
			return !ok, err
		}
		return false, fmt.Errorf("%s is not a condition", sql.ExprString(e))
	case *sql.In:
		return c.in(e)
	case *sql.Like:
		return c.like(e)
	case *sql.IsNull:
		v, err := c.scalar(e.Expr)
		if err != nil {
			return false, err
		}
		return (v == nil) != e.Not, nil
	default:
		return false, fmt.Errorf("%s is not a condition; use a comparison, AND/OR, IN, LIKE or IS NULL", sql.ExprString(expr))
	}
}

func (c *evalCtx) compare(e *sql.Binary) (bool, error) {
	left, err := c.scalar(e.Left)
	if err != nil {
		return false, err
	}
	right, err := c.scalar(e.Right)
	if err != nil {
		return false, err
	}
	cmp := c.ev.collator.Compare(left, right)
	switch e.Op {
	case sql.OpEq:
		return cmp == 0, nil
	case sql.OpNe:
		return cmp != 0, nil
	case sql.OpLt:
		return cmp < 0, nil
	case sql.OpLe:
		return cmp <= 0, nil
	case sql.OpGt:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func (c *evalCtx) in(e *sql.In) (bool, error) {
	needle, err := c.scalar(e.Expr)
	if err != nil {
		return false, err
	}
	var set Value
	if e.Sub != nil {
		set, err = c.ev.valueOf(e.Sub)
		if err != nil {
			return false, err
		}
	} else {
		vs := make([]interface{}, len(e.List))
		for i, el := range e.List {
			if vs[i], err = c.scalar(el); err != nil {
				return false, err
			}
		}
		set = NewList(vs, c.ev.collator)
	}
	ok, err := set.Contains(needle)
	if err != nil {
		return false, err
	}
	if e.Not {
		ok = !ok
	}
	return ok, nil
}

func (c *evalCtx) like(e *sql.Like) (bool, error) {
	v, err := c.scalar(e.Expr)
	if err != nil {
		return false, err
	}
	pv, err := c.scalar(e.Pattern)
	if err != nil {
		return false, err
	}
	pattern, ok := pv.(string)
	if !ok {
		return false, fmt.Errorf("LIKE pattern must be a string, got %v", sql.ExprString(e.Pattern))
	}
	matched := false
	if v != nil {
		re, err := c.ev.pattern(pattern)
		if err != nil {
			return false, err
		}
		matched = re.MatchString(fmt.Sprint(v))
	}
	if e.Not {
		matched = !matched
	}
	return matched, nil
}

// scalar evaluates expr in value position. Condition nodes produce their
// boolean result, so SELECT age >= 18 projects true/false.
func (c *evalCtx) scalar(expr sql.Expression) (interface{}, error) {
	switch e := expr.(type) {
	case *sql.Literal:
		return e.Value, nil
	case *sql.Identifier:
		if !c.hasRow {
			return nil, fmt.Errorf("column reference %q in INSERT or SET values: %w", e.Name, ErrNotSupported)
		}
		return c.row.Values[e.Column()], nil
	case *sql.Placeholder:
		if e.Name != "" {
			return c.ev.named[e.Name], nil
		}
		if c.arg < len(c.ev.args) {
			v := c.ev.args[c.arg]
			c.arg++
			return v, nil
		}
		c.arg++
		return nil, nil
	case *sql.Unary:
		if e.Op == sql.OpNot {
			return c.predicate(expr)
		}
		return c.negate(e)
	case *sql.Binary:
		switch e.Op {
		case sql.OpAdd, sql.OpSub, sql.OpMul, sql.OpDiv:
			return c.arith(e)
		default:
			return c.predicate(expr)
		}
	case *sql.In, *sql.Like, *sql.IsNull:
		return c.predicate(expr)
	case *sql.Subquery:
		v, err := c.ev.valueOf(e)
		if err != nil {
			return nil, err
		}
		return v.Scalar()
	case *sql.Call:
		return nil, fmt.Errorf("function %s is not yet supported: %w", e.Name, ErrNotSupported)
	default:
		return nil, fmt.Errorf("cannot evaluate %s", sql.ExprString(expr))
	}
}

func (c *evalCtx) negate(e *sql.Unary) (interface{}, error) {
	v, err := c.scalar(e.Expr)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("cannot negate %v", v)
	}
	if n.isInt {
		return -n.i, nil
	}
	return -n.f, nil
}

// arith evaluates +, -, * and /. NULL operands propagate and division by
// zero yields NULL. Integer operands keep int64 precision except under
// division, which is always carried out in float64.
func (c *evalCtx) arith(e *sql.Binary) (interface{}, error) {
	lv, err := c.scalar(e.Left)
	if err != nil {
		return nil, err
	}
	rv, err := c.scalar(e.Right)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		return nil, nil
	}
	l, ok := toNumber(lv)
	if !ok {
		return nil, fmt.Errorf("non-numeric operand %v for %s", lv, e.Op)
	}
	r, ok := toNumber(rv)
	if !ok {
		return nil, fmt.Errorf("non-numeric operand %v for %s", rv, e.Op)
	}
	if e.Op == sql.OpDiv {
		if r.float() == 0 {
			return nil, nil
		}
		return l.float() / r.float(), nil
	}
	if l.isInt && r.isInt {
		switch e.Op {
		case sql.OpAdd:
			return l.i + r.i, nil
		case sql.OpSub:
			return l.i - r.i, nil
		default:
			return l.i * r.i, nil
		}
	}
	switch e.Op {
	case sql.OpAdd:
		return l.float() + r.float(), nil
	case sql.OpSub:
		return l.float() - r.float(), nil
	default:
		return l.float() * r.float(), nil
	}
}

func (ev *Evaluator) valueOf(sub *sql.Subquery) (Value, error) {
	if v, ok := ev.subs[sub]; ok {
		return v, nil
	}
	if ev.resolve == nil {
		return nil, fmt.Errorf("subqueries: %w", ErrNotSupported)
	}
	v, err := ev.resolve(sub)
	if err != nil {
		return nil, err
	}
	ev.subs[sub] = v
	return v, nil
}

// pattern translates a LIKE pattern to an anchored case-insensitive
// regexp: % matches any run of characters, _ matches exactly one.
func (ev *Evaluator) pattern(p string) (*regexp.Regexp, error) {
	if re, ok := ev.patterns[p]; ok {
		return re, nil
	}
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid LIKE pattern %q: %w", p, err)
	}
	ev.patterns[p] = re
	return re, nil
}

// num is a numeric operand for arithmetic: int64 when the source value was
// integral, float64 otherwise.
type num struct {
	i     int64
	f     float64
	isInt bool
}

func (n num) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// toNumber coerces v for arithmetic. Numeric strings participate, matching
// the coercion comparisons apply.
func toNumber(v interface{}) (num, bool) {
	switch n := v.(type) {
	case int:
		return num{i: int64(n), isInt: true}, true
	case int8:
		return num{i: int64(n), isInt: true}, true
	case int16:
		return num{i: int64(n), isInt: true}, true
	case int32:
		return num{i: int64(n), isInt: true}, true
	case int64:
		return num{i: n, isInt: true}, true
	case uint:
		return num{i: int64(n), isInt: true}, true
	case uint8:
		return num{i: int64(n), isInt: true}, true
	case uint16:
		return num{i: int64(n), isInt: true}, true
	case uint32:
		return num{i: int64(n), isInt: true}, true
	case uint64:
		if n > math.MaxInt64 {
			return num{f: float64(n)}, true
		}
		return num{i: int64(n), isInt: true}, true
	case float32:
		return num{f: float64(n)}, true
	case float64:
		return num{f: n}, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return num{i: i, isInt: true}, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return num{f: f}, true
		}
	}
	return num{}, false
}
