package engine

import (
	"github.com/mesadb/mesa/collation"
)

// Value is an evaluated operand: a scalar, a list, or a lazily produced
// list. The same Value serves scalar contexts (comparisons) and set
// contexts (IN), so a subquery result can be compared with = on one row
// and probed with IN on the next without re-running. All comparisons go
// through the collator the Value was built with.
type Value interface {
	// Contains reports whether v equals any element, under the Value's
	// collator. This is the IN operation.
	Contains(v interface{}) (bool, error)

	// Compare returns -1, 0 or 1 as the Value's scalar form sorts
	// before, equal to, or after v. It fails with an ArityError when
	// the Value does not hold exactly one element.
	Compare(v interface{}) (int, error)

	// Scalar returns the single element. Anything but exactly one
	// element fails with an ArityError; a query whose context demands
	// a scalar got a set, which is a defect in the query, not in the
	// data.
	Scalar() (interface{}, error)

	// Values returns all elements. A scalar yields a one-element slice.
	Values() ([]interface{}, error)

	// IsScalar reports whether the Value holds exactly one element.
	IsScalar() bool
}

// NewScalar returns a Value holding the single element v.
func NewScalar(v interface{}, c collation.Collator) Value {
	return scalarValue{v: v, c: c}
}

// NewList returns a Value holding vs in order.
func NewList(vs []interface{}, c collation.Collator) Value {
	return listValue{vs: vs, c: c}
}

// NewLazy returns a Value whose elements are produced by fetch on first
// use. The result, error included, is memoized: fetch runs at most once
// regardless of how many rows the Value is tested against.
func NewLazy(fetch func() ([]interface{}, error), c collation.Collator) Value {
	return &lazyValue{fetch: fetch, c: c}
}

type scalarValue struct {
	v interface{}
	c collation.Collator
}

func (s scalarValue) Contains(v interface{}) (bool, error) { return s.c.Equals(s.v, v), nil }
func (s scalarValue) Compare(v interface{}) (int, error)   { return s.c.Compare(s.v, v), nil }
func (s scalarValue) Scalar() (interface{}, error)         { return s.v, nil }
func (s scalarValue) Values() ([]interface{}, error)       { return []interface{}{s.v}, nil }
func (s scalarValue) IsScalar() bool                       { return true }

type listValue struct {
	vs []interface{}
	c  collation.Collator
}

func (l listValue) Contains(v interface{}) (bool, error) {
	for _, el := range l.vs {
		if l.c.Equals(el, v) {
			return true, nil
		}
	}
	return false, nil
}

func (l listValue) Compare(v interface{}) (int, error) {
	s, err := l.Scalar()
	if err != nil {
		return 0, err
	}
	return l.c.Compare(s, v), nil
}

func (l listValue) Scalar() (interface{}, error) {
	if len(l.vs) != 1 {
		return nil, &ArityError{Count: len(l.vs)}
	}
	return l.vs[0], nil
}

func (l listValue) Values() ([]interface{}, error) { return l.vs, nil }
func (l listValue) IsScalar() bool                 { return len(l.vs) == 1 }

// lazyValue memoizes a fetch and then behaves as a listValue. Evaluation
// is single-threaded per statement, so no locking is needed.
type lazyValue struct {
	fetch func() ([]interface{}, error)
	c     collation.Collator
	done  bool
	vs    []interface{}
	err   error
}

func (l *lazyValue) force() (listValue, error) {
	if !l.done {
		l.vs, l.err = l.fetch()
		l.done = true
		l.fetch = nil
	}
	return listValue{vs: l.vs, c: l.c}, l.err
}

func (l *lazyValue) Contains(v interface{}) (bool, error) {
	lv, err := l.force()
	if err != nil {
		return false, err
	}
	return lv.Contains(v)
}

func (l *lazyValue) Compare(v interface{}) (int, error) {
	lv, err := l.force()
	if err != nil {
		return 0, err
	}
	return lv.Compare(v)
}

func (l *lazyValue) Scalar() (interface{}, error) {
	lv, err := l.force()
	if err != nil {
		return nil, err
	}
	return lv.Scalar()
}

func (l *lazyValue) Values() ([]interface{}, error) {
	lv, err := l.force()
	if err != nil {
		return nil, err
	}
	return lv.Values()
}

func (l *lazyValue) IsScalar() bool {
	lv, err := l.force()
	if err != nil {
		return false
	}
	return lv.IsScalar()
}
