package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Callers match them with errors.Is.
var (
	// ErrNoTable is returned when a statement names a table that was
	// never registered.
	ErrNoTable = errors.New("no such table")

	// ErrNotSupported is returned for statements the engine parses but
	// cannot execute, such as function calls, and for mutations against
	// tables that lack the corresponding capability.
	ErrNotSupported = errors.New("not supported")

	// ErrUnsafeMutation is returned for UPDATE or DELETE without a WHERE
	// clause unless the engine was built with WithUnsafeDML. Intentional
	// full-table mutations can state an always-true condition such as
	// WHERE 1 = 1 instead.
	ErrUnsafeMutation = errors.New("unsafe mutation: UPDATE or DELETE without WHERE")
)

// CapabilityError reports a mutation against a table that does not
// implement the capability the statement needs. It matches ErrNotSupported
// under errors.Is.
type CapabilityError struct {
	Table string
	Op    string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("table %q does not support %s", e.Table, e.Op)
}

func (e *CapabilityError) Unwrap() error { return ErrNotSupported }

// ContractError reports a table that violated the iterator contract:
// duplicate row IDs, an OrderInfo yielded after the first item, or an item
// that is neither. Position is the 1-based index of the offending item in
// the stream.
type ContractError struct {
	Table    string
	Position int
	Detail   string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("table %q: item %d: %s", e.Table, e.Position, e.Detail)
}

// ArityError reports a scalar use of a subquery or list that does not hold
// exactly one value.
type ArityError struct {
	Count int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("expected exactly one value, got %d", e.Count)
}
