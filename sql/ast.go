// Package sql provides lexing and parsing of the SQL dialect understood by
// the query engine: single-table SELECT with WHERE/ORDER BY/LIMIT/OFFSET,
// INSERT, UPDATE and DELETE, positional (?) and named (:name) placeholders,
// uncorrelated subqueries, and COLLATE on ordering terms.
//
// Example usage:
//
//	stmt, err := sql.Parse("SELECT * FROM users WHERE age > ? ORDER BY name COLLATE nocase")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sel := stmt.(*sql.SelectStatement)
package sql

import "strings"

// Statement is the root of a parsed SQL statement.
type Statement interface {
	stmtNode()
}

// SelectStatement is a parsed SELECT.
type SelectStatement struct {
	Columns []SelectItem
	Table   string
	Where   Expression
	OrderBy []OrderingTerm
	Limit   *int64
	Offset  *int64
}

// SelectItem is one entry of the projection list.
type SelectItem struct {
	Star  bool
	Expr  Expression
	Alias string
}

// OrderingTerm is one ORDER BY entry. Collation is empty unless the term
// carried an explicit COLLATE clause.
type OrderingTerm struct {
	Column    string
	Desc      bool
	Collation string
}

// InsertStatement is a parsed INSERT INTO ... VALUES, possibly multi-row.
type InsertStatement struct {
	Table   string
	Columns []string
	Rows    [][]Expression
}

// UpdateStatement is a parsed UPDATE ... SET ... [WHERE].
type UpdateStatement struct {
	Table       string
	Assignments []Assignment
	Where       Expression
}

// Assignment is one SET column = expression pair.
type Assignment struct {
	Column string
	Value  Expression
}

// DeleteStatement is a parsed DELETE FROM ... [WHERE].
type DeleteStatement struct {
	Table string
	Where Expression
}

func (*SelectStatement) stmtNode() {}
func (*InsertStatement) stmtNode() {}
func (*UpdateStatement) stmtNode() {}
func (*DeleteStatement) stmtNode() {}

// Operator names used by Unary and Binary nodes.
const (
	OpAnd = "AND"
	OpOr  = "OR"
	OpEq  = "="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpNot = "NOT"
	OpNeg = "-"
)

// Expression is the closed set of expression nodes. Consumers dispatch by
// type switch; the set is sealed so an unhandled kind is a missing case,
// not a runtime surprise.
type Expression interface {
	exprNode()
}

// Literal is a constant: nil, bool, int64, float64 or string.
type Literal struct {
	Value interface{}
}

// Identifier is a column reference, possibly qualified as table.column.
type Identifier struct {
	Name string
}

// Column returns the column part of the identifier: the last dot-segment.
func (id *Identifier) Column() string {
	if i := strings.LastIndexByte(id.Name, '.'); i >= 0 {
		return id.Name[i+1:]
	}
	return id.Name
}

// Placeholder is a bound-parameter slot. Name is empty for positional ?
// placeholders and carries the name for :name placeholders.
type Placeholder struct {
	Name string
}

// Unary is NOT expr or -expr.
type Unary struct {
	Op   string
	Expr Expression
}

// Binary covers AND/OR, the six comparisons, and arithmetic.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

// In is expr [NOT] IN (list) or expr [NOT] IN (SELECT ...). Exactly one of
// List and Sub is set.
type In struct {
	Expr Expression
	List []Expression
	Sub  *Subquery
	Not  bool
}

// Like is expr [NOT] LIKE pattern.
type Like struct {
	Expr    Expression
	Pattern Expression
	Not     bool
}

// IsNull is expr IS [NOT] NULL.
type IsNull struct {
	Expr Expression
	Not  bool
}

// Call is a function invocation. The engine parses calls but does not
// evaluate them yet.
type Call struct {
	Name string
	Args []Expression
}

// Subquery wraps a parenthesized SELECT used as a scalar or as the right
// side of IN.
type Subquery struct {
	Stmt *SelectStatement
}

func (*Literal) exprNode()     {}
func (*Identifier) exprNode()  {}
func (*Placeholder) exprNode() {}
func (*Unary) exprNode()       {}
func (*Binary) exprNode()      {}
func (*In) exprNode()          {}
func (*Like) exprNode()        {}
func (*IsNull) exprNode()      {}
func (*Call) exprNode()        {}
func (*Subquery) exprNode()    {}
