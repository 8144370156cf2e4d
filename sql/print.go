package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString renders an expression back to SQL text. Used for error
// messages and as the default name of computed projection columns.
func ExprString(e Expression) string {
	switch n := e.(type) {
	case *Literal:
		return literalString(n.Value)
	case *Identifier:
		return n.Name
	case *Placeholder:
		if n.Name != "" {
			return ":" + n.Name
		}
		return "?"
	case *Unary:
		if n.Op == OpNot {
			return "NOT " + operandString(n.Expr)
		}
		return "-" + operandString(n.Expr)
	case *Binary:
		return fmt.Sprintf("%s %s %s", operandString(n.Left), n.Op, operandString(n.Right))
	case *In:
		var right string
		if n.Sub != nil {
			right = "(" + SelectString(n.Sub.Stmt) + ")"
		} else {
			parts := make([]string, len(n.List))
			for i, item := range n.List {
				parts[i] = ExprString(item)
			}
			right = "(" + strings.Join(parts, ", ") + ")"
		}
		if n.Not {
			return operandString(n.Expr) + " NOT IN " + right
		}
		return operandString(n.Expr) + " IN " + right
	case *Like:
		if n.Not {
			return operandString(n.Expr) + " NOT LIKE " + operandString(n.Pattern)
		}
		return operandString(n.Expr) + " LIKE " + operandString(n.Pattern)
	case *IsNull:
		if n.Not {
			return operandString(n.Expr) + " IS NOT NULL"
		}
		return operandString(n.Expr) + " IS NULL"
	case *Call:
		parts := make([]string, len(n.Args))
		for i, arg := range n.Args {
			parts[i] = ExprString(arg)
		}
		return n.Name + "(" + strings.Join(parts, ", ") + ")"
	case *Subquery:
		return "(" + SelectString(n.Stmt) + ")"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// operandString parenthesizes nested binary operands so the rendered text
// keeps the tree's grouping.
func operandString(e Expression) string {
	if _, ok := e.(*Binary); ok {
		return "(" + ExprString(e) + ")"
	}
	return ExprString(e)
}

func literalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// SelectString renders a SELECT statement back to SQL text.
func SelectString(s *SelectStatement) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(s.Columns) == 0 {
		sb.WriteString("*")
	}
	for i, item := range s.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		if item.Star {
			sb.WriteString("*")
			continue
		}
		sb.WriteString(ExprString(item.Expr))
		if item.Alias != "" {
			sb.WriteString(" AS " + item.Alias)
		}
	}
	sb.WriteString(" FROM " + s.Table)
	if s.Where != nil {
		sb.WriteString(" WHERE " + ExprString(s.Where))
	}
	for i, term := range s.OrderBy {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(term.Column)
		if term.Collation != "" {
			sb.WriteString(" COLLATE " + term.Collation)
		}
		if term.Desc {
			sb.WriteString(" DESC")
		}
	}
	if s.Limit != nil {
		sb.WriteString(" LIMIT " + strconv.FormatInt(*s.Limit, 10))
	}
	if s.Offset != nil {
		sb.WriteString(" OFFSET " + strconv.FormatInt(*s.Offset, 10))
	}
	return sb.String()
}
