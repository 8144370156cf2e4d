package sql

// binder tracks positional parameter consumption while cloning.
type binder struct {
	args  []interface{}
	named map[string]interface{}
	pos   int
}

// Bind returns a deep copy of stmt with every placeholder replaced by its
// bound value as a literal. Positional parameters bind in lexical order
// across the whole statement, subqueries included; named parameters bind
// by name. A parameter with no bound value becomes NULL, and surplus
// arguments are ignored. The input statement is never modified, so parsed
// statements can be cached and shared.
func Bind(stmt Statement, args []interface{}, named map[string]interface{}) Statement {
	b := &binder{args: args, named: named}
	return b.statement(stmt)
}

func (b *binder) statement(stmt Statement) Statement {
	switch s := stmt.(type) {
	case *SelectStatement:
		return b.selectStmt(s)
	case *InsertStatement:
		out := &InsertStatement{Table: s.Table}
		out.Columns = append([]string(nil), s.Columns...)
		out.Rows = make([][]Expression, len(s.Rows))
		for i, row := range s.Rows {
			out.Rows[i] = b.exprList(row)
		}
		return out
	case *UpdateStatement:
		out := &UpdateStatement{Table: s.Table}
		out.Assignments = make([]Assignment, len(s.Assignments))
		for i, a := range s.Assignments {
			out.Assignments[i] = Assignment{Column: a.Column, Value: b.expr(a.Value)}
		}
		out.Where = b.exprOrNil(s.Where)
		return out
	case *DeleteStatement:
		return &DeleteStatement{Table: s.Table, Where: b.exprOrNil(s.Where)}
	default:
		return stmt
	}
}

func (b *binder) selectStmt(s *SelectStatement) *SelectStatement {
	out := &SelectStatement{Table: s.Table}
	if s.Columns != nil {
		out.Columns = make([]SelectItem, len(s.Columns))
		for i, item := range s.Columns {
			out.Columns[i] = SelectItem{Star: item.Star, Alias: item.Alias}
			if item.Expr != nil {
				out.Columns[i].Expr = b.expr(item.Expr)
			}
		}
	}
	out.Where = b.exprOrNil(s.Where)
	out.OrderBy = append([]OrderingTerm(nil), s.OrderBy...)
	out.Limit = cloneInt64(s.Limit)
	out.Offset = cloneInt64(s.Offset)
	return out
}

func (b *binder) exprOrNil(e Expression) Expression {
	if e == nil {
		return nil
	}
	return b.expr(e)
}

func (b *binder) exprList(list []Expression) []Expression {
	if list == nil {
		return nil
	}
	out := make([]Expression, len(list))
	for i, e := range list {
		out[i] = b.expr(e)
	}
	return out
}

func (b *binder) expr(e Expression) Expression {
	switch n := e.(type) {
	case *Literal:
		return &Literal{Value: n.Value}
	case *Identifier:
		return &Identifier{Name: n.Name}
	case *Placeholder:
		return &Literal{Value: b.lookup(n)}
	case *Unary:
		return &Unary{Op: n.Op, Expr: b.expr(n.Expr)}
	case *Binary:
		return &Binary{Op: n.Op, Left: b.expr(n.Left), Right: b.expr(n.Right)}
	case *In:
		out := &In{Expr: b.expr(n.Expr), Not: n.Not}
		out.List = b.exprList(n.List)
		if n.Sub != nil {
			out.Sub = &Subquery{Stmt: b.selectStmt(n.Sub.Stmt)}
		}
		return out
	case *Like:
		return &Like{Expr: b.expr(n.Expr), Pattern: b.expr(n.Pattern), Not: n.Not}
	case *IsNull:
		return &IsNull{Expr: b.expr(n.Expr), Not: n.Not}
	case *Call:
		return &Call{Name: n.Name, Args: b.exprList(n.Args)}
	case *Subquery:
		return &Subquery{Stmt: b.selectStmt(n.Stmt)}
	default:
		return e
	}
}

func (b *binder) lookup(ph *Placeholder) interface{} {
	if ph.Name != "" {
		if v, ok := b.named[ph.Name]; ok {
			return v
		}
		return nil
	}
	if b.pos < len(b.args) {
		v := b.args[b.pos]
		b.pos++
		return v
	}
	b.pos++
	return nil
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
