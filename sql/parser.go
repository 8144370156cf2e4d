package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is a syntax error. Pos is the byte offset of the offending
// token in the statement text.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// maxExpressionDepth bounds recursion so a hostile statement cannot blow
// the stack.
const maxExpressionDepth = 100

// Parser parses a token stream into statements.
type Parser struct {
	tokens []Token
	pos    int
	depth  int
}

// NewParser creates a parser over tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a single SQL statement.
func Parse(input string) (Statement, error) {
	p := NewParser(Tokenize(input))
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenError {
		return nil, p.errorf("invalid character %q", p.current().Value)
	}
	if p.current().Type != TokenEOF {
		return nil, p.errorf("unexpected trailing input: %s", tokenText(p.current()))
	}
	return stmt, nil
}

// ParseSelect parses input and requires it to be a SELECT.
func ParseSelect(input string) (*SelectStatement, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStatement)
	if !ok {
		return nil, fmt.Errorf("expected a SELECT statement, got %T", stmt)
	}
	return sel, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing.
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.pos++
}

// expect consumes and returns the current token if it has the wanted type.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.errorf("expected %s, got %s", tt, tokenText(tok))
	}
	p.advance()
	return tok, nil
}

// match consumes the current token when it has the wanted type.
func (p *Parser) match(tt TokenType) bool {
	if p.current().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Pos: p.current().Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxExpressionDepth {
		return p.errorf("expression nesting exceeds %d levels", maxExpressionDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseTableName accepts a bare identifier or a quoted name.
func (p *Parser) parseTableName() (string, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdent, TokenString:
		p.advance()
		return tok.Value, nil
	default:
		return "", p.errorf("expected table name, got %s", tokenText(tok))
	}
}

func tokenText(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent, TokenNumber, TokenString, TokenError:
		return fmt.Sprintf("%q", tok.Value)
	default:
		return tok.Type.String()
	}
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.current().Type {
	case TokenSelect:
		return p.parseSelect()
	case TokenInsert:
		return p.parseInsert()
	case TokenUpdate:
		return p.parseUpdate()
	case TokenDelete:
		return p.parseDelete()
	default:
		return nil, p.errorf("statement must start with SELECT, INSERT, UPDATE or DELETE, got %s", tokenText(p.current()))
	}
}

// parseSelect parses: SELECT list FROM table [WHERE expr]
// [ORDER BY term, ...] [LIMIT n] [OFFSET n]
func (p *Parser) parseSelect() (*SelectStatement, error) {
	if _, err := p.expect(TokenSelect); err != nil {
		return nil, err
	}

	stmt := &SelectStatement{}

	columns, err := p.parseSelectList()
	if err != nil {
		return nil, fmt.Errorf("failed to parse SELECT list: %w", err)
	}
	stmt.Columns = columns

	if _, err := p.expect(TokenFrom); err != nil {
		return nil, fmt.Errorf("expected FROM after SELECT list: %w", err)
	}

	table, err := p.parseTableName()
	if err != nil {
		return nil, fmt.Errorf("expected table name after FROM: %w", err)
	}
	stmt.Table = table

	if p.match(TokenWhere) {
		stmt.Where, err = p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE clause: %w", err)
		}
	}

	if p.current().Type == TokenOrder {
		stmt.OrderBy, err = p.parseOrderBy()
		if err != nil {
			return nil, err
		}
	}

	if p.match(TokenLimit) {
		stmt.Limit, err = p.parseCount("LIMIT")
		if err != nil {
			return nil, err
		}
	}

	if p.match(TokenOffset) {
		stmt.Offset, err = p.parseCount("OFFSET")
		if err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.match(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.match(TokenStar) {
		return SelectItem{Star: true}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return SelectItem{}, err
	}

	item := SelectItem{Expr: expr}
	if p.match(TokenAs) {
		alias, err := p.expect(TokenIdent)
		if err != nil {
			return SelectItem{}, fmt.Errorf("expected alias after AS: %w", err)
		}
		item.Alias = alias.Value
	}
	return item, nil
}

// parseOrderBy parses: ORDER BY column [COLLATE name] [ASC|DESC], ...
func (p *Parser) parseOrderBy() ([]OrderingTerm, error) {
	if _, err := p.expect(TokenOrder); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenBy); err != nil {
		return nil, fmt.Errorf("expected BY after ORDER: %w", err)
	}

	var terms []OrderingTerm
	for {
		col, err := p.expect(TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("expected column name in ORDER BY: %w", err)
		}
		term := OrderingTerm{Column: col.Value}

		if p.match(TokenCollate) {
			switch p.current().Type {
			case TokenIdent, TokenString:
				term.Collation = p.current().Value
				p.advance()
			default:
				return nil, p.errorf("expected collation name after COLLATE, got %s", tokenText(p.current()))
			}
		}

		switch {
		case p.match(TokenDesc):
			term.Desc = true
		case p.match(TokenAsc):
			// ascending is the default
		}

		terms = append(terms, term)
		if !p.match(TokenComma) {
			return terms, nil
		}
	}
}

func (p *Parser) parseCount(clause string) (*int64, error) {
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return nil, fmt.Errorf("expected number after %s: %w", clause, err)
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", clause, tok.Value, err)
	}
	return &n, nil
}

// parseInsert parses: INSERT INTO table (col, ...) VALUES (expr, ...), ...
func (p *Parser) parseInsert() (*InsertStatement, error) {
	if _, err := p.expect(TokenInsert); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenInto); err != nil {
		return nil, fmt.Errorf("expected INTO after INSERT: %w", err)
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, fmt.Errorf("expected table name after INSERT INTO: %w", err)
	}

	stmt := &InsertStatement{Table: table}

	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("INSERT requires an explicit column list: %w", err)
	}
	for {
		col, err := p.expect(TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("expected column name in INSERT column list: %w", err)
		}
		stmt.Columns = append(stmt.Columns, col.Value)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenValues); err != nil {
		return nil, fmt.Errorf("expected VALUES after column list: %w", err)
	}

	for {
		row, err := p.parseValueTuple()
		if err != nil {
			return nil, err
		}
		if len(row) != len(stmt.Columns) {
			return nil, p.errorf("INSERT row has %d values but %d columns", len(row), len(stmt.Columns))
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.match(TokenComma) {
			return stmt, nil
		}
	}
}

func (p *Parser) parseValueTuple() ([]Expression, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected ( to open VALUES tuple: %w", err)
	}
	var row []Expression
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		row = append(row, expr)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return row, nil
}

// parseUpdate parses: UPDATE table SET col = expr, ... [WHERE expr]
func (p *Parser) parseUpdate() (*UpdateStatement, error) {
	if _, err := p.expect(TokenUpdate); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, fmt.Errorf("expected table name after UPDATE: %w", err)
	}
	if _, err := p.expect(TokenSet); err != nil {
		return nil, fmt.Errorf("expected SET after table name: %w", err)
	}

	stmt := &UpdateStatement{Table: table}
	for {
		col, err := p.expect(TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("expected column name in SET clause: %w", err)
		}
		if _, err := p.expect(TokenEqual); err != nil {
			return nil, fmt.Errorf("expected = after %s: %w", col.Value, err)
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col.Value, Value: value})
		if !p.match(TokenComma) {
			break
		}
	}

	if p.match(TokenWhere) {
		stmt.Where, err = p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE clause: %w", err)
		}
	}
	return stmt, nil
}

// parseDelete parses: DELETE FROM table [WHERE expr]
func (p *Parser) parseDelete() (*DeleteStatement, error) {
	if _, err := p.expect(TokenDelete); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenFrom); err != nil {
		return nil, fmt.Errorf("expected FROM after DELETE: %w", err)
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, fmt.Errorf("expected table name after DELETE FROM: %w", err)
	}

	stmt := &DeleteStatement{Table: table}
	if p.match(TokenWhere) {
		where, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE clause: %w", err)
		}
		stmt.Where = where
	}
	return stmt, nil
}

// parseExpression parses a full boolean or scalar expression.
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(TokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.match(TokenAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if p.current().Type == TokenNot {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, Expr: expr}, nil
	}
	return p.parsePredicate()
}

// parsePredicate parses one operand and an optional comparison, IN, LIKE
// or IS NULL suffix.
func (p *Parser) parsePredicate() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		op := comparisonOp(p.current())
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil

	case TokenNot:
		p.advance()
		switch p.current().Type {
		case TokenIn:
			return p.parseIn(left, true)
		case TokenLike:
			return p.parseLike(left, true)
		default:
			return nil, p.errorf("expected IN or LIKE after NOT, got %s", tokenText(p.current()))
		}

	case TokenIn:
		return p.parseIn(left, false)

	case TokenLike:
		return p.parseLike(left, false)

	case TokenIs:
		p.advance()
		not := p.match(TokenNot)
		if _, err := p.expect(TokenNull); err != nil {
			return nil, fmt.Errorf("expected NULL after IS: %w", err)
		}
		return &IsNull{Expr: left, Not: not}, nil

	default:
		return left, nil
	}
}

func comparisonOp(tok Token) string {
	// <> normalizes to != so downstream sees one spelling.
	if tok.Type == TokenNotEqual {
		return OpNe
	}
	return tok.Value
}

// parseIn parses the parenthesized right side of IN: either a value list
// or a subquery. The IN keyword is still current when called.
func (p *Parser) parseIn(left Expression, not bool) (Expression, error) {
	if _, err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected ( after IN: %w", err)
	}

	if p.current().Type == TokenSelect {
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, fmt.Errorf("expected ) to close IN subquery: %w", err)
		}
		return &In{Expr: left, Sub: &Subquery{Stmt: sub}, Not: not}, nil
	}

	if p.current().Type == TokenRightParen {
		return nil, p.errorf("IN list must not be empty")
	}

	var list []Expression
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ) to close IN list: %w", err)
	}
	return &In{Expr: left, List: list, Not: not}, nil
}

func (p *Parser) parseLike(left Expression, not bool) (Expression, error) {
	if _, err := p.expect(TokenLike); err != nil {
		return nil, err
	}
	pattern, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Like{Expr: left, Pattern: pattern, Not: not}, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Type {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Type {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.current().Type == TokenMinus {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNeg, Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.current()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		return numberLiteral(tok)

	case TokenString:
		p.advance()
		return &Literal{Value: tok.Value}, nil

	case TokenBool:
		p.advance()
		return &Literal{Value: strings.EqualFold(tok.Value, "true")}, nil

	case TokenNull:
		p.advance()
		return &Literal{Value: nil}, nil

	case TokenQuestion:
		p.advance()
		return &Placeholder{}, nil

	case TokenParam:
		p.advance()
		return &Placeholder{Name: tok.Value}, nil

	case TokenIdent:
		if p.peek().Type == TokenLeftParen {
			return p.parseCall()
		}
		p.advance()
		return &Identifier{Name: tok.Value}, nil

	case TokenLeftParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.advance()
		if p.current().Type == TokenSelect {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightParen); err != nil {
				return nil, fmt.Errorf("expected ) to close subquery: %w", err)
			}
			return &Subquery{Stmt: sub}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorf("unexpected %s in expression", tokenText(tok))
	}
}

func numberLiteral(tok Token) (Expression, error) {
	if !strings.Contains(tok.Value, ".") {
		if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return &Literal{Value: i}, nil
		}
	}
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("invalid number %q", tok.Value)}
	}
	return &Literal{Value: f}, nil
}

func (p *Parser) parseCall() (Expression, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	call := &Call{Name: name.Value}
	if p.match(TokenRightParen) {
		return call, nil
	}
	for {
		// COUNT(*) style arguments parse as a bare star identifier.
		if p.current().Type == TokenStar {
			p.advance()
			call.Args = append(call.Args, &Identifier{Name: "*"})
		} else {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ) to close %s(: %w", name.Value, err)
	}
	return call, nil
}
