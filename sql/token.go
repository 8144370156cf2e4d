package sql

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenIdent
	TokenNumber
	TokenString
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenStar
	TokenPlus
	TokenMinus
	TokenSlash
	TokenQuestion
	TokenParam
	TokenEqual
	TokenNotEqual
	TokenLess
	TokenLessEqual
	TokenGreater
	TokenGreaterEqual
	TokenSelect
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenIs
	TokenNull
	TokenLike
	TokenOrder
	TokenBy
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenCollate
	TokenAs
	TokenInsert
	TokenInto
	TokenValues
	TokenUpdate
	TokenSet
	TokenDelete
	TokenBool
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "end of input",
	TokenError:        "invalid token",
	TokenIdent:        "identifier",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenComma:        ",",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenStar:         "*",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenSlash:        "/",
	TokenQuestion:     "?",
	TokenParam:        "named parameter",
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenSelect:       "SELECT",
	TokenFrom:         "FROM",
	TokenWhere:        "WHERE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenIn:           "IN",
	TokenIs:           "IS",
	TokenNull:         "NULL",
	TokenLike:         "LIKE",
	TokenOrder:        "ORDER",
	TokenBy:           "BY",
	TokenAsc:          "ASC",
	TokenDesc:         "DESC",
	TokenLimit:        "LIMIT",
	TokenOffset:       "OFFSET",
	TokenCollate:      "COLLATE",
	TokenAs:           "AS",
	TokenInsert:       "INSERT",
	TokenInto:         "INTO",
	TokenValues:       "VALUES",
	TokenUpdate:       "UPDATE",
	TokenSet:          "SET",
	TokenDelete:       "DELETE",
	TokenBool:         "boolean",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is one lexical unit of a SQL statement. Pos is the byte offset of
// the token's first character in the input.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

var keywords = map[string]TokenType{
	"select":  TokenSelect,
	"from":    TokenFrom,
	"where":   TokenWhere,
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"in":      TokenIn,
	"is":      TokenIs,
	"null":    TokenNull,
	"like":    TokenLike,
	"order":   TokenOrder,
	"by":      TokenBy,
	"asc":     TokenAsc,
	"desc":    TokenDesc,
	"limit":   TokenLimit,
	"offset":  TokenOffset,
	"collate": TokenCollate,
	"as":      TokenAs,
	"insert":  TokenInsert,
	"into":    TokenInto,
	"values":  TokenValues,
	"update":  TokenUpdate,
	"set":     TokenSet,
	"delete":  TokenDelete,
	"true":    TokenBool,
	"false":   TokenBool,
}
