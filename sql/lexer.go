package sql

import (
	"strings"
	"unicode"
)

// Lexer tokenizes SQL statement text.
type Lexer struct {
	input string
	pos   int
	start int
	ch    rune
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = rune(l.input[l.pos])
	}
	l.pos++
}

// peekChar looks at the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return rune(l.input[l.pos])
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string. Both the SQL doubled-quote escape
// ('it''s') and backslash escapes are accepted.
func (l *Lexer) readString(quote rune) string {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != 0 {
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteRune(quote)
				l.readChar()
				l.readChar()
				continue
			}
			break
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\':
				result.WriteRune('\\')
			case quote:
				result.WriteRune(quote)
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.ch == quote {
		l.readChar() // skip closing quote
	}

	return result.String()
}

// readNumber reads an unsigned number; the parser owns unary minus.
func (l *Lexer) readNumber() string {
	var result strings.Builder
	for unicode.IsDigit(l.ch) || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an identifier or keyword. Dots stay inside the
// token so qualified names like t.name arrive as one identifier.
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	l.start = l.pos - 1

	var tok Token

	switch l.ch {
	case 0:
		tok = l.token(TokenEOF, "")
	case '=':
		tok = l.token(TokenEqual, "=")
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.token(TokenNotEqual, "!=")
			l.readChar()
		} else {
			tok = l.token(TokenError, "!")
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = l.token(TokenLessEqual, "<=")
			l.readChar()
		case '>':
			l.readChar()
			tok = l.token(TokenNotEqual, "<>")
			l.readChar()
		default:
			tok = l.token(TokenLess, "<")
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.token(TokenGreaterEqual, ">=")
			l.readChar()
		} else {
			tok = l.token(TokenGreater, ">")
			l.readChar()
		}
	case '\'', '"':
		quote := l.ch
		tok = l.token(TokenString, l.readString(quote))
	case '*':
		tok = l.token(TokenStar, "*")
		l.readChar()
	case '+':
		tok = l.token(TokenPlus, "+")
		l.readChar()
	case '-':
		tok = l.token(TokenMinus, "-")
		l.readChar()
	case '/':
		tok = l.token(TokenSlash, "/")
		l.readChar()
	case '?':
		tok = l.token(TokenQuestion, "?")
		l.readChar()
	case ':':
		l.readChar()
		name := l.readIdentifier()
		if name == "" {
			tok = l.token(TokenError, ":")
		} else {
			tok = l.token(TokenParam, name)
		}
	case ',':
		tok = l.token(TokenComma, ",")
		l.readChar()
	case '(':
		tok = l.token(TokenLeftParen, "(")
		l.readChar()
	case ')':
		tok = l.token(TokenRightParen, ")")
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) {
			tok = l.token(TokenNumber, l.readNumber())
		} else if unicode.IsLetter(l.ch) || l.ch == '_' {
			value := l.readIdentifier()
			tok = l.token(identifierType(value), value)
		} else {
			tok = l.token(TokenError, string(l.ch))
			l.readChar()
		}
	}

	return tok
}

func (l *Lexer) token(tt TokenType, value string) Token {
	return Token{Type: tt, Value: value, Pos: l.start}
}

// identifierType determines whether an identifier is a keyword.
func identifierType(ident string) TokenType {
	if tt, ok := keywords[strings.ToLower(ident)]; ok {
		return tt
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input, ending with EOF or the first
// error token.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
