// Package domain implements the tesc language pipeline: lexing, parsing,
// static analysis, regex enumeration, evaluation and the test driver.
package domain

import (
	"fmt"
	"strconv"

	m "tesc.dev/pkg/tesc/internal/model"
)

// LexError is a fatal lexical error with its source location.
type LexError struct {
	Loc m.Span
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// Lexer scans a tesc source string into tokens.
type Lexer struct {
	file string
	src  string
	pos  int
	line int
	col  int
}

// NewLexer creates a lexer for the given file contents.
func NewLexer(file, src string) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

// Tokenize scans the whole input. The returned slice ends with a TokenEOF
// token. Lexical errors are fatal and abort the scan.
func (l *Lexer) Tokenize() ([]m.Token, error) {
	var tokens []m.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == m.TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (m.Token, error) {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return m.Token{Kind: m.TokenEOF, Span: l.here(0)}, nil
	}

	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		return l.lexIdent(), nil
	case isDigit(c):
		return l.lexNumber()
	case c == '"':
		return l.lexString()
	case c == '`':
		return l.lexRegex()
	}

	// Two-character operators first.
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		switch two {
		case "==", "!=", "<=", ">=", "&&", "||":
			span := l.here(2)
			l.advance(2)
			return m.Token{Kind: m.TokenOperator, Lexeme: two, Span: span}, nil
		}
	}

	switch c {
	case '+', '-', '*', '/', '<', '>', '=', '!':
		span := l.here(1)
		l.advance(1)
		return m.Token{Kind: m.TokenOperator, Lexeme: string(c), Span: span}, nil
	case '{', '}', '(', ')', '[', ']', ',', ':', ';':
		span := l.here(1)
		l.advance(1)
		return m.Token{Kind: m.TokenPunct, Lexeme: string(c), Span: span}, nil
	}

	return m.Token{}, &LexError{Loc: l.here(1), Msg: fmt.Sprintf("unknown character %q", c)}
}

// skipTrivia consumes whitespace and // line comments.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexIdent() m.Token {
	start := l.pos
	span := l.here(0)
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.advance(1)
	}
	lexeme := l.src[start:l.pos]
	span.End = l.pos
	kind := m.TokenIdent
	if m.Keywords[lexeme] {
		kind = m.TokenKeyword
	}
	return m.Token{Kind: kind, Lexeme: lexeme, Span: span}
}

func (l *Lexer) lexNumber() (m.Token, error) {
	start := l.pos
	span := l.here(0)
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance(1)
	}
	kind := m.TokenInt
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		kind = m.TokenFloat
		l.advance(1)
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance(1)
		}
	}
	span.End = l.pos
	return m.Token{Kind: kind, Lexeme: l.src[start:l.pos], Span: span}, nil
}

func (l *Lexer) lexString() (m.Token, error) {
	span := l.here(0)
	l.advance(1) // opening quote
	var out []byte
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return m.Token{}, &LexError{Loc: span, Msg: "unterminated string literal"}
		}
		c := l.src[l.pos]
		if c == '"' {
			l.advance(1)
			span.End = l.pos
			return m.Token{Kind: m.TokenString, Lexeme: string(out), Span: span}, nil
		}
		if c == '\\' {
			if l.pos+1 >= len(l.src) {
				return m.Token{}, &LexError{Loc: span, Msg: "unterminated string literal"}
			}
			esc := l.src[l.pos+1]
			switch esc {
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			default:
				return m.Token{}, &LexError{
					Loc: l.here(2),
					Msg: fmt.Sprintf("unknown escape sequence %q", "\\"+string(esc)),
				}
			}
			l.advance(2)
			continue
		}
		out = append(out, c)
		l.advance(1)
	}
}

// lexRegex captures the interior of a backtick literal verbatim. A backslash
// escapes a backtick; every other character is kept as written.
func (l *Lexer) lexRegex() (m.Token, error) {
	span := l.here(0)
	l.advance(1) // opening backtick
	var out []byte
	for {
		if l.pos >= len(l.src) {
			return m.Token{}, &LexError{Loc: span, Msg: "unterminated regex literal"}
		}
		c := l.src[l.pos]
		if c == '`' {
			l.advance(1)
			span.End = l.pos
			return m.Token{Kind: m.TokenRegex, Lexeme: string(out), Span: span}, nil
		}
		if c == '\\' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '`' {
			out = append(out, '`')
			l.advance(2)
			continue
		}
		out = append(out, c)
		l.advance(1)
	}
}

func (l *Lexer) here(width int) m.Span {
	return m.Span{
		File:   l.file,
		Offset: l.pos,
		End:    l.pos + width,
		Line:   l.line,
		Col:    l.col,
	}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseIntLexeme converts an integer literal lexeme, reporting overflow as a
// lexical-range error at the token's span.
func parseIntLexeme(tok m.Token) (int64, error) {
	v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		return 0, &LexError{Loc: tok.Span, Msg: fmt.Sprintf("integer literal %s out of range", tok.Lexeme)}
	}
	return v, nil
}
