package domain

import (
	"strconv"

	m "tesc.dev/pkg/tesc/internal/model"
)

// Parser consumes a token stream and produces a Program. Parse errors are
// collected as diagnostics; the parser recovers by skipping to the next
// statement or top-level boundary, so several errors can be reported in one
// pass.
type Parser struct {
	file   string
	tokens []m.Token
	pos    int
	diags  *m.Diagnostics
}

// NewParser creates a parser over the given tokens.
func NewParser(file string, tokens []m.Token, diags *m.Diagnostics) *Parser {
	return &Parser{file: file, tokens: tokens, diags: diags}
}

// parseAbort unwinds a declaration that cannot be locally recovered.
type parseAbort struct{}

// Parse consumes the whole stream. The returned program contains every
// declaration that survived recovery.
func (p *Parser) Parse() *m.Program {
	prog := &m.Program{File: p.file}
	for p.peek().Kind != m.TokenEOF {
		decl := p.parseTopLevel()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog
}

func (p *Parser) parseTopLevel() (decl m.Decl) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
			p.syncTopLevel()
			decl = nil
		}
	}()

	tok := p.peek()
	switch {
	case tok.Is(m.TokenKeyword, "fn"):
		return p.parseFnDecl()
	case tok.Is(m.TokenKeyword, "let") || tok.Is(m.TokenKeyword, "const"):
		d := p.parseVarDecl()
		p.expectPunct(";")
		return d
	case tok.Kind == m.TokenIdent:
		return p.parseTestDecl()
	}
	p.errorf(tok.Span, "unexpected %s in global scope", describe(tok))
	p.advance()
	return nil
}

// parseTestDecl parses `name(expr) { block }`.
func (p *Parser) parseTestDecl() *m.TestDecl {
	name := p.expectIdent()
	p.expectPunct("(")
	command := p.parseExpr()
	p.expectPunct(")")
	body := p.parseBlock()
	return &m.TestDecl{
		Name:    name.Lexeme,
		NameLoc: name.Span,
		Command: command,
		Body:    body,
		Loc:     name.Span.Join(body.Loc),
	}
}

// parseFnDecl parses `fn name(params): type { block }`.
func (p *Parser) parseFnDecl() *m.FnDecl {
	kw := p.advance()
	name := p.expectIdent()
	p.expectPunct("(")
	var params []m.Param
	for !p.peek().Is(m.TokenPunct, ")") {
		if len(params) > 0 {
			p.expectPunct(",")
		}
		pname := p.expectIdent()
		p.expectPunct(":")
		ptype := p.parseType()
		params = append(params, m.Param{Name: pname.Lexeme, Type: ptype, Loc: pname.Span})
	}
	p.expectPunct(")")
	p.expectPunct(":")
	result := p.parseType()
	body := p.parseBlock()
	return &m.FnDecl{
		Name:    name.Lexeme,
		NameLoc: name.Span,
		Params:  params,
		Result:  result,
		Body:    body,
		Loc:     kw.Span.Join(body.Loc),
	}
}

// parseVarDecl parses `let|const name: type = expr` without the trailing
// semicolon, which belongs to the caller.
func (p *Parser) parseVarDecl() *m.VarDecl {
	kw := p.advance()
	isConst := kw.Lexeme == "const"
	name := p.expectIdent()
	if !p.peek().Is(m.TokenPunct, ":") {
		p.errorf(p.peek().Span, "type annotations are required")
		panic(parseAbort{})
	}
	p.advance()
	typ := p.parseType()
	p.expectOperator("=")
	init := p.parseExpr()
	return &m.VarDecl{
		Name:    name.Lexeme,
		NameLoc: name.Span,
		Const:   isConst,
		Type:    typ,
		Init:    init,
		Loc:     kw.Span.Join(init.Span()),
	}
}

// parseType parses a type annotation: a primitive name or `[elem]`.
func (p *Parser) parseType() m.Type {
	tok := p.peek()
	if tok.Is(m.TokenPunct, "[") {
		p.advance()
		elem := p.parseType()
		p.expectPunct("]")
		return m.ListOf(elem)
	}
	if tok.Kind == m.TokenIdent || tok.Is(m.TokenKeyword, "none") {
		if t, ok := m.PrimitiveTypeFromName(tok.Lexeme); ok {
			p.advance()
			return t
		}
	}
	p.errorf(tok.Span, "expected a type, found %s", describe(tok))
	panic(parseAbort{})
}

// parseBlock parses `{ stmt* }`. The final expression statement may omit its
// semicolon, making it the block's value.
func (p *Parser) parseBlock() *m.BlockExpr {
	open := p.expectPunct("{")
	block := &m.BlockExpr{Loc: open.Span}
	for {
		tok := p.peek()
		if tok.Is(m.TokenPunct, "}") {
			closing := p.advance()
			block.Loc = open.Span.Join(closing.Span)
			return block
		}
		if tok.Kind == m.TokenEOF {
			p.errorf(open.Span, "unclosed `{`")
			return block
		}
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
}

func (p *Parser) parseStmt() (stmt m.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
			p.syncStmt()
			stmt = nil
		}
	}()

	tok := p.peek()
	switch {
	case tok.Is(m.TokenKeyword, "let") || tok.Is(m.TokenKeyword, "const"):
		d := p.parseVarDecl()
		p.expectPunct(";")
		return d
	case tok.Is(m.TokenKeyword, "if"):
		e := p.parseIf()
		return p.finishExprStmt(e)
	case tok.Is(m.TokenKeyword, "for"):
		e := p.parseFor()
		return p.finishExprStmt(e)
	case tok.Kind == m.TokenIdent && p.peekAt(1).Is(m.TokenOperator, "="):
		name := p.advance()
		p.advance() // "="
		value := p.parseExpr()
		p.expectPunct(";")
		return &m.AssignStmt{
			Name:    name.Lexeme,
			NameLoc: name.Span,
			Value:   value,
			Loc:     name.Span.Join(value.Span()),
		}
	}

	e := p.parseExpr()
	return p.finishExprStmt(e)
}

// finishExprStmt consumes the statement terminator. A missing `;` is legal
// directly before `}`, where the expression becomes the block value, and
// after expressions that end in a block of their own.
func (p *Parser) finishExprStmt(e m.Expr) m.Stmt {
	if p.peek().Is(m.TokenPunct, ";") {
		p.advance()
		return &m.ExprStmt{E: e, Terminated: true, Loc: e.Span()}
	}
	if p.peek().Is(m.TokenPunct, "}") {
		return &m.ExprStmt{E: e, Terminated: false, Loc: e.Span()}
	}
	if endsWithBlock(e) {
		return &m.ExprStmt{E: e, Terminated: true, Loc: e.Span()}
	}
	p.errorf(p.peek().Span, "expected `;`, found %s", describe(p.peek()))
	panic(parseAbort{})
}

func endsWithBlock(e m.Expr) bool {
	switch e.(type) {
	case *m.BlockExpr, *m.ForExpr, *m.IfExpr:
		return true
	}
	return false
}

// parseIf parses `if cond { … } else { … }` or `if cond { … } else if …`.
func (p *Parser) parseIf() *m.IfExpr {
	kw := p.advance()
	cond := p.parseExpr()
	then := p.parseBlock()
	out := &m.IfExpr{Cond: cond, Then: then, Loc: kw.Span.Join(then.Loc)}
	if p.peek().Is(m.TokenKeyword, "else") {
		p.advance()
		if p.peek().Is(m.TokenKeyword, "if") {
			nested := p.parseIf()
			out.Else = &m.BlockExpr{
				Stmts: []m.Stmt{&m.ExprStmt{E: nested, Terminated: false, Loc: nested.Loc}},
				Loc:   nested.Loc,
			}
		} else {
			out.Else = p.parseBlock()
		}
		out.Loc = kw.Span.Join(out.Else.Loc)
	}
	return out
}

// parseFor parses `for name: type in iterable { … }`.
func (p *Parser) parseFor() *m.ForExpr {
	kw := p.advance()
	name := p.expectIdent()
	p.expectPunct(":")
	typ := p.parseType()
	if !p.peek().Is(m.TokenKeyword, "in") {
		p.errorf(p.peek().Span, "expected `in`, found %s", describe(p.peek()))
		panic(parseAbort{})
	}
	p.advance()
	iter := p.parseExpr()
	body := p.parseBlock()
	return &m.ForExpr{
		Var:     name.Lexeme,
		VarLoc:  name.Span,
		VarType: typ,
		Iter:    iter,
		Body:    body,
		Loc:     kw.Span.Join(body.Loc),
	}
}

// Binary operator precedence, loosest first. All levels are left
// associative; `in` is non-chainable.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"in"},
	{"+", "-"},
	{"*", "/"},
}

func (p *Parser) parseExpr() m.Expr {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(level int) m.Expr {
	if level >= len(binaryLevels) {
		return p.parseCast()
	}
	ops := binaryLevels[level]
	lhs := p.parseBinary(level + 1)
	for {
		tok := p.peek()
		matched := ""
		for _, op := range ops {
			if op == "in" && tok.Is(m.TokenKeyword, "in") {
				matched = op
				break
			}
			if tok.Is(m.TokenOperator, op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return lhs
		}
		p.advance()
		rhs := p.parseBinary(level + 1)
		lhs = &m.Binary{Op: matched, X: lhs, Y: rhs, Loc: lhs.Span().Join(rhs.Span())}
		if matched == "in" {
			// `a in b in c` is not a chain.
			return lhs
		}
	}
}

func (p *Parser) parseCast() m.Expr {
	e := p.parseUnary()
	for p.peek().Is(m.TokenKeyword, "as") {
		kw := p.advance()
		to := p.parseType()
		e = &m.Cast{X: e, To: to, Loc: e.Span().Join(kw.Span)}
	}
	return e
}

func (p *Parser) parseUnary() m.Expr {
	tok := p.peek()
	if tok.Is(m.TokenOperator, "!") || tok.Is(m.TokenOperator, "-") {
		p.advance()
		operand := p.parseUnary()
		return &m.Unary{Op: tok.Lexeme, X: operand, Loc: tok.Span.Join(operand.Span())}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() m.Expr {
	tok := p.peek()
	switch tok.Kind {
	case m.TokenInt:
		p.advance()
		v, err := parseIntLexeme(tok)
		if err != nil {
			p.errorf(tok.Span, "integer literal %s out of range", tok.Lexeme)
			panic(parseAbort{})
		}
		return &m.IntLit{V: v, Loc: tok.Span}
	case m.TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorf(tok.Span, "float literal %s out of range", tok.Lexeme)
			panic(parseAbort{})
		}
		return &m.FloatLit{V: v, Loc: tok.Span}
	case m.TokenString:
		p.advance()
		return &m.StringLit{V: tok.Lexeme, Loc: tok.Span}
	case m.TokenRegex:
		p.advance()
		return &m.RegexLit{Source: tok.Lexeme, Loc: tok.Span}
	case m.TokenKeyword:
		switch tok.Lexeme {
		case "true", "false":
			p.advance()
			return &m.BoolLit{V: tok.Lexeme == "true", Loc: tok.Span}
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		}
	case m.TokenIdent:
		p.advance()
		if p.peek().Is(m.TokenPunct, "(") {
			return p.parseCallArgs(tok)
		}
		return &m.Ident{Name: tok.Lexeme, Loc: tok.Span}
	case m.TokenPunct:
		switch tok.Lexeme {
		case "(":
			p.advance()
			e := p.parseExpr()
			p.expectPunct(")")
			return e
		case "[":
			return p.parseListLit()
		case "{":
			return p.parseBlock()
		}
	}
	p.errorf(tok.Span, "unexpected %s", describe(tok))
	panic(parseAbort{})
}

func (p *Parser) parseCallArgs(name m.Token) m.Expr {
	p.expectPunct("(")
	var args []m.Expr
	for !p.peek().Is(m.TokenPunct, ")") {
		if len(args) > 0 {
			p.expectPunct(",")
		}
		args = append(args, p.parseExpr())
	}
	closing := p.expectPunct(")")
	return &m.Call{
		Name:    name.Lexeme,
		NameLoc: name.Span,
		Args:    args,
		Loc:     name.Span.Join(closing.Span),
	}
}

func (p *Parser) parseListLit() m.Expr {
	open := p.expectPunct("[")
	var elems []m.Expr
	for !p.peek().Is(m.TokenPunct, "]") {
		if len(elems) > 0 {
			p.expectPunct(",")
		}
		elems = append(elems, p.parseExpr())
	}
	closing := p.expectPunct("]")
	return &m.ListLit{Elems: elems, Loc: open.Span.Join(closing.Span)}
}

// Token plumbing.

func (p *Parser) peek() m.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) m.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() m.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expectIdent() m.Token {
	tok := p.peek()
	if tok.Kind != m.TokenIdent {
		p.errorf(tok.Span, "expected identifier, found %s", describe(tok))
		panic(parseAbort{})
	}
	return p.advance()
}

func (p *Parser) expectPunct(lexeme string) m.Token {
	tok := p.peek()
	if !tok.Is(m.TokenPunct, lexeme) {
		p.errorf(tok.Span, "expected `%s`, found %s", lexeme, describe(tok))
		panic(parseAbort{})
	}
	return p.advance()
}

func (p *Parser) expectOperator(lexeme string) m.Token {
	tok := p.peek()
	if !tok.Is(m.TokenOperator, lexeme) {
		p.errorf(tok.Span, "expected `%s`, found %s", lexeme, describe(tok))
		panic(parseAbort{})
	}
	return p.advance()
}

// syncStmt skips to just past the next `;`, or stops before `}` / EOF.
func (p *Parser) syncStmt() {
	for {
		tok := p.peek()
		if tok.Kind == m.TokenEOF || tok.Is(m.TokenPunct, "}") {
			return
		}
		p.advance()
		if tok.Is(m.TokenPunct, ";") {
			return
		}
	}
}

// syncTopLevel skips to the next plausible top-level declaration, balancing
// braces so a failure inside a body does not cascade.
func (p *Parser) syncTopLevel() {
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.Kind == m.TokenEOF:
			return
		case tok.Is(m.TokenPunct, "{"):
			depth++
		case tok.Is(m.TokenPunct, "}"):
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				p.advance()
				return
			}
		case depth == 0 && (tok.Is(m.TokenKeyword, "fn") || tok.Is(m.TokenKeyword, "let") || tok.Is(m.TokenKeyword, "const")):
			return
		}
		p.advance()
	}
}

func (p *Parser) errorf(loc m.Span, format string, args ...any) {
	p.diags.Errorf(loc, format, args...)
}

func describe(tok m.Token) string {
	switch tok.Kind {
	case m.TokenEOF:
		return "end of file"
	case m.TokenKeyword, m.TokenOperator, m.TokenPunct:
		return "`" + tok.Lexeme + "`"
	default:
		return tok.Kind.String()
	}
}
