package domain

import (
	"strings"

	m "tesc.dev/pkg/tesc/internal/model"
)

// AnalyserOptions controls which lint families are reported.
type AnalyserOptions struct {
	NoWarnings      bool
	NoStyleWarnings bool
	NoMagicWarnings bool
}

type lintClass int

const (
	lintGeneral lintClass = iota
	lintStyle
	lintMagic
)

// binding is an analysis-time entry in a scope: the declared type plus the
// constness and usage flags consulted for lints.
type binding struct {
	name        string
	typ         m.Type
	isConst     bool
	declLoc     m.Span
	nameLoc     m.Span
	assignLoc   m.Span
	read        bool
	reassigned  bool
	shadowed    bool
}

type scope struct {
	order  []*binding
	byName map[string]*binding
}

func newScope() *scope {
	return &scope{byName: make(map[string]*binding)}
}

type fnSig struct {
	params []m.Type
	result m.Type
	loc    m.Span
}

// builtinSigs are available in every scope. input and output additionally
// require a driver at runtime.
var builtinSigs = map[string]fnSig{
	"input":   {params: []m.Type{m.StringType}, result: m.NoneType},
	"output":  {params: []m.Type{m.StringType}, result: m.NoneType},
	"print":   {params: []m.Type{m.StringType}, result: m.NoneType},
	"println": {params: []m.Type{m.StringType}, result: m.NoneType},
}

// Analyser walks the AST assigning a type to every expression, resolving
// identifiers against a scoped symbol table, enforcing const-ness and
// emitting lint warnings. Diagnostics are collected; evaluation must not run
// when any error-severity diagnostic was produced.
type Analyser struct {
	diags *m.Diagnostics
	opts  AnalyserOptions

	scopes    []*scope
	fns       map[string]fnSig
	constInit bool
}

// NewAnalyser creates an analyser reporting into diags.
func NewAnalyser(diags *m.Diagnostics, opts AnalyserOptions) *Analyser {
	return &Analyser{diags: diags, opts: opts, fns: make(map[string]fnSig)}
}

// Check analyses a whole program.
func (a *Analyser) Check(prog *m.Program) {
	a.scopes = []*scope{newScope()}

	// Functions are collected before any body is analysed so mutual
	// recursion resolves.
	for _, decl := range prog.Decls {
		fn, ok := decl.(*m.FnDecl)
		if !ok {
			continue
		}
		if _, exists := a.fns[fn.Name]; exists {
			a.diags.Errorf(fn.NameLoc, "function `%s` is already defined", fn.Name)
			continue
		}
		params := make([]m.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		a.fns[fn.Name] = fnSig{params: params, result: fn.Result, loc: fn.NameLoc}
	}

	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *m.VarDecl:
			a.checkVarDecl(d)
		case *m.FnDecl:
			a.checkFnDecl(d)
		case *m.TestDecl:
			a.checkTestDecl(d)
		}
	}

	a.closeScope()
}

func (a *Analyser) checkFnDecl(fn *m.FnDecl) {
	a.pushScope()
	for _, p := range fn.Params {
		a.declare(&binding{
			name:    p.Name,
			typ:     p.Type,
			declLoc: p.Loc,
			nameLoc: p.Loc,
		})
	}
	got := a.checkBlock(fn.Body)
	if !got.Equal(fn.Result) {
		a.diags.Errorf(fn.Body.Loc, "function `%s` declares result `%s` but its body has type `%s`",
			fn.Name, fn.Result, got)
	}
	a.popScope()
}

func (a *Analyser) checkTestDecl(t *m.TestDecl) {
	cmdType := a.checkExpr(t.Command)
	if !cmdType.Equal(m.StringType) {
		a.diags.Errorf(t.Command.Span(), "test command must be `string`, found `%s`", cmdType)
	}
	a.pushScope()
	a.checkBlock(t.Body)
	a.popScope()
}

func (a *Analyser) checkVarDecl(d *m.VarDecl) {
	if cur := a.currentScope().byName[d.Name]; cur != nil && cur.isConst {
		diag := m.Diagnostic{
			Severity: m.SeverityError,
			Loc:      d.NameLoc,
			Message:  "cannot redeclare constant `" + d.Name + "`",
			Notes: []m.Note{{
				Message: "`" + d.Name + "` was declared const here",
				Loc:     cur.nameLoc,
			}},
		}
		a.diags.Append(diag)
		return
	}

	wasConstInit := a.constInit
	a.constInit = d.Const
	got := a.checkExpr(d.Init)
	a.constInit = wasConstInit

	if !got.Equal(d.Type) {
		a.diags.Errorf(d.Init.Span(), "`%s` is declared `%s` but its initializer has type `%s`",
			d.Name, d.Type, got)
	}

	a.checkNameStyle(d)
	a.declare(&binding{
		name:      d.Name,
		typ:       d.Type,
		isConst:   d.Const,
		declLoc:   d.Loc,
		nameLoc:   d.NameLoc,
		assignLoc: d.NameLoc,
	})
}

func (a *Analyser) checkNameStyle(d *m.VarDecl) {
	if strings.HasPrefix(d.Name, "_") {
		return
	}
	if d.Const {
		if !isUpperSnakeCase(d.Name) {
			a.warnf(lintStyle, d.NameLoc, "constants should be in UPPER_SNAKE_CASE")
		}
	} else if !isSnakeCase(d.Name) {
		a.warnf(lintStyle, d.NameLoc, "variables should be in snake_case")
	}
}

func (a *Analyser) checkAssign(s *m.AssignStmt) {
	b := a.lookup(s.Name)
	if b == nil {
		a.diags.Errorf(s.NameLoc, "identifier `%s` not defined", s.Name)
		a.checkExpr(s.Value)
		return
	}
	if b.isConst {
		a.diags.Append(m.Diagnostic{
			Severity: m.SeverityError,
			Loc:      s.NameLoc,
			Message:  "cannot reassign constant `" + s.Name + "`",
			Notes: []m.Note{{
				Message: "consider changing the declaration to `let`",
				Loc:     b.nameLoc,
			}},
		})
		a.checkExpr(s.Value)
		return
	}
	if id, ok := s.Value.(*m.Ident); ok && id.Name == s.Name {
		a.warnf(lintStyle, s.Loc, "assignment without effect")
	}
	got := a.checkExpr(s.Value)
	if !got.Equal(b.typ) {
		a.diags.Errorf(s.Value.Span(), "`%s` has type `%s` but is assigned `%s`", s.Name, b.typ, got)
	}
	b.reassigned = true
	b.read = false
	b.assignLoc = s.NameLoc
}

// checkBlock types a block in a fresh scope and returns the block's type:
// the type of a final unterminated expression statement, else none.
func (a *Analyser) checkBlock(block *m.BlockExpr) m.Type {
	a.pushScope()
	defer a.popScope()
	return a.checkStmts(block)
}

func (a *Analyser) checkStmts(block *m.BlockExpr) m.Type {
	if len(block.Stmts) == 0 {
		a.warnf(lintStyle, block.Loc, "empty block")
		return m.NoneType
	}
	blockType := m.NoneType
	for i, stmt := range block.Stmts {
		last := i == len(block.Stmts)-1
		switch s := stmt.(type) {
		case *m.VarDecl:
			a.checkVarDecl(s)
		case *m.AssignStmt:
			a.checkAssign(s)
		case *m.ExprStmt:
			t := a.checkExpr(s.E)
			switch {
			case !s.Terminated && last:
				blockType = t
			case t.Kind != m.KindNone && last:
				a.warnf(lintStyle, s.Loc, "trailing semicolon discards this value")
			case t.Kind != m.KindNone:
				a.warnf(lintGeneral, s.Loc, "unused value")
			}
		}
	}
	return blockType
}

func (a *Analyser) checkExpr(e m.Expr) m.Type {
	switch ex := e.(type) {
	case *m.IntLit:
		a.checkMagic(ex.Loc, float64(ex.V), true)
		return m.IntType
	case *m.FloatLit:
		a.checkMagic(ex.Loc, ex.V, false)
		return m.FloatType
	case *m.StringLit:
		return m.StringType
	case *m.BoolLit:
		return m.BoolType
	case *m.RegexLit:
		return m.RegexType
	case *m.Ident:
		b := a.lookup(ex.Name)
		if b == nil {
			a.diags.Errorf(ex.Loc, "identifier `%s` not defined", ex.Name)
			return m.NoneType
		}
		b.read = true
		return b.typ
	case *m.Unary:
		return a.checkUnary(ex)
	case *m.Binary:
		return a.checkBinary(ex)
	case *m.Cast:
		return a.checkCast(ex)
	case *m.Call:
		return a.checkCall(ex)
	case *m.ListLit:
		return a.checkListLit(ex)
	case *m.BlockExpr:
		return a.checkBlock(ex)
	case *m.IfExpr:
		return a.checkIf(ex)
	case *m.ForExpr:
		return a.checkFor(ex)
	}
	a.diags.Errorf(e.Span(), "internal: unhandled expression")
	return m.NoneType
}

func (a *Analyser) checkUnary(ex *m.Unary) m.Type {
	// A negated literal is still a literal for the magic-number whitelist.
	if lit, ok := ex.X.(*m.IntLit); ok && ex.Op == "-" {
		a.checkMagic(ex.Loc, -float64(lit.V), true)
		return m.IntType
	}
	if lit, ok := ex.X.(*m.FloatLit); ok && ex.Op == "-" {
		a.checkMagic(ex.Loc, -lit.V, false)
		return m.FloatType
	}

	operand := a.checkExpr(ex.X)
	entry, ok := unaryOps[unaryKey{ex.Op, operand.Kind}]
	if !ok {
		a.diags.Errorf(ex.Loc, "unary `%s` is not defined for `%s`", ex.Op, operand)
		return operand
	}
	return m.Type{Kind: entry.result}
}

func (a *Analyser) checkBinary(ex *m.Binary) m.Type {
	l := a.checkExpr(ex.X)
	r := a.checkExpr(ex.Y)

	if ex.Op == "in" {
		if r.Kind != m.KindList {
			a.diags.Errorf(ex.Y.Span(), "`in` requires a list on the right, found `%s`", r)
			return m.BoolType
		}
		if !l.Equal(*r.Elem) {
			a.diags.Errorf(ex.Loc, "`in` requires matching element types: `%s` vs `[%s]`", l, r.Elem)
		}
		return m.BoolType
	}

	entry, ok := lookupBinOp(ex.Op, l, r)
	if !ok {
		a.diags.Errorf(ex.Loc, "`%s` is not defined for `%s` and `%s`", ex.Op, l, r)
		return l
	}
	return m.Type{Kind: entry.result}
}

func (a *Analyser) checkCast(ex *m.Cast) m.Type {
	from := a.checkExpr(ex.X)
	if !castSupported(from, ex.To) {
		a.diags.Errorf(ex.Loc, "cannot cast `%s` to `%s`", from, ex.To)
	}
	return ex.To
}

func (a *Analyser) checkCall(ex *m.Call) m.Type {
	sig, ok := a.fns[ex.Name]
	if !ok {
		sig, ok = builtinSigs[ex.Name]
	}
	if !ok {
		a.diags.Errorf(ex.NameLoc, "function `%s` not defined", ex.Name)
		for _, arg := range ex.Args {
			a.checkExpr(arg)
		}
		return m.NoneType
	}
	if len(ex.Args) != len(sig.params) {
		a.diags.Errorf(ex.Loc, "`%s` expects %d arguments, found %d", ex.Name, len(sig.params), len(ex.Args))
	}
	for i, arg := range ex.Args {
		got := a.checkExpr(arg)
		if i < len(sig.params) && !got.Equal(sig.params[i]) {
			a.diags.Errorf(arg.Span(), "argument %d of `%s` must be `%s`, found `%s`",
				i+1, ex.Name, sig.params[i], got)
		}
	}
	return sig.result
}

func (a *Analyser) checkListLit(ex *m.ListLit) m.Type {
	if len(ex.Elems) == 0 {
		a.diags.Errorf(ex.Loc, "empty list literal has no element type")
		return m.ListOf(m.NoneType)
	}
	elem := a.checkExpr(ex.Elems[0])
	for _, e := range ex.Elems[1:] {
		got := a.checkExpr(e)
		if !got.Equal(elem) {
			a.diags.Errorf(e.Span(), "list elements must share one type: `%s` vs `%s`", elem, got)
		}
	}
	return m.ListOf(elem)
}

func (a *Analyser) checkIf(ex *m.IfExpr) m.Type {
	cond := a.checkExpr(ex.Cond)
	if !cond.Equal(m.BoolType) {
		a.diags.Errorf(ex.Cond.Span(), "if condition must be `bool`, found `%s`", cond)
	}
	thenType := a.checkBlock(ex.Then)
	if ex.Else == nil {
		return m.NoneType
	}
	elseType := a.checkBlock(ex.Else)
	if thenType.Equal(elseType) {
		return thenType
	}
	return m.NoneType
}

func (a *Analyser) checkFor(ex *m.ForExpr) m.Type {
	iter := a.checkExpr(ex.Iter)
	elem := m.NoneType
	switch iter.Kind {
	case m.KindRegex:
		elem = m.StringType
	case m.KindList:
		elem = *iter.Elem
	default:
		a.diags.Errorf(ex.Iter.Span(), "for iterable must be a regex or a list, found `%s`", iter)
		elem = ex.VarType
	}
	if !ex.VarType.Equal(elem) {
		a.diags.Errorf(ex.VarLoc, "loop variable is annotated `%s` but the iterable yields `%s`",
			ex.VarType, elem)
	}
	a.pushScope()
	a.declare(&binding{
		name:      ex.Var,
		typ:       ex.VarType,
		declLoc:   ex.VarLoc,
		nameLoc:   ex.VarLoc,
		assignLoc: ex.VarLoc,
	})
	a.checkStmts(ex.Body)
	a.popScope()
	return m.NoneType
}

// checkMagic reports magic int/float literals outside const initializers,
// excluding the whitelisted common values.
func (a *Analyser) checkMagic(loc m.Span, v float64, isInt bool) {
	if a.constInit {
		return
	}
	if isInt {
		if whitelistedInt(int64(v)) {
			return
		}
		a.warnf(lintMagic, loc, "magic int detected")
		return
	}
	if whitelistedFloat(v) {
		return
	}
	a.warnf(lintMagic, loc, "magic float detected")
}

// Scope plumbing.

func (a *Analyser) currentScope() *scope {
	return a.scopes[len(a.scopes)-1]
}

func (a *Analyser) pushScope() {
	a.scopes = append(a.scopes, newScope())
}

func (a *Analyser) popScope() {
	a.closeScope()
	a.scopes = a.scopes[:len(a.scopes)-1]
}

// closeScope runs the usage lints for every binding about to be discarded.
func (a *Analyser) closeScope() {
	sc := a.currentScope()
	for _, b := range sc.order {
		if b.shadowed {
			continue
		}
		a.lintBindingAtExit(b)
	}
}

func (a *Analyser) lintBindingAtExit(b *binding) {
	if strings.HasPrefix(b.name, "_") {
		return
	}
	if !b.read {
		if b.reassigned {
			a.warnf(lintGeneral, b.assignLoc, "variable `%s` is not read after assignment", b.name)
		} else {
			a.warnf(lintGeneral, b.nameLoc, "unused variable `%s`", b.name)
		}
	}
	if !b.isConst && !b.reassigned {
		a.warnf(lintStyle, b.declLoc, "`%s` is never reassigned, consider `const`", b.name)
	}
}

// declare introduces a binding in the current scope. Redeclaring a let name
// shadows the earlier binding, which is linted immediately.
func (a *Analyser) declare(b *binding) {
	sc := a.currentScope()
	if old, ok := sc.byName[b.name]; ok {
		old.shadowed = true
		a.lintBindingAtExit(old)
	}
	sc.byName[b.name] = b
	sc.order = append(sc.order, b)
}

func (a *Analyser) lookup(name string) *binding {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if b, ok := a.scopes[i].byName[name]; ok {
			return b
		}
	}
	return nil
}

func (a *Analyser) warnf(class lintClass, loc m.Span, format string, args ...any) {
	if a.opts.NoWarnings {
		return
	}
	if class == lintStyle && a.opts.NoStyleWarnings {
		return
	}
	if class == lintMagic && a.opts.NoMagicWarnings {
		return
	}
	a.diags.Warnf(loc, format, args...)
}

func isSnakeCase(name string) bool {
	for _, c := range name {
		if c >= 'A' && c <= 'Z' {
			return false
		}
	}
	return true
}

func isUpperSnakeCase(name string) bool {
	for _, c := range name {
		if c >= 'a' && c <= 'z' {
			return false
		}
	}
	return true
}
