package domain

import (
	"fmt"
	"io"

	m "tesc.dev/pkg/tesc/internal/model"
)

// RuntimeError is a fatal evaluation error. It cancels the current test;
// other tests still run.
type RuntimeError struct {
	Loc m.Span
	Msg string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// ChildIO is the evaluator's view of the driver's child process. input and
// output delegate here while a test body is being evaluated.
type ChildIO interface {
	// Input writes one line to the child's stdin.
	Input(line string) error
	// Output reads one line from the child's stdout and compares it against
	// expected, newline-stripped on both sides.
	Output(expected string) error
}

// Evaluator tree-walks the post-analysis AST. It is single threaded; the
// child process handle is installed by the driver for the duration of one
// test body.
type Evaluator struct {
	maxLen int
	stdout io.Writer
	child  ChildIO
}

// NewEvaluator creates an evaluator. maxLen bounds regex quantifier
// unrolling; stdout receives print/println output.
func NewEvaluator(maxLen int, stdout io.Writer) *Evaluator {
	return &Evaluator{maxLen: maxLen, stdout: stdout}
}

// BindChild installs (or, with nil, removes) the driver's child handle.
func (ev *Evaluator) BindChild(c ChildIO) {
	ev.child = c
}

// Globals builds the file's top-level environment: function closures first
// so mutual recursion resolves, then constants and top-level lets in source
// order.
func (ev *Evaluator) Globals(prog *m.Program) (*m.Env, error) {
	env := m.NewEnv()
	for _, decl := range prog.Decls {
		if fn, ok := decl.(*m.FnDecl); ok {
			closure := &m.Closure{
				Name:   fn.Name,
				Params: fn.Params,
				Result: fn.Result,
				Body:   fn.Body,
				Env:    env,
			}
			env.Define(fn.Name, m.Value{Kind: m.ValClosure, Fn: closure})
		}
	}
	for _, decl := range prog.Decls {
		d, ok := decl.(*m.VarDecl)
		if !ok {
			continue
		}
		v, err := ev.Eval(d.Init, env)
		if err != nil {
			return nil, err
		}
		env.Define(d.Name, v)
	}
	return env, nil
}

// EvalBlock evaluates a block in a fresh scope under base. The result is
// the value of a final unterminated expression statement, or none.
func (ev *Evaluator) EvalBlock(block *m.BlockExpr, base *m.Env) (m.Value, error) {
	return ev.evalStmts(block, base.Child())
}

func (ev *Evaluator) evalStmts(block *m.BlockExpr, env *m.Env) (m.Value, error) {
	result := m.None
	for i, stmt := range block.Stmts {
		last := i == len(block.Stmts)-1
		switch s := stmt.(type) {
		case *m.VarDecl:
			v, err := ev.Eval(s.Init, env)
			if err != nil {
				return m.None, err
			}
			env.Define(s.Name, v)
		case *m.AssignStmt:
			v, err := ev.Eval(s.Value, env)
			if err != nil {
				return m.None, err
			}
			if !env.Set(s.Name, v) {
				return m.None, &RuntimeError{Loc: s.NameLoc, Msg: "internal: unbound assignment target `" + s.Name + "`"}
			}
		case *m.ExprStmt:
			v, err := ev.Eval(s.E, env)
			if err != nil {
				return m.None, err
			}
			if last && !s.Terminated {
				result = v
			}
		}
	}
	return result, nil
}

// Eval evaluates one expression.
func (ev *Evaluator) Eval(e m.Expr, env *m.Env) (m.Value, error) {
	switch ex := e.(type) {
	case *m.IntLit:
		return m.IntValue(ex.V), nil
	case *m.FloatLit:
		return m.FloatValue(ex.V), nil
	case *m.StringLit:
		return m.StringValue(ex.V), nil
	case *m.BoolLit:
		return m.BoolValue(ex.V), nil
	case *m.RegexLit:
		compiled, err := CompileRegex(ex.Source, ev.maxLen)
		if err != nil {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
		}
		return m.RegexVal(&m.RegexValue{Source: ex.Source, MaxLen: ev.maxLen, Enum: compiled}), nil
	case *m.Ident:
		v, ok := env.Get(ex.Name)
		if !ok {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: "internal: unbound identifier `" + ex.Name + "`"}
		}
		return v, nil
	case *m.Unary:
		return ev.evalUnary(ex, env)
	case *m.Binary:
		return ev.evalBinary(ex, env)
	case *m.Cast:
		return ev.evalCast(ex, env)
	case *m.Call:
		return ev.evalCall(ex, env)
	case *m.ListLit:
		elems := make([]m.Value, len(ex.Elems))
		for i, el := range ex.Elems {
			v, err := ev.Eval(el, env)
			if err != nil {
				return m.None, err
			}
			elems[i] = v
		}
		return m.ListValue(elems), nil
	case *m.BlockExpr:
		return ev.EvalBlock(ex, env)
	case *m.IfExpr:
		return ev.evalIf(ex, env)
	case *m.ForExpr:
		return ev.evalFor(ex, env)
	}
	return m.None, &RuntimeError{Loc: e.Span(), Msg: "internal: unhandled expression"}
}

func (ev *Evaluator) evalUnary(ex *m.Unary, env *m.Env) (m.Value, error) {
	operand, err := ev.Eval(ex.X, env)
	if err != nil {
		return m.None, err
	}
	entry, ok := unaryOps[unaryKey{ex.Op, typeKindOf(operand)}]
	if !ok {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: fmt.Sprintf("internal: unary `%s` on %s", ex.Op, operand)}
	}
	v, err := entry.apply(operand)
	if err != nil {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
	}
	return v, nil
}

func (ev *Evaluator) evalBinary(ex *m.Binary, env *m.Env) (m.Value, error) {
	lhs, err := ev.Eval(ex.X, env)
	if err != nil {
		return m.None, err
	}

	// Logical operators short-circuit before the right operand runs.
	switch ex.Op {
	case "&&":
		if !lhs.Bool {
			return m.BoolValue(false), nil
		}
		return ev.Eval(ex.Y, env)
	case "||":
		if lhs.Bool {
			return m.BoolValue(true), nil
		}
		return ev.Eval(ex.Y, env)
	}

	rhs, err := ev.Eval(ex.Y, env)
	if err != nil {
		return m.None, err
	}

	if ex.Op == "in" {
		for _, el := range rhs.List {
			if el.Equal(lhs) {
				return m.BoolValue(true), nil
			}
		}
		return m.BoolValue(false), nil
	}

	entry, ok := binOps[binKey{ex.Op, typeKindOf(lhs), typeKindOf(rhs)}]
	if !ok {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: fmt.Sprintf("internal: `%s` on %s and %s", ex.Op, lhs, rhs)}
	}
	v, err := entry.apply(lhs, rhs)
	if err != nil {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
	}
	return v, nil
}

func (ev *Evaluator) evalCast(ex *m.Cast, env *m.Env) (m.Value, error) {
	from, err := ev.Eval(ex.X, env)
	if err != nil {
		return m.None, err
	}
	apply, ok := casts[castKey{typeKindOf(from), ex.To.Kind}]
	if !ok {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: fmt.Sprintf("internal: cast %s to `%s`", from, ex.To)}
	}
	v, err := apply(from)
	if err != nil {
		return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
	}
	return v, nil
}

func (ev *Evaluator) evalCall(ex *m.Call, env *m.Env) (m.Value, error) {
	if v, ok := env.Get(ex.Name); ok && v.Kind == m.ValClosure {
		args := make([]m.Value, len(ex.Args))
		for i, arg := range ex.Args {
			av, err := ev.Eval(arg, env)
			if err != nil {
				return m.None, err
			}
			args[i] = av
		}
		callEnv := v.Fn.Env.Child()
		for i, p := range v.Fn.Params {
			callEnv.Define(p.Name, args[i])
		}
		return ev.EvalBlock(v.Fn.Body, callEnv)
	}
	return ev.evalBuiltin(ex, env)
}

func (ev *Evaluator) evalBuiltin(ex *m.Call, env *m.Env) (m.Value, error) {
	if _, known := builtinSigs[ex.Name]; !known {
		return m.None, &RuntimeError{Loc: ex.NameLoc, Msg: "internal: unknown function `" + ex.Name + "`"}
	}
	arg, err := ev.Eval(ex.Args[0], env)
	if err != nil {
		return m.None, err
	}
	switch ex.Name {
	case "print":
		fmt.Fprint(ev.stdout, arg.Str)
	case "println":
		fmt.Fprintln(ev.stdout, arg.Str)
	case "input":
		if ev.child == nil {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: "input is only available inside a test body"}
		}
		if err := ev.child.Input(arg.Str); err != nil {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
		}
	case "output":
		if ev.child == nil {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: "output is only available inside a test body"}
		}
		if err := ev.child.Output(arg.Str); err != nil {
			return m.None, &RuntimeError{Loc: ex.Loc, Msg: err.Error()}
		}
	}
	return m.None, nil
}

func (ev *Evaluator) evalIf(ex *m.IfExpr, env *m.Env) (m.Value, error) {
	cond, err := ev.Eval(ex.Cond, env)
	if err != nil {
		return m.None, err
	}
	if cond.Bool {
		return ev.EvalBlock(ex.Then, env)
	}
	if ex.Else != nil {
		return ev.EvalBlock(ex.Else, env)
	}
	return m.None, nil
}

// evalFor drives the iterable's sequence, binding a fresh loop variable per
// iteration. The loop itself yields none.
func (ev *Evaluator) evalFor(ex *m.ForExpr, env *m.Env) (m.Value, error) {
	iterable, err := ev.Eval(ex.Iter, env)
	if err != nil {
		return m.None, err
	}
	switch iterable.Kind {
	case m.ValRegex:
		for s := range iterable.Regex.Enum.Seq() {
			if err := ev.runIteration(ex, env, m.StringValue(s)); err != nil {
				return m.None, err
			}
		}
	case m.ValList:
		for _, el := range iterable.List {
			if err := ev.runIteration(ex, env, el); err != nil {
				return m.None, err
			}
		}
	default:
		return m.None, &RuntimeError{Loc: ex.Iter.Span(), Msg: "internal: for over non-iterable"}
	}
	return m.None, nil
}

func (ev *Evaluator) runIteration(ex *m.ForExpr, env *m.Env, item m.Value) error {
	iterEnv := env.Child()
	iterEnv.Define(ex.Var, item)
	_, err := ev.evalStmts(ex.Body, iterEnv.Child())
	return err
}

func typeKindOf(v m.Value) m.TypeKind {
	switch v.Kind {
	case m.ValString:
		return m.KindString
	case m.ValInt:
		return m.KindInt
	case m.ValFloat:
		return m.KindFloat
	case m.ValBool:
		return m.KindBool
	case m.ValRegex:
		return m.KindRegex
	case m.ValList:
		return m.KindList
	case m.ValClosure:
		return m.KindFunc
	}
	return m.KindNone
}
