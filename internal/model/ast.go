package model

// Node is any element of the syntax tree. Every node carries the span of the
// source text it was parsed from.
type Node interface {
	Span() Span
}

// Program is a parsed source file: a sequence of top-level declarations in
// source order.
type Program struct {
	File  string
	Decls []Decl
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Param is a function parameter.
type Param struct {
	Name string
	Type Type
	Loc  Span
}

// TestDecl binds a name and a command expression to a body that drives the
// spawned child.
type TestDecl struct {
	Name    string
	NameLoc Span
	Command Expr
	Body    *BlockExpr
	Loc     Span
}

// FnDecl declares a function with typed parameters and a declared result
// type.
type FnDecl struct {
	Name    string
	NameLoc Span
	Params  []Param
	Result  Type
	Body    *BlockExpr
	Loc     Span
}

// VarDecl declares a let or const binding. It appears both at the top level
// (constants) and as a statement. The type annotation and initializer are
// mandatory.
type VarDecl struct {
	Name    string
	NameLoc Span
	Const   bool
	Type    Type
	Init    Expr
	Loc     Span
}

// AssignStmt reassigns a previously declared binding.
type AssignStmt struct {
	Name    string
	NameLoc Span
	Value   Expr
	Loc     Span
}

// ExprStmt is an expression in statement position. Terminated reports
// whether the statement ended with a `;`; an unterminated final expression
// becomes the value of its enclosing block.
type ExprStmt struct {
	E          Expr
	Terminated bool
	Loc        Span
}

// Literal expressions.

type IntLit struct {
	V   int64
	Loc Span
}

type FloatLit struct {
	V   float64
	Loc Span
}

type StringLit struct {
	V   string
	Loc Span
}

type BoolLit struct {
	V   bool
	Loc Span
}

// RegexLit holds the verbatim interior of a backtick literal.
type RegexLit struct {
	Source string
	Loc    Span
}

type Ident struct {
	Name string
	Loc  Span
}

type Unary struct {
	Op  string
	X   Expr
	Loc Span
}

type Binary struct {
	Op  string
	X   Expr
	Y   Expr
	Loc Span
}

// Cast is `x as T`.
type Cast struct {
	X   Expr
	To  Type
	Loc Span
}

// Call is a call to a declared function or a builtin.
type Call struct {
	Name    string
	NameLoc Span
	Args    []Expr
	Loc     Span
}

// ListLit is `[e1, e2, …]`.
type ListLit struct {
	Elems []Expr
	Loc   Span
}

// BlockExpr is a `{ … }` block. Its value is the value of a final
// unterminated expression statement, or none.
type BlockExpr struct {
	Stmts []Stmt
	Loc   Span
}

// IfExpr is `if cond { … } else { … }`; Else may be nil.
type IfExpr struct {
	Cond Expr
	Then *BlockExpr
	Else *BlockExpr
	Loc  Span
}

// ForExpr is `for name: type in iterable { … }`.
type ForExpr struct {
	Var     string
	VarLoc  Span
	VarType Type
	Iter    Expr
	Body    *BlockExpr
	Loc     Span
}

func (d *TestDecl) Span() Span   { return d.Loc }
func (d *FnDecl) Span() Span     { return d.Loc }
func (d *VarDecl) Span() Span    { return d.Loc }
func (s *AssignStmt) Span() Span { return s.Loc }
func (s *ExprStmt) Span() Span   { return s.Loc }
func (e *IntLit) Span() Span     { return e.Loc }
func (e *FloatLit) Span() Span   { return e.Loc }
func (e *StringLit) Span() Span  { return e.Loc }
func (e *BoolLit) Span() Span    { return e.Loc }
func (e *RegexLit) Span() Span   { return e.Loc }
func (e *Ident) Span() Span      { return e.Loc }
func (e *Unary) Span() Span      { return e.Loc }
func (e *Binary) Span() Span     { return e.Loc }
func (e *Cast) Span() Span       { return e.Loc }
func (e *Call) Span() Span       { return e.Loc }
func (e *ListLit) Span() Span    { return e.Loc }
func (e *BlockExpr) Span() Span  { return e.Loc }
func (e *IfExpr) Span() Span     { return e.Loc }
func (e *ForExpr) Span() Span    { return e.Loc }

func (*TestDecl) declNode() {}
func (*FnDecl) declNode()   {}
func (*VarDecl) declNode()  {}

func (*VarDecl) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*RegexLit) exprNode()  {}
func (*Ident) exprNode()     {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Cast) exprNode()      {}
func (*Call) exprNode()      {}
func (*ListLit) exprNode()   {}
func (*BlockExpr) exprNode() {}
func (*IfExpr) exprNode()    {}
func (*ForExpr) exprNode()   {}
