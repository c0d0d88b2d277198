// Package ast defines the concrete, minimal abstract syntax tree the
// semantic analyzer and IR builder consume. Parsing source text into this
// tree is out of scope (spec.md §1); trees are expected to arrive already
// validated, or be constructed directly (as the teacher's own test suites
// build ast.Program values without going through its parser).
package ast

import "github.com/dynscript/corec/pkg/source"

// Node is embedded by every concrete node to carry a source position.
type Node struct {
	Pos source.Position
}

// TypeRef names a type by its raw textual spelling, to be resolved by
// internal/scope.resolveType. Asterisk selects the *T optional form.
type TypeRef struct {
	Node
	Name     string
	Asterisk bool
	Root     bool // true for ::Qualified names, forcing root-only lookup
}

// Program is the root of one compilation unit: a sequence of top-level
// declarations plus any bare top-level statements, which are collected into
// the synthesized qMain function per spec.md §4.3.
type Program struct {
	Node
	Decls      []Decl
	Statements []Stmt
}

// Decl is the sum type of top-level and namespace-member declarations.
type Decl interface{ declNode() }

// NamespaceDecl groups nested declarations under a name.
type NamespaceDecl struct {
	Node
	Name  string
	Decls []Decl
}

// ClassDecl declares a class. Fields == nil with no Methods marks a forward
// declaration, per the teacher's declaration_pass.go convention.
type ClassDecl struct {
	Node
	Name       string
	SuperClass string // raw name, empty if none
	Fields     []*FieldDecl
	Methods    []*FunctionDecl
}

// FieldDecl is one class member field.
type FieldDecl struct {
	Node
	Name string
	Type *TypeRef
}

// GlobalVarDecl declares a namespace-scoped global ("our" variable).
type GlobalVarDecl struct {
	Node
	Name string
	Type *TypeRef
	Init Expr // nil if uninitialized
}

// ConstDecl declares a namespace-scoped constant.
type ConstDecl struct {
	Node
	Name string
	Init Expr
}

// Param is one formal parameter of a function.
type Param struct {
	Node
	Name string
	Type *TypeRef
}

// FunctionDecl declares a function or method overload.
type FunctionDecl struct {
	Node
	Name       string
	Params     []*Param
	ReturnType *TypeRef // nil means Nothing
	Body       *Block   // nil marks a forward declaration
}

func (*NamespaceDecl) declNode() {}
func (*ClassDecl) declNode()     {}
func (*GlobalVarDecl) declNode() {}
func (*ConstDecl) declNode()     {}
func (*FunctionDecl) declNode()  {}

// Stmt is the sum type of statements.
type Stmt interface{ stmtNode() }

// Block is a brace-delimited sequence of statements (CompoundStatement in
// spec.md §4.4/§4.5.3).
type Block struct {
	Node
	Stmts []Stmt
}

// If is the conditional statement; Else may be nil.
type If struct {
	Node
	Cond Expr
	Then *Block
	Else *Block
}

// Try is the try/catch statement. CatchVar is the bound exception local's
// name (e.g. "$e"); empty if the catch clause does not bind one.
type Try struct {
	Node
	TryBody  *Block
	CatchVar string
	Catch    *Block
}

// Return returns from the enclosing function. Expr is nil for a bare return.
type Return struct {
	Node
	Expr Expr
}

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	Node
	Expr Expr
}

// VarDeclStatement is the "my x [= init]" inline local declaration.
type VarDeclStatement struct {
	Node
	Name string
	Type *TypeRef // nil to infer from Init
	Init Expr     // nil if uninitialized
}

// Assignment is "lvalue = rvalue".
type Assignment struct {
	Node
	Target Expr
	Value  Expr
}

func (*Block) stmtNode()               {}
func (*If) stmtNode()                  {}
func (*Try) stmtNode()                 {}
func (*Return) stmtNode()              {}
func (*ExpressionStatement) stmtNode() {}
func (*VarDeclStatement) stmtNode()    {}
func (*Assignment) stmtNode()          {}

// Expr is the sum type of expressions.
type Expr interface{ exprNode() }

// Identifier references a name to be resolved by scope.resolveSymbol.
type Identifier struct {
	Node
	Name string
}

// LiteralKind tags the kind of a Literal's payload.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNothing
)

// Literal is a typed constant.
type Literal struct {
	Node
	Kind LiteralKind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
}

// UnaryOp enumerates the unary operator kinds.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// Unary applies a unary operator to Operand.
type Unary struct {
	Node
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates the binary operator kinds resolved via
// internal/types.findBinaryOperator.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNotEq
	BinLess
	BinLessEq
	BinGreater
	BinGreaterEq
)

// Binary applies a binary operator to Left/Right.
type Binary struct {
	Node
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// LogicalOp enumerates the short-circuit operator kinds lowered to semantic
// If nodes per spec.md §4.4.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
	LogicalTernary
)

// Logical is "&&", "||", or "cond ? then : else".
type Logical struct {
	Node
	Op    LogicalOp
	Left  Expr // condition, for LogicalTernary
	Right Expr // then-branch, for LogicalTernary
	Else  Expr // else-branch, only for LogicalTernary
}

// Call invokes the overload pack named Callee with Args.
type Call struct {
	Node
	Callee string
	Args   []Expr
}

func (*Identifier) exprNode() {}
func (*Literal) exprNode()    {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Logical) exprNode()    {}
func (*Call) exprNode()       {}
