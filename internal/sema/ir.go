// Package sema implements the expression/statement semantic analyzer
// (pass 1 proper) of spec.md §4.4: it lowers validated AST into a typed,
// tree-shaped semantic IR distinct from both the AST and the code IR,
// applying overload resolution and inserting implicit conversions.
package sema

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/scope"
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/source"
)

// Expr is the sum type of semantic-IR expression nodes. Every node carries
// its resolved Type and source location (spec.md §4.4).
type Expr interface {
	exprNode()
	Type() *types.Type
	Pos() source.Position
}

type exprBase struct {
	typ *types.Type
	pos source.Position
}

func (e exprBase) Type() *types.Type   { return e.typ }
func (e exprBase) Pos() source.Position { return e.pos }

// Ident references a resolved symbol: Local, Global, or FunctionGroup
// (spec.md §4.4). Constants are not resolvable as identifiers, so no Ident
// refers to one.
type Ident struct {
	exprBase
	Kind   scope.SymbolKind
	Local  *codeir.LocalVariable
	Global *codeir.GlobalVariable
	Group  *codeir.FunctionGroup
}

func (*Ident) exprNode() {}

// Literal is a typed immediate constant; string literals are interned via
// the owning Environment (spec.md §4.4).
type Literal struct {
	exprBase
	Int    int64
	Flt    float64
	Str    *codeir.StringLiteral
	Bool   bool
	IsNothing bool
}

func (*Literal) exprNode() {}

// Unary applies a resolved unary operator.
type Unary struct {
	exprBase
	Op      ast.UnaryOp
	Operand Expr
}

func (*Unary) exprNode() {}

// Binary applies a resolved operator; operands already carry any implicit
// Convert nodes needed to reach the operator's declared operand types
// (spec.md §4.4).
type Binary struct {
	exprBase
	Entry *types.BinaryOpEntry
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Convert is an explicit implicit-conversion node inserted by the analyzer
// (spec.md §4.4).
type Convert struct {
	exprBase
	Conv *types.Conversion
	Arg  Expr
}

func (*Convert) exprNode() {}

// If is an expression-level conditional, the structural lowering target of
// &&, ||, and ?: (spec.md §4.4: "short-circuit is encoded structurally").
// For &&/||, Else/Then are synthesized Bool literals per the desugaring in
// analyzeLogical.
type If struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (*If) exprNode() {}

// Call is a resolved invocation: overload resolution has already selected
// Callee from the named FunctionGroup (spec.md §4.4).
type Call struct {
	exprBase
	Group  *codeir.FunctionGroup
	Callee *codeir.Function
	Args   []Expr
}

func (*Call) exprNode() {}

// Stmt is the sum type of semantic statements (spec.md §4.4).
type Stmt interface{ stmtNode() }

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Expr
}

// IfStmt is the conditional statement; Else may be nil.
type IfStmt struct {
	Cond Expr
	Then *Compound
	Else *Compound
}

// TryStmt is the try/catch statement; CatchLocal is nil if the catch
// clause does not bind the exception.
type TryStmt struct {
	TryBody    *Compound
	CatchLocal *codeir.LocalVariable
	CatchBody  *Compound
}

// ReturnStmt returns from the enclosing function. Expr is nil for Nothing.
type ReturnStmt struct {
	Expr Expr
}

// Compound is CompoundStatement(stmts) from spec.md §4.4.
type Compound struct {
	Stmts []Stmt
}

// VarDeclStmt is "my x [= init]"; the declareLocal call already happened
// against the current block scope by the time this node is produced.
type VarDeclStmt struct {
	Local *codeir.LocalVariable
	Init  Expr // nil if uninitialized
}

// AssignStmt is "l = r"; TargetLocal/TargetGlobal select which, exactly
// one of which is non-nil (spec.md §4.4: l must be an LValue).
type AssignStmt struct {
	TargetLocal  *codeir.LocalVariable
	TargetGlobal *codeir.GlobalVariable
	Value        Expr
}

// GlobalInitStmt one-shot initializes a global, the sole producer of
// GlobalInit instructions (spec.md §4.6); it appears only in the
// synthesized qInit function's body, one per declared global in
// declaration order (spec.md §4.3, §8 scenario 2). Init is never nil: an
// uninitialized global still initializes to a Nothing literal.
type GlobalInitStmt struct {
	Global *codeir.GlobalVariable
	Init   Expr
}

// GlobalFinalizeStmt releases a ref-counted global's value, appearing only
// in the synthesized qDone function's body, one per ref-counted global in
// reverse declaration order (spec.md §4.3).
type GlobalFinalizeStmt struct {
	Global *codeir.GlobalVariable
}

func (*ExprStmt) stmtNode()           {}
func (*IfStmt) stmtNode()             {}
func (*TryStmt) stmtNode()            {}
func (*ReturnStmt) stmtNode()         {}
func (*Compound) stmtNode()           {}
func (*VarDeclStmt) stmtNode()        {}
func (*AssignStmt) stmtNode()         {}
func (*GlobalInitStmt) stmtNode()     {}
func (*GlobalFinalizeStmt) stmtNode() {}
