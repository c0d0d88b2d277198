package sema

import (
	"testing"

	"github.com/dynscript/corec/pkg/ast"
)

func TestAnalyzeBlock_DeclaresLocalsInANestedBlockScope(t *testing.T) {
	env, sink, fs := newFunctionScope()
	a := &Analyzer{}
	block := &ast.Block{Stmts: []ast.Stmt{
		&ast.VarDeclStatement{Name: "x", Init: &ast.Literal{Kind: ast.LitInt, Int: 1}},
	}}

	compound := a.AnalyzeBlock(fs, block)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", sink.Diagnostics)
	}
	if len(compound.Stmts) != 1 {
		t.Fatalf("expected 1 lowered statement, got %d", len(compound.Stmts))
	}
	decl, ok := compound.Stmts[0].(*VarDeclStmt)
	if !ok {
		t.Fatalf("expected *VarDeclStmt, got %T", compound.Stmts[0])
	}
	if decl.Local.Type.DisplayName() != "Int" {
		t.Errorf("expected the inferred type to be Int, got %v", decl.Local.Type)
	}
	if len(fs.Function.Locals) != 1 {
		t.Fatalf("expected the block's local to land on the function frame, got %d locals", len(fs.Function.Locals))
	}
	_ = env
}

func TestAnalyzeStmt_VarDeclWithExplicitTypeConvertsInit(t *testing.T) {
	_, sink, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.VarDeclStatement{
		Name: "x",
		Type: &ast.TypeRef{Name: "Float"},
		Init: &ast.Literal{Kind: ast.LitInt, Int: 1},
	}
	got := a.AnalyzeStmt(fs, stmt)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", sink.Diagnostics)
	}
	decl, ok := got.(*VarDeclStmt)
	if !ok {
		t.Fatalf("expected *VarDeclStmt, got %T", got)
	}
	if decl.Local.Type.DisplayName() != "Float" {
		t.Errorf("expected the declared type to win over the inferred one, got %v", decl.Local.Type)
	}
	if _, ok := decl.Init.(*Convert); !ok {
		t.Errorf("expected the Int initializer to gain an implicit Convert to Float, got %T", decl.Init)
	}
}

func TestAnalyzeStmt_AssignmentToUndeclaredNameDiagnoses(t *testing.T) {
	_, sink, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.Assignment{
		Target: &ast.Identifier{Name: "nope"},
		Value:  &ast.Literal{Kind: ast.LitInt, Int: 1},
	}
	got := a.AnalyzeStmt(fs, stmt)
	if !sink.HasErrors() {
		t.Fatal("expected a not-an-lvalue diagnostic for an unresolved assignment target")
	}
	if _, ok := got.(*ExprStmt); !ok {
		t.Errorf("expected the assignment to degrade to an ExprStmt, got %T", got)
	}
}

func TestAnalyzeStmt_AssignmentToNonIdentifierDiagnoses(t *testing.T) {
	_, sink, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.Assignment{
		Target: &ast.Literal{Kind: ast.LitInt, Int: 1},
		Value:  &ast.Literal{Kind: ast.LitInt, Int: 2},
	}
	a.AnalyzeStmt(fs, stmt)
	if !sink.HasErrors() {
		t.Fatal("expected a not-an-lvalue diagnostic when the target isn't an identifier")
	}
}

func TestAnalyzeStmt_IfLowersBothArms(t *testing.T) {
	_, sink, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.If{
		Cond: &ast.Literal{Kind: ast.LitBool, Bool: true},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.Return{}}},
		Else: &ast.Block{},
	}
	got := a.AnalyzeStmt(fs, stmt)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", sink.Diagnostics)
	}
	ifStmt, ok := got.(*IfStmt)
	if !ok {
		t.Fatalf("expected *IfStmt, got %T", got)
	}
	if ifStmt.Else == nil {
		t.Error("expected a non-nil Else compound when the AST supplies one")
	}
	if len(ifStmt.Then.Stmts) != 1 {
		t.Errorf("expected the then-branch to carry its one statement, got %d", len(ifStmt.Then.Stmts))
	}
}

func TestAnalyzeStmt_IfWithNoElseLeavesElseNil(t *testing.T) {
	_, _, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.If{Cond: &ast.Literal{Kind: ast.LitBool, Bool: true}, Then: &ast.Block{}}
	got := a.AnalyzeStmt(fs, stmt).(*IfStmt)
	if got.Else != nil {
		t.Error("expected a nil Else compound when the AST supplies none")
	}
}

func TestAnalyzeStmt_TryBindsNamedCatchVar(t *testing.T) {
	_, sink, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.Try{
		TryBody:  &ast.Block{},
		CatchVar: "e",
		Catch:    &ast.Block{},
	}
	got := a.AnalyzeStmt(fs, stmt)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", sink.Diagnostics)
	}
	tryStmt, ok := got.(*TryStmt)
	if !ok {
		t.Fatalf("expected *TryStmt, got %T", got)
	}
	if tryStmt.CatchLocal == nil || tryStmt.CatchLocal.Name != "e" {
		t.Fatalf("expected the catch variable to be declared as a local named e, got %+v", tryStmt.CatchLocal)
	}
	if tryStmt.CatchLocal.Type.DisplayName() != "Any" {
		t.Errorf("expected the catch variable's type to be Any, got %v", tryStmt.CatchLocal.Type)
	}
}

func TestAnalyzeStmt_TryWithNoCatchVarLeavesCatchLocalNil(t *testing.T) {
	_, _, fs := newFunctionScope()
	a := &Analyzer{}
	stmt := &ast.Try{TryBody: &ast.Block{}, Catch: &ast.Block{}}
	got := a.AnalyzeStmt(fs, stmt).(*TryStmt)
	if got.CatchLocal != nil {
		t.Error("expected no catch local when the AST names none")
	}
}

func TestAnalyzeStmt_ReturnConvertsToDeclaredReturnType(t *testing.T) {
	env, sink, fs := newFunctionScope()
	a := &Analyzer{ReturnType: env.Types.LookupBuiltinType("Float", false)}
	stmt := &ast.Return{Expr: &ast.Literal{Kind: ast.LitInt, Int: 1}}
	got := a.AnalyzeStmt(fs, stmt)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", sink.Diagnostics)
	}
	ret, ok := got.(*ReturnStmt)
	if !ok {
		t.Fatalf("expected *ReturnStmt, got %T", got)
	}
	if _, ok := ret.Expr.(*Convert); !ok {
		t.Errorf("expected the returned Int to convert to the declared Float return type, got %T", ret.Expr)
	}
}

func TestAnalyzeStmt_BareReturnAgainstNonNothingDiagnoses(t *testing.T) {
	env, sink, fs := newFunctionScope()
	a := &Analyzer{ReturnType: env.Types.LookupBuiltinType("Int", false)}
	a.AnalyzeStmt(fs, &ast.Return{})
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for a bare return against a non-Nothing return type")
	}
}

func TestAnalyzeStmt_UnknownStatementKindReturnsNil(t *testing.T) {
	_, _, fs := newFunctionScope()
	a := &Analyzer{}
	if got := a.AnalyzeStmt(fs, nil); got != nil {
		t.Errorf("expected nil for an unrecognized statement kind, got %v", got)
	}
}
