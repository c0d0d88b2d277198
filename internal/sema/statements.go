package sema

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/scope"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
)

// AnalyzeBlock lowers a *ast.Block into a Compound, opening a fresh
// BlockScope nested in sc (spec.md §4.2/§4.4).
func (a *Analyzer) AnalyzeBlock(sc scope.Scope, b *ast.Block) *Compound {
	inner := scope.NewBlockScope(sc)
	c := &Compound{}
	for _, s := range b.Stmts {
		if st := a.AnalyzeStmt(inner, s); st != nil {
			c.Stmts = append(c.Stmts, st)
		}
	}
	return c
}

// AnalyzeStmt lowers one AST statement within sc (spec.md §4.4).
func (a *Analyzer) AnalyzeStmt(sc scope.Scope, s ast.Stmt) Stmt {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		return &ExprStmt{Expr: a.AnalyzeExpr(sc, n.Expr)}

	case *ast.VarDeclStatement:
		var init Expr
		typ := sc.Env().Types.LookupBuiltinType("Any", false)
		if n.Init != nil {
			init = a.AnalyzeExpr(sc, n.Init)
			typ = init.Type()
		}
		if n.Type != nil {
			typ = sc.ResolveType(n.Type)
			if init != nil {
				init = a.convertTo(sc, init, typ, n.Pos)
			}
		}
		lv := sc.DeclareLocal(n.Name, typ, n.Pos)
		return &VarDeclStmt{Local: lv, Init: init}

	case *ast.Assignment:
		return a.analyzeAssignment(sc, n)

	case *ast.If:
		then := a.AnalyzeBlock(sc, n.Then)
		var els *Compound
		if n.Else != nil {
			els = a.AnalyzeBlock(sc, n.Else)
		}
		boolType := sc.Env().Types.LookupBuiltinType("Bool", false)
		cond := a.convertTo(sc, a.AnalyzeExpr(sc, n.Cond), boolType, n.Pos)
		return &IfStmt{Cond: cond, Then: then, Else: els}

	case *ast.Try:
		tryBody := a.AnalyzeBlock(sc, n.TryBody)
		catchScope := scope.NewBlockScope(sc)
		lv := declareCatchVar(sc, catchScope, n)
		catch := a.AnalyzeBlock(catchScope, n.Catch)
		return &TryStmt{TryBody: tryBody, CatchLocal: lv, CatchBody: catch}

	case *ast.Return:
		if n.Expr == nil {
			if a.ReturnType != nil && a.ReturnType.DisplayName() != "Nothing" {
				sc.Diag().Report(diag.SemaInvalidReturnType, n.Pos).Arg("Nothing").Arg(a.ReturnType.DisplayName()).Emit()
			}
			return &ReturnStmt{}
		}
		val := a.AnalyzeExpr(sc, n.Expr)
		if a.ReturnType != nil {
			val = a.convertTo(sc, val, a.ReturnType, n.Pos)
		}
		return &ReturnStmt{Expr: val}

	case *ast.Block:
		return a.AnalyzeBlock(sc, n)

	default:
		return nil
	}
}

func (a *Analyzer) analyzeAssignment(sc scope.Scope, n *ast.Assignment) Stmt {
	ident, ok := n.Target.(*ast.Identifier)
	if !ok {
		sc.Diag().Report(diag.SemaNotAnLValue, n.Pos).Arg("expression").Emit()
		return &ExprStmt{Expr: a.AnalyzeExpr(sc, n.Value)}
	}
	r := sc.ResolveSymbol(ident.Name)
	value := a.AnalyzeExpr(sc, n.Value)
	switch r.Kind {
	case scope.SymLocal:
		value = a.convertTo(sc, value, r.Local.Type, n.Pos)
		return &AssignStmt{TargetLocal: r.Local, Value: value}
	case scope.SymGlobal:
		value = a.convertTo(sc, value, r.Global.Type, n.Pos)
		return &AssignStmt{TargetGlobal: r.Global, Value: value}
	default:
		sc.Diag().Report(diag.SemaNotAnLValue, n.Pos).Arg(ident.Name).Emit()
		return &ExprStmt{Expr: value}
	}
}

// declareCatchVar binds a Try statement's catch variable, if named, as a
// local of type Any within the catch scope (spec.md §4.4 scenario 4: "catch
// block reads the current exception into a local $e").
func declareCatchVar(sc scope.Scope, catchScope scope.Scope, n *ast.Try) *codeir.LocalVariable {
	if n.CatchVar == "" {
		return nil
	}
	anyType := sc.Env().Types.LookupBuiltinType("Any", false)
	return catchScope.DeclareLocal(n.CatchVar, anyType, n.Pos)
}
