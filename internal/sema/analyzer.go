package sema

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/scope"
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
	"github.com/dynscript/corec/pkg/source"
)

// Analyzer lowers AST expressions/statements into semantic IR against one
// function's return type and a scope chain (spec.md §4.4). One Analyzer is
// used per function body; nested blocks open nested scope.BlockScopes.
type Analyzer struct {
	Sink       diag.Sink
	ReturnType *types.Type
}

func errorType(sc scope.Scope) *types.Type {
	return sc.Env().Types.LookupBuiltinType("Error", false)
}

// AnalyzeExpr lowers e within sc, resolving symbols, operators, and
// conversions.
func (a *Analyzer) AnalyzeExpr(sc scope.Scope, e ast.Expr) Expr {
	switch n := e.(type) {
	case *ast.Identifier:
		return a.analyzeIdent(sc, n)
	case *ast.Literal:
		return a.analyzeLiteral(sc, n)
	case *ast.Unary:
		return a.analyzeUnary(sc, n)
	case *ast.Binary:
		return a.analyzeBinary(sc, n)
	case *ast.Logical:
		return a.analyzeLogical(sc, n)
	case *ast.Call:
		return a.analyzeCall(sc, n)
	default:
		return &Literal{exprBase: exprBase{typ: errorType(sc)}, IsNothing: true}
	}
}

func (a *Analyzer) analyzeIdent(sc scope.Scope, n *ast.Identifier) Expr {
	r := sc.ResolveSymbol(n.Name)
	switch r.Kind {
	case scope.SymLocal:
		return &Ident{exprBase: exprBase{typ: r.Local.Type, pos: n.Pos}, Kind: r.Kind, Local: r.Local}
	case scope.SymGlobal:
		return &Ident{exprBase: exprBase{typ: r.Global.Type, pos: n.Pos}, Kind: r.Kind, Global: r.Global}
	case scope.SymFunctionGroup:
		return &Ident{exprBase: exprBase{typ: sc.Env().Types.LookupBuiltinType("Any", false), pos: n.Pos}, Kind: r.Kind, Group: r.Group}
	default:
		sc.Diag().Report(diag.SemaUnresolvedClass, n.Pos).Arg(n.Name).Emit()
		return &Ident{exprBase: exprBase{typ: errorType(sc), pos: n.Pos}}
	}
}

func (a *Analyzer) analyzeLiteral(sc scope.Scope, n *ast.Literal) Expr {
	env := sc.Env()
	t := env.Types
	switch n.Kind {
	case ast.LitInt:
		return &Literal{exprBase: exprBase{typ: t.LookupBuiltinType("Int", false), pos: n.Pos}, Int: n.Int}
	case ast.LitFloat:
		return &Literal{exprBase: exprBase{typ: t.LookupBuiltinType("Float", false), pos: n.Pos}, Flt: n.Flt}
	case ast.LitString:
		return &Literal{exprBase: exprBase{typ: t.LookupBuiltinType("String", false), pos: n.Pos}, Str: env.InternString(n.Str)}
	case ast.LitBool:
		return &Literal{exprBase: exprBase{typ: t.LookupBuiltinType("Bool", false), pos: n.Pos}, Bool: n.Bool}
	default:
		return &Literal{exprBase: exprBase{typ: t.LookupBuiltinType("Nothing", false), pos: n.Pos}, IsNothing: true}
	}
}

func (a *Analyzer) analyzeUnary(sc scope.Scope, n *ast.Unary) Expr {
	operand := a.AnalyzeExpr(sc, n.Operand)
	// Unary is modeled here as int-negate / bool-not over their natural
	// type; spec.md does not enumerate a separate unary-operator table, so
	// this follows the binary-operator identity-typed convention (no
	// conversion inserted unless the operand isn't already Int/Bool).
	want := "Int"
	if n.Op == ast.UnaryNot {
		want = "Bool"
	}
	target := sc.Env().Types.LookupBuiltinType(want, false)
	operand = a.convertTo(sc, operand, target, n.Pos)
	return &Unary{exprBase: exprBase{typ: target, pos: n.Pos}, Op: n.Op, Operand: operand}
}

func (a *Analyzer) analyzeBinary(sc scope.Scope, n *ast.Binary) Expr {
	left := a.AnalyzeExpr(sc, n.Left)
	right := a.AnalyzeExpr(sc, n.Right)
	reg := sc.Env().Types
	res, entry := reg.FindBinaryOperator(n.Op, left.Type(), right.Type())
	switch res {
	case types.FindNotFound:
		sc.Diag().Report(diag.SemaTypeMismatch, n.Pos).Arg(left.Type().DisplayName()).Arg(right.Type().DisplayName()).Emit()
		return &Literal{exprBase: exprBase{typ: errorType(sc), pos: n.Pos}, IsNothing: true}
	case types.FindAmbiguous:
		sc.Diag().Report(diag.SemaAmbiguousOverload, n.Pos).Arg("operator").Arg("2").Emit()
		return &Literal{exprBase: exprBase{typ: errorType(sc), pos: n.Pos}, IsNothing: true}
	}
	left = a.convertTo(sc, left, entry.Left, n.Pos)
	right = a.convertTo(sc, right, entry.Right, n.Pos)
	return &Binary{exprBase: exprBase{typ: entry.ResultType, pos: n.Pos}, Entry: entry, Left: left, Right: right}
}

// convertTo inserts an implicit Convert node when left.Type() != target,
// diagnosing a type mismatch on Fail (spec.md §4.1/§4.4).
func (a *Analyzer) convertTo(sc scope.Scope, e Expr, target *types.Type, pos source.Position) Expr {
	res, conv := sc.Env().Types.FindConversion(e.Type(), target)
	switch res {
	case types.ConvNone:
		return e
	case types.ConvFail:
		sc.Diag().Report(diag.SemaTypeMismatch, pos).Arg(e.Type().DisplayName()).Arg(target.DisplayName()).Emit()
		return e
	default:
		return &Convert{exprBase: exprBase{typ: target, pos: pos}, Conv: conv, Arg: e}
	}
}

func (a *Analyzer) analyzeLogical(sc scope.Scope, n *ast.Logical) Expr {
	boolType := sc.Env().Types.LookupBuiltinType("Bool", false)
	switch n.Op {
	case ast.LogicalAnd:
		// a && b  =>  if a then b else false
		cond := a.convertTo(sc, a.AnalyzeExpr(sc, n.Left), boolType, n.Pos)
		then := a.convertTo(sc, a.AnalyzeExpr(sc, n.Right), boolType, n.Pos)
		els := &Literal{exprBase: exprBase{typ: boolType, pos: n.Pos}, Bool: false}
		return &If{exprBase: exprBase{typ: boolType, pos: n.Pos}, Cond: cond, Then: then, Else: els}
	case ast.LogicalOr:
		// a || b  =>  if a then true else b
		cond := a.convertTo(sc, a.AnalyzeExpr(sc, n.Left), boolType, n.Pos)
		then := &Literal{exprBase: exprBase{typ: boolType, pos: n.Pos}, Bool: true}
		els := a.convertTo(sc, a.AnalyzeExpr(sc, n.Right), boolType, n.Pos)
		return &If{exprBase: exprBase{typ: boolType, pos: n.Pos}, Cond: cond, Then: then, Else: els}
	default: // LogicalTernary
		cond := a.convertTo(sc, a.AnalyzeExpr(sc, n.Left), boolType, n.Pos)
		then := a.AnalyzeExpr(sc, n.Right)
		els := a.AnalyzeExpr(sc, n.Else)
		// Both arms must agree on a common type; converting the else arm
		// to the then arm's type covers the common case (numeric widening,
		// T -> *T) without a full join-type algorithm, which spec.md does
		// not specify for ?: beyond "lowered to semantic If nodes".
		els = a.convertTo(sc, els, then.Type(), n.Pos)
		return &If{exprBase: exprBase{typ: then.Type(), pos: n.Pos}, Cond: cond, Then: then, Else: els}
	}
}

func (a *Analyzer) analyzeCall(sc scope.Scope, n *ast.Call) Expr {
	r := sc.ResolveSymbol(n.Callee)
	if r.Kind != scope.SymFunctionGroup {
		sc.Diag().Report(diag.SemaUnresolvedClass, n.Pos).Arg(n.Callee).Emit()
		return &Literal{exprBase: exprBase{typ: errorType(sc), pos: n.Pos}, IsNothing: true}
	}
	args := make([]Expr, len(n.Args))
	for i, argExpr := range n.Args {
		args[i] = a.AnalyzeExpr(sc, argExpr)
	}
	callee, ok := resolveOverload(sc, r.Group, args, n.Pos)
	if !ok {
		return &Literal{exprBase: exprBase{typ: errorType(sc), pos: n.Pos}, IsNothing: true}
	}
	for i, param := range callee.ParamTypes {
		args[i] = a.convertTo(sc, args[i], param, n.Pos)
	}
	ret := callee.ReturnType
	if ret == nil {
		ret = sc.Env().Types.LookupBuiltinType("Nothing", false)
	}
	return &Call{exprBase: exprBase{typ: ret, pos: n.Pos}, Group: r.Group, Callee: callee, Args: args}
}

// resolveOverload ranks r.Group's overloads against args' types using the
// same tie-break rules as findBinaryOperator (spec.md §4.4: "ranking
// mirrors the operator rules in §4.1").
func resolveOverload(sc scope.Scope, group *codeir.FunctionGroup, args []Expr, pos source.Position) (*codeir.Function, bool) {
	reg := sc.Env().Types
	type cand struct {
		fn      *codeir.Function
		numConv int
	}
	var candidates []cand
	for _, fn := range group.Overloads {
		if len(fn.ParamTypes) != len(args) {
			continue
		}
		n := 0
		ok := true
		for i, p := range fn.ParamTypes {
			res, _ := reg.FindConversion(args[i].Type(), p)
			if res == types.ConvFail {
				ok = false
				break
			}
			if res == types.ConvFound {
				n++
			}
		}
		if ok {
			candidates = append(candidates, cand{fn, n})
		}
	}
	if len(candidates) == 0 {
		sc.Diag().Report(diag.SemaCallArityMismatch, pos).Arg(group.FullName).Arg("matching").Emit()
		return nil, false
	}
	min := candidates[0].numConv
	for _, c := range candidates {
		if c.numConv < min {
			min = c.numConv
		}
	}
	var best []cand
	for _, c := range candidates {
		if c.numConv == min {
			best = append(best, c)
		}
	}
	if len(best) > 1 {
		var tight []cand
		for _, c := range best {
			soft := false
			for _, p := range c.fn.ParamTypes {
				soft = soft || p.Kind == types.KSoftInt || p.Kind == types.KSoftBool || p.Kind == types.KSoftString
			}
			if !soft {
				tight = append(tight, c)
			}
		}
		if len(tight) == 1 {
			best = tight
		}
	}
	if len(best) != 1 {
		sc.Diag().Report(diag.SemaAmbiguousOverload, pos).Arg(group.FullName).Arg(itoa(len(best))).Emit()
		return nil, false
	}
	return best[0].fn, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
