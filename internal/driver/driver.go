// Package driver orchestrates the full analysis pipeline: AST in,
// namespace tree plus code IR out, grounded on the teacher's
// cmd/dwscript/cmd/compile.go compileScript pipeline (parse -> semantic
// analyze -> bytecode compile -> serialize), adapted to this spec's
// two-pass declaration/body split and its own worklist driver instead of
// the teacher's single-pass semantic.Analyzer.
package driver

import (
	"sync"

	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/declpass"
	"github.com/dynscript/corec/internal/irbuild"
	"github.com/dynscript/corec/internal/scope"
	"github.com/dynscript/corec/internal/sema"
	"github.com/dynscript/corec/internal/symbols"
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/internal/worklist"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
)

// Result is the completed analysis: the namespace tree (for name/type
// queries) and the set of functions whose bodies were lowered to code IR
// (for back ends).
type Result struct {
	Env       *symbols.Environment
	Functions []*codeir.Function
	Fatal     bool
}

// Run executes the full pipeline over prog, reporting diagnostics through
// sink. concurrency bounds per-stage goroutine fan-out (0 = unbounded),
// per SPEC_FULL §5.
func Run(prog *ast.Program, sink diag.Sink, concurrency int) *Result {
	env := symbols.NewEnvironment()
	proc := declpass.NewProcessor(env, sink)
	proc.Process(prog)

	d := worklist.NewDriver(sink, concurrency)

	var fnMu fnCollector

	h := worklist.Handlers{
		Class: func(item *declpass.ClassQueueItem) error {
			return analyzeClass(item, sink)
		},
		Global: func(item *declpass.GlobalQueueItem) error {
			return analyzeGlobal(item, sink)
		},
		FunctionDecl: func(item *declpass.FunctionQueueItem, wd *worklist.Driver) error {
			return analyzeFunctionDecl(item, env, sink, wd)
		},
		Const: func(item *declpass.ConstQueueItem) error {
			return analyzeConst(item, env, sink)
		},
		FunctionBody: func(item *worklist.FunctionBodyItem) error {
			fn, err := analyzeFunctionBody(item, sink)
			if err != nil {
				return err
			}
			if fn != nil {
				fnMu.add(fn)
			}
			return nil
		},
	}

	fatal := d.Run(proc, h)
	if !fatal {
		if fn := synthesizeQInit(proc, env, sink); fn != nil {
			fnMu.add(fn)
		}
		if fn := synthesizeQDone(proc, env); fn != nil {
			fnMu.add(fn)
		}
		if fn := synthesizeQMain(proc, env, sink); fn != nil {
			fnMu.add(fn)
		}
	}
	return &Result{Env: env, Functions: fnMu.items, Fatal: fatal}
}

// synthesizeQInit builds the qInit function of spec.md §4.3/§8 scenario 2:
// one GlobalInitStmt per declared global, in declaration order, each
// initialized from its AST initializer or (when absent) a Nothing literal.
// Returns nil if there are no globals (qInit is then absent, per spec.md
// §4.3: "any of these may be absent when empty").
func synthesizeQInit(proc *declpass.Processor, env *symbols.Environment, sink diag.Sink) *codeir.Function {
	if len(proc.Global) == 0 {
		return nil
	}
	var stmts []sema.Stmt
	for _, item := range proc.Global {
		initExpr := item.Decl.Init
		if initExpr == nil {
			initExpr = &ast.Literal{Kind: ast.LitNothing}
		}
		sc := namespaceScope(item.Namespace.Env, sink, item.Namespace)
		a := &sema.Analyzer{Sink: sink}
		init := a.AnalyzeExpr(sc, initExpr)
		stmts = append(stmts, &sema.GlobalInitStmt{Global: item.Global, Init: init})
	}
	return synthesizeFunction(env, "qInit", &sema.Compound{Stmts: stmts})
}

// synthesizeQDone builds the qDone function: one GlobalFinalizeStmt per
// ref-counted global, in reverse declaration order (spec.md §4.3). Returns
// nil when no global needs finalizing.
func synthesizeQDone(proc *declpass.Processor, env *symbols.Environment) *codeir.Function {
	var stmts []sema.Stmt
	for i := len(proc.Global) - 1; i >= 0; i-- {
		gv := proc.Global[i].Global
		if gv.Type != nil && gv.Type.IsRefCounted() {
			stmts = append(stmts, &sema.GlobalFinalizeStmt{Global: gv})
		}
	}
	if len(stmts) == 0 {
		return nil
	}
	return synthesizeFunction(env, "qDone", &sema.Compound{Stmts: stmts})
}

// synthesizeQMain builds the qMain function from a script's bare top-level
// statements (spec.md §4.3). Unlike qInit/qDone, a top-level VarDeclStatement
// can declare locals, so qMain needs a real FunctionScope frame to own them
// (scope.BlockScope.DeclareLocal ultimately delegates to one; a bare
// RootNamespaceScope panics on DeclareLocal, per its own doc comment).
// Returns nil when the script has no top-level statements.
func synthesizeQMain(proc *declpass.Processor, env *symbols.Environment, sink diag.Sink) *codeir.Function {
	if len(proc.QMainStmts) == 0 {
		return nil
	}
	fn := newSynthesizedFunction(env, "qMain")
	fnScope := &scope.FunctionScope{Function: fn, Params: map[string]*codeir.LocalVariable{}, Parent: namespaceScope(env, sink, env.Root)}
	a := &sema.Analyzer{Sink: sink, ReturnType: fn.ReturnType}
	compound := a.AnalyzeBlock(fnScope, &ast.Block{Stmts: proc.QMainStmts})
	irbuild.LowerFunction(fn, compound)
	return fn
}

// synthesizeFunction lowers body into a fresh, parameterless function
// (qInit/qDone never declare locals, so no FunctionScope is needed around
// them).
func synthesizeFunction(env *symbols.Environment, name string, body *sema.Compound) *codeir.Function {
	fn := newSynthesizedFunction(env, name)
	irbuild.LowerFunction(fn, body)
	return fn
}

// newSynthesizedFunction returns a fresh, parameterless, Nothing-returning
// Function tagged with a synthetic FunctionGroup so back ends render it by
// name (internal/backend/dump.calleeName) even though it has no entry in
// any real namespace (spec.md §4.3's synthesized functions are not callable
// script symbols).
func newSynthesizedFunction(env *symbols.Environment, name string) *codeir.Function {
	return &codeir.Function{
		Group:      &codeir.FunctionGroup{FullName: name},
		ReturnType: env.Types.LookupBuiltinType("Nothing", false),
	}
}

// fnCollector serializes concurrent appends from the function-body stage,
// which the worklist driver may run with bounded parallelism (SPEC_FULL
// §5).
type fnCollector struct {
	mu    sync.Mutex
	items []*codeir.Function
}

func (c *fnCollector) add(fn *codeir.Function) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, fn)
}

// namespaceScope builds the NamespaceScope -> ... -> RootNamespaceScope
// chain for ns, one level per ancestor, per spec.md §4.2's scope stack.
func namespaceScope(env *symbols.Environment, sink diag.Sink, ns *symbols.Namespace) scope.Scope {
	var chain []*symbols.Namespace
	for n := ns; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	var sc scope.Scope = &scope.RootNamespaceScope{Environment: env, Sink: sink}
	for i := len(chain) - 2; i >= 0; i-- {
		sc = &scope.NamespaceScope{Namespace: chain[i], Parent: sc}
	}
	return sc
}

// analyzeClass links a class to its super class by name, if one is named,
// and reports any entry of Class.Fields whose type is missing or Error. The
// declaration pass does not fill Class.Fields from the AST's field
// declarations, so declared field types are not resolved or checked here.
func analyzeClass(item *declpass.ClassQueueItem, sink diag.Sink) error {
	if item.Class.SuperName != "" {
		// Super-class resolution walks the same namespace-ascent rule as
		// scope.resolveSymbolIn; multiple inheritance is out of scope
		// (spec.md Non-goals), so a single Super pointer suffices once
		// resolved by name here.
		for cur := item.Namespace; cur != nil && item.Class.Super == nil; cur = cur.Parent {
			if c, ok := cur.Classes[item.Class.SuperName]; ok {
				item.Class.Super = c
			}
		}
		if item.Class.Super == nil {
			sink.Report(diag.SemaUnresolvedClass, item.Class.PreviousPos).Arg(item.Class.SuperName).Emit()
		}
	}
	for name, t := range item.Class.Fields {
		if t == nil || t.Kind == types.KError {
			sink.Report(diag.SemaUnresolvedClass, item.Class.PreviousPos).Arg(item.Class.Name + "." + name).Emit()
		}
	}
	return nil
}

// analyzeGlobal resolves a global variable's declared type eagerly (without
// one, it takes its initializer's type, or Any). The initializer is analyzed
// again and lowered when Run synthesizes qInit after the worklist finishes.
func analyzeGlobal(item *declpass.GlobalQueueItem, sink diag.Sink) error {
	sc := namespaceScope(item.Namespace.Env, sink, item.Namespace)
	if item.Decl.Type != nil {
		item.Global.Type = sc.ResolveType(item.Decl.Type)
	} else if item.Decl.Init != nil {
		a := &sema.Analyzer{Sink: sink}
		item.Global.Type = a.AnalyzeExpr(sc, item.Decl.Init).Type()
	} else {
		item.Global.Type = item.Namespace.Env.Types.LookupBuiltinType("Any", false)
	}
	return nil
}

// analyzeFunctionDecl resolves one overload's signature (parameter and
// return types) and, once resolved, enqueues its body for pass-1b/pass-2
// lowering on the function-body stage (spec.md §4.3).
func analyzeFunctionDecl(item *declpass.FunctionQueueItem, env *symbols.Environment, sink diag.Sink, wd *worklist.Driver) error {
	decl := item.Decl
	fn := &codeir.Function{Group: item.Group}
	fn.ReturnType = env.Types.LookupBuiltinType("Nothing", false)
	if decl.ReturnType != nil {
		fn.ReturnType = resolveSignatureType(env, item.Namespace, decl.ReturnType, sink)
	}
	for _, p := range decl.Params {
		pt := resolveSignatureType(env, item.Namespace, p.Type, sink)
		fn.ParamTypes = append(fn.ParamTypes, pt)
		fn.ParamNames = append(fn.ParamNames, p.Name)
	}
	item.Group.Overloads = append(item.Group.Overloads, fn)

	if decl.Body != nil {
		fnScope := newFunctionScope(env, sink, item.Namespace, fn)
		wd.EnqueueFunctionBody(&worklist.FunctionBodyItem{Function: fn, Body: decl.Body, Scope: fnScope})
	}
	return nil
}

// analyzeConst analyzes one constant's initializer for its diagnostics and
// marks the item resolved; the analyzed value is not stored. The Resolving
// marker reports SemaConstantInitCycle only if analyzeConst re-enters an
// item still being resolved. Constants are not resolvable as identifiers,
// so a constant that refers to itself or to another constant is reported
// as an unresolved name, not as a cycle.
func analyzeConst(item *declpass.ConstQueueItem, env *symbols.Environment, sink diag.Sink) error {
	if item.Resolving() {
		sink.Report(diag.SemaConstantInitCycle, item.Decl.Pos).Arg(item.Decl.Name).Emit()
		return nil
	}
	item.SetResolving(true)
	defer item.SetResolving(false)

	sc := namespaceScope(item.Namespace.Env, sink, item.Namespace)
	a := &sema.Analyzer{Sink: sink}
	_ = a.AnalyzeExpr(sc, item.Decl.Init)
	item.SetResolved(true)
	return nil
}

// analyzeFunctionBody runs pass 1b (expression/statement semantic
// analysis) then pass 2 (IR building) over one function's body, the
// SPEC_FULL §4.3 union of declpass's queue machinery with sema/irbuild.
func analyzeFunctionBody(item *worklist.FunctionBodyItem, sink diag.Sink) (*codeir.Function, error) {
	a := &sema.Analyzer{Sink: sink, ReturnType: item.Function.ReturnType}
	compound := a.AnalyzeBlock(item.Scope, item.Body)
	irbuild.LowerFunction(item.Function, compound)
	return item.Function, nil
}

// resolveSignatureType resolves a parameter or return TypeRef against ns,
// reporting SemaUnresolvedClass on failure (spec.md §4.2).
func resolveSignatureType(env *symbols.Environment, ns *symbols.Namespace, ref *ast.TypeRef, sink diag.Sink) *types.Type {
	sc := namespaceScope(env, sink, ns)
	return sc.ResolveType(ref)
}

// newFunctionScope builds the scope chain a function body's top-level
// block sees: FunctionScope (params) nested in the declaring namespace's
// NamespaceScope chain (spec.md §4.2 scope stack: BlockScope ->
// FunctionScope -> NamespaceScope -> RootNamespaceScope).
func newFunctionScope(env *symbols.Environment, sink diag.Sink, ns *symbols.Namespace, fn *codeir.Function) scope.Scope {
	parent := namespaceScope(env, sink, ns)
	fs := &scope.FunctionScope{Function: fn, Params: map[string]*codeir.LocalVariable{}, Parent: parent}
	for i, name := range fn.ParamNames {
		if name == "" {
			continue
		}
		fs.Params[name] = &codeir.LocalVariable{Name: name, Type: fn.ParamTypes[i], Index: i}
	}
	return fs
}
