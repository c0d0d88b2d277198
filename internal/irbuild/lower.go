package irbuild

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/sema"
)

// LowerFunction builds fn's blocks from body, implementing the full
// §4.5.3 lowering table. The function's entry block is returned so callers
// (the worklist's function-body handler) can attach it where needed; fn
// already holds the resulting blocks via fn.Blocks.
func LowerFunction(fn *codeir.Function, body *sema.Compound) *codeir.Block {
	b := NewBuilder(fn)
	entry := b.Cur
	b.lowerCompound(body)
	if !b.Cur.IsTerminated() {
		// Falling off the end of a function body is a RetVoid per spec.md
		// §4.5.3's CompoundStatement rule: "a block left unterminated after
		// lowering its last statement is implicitly closed with RetVoid."
		b.Cur.RetVoid()
	}
	return entry
}

// lowerCompound lowers each statement in order (spec.md §4.5.3
// CompoundStatement rule), stopping early if a statement terminates the
// current block (e.g. Return). Locals declared directly in c go out of
// scope at the end of the compound (spec.md §4.5.4); if control reaches
// the end normally (no terminator already emitted), their cleanup-stack
// entries are unwound here rather than left for the function's return
// path to discover.
func (b *Builder) lowerCompound(c *sema.Compound) {
	depth := len(b.Cleanup)
	for _, s := range c.Stmts {
		if b.Cur.IsTerminated() {
			return
		}
		b.lowerStmt(s)
	}
	if !b.Cur.IsTerminated() {
		b.unwindTo(depth)
	}
}

// unwindTo pops and releases every cleanup entry above depth, in reverse
// order, emitting the release instructions into the current block.
func (b *Builder) unwindTo(depth int) {
	for len(b.Cleanup) > depth {
		e := b.Cleanup[len(b.Cleanup)-1]
		switch e.Kind {
		case CleanupRefCountedTemp:
			b.Cur.RefDec(e.Temp, b.Lpad(true))
		case CleanupLocal:
			t := b.Func.GetFreeTemp()
			b.Cur.LocalGet(t, e.Local)
			b.Cur.RefDec(t, b.Lpad(true))
			b.Func.SetTempFree(t)
		case CleanupGlobalReadLock:
			b.Cur.GlobalReadUnlock(e.Global)
		case CleanupGlobalWriteLock:
			b.Cur.GlobalWriteUnlock(e.Global)
		case CleanupTryStatement:
			// A TryStatement entry is popped by lowerTry itself once its
			// protected region finishes; it should never still be above
			// depth here.
		}
		b.Pop()
	}
}

func (b *Builder) lowerStmt(s sema.Stmt) {
	switch n := s.(type) {
	case *sema.ExprStmt:
		t := b.lowerExpr(n.Expr)
		b.releaseTemp(n.Expr, t)

	case *sema.VarDeclStmt:
		b.lowerVarDecl(n)

	case *sema.AssignStmt:
		b.lowerAssign(n)

	case *sema.IfStmt:
		b.lowerIf(n)

	case *sema.TryStmt:
		b.lowerTry(n)

	case *sema.ReturnStmt:
		b.lowerReturn(n)

	case *sema.Compound:
		b.lowerCompound(n)

	case *sema.GlobalInitStmt:
		b.lowerGlobalInit(n)

	case *sema.GlobalFinalizeStmt:
		b.lowerGlobalFinalize(n)
	}
}

// lowerGlobalInit implements the qInit body rule of spec.md §8 scenario 2:
// evaluate the initializer (or a ConstNothing default) and commit it with
// the one-shot GlobalInit instruction rather than GlobalSet, since no
// previous value exists to release and no lock is held yet (qInit runs
// before any script code can observe the global).
func (b *Builder) lowerGlobalInit(n *sema.GlobalInitStmt) {
	t := b.lowerExpr(n.Init)
	b.Cur.GlobalInit(n.Global, t)
	b.consumeTemp(t)
}

// lowerGlobalFinalize implements the qDone body rule: a ref-counted
// global's value is released at program shutdown. Non-ref-counted globals
// never produce a GlobalFinalizeStmt (see internal/driver), so this always
// emits.
func (b *Builder) lowerGlobalFinalize(n *sema.GlobalFinalizeStmt) {
	t := b.Func.GetFreeTemp()
	b.Cur.GlobalGet(t, n.Global)
	b.Cur.RefDecNoexcept(t)
	b.consumeTemp(t)
}

// lowerVarDecl implements spec.md §4.5.4: a local's reference-counted
// lifetime begins once its initializer (or a ConstNothing default) has
// been stored, and it is pushed onto the cleanup stack at that point.
func (b *Builder) lowerVarDecl(n *sema.VarDeclStmt) {
	var t codeir.Temp
	if n.Init != nil {
		t = b.lowerExpr(n.Init)
	} else {
		t = b.Func.GetFreeTemp()
		b.Cur.ConstNothing(t)
	}
	b.Cur.LocalSet(n.Local, t)
	b.consumeTemp(t)
	if n.Local.Type.IsRefCounted() {
		b.PushLocal(n.Local)
	}
}

// lowerAssign implements the Assignment lowering rule (spec.md §4.5.3): the
// previous value held by the target is loaded and released only after the
// new value has taken its place, so a self-referencing RHS (x = x) never
// sees its sole reference dropped before the store. For a global target,
// the write lock is acquired before the RHS is evaluated, so a throwing RHS
// unwinds through it (the lock's cleanup entry is already on the stack when
// any landing pad for the RHS is synthesized).
func (b *Builder) lowerAssign(n *sema.AssignStmt) {
	if n.TargetLocal != nil {
		refCounted := n.TargetLocal.Type.IsRefCounted()
		t := b.lowerExpr(n.Value)
		var old codeir.Temp
		if refCounted {
			old = b.Func.GetFreeTemp()
			b.Cur.LocalGet(old, n.TargetLocal)
			b.Cur.RefInc(t)
		}
		b.Cur.LocalSet(n.TargetLocal, t)
		b.consumeTemp(t)
		if refCounted {
			b.Cur.RefDec(old, b.Lpad(true))
			b.Func.SetTempFree(old)
		}
		return
	}
	if n.TargetGlobal != nil {
		b.Cur.GlobalWriteLock(n.TargetGlobal)
		b.PushGlobalWriteLock(n.TargetGlobal)

		refCounted := n.TargetGlobal.Type.IsRefCounted()
		t := b.lowerExpr(n.Value)
		if refCounted {
			b.Cur.RefInc(t)
		}
		var old codeir.Temp
		if refCounted {
			old = b.Func.GetFreeTemp()
			b.Cur.GlobalGet(old, n.TargetGlobal)
		}
		b.Cur.GlobalSet(n.TargetGlobal, t)
		b.consumeTemp(t)

		b.Cur.GlobalWriteUnlock(n.TargetGlobal)
		b.Pop()
		if refCounted {
			b.Cur.RefDec(old, b.Lpad(true))
			b.Func.SetTempFree(old)
		}
	}
}

// lowerIf implements the If lowering rule: evaluate Cond, Branch to fresh
// Then/Else blocks, and join into a fresh continuation block (allocated even
// when both arms terminate; an arm that terminates does not jump to it).
// Then and Else are alternatives, never both taken,
// so the cleanup stack is reset to its pre-branch depth before each: a
// cleanup entry pushed while lowering Then (e.g. by a statement that
// terminates the block early with a Return, which drains the stack itself)
// must never survive into Else or into code lowered after the If (spec.md
// §4.5.3's "no cleanup entries cross block boundaries").
func (b *Builder) lowerIf(n *sema.IfStmt) {
	cond := b.lowerExpr(n.Cond)
	b.consumeTemp(cond)
	thenBlock := b.Func.NewBlock()
	elseBlock := b.Func.NewBlock()
	b.Cur.Branch(cond, thenBlock, elseBlock)

	join := b.Func.NewBlock()
	depth := len(b.Cleanup)

	b.Cur = thenBlock
	b.lowerCompound(n.Then)
	if !b.Cur.IsTerminated() {
		b.Cur.Jump(join)
	}
	b.Cleanup = b.Cleanup[:depth]

	b.Cur = elseBlock
	if n.Else != nil {
		b.lowerCompound(n.Else)
	}
	if !b.Cur.IsTerminated() {
		b.Cur.Jump(join)
	}
	b.Cleanup = b.Cleanup[:depth]

	b.Cur = join
}

// lowerTry implements the Try lowering rule (spec.md §4.5.2/§4.5.3): the
// catch block is created first so the cleanup-stack TryStatement entry's
// CatchBlock reference is available while lowering the protected region,
// then the protected region is lowered under that entry. The cleanup stack
// is reset to its pre-try depth (discarding the TryStatement entry, and
// anything left over if the protected region terminated early) before
// lowering the catch body, which runs with none of the try body's cleanup
// entries live (spec.md §4.5.3's "no cleanup entries cross block
// boundaries").
func (b *Builder) lowerTry(n *sema.TryStmt) {
	catchBlock := b.Func.NewBlock()
	join := b.Func.NewBlock()

	depth := len(b.Cleanup)
	b.PushTry(catchBlock)
	b.lowerCompound(n.TryBody)
	if !b.Cur.IsTerminated() {
		b.Cur.Jump(join)
	}
	b.Cleanup = b.Cleanup[:depth]

	b.Cur = catchBlock
	if n.CatchLocal != nil {
		// The exception value arrives in the catch block as an implicit
		// Any-typed temp; modeled as ConstNothing until a dedicated
		// "current exception" instruction is warranted (spec.md leaves the
		// catch-binding mechanism to the back end, per §4.4 scenario 4).
		t := b.Func.GetFreeTemp()
		b.Cur.ConstNothing(t)
		b.Cur.LocalSet(n.CatchLocal, t)
		b.consumeTemp(t)
	}
	b.lowerCompound(n.CatchBody)
	if !b.Cur.IsTerminated() {
		b.Cur.Jump(join)
	}
	b.Cleanup = b.Cleanup[:depth]

	b.Cur = join
}

// lowerReturn implements the Return lowering rule: every cleanup entry
// live at the return point unwinds in reverse order before the terminator,
// mirroring landing-pad synthesis but without transferring to a catch
// block (a return cannot be caught). The cleanup entry for the returned
// value itself, if any, is retained rather than unwound: it is about to be
// handed to the caller via Ret, not released here.
func (b *Builder) lowerReturn(n *sema.ReturnStmt) {
	if n.Expr == nil {
		b.unwindAllForReturn(0, false)
		b.Cur.RetVoid()
		return
	}
	t := b.lowerExpr(n.Expr)
	refCounted := n.Expr.Type().IsRefCounted()
	if refCounted {
		b.Cur.RefInc(t)
	}
	b.unwindAllForReturn(t, refCounted)
	b.Cur.Ret(t)
	b.Func.SetTempFree(t)
}

// unwindAllForReturn releases every live cleanup entry without consulting
// TryStatement entries (a normal return bypasses enclosing catch blocks;
// only exceptions transfer control to them), and truncates b.Cleanup to
// empty as it goes so no entry survives into code lowered afterwards
// against the same Builder. When hasResult is true, the single
// RefCountedTemp entry for result (the value about to be returned) is
// popped without emitting a release: spec.md §4.5.3 requires retaining
// its cleanup, not unwinding it, since ownership transfers to the caller.
func (b *Builder) unwindAllForReturn(result codeir.Temp, hasResult bool) {
	for len(b.Cleanup) > 0 {
		e := b.Cleanup[len(b.Cleanup)-1]
		if hasResult && e.Kind == CleanupRefCountedTemp && e.Temp == result {
			b.Pop()
			continue
		}
		switch e.Kind {
		case CleanupRefCountedTemp:
			b.Cur.RefDecNoexcept(e.Temp)
		case CleanupLocal:
			t := b.Func.GetFreeTemp()
			b.Cur.LocalGet(t, e.Local)
			b.Cur.RefDecNoexcept(t)
			b.Func.SetTempFree(t)
		case CleanupGlobalReadLock:
			b.Cur.GlobalReadUnlock(e.Global)
		case CleanupGlobalWriteLock:
			b.Cur.GlobalWriteUnlock(e.Global)
		case CleanupTryStatement:
			// no-op: a return does not transfer to the catch block
		}
		b.Pop()
	}
}

// releaseTemp drops a reference-counted expression-statement result that
// nothing consumes, per spec.md §4.5.4's "a ref-counted temp not bound to
// a local or consumed by another instruction is released at the end of
// its producing statement."
func (b *Builder) releaseTemp(e sema.Expr, t codeir.Temp) {
	if e.Type().IsRefCounted() {
		b.Cur.RefDec(t, b.Lpad(true))
	}
	b.consumeTemp(t)
}

// lowerExpr implements the expression half of §4.5.3, returning the temp
// holding e's value.
func (b *Builder) lowerExpr(e sema.Expr) codeir.Temp {
	switch n := e.(type) {
	case *sema.Literal:
		return b.lowerLiteral(n)

	case *sema.Ident:
		return b.lowerIdent(n)

	case *sema.Unary:
		return b.lowerExpr(n.Operand)

	case *sema.Binary:
		return b.lowerBinary(n)

	case *sema.Convert:
		return b.lowerConvert(n)

	case *sema.If:
		return b.lowerIfExpr(n)

	case *sema.Call:
		return b.lowerCall(n)

	default:
		t := b.Func.GetFreeTemp()
		b.Cur.ConstNothing(t)
		return t
	}
}

func (b *Builder) lowerLiteral(n *sema.Literal) codeir.Temp {
	t := b.Func.GetFreeTemp()
	switch {
	case n.IsNothing:
		b.Cur.ConstNothing(t)
	case n.Str != nil:
		b.Cur.ConstString(t, n.Str)
	case n.Type().DisplayName() == "Float":
		b.Cur.ConstFloat(t, n.Flt)
	case n.Type().DisplayName() == "Bool":
		// No dedicated ConstBool instruction in the closed set (spec.md
		// §4.6); Bool is represented as Int 0/1, matching the teacher's
		// bytecode.OpPushBool-as-OpPushInt convention for flag-shaped
		// values.
		v := int64(0)
		if n.Bool {
			v = 1
		}
		b.Cur.ConstInt(t, v)
	default:
		b.Cur.ConstInt(t, n.Int)
	}
	if n.Type().IsRefCounted() {
		b.PushRefCountedTemp(t)
	}
	return t
}

func (b *Builder) lowerIdent(n *sema.Ident) codeir.Temp {
	t := b.Func.GetFreeTemp()
	switch {
	case n.Local != nil:
		b.Cur.LocalGet(t, n.Local)
	case n.Global != nil:
		b.PushGlobalReadLock(n.Global)
		b.Cur.GlobalReadLock(n.Global)
		b.Cur.GlobalGet(t, n.Global)
		b.Cur.GlobalReadUnlock(n.Global)
		b.Pop()
	default:
		b.Cur.ConstNothing(t)
	}
	if n.Type().IsRefCounted() {
		b.Cur.RefInc(t)
		b.PushRefCountedTemp(t)
	}
	return t
}

func (b *Builder) lowerBinary(n *sema.Binary) codeir.Temp {
	l := b.lowerExpr(n.Left)
	r := b.lowerExpr(n.Right)
	dest := b.Func.GetFreeTemp()
	lpad := b.Lpad(n.Entry.CanThrow)
	b.Cur.InvokeBinaryOperator(dest, n.Entry, l, r, lpad)
	b.consumeTemp(r)
	b.consumeTemp(l)
	if n.Type().IsRefCounted() {
		b.PushRefCountedTemp(dest)
	}
	return dest
}

func (b *Builder) lowerConvert(n *sema.Convert) codeir.Temp {
	src := b.lowerExpr(n.Arg)
	dest := b.Func.GetFreeTemp()
	lpad := b.Lpad(n.Conv.CanThrow)
	b.Cur.InvokeConversion(dest, n.Conv, src, lpad)
	b.consumeTemp(src)
	if n.Type().IsRefCounted() {
		b.PushRefCountedTemp(dest)
	}
	return dest
}

// lowerIfExpr lowers the expression-level If node used for &&/||/?:. The
// closed instruction set (spec.md §4.6) has no temp-to-temp move, so the
// two arms' values are joined through a synthetic local, the same
// technique the teacher's compiler_expressions.go uses for its ternary
// operator (compileTernary: "stack slot holds whichever arm ran").
func (b *Builder) lowerIfExpr(n *sema.If) codeir.Temp {
	cond := b.lowerExpr(n.Cond)
	b.consumeTemp(cond)
	thenBlock := b.Func.NewBlock()
	elseBlock := b.Func.NewBlock()
	b.Cur.Branch(cond, thenBlock, elseBlock)

	join := b.Func.NewBlock()
	joinLocal := b.Func.DeclareLocal("", n.Type(), n.Pos())

	b.Cur = thenBlock
	tv := b.lowerExpr(n.Then)
	b.Cur.LocalSet(joinLocal, tv)
	b.consumeTemp(tv)
	b.Cur.Jump(join)

	b.Cur = elseBlock
	ev := b.lowerExpr(n.Else)
	b.Cur.LocalSet(joinLocal, ev)
	b.consumeTemp(ev)
	b.Cur.Jump(join)

	b.Cur = join
	dest := b.Func.GetFreeTemp()
	b.Cur.LocalGet(dest, joinLocal)
	if n.Type().IsRefCounted() {
		b.PushRefCountedTemp(dest)
	}
	return dest
}

// lowerCall implements the SPEC_FULL §4.5.3 FunctionCall supplement:
// arguments are lowered left to right into fresh temps, the call is
// emitted with a landing pad (every call can throw per spec.md §4.6), and
// argument temps are released immediately after, since InvokeFunction
// consumes them (no further reuse within the call).
func (b *Builder) lowerCall(n *sema.Call) codeir.Temp {
	args := make([]codeir.Temp, len(n.Args))
	for i, a := range n.Args {
		args[i] = b.lowerExpr(a)
	}
	dest := b.Func.GetFreeTemp()
	lpad := b.Lpad(true)
	b.Cur.InvokeFunction(dest, n.Callee, args, lpad)
	for i := len(args) - 1; i >= 0; i-- {
		b.consumeTemp(args[i])
	}
	if n.Type().IsRefCounted() {
		b.PushRefCountedTemp(dest)
	}
	return dest
}
