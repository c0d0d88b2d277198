// Package irbuild implements the IR builder (pass 2) of spec.md §4.5: it
// walks semantic IR and produces code IR, holding the function under
// construction, the current block, the free-temp pool, the cleanup stack,
// and the landing-pad cache.
//
// Grounded on the teacher's internal/bytecode/compiler_statements.go
// compileTryStatement (placeholder-emit-then-backpatch, generalized from
// flat jump offsets to block references) and
// internal/interp/runtime/refcount.go RefCountManager.DecrementRef
// (destructor-callback-on-zero, errors ignored), the direct grounding for
// RefDecNoexcept.
package irbuild

import (
	"fmt"
	"strings"

	"github.com/dynscript/corec/internal/codeir"
)

// CleanupKind tags one entry of the cleanup stack (spec.md §4.5.2).
type CleanupKind int

const (
	CleanupRefCountedTemp CleanupKind = iota
	CleanupLocal
	CleanupGlobalReadLock
	CleanupGlobalWriteLock
	CleanupTryStatement
)

// CleanupEntry is one live, unwind-sensitive resource (spec.md §4.5.2).
type CleanupEntry struct {
	Kind       CleanupKind
	Temp       codeir.Temp
	Local      *codeir.LocalVariable
	Global     *codeir.GlobalVariable
	CatchBlock *codeir.Block
}

// Builder is the mutable pass-2 state threaded explicitly through
// lowering, per spec.md §9's "model as an explicit state struct passed by
// mutable reference" design note.
type Builder struct {
	Func    *codeir.Function
	Cur     *codeir.Block
	Cleanup []CleanupEntry

	padCache map[string]*codeir.Block
}

// NewBuilder returns a builder positioned at fn's entry block.
func NewBuilder(fn *codeir.Function) *Builder {
	entry := fn.NewBlock()
	return &Builder{Func: fn, Cur: entry, padCache: map[string]*codeir.Block{}}
}

// PushRefCountedTemp records a reference-counted temp as live, immediately
// after the instruction producing it (spec.md §4.5.2).
func (b *Builder) PushRefCountedTemp(t codeir.Temp) {
	b.Cleanup = append(b.Cleanup, CleanupEntry{Kind: CleanupRefCountedTemp, Temp: t})
}

// PushLocal records a reference-counted local's lifetime start (spec.md
// §4.5.2/§4.5.4).
func (b *Builder) PushLocal(lv *codeir.LocalVariable) {
	b.Cleanup = append(b.Cleanup, CleanupEntry{Kind: CleanupLocal, Local: lv})
}

// PushGlobalReadLock records a held read lock (spec.md §4.5.2).
func (b *Builder) PushGlobalReadLock(gv *codeir.GlobalVariable) {
	b.Cleanup = append(b.Cleanup, CleanupEntry{Kind: CleanupGlobalReadLock, Global: gv})
}

// PushGlobalWriteLock records a held write lock (spec.md §4.5.2).
func (b *Builder) PushGlobalWriteLock(gv *codeir.GlobalVariable) {
	b.Cleanup = append(b.Cleanup, CleanupEntry{Kind: CleanupGlobalWriteLock, Global: gv})
}

// PushTry records entry into a try statement's protected region; unwind
// reaching this entry transfers control to catchBlock after all
// more-recent entries release (spec.md §4.5.2).
func (b *Builder) PushTry(catchBlock *codeir.Block) {
	b.Cleanup = append(b.Cleanup, CleanupEntry{Kind: CleanupTryStatement, CatchBlock: catchBlock})
}

// Pop removes the most recently pushed cleanup entry. The cleanup stack is
// strictly LIFO in every lowering rule spec.md §4.5.3 describes.
func (b *Builder) Pop() {
	b.Cleanup = b.Cleanup[:len(b.Cleanup)-1]
}

// consumeTemp releases t back to the free-temp pool and, if the top of the
// cleanup stack is the matching RefCountedTemp entry pushed when t was
// produced, pops it: the value has now been handed to whatever consumed
// it (stored into a local, passed as an operand, etc.) and is no longer
// this builder's responsibility to unwind (spec.md §4.5.4: "a temp's
// cleanup-stack entry lives exactly as long as the temp itself").
func (b *Builder) consumeTemp(t codeir.Temp) {
	if n := len(b.Cleanup); n > 0 {
		top := b.Cleanup[n-1]
		if top.Kind == CleanupRefCountedTemp && top.Temp == t {
			b.Pop()
		}
	}
	b.Func.SetTempFree(t)
}

// Lpad requests a landing pad for the current cleanup-stack state if
// canThrow, implementing the cache-or-synthesize algorithm of spec.md
// §4.5.2. Returns nil if the instruction cannot throw.
func (b *Builder) Lpad(canThrow bool) *codeir.Block {
	if !canThrow {
		return nil
	}
	key := b.cleanupKey()
	if pad, ok := b.padCache[key]; ok {
		return pad
	}
	pad := b.Func.NewBlock()
	b.synthesizeLandingPad(pad)
	b.padCache[key] = pad
	return pad
}

// cleanupKey renders the current cleanup stack into a string uniquely
// identifying its sequence of entry kinds and identities, so that
// identical unwind sequences share one cached landing pad (spec.md
// §4.5.2's "keyed by cleanup-stack prefixes").
func (b *Builder) cleanupKey() string {
	var sb strings.Builder
	for _, e := range b.Cleanup {
		switch e.Kind {
		case CleanupRefCountedTemp:
			fmt.Fprintf(&sb, "t%d|", e.Temp)
		case CleanupLocal:
			fmt.Fprintf(&sb, "l%p|", e.Local)
		case CleanupGlobalReadLock:
			fmt.Fprintf(&sb, "r%p|", e.Global)
		case CleanupGlobalWriteLock:
			fmt.Fprintf(&sb, "w%p|", e.Global)
		case CleanupTryStatement:
			fmt.Fprintf(&sb, "c%p|", e.CatchBlock)
		}
	}
	return sb.String()
}

// synthesizeLandingPad emits, into pad, the reverse-order unwind sequence
// of spec.md §4.5.2: RefDecNoexcept for temps, LocalGet+RefDecNoexcept for
// locals, unlock for held locks, a Jump to the nearest enclosing catch
// block (stopping synthesis there), or ResumeUnwind if no TryStatement
// entry exists on the stack.
func (b *Builder) synthesizeLandingPad(pad *codeir.Block) {
	for i := len(b.Cleanup) - 1; i >= 0; i-- {
		e := b.Cleanup[i]
		switch e.Kind {
		case CleanupRefCountedTemp:
			pad.RefDecNoexcept(e.Temp)
		case CleanupLocal:
			t := b.Func.GetFreeTemp()
			pad.LocalGet(t, e.Local)
			pad.RefDecNoexcept(t)
			b.Func.SetTempFree(t)
		case CleanupGlobalReadLock:
			pad.GlobalReadUnlock(e.Global)
		case CleanupGlobalWriteLock:
			pad.GlobalWriteUnlock(e.Global)
		case CleanupTryStatement:
			pad.Jump(e.CatchBlock)
			return
		}
	}
	pad.ResumeUnwind()
}
