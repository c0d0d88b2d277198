// Package codeir implements the code IR entities of spec.md §3.4/§4.6:
// basic blocks, the closed instruction set, and the IR-level identity
// objects (Function, LocalVariable, GlobalVariable, StringLiteral,
// FunctionGroup) that instructions reference as operands.
//
// These identity objects live here rather than in internal/symbols because
// every one of them is, in practice, an IR operand: GlobalVariable is only
// ever touched through GlobalGet/GlobalSet/GlobalLock instructions,
// LocalVariable only through LocalGet/LocalSet, and a Function only through
// InvokeFunction and its own Blocks. internal/symbols owns the namespace
// tree that indexes them by name but does not need to know their shape,
// which keeps internal/symbols -> internal/codeir a one-way dependency
// (see internal/symbols for the Namespace/Class/Environment side).
package codeir

import (
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/pkg/source"
)

// StringLiteral is an interned string constant, kept alive for the
// lifetime of the program (spec.md §3.3).
type StringLiteral struct {
	Value string
	id    int
}

// ID returns the dense interning index assigned to this literal.
func (s *StringLiteral) ID() int { return s.id }

// NewStringLiteral is called only by symbols.Environment.InternString,
// which owns uniqueness by content.
func NewStringLiteral(value string, id int) *StringLiteral {
	return &StringLiteral{Value: value, id: id}
}

// GlobalVariable is a namespace-scoped "our" variable (spec.md §3.3). Reads
// and writes are compiled with explicit reader-writer lock instructions.
type GlobalVariable struct {
	Name     string
	Type     *types.Type
	HasValue bool
	Pos      source.Position
}

// LocalVariable is one local within a Function's frame (spec.md §3.3):
// name, type, source location, and a zero-based contiguous index (I2).
type LocalVariable struct {
	Name  string
	Type  *types.Type
	Pos   source.Position
	Index int
}

// FunctionGroup is the set of overloads sharing a name within a namespace
// (spec.md §3.3; "overload pack" in the Glossary).
type FunctionGroup struct {
	FullName  string
	Overloads []*Function
}

// Function is one overload: its signature, an ordered list of locals, a
// temp pool, and its block list with Blocks[0] as the entry (spec.md §3.3).
type Function struct {
	Group      *FunctionGroup
	ParamTypes []*types.Type
	ParamNames []string
	ReturnType *types.Type
	Locals     []*LocalVariable
	Blocks     []*Block // Blocks[0] is the entry; no predecessors (I4)
	nextTemp   int
	freeTemps  []int
}

// DeclareLocal appends a new local, assigning it the next contiguous index
// (I2), and returns it.
func (f *Function) DeclareLocal(name string, typ *types.Type, pos source.Position) *LocalVariable {
	lv := &LocalVariable{Name: name, Type: typ, Pos: pos, Index: len(f.Locals)}
	f.Locals = append(f.Locals, lv)
	return lv
}

// GetFreeTemp returns a pooled temp index if one is free, otherwise a fresh
// one from the monotonic counter (spec.md §4.5.1).
func (f *Function) GetFreeTemp() Temp {
	if n := len(f.freeTemps); n > 0 {
		t := f.freeTemps[n-1]
		f.freeTemps = f.freeTemps[:n-1]
		return Temp(t)
	}
	t := f.nextTemp
	f.nextTemp++
	return Temp(t)
}

// SetTempFree returns t to the free-temp pool.
func (f *Function) SetTempFree(t Temp) {
	f.freeTemps = append(f.freeTemps, int(t))
}

// TempCount returns the number of distinct temps ever allocated.
func (f *Function) TempCount() int { return f.nextTemp }

// NewBlock appends and returns a fresh, empty block owned by f.
func (f *Function) NewBlock() *Block {
	b := &Block{Func: f, Index: len(f.Blocks)}
	f.Blocks = append(f.Blocks, b)
	return b
}
