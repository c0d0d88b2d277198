package codeir

import "github.com/dynscript/corec/internal/types"

// Temp is a dense, non-negative, per-function index (spec.md §3.4). Each
// temp is write-once per dynamic control-flow arc.
type Temp int

// Op tags the closed instruction set of spec.md §4.6.
type Op int

const (
	OpConstInt Op = iota
	OpConstFloat // SPEC_FULL §3.1 supplement: payload for the restored Float type
	OpConstString
	OpConstNothing
	OpLocalGet
	OpLocalSet
	OpGlobalGet
	OpGlobalSet
	OpGlobalReadLock
	OpGlobalReadUnlock
	OpGlobalWriteLock
	OpGlobalWriteUnlock
	OpGlobalInit
	OpRefInc
	OpRefDec
	OpRefDecNoexcept
	OpInvokeBinaryOperator
	OpInvokeConversion
	OpInvokeFunction
	OpJump
	OpBranch
	OpRet
	OpRetVoid
	OpResumeUnwind
)

var opNames = [...]string{
	OpConstInt: "ConstInt", OpConstFloat: "ConstFloat", OpConstString: "ConstString", OpConstNothing: "ConstNothing",
	OpLocalGet: "LocalGet", OpLocalSet: "LocalSet",
	OpGlobalGet: "GlobalGet", OpGlobalSet: "GlobalSet",
	OpGlobalReadLock: "GlobalReadLock", OpGlobalReadUnlock: "GlobalReadUnlock",
	OpGlobalWriteLock: "GlobalWriteLock", OpGlobalWriteUnlock: "GlobalWriteUnlock",
	OpGlobalInit: "GlobalInit",
	OpRefInc:     "RefInc", OpRefDec: "RefDec", OpRefDecNoexcept: "RefDecNoexcept",
	OpInvokeBinaryOperator: "InvokeBinaryOperator", OpInvokeConversion: "InvokeConversion",
	OpInvokeFunction: "InvokeFunction",
	OpJump:           "Jump", OpBranch: "Branch", OpRet: "Ret", OpRetVoid: "RetVoid",
	OpResumeUnwind: "ResumeUnwind",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// IsTerminator reports whether o may only appear as a block's last
// instruction (I3).
func (o Op) IsTerminator() bool {
	switch o {
	case OpJump, OpBranch, OpRet, OpRetVoid, OpResumeUnwind:
		return true
	default:
		return false
	}
}

// Instruction is one operation within a Block. Only the fields relevant to
// Op are populated; this mirrors a tagged union (spec.md §9 design note:
// "model as tagged sum types"), realized in Go as one struct with a Op tag
// and unused-for-this-variant zero fields, which is the shape
// hhramberg-go-vslc's lir.Value implementations and the teacher's
// bytecode.Instruction byte-coded variants both converge on.
type Instruction struct {
	Op Op

	Dest Temp
	Src  Temp
	L, R Temp // operator/conversion operands

	Int    int64
	Flt    float64
	Str    *StringLiteral
	Local  *LocalVariable
	Global *GlobalVariable

	BinOp      *types.BinaryOpEntry
	Conversion *types.Conversion
	Callee     *Function
	Args       []Temp

	Cond        Temp
	TrueDest    *Block
	FalseDest   *Block
	Dest_       *Block // Jump target; named Dest_ to avoid clashing with Dest Temp

	// Lpad is the landing pad for this instruction; nil iff the instruction
	// cannot throw (spec.md I5/§4.6).
	Lpad *Block
}

// CanThrow reports whether this instruction variant may raise an
// exception, consulting the operator/conversion metadata where relevant.
func (in *Instruction) CanThrow() bool {
	switch in.Op {
	case OpRefDec:
		return true
	case OpInvokeBinaryOperator:
		return in.BinOp != nil && in.BinOp.CanThrow
	case OpInvokeConversion:
		return in.Conversion != nil && in.Conversion.CanThrow
	case OpInvokeFunction:
		return true
	default:
		return false
	}
}

// Block is an ordered sequence of Instructions ending in exactly one
// terminator (I3), grounded on hhramberg-go-vslc's lir.Block builder-method
// shape, adapted to this spec's closed instruction set.
type Block struct {
	Func         *Function
	Index        int
	Instructions []*Instruction
}

func (b *Block) append(in *Instruction) *Instruction {
	b.Instructions = append(b.Instructions, in)
	return in
}

// Terminator returns the block's terminating instruction, or nil if the
// block is not yet terminated.
func (b *Block) Terminator() *Instruction {
	if n := len(b.Instructions); n > 0 && b.Instructions[n-1].Op.IsTerminator() {
		return b.Instructions[n-1]
	}
	return nil
}

// IsTerminated reports whether the block already ends with a terminator.
func (b *Block) IsTerminated() bool {
	return b.Terminator() != nil
}

// --- builder methods, one per instruction variant (spec.md §4.6) ---

func (b *Block) ConstInt(dest Temp, v int64) {
	b.append(&Instruction{Op: OpConstInt, Dest: dest, Int: v})
}

func (b *Block) ConstFloat(dest Temp, v float64) {
	b.append(&Instruction{Op: OpConstFloat, Dest: dest, Flt: v})
}

func (b *Block) ConstString(dest Temp, s *StringLiteral) {
	b.append(&Instruction{Op: OpConstString, Dest: dest, Str: s})
}

func (b *Block) ConstNothing(dest Temp) {
	b.append(&Instruction{Op: OpConstNothing, Dest: dest})
}

func (b *Block) LocalGet(dest Temp, lv *LocalVariable) {
	b.append(&Instruction{Op: OpLocalGet, Dest: dest, Local: lv})
}

func (b *Block) LocalSet(lv *LocalVariable, src Temp) {
	b.append(&Instruction{Op: OpLocalSet, Local: lv, Src: src})
}

func (b *Block) GlobalGet(dest Temp, gv *GlobalVariable) {
	b.append(&Instruction{Op: OpGlobalGet, Dest: dest, Global: gv})
}

func (b *Block) GlobalSet(gv *GlobalVariable, src Temp) {
	b.append(&Instruction{Op: OpGlobalSet, Global: gv, Src: src})
}

func (b *Block) GlobalReadLock(gv *GlobalVariable)    { b.append(&Instruction{Op: OpGlobalReadLock, Global: gv}) }
func (b *Block) GlobalReadUnlock(gv *GlobalVariable)  { b.append(&Instruction{Op: OpGlobalReadUnlock, Global: gv}) }
func (b *Block) GlobalWriteLock(gv *GlobalVariable)   { b.append(&Instruction{Op: OpGlobalWriteLock, Global: gv}) }
func (b *Block) GlobalWriteUnlock(gv *GlobalVariable) { b.append(&Instruction{Op: OpGlobalWriteUnlock, Global: gv}) }

func (b *Block) GlobalInit(gv *GlobalVariable, src Temp) {
	gv.HasValue = true
	b.append(&Instruction{Op: OpGlobalInit, Global: gv, Src: src})
}

func (b *Block) RefInc(t Temp) {
	b.append(&Instruction{Op: OpRefInc, Src: t})
}

func (b *Block) RefDec(t Temp, lpad *Block) {
	b.append(&Instruction{Op: OpRefDec, Src: t, Lpad: lpad})
}

func (b *Block) RefDecNoexcept(t Temp) {
	b.append(&Instruction{Op: OpRefDecNoexcept, Src: t})
}

func (b *Block) InvokeBinaryOperator(dest Temp, op *types.BinaryOpEntry, l, r Temp, lpad *Block) {
	b.append(&Instruction{Op: OpInvokeBinaryOperator, Dest: dest, BinOp: op, L: l, R: r, Lpad: lpad})
}

func (b *Block) InvokeConversion(dest Temp, conv *types.Conversion, arg Temp, lpad *Block) {
	b.append(&Instruction{Op: OpInvokeConversion, Dest: dest, Conversion: conv, Src: arg, Lpad: lpad})
}

func (b *Block) InvokeFunction(dest Temp, f *Function, args []Temp, lpad *Block) {
	b.append(&Instruction{Op: OpInvokeFunction, Dest: dest, Callee: f, Args: args, Lpad: lpad})
}

func (b *Block) Jump(dest *Block) {
	b.append(&Instruction{Op: OpJump, Dest_: dest})
}

func (b *Block) Branch(cond Temp, trueDest, falseDest *Block) {
	b.append(&Instruction{Op: OpBranch, Cond: cond, TrueDest: trueDest, FalseDest: falseDest})
}

func (b *Block) Ret(t Temp) {
	b.append(&Instruction{Op: OpRet, Src: t})
}

func (b *Block) RetVoid() {
	b.append(&Instruction{Op: OpRetVoid})
}

func (b *Block) ResumeUnwind() {
	b.append(&Instruction{Op: OpResumeUnwind})
}
