// Package dump implements the reference back end of spec.md §6.2: it
// renders a completed analysis as text or JSON without attaching any
// execution semantics, the "read-only consumer" contract §6.2 requires of
// every back end.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/dynscript/corec/internal/backend"
	"github.com/dynscript/corec/internal/codeir"
)

// Text writes a human-readable block/instruction listing of every
// function in v, one line per instruction, mirroring the shape of the
// teacher's internal/bytecode.Disassembler.Disassemble output (offset
// header, mnemonic, operands) adapted from flat bytecode offsets to this
// spec's basic-block structure.
func Text(w io.Writer, v *backend.View) error {
	for _, fn := range v.Functions {
		fmt.Fprintf(w, "== %s ==\n", calleeName(fn))
		for _, b := range fn.Blocks {
			fmt.Fprintf(w, "block%d:\n", b.Index)
			for i, in := range b.Instructions {
				fmt.Fprintf(w, "  [%04d] %s\n", i, formatInstruction(in))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func formatInstruction(in *codeir.Instruction) string {
	switch in.Op {
	case codeir.OpConstInt:
		return fmt.Sprintf("ConstInt t%d, %d", in.Dest, in.Int)
	case codeir.OpConstFloat:
		return fmt.Sprintf("ConstFloat t%d, %g", in.Dest, in.Flt)
	case codeir.OpConstString:
		return fmt.Sprintf("ConstString t%d, %q", in.Dest, in.Str.Value)
	case codeir.OpConstNothing:
		return fmt.Sprintf("ConstNothing t%d", in.Dest)
	case codeir.OpLocalGet:
		return fmt.Sprintf("LocalGet t%d, %s", in.Dest, in.Local.Name)
	case codeir.OpLocalSet:
		return fmt.Sprintf("LocalSet %s, t%d", in.Local.Name, in.Src)
	case codeir.OpGlobalGet:
		return fmt.Sprintf("GlobalGet t%d, %s", in.Dest, in.Global.Name)
	case codeir.OpGlobalSet:
		return fmt.Sprintf("GlobalSet %s, t%d", in.Global.Name, in.Src)
	case codeir.OpGlobalReadLock:
		return fmt.Sprintf("GlobalReadLock %s", in.Global.Name)
	case codeir.OpGlobalReadUnlock:
		return fmt.Sprintf("GlobalReadUnlock %s", in.Global.Name)
	case codeir.OpGlobalWriteLock:
		return fmt.Sprintf("GlobalWriteLock %s", in.Global.Name)
	case codeir.OpGlobalWriteUnlock:
		return fmt.Sprintf("GlobalWriteUnlock %s", in.Global.Name)
	case codeir.OpGlobalInit:
		return fmt.Sprintf("GlobalInit %s, t%d", in.Global.Name, in.Src)
	case codeir.OpRefInc:
		return fmt.Sprintf("RefInc t%d", in.Src)
	case codeir.OpRefDec:
		return fmt.Sprintf("RefDec t%d%s", in.Src, lpadSuffix(in.Lpad))
	case codeir.OpRefDecNoexcept:
		return fmt.Sprintf("RefDecNoexcept t%d", in.Src)
	case codeir.OpInvokeBinaryOperator:
		return fmt.Sprintf("InvokeBinaryOperator t%d, %s, t%d, t%d%s", in.Dest, in.BinOp.FuncName, in.L, in.R, lpadSuffix(in.Lpad))
	case codeir.OpInvokeConversion:
		return fmt.Sprintf("InvokeConversion t%d, %s, t%d%s", in.Dest, in.Conversion.FuncName, in.Src, lpadSuffix(in.Lpad))
	case codeir.OpInvokeFunction:
		return fmt.Sprintf("InvokeFunction t%d, %s(%s)%s", in.Dest, calleeName(in.Callee), formatArgs(in.Args), lpadSuffix(in.Lpad))
	case codeir.OpJump:
		return fmt.Sprintf("Jump block%d", in.Dest_.Index)
	case codeir.OpBranch:
		return fmt.Sprintf("Branch t%d, block%d, block%d", in.Cond, in.TrueDest.Index, in.FalseDest.Index)
	case codeir.OpRet:
		return fmt.Sprintf("Ret t%d", in.Src)
	case codeir.OpRetVoid:
		return "RetVoid"
	case codeir.OpResumeUnwind:
		return "ResumeUnwind"
	default:
		return in.Op.String()
	}
}

func lpadSuffix(pad *codeir.Block) string {
	if pad == nil {
		return ""
	}
	return fmt.Sprintf(" lpad=block%d", pad.Index)
}

func calleeName(fn *codeir.Function) string {
	if fn == nil || fn.Group == nil {
		return "<anonymous>"
	}
	return fn.Group.FullName
}

func formatArgs(args []codeir.Temp) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("t%d", a)
	}
	return strings.Join(parts, ", ")
}
