package dump

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dynscript/corec/internal/backend"
	"github.com/dynscript/corec/internal/codeir"
)

// JSON renders v as a JSON document, built incrementally with
// github.com/tidwall/sjson's indexed-path setters rather than marshaling
// a mirrored Go struct tree — the same incremental-document-construction
// style the teacher's internal/jsonvalue package uses for runtime value
// serialization, adapted here to IR rendering instead of script values.
// The result is queryable with github.com/tidwall/gjson, which the test
// suite uses to assert on specific instructions without parsing the whole
// document.
func JSON(v *backend.View) (string, error) {
	doc := "{}"
	var err error
	for fi, fn := range v.Functions {
		base := fmt.Sprintf("functions.%d", fi)
		if doc, err = sjson.Set(doc, base+".name", calleeName(fn)); err != nil {
			return "", err
		}
		for bi, b := range fn.Blocks {
			blockBase := fmt.Sprintf("%s.blocks.%d", base, bi)
			if doc, err = sjson.Set(doc, blockBase+".index", b.Index); err != nil {
				return "", err
			}
			for ii, in := range b.Instructions {
				if doc, err = appendInstruction(doc, fmt.Sprintf("%s.instructions.%d", blockBase, ii), in); err != nil {
					return "", err
				}
			}
		}
	}
	return doc, nil
}

// appendInstruction writes one instruction object at path (one element of
// a block's instructions array), recording the fields relevant to its Op
// tag (spec.md §4.6's closed instruction set, mirrored here one field group
// per variant rather than marshaling every zero field of the tagged-union
// struct).
func appendInstruction(doc, path string, in *codeir.Instruction) (string, error) {
	var err error
	set := func(p string, v interface{}) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path+"."+p, v)
	}
	set("op", in.Op.String())
	switch in.Op {
	case codeir.OpConstInt:
		set("dest", in.Dest)
		set("int", in.Int)
	case codeir.OpConstFloat:
		set("dest", in.Dest)
		set("flt", in.Flt)
	case codeir.OpConstString:
		set("dest", in.Dest)
		set("str", in.Str.Value)
	case codeir.OpConstNothing:
		set("dest", in.Dest)
	case codeir.OpLocalGet:
		set("dest", in.Dest)
		set("local", in.Local.Name)
	case codeir.OpLocalSet:
		set("local", in.Local.Name)
		set("src", in.Src)
	case codeir.OpGlobalGet:
		set("dest", in.Dest)
		set("global", in.Global.Name)
	case codeir.OpGlobalSet:
		set("global", in.Global.Name)
		set("src", in.Src)
	case codeir.OpGlobalReadLock, codeir.OpGlobalReadUnlock, codeir.OpGlobalWriteLock, codeir.OpGlobalWriteUnlock:
		set("global", in.Global.Name)
	case codeir.OpGlobalInit:
		set("global", in.Global.Name)
		set("src", in.Src)
	case codeir.OpRefInc, codeir.OpRefDecNoexcept:
		set("src", in.Src)
	case codeir.OpRefDec:
		set("src", in.Src)
		setLpad(&doc, &err, path, in.Lpad)
	case codeir.OpInvokeBinaryOperator:
		set("dest", in.Dest)
		set("func", in.BinOp.FuncName)
		set("l", in.L)
		set("r", in.R)
		setLpad(&doc, &err, path, in.Lpad)
	case codeir.OpInvokeConversion:
		set("dest", in.Dest)
		set("func", in.Conversion.FuncName)
		set("src", in.Src)
		setLpad(&doc, &err, path, in.Lpad)
	case codeir.OpInvokeFunction:
		set("dest", in.Dest)
		set("callee", calleeName(in.Callee))
		args := make([]int, len(in.Args))
		for i, a := range in.Args {
			args[i] = int(a)
		}
		set("args", args)
		setLpad(&doc, &err, path, in.Lpad)
	case codeir.OpJump:
		set("dest", in.Dest_.Index)
	case codeir.OpBranch:
		set("cond", in.Cond)
		set("trueDest", in.TrueDest.Index)
		set("falseDest", in.FalseDest.Index)
	case codeir.OpRet:
		set("src", in.Src)
	case codeir.OpRetVoid, codeir.OpResumeUnwind:
		// no operands
	}
	return doc, err
}

func setLpad(doc *string, err *error, path string, pad *codeir.Block) {
	if *err != nil || pad == nil {
		return
	}
	*doc, *err = sjson.Set(*doc, path+".lpad", pad.Index)
}
