package dump

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/tidwall/gjson"

	"github.com/dynscript/corec/internal/backend"
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/symbols"
)

// buildSample constructs a global plus a three-block function (entry,
// branch target, join; a Branch joining into a Ret, guarded by a global
// read lock) exercising a
// representative slice of the closed instruction set (spec.md §4.6) so
// Text and JSON have real structure to render.
func buildSample() *backend.View {
	env := symbols.NewEnvironment()
	intType := env.Types.LookupBuiltinType("Int", false)
	strType := env.Types.LookupBuiltinType("String", false)

	global := &codeir.GlobalVariable{Name: "counter", Type: intType}
	local := &codeir.LocalVariable{Name: "n", Type: strType, Index: 0}

	group := &codeir.FunctionGroup{FullName: "sample::greet"}
	fn := &codeir.Function{Group: group, ReturnType: intType}
	group.Overloads = append(group.Overloads, fn)

	entry := fn.NewBlock()
	branchTarget := fn.NewBlock()
	joinBlock := fn.NewBlock()

	cond := fn.GetFreeTemp()
	entry.ConstInt(cond, 1)
	entry.GlobalReadLock(global)
	dest := fn.GetFreeTemp()
	entry.GlobalGet(dest, global)
	entry.GlobalReadUnlock(global)
	entry.Branch(cond, branchTarget, joinBlock)

	lit := env.InternString("hi")
	strTemp := fn.GetFreeTemp()
	branchTarget.ConstString(strTemp, lit)
	branchTarget.LocalSet(local, strTemp)
	branchTarget.Jump(joinBlock)

	joinBlock.Ret(dest)

	return &backend.View{Env: env, Functions: []*codeir.Function{fn}}
}

func TestText_RendersBlocksAndInstructions(t *testing.T) {
	view := buildSample()
	var out strings.Builder
	if err := Text(&out, view); err != nil {
		t.Fatalf("Text: %v", err)
	}
	snaps.MatchSnapshot(t, out.String())
}

func TestText_AnonymousFunctionHasNoGroup(t *testing.T) {
	fn := &codeir.Function{}
	fn.NewBlock().RetVoid()
	view := &backend.View{Functions: []*codeir.Function{fn}}

	var out strings.Builder
	if err := Text(&out, view); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(out.String(), "<anonymous>") {
		t.Errorf("expected <anonymous> header for a function with no Group, got %q", out.String())
	}
}

func TestJSON_QueryableWithGjson(t *testing.T) {
	view := buildSample()
	doc, err := JSON(view)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	if name := gjson.Get(doc, "functions.0.name").String(); name != "sample::greet" {
		t.Errorf("expected functions.0.name = sample::greet, got %q", name)
	}

	branchOp := gjson.Get(doc, "functions.0.blocks.0.instructions.4.op").String()
	if branchOp != "Branch" {
		t.Errorf("expected the fifth instruction in block 0 to be Branch, got %q", branchOp)
	}

	global := gjson.Get(doc, "functions.0.blocks.0.instructions.1.global").String()
	if global != "counter" {
		t.Errorf("expected GlobalReadLock to record the global's name, got %q", global)
	}
}
