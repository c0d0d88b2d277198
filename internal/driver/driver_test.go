package driver

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/dynscript/corec/internal/backend"
	"github.com/dynscript/corec/internal/backend/dump"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
)

// typeRef builds a TypeRef by its raw spelling, the form
// internal/scope.resolveType resolves against the builtin registry
// (spec.md §3.2).
func typeRef(name string) *ast.TypeRef { return &ast.TypeRef{Name: name} }

// TestRun_FunctionCallFromQMain mirrors spec.md §8 scenario 1 in shape: a
// script with one declared function and a single top-level statement that
// calls it, verifying the declaration/body-queue pipeline plus qMain
// synthesis (internal/driver's addition over the teacher's single-pass
// compileScript) produce a well-formed, non-fatal result.
func TestRun_FunctionCallFromQMain(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.FunctionDecl{
				Name: "double",
				Params: []*ast.Param{
					{Name: "x", Type: typeRef("Int")},
				},
				ReturnType: typeRef("Int"),
				Body: &ast.Block{
					Stmts: []ast.Stmt{
						&ast.Return{
							Expr: &ast.Binary{
								Op:    ast.BinAdd,
								Left:  &ast.Identifier{Name: "x"},
								Right: &ast.Identifier{Name: "x"},
							},
						},
					},
				},
			},
		},
		Statements: []ast.Stmt{
			&ast.VarDeclStatement{
				Name: "y",
				Init: &ast.Call{
					Callee: "double",
					Args:   []ast.Expr{&ast.Literal{Kind: ast.LitInt, Int: 21}},
				},
			},
		},
	}

	sink := diag.NewCollectingSink()
	result := Run(prog, sink, 0)

	if result.Fatal {
		t.Fatalf("unexpected fatal analysis: %v", sink.Diagnostics)
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}

	// double's overload plus the synthesized qMain; no globals means no
	// qInit/qDone (spec.md §4.3: "any of these may be absent when empty").
	if len(result.Functions) != 2 {
		t.Fatalf("expected 2 functions (double, qMain), got %d", len(result.Functions))
	}

	var out strings.Builder
	view := &backend.View{Env: result.Env, Functions: result.Functions}
	if err := dump.Text(&out, view); err != nil {
		t.Fatalf("dump.Text: %v", err)
	}
	snaps.MatchSnapshot(t, out.String())
}

// TestRun_GlobalSynthesizesQInitAndQDone exercises spec.md §8 scenario 2's
// shape: a ref-counted global declared without an initializer gets a
// Nothing default in qInit and a release in qDone.
func TestRun_GlobalSynthesizesQInitAndQDone(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "g", Type: typeRef("String")},
		},
		Statements: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.Identifier{Name: "g"},
				Value:  &ast.Literal{Kind: ast.LitString, Str: "x"},
			},
		},
	}

	sink := diag.NewCollectingSink()
	result := Run(prog, sink, 0)

	if result.Fatal || sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}

	names := map[string]bool{}
	for _, fn := range result.Functions {
		if fn.Group != nil {
			names[fn.Group.FullName] = true
		}
	}
	for _, want := range []string{"qInit", "qDone", "qMain"} {
		if !names[want] {
			t.Errorf("expected synthesized function %q, got functions %v", want, names)
		}
	}
}

// TestRun_DuplicateGlobalOnlyKeepsFirst mirrors spec.md §8 scenario 6:
// two same-named globals in one namespace produce exactly one pair of
// diagnostics and exactly one entry in qInit/qDone.
func TestRun_DuplicateGlobalOnlyKeepsFirst(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "g", Type: typeRef("Int")},
			&ast.GlobalVarDecl{Name: "g", Type: typeRef("Int")},
		},
	}

	sink := diag.NewCollectingSink()
	result := Run(prog, sink, 0)

	var dupCount, prevCount int
	for _, d := range sink.Diagnostics {
		switch d.ID {
		case diag.SemaDuplicateGlobalVariableName:
			dupCount++
		case diag.SemaPreviousDeclaration:
			prevCount++
		}
	}
	if dupCount != 1 || prevCount != 1 {
		t.Fatalf("expected exactly one duplicate/previous diagnostic pair, got dup=%d prev=%d", dupCount, prevCount)
	}

	found := false
	for _, fn := range result.Functions {
		if fn.Group != nil && fn.Group.FullName == "qInit" {
			found = true
			if len(fn.Blocks) == 0 || len(fn.Blocks[0].Instructions) == 0 {
				t.Error("qInit should contain the surviving global's initializer")
			}
		}
	}
	if !found {
		t.Fatal("expected a qInit function for the surviving global")
	}
}
