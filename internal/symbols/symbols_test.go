package symbols

import (
	"testing"

	"github.com/dynscript/corec/internal/codeir"
)

func TestInternString_SameContentReturnsSameLiteral(t *testing.T) {
	env := NewEnvironment()
	a := env.InternString("hello")
	b := env.InternString("hello")
	if a != b {
		t.Error("expected interning the same content twice to return the same literal")
	}
	c := env.InternString("world")
	if c == a {
		t.Error("expected distinct content to produce a distinct literal")
	}
	if a.ID() == c.ID() {
		t.Error("expected distinct literals to have distinct dense indices")
	}
}

func TestNamespace_FullNameRootAndNested(t *testing.T) {
	env := NewEnvironment()
	if got := env.Root.FullName(); got != "" {
		t.Errorf("expected the root namespace's FullName to be empty, got %q", got)
	}

	geo := env.Root.FindOrCreateNamespace("geometry")
	if got := geo.FullName(); got != "geometry" {
		t.Errorf("expected geometry, got %q", got)
	}

	shapes := geo.FindOrCreateNamespace("shapes")
	if got := shapes.FullName(); got != "geometry::shapes" {
		t.Errorf("expected geometry::shapes, got %q", got)
	}
}

func TestFindOrCreateNamespace_MergesOnRepeatedName(t *testing.T) {
	env := NewEnvironment()
	first := env.Root.FindOrCreateNamespace("geometry")
	first.DeclareClass("Point")

	second := env.Root.FindOrCreateNamespace("geometry")
	if second != first {
		t.Fatal("expected re-declaring the same namespace name to merge into the existing namespace")
	}
	if _, ok := second.Classes["Point"]; !ok {
		t.Error("expected the merged namespace to retain the class declared before the merge")
	}
}

func TestDeclareGlobal_RegistersUnderName(t *testing.T) {
	env := NewEnvironment()
	gv := &codeir.GlobalVariable{Name: "counter"}
	env.Root.DeclareGlobal(gv)
	if env.Root.Globals["counter"] != gv {
		t.Error("expected DeclareGlobal to register the global under its name")
	}
}

func TestFindOrCreateFunctionGroup_QualifiesNameAndIsIdempotent(t *testing.T) {
	env := NewEnvironment()
	geo := env.Root.FindOrCreateNamespace("geometry")

	g := geo.FindOrCreateFunctionGroup("distance")
	if g.FullName != "geometry::distance" {
		t.Errorf("expected a qualified FullName, got %q", g.FullName)
	}

	again := geo.FindOrCreateFunctionGroup("distance")
	if again != g {
		t.Error("expected re-requesting the same overload pack to return the existing one")
	}

	rootGroup := env.Root.FindOrCreateFunctionGroup("main")
	if rootGroup.FullName != "main" {
		t.Errorf("expected an unqualified FullName at the root namespace, got %q", rootGroup.FullName)
	}
}

func TestDeclareClass_ForwardAndIdempotent(t *testing.T) {
	env := NewEnvironment()
	geo := env.Root.FindOrCreateNamespace("geometry")

	c := geo.DeclareClass("Point")
	if !c.IsForward {
		t.Error("expected a freshly declared class to start out forward-declared")
	}
	if c.Type == nil || !c.Type.IsRefCounted() {
		t.Error("expected the backing type to be registered and reference-counted")
	}
	if c.Type.DisplayName() != "geometry::Point" {
		t.Errorf("expected the backing type to carry the qualified name, got %q", c.Type.DisplayName())
	}

	again := geo.DeclareClass("Point")
	if again != c {
		t.Error("expected re-declaring the same class name to return the existing Class")
	}
}
