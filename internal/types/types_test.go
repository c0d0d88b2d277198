package types

import (
	"testing"

	"github.com/dynscript/corec/pkg/ast"
)

func TestLookupBuiltinType_OptionalForm(t *testing.T) {
	r := NewRegistry()
	base := r.LookupBuiltinType("Int", false)
	opt := r.LookupBuiltinType("Int", true)
	if base.Optional {
		t.Error("expected non-optional Int to have Optional == false")
	}
	if !opt.Optional {
		t.Error("expected the asterisk form to have Optional == true")
	}
	if base.DisplayName() != "Int" || opt.DisplayName() != "*Int" {
		t.Errorf("unexpected DisplayNames: %q, %q", base.DisplayName(), opt.DisplayName())
	}
}

func TestLookupBuiltinType_UnknownNameReturnsNil(t *testing.T) {
	r := NewRegistry()
	if got := r.LookupBuiltinType("NotAType", false); got != nil {
		t.Errorf("expected nil for an unknown builtin name, got %v", got)
	}
}

func TestIsRefCounted(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name string
		want bool
	}{
		{"Int", false}, {"Bool", false}, {"Float", false}, {"Nothing", false},
		{"String", true}, {"Any", true},
	}
	for _, c := range cases {
		typ := r.LookupBuiltinType(c.name, false)
		if got := typ.IsRefCounted(); got != c.want {
			t.Errorf("%s.IsRefCounted() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDeclareClass_IsRefCountedAndIdempotent(t *testing.T) {
	r := NewRegistry()
	first := r.DeclareClass("Point")
	second := r.DeclareClass("Point")
	if first != second {
		t.Error("expected re-declaring the same class name to return the existing singleton")
	}
	if !first.IsRefCounted() {
		t.Error("expected class types to be reference-counted")
	}
	if got := r.ResolveClass("Point"); got != first {
		t.Error("expected ResolveClass to find the declared class")
	}
	if got := r.ResolveClass("Missing"); got != nil {
		t.Error("expected ResolveClass to return nil for an undeclared class")
	}
}

func TestOptionalOf_Idempotent(t *testing.T) {
	r := NewRegistry()
	base := r.LookupBuiltinType("String", false)
	opt := r.OptionalOf(base)
	if !opt.Optional {
		t.Fatal("expected OptionalOf to set Optional")
	}
	if r.OptionalOf(opt) != opt {
		t.Error("expected OptionalOf to be a no-op on an already-optional type")
	}
}

func TestFindConversion_IdentityIsNone(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	res, conv := r.FindConversion(intType, intType)
	if res != ConvNone || conv != nil {
		t.Errorf("expected ConvNone/nil for from==to, got %v, %v", res, conv)
	}
}

func TestFindConversion_WideningNeverThrows(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	floatType := r.LookupBuiltinType("Float", false)
	res, conv := r.FindConversion(intType, floatType)
	if res != ConvFound || conv == nil {
		t.Fatalf("expected a found Int->Float conversion, got %v, %v", res, conv)
	}
	if conv.CanThrow {
		t.Error("expected Int->Float widening to never throw")
	}
}

func TestFindConversion_AnyNarrowingCanThrow(t *testing.T) {
	r := NewRegistry()
	anyType := r.LookupBuiltinType("Any", false)
	intType := r.LookupBuiltinType("Int", false)
	res, conv := r.FindConversion(anyType, intType)
	if res != ConvFound || conv == nil || !conv.CanThrow {
		t.Fatalf("expected a throwing Any->Int conversion, got %v, %v", res, conv)
	}
}

func TestFindConversion_WrapOptionalNeverThrows(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	intOpt := r.LookupBuiltinType("Int", true)
	res, conv := r.FindConversion(intType, intOpt)
	if res != ConvFound || conv == nil || conv.FuncName != "wrapOptional" {
		t.Fatalf("expected wrapOptional, got %v, %v", res, conv)
	}
}

func TestFindConversion_ClassToAnyOnly(t *testing.T) {
	r := NewRegistry()
	point := r.DeclareClass("Point")
	anyType := r.LookupBuiltinType("Any", false)
	stringType := r.LookupBuiltinType("String", false)

	if res, _ := r.FindConversion(point, anyType); res != ConvFound {
		t.Errorf("expected class->Any to be found, got %v", res)
	}
	if res, _ := r.FindConversion(point, stringType); res != ConvFail {
		t.Errorf("expected class->String to fail, got %v", res)
	}
}

func TestFindBinaryOperator_ExactMatch(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	res, entry := r.FindBinaryOperator(ast.BinAdd, intType, intType)
	if res != FindOK || entry == nil || entry.FuncName != "intadd" {
		t.Fatalf("expected intadd, got %v, %+v", res, entry)
	}
	if entry.CanThrow {
		t.Error("expected Int+Int to never throw")
	}
}

func TestFindBinaryOperator_DivCanThrow(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	_, entry := r.FindBinaryOperator(ast.BinDiv, intType, intType)
	if entry == nil || !entry.CanThrow {
		t.Fatal("expected Int/Int to be able to throw (division by zero)")
	}
}

func TestFindBinaryOperator_NotFound(t *testing.T) {
	r := NewRegistry()
	stringType := r.LookupBuiltinType("String", false)
	// Mod has no Any-typed fallback operator (unlike Add/Sub/Mul/Div), so a
	// type with no numeric conversion path genuinely has no candidate.
	res, entry := r.FindBinaryOperator(ast.BinMod, stringType, stringType)
	if res != FindNotFound || entry != nil {
		t.Errorf("expected FindNotFound for String%%String, got %v, %+v", res, entry)
	}
}

func TestFindBinaryOperator_PrefersFewerConversions(t *testing.T) {
	r := NewRegistry()
	intType := r.LookupBuiltinType("Int", false)
	floatType := r.LookupBuiltinType("Float", false)
	// Int + Float: the Int side converts to Float once, matching the
	// Float+Float entry exactly on the right, so it should win over any
	// more-converted candidate without ambiguity.
	res, entry := r.FindBinaryOperator(ast.BinAdd, intType, floatType)
	if res != FindOK || entry == nil || entry.FuncName != "floatadd" {
		t.Fatalf("expected floatadd via widening, got %v, %+v", res, entry)
	}
}
