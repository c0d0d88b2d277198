// Package types implements the built-in type registry and the
// implicit-conversion / binary-operator tables of spec.md §3.1/§4.1.
package types

// Kind enumerates the closed built-in type set, grounded on the
// enum-plus-String()-lookup-array idiom of the teacher's
// internal/bytecode.ValueType and hhramberg-go-vslc's lir/types.DataType.
type Kind int

const (
	KError Kind = iota
	KAny
	KNothing
	KBool
	KSoftBool
	KInt
	KIntOpt
	KSoftInt
	KFloat // SPEC_FULL §3.1: restored from spec.md's own prose, omitted from its enum header
	KString
	KStringOpt
	KSoftString
	KClass // parameterized by ClassName; Optional selects the *T form
)

var kindNames = [...]string{
	KError:      "Error",
	KAny:        "Any",
	KNothing:    "Nothing",
	KBool:       "Bool",
	KSoftBool:   "SoftBool",
	KInt:        "Int",
	KIntOpt:     "IntOpt",
	KSoftInt:    "SoftInt",
	KFloat:      "Float",
	KString:     "String",
	KStringOpt:  "StringOpt",
	KSoftString: "SoftString",
	KClass:      "class",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// Type is the runtime identity of one type: a built-in singleton or a
// user class (optionally in its *T optional form).
type Type struct {
	Kind         Kind
	ClassName    string // only meaningful when Kind == KClass
	Optional     bool   // the *T form
	isRefCounted bool
}

// IsRefCounted reports whether values of this type are heap-allocated and
// reference-counted at runtime (spec.md §3.1/§3.2).
func (t *Type) IsRefCounted() bool { return t.isRefCounted }

// DisplayName renders the type the way diagnostics and resolveType
// round-tripping expect (spec.md P6).
func (t *Type) DisplayName() string {
	name := t.Kind.String()
	if t.Kind == KClass {
		name = t.ClassName
	}
	if t.Optional {
		return "*" + name
	}
	return name
}

// Registry owns the built-in singletons and the conversion/operator tables.
// One Registry is shared by an entire compilation environment.
type Registry struct {
	builtins map[string]*Type // name -> non-optional singleton
	classes  map[string]*Type // class name -> non-optional class type
	convs    map[convKey]*Conversion
	binops   []*BinaryOpEntry
}

func refcounted(k Kind) bool {
	switch k {
	case KAny, KString, KStringOpt, KSoftString, KClass:
		return true
	default:
		return false
	}
}

// NewRegistry constructs the registry with every built-in singleton
// pre-populated and the conversion/operator tables wired.
func NewRegistry() *Registry {
	r := &Registry{
		builtins: map[string]*Type{},
		classes:  map[string]*Type{},
		convs:    map[convKey]*Conversion{},
	}
	for _, k := range []Kind{KError, KAny, KNothing, KBool, KSoftBool, KInt, KIntOpt, KSoftInt, KFloat, KString, KStringOpt, KSoftString} {
		r.builtins[k.String()] = &Type{Kind: k, isRefCounted: refcounted(k)}
	}
	r.installConversions()
	r.installBinaryOperators()
	return r
}

// LookupBuiltinType resolves a simple built-in type name (spec.md §4.1).
// asterisk=true selects the *T optional form. Returns nil if token is not a
// built-in name (the caller then tries class resolution).
func (r *Registry) LookupBuiltinType(token string, asterisk bool) *Type {
	base, ok := r.builtins[token]
	if !ok {
		return nil
	}
	if !asterisk {
		return base
	}
	return r.optionalOf(base)
}

// DeclareClass registers a user class type by name, returning its
// non-optional singleton. Re-declaring the same name returns the existing
// singleton (the declaration processor diagnoses the collision itself,
// per I1).
func (r *Registry) DeclareClass(name string) *Type {
	if t, ok := r.classes[name]; ok {
		return t
	}
	t := &Type{Kind: KClass, ClassName: name, isRefCounted: true}
	r.classes[name] = t
	return t
}

// ResolveClass looks up a previously declared class by name.
func (r *Registry) ResolveClass(name string) *Type {
	return r.classes[name]
}

func (r *Registry) optionalOf(base *Type) *Type {
	opt := *base
	opt.Optional = true
	return &opt
}

// OptionalOf returns the *T optional variant of t. Optional is idempotent.
func (r *Registry) OptionalOf(t *Type) *Type {
	if t.Optional {
		return t
	}
	return r.optionalOf(t)
}

func sameType(a, b *Type) bool {
	return a.Kind == b.Kind && a.ClassName == b.ClassName && a.Optional == b.Optional
}
