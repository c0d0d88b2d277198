// Package symbols implements the namespace side of the runtime symbol
// model of spec.md §3.3: namespaces and classes, plus the Environment that
// owns the type registry and interned string literals. Function,
// GlobalVariable, LocalVariable, and FunctionGroup are IR-operand shaped
// and live in internal/codeir (see that package's doc comment for why).
package symbols

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/pkg/source"
)

// Environment owns every symbol created during one compilation, mirroring
// the teacher's environment-scoped constant-pool interning
// (internal/bytecode.Chunk's constant pool, generalized here to whole-
// compilation scope since string literals outlive any one function).
type Environment struct {
	Types   *types.Registry
	Root    *Namespace
	strings map[string]*codeir.StringLiteral
}

// NewEnvironment returns a fresh environment with an empty root namespace.
func NewEnvironment() *Environment {
	env := &Environment{
		Types:   types.NewRegistry(),
		strings: map[string]*codeir.StringLiteral{},
	}
	env.Root = &Namespace{Name: "", Env: env}
	return env
}

// InternString returns the unique StringLiteral for s, creating it on first
// use (spec.md §3.3: "interned by content at the environment level").
func (env *Environment) InternString(s string) *codeir.StringLiteral {
	if lit, ok := env.strings[s]; ok {
		return lit
	}
	lit := codeir.NewStringLiteral(s, len(env.strings))
	env.strings[s] = lit
	return lit
}

// Namespace holds nested namespaces, classes, global variables, and
// function groups (spec.md §3.3).
type Namespace struct {
	Name       string
	Parent     *Namespace
	Env        *Environment
	Namespaces map[string]*Namespace
	Classes    map[string]*Class
	Globals    map[string]*codeir.GlobalVariable
	Functions  map[string]*codeir.FunctionGroup
}

// FullName renders the fully-qualified, "::"-separated name of this
// namespace (spec.md §4.2's root-qualified lookup syntax).
func (n *Namespace) FullName() string {
	if n.Parent == nil || n.Parent.Name == "" {
		return n.Name
	}
	return n.Parent.FullName() + "::" + n.Name
}

// FindOrCreateNamespace returns the existing child namespace named name,
// merging into it per spec.md §4.3, or creates one.
func (n *Namespace) FindOrCreateNamespace(name string) *Namespace {
	if n.Namespaces == nil {
		n.Namespaces = map[string]*Namespace{}
	}
	if child, ok := n.Namespaces[name]; ok {
		return child
	}
	child := &Namespace{Name: name, Parent: n, Env: n.Env}
	n.Namespaces[name] = child
	return child
}

// DeclareGlobal registers a new GlobalVariable under this namespace. The
// caller (internal/declpass) is responsible for diagnosing name collisions
// per I1 before calling this.
func (n *Namespace) DeclareGlobal(gv *codeir.GlobalVariable) {
	if n.Globals == nil {
		n.Globals = map[string]*codeir.GlobalVariable{}
	}
	n.Globals[gv.Name] = gv
}

// FindOrCreateFunctionGroup returns the existing overload pack named name,
// or creates an empty one (spec.md §4.3: "find or create a
// FunctionOverloadPack").
func (n *Namespace) FindOrCreateFunctionGroup(name string) *codeir.FunctionGroup {
	if n.Functions == nil {
		n.Functions = map[string]*codeir.FunctionGroup{}
	}
	if g, ok := n.Functions[name]; ok {
		return g
	}
	g := &codeir.FunctionGroup{FullName: n.qualify(name)}
	n.Functions[name] = g
	return g
}

func (n *Namespace) qualify(name string) string {
	if n.FullName() == "" {
		return name
	}
	return n.FullName() + "::" + name
}

// DeclareClass registers a forward or full class declaration under this
// namespace, creating its backing type in the environment's registry.
func (n *Namespace) DeclareClass(name string) *Class {
	if n.Classes == nil {
		n.Classes = map[string]*Class{}
	}
	if c, ok := n.Classes[name]; ok {
		return c
	}
	c := &Class{Name: name, Owner: n, Type: n.Env.Types.DeclareClass(n.qualify(name)), IsForward: true}
	n.Classes[name] = c
	return c
}

// Class is a user-declared class, backing a ClassScope.
type Class struct {
	Name        string
	Owner       *Namespace
	Type        *types.Type
	SuperName   string
	Super       *Class // resolved during class-queue draining
	Fields      map[string]*types.Type
	IsForward   bool
	PreviousPos source.Position // location of the most recent declaration, for SemaPreviousDeclaration
}
