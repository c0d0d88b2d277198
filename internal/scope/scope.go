// Package scope implements the nested lookup-context stack of spec.md §4.2:
// BlockScope -> FunctionScope -> (ClassScope) -> NamespaceScope ->
// RootNamespaceScope, each answering resolveType/resolveSymbol/declareLocal.
package scope

import (
	"strings"

	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/symbols"
	"github.com/dynscript/corec/internal/types"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
	"github.com/dynscript/corec/pkg/source"
)

// SymbolKind tags what resolveSymbol found.
type SymbolKind int

const (
	SymNone SymbolKind = iota
	SymLocal
	SymGlobal
	SymFunctionGroup
	SymClass
	SymAmbiguous
)

// ResolvedSymbol is the result of resolveSymbol (spec.md §4.2).
type ResolvedSymbol struct {
	Kind  SymbolKind
	Local *codeir.LocalVariable
	Global *codeir.GlobalVariable
	Group *codeir.FunctionGroup
	Class *symbols.Class
}

// Scope is the common interface every level of the stack implements.
type Scope interface {
	ResolveType(ref *ast.TypeRef) *types.Type
	ResolveSymbol(name string) ResolvedSymbol
	DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable
	Env() *symbols.Environment
	Diag() diag.Sink
}

// RootNamespaceScope anchors the stack at the environment's root namespace.
type RootNamespaceScope struct {
	Environment *symbols.Environment
	Sink        diag.Sink
}

func (s *RootNamespaceScope) Env() *symbols.Environment { return s.Environment }
func (s *RootNamespaceScope) Diag() diag.Sink           { return s.Sink }

func (s *RootNamespaceScope) ResolveType(ref *ast.TypeRef) *types.Type {
	return resolveTypeIn(s.Environment, s.Environment.Root, ref, s.Sink)
}

func (s *RootNamespaceScope) ResolveSymbol(name string) ResolvedSymbol {
	return resolveSymbolIn(s.Environment.Root, name)
}

func (s *RootNamespaceScope) DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable {
	// The root scope owns no function frame; declaring a local here is a
	// programming error in the caller, not a user-diagnosable condition.
	panic("scope: DeclareLocal called on RootNamespaceScope")
}

// NamespaceScope resolves names within one (possibly nested) namespace,
// delegating upward to its parent on miss.
type NamespaceScope struct {
	Namespace *symbols.Namespace
	Parent    Scope
}

func (s *NamespaceScope) Env() *symbols.Environment { return s.Parent.Env() }
func (s *NamespaceScope) Diag() diag.Sink           { return s.Parent.Diag() }

func (s *NamespaceScope) ResolveType(ref *ast.TypeRef) *types.Type {
	return resolveTypeIn(s.Env(), s.Namespace, ref, s.Diag())
}

func (s *NamespaceScope) ResolveSymbol(name string) ResolvedSymbol {
	if r := resolveSymbolIn(s.Namespace, name); r.Kind != SymNone {
		return r
	}
	return s.Parent.ResolveSymbol(name)
}

func (s *NamespaceScope) DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable {
	return s.Parent.DeclareLocal(name, typ, pos)
}

// ClassScope stands for one class in the scope chain. It resolves no field
// or method names of its own: type resolution, symbol lookup and
// DeclareLocal all delegate to its parent.
type ClassScope struct {
	Class  *symbols.Class
	Parent Scope
}

func (s *ClassScope) Env() *symbols.Environment { return s.Parent.Env() }
func (s *ClassScope) Diag() diag.Sink           { return s.Parent.Diag() }

func (s *ClassScope) ResolveType(ref *ast.TypeRef) *types.Type {
	return s.Parent.ResolveType(ref)
}

func (s *ClassScope) ResolveSymbol(name string) ResolvedSymbol {
	// Fields and methods are not modeled as symbol kinds, so lookup
	// delegates upward unchanged.
	return s.Parent.ResolveSymbol(name)
}

func (s *ClassScope) DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable {
	return s.Parent.DeclareLocal(name, typ, pos)
}

// FunctionScope owns the local-variable storage for one function frame: it
// is the scope every DeclareLocal call ultimately reaches (spec.md §4.2:
// "non-block scopes delegate declareLocal to the enclosing function scope").
type FunctionScope struct {
	Function *codeir.Function
	Params   map[string]*codeir.LocalVariable
	Parent   Scope
}

func (s *FunctionScope) Env() *symbols.Environment { return s.Parent.Env() }
func (s *FunctionScope) Diag() diag.Sink           { return s.Parent.Diag() }

func (s *FunctionScope) ResolveType(ref *ast.TypeRef) *types.Type {
	return s.Parent.ResolveType(ref)
}

func (s *FunctionScope) ResolveSymbol(name string) ResolvedSymbol {
	if lv, ok := s.Params[name]; ok {
		return ResolvedSymbol{Kind: SymLocal, Local: lv}
	}
	return s.Parent.ResolveSymbol(name)
}

func (s *FunctionScope) DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable {
	lv := s.Function.DeclareLocal(name, typ, pos)
	return lv
}

// BlockScope is the innermost scope: declared locals are visible to this
// block and its nested blocks only, and a nested block's declaration
// shadows an outer one of the same name. A duplicate in the same block is
// diagnosed and still created in the function frame, but shadows nothing:
// the name keeps resolving to the first declaration.
type BlockScope struct {
	Locals map[string]*codeir.LocalVariable
	Parent Scope
}

// NewBlockScope opens a new block nested in parent.
func NewBlockScope(parent Scope) *BlockScope {
	return &BlockScope{Locals: map[string]*codeir.LocalVariable{}, Parent: parent}
}

func (s *BlockScope) Env() *symbols.Environment { return s.Parent.Env() }
func (s *BlockScope) Diag() diag.Sink           { return s.Parent.Diag() }

func (s *BlockScope) ResolveType(ref *ast.TypeRef) *types.Type {
	return s.Parent.ResolveType(ref)
}

func (s *BlockScope) ResolveSymbol(name string) ResolvedSymbol {
	if lv, ok := s.Locals[name]; ok {
		return ResolvedSymbol{Kind: SymLocal, Local: lv}
	}
	return s.Parent.ResolveSymbol(name)
}

func (s *BlockScope) DeclareLocal(name string, typ *types.Type, pos source.Position) *codeir.LocalVariable {
	if _, dup := s.Locals[name]; dup {
		s.Diag().Report(diag.SemaDuplicateLocalName, pos).Arg(name).Emit()
		return s.Parent.DeclareLocal(name, typ, pos)
	}
	lv := s.Parent.DeclareLocal(name, typ, pos)
	s.Locals[name] = lv
	return lv
}

// --- shared resolution helpers ---

func resolveTypeIn(env *symbols.Environment, ns *symbols.Namespace, ref *ast.TypeRef, sink diag.Sink) *types.Type {
	if ref.Root {
		return resolveTypeIn(env, env.Root, &ast.TypeRef{Node: ref.Node, Name: ref.Name, Asterisk: ref.Asterisk}, sink)
	}
	if t := env.Types.LookupBuiltinType(ref.Name, ref.Asterisk); t != nil {
		return t
	}
	// Qualified names (A::B) are resolved by descending the namespace tree
	// from ns; unqualified names search upward through ns's ancestors.
	if strings.Contains(ref.Name, "::") {
		parts := strings.Split(ref.Name, "::")
		cur := ns
		for _, p := range parts[:len(parts)-1] {
			if cur.Namespaces == nil {
				cur = nil
				break
			}
			next, ok := cur.Namespaces[p]
			if !ok {
				cur = nil
				break
			}
			cur = next
		}
		if cur != nil {
			if c, ok := cur.Classes[parts[len(parts)-1]]; ok {
				return applyOptional(c.Type, ref.Asterisk, env)
			}
		}
		sink.Report(diag.SemaUnresolvedClass, ref.Pos).Arg(ref.Name).Emit()
		return env.Types.LookupBuiltinType("Error", false)
	}
	for cur := ns; cur != nil; cur = cur.Parent {
		if cur.Classes != nil {
			if c, ok := cur.Classes[ref.Name]; ok {
				return applyOptional(c.Type, ref.Asterisk, env)
			}
		}
	}
	sink.Report(diag.SemaUnresolvedClass, ref.Pos).Arg(ref.Name).Emit()
	return env.Types.LookupBuiltinType("Error", false)
}

func applyOptional(t *types.Type, asterisk bool, env *symbols.Environment) *types.Type {
	if asterisk {
		return env.Types.OptionalOf(t)
	}
	return t
}

func resolveSymbolIn(ns *symbols.Namespace, name string) ResolvedSymbol {
	if ns.Globals != nil {
		if gv, ok := ns.Globals[name]; ok {
			return ResolvedSymbol{Kind: SymGlobal, Global: gv}
		}
	}
	if ns.Functions != nil {
		if g, ok := ns.Functions[name]; ok {
			return ResolvedSymbol{Kind: SymFunctionGroup, Group: g}
		}
	}
	if ns.Classes != nil {
		if c, ok := ns.Classes[name]; ok {
			return ResolvedSymbol{Kind: SymClass, Class: c}
		}
	}
	return ResolvedSymbol{Kind: SymNone}
}
