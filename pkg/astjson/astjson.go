// Package astjson decodes a JSON-encoded AST into pkg/ast trees. Since
// the lexer/parser is out of scope for this repository (spec.md §1: "the
// lexer/parser (assumed to deliver a validated AST)"), the corec CLI's
// `analyze`/`dump` subcommands need some concrete wire format to receive
// a tree without a real front end; a tagged-JSON document is that format.
// Decoding is keyed on an explicit "kind" discriminator field, the same
// tagged-union-over-encoding/json technique the teacher's
// internal/jsonvalue package uses to keep Go's untyped JSON decoding
// honest about which concrete variant a node is.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/source"
)

// Decode parses a JSON document shaped like ast.Program into a live AST.
func Decode(data []byte) (*ast.Program, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("astjson: %w", err)
	}
	decls, err := decodeDecls(raw.Decls)
	if err != nil {
		return nil, err
	}
	stmts, err := decodeStmts(raw.Statements)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Decls: decls, Statements: stmts}, nil
}

// rawNode is the untyped shape every node decodes through before
// dispatching on Kind; only the fields relevant to the node being
// decoded are populated in any given document fragment.
type rawNode struct {
	Kind string `json:"kind"`

	Name       string     `json:"name"`
	SuperClass string     `json:"superClass"`
	Type       *rawNode   `json:"type"`
	Asterisk   bool       `json:"asterisk"`
	Root       bool       `json:"root"`
	Decls      []rawNode  `json:"decls"`
	Fields     []rawNode  `json:"fields"`
	Methods    []rawNode  `json:"methods"`
	Params     []rawNode  `json:"params"`
	ReturnType *rawNode   `json:"returnType"`
	Body       *rawNode   `json:"body"`
	Statements []rawNode  `json:"statements"`
	Stmts      []rawNode  `json:"stmts"`
	Cond       *rawNode   `json:"cond"`
	Then       *rawNode   `json:"then"`
	Else       *rawNode   `json:"else"`
	TryBody    *rawNode   `json:"tryBody"`
	CatchVar   string     `json:"catchVar"`
	Catch      *rawNode   `json:"catch"`
	Expr       *rawNode   `json:"expr"`
	Init       *rawNode   `json:"init"`
	Target     *rawNode   `json:"target"`
	Value      *rawNode   `json:"value"`
	Op         string     `json:"op"`
	Operand    *rawNode   `json:"operand"`
	Left       *rawNode   `json:"left"`
	Right      *rawNode   `json:"right"`
	Callee     string     `json:"callee"`
	Args       []rawNode  `json:"args"`
	LitKind    string     `json:"litKind"`
	Int        int64      `json:"int"`
	Flt        float64    `json:"flt"`
	Str        string     `json:"str"`
	Bool       bool       `json:"bool"`
}

func decodeDecls(raws []rawNode) ([]ast.Decl, error) {
	out := make([]ast.Decl, 0, len(raws))
	for _, r := range raws {
		d, err := decodeDecl(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeDecl(r rawNode) (ast.Decl, error) {
	switch r.Kind {
	case "NamespaceDecl":
		decls, err := decodeDecls(r.Decls)
		if err != nil {
			return nil, err
		}
		return &ast.NamespaceDecl{Name: r.Name, Decls: decls}, nil

	case "ClassDecl":
		var fields []*ast.FieldDecl
		for _, f := range r.Fields {
			t, err := decodeTypeRef(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, &ast.FieldDecl{Name: f.Name, Type: t})
		}
		var methods []*ast.FunctionDecl
		for _, m := range r.Methods {
			fn, err := decodeDecl(m)
			if err != nil {
				return nil, err
			}
			methods = append(methods, fn.(*ast.FunctionDecl))
		}
		return &ast.ClassDecl{Name: r.Name, SuperClass: r.SuperClass, Fields: fields, Methods: methods}, nil

	case "GlobalVarDecl":
		t, err := decodeTypeRef(r.Type)
		if err != nil {
			return nil, err
		}
		init, err := decodeOptExpr(r.Init)
		if err != nil {
			return nil, err
		}
		return &ast.GlobalVarDecl{Name: r.Name, Type: t, Init: init}, nil

	case "ConstDecl":
		init, err := decodeExpr(*r.Init)
		if err != nil {
			return nil, err
		}
		return &ast.ConstDecl{Name: r.Name, Init: init}, nil

	case "FunctionDecl":
		var params []*ast.Param
		for _, p := range r.Params {
			t, err := decodeTypeRef(p.Type)
			if err != nil {
				return nil, err
			}
			params = append(params, &ast.Param{Name: p.Name, Type: t})
		}
		ret, err := decodeTypeRef(r.ReturnType)
		if err != nil {
			return nil, err
		}
		var body *ast.Block
		if r.Body != nil {
			b, err := decodeStmt(*r.Body)
			if err != nil {
				return nil, err
			}
			body = b.(*ast.Block)
		}
		return &ast.FunctionDecl{Name: r.Name, Params: params, ReturnType: ret, Body: body}, nil

	default:
		return nil, fmt.Errorf("astjson: unknown decl kind %q", r.Kind)
	}
}

func decodeTypeRef(r *rawNode) (*ast.TypeRef, error) {
	if r == nil {
		return nil, nil
	}
	return &ast.TypeRef{Name: r.Name, Asterisk: r.Asterisk, Root: r.Root}, nil
}

func decodeStmts(raws []rawNode) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(raws))
	for _, r := range raws {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStmt(r rawNode) (ast.Stmt, error) {
	switch r.Kind {
	case "Block":
		stmts, err := decodeStmts(r.Stmts)
		if err != nil {
			return nil, err
		}
		return &ast.Block{Stmts: stmts}, nil

	case "If":
		cond, err := decodeExpr(*r.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(*r.Then)
		if err != nil {
			return nil, err
		}
		var els *ast.Block
		if r.Else != nil {
			e, err := decodeStmt(*r.Else)
			if err != nil {
				return nil, err
			}
			els = e.(*ast.Block)
		}
		return &ast.If{Cond: cond, Then: then.(*ast.Block), Else: els}, nil

	case "Try":
		tryBody, err := decodeStmt(*r.TryBody)
		if err != nil {
			return nil, err
		}
		catch, err := decodeStmt(*r.Catch)
		if err != nil {
			return nil, err
		}
		return &ast.Try{TryBody: tryBody.(*ast.Block), CatchVar: r.CatchVar, Catch: catch.(*ast.Block)}, nil

	case "Return":
		e, err := decodeOptExpr(r.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Expr: e}, nil

	case "ExpressionStatement":
		e, err := decodeExpr(*r.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Expr: e}, nil

	case "VarDeclStatement":
		t, err := decodeTypeRef(r.Type)
		if err != nil {
			return nil, err
		}
		init, err := decodeOptExpr(r.Init)
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclStatement{Name: r.Name, Type: t, Init: init}, nil

	case "Assignment":
		target, err := decodeExpr(*r.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(*r.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Target: target, Value: value}, nil

	default:
		return nil, fmt.Errorf("astjson: unknown stmt kind %q", r.Kind)
	}
}

func decodeOptExpr(r *rawNode) (ast.Expr, error) {
	if r == nil {
		return nil, nil
	}
	return decodeExpr(*r)
}

var unaryOps = map[string]ast.UnaryOp{"neg": ast.UnaryNeg, "not": ast.UnaryNot}
var binaryOps = map[string]ast.BinaryOp{
	"+": ast.BinAdd, "-": ast.BinSub, "*": ast.BinMul, "/": ast.BinDiv, "%": ast.BinMod,
	"==": ast.BinEq, "!=": ast.BinNotEq, "<": ast.BinLess, "<=": ast.BinLessEq,
	">": ast.BinGreater, ">=": ast.BinGreaterEq,
}
var logicalOps = map[string]ast.LogicalOp{"&&": ast.LogicalAnd, "||": ast.LogicalOr, "?:": ast.LogicalTernary}
var literalKinds = map[string]ast.LiteralKind{
	"int": ast.LitInt, "float": ast.LitFloat, "string": ast.LitString,
	"bool": ast.LitBool, "nothing": ast.LitNothing,
}

func decodeExpr(r rawNode) (ast.Expr, error) {
	switch r.Kind {
	case "Identifier":
		return &ast.Identifier{Name: r.Name}, nil

	case "Literal":
		kind, ok := literalKinds[r.LitKind]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown literal kind %q", r.LitKind)
		}
		return &ast.Literal{Kind: kind, Int: r.Int, Flt: r.Flt, Str: r.Str, Bool: r.Bool}, nil

	case "Unary":
		op, ok := unaryOps[r.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown unary op %q", r.Op)
		}
		operand, err := decodeExpr(*r.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Operand: operand}, nil

	case "Binary":
		op, ok := binaryOps[r.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown binary op %q", r.Op)
		}
		left, err := decodeExpr(*r.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(*r.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: op, Left: left, Right: right}, nil

	case "Logical":
		op, ok := logicalOps[r.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown logical op %q", r.Op)
		}
		left, err := decodeExpr(*r.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(*r.Right)
		if err != nil {
			return nil, err
		}
		var els ast.Expr
		if r.Else != nil {
			els, err = decodeExpr(*r.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.Logical{Op: op, Left: left, Right: right, Else: els}, nil

	case "Call":
		args, err := decodeExprs(r.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: r.Callee, Args: args}, nil

	default:
		return nil, fmt.Errorf("astjson: unknown expr kind %q", r.Kind)
	}
}

func decodeExprs(raws []rawNode) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(raws))
	for _, r := range raws {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// unused import guard: source.Position is referenced by every ast.Node,
// but astjson never constructs one directly (decoded nodes carry the
// zero Position; a real front end would thread source ids through this
// decoder too).
var _ source.Position
