// Package backend defines the read-only consumer view of a completed
// analysis (spec.md §6.2): a back end walks the namespace tree and each
// function's basic blocks without being able to mutate anything the
// front end produced. internal/backend/dump implements the one reference
// back end this repository ships.
package backend

import (
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/internal/symbols"
)

// View is the complete, read-only surface a back end may query: the
// namespace tree for name/type lookups, plus the flat list of functions
// whose bodies were lowered to code IR (spec.md §6.2: "back ends consume
// Namespace, Function, Block, and Instruction without a Build-phase
// callback into the front end").
type View struct {
	Env       *symbols.Environment
	Functions []*codeir.Function
}
