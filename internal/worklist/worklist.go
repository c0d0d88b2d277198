// Package worklist implements the fixed-point driver of spec.md §4.3/§5:
// it drains, in order, the class queue, global-variable queue,
// function-overload-pack queue, constant queue, and function-body queue,
// each stage able to enqueue items in later stages, running to a fixed
// point, short-circuiting on a global fatal flag (spec.md §5).
//
// Draining *within* one stage may run concurrently for independent items
// (SPEC_FULL §5), generalizing hhramberg-go-vslc's hand-rolled
// goroutine+sync.WaitGroup parallel optimisation pass (src/ir/optimise.go)
// and its channel-based util.Perror error collector to the
// golang.org/x/sync/errgroup idiom.
package worklist

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dynscript/corec/internal/declpass"
	"github.com/dynscript/corec/internal/scope"
	"github.com/dynscript/corec/internal/codeir"
	"github.com/dynscript/corec/pkg/ast"
	"github.com/dynscript/corec/pkg/diag"
)

// FunctionBodyItem is one declared function whose pass-1 analysis and
// pass-2 lowering the function-body stage drives. The synthesized
// qMain/qInit/qDone functions are built after the worklist finishes and
// never pass through this stage.
type FunctionBodyItem struct {
	Function *codeir.Function
	Body     *ast.Block
	Scope    scope.Scope
}

// Handlers wires the worklist driver to the declaration-processing and
// lowering logic that actually knows about types/sema/irbuild. The driver
// itself stays ignorant of those packages (it only carries a scope.Scope
// through FunctionBodyItem) so it has no import-cycle
// pressure and can be reused by any future front end with the same queue
// shape.
type Handlers struct {
	Class        func(*declpass.ClassQueueItem) error
	Global       func(*declpass.GlobalQueueItem) error
	FunctionDecl func(*declpass.FunctionQueueItem, *Driver) error
	Const        func(*declpass.ConstQueueItem) error
	FunctionBody func(*FunctionBodyItem) error
}

// Driver owns the queues populated by declpass.Processor plus whatever the
// FunctionDecl handler enqueues onto the function-body stage, and drains
// them to a fixed point.
type Driver struct {
	Sink        diag.Sink
	Concurrency int // 0 means unbounded (errgroup default)

	fatal atomic.Bool

	functionBody   []*FunctionBodyItem
	functionBodyMu sync.Mutex
}

// NewDriver returns a driver reporting through sink.
func NewDriver(sink diag.Sink, concurrency int) *Driver {
	return &Driver{Sink: sink, Concurrency: concurrency}
}

// Fatal reports whether the global fatal flag has been set (spec.md §5).
func (d *Driver) Fatal() bool { return d.fatal.Load() }

// SetFatal sets the global fatal flag; any component observing it must
// return a well-formed empty result while diagnostics keep flowing
// (spec.md §5).
func (d *Driver) SetFatal() { d.fatal.Store(true) }

// EnqueueFunctionBody appends an item to the function-body stage. Called
// by the FunctionDecl handler once a function's signature is resolved.
func (d *Driver) EnqueueFunctionBody(item *FunctionBodyItem) {
	d.functionBodyMu.Lock()
	defer d.functionBodyMu.Unlock()
	d.functionBody = append(d.functionBody, item)
}

// Run drains p's queues in the fixed order class -> global-variable ->
// function-overload-pack -> constant -> function-body (spec.md §4.3),
// running each stage to completion before the next begins. Returns true if
// the fatal flag was ever set.
func (d *Driver) Run(p *declpass.Processor, h Handlers) bool {
	drain(d, p.Class, h.Class)
	if d.Fatal() {
		return true
	}
	drain(d, p.Global, h.Global)
	if d.Fatal() {
		return true
	}
	drainFunctionDecls(d, p.Function, h.FunctionDecl)
	if d.Fatal() {
		return true
	}
	drain(d, p.Const, h.Const)
	if d.Fatal() {
		return true
	}
	// The function-body stage grows as earlier stages enqueue into it, so
	// it drains to a fixed point of its own: keep draining until a pass
	// adds nothing new.
	for {
		d.functionBodyMu.Lock()
		batch := d.functionBody
		d.functionBody = nil
		d.functionBodyMu.Unlock()
		if len(batch) == 0 {
			break
		}
		drain(d, batch, h.FunctionBody)
		if d.Fatal() {
			return true
		}
	}
	return d.Fatal()
}

// drain runs fn over every item in items, bounded to d.Concurrency
// goroutines, collecting the first fatal error via errgroup while every
// item still gets a chance to report its own diagnostics (diagnostics are
// reported by fn itself through a concurrency-safe sink, not returned
// here).
func drain[T any](d *Driver, items []T, fn func(T) error) {
	if fn == nil || len(items) == 0 {
		return
	}
	g := new(errgroup.Group)
	if d.Concurrency > 0 {
		g.SetLimit(d.Concurrency)
	}
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := fn(item); err != nil {
				d.SetFatal()
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
}

// drainFunctionDecls is drain specialized for the FunctionDecl handler,
// which additionally needs the Driver to enqueue resolved bodies onto the
// function-body stage.
func drainFunctionDecls(d *Driver, items []*declpass.FunctionQueueItem, fn func(*declpass.FunctionQueueItem, *Driver) error) {
	if fn == nil || len(items) == 0 {
		return
	}
	g := new(errgroup.Group)
	if d.Concurrency > 0 {
		g.SetLimit(d.Concurrency)
	}
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := fn(item, d); err != nil {
				d.SetFatal()
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
}
