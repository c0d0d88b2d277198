// Package diag implements the DiagnosticSink contract of spec.md §6.1: a
// sink that accepts (id, location, formatted-message) records and renders
// them with source context, grounded on the teacher's internal/errors
// package.
package diag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dynscript/corec/pkg/source"
)

// ID names a distinct diagnostic kind (spec.md §6.3).
type ID string

const (
	ParserUnexpectedToken           ID = "ParserUnexpectedToken"
	ParserStatementExpected         ID = "ParserStatementExpected"
	ParserExpectedPrimaryExpression ID = "ParserExpectedPrimaryExpression"
	ParserExpectedVariableName      ID = "ParserExpectedVariableName"
	ScannerInvalidCharacter         ID = "ScannerInvalidCharacter"
	ScannerInvalidInteger           ID = "ScannerInvalidInteger"
	ScannerUnendedStringLiteral     ID = "ScannerUnendedStringLiteral"
	SemaDuplicateNamespaceName      ID = "SemaDuplicateNamespaceName"
	SemaDuplicateClassName          ID = "SemaDuplicateClassName"
	SemaDuplicateGlobalVariableName ID = "SemaDuplicateGlobalVariableName"
	SemaDuplicateFunctionName       ID = "SemaDuplicateFunctionName"
	SemaDuplicateLocalName          ID = "SemaDuplicateLocalName"
	SemaUnresolvedClass             ID = "SemaUnresolvedClass"
	SemaAmbiguousClass              ID = "SemaAmbiguousClass"
	SemaNamespaceNotFound           ID = "SemaNamespaceNotFound"
	SemaInvalidNamespaceMemberName  ID = "SemaInvalidNamespaceMemberName"
	SemaPreviousDeclaration         ID = "SemaPreviousDeclaration"

	// SPEC_FULL §6.3 additions.
	SemaAmbiguousOverload   ID = "SemaAmbiguousOverload"
	SemaTypeMismatch        ID = "SemaTypeMismatch"
	SemaInvalidReturnType   ID = "SemaInvalidReturnType"
	SemaNotAnLValue         ID = "SemaNotAnLValue"
	SemaCallArityMismatch   ID = "SemaCallArityMismatch"
	SemaConstantInitCycle   ID = "SemaConstantInitCycle"
)

// templates holds the fixed message template per ID, with %s-style
// positional substitutions, per spec.md §6.1/§6.3.
var templates = map[ID]string{
	ParserUnexpectedToken:           "unexpected token %s",
	ParserStatementExpected:         "statement expected, found %s",
	ParserExpectedPrimaryExpression: "expected a primary expression, found %s",
	ParserExpectedVariableName:      "expected a variable name, found %s",
	ScannerInvalidCharacter:         "invalid character %s",
	ScannerInvalidInteger:           "invalid integer literal %s",
	ScannerUnendedStringLiteral:     "unended string literal",
	SemaDuplicateNamespaceName:      "duplicate namespace name %s",
	SemaDuplicateClassName:          "duplicate class name %s",
	SemaDuplicateGlobalVariableName: "duplicate global variable name %s",
	SemaDuplicateFunctionName:       "duplicate function name %s",
	SemaDuplicateLocalName:          "duplicate local variable name %s",
	SemaUnresolvedClass:             "unresolved class %s",
	SemaAmbiguousClass:              "ambiguous class name %s",
	SemaNamespaceNotFound:           "namespace %s not found",
	SemaInvalidNamespaceMemberName:  "invalid namespace member name %s",
	SemaPreviousDeclaration:         "previous declaration of %s is here",
	SemaAmbiguousOverload:           "call to %s is ambiguous between %s overloads",
	SemaTypeMismatch:                "cannot convert %s to %s",
	SemaInvalidReturnType:           "return type %s does not match function return type %s",
	SemaNotAnLValue:                 "%s is not assignable",
	SemaCallArityMismatch:           "%s expects %s arguments",
	SemaConstantInitCycle:           "constant %s has a cyclic initializer",
}

// Diagnostic is one recorded report.
type Diagnostic struct {
	ID   ID
	Pos  source.Position
	Args []string
}

// Message renders the diagnostic's template with its positional arguments.
func (d Diagnostic) Message() string {
	tmpl, ok := templates[d.ID]
	if !ok {
		tmpl = string(d.ID)
	}
	args := make([]interface{}, len(d.Args))
	for i, a := range d.Args {
		args[i] = a
	}
	return fmt.Sprintf(tmpl, args...)
}

// Builder accumulates substitution arguments for one report() call and
// commits the diagnostic to its sink when Emit is called, matching the
// "builder committed on destruction" contract of spec.md §6.1 (Go has no
// destructors, so commit is explicit rather than implicit).
type Builder struct {
	sink Sink
	d    Diagnostic
}

// Arg appends a positional substitution argument.
func (b *Builder) Arg(a string) *Builder {
	b.d.Args = append(b.d.Args, a)
	return b
}

// Emit commits the diagnostic to the sink that created this builder.
func (b *Builder) Emit() {
	b.sink.record(b.d)
}

// Sink is the DiagnosticSink contract of spec.md §6.1. It must not throw
// back into the compiler: Report always succeeds and returns a Builder.
type Sink interface {
	Report(id ID, pos source.Position) *Builder
	record(d Diagnostic)
}

// base implements the shared Report/record plumbing for concrete sinks.
type base struct {
	self Sink
}

func (s *base) Report(id ID, pos source.Position) *Builder {
	return &Builder{sink: s.self, d: Diagnostic{ID: id, Pos: pos}}
}

// CollectingSink buffers diagnostics behind a mutex, safe for the
// worklist driver's concurrent stage draining (internal/worklist.drain).
type CollectingSink struct {
	base
	mu          sync.Mutex
	Diagnostics []Diagnostic
}

// NewCollectingSink returns an empty collecting sink.
func NewCollectingSink() *CollectingSink {
	s := &CollectingSink{}
	s.self = s
	return s
}

func (s *CollectingSink) record(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Diagnostics = append(s.Diagnostics, d)
}

// HasErrors reports whether any diagnostic was recorded.
func (s *CollectingSink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Diagnostics) > 0
}

// TextSink renders diagnostics immediately as formatted text with source
// context, grounded on CompilerError.Format/FormatWithContext. record is
// mutex-guarded for the same reason CollectingSink's is: the worklist
// driver drains a stage's items concurrently, and strings.Builder is not
// safe for concurrent writes on its own.
type TextSink struct {
	base
	Manager *source.Manager
	Color   bool
	Out     *strings.Builder
	mu      sync.Mutex
}

// NewTextSink returns a sink that accumulates formatted text in Out.
func NewTextSink(mgr *source.Manager, color bool) *TextSink {
	s := &TextSink{Manager: mgr, Color: color, Out: &strings.Builder{}}
	s.self = s
	return s
}

func (s *TextSink) record(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Out.WriteString(s.Format(d))
}

// Format renders one diagnostic the way the teacher's CompilerError.Format
// does: a file:line:col header, a "%4d | "-gutter source line, and a caret
// line, with optional ANSI color.
func (s *TextSink) Format(d Diagnostic) string {
	var sb strings.Builder
	name := "?"
	if s.Manager != nil {
		name = s.Manager.Name(d.Pos.File)
	}
	sb.WriteString(fmt.Sprintf("error: %s\n", d.Message()))
	sb.WriteString(fmt.Sprintf("  --> %s:%d:%d\n", name, d.Pos.Line, d.Pos.Column))

	if s.Manager != nil {
		line := s.Manager.Line(d.Pos.File, d.Pos.Line)
		if line != "" {
			gutter := fmt.Sprintf("%4d | ", d.Pos.Line)
			sb.WriteString(gutter)
			sb.WriteString(line)
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(gutter)+d.Pos.Column-1))
			if s.Color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if s.Color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
