// Package source maps source-id+offset pairs to line/column positions and
// extracts character ranges, the collaborator spec.md §6.1 calls SourceManager.
package source

import (
	"fmt"
	"sort"
	"strings"
)

// ID identifies one registered source file.
type ID int

// Position is a resolved line/column pair, one-based, within a source file.
type Position struct {
	File   ID
	Line   int // 1-based
	Column int // 1-based
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type file struct {
	name       string
	text       string
	lineStarts []int // byte offset of the first byte of each line
}

// Manager owns the text of every source file involved in a compilation and
// answers offset -> (line, column) queries.
type Manager struct {
	files []*file
}

// NewManager returns an empty source manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddFile registers text under name and returns its ID. Line starts are
// indexed once here, so each Position call is a binary search rather than
// a scan of the text.
func (m *Manager) AddFile(name, text string) ID {
	f := &file{name: name, text: text, lineStarts: computeLineStarts(text)}
	m.files = append(m.files, f)
	return ID(len(m.files) - 1)
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i, b := range []byte(text) {
		if b == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Name returns the registered name of id.
func (m *Manager) Name(id ID) string {
	return m.files[id].name
}

// Position resolves offset within id into a 1-based line/column pair.
func (m *Manager) Position(id ID, offset int) Position {
	f := m.files[id]
	line := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	col := offset - f.lineStarts[line] + 1
	return Position{File: id, Line: line + 1, Column: col, Offset: offset}
}

// Line returns the raw text of the 1-based line number ln within id, without
// its trailing newline.
func (m *Manager) Line(id ID, ln int) string {
	f := m.files[id]
	if ln < 1 || ln > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[ln-1]
	end := len(f.text)
	if ln < len(f.lineStarts) {
		end = f.lineStarts[ln]
	}
	return strings.TrimRight(f.text[start:end], "\n")
}

// RangeText returns the text between two offsets within the same file.
func (m *Manager) RangeText(id ID, startOffset, endOffset int) string {
	f := m.files[id]
	if startOffset < 0 {
		startOffset = 0
	}
	if endOffset > len(f.text) {
		endOffset = len(f.text)
	}
	if startOffset >= endOffset {
		return ""
	}
	return f.text[startOffset:endOffset]
}
