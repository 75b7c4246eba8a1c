// Package source tracks the set of files loaded into one compilation and
// the byte spans used to anchor diagnostics back to them.
package source

import "fmt"

// Unit is one imported source file with a stable, monotonic id assigned in
// load order. Ids, not file names, are what every AST and IR node carries,
// so a renamed or re-read file never invalidates a Span.
type Unit struct {
	ID       int
	Path     string
	Contents []byte
}

// Span is a half-open byte range within one Unit. It carries no line/column
// information itself; that is derived on demand by a Set, so spans stay
// cheap to copy through every AST and CFG node.
type Span struct {
	File  int
	Start int
	End   int
}

// Pos is a line/column location, 1-based, rendered for a human.
type Pos struct {
	Line   int
	Column int
}

// Set owns every Unit loaded for one compilation. It is the only thing that
// knows how to turn a byte offset into a line/column, and the only thing
// that owns the backing buffers diagnostics render against.
type Set struct {
	units  []*Unit
	byPath map[string]int
}

// NewSet returns an empty file set.
func NewSet() *Set {
	return &Set{byPath: map[string]int{}}
}

// Add registers path with contents and returns its Unit. Re-adding the same
// path returns the existing Unit unchanged; the driver is responsible for
// re-reading a file if it wants fresh contents under a new Unit.
func (s *Set) Add(path string, contents []byte) *Unit {
	if id, ok := s.byPath[path]; ok {
		return s.units[id]
	}
	u := &Unit{ID: len(s.units), Path: path, Contents: contents}
	s.units = append(s.units, u)
	s.byPath[path] = u.ID
	return u
}

// Unit returns the Unit for id, or nil if id is out of range.
func (s *Set) Unit(id int) *Unit {
	if id < 0 || id >= len(s.units) {
		return nil
	}
	return s.units[id]
}

// Units returns every loaded unit, in load order.
func (s *Set) Units() []*Unit {
	return s.units
}

// Position converts a byte offset within Span.File into a 1-based
// line/column. An out-of-range file id yields the zero Pos.
func (s *Set) Position(sp Span) Pos {
	u := s.Unit(sp.File)
	if u == nil {
		return Pos{}
	}
	line, col := 1, 1
	limit := sp.Start
	if limit > len(u.Contents) {
		limit = len(u.Contents)
	}
	for i := 0; i < limit; i++ {
		if u.Contents[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return Pos{Line: line, Column: col}
}

// Text returns the source slice covered by sp, clamped to the unit's
// contents so a stale or malformed span never panics a diagnostic renderer.
func (s *Set) Text(sp Span) string {
	u := s.Unit(sp.File)
	if u == nil {
		return ""
	}
	start, end := sp.Start, sp.End
	if start < 0 {
		start = 0
	}
	if end > len(u.Contents) {
		end = len(u.Contents)
	}
	if start > end {
		return ""
	}
	return string(u.Contents[start:end])
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }
