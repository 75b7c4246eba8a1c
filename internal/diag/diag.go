// Package diag implements the compiler's diagnostic accumulator: the
// severities, codes, and span-anchored messages every pipeline stage
// appends to instead of returning a bare error.
package diag

import (
	"fmt"
	"sort"

	"github.com/mickey951112/solang/internal/source"
)

// Severity classifies a Diagnostic. Only Error aborts the pipeline at a
// stage boundary; Warning and Info are informational and never stop
// compilation on their own.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Code identifies a diagnostic's taxonomy entry (§7 of the spec this repo
// implements). Codes are grouped by stage so a reader can tell which pass
// produced a diagnostic from the code alone.
type Code string

const (
	// Lex/parse.
	ErrUnexpectedChar    Code = "LEX001"
	ErrUnterminatedStr   Code = "LEX002"
	ErrMalformedNumber   Code = "LEX003"
	ErrUnbalancedDelim   Code = "LEX004"
	ErrAddressChecksum   Code = "LEX005"
	ErrParseUnexpected   Code = "PAR001"
	ErrParseUnsupported  Code = "PAR002"
	WarnPragmaIgnored    Code = "PAR003"

	// Name resolution.
	ErrUnknownIdent      Code = "RES001"
	ErrAmbiguousImport   Code = "RES002"
	ErrDuplicateDecl     Code = "RES003"
	ErrCircularInherit   Code = "RES004"
	ErrUnlinearizable    Code = "RES005"
	ErrAmbiguousOverload Code = "RES006"
	ErrNoOverloadMatch   Code = "RES007"

	// Types.
	ErrIncompatibleTypes Code = "TYP001"
	ErrWouldTruncate     Code = "TYP002"
	ErrSignMismatch      Code = "TYP003"
	ErrArgCount          Code = "TYP004"
	ErrIllegalLocation   Code = "TYP005"
	ErrMutability        Code = "TYP006"

	// Semantic.
	WarnUnreachable      Code = "SEM001"
	WarnUninitializedUse Code = "SEM002"
	ErrConstOOB          Code = "SEM003"
	ErrConstDivZero      Code = "SEM004"
	ErrBreakOutsideLoop  Code = "SEM005"
	ErrContinueOutLoop   Code = "SEM006"

	// Backend.
	ErrSelectorCollision Code = "GEN001"
	ErrUnsupportedTarget Code = "GEN002"
	ErrInternal          Code = "GEN003"
)

// Diagnostic is one structured compiler message. It implements error so a
// stage can return the accumulated Diagnostics as a regular Go error when
// it needs to, but stages are expected to keep appending to a shared Bag
// instead of returning early.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Span     source.Span
	Notes    []string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Bag accumulates diagnostics across every stage of one compilation and
// deduplicates by (span, message) the way spec §4.6 requires.
type Bag struct {
	files *source.Set
	items []Diagnostic
	seen  map[string]struct{}
}

// NewBag returns an empty accumulator. files is used only for rendering;
// nil is fine for a Bag whose diagnostics are never rendered to text.
func NewBag(files *source.Set) *Bag {
	return &Bag{files: files, seen: map[string]struct{}{}}
}

// Add appends d unless an identical (span, message) pair was already
// recorded.
func (b *Bag) Add(d Diagnostic) {
	key := fmt.Sprintf("%d:%d:%d|%s", d.Span.File, d.Span.Start, d.Span.End, d.Message)
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.items = append(b.items, d)
}

// Errorf appends an Error-severity diagnostic.
func (b *Bag) Errorf(code Code, sp source.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: Error, Code: code, Message: fmt.Sprintf(format, args...), Span: sp})
}

// Warnf appends a Warning-severity diagnostic.
func (b *Bag) Warnf(code Code, sp source.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...), Span: sp})
}

// Infof appends an Info-severity diagnostic.
func (b *Bag) Infof(code Code, sp source.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: Info, Code: code, Message: fmt.Sprintf(format, args...), Span: sp})
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
// Stages call this at their boundary to decide whether to abort (spec §2).
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns every diagnostic recorded so far, in insertion order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Sorted returns every diagnostic ordered by file then byte offset, stable
// for equal positions: the order a human expects when scanning top to
// bottom of a file.
func (b *Bag) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), b.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.File != out[j].Span.File {
			return out[i].Span.File < out[j].Span.File
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

// Render formats every diagnostic as "file:line:col: severity[code]: msg"
// plus a caret-underlined source line, the textual form spec §4.6 asks for
// in addition to the unformatted slice the language-server collaborator
// consumes directly via All/Sorted.
func (b *Bag) Render() string {
	var out []byte
	for _, d := range b.Sorted() {
		out = append(out, b.renderOne(d)...)
	}
	return string(out)
}

func (b *Bag) renderOne(d Diagnostic) []byte {
	var pos source.Pos
	var path string
	if b.files != nil {
		pos = b.files.Position(d.Span)
		if u := b.files.Unit(d.Span.File); u != nil {
			path = u.Path
		}
	}
	line := fmt.Sprintf("%s:%s: %s[%s]: %s\n", path, pos, d.Severity, d.Code, d.Message)
	out := []byte(line)
	if b.files != nil {
		if src := sourceLine(b.files, d.Span); src != "" {
			out = append(out, []byte(fmt.Sprintf("    %s\n", src))...)
			out = append(out, []byte(fmt.Sprintf("    %s^\n", caretPad(pos.Column-1)))...)
		}
	}
	for _, n := range d.Notes {
		out = append(out, []byte(fmt.Sprintf("    note: %s\n", n))...)
	}
	return out
}

func caretPad(n int) string {
	if n < 0 {
		n = 0
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func sourceLine(files *source.Set, sp source.Span) string {
	u := files.Unit(sp.File)
	if u == nil {
		return ""
	}
	start := sp.Start
	for start > 0 && u.Contents[start-1] != '\n' {
		start--
	}
	end := sp.Start
	for end < len(u.Contents) && u.Contents[end] != '\n' {
		end++
	}
	return string(u.Contents[start:end])
}
