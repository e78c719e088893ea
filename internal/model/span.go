// Package model defines the data structures shared by the tesc language
// pipeline: source spans, tokens, types, values, AST nodes, diagnostics
// and run reports.
package model

import "fmt"

// Span locates a region of a source file. Offsets are byte offsets into the
// file contents; Line and Col are 1-based and refer to the start of the span.
type Span struct {
	File   string
	Offset int
	End    int
	Line   int
	Col    int
}

// String renders the span as file:line:col.
func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// Join returns a span covering both s and other. The earlier start wins the
// line/column anchor.
func (s Span) Join(other Span) Span {
	out := s
	if other.Offset < s.Offset {
		out.Offset = other.Offset
		out.Line = other.Line
		out.Col = other.Col
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}
