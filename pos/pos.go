// Package pos defines source locations and spans shared by every other
// package in corepeg: the grammar IR, the tree model, the engine, and
// the diagnostics renderer all locate themselves in the input using
// these two types.
package pos

import "fmt"

// A Location is a single point in an input buffer, given as a 1-based
// line, a 1-based column, and a 0-based byte offset. Column counts
// bytes, not runes, matching the ASCII-oriented grammar surface (cf.
// spec §1 Non-goals: no Unicode normalization).
type Location struct {
	Line   int
	Column int
	Offset int
}

// Less reports whether l occurs strictly before m in the input.
func (l Location) Less(m Location) bool { return l.Offset < m.Offset }

func (l Location) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Column) }

// A Span covers the half-open byte range [Start.Offset, End.Offset) of
// an input buffer. Start.Offset must be <= End.Offset.
type Span struct {
	Start Location
	End   Location
}

func (s Span) String() string { return fmt.Sprintf("%s-%s", s.Start, s.End) }

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End.Offset - s.Start.Offset }

// Union returns the smallest span covering both s and t. It compares
// offsets only, so it is meaningful only for spans drawn from the same
// input.
func Union(s, t Span) Span {
	u := s
	if t.Start.Offset < u.Start.Offset {
		u.Start = t.Start
	}
	if t.End.Offset > u.End.Offset {
		u.End = t.End
	}
	return u
}

// Locate walks text from the beginning, returning the Location at the
// given byte offset. It is O(len(text)); callers that need many lookups
// over the same text should use a Locator instead.
func Locate(text string, offset int) Location {
	return NewLocator(text).At(offset)
}

// A Locator amortizes repeated offset->Location lookups over the same
// text by precomputing line-start offsets once.
type Locator struct {
	text        string
	lineStarts  []int
}

// NewLocator builds a Locator for text.
func NewLocator(text string) *Locator {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Locator{text: text, lineStarts: starts}
}

// At returns the Location of the given byte offset.
func (lc *Locator) At(offset int) Location {
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(lc.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lc.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo + 1
	col := offset - lc.lineStarts[lo] + 1
	return Location{Line: line, Column: col, Offset: offset}
}
