// Package diag renders parse diagnostics in the Rust-compiler style
// described in spec §6: a gutter-aligned source snippet with
// underlines, severity-tagged headers, labels, and optional help text.
// It also accumulates the diagnostics produced by the engine's
// advanced recovery mode (spec §4.5).
package diag

import (
	"fmt"
	"strings"

	"github.com/gopeg/corepeg/pos"
)

// A Severity tags a Diagnostic's header line and color/weight in a
// terminal renderer (the text renderer here just emits the tag).
type Severity int

const (
	Error Severity = iota
	Warning
	Help
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Help:
		return "help"
	case Note:
		return "note"
	default:
		return "diagnostic"
	}
}

// A Label annotates a span within the snippet, underlined with `^^^`
// when Primary, `---` otherwise (spec §6 example).
type Label struct {
	Span    pos.Span
	Message string
	Primary bool
}

// A Diagnostic is one reported problem: an optional error code, a
// headline message, zero or more labeled spans, and optional help
// text, following the same shape as go/scanner.Error plus the
// richer Rust-style labels spec §6 asks for.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g. "E0001"; empty if the grammar assigns none
	Message  string
	Labels   []Label
	Help     string
}

// Error implements the error interface with a single-line rendering,
// so a Diagnostic can be returned and compared like any other error
// (e.g. from ir.Validate-style call sites).
func (d *Diagnostic) Error() string {
	if len(d.Labels) == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", d.Severity, d.Message, d.Labels[0].Span.Start)
}

// Render formats d against source text named filename in the
// gutter-aligned style of spec §6:
//
//	error[E0001]: unexpected token
//	  --> input.peg:3:5
//	   |
//	 3 | foo <- 'a' 'b'
//	   |     ^^^ expected ':='
//	   = help: did you mean '<-'?
func Render(filename, source string, d *Diagnostic) string {
	var b strings.Builder

	tag := d.Severity.String()
	if d.Code != "" {
		tag = fmt.Sprintf("%s[%s]", tag, d.Code)
	}
	fmt.Fprintf(&b, "%s: %s\n", tag, d.Message)

	if len(d.Labels) == 0 {
		return b.String()
	}

	primary := d.Labels[0]
	for _, l := range d.Labels {
		if l.Primary {
			primary = l
			break
		}
	}
	loc := primary.Span.Start
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", filename, loc.Line, loc.Column)

	lines := strings.Split(source, "\n")
	lineNo := loc.Line
	gutter := len(fmt.Sprint(lineNo))
	pad := strings.Repeat(" ", gutter+1)

	fmt.Fprintf(&b, "%s |\n", pad)
	var lineText string
	if lineNo-1 >= 0 && lineNo-1 < len(lines) {
		lineText = lines[lineNo-1]
	}
	fmt.Fprintf(&b, " %*d | %s\n", gutter, lineNo, lineText)

	underline := make([]byte, 0, len(lineText))
	for i := 0; i < loc.Column-1; i++ {
		underline = append(underline, ' ')
	}
	width := primary.Span.Len()
	if width < 1 {
		width = 1
	}
	mark := byte('^')
	if !primary.Primary && len(d.Labels) > 0 {
		mark = '-'
	}
	for i := 0; i < width; i++ {
		underline = append(underline, mark)
	}
	fmt.Fprintf(&b, "%s | %s", pad, underline)
	if primary.Message != "" {
		fmt.Fprintf(&b, " %s", primary.Message)
	}
	b.WriteByte('\n')

	for _, l := range d.Labels {
		if l.Primary || l.Span == primary.Span {
			continue
		}
		fmt.Fprintf(&b, "%s | %s--- %s\n", pad, strings.Repeat(" ", l.Span.Start.Column-1), l.Message)
	}

	if d.Help != "" {
		fmt.Fprintf(&b, "%s = help: %s\n", pad, d.Help)
	}
	return b.String()
}

// RenderAll renders a batch of diagnostics, separated by blank lines,
// as produced by advanced recovery mode (spec §4.5).
func RenderAll(filename, source string, ds []*Diagnostic) string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Render(filename, source, d))
	}
	return b.String()
}
