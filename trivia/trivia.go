// Package trivia classifies the whitespace and comment text collected
// by the engine between significant tokens (spec §3 "Trivia").
package trivia

import (
	"strings"

	"github.com/gopeg/corepeg/pos"
)

// A Kind distinguishes the three trivia variants. Classification is a
// fixed rule (spec §3): text starting with "//" is LineComment,
// starting with "/*" is BlockComment, anything else is Whitespace.
type Kind int

const (
	Whitespace Kind = iota
	LineComment
	BlockComment
)

func (k Kind) String() string {
	switch k {
	case Whitespace:
		return "Whitespace"
	case LineComment:
		return "LineComment"
	case BlockComment:
		return "BlockComment"
	default:
		return "Kind(?)"
	}
}

// A Trivia is one classified slice of whitespace or comment text.
type Trivia struct {
	Kind Kind
	Span pos.Span
	Text string
}

// Classify returns the Kind of a raw trivia slice, per the fixed rule
// in spec §3.
func Classify(text string) Kind {
	switch {
	case strings.HasPrefix(text, "//"):
		return LineComment
	case strings.HasPrefix(text, "/*"):
		return BlockComment
	default:
		return Whitespace
	}
}

// New builds a Trivia, classifying text automatically.
func New(span pos.Span, text string) Trivia {
	return Trivia{Kind: Classify(text), Span: span, Text: text}
}
