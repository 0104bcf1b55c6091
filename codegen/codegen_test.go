package codegen_test

import (
	"go/format"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopeg/corepeg/codegen"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
)

var at = pos.Location{}

func TestGenerateLiteralSequenceChoiceCompiles(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewChoice(at,
			ir.NewSequence(at, ir.NewLiteral(at, "foo", false), ir.NewLiteral(at, "bar", false)),
			ir.NewLiteral(at, "baz", false),
		)},
	}}
	src, err := codegen.GenerateString(g, codegen.Config{Package: "genfoo"})
	require.NoError(t, err)
	assert.Contains(t, src, "package genfoo")
	assert.Contains(t, src, "func Parse(input string)")
	assert.Contains(t, src, "parseRule_Root")

	_, err = format.Source([]byte(src))
	assert.NoError(t, err, "generated source must be valid, gofmt-able Go")
}

func TestGenerateRepetitionAndCharClass(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewOneOrMore(at, ir.NewCharClass(at, [][2]rune{{'0', '9'}}, false, false))},
	}}
	src, err := codegen.GenerateString(g, codegen.Config{Package: "gendigits"})
	require.NoError(t, err)
	_, err = format.Source([]byte(src))
	assert.NoError(t, err)
}

func TestGenerateCutTokenBoundaryCaptureAdvanced(t *testing.T) {
	g := &ir.Grammar{
		Whitespace: ir.NewCharClass(at, [][2]rune{{' ', ' '}}, false, false),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewSequence(at,
				ir.NewCapture(at, "tag", ir.NewTokenBoundary(at, ir.NewOneOrMore(at, ir.NewCharClass(at, [][2]rune{{'a', 'z'}}, false, false)))),
				ir.NewChoice(at,
					ir.NewSequence(at, ir.NewLiteral(at, "-", false), ir.NewCut(at), ir.NewBackReference(at, "tag")),
					ir.NewLiteral(at, "end", false),
				),
			)},
		},
	}
	src, err := codegen.GenerateString(g, codegen.Config{Package: "gentag", Profile: codegen.Advanced})
	require.NoError(t, err)
	assert.Contains(t, src, "ParseWithDiagnostics")
	assert.Contains(t, src, "diag.Diagnostic")

	_, err = format.Source([]byte(src))
	assert.NoError(t, err)
}

func TestGenerateDictionaryAndIgnore(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewSequence(at,
			ir.NewDictionary(at, []string{"a", "ab", "abc"}, false),
			ir.NewIgnore(at, ir.NewLiteral(at, ",", false)),
		)},
	}}
	src, err := codegen.GenerateString(g, codegen.Config{Package: "gendict"})
	require.NoError(t, err)
	_, err = format.Source([]byte(src))
	assert.NoError(t, err)
}

func TestGenerateRejectsInvalidGrammar(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewReference(at, "Missing")},
	}}
	_, err := codegen.GenerateString(g, codegen.Config{})
	assert.Error(t, err)
}
