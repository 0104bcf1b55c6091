package engine_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopeg/corepeg/action"
	"github.com/gopeg/corepeg/cst"
	"github.com/gopeg/corepeg/diag"
	"github.com/gopeg/corepeg/engine"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
)

var at = pos.Location{}

func digitClass() *ir.CharClass {
	return ir.NewCharClass(at, [][2]rune{{'0', '9'}}, false, false)
}

func wsClass() *ir.CharClass {
	return ir.NewCharClass(at, [][2]rune{{' ', ' '}, {'\t', '\t'}, {'\n', '\n'}}, false, false)
}

func TestParseCSTLiteral(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewLiteral(at, "hello", false)},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("hello")
	require.NoError(t, err)
	assert.Equal(t, "Root", n.Rule)
	assert.Equal(t, cst.Terminal, n.Kind)
	assert.Equal(t, "hello", n.Text)
}

func TestParseCSTLiteralMismatch(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewLiteral(at, "hello", false)},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("goodbye")
	assert.Error(t, err)
}

func TestParseCSTSequenceWithWhitespace(t *testing.T) {
	g := &ir.Grammar{
		Whitespace: wsClass(),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewSequence(at, ir.NewLiteral(at, "foo", false), ir.NewLiteral(at, "bar", false))},
		},
	}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("foo   bar")
	require.NoError(t, err)
	require.Equal(t, cst.NonTerminal, n.Kind)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "foo", n.Children[0].Text)
	assert.Equal(t, "bar", n.Children[1].Text)
	// The whitespace expression matches one character at a time, so
	// each of the three spaces is its own trivia item.
	require.Len(t, n.Children[1].LeadingTrivia, 3)
	assert.Equal(t, " ", n.Children[1].LeadingTrivia[0].Text)
	assert.Equal(t, "foo   bar", cst.TriviaAndText(n))
}

func TestParseCSTChoicePicksFirstMatch(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewChoice(at, ir.NewLiteral(at, "a", false), ir.NewLiteral(at, "b", false))},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("b")
	require.NoError(t, err)
	assert.Equal(t, "b", n.Text)

	_, err = e.ParseCST("c")
	assert.Error(t, err)
}

func TestParseCSTOneOrMoreDigits(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewOneOrMore(at, digitClass())},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("123")
	require.NoError(t, err)
	assert.Len(t, n.Children, 3)
	assert.Equal(t, "123", cst.Text(n))

	_, err = e.ParseCST("")
	assert.Error(t, err)
}

func TestParseCSTTokenBoundaryProducesTokenNode(t *testing.T) {
	g := &ir.Grammar{
		Whitespace: wsClass(),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewTokenBoundary(at, ir.NewOneOrMore(at, digitClass()))},
		},
	}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("123")
	require.NoError(t, err)
	assert.Equal(t, cst.Token, n.Kind)
	assert.Equal(t, "123", n.Text)
}

func TestParseCSTCaptureAndBackReference(t *testing.T) {
	// Root <- $tag<[a-z]+> "-" $tag
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewSequence(at,
			ir.NewCapture(at, "tag", ir.NewTokenBoundary(at, ir.NewOneOrMore(at, ir.NewCharClass(at, [][2]rune{{'a', 'z'}}, false, false)))),
			ir.NewLiteral(at, "-", false),
			ir.NewBackReference(at, "tag"),
		)},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("abc-abc")
	require.NoError(t, err)
	assert.Equal(t, "abc-abc", cst.Text(n))

	_, err = e.ParseCST("abc-xyz")
	assert.Error(t, err)
}

func TestParseCSTCutPreventsBacktrack(t *testing.T) {
	// Root <- ("a" ^ "b") / "ac"
	// Once the first alternative commits past the cut, failing to
	// match "b" must not fall through to the second alternative.
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewChoice(at,
			ir.NewSequence(at, ir.NewLiteral(at, "a", false), ir.NewCut(at), ir.NewLiteral(at, "b", false)),
			ir.NewLiteral(at, "ac", false),
		)},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("ac")
	assert.Error(t, err, "cut inside the first alternative must block falling through to the second")

	n, err := e.ParseCST("ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", cst.Text(n))
}

func TestParseValueInvokesActions(t *testing.T) {
	// Digits <- [0-9]+ with an action parsing to int64.
	// Root <- Digits "+" Digits, action sums both sides.
	digits := &ir.Rule{
		Name:       "Digits",
		Expression: ir.NewOneOrMore(at, digitClass()),
	}
	digits.Action = func(v *action.Values) (interface{}, error) {
		return strconv.ParseInt(v.Token(), 10, 64)
	}
	root := &ir.Rule{
		Name: "Root",
		Expression: ir.NewSequence(at,
			ir.NewReference(at, "Digits"),
			ir.NewLiteral(at, "+", false),
			ir.NewReference(at, "Digits"),
		),
	}
	root.Action = func(v *action.Values) (interface{}, error) {
		a, _ := v.N(1).(int64)
		b, _ := v.N(3).(int64)
		return a + b, nil
	}
	g := &ir.Grammar{Rules: []*ir.Rule{root, digits}, StartRule: "Root"}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	v, err := e.Parse("12+30")
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestParseCSTDictionaryLongestMatch(t *testing.T) {
	g := &ir.Grammar{Rules: []*ir.Rule{
		{Name: "Root", Expression: ir.NewDictionary(at, []string{"a", "ab", "abc"}, false)},
	}}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", n.Text)
}

func TestParseCSTAdvancedRecovery(t *testing.T) {
	// Root <- "x" ";"  -- retried per segment; input has one malformed segment.
	g := &ir.Grammar{
		Whitespace: wsClass(),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewSequence(at, ir.NewLiteral(at, "x", false), ir.NewLiteral(at, ";", false))},
		},
	}
	e, err := engine.New(g, engine.Config{Recovery: engine.RecoveryAdvanced})
	require.NoError(t, err)

	_, diags, err := e.ParseCSTWithDiagnostics("x; y; x;")
	require.Error(t, err)
	require.NotEmpty(t, diags)
}

func TestParseCSTAdvancedRecoveryPreservesTrivia(t *testing.T) {
	// Root <- "x" ";" -- whitespace surrounding the malformed segment
	// must reappear in the tree rather than being silently dropped.
	g := &ir.Grammar{
		Whitespace: wsClass(),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewSequence(at, ir.NewLiteral(at, "x", false), ir.NewLiteral(at, ";", false))},
		},
	}
	e, err := engine.New(g, engine.Config{Recovery: engine.RecoveryAdvanced})
	require.NoError(t, err)

	input := "x; y; x;"
	n, diags, err := e.ParseCSTWithDiagnostics(input)
	require.Error(t, err)
	require.NotEmpty(t, diags)
	require.NotNil(t, n)

	var collect func(n *cst.Node)
	var text strings.Builder
	collect = func(n *cst.Node) {
		for _, tv := range n.LeadingTrivia {
			text.WriteString(tv.Text)
		}
		if len(n.Children) > 0 {
			for _, c := range n.Children {
				collect(c)
			}
		} else {
			text.WriteString(n.Text)
		}
		for _, tv := range n.TrailingTrivia {
			text.WriteString(tv.Text)
		}
	}
	for _, tv := range n.LeadingTrivia {
		text.WriteString(tv.Text)
	}
	for _, seg := range n.Children {
		collect(seg)
	}
	for _, tv := range n.TrailingTrivia {
		text.WriteString(tv.Text)
	}
	assert.Equal(t, input, text.String())
}

func TestParseCSTSequencePredicateSeesUnskippedOffset(t *testing.T) {
	// Root <- '-' ![0-9] .*   with %whitespace <- [ \t\n]*
	// The negative lookahead must see the space immediately after '-',
	// not the '5' past it: a buggy evaluator that skips whitespace
	// before the predicate would find a digit there and fail the whole
	// sequence, even though the grammar as written should match.
	g := &ir.Grammar{
		Whitespace: wsClass(),
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewSequence(at,
				ir.NewLiteral(at, "-", false),
				ir.NewNot(at, digitClass()),
				ir.NewZeroOrMore(at, ir.NewAny(at)),
			)},
		},
	}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("- 5")
	require.NoError(t, err)
	require.NotNil(t, n)
}

func TestParseCSTReportsFurthestFailure(t *testing.T) {
	// Root <- ('ab' 'c') / 'a'
	g := &ir.Grammar{
		Rules: []*ir.Rule{
			{Name: "Root", Expression: ir.NewChoice(at,
				ir.NewSequence(at, ir.NewLiteral(at, "ab", false), ir.NewLiteral(at, "c", false)),
				ir.NewLiteral(at, "a", false),
			)},
		},
	}
	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("abx")
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Contains(t, d.Message, `"c"`)
	require.NotEmpty(t, d.Labels)
	assert.Equal(t, 2, d.Labels[0].Span.Start.Offset)
}
