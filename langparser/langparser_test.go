package langparser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopeg/corepeg/cst"
	"github.com/gopeg/corepeg/engine"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/langparser"
)

func TestParseLiteralSequenceChoice(t *testing.T) {
	g, err := langparser.Parse(`
Root <- "foo" "bar" / "baz"
`)
	require.NoError(t, err)
	require.Len(t, g.Rules, 1)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("foobar")
	require.NoError(t, err)
	assert.Equal(t, "foobar", cst.Text(n))

	n, err = e.ParseCST("baz")
	require.NoError(t, err)
	assert.Equal(t, "baz", n.Text)
}

func TestParseCharClassAndQuantifiers(t *testing.T) {
	g, err := langparser.Parse(`
Root <- [0-9]+ ","?
`)
	require.NoError(t, err)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("123,")
	require.NoError(t, err)
	_, err = e.ParseCST("123")
	require.NoError(t, err)
	_, err = e.ParseCST("")
	assert.Error(t, err)
}

func TestParsePredicatesAndAny(t *testing.T) {
	g, err := langparser.Parse(`
Root <- !"x" .
`)
	require.NoError(t, err)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("y")
	require.NoError(t, err)
	_, err = e.ParseCST("x")
	assert.Error(t, err)
}

func TestParseTokenBoundaryAndWhitespace(t *testing.T) {
	g, err := langparser.Parse(`
%whitespace <- [ \t\n]*
Root <- <[0-9]+> <[0-9]+>
`)
	require.NoError(t, err)
	require.NotNil(t, g.Whitespace)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	n, err := e.ParseCST("12   34")
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "12", n.Children[0].Text)
	assert.Equal(t, "34", n.Children[1].Text)
}

func TestParseCaptureBackReferenceAndScope(t *testing.T) {
	g, err := langparser.Parse(`
Root <- $(  $tag<[a-z]+> "-" $tag )
`)
	require.NoError(t, err)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("abc-abc")
	require.NoError(t, err)
	_, err = e.ParseCST("abc-xyz")
	assert.Error(t, err)
}

func TestParseCutAndCaseInsensitiveLiteral(t *testing.T) {
	g, err := langparser.Parse(`
Root <- ("a" ^ "b") / "ac" / "HELLO"i
`)
	require.NoError(t, err)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("ac")
	assert.Error(t, err)

	_, err = e.ParseCST("ab")
	require.NoError(t, err)

	_, err = e.ParseCST("hello")
	require.NoError(t, err)
}

func TestParseRepetitionBounds(t *testing.T) {
	g, err := langparser.Parse(`
Root <- "a"{2,3}
`)
	require.NoError(t, err)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)

	_, err = e.ParseCST("a")
	assert.Error(t, err)
	_, err = e.ParseCST("aa")
	assert.NoError(t, err)
}

func TestParseRuleErrorMessage(t *testing.T) {
	g, err := langparser.Parse(`
Root("expected digits") <- [0-9]+
`)
	require.NoError(t, err)
	require.Equal(t, "expected digits", g.Rules[0].ErrorMessage)
}

func TestParseCommentsAreIgnored(t *testing.T) {
	g, err := langparser.Parse(`
# a line comment before the first rule
Root <- "x" # trailing comment
`)
	require.NoError(t, err)
	require.Len(t, g.Rules, 1)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := langparser.Parse(`Root <- "unterminated`)
	require.Error(t, err)
	var se *langparser.SyntaxError
	assert.ErrorAs(t, err, &se)
}

func TestParseIgnoreOperator(t *testing.T) {
	g, err := langparser.Parse(`
Root <- "a" ~"b" "c"
`)
	require.NoError(t, err)
	_, ok := g.Rules[0].Expression.(*ir.Sequence)
	require.True(t, ok)

	e, err := engine.New(g, engine.Config{})
	require.NoError(t, err)
	n, err := e.ParseCST("abc")
	require.NoError(t, err)
	// The ignored "b" contributes no child node.
	require.Len(t, n.Children, 2)
}
