// Package codegen is the standalone code-generator collaborator (spec
// §4.7): given the same ir.Grammar the engine interprets, it emits a
// single self-contained Go source file implementing the same parsing
// contracts — packrat cache keyed by (ruleID, offset), rule wrapping
// that stamps the rule name, token-boundary handling, cut semantics,
// whitespace policy, capture/back-reference, and furthest-failure
// tracking — without going through the interpretive engine at
// runtime. The generated parser skips whitespace but does not record
// the skipped text as trivia: its tree carries no LeadingTrivia or
// TrailingTrivia. Rule actions are opaque Go closures (ir.Rule.Action), not
// grammar-embedded source text, so a generated file is necessarily a
// CST-only parser; callers that need semantic values still run the
// interpretive engine's value pass, or write their own post-pass over
// the generated parser's tree.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gopeg/corepeg/ir"
)

// A Profile selects how much of the generated contract is emitted.
type Profile int

const (
	// Basic omits diagnostics, the Error node variant, and recovery.
	Basic Profile = iota
	// Advanced additionally emits a ParseWithDiagnostics entry point
	// that reports a failed parse as one diag.Diagnostic (the types are
	// imported from package diag, not emitted). It does not skip to
	// recovery points or build Error nodes.
	Advanced
)

// A Config controls generation.
type Config struct {
	// Package is the generated file's package name.
	Package string
	Profile Profile
}

// Generate writes a gofmt'd standalone parser for g to w.
func Generate(w io.Writer, g *ir.Grammar, cfg Config) error {
	if cfg.Package == "" {
		cfg.Package = "generated"
	}
	if err := ir.Validate(g); err != nil {
		return errors.Wrap(err, "codegen: invalid grammar")
	}

	e := &emitter{cfg: cfg, grammar: g}
	e.writePrelude()
	e.writeRuntime()
	for _, r := range g.Rules {
		e.writeRule(r)
	}
	e.writeDispatch()

	formatted, err := format.Source([]byte(e.b.String()))
	if err != nil {
		// Emit the unformatted source too, the same way the teacher's
		// gofmt helper in gen.go falls back so a caller can inspect
		// what went wrong instead of getting nothing.
		io.WriteString(w, e.b.String())
		return errors.Wrap(err, "codegen: generated source does not gofmt")
	}
	_, err = w.Write(formatted)
	return err
}

// GenerateString is Generate into a string, for tests and callers that
// don't need a streaming writer.
func GenerateString(g *ir.Grammar, cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := Generate(&buf, g, cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type emitter struct {
	cfg     Config
	grammar *ir.Grammar
	b       strings.Builder
	n       int
}

func (e *emitter) fresh(prefix string) string {
	e.n++
	return fmt.Sprintf("%s%d", prefix, e.n)
}

func (e *emitter) printf(format string, args ...interface{}) {
	fmt.Fprintf(&e.b, format, args...)
}

func (e *emitter) writePrelude() {
	e.printf("// Code generated by corepeg/codegen. DO NOT EDIT.\n\n")
	e.printf("package %s\n\n", e.cfg.Package)
	e.printf("import (\n")
	e.printf("\t%q\n", "github.com/gopeg/corepeg/cst")
	e.printf("\t%q\n", "github.com/gopeg/corepeg/pos")
	e.printf("\t%q\n", "github.com/gopeg/corepeg/result")
	e.printf("\t%q\n", "github.com/gopeg/corepeg/trivia")
	if e.cfg.Profile == Advanced {
		e.printf("\t%q\n", "github.com/gopeg/corepeg/diag")
	}
	e.printf("\t%q\n", "fmt")
	e.printf("\t%q\n", "strings")
	e.printf("\t%q\n", "unicode/utf8")
	e.printf(")\n\n")
}

// writeRuntime emits the small shared runtime every rule function
// calls into: the packrat cache, capture stack, leaf matchers, and
// whitespace skipping. It is duplicated into every generated file
// rather than imported from the engine package, the same way the
// teacher's own generated parsers (gen.go's templates) never import
// back into the peggy compiler: a generated artifact must stand on
// its own once the generator has run.
func (e *emitter) writeRuntime() {
	e.printf(`
type ruleKey struct {
	rule   int
	offset int
}

// Parser holds the packrat cache and capture state for one parse.
type Parser struct {
	text     string
	loc      *pos.Locator
	cache    map[ruleKey]result.Result[*cst.Node]
	captures map[string]string
	capStack []map[string]string
	tokenDepth int
	furthest *result.Fail
}

func NewParser(text string) *Parser {
	return &Parser{
		text:     text,
		loc:      pos.NewLocator(text),
		cache:    make(map[ruleKey]result.Result[*cst.Node]),
		captures: make(map[string]string),
	}
}

func (p *Parser) at(offset int) pos.Location { return p.loc.At(offset) }

func (p *Parser) recordFail(f *result.Fail) {
	p.furthest = result.Merge(p.furthest, f)
}

func (p *Parser) pushCaptureScope() {
	snap := make(map[string]string, len(p.captures))
	for k, v := range p.captures {
		snap[k] = v
	}
	p.capStack = append(p.capStack, snap)
}

func (p *Parser) popCaptureScope(restore bool) {
	n := len(p.capStack) - 1
	snap := p.capStack[n]
	p.capStack = p.capStack[:n]
	if restore {
		p.captures = snap
	}
}

func matchLiteral(text string, offset int, lit string, ci bool) (int, bool) {
	n := len(lit)
	if offset+n > len(text) {
		return offset, false
	}
	cand := text[offset : offset+n]
	if ci {
		if !strings.EqualFold(cand, lit) {
			return offset, false
		}
	} else if cand != lit {
		return offset, false
	}
	return offset + n, true
}

func matchAny(text string, offset int) (int, bool) {
	if offset >= len(text) {
		return offset, false
	}
	r, w := utf8.DecodeRuneInString(text[offset:])
	if w == 0 || (r == utf8.RuneError && w == 1) {
		return offset, false
	}
	return offset + w, true
}

func matchCharClass(text string, offset int, spans [][2]rune, negated, ci bool) (int, bool) {
	if offset >= len(text) {
		return offset, false
	}
	r, w := utf8.DecodeRuneInString(text[offset:])
	if w == 0 {
		return offset, false
	}
	in := false
	for _, sp := range spans {
		if r >= sp[0] && r <= sp[1] {
			in = true
			break
		}
		if ci {
			var alt rune
			switch {
			case r >= 'a' && r <= 'z':
				alt = r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				alt = r - 'A' + 'a'
			default:
				continue
			}
			if alt >= sp[0] && alt <= sp[1] {
				in = true
				break
			}
		}
	}
	if in == negated {
		return offset, false
	}
	return offset + w, true
}

func matchDictionary(text string, offset int, words []string, ci bool) (int, bool) {
	best := -1
	for _, w := range words {
		n := len(w)
		if offset+n > len(text) {
			continue
		}
		cand := text[offset : offset+n]
		ok := cand == w
		if ci {
			ok = strings.EqualFold(cand, w)
		}
		if ok && n > best {
			best = n
		}
	}
	if best < 0 {
		return offset, false
	}
	return offset + best, true
}

func matchBackReference(text string, offset int, captured string) (int, bool) {
	n := len(captured)
	if offset+n > len(text) || text[offset:offset+n] != captured {
		return offset, false
	}
	return offset + n, true
}
`)

	if e.grammar.Whitespace != nil {
		e.printf("func (p *Parser) skipWhitespace(offset int) (int, []trivia.Trivia) {\n")
		e.printf("\tif p.tokenDepth > 0 {\n\t\treturn offset, nil\n\t}\n")
		e.printf("\tvar out []trivia.Trivia\n")
		e.printf("\tfor {\n")
		e.printf("\t\tstart := offset\n")
		resVar := e.expr(e.grammar.Whitespace, "offset")
		e.printf("\t\tif !%s.OK() || %s.EndOffset == start {\n", resVar, resVar)
		e.printf("\t\t\tbreak\n")
		e.printf("\t\t}\n")
		e.printf("\t\toffset = %s.EndOffset\n", resVar)
		e.printf("\t\tout = append(out, trivia.New(pos.Span{Start: p.at(start), End: p.at(offset)}, p.text[start:offset]))\n")
		e.printf("\t}\n")
		e.printf("\treturn offset, out\n")
		e.printf("}\n\n")
	} else {
		e.printf("func (p *Parser) skipWhitespace(offset int) (int, []trivia.Trivia) { return offset, nil }\n\n")
	}
}

// expr emits the Go statements matching e at the Go expression
// offsetExpr and returns the name of a local variable of type
// result.Result[*cst.Node] holding the outcome. Composite
// constructs (Sequence, repeats) are responsible for skipping
// whitespace between their own sub-positions; the caller skips
// leading whitespace before invoking a construct as a whole — the
// same split the interpretive engine uses (see engine/whitespace.go).
func (e *emitter) expr(x ir.Expr, offsetExpr string) string {
	res := e.fresh("res")
	switch n := x.(type) {
	case *ir.Literal:
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if end, ok := matchLiteral(p.text, %s, %s, %t); ok {\n", offsetExpr, strconv.Quote(n.Text), n.CaseInsensitive)
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Terminal, Span: pos.Span{Start: p.at(%s), End: p.at(end)}, Text: p.text[%s:end]}, p.at(end), end)\n", res, offsetExpr, offsetExpr)
		e.printf("} else {\n")
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%s}}\n", offsetExpr, offsetExpr, strconv.Quote(strconv.Quote(n.Text)))
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.CharClass:
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if end, ok := matchCharClass(p.text, %s, %s, %t, %t); ok {\n", offsetExpr, spansLiteral(n.Spans), n.Negated, n.CaseInsensitive)
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Terminal, Span: pos.Span{Start: p.at(%s), End: p.at(end)}, Text: p.text[%s:end]}, p.at(end), end)\n", res, offsetExpr, offsetExpr)
		e.printf("} else {\n")
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%q}}\n", offsetExpr, offsetExpr, "character class")
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.Any:
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if end, ok := matchAny(p.text, %s); ok {\n", offsetExpr)
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Terminal, Span: pos.Span{Start: p.at(%s), End: p.at(end)}, Text: p.text[%s:end]}, p.at(end), end)\n", res, offsetExpr, offsetExpr)
		e.printf("} else {\n")
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%q}}\n", offsetExpr, offsetExpr, "any character")
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.Dictionary:
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if end, ok := matchDictionary(p.text, %s, %s, %t); ok {\n", offsetExpr, wordsLiteral(n.Words), n.CaseInsensitive)
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Terminal, Span: pos.Span{Start: p.at(%s), End: p.at(end)}, Text: p.text[%s:end]}, p.at(end), end)\n", res, offsetExpr, offsetExpr)
		e.printf("} else {\n")
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%q}}\n", offsetExpr, offsetExpr, "dictionary entry")
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.BackReference:
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if end, ok := matchBackReference(p.text, %s, p.captures[%s]); ok {\n", offsetExpr, strconv.Quote(n.Name))
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Terminal, Span: pos.Span{Start: p.at(%s), End: p.at(end)}, Text: p.text[%s:end]}, p.at(end), end)\n", res, offsetExpr, offsetExpr)
		e.printf("} else {\n")
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{fmt.Sprintf(\"back-reference %%q\", %s)}}\n", offsetExpr, offsetExpr, strconv.Quote(n.Name))
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.Cut:
		e.printf("%s := result.Pred[*cst.Node](p.at(%s), %s)\n", res, offsetExpr, offsetExpr)
		e.printf("_ = %s // a Cut always succeeds; Sequence below notices it separately\n", res)

	case *ir.Reference:
		e.printf("%s := p.parseRule_%s(%s)\n", res, n.RuleName, offsetExpr)

	case *ir.Group:
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("%s := %s\n", res, inner)

	case *ir.Capture:
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("%s := %s\n", res, inner)
		e.printf("if %s.OK() {\n\tp.captures[%s] = p.text[%s:%s.EndOffset]\n}\n", res, strconv.Quote(n.Name), offsetExpr, res)

	case *ir.CaptureScope:
		e.printf("p.pushCaptureScope()\n")
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("%s := %s\n", res, inner)
		e.printf("p.popCaptureScope(true)\n")

	case *ir.Ignore:
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("switch %s.Kind {\n", inner)
		e.printf("case result.Success, result.Ignored:\n\t%s = result.Ign[*cst.Node](p.text[%s:%s.EndOffset], p.at(%s.EndOffset), %s.EndOffset)\n", res, offsetExpr, inner, inner, inner)
		e.printf("case result.PredicateSuccess:\n\t%s = result.Ign[*cst.Node](\"\", p.at(%s), %s)\n", res, offsetExpr, offsetExpr)
		e.printf("default:\n\t%s = %s\n", res, inner)
		e.printf("}\n")

	case *ir.TokenBoundary:
		e.printf("p.tokenDepth++\n")
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("p.tokenDepth--\n")
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if %s.OK() {\n", inner)
		e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.Token, Span: pos.Span{Start: p.at(%s), End: %s.End}, Text: p.text[%s:%s.EndOffset]}, %s.End, %s.EndOffset)\n",
			res, offsetExpr, inner, offsetExpr, inner, inner, inner)
		e.printf("} else {\n\t%s = %s\n}\n", res, inner)

	case *ir.And:
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if %s.OK() {\n\t%s = result.Pred[*cst.Node](p.at(%s), %s)\n} else {\n", inner, res, offsetExpr, offsetExpr)
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%q}}\n", offsetExpr, offsetExpr, "lookahead to succeed")
		e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n}\n", res)

	case *ir.Not:
		inner := e.expr(n.Expr, offsetExpr)
		e.printf("var %s result.Result[*cst.Node]\n", res)
		e.printf("if %s.OK() {\n", inner)
		e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%q}}\n", offsetExpr, offsetExpr, "negative lookahead to fail")
		e.printf("\t%s = result.Err[*cst.Node](f)\n} else {\n\t%s = result.Pred[*cst.Node](p.at(%s), %s)\n}\n", res, res, offsetExpr, offsetExpr)

	case *ir.ZeroOrMore:
		e.repeat(res, n.Expr, offsetExpr, 0, -1)
	case *ir.OneOrMore:
		e.repeat(res, n.Expr, offsetExpr, 1, -1)
	case *ir.Optional:
		e.repeat(res, n.Expr, offsetExpr, 0, 1)
	case *ir.Repetition:
		max := -1
		if n.Max != nil {
			max = *n.Max
		}
		e.repeat(res, n.Expr, offsetExpr, n.Min, max)

	case *ir.Sequence:
		e.sequence(res, n, offsetExpr)

	case *ir.Choice:
		e.choice(res, n, offsetExpr)

	default:
		panic(fmt.Sprintf("codegen: unhandled expr type %T", x))
	}
	return res
}

func spansLiteral(spans [][2]rune) string {
	var b strings.Builder
	b.WriteString("[][2]rune{")
	for _, sp := range spans {
		fmt.Fprintf(&b, "{%d, %d}, ", sp[0], sp[1])
	}
	b.WriteString("}")
	return b.String()
}

func wordsLiteral(words []string) string {
	var b strings.Builder
	b.WriteString("[]string{")
	for _, w := range words {
		fmt.Fprintf(&b, "%s, ", strconv.Quote(w))
	}
	b.WriteString("}")
	return b.String()
}

// repeat emits min..max repetitions of inner, min<0 meaning unbounded
// is never passed (min is always >= 0); max<0 means unbounded.
// repeat mirrors evalRepeatCST's combinator: skip whitespace before
// every attempt (including the first — idempotent since the caller
// already skipped leading whitespace before invoking this construct
// as a whole), stop cleanly on an ordinary Failure, propagate a
// CutFailure immediately, and stop on a zero-width non-predicate
// match to avoid looping forever.
func (e *emitter) repeat(res string, inner ir.Expr, offsetExpr string, min, max int) {
	cur := e.fresh("cur")
	count := e.fresh("n")
	children := e.fresh("children")
	cutRes := e.fresh("cutRes")
	cutFired := e.fresh("cutFired")
	wsEnd := e.fresh("wsEnd")
	e.printf("%s := %s\n", cur, offsetExpr)
	e.printf("%s := 0\n", count)
	e.printf("var %s []*cst.Node\n", children)
	e.printf("var %s result.Result[*cst.Node]\n", cutRes)
	e.printf("%s := false\n", cutFired)
	e.printf("for {\n")
	if max >= 0 {
		e.printf("if %s >= %d { break }\n", count, max)
	}
	e.printf("%s, _ := p.skipWhitespace(%s)\n", wsEnd, cur)
	innerRes := e.expr(inner, wsEnd)
	e.printf("if %s.Kind == result.CutFailure { %s = %s; %s = true; break }\n", innerRes, cutRes, innerRes, cutFired)
	e.printf("if %s.Kind == result.Failure { break }\n", innerRes)
	e.printf("zw := %s.EndOffset == %s\n", innerRes, wsEnd)
	e.printf("if %s.Kind == result.Success { %s = append(%s, %s.Value); %s = %s.EndOffset }\n", innerRes, children, children, innerRes, cur, innerRes)
	e.printf("if %s.Kind == result.Ignored { %s = %s.EndOffset }\n", innerRes, cur, innerRes)
	e.printf("if %s.Kind == result.PredicateSuccess { %s = %s }\n", innerRes, cur, wsEnd)
	e.printf("%s++\n", count)
	e.printf("if zw && %s.Kind != result.PredicateSuccess { break }\n", innerRes)
	e.printf("}\n")
	e.printf("var %s result.Result[*cst.Node]\n", res)
	e.printf("if %s {\n\t%s = %s\n", cutFired, res, cutRes)
	e.printf("} else if %s < %d {\n", count, min)
	e.printf("\tf := &result.Fail{Offset: %s, Loc: p.at(%s), Expected: []string{%s}}\n", offsetExpr, offsetExpr, strconv.Quote(fmt.Sprintf("at least %d repetitions", min)))
	e.printf("\tp.recordFail(f)\n\t%s = result.Err[*cst.Node](f)\n", res)
	e.printf("} else {\n")
	e.printf("\t%s = result.Ok[*cst.Node](&cst.Node{Kind: cst.NonTerminal, Span: pos.Span{Start: p.at(%s), End: p.at(%s)}, Children: %s}, p.at(%s), %s)\n",
		res, offsetExpr, cur, children, cur, cur)
	e.printf("}\n")
}

func (e *emitter) sequence(res string, seq *ir.Sequence, offsetExpr string) {
	cur := e.fresh("cur")
	children := e.fresh("children")
	cut := e.fresh("cut")
	failed := e.fresh("failed")
	var failVar string
	e.printf("%s := %s\n", cur, offsetExpr)
	e.printf("var %s []*cst.Node\n", children)
	e.printf("%s := false\n", cut)
	e.printf("%s := false\n", failed)
	e.printf("var %sResult result.Result[*cst.Node]\n", res)
	for i, elem := range seq.Elements {
		if cutExpr, ok := elem.(*ir.Cut); ok {
			_ = cutExpr
			e.printf("if !%s { %s = true }\n", failed, cut)
			continue
		}
		// Once an earlier element has failed, later elements must not
		// be evaluated at all — they'd otherwise run against a stale
		// offset and could overwrite the real failure with a bogus one.
		e.printf("if !%s {\n", failed)
		probe := e.fresh("probe")
		// No whitespace skip before a `&`/`!` element (possibly inside
		// Groups), matching the engine's isPredicateElement.
		target := elem
		for g, ok := target.(*ir.Group); ok; g, ok = target.(*ir.Group) {
			target = g.Expr
		}
		_, isAnd := target.(*ir.And)
		_, isNot := target.(*ir.Not)
		if i == 0 || isAnd || isNot {
			e.printf("%s := %s\n", probe, cur)
		} else {
			e.printf("%s, _ := p.skipWhitespace(%s)\n", probe, cur)
		}
		innerRes := e.expr(elem, probe)
		failVar = innerRes
		e.printf("if !%s.OK() {\n", innerRes)
		e.printf("\tif %s && %s.Kind == result.Failure { %s = result.AsCut[*cst.Node](%s) }\n", cut, innerRes, innerRes, innerRes)
		e.printf("\t%sResult = %s\n\t%s = true\n", res, innerRes, failed)
		e.printf("\t} else {\n")
		e.printf("\tif %s.Kind == result.Success { %s = append(%s, %s.Value) }\n", innerRes, children, children, innerRes)
		e.printf("\t%s = %s.EndOffset\n", cur, innerRes)
		e.printf("\t}\n")
		e.printf("}\n")
	}
	_ = failVar
	e.printf("if !%s {\n", failed)
	e.printf("\t%sResult = result.Ok[*cst.Node](&cst.Node{Kind: cst.NonTerminal, Span: pos.Span{Start: p.at(%s), End: p.at(%s)}, Children: %s}, p.at(%s), %s)\n",
		res, offsetExpr, cur, children, cur, cur)
	e.printf("}\n")
	e.printf("%s := %sResult\n", res, res)
}

func (e *emitter) choice(res string, ch *ir.Choice, offsetExpr string) {
	e.printf("var %s result.Result[*cst.Node]\n", res)
	e.printf("var %sFail *result.Fail\n", res)
	e.printf("for {\n")
	for _, alt := range ch.Alternatives {
		altRes := e.expr(alt, offsetExpr)
		e.printf("if %s.OK() { %s = %s; break }\n", altRes, res, altRes)
		e.printf("if %s.Kind == result.CutFailure { %s = %s; break }\n", altRes, res, altRes)
		e.printf("%sFail = result.Merge(%sFail, %s.Fail)\n", res, res, altRes)
	}
	e.printf("%s = result.Err[*cst.Node](%sFail)\n", res, res)
	e.printf("break\n")
	e.printf("}\n")
}

func (e *emitter) writeRule(r *ir.Rule) {
	e.printf("func (p *Parser) parseRule_%s(offset int) result.Result[*cst.Node] {\n", r.Name)
	e.printf("\tkey := ruleKey{%d, offset}\n", r.ID())
	e.printf("\tif v, ok := p.cache[key]; ok { return v }\n")
	res := e.expr(r.Expression, "offset")
	e.printf("\tvar out result.Result[*cst.Node]\n")
	e.printf("\tswitch %s.Kind {\n", res)
	e.printf("\tcase result.Failure, result.CutFailure:\n")
	if r.ErrorMessage != "" {
		e.printf("\t\tf := &result.Fail{Offset: offset, Loc: p.at(offset), Expected: []string{%s}}\n", strconv.Quote(r.ErrorMessage))
		e.printf("\t\tout = result.Result[*cst.Node]{Kind: %s.Kind, Fail: f}\n", res)
	} else {
		e.printf("\t\tout = %s\n", res)
	}
	e.printf("\tcase result.Success:\n")
	e.printf("\t\tn := *%s.Value\n\t\tn.Rule = %s\n\t\tout = result.Ok[*cst.Node](&n, %s.End, %s.EndOffset)\n", res, strconv.Quote(r.Name), res, res)
	e.printf("\tcase result.Ignored:\n")
	e.printf("\t\tnode := &cst.Node{Kind: cst.Terminal, Rule: %s, Span: pos.Span{Start: p.at(offset), End: %s.End}, Text: %s.IgnoredText}\n", strconv.Quote(r.Name), res, res)
	e.printf("\t\tout = result.Ok[*cst.Node](node, %s.End, %s.EndOffset)\n", res, res)
	e.printf("\tcase result.PredicateSuccess:\n")
	e.printf("\t\tnode := &cst.Node{Kind: cst.NonTerminal, Rule: %s, Span: pos.Span{Start: p.at(offset), End: p.at(offset)}}\n", strconv.Quote(r.Name))
	e.printf("\t\tout = result.Ok[*cst.Node](node, p.at(offset), offset)\n")
	e.printf("\t}\n")
	e.printf("\tp.cache[key] = out\n")
	e.printf("\treturn out\n")
	e.printf("}\n\n")
}

func (e *emitter) writeDispatch() {
	start := e.grammar.EffectiveStartRule()
	e.printf("// Parse runs the grammar's start rule over input and requires the\n")
	e.printf("// full input to be consumed.\n")
	e.printf("func Parse(input string) (*cst.Node, error) {\n")
	e.printf("\tp := NewParser(input)\n")
	e.printf("\toffset, _ := p.skipWhitespace(0)\n")
	e.printf("\tres := p.parseRule_%s(offset)\n", start.Name)
	e.printf("\tif res.Kind != result.Success {\n")
	e.printf("\t\treturn nil, fmt.Errorf(\"parse error at %%s: expected %%v\", p.at(res.Fail.Offset), res.Fail.Expected)\n")
	e.printf("\t}\n")
	e.printf("\tend, _ := p.skipWhitespace(res.EndOffset)\n")
	e.printf("\tif end != len(input) {\n")
	e.printf("\t\treturn nil, fmt.Errorf(\"unexpected trailing input at %%s\", p.at(end))\n")
	e.printf("\t}\n")
	e.printf("\treturn res.Value, nil\n")
	e.printf("}\n\n")

	if e.cfg.Profile == Advanced {
		e.printf(`// ParseWithDiagnostics is the ADVANCED-profile entry point: on
// failure it reports one Diagnostic built from the furthest-failure
// record instead of stopping the caller with a bare error.
func ParseWithDiagnostics(input string) (*cst.Node, []*diag.Diagnostic, error) {
	p := NewParser(input)
	offset, _ := p.skipWhitespace(0)
	res := p.parseRule_%s(offset)
	if res.Kind != result.Success {
		f := p.furthest
		if f == nil {
			f = res.Fail
		}
		d := &diag.Diagnostic{
			Severity: diag.Error,
			Code:     "E0001",
			Message:  fmt.Sprintf("expected %%v", f.Expected),
			Labels: []diag.Label{{
				Span:    pos.Span{Start: f.Loc, End: f.Loc},
				Message: "parse failed here",
				Primary: true,
			}},
		}
		return nil, []*diag.Diagnostic{d}, d
	}
	return res.Value, nil, nil
}
`, start.Name)
	}
}
