// Package langparser is a hand-written recursive-descent front end for
// the cpp-peglib-compatible grammar-text surface described in spec §6.
// It is not part of the engine's normative contract (spec §1
// Non-goals explicitly exclude "the grammar-text parser
// implementation"), but a parser-generator library isn't meaningfully
// exercisable end to end without some way to read a grammar, so this
// package exists as a supplement: it turns grammar source text into
// the ir.Grammar the engine evaluates.
//
// It covers rule definitions, sequencing, ordered choice, grouping,
// the */+/?/{n,m} quantifiers, &//! predicates, ., literals (with an
// `i` case-insensitivity suffix), character classes (with negation,
// ranges, `i` suffix, and the usual backslash escapes), < … > token
// boundaries, ~ ignore, $name< … > captures, $name back-references,
// $( … ) capture scopes, ^ cut, # line comments, and the %whitespace
// and %word directives. It does not support a textual syntax for
// Dictionary (spec §3's `w1 | w2 | …`); grammars that need one build
// an ir.Dictionary by hand (see DESIGN.md).
package langparser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
)

// A SyntaxError reports one problem found while reading grammar
// source text.
type SyntaxError struct {
	At      pos.Location
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.At.Line, e.At.Column, e.Message)
}

type parser struct {
	text string
	loc  *pos.Locator
	pos  int
}

// Parse reads grammar source text and returns the ir.Grammar it
// describes, or the first SyntaxError encountered.
func Parse(text string) (*ir.Grammar, error) {
	p := &parser{text: text, loc: pos.NewLocator(text)}
	g := &ir.Grammar{}
	p.skipLayout()
	for !p.atEOF() {
		if p.consumeByte('%') {
			if err := p.parseDirective(g); err != nil {
				return nil, err
			}
			p.skipLayout()
			continue
		}
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		g.Rules = append(g.Rules, r)
		p.skipLayout()
	}
	if err := ir.Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *parser) at() pos.Location { return p.loc.At(p.pos) }
func (p *parser) atEOF() bool      { return p.pos >= len(p.text) }

func (p *parser) errf(format string, args ...interface{}) error {
	return &SyntaxError{At: p.at(), Message: fmt.Sprintf(format, args...)}
}

func (p *parser) peekByte() byte {
	if p.atEOF() {
		return 0
	}
	return p.text[p.pos]
}

func (p *parser) consumeByte(b byte) bool {
	if p.peekByte() == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) consumeString(s string) bool {
	if strings.HasPrefix(p.text[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// skipLayout skips whitespace and '#' line comments between grammar
// constructs (the meta-grammar's own layout, distinct from the
// target grammar's %whitespace).
func (p *parser) skipLayout() {
	for !p.atEOF() {
		switch p.peekByte() {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			for !p.atEOF() && p.peekByte() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (p *parser) parseIdent() (string, bool) {
	start := p.pos
	r, w := utf8.DecodeRuneInString(p.text[p.pos:])
	if w == 0 || !isIdentStart(r) {
		return "", false
	}
	p.pos += w
	for !p.atEOF() {
		r, w := utf8.DecodeRuneInString(p.text[p.pos:])
		if w == 0 || !isIdentCont(r) {
			break
		}
		p.pos += w
	}
	return p.text[start:p.pos], true
}

func (p *parser) parseDirective(g *ir.Grammar) error {
	name, ok := p.parseIdent()
	if !ok {
		return p.errf("expected directive name after '%%'")
	}
	p.skipLayout()
	if !p.consumeString("<-") {
		return p.errf("expected '<-' after directive %%%s", name)
	}
	p.skipLayout()
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	switch name {
	case "whitespace":
		g.Whitespace = unwrapWhitespaceBody(e)
	case "word":
		g.Word = e
	default:
		return p.errf("unknown directive %%%s", name)
	}
	return nil
}

// unwrapWhitespaceBody handles "%whitespace <- (' '/'\t'/'\n')*" style
// declarations by unwrapping a single top-level ZeroOrMore/OneOrMore,
// since ir.Grammar.Whitespace stores the per-iteration expression, not
// the repeated form (see ir/grammar.go's doc comment).
func unwrapWhitespaceBody(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.ZeroOrMore:
		return n.Expr
	case *ir.OneOrMore:
		return n.Expr
	default:
		return e
	}
}

func (p *parser) parseRule() (*ir.Rule, error) {
	name, ok := p.parseIdent()
	if !ok {
		return nil, p.errf("expected rule name")
	}
	p.skipLayout()
	var errMsg string
	if p.consumeByte('(') {
		// Name("custom error message") <- expr
		p.skipLayout()
		s, err := p.parseQuoted('"')
		if err != nil {
			return nil, err
		}
		errMsg = s
		p.skipLayout()
		if !p.consumeByte(')') {
			return nil, p.errf("expected ')' after rule error message")
		}
		p.skipLayout()
	}
	if !p.consumeString("<-") {
		return nil, p.errf("expected '<-' after rule name %q", name)
	}
	p.skipLayout()
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ir.Rule{Name: name, Expression: e, ErrorMessage: errMsg}, nil
}

// parseExpr parses a choice: seq ('/' seq)*.
func (p *parser) parseExpr() (ir.Expr, error) {
	at := p.at()
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	alts := []ir.Expr{first}
	for {
		p.skipLayout()
		if !p.consumeByte('/') {
			break
		}
		p.skipLayout()
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return ir.NewChoice(at, alts...), nil
}

func (p *parser) parseSequence() (ir.Expr, error) {
	at := p.at()
	var elems []ir.Expr
	for {
		p.skipLayout()
		if p.atEOF() || p.atSequenceStop() {
			break
		}
		e, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if len(elems) == 0 {
		return nil, p.errf("expected an expression")
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return ir.NewSequence(at, elems...), nil
}

// atSequenceStop reports whether the parser has reached the end of a
// sequence: a choice/group/token-boundary closer, end of input, or the
// start of the *next* rule definition. The last case needs lookahead,
// since a bare identifier is otherwise a valid sequence element (a
// Reference) and indistinguishable from a rule name without peeking
// past it for "<-".
func (p *parser) atSequenceStop() bool {
	switch p.peekByte() {
	case '/', ')', '>', 0:
		return true
	case '%':
		return true
	}
	return p.atNextRuleDef()
}

func (p *parser) atNextRuleDef() bool {
	save := p.pos
	defer func() { p.pos = save }()

	if _, ok := p.parseIdent(); !ok {
		return false
	}
	p.skipLayout()
	if p.consumeByte('(') {
		p.skipLayout()
		if _, err := p.parseQuoted('"'); err != nil {
			return false
		}
		p.skipLayout()
		if !p.consumeByte(')') {
			return false
		}
		p.skipLayout()
	}
	return p.consumeString("<-")
}

// parsePrefix parses &/!/^ prefixes around a suffixed atom.
func (p *parser) parsePrefix() (ir.Expr, error) {
	at := p.at()
	switch p.peekByte() {
	case '&':
		p.pos++
		p.skipLayout()
		e, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		return ir.NewAnd(at, e), nil
	case '!':
		p.pos++
		p.skipLayout()
		e, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		return ir.NewNot(at, e), nil
	case '^':
		p.pos++
		return ir.NewCut(at), nil
	}
	if p.consumeRune('↑') { // '↑', the Unicode spelling of cut.
		return ir.NewCut(at), nil
	}
	return p.parseSuffix()
}

func (p *parser) consumeRune(r rune) bool {
	cur, w := utf8.DecodeRuneInString(p.text[p.pos:])
	if w > 0 && cur == r {
		p.pos += w
		return true
	}
	return false
}

// parseSuffix parses a */+/?/{n,m} quantifier after an atom.
func (p *parser) parseSuffix() (ir.Expr, error) {
	at := p.at()
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	switch p.peekByte() {
	case '*':
		p.pos++
		return ir.NewZeroOrMore(at, e), nil
	case '+':
		p.pos++
		return ir.NewOneOrMore(at, e), nil
	case '?':
		p.pos++
		return ir.NewOptional(at, e), nil
	case '{':
		return p.parseRepetitionSuffix(at, e)
	}
	return e, nil
}

func (p *parser) parseRepetitionSuffix(at pos.Location, e ir.Expr) (ir.Expr, error) {
	p.pos++ // '{'
	min, ok := p.parseInt()
	if !ok {
		return nil, p.errf("expected integer in repetition")
	}
	max := &min
	if p.consumeByte(',') {
		if p.peekByte() == '}' {
			max = nil
		} else {
			m, ok := p.parseInt()
			if !ok {
				return nil, p.errf("expected integer after ',' in repetition")
			}
			max = &m
		}
	}
	if !p.consumeByte('}') {
		return nil, p.errf("expected '}' to close repetition")
	}
	return ir.NewRepetition(at, e, min, max), nil
}

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	for !p.atEOF() && p.peekByte() >= '0' && p.peekByte() <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n := 0
	for _, c := range p.text[start:p.pos] {
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (p *parser) parseAtom() (ir.Expr, error) {
	at := p.at()
	switch {
	case p.peekByte() == '(':
		p.pos++
		p.skipLayout()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipLayout()
		if !p.consumeByte(')') {
			return nil, p.errf("expected ')'")
		}
		return ir.NewGroup(at, e), nil

	case p.peekByte() == '<':
		p.pos++
		p.skipLayout()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipLayout()
		if !p.consumeByte('>') {
			return nil, p.errf("expected '>' to close token boundary")
		}
		return ir.NewTokenBoundary(at, e), nil

	case p.peekByte() == '~':
		p.pos++
		e, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		return ir.NewIgnore(at, e), nil

	case p.peekByte() == '.':
		p.pos++
		return ir.NewAny(at), nil

	case p.peekByte() == '"' || p.peekByte() == '\'':
		return p.parseLiteral(at)

	case p.peekByte() == '[':
		return p.parseCharClass(at)

	case p.peekByte() == '$':
		return p.parseDollar(at)

	default:
		name, ok := p.parseIdent()
		if !ok {
			return nil, p.errf("unexpected character %q", string(p.peekByte()))
		}
		return ir.NewReference(at, name), nil
	}
}

func (p *parser) parseDollar(at pos.Location) (ir.Expr, error) {
	p.pos++ // '$'
	if p.consumeByte('(') {
		p.skipLayout()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipLayout()
		if !p.consumeByte(')') {
			return nil, p.errf("expected ')' to close capture scope")
		}
		return ir.NewCaptureScope(at, e), nil
	}
	name, ok := p.parseIdent()
	if !ok {
		return nil, p.errf("expected capture name after '$'")
	}
	if p.peekByte() == '<' {
		p.pos++
		p.skipLayout()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipLayout()
		if !p.consumeByte('>') {
			return nil, p.errf("expected '>' to close capture")
		}
		return ir.NewCapture(at, name, e), nil
	}
	return ir.NewBackReference(at, name), nil
}

func (p *parser) parseLiteral(at pos.Location) (ir.Expr, error) {
	quote := p.peekByte()
	s, err := p.parseQuoted(quote)
	if err != nil {
		return nil, err
	}
	ci := p.consumeByte('i')
	return ir.NewLiteral(at, s, ci), nil
}

func (p *parser) parseQuoted(quote byte) (string, error) {
	if !p.consumeByte(quote) {
		return "", p.errf("expected %q", string(quote))
	}
	var b strings.Builder
	for {
		if p.atEOF() {
			return "", p.errf("unterminated string literal")
		}
		c := p.peekByte()
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			r, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
			continue
		}
		r, w := utf8.DecodeRuneInString(p.text[p.pos:])
		p.pos += w
		b.WriteRune(r)
	}
}

func (p *parser) parseEscape() (rune, error) {
	if p.atEOF() {
		return 0, p.errf("unterminated escape sequence")
	}
	c := p.peekByte()
	p.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case 'x', 'u':
		n := 2
		if c == 'u' {
			n = 4
		}
		if p.pos+n > len(p.text) {
			return 0, p.errf("truncated \\%c escape", c)
		}
		v, err := strconv.ParseUint(p.text[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return 0, p.errf("invalid \\%c escape", c)
		}
		p.pos += n
		return rune(v), nil
	case '\\', '\'', '"', '[', ']', '-':
		return rune(c), nil
	default:
		return rune(c), nil
	}
}

func (p *parser) parseCharClass(at pos.Location) (ir.Expr, error) {
	p.pos++ // '['
	negated := p.consumeByte('^')
	var spans [][2]rune
	for {
		if p.atEOF() {
			return nil, p.errf("unterminated character class")
		}
		if p.peekByte() == ']' {
			p.pos++
			break
		}
		lo, err := p.parseClassRune()
		if err != nil {
			return nil, err
		}
		hi := lo
		if p.peekByte() == '-' && p.peekAt(1) != ']' {
			p.pos++
			hi, err = p.parseClassRune()
			if err != nil {
				return nil, err
			}
		}
		spans = append(spans, [2]rune{lo, hi})
	}
	ci := p.consumeByte('i')
	return ir.NewCharClass(at, spans, negated, ci), nil
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.text) {
		return 0
	}
	return p.text[p.pos+n]
}

func (p *parser) parseClassRune() (rune, error) {
	if p.peekByte() == '\\' {
		p.pos++
		return p.parseEscape()
	}
	r, w := utf8.DecodeRuneInString(p.text[p.pos:])
	if w == 0 {
		return 0, p.errf("unterminated character class")
	}
	p.pos += w
	return r, nil
}
