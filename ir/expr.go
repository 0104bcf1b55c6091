// Package ir defines the grammar intermediate representation the
// engine evaluates (spec §3 "Grammar IR"): Expression variants, Rule,
// and Grammar, plus validation. A langparser or any other front end
// produces a Grammar; the engine never looks back at grammar source
// text.
package ir

import (
	"github.com/gopeg/corepeg/action"
	"github.com/gopeg/corepeg/pos"
)

// An Expr is one node of a grammar expression tree. It is a closed,
// exhaustive tagged union realized as a Go interface; every concrete
// type below implements it, and engine code switches on the concrete
// type (a type switch is the Go idiom for an exhaustive sealed union).
type Expr interface {
	// Loc is the source location of this expression, for diagnostics.
	Loc() pos.Location
}

type baseExpr struct{ At pos.Location }

func (b baseExpr) Loc() pos.Location { return b.At }

// Literal matches a fixed text string, optionally case-insensitively
// (ASCII case folding only, per spec §1 Non-goals).
type Literal struct {
	baseExpr
	Text            string
	CaseInsensitive bool
}

// A CharClass matches a single rune against a set of rune spans,
// optionally negated and/or case-insensitive.
type CharClass struct {
	baseExpr
	// Spans are inclusive [lo,hi] rune ranges; a single-rune match is
	// represented as lo==hi.
	Spans           [][2]rune
	Negated         bool
	CaseInsensitive bool
}

// Any matches a single rune, failing only at end of input or on
// invalid UTF-8.
type Any struct{ baseExpr }

// Reference matches by delegating to the named rule (spec §4.1
// "Reference").
type Reference struct {
	baseExpr
	RuleName string
}

// Sequence matches each element in order, skipping whitespace between
// non-predicate elements (spec §4.1 "Sequence").
type Sequence struct {
	baseExpr
	Elements []Expr
}

// Choice matches the first alternative that succeeds, backtracking
// between alternatives unless a Cut has fired (spec §4.1 "Choice",
// §4.3).
type Choice struct {
	baseExpr
	Alternatives []Expr
}

// ZeroOrMore matches Expr as many times as possible, stopping on
// failure or a zero-width success (spec §4.1).
type ZeroOrMore struct {
	baseExpr
	Expr Expr
}

// OneOrMore is ZeroOrMore but requires at least one match.
type OneOrMore struct {
	baseExpr
	Expr Expr
}

// Optional matches Expr once if possible; on failure it succeeds with
// an empty match rather than propagating the failure.
type Optional struct {
	baseExpr
	Expr Expr
}

// Repetition matches Expr between Min and Max times (Max == nil means
// unbounded), succeeding iff the count reaches at least Min.
type Repetition struct {
	baseExpr
	Expr Expr
	Min  int
	Max  *int
}

// And is positive lookahead: succeeds without consuming input iff Expr
// would succeed.
type And struct {
	baseExpr
	Expr Expr
}

// Not is negative lookahead: succeeds without consuming input iff Expr
// would fail. A Cut inside Expr is treated as an ordinary failure here
// (spec §4.3 "predicates are a firewall for commitment").
type Not struct {
	baseExpr
	Expr Expr
}

// TokenBoundary (`< e >`) disables whitespace skipping and trivia
// collection inside Expr and captures the exact matched substring.
type TokenBoundary struct {
	baseExpr
	Expr Expr
}

// Ignore (`~e`) matches Expr but contributes no CST node or semantic
// child value.
type Ignore struct {
	baseExpr
	Expr Expr
}

// Capture (`$name< … >`) matches Expr and, on success, stores the
// matched text under Name in the parsing context's capture map.
type Capture struct {
	baseExpr
	Name string
	Expr Expr
}

// CaptureScope (`$( … )`) saves and restores the capture map around
// Expr, isolating captures made inside from the surrounding scope.
type CaptureScope struct {
	baseExpr
	Expr Expr
}

// Dictionary (`w1 | w2 | …`) matches the longest word in Words at the
// current offset, unlike Choice's first-match ordering.
type Dictionary struct {
	baseExpr
	Words           []string
	CaseInsensitive bool
}

// BackReference (`$name`) matches the text previously captured under
// Name literally at the current offset.
type BackReference struct {
	baseExpr
	Name string
}

// Cut (`^` or `↑`) commits the enclosing Choice alternative (spec
// §4.3). It always succeeds without consuming input.
type Cut struct{ baseExpr }

// Group (`(e)`) is a transparent wrapper preserving parenthesization;
// it has no semantics of its own.
type Group struct {
	baseExpr
	Expr Expr
}

// NewLiteral, NewCharClass, etc. are small constructors used by
// langparser and by tests that build IR by hand; they stamp Loc so
// validation/diagnostics have a location to report.
func NewLiteral(at pos.Location, text string, ci bool) *Literal {
	return &Literal{baseExpr{at}, text, ci}
}

func NewCharClass(at pos.Location, spans [][2]rune, negated, ci bool) *CharClass {
	return &CharClass{baseExpr{at}, spans, negated, ci}
}

func NewAny(at pos.Location) *Any { return &Any{baseExpr{at}} }

func NewReference(at pos.Location, name string) *Reference {
	return &Reference{baseExpr{at}, name}
}

func NewSequence(at pos.Location, elems ...Expr) *Sequence {
	return &Sequence{baseExpr{at}, elems}
}

func NewChoice(at pos.Location, alts ...Expr) *Choice {
	return &Choice{baseExpr{at}, alts}
}

func NewZeroOrMore(at pos.Location, e Expr) *ZeroOrMore { return &ZeroOrMore{baseExpr{at}, e} }
func NewOneOrMore(at pos.Location, e Expr) *OneOrMore   { return &OneOrMore{baseExpr{at}, e} }
func NewOptional(at pos.Location, e Expr) *Optional     { return &Optional{baseExpr{at}, e} }

func NewRepetition(at pos.Location, e Expr, min int, max *int) *Repetition {
	return &Repetition{baseExpr{at}, e, min, max}
}

func NewAnd(at pos.Location, e Expr) *And                     { return &And{baseExpr{at}, e} }
func NewNot(at pos.Location, e Expr) *Not                      { return &Not{baseExpr{at}, e} }
func NewTokenBoundary(at pos.Location, e Expr) *TokenBoundary  { return &TokenBoundary{baseExpr{at}, e} }
func NewIgnore(at pos.Location, e Expr) *Ignore               { return &Ignore{baseExpr{at}, e} }

func NewCapture(at pos.Location, name string, e Expr) *Capture {
	return &Capture{baseExpr{at}, name, e}
}

func NewCaptureScope(at pos.Location, e Expr) *CaptureScope { return &CaptureScope{baseExpr{at}, e} }

func NewDictionary(at pos.Location, words []string, ci bool) *Dictionary {
	return &Dictionary{baseExpr{at}, words, ci}
}

func NewBackReference(at pos.Location, name string) *BackReference {
	return &BackReference{baseExpr{at}, name}
}

func NewCut(at pos.Location) *Cut               { return &Cut{baseExpr{at}} }
func NewGroup(at pos.Location, e Expr) *Group    { return &Group{baseExpr{at}, e} }

// ActionFunc re-exports action.Func so callers only need to import ir
// when building a Rule.
type ActionFunc = action.Func
