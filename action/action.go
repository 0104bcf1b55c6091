// Package action defines the SemanticValues surface passed to a rule's
// action code in value-returning mode (spec §4.6), and the explicit
// presence sentinel that distinguishes a deliberate nil result from
// "no value produced" (spec §9 "Explicit-null sentinel").
package action

import (
	"fmt"
	"strconv"
)

// A Value is a child semantic value together with an explicit presence
// flag, so that a rule action deliberately returning nil can be told
// apart from a rule that produced no value at all.
type Value struct {
	Present bool
	V       interface{}
}

// Present wraps a non-absent value, including an explicit nil.
func Present(v interface{}) Value { return Value{Present: true, V: v} }

// Absent is the zero Value: no value was produced.
var Absent = Value{}

// Func is a rule action: given the SemanticValues for a successful
// rule match, it returns the rule's semantic value, or an error that
// fails the rule at its start location (spec §4.6 "action error").
type Func func(*Values) (interface{}, error)

// Values is the SemanticValues object an action receives. $0/token()
// is the text matched by a token boundary inside the rule, falling
// back to the full matched span if no boundary fired. Get/N expose
// child rule semantic values in left-to-right order, 0-based and
// 1-based respectively.
type Values struct {
	matchedSpan string
	tokenText   *string
	children    []Value
}

// NewValues builds a Values for a rule match spanning matchedSpan,
// with tok set if a `< … >` token boundary fired within the rule, and
// children holding this rule's direct semantic-value-producing
// sub-results in left-to-right order.
func NewValues(matchedSpan string, tok *string, children []Value) *Values {
	return &Values{matchedSpan: matchedSpan, tokenText: tok, children: children}
}

// Token returns $0: the token-boundary text if one fired in this rule,
// otherwise the full text matched by the rule.
func (v *Values) Token() string {
	if v.tokenText != nil {
		return *v.tokenText
	}
	return v.matchedSpan
}

// Size returns the number of child semantic values.
func (v *Values) Size() int { return len(v.children) }

// Get returns the i'th child value (0-based), or nil if absent or out
// of range. Use GetOK to tell a present nil value from an absent or
// out-of-range one.
func (v *Values) Get(i int) interface{} {
	val, _ := v.GetOK(i)
	return val
}

// GetOK returns the i'th child value (0-based) and whether a value was
// actually present at that index.
func (v *Values) GetOK(i int) (interface{}, bool) {
	if i < 0 || i >= len(v.children) {
		return nil, false
	}
	c := v.children[i]
	return c.V, c.Present
}

// N returns the n'th child value using 1-based indexing ($1..$N),
// mirroring the grammar surface's $N action syntax.
func (v *Values) N(n int) interface{} { return v.Get(n - 1) }

// ToInt parses the i'th child's token/string form as a base-10 int64.
func (v *Values) ToInt(i int) (int64, error) {
	return strconv.ParseInt(fmt.Sprint(v.Get(i)), 10, 64)
}

// ToDouble parses the i'th child's token/string form as a float64.
func (v *Values) ToDouble(i int) (float64, error) {
	return strconv.ParseFloat(fmt.Sprint(v.Get(i)), 64)
}

// Values returns all child semantic values, in order, unwrapping
// absent entries to nil.
func (v *Values) Values() []interface{} {
	out := make([]interface{}, len(v.children))
	for i, c := range v.children {
		out[i] = c.V
	}
	return out
}
