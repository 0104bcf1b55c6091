package ir

import "github.com/gopeg/corepeg/pos"

// A Rule defines one production of the grammar (spec §3 "Rule").
type Rule struct {
	Name       string
	Expression Expr

	// Action, if non-nil, is invoked by the engine in value-returning
	// mode after a successful match (spec §4.6). Produced by a host
	// compiler from the rule's inline action code; the engine treats it
	// as an opaque callable (spec §1 "treat as an external hook").
	Action ActionFunc

	// ErrorMessage, if non-empty, replaces a failed rule's Fail.Expected
	// with this text and collapses the rule's sub-failures (spec
	// §4.2 step 6, §4.5).
	ErrorMessage string

	// id is the dense small integer assigned to this rule for packrat
	// cache keys (spec §3, §9 "Packrat key identity"). Assigned by
	// Grammar.index (run by Validate and by the first ByName), never by
	// the caller.
	id int
}

// ID returns the rule's dense packrat-cache integer id. It is valid
// only after the owning Grammar has been validated.
func (r *Rule) ID() int { return r.id }

// A Grammar is a complete PEG grammar: its rules plus the optional
// %whitespace and %word directives (spec §3 "Grammar").
type Grammar struct {
	Rules []*Rule

	// StartRule, if non-empty, names the explicit start rule. If
	// empty, EffectiveStartRule falls back to the first rule.
	StartRule string

	// Whitespace is the %whitespace directive's inner expression
	// (already unwrapped from its `*`/`+` per spec §4.4), or nil if the
	// grammar declares none.
	Whitespace Expr

	// Word is the %word directive's expression. Accepted and stored for
	// introspection/codegen, but has no runtime effect (spec §9 Open
	// Questions).
	Word Expr

	byName map[string]*Rule
}

// ByName returns the rule with the given name, or nil.
func (g *Grammar) ByName(name string) *Rule {
	if g.byName == nil {
		g.index()
	}
	return g.byName[name]
}

func (g *Grammar) index() {
	g.byName = make(map[string]*Rule, len(g.Rules))
	for i, r := range g.Rules {
		r.id = i
		g.byName[r.Name] = r
	}
}

// EffectiveStartRule returns the explicit start rule if set, else the
// first rule in the grammar, else nil for an empty grammar.
func (g *Grammar) EffectiveStartRule() *Rule {
	if g.StartRule != "" {
		return g.ByName(g.StartRule)
	}
	if len(g.Rules) == 0 {
		return nil
	}
	return g.Rules[0]
}

// NumRules returns the number of rules, i.e. the size of the packrat
// cache's rule dimension.
func (g *Grammar) NumRules() int { return len(g.Rules) }

// RuleLoc returns the location of a rule's expression, the same
// position Validate reports for a "rule redefined" error.
func RuleLoc(r *Rule) pos.Location { return r.Expression.Loc() }
