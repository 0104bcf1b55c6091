package ir

import (
	"fmt"
	"sort"

	"github.com/gopeg/corepeg/pos"
	"go.uber.org/multierr"
)

// A ValidationError reports one problem found by Validate, located in
// the grammar source.
type ValidationError struct {
	At      pos.Location
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.At.Line, e.At.Column, e.Message)
}

// Validate checks a Grammar per spec §3: every Reference and
// BackReference must target an existing rule / capture name, rule
// names must be unique, and the grammar must be non-empty with a
// resolvable start rule (spec §7 "Semantic error"). It aggregates all
// problems found (rather than stopping at the first) with
// go.uber.org/multierr, but the Unwrap()'d errors are still produced
// in source order, so callers that only want "the first" can always
// take multierr.Errors(err)[0].
//
// On success (nil error), Validate also assigns each rule its dense
// packrat-cache id as a side effect (via Grammar.index).
func Validate(g *Grammar) error {
	g.index()

	var errs []error
	seen := make(map[string]*Rule, len(g.Rules))
	for _, r := range g.Rules {
		if other, ok := seen[r.Name]; ok {
			_ = other
			errs = append(errs, &ValidationError{
				At:      r.Expression.Loc(),
				Message: fmt.Sprintf("rule %q redefined", r.Name),
			})
			continue
		}
		seen[r.Name] = r
	}

	if len(g.Rules) == 0 {
		errs = append(errs, &ValidationError{Message: "grammar has no rules"})
		return sortAndJoin(errs)
	}

	if g.StartRule != "" && g.ByName(g.StartRule) == nil {
		errs = append(errs, &ValidationError{
			Message: fmt.Sprintf("start rule %q undefined", g.StartRule),
		})
	}

	captures := collectCaptureNames(g)

	for _, r := range g.Rules {
		Walk(r.Expression, func(e Expr) bool {
			switch n := e.(type) {
			case *Reference:
				if g.ByName(n.RuleName) == nil {
					errs = append(errs, &ValidationError{
						At:      n.At,
						Message: fmt.Sprintf("rule %q undefined", n.RuleName),
					})
				}
			case *BackReference:
				if !captures[n.Name] {
					errs = append(errs, &ValidationError{
						At:      n.At,
						Message: fmt.Sprintf("capture %q undefined", n.Name),
					})
				}
			}
			return true
		})
	}
	if g.Whitespace != nil {
		Walk(g.Whitespace, func(e Expr) bool {
			if n, ok := e.(*Reference); ok && g.ByName(n.RuleName) == nil {
				errs = append(errs, &ValidationError{
					At:      n.At,
					Message: fmt.Sprintf("rule %q undefined", n.RuleName),
				})
			}
			return true
		})
	}

	return sortAndJoin(errs)
}

// collectCaptureNames returns every name introduced by a Capture
// anywhere in the grammar. Captures live in a single parse-wide map
// (spec §3 "Parsing context"), so a back-reference may legally refer
// to a capture set in a different rule than the one containing it;
// Validate therefore checks existence grammar-wide rather than
// attempting interprocedural scope analysis (see DESIGN.md).
func collectCaptureNames(g *Grammar) map[string]bool {
	names := make(map[string]bool)
	for _, r := range g.Rules {
		Walk(r.Expression, func(e Expr) bool {
			if c, ok := e.(*Capture); ok {
				names[c.Name] = true
			}
			return true
		})
	}
	return names
}

func sortAndJoin(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool {
		vi, oki := errs[i].(*ValidationError)
		vj, okj := errs[j].(*ValidationError)
		if oki && okj {
			return vi.At.Less(vj.At)
		}
		return false
	})
	return multierr.Combine(errs...)
}
