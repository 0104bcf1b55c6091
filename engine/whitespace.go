package engine

import (
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/trivia"
)

// matchWhitespaceExpr is a small, pass-agnostic matcher used only to
// drive %whitespace (spec §4.4). It never builds a CST node or calls
// an action; it only advances an offset. The %whitespace expression is
// ordinarily a character class or a literal/comment alternation, but
// nothing stops a grammar from writing something richer, so this
// supports the same expression set as the main evaluator minus the
// parts that only make sense mid-parse (Cut always trivially succeeds,
// Capture/CaptureScope match their inner expression without recording
// anything since whitespace text is never capturable, spec §9).
func matchWhitespaceExpr(text string, g *ir.Grammar, captures map[string]string, e ir.Expr, offset int) (int, bool) {
	switch n := e.(type) {
	case *ir.Literal:
		return matchLiteral(text, offset, n)
	case *ir.CharClass:
		return matchCharClass(text, offset, n)
	case *ir.Any:
		return matchAny(text, offset)
	case *ir.Dictionary:
		return matchDictionary(text, offset, n)
	case *ir.BackReference:
		v, ok := captures[n.Name]
		if !ok {
			return offset, false
		}
		return matchBackReference(text, offset, v)
	case *ir.Cut:
		return offset, true
	case *ir.Reference:
		r := g.ByName(n.RuleName)
		if r == nil {
			return offset, false
		}
		return matchWhitespaceExpr(text, g, captures, r.Expression, offset)
	case *ir.Group:
		return matchWhitespaceExpr(text, g, captures, n.Expr, offset)
	case *ir.Ignore:
		return matchWhitespaceExpr(text, g, captures, n.Expr, offset)
	case *ir.TokenBoundary:
		return matchWhitespaceExpr(text, g, captures, n.Expr, offset)
	case *ir.Capture:
		return matchWhitespaceExpr(text, g, captures, n.Expr, offset)
	case *ir.CaptureScope:
		return matchWhitespaceExpr(text, g, captures, n.Expr, offset)
	case *ir.Optional:
		if end, ok := matchWhitespaceExpr(text, g, captures, n.Expr, offset); ok {
			return end, true
		}
		return offset, true
	case *ir.And:
		_, ok := matchWhitespaceExpr(text, g, captures, n.Expr, offset)
		return offset, ok
	case *ir.Not:
		_, ok := matchWhitespaceExpr(text, g, captures, n.Expr, offset)
		return offset, !ok
	case *ir.ZeroOrMore:
		return matchWhitespaceRepeat(text, g, captures, n.Expr, offset, 0, -1)
	case *ir.OneOrMore:
		return matchWhitespaceRepeat(text, g, captures, n.Expr, offset, 1, -1)
	case *ir.Repetition:
		max := -1
		if n.Max != nil {
			max = *n.Max
		}
		return matchWhitespaceRepeat(text, g, captures, n.Expr, offset, n.Min, max)
	case *ir.Sequence:
		cur := offset
		for _, el := range n.Elements {
			end, ok := matchWhitespaceExpr(text, g, captures, el, cur)
			if !ok {
				return offset, false
			}
			cur = end
		}
		return cur, true
	case *ir.Choice:
		for _, alt := range n.Alternatives {
			if end, ok := matchWhitespaceExpr(text, g, captures, alt, offset); ok {
				return end, true
			}
		}
		return offset, false
	default:
		return offset, false
	}
}

func matchWhitespaceRepeat(text string, g *ir.Grammar, captures map[string]string, e ir.Expr, offset, min, max int) (int, bool) {
	cur := offset
	count := 0
	for max < 0 || count < max {
		end, ok := matchWhitespaceExpr(text, g, captures, e, cur)
		if !ok || end == cur {
			break
		}
		cur = end
		count++
	}
	if count < min {
		return offset, false
	}
	return cur, true
}

// skipWhitespace advances past as much %whitespace as matches at
// offset, greedily (spec §4.4 "between every pair of sequence elements
// and before/after the rule body, except inside a token boundary"),
// and returns the classified trivia pieces consumed, one per
// iteration of the match loop. It is a no-op if the grammar declares
// no %whitespace or the engine is currently inside a token boundary.
func (c *context[T]) skipWhitespace(offset int) (int, []trivia.Trivia) {
	if c.grammar.Whitespace == nil || c.tokenDepth > 0 {
		return offset, nil
	}
	var pieces []trivia.Trivia
	cur := offset
	for {
		end, ok := matchWhitespaceExpr(c.text, c.grammar, c.captures, c.grammar.Whitespace, cur)
		if !ok || end == cur {
			return cur, pieces
		}
		pieces = append(pieces, trivia.New(pos.Span{Start: c.at(cur), End: c.at(end)}, c.text[cur:end]))
		cur = end
	}
}
