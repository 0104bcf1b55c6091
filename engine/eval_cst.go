package engine

import (
	"fmt"
	"strconv"

	"github.com/gopeg/corepeg/cst"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/result"
	"github.com/gopeg/corepeg/trivia"
)

// evalRuleCST implements the rule-entry protocol of spec §4.2: packrat
// lookup, evaluate, wrap preserving the inner node's Kind while
// stamping the rule name, and cache the outcome (success or failure
// alike, per spec §3 "packrat memoizes both").
func evalRuleCST(c *context[*cst.Node], r *ir.Rule, offset int) result.Result[*cst.Node] {
	key := cacheKey{r.ID(), offset}
	if v, ok := c.cache.get(key); ok {
		return v
	}

	c.pushTokenFrame()
	res := evalExprCST(c, r.Expression, offset)
	c.popTokenFrame()

	if res.Kind == result.Failure || res.Kind == result.CutFailure {
		if r.ErrorMessage != "" {
			res.Fail = &result.Fail{Offset: offset, Loc: c.at(offset), Expected: []string{r.ErrorMessage}}
		}
		c.cache.put(key, res)
		return res
	}

	var node *cst.Node
	switch res.Kind {
	case result.Success:
		wrapped := *res.Value
		wrapped.Rule = r.Name
		node = &wrapped
	case result.Ignored:
		node = &cst.Node{Kind: cst.Terminal, Rule: r.Name,
			Span: pos.Span{Start: c.at(offset), End: res.End}, Text: res.IgnoredText}
	case result.PredicateSuccess:
		node = &cst.Node{Kind: cst.NonTerminal, Rule: r.Name,
			Span: pos.Span{Start: c.at(offset), End: c.at(offset)}}
	}
	out := result.Ok[*cst.Node](node, res.End, res.EndOffset)
	c.cache.put(key, out)
	return out
}

// evalExprCST implements the per-expression evaluation contract of
// spec §4.1. The caller is responsible for skipping any leading
// whitespace before calling this for a given offset; evalExprCST only
// skips whitespace between the internal sub-positions of a composite
// expression (sequence elements after the first, successive repeat
// iterations).
func evalExprCST(c *context[*cst.Node], e ir.Expr, offset int) result.Result[*cst.Node] {
	switch n := e.(type) {
	case *ir.Literal:
		end, ok := matchLiteral(c.text, offset, n)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, describeLiteral(n)))
		}
		return leafCST(c, cst.Terminal, offset, end)

	case *ir.CharClass:
		end, ok := matchCharClass(c.text, offset, n)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, describeCharClass(n)))
		}
		return leafCST(c, cst.Terminal, offset, end)

	case *ir.Any:
		end, ok := matchAny(c.text, offset)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, "any character"))
		}
		return leafCST(c, cst.Terminal, offset, end)

	case *ir.Dictionary:
		end, ok := matchDictionary(c.text, offset, n)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, describeDictionary(n)))
		}
		return leafCST(c, cst.Terminal, offset, end)

	case *ir.BackReference:
		v, ok := c.getCapture(n.Name)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, "capture $"+n.Name+" to be set"))
		}
		end, ok := matchBackReference(c.text, offset, v)
		if !ok {
			return result.Err[*cst.Node](c.fail(offset, strconv.Quote(v)))
		}
		return leafCST(c, cst.Terminal, offset, end)

	case *ir.Reference:
		r := c.grammar.ByName(n.RuleName)
		if r == nil {
			panic(fmt.Sprintf("engine: reference to undefined rule %q reached the evaluator unvalidated", n.RuleName))
		}
		return evalRuleCST(c, r, offset)

	case *ir.Sequence:
		return evalSequenceCST(c, n, offset)

	case *ir.Choice:
		return evalChoiceCST(c, n, offset)

	case *ir.ZeroOrMore:
		return evalRepeatCST(c, n.Expr, offset, 0, -1)

	case *ir.OneOrMore:
		return evalRepeatCST(c, n.Expr, offset, 1, -1)

	case *ir.Optional:
		return evalRepeatCST(c, n.Expr, offset, 0, 1)

	case *ir.Repetition:
		max := -1
		if n.Max != nil {
			max = *n.Max
		}
		return evalRepeatCST(c, n.Expr, offset, n.Min, max)

	case *ir.And:
		res := evalExprCST(c, n.Expr, offset)
		if res.OK() {
			return result.Pred[*cst.Node](c.at(offset), offset)
		}
		return result.Err[*cst.Node](c.fail(offset, "lookahead to succeed"))

	case *ir.Not:
		res := evalExprCST(c, n.Expr, offset)
		if res.OK() {
			return result.Err[*cst.Node](c.fail(offset, "lookahead to fail"))
		}
		return result.Pred[*cst.Node](c.at(offset), offset)

	case *ir.TokenBoundary:
		return evalTokenBoundaryCST(c, n, offset)

	case *ir.Ignore:
		return evalIgnoreCST(c, n, offset)

	case *ir.Capture:
		return evalCaptureCST(c, n, offset)

	case *ir.CaptureScope:
		c.pushCaptureScope()
		res := evalExprCST(c, n.Expr, offset)
		c.popCaptureScope(true)
		return res

	case *ir.Cut:
		return result.Pred[*cst.Node](c.at(offset), offset)

	case *ir.Group:
		return evalExprCST(c, n.Expr, offset)

	default:
		panic(fmt.Sprintf("engine: unhandled expression type %T", e))
	}
}

func leafCST(c *context[*cst.Node], kind cst.Kind, start, end int) result.Result[*cst.Node] {
	node := &cst.Node{Kind: kind, Span: pos.Span{Start: c.at(start), End: c.at(end)}, Text: c.text[start:end]}
	return result.Ok[*cst.Node](node, c.at(end), end)
}

func firstLeaf(n *cst.Node) *cst.Node {
	for n.Kind == cst.NonTerminal && len(n.Children) > 0 {
		n = n.Children[0]
	}
	return n
}

func evalSequenceCST(c *context[*cst.Node], seq *ir.Sequence, offset int) result.Result[*cst.Node] {
	cur := offset
	sigEnd := offset
	var children []*cst.Node
	var pending []trivia.Trivia
	cutFired := false

	for i, el := range seq.Elements {
		if i > 0 && !isPredicateElement(el) {
			wsEnd, pieces := c.skipWhitespace(cur)
			pending = append(pending, pieces...)
			cur = wsEnd
		}
		res := evalExprCST(c, el, cur)
		if res.Kind == result.CutFailure {
			return res
		}
		if res.Kind == result.Failure {
			if cutFired {
				return result.AsCut(res)
			}
			return res
		}
		switch res.Kind {
		case result.Success:
			node := res.Value
			if len(pending) > 0 {
				leaf := firstLeaf(node)
				leaf.LeadingTrivia = append(append([]trivia.Trivia{}, pending...), leaf.LeadingTrivia...)
				pending = nil
			}
			children = append(children, node)
			cur = res.EndOffset
			sigEnd = cur
		case result.Ignored:
			cur = res.EndOffset
			sigEnd = cur
		case result.PredicateSuccess:
			// zero-width: cur unchanged.
		}
		if _, isCut := el.(*ir.Cut); isCut {
			cutFired = true
		}
	}

	node := &cst.Node{Kind: cst.NonTerminal, Span: pos.Span{Start: c.at(offset), End: c.at(sigEnd)}, Children: children}
	if len(pending) > 0 {
		node.TrailingTrivia = pending
	}
	return result.Ok[*cst.Node](node, c.at(sigEnd), sigEnd)
}

func evalChoiceCST(c *context[*cst.Node], ch *ir.Choice, offset int) result.Result[*cst.Node] {
	var furthest *result.Fail
	for _, alt := range ch.Alternatives {
		res := evalExprCST(c, alt, offset)
		if res.Kind == result.CutFailure {
			return res
		}
		if res.OK() {
			return res
		}
		furthest = result.Merge(furthest, res.Fail)
	}
	return result.Err[*cst.Node](furthest)
}

// evalRepeatCST implements ZeroOrMore/OneOrMore/Optional/Repetition as
// one combinator: match inner up to max times (max<0 means unbounded),
// requiring at least min matches, stopping (without consuming the
// failed attempt) on the first ordinary failure, and always stopping
// on a zero-width non-predicate match to avoid looping forever (spec
// §4.1).
func evalRepeatCST(c *context[*cst.Node], inner ir.Expr, offset, min, max int) result.Result[*cst.Node] {
	cur := offset
	sigEnd := offset
	var children []*cst.Node
	var pending []trivia.Trivia
	count := 0

	for max < 0 || count < max {
		wsEnd, pieces := c.skipWhitespace(cur)
		res := evalExprCST(c, inner, wsEnd)
		if res.Kind == result.CutFailure {
			return res
		}
		if res.Kind == result.Failure {
			break
		}

		pending = append(pending, pieces...)
		zeroWidth := res.EndOffset == wsEnd

		switch res.Kind {
		case result.Success:
			node := res.Value
			if len(pending) > 0 {
				leaf := firstLeaf(node)
				leaf.LeadingTrivia = append(append([]trivia.Trivia{}, pending...), leaf.LeadingTrivia...)
				pending = nil
			}
			children = append(children, node)
			cur = res.EndOffset
			sigEnd = cur
		case result.Ignored:
			cur = res.EndOffset
			sigEnd = cur
		case result.PredicateSuccess:
			cur = wsEnd
		}
		count++
		if zeroWidth && res.Kind != result.PredicateSuccess {
			break
		}
	}

	if count < min {
		return result.Err[*cst.Node](c.fail(offset, "at least "+strconv.Itoa(min)+" repetitions"))
	}

	node := &cst.Node{Kind: cst.NonTerminal, Span: pos.Span{Start: c.at(offset), End: c.at(sigEnd)}, Children: children}
	if len(pending) > 0 {
		node.TrailingTrivia = pending
	}
	return result.Ok[*cst.Node](node, c.at(sigEnd), sigEnd)
}

func evalTokenBoundaryCST(c *context[*cst.Node], tb *ir.TokenBoundary, offset int) result.Result[*cst.Node] {
	c.tokenDepth++
	res := evalExprCST(c, tb.Expr, offset)
	c.tokenDepth--
	if !res.OK() {
		return res
	}
	end := res.EndOffset
	text := c.text[offset:end]
	c.noteToken(text)
	node := &cst.Node{Kind: cst.Token, Span: pos.Span{Start: c.at(offset), End: c.at(end)}, Text: text}
	return result.Ok[*cst.Node](node, c.at(end), end)
}

func evalIgnoreCST(c *context[*cst.Node], ig *ir.Ignore, offset int) result.Result[*cst.Node] {
	res := evalExprCST(c, ig.Expr, offset)
	switch res.Kind {
	case result.Success, result.Ignored:
		end := res.EndOffset
		return result.Ign[*cst.Node](c.text[offset:end], c.at(end), end)
	case result.PredicateSuccess:
		return result.Ign[*cst.Node]("", c.at(offset), offset)
	default:
		return res
	}
}

func evalCaptureCST(c *context[*cst.Node], capExpr *ir.Capture, offset int) result.Result[*cst.Node] {
	res := evalExprCST(c, capExpr.Expr, offset)
	if !res.OK() {
		return res
	}
	var text string
	switch res.Kind {
	case result.Success, result.Ignored:
		text = c.text[offset:res.EndOffset]
	case result.PredicateSuccess:
		text = ""
	}
	c.setCapture(capExpr.Name, text)
	return res
}
