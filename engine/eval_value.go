package engine

import (
	"fmt"
	"strconv"

	"github.com/gopeg/corepeg/action"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/result"
)

// valueOutcome is the payload of the value-returning pass (spec §4.6).
// single is what this (sub)expression contributes as one positional
// slot to whatever sequence encloses it; children is the list of such
// slots this expression exposes if it is itself sequence-shaped
// (populated by Sequence and threaded transparently through Choice,
// Group, Capture and CaptureScope) — it is what a Rule turns into
// $1..$N for its action.
type valueOutcome struct {
	children []action.Value
	single   action.Value
}

// evalRuleValue mirrors evalRuleCST's rule-entry protocol, but invokes
// the rule's action (if any) on a successful match instead of building
// a CST node; a rule with no action yields its own matched text as its
// semantic value, so simple token rules don't need a trivial action
// just to be usable from $N (spec §4.6).
func evalRuleValue(c *context[valueOutcome], r *ir.Rule, offset int) result.Result[valueOutcome] {
	key := cacheKey{r.ID(), offset}
	if v, ok := c.cache.get(key); ok {
		return v
	}

	c.pushTokenFrame()
	body := evalExprValue(c, r.Expression, offset)
	tok := c.popTokenFrame()

	if body.Kind == result.Failure || body.Kind == result.CutFailure {
		if r.ErrorMessage != "" {
			body.Fail = &result.Fail{Offset: offset, Loc: c.at(offset), Expected: []string{r.ErrorMessage}}
		}
		c.cache.put(key, body)
		return body
	}

	var endOffset int
	switch body.Kind {
	case result.Success, result.Ignored:
		endOffset = body.EndOffset
	case result.PredicateSuccess:
		endOffset = offset
	}
	matchedText := c.text[offset:endOffset]

	var semantic interface{}
	if r.Action != nil {
		vals := action.NewValues(matchedText, tok, body.Value.children)
		v, err := r.Action(vals)
		if err != nil {
			f := &result.Fail{Offset: offset, Loc: c.at(offset), Expected: []string{err.Error()}}
			c.recordFail(f)
			errRes := result.Err[valueOutcome](f)
			c.cache.put(key, errRes)
			return errRes
		}
		semantic = v
	} else {
		semantic = matchedText
	}

	out := result.Ok[valueOutcome](valueOutcome{single: action.Present(semantic)}, c.at(endOffset), endOffset)
	c.cache.put(key, out)
	return out
}

func evalExprValue(c *context[valueOutcome], e ir.Expr, offset int) result.Result[valueOutcome] {
	switch n := e.(type) {
	case *ir.Literal:
		end, ok := matchLiteral(c.text, offset, n)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, describeLiteral(n)))
		}
		return leafValue(c, offset, end)

	case *ir.CharClass:
		end, ok := matchCharClass(c.text, offset, n)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, describeCharClass(n)))
		}
		return leafValue(c, offset, end)

	case *ir.Any:
		end, ok := matchAny(c.text, offset)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, "any character"))
		}
		return leafValue(c, offset, end)

	case *ir.Dictionary:
		end, ok := matchDictionary(c.text, offset, n)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, describeDictionary(n)))
		}
		return leafValue(c, offset, end)

	case *ir.BackReference:
		v, ok := c.getCapture(n.Name)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, "capture $"+n.Name+" to be set"))
		}
		end, ok := matchBackReference(c.text, offset, v)
		if !ok {
			return result.Err[valueOutcome](c.fail(offset, strconv.Quote(v)))
		}
		return leafValue(c, offset, end)

	case *ir.Reference:
		r := c.grammar.ByName(n.RuleName)
		if r == nil {
			panic(fmt.Sprintf("engine: reference to undefined rule %q reached the evaluator unvalidated", n.RuleName))
		}
		res := evalRuleValue(c, r, offset)
		if !res.OK() {
			return res
		}
		return result.Ok[valueOutcome](valueOutcome{single: res.Value.single}, res.End, res.EndOffset)

	case *ir.Sequence:
		return evalSequenceValue(c, n, offset)

	case *ir.Choice:
		return evalChoiceValue(c, n, offset)

	case *ir.ZeroOrMore:
		return evalRepeatValue(c, n.Expr, offset, 0, -1)

	case *ir.OneOrMore:
		return evalRepeatValue(c, n.Expr, offset, 1, -1)

	case *ir.Optional:
		return evalRepeatValue(c, n.Expr, offset, 0, 1)

	case *ir.Repetition:
		max := -1
		if n.Max != nil {
			max = *n.Max
		}
		return evalRepeatValue(c, n.Expr, offset, n.Min, max)

	case *ir.And:
		res := evalExprValue(c, n.Expr, offset)
		if res.OK() {
			return result.Pred[valueOutcome](c.at(offset), offset)
		}
		return result.Err[valueOutcome](c.fail(offset, "lookahead to succeed"))

	case *ir.Not:
		res := evalExprValue(c, n.Expr, offset)
		if res.OK() {
			return result.Err[valueOutcome](c.fail(offset, "lookahead to fail"))
		}
		return result.Pred[valueOutcome](c.at(offset), offset)

	case *ir.TokenBoundary:
		c.tokenDepth++
		res := evalExprValue(c, n.Expr, offset)
		c.tokenDepth--
		if !res.OK() {
			return res
		}
		end := res.EndOffset
		text := c.text[offset:end]
		c.noteToken(text)
		return result.Ok[valueOutcome](valueOutcome{single: action.Present(text)}, c.at(end), end)

	case *ir.Ignore:
		res := evalExprValue(c, n.Expr, offset)
		switch res.Kind {
		case result.Success, result.Ignored:
			end := res.EndOffset
			return result.Ign[valueOutcome](c.text[offset:end], c.at(end), end)
		case result.PredicateSuccess:
			return result.Ign[valueOutcome]("", c.at(offset), offset)
		default:
			return res
		}

	case *ir.Capture:
		res := evalExprValue(c, n.Expr, offset)
		if !res.OK() {
			return res
		}
		var text string
		switch res.Kind {
		case result.Success, result.Ignored:
			text = c.text[offset:res.EndOffset]
		}
		c.setCapture(n.Name, text)
		return res

	case *ir.CaptureScope:
		c.pushCaptureScope()
		res := evalExprValue(c, n.Expr, offset)
		c.popCaptureScope(true)
		return res

	case *ir.Cut:
		return result.Pred[valueOutcome](c.at(offset), offset)

	case *ir.Group:
		return evalExprValue(c, n.Expr, offset)

	default:
		panic(fmt.Sprintf("engine: unhandled expression type %T", e))
	}
}

func leafValue(c *context[valueOutcome], start, end int) result.Result[valueOutcome] {
	return result.Ok[valueOutcome](valueOutcome{single: action.Present(c.text[start:end])}, c.at(end), end)
}

func evalSequenceValue(c *context[valueOutcome], seq *ir.Sequence, offset int) result.Result[valueOutcome] {
	cur := offset
	var children []action.Value
	cutFired := false

	for i, el := range seq.Elements {
		if i > 0 && !isPredicateElement(el) {
			wsEnd, _ := c.skipWhitespace(cur)
			cur = wsEnd
		}
		res := evalExprValue(c, el, cur)
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
			children = append(children, res.Value.single)
			cur = res.EndOffset
		case result.Ignored:
			cur = res.EndOffset
		case result.PredicateSuccess:
		}
		if _, isCut := el.(*ir.Cut); isCut {
			cutFired = true
		}
	}

	text := c.text[offset:cur]
	return result.Ok[valueOutcome](valueOutcome{single: action.Present(text), children: children}, c.at(cur), cur)
}

// evalChoiceValue returns the winning alternative's outcome verbatim,
// including its children, so a rule body written as `a / b / c` still
// exposes that alternative's own $1..$N to the rule's action.
func evalChoiceValue(c *context[valueOutcome], ch *ir.Choice, offset int) result.Result[valueOutcome] {
	var furthest *result.Fail
	for _, alt := range ch.Alternatives {
		res := evalExprValue(c, alt, offset)
		if res.Kind == result.CutFailure {
			return res
		}
		if res.OK() {
			return res
		}
		furthest = result.Merge(furthest, res.Fail)
	}
	return result.Err[valueOutcome](furthest)
}

func evalRepeatValue(c *context[valueOutcome], inner ir.Expr, offset, min, max int) result.Result[valueOutcome] {
	cur := offset
	var children []action.Value
	count := 0

	for max < 0 || count < max {
		wsEnd, _ := c.skipWhitespace(cur)
		res := evalExprValue(c, inner, wsEnd)
		if res.Kind == result.CutFailure {
			return res
		}
		if res.Kind == result.Failure {
			break
		}
		zeroWidth := res.EndOffset == wsEnd
		switch res.Kind {
		case result.Success:
			children = append(children, res.Value.single)
			cur = res.EndOffset
		case result.Ignored:
			cur = res.EndOffset
		case result.PredicateSuccess:
			cur = wsEnd
		}
		count++
		if zeroWidth && res.Kind != result.PredicateSuccess {
			break
		}
	}

	if count < min {
		return result.Err[valueOutcome](c.fail(offset, "at least "+strconv.Itoa(min)+" repetitions"))
	}
	text := c.text[offset:cur]
	return result.Ok[valueOutcome](valueOutcome{single: action.Present(text), children: children}, c.at(cur), cur)
}
