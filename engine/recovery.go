package engine

import (
	"fmt"
	"strings"

	"github.com/gopeg/corepeg/cst"
	"github.com/gopeg/corepeg/diag"
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/result"
	"github.com/gopeg/corepeg/trivia"
)

// recoveryChars are the characters advanced recovery skips to, per
// spec §4.5: a comma, semicolon, closing bracket, or newline.
const recoveryChars = ",;})]\n"

func findRecoveryPoint(text string, from int) int {
	for i := from; i < len(text); i++ {
		if strings.IndexByte(recoveryChars, text[i]) >= 0 {
			return i + 1
		}
	}
	return len(text)
}

// ParseCSTWithDiagnostics parses input under the engine's configured
// RecoveryMode (spec §4.5 "advanced error recovery"): on a parse
// failure, RecoveryBasic reports it without resuming; RecoveryAdvanced
// skips to the nearest recovery point, splices in an Error CST node
// covering the skipped text, and resumes, accumulating a Diagnostic
// per error. RecoveryNone behaves exactly like ParseCST, wrapping its
// single error in a one-element Diagnostic slice.
func (e *Engine) ParseCSTWithDiagnostics(input string, rule ...string) (*cst.Node, []*diag.Diagnostic, error) {
	if e.cfg.Recovery == RecoveryNone {
		node, err := e.ParseCST(input, rule...)
		if err != nil {
			if d, ok := err.(*diag.Diagnostic); ok {
				return nil, []*diag.Diagnostic{d}, err
			}
			return nil, nil, err
		}
		return node, nil, nil
	}

	r, err := e.resolveStart(rule)
	if err != nil {
		return nil, nil, err
	}

	c := newContext[*cst.Node](e.grammar, e.cfg, input)
	var diags []*diag.Diagnostic
	var segments []*cst.Node

	offset, pending := c.skipWhitespace(0)
	for offset < len(input) {
		res := evalRuleCST(c, r, offset)
		if res.Kind == result.Success {
			node := res.Value
			if len(pending) > 0 {
				leaf := firstLeaf(node)
				leaf.LeadingTrivia = append(append([]trivia.Trivia{}, pending...), leaf.LeadingTrivia...)
				pending = nil
			}
			segments = append(segments, node)
			offset, pending = c.skipWhitespace(res.EndOffset)
			continue
		}

		d := e.diagFromFail(res.Fail)
		diags = append(diags, d)

		failOffset := offset
		var expected []string
		if res.Fail != nil {
			failOffset = res.Fail.Offset
			expected = res.Fail.Expected
		}
		recov := findRecoveryPoint(input, failOffset)
		errNode := &cst.Node{
			Kind:     cst.Error,
			Span:     pos.Span{Start: c.at(failOffset), End: c.at(recov)},
			Text:     input[failOffset:recov],
			Expected: expected,
		}
		if len(pending) > 0 {
			errNode.LeadingTrivia = append([]trivia.Trivia{}, pending...)
			pending = nil
		}
		segments = append(segments, errNode)

		if e.cfg.Recovery == RecoveryBasic || recov <= offset {
			break
		}
		offset, pending = c.skipWhitespace(recov)
	}

	if len(pending) > 0 && len(segments) > 0 {
		segments[len(segments)-1].TrailingTrivia = append(segments[len(segments)-1].TrailingTrivia, pending...)
		pending = nil
	}

	root := &cst.Node{Kind: cst.NonTerminal, Children: segments}
	if len(segments) > 0 {
		root.Span = pos.Span{Start: segments[0].Span.Start, End: segments[len(segments)-1].Span.End}
	}
	if len(pending) > 0 {
		root.LeadingTrivia = append(root.LeadingTrivia, pending...)
	}
	if len(diags) == 0 {
		return root, nil, nil
	}
	return root, diags, fmt.Errorf("parse completed with %d error(s)", len(diags))
}
