// Package cst defines the concrete and abstract syntax tree node
// model produced by the engine (spec §3 "CST node" / "AST node").
package cst

import (
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/trivia"
)

// A Kind discriminates the four CST node variants.
type Kind int

const (
	// Terminal is a literal/character-class/any match.
	Terminal Kind = iota
	// NonTerminal is a composite node whose span covers its children.
	NonTerminal
	// Token is the result of a token-boundary (< … >) capture.
	Token
	// Error is present only when advanced recovery is enabled.
	Error
)

func (k Kind) String() string {
	switch k {
	case Terminal:
		return "Terminal"
	case NonTerminal:
		return "NonTerminal"
	case Token:
		return "Token"
	case Error:
		return "Error"
	default:
		return "Kind(?)"
	}
}

// A Node is one CST node. Every variant shares the header fields
// (Span, Rule, LeadingTrivia, TrailingTrivia); the remaining fields
// are populated according to Kind:
//
//	Terminal/Token: Text
//	NonTerminal:    Children
//	Error:          Text (skipped text), Expected
type Node struct {
	Kind Kind

	// Span covers the node's own text. It does not contain the text of
	// LeadingTrivia/TrailingTrivia — those are held as siblings, not
	// nested inside the span (spec §3 invariant).
	Span pos.Span

	// Rule is the name of the Rule that produced this node, or "" for
	// anonymous nodes not tied 1:1 to a rule (e.g. a rule-wrapping that
	// preserves the inner node's Kind carries the rule name instead).
	Rule string

	LeadingTrivia  []trivia.Trivia
	TrailingTrivia []trivia.Trivia

	// Text holds the matched text for Terminal and Token nodes, or the
	// skipped source text for Error nodes.
	Text string

	// Children holds the sub-nodes of a NonTerminal.
	Children []*Node

	// Expected holds the failure's expected-set description, present
	// only on Error nodes.
	Expected []string
}

// PrettyPrint implements github.com/eaburns/pretty's PrettyPrinter
// interface with a compact, Kind-tagged rendering.
func (n *Node) PrettyPrint() string {
	if n == nil {
		return "Node(nil)"
	}
	name := n.Rule
	if name == "" {
		name = n.Kind.String()
	}
	if n.Kind == NonTerminal {
		return name + "{...}"
	}
	return name + "(" + n.Text + ")"
}

// Text returns the source text of n's subtree: a leaf's own Text, or,
// for a NonTerminal, TriviaAndText of each child in document order (so
// descendants' trivia is included, but n's own trivia lists are not).
// TriviaAndText over the root is what the round-trip property (spec
// §8.1) compares with the input.
func Text(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case Terminal, Token, Error:
		return n.Text
	case NonTerminal:
		var s string
		for _, c := range n.Children {
			s += TriviaAndText(c)
		}
		return s
	}
	return ""
}

// TriviaAndText returns a node's leading trivia text, its own text (or
// its children's, recursively), and its trailing trivia text, in that
// order — the unit that the round-trip property sums over the root.
func TriviaAndText(n *Node) string {
	if n == nil {
		return ""
	}
	var s string
	for _, t := range n.LeadingTrivia {
		s += t.Text
	}
	s += Text(n)
	for _, t := range n.TrailingTrivia {
		s += t.Text
	}
	return s
}

// Walk calls f for n and every descendant, in preorder, stopping early
// if f returns false for any node.
func Walk(n *Node, f func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !f(n) {
		return false
	}
	if n.Kind == NonTerminal {
		for _, c := range n.Children {
			if !Walk(c, f) {
				return false
			}
		}
	}
	return true
}
