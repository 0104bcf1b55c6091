// Package engine implements the PEG interpreter (spec §3 "PEG Engine",
// §4): packrat-memoized evaluation of a validated ir.Grammar against
// input text, producing a CST, an AST projection, or (in
// value-returning mode) the start rule's computed semantic value.
package engine

import (
	"fmt"
	"strings"

	"github.com/gopeg/corepeg/cst"
	"github.com/gopeg/corepeg/diag"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/result"
	"github.com/gopeg/corepeg/trivia"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A RecoveryMode selects how a parse failure at the top level is
// handled (spec §4.5).
type RecoveryMode int

const (
	// RecoveryNone fails the parse outright on the first error.
	RecoveryNone RecoveryMode = iota
	// RecoveryBasic reports the first error (as an Error CST node plus
	// a Diagnostic) without attempting to resume.
	RecoveryBasic
	// RecoveryAdvanced skips to the nearest recovery point and resumes
	// parsing, accumulating every Diagnostic encountered.
	RecoveryAdvanced
)

// Config tunes one Engine's behavior. The zero Config is a valid,
// permissive default: unbounded packrat cache, no recovery, standard
// logger.
type Config struct {
	// PackratCacheSize bounds the packrat cache to an LRU of this many
	// entries per pass; 0 means an unbounded map (spec §9 "Packrat
	// cache sizing" is left to the host).
	PackratCacheSize int

	Recovery RecoveryMode

	// Logger receives structured diagnostics about parse attempts. If
	// nil, logrus.StandardLogger() is used.
	Logger *logrus.Logger
}

func (cfg Config) logger() *logrus.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return logrus.StandardLogger()
}

// An Engine evaluates one validated Grammar. It is immutable and safe
// for concurrent use by multiple goroutines, each parsing different
// input through its own context (spec §3 "the engine itself holds no
// per-parse state").
type Engine struct {
	grammar *ir.Grammar
	cfg     Config
}

// New validates g and builds an Engine for it.
func New(g *ir.Grammar, cfg Config) (*Engine, error) {
	if err := ir.Validate(g); err != nil {
		return nil, errors.Wrap(err, "invalid grammar")
	}
	return &Engine{grammar: g, cfg: cfg}, nil
}

func (e *Engine) resolveStart(startRule []string) (*ir.Rule, error) {
	if len(startRule) > 0 && startRule[0] != "" {
		r := e.grammar.ByName(startRule[0])
		if r == nil {
			return nil, fmt.Errorf("engine: start rule %q not found", startRule[0])
		}
		return r, nil
	}
	r := e.grammar.EffectiveStartRule()
	if r == nil {
		return nil, fmt.Errorf("engine: grammar has no rules")
	}
	return r, nil
}

func (e *Engine) diagFromFail(f *result.Fail) *diag.Diagnostic {
	if f == nil {
		return &diag.Diagnostic{Severity: diag.Error, Code: "E0001", Message: "parse failed"}
	}
	msg := "unexpected input"
	if len(f.Expected) > 0 {
		msg = "expected " + strings.Join(f.Expected, " or ")
	}
	return &diag.Diagnostic{
		Severity: diag.Error,
		Code:     "E0001",
		Message:  msg,
		Labels: []diag.Label{{
			Span:    pos.Span{Start: f.Loc, End: f.Loc},
			Message: msg,
			Primary: true,
		}},
	}
}

// ParseCST parses input with rule (or the grammar's start rule if rule
// is omitted) and returns the full concrete syntax tree, including
// trivia, on success (spec §4.2, the first of the three parse entry
// points).
func (e *Engine) ParseCST(input string, rule ...string) (*cst.Node, error) {
	r, err := e.resolveStart(rule)
	if err != nil {
		return nil, err
	}
	log := e.cfg.logger().WithFields(logrus.Fields{"rule": r.Name, "mode": "cst"})
	log.Debug("parse starting")

	c := newContext[*cst.Node](e.grammar, e.cfg, input)
	lead, leadPieces := c.skipWhitespace(0)
	res := evalRuleCST(c, r, lead)
	if res.Kind != result.Success {
		d := e.diagFromFail(c.furthest)
		log.WithField("error", d.Message).Warn("parse failed")
		return nil, d
	}
	node := res.Value
	if len(leadPieces) > 0 {
		leaf := firstLeaf(node)
		leaf.LeadingTrivia = append(append([]trivia.Trivia{}, leadPieces...), leaf.LeadingTrivia...)
	}
	trailEnd, trailPieces := c.skipWhitespace(res.EndOffset)
	node.TrailingTrivia = append(node.TrailingTrivia, trailPieces...)
	if trailEnd != len(input) {
		c.fail(trailEnd, "end of input")
		d := e.diagFromFail(c.furthest)
		log.WithField("error", d.Message).Warn("trailing input not consumed")
		return nil, d
	}
	log.Debug("parse succeeded")
	return node, nil
}

// ParseAST parses input like ParseCST, then projects the result to an
// AST (trivia stripped, Token merged into Terminal) (spec §4.2, second
// entry point).
func (e *Engine) ParseAST(input string, rule ...string) (*cst.ASTNode, error) {
	n, err := e.ParseCST(input, rule...)
	if err != nil {
		return nil, err
	}
	return cst.ToAST(n), nil
}

// Parse runs the value-returning pass: like ParseCST, but invoking
// each matched rule's action and returning the start rule's own
// semantic value instead of a tree (spec §4.2, third entry point;
// §4.6 "Action Hook").
func (e *Engine) Parse(input string, rule ...string) (interface{}, error) {
	r, err := e.resolveStart(rule)
	if err != nil {
		return nil, err
	}
	log := e.cfg.logger().WithFields(logrus.Fields{"rule": r.Name, "mode": "value"})
	log.Debug("parse starting")

	c := newContext[valueOutcome](e.grammar, e.cfg, input)
	lead, _ := c.skipWhitespace(0)
	res := evalRuleValue(c, r, lead)
	if res.Kind != result.Success {
		d := e.diagFromFail(c.furthest)
		log.WithField("error", d.Message).Warn("parse failed")
		return nil, d
	}
	trailEnd, _ := c.skipWhitespace(res.EndOffset)
	if trailEnd != len(input) {
		c.fail(trailEnd, "end of input")
		d := e.diagFromFail(c.furthest)
		log.WithField("error", d.Message).Warn("trailing input not consumed")
		return nil, d
	}
	log.Debug("parse succeeded")
	return res.Value.single.V, nil
}
