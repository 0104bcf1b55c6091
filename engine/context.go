package engine

import (
	"github.com/gopeg/corepeg/diag"
	"github.com/gopeg/corepeg/ir"
	"github.com/gopeg/corepeg/pos"
	"github.com/gopeg/corepeg/result"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	ruleID int
	offset int
}

// cache abstracts over an unbounded map and a bounded LRU, so Config's
// PackratCacheSize can pick either without the evaluator caring which.
type cache[T any] interface {
	get(k cacheKey) (result.Result[T], bool)
	put(k cacheKey, v result.Result[T])
}

type mapCache[T any] map[cacheKey]result.Result[T]

func (c mapCache[T]) get(k cacheKey) (result.Result[T], bool) { v, ok := c[k]; return v, ok }
func (c mapCache[T]) put(k cacheKey, v result.Result[T])      { c[k] = v }

type lruCache[T any] struct{ c *lru.Cache[cacheKey, result.Result[T]] }

func (c lruCache[T]) get(k cacheKey) (result.Result[T], bool) { return c.c.Get(k) }
func (c lruCache[T]) put(k cacheKey, v result.Result[T])      { c.c.Add(k, v) }

func newCache[T any](size int) cache[T] {
	if size <= 0 {
		return make(mapCache[T])
	}
	c, err := lru.New[cacheKey, result.Result[T]](size)
	if err != nil {
		// size is always > 0 here, so lru.New cannot fail; fall back to
		// the unbounded map rather than propagate an unreachable error.
		return make(mapCache[T])
	}
	return lruCache[T]{c}
}

// context holds all mutable state threaded through one parse: the
// packrat cache, the capture map with its scope stack, the
// token-boundary depth, and the furthest-failure record. It is generic over the pass's payload type
// so the CST-building pass and the value-returning pass share one
// discipline for packrat memoization and capture bookkeeping (spec §3
// "Parsing context").
type context[T any] struct {
	text    string
	loc     *pos.Locator
	grammar *ir.Grammar
	cfg     Config

	cache cache[T]

	captures map[string]string
	capStack []map[string]string

	// tokenDepth > 0 means whitespace skipping and trivia collection are
	// disabled (spec §4.4 "inside a token boundary").
	tokenDepth int

	// tokenFrames tracks, per enclosing rule invocation, the text of the
	// first token boundary that fired directly within it, for the $0
	// fallback (spec §4.6).
	tokenFrames []*string

	furthest *result.Fail

	diagnostics []*diag.Diagnostic
}

func newContext[T any](g *ir.Grammar, cfg Config, text string) *context[T] {
	return &context[T]{
		text:     text,
		loc:      pos.NewLocator(text),
		grammar:  g,
		cfg:      cfg,
		cache:    newCache[T](cfg.PackratCacheSize),
		captures: make(map[string]string),
	}
}

func (c *context[T]) at(offset int) pos.Location { return c.loc.At(offset) }

// isPredicateElement reports whether e is a lookahead predicate (`&`/`!`),
// unwrapping any enclosing Group. Sequence must not skip whitespace
// before such an element (spec §4.1, §4.4(iii)): it is evaluated at the
// current offset exactly as the preceding element left it.
func isPredicateElement(e ir.Expr) bool {
	for {
		g, ok := e.(*ir.Group)
		if !ok {
			break
		}
		e = g.Expr
	}
	switch e.(type) {
	case *ir.And, *ir.Not:
		return true
	default:
		return false
	}
}

// recordFail merges f into the furthest-failure record (spec §4.5).
func (c *context[T]) recordFail(f *result.Fail) {
	c.furthest = result.Merge(c.furthest, f)
}

func (c *context[T]) fail(offset int, expected ...string) *result.Fail {
	f := &result.Fail{Offset: offset, Loc: c.at(offset), Expected: expected}
	c.recordFail(f)
	return f
}

// pushCaptureScope snapshots the current capture map so a CaptureScope
// (`$( … )`) can restore it on exit (spec §3, §9).
func (c *context[T]) pushCaptureScope() {
	snap := make(map[string]string, len(c.captures))
	for k, v := range c.captures {
		snap[k] = v
	}
	c.capStack = append(c.capStack, snap)
}

func (c *context[T]) popCaptureScope(restore bool) {
	n := len(c.capStack) - 1
	snap := c.capStack[n]
	c.capStack = c.capStack[:n]
	if restore {
		c.captures = snap
	}
}

func (c *context[T]) setCapture(name, text string) {
	c.captures[name] = text
}

func (c *context[T]) getCapture(name string) (string, bool) {
	v, ok := c.captures[name]
	return v, ok
}

func (c *context[T]) pushTokenFrame() {
	c.tokenFrames = append(c.tokenFrames, nil)
}

// popTokenFrame pops the current rule's token frame and returns the
// text captured by a direct `< … >` inside it, if any.
func (c *context[T]) popTokenFrame() *string {
	n := len(c.tokenFrames) - 1
	tok := c.tokenFrames[n]
	c.tokenFrames = c.tokenFrames[:n]
	return tok
}

// noteToken records text as the enclosing rule frame's token text, if
// that frame hasn't already captured one (the first `< … >` wins, so a
// rule has a single $0 slot).
func (c *context[T]) noteToken(text string) {
	if n := len(c.tokenFrames); n > 0 && c.tokenFrames[n-1] == nil {
		t := text
		c.tokenFrames[n-1] = &t
	}
}
