// Package result defines the shared parse-result shape evaluated by
// every expression in the engine (spec §3 "Parse Result"): Success,
// Failure, CutFailure, PredicateSuccess, and Ignored. It is generic
// over the payload type so the CST-building pass and the
// value-returning pass (spec §4.1) can share one result shape and one
// set of combinators instead of duplicating control flow, the same
// way the teacher's generated accepts/node/action passes share one
// position-tracking discipline across three separate functions.
package result

import "github.com/gopeg/corepeg/pos"

// A Kind discriminates the five result variants.
type Kind int

const (
	// Success carries a payload and an end position past the consumed
	// text.
	Success Kind = iota
	// Failure is backtrackable: a Choice may still try the next
	// alternative, a repetition may still stop cleanly.
	Failure
	// CutFailure is not backtrackable past the Choice alternative that
	// committed it (spec §4.3).
	CutFailure
	// PredicateSuccess is the result of a successful And/Not: no input
	// consumed, no node produced.
	PredicateSuccess
	// Ignored is the result of a successful Ignore (`~e`): input was
	// consumed but contributes no node/child value.
	Ignored
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case CutFailure:
		return "CutFailure"
	case PredicateSuccess:
		return "PredicateSuccess"
	case Ignored:
		return "Ignored"
	default:
		return "Kind(?)"
	}
}

// A Fail describes a failed match: where it happened and what was
// expected there (spec §3 "furthest-failure record").
type Fail struct {
	Offset   int
	Loc      pos.Location
	Expected []string
}

// Merge combines two Fails recorded at potentially different offsets
// into the furthest-failure discipline of spec §4.5: the fail with
// the greater offset wins outright; on equal offsets, Expected sets
// are unioned (without duplicates).
func Merge(a, b *Fail) *Fail {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Offset > b.Offset:
		return a
	case b.Offset > a.Offset:
		return b
	default:
		return &Fail{Offset: a.Offset, Loc: a.Loc, Expected: unionExpected(a.Expected, b.Expected)}
	}
}

func unionExpected(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// A Result is the outcome of evaluating one expression. T is the
// success payload: *cst.Node for the CST pass, the engine's internal
// valueOutcome (built from action.Value slots) for the value-returning
// pass.
type Result[T any] struct {
	Kind Kind

	// Value is meaningful only when Kind == Success.
	Value T

	// End/EndOffset are meaningful for Success, Ignored and
	// PredicateSuccess: the position just past the consumed text (for
	// PredicateSuccess, the unchanged position).
	End       pos.Location
	EndOffset int

	// Fail is meaningful for Failure and CutFailure.
	Fail *Fail

	// IgnoredText is meaningful only for Ignored.
	IgnoredText string
}

// Ok builds a Success result.
func Ok[T any](v T, end pos.Location, endOffset int) Result[T] {
	return Result[T]{Kind: Success, Value: v, End: end, EndOffset: endOffset}
}

// Err builds a backtrackable Failure result.
func Err[T any](f *Fail) Result[T] { return Result[T]{Kind: Failure, Fail: f} }

// CutErr builds a non-backtrackable CutFailure result.
func CutErr[T any](f *Fail) Result[T] { return Result[T]{Kind: CutFailure, Fail: f} }

// AsCut reinterprets a Failure as a CutFailure, e.g. when a Cut has
// fired earlier in the enclosing Choice alternative (spec §4.3).
func AsCut[T any](r Result[T]) Result[T] {
	if r.Kind == Failure {
		r.Kind = CutFailure
	}
	return r
}

// Pred builds a PredicateSuccess result.
func Pred[T any](end pos.Location, endOffset int) Result[T] {
	return Result[T]{Kind: PredicateSuccess, End: end, EndOffset: endOffset}
}

// Ign builds an Ignored result.
func Ign[T any](text string, end pos.Location, endOffset int) Result[T] {
	return Result[T]{Kind: Ignored, IgnoredText: text, End: end, EndOffset: endOffset}
}

// OK reports whether the result represents forward progress without a
// hard failure: Success, PredicateSuccess, or Ignored.
func (r Result[T]) OK() bool {
	return r.Kind == Success || r.Kind == PredicateSuccess || r.Kind == Ignored
}

// IsCut reports whether the result is a CutFailure.
func (r Result[T]) IsCut() bool { return r.Kind == CutFailure }
