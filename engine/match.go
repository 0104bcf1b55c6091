package engine

import (
	"unicode/utf8"

	"github.com/gopeg/corepeg/ir"
)

// foldASCII folds a single ASCII letter to lower case; spec §1
// Non-goals rule out anything beyond ASCII-style case folding for
// case-insensitive literals.
func foldASCII(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) != len(br) {
		return false
	}
	for i := range ar {
		if foldASCII(ar[i]) != foldASCII(br[i]) {
			return false
		}
	}
	return true
}

// matchLiteral reports whether text[offset:] starts with lit.Text
// (honoring lit.CaseInsensitive), returning the offset just past the
// match.
func matchLiteral(text string, offset int, lit *ir.Literal) (int, bool) {
	n := len(lit.Text)
	if offset+n > len(text) {
		return offset, false
	}
	cand := text[offset : offset+n]
	if lit.CaseInsensitive {
		if !equalFold(cand, lit.Text) {
			return offset, false
		}
	} else if cand != lit.Text {
		return offset, false
	}
	return offset + n, true
}

// matchAny decodes a single rune at offset, failing only at EOF or on
// invalid UTF-8 (mirroring the teacher's utf8.RuneError check).
func matchAny(text string, offset int) (int, bool) {
	if offset >= len(text) {
		return offset, false
	}
	r, w := utf8.DecodeRuneInString(text[offset:])
	if w == 0 || r == utf8.RuneError && w == 1 {
		return offset, false
	}
	return offset + w, true
}

// matchCharClass decodes a single rune at offset and tests it against
// cc's spans, honoring Negated and CaseInsensitive.
func matchCharClass(text string, offset int, cc *ir.CharClass) (int, bool) {
	if offset >= len(text) {
		return offset, false
	}
	r, w := utf8.DecodeRuneInString(text[offset:])
	if w == 0 {
		return offset, false
	}
	in := runeInSpans(r, cc.Spans, cc.CaseInsensitive)
	if in == cc.Negated {
		return offset, false
	}
	return offset + w, true
}

func runeInSpans(r rune, spans [][2]rune, ci bool) bool {
	for _, sp := range spans {
		if r >= sp[0] && r <= sp[1] {
			return true
		}
		if !ci {
			continue
		}
		var alt rune
		switch {
		case r >= 'a' && r <= 'z':
			alt = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			alt = r - 'A' + 'a'
		default:
			continue
		}
		if alt >= sp[0] && alt <= sp[1] {
			return true
		}
	}
	return false
}

// matchDictionary finds the longest word in dict.Words that text[offset:]
// starts with, honoring CaseInsensitive. It returns the offset just past
// that word and true, or offset and false if no word matches.
func matchDictionary(text string, offset int, dict *ir.Dictionary) (int, bool) {
	best := -1
	for _, w := range dict.Words {
		n := len(w)
		if offset+n > len(text) {
			continue
		}
		cand := text[offset : offset+n]
		match := cand == w
		if dict.CaseInsensitive {
			match = equalFold(cand, w)
		}
		if match && n > best {
			best = n
		}
	}
	if best < 0 {
		return offset, false
	}
	return offset + best, true
}

// matchBackReference matches the literal text previously captured
// under name at offset.
func matchBackReference(text string, offset int, captured string) (int, bool) {
	n := len(captured)
	if offset+n > len(text) || text[offset:offset+n] != captured {
		return offset, false
	}
	return offset + n, true
}
