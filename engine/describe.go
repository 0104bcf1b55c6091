package engine

import (
	"strconv"
	"strings"

	"github.com/gopeg/corepeg/ir"
)

func describeLiteral(l *ir.Literal) string { return strconv.Quote(l.Text) }

func describeCharClass(cc *ir.CharClass) string {
	var b strings.Builder
	b.WriteByte('[')
	if cc.Negated {
		b.WriteByte('^')
	}
	for _, sp := range cc.Spans {
		if sp[0] == sp[1] {
			b.WriteRune(sp[0])
		} else {
			b.WriteRune(sp[0])
			b.WriteByte('-')
			b.WriteRune(sp[1])
		}
	}
	b.WriteByte(']')
	return b.String()
}

func describeDictionary(d *ir.Dictionary) string {
	return "one of " + strings.Join(quoteAll(d.Words), ", ")
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
