package ir

// Walk calls f for e and, recursively, for every sub-expression it
// contains, in preorder. Walk stops descending into a subtree as soon
// as f returns false for its root, but continues with siblings.
func Walk(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	switch n := e.(type) {
	case *Sequence:
		for _, k := range n.Elements {
			Walk(k, f)
		}
	case *Choice:
		for _, k := range n.Alternatives {
			Walk(k, f)
		}
	case *ZeroOrMore:
		Walk(n.Expr, f)
	case *OneOrMore:
		Walk(n.Expr, f)
	case *Optional:
		Walk(n.Expr, f)
	case *Repetition:
		Walk(n.Expr, f)
	case *And:
		Walk(n.Expr, f)
	case *Not:
		Walk(n.Expr, f)
	case *TokenBoundary:
		Walk(n.Expr, f)
	case *Ignore:
		Walk(n.Expr, f)
	case *Capture:
		Walk(n.Expr, f)
	case *CaptureScope:
		Walk(n.Expr, f)
	case *Group:
		Walk(n.Expr, f)
	// Literal, CharClass, Any, Reference, Dictionary, BackReference, Cut
	// are leaves with no sub-expressions.
	}
}
