package percolate

import "strconv"

// ═══════════════════════════════════════════════════════════════════════════════
// CNF NORMALIZATION
// ═══════════════════════════════════════════════════════════════════════════════
// Every registered query is reduced to conjunctive normal form exactly once, at
// AddQuery time: a conjunction of clauses, each clause a disjunction of
// literals. Two passes get there:
//
//   1. Negation Normal Form (NNF): push NOT inward via De Morgan until every
//      negation sits directly on a literal. NOT(NOT(L)) cancels to L — Neg is
//      plain classical complement (see literal.go), so double negation is an
//      identity with no extra bookkeeping.
//
//   2. Distribution: expand OR-of-AND into AND-of-OR by cross-multiplying
//      clauses, the same way a polynomial expansion distributes multiplication
//      over addition.
//
// A final simplification pass dedupes literals within a clause and drops any
// clause that is a tautology — contains both L and NOT L — since ANDing with
// an always-true clause changes nothing.
// ═══════════════════════════════════════════════════════════════════════════════

// Clause is a disjunction of literals.
type Clause []Literal

// CNFQuery is a conjunction of clauses: the normalized form every registered
// query is reduced to. A CNFQuery with zero clauses is trivially true (an
// empty AND) and matches every non-empty document; the empty document itself
// never counts as a match, since it carries no field a caller could have
// meant to test. A CNFQuery containing an empty clause (an OR of nothing) is
// unsatisfiable and matches no document.
type CNFQuery struct {
	Clauses []Clause
}

// Matches evaluates the CNF directly against a document. It never consults
// the clause index or any pre-heater; it is the ground-truth confirmation
// Percolate runs on every candidate the clause indexes produce.
func (q CNFQuery) Matches(d *Document) bool {
	if len(q.Clauses) == 0 {
		return len(d.Fields()) > 0
	}
	for _, clause := range q.Clauses {
		if !clauseMatches(clause, d) {
			return false
		}
	}
	return true
}

func clauseMatches(clause Clause, d *Document) bool {
	for _, lit := range clause {
		if lit.Matches(d) {
			return true
		}
	}
	return false
}

// NormalizeCNF reduces an Expr tree to conjunctive normal form.
func NormalizeCNF(e Expr) CNFQuery {
	nnf := toNNF(e, false)
	clauses := toCNF(nnf)
	simplified := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		clause, tautology := simplifyClause(c)
		if tautology {
			continue
		}
		simplified = append(simplified, clause)
	}
	return CNFQuery{Clauses: simplified}
}

// toNNF pushes negation down to the literals. negate indicates whether the
// enclosing context inverts this subtree.
func toNNF(e Expr, negate bool) Expr {
	switch v := e.(type) {
	case ExprLiteral:
		if !negate {
			return v
		}
		return ExprLiteral{Lit: negateLiteral(v.Lit)}
	case ExprNot:
		return toNNF(v.Child, !negate)
	case ExprAnd:
		children := make([]Expr, len(v.Children))
		for i, c := range v.Children {
			children[i] = toNNF(c, negate)
		}
		if negate {
			return ExprOr{Children: children}
		}
		return ExprAnd{Children: children}
	case ExprOr:
		children := make([]Expr, len(v.Children))
		for i, c := range v.Children {
			children[i] = toNNF(c, negate)
		}
		if negate {
			return ExprAnd{Children: children}
		}
		return ExprOr{Children: children}
	default:
		return v
	}
}

// negateLiteral negates l, canceling a double negation instead of nesting it.
func negateLiteral(l Literal) Literal {
	if neg, ok := l.(Neg); ok {
		return neg.Inner()
	}
	return NewNeg(l)
}

// toCNF expands an NNF tree into a list of clauses via OR-over-AND
// distribution.
func toCNF(e Expr) []Clause {
	switch v := e.(type) {
	case ExprLiteral:
		return []Clause{{v.Lit}}
	case ExprAnd:
		var clauses []Clause
		for _, c := range v.Children {
			clauses = append(clauses, toCNF(c)...)
		}
		return clauses
	case ExprOr:
		if len(v.Children) == 0 {
			// OR of nothing is false: an unsatisfiable empty clause.
			return []Clause{{}}
		}
		result := toCNF(v.Children[0])
		for _, c := range v.Children[1:] {
			result = distributeOr(result, toCNF(c))
		}
		return result
	default:
		return nil
	}
}

// distributeOr cross-multiplies two clause sets: (a1 OR a2) with (b1 OR b2)
// becomes (a1 OR b1), (a1 OR b2), (a2 OR b1), (a2 OR b2).
func distributeOr(a, b []Clause) []Clause {
	out := make([]Clause, 0, len(a)*len(b))
	for _, ca := range a {
		for _, cb := range b {
			merged := make(Clause, 0, len(ca)+len(cb))
			merged = append(merged, ca...)
			merged = append(merged, cb...)
			out = append(out, merged)
		}
	}
	return out
}

// simplifyClause dedupes literals by their structural identity and reports
// whether the clause is a tautology (contains both some L and NOT L).
func simplifyClause(c Clause) (Clause, bool) {
	seen := make(map[string]bool, len(c))
	negSeen := make(map[string]bool, len(c))
	out := make(Clause, 0, len(c))
	for _, lit := range c {
		key := literalKey(lit)
		if neg, ok := lit.(Neg); ok {
			innerKey := literalKey(neg.Inner())
			if seen[innerKey] {
				return nil, true
			}
			if negSeen[key] {
				continue
			}
			negSeen[key] = true
		} else {
			if negSeen[literalKey(NewNeg(lit))] {
				return nil, true
			}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, lit)
	}
	return out, false
}

// literalKey returns a structural identity string for a literal, used to
// dedupe and to detect L/NOT L pairs within a clause.
func literalKey(l Literal) string {
	switch v := l.(type) {
	case HasValue:
		return "hv:" + v.Field() + "\x00" + v.Value()
	case HasPrefix:
		return "hp:" + v.Field() + "\x00" + v.Prefix()
	case IntCmp:
		return "ic:" + v.Field() + "\x00" + v.Op().String() + "\x00" + strconv.FormatInt(v.N(), 10)
	case H3In:
		return "h3:" + v.Field() + "\x00" + v.Cell().String()
	case LatLngWithin:
		return "llw:" + v.Field() + "\x00" + strconv.FormatFloat(v.Lat(), 'g', -1, 64) +
			"\x00" + strconv.FormatFloat(v.Lng(), 'g', -1, 64) +
			"\x00" + strconv.FormatFloat(v.RadiusMeters(), 'g', -1, 64)
	case Neg:
		return "neg:" + literalKey(v.Inner())
	default:
		return "?"
	}
}
