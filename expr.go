package percolate

// Expr is an unnormalized boolean expression tree over literals: the input
// shape a caller builds a query in, before NormalizeCNF reduces it to
// conjunctive normal form. Expr trees are never evaluated directly.
type Expr interface {
	isExpr()
}

// ExprLiteral wraps a single literal as a leaf expression.
type ExprLiteral struct {
	Lit Literal
}

// ExprAnd is the conjunction of its children.
type ExprAnd struct {
	Children []Expr
}

// ExprOr is the disjunction of its children.
type ExprOr struct {
	Children []Expr
}

// ExprNot is the negation of its single child.
type ExprNot struct {
	Child Expr
}

func (ExprLiteral) isExpr() {}
func (ExprAnd) isExpr()     {}
func (ExprOr) isExpr()      {}
func (ExprNot) isExpr()     {}

// L wraps a literal as a leaf Expr.
func L(lit Literal) Expr { return ExprLiteral{Lit: lit} }

// And conjoins expressions.
func And(exprs ...Expr) Expr { return ExprAnd{Children: exprs} }

// Or disjoins expressions.
func Or(exprs ...Expr) Expr { return ExprOr{Children: exprs} }

// Not negates an expression.
func Not(e Expr) Expr { return ExprNot{Child: e} }

// Builder accumulates literals with a fluent API and produces an Expr tree.
// It mirrors the shape of a query builder: chained calls narrow a query,
// Build() hands the accumulated expression to the caller.
//
// Example:
//
//	expr, err := NewBuilder().
//		Value("region", "us-east").
//		Prefix("host", "web-").
//		IntCmp("latency_ms", OpLT, 100).
//		Build()
type Builder struct {
	terms []Expr
	err   error
}

// NewBuilder starts an empty conjunctive builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Value requires field to equal want.
func (b *Builder) Value(field, want string) *Builder {
	b.terms = append(b.terms, L(NewHasValue(field, want)))
	return b
}

// Prefix requires some value of field to start with prefix.
func (b *Builder) Prefix(field, prefix string) *Builder {
	b.terms = append(b.terms, L(NewHasPrefix(field, prefix)))
	return b
}

// IntCmp requires some value of field, parsed as an integer, to satisfy op against n.
func (b *Builder) IntCmp(field string, op CmpOp, n int64) *Builder {
	b.terms = append(b.terms, L(NewIntCmp(field, op, n)))
	return b
}

// H3Inside requires some value of field, parsed as an H3 cell, to fall within cell.
func (b *Builder) H3Inside(field string, cell H3Cell) *Builder {
	b.terms = append(b.terms, L(NewH3In(field, cell)))
	return b
}

// NearLatLng requires some value of field, parsed as a "lat,lng" pair, to
// fall within radiusMeters of (lat,lng).
func (b *Builder) NearLatLng(field string, lat, lng, radiusMeters float64) *Builder {
	b.terms = append(b.terms, L(NewLatLngWithin(field, lat, lng, radiusMeters)))
	return b
}

// Or adds a disjunction of sub-expressions as one conjunct.
func (b *Builder) Or(exprs ...Expr) *Builder {
	b.terms = append(b.terms, Or(exprs...))
	return b
}

// Not negates a sub-expression and adds it as one conjunct.
func (b *Builder) Not(e Expr) *Builder {
	b.terms = append(b.terms, Not(e))
	return b
}

// And folds an already-built expression in as one conjunct.
func (b *Builder) And(e Expr) *Builder {
	b.terms = append(b.terms, e)
	return b
}

// Build returns the accumulated conjunction. An empty builder yields
// ErrEmptyBuilder rather than silently producing a match-everything query.
func (b *Builder) Build() (Expr, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.terms) == 0 {
		return nil, ErrEmptyBuilder
	}
	if len(b.terms) == 1 {
		return b.terms[0], nil
	}
	return ExprAnd{Children: b.terms}, nil
}
