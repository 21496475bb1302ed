package percolate

import (
	"encoding/json"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT: Persisting the Registered Query Set
// ═══════════════════════════════════════════════════════════════════════════════
// A percolator's only state worth persisting is its registered queries and
// its configuration — documents are never stored. A snapshot captures both as
// JSON, encoding each literal as a small tagged record rather than leaning on
// Go's interface-unaware default marshaling, the same way the teacher's own
// persistence layer hand-rolls a wire format instead of trusting a generic
// encoder with an index that also mixes several concrete shapes under one
// interface.
// ═══════════════════════════════════════════════════════════════════════════════

// Snapshot-time wire encoding of one literal. Kind selects which of the
// remaining fields are meaningful; Negated marks a Neg wrapper around it.
type wireLiteral struct {
	Kind    string `json:"kind"`
	Negated bool   `json:"negated,omitempty"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
	Op      string `json:"op,omitempty"`
	N       int64  `json:"n,omitempty"`
	Cell    string `json:"cell,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
	Radius  float64 `json:"radius_meters,omitempty"`
}

const (
	kindHasValue     = "has_value"
	kindHasPrefix    = "has_prefix"
	kindIntCmp       = "int_cmp"
	kindH3In         = "h3_in"
	kindLatLngWithin = "latlng_within"
)

func literalToWire(lit Literal) (wireLiteral, error) {
	negated := false
	if neg, ok := lit.(Neg); ok {
		negated = true
		lit = neg.Inner()
	}
	switch v := lit.(type) {
	case HasValue:
		return wireLiteral{Kind: kindHasValue, Negated: negated, Field: v.Field(), Value: v.Value()}, nil
	case HasPrefix:
		return wireLiteral{Kind: kindHasPrefix, Negated: negated, Field: v.Field(), Prefix: v.Prefix()}, nil
	case IntCmp:
		return wireLiteral{Kind: kindIntCmp, Negated: negated, Field: v.Field(), Op: v.Op().String(), N: v.N()}, nil
	case H3In:
		return wireLiteral{Kind: kindH3In, Negated: negated, Field: v.Field(), Cell: v.Cell().String()}, nil
	case LatLngWithin:
		return wireLiteral{Kind: kindLatLngWithin, Negated: negated, Field: v.Field(), Lat: v.Lat(), Lng: v.Lng(), Radius: v.RadiusMeters()}, nil
	default:
		return wireLiteral{}, fmt.Errorf("percolate: unrecognized literal type %T", lit)
	}
}

func wireToLiteral(w wireLiteral) (Literal, error) {
	var lit Literal
	switch w.Kind {
	case kindHasValue:
		lit = NewHasValue(w.Field, w.Value)
	case kindHasPrefix:
		lit = NewHasPrefix(w.Field, w.Prefix)
	case kindIntCmp:
		op, err := parseCmpOp(w.Op)
		if err != nil {
			return nil, err
		}
		lit = NewIntCmp(w.Field, op, w.N)
	case kindH3In:
		cell, err := ParseH3Cell(w.Cell)
		if err != nil {
			return nil, err
		}
		lit = NewH3In(w.Field, cell)
	case kindLatLngWithin:
		lit = NewLatLngWithin(w.Field, w.Lat, w.Lng, w.Radius)
	default:
		return nil, fmt.Errorf("percolate: unrecognized wire literal kind %q", w.Kind)
	}
	if w.Negated {
		lit = NewNeg(lit)
	}
	return lit, nil
}

func parseCmpOp(s string) (CmpOp, error) {
	for _, op := range []CmpOp{OpEQ, OpGT, OpGE, OpLT, OpLE} {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("percolate: unrecognized comparison operator %q", s)
}

// wireQuery is the serialized form of one registered CNFQuery.
type wireQuery struct {
	Clauses [][]wireLiteral `json:"clauses"`
}

// wireSnapshot is the full serialized percolator state.
type wireSnapshot struct {
	Config  Config      `json:"config"`
	Queries []wireQuery `json:"queries"`
}

// MarshalSnapshot serializes the percolator's configuration and every
// registered query to JSON.
func (p *Percolator) MarshalSnapshot() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := wireSnapshot{Config: p.cfg, Queries: make([]wireQuery, len(p.registry))}
	for i, cnf := range p.registry {
		wq := wireQuery{Clauses: make([][]wireLiteral, len(cnf.Clauses))}
		for j, clause := range cnf.Clauses {
			wireClause := make([]wireLiteral, len(clause))
			for k, lit := range clause {
				w, err := literalToWire(lit)
				if err != nil {
					return nil, err
				}
				wireClause[k] = w
			}
			wq.Clauses[j] = wireClause
		}
		snap.Queries[i] = wq
	}
	return json.Marshal(snap)
}

// LoadSnapshot rebuilds a Percolator from bytes produced by MarshalSnapshot.
// Qids are reassigned in the original registration order, so every Qid from
// the original percolator is preserved exactly.
func LoadSnapshot(data []byte) (*Percolator, error) {
	var snap wireSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	p, err := New(snap.Config)
	if err != nil {
		return nil, err
	}
	for _, wq := range snap.Queries {
		clauses := make([]Clause, len(wq.Clauses))
		for i, wireClause := range wq.Clauses {
			clause := make(Clause, len(wireClause))
			for j, w := range wireClause {
				lit, err := wireToLiteral(w)
				if err != nil {
					return nil, err
				}
				clause[j] = lit
			}
			clauses[i] = clause
		}
		qid := uint32(len(p.registry))
		before := p.mm.BucketCount()
		if err := p.mm.AddQuery(qid, clauses); err != nil {
			return nil, err
		}
		after := p.mm.BucketCount()
		cnf := CNFQuery{Clauses: clauses}
		p.registry = append(p.registry, cnf)
		p.stats.recordQueryRegistered(len(clauses), prefixLengthsOf(cnf), after-before)
	}
	return p, nil
}
