package percolate

import (
	"math/rand"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CLAUSE INDEX: One Slot's Inverted View of Every Registered Clause
// ═══════════════════════════════════════════════════════════════════════════════
// A ClauseIndex holds one clause per registered query — the clause assigned to
// this matcher's slot — and answers "which Qids might this document's clause
// satisfy" without ever touching the clauses themselves. It keeps three
// inverted tables:
//
//   Inclusion[(field,value)]  -> Qids whose clause contains a positive literal
//                                 (HasValue/HasPrefix/H3In) matched by that
//                                 exact (field,value) pair, once documents are
//                                 expanded through the pre-heaters. IntCmp
//                                 literals use a parallel ordered structure
//                                 (see intbucket.go) instead of this map,
//                                 since they need relational lookup, not
//                                 equality.
//   Exclusion[(field,value)]  -> Qids whose clause contains a negated literal
//                                 that this (field,value) pair proves true
//                                 (and so disqualifies).
//   NegatedQids               -> every Qid whose clause contains at least one
//                                 negated literal. Negation here is a plain
//                                 complement — ¬L is true whenever L is
//                                 false, field present or not — so a clause
//                                 built from a negation alone is a candidate
//                                 for EVERY document, not just ones carrying
//                                 that field. NegatedQids is therefore
//                                 unconditional; only Exclusion narrows it.
//
// A fourth set, AlwaysMatch, holds Qids this slot cannot narrow (padding for
// short queries, and literals with no pre-heater projection). A document's
// candidate set for this slot is:
//
//     AlwaysMatch ∪ Incl ∪ (NegatedQids ∖ Excl)
//
// Exclusion is only populated when a clause has exactly one negated literal
// AND that literal is an exact test (HasValue, IntCmp, H3In): then a document
// proving the inner literal true is proof the negation is false, with no
// approximation. A clause with more than one negated literal (an OR of
// negations) is left unnarrowed — subtracting on just one of several
// disjuncts being disqualified would wrongly remove a Qid whose OTHER
// negated disjunct might still hold, a true false negative. HasPrefix is
// skipped for the same over-exclusion reason as single-literal clauses: its
// pre-heater is a truncated bucket, not an exact test, so treating a bucket
// hit as proof would risk excluding a genuine candidate.
// ═══════════════════════════════════════════════════════════════════════════════

type fieldValue struct {
	field string
	value string
}

// intBucketKey names one (field, operator) ordered-threshold bucket.
type intBucketKey struct {
	field string
	op    CmpOp
}

// ClauseIndex is one clause matcher's inverted view of registered clauses.
type ClauseIndex struct {
	inclusion   map[fieldValue]*roaring.Bitmap
	exclusion   map[fieldValue]*roaring.Bitmap
	negatedQids *roaring.Bitmap
	intIncl     map[intBucketKey]*ThresholdList
	intExcl     map[intBucketKey]*ThresholdList
	alwaysMatch *roaring.Bitmap
	rng         *rand.Rand

	// extraPrefixLens records, per field, the exact prefix lengths a
	// HasPrefix literal was indexed under because it was shorter than every
	// configured bucket size. Candidates checks these lengths directly,
	// since preheatDocument only ever truncates at the configured sizes.
	extraPrefixLens map[string]map[int]bool
}

// NewClauseIndex builds an empty clause index.
func NewClauseIndex(rng *rand.Rand) *ClauseIndex {
	return &ClauseIndex{
		inclusion:       make(map[fieldValue]*roaring.Bitmap),
		exclusion:       make(map[fieldValue]*roaring.Bitmap),
		negatedQids:     roaring.New(),
		intIncl:         make(map[intBucketKey]*ThresholdList),
		intExcl:         make(map[intBucketKey]*ThresholdList),
		alwaysMatch:     roaring.New(),
		rng:             rng,
		extraPrefixLens: make(map[string]map[int]bool),
	}
}

// BucketCount returns the number of distinct pre-heater buckets currently
// populated in this slot's Inclusion and Exclusion tables — a proxy for how
// much indexing work registered clauses have produced here.
func (ci *ClauseIndex) BucketCount() int {
	return len(ci.inclusion) + len(ci.exclusion)
}

func (ci *ClauseIndex) rememberExtraPrefixLen(field string, length int) {
	lens, ok := ci.extraPrefixLens[field]
	if !ok {
		lens = make(map[int]bool)
		ci.extraPrefixLens[field] = lens
	}
	lens[length] = true
}

func (ci *ClauseIndex) inclBitmap(field, value string) *roaring.Bitmap {
	key := fieldValue{field, value}
	bm, ok := ci.inclusion[key]
	if !ok {
		bm = roaring.New()
		ci.inclusion[key] = bm
	}
	return bm
}

func (ci *ClauseIndex) exclBitmap(field, value string) *roaring.Bitmap {
	key := fieldValue{field, value}
	bm, ok := ci.exclusion[key]
	if !ok {
		bm = roaring.New()
		ci.exclusion[key] = bm
	}
	return bm
}

func (ci *ClauseIndex) intBucket(table map[intBucketKey]*ThresholdList, field string, op CmpOp) *ThresholdList {
	key := intBucketKey{field, op}
	tl, ok := table[key]
	if !ok {
		tl = NewThresholdList(ci.rng)
		table[key] = tl
	}
	return tl
}

// AddAlwaysMatch assigns qid to this slot's tautological filler bucket: the
// slot has no real clause for qid (the query has fewer clauses than
// matchers) or cannot index it (a literal with no pre-heater projection), so
// every document is automatically a candidate here.
func (ci *ClauseIndex) AddAlwaysMatch(qid uint32) {
	ci.alwaysMatch.Add(qid)
}

// AddClause registers clause under qid in this slot, populating the
// inclusion, exclusion, and negated-literal tables from the pre-heated
// virtual keys each literal contributes.
func (ci *ClauseIndex) AddClause(qid uint32, clause Clause, cfg PreheaterConfig) error {
	if len(clause) == 0 {
		// An unsatisfiable clause never matches; leave it out of every
		// table so it contributes no false candidates. Confirmation
		// against the stored CNF, not this slot, is what would ever be
		// asked to evaluate it — and it will always say no.
		return nil
	}

	negationCount := 0
	for _, lit := range clause {
		if _, ok := lit.(Neg); ok {
			negationCount++
		}
	}
	soleNegation := negationCount == 1

	for _, lit := range clause {
		if err := ci.addLiteral(qid, lit, soleNegation, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (ci *ClauseIndex) addLiteral(qid uint32, lit Literal, soleNegation bool, cfg PreheaterConfig) error {
	if neg, ok := lit.(Neg); ok {
		return ci.addNegatedLiteral(qid, neg, soleNegation, cfg)
	}
	if ic, ok := lit.(IntCmp); ok {
		ci.intBucket(ci.intIncl, ic.Field(), ic.Op()).Insert(float64(ic.N()), qid)
		return nil
	}
	if hp, ok := lit.(HasPrefix); ok && hp.Prefix() != "" {
		if _, fits := cfg.largestSizeAtMost(len(hp.Prefix())); !fits {
			ci.rememberExtraPrefixLen(hp.Field(), len(hp.Prefix()))
		}
	}
	keys, err := preheatLiteral(lit, cfg)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		// A literal kind the pre-heaters have no projection for (e.g.
		// LatLngWithin, whose match test is a continuous distance
		// computation, not an equality or bucket lookup). Mark the whole
		// slot an unconditional candidate for qid: sound, just unpruned.
		// Confirmation still evaluates the real predicate exactly.
		ci.AddAlwaysMatch(qid)
		return nil
	}
	for _, k := range keys {
		ci.inclBitmap(k.field, k.value).Add(qid)
	}
	return nil
}

// addNegatedLiteral always marks qid as negated (unconditionally candidate).
// Exclusion is only populated when this is the clause's sole negation and the
// inner literal admits an exact test.
func (ci *ClauseIndex) addNegatedLiteral(qid uint32, neg Neg, soleNegation bool, cfg PreheaterConfig) error {
	ci.negatedQids.Add(qid)
	if !soleNegation {
		return nil
	}
	switch inner := neg.Inner().(type) {
	case HasValue:
		ci.exclBitmap(inner.Field(), inner.Value()).Add(qid)
	case H3In:
		ci.exclBitmap(h3FieldKey(inner.Field()), inner.Cell().String()).Add(qid)
	case IntCmp:
		ci.intBucket(ci.intExcl, inner.Field(), inner.Op()).Insert(float64(inner.N()), qid)
	}
	return nil
}

// intRelation returns the set of registered thresholds n for which document
// value v satisfies "v op n" — the same direction IntCmp.Matches tests.
func intRelation(tl *ThresholdList, op CmpOp, v int64) *roaring.Bitmap {
	fv := float64(v)
	switch op {
	case OpGT:
		return tl.Below(fv) // v > n  <=>  n < v
	case OpGE:
		return tl.AtMost(fv) // v >= n <=>  n <= v
	case OpLT:
		return tl.Above(fv) // v < n  <=>  n > v
	case OpLE:
		return tl.AtLeast(fv) // v <= n <=>  n >= v
	default:
		return tl.Exact(fv) // v == n
	}
}

// Candidates returns the Qids whose clause in this slot might be satisfied by
// d, given the virtual keys the pre-heaters derive from it.
func (ci *ClauseIndex) Candidates(d *Document, cfg PreheaterConfig) *roaring.Bitmap {
	result := ci.alwaysMatch.Clone()

	keys := preheatDocument(d, cfg)
	incl := roaring.New()
	excl := roaring.New()

	for _, k := range keys {
		if bm, ok := ci.inclusion[k]; ok {
			incl.Or(bm)
		}
		if bm, ok := ci.exclusion[k]; ok {
			excl.Or(bm)
		}
	}

	for field, lens := range ci.extraPrefixLens {
		values, ok := d.Values(field)
		if !ok {
			continue
		}
		for _, v := range values {
			for length := range lens {
				if len(v) < length {
					continue
				}
				k := fieldValue{field: prefixFieldKey(field, length), value: v[:length]}
				if bm, ok := ci.inclusion[k]; ok {
					incl.Or(bm)
				}
			}
		}
	}

	for _, field := range d.Fields() {
		values, _ := d.Values(field)
		for _, raw := range values {
			v, ok := parseDocInt(raw)
			if !ok {
				continue
			}
			for _, op := range []CmpOp{OpEQ, OpGT, OpGE, OpLT, OpLE} {
				if tl, ok := ci.intIncl[intBucketKey{field, op}]; ok {
					incl.Or(intRelation(tl, op, v))
				}
				if tl, ok := ci.intExcl[intBucketKey{field, op}]; ok {
					excl.Or(intRelation(tl, op, v))
				}
			}
		}
	}

	need := roaring.AndNot(ci.negatedQids, excl)
	result.Or(incl)
	result.Or(need)
	return result
}
