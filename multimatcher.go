package percolate

import (
	"math/rand"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// MULTI-MATCHER: N Clause Index Slots Acting as One
// ═══════════════════════════════════════════════════════════════════════════════
// A CNF query with k clauses needs k independent inverted-index lookups AND-ed
// together — one per clause. The multi-matcher holds a fixed number of
// ClauseIndex slots and assigns a query's clauses to slots 0..k-1, in order,
// never reordered. A query with fewer clauses than slots pads its remaining
// slots with an always-match marker, so the missing slots never narrow the
// candidate set. A query with MORE clauses than slots simply leaves the
// overflow clauses unindexed entirely: they contribute no pruning, but
// correctness survives because every surviving candidate is confirmed against
// its full stored CNF afterward. Overflow is never handled by merging or
// coalescing clauses into a slot — that would be unsound, since a merged
// clause answers a different, looser question than the clauses it replaced.
// ═══════════════════════════════════════════════════════════════════════════════

// MultiMatcher holds n clause index slots.
type MultiMatcher struct {
	slots []*ClauseIndex
	cfg   PreheaterConfig
}

// NewMultiMatcher builds a multi-matcher with n slots.
func NewMultiMatcher(n int, cfg PreheaterConfig, rng *rand.Rand) *MultiMatcher {
	slots := make([]*ClauseIndex, n)
	for i := range slots {
		slots[i] = NewClauseIndex(rng)
	}
	return &MultiMatcher{slots: slots, cfg: cfg}
}

// AddQuery distributes clauses across slots 0..len(clauses)-1, in order, and
// marks any remaining slot as always-matching for qid. Clauses beyond the
// slot count are left unindexed; confirmation covers them.
func (mm *MultiMatcher) AddQuery(qid uint32, clauses []Clause) error {
	n := len(mm.slots)
	for i, clause := range clauses {
		if i >= n {
			break
		}
		if err := mm.slots[i].AddClause(qid, clause, mm.cfg); err != nil {
			return err
		}
	}
	for i := len(clauses); i < n; i++ {
		mm.slots[i].AddAlwaysMatch(qid)
	}
	return nil
}

// Candidates intersects every slot's candidate set for d: a Qid survives only
// if every one of its indexed clauses looks satisfiable.
func (mm *MultiMatcher) Candidates(d *Document) *roaring.Bitmap {
	if len(mm.slots) == 0 {
		return roaring.New()
	}
	result := mm.slots[0].Candidates(d, mm.cfg)
	for _, slot := range mm.slots[1:] {
		result = roaring.And(result, slot.Candidates(d, mm.cfg))
	}
	return result
}

// NumSlots reports the configured number of clause matchers.
func (mm *MultiMatcher) NumSlots() int {
	return len(mm.slots)
}

// BucketCount sums the number of distinct pre-heater buckets populated
// across every slot.
func (mm *MultiMatcher) BucketCount() int {
	total := 0
	for _, slot := range mm.slots {
		total += slot.BucketCount()
	}
	return total
}
