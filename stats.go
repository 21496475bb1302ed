package percolate

import "sync"

// ═══════════════════════════════════════════════════════════════════════════════
// STATS: Distributions for Choosing Builder Parameters
// ═══════════════════════════════════════════════════════════════════════════════
// Stats does not track operational counters about running Percolate calls; it
// tracks the shape of the registered query set itself, so an operator can
// size a future Config from what actually got indexed: how many queries
// landed a real clause in each clause-matcher slot (a slot that never fills
// is a wasted one), a histogram of clause counts per CNF (to judge whether
// NClauseMatchers is big enough), a histogram of HasPrefix prefix lengths (to
// judge whether PrefixSizes buckets them well), and a running count of
// distinct pre-heater buckets created (to judge how much the index has
// grown). It has no third-party home in this corpus (no Go repo in the
// retrieval set wraps a histogram library), so it is a small fixed-bucket
// implementation built on the standard library alone — see the design ledger
// for why that gap exists.
// ═══════════════════════════════════════════════════════════════════════════════

// clauseCountBucketBounds are the upper bounds (exclusive) of each
// clauses-per-query histogram bucket. The final bucket catches everything
// at or above the last bound.
var clauseCountBucketBounds = []int64{1, 2, 3, 5, 8, 13, 21}

// prefixLengthBucketBounds are the upper bounds (exclusive) of each
// prefix-length histogram bucket.
var prefixLengthBucketBounds = []int64{1, 2, 3, 4, 6, 8, 10, 16, 24}

// Histogram is a small fixed-bucket counter over an ascending list of upper
// bounds, generalizing the single latency histogram this module used to hand
// roll into a shape Stats can reuse for more than one distribution.
type Histogram struct {
	bounds  []int64
	buckets []uint64
	count   uint64
	sum     int64
}

// NewHistogram builds an empty histogram with the given ascending,
// exclusive upper bounds.
func NewHistogram(bounds []int64) *Histogram {
	return &Histogram{bounds: bounds, buckets: make([]uint64, len(bounds)+1)}
}

// Observe records one value into the histogram's matching bucket.
func (h *Histogram) Observe(v int64) {
	h.count++
	h.sum += v
	bucket := len(h.bounds)
	for i, bound := range h.bounds {
		if v < bound {
			bucket = i
			break
		}
	}
	h.buckets[bucket]++
}

// HistogramSnapshot is an immutable copy of a Histogram at one point in time.
type HistogramSnapshot struct {
	Bounds  []int64
	Buckets []uint64
	Count   uint64
	Sum     int64
}

// Snapshot copies the histogram's current state out.
func (h *Histogram) Snapshot() HistogramSnapshot {
	bounds := make([]int64, len(h.bounds))
	copy(bounds, h.bounds)
	buckets := make([]uint64, len(h.buckets))
	copy(buckets, h.buckets)
	return HistogramSnapshot{Bounds: bounds, Buckets: buckets, Count: h.count, Sum: h.sum}
}

// Stats is safe for concurrent use by many Percolate callers against one
// read-only snapshot; AddQuery mutation happens under the percolator's own
// write path, never concurrently with a read (see the concurrency notes on
// Percolator).
type Stats struct {
	mu sync.Mutex

	// queriesPerSlot[i] counts queries that landed a real (non-padding)
	// clause in clause-matcher slot i.
	queriesPerSlot []uint64

	clausesPerQuery *Histogram
	prefixLengths   *Histogram

	preheaterBuckets uint64
}

// NewStats creates an empty stats recorder sized to nSlots clause-matcher
// slots.
func NewStats(nSlots int) *Stats {
	return &Stats{
		queriesPerSlot:  make([]uint64, nSlots),
		clausesPerQuery: NewHistogram(clauseCountBucketBounds),
		prefixLengths:   NewHistogram(prefixLengthBucketBounds),
	}
}

// recordQueryRegistered folds one AddQuery call into the distributions:
// nClauses is the registered CNF's clause count, prefixLens is the length of
// every non-empty HasPrefix prefix across its clauses, and newBuckets is how
// many additional distinct pre-heater buckets this registration created.
func (s *Stats) recordQueryRegistered(nClauses int, prefixLens []int, newBuckets int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < nClauses && i < len(s.queriesPerSlot); i++ {
		s.queriesPerSlot[i]++
	}
	s.clausesPerQuery.Observe(int64(nClauses))
	for _, l := range prefixLens {
		s.prefixLengths.Observe(int64(l))
	}
	if newBuckets > 0 {
		s.preheaterBuckets += uint64(newBuckets)
	}
}

// Snapshot is an immutable copy of a Stats instance at one point in time.
type Snapshot struct {
	QueriesPerSlot   []uint64
	ClausesPerQuery  HistogramSnapshot
	PrefixLengths    HistogramSnapshot
	PreheaterBuckets uint64
}

// Snapshot copies the current distributions out.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]uint64, len(s.queriesPerSlot))
	copy(slots, s.queriesPerSlot)
	return Snapshot{
		QueriesPerSlot:   slots,
		ClausesPerQuery:  s.clausesPerQuery.Snapshot(),
		PrefixLengths:    s.prefixLengths.Snapshot(),
		PreheaterBuckets: s.preheaterBuckets,
	}
}
