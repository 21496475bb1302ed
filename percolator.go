package percolate

import (
	"math"
	"math/rand"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PERCOLATOR: Persistently Indexed Queries, Transiently Matched Documents
// ═══════════════════════════════════════════════════════════════════════════════
// The percolator is the dual of a search engine: instead of indexing documents
// and running one query against them, it indexes queries and runs one
// document against all of them. AddQuery is the only mutation; Percolate is
// the only read. Qids are dense, append-only, and never reused — the Nth
// registered query is always Qid N-1, for the lifetime of the process.
//
// Concurrency model: AddQuery and Percolate never run concurrently with each
// other; a single writer lock serializes registration, while Percolate takes
// a read lock so many documents can be percolated against a stable query set
// at once. This mirrors the single-threaded, synchronous core a percolator
// needs at its heart — any fan-out across documents belongs to the caller,
// not to this package.
// ═══════════════════════════════════════════════════════════════════════════════

var configValidator = validator.New()

// Config controls a Percolator's shape: how many clause-matcher slots it
// keeps, and at what lengths HasPrefix literals are bucketed.
type Config struct {
	// NClauseMatchers is the number of parallel clause-index slots. Queries
	// with more clauses than this still register successfully: clauses
	// beyond the slot count are left unindexed and rely on confirmation.
	NClauseMatchers int `validate:"gt=0"`

	// PrefixSizes are the bucket lengths HasPrefix literals are indexed at.
	PrefixSizes []int `validate:"min=1,dive,gt=0"`

	// RejectClauseOverflow turns query overflow from a silently-accepted,
	// confirmation-only case into a hard AddQuery error. Off by default.
	RejectClauseOverflow bool
}

// DefaultConfig returns the default percolator configuration.
func DefaultConfig() Config {
	return Config{
		NClauseMatchers: 2,
		PrefixSizes:     []int{3, 6, 10},
	}
}

// NewConfig validates cfg and returns it, or a *ConfigError describing the
// first violated constraint.
func NewConfig(cfg Config) (Config, error) {
	if err := configValidator.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if ok && len(verrs) > 0 {
			return Config{}, &ConfigError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
		}
		return Config{}, err
	}
	return cfg, nil
}

// Percolator indexes CNF queries and matches transient documents against
// them.
type Percolator struct {
	mu sync.RWMutex

	cfg     Config
	preheat PreheaterConfig
	mm      *MultiMatcher
	registry []CNFQuery

	stats *Stats
}

// New builds an empty Percolator from a validated Config.
func New(cfg Config) (*Percolator, error) {
	cfg, err := NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	preheat := PreheaterConfig{PrefixSizes: cfg.PrefixSizes}
	rng := rand.New(rand.NewSource(1))
	return &Percolator{
		cfg:     cfg,
		preheat: preheat,
		mm:      NewMultiMatcher(cfg.NClauseMatchers, preheat, rng),
		stats:   NewStats(cfg.NClauseMatchers),
	}, nil
}

// AddQuery normalizes expr to CNF, registers it under a new append-only Qid,
// and returns that Qid. The registered query can never be removed or
// modified — percolators only grow.
func (p *Percolator) AddQuery(expr Expr) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.registry) >= math.MaxUint32 {
		return 0, ErrTooManyQueries
	}

	cnf := NormalizeCNF(expr)
	if p.cfg.RejectClauseOverflow && len(cnf.Clauses) > p.mm.NumSlots() {
		return 0, ErrTooManyClauses
	}

	qid := uint32(len(p.registry))
	before := p.mm.BucketCount()
	if err := p.mm.AddQuery(qid, cnf.Clauses); err != nil {
		return 0, err
	}
	after := p.mm.BucketCount()
	p.registry = append(p.registry, cnf)
	p.stats.recordQueryRegistered(len(cnf.Clauses), prefixLengthsOf(cnf), after-before)
	return qid, nil
}

// prefixLengthsOf collects the length of every non-empty HasPrefix prefix
// across cnf's clauses, unwrapping negation, for the prefix-length
// histogram.
func prefixLengthsOf(cnf CNFQuery) []int {
	var lens []int
	for _, clause := range cnf.Clauses {
		for _, lit := range clause {
			inner := lit
			if neg, ok := inner.(Neg); ok {
				inner = neg.Inner()
			}
			if hp, ok := inner.(HasPrefix); ok && hp.Prefix() != "" {
				lens = append(lens, len(hp.Prefix()))
			}
		}
	}
	return lens
}

// Percolate returns every registered Qid whose stored query matches d. The
// clause index narrows the search to a candidate set; each candidate is then
// confirmed against its own stored CNF, so the result is always exact
// regardless of any approximation a pre-heater made along the way.
func (p *Percolator) Percolate(d *Document) []uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	candidates := p.mm.Candidates(d)
	matched := make([]uint32, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		qid := it.Next()
		if int(qid) >= len(p.registry) {
			continue
		}
		if p.registry[qid].Matches(d) {
			matched = append(matched, qid)
		}
	}

	return matched
}

// Len returns the number of registered queries.
func (p *Percolator) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.registry)
}

// Stats returns a snapshot of the distributions a caller would use to pick
// Config parameters for a future Percolator built over a similar query set.
func (p *Percolator) Stats() Snapshot {
	return p.stats.Snapshot()
}
