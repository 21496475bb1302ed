package percolate

import "errors"

// Sentinel errors returned by the percolator. Callers should compare with
// errors.Is rather than matching error strings.
var (
	// ErrTooManyQueries is returned by AddQuery when the dense Qid space has been
	// exhausted (math.MaxUint32 queries already registered).
	ErrTooManyQueries = errors.New("percolate: too many queries registered")

	// ErrTooManyClauses is returned by AddQuery when a query's normalized CNF has
	// more clauses than the configured number of clause matchers AND clause
	// overflow is disallowed by configuration.
	ErrTooManyClauses = errors.New("percolate: query has more clauses than configured clause matchers")

	// ErrInvalidCell is returned when an H3 literal is built from a string that
	// does not parse as a valid H3 cell index.
	ErrInvalidCell = errors.New("percolate: invalid H3 cell index")

	// ErrEmptyBuilder is returned by Builder.Build when the accumulated
	// expression is empty (no literals were added).
	ErrEmptyBuilder = errors.New("percolate: builder has no literals")
)

// ConfigError wraps a validation failure on a Config value, naming the field
// that failed and the constraint that was violated.
type ConfigError struct {
	Field string
	Tag   string
}

func (e *ConfigError) Error() string {
	return "percolate: invalid config field " + e.Field + " (" + e.Tag + ")"
}
