package percolate

import (
	"sort"
	"strconv"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PRE-HEATERS: Document Expansion Ahead of Clause-Index Probing
// ═══════════════════════════════════════════════════════════════════════════════
// A pre-heater turns one (field, value) pair of an incoming document into zero
// or more "virtual keys" that the clause index's Inclusion/Exclusion tables
// were populated with at AddQuery time. The same expansion rules run on both
// sides: a literal contributes virtual keys when it is indexed, a document
// contributes virtual keys when it is percolated, and a hit between the two
// sets is what makes a Qid a candidate.
//
//   - HasValue needs no expansion: the value itself is the key.
//   - HasPrefix buckets by the configured prefix sizes: a document value is
//     truncated at every configured size no larger than itself, and a literal
//     is indexed at the largest configured size no larger than its prefix. A
//     prefix shorter than every configured size falls back to a synthetic
//     bucket at its own exact length instead of being rejected — the clause
//     index remembers that length per field and checks it directly at
//     percolate time, alongside the configured sizes. An empty prefix is the
//     special "field exists" case and bypasses size bucketing entirely.
//   - IntCmp does not go through this generic key scheme at all — it is
//     served by a dedicated sorted threshold structure (see intbucket.go)
//     because comparisons need ordered lookup, not equality.
//   - H3In expands a document's cell value into its full ancestor chain, so
//     a literal anchored at any resolution finds it with a single equality
//     lookup on that one ancestor.
// ═══════════════════════════════════════════════════════════════════════════════

// PreheaterConfig controls the document-expansion rules shared by every
// clause index slot in a Percolator.
type PreheaterConfig struct {
	// PrefixSizes are the truncation lengths HasPrefix literals are bucketed
	// at. Sorted ascending; must be non-empty and contain only positive
	// sizes.
	PrefixSizes []int
}

// DefaultPreheaterConfig returns the default bucket sizes.
func DefaultPreheaterConfig() PreheaterConfig {
	return PreheaterConfig{PrefixSizes: []int{3, 6, 10}}
}

func (cfg PreheaterConfig) sortedPrefixSizes() []int {
	sizes := append([]int(nil), cfg.PrefixSizes...)
	sort.Ints(sizes)
	return sizes
}

func (cfg PreheaterConfig) minPrefixSize() int {
	sizes := cfg.sortedPrefixSizes()
	if len(sizes) == 0 {
		return 0
	}
	return sizes[0]
}

// largestSizeAtMost returns the largest configured size that is <= n, and
// whether one exists.
func (cfg PreheaterConfig) largestSizeAtMost(n int) (int, bool) {
	sizes := cfg.sortedPrefixSizes()
	best, found := 0, false
	for _, s := range sizes {
		if s <= n {
			best, found = s, true
		}
	}
	return best, found
}

const prefixExistsMarker = "\x00EXISTS"

func prefixFieldKey(field string, size int) string {
	return "prefix@" + strconv.Itoa(size) + ":" + field
}

func h3FieldKey(field string) string {
	return "h3:" + field
}

// preheatLiteral returns the virtual (field,value) keys a positive literal
// is indexed under in a clause index's Inclusion table.
func preheatLiteral(lit Literal, cfg PreheaterConfig) ([]fieldValue, error) {
	switch v := lit.(type) {
	case HasValue:
		return []fieldValue{{field: v.Field(), value: v.Value()}}, nil

	case HasPrefix:
		if v.Prefix() == "" {
			return []fieldValue{{field: v.Field(), value: prefixExistsMarker}}, nil
		}
		size, ok := cfg.largestSizeAtMost(len(v.Prefix()))
		if !ok {
			// No configured bucket is small enough for this prefix; index it
			// at its own exact length instead of rejecting the query.
			size = len(v.Prefix())
		}
		return []fieldValue{{field: prefixFieldKey(v.Field(), size), value: v.Prefix()[:size]}}, nil

	case H3In:
		return []fieldValue{{field: h3FieldKey(v.Field()), value: v.Cell().String()}}, nil

	default:
		return nil, nil
	}
}

// preheatDocument expands every (field,value) pair of d into the full set of
// virtual keys any positive literal could have been indexed under, so a
// single table lookup per key suffices regardless of which literal kind
// registered it.
func preheatDocument(d *Document, cfg PreheaterConfig) []fieldValue {
	var keys []fieldValue
	sizes := cfg.sortedPrefixSizes()

	for _, field := range d.Fields() {
		values, _ := d.Values(field)
		if len(values) > 0 {
			keys = append(keys, fieldValue{field: field, value: prefixExistsMarker})
		}
		for _, v := range values {
			keys = append(keys, fieldValue{field: field, value: v})

			for _, s := range sizes {
				if len(v) >= s {
					keys = append(keys, fieldValue{field: prefixFieldKey(field, s), value: v[:s]})
				}
			}

			if cell, err := ParseH3Cell(v); err == nil {
				for _, ancestor := range cell.AncestorChain() {
					keys = append(keys, fieldValue{field: h3FieldKey(field), value: ancestor.String()})
				}
			}
		}
	}
	return keys
}
