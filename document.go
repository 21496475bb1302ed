package percolate

// ═══════════════════════════════════════════════════════════════════════════════
// DOCUMENT: The Transient Value Percolated Through the Query Set
// ═══════════════════════════════════════════════════════════════════════════════
// A Document is an unordered multimap of field -> value. Unlike the documents of
// a search engine, it is never stored: it is built, percolated once, and
// discarded. A single field may carry more than one value ("A:a, A:b"), and
// nothing about the document implies an ordering between them.
//
// EXAMPLE:
// --------
//
//	d := NewDocument().With("location", "861f09b27ffffff").With("L", "1001")
//	matches := p.Percolate(d)
//
// ═══════════════════════════════════════════════════════════════════════════════

// Document holds field -> values for one transient percolation.
type Document struct {
	values map[string][]string
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string][]string)}
}

// NewDocumentFromPairs builds a document from a flat list of (field, value) pairs.
//
// Example:
//
//	NewDocumentFromPairs([2]string{"A", "a"}, [2]string{"A", "b"})
func NewDocumentFromPairs(pairs ...[2]string) *Document {
	d := NewDocument()
	for _, p := range pairs {
		d.With(p[0], p[1])
	}
	return d
}

// With adds a (field, value) pair and returns the document for chaining.
func (d *Document) With(field, value string) *Document {
	d.values[field] = append(d.values[field], value)
	return d
}

// Values returns the values recorded for field, and whether the field is present at all.
//
// A field with zero values is indistinguishable from an absent field; callers
// never construct one.
func (d *Document) Values(field string) ([]string, bool) {
	v, ok := d.values[field]
	return v, ok
}

// HasField reports whether field was ever set on this document.
func (d *Document) HasField(field string) bool {
	_, ok := d.values[field]
	return ok
}

// Fields returns the set of fields present on the document.
func (d *Document) Fields() []string {
	fields := make([]string, 0, len(d.values))
	for f := range d.values {
		fields = append(fields, f)
	}
	return fields
}

// Pairs returns every (field, value) pair in the document, in no particular order.
func (d *Document) Pairs() [][2]string {
	pairs := make([][2]string, 0, len(d.values))
	for f, vs := range d.values {
		for _, v := range vs {
			pairs = append(pairs, [2]string{f, v})
		}
	}
	return pairs
}
