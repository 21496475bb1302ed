package percolate

import (
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// THRESHOLD LIST: A Skip List Keyed by Comparison Threshold
// ═══════════════════════════════════════════════════════════════════════════════
// IntCmp literals register a threshold n under one of five operators. At
// percolation time each int64 value a document carries needs every Qid whose threshold stands in the right relation to it — every n <= v
// for a GE literal, every n > v for a LT literal, and so on. A plain hash map
// only answers exact-equality lookups; a ThresholdList keeps thresholds in
// sorted order the way the skip list keeps positions in sorted order, and adds
// a cumulative union at each node so a single logarithmic search answers a
// whole "all thresholds on this side of v" query at once.
//
// The skip list's shape survives unchanged: leveled towers, a coin-flip
// height, head-relative traversal. What changes is the key (a single float64
// threshold instead of a document/offset pair) and the payload (a RoaringBitmap
// of Qids at each node, plus a running union of every node at or before it).
// ═══════════════════════════════════════════════════════════════════════════════

const maxThresholdHeight = 32

type thresholdNode struct {
	key   float64
	own   *roaring.Bitmap // Qids whose literal's threshold is exactly key
	le    *roaring.Bitmap // union of own across every node with key' <= key
	ge    *roaring.Bitmap // union of own across every node with key' >= key
	tower [maxThresholdHeight]*thresholdNode
}

// ThresholdList is a sorted, cumulative-union skip list over IntCmp
// thresholds for one (field, operator class) bucket.
type ThresholdList struct {
	head   *thresholdNode
	height int
	dirty  bool
	rng    *rand.Rand

	// mu serializes rebuild, which runs on the read path.
	mu sync.Mutex
}

// NewThresholdList creates an empty threshold list.
func NewThresholdList(rng *rand.Rand) *ThresholdList {
	return &ThresholdList{
		head:   &thresholdNode{key: math.Inf(-1)},
		height: 1,
		rng:    rng,
	}
}

// Insert registers qid under threshold key.
func (tl *ThresholdList) Insert(key float64, qid uint32) {
	node := tl.find(key)
	if node != nil && node.key == key {
		node.own.Add(qid)
		tl.dirty = true
		return
	}

	journey := tl.journeyTo(key)
	height := tl.randomHeight()
	newNode := &thresholdNode{key: key, own: roaring.New()}
	newNode.own.Add(qid)

	for level := 0; level < height; level++ {
		predecessor := journey[level]
		if predecessor == nil {
			predecessor = tl.head
		}
		newNode.tower[level] = predecessor.tower[level]
		predecessor.tower[level] = newNode
	}
	if height > tl.height {
		tl.height = height
	}
	tl.dirty = true
}

// find returns the exact node for key, or nil.
func (tl *ThresholdList) find(key float64) *thresholdNode {
	current := tl.head
	for level := tl.height - 1; level >= 0; level-- {
		for current.tower[level] != nil && current.tower[level].key < key {
			current = current.tower[level]
		}
	}
	next := current.tower[0]
	if next != nil && next.key == key {
		return next
	}
	return nil
}

// journeyTo returns, for each level, the last node with key strictly less
// than the target — the splice point Insert needs at every level.
func (tl *ThresholdList) journeyTo(key float64) [maxThresholdHeight]*thresholdNode {
	var journey [maxThresholdHeight]*thresholdNode
	current := tl.head
	for level := tl.height - 1; level >= 0; level-- {
		for current.tower[level] != nil && current.tower[level].key < key {
			current = current.tower[level]
		}
		journey[level] = current
	}
	return journey
}

func (tl *ThresholdList) randomHeight() int {
	height := 1
	for tl.rng.Float64() < 0.5 && height < maxThresholdHeight {
		height++
	}
	return height
}

// rebuild recomputes every node's cumulative union after a batch of inserts.
// Queries are registered ahead of percolation in this system's single
// clause-building phase, so paying O(n) once per dirty batch beats
// maintaining cumulative unions incrementally on every insert. It holds mu,
// since concurrent Percolate calls share one read lock and may reach it at
// the same time.
func (tl *ThresholdList) rebuild() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if !tl.dirty {
		return
	}
	var nodes []*thresholdNode
	for n := tl.head.tower[0]; n != nil; n = n.tower[0] {
		nodes = append(nodes, n)
	}

	running := roaring.New()
	for _, n := range nodes {
		running = roaring.Or(running, n.own)
		n.le = running.Clone()
	}
	running = roaring.New()
	for i := len(nodes) - 1; i >= 0; i-- {
		running = roaring.Or(running, nodes[i].own)
		nodes[i].ge = running.Clone()
	}
	tl.dirty = false
}

// AtMost returns the union of every registered threshold n with n <= v.
func (tl *ThresholdList) AtMost(v float64) *roaring.Bitmap {
	tl.rebuild()
	node := tl.floor(v)
	if node == nil {
		return roaring.New()
	}
	return node.le
}

// AtLeast returns the union of every registered threshold n with n >= v.
func (tl *ThresholdList) AtLeast(v float64) *roaring.Bitmap {
	tl.rebuild()
	node := tl.ceiling(v)
	if node == nil {
		return roaring.New()
	}
	return node.ge
}

// Below returns the union of every registered threshold n with n < v.
func (tl *ThresholdList) Below(v float64) *roaring.Bitmap {
	tl.rebuild()
	node := tl.floor(math.Nextafter(v, math.Inf(-1)))
	if node == nil || node.key >= v {
		return roaring.New()
	}
	return node.le
}

// Above returns the union of every registered threshold n with n > v.
func (tl *ThresholdList) Above(v float64) *roaring.Bitmap {
	tl.rebuild()
	node := tl.ceiling(math.Nextafter(v, math.Inf(1)))
	if node == nil || node.key <= v {
		return roaring.New()
	}
	return node.ge
}

// Exact returns the Qids registered with threshold exactly v.
func (tl *ThresholdList) Exact(v float64) *roaring.Bitmap {
	node := tl.find(v)
	if node == nil {
		return roaring.New()
	}
	return node.own
}

// floor returns the node with the largest key <= v, or nil.
func (tl *ThresholdList) floor(v float64) *thresholdNode {
	current := tl.head
	for level := tl.height - 1; level >= 0; level-- {
		for current.tower[level] != nil && current.tower[level].key <= v {
			current = current.tower[level]
		}
	}
	if current == tl.head {
		return nil
	}
	return current
}

// ceiling returns the node with the smallest key >= v, or nil.
func (tl *ThresholdList) ceiling(v float64) *thresholdNode {
	current := tl.head
	for level := tl.height - 1; level >= 0; level-- {
		for current.tower[level] != nil && current.tower[level].key < v {
			current = current.tower[level]
		}
	}
	next := current.tower[0]
	if next == nil {
		return nil
	}
	return next
}
