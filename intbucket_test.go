package percolate

import (
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// THRESHOLD LIST TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func newTestThresholdList() *ThresholdList {
	return NewThresholdList(rand.New(rand.NewSource(1)))
}

func bitmapHas(bm *roaring.Bitmap, qid int) bool {
	return bm.Contains(uint32(qid))
}

func TestThresholdList_AtMost(t *testing.T) {
	tl := newTestThresholdList()
	tl.Insert(10, 1)
	tl.Insert(20, 2)
	tl.Insert(30, 3)

	got := tl.AtMost(20)
	for _, want := range []int{1, 2} {
		if !bitmapHas(got, want) {
			t.Errorf("AtMost(20) missing qid %d", want)
		}
	}
	if bitmapHas(got, 3) {
		t.Error("AtMost(20) wrongly includes qid registered at 30")
	}
}

func TestThresholdList_AtLeast(t *testing.T) {
	tl := newTestThresholdList()
	tl.Insert(10, 1)
	tl.Insert(20, 2)
	tl.Insert(30, 3)

	got := tl.AtLeast(20)
	for _, want := range []int{2, 3} {
		if !bitmapHas(got, want) {
			t.Errorf("AtLeast(20) missing qid %d", want)
		}
	}
	if bitmapHas(got, 1) {
		t.Error("AtLeast(20) wrongly includes qid registered at 10")
	}
}

func TestThresholdList_Below(t *testing.T) {
	tl := newTestThresholdList()
	tl.Insert(10, 1)
	tl.Insert(20, 2)

	got := tl.Below(20)
	if !bitmapHas(got, 1) {
		t.Error("Below(20) missing qid registered at 10")
	}
	if bitmapHas(got, 2) {
		t.Error("Below(20) wrongly includes qid registered exactly at 20")
	}
}

func TestThresholdList_Above(t *testing.T) {
	tl := newTestThresholdList()
	tl.Insert(10, 1)
	tl.Insert(20, 2)

	got := tl.Above(10)
	if !bitmapHas(got, 2) {
		t.Error("Above(10) missing qid registered at 20")
	}
	if bitmapHas(got, 1) {
		t.Error("Above(10) wrongly includes qid registered exactly at 10")
	}
}

func TestThresholdList_Exact(t *testing.T) {
	tl := newTestThresholdList()
	tl.Insert(10, 1)
	tl.Insert(10, 2)
	tl.Insert(20, 3)

	got := tl.Exact(10)
	if !bitmapHas(got, 1) || !bitmapHas(got, 2) {
		t.Error("Exact(10) missing one of the two qids registered there")
	}
	if bitmapHas(got, 3) {
		t.Error("Exact(10) wrongly includes qid registered at 20")
	}
	if bitmapHas(tl.Exact(999), 1) {
		t.Error("Exact(999) found a qid with no registered threshold there")
	}
}

func TestThresholdList_EmptyQueriesReturnEmpty(t *testing.T) {
	tl := newTestThresholdList()
	if tl.AtMost(5).GetCardinality() != 0 {
		t.Error("AtMost on an empty list returned a non-empty set")
	}
	if tl.AtLeast(5).GetCardinality() != 0 {
		t.Error("AtLeast on an empty list returned a non-empty set")
	}
}
