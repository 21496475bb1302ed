package percolate

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// H3 CELL TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestParseH3Cell_RoundTrip(t *testing.T) {
	cell, err := ParseH3Cell("861f09b27ffffff")
	if err != nil {
		t.Fatalf("ParseH3Cell failed: %v", err)
	}
	if cell.String() != "861f09b27ffffff" {
		t.Errorf("round trip = %q, want %q", cell.String(), "861f09b27ffffff")
	}
}

func TestParseH3Cell_Invalid(t *testing.T) {
	cases := []string{"", "not-hex", "zzzz"}
	for _, c := range cases {
		if _, err := ParseH3Cell(c); err == nil {
			t.Errorf("ParseH3Cell(%q) succeeded, want error", c)
		}
	}
}

func TestH3Cell_ResolutionAndBaseCell(t *testing.T) {
	cell := NewH3Cell(15, 6, []int{1, 2, 3, 4, 5, 6})
	if cell.Resolution() != 6 {
		t.Errorf("Resolution() = %d, want 6", cell.Resolution())
	}
	if cell.BaseCell() != 15 {
		t.Errorf("BaseCell() = %d, want 15", cell.BaseCell())
	}
	for r := 1; r <= 6; r++ {
		if got := cell.Digit(r); got != r {
			t.Errorf("Digit(%d) = %d, want %d", r, got, r)
		}
	}
}

func TestH3Cell_ParentAndSelf(t *testing.T) {
	cell := NewH3Cell(15, 6, []int{1, 2, 3, 4, 5, 6})

	self, ok := cell.Parent(6)
	if !ok || self != cell {
		t.Errorf("Parent(own resolution) = %v,%v, want %v,true", self, ok, cell)
	}

	parent, ok := cell.Parent(3)
	if !ok {
		t.Fatal("Parent(3) failed")
	}
	if parent.Resolution() != 3 {
		t.Errorf("Parent(3).Resolution() = %d, want 3", parent.Resolution())
	}
	for r := 1; r <= 3; r++ {
		if got := parent.Digit(r); got != r {
			t.Errorf("parent.Digit(%d) = %d, want %d", r, got, r)
		}
	}

	if _, ok := cell.Parent(7); ok {
		t.Error("Parent(finer resolution) succeeded, want failure")
	}
	if _, ok := cell.Parent(-1); ok {
		t.Error("Parent(-1) succeeded, want failure")
	}
}

func TestH3Cell_IsDescendantOf(t *testing.T) {
	parent := NewH3Cell(15, 3, []int{1, 2, 3})
	child := NewH3Cell(15, 6, []int{1, 2, 3, 4, 5, 6})
	sibling := NewH3Cell(15, 6, []int{1, 2, 4, 1, 1, 1})

	if !child.IsDescendantOf(parent) {
		t.Error("child.IsDescendantOf(parent) = false, want true")
	}
	if !parent.IsDescendantOf(parent) {
		t.Error("a cell is not considered its own descendant/ancestor")
	}
	if sibling.IsDescendantOf(parent) {
		t.Error("sibling.IsDescendantOf(parent) = true, want false")
	}
	if parent.IsDescendantOf(child) {
		t.Error("parent.IsDescendantOf(child) = true, want false (coarser cannot descend from finer)")
	}
}

func TestH3Cell_AncestorChain(t *testing.T) {
	cell := NewH3Cell(15, 3, []int{1, 2, 3})
	chain := cell.AncestorChain()

	if len(chain) != 4 { // resolutions 3,2,1,0
		t.Fatalf("AncestorChain() has %d entries, want 4", len(chain))
	}
	if chain[0] != cell {
		t.Errorf("AncestorChain()[0] = %v, want the cell itself", chain[0])
	}
	if chain[len(chain)-1].Resolution() != 0 {
		t.Errorf("last ancestor resolution = %d, want 0", chain[len(chain)-1].Resolution())
	}
}
