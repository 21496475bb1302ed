package percolate

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// LITERAL MATCHING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestHasValue_Matches(t *testing.T) {
	lit := NewHasValue("A", "a")

	if lit.Matches(NewDocument()) {
		t.Error("HasValue matched an empty document")
	}
	if !lit.Matches(NewDocument().With("A", "a")) {
		t.Error("HasValue did not match exact pair")
	}
	if lit.Matches(NewDocument().With("A", "aa")) {
		t.Error("HasValue matched a different value")
	}
	if !lit.Matches(NewDocument().With("A", "x").With("A", "a")) {
		t.Error("HasValue did not match when one of several values is correct")
	}
}

func TestHasPrefix_Matches(t *testing.T) {
	lit := NewHasPrefix("C", "multi")

	if lit.Matches(NewDocument()) {
		t.Error("HasPrefix matched an empty document")
	}
	if !lit.Matches(NewDocument().With("C", "multi")) {
		t.Error("HasPrefix did not match the prefix itself")
	}
	if !lit.Matches(NewDocument().With("C", "multimeter")) {
		t.Error("HasPrefix did not match a longer value sharing the prefix")
	}
	if lit.Matches(NewDocument().With("C", "mult")) {
		t.Error("HasPrefix matched a value shorter than the prefix")
	}
}

func TestHasPrefix_EmptyPrefixIsFieldExistence(t *testing.T) {
	lit := NewHasPrefix("P", "")

	if lit.Matches(NewDocument()) {
		t.Error("empty HasPrefix matched a document without the field")
	}
	if !lit.Matches(NewDocument().With("P", "")) {
		t.Error("empty HasPrefix did not match a document with the field present")
	}
	if !lit.Matches(NewDocument().With("P", "anything")) {
		t.Error("empty HasPrefix did not match a non-empty value")
	}
}

func TestIntCmp_Matches(t *testing.T) {
	cases := []struct {
		op   CmpOp
		n    int64
		val  string
		want bool
	}{
		{OpEQ, 123, "123", true},
		{OpEQ, 123, "124", false},
		{OpLT, 123, "122", true},
		{OpLT, 123, "123", false},
		{OpLE, 123, "123", true},
		{OpGT, 123, "124", true},
		{OpGT, 123, "123", false},
		{OpGE, 123, "123", true},
	}
	for _, c := range cases {
		lit := NewIntCmp("L", c.op, c.n)
		d := NewDocument().With("L", c.val)
		if got := lit.Matches(d); got != c.want {
			t.Errorf("IntCmp(L %s %d).Matches({L:%s}) = %v, want %v", c.op, c.n, c.val, got, c.want)
		}
	}
}

func TestIntCmp_MalformedValueIgnored(t *testing.T) {
	lit := NewIntCmp("L", OpGT, 100)

	if lit.Matches(NewDocument().With("L", " 101")) {
		t.Error("IntCmp matched a value with leading whitespace")
	}
	if lit.Matches(NewDocument().With("L", "+101")) {
		t.Error("IntCmp matched a value with a leading +")
	}
	if lit.Matches(NewDocument().With("L", "abc")) {
		t.Error("IntCmp matched a non-numeric value")
	}
	// a malformed value does not disqualify another value of the same field
	if !lit.Matches(NewDocument().With("L", "abc").With("L", "101")) {
		t.Error("IntCmp ignored a valid value alongside a malformed one")
	}
}

func TestH3In_Matches(t *testing.T) {
	parent, err := ParseH3Cell("861f09b27ffffff")
	if err != nil {
		t.Fatalf("ParseH3Cell failed: %v", err)
	}
	lit := NewH3In("location", parent)

	if !lit.Matches(NewDocument().With("location", "861f09b27ffffff")) {
		t.Error("H3In did not match the cell itself")
	}

	// Build a child cell one resolution finer, inheriting parent's digit
	// chain and appending one more digit of its own.
	digits := make([]int, parent.Resolution()+1)
	for r := 1; r <= parent.Resolution(); r++ {
		digits[r-1] = parent.Digit(r)
	}
	digits[parent.Resolution()] = 2
	childCell := NewH3Cell(parent.BaseCell(), parent.Resolution()+1, digits)
	if !childCell.IsDescendantOf(parent) {
		t.Fatal("constructed child cell is not a descendant of its own parent by construction")
	}
	if !lit.Matches(NewDocument().With("location", childCell.String())) {
		t.Error("H3In did not match a descendant cell")
	}

	if lit.Matches(NewDocument().With("location", "not-a-cell")) {
		t.Error("H3In matched an unparseable cell value")
	}
}

func TestLatLngWithin_Matches(t *testing.T) {
	// Paris, roughly.
	lit := NewLatLngWithin("location", 48.864716, 2.349014, 1000)

	if lit.Matches(NewDocument()) {
		t.Error("LatLngWithin matched an empty document")
	}
	if !lit.Matches(NewDocument().With("location", "48.864716,2.349014")) {
		t.Error("LatLngWithin did not match its own center point")
	}
	// A point roughly 350m away should still be inside a 1000m radius.
	if !lit.Matches(NewDocument().With("location", "48.865008,2.344328")) {
		t.Error("LatLngWithin did not match a nearby point")
	}
	// A point far away should fall outside.
	if lit.Matches(NewDocument().With("location", "40.0,-70.0")) {
		t.Error("LatLngWithin matched a point thousands of kilometers away")
	}
	if lit.Matches(NewDocument().With("location", "not-a-point")) {
		t.Error("LatLngWithin matched an unparseable value")
	}
}

func TestNeg_IsPlainComplement(t *testing.T) {
	lit := NewNeg(NewHasValue("A", "a"))

	// Field entirely absent: plain complement says true (no field-presence
	// precondition), which is the reading this module implements.
	if !lit.Matches(NewDocument()) {
		t.Error("Neg(HasValue) did not match a document missing the field entirely")
	}
	// Field present but with a different value: inner is false, so Neg is true.
	if !lit.Matches(NewDocument().With("A", "aa")) {
		t.Error("Neg(HasValue) did not match a document with a different value")
	}
	// Field present with the exact value: inner is true, so Neg is false.
	if lit.Matches(NewDocument().With("A", "a")) {
		t.Error("Neg(HasValue) matched a document satisfying the inner literal")
	}
}

func TestNeg_DoubleNegationCancelsViaCNF(t *testing.T) {
	// Not(Not(L)) should normalize back to L.
	inner := NewHasValue("A", "a")
	cnf := NormalizeCNF(Not(Not(L(inner))))

	if len(cnf.Clauses) != 1 || len(cnf.Clauses[0]) != 1 {
		t.Fatalf("NormalizeCNF(Not(Not(L))) = %+v, want single clause with one literal", cnf)
	}
	if _, ok := cnf.Clauses[0][0].(HasValue); !ok {
		t.Errorf("NormalizeCNF(Not(Not(L))) literal is %T, want HasValue", cnf.Clauses[0][0])
	}
}
