package model

import "testing"

func a1(s string) ARef {
	ref, err := ParseARef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func rng(s string) CellRange {
	r, err := ParseCellRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Patch monoid law (spec.md §8, law 6): Empty is a two-sided identity for
// Compose, and Compose is associative.
func TestPatchMonoidIdentity(t *testing.T) {
	s := NewSheet("Sheet1")
	p := Put(a1("A1"), Number(42))

	left, err := Apply(s, Compose(PatchNone(), p))
	if err != nil {
		t.Fatal(err)
	}
	right, err := Apply(s, Compose(p, PatchNone()))
	if err != nil {
		t.Fatal(err)
	}
	direct, err := Apply(s, p)
	if err != nil {
		t.Fatal(err)
	}
	if !left.Cell(a1("A1")).Value.Equal(direct.Cell(a1("A1")).Value) {
		t.Error("Compose(Empty, p) should apply the same as p alone")
	}
	if !right.Cell(a1("A1")).Value.Equal(direct.Cell(a1("A1")).Value) {
		t.Error("Compose(p, Empty) should apply the same as p alone")
	}
}

func TestPatchMonoidAssociativity(t *testing.T) {
	s := NewSheet("Sheet1")
	p := Put(a1("A1"), Number(1))
	q := Put(a1("A1"), Number(2))
	r := Put(a1("A1"), Number(3))

	left := Compose(Compose(p, q), r)
	right := Compose(p, Compose(q, r))

	ls, err := Apply(s, left)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := Apply(s, right)
	if err != nil {
		t.Fatal(err)
	}
	if !ls.Cell(a1("A1")).Value.Equal(rs.Cell(a1("A1")).Value) {
		t.Errorf("associativity violated: (p.q).r = %v, p.(q.r) = %v",
			ls.Cell(a1("A1")).Value, rs.Cell(a1("A1")).Value)
	}
}

// Idempotence of overwrite (spec.md §8, law 7): Put(r,v1).Put(r,v2) applied
// to any sheet yields the same result as Put(r,v2) alone.
func TestPutOverwriteIdempotence(t *testing.T) {
	s := NewSheet("Sheet1")
	ref := a1("C3")
	v1, v2 := Text("first"), Number(2)

	composed, err := Apply(s, Compose(Put(ref, v1), Put(ref, v2)))
	if err != nil {
		t.Fatal(err)
	}
	direct, err := Apply(s, Put(ref, v2))
	if err != nil {
		t.Fatal(err)
	}
	if !composed.Cell(ref).Value.Equal(direct.Cell(ref).Value) {
		t.Errorf("Put(r,v1).Put(r,v2) = %v, want %v (same as Put(r,v2) alone)",
			composed.Cell(ref).Value, direct.Cell(ref).Value)
	}
}

// ValueLens laws (spec.md §8, law 8): get-put, put-get, put-put.
func TestValueLensLaws(t *testing.T) {
	s := NewSheet("Sheet1").Put(a1("B2"), Text("hello"))
	lens := ValueLens{Ref: a1("B2")}

	// put-get: get(set(s, v)) == v
	v := Number(7)
	if got := lens.Get(lens.Set(s, v)); !got.Equal(v) {
		t.Errorf("put-get: got %v, want %v", got, v)
	}

	// get-put: set(s, get(s)) == s (observed through the lensed cell)
	setToCurrent := lens.Set(s, lens.Get(s))
	if !setToCurrent.Cell(a1("B2")).Value.Equal(s.Cell(a1("B2")).Value) {
		t.Error("get-put: setting the cell to its own current value should be a no-op on that cell")
	}

	// put-put: set(set(s,a), b) == set(s, b)
	a, b := Number(1), Number(2)
	viaTwoPuts := lens.Set(lens.Set(s, a), b)
	viaOnePut := lens.Set(s, b)
	if !viaTwoPuts.Cell(a1("B2")).Value.Equal(viaOnePut.Cell(a1("B2")).Value) {
		t.Error("put-put: two successive sets should collapse to the last one")
	}
}

// Scenario S4 (spec.md §9): merging then clearing with clearContents removes
// both the cell values and the merge; merging then unmerging returns to an
// unmerged state.
func TestScenarioMergeClearInteraction(t *testing.T) {
	s := NewSheet("Sheet1")
	s, err := Apply(s, Batch(
		Put(a1("A1"), Text("x")),
		Put(a1("B1"), Text("y")),
		MergePatch(rng("A1:D1")),
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.MergedRanges()) != 1 {
		t.Fatalf("expected one merged range after Merge, got %d", len(s.MergedRanges()))
	}

	cleared, err := Apply(s, ClearContents(rng("A1:D10")))
	if err != nil {
		t.Fatal(err)
	}
	if !cleared.Cell(a1("A1")).Value.IsEmpty() || !cleared.Cell(a1("B1")).Value.IsEmpty() {
		t.Error("ClearContents should clear cell values within range")
	}
	if len(cleared.MergedRanges()) != 0 {
		t.Errorf("ClearContents over a merged range should remove the merge, got %d remaining", len(cleared.MergedRanges()))
	}

	unmerged, err := Apply(s, UnmergePatch(rng("A1:D1")))
	if err != nil {
		t.Fatal(err)
	}
	if len(unmerged.MergedRanges()) != 0 {
		t.Errorf("Unmerge should remove the exact merged range, got %d remaining", len(unmerged.MergedRanges()))
	}
	if unmerged.Cell(a1("A1")).Value.IsEmpty() {
		t.Error("Unmerge alone should not clear cell contents")
	}
}

func TestPatchMergeRejectsOverlap(t *testing.T) {
	s := NewSheet("Sheet1")
	s, err := Apply(s, MergePatch(rng("A1:B2")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(s, MergePatch(rng("B2:C3"))); err == nil {
		t.Error("expected an error merging an overlapping range")
	}
}

func TestPatchBatchIsAllOrNothing(t *testing.T) {
	s := NewSheet("Sheet1")
	s, err := Apply(s, MergePatch(rng("A1:B2")))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Apply(s, Batch(
		Put(a1("C1"), Number(1)),
		MergePatch(rng("B2:C3")), // overlaps, should fail
	))
	var batchErr *BatchError
	if err == nil {
		t.Fatal("expected a *BatchError for the overlapping merge")
	}
	if be, ok := err.(*BatchError); !ok {
		t.Fatalf("expected *BatchError, got %T", err)
	} else {
		batchErr = be
	}
	if batchErr.Index != 1 {
		t.Errorf("expected the failure to be attributed to operation index 1, got %d", batchErr.Index)
	}
}
