package model

import "testing"

func TestCellRangeParsePrintRoundTrip(t *testing.T) {
	cases := []string{"A1:B10", "A1", "A1:A1", "B2:A1"}
	for _, s := range cases {
		r, err := ParseCellRange(s)
		if err != nil {
			t.Fatalf("ParseCellRange(%q) failed: %v", s, err)
		}
		printed := r.String()
		reparsed, err := ParseCellRange(printed)
		if err != nil {
			t.Fatalf("ParseCellRange(String()=%q) failed: %v", printed, err)
		}
		if reparsed != r {
			t.Errorf("round-trip mismatch for %q: got %v, printed %q, reparsed %v", s, r, printed, reparsed)
		}
	}
}

func TestNewCellRangeNormalizes(t *testing.T) {
	a := ARef{Col: 5, Row: 5}
	b := ARef{Col: 0, Row: 0}
	r := NewCellRange(a, b)
	if r.Start != b || r.End != a {
		t.Errorf("NewCellRange(%v, %v) = %v, want normalized (start<=end)", a, b, r)
	}
}

func TestCellRangeContainsAndIntersects(t *testing.T) {
	r, _ := ParseCellRange("B2:D4")
	if !r.Contains(ARef{Col: 2, Row: 2}) {
		t.Error("expected C3 to be contained in B2:D4")
	}
	if r.Contains(ARef{Col: 0, Row: 0}) {
		t.Error("expected A1 to not be contained in B2:D4")
	}
	other, _ := ParseCellRange("D4:F6")
	if !r.Intersects(other) {
		t.Error("expected B2:D4 and D4:F6 to intersect at D4")
	}
	disjoint, _ := ParseCellRange("F6:G7")
	if r.Intersects(disjoint) {
		t.Error("expected B2:D4 and F6:G7 to not intersect")
	}
}

func TestCellRangeSpans(t *testing.T) {
	r, _ := ParseCellRange("B2:D5")
	if r.ColumnSpan() != 3 {
		t.Errorf("ColumnSpan() = %d, want 3", r.ColumnSpan())
	}
	if r.RowSpan() != 4 {
		t.Errorf("RowSpan() = %d, want 4", r.RowSpan())
	}
}

func TestCellRangeCellsEnumeratesRowMajor(t *testing.T) {
	r, _ := ParseCellRange("A1:B2")
	var got []ARef
	r.Cells(func(ref ARef) bool {
		got = append(got, ref)
		return true
	})
	want := []ARef{{Col: 0, Row: 0}, {Col: 1, Row: 0}, {Col: 0, Row: 1}, {Col: 1, Row: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCellRangeShift(t *testing.T) {
	r, _ := ParseCellRange("A1:B2")
	shifted := r.Shift(2, 3)
	want, _ := ParseCellRange("C4:D5")
	if shifted != want {
		t.Errorf("Shift(2,3) = %v, want %v", shifted, want)
	}
}

func TestParseCellRangeRejectsMalformed(t *testing.T) {
	cases := []string{"", "A1:", ":A1", "ZZZZ1:A1"}
	for _, s := range cases {
		if _, err := ParseCellRange(s); err == nil {
			t.Errorf("ParseCellRange(%q) should have failed", s)
		}
	}
}
