package model

import "testing"

func TestARefParsePrintRoundTrip(t *testing.T) {
	cases := []string{"A1", "Z1", "AA1", "XFD1048576", "B12", "A$1", "$A1", "$A$1"}
	for _, s := range cases {
		ref, err := ParseARef(s)
		if err != nil {
			t.Fatalf("ParseARef(%q) failed: %v", s, err)
		}
		printed := ref.ToA1()
		reparsed, err := ParseARef(printed)
		if err != nil {
			t.Fatalf("ParseARef(ToA1(%q)=%q) failed: %v", s, printed, err)
		}
		if reparsed != ref {
			t.Errorf("round-trip mismatch for %q: got %v, printed %q, reparsed %v", s, ref, printed, reparsed)
		}
	}
}

func TestParseARefRejectsMalformed(t *testing.T) {
	cases := []string{"", "1A", "A", "A0", "AAAA1", "XFE1", "A1048577", "A1B2"}
	for _, s := range cases {
		if _, err := ParseARef(s); err == nil {
			t.Errorf("ParseARef(%q) should have failed", s)
		} else if _, ok := err.(*InvalidCellRefError); !ok {
			t.Errorf("ParseARef(%q) returned %T, want *InvalidCellRefError", s, err)
		}
	}
}

func TestParseAnchoredARef(t *testing.T) {
	_, colAbs, rowAbs, err := ParseAnchoredARef("$A$1")
	if err != nil {
		t.Fatal(err)
	}
	if !colAbs || !rowAbs {
		t.Errorf("expected both anchors set, got colAbs=%v rowAbs=%v", colAbs, rowAbs)
	}
	ref, colAbs, rowAbs, err := ParseAnchoredARef("B2")
	if err != nil {
		t.Fatal(err)
	}
	if colAbs || rowAbs {
		t.Errorf("expected no anchors, got colAbs=%v rowAbs=%v", colAbs, rowAbs)
	}
	if ref != (ARef{Col: 1, Row: 1}) {
		t.Errorf("unexpected ref %v", ref)
	}
}

func TestARefLess(t *testing.T) {
	a := ARef{Col: 0, Row: 5}
	b := ARef{Col: 1, Row: 0}
	if !a.Less(b) {
		t.Errorf("expected %v < %v by column first", a, b)
	}
	c := ARef{Col: 0, Row: 0}
	d := ARef{Col: 0, Row: 1}
	if !c.Less(d) {
		t.Errorf("expected %v < %v by row within same column", c, d)
	}
}

func TestValidateSheetName(t *testing.T) {
	valid := []string{"Sheet1", "My Data", "a"}
	for _, s := range valid {
		if _, err := ValidateSheetName(s); err != nil {
			t.Errorf("ValidateSheetName(%q) failed: %v", s, err)
		}
	}
	invalid := []string{"", "this name is definitely way way too long for excel to accept it", "bad:name", "a/b", "History", "HISTORY"}
	for _, s := range invalid {
		if _, err := ValidateSheetName(s); err == nil {
			t.Errorf("ValidateSheetName(%q) should have failed", s)
		}
	}
}
