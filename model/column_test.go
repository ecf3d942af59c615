package model

import "testing"

func TestColumnLetterRoundTrip(t *testing.T) {
	cases := []string{"A", "Z", "AA", "AZ", "BA", "ZZ", "AAA", "XFD"}
	for _, s := range cases {
		c, err := ColumnFromLetter(s)
		if err != nil {
			t.Fatalf("ColumnFromLetter(%q) failed: %v", s, err)
		}
		if got := c.ToLetter(); got != s {
			t.Errorf("ColumnFromLetter(%q).ToLetter() = %q, want %q", s, got, s)
		}
	}
}

func TestColumnFromLetterRejectsOutOfRange(t *testing.T) {
	cases := []string{"", "1A", "XFE", "ZZZZ"}
	for _, s := range cases {
		if _, err := ColumnFromLetter(s); err == nil {
			t.Errorf("ColumnFromLetter(%q) should have failed", s)
		}
	}
}

func TestColumnValid(t *testing.T) {
	if !Column(0).Valid() {
		t.Error("column 0 should be valid")
	}
	if !MaxColumn.Valid() {
		t.Error("MaxColumn should be valid")
	}
	if (MaxColumn + 1).Valid() {
		t.Error("MaxColumn+1 should be invalid")
	}
	if Column(-1).Valid() {
		t.Error("negative column should be invalid")
	}
}

func TestRowValid(t *testing.T) {
	if !Row(0).Valid() {
		t.Error("row 0 should be valid")
	}
	if !MaxRow.Valid() {
		t.Error("MaxRow should be valid")
	}
	if (MaxRow + 1).Valid() {
		t.Error("MaxRow+1 should be invalid")
	}
}
