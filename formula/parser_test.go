package formula

import (
	"testing"

	"github.com/adnsv/xlpatch/model"
)

func TestParsePrintRoundTrip(t *testing.T) {
	cases := []string{
		"1+2*3",
		"(1+2)*3",
		"A1+B1",
		"$A$1*ROW()",
		"SUM(B2:B4)",
		"IF(A1>0,\"pos\",\"neg\")",
		"Sheet1!A1+'My Sheet'!B2",
		"2^3^2",
		"-A1%",
		"A1=A2",
		"A1<>A2",
	}
	for _, src := range cases {
		expr, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		printed := Print(expr)
		reparsed, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(Print(%q)=%q) failed: %v", src, printed, err)
		}
		if Print(reparsed) != printed {
			t.Errorf("round-trip mismatch for %q: printed %q, reprinted %q", src, printed, Print(reparsed))
		}
	}
}

func TestParseUnknownFunctionSuggests(t *testing.T) {
	_, err := Parse("SUMM(A1:A2)")
	if err == nil {
		t.Fatal("expected an error for unknown function")
	}
	uf, ok := err.(*UnknownFunctionError)
	if !ok {
		t.Fatalf("expected *UnknownFunctionError, got %T: %v", err, err)
	}
	if len(uf.Suggestions) == 0 {
		t.Errorf("expected at least one suggestion for %q", uf.Name)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse("   ")
	if _, ok := err.(*EmptyInputError); !ok {
		t.Fatalf("expected *EmptyInputError, got %T: %v", err, err)
	}
}

func TestParseRangeAnchors(t *testing.T) {
	expr, err := Parse("$A$1:B2")
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := expr.(RefExpr)
	if !ok || !ref.IsRange {
		t.Fatalf("expected a range RefExpr, got %#v", expr)
	}
	if !ref.Start.ColAbs || !ref.Start.RowAbs {
		t.Errorf("expected start corner fully anchored, got %+v", ref.Start)
	}
	if ref.End.ColAbs || ref.End.RowAbs {
		t.Errorf("expected end corner unanchored, got %+v", ref.End)
	}
	if ref.Start.ARef() != (model.ARef{Col: 0, Row: 0}) {
		t.Errorf("unexpected start ref %v", ref.Start.ARef())
	}
}
