package formula

import (
	"testing"

	"github.com/adnsv/xlpatch/model"
)

func TestShiftAdditive(t *testing.T) {
	expr, err := Parse("A1+$B$2*C3")
	if err != nil {
		t.Fatal(err)
	}
	combined := ShiftExpr(expr, 3, 5)
	stepwise := ShiftExpr(ShiftExpr(expr, 1, 2), 2, 3)
	if Print(combined) != Print(stepwise) {
		t.Errorf("shift is not additive: combined=%q stepwise=%q", Print(combined), Print(stepwise))
	}
}

func TestShiftPreservesAbsoluteAnchors(t *testing.T) {
	got := Shift("$A$1*ROW()", 2, 3)
	if got != "$A$1*ROW()" {
		t.Errorf("expected absolute anchors preserved, got %q", got)
	}
}

func TestShiftRelativeReferences(t *testing.T) {
	got := Shift("A1*2", 0, 1)
	if got != "A2*2" {
		t.Errorf("expected A2*2, got %q", got)
	}
}

func TestShiftRangeEndpointsIndependently(t *testing.T) {
	expr, err := Parse("SUM($A1:B$10)")
	if err != nil {
		t.Fatal(err)
	}
	shifted := ShiftExpr(expr, 1, 1)
	call := shifted.(CallExpr)
	ref := call.Args[0].(RefExpr)
	if ref.Start.Col != model.Column(0) { // column anchored, unchanged
		t.Errorf("expected start column unchanged, got %v", ref.Start.Col)
	}
	if ref.Start.Row != model.Row(1) { // row not anchored, shifted by 1
		t.Errorf("expected start row shifted to 1, got %v", ref.Start.Row)
	}
	if ref.End.Col != model.Column(2) { // column not anchored, shifted by 1 (B->C)
		t.Errorf("expected end column shifted to C, got %v", ref.End.Col)
	}
	if ref.End.Row != model.Row(9) { // row anchored, unchanged
		t.Errorf("expected end row unchanged, got %v", ref.End.Row)
	}
}
