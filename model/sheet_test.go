package model

import "testing"

func TestSheetPutIsImmutable(t *testing.T) {
	s := NewSheet("Sheet1")
	s2 := s.Put(a1("A1"), Number(1))
	if !s.Cell(a1("A1")).Value.IsEmpty() {
		t.Error("Put should not mutate the receiver")
	}
	if s2.Cell(a1("A1")).Value.Number != 1 {
		t.Error("Put should be visible on the returned sheet")
	}
}

func TestSheetPutWithStyleRegistersStyle(t *testing.T) {
	s := NewSheet("Sheet1")
	style := CellStyle{Font: Font{Bold: true}}
	s = s.PutWithStyle(a1("A1"), Text("x"), style)
	cell := s.Cell(a1("A1"))
	if cell.StyleID == nil {
		t.Fatal("expected a style id to be assigned")
	}
	got, ok := s.Styles().Style(*cell.StyleID)
	if !ok {
		t.Fatal("expected the assigned style id to resolve")
	}
	if got.CanonicalKey() != style.CanonicalKey() {
		t.Errorf("resolved style = %+v, want %+v", got, style)
	}
}

func TestSheetUsedRange(t *testing.T) {
	s := NewSheet("Sheet1")
	if _, ok := s.UsedRange(); ok {
		t.Error("empty sheet should report no used range")
	}
	s = s.Put(a1("B2"), Number(1)).Put(a1("D5"), Number(2))
	r, ok := s.UsedRange()
	if !ok {
		t.Fatal("expected a used range")
	}
	want := rng("B2:D5")
	if r != want {
		t.Errorf("UsedRange() = %v, want %v", r, want)
	}
}

func TestSheetUsedRangeIncludesStyleOnlyCells(t *testing.T) {
	s := NewSheet("Sheet1").StyleCell(a1("C3"), CellStyle{Font: Font{Bold: true}}, true)
	r, ok := s.UsedRange()
	if !ok {
		t.Fatal("expected a used range from a style-only cell")
	}
	if r != rng("C3") {
		t.Errorf("UsedRange() = %v, want C3", r)
	}
}

func TestSheetFillDownShiftsRelativeReferences(t *testing.T) {
	s := NewSheet("Sheet1").Put(a1("A1"), Formula("A1*2"))
	noopShift := func(text string, dCol Column, dRow Row) string {
		if dCol == 0 && dRow == 1 {
			return "A2*2"
		}
		return text
	}
	filled, err := s.Fill(rng("A1"), rng("A1:A2"), FillDown, noopShift)
	if err != nil {
		t.Fatal(err)
	}
	got := filled.Cell(a1("A2")).Value
	if got.Kind != KindFormula || got.FormulaText != "A2*2" {
		t.Errorf("Fill should shift the formula text, got %+v", got)
	}
	if filled.Cell(a1("A1")).Value.FormulaText != "A1*2" {
		t.Error("Fill should not alter the source cell")
	}
}

func TestSheetFillRejectsSpanMismatch(t *testing.T) {
	s := NewSheet("Sheet1").Put(a1("A1"), Number(1))
	_, err := s.Fill(rng("A1"), rng("A1:B2"), FillDown, nil)
	if err == nil {
		t.Error("FillDown with mismatched column spans should fail")
	}
}

func TestSheetCloneIndependence(t *testing.T) {
	s := NewSheet("Sheet1").Put(a1("A1"), Number(1))
	s2 := s.SetColumnProperties(0, ColumnProps{Hidden: true})
	if s.ColumnProperties(0).Hidden {
		t.Error("SetColumnProperties should not mutate the receiver")
	}
	if !s2.ColumnProperties(0).Hidden {
		t.Error("SetColumnProperties should be visible on the returned sheet")
	}
	// Mutating s2's cells must not retroactively affect s's already-read value.
	s3 := s2.Put(a1("A1"), Number(99))
	if s.Cell(a1("A1")).Value.Number != 1 {
		t.Error("mutating a derived sheet must not affect an earlier snapshot")
	}
	if s3.Cell(a1("A1")).Value.Number != 99 {
		t.Error("the derived sheet should reflect its own mutation")
	}
}
