package model

import "testing"

func TestWorkbookAddSheetRejectsDuplicate(t *testing.T) {
	wb := NewWorkbook()
	wb, err := wb.AddSheet(NewSheet("Sheet1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wb.AddSheet(NewSheet("Sheet1")); err == nil {
		t.Error("expected a duplicate-name error")
	} else if _, ok := err.(*DuplicateSheetError); !ok {
		t.Errorf("expected *DuplicateSheetError, got %T", err)
	}
}

func TestWorkbookAddSheetIsImmutable(t *testing.T) {
	wb := NewWorkbook()
	wb2, err := wb.AddSheet(NewSheet("Sheet1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(wb.Sheets()) != 0 {
		t.Error("AddSheet should not mutate the receiver")
	}
	if len(wb2.Sheets()) != 1 {
		t.Error("AddSheet should be visible on the returned workbook")
	}
}

func TestWorkbookRenameSheet(t *testing.T) {
	wb := NewWorkbook()
	wb, _ = wb.AddSheet(NewSheet("Sheet1"))
	wb, _ = wb.AddSheet(NewSheet("Sheet2"))

	renamed, err := wb.RenameSheet("Sheet1", "Data")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := renamed.Sheet("Data"); err != nil {
		t.Error("renamed sheet should be found under the new name")
	}
	if _, err := renamed.Sheet("Sheet1"); err == nil {
		t.Error("old name should no longer resolve")
	}

	if _, err := wb.RenameSheet("Sheet1", "Sheet2"); err == nil {
		t.Error("rename to an existing name should fail")
	}
	if _, err := wb.RenameSheet("Missing", "X"); err == nil {
		t.Error("rename of a nonexistent sheet should fail")
	}
}

func TestWorkbookDeleteSheet(t *testing.T) {
	wb := NewWorkbook()
	wb, _ = wb.AddSheet(NewSheet("Sheet1"))
	wb, _ = wb.AddSheet(NewSheet("Sheet2"))

	wb2, err := wb.DeleteSheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(wb2.Sheets()) != 1 {
		t.Errorf("expected 1 sheet after delete, got %d", len(wb2.Sheets()))
	}
	if _, err := wb2.DeleteSheet("Sheet2"); err == nil {
		t.Error("deleting the last remaining sheet should fail")
	}
}

func TestWorkbookActivate(t *testing.T) {
	wb := NewWorkbook()
	wb, _ = wb.AddSheet(NewSheet("Sheet1"))
	wb, _ = wb.AddSheet(NewSheet("Sheet2"))

	wb2, err := wb.Activate(1)
	if err != nil {
		t.Fatal(err)
	}
	if wb2.ActiveSheetIndex() != 1 {
		t.Errorf("ActiveSheetIndex() = %d, want 1", wb2.ActiveSheetIndex())
	}
	if wb.ActiveSheetIndex() != 0 {
		t.Error("Activate should not mutate the receiver")
	}
	if _, err := wb.Activate(5); err == nil {
		t.Error("Activate with an out-of-range index should fail")
	}
}

func TestWorkbookDefinedNames(t *testing.T) {
	wb := NewWorkbook().WithDefinedName("TaxRate", "Sheet1!$B$1")
	names := wb.DefinedNames()
	if names["TaxRate"] != "Sheet1!$B$1" {
		t.Errorf("DefinedNames()[%q] = %q, want %q", "TaxRate", names["TaxRate"], "Sheet1!$B$1")
	}
	names["TaxRate"] = "mutated"
	if wb.DefinedNames()["TaxRate"] != "Sheet1!$B$1" {
		t.Error("DefinedNames() should return a defensive copy")
	}
}
