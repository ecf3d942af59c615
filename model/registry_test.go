package model

import "testing"

// Scenario S5 (spec.md §9): registering two styles with identical canonical
// content returns the same StyleId both times, and the registry's size
// grows by exactly one.
func TestScenarioRegistryDedup(t *testing.T) {
	reg := NewStyleRegistry()
	style := CellStyle{Font: Font{Name: "Calibri", Size: 11, Bold: true}}

	reg, id1 := reg.Register(style)
	sizeAfterFirst := reg.Len()
	reg, id2 := reg.Register(style)
	sizeAfterSecond := reg.Len()

	if id1 != id2 {
		t.Errorf("registering an identical style twice should return the same id, got %d and %d", id1, id2)
	}
	if sizeAfterSecond != sizeAfterFirst {
		t.Errorf("registering a duplicate should not grow the registry, sizes were %d then %d", sizeAfterFirst, sizeAfterSecond)
	}
	if sizeAfterFirst != 1 {
		t.Errorf("expected registry size 1 after first registration, got %d", sizeAfterFirst)
	}
}

func TestRegistryDistinctStylesGetDistinctIDs(t *testing.T) {
	reg := NewStyleRegistry()
	reg, id1 := reg.Register(CellStyle{Font: Font{Name: "Calibri"}})
	reg, id2 := reg.Register(CellStyle{Font: Font{Name: "Arial"}})
	if id1 == id2 {
		t.Error("distinct styles should get distinct ids")
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 registered styles, got %d", reg.Len())
	}
}

func TestRegistryRegisterDoesNotMutateReceiver(t *testing.T) {
	reg := NewStyleRegistry()
	before := reg.Len()
	after, _ := reg.Register(CellStyle{Font: Font{Name: "Calibri"}})
	if reg.Len() != before {
		t.Errorf("Register should not mutate the receiver, got len %d, want %d", reg.Len(), before)
	}
	if after.Len() != before+1 {
		t.Errorf("returned registry should reflect the insertion, got len %d, want %d", after.Len(), before+1)
	}
}

func TestRegistryStyleLookup(t *testing.T) {
	reg := NewStyleRegistry()
	style := CellStyle{Font: Font{Name: "Calibri", Bold: true}}
	reg, id := reg.Register(style)
	got, ok := reg.Style(id)
	if !ok {
		t.Fatalf("expected Style(%d) to succeed", id)
	}
	if got.CanonicalKey() != style.CanonicalKey() {
		t.Errorf("Style(%d) = %+v, want %+v", id, got, style)
	}
	if _, ok := reg.Style(StyleID(99)); ok {
		t.Error("Style lookup for an unregistered id should fail")
	}
}

func TestRegistryNilIsEmpty(t *testing.T) {
	var reg *StyleRegistry
	if reg.Len() != 0 {
		t.Errorf("nil registry Len() = %d, want 0", reg.Len())
	}
	if reg.All() != nil {
		t.Error("nil registry All() should be nil")
	}
	if reg.CustomFormatID("0.00") != -1 {
		t.Error("nil registry CustomFormatID should return -1")
	}
}

func TestRegistryCustomFormatAssignment(t *testing.T) {
	reg := NewStyleRegistry()
	style := CellStyle{NumFmt: NumFmt{Code: NumFmtCustom, CustomCode: "0.000%"}}
	reg, _ = reg.Register(style)
	id := reg.CustomFormatID("0.000%")
	if id != 164 {
		t.Errorf("first custom format should be assigned id 164, got %d", id)
	}
	if len(reg.CustomFormats()) != 1 || reg.CustomFormats()[0] != "0.000%" {
		t.Errorf("CustomFormats() = %v, want [\"0.000%%\"]", reg.CustomFormats())
	}
}
