package formula

import (
	"testing"

	"github.com/adnsv/xlpatch/model"
)

func mustARef(t *testing.T, s string) model.ARef {
	t.Helper()
	ref, err := model.ParseARef(s)
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func TestEvaluateScenarioS1(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Number(100))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A1*2"))
	sh = sh.Put(mustARef(t, "C1"), model.Formula("B1+50"))

	v, err := EvaluateCell(sh, nil, mustARef(t, "C1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != model.KindNumber || v.Number != 250 {
		t.Errorf("expected Number(250), got %+v", v)
	}

	v, err = EvaluateCell(sh, nil, mustARef(t, "C1"), map[model.ARef]model.CellValue{
		mustARef(t, "A1"): model.Number(200),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != model.KindNumber || v.Number != 450 {
		t.Errorf("expected Number(450) under override, got %+v", v)
	}
}

func TestEvaluateScenarioS2(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "B2"), model.Number(10))
	sh = sh.Put(mustARef(t, "B3"), model.Number(20))
	sh = sh.Put(mustARef(t, "B4"), model.Number(30))
	sh = sh.Put(mustARef(t, "B5"), model.Formula("SUM(B2:B4)"))
	sh = sh.Put(mustARef(t, "C5"), model.Formula("SUM(B2:B4)"))
	sh = sh.Put(mustARef(t, "D5"), model.Formula("SUM(B2:B4)"))
	sh = sh.Put(mustARef(t, "E5"), model.Formula("SUM(B2:B4)"))
	sh = sh.Put(mustARef(t, "F5"), model.Formula("SUM(B5:E5)"))

	result, err := EvaluateWithDependencyCheck(sh, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"B5", "C5", "D5", "E5"} {
		c := result.Cell(mustARef(t, ref))
		if c.Value.CachedValue == nil || c.Value.CachedValue.Number != 60 {
			t.Errorf("%s: expected cached 60, got %+v", ref, c.Value.CachedValue)
		}
	}
	f5 := result.Cell(mustARef(t, "F5"))
	if f5.Value.CachedValue == nil || f5.Value.CachedValue.Number != 240 {
		t.Errorf("F5: expected cached 240, got %+v", f5.Value.CachedValue)
	}
}

func TestEvaluateScenarioS1CircularReference(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Formula("B1+1"))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))

	_, err := EvaluateWithDependencyCheck(sh, nil, nil)
	if err == nil {
		t.Fatal("expected a circular reference error")
	}
	if _, ok := err.(*CircularReferenceError); !ok {
		t.Fatalf("expected *CircularReferenceError, got %T: %v", err, err)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Number(0))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("10/A1"))
	v, err := EvaluateCell(sh, nil, mustARef(t, "B1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != model.KindError || v.ErrKind != model.ErrDiv0 {
		t.Errorf("expected #DIV/0!, got %+v", v)
	}
}

func TestEvaluateIfAndVlookup(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Text("apple"))
	sh = sh.Put(mustARef(t, "B1"), model.Number(1))
	sh = sh.Put(mustARef(t, "A2"), model.Text("pear"))
	sh = sh.Put(mustARef(t, "B2"), model.Number(2))
	sh = sh.Put(mustARef(t, "D1"), model.Formula(`VLOOKUP("pear",A1:B2,2,FALSE)`))

	v, err := EvaluateCell(sh, nil, mustARef(t, "D1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != model.KindNumber || v.Number != 2 {
		t.Errorf("expected Number(2), got %+v", v)
	}
}
