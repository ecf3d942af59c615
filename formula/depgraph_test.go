package formula

import (
	"testing"

	"github.com/adnsv/xlpatch/model"
)

func buildWorkbook(t *testing.T, sh *model.Sheet) *model.Workbook {
	t.Helper()
	wb, err := model.NewWorkbook().AddSheet(sh)
	if err != nil {
		t.Fatal(err)
	}
	return wb
}

func TestDetectCyclesNone(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Number(1))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))
	sh = sh.Put(mustARef(t, "C1"), model.Formula("B1+1"))

	g, err := Build(buildWorkbook(t, sh))
	if err != nil {
		t.Fatal(err)
	}
	if cycles := g.DetectCycles(); len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 {
		t.Errorf("expected 2 formula nodes in order, got %d: %v", len(order), order)
	}
}

func TestDetectCyclesDirect(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Formula("B1+1"))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))

	g, err := Build(buildWorkbook(t, sh))
	if err != nil {
		t.Fatal(err)
	}
	cycles := g.DetectCycles()
	if len(cycles) == 0 {
		t.Fatal("expected at least one cycle")
	}
	_, err = g.TopologicalSort()
	if err == nil {
		t.Fatal("expected TopologicalSort to fail on a cyclic graph")
	}
	if _, ok := err.(*CircularReferenceError); !ok {
		t.Fatalf("expected *CircularReferenceError, got %T", err)
	}
}

func TestDetectCyclesSelfLoop(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Formula("A1+1"))

	g, err := Build(buildWorkbook(t, sh))
	if err != nil {
		t.Fatal(err)
	}
	if cycles := g.DetectCycles(); len(cycles) != 1 {
		t.Errorf("expected exactly one self-loop cycle, got %v", cycles)
	}
}

func TestDetectCyclesIffTopologicalSortFails(t *testing.T) {
	// testable property 11: DetectCycles is non-empty iff TopologicalSort cannot
	// order every formula node.
	cases := []*model.Sheet{
		func() *model.Sheet {
			sh := model.NewSheet("Sheet1")
			sh = sh.Put(mustARef(t, "A1"), model.Number(1))
			sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))
			return sh
		}(),
		func() *model.Sheet {
			sh := model.NewSheet("Sheet1")
			sh = sh.Put(mustARef(t, "A1"), model.Formula("B1+1"))
			sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))
			return sh
		}(),
	}
	for i, sh := range cases {
		g, err := Build(buildWorkbook(t, sh))
		if err != nil {
			t.Fatal(err)
		}
		hasCycles := len(g.DetectCycles()) > 0
		order, sortErr := g.TopologicalSort()
		sortFailed := sortErr != nil
		if hasCycles != sortFailed {
			t.Errorf("case %d: hasCycles=%v sortFailed=%v (order=%v)", i, hasCycles, sortFailed, order)
		}
	}
}

func TestTopologicalSortDeterministicTieBreak(t *testing.T) {
	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Number(1))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A1+1"))
	sh = sh.Put(mustARef(t, "A2"), model.Formula("A1+1"))

	wb := buildWorkbook(t, sh)
	var orders [][]NodeRef
	for i := 0; i < 5; i++ {
		g, err := Build(wb)
		if err != nil {
			t.Fatal(err)
		}
		order, err := g.TopologicalSort()
		if err != nil {
			t.Fatal(err)
		}
		orders = append(orders, order)
	}
	for i := 1; i < len(orders); i++ {
		if len(orders[i]) != len(orders[0]) {
			t.Fatalf("order length mismatch across runs")
		}
		for j := range orders[i] {
			if orders[i][j] != orders[0][j] {
				t.Errorf("non-deterministic order: run 0 %v, run %d %v", orders[0], i, orders[i])
			}
		}
	}
	// A2 (row 2) must come no earlier than B1 (row 1) since both depend only on A1
	// and the tie-break orders by (sheetIndex, Row, Col).
	posOf := func(order []NodeRef, ref string) int {
		target := mustARef(t, ref)
		for i, n := range order {
			if n.Ref == target {
				return i
			}
		}
		return -1
	}
	order := orders[0]
	if posOf(order, "B1") > posOf(order, "A2") {
		t.Errorf("expected B1 before A2 by (row, col) tie-break, got %v", order)
	}
}
