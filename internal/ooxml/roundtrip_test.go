package ooxml

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/adnsv/xlpatch/model"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

// writeEmptyZip writes a ZIP archive with no [Content_Types].xml part, used
// to exercise Read's defensive MissingContentTypesError.
func writeEmptyZip(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("unrelated.txt")
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("not a package")); err != nil {
		return err
	}
	return zw.Close()
}

func mustARef(t *testing.T, s string) model.ARef {
	t.Helper()
	ref, err := model.ParseARef(s)
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func buildSampleWorkbook(t *testing.T) *model.Workbook {
	t.Helper()

	sh := model.NewSheet("Sheet1")
	sh = sh.Put(mustARef(t, "A1"), model.Text("hello"))
	sh = sh.Put(mustARef(t, "A2"), model.Number(42.5))
	sh = sh.Put(mustARef(t, "A3"), model.Bool(true))
	sh = sh.Put(mustARef(t, "A4"), model.Error(model.ErrDiv0))
	sh = sh.Put(mustARef(t, "B1"), model.Formula("A2*2").WithCached(model.Number(85)))

	bold := model.CellStyle{
		Font:      model.Font{Name: "Calibri", Size: 11, Bold: true},
		Alignment: model.Alignment{Horizontal: model.HAlignCenter},
	}
	sh = sh.PutWithStyle(mustARef(t, "C1"), model.Text("styled"), bold)

	sh = sh.Merge(model.NewCellRange(mustARef(t, "A5"), mustARef(t, "B6")))
	sh = sh.AddComment(mustARef(t, "A1"), model.Comment{Text: "a note", Author: "tester"})
	sh = sh.SetHyperlink(mustARef(t, "A2"), model.Hyperlink{Target: "Sheet1!A1", Display: "jump"})
	sh = sh.WithFreezePane(&model.FreezePane{Column: 1, Row: 1})

	wb := model.NewWorkbook()
	wb, err := wb.AddSheet(sh)
	if err != nil {
		t.Fatal(err)
	}
	return wb
}

func TestWriteReadRoundTrip(t *testing.T) {
	wb := buildSampleWorkbook(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	if err := Write(wb, path, WriteConfig{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path, ReadConfig{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	sheets := got.Sheets()
	if len(sheets) != 1 || sheets[0].Name() != "Sheet1" {
		t.Fatalf("expected one sheet named Sheet1, got %+v", sheets)
	}
	sh := sheets[0]

	if v := sh.Cell(mustARef(t, "A1")).Value; v.Kind != model.KindText || v.Text != "hello" {
		t.Errorf("A1: expected Text(hello), got %+v", v)
	}
	if v := sh.Cell(mustARef(t, "A2")).Value; v.Kind != model.KindNumber || v.Number != 42.5 {
		t.Errorf("A2: expected Number(42.5), got %+v", v)
	}
	if v := sh.Cell(mustARef(t, "A3")).Value; v.Kind != model.KindBool || v.Bool != true {
		t.Errorf("A3: expected Bool(true), got %+v", v)
	}
	if v := sh.Cell(mustARef(t, "A4")).Value; v.Kind != model.KindError || v.ErrKind != model.ErrDiv0 {
		t.Errorf("A4: expected Error(#DIV/0!), got %+v", v)
	}

	f := sh.Cell(mustARef(t, "B1")).Value
	if f.Kind != model.KindFormula || f.FormulaText != "A2*2" {
		t.Errorf("B1: expected Formula(A2*2), got %+v", f)
	}
	if f.CachedValue == nil || f.CachedValue.Number != 85 {
		t.Errorf("B1: expected cached 85, got %+v", f.CachedValue)
	}

	c1 := sh.Cell(mustARef(t, "C1"))
	if c1.Value.Text != "styled" {
		t.Errorf("C1: expected Text(styled), got %+v", c1.Value)
	}
	if c1.StyleID == nil {
		t.Fatal("C1: expected a style id")
	}
	style, ok := sh.Styles().Style(*c1.StyleID)
	if !ok {
		t.Fatal("C1: style id not registered")
	}
	if !style.Font.Bold || style.Alignment.Horizontal != model.HAlignCenter {
		t.Errorf("C1: expected bold+centered style, got %+v", style)
	}

	merges := sh.MergedRanges()
	if len(merges) != 1 || merges[0].String() != "A5:B6" {
		t.Errorf("expected merge A5:B6, got %+v", merges)
	}

	comment := sh.Cell(mustARef(t, "A1")).Comment
	if comment == nil || comment.Text != "a note" || comment.Author != "tester" {
		t.Errorf("A1: expected comment round-trip, got %+v", comment)
	}

	hl := sh.Cell(mustARef(t, "A2")).Hyperlink
	if hl == nil || hl.Target != "Sheet1!A1" || hl.Display != "jump" {
		t.Errorf("A2: expected hyperlink round-trip, got %+v", hl)
	}

	fp := sh.FreezePane()
	if fp == nil || fp.Column != 1 || fp.Row != 1 {
		t.Errorf("expected freeze pane at (1,1), got %+v", fp)
	}
}

// buildChartWorkbook exercises the features buildSampleWorkbook leaves out:
// structural charts, a macro-enabled workbook's vbaProject.bin blob, and
// worksheet protection.
func buildChartWorkbook(t *testing.T) *model.Workbook {
	t.Helper()

	sh := model.NewSheet("Data")
	sh = sh.Put(mustARef(t, "A1"), model.Text("Q1"))
	sh = sh.Put(mustARef(t, "A2"), model.Text("Q2"))
	sh = sh.Put(mustARef(t, "B1"), model.Number(10))
	sh = sh.Put(mustARef(t, "B2"), model.Number(20))

	sh = sh.AddChart(model.ChartSpec{
		Type:       model.ChartPie,
		Title:      "Quarterly",
		Categories: model.NewCellRange(mustARef(t, "A1"), mustARef(t, "A2")),
		Series: []model.ChartSeries{
			{Name: "Revenue", Values: model.NewCellRange(mustARef(t, "B1"), mustARef(t, "B2"))},
		},
		Anchor: mustARef(t, "D1"),
	})
	sh = sh.WithProtection(&model.SheetProtection{PasswordHash: "CAFE", Sheet: true})

	wb := model.NewWorkbook()
	wb, err := wb.AddSheet(sh)
	if err != nil {
		t.Fatal(err)
	}
	wb = wb.WithMetadata(model.WorkbookMetadata{VBAProject: []byte("fake vba project bytes")})
	return wb
}

func TestWriteReadRoundTripChartsVBAProtection(t *testing.T) {
	wb := buildChartWorkbook(t)
	path := filepath.Join(t.TempDir(), "charts.xlsm")

	if err := Write(wb, path, WriteConfig{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path, ReadConfig{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got.Metadata().VBAProject) != "fake vba project bytes" {
		t.Errorf("VBAProject = %q, want round-tripped blob", got.Metadata().VBAProject)
	}

	sh, err := got.Sheet("Data")
	if err != nil {
		t.Fatal(err)
	}

	prot := sh.Protection()
	if prot == nil || !prot.Sheet || prot.PasswordHash != "CAFE" {
		t.Errorf("Protection() = %+v, want {PasswordHash:CAFE Sheet:true}", prot)
	}

	charts := sh.Charts()
	if len(charts) != 1 {
		t.Fatalf("expected 1 chart, got %d", len(charts))
	}
	c := charts[0]
	if c.Type != model.ChartPie {
		t.Errorf("chart Type = %v, want ChartPie", c.Type)
	}
	if c.Title != "Quarterly" {
		t.Errorf("chart Title = %q, want Quarterly", c.Title)
	}
	if c.Categories.String() != "A1:A2" {
		t.Errorf("chart Categories = %v, want A1:A2", c.Categories)
	}
	if len(c.Series) != 1 || c.Series[0].Name != "Revenue" || c.Series[0].Values.String() != "B1:B2" {
		t.Errorf("chart Series = %+v, want one Revenue series over B1:B2", c.Series)
	}
}

func TestWriteDebugModeUsesStoreCompression(t *testing.T) {
	wb := buildSampleWorkbook(t)
	path := filepath.Join(t.TempDir(), "debug.xlsx")

	if err := Write(wb, path, WriteConfig{Debug: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Read(path, ReadConfig{}); err != nil {
		t.Fatalf("Read of debug-mode package: %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader: %v", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Method != zip.Store {
			t.Errorf("entry %s method = %d, want zip.Store", f.Name, f.Method)
		}
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	wb := buildSampleWorkbook(t)
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.xlsx")
	p2 := filepath.Join(dir, "b.xlsx")

	if err := Write(wb, p1, WriteConfig{}); err != nil {
		t.Fatal(err)
	}
	if err := Write(wb, p2, WriteConfig{}); err != nil {
		t.Fatal(err)
	}

	b1, err := readFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := readFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if len(b1) != len(b2) {
		t.Fatalf("two writes of the same workbook produced different-length packages: %d vs %d", len(b1), len(b2))
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("two writes of the same workbook diverged at byte %d", i)
		}
	}
}

func TestReadRejectsMissingContentTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := writeEmptyZip(path); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path, ReadConfig{})
	if _, ok := err.(*MissingContentTypesError); !ok {
		t.Fatalf("expected *MissingContentTypesError, got %v", err)
	}
}
