package streaming

import (
	"io"
	"path/filepath"
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

// sliceRowSource turns a fixed slice of RowData into a RowSource, the shape
// every real caller (a database cursor, a CSV scanner) would implement by
// hand; tests stand in for that caller.
func sliceRowSource(rows []RowData) RowSource {
	i := 0
	return func() (RowData, bool, error) {
		if i >= len(rows) {
			return RowData{}, false, nil
		}
		row := rows[i]
		i++
		return row, true, nil
	}
}

func buildStreamSpec(t *testing.T) (WorkbookSpec, model.StyleID) {
	t.Helper()

	reg := model.NewStyleRegistry()
	reg, boldID := reg.Register(model.CellStyle{Font: model.Font{Name: "Calibri", Bold: true}})

	rows := []RowData{
		{Row: 0, Cells: []CellData{
			{Col: 0, Value: model.Text("Name")},
			{Col: 1, Value: model.Text("Score")},
		}},
		{Row: 1, Cells: []CellData{
			{Col: 0, Value: model.Text("Alice"), HasStyle: true, StyleID: boldID},
			{Col: 1, Value: model.Number(97.5)},
		}},
		{Row: 2, Cells: []CellData{
			{Col: 0, Value: model.Text("Bob")},
			{Col: 1, Value: model.Number(88)},
		}},
	}

	spec := WorkbookSpec{
		Sheets: []SheetSpec{
			{
				Name: "Sheet1",
				Rows: sliceRowSource(rows),
				Merges: []model.CellRange{
					model.NewCellRange(mustARef(t, "A5"), mustARef(t, "B5")),
				},
				FreezePane: &model.FreezePane{Row: 1},
			},
		},
		DefinedNames: map[string]string{"ScoreRange": "Sheet1!$B$1:$B$3"},
		Styles:       reg,
	}
	return spec, boldID
}

func TestStreamingWriteThenStreamingReadRoundTrip(t *testing.T) {
	spec, boldID := buildStreamSpec(t)
	path := filepath.Join(t.TempDir(), "stream.xlsx")

	if err := Write(spec, path, StreamWriterConfig{SharedStrings: SSTInMemory}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.DefinedNames()["ScoreRange"] != "Sheet1!$B$1:$B$3" {
		t.Errorf("DefinedNames()[ScoreRange] = %q, want Sheet1!$B$1:$B$3", r.DefinedNames()["ScoreRange"])
	}

	sr, err := r.OpenSheet("Sheet1")
	if err != nil {
		t.Fatalf("OpenSheet: %v", err)
	}
	defer sr.Close()

	var got []RowData
	for {
		row, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, row)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	header := got[0]
	if len(header.Cells) != 2 || header.Cells[0].Value.Text != "Name" || header.Cells[1].Value.Text != "Score" {
		t.Errorf("header row = %+v, want Name/Score", header.Cells)
	}

	alice := got[1]
	if alice.Cells[0].Value.Text != "Alice" {
		t.Errorf("row 1 col 0 = %+v, want Alice", alice.Cells[0].Value)
	}
	if !alice.Cells[0].HasStyle {
		t.Error("Alice's name cell should carry a style id")
	}
	style, ok := r.Styles().Style(alice.Cells[0].StyleID)
	if !ok || !style.Font.Bold {
		t.Errorf("expected Alice's resolved style to be bold, got %+v (ok=%v)", style, ok)
	}
	if alice.Cells[1].Value.Number != 97.5 {
		t.Errorf("row 1 col 1 = %+v, want 97.5", alice.Cells[1].Value)
	}

	bob := got[2]
	if bob.Cells[0].Value.Text != "Bob" || bob.Cells[1].Value.Number != 88 {
		t.Errorf("row 2 = %+v, want Bob/88", bob.Cells)
	}
	if bob.Cells[0].HasStyle {
		t.Error("Bob's name cell should not carry a style id")
	}

	_ = boldID
}

func TestStreamingWriteSSTModesProduceEquivalentData(t *testing.T) {
	for _, mode := range []SharedStringsMode{SSTNone, SSTInMemory, SSTOnDisk} {
		spec, _ := buildStreamSpec(t)
		path := filepath.Join(t.TempDir(), "stream.xlsx")

		if err := Write(spec, path, StreamWriterConfig{SharedStrings: mode}); err != nil {
			t.Fatalf("mode %v: Write: %v", mode, err)
		}

		r, err := Open(path)
		if err != nil {
			t.Fatalf("mode %v: Open: %v", mode, err)
		}
		sr, err := r.OpenSheet("Sheet1")
		if err != nil {
			t.Fatalf("mode %v: OpenSheet: %v", mode, err)
		}

		row, err := sr.Next()
		if err != nil {
			t.Fatalf("mode %v: Next: %v", mode, err)
		}
		if row.Cells[0].Value.Text != "Name" {
			t.Errorf("mode %v: first cell = %+v, want Name", mode, row.Cells[0].Value)
		}

		sr.Close()
		r.Close()
	}
}

func TestStreamingWriteRejectsMergesWhenConfigured(t *testing.T) {
	spec, _ := buildStreamSpec(t)
	path := filepath.Join(t.TempDir(), "stream.xlsx")

	err := Write(spec, path, StreamWriterConfig{RejectMerges: true})
	if err == nil {
		t.Fatal("expected an error for a sheet with merges under RejectMerges")
	}
	if _, ok := err.(*MergesRejectedError); !ok {
		t.Fatalf("expected *MergesRejectedError, got %T", err)
	}
}
