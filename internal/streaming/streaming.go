// Package streaming implements the two-phase streaming writer (C11) and the
// pull-based streaming reader (C12): O(1)-peak-memory codecs for workbooks
// whose row count makes internal/ooxml's whole-sheet in-memory approach
// (C9/C10) impractical. Grounded on other_examples' excelize stream.go
// (rawData spool buffer, phase separation between row accumulation and
// worksheet emission, per-column width accumulation) and on
// TsubasaBE-go-xlsb/record/reader.go's pull-iterator shape for the reader
// side, adapted from binary records to encoding/xml tokens.
package streaming

import (
	"fmt"

	"github.com/adnsv/xlpatch/model"
)

// CellData is one cell within a streamed RowData: an explicit column, a
// value, and an optional style drawn from the style registry the writer was
// configured with up front (spec.md §4.11: "no dynamic style registry
// growth inside the stream").
type CellData struct {
	Col     model.Column
	Value   model.CellValue
	StyleID model.StyleID
	HasStyle bool
}

// RowData is one row pulled from a RowSource: a sparse set of cells at
// explicit columns, emitted in ascending column order by the writer
// regardless of the order CellData entries were supplied in.
type RowData struct {
	Row   model.Row
	Cells []CellData
}

// RowSource pulls rows for one sheet in ascending row-index order; ok is
// false once the source is exhausted. The writer is the sole consumer and
// exerts backpressure by pulling (spec.md §5's concurrency contract for the
// streaming writer).
type RowSource func() (row RowData, ok bool, err error)

// SheetSpec describes one sheet's streamed content plus the handful of
// non-data worksheet properties the two-phase writer still needs to emit
// (column widths, merges, freeze panes) without holding the sheet's cells
// in memory.
type SheetSpec struct {
	Name       model.SheetName
	Rows       RowSource
	ColProps   map[model.Column]model.ColumnProps
	Merges     []model.CellRange
	FreezePane *model.FreezePane
}

// WorkbookSpec is the input to Write: a sequence of sheets whose rows are
// pulled lazily, plus the workbook-level state that must be known up front
// (defined names, the 1900/1904 epoch flag, and a single pre-built style
// registry shared by every streamed cell's StyleID).
type WorkbookSpec struct {
	Sheets       []SheetSpec
	DefinedNames map[string]string
	Date1904     bool
	Styles       *model.StyleRegistry
}

// SharedStringsMode selects how the streaming writer deduplicates repeated
// text values across a sheet's rows.
type SharedStringsMode int

const (
	// SSTNone writes every text cell as an inline string (<is><t>), doing no
	// deduplication; cheapest in CPU, most bytes on disk for repetitive data.
	SSTNone SharedStringsMode = iota
	// SSTInMemory keeps the full dedup map and string slice resident for the
	// life of the write, the normal case for sheets with a bounded number of
	// distinct strings.
	SSTInMemory
	// SSTOnDisk keeps the dedup map (bounded by distinct-string count) but
	// spills each newly-seen string to a spool file immediately rather than
	// also holding it in a growing in-memory slice, bounding resident string
	// bytes independent of how many distinct strings appear.
	SSTOnDisk
)

// ColumnWidthStrategy selects how xl/worksheets/sheetN.xml's <cols> widths
// are derived when the caller hasn't supplied explicit SheetSpec.ColProps.
type ColumnWidthStrategy int

const (
	// ColumnWidthNone emits no <cols> entries beyond what SheetSpec.ColProps
	// already specifies.
	ColumnWidthNone ColumnWidthStrategy = iota
	// ColumnWidthFixed sets every column's width to StreamWriterConfig.FixedColumnWidth.
	ColumnWidthFixed
	// ColumnWidthAutoFitFromSample derives each column's width from the
	// longest rendered text seen across the first AutoFitSampleRows rows, a
	// fixed-width monospace character-count heuristic (no font metrics are
	// available headless; see DESIGN.md's Open Question resolution).
	ColumnWidthAutoFitFromSample
)

// StreamWriterConfig controls Write's phase-1/phase-2 behavior (spec.md
// §4.11).
type StreamWriterConfig struct {
	SharedStrings SharedStringsMode
	// TempDir is where phase 1's spool files (and, under SSTOnDisk, the SST
	// spill file) are created. Empty selects os.TempDir().
	TempDir string

	ColumnWidth       ColumnWidthStrategy
	FixedColumnWidth  float64
	AutoFitSampleRows int

	// RejectMerges makes Write fail with *MergesRejectedError instead of
	// emitting a sheet's merged ranges, the stricter half of spec.md's Open
	// Question resolution on "streaming + merged ranges" (DESIGN.md).
	RejectMerges bool

	// Debug emits STORED (uncompressed) ZIP entries and pretty-printed XML,
	// matching internal/ooxml.WriteConfig.Debug.
	Debug bool
}

func (c StreamWriterConfig) autoFitSample() int {
	if c.AutoFitSampleRows <= 0 {
		return 100
	}
	return c.AutoFitSampleRows
}

// MergesRejectedError reports a sheet with merged ranges written under
// StreamWriterConfig.RejectMerges.
type MergesRejectedError struct {
	Sheet model.SheetName
	Count int
}

func (e *MergesRejectedError) Error() string {
	return fmt.Sprintf("streaming: sheet %q has %d merged range(s) and RejectMerges is set", e.Sheet, e.Count)
}
