// Package xlpatch reads, patches, and writes Excel SpreadsheetML (.xlsx)
// workbooks as immutable values. It is a thin facade over model (the
// in-memory value types and patch algebra), formula (the AST, parser, and
// evaluator), internal/ooxml (the in-memory OOXML codec), and
// internal/streaming (the two-phase streaming codec for large workbooks);
// see those packages' docs for the full API surface this re-exports.
package xlpatch

import (
	"github.com/adnsv/xlpatch/internal/ooxml"
	"github.com/adnsv/xlpatch/internal/streaming"
	"github.com/adnsv/xlpatch/model"
)

// Re-exported model types, so a caller only needs this one import path for
// everyday use (building sheets, applying patches, inspecting cell values).
type (
	Workbook    = model.Workbook
	Sheet       = model.Sheet
	SheetName   = model.SheetName
	Column      = model.Column
	Row         = model.Row
	ARef        = model.ARef
	CellRange   = model.CellRange
	CellValue   = model.CellValue
	ValueKind   = model.ValueKind
	CellStyle   = model.CellStyle
	StyleID     = model.StyleID
	Patch       = model.Patch
	FreezePane  = model.FreezePane
	ColumnProps = model.ColumnProps
	RowProps    = model.RowProps
)

// ReadConfig bounds the defensive limits Read enforces against malicious or
// corrupt packages; see internal/ooxml.ReadConfig.
type ReadConfig = ooxml.ReadConfig

// WriteConfig controls Write's output mode; see internal/ooxml.WriteConfig.
type WriteConfig = ooxml.WriteConfig

// Read decodes the OOXML package at path into a *Workbook, resolving every
// part via its declared relationships rather than by filename guess (C9).
func Read(path string, cfg ReadConfig) (*Workbook, error) {
	return ooxml.Read(path, cfg)
}

// Write encodes wb as a deterministic OOXML package at path: identical
// workbook values always produce byte-identical output (C10).
func Write(wb *Workbook, path string, cfg WriteConfig) error {
	return ooxml.Write(wb, path, cfg)
}

// Streaming re-exports, for callers writing or reading workbooks whose row
// count rules out holding the whole sheet in memory (C11, C12).
type (
	RowData             = streaming.RowData
	CellData            = streaming.CellData
	RowSource           = streaming.RowSource
	SheetSpec           = streaming.SheetSpec
	WorkbookSpec        = streaming.WorkbookSpec
	SharedStringsMode   = streaming.SharedStringsMode
	ColumnWidthStrategy = streaming.ColumnWidthStrategy
	StreamWriterConfig  = streaming.StreamWriterConfig
	MergesRejectedError = streaming.MergesRejectedError
)

const (
	SSTNone     = streaming.SSTNone
	SSTInMemory = streaming.SSTInMemory
	SSTOnDisk   = streaming.SSTOnDisk
)

const (
	ColumnWidthNone              = streaming.ColumnWidthNone
	ColumnWidthFixed             = streaming.ColumnWidthFixed
	ColumnWidthAutoFitFromSample = streaming.ColumnWidthAutoFitFromSample
)

// WriteStreaming encodes spec as a deterministic OOXML package at path using
// the two-phase streaming writer: phase 1 spools every sheet's rows once to
// a temporary file while building the shared-strings table, phase 2 streams
// the spool back while emitting worksheet XML directly to the archive, so
// peak memory is independent of row count (C11).
func WriteStreaming(spec WorkbookSpec, path string, cfg StreamWriterConfig) error {
	return streaming.Write(spec, path, cfg)
}

// StreamReader pulls a package's rows without reading a whole sheet into
// memory at once (C12); see internal/streaming.Reader.
type StreamReader = streaming.Reader

// SheetStreamReader pulls one sheet's rows in ascending row order, one <row>
// element at a time; see internal/streaming.SheetReader.
type SheetStreamReader = streaming.SheetReader

// ReadStreaming opens path for row-by-row reading: it parses the
// shared-strings and styles tables up front (bounded by distinct
// string/style count) and resolves every worksheet part via relationships,
// but never materializes a worksheet's rows in memory. Call OpenSheet on the
// result to pull one sheet's rows, and Close when done with the package.
func ReadStreaming(path string) (*StreamReader, error) {
	return streaming.Open(path)
}
