package ooxml

// Part content-type and relationship-type strings, hoisted out of the
// teacher's inline per-call constants (adnsv-go-xl/xl/writer.go) into shared
// tables so both the reader and the writer reference the same values.
const (
	ctWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorkbookMacro = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtendedProps = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctComments      = "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml"
	ctVmlDrawing    = "application/vnd.openxmlformats-officedocument.vmlDrawing"
	ctDrawing       = "application/vnd.openxmlformats-officedocument.drawing+xml"
	ctChart         = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	ctVBAProject    = "application/vnd.ms-office.vbaProject"
	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ctXML           = "application/xml"
)

const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	relWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relComments       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	relVmlDrawing     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing"
	relDrawing        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing"
	relChart          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	relVBAProject     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vbaProject"
)

const mainNS = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
const packageRelNS = "http://schemas.openxmlformats.org/package/2006/relationships"
const drawingMainNS = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
const chartNS = "http://schemas.openxmlformats.org/drawingml/2006/chart"
const drawingShapeNS = "http://schemas.openxmlformats.org/drawingml/2006/main"

// RelInfo is one entry of a .rels part.
type RelInfo struct {
	Type   string
	Target string
}

// Exported aliases of the string tables above, so internal/streaming's
// phase-2 emitter can reuse the exact same ECMA-376 content-type and
// relationship-type literals instead of duplicating them.
const (
	ContentTypeWorkbook      = ctWorkbook
	ContentTypeWorksheet     = ctWorksheet
	ContentTypeStyles        = ctStyles
	ContentTypeSharedStrings = ctSharedStrings
	ContentTypeRelationships = ctRelationships
	ContentTypeXML           = ctXML
)

const (
	RelTypeOfficeDocument = relOfficeDocument
	RelTypeStyles         = relStyles
	RelTypeSharedStrings  = relSharedStrings
	RelTypeWorksheet      = relWorksheet
)

const (
	MainNS       = mainNS
	RelNS        = relNS
	PackageRelNS = packageRelNS
)
