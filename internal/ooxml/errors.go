package ooxml

import "fmt"

// MissingWorkbookPartError reports a package with no xl/workbook.xml
// relationship target.
type MissingWorkbookPartError struct{}

func (e *MissingWorkbookPartError) Error() string { return "package is missing xl/workbook.xml" }

// MissingContentTypesError reports a package with no [Content_Types].xml.
type MissingContentTypesError struct{}

func (e *MissingContentTypesError) Error() string { return "package is missing [Content_Types].xml" }

// ZipBombDetectedError reports a ZIP entry whose declared compression ratio
// or uncompressed size exceeds the reader's configured defensive limits.
type ZipBombDetectedError struct {
	Part             string
	CompressedSize   uint64
	UncompressedSize uint64
	Limit            uint64
}

func (e *ZipBombDetectedError) Error() string {
	return fmt.Sprintf("zip bomb suspected in part %q: compressed=%d uncompressed=%d limit=%d",
		e.Part, e.CompressedSize, e.UncompressedSize, e.Limit)
}

// MacroRejectedError reports a macro-enabled package (one carrying
// xl/vbaProject.bin) read with ReadConfig.RejectMacros set.
type MacroRejectedError struct {
	Part string
}

func (e *MacroRejectedError) Error() string {
	return fmt.Sprintf("macro-enabled package rejected: %q present and RejectMacros is set", e.Part)
}

// XmlParseError reports malformed XML within a specific package part.
type XmlParseError struct {
	Part    string
	Line    int
	Column  int
	Message string
}

func (e *XmlParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Part, e.Line, e.Column, e.Message)
}
