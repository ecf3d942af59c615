package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/nfp"
)

// Color is an RGB or ARGB color, optionally theme+tint based. Canonical form
// is 8-hex ARGB; Hex returns that form from ARGB and ignores Theme and Tint,
// so a theme-only color yields "".
type Color struct {
	ARGB  string // "AARRGGBB"; empty means "unset"
	Theme *int
	Tint  float64
}

// Hex returns the canonical 8-hex ARGB form, defaulting alpha to FF when the
// caller supplied only 6 hex digits.
func (c Color) Hex() string {
	s := strings.ToUpper(c.ARGB)
	if len(s) == 6 {
		return "FF" + s
	}
	return s
}

func (c Color) Empty() bool { return c.ARGB == "" && c.Theme == nil }

// UnderlineType is the ECMA-376 ST_UnderlineValues enumeration.
type UnderlineType string

const (
	UnderlineNone   UnderlineType = ""
	UnderlineSingle UnderlineType = "single"
	UnderlineDouble UnderlineType = "double"
)

// Font is the font formatting attributes of a style.
type Font struct {
	Name      string
	Size      float64
	Bold      bool
	Italic    bool
	Underline UnderlineType
	Color     Color
}

// DefaultFont is the font a CellStyle.Font compares against to decide
// whether a value differs from "default" during style merging.
var DefaultFont = Font{Name: "Calibri", Size: 11}

func (f Font) Empty() bool { return f == Font{} }

// FillPatternType enumerates supported fill kinds.
type FillPatternType int

const (
	FillNone FillPatternType = iota
	FillSolid
	FillPattern
)

// Fill is the cell background fill.
type Fill struct {
	Type    FillPatternType
	Color   Color
	Pattern string // OOXML patternType, meaningful when Type == FillPattern
}

func (f Fill) Empty() bool { return f.Type == FillNone }

// BorderLineStyle enumerates supported border line styles.
type BorderLineStyle string

const (
	BorderStyleNone   BorderLineStyle = ""
	BorderStyleThin   BorderLineStyle = "thin"
	BorderStyleMedium BorderLineStyle = "medium"
	BorderStyleThick  BorderLineStyle = "thick"
	BorderStyleDashed BorderLineStyle = "dashed"
	BorderStyleDotted BorderLineStyle = "dotted"
	BorderStyleDouble BorderLineStyle = "double"
)

// BorderSide is one edge of a Border.
type BorderSide struct {
	Style BorderLineStyle
	Color Color
}

func (s BorderSide) Empty() bool { return s.Style == BorderStyleNone }

// Border holds the four per-side border specifications.
type Border struct {
	Left, Right, Top, Bottom BorderSide
}

func (b Border) Empty() bool {
	return b.Left.Empty() && b.Right.Empty() && b.Top.Empty() && b.Bottom.Empty()
}

// HorizontalAlignment enumerates ST_HorizontalAlignment values this library
// supports.
type HorizontalAlignment string

const (
	HAlignGeneral          HorizontalAlignment = ""
	HAlignLeft             HorizontalAlignment = "left"
	HAlignCenter           HorizontalAlignment = "center"
	HAlignRight            HorizontalAlignment = "right"
	HAlignJustify          HorizontalAlignment = "justify"
	HAlignCenterContinuous HorizontalAlignment = "centerContinuous"
)

// VerticalAlignment enumerates ST_VerticalAlignment values this library
// supports.
type VerticalAlignment string

const (
	VAlignTop    VerticalAlignment = ""
	VAlignMiddle VerticalAlignment = "center"
	VAlignBottom VerticalAlignment = "bottom"
)

// Alignment is the cell content alignment.
type Alignment struct {
	Horizontal HorizontalAlignment
	Vertical   VerticalAlignment
	Wrap       bool
}

func (a Alignment) Empty() bool { return a == Alignment{} }

// NumFmtCode names the built-in number formats, plus Custom for
// caller-supplied format codes registered dynamically starting at id 164.
type NumFmtCode int

const (
	NumFmtGeneral NumFmtCode = iota
	NumFmtInteger
	NumFmtDecimal
	NumFmtCurrency
	NumFmtPercent
	NumFmtPercentDecimal
	NumFmtDate
	NumFmtDateTime
	NumFmtTime
	NumFmtText
	NumFmtCustom
)

// builtinNumFmtID maps our built-in codes to their fixed OOXML numFmtId.
var builtinNumFmtID = map[NumFmtCode]int{
	NumFmtGeneral:        0,
	NumFmtInteger:        1,
	NumFmtDecimal:        2,
	NumFmtCurrency:       7,
	NumFmtPercent:        9,
	NumFmtPercentDecimal: 10,
	NumFmtDate:           14,
	NumFmtDateTime:       22,
	NumFmtTime:           21,
	NumFmtText:           49,
}

// NumFmt is a number format: one of the fixed built-ins, or a Custom format
// code registered dynamically starting at id 164.
type NumFmt struct {
	Code       NumFmtCode
	CustomCode string // meaningful when Code == NumFmtCustom
}

// ID returns the OOXML numFmtId for built-ins; for Custom codes it returns
// -1 and the caller must consult a *StyleRegistry to obtain the dynamically
// assigned id.
func (n NumFmt) ID() int {
	if n.Code == NumFmtCustom {
		return -1
	}
	return builtinNumFmtID[n.Code]
}

// FormatCode returns the OOXML format-code string for this NumFmt.
func (n NumFmt) FormatCode() string {
	if n.Code == NumFmtCustom {
		return n.CustomCode
	}
	if s, ok := builtInFormatStrings[n.ID()]; ok {
		return s
	}
	return "General"
}

var builtInFormatStrings = map[int]string{
	0: "General", 1: "0", 2: "0.00", 3: "#,##0", 4: "#,##0.00",
	7: `"$"#,##0.00`, 9: "0%", 10: "0.00%", 11: "0.00E+00",
	14: "mm-dd-yy", 21: "h:mm:ss", 22: "m/d/yy h:mm", 49: "@",
}

// ValidateCustomFormat parses a custom format code to ensure it is
// structurally well-formed, using the nfp section parser.
func ValidateCustomFormat(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("empty custom number format code")
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 {
		return fmt.Errorf("custom number format %q did not parse into any sections", code)
	}
	return nil
}

// CellStyle is the full set of per-cell formatting attributes.
type CellStyle struct {
	Font      Font
	Fill      Fill
	Border    Border
	Alignment Alignment
	NumFmt    NumFmt
}

// CanonicalKey returns a deterministic string uniquely identifying the
// style's content, stable across processes, used by StyleRegistry for
// dedup.
func (s CellStyle) CanonicalKey() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "f:%s|%g|%v|%v|%s|%s;",
		s.Font.Name, s.Font.Size, s.Font.Bold, s.Font.Italic, s.Font.Underline, s.Font.Color.Hex())
	fmt.Fprintf(&sb, "fl:%d|%s|%s;", s.Fill.Type, s.Fill.Color.Hex(), s.Fill.Pattern)
	fmt.Fprintf(&sb, "b:%s|%s,%s|%s,%s|%s,%s|%s;",
		s.Border.Left.Style, s.Border.Left.Color.Hex(),
		s.Border.Right.Style, s.Border.Right.Color.Hex(),
		s.Border.Top.Style, s.Border.Top.Color.Hex(),
		s.Border.Bottom.Style, s.Border.Bottom.Color.Hex())
	fmt.Fprintf(&sb, "a:%s|%s|%v;", s.Alignment.Horizontal, s.Alignment.Vertical, s.Alignment.Wrap)
	fmt.Fprintf(&sb, "n:%d|%s", s.NumFmt.Code, s.NumFmt.FormatCode())
	return sb.String()
}

// Merge applies overlay on top of base using the spec's per-attribute merge
// rules: font properties override iff they differ from DefaultFont, fill
// overrides iff non-empty, border merges per-side (overlay side wins iff
// non-empty), numFmt overrides iff non-General, alignment properties
// override iff non-default.
func Merge(base, overlay CellStyle) CellStyle {
	out := base

	if overlay.Font.Name != "" && overlay.Font.Name != DefaultFont.Name {
		out.Font.Name = overlay.Font.Name
	}
	if overlay.Font.Size != 0 && overlay.Font.Size != DefaultFont.Size {
		out.Font.Size = overlay.Font.Size
	}
	if overlay.Font.Bold {
		out.Font.Bold = true
	}
	if overlay.Font.Italic {
		out.Font.Italic = true
	}
	if overlay.Font.Underline != UnderlineNone {
		out.Font.Underline = overlay.Font.Underline
	}
	if !overlay.Font.Color.Empty() {
		out.Font.Color = overlay.Font.Color
	}

	if overlay.Fill.Type != FillNone {
		out.Fill = overlay.Fill
	}

	if !overlay.Border.Left.Empty() {
		out.Border.Left = overlay.Border.Left
	}
	if !overlay.Border.Right.Empty() {
		out.Border.Right = overlay.Border.Right
	}
	if !overlay.Border.Top.Empty() {
		out.Border.Top = overlay.Border.Top
	}
	if !overlay.Border.Bottom.Empty() {
		out.Border.Bottom = overlay.Border.Bottom
	}

	if overlay.NumFmt.Code != NumFmtGeneral {
		out.NumFmt = overlay.NumFmt
	}

	if overlay.Alignment.Horizontal != HAlignGeneral {
		out.Alignment.Horizontal = overlay.Alignment.Horizontal
	}
	if overlay.Alignment.Vertical != VAlignTop {
		out.Alignment.Vertical = overlay.Alignment.Vertical
	}
	if overlay.Alignment.Wrap {
		out.Alignment.Wrap = true
	}

	return out
}

// Replace bypasses merging and installs overlay wholesale, ignoring base.
func Replace(_ CellStyle, overlay CellStyle) CellStyle { return overlay }

// parseFloat is a tiny helper kept local to this file to avoid importing
// strconv in callers that only need style parsing.
func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
