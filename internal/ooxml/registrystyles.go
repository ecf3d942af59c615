package ooxml

import (
	"bytes"

	"github.com/adnsv/srw/xml"
	"github.com/adnsv/xlpatch/model"
)

// WriteStylesPartFromRegistry emits xl/styles.xml directly from a single,
// already globally-unique model.StyleRegistry. Unlike writeStyles/styleTables
// (which fold every sheet's locally-numbered registry into one shared
// table), internal/streaming shares one *model.StyleRegistry across its
// whole WorkbookSpec up front, so a style's StyleID maps to global cellXfs
// index StyleID+1 (cellXfs[0] is the default style); no per-sheet remapping
// is needed.
func WriteStylesPartFromRegistry(out Storage, reg *model.StyleRegistry, xmlCfg xml.WriterConfig) error {
	fonts, fontIndex := []model.Font{}, map[model.Font]int{}
	fills, fillIndex := []model.Fill{}, map[model.Fill]int{}
	borders, borderIndex := []model.Border{}, map[model.Border]int{}

	regFont := func(f model.Font) int {
		if i, ok := fontIndex[f]; ok {
			return i
		}
		i := len(fonts)
		fonts = append(fonts, f)
		fontIndex[f] = i
		return i
	}
	regFill := func(f model.Fill) int {
		if i, ok := fillIndex[f]; ok {
			return i
		}
		i := len(fills)
		fills = append(fills, f)
		fillIndex[f] = i
		return i
	}
	regBorder := func(b model.Border) int {
		if i, ok := borderIndex[b]; ok {
			return i
		}
		i := len(borders)
		borders = append(borders, b)
		borderIndex[b] = i
		return i
	}

	all := reg.All()
	xfs := make([]resolvedXF, len(all))
	for i, style := range all {
		numFmtID := style.NumFmt.ID()
		if style.NumFmt.Code == model.NumFmtCustom {
			if id := reg.CustomFormatID(style.NumFmt.CustomCode); id >= 0 {
				numFmtID = id
			}
		}
		xfs[i] = resolvedXF{
			NumFmtID:  numFmtID,
			FontID:    regFont(style.Font),
			FillID:    regFill(style.Fill),
			BorderID:  regBorder(style.Border),
			Alignment: style.Alignment,
		}
	}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("styleSheet")
	x.Attr("xmlns", mainNS)

	customFormats := reg.CustomFormats()
	if len(customFormats) > 0 {
		x.OTag("+numFmts").Attr("count", len(customFormats))
		for i, code := range customFormats {
			x.OTag("+numFmt").Attr("numFmtId", 164+i).Attr("formatCode", code).CTag()
		}
		x.CTag()
	}

	x.OTag("+fonts").Attr("count", len(fonts)+1)
	x.OTag("+font")
	x.OTag("sz").Attr("val", 11).CTag()
	x.OTag("name").Attr("val", "Calibri").CTag()
	x.CTag()
	for _, f := range fonts {
		x.OTag("+font")
		if f.Bold {
			x.OTag("b").CTag()
		}
		if f.Italic {
			x.OTag("i").CTag()
		}
		if f.Underline != model.UnderlineNone {
			x.OTag("u")
			if f.Underline != model.UnderlineSingle {
				x.Attr("val", string(f.Underline))
			}
			x.CTag()
		}
		size := f.Size
		if size == 0 {
			size = 11
		}
		x.OTag("sz").Attr("val", size).CTag()
		if !f.Color.Empty() {
			x.OTag("color").Attr("rgb", f.Color.Hex()).CTag()
		}
		name := f.Name
		if name == "" {
			name = "Calibri"
		}
		x.OTag("name").Attr("val", name).CTag()
		x.CTag()
	}
	x.CTag() // fonts

	x.OTag("+fills").Attr("count", len(fills)+1)
	x.OTag("+fill")
	x.OTag("patternFill").Attr("patternType", "none").CTag()
	x.CTag()
	for _, f := range fills {
		x.OTag("+fill")
		x.OTag("patternFill")
		switch f.Type {
		case model.FillSolid:
			x.Attr("patternType", "solid")
			x.OTag("fgColor").Attr("rgb", f.Color.Hex()).CTag()
		case model.FillPattern:
			x.Attr("patternType", f.Pattern)
			x.OTag("fgColor").Attr("rgb", f.Color.Hex()).CTag()
		default:
			x.Attr("patternType", "none")
		}
		x.CTag()
		x.CTag()
	}
	x.CTag() // fills

	x.OTag("+borders").Attr("count", len(borders)+1)
	x.OTag("+border")
	x.OTag("+left").CTag()
	x.OTag("+right").CTag()
	x.OTag("+top").CTag()
	x.OTag("+bottom").CTag()
	x.OTag("+diagonal").CTag()
	x.CTag()
	for _, b := range borders {
		x.OTag("+border")
		writeBorderSide(x, "left", b.Left)
		writeBorderSide(x, "right", b.Right)
		writeBorderSide(x, "top", b.Top)
		writeBorderSide(x, "bottom", b.Bottom)
		x.OTag("+diagonal").CTag()
		x.CTag()
	}
	x.CTag() // borders

	x.OTag("+cellStyleXfs").Attr("count", 1)
	x.OTag("+xf").Attr("numFmtId", 0).Attr("fontId", 0).Attr("fillId", 0).Attr("borderId", 0).CTag()
	x.CTag()

	x.OTag("+cellXfs").Attr("count", len(xfs)+1)
	x.OTag("+xf").Attr("numFmtId", 0).Attr("fontId", 0).Attr("fillId", 0).Attr("borderId", 0).Attr("xfId", 0).CTag()
	for _, xf := range xfs {
		x.OTag("+xf")
		x.Attr("numFmtId", xf.NumFmtID)
		x.Attr("fontId", xf.FontID+1)
		x.Attr("fillId", xf.FillID+1)
		x.Attr("borderId", xf.BorderID+1)
		x.Attr("xfId", 0)
		if xf.NumFmtID != 0 {
			x.Attr("applyNumberFormat", 1)
		}
		x.Attr("applyFont", 1)
		x.Attr("applyFill", 1)
		x.Attr("applyBorder", 1)
		if !xf.Alignment.Empty() {
			x.Attr("applyAlignment", 1)
			x.OTag("alignment")
			if xf.Alignment.Horizontal != model.HAlignGeneral {
				x.Attr("horizontal", string(xf.Alignment.Horizontal))
			}
			if xf.Alignment.Vertical != model.VAlignTop {
				x.Attr("vertical", string(xf.Alignment.Vertical))
			}
			if xf.Alignment.Wrap {
				x.Attr("wrapText", 1)
			}
			x.CTag()
		}
		x.CTag()
	}
	x.CTag() // cellXfs

	x.CTag() // styleSheet
	return out.WriteBlob("/xl/styles.xml", bb.Bytes())
}
