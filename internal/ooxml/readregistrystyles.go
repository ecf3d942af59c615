package ooxml

import (
	"encoding/xml"
	"strings"

	"github.com/adnsv/xlpatch/model"
)

// DecodeStyleRegistry parses a styles.xml blob into a *model.StyleRegistry
// plus a byXfIndex slice mapping each raw cellXfs index (what a cell's "s"
// attribute names) to the resulting model.StyleID. A direct
// "StyleID == xfIndex-1" mapping isn't available because StyleRegistry.Register
// deduplicates by canonical key, so two distinct cellXfs entries that happen
// to resolve to the same style collapse onto one StyleID; byXfIndex[0] is
// always -1 (cellXfs[0] is the always-present unstyled default, never
// registered). internal/streaming's reader uses byXfIndex to resolve a
// spooled cell's raw "s" value without re-deriving the dedup. Shares the
// font/fill/border/numFmt decode helpers readStyles uses for the full
// in-memory reader.
func DecodeStyleRegistry(blob []byte) (*model.StyleRegistry, []model.StyleID, error) {
	var parsed stylesXML
	dec := xml.NewDecoder(strings.NewReader(string(blob)))
	if err := dec.Decode(&parsed); err != nil {
		return nil, nil, err
	}

	customNumFmts := map[int]string{}
	for _, nf := range parsed.NumFmts {
		customNumFmts[nf.ID] = nf.FormatCode
	}

	fonts := make([]model.Font, len(parsed.Fonts))
	for i, f := range parsed.Fonts {
		fonts[i] = model.Font{
			Name:      f.Name.Val,
			Size:      f.Size.Val,
			Bold:      f.Bold != nil,
			Italic:    f.Italic != nil,
			Underline: underlineFromXML(f.Underline),
			Color:     colorFromXML(f.Color),
		}
	}

	fills := make([]model.Fill, len(parsed.Fills))
	for i, f := range parsed.Fills {
		switch f.PatternFill.PatternType {
		case "", "none":
			fills[i] = model.Fill{Type: model.FillNone}
		case "solid":
			fills[i] = model.Fill{Type: model.FillSolid, Color: colorFromXML(f.PatternFill.FgColor)}
		default:
			fills[i] = model.Fill{Type: model.FillPattern, Pattern: f.PatternFill.PatternType, Color: colorFromXML(f.PatternFill.FgColor)}
		}
	}

	borders := make([]model.Border, len(parsed.Borders))
	for i, b := range parsed.Borders {
		borders[i] = model.Border{
			Left:   borderSideFromXML(b.Left),
			Right:  borderSideFromXML(b.Right),
			Top:    borderSideFromXML(b.Top),
			Bottom: borderSideFromXML(b.Bottom),
		}
	}

	reg := model.NewStyleRegistry()
	byXfIndex := make([]model.StyleID, len(parsed.CellXfs))
	for i, xf := range parsed.CellXfs {
		if i == 0 {
			byXfIndex[i] = -1 // cellXfs[0] is the always-present default style.
			continue
		}
		style := model.CellStyle{NumFmt: numFmtFromID(xf.NumFmtID, customNumFmts)}
		if xf.FontID >= 0 && xf.FontID < len(fonts) {
			style.Font = fonts[xf.FontID]
		}
		if xf.FillID >= 0 && xf.FillID < len(fills) {
			style.Fill = fills[xf.FillID]
		}
		if xf.BorderID >= 0 && xf.BorderID < len(borders) {
			style.Border = borders[xf.BorderID]
		}
		if xf.Alignment != nil {
			style.Alignment = model.Alignment{
				Horizontal: model.HorizontalAlignment(xf.Alignment.Horizontal),
				Vertical:   model.VerticalAlignment(xf.Alignment.Vertical),
				Wrap:       xf.Alignment.WrapText,
			}
		}
		var id model.StyleID
		reg, id = reg.Register(style)
		byXfIndex[i] = id
	}
	return reg, byXfIndex, nil
}
