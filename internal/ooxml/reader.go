package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/xlpatch/model"
)

// ReadConfig bounds the defensive limits the reader enforces against
// malicious or corrupt packages, in the spirit of TsubasaBE-go-xlsb's
// record.Reader length checks (record/reader.go), adapted from BIFF12
// records to ZIP entries: reject an archive whose declared sizes blow past
// sane bounds before any of it is decompressed into memory.
type ReadConfig struct {
	// MaxUncompressedSize caps any single part's declared uncompressed size,
	// in bytes. Zero selects a 512 MiB default.
	MaxUncompressedSize uint64
	// MaxCompressionRatio caps uncompressed/compressed size for any part.
	// Zero selects a default of 200.
	MaxCompressionRatio float64
	// RejectMacros makes Read fail with *MacroRejectedError instead of
	// carrying a macro-enabled workbook's xl/vbaProject.bin through, the
	// "or are rejected" half of spec.md §1's macro-enabled round-trip
	// requirement (the "round-trip verbatim" half is the default).
	RejectMacros bool
}

func (c ReadConfig) withDefaults() ReadConfig {
	if c.MaxUncompressedSize == 0 {
		c.MaxUncompressedSize = 512 << 20
	}
	if c.MaxCompressionRatio == 0 {
		c.MaxCompressionRatio = 200
	}
	return c
}

// Read decodes the OOXML package at path into a *model.Workbook: content
// types, relationships, xl/workbook.xml, one worksheet part per sheet
// resolved via relationships (never by filename guess), shared strings,
// styles, and per-sheet comments.
func Read(path string, cfg ReadConfig) (*model.Workbook, error) {
	cfg = cfg.withDefaults()
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	r := &reader{cfg: cfg, files: map[string]*zip.File{}}
	for _, f := range zr.File {
		r.files["/"+strings.TrimPrefix(f.Name, "/")] = f
	}
	return r.read()
}

type reader struct {
	cfg   ReadConfig
	files map[string]*zip.File

	sst    []string
	styles *readStyleTables
}

// readStyleTables is the decoded mirror of styletable.go's writer-side
// structure: global font/fill/border/numFmt tables plus the resolved
// cellXfs list, indexed directly by the xf index cells reference via "s".
type readStyleTables struct {
	customNumFmts map[int]string
	fonts         []model.Font
	fills         []model.Fill
	borders       []model.Border
	xfs           []resolvedXF
}

func (r *reader) blob(part string) ([]byte, error) {
	f, ok := r.files[part]
	if !ok {
		return nil, fmt.Errorf("ooxml: part %q not found", part)
	}
	if f.UncompressedSize64 > r.cfg.MaxUncompressedSize {
		return nil, &ZipBombDetectedError{
			Part: part, CompressedSize: f.CompressedSize64,
			UncompressedSize: f.UncompressedSize64, Limit: r.cfg.MaxUncompressedSize,
		}
	}
	if f.CompressedSize64 > 0 {
		ratio := float64(f.UncompressedSize64) / float64(f.CompressedSize64)
		if ratio > r.cfg.MaxCompressionRatio {
			return nil, &ZipBombDetectedError{
				Part: part, CompressedSize: f.CompressedSize64,
				UncompressedSize: f.UncompressedSize64, Limit: r.cfg.MaxUncompressedSize,
			}
		}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, int64(r.cfg.MaxUncompressedSize)+1))
}

func (r *reader) decodeXML(part string, v any) error {
	blob, err := r.blob(part)
	if err != nil {
		return err
	}
	dec := xml.NewDecoder(strings.NewReader(string(blob)))
	if err := dec.Decode(v); err != nil {
		if se, ok := err.(*xml.SyntaxError); ok {
			return &XmlParseError{Part: part, Line: se.Line, Message: se.Msg}
		}
		return &XmlParseError{Part: part, Message: err.Error()}
	}
	return nil
}

func (r *reader) readRels(part string) (map[string]RelInfo, error) {
	if _, ok := r.files[part]; !ok {
		return map[string]RelInfo{}, nil
	}
	var parsed relationshipsXML
	if err := r.decodeXML(part, &parsed); err != nil {
		return nil, err
	}
	out := make(map[string]RelInfo, len(parsed.Relationships))
	for _, rel := range parsed.Relationships {
		out[rel.ID] = RelInfo{Type: rel.Type, Target: rel.Target}
	}
	return out, nil
}

func (r *reader) read() (*model.Workbook, error) {
	if _, ok := r.files["/[Content_Types].xml"]; !ok {
		return nil, &MissingContentTypesError{}
	}

	globalRels, err := r.readRels("/_rels/.rels")
	if err != nil {
		return nil, err
	}
	var workbookPart string
	for _, rel := range globalRels {
		if rel.Type == relOfficeDocument {
			workbookPart = "/" + strings.TrimPrefix(rel.Target, "/")
		}
	}
	if workbookPart == "" || r.files[workbookPart] == nil {
		return nil, &MissingWorkbookPartError{}
	}

	var wbXML workbookXML
	if err := r.decodeXML(workbookPart, &wbXML); err != nil {
		return nil, err
	}

	workbookDir := partDir(workbookPart)
	workbookRelsPart := workbookDir + "_rels/" + partBase(workbookPart) + ".rels"
	workbookRels, err := r.readRels(workbookRelsPart)
	if err != nil {
		return nil, err
	}

	var sstPart, stylesPart, vbaPart string
	for _, rel := range workbookRels {
		target := resolveTarget(workbookDir, rel.Target)
		switch rel.Type {
		case relSharedStrings:
			sstPart = target
		case relStyles:
			stylesPart = target
		case relVBAProject:
			vbaPart = target
		}
	}

	var vbaBlob []byte
	if vbaPart != "" {
		if r.cfg.RejectMacros {
			return nil, &MacroRejectedError{Part: vbaPart}
		}
		blob, err := r.blob(vbaPart)
		if err != nil {
			return nil, err
		}
		vbaBlob = blob
	}

	if sstPart != "" {
		var sstParsed sstXML
		if err := r.decodeXML(sstPart, &sstParsed); err != nil {
			return nil, err
		}
		r.sst = make([]string, len(sstParsed.SI))
		for i, si := range sstParsed.SI {
			r.sst[i] = si.Text()
		}
	}

	r.styles = &readStyleTables{customNumFmts: map[int]string{}}
	if stylesPart != "" {
		if err := r.readStyles(stylesPart); err != nil {
			return nil, err
		}
	}

	wb := model.NewWorkbook()
	wb = wb.WithMetadata(model.WorkbookMetadata{Date1904: wbXML.WorkbookPr.Date1904, VBAProject: vbaBlob})
	for _, n := range wbXML.DefinedNames {
		wb = wb.WithDefinedName(n.Name, strings.TrimSpace(n.Value))
	}

	for _, sheetRef := range wbXML.Sheets {
		rel, ok := workbookRels[sheetRef.RID]
		if !ok {
			return nil, fmt.Errorf("ooxml: sheet %q has no matching relationship %q", sheetRef.Name, sheetRef.RID)
		}
		sheetPart := resolveTarget(workbookDir, rel.Target)

		name, err := model.ValidateSheetName(sheetRef.Name)
		if err != nil {
			return nil, err
		}
		sh, err := r.readSheet(name, sheetPart, wbXML.WorkbookPr.Date1904)
		if err != nil {
			return nil, err
		}
		wb, err = wb.AddSheet(sh)
		if err != nil {
			return nil, err
		}
	}

	return wb, nil
}

func (r *reader) readStyles(part string) error {
	var parsed stylesXML
	if err := r.decodeXML(part, &parsed); err != nil {
		return err
	}

	for _, nf := range parsed.NumFmts {
		r.styles.customNumFmts[nf.ID] = nf.FormatCode
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

	r.styles.xfs = make([]resolvedXF, len(parsed.CellXfs))
	for i, xf := range parsed.CellXfs {
		resolved := resolvedXF{
			NumFmtID: xf.NumFmtID,
			FontID:   xf.FontID,
			FillID:   xf.FillID,
			BorderID: xf.BorderID,
		}
		if xf.Alignment != nil {
			resolved.Alignment = model.Alignment{
				Horizontal: model.HorizontalAlignment(xf.Alignment.Horizontal),
				Vertical:   model.VerticalAlignment(xf.Alignment.Vertical),
				Wrap:       xf.Alignment.WrapText,
			}
		}
		r.styles.xfs[i] = resolved
	}

	// Stash the resolved font/fill/border tables alongside numFmts so
	// cellStyle(xfIndex) below can look them up by id.
	r.styles.fonts = fonts
	r.styles.fills = fills
	r.styles.borders = borders
	return nil
}

// cellStyle resolves a cell's "s" attribute, a direct 0-based index into the
// styles part's cellXfs array (index 0 is the always-present default style;
// callers only invoke this for xfIndex > 0).
func (r *reader) cellStyle(xfIndex int) (model.CellStyle, bool) {
	if xfIndex <= 0 || xfIndex >= len(r.styles.xfs) {
		return model.CellStyle{}, false
	}
	xf := r.styles.xfs[xfIndex]
	style := model.CellStyle{
		NumFmt:    numFmtFromID(xf.NumFmtID, r.styles.customNumFmts),
		Alignment: xf.Alignment,
	}
	if xf.FontID >= 0 && xf.FontID < len(r.styles.fonts) {
		style.Font = r.styles.fonts[xf.FontID]
	}
	if xf.FillID >= 0 && xf.FillID < len(r.styles.fills) {
		style.Fill = r.styles.fills[xf.FillID]
	}
	if xf.BorderID >= 0 && xf.BorderID < len(r.styles.borders) {
		style.Border = r.styles.borders[xf.BorderID]
	}
	return style, true
}

func (r *reader) readSheet(name model.SheetName, part string, date1904 bool) (*model.Sheet, error) {
	var parsed worksheetXML
	if err := r.decodeXML(part, &parsed); err != nil {
		return nil, err
	}

	sh := model.NewSheet(name)

	for _, col := range parsed.Cols {
		props := model.ColumnProps{Hidden: col.Hidden}
		if col.CustomWidth {
			w := col.Width
			props.Width = &w
		}
		for c := col.Min; c <= col.Max; c++ {
			sh = sh.SetColumnProperties(model.Column(c-1), props)
		}
	}

	for _, row := range parsed.SheetData.Rows {
		if row.CustomHeight || row.Hidden {
			props := model.RowProps{Hidden: row.Hidden}
			if row.CustomHeight {
				h := row.Ht
				props.Height = &h
			}
			sh = sh.SetRowProperties(model.Row(row.R-1), props)
		}
		for _, c := range row.Cells {
			ref, err := model.ParseARef(c.R)
			if err != nil {
				return nil, err
			}
			value, err := r.cellValue(c, date1904)
			if err != nil {
				return nil, err
			}
			if c.S > 0 {
				if style, ok := r.cellStyle(c.S); ok {
					sh = sh.PutWithStyle(ref, value, style)
					continue
				}
			}
			if !value.IsEmpty() {
				sh = sh.Put(ref, value)
			}
		}
	}

	for _, m := range parsed.MergeCells {
		rng, err := model.ParseCellRange(m.Ref)
		if err != nil {
			return nil, err
		}
		sh = sh.Merge(rng)
	}

	if parsed.Protection != nil {
		sh = sh.WithProtection(&model.SheetProtection{
			PasswordHash: parsed.Protection.Password,
			Sheet:        parsed.Protection.Sheet,
		})
	}

	for _, sv := range parsed.SheetViews {
		for _, p := range sv.Panes {
			if p.State == "frozen" {
				sh = sh.WithFreezePane(&model.FreezePane{Column: model.Column(p.XSplit), Row: model.Row(p.YSplit)})
			}
		}
	}

	for _, hl := range parsed.Hyperlinks {
		ref, err := model.ParseARef(hl.Ref)
		if err != nil {
			return nil, err
		}
		// Only internal ("location") hyperlinks are read back; an r:id
		// pointing at an external relationship target is not yet resolved
		// here, matching the writer's current one-way simplification.
		if hl.Location != "" {
			sh = sh.SetHyperlink(ref, model.Hyperlink{Target: hl.Location, Display: hl.Display})
		}
	}

	if parsed.Drawing != nil {
		sh, err = r.readCharts(sh, part, parsed.Drawing.RID)
		if err != nil {
			return nil, err
		}
	}

	sh, err = r.readComments(sh, part)
	if err != nil {
		return nil, err
	}

	return sh, nil
}

func (r *reader) readComments(sh *model.Sheet, sheetPart string) (*model.Sheet, error) {
	dir := partDir(sheetPart)
	relsPart := dir + "_rels/" + partBase(sheetPart) + ".rels"
	rels, err := r.readRels(relsPart)
	if err != nil {
		return nil, err
	}
	var commentsPart string
	for _, rel := range rels {
		if rel.Type == relComments {
			commentsPart = resolveTarget(dir, rel.Target)
		}
	}
	if commentsPart == "" {
		return sh, nil
	}

	var parsed commentsXML
	if err := r.decodeXML(commentsPart, &parsed); err != nil {
		return nil, err
	}
	for _, c := range parsed.CommentList {
		ref, err := model.ParseARef(c.Ref)
		if err != nil {
			return nil, err
		}
		author := ""
		if c.AuthorID >= 0 && c.AuthorID < len(parsed.Authors) {
			author = parsed.Authors[c.AuthorID]
		}
		sh = sh.AddComment(ref, model.Comment{Text: c.Text.Plain(), Author: author})
	}
	return sh, nil
}

// readCharts resolves a worksheet's <drawing r:id> to its drawing part, then
// each oneCellAnchor's chart relationship to a xl/charts/chartN.xml part,
// mirroring readComments' relationship-driven (never filename-guessed) part
// resolution.
func (r *reader) readCharts(sh *model.Sheet, sheetPart, drawingRID string) (*model.Sheet, error) {
	dir := partDir(sheetPart)
	relsPart := dir + "_rels/" + partBase(sheetPart) + ".rels"
	rels, err := r.readRels(relsPart)
	if err != nil {
		return nil, err
	}
	rel, ok := rels[drawingRID]
	if !ok || rel.Type != relDrawing {
		return sh, nil
	}
	drawingPart := resolveTarget(dir, rel.Target)

	var parsed drawingXML
	if err := r.decodeXML(drawingPart, &parsed); err != nil {
		return nil, err
	}

	drawingDir := partDir(drawingPart)
	drawingRelsPart := drawingDir + "_rels/" + partBase(drawingPart) + ".rels"
	drawingRels, err := r.readRels(drawingRelsPart)
	if err != nil {
		return nil, err
	}

	for _, anchor := range parsed.Anchors {
		chartRID := anchor.GraphicFrame.Graphic.GraphicData.Chart.RID
		rel, ok := drawingRels[chartRID]
		if !ok {
			continue
		}
		chartPart := resolveTarget(drawingDir, rel.Target)
		chart, err := r.readChart(chartPart, anchor)
		if err != nil {
			return nil, err
		}
		sh = sh.AddChart(chart)
	}
	return sh, nil
}

func (r *reader) readChart(part string, anchor oneCellAnchorXML) (model.ChartSpec, error) {
	var parsed chartSpaceXML
	if err := r.decodeXML(part, &parsed); err != nil {
		return model.ChartSpec{}, err
	}
	elem, series := parsed.Chart.PlotArea.element()
	spec := model.ChartSpec{
		Type:   model.ChartTypeFromOOXML(elem),
		Anchor: model.ARef{Col: model.Column(anchor.From.Col), Row: model.Row(anchor.From.Row)},
	}
	if parsed.Chart.Title != nil {
		spec.Title = parsed.Chart.Title.Text
	}
	for i, s := range series {
		cs := model.ChartSeries{Name: s.Name}
		if rng, err := parseQualifiedRangeRef(s.Val.formula()); err == nil {
			cs.Values = rng
		}
		if i == 0 {
			if rng, err := parseQualifiedRangeRef(s.Cat.formula()); err == nil {
				spec.Categories = rng
			}
		}
		spec.Series = append(spec.Series, cs)
	}
	return spec, nil
}

// parseQualifiedRangeRef strips the "SheetName!" qualifier writeChart
// prepends to every c:f formula and parses the remaining A1 range.
func parseQualifiedRangeRef(s string) (model.CellRange, error) {
	ref := s
	if i := strings.LastIndex(s, "!"); i >= 0 {
		ref = s[i+1:]
	}
	return model.ParseCellRange(ref)
}

func (r *reader) cellValue(c cellXML, date1904 bool) (model.CellValue, error) {
	if c.F != "" {
		fv := model.Formula(c.F)
		if c.V != "" || c.T == "str" || c.T == "e" || c.T == "b" {
			cached, err := r.scalarValue(c, date1904)
			if err != nil {
				return model.CellValue{}, err
			}
			fv = fv.WithCached(cached)
		}
		return fv, nil
	}
	return r.scalarValue(c, date1904)
}

func (r *reader) scalarValue(c cellXML, date1904 bool) (model.CellValue, error) {
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(c.V)
		if err != nil {
			return model.CellValue{}, fmt.Errorf("ooxml: invalid shared string index %q: %w", c.V, err)
		}
		if idx < 0 || idx >= len(r.sst) {
			return model.CellValue{}, fmt.Errorf("ooxml: shared string index %d out of range", idx)
		}
		return model.Text(r.sst[idx]), nil
	case "inlineStr":
		if c.Is != nil {
			return model.Text(c.Is.Text()), nil
		}
		return model.Text(""), nil
	case "str":
		return model.Text(c.V), nil
	case "b":
		return model.Bool(c.V == "1"), nil
	case "e":
		return model.Error(model.ErrorKind(c.V)), nil
	case "d":
		t, err := parseISODate(c.V)
		if err != nil {
			return model.CellValue{}, err
		}
		return model.DateTime(t), nil
	case "", "n":
		if c.V == "" {
			return model.Empty(), nil
		}
		n, err := strconv.ParseFloat(c.V, 64)
		if err != nil {
			return model.CellValue{}, fmt.Errorf("ooxml: invalid numeric cell value %q: %w", c.V, err)
		}
		_ = date1904 // raw numbers stay numbers: no serial is promoted to a date, whatever the cell's number format.
		return model.Number(n), nil
	default:
		return model.CellValue{}, fmt.Errorf("ooxml: unrecognized cell type %q", c.T)
	}
}

// builtinNumFmtByID is the inverse of model's unexported builtinNumFmtID
// table (style.go), reconstructed here from the fixed OOXML ids that
// NumFmt.ID() documents for each built-in code.
var builtinNumFmtByID = map[int]model.NumFmtCode{
	0:  model.NumFmtGeneral,
	1:  model.NumFmtInteger,
	2:  model.NumFmtDecimal,
	7:  model.NumFmtCurrency,
	9:  model.NumFmtPercent,
	10: model.NumFmtPercentDecimal,
	14: model.NumFmtDate,
	22: model.NumFmtDateTime,
	21: model.NumFmtTime,
	49: model.NumFmtText,
}

func numFmtFromID(id int, custom map[int]string) model.NumFmt {
	if code, ok := builtinNumFmtByID[id]; ok {
		return model.NumFmt{Code: code}
	}
	if code, ok := custom[id]; ok {
		return model.NumFmt{Code: model.NumFmtCustom, CustomCode: code}
	}
	return model.NumFmt{Code: model.NumFmtGeneral}
}

func underlineFromXML(u *underlineXML) model.UnderlineType {
	if u == nil {
		return model.UnderlineNone
	}
	if u.Val == "double" {
		return model.UnderlineDouble
	}
	return model.UnderlineSingle
}

func colorFromXML(c colorXML) model.Color {
	return model.Color{ARGB: c.RGB, Theme: c.Theme, Tint: c.Tint}
}

func borderSideFromXML(s borderSideXML) model.BorderSide {
	return model.BorderSide{Style: model.BorderLineStyle(s.Style), Color: colorFromXML(s.Color)}
}

// parseISODate decodes the rare t="d" cell form, an ISO-8601 date/time
// string used instead of a numeric serial.
func parseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// partDir returns the directory (with trailing slash) of an absolute part
// path, e.g. "/xl/worksheets/sheet1.xml" -> "/xl/worksheets/".
func partDir(part string) string {
	i := strings.LastIndex(part, "/")
	if i < 0 {
		return "/"
	}
	return part[:i+1]
}

// partBase returns the filename component of an absolute part path, e.g.
// "/xl/workbook.xml" -> "workbook.xml".
func partBase(part string) string {
	i := strings.LastIndex(part, "/")
	return part[i+1:]
}

// resolveTarget resolves a relationship Target (relative to dir, or
// absolute if it starts with "/") to an absolute part path.
func resolveTarget(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	segments := strings.Split(dir+target, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}
