package ooxml

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/adnsv/srw/xml"
	"github.com/adnsv/xlpatch/model"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// WriteConfig controls the in-memory writer's output mode (spec.md §4.10).
type WriteConfig struct {
	// Debug emits STORED (uncompressed) ZIP entries and pretty-printed XML,
	// trading size for human-readability while inspecting a package.
	Debug bool
	// AppName is recorded in docProps/app.xml when non-empty.
	AppName string
}

// Write encodes wb as a deterministic OOXML package at path: identical
// workbook values always produce byte-identical output (fixed part order,
// fixed ZIP entry timestamps, stable attribute order, insertion-ordered SST
// and style ids).
func Write(wb *model.Workbook, path string, cfg WriteConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mode := CompressDeflate
	if cfg.Debug {
		mode = CompressStore
	}
	zs := NewZipStorage(f, mode)
	w := newWriter(zs, cfg)
	if err := w.write(wb); err != nil {
		zs.Close()
		return err
	}
	return zs.Close()
}

// writer assembles an OOXML package from a *model.Workbook, generalizing
// adnsv-go-xl/xl/writer.go's Writer from its fixed mutable Workbook/Sheet/
// Cell types to this module's immutable model package.
type writer struct {
	out    Storage
	cfg    WriteConfig
	xmlCfg xml.WriterConfig

	lastGlobalID   int
	lastWorkbookID int
	lastChartID    int

	globalRels          map[string]RelInfo
	workbookRels        map[string]RelInfo
	defaultContentTypes map[string]string
	partContentTypes    map[string]string

	sharedStrings   []string
	sharedStringMap map[string]int

	styles *styleTables
}

func newWriter(out Storage, cfg WriteConfig) *writer {
	xmlCfg := xml.WriterConfig{}
	if cfg.Debug {
		xmlCfg = xml.WriterConfig{Indent: xml.Indent2Spaces}
	}
	return &writer{
		out:                 out,
		cfg:                 cfg,
		xmlCfg:              xmlCfg,
		globalRels:          map[string]RelInfo{},
		workbookRels:        map[string]RelInfo{},
		defaultContentTypes: map[string]string{"xml": ctXML, "rels": ctRelationships},
		partContentTypes:    map[string]string{},
		sharedStringMap:     map[string]int{},
		styles:              newStyleTables(),
	}
}

func (w *writer) nextGlobalID() string {
	w.lastGlobalID++
	return fmt.Sprintf("rId%d", w.lastGlobalID)
}

func (w *writer) nextWorkbookID() string {
	w.lastWorkbookID++
	return fmt.Sprintf("rId%d", w.lastWorkbookID)
}

func (w *writer) sharedString(s string) int {
	if i, ok := w.sharedStringMap[s]; ok {
		return i
	}
	i := len(w.sharedStrings)
	w.sharedStrings = append(w.sharedStrings, s)
	w.sharedStringMap[s] = i
	return i
}

func (w *writer) newXMLWriter(bb *bytes.Buffer) *xml.Writer {
	x := xml.NewWriter(bb, w.xmlCfg)
	x.XmlStandaloneDecl()
	return x
}

func (w *writer) write(wb *model.Workbook) error {
	for _, sh := range wb.Sheets() {
		w.styles.addSheet(sh)
	}

	if err := w.writeWorkbook(wb); err != nil {
		return err
	}
	if err := w.writeCoreProperties(); err != nil {
		return err
	}
	if err := w.writeExtendedProperties(); err != nil {
		return err
	}
	if len(w.sharedStrings) > 0 {
		if err := w.writeSharedStrings(); err != nil {
			return err
		}
	}
	if err := w.writeStyles(); err != nil {
		return err
	}
	if vba := wb.Metadata().VBAProject; len(vba) > 0 {
		if err := w.writeVBAProject(vba); err != nil {
			return err
		}
	}
	if err := w.writeRels("/xl/_rels/workbook.xml.rels", w.workbookRels); err != nil {
		return err
	}
	if err := w.writeRels("/_rels/.rels", w.globalRels); err != nil {
		return err
	}
	return w.writeContentTypes()
}

func (w *writer) writeCoreProperties() error {
	rid := w.nextGlobalID()
	const relpath = "docProps/core.xml"
	const abspath = "/" + relpath

	w.partContentTypes[abspath] = ctCoreProps
	w.globalRels[rid] = RelInfo{Type: relCoreProps, Target: relpath}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("cp:coreProperties")
	x.Attr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	x.Attr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	x.Attr("xmlns:dcterms", "http://purl.org/dc/terms/")
	x.Attr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	x.CTag()
	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *writer) writeExtendedProperties() error {
	rid := w.nextGlobalID()
	const relpath = "docProps/app.xml"
	const abspath = "/" + relpath

	w.partContentTypes[abspath] = ctExtendedProps
	w.globalRels[rid] = RelInfo{Type: relExtendedProps, Target: relpath}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("Properties")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	if w.cfg.AppName != "" {
		x.OTag("+Application").String(w.cfg.AppName).CTag()
	}
	x.CTag()
	return w.out.WriteBlob(abspath, bb.Bytes())
}

// writeVBAProject stores a macro-enabled workbook's xl/vbaProject.bin blob
// verbatim (spec.md §1's "round-trip verbatim or are rejected" requirement;
// this library implements the round-trip half, ReadConfig.RejectMacros the
// rejection half).
func (w *writer) writeVBAProject(blob []byte) error {
	rid := w.nextWorkbookID()
	const relpath = "vbaProject.bin"
	const abspath = "/xl/" + relpath

	w.defaultContentTypes["bin"] = ctVBAProject
	w.workbookRels[rid] = RelInfo{Type: relVBAProject, Target: relpath}
	return w.out.WriteBlob(abspath, blob)
}

func (w *writer) writeContentTypes() error {
	return WriteContentTypesPart(w.out, w.defaultContentTypes, w.partContentTypes, w.xmlCfg)
}

func (w *writer) writeWorkbook(wb *model.Workbook) error {
	rid := w.nextGlobalID()
	const relpath = "xl/workbook.xml"
	const abspath = "/" + relpath

	meta := wb.Metadata()
	if len(meta.VBAProject) > 0 {
		w.partContentTypes[abspath] = ctWorkbookMacro
	} else {
		w.partContentTypes[abspath] = ctWorkbook
	}
	w.globalRels[rid] = RelInfo{Type: relOfficeDocument, Target: relpath}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("workbook")
	x.Attr("xmlns", mainNS)
	x.Attr("xmlns:r", relNS)

	x.OTag("+workbookPr")
	if meta.Date1904 {
		x.Attr("date1904", "1")
	}
	x.CTag()

	sheets := wb.Sheets()
	x.OTag("+sheets")
	sheetRIDs := make([]string, len(sheets))
	for i, sh := range sheets {
		sheetRID := w.nextWorkbookID()
		sheetRIDs[i] = sheetRID
		x.OTag("+sheet")
		x.Attr("name", string(sh.Name()))
		x.Attr("sheetId", i+1)
		x.Attr("r:id", sheetRID)
		x.CTag()
	}
	x.CTag() // sheets

	names := wb.DefinedNames()
	if len(names) > 0 {
		x.OTag("+definedNames")
		for _, n := range sortedKeys(names) {
			x.OTag("+definedName").Attr("name", n)
			x.Write(names[n])
			x.CTag()
		}
		x.CTag()
	}

	x.CTag() // workbook

	for i, sh := range sheets {
		if err := w.writeSheet(sh, i+1, meta.Date1904); err != nil {
			return err
		}
		w.workbookRels[sheetRIDs[i]] = RelInfo{
			Type:   relWorksheet,
			Target: "worksheets/" + string(sh.Name()) + ".xml",
		}
	}

	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *writer) writeSheet(sh *model.Sheet, sheetIndex int, date1904 bool) error {
	relpath := "worksheets/" + string(sh.Name()) + ".xml"
	abspath := "/xl/" + relpath
	w.partContentTypes[abspath] = ctWorksheet

	sheetRels := map[string]RelInfo{}
	var commentsRID string
	if w.sheetHasComments(sh) {
		commentsRID = fmt.Sprintf("rId%d", len(sheetRels)+1)
		sheetRels[commentsRID] = RelInfo{Type: relComments, Target: fmt.Sprintf("../comments%d.xml", sheetIndex)}
	}
	var drawingRID string
	if len(sh.Charts()) > 0 {
		drawingRID = fmt.Sprintf("rId%d", len(sheetRels)+1)
		sheetRels[drawingRID] = RelInfo{Type: relDrawing, Target: fmt.Sprintf("../drawings/drawing%d.xml", sheetIndex)}
	}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("worksheet")
	x.Attr("xmlns", mainNS)
	x.Attr("xmlns:r", relNS)

	colProps := sh.AllColumnProperties()
	if len(colProps) > 0 {
		x.OTag("+cols")
		for _, col := range sortedColumns(colProps) {
			p := colProps[col]
			x.OTag("+col").Attr("min", int(col)+1).Attr("max", int(col)+1)
			if p.Width != nil {
				x.Attr("width", *p.Width).Attr("customWidth", 1)
			}
			if p.Hidden {
				x.Attr("hidden", 1)
			}
			x.CTag()
		}
		x.CTag()
	}

	refs := sh.Cells()
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Row != refs[j].Row {
			return refs[i].Row < refs[j].Row
		}
		return refs[i].Col < refs[j].Col
	})
	rowProps := sh.AllRowProperties()

	x.OTag("+sheetData")
	i := 0
	for i < len(refs) {
		row := refs[i].Row
		rowStart := i
		for i < len(refs) && refs[i].Row == row {
			i++
		}
		x.OTag("+row").Attr("r", int(row)+1)
		if rp, ok := rowProps[row]; ok {
			if rp.Height != nil {
				x.Attr("ht", *rp.Height).Attr("customHeight", 1)
			}
			if rp.Hidden {
				x.Attr("hidden", 1)
			}
		}
		for _, ref := range refs[rowStart:i] {
			if err := w.writeCell(x, sh, ref, date1904); err != nil {
				return err
			}
		}
		x.CTag() // row
	}
	x.CTag() // sheetData

	if p := sh.Protection(); p != nil {
		x.OTag("+sheetProtection")
		if p.PasswordHash != "" {
			x.Attr("password", p.PasswordHash)
		}
		if p.Sheet {
			x.Attr("sheet", 1)
		}
		x.CTag()
	}

	merges := sh.MergedRanges()
	if len(merges) > 0 {
		x.OTag("+mergeCells").Attr("count", len(merges))
		for _, m := range merges {
			x.OTag("+mergeCell").Attr("ref", m.String()).CTag()
		}
		x.CTag()
	}

	if fp := sh.FreezePane(); fp != nil {
		x.OTag("+sheetViews")
		x.OTag("+sheetView")
		x.OTag("+pane")
		x.Attr("xSplit", int(fp.Column))
		x.Attr("ySplit", int(fp.Row))
		x.Attr("state", "frozen")
		x.CTag()
		x.CTag()
		x.CTag()
	}

	hyperlinks := sh.Cells()
	var withLinks []model.ARef
	for _, ref := range hyperlinks {
		if sh.Cell(ref).Hyperlink != nil {
			withLinks = append(withLinks, ref)
		}
	}
	if len(withLinks) > 0 {
		sort.Slice(withLinks, func(i, j int) bool { return withLinks[i].Less(withLinks[j]) })
		x.OTag("+hyperlinks")
		for _, ref := range withLinks {
			hl := sh.Cell(ref).Hyperlink
			x.OTag("+hyperlink").Attr("ref", ref.ToA1())
			// Hyperlinks always round-trip as an internal "location" jump
			// rather than an external relationship: wiring the per-sheet
			// _rels/sheetN.xml.rels part that an external URL target needs
			// is future work (see DESIGN.md).
			x.Attr("location", hl.Target)
			if hl.Display != "" {
				x.Attr("display", hl.Display)
			}
			x.CTag()
		}
		x.CTag()
	}

	if drawingRID != "" {
		x.OTag("+drawing").Attr("r:id", drawingRID).CTag()
	}
	if commentsRID != "" {
		x.OTag("+legacyDrawing").Attr("r:id", commentsRID).CTag()
	}

	x.CTag() // worksheet

	if commentsRID != "" {
		if err := w.writeComments(sh, sheetIndex); err != nil {
			return err
		}
	}
	if drawingRID != "" {
		if err := w.writeDrawing(sh, sheetIndex); err != nil {
			return err
		}
	}
	if len(sheetRels) > 0 {
		sheetRelsPath := fmt.Sprintf("/xl/worksheets/_rels/%s.xml.rels", sh.Name())
		if err := w.writeRels(sheetRelsPath, sheetRels); err != nil {
			return err
		}
	}

	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *writer) sheetHasComments(sh *model.Sheet) bool {
	for _, ref := range sh.Cells() {
		if sh.Cell(ref).Comment != nil {
			return true
		}
	}
	return false
}

func (w *writer) writeComments(sh *model.Sheet, sheetIndex int) error {
	abspath := fmt.Sprintf("/xl/comments%d.xml", sheetIndex)
	w.partContentTypes[abspath] = ctComments

	var refs []model.ARef
	for _, ref := range sh.Cells() {
		if sh.Cell(ref).Comment != nil {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	authors := []string{}
	authorIndex := map[string]int{}
	for _, ref := range refs {
		c := sh.Cell(ref).Comment
		if _, ok := authorIndex[c.Author]; !ok {
			authorIndex[c.Author] = len(authors)
			authors = append(authors, c.Author)
		}
	}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("comments")
	x.Attr("xmlns", mainNS)
	x.OTag("+authors")
	for _, a := range authors {
		x.OTag("+author").Write(a).CTag()
	}
	x.CTag()
	x.OTag("+commentList")
	for _, ref := range refs {
		c := sh.Cell(ref).Comment
		x.OTag("+comment").Attr("ref", ref.ToA1()).Attr("authorId", authorIndex[c.Author])
		x.OTag("+text")
		x.OTag("t").Write(c.Text).CTag()
		x.CTag()
		x.CTag()
	}
	x.CTag()
	x.CTag()
	return w.out.WriteBlob(abspath, bb.Bytes())
}

// writeDrawing emits sh's drawing part (one anchor per chart, grounded on
// ECMA-376 part 1, §20.5's xdr:wsDr/xdr:oneCellAnchor shape) and, for each
// anchored chart, its own xl/charts/chartN.xml structural part. No rendering
// is attempted; only the type, title, and category/series ranges round-trip
// (spec.md's "chart structural specification" scope).
func (w *writer) writeDrawing(sh *model.Sheet, sheetIndex int) error {
	drawingRelpath := fmt.Sprintf("drawings/drawing%d.xml", sheetIndex)
	drawingAbs := "/xl/" + drawingRelpath
	w.partContentTypes[drawingAbs] = ctDrawing

	drawingRels := map[string]RelInfo{}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("xdr:wsDr")
	x.Attr("xmlns:xdr", drawingMainNS)
	x.Attr("xmlns:a", drawingShapeNS)

	for i, ch := range sh.Charts() {
		w.lastChartID++
		chartID := w.lastChartID
		rid := fmt.Sprintf("rId%d", i+1)
		drawingRels[rid] = RelInfo{Type: relChart, Target: fmt.Sprintf("../charts/chart%d.xml", chartID)}

		x.OTag("+xdr:oneCellAnchor")
		x.OTag("+xdr:from")
		x.OTag("xdr:col").Write(strconv.Itoa(int(ch.Anchor.Col))).CTag()
		x.OTag("xdr:colOff").Write("0").CTag()
		x.OTag("xdr:row").Write(strconv.Itoa(int(ch.Anchor.Row))).CTag()
		x.OTag("xdr:rowOff").Write("0").CTag()
		x.CTag() // from
		x.OTag("+xdr:ext").Attr("cx", 5486400).Attr("cy", 3200400).CTag()
		x.OTag("+xdr:graphicFrame")
		x.OTag("+xdr:nvGraphicFramePr")
		x.OTag("+xdr:cNvPr").Attr("id", chartID).Attr("name", fmt.Sprintf("Chart%d", chartID)).CTag()
		x.OTag("+xdr:cNvGraphicFramePr").CTag()
		x.CTag() // nvGraphicFramePr
		x.OTag("+xdr:xfrm").CTag()
		x.OTag("+a:graphic")
		x.OTag("+a:graphicData").Attr("uri", chartNS)
		x.OTag("+c:chart").Attr("xmlns:c", chartNS).Attr("xmlns:r", relNS).Attr("r:id", rid).CTag()
		x.CTag() // graphicData
		x.CTag() // graphic
		x.CTag() // graphicFrame
		x.CTag() // oneCellAnchor

		if err := w.writeChart(ch, sh.Name(), chartID); err != nil {
			return err
		}
	}
	x.CTag() // wsDr
	if err := w.out.WriteBlob(drawingAbs, bb.Bytes()); err != nil {
		return err
	}
	return w.writeRels(fmt.Sprintf("/xl/drawings/_rels/drawing%d.xml.rels", sheetIndex), drawingRels)
}

func (w *writer) writeChart(ch model.ChartSpec, sheetName model.SheetName, chartID int) error {
	abspath := fmt.Sprintf("/xl/charts/chart%d.xml", chartID)
	w.partContentTypes[abspath] = ctChart

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("c:chartSpace")
	x.Attr("xmlns:c", chartNS)
	x.Attr("xmlns:a", drawingShapeNS)
	x.Attr("xmlns:r", relNS)
	x.OTag("+c:chart")

	if ch.Title != "" {
		x.OTag("+c:title")
		x.OTag("+c:tx")
		x.OTag("+c:rich")
		x.OTag("+a:p")
		x.OTag("+a:r")
		x.OTag("a:t").Write(ch.Title).CTag()
		x.CTag() // a:r
		x.CTag() // a:p
		x.CTag() // c:rich
		x.CTag() // c:tx
		x.CTag() // c:title
	}

	x.OTag("+c:plotArea")
	x.OTag("+c:" + ch.Type.OOXMLElement())
	catRef := qualifiedRangeRef(sheetName, ch.Categories)
	for _, s := range ch.Series {
		x.OTag("+c:ser")
		x.OTag("+c:tx")
		x.OTag("c:v").Write(s.Name).CTag()
		x.CTag() // tx
		if catRef != "" {
			x.OTag("+c:cat")
			x.OTag("+c:strRef")
			x.OTag("c:f").Write(catRef).CTag()
			x.CTag() // strRef
			x.CTag() // cat
		}
		x.OTag("+c:val")
		x.OTag("+c:numRef")
		x.OTag("c:f").Write(qualifiedRangeRef(sheetName, s.Values)).CTag()
		x.CTag() // numRef
		x.CTag() // val
		x.CTag() // ser
	}
	x.CTag() // c:<type>Chart
	x.CTag() // plotArea
	x.CTag() // chart
	x.CTag() // chartSpace
	return w.out.WriteBlob(abspath, bb.Bytes())
}

// qualifiedRangeRef renders a sheet-qualified range reference the way chart
// series formulas use ("Sheet1!A1:A5"), matching what reader.go's
// parseQualifiedRangeRef parses back.
func qualifiedRangeRef(sheet model.SheetName, r model.CellRange) string {
	return string(sheet) + "!" + r.String()
}

func (w *writer) writeCell(x *xml.Writer, sh *model.Sheet, ref model.ARef, date1904 bool) error {
	cell := sh.Cell(ref)
	x.OTag("+c").Attr("r", ref.ToA1())
	if cell.StyleID != nil {
		if s := w.styles.globalStyleIndex(sh.Name(), *cell.StyleID); s > 0 {
			x.Attr("s", s)
		}
	}

	v := cell.Value
	if v.Kind == model.KindFormula {
		x.OTag("f").Write(v.FormulaText).CTag()
		if v.CachedValue != nil {
			w.writeCachedFormulaResult(x, *v.CachedValue, date1904)
		}
		x.CTag() // c
		return nil
	}

	switch v.Kind {
	case model.KindEmpty:
		// no value child; keep the bare <c r="..."/> (possibly styled-only).
	case model.KindNumber:
		x.OTag("v").Write(formatNumber(v.Number)).CTag()
	case model.KindBool:
		x.Attr("t", "b")
		x.OTag("v").Write(boolDigit(v.Bool)).CTag()
	case model.KindError:
		x.Attr("t", "e")
		x.OTag("v").Write(string(v.ErrKind)).CTag()
	case model.KindDateTime:
		x.OTag("v").Write(formatNumber(dateToSerial(v.DateVal, date1904))).CTag()
	case model.KindText:
		x.Attr("t", "s")
		x.OTag("v").Write(w.sharedString(v.Text)).CTag()
	case model.KindRichText:
		x.Attr("t", "s")
		x.OTag("v").Write(w.sharedString(concatRuns(v.Runs))).CTag()
	}
	x.CTag() // c
	return nil
}

func (w *writer) writeCachedFormulaResult(x *xml.Writer, cached model.CellValue, date1904 bool) {
	switch cached.Kind {
	case model.KindNumber:
		x.OTag("v").Write(formatNumber(cached.Number)).CTag()
	case model.KindBool:
		x.Attr("t", "b")
		x.OTag("v").Write(boolDigit(cached.Bool)).CTag()
	case model.KindError:
		x.Attr("t", "e")
		x.OTag("v").Write(string(cached.ErrKind)).CTag()
	case model.KindDateTime:
		x.OTag("v").Write(formatNumber(dateToSerial(cached.DateVal, date1904))).CTag()
	case model.KindText:
		x.Attr("t", "str")
		x.OTag("v").Write(cached.Text).CTag()
	}
}

func (w *writer) writeSharedStrings() error {
	rid := w.nextWorkbookID()
	const relpath = "sharedStrings.xml"
	const abspath = "/xl/" + relpath

	w.partContentTypes[abspath] = ctSharedStrings
	w.workbookRels[rid] = RelInfo{Type: relSharedStrings, Target: relpath}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("sst")
	x.Attr("xmlns", mainNS)
	x.Attr("count", len(w.sharedStrings))
	x.Attr("uniqueCount", len(w.sharedStrings))
	for _, s := range w.sharedStrings {
		x.OTag("+si")
		x.OTag("t").Write(s).CTag()
		x.CTag()
	}
	x.CTag()
	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *writer) writeStyles() error {
	rid := w.nextWorkbookID()
	const relpath = "styles.xml"
	const abspath = "/xl/" + relpath

	w.partContentTypes[abspath] = ctStyles
	w.workbookRels[rid] = RelInfo{Type: relStyles, Target: relpath}

	bb := bytes.Buffer{}
	x := w.newXMLWriter(&bb)
	x.OTag("styleSheet")
	x.Attr("xmlns", mainNS)

	t := w.styles

	if len(t.customFormats) > 0 {
		x.OTag("+numFmts").Attr("count", len(t.customFormats))
		for i, code := range t.customFormats {
			x.OTag("+numFmt").Attr("numFmtId", 164+i).Attr("formatCode", code).CTag()
		}
		x.CTag()
	}

	x.OTag("+fonts").Attr("count", len(t.fonts)+1)
	x.OTag("+font")
	x.OTag("sz").Attr("val", 11).CTag()
	x.OTag("name").Attr("val", "Calibri").CTag()
	x.CTag()
	for _, f := range t.fonts {
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

	x.OTag("+fills").Attr("count", len(t.fills)+1)
	x.OTag("+fill")
	x.OTag("patternFill").Attr("patternType", "none").CTag()
	x.CTag()
	for _, f := range t.fills {
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
		x.CTag() // patternFill
		x.CTag() // fill
	}
	x.CTag() // fills

	x.OTag("+borders").Attr("count", len(t.borders)+1)
	x.OTag("+border")
	x.OTag("+left").CTag()
	x.OTag("+right").CTag()
	x.OTag("+top").CTag()
	x.OTag("+bottom").CTag()
	x.OTag("+diagonal").CTag()
	x.CTag()
	for _, b := range t.borders {
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

	x.OTag("+cellXfs").Attr("count", len(t.xfs)+1)
	x.OTag("+xf").Attr("numFmtId", 0).Attr("fontId", 0).Attr("fillId", 0).Attr("borderId", 0).Attr("xfId", 0).CTag()
	for _, xf := range t.xfs {
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
	return w.out.WriteBlob(abspath, bb.Bytes())
}

func writeBorderSide(x *xml.Writer, name string, s model.BorderSide) {
	x.OTag("+" + name)
	if !s.Empty() {
		x.Attr("style", string(s.Style))
		if !s.Color.Empty() {
			x.OTag("color").Attr("rgb", s.Color.Hex()).CTag()
		}
	}
	x.CTag()
}

func (w *writer) writeRels(path string, rels map[string]RelInfo) error {
	return WriteRelationshipsPart(w.out, path, rels, w.xmlCfg)
}

func formatNumber(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func concatRuns(runs []model.RichTextRun) string {
	var sb []byte
	for _, r := range runs {
		sb = append(sb, r.Text...)
	}
	return string(sb)
}

// sortedKeys mirrors adnsv-go-xl/xl/writer.go's enumerate() helper: pull the
// keys out with golang.org/x/exp/maps, sort with golang.org/x/exp/slices, so
// every map-backed part (content types, relationships, defined names) emits
// in a fixed order regardless of Go's randomized map iteration.
func sortedKeys[V any](m map[string]V) []string {
	out := maps.Keys(m)
	slices.Sort(out)
	return out
}

func sortedColumns(m map[model.Column]model.ColumnProps) []model.Column {
	out := maps.Keys(m)
	slices.Sort(out)
	return out
}
