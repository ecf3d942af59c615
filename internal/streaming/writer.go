package streaming

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/adnsv/srw/xml"
	"github.com/adnsv/xlpatch/internal/ooxml"
	"github.com/adnsv/xlpatch/model"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Write encodes spec as a deterministic OOXML package at path using the
// two-phase streaming strategy (spec.md §4.11). Phase 1 pulls every sheet's
// rows exactly once, spooling them to a temporary file while building the
// shared-strings table and (if configured) column-width statistics; phase 2
// streams each spool back, emitting worksheet XML directly to the archive
// entry, so peak memory is independent of row count. Grounded on
// other_examples' excelize StreamWriter's spool-then-flush phase split.
func Write(spec WorkbookSpec, path string, cfg StreamWriterConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mode := ooxml.CompressDeflate
	if cfg.Debug {
		mode = ooxml.CompressStore
	}
	zs := ooxml.NewZipStorage(f, mode)

	if err := write(spec, zs, cfg); err != nil {
		zs.Close()
		return err
	}
	return zs.Close()
}

type idGen struct{ n int }

func (g *idGen) next() string {
	g.n++
	return fmt.Sprintf("rId%d", g.n)
}

type sheetSpool struct {
	spec      SheetSpec
	spoolPath string
	rowCount  int
	widths    *colWidthSampler
}

func write(spec WorkbookSpec, zs *ooxml.ZipStorage, cfg StreamWriterConfig) error {
	xmlCfg := xml.WriterConfig{}
	if cfg.Debug {
		xmlCfg = xml.WriterConfig{Indent: xml.Indent2Spaces}
	}

	sst, err := newSSTBuilder(cfg.SharedStrings, cfg.TempDir)
	if err != nil {
		return err
	}
	defer sst.close()

	sheets := make([]sheetSpool, len(spec.Sheets))
	defer func() {
		for _, s := range sheets {
			if s.spoolPath != "" {
				os.Remove(s.spoolPath)
			}
		}
	}()

	for i, sh := range spec.Sheets {
		if cfg.RejectMerges && len(sh.Merges) > 0 {
			return &MergesRejectedError{Sheet: sh.Name, Count: len(sh.Merges)}
		}
		res, err := spoolSheet(sh, sst, cfg)
		if err != nil {
			return err
		}
		sheets[i] = res
	}
	if err := sst.finalize(); err != nil {
		return err
	}

	globalRels := map[string]ooxml.RelInfo{}
	workbookRels := map[string]ooxml.RelInfo{}
	partContentTypes := map[string]string{}
	defaultContentTypes := map[string]string{"xml": ooxml.ContentTypeXML, "rels": ooxml.ContentTypeRelationships}

	globalID := &idGen{}
	workbookID := &idGen{}

	if err := writeCoreProperties(zs, globalRels, partContentTypes, globalID, xmlCfg); err != nil {
		return err
	}
	if err := writeExtendedProperties(zs, globalRels, partContentTypes, globalID, xmlCfg); err != nil {
		return err
	}

	sheetRIDs := make([]string, len(sheets))
	for i := range sheets {
		sheetRIDs[i] = workbookID.next()
	}
	for i, s := range sheets {
		if err := emitWorksheet(zs, spec, s, workbookRels, partContentTypes, xmlCfg, cfg); err != nil {
			return err
		}
		workbookRels[sheetRIDs[i]] = ooxml.RelInfo{
			Type:   ooxml.RelTypeWorksheet,
			Target: "worksheets/" + string(s.spec.Name) + ".xml",
		}
	}

	if sst.count > 0 {
		if err := writeSharedStrings(zs, sst, workbookRels, partContentTypes, workbookID, xmlCfg); err != nil {
			return err
		}
	}
	if err := ooxml.WriteStylesPartFromRegistry(zs, spec.Styles, xmlCfg); err != nil {
		return err
	}
	workbookRels[workbookID.next()] = ooxml.RelInfo{Type: ooxml.RelTypeStyles, Target: "styles.xml"}

	wbRID := globalID.next()
	globalRels[wbRID] = ooxml.RelInfo{Type: ooxml.RelTypeOfficeDocument, Target: "xl/workbook.xml"}
	partContentTypes["/xl/workbook.xml"] = ooxml.ContentTypeWorkbook
	if err := writeWorkbookXML(zs, spec, sheets, sheetRIDs, xmlCfg); err != nil {
		return err
	}

	if err := ooxml.WriteRelationshipsPart(zs, "/xl/_rels/workbook.xml.rels", workbookRels, xmlCfg); err != nil {
		return err
	}
	if err := ooxml.WriteRelationshipsPart(zs, "/_rels/.rels", globalRels, xmlCfg); err != nil {
		return err
	}
	return ooxml.WriteContentTypesPart(zs, defaultContentTypes, partContentTypes, xmlCfg)
}

func writeCoreProperties(zs *ooxml.ZipStorage, globalRels map[string]ooxml.RelInfo, partContentTypes map[string]string, globalID *idGen, xmlCfg xml.WriterConfig) error {
	const relpath = "docProps/core.xml"
	const abspath = "/" + relpath
	partContentTypes[abspath] = "application/vnd.openxmlformats-package.core-properties+xml"
	globalRels[globalID.next()] = ooxml.RelInfo{Type: "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", Target: relpath}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("cp:coreProperties")
	x.Attr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	x.Attr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	x.Attr("xmlns:dcterms", "http://purl.org/dc/terms/")
	x.Attr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	x.CTag()
	return zs.WriteBlob(abspath, bb.Bytes())
}

func writeExtendedProperties(zs *ooxml.ZipStorage, globalRels map[string]ooxml.RelInfo, partContentTypes map[string]string, globalID *idGen, xmlCfg xml.WriterConfig) error {
	const relpath = "docProps/app.xml"
	const abspath = "/" + relpath
	partContentTypes[abspath] = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	globalRels[globalID.next()] = ooxml.RelInfo{Type: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties", Target: relpath}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("Properties")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	x.CTag()
	return zs.WriteBlob(abspath, bb.Bytes())
}

// spoolSheet is phase 1 for one sheet: pull every row exactly once, encoding
// it to a temp file and feeding the column-width sampler.
func spoolSheet(sh SheetSpec, sst *sstBuilder, cfg StreamWriterConfig) (sheetSpool, error) {
	spoolFile, err := os.CreateTemp(cfg.TempDir, "xlpatch-stream-"+uuid.NewString()+"-*.spool")
	if err != nil {
		return sheetSpool{}, err
	}
	defer spoolFile.Close()

	var intern func(string) uint32
	if cfg.SharedStrings != SSTNone {
		intern = sst.intern
	}
	enc := newRowEncoder(spoolFile, intern)

	sampler := newColWidthSampler(cfg.autoFitSample())
	rowCount := 0
	for {
		row, ok, err := sh.Rows()
		if err != nil {
			return sheetSpool{}, fmt.Errorf("streaming: sheet %q: %w", sh.Name, err)
		}
		if !ok {
			break
		}
		switch cfg.ColumnWidth {
		case ColumnWidthAutoFitFromSample:
			sampler.observe(row)
		case ColumnWidthFixed:
			for _, c := range row.Cells {
				if _, ok := sampler.maxChars[c.Col]; !ok {
					sampler.maxChars[c.Col] = 0
				}
			}
		}
		if err := enc.encodeRow(row); err != nil {
			return sheetSpool{}, err
		}
		rowCount++
	}
	if err := enc.Flush(); err != nil {
		return sheetSpool{}, err
	}
	return sheetSpool{spec: sh, spoolPath: spoolFile.Name(), rowCount: rowCount, widths: sampler}, nil
}

func writeWorkbookXML(zs *ooxml.ZipStorage, spec WorkbookSpec, sheets []sheetSpool, sheetRIDs []string, xmlCfg xml.WriterConfig) error {
	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("workbook")
	x.Attr("xmlns", ooxml.MainNS)
	x.Attr("xmlns:r", ooxml.RelNS)

	x.OTag("+workbookPr")
	if spec.Date1904 {
		x.Attr("date1904", "1")
	}
	x.CTag()

	x.OTag("+sheets")
	for i, s := range sheets {
		x.OTag("+sheet")
		x.Attr("name", string(s.spec.Name))
		x.Attr("sheetId", i+1)
		x.Attr("r:id", sheetRIDs[i])
		x.CTag()
	}
	x.CTag()

	if len(spec.DefinedNames) > 0 {
		x.OTag("+definedNames")
		for _, n := range sortedStringKeys(spec.DefinedNames) {
			x.OTag("+definedName").Attr("name", n)
			x.Write(spec.DefinedNames[n])
			x.CTag()
		}
		x.CTag()
	}

	x.CTag() // workbook
	return zs.WriteBlob("/xl/workbook.xml", bb.Bytes())
}

func writeSharedStrings(zs *ooxml.ZipStorage, sst *sstBuilder, workbookRels map[string]ooxml.RelInfo, partContentTypes map[string]string, workbookID *idGen, xmlCfg xml.WriterConfig) error {
	const relpath = "sharedStrings.xml"
	const abspath = "/xl/" + relpath
	partContentTypes[abspath] = ooxml.ContentTypeSharedStrings
	workbookRels[workbookID.next()] = ooxml.RelInfo{Type: ooxml.RelTypeSharedStrings, Target: relpath}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("sst")
	x.Attr("xmlns", ooxml.MainNS)
	x.Attr("count", int(sst.count))
	x.Attr("uniqueCount", int(sst.count))
	if err := sst.each(func(s string) error {
		x.OTag("+si")
		x.OTag("t").Write(s).CTag()
		x.CTag()
		return nil
	}); err != nil {
		return err
	}
	x.CTag()
	return zs.WriteBlob(abspath, bb.Bytes())
}

// emitWorksheet is phase 2 for one sheet: replay its spool file, ascending
// row order, emitting xl/worksheets/{name}.xml directly to the archive entry
// via ooxml.StreamStorage so the part's bytes never accumulate beyond one
// row's XML at a time.
func emitWorksheet(zs *ooxml.ZipStorage, wb WorkbookSpec, s sheetSpool, workbookRels map[string]ooxml.RelInfo, partContentTypes map[string]string, xmlCfg xml.WriterConfig, cfg StreamWriterConfig) error {
	relpath := "worksheets/" + string(s.spec.Name) + ".xml"
	abspath := "/xl/" + relpath
	partContentTypes[abspath] = ooxml.ContentTypeWorksheet

	entry, err := zs.CreateEntry(abspath)
	if err != nil {
		return err
	}
	defer entry.Close()

	x := xml.NewWriter(entry, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("worksheet")
	x.Attr("xmlns", ooxml.MainNS)
	x.Attr("xmlns:r", ooxml.RelNS)

	writeCols(x, s, cfg)

	spoolFile, err := os.Open(s.spoolPath)
	if err != nil {
		return err
	}
	defer spoolFile.Close()
	dec := newRowDecoder(spoolFile)

	x.OTag("+sheetData")
	for i := 0; i < s.rowCount; i++ {
		row, cells, err := dec.decodeRow()
		if err != nil {
			return fmt.Errorf("streaming: sheet %q: reading spooled row %d: %w", s.spec.Name, i, err)
		}
		sort.Slice(cells, func(a, b int) bool { return cells[a].Col < cells[b].Col })
		x.OTag("+row").Attr("r", int(row)+1)
		for _, c := range cells {
			writeWireCell(x, row, c, wb.Date1904)
		}
		x.CTag() // row
	}
	x.CTag() // sheetData

	merges := s.spec.Merges
	if len(merges) > 0 {
		x.OTag("+mergeCells").Attr("count", len(merges))
		for _, m := range merges {
			x.OTag("+mergeCell").Attr("ref", m.String()).CTag()
		}
		x.CTag()
	}

	if fp := s.spec.FreezePane; fp != nil {
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

	x.CTag() // worksheet
	return nil
}

func writeCols(x *xml.Writer, s sheetSpool, cfg StreamWriterConfig) {
	cols := map[model.Column]model.ColumnProps{}
	for c, p := range s.spec.ColProps {
		cols[c] = p
	}
	switch cfg.ColumnWidth {
	case ColumnWidthFixed:
		for c := range s.widths.maxChars {
			if _, ok := cols[c]; !ok {
				w := cfg.FixedColumnWidth
				cols[c] = model.ColumnProps{Width: &w}
			}
		}
	case ColumnWidthAutoFitFromSample:
		for c := range s.widths.maxChars {
			if _, ok := cols[c]; !ok {
				w := s.widths.width(c)
				cols[c] = model.ColumnProps{Width: &w}
			}
		}
	}
	if len(cols) == 0 {
		return
	}
	columns := maps.Keys(cols)
	slices.Sort(columns)
	x.OTag("+cols")
	for _, col := range columns {
		p := cols[col]
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

func writeWireCell(x *xml.Writer, row model.Row, c wireCell, date1904 bool) {
	ref := model.ARef{Col: c.Col, Row: row}
	x.OTag("+c").Attr("r", ref.ToA1())
	if c.HasStyle {
		x.Attr("s", int(c.StyleID)+1)
	}

	v := c.Value
	if v.Kind == model.KindFormula {
		x.OTag("f").Write(v.FormulaText).CTag()
		if v.HasCached {
			writeCachedWireValue(x, *v.Cached, date1904)
		}
		x.CTag()
		return
	}
	writeScalarWireValue(x, v, date1904)
	x.CTag()
}

func writeScalarWireValue(x *xml.Writer, v wireValue, date1904 bool) {
	switch v.Kind {
	case model.KindEmpty:
	case model.KindNumber:
		x.OTag("v").Write(formatFloat(v.Number)).CTag()
	case model.KindBool:
		x.Attr("t", "b")
		x.OTag("v").Write(boolDigit(v.Bool)).CTag()
	case model.KindError:
		x.Attr("t", "e")
		x.OTag("v").Write(v.ErrKind).CTag()
	case model.KindDateTime:
		t := time.Unix(0, v.DateNano).UTC()
		x.OTag("v").Write(formatFloat(ooxml.DateToSerial(t, date1904))).CTag()
	case model.KindText:
		if v.UseSST {
			x.Attr("t", "s")
			x.OTag("v").Write(int(v.SSTIndex)).CTag()
		} else {
			x.Attr("t", "inlineStr")
			x.OTag("+is")
			x.OTag("t").Write(v.Text).CTag()
			x.CTag()
		}
	}
}

func writeCachedWireValue(x *xml.Writer, v wireValue, date1904 bool) {
	switch v.Kind {
	case model.KindNumber:
		x.OTag("v").Write(formatFloat(v.Number)).CTag()
	case model.KindBool:
		x.Attr("t", "b")
		x.OTag("v").Write(boolDigit(v.Bool)).CTag()
	case model.KindError:
		x.Attr("t", "e")
		x.OTag("v").Write(v.ErrKind).CTag()
	case model.KindDateTime:
		t := time.Unix(0, v.DateNano).UTC()
		x.OTag("v").Write(formatFloat(ooxml.DateToSerial(t, date1904))).CTag()
	case model.KindText:
		x.Attr("t", "str")
		if v.UseSST {
			x.OTag("v").Write(int(v.SSTIndex)).CTag()
		} else {
			x.OTag("v").Write(v.Text).CTag()
		}
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func sortedStringKeys(m map[string]string) []string {
	out := maps.Keys(m)
	slices.Sort(out)
	return out
}
