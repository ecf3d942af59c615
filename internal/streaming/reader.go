package streaming

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/xlpatch/internal/ooxml"
	"github.com/adnsv/xlpatch/model"
)

// Reader is the pull-based streaming reader (C12): it parses the
// shared-strings and styles tables up front (small, bounded by distinct
// style/string count) and resolves every worksheet part via relationships,
// exactly as internal/ooxml.Read does, but never materializes a worksheet's
// rows in memory — OpenSheet hands back a SheetReader that scans
// encoding/xml tokens one <row> at a time. Grounded on
// TsubasaBE-go-xlsb/record/reader.go's Next()-style pull iterator, adapted
// from binary BIFF12 records to XML tokens.
type Reader struct {
	zr *zip.ReadCloser

	sst       []string
	styles    *model.StyleRegistry
	byXfIndex []model.StyleID
	date1904  bool

	sheetParts   map[model.SheetName]string
	sheetOrder   []model.SheetName
	definedNames map[string]string
}

// Open parses path's SST, styles, and workbook structure, and returns a
// Reader ready to stream individual sheets via OpenSheet.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}

	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files["/"+strings.TrimPrefix(f.Name, "/")] = f
	}

	r := &Reader{zr: zr, sheetParts: map[model.SheetName]string{}, definedNames: map[string]string{}}
	if err := r.init(files); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) init(files map[string]*zip.File) error {
	globalRels, err := readRelsFromFiles(files, "/_rels/.rels")
	if err != nil {
		return err
	}
	var workbookPart string
	for _, rel := range globalRels {
		if rel.Type == ooxml.RelTypeOfficeDocument {
			workbookPart = "/" + strings.TrimPrefix(rel.Target, "/")
		}
	}
	if workbookPart == "" || files[workbookPart] == nil {
		return fmt.Errorf("streaming: package has no workbook part")
	}

	var wbXML workbookRootXML
	if err := decodeXMLFile(files, workbookPart, &wbXML); err != nil {
		return err
	}
	r.date1904 = wbXML.WorkbookPr.Date1904
	for _, n := range wbXML.DefinedNames {
		r.definedNames[n.Name] = strings.TrimSpace(n.Value)
	}

	workbookDir := partDir(workbookPart)
	workbookRelsPart := workbookDir + "_rels/" + partBase(workbookPart) + ".rels"
	workbookRels, err := readRelsFromFiles(files, workbookRelsPart)
	if err != nil {
		return err
	}

	var sstPart, stylesPart string
	for _, rel := range workbookRels {
		target := resolveTarget(workbookDir, rel.Target)
		switch rel.Type {
		case ooxml.RelTypeSharedStrings:
			sstPart = target
		case ooxml.RelTypeStyles:
			stylesPart = target
		}
	}

	if sstPart != "" {
		var sstXML sstRootXML
		if err := decodeXMLFile(files, sstPart, &sstXML); err != nil {
			return err
		}
		r.sst = make([]string, len(sstXML.SI))
		for i, si := range sstXML.SI {
			r.sst[i] = si.text()
		}
	}

	if stylesPart != "" {
		f, ok := files[stylesPart]
		if !ok {
			return fmt.Errorf("streaming: styles part %q not found", stylesPart)
		}
		blob, err := readZipFile(f)
		if err != nil {
			return err
		}
		reg, byXf, err := ooxml.DecodeStyleRegistry(blob)
		if err != nil {
			return err
		}
		r.styles, r.byXfIndex = reg, byXf
	}

	for _, sheetRef := range wbXML.Sheets {
		rel, ok := workbookRels[sheetRef.RID]
		if !ok {
			return fmt.Errorf("streaming: sheet %q has no matching relationship %q", sheetRef.Name, sheetRef.RID)
		}
		name, err := model.ValidateSheetName(sheetRef.Name)
		if err != nil {
			return err
		}
		part := resolveTarget(workbookDir, rel.Target)
		r.sheetParts[name] = part
		r.sheetOrder = append(r.sheetOrder, name)
	}
	return nil
}

// Date1904 reports the workbook's declared epoch system, needed to interpret
// a streamed RowData's numeric date serials.
func (r *Reader) Date1904() bool { return r.date1904 }

// Styles returns the package-wide style registry decoded from styles.xml.
func (r *Reader) Styles() *model.StyleRegistry { return r.styles }

// DefinedNames returns the workbook-level defined names.
func (r *Reader) DefinedNames() map[string]string { return r.definedNames }

// SheetNames returns sheet names in workbook order.
func (r *Reader) SheetNames() []model.SheetName { return append([]model.SheetName(nil), r.sheetOrder...) }

// Close releases the underlying archive and every open SheetReader derived
// from it.
func (r *Reader) Close() error { return r.zr.Close() }

// SheetReader pulls one sheet's rows in ascending row order, one <row>
// element at a time.
type SheetReader struct {
	rc     io.ReadCloser
	dec    *xml.Decoder
	parent *Reader
}

// OpenSheet returns a pull-based reader over name's rows. The caller must
// call Close when done, which releases the underlying zip entry reader
// (spec.md §5's cancellation contract: closing mid-stream must not leak the
// archive reader or XML scanner).
func (r *Reader) OpenSheet(name model.SheetName) (*SheetReader, error) {
	part, ok := r.sheetParts[name]
	if !ok {
		return nil, fmt.Errorf("streaming: sheet %q not found", name)
	}
	f, ok := findZipFile(r.zr.File, part)
	if !ok {
		return nil, fmt.Errorf("streaming: worksheet part %q not found", part)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	return &SheetReader{rc: rc, dec: xml.NewDecoder(rc), parent: r}, nil
}

// Close releases the zip entry reader. Safe to call after Next has returned
// io.EOF.
func (sr *SheetReader) Close() error { return sr.rc.Close() }

// Next scans forward to the next <row> element and decodes it, returning
// io.EOF once the worksheet part is exhausted. Rows are visited in the
// order they appear in the XML, which ECMA-376 requires to be ascending by
// row index for a conformant producer (this library's own writer
// guarantees it; a hostile or malformed input is not re-sorted).
func (sr *SheetReader) Next() (RowData, error) {
	for {
		tok, err := sr.dec.Token()
		if err == io.EOF {
			return RowData{}, io.EOF
		}
		if err != nil {
			return RowData{}, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var rowXML rowElemXML
		if err := sr.dec.DecodeElement(&rowXML, &se); err != nil {
			return RowData{}, err
		}
		return sr.parent.convertRow(rowXML)
	}
}

func (r *Reader) convertRow(rowXML rowElemXML) (RowData, error) {
	row := RowData{Row: model.Row(rowXML.R - 1)}
	for _, c := range rowXML.C {
		ref, err := model.ParseARef(c.R)
		if err != nil {
			return RowData{}, fmt.Errorf("streaming: invalid cell reference %q: %w", c.R, err)
		}
		v, err := r.cellValue(c)
		if err != nil {
			return RowData{}, err
		}
		cd := CellData{Col: ref.Col, Value: v}
		if c.S > 0 && c.S < len(r.byXfIndex) {
			if id := r.byXfIndex[c.S]; id >= 0 {
				cd.HasStyle = true
				cd.StyleID = id
			}
		}
		row.Cells = append(row.Cells, cd)
	}
	return row, nil
}

func (r *Reader) cellValue(c cellElemXML) (model.CellValue, error) {
	if c.F != nil {
		fv := model.Formula(*c.F)
		if c.V != nil || c.T == "str" || c.T == "e" || c.T == "b" {
			cached, err := r.scalarValue(c)
			if err != nil {
				return model.CellValue{}, err
			}
			fv = fv.WithCached(cached)
		}
		return fv, nil
	}
	return r.scalarValue(c)
}

func (r *Reader) scalarValue(c cellElemXML) (model.CellValue, error) {
	v := ""
	if c.V != nil {
		v = *c.V
	}
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(v)
		if err != nil {
			return model.CellValue{}, fmt.Errorf("streaming: invalid shared string index %q: %w", v, err)
		}
		if idx < 0 || idx >= len(r.sst) {
			return model.CellValue{}, fmt.Errorf("streaming: shared string index %d out of range", idx)
		}
		return model.Text(r.sst[idx]), nil
	case "inlineStr":
		if c.Is != nil {
			return model.Text(c.Is.T), nil
		}
		return model.Text(""), nil
	case "str":
		return model.Text(v), nil
	case "b":
		return model.Bool(v == "1"), nil
	case "e":
		return model.Error(model.ErrorKind(v)), nil
	case "d":
		t, err := parseISODate(v)
		if err != nil {
			return model.CellValue{}, err
		}
		return model.DateTime(t), nil
	case "", "n":
		if v == "" {
			return model.Empty(), nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return model.CellValue{}, fmt.Errorf("streaming: invalid numeric cell value %q: %w", v, err)
		}
		return model.Number(n), nil
	default:
		return model.CellValue{}, fmt.Errorf("streaming: unrecognized cell type %q", c.T)
	}
}

// --- minimal standalone XML schema + zip/part helpers, grounded on
// internal/ooxml/xmlschema.go and reader.go's relationship-driven part
// resolution, duplicated here (rather than exported from ooxml) because the
// streaming reader scans the worksheet part token-by-token through its own
// xml.Decoder instead of ooxml's whole-blob decodeXML helper. ---

type relationshipsRootXML struct {
	XMLName       xml.Name           `xml:"Relationships"`
	Relationships []relationshipRowXML `xml:"Relationship"`
}

type relationshipRowXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type workbookRootXML struct {
	XMLName      xml.Name             `xml:"workbook"`
	WorkbookPr   workbookPrRootXML    `xml:"workbookPr"`
	Sheets       []sheetRefRootXML    `xml:"sheets>sheet"`
	DefinedNames []definedNameRootXML `xml:"definedNames>definedName"`
}

type workbookPrRootXML struct {
	Date1904 bool `xml:"date1904,attr"`
}

type sheetRefRootXML struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"id,attr"`
}

type definedNameRootXML struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type sstRootXML struct {
	XMLName xml.Name   `xml:"sst"`
	SI      []siRootXML `xml:"si"`
}

type siRootXML struct {
	T  string       `xml:"t"`
	Rs []runRootXML `xml:"r"`
}

type runRootXML struct {
	T string `xml:"t"`
}

func (si siRootXML) text() string {
	if len(si.Rs) > 0 {
		var sb []byte
		for _, r := range si.Rs {
			sb = append(sb, r.T...)
		}
		return string(sb)
	}
	return si.T
}

type rowElemXML struct {
	R int           `xml:"r,attr"`
	C []cellElemXML `xml:"c"`
}

type cellElemXML struct {
	R  string             `xml:"r,attr"`
	T  string             `xml:"t,attr"`
	S  int                `xml:"s,attr"`
	F  *string            `xml:"f"`
	V  *string            `xml:"v"`
	Is *inlineStrElemXML  `xml:"is"`
}

type inlineStrElemXML struct {
	T string `xml:"t"`
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func findZipFile(files []*zip.File, part string) (*zip.File, bool) {
	target := strings.TrimPrefix(part, "/")
	for _, f := range files {
		if strings.TrimPrefix(f.Name, "/") == target {
			return f, true
		}
	}
	return nil, false
}

func decodeXMLFile(files map[string]*zip.File, part string, v any) error {
	f, ok := files[part]
	if !ok {
		return fmt.Errorf("streaming: part %q not found", part)
	}
	blob, err := readZipFile(f)
	if err != nil {
		return err
	}
	return xml.NewDecoder(strings.NewReader(string(blob))).Decode(v)
}

func readRelsFromFiles(files map[string]*zip.File, part string) (map[string]ooxml.RelInfo, error) {
	if _, ok := files[part]; !ok {
		return map[string]ooxml.RelInfo{}, nil
	}
	var parsed relationshipsRootXML
	if err := decodeXMLFile(files, part, &parsed); err != nil {
		return nil, err
	}
	out := make(map[string]ooxml.RelInfo, len(parsed.Relationships))
	for _, rel := range parsed.Relationships {
		out[rel.ID] = ooxml.RelInfo{Type: rel.Type, Target: rel.Target}
	}
	return out, nil
}

func partDir(part string) string {
	i := strings.LastIndex(part, "/")
	if i < 0 {
		return "/"
	}
	return part[:i+1]
}

func partBase(part string) string {
	i := strings.LastIndex(part, "/")
	return part[i+1:]
}

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

// parseISODate decodes the rare t="d" cell form, an ISO-8601 date/time
// string used instead of a numeric serial.
func parseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
