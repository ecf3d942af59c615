package ooxml

import (
	"github.com/adnsv/xlpatch/model"
)

// styleTables is the workbook-wide, deduplicated style tables a Writer
// assembles from every sheet's per-sheet model.StyleRegistry before emitting
// xl/styles.xml. Each sheet keeps its own locally-numbered registry (per
// model/registry.go); the writer re-numbers every distinct style into one
// shared cellXfs table so a single styles.xml serves every worksheet part.
type styleTables struct {
	fonts     []model.Font
	fontIndex map[model.Font]int

	fills     []model.Fill
	fillIndex map[model.Fill]int

	borders     []model.Border
	borderIndex map[model.Border]int

	customFormats   []string
	customFormatIDs map[string]int // code -> numFmtId (164+)

	xfs     []resolvedXF
	xfIndex map[string]int // CellStyle.CanonicalKey() -> index into xfs

	// perSheetLocalToGlobal[sheetName][localStyleID] = global cellXfs index
	// (0-based; the writer adds 1 when emitting "s", since cellXfs[0] is the
	// always-present default style).
	perSheetLocalToGlobal map[model.SheetName][]int
}

type resolvedXF struct {
	NumFmtID  int
	FontID    int
	FillID    int
	BorderID  int
	Alignment model.Alignment
}

func newStyleTables() *styleTables {
	return &styleTables{
		fontIndex:             map[model.Font]int{},
		fillIndex:             map[model.Fill]int{},
		borderIndex:           map[model.Border]int{},
		customFormatIDs:       map[string]int{},
		xfIndex:               map[string]int{},
		perSheetLocalToGlobal: map[model.SheetName][]int{},
	}
}

func (t *styleTables) registerFont(f model.Font) int {
	if i, ok := t.fontIndex[f]; ok {
		return i
	}
	i := len(t.fonts)
	t.fonts = append(t.fonts, f)
	t.fontIndex[f] = i
	return i
}

func (t *styleTables) registerFill(f model.Fill) int {
	if i, ok := t.fillIndex[f]; ok {
		return i
	}
	i := len(t.fills)
	t.fills = append(t.fills, f)
	t.fillIndex[f] = i
	return i
}

func (t *styleTables) registerBorder(b model.Border) int {
	if i, ok := t.borderIndex[b]; ok {
		return i
	}
	i := len(t.borders)
	t.borders = append(t.borders, b)
	t.borderIndex[b] = i
	return i
}

func (t *styleTables) numFmtID(n model.NumFmt) int {
	if n.Code != model.NumFmtCustom {
		return n.ID()
	}
	if id, ok := t.customFormatIDs[n.CustomCode]; ok {
		return id
	}
	id := 164 + len(t.customFormats)
	t.customFormats = append(t.customFormats, n.CustomCode)
	t.customFormatIDs[n.CustomCode] = id
	return id
}

// addSheet folds sh's local style registry into the shared tables, recording
// the local->global index mapping for use while emitting sh's cells.
func (t *styleTables) addSheet(sh *model.Sheet) {
	reg := sh.Styles()
	all := reg.All()
	mapping := make([]int, len(all))
	for localID, style := range all {
		key := style.CanonicalKey()
		if gi, ok := t.xfIndex[key]; ok {
			mapping[localID] = gi
			continue
		}
		xf := resolvedXF{
			NumFmtID:  t.numFmtID(style.NumFmt),
			FontID:    t.registerFont(style.Font),
			FillID:    t.registerFill(style.Fill),
			BorderID:  t.registerBorder(style.Border),
			Alignment: style.Alignment,
		}
		gi := len(t.xfs)
		t.xfs = append(t.xfs, xf)
		t.xfIndex[key] = gi
		mapping[localID] = gi
	}
	t.perSheetLocalToGlobal[sh.Name()] = mapping
}

// globalStyleIndex resolves a sheet-local style id to the 1-based index used
// in a cell's "s" attribute (0 means "no explicit style").
func (t *styleTables) globalStyleIndex(sheet model.SheetName, local model.StyleID) int {
	mapping := t.perSheetLocalToGlobal[sheet]
	if int(local) < 0 || int(local) >= len(mapping) {
		return 0
	}
	return mapping[local] + 1
}

