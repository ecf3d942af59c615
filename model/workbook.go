package model

import "fmt"

// DuplicateSheetError reports an AddSheet/RenameSheet call that would
// produce two sheets with the same name.
type DuplicateSheetError struct{ Name string }

func (e *DuplicateSheetError) Error() string { return fmt.Sprintf("duplicate sheet name %q", e.Name) }

// SheetNotFoundError reports a reference to a sheet name the workbook does
// not contain.
type SheetNotFoundError struct{ Name string }

func (e *SheetNotFoundError) Error() string { return fmt.Sprintf("sheet %q not found", e.Name) }

// WorkbookMetadata carries workbook-level fields. Date1904 and VBAProject
// round-trip through the OOXML reader and writer; AppName, Creator and Title
// are neither read from nor written to the package.
type WorkbookMetadata struct {
	AppName string
	Creator string
	Title   string

	// Date1904 selects the epoch used to interpret date serial numbers; most
	// files use the 1900 system (false).
	Date1904 bool

	// VBAProject is the raw xl/vbaProject.bin blob for macro-enabled
	// workbooks, carried through read/write verbatim. Nil for non-macro
	// workbooks.
	VBAProject []byte
}

// Workbook is an immutable ordered sequence of uniquely named sheets with an
// active-sheet index. Every mutating method returns a new *Workbook.
type Workbook struct {
	sheets   []*Sheet
	active   int
	metadata WorkbookMetadata

	// DefinedNames maps a workbook-scoped name to its reference text (e.g.
	// "Sheet1!$A$1:$A$10"). The formula parser turns a bare name into a
	// NameRef node; the evaluator resolves it against this map.
	definedNames map[string]string
}

// NewWorkbook returns an empty workbook (no sheets, active index 0).
func NewWorkbook() *Workbook {
	return &Workbook{definedNames: map[string]string{}}
}

// Sheets returns the workbook's sheets in order.
func (w *Workbook) Sheets() []*Sheet { return append([]*Sheet(nil), w.sheets...) }

// ActiveSheetIndex returns the active sheet's index.
func (w *Workbook) ActiveSheetIndex() int { return w.active }

// Metadata returns the workbook's metadata.
func (w *Workbook) Metadata() WorkbookMetadata { return w.metadata }

// DefinedNames returns the workbook's defined names.
func (w *Workbook) DefinedNames() map[string]string {
	out := make(map[string]string, len(w.definedNames))
	for k, v := range w.definedNames {
		out[k] = v
	}
	return out
}

func (w *Workbook) clone() *Workbook {
	n := &Workbook{
		sheets:       append([]*Sheet(nil), w.sheets...),
		active:       w.active,
		metadata:     w.metadata,
		definedNames: make(map[string]string, len(w.definedNames)),
	}
	for k, v := range w.definedNames {
		n.definedNames[k] = v
	}
	return n
}

func (w *Workbook) indexOf(name SheetName) int {
	for i, sh := range w.sheets {
		if sh.Name() == name {
			return i
		}
	}
	return -1
}

// Sheet returns the sheet named name, or an error if none exists.
func (w *Workbook) Sheet(name SheetName) (*Sheet, error) {
	if i := w.indexOf(name); i >= 0 {
		return w.sheets[i], nil
	}
	return nil, &SheetNotFoundError{Name: string(name)}
}

// AddSheet returns a new workbook with sh appended at the end.
func (w *Workbook) AddSheet(sh *Sheet) (*Workbook, error) {
	return w.AddSheetAt(sh, len(w.sheets))
}

// AddSheetAt returns a new workbook with sh inserted at index i.
func (w *Workbook) AddSheetAt(sh *Sheet, i int) (*Workbook, error) {
	if w.indexOf(sh.Name()) >= 0 {
		return nil, &DuplicateSheetError{Name: string(sh.Name())}
	}
	if i < 0 || i > len(w.sheets) {
		i = len(w.sheets)
	}
	n := w.clone()
	n.sheets = append(n.sheets[:i:i], append([]*Sheet{sh}, n.sheets[i:]...)...)
	return n, nil
}

// Put replaces (or adds, if absent) the sheet named name with sh.
func (w *Workbook) Put(name SheetName, sh *Sheet) (*Workbook, error) {
	i := w.indexOf(name)
	if i < 0 {
		return w.AddSheet(sh)
	}
	n := w.clone()
	n.sheets[i] = sh
	return n, nil
}

// RenameSheet returns a new workbook with the sheet named from renamed to
// to. Fails if from does not exist or to collides with another sheet.
func (w *Workbook) RenameSheet(from, to SheetName) (*Workbook, error) {
	i := w.indexOf(from)
	if i < 0 {
		return nil, &SheetNotFoundError{Name: string(from)}
	}
	if from != to && w.indexOf(to) >= 0 {
		return nil, &DuplicateSheetError{Name: string(to)}
	}
	n := w.clone()
	renamed := *n.sheets[i]
	renamed.name = to
	n.sheets[i] = &renamed
	return n, nil
}

// DeleteSheet returns a new workbook without the sheet named name. Rejects
// deleting the last remaining sheet.
func (w *Workbook) DeleteSheet(name SheetName) (*Workbook, error) {
	i := w.indexOf(name)
	if i < 0 {
		return nil, &SheetNotFoundError{Name: string(name)}
	}
	if len(w.sheets) <= 1 {
		return nil, fmt.Errorf("cannot delete the last remaining sheet")
	}
	n := w.clone()
	n.sheets = append(n.sheets[:i:i], n.sheets[i+1:]...)
	if n.active >= len(n.sheets) {
		n.active = len(n.sheets) - 1
	}
	return n, nil
}

// Activate returns a new workbook with the active sheet index set to i.
func (w *Workbook) Activate(i int) (*Workbook, error) {
	if i < 0 || i >= len(w.sheets) {
		return nil, fmt.Errorf("activate: index %d out of range [0,%d)", i, len(w.sheets))
	}
	n := w.clone()
	n.active = i
	return n, nil
}

// WithMetadata returns a new workbook with metadata replaced.
func (w *Workbook) WithMetadata(m WorkbookMetadata) *Workbook {
	n := w.clone()
	n.metadata = m
	return n
}

// WithDefinedName returns a new workbook with name bound to ref.
func (w *Workbook) WithDefinedName(name, ref string) *Workbook {
	n := w.clone()
	n.definedNames[name] = ref
	return n
}
