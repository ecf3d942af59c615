package model

import "fmt"

// ColumnProps holds per-column display properties.
type ColumnProps struct {
	Width  *float64
	Hidden bool
}

// RowProps holds per-row display properties.
type RowProps struct {
	Height *float64
	Hidden bool
}

// Cell is a read-only view combining a sheet's stored value, style,
// comment, and hyperlink for one reference. It is produced by Sheet.Cell
// and is not itself part of the sheet's storage (which keeps these as
// separate maps, per the data model).
type Cell struct {
	Ref       ARef
	Value     CellValue
	StyleID   *StyleID
	Comment   *Comment
	Hyperlink *Hyperlink
}

// Sheet is an immutable worksheet: every mutating method returns a new
// *Sheet, leaving the receiver (and anyone else holding it) untouched.
// Immutability is implemented by copy-on-write cloning of the backing maps,
// the systems-language substitute for a persistent data structure noted in
// spec.md's design notes.
type Sheet struct {
	name SheetName

	cells      map[ARef]CellValue
	styleIDs   map[ARef]StyleID
	merges     []CellRange
	colProps   map[Column]ColumnProps
	rowProps   map[Row]RowProps
	comments   map[ARef]Comment
	hyperlinks map[ARef]Hyperlink

	defaultColWidth  *float64
	defaultRowHeight *float64

	styles *StyleRegistry

	freezePane *FreezePane
	protection *SheetProtection
	charts     []ChartSpec
}

// NewSheet creates an empty sheet with the given validated name.
func NewSheet(name SheetName) *Sheet {
	return &Sheet{
		name:       name,
		cells:      map[ARef]CellValue{},
		styleIDs:   map[ARef]StyleID{},
		colProps:   map[Column]ColumnProps{},
		rowProps:   map[Row]RowProps{},
		comments:   map[ARef]Comment{},
		hyperlinks: map[ARef]Hyperlink{},
		styles:     NewStyleRegistry(),
	}
}

// Name returns the sheet's name.
func (s *Sheet) Name() SheetName { return s.name }

// Styles returns the sheet's style registry.
func (s *Sheet) Styles() *StyleRegistry { return s.styles }

// FreezePane returns the sheet's freeze-pane setting, or nil.
func (s *Sheet) FreezePane() *FreezePane { return s.freezePane }

// Protection returns the sheet's protection state, or nil.
func (s *Sheet) Protection() *SheetProtection { return s.protection }

// Charts returns the sheet's structural chart specifications.
func (s *Sheet) Charts() []ChartSpec { return append([]ChartSpec(nil), s.charts...) }

// clone performs a shallow-per-map copy suitable as the basis for a single
// mutation; callers then mutate the copies directly before returning them
// in a new *Sheet.
func (s *Sheet) clone() *Sheet {
	n := &Sheet{
		name:             s.name,
		cells:            make(map[ARef]CellValue, len(s.cells)),
		styleIDs:         make(map[ARef]StyleID, len(s.styleIDs)),
		merges:           append([]CellRange(nil), s.merges...),
		colProps:         make(map[Column]ColumnProps, len(s.colProps)),
		rowProps:         make(map[Row]RowProps, len(s.rowProps)),
		comments:         make(map[ARef]Comment, len(s.comments)),
		hyperlinks:       make(map[ARef]Hyperlink, len(s.hyperlinks)),
		defaultColWidth:  s.defaultColWidth,
		defaultRowHeight: s.defaultRowHeight,
		styles:           s.styles,
		freezePane:       s.freezePane,
		protection:       s.protection,
		charts:           append([]ChartSpec(nil), s.charts...),
	}
	for k, v := range s.cells {
		n.cells[k] = v
	}
	for k, v := range s.styleIDs {
		n.styleIDs[k] = v
	}
	for k, v := range s.colProps {
		n.colProps[k] = v
	}
	for k, v := range s.rowProps {
		n.rowProps[k] = v
	}
	for k, v := range s.comments {
		n.comments[k] = v
	}
	for k, v := range s.hyperlinks {
		n.hyperlinks[k] = v
	}
	return n
}

// Cell returns the combined read-only view of the cell at ref.
func (s *Sheet) Cell(ref ARef) Cell {
	c := Cell{Ref: ref, Value: s.cells[ref]}
	if id, ok := s.styleIDs[ref]; ok {
		id := id
		c.StyleID = &id
	}
	if cm, ok := s.comments[ref]; ok {
		cm := cm
		c.Comment = &cm
	}
	if hl, ok := s.hyperlinks[ref]; ok {
		hl := hl
		c.Hyperlink = &hl
	}
	return c
}

// Cells returns every populated ARef (cell, comment, or hyperlink present)
// without guaranteed order; callers that need row-major order should sort.
func (s *Sheet) Cells() []ARef {
	seen := make(map[ARef]bool, len(s.cells))
	out := make([]ARef, 0, len(s.cells))
	for ref := range s.cells {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	for ref := range s.comments {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	for ref := range s.hyperlinks {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

// Put returns a new sheet with ref set to value.
func (s *Sheet) Put(ref ARef, value CellValue) *Sheet {
	n := s.clone()
	n.cells[ref] = value
	return n
}

// PutWithStyle returns a new sheet with ref set to value and registers (or
// reuses) style in the sheet's registry.
func (s *Sheet) PutWithStyle(ref ARef, value CellValue, style CellStyle) *Sheet {
	n := s.clone()
	n.cells[ref] = value
	reg, id := n.styles.Register(style)
	n.styles = reg
	n.styleIDs[ref] = id
	return n
}

// StyleCell returns a new sheet with style merged onto ref's current style
// (or the default style if unset) and registered.
func (s *Sheet) StyleCell(ref ARef, style CellStyle, replace bool) *Sheet {
	n := s.clone()
	base := CellStyle{}
	if id, ok := n.styleIDs[ref]; ok {
		if existing, ok := n.styles.Style(id); ok {
			base = existing
		}
	}
	merged := style
	if !replace {
		merged = Merge(base, style)
	}
	reg, id := n.styles.Register(merged)
	n.styles = reg
	n.styleIDs[ref] = id
	return n
}

// StyleRange applies StyleCell to every cell in r.
func (s *Sheet) StyleRange(r CellRange, style CellStyle, replace bool) *Sheet {
	n := s
	r.Cells(func(ref ARef) bool {
		n = n.StyleCell(ref, style, replace)
		return true
	})
	return n
}

// Merge returns a new sheet with r added to the merged ranges. It does not
// itself reject overlapping merges; callers of Apply (patch.go) get that
// validation there, which is where spec.md's invariant is enforced atomically
// against the rest of a batch.
func (s *Sheet) Merge(r CellRange) *Sheet {
	n := s.clone()
	n.merges = append(n.merges, r)
	return n
}

// Unmerge removes any merged range exactly equal to r.
func (s *Sheet) Unmerge(r CellRange) *Sheet {
	n := s.clone()
	out := n.merges[:0:0]
	for _, m := range n.merges {
		if m != r {
			out = append(out, m)
		}
	}
	n.merges = out
	return n
}

// MergedRanges returns the sheet's merged ranges.
func (s *Sheet) MergedRanges() []CellRange { return append([]CellRange(nil), s.merges...) }

// OverlapsAnyMerge reports whether r intersects any existing merged range.
func (s *Sheet) OverlapsAnyMerge(r CellRange) bool {
	for _, m := range s.merges {
		if m.Intersects(r) {
			return true
		}
	}
	return false
}

// ClearContents clears cell values (to Empty) across r, and unmerges any
// merged range that intersects r (spec.md §4.4).
func (s *Sheet) ClearContents(r CellRange) *Sheet {
	n := s.clone()
	r.Cells(func(ref ARef) bool {
		delete(n.cells, ref)
		return true
	})
	kept := n.merges[:0:0]
	for _, m := range n.merges {
		if !m.Intersects(r) {
			kept = append(kept, m)
		}
	}
	n.merges = kept
	return n
}

// ClearStyles removes style assignments across r.
func (s *Sheet) ClearStyles(r CellRange) *Sheet {
	n := s.clone()
	r.Cells(func(ref ARef) bool {
		delete(n.styleIDs, ref)
		return true
	})
	return n
}

// ClearComments removes comments across r.
func (s *Sheet) ClearComments(r CellRange) *Sheet {
	n := s.clone()
	r.Cells(func(ref ARef) bool {
		delete(n.comments, ref)
		return true
	})
	return n
}

// AddComment attaches a comment to ref, creating an Empty cell entry if one
// did not already exist so that comments stay a subset of cells.
func (s *Sheet) AddComment(ref ARef, c Comment) *Sheet {
	n := s.clone()
	if _, ok := n.cells[ref]; !ok {
		n.cells[ref] = Empty()
	}
	n.comments[ref] = c
	return n
}

// RemoveComment detaches any comment at ref.
func (s *Sheet) RemoveComment(ref ARef) *Sheet {
	n := s.clone()
	delete(n.comments, ref)
	return n
}

// SetHyperlink attaches a hyperlink to ref.
func (s *Sheet) SetHyperlink(ref ARef, h Hyperlink) *Sheet {
	n := s.clone()
	n.hyperlinks[ref] = h
	return n
}

// RemoveHyperlink detaches any hyperlink at ref.
func (s *Sheet) RemoveHyperlink(ref ARef) *Sheet {
	n := s.clone()
	delete(n.hyperlinks, ref)
	return n
}

// SetColumnProperties returns a new sheet with col's properties set.
func (s *Sheet) SetColumnProperties(col Column, p ColumnProps) *Sheet {
	n := s.clone()
	n.colProps[col] = p
	return n
}

// SetRowProperties returns a new sheet with row's properties set.
func (s *Sheet) SetRowProperties(row Row, p RowProps) *Sheet {
	n := s.clone()
	n.rowProps[row] = p
	return n
}

// ColumnProperties returns col's properties, or the zero value if unset.
func (s *Sheet) ColumnProperties(col Column) ColumnProps { return s.colProps[col] }

// RowProperties returns row's properties, or the zero value if unset.
func (s *Sheet) RowProperties(row Row) RowProps { return s.rowProps[row] }

// AllColumnProperties returns the sheet's explicit per-column properties.
func (s *Sheet) AllColumnProperties() map[Column]ColumnProps {
	out := make(map[Column]ColumnProps, len(s.colProps))
	for k, v := range s.colProps {
		out[k] = v
	}
	return out
}

// AllRowProperties returns the sheet's explicit per-row properties.
func (s *Sheet) AllRowProperties() map[Row]RowProps {
	out := make(map[Row]RowProps, len(s.rowProps))
	for k, v := range s.rowProps {
		out[k] = v
	}
	return out
}

// WithFreezePane returns a new sheet with the freeze-pane setting replaced.
func (s *Sheet) WithFreezePane(fp *FreezePane) *Sheet {
	n := s.clone()
	n.freezePane = fp
	return n
}

// WithProtection returns a new sheet with the protection state replaced.
func (s *Sheet) WithProtection(p *SheetProtection) *Sheet {
	n := s.clone()
	n.protection = p
	return n
}

// AddChart returns a new sheet with c appended to its chart specifications.
func (s *Sheet) AddChart(c ChartSpec) *Sheet {
	n := s.clone()
	n.charts = append(n.charts, c)
	return n
}

// UsedRange returns the bounding box of every cell with a value, a comment,
// a style, or a hyperlink, computed in a single pass. Comment-only and
// style-only cells are treated as present, resolving spec.md's Open
// Question on this point. Returns (CellRange{}, false) for an empty sheet.
func (s *Sheet) UsedRange() (CellRange, bool) {
	has := false
	var minC, maxC Column
	var minR, maxR Row

	consider := func(ref ARef) {
		if !has {
			minC, maxC = ref.Col, ref.Col
			minR, maxR = ref.Row, ref.Row
			has = true
			return
		}
		if ref.Col < minC {
			minC = ref.Col
		}
		if ref.Col > maxC {
			maxC = ref.Col
		}
		if ref.Row < minR {
			minR = ref.Row
		}
		if ref.Row > maxR {
			maxR = ref.Row
		}
	}

	for ref, v := range s.cells {
		if !v.IsEmpty() {
			consider(ref)
		}
	}
	for ref := range s.styleIDs {
		consider(ref)
	}
	for ref := range s.comments {
		consider(ref)
	}
	for ref := range s.hyperlinks {
		consider(ref)
	}
	if !has {
		return CellRange{}, false
	}
	return CellRange{Start: ARef{Col: minC, Row: minR}, End: ARef{Col: maxC, Row: maxR}}, true
}

// FillDirection selects the axis Sheet.Fill copies along.
type FillDirection int

const (
	FillDown FillDirection = iota
	FillRight
)

// FormulaShifter is the minimal interface Sheet.Fill needs from the formula
// package to shift a formula's references when filling; it is satisfied by
// formula.Shift, passed in by callers to avoid a model→formula import
// cycle.
type FormulaShifter func(formulaText string, dCol Column, dRow Row) string

// Fill copies source onto target, shifting formula references by the
// per-cell offset and preserving absolute anchors (spec.md §4.4). In Down
// direction source and target must have equal column span; in Right
// direction, equal row span; target must contain source.
func (s *Sheet) Fill(source, target CellRange, dir FillDirection, shift FormulaShifter) (*Sheet, error) {
	if dir == FillDown && source.ColumnSpan() != target.ColumnSpan() {
		return nil, fmt.Errorf("fill down: source and target column spans differ (%d vs %d)", source.ColumnSpan(), target.ColumnSpan())
	}
	if dir == FillRight && source.RowSpan() != target.RowSpan() {
		return nil, fmt.Errorf("fill right: source and target row spans differ (%d vs %d)", source.RowSpan(), target.RowSpan())
	}
	if !target.ContainsRange(source) {
		return nil, fmt.Errorf("fill: target %s does not contain source %s", target, source)
	}

	n := s.clone()
	srcW, srcH := source.ColumnSpan(), source.RowSpan()

	target.Cells(func(ref ARef) bool {
		srcRef := ARef{
			Col: source.Start.Col + Column((int(ref.Col-target.Start.Col))%srcW),
			Row: source.Start.Row + Row((int(ref.Row-target.Start.Row))%srcH),
		}
		if srcRef == ref {
			return true
		}
		dCol := ref.Col - srcRef.Col
		dRow := ref.Row - srcRef.Row

		v := n.cells[srcRef]
		if v.Kind == KindFormula && shift != nil {
			v = Formula(shift(v.FormulaText, dCol, dRow))
		}
		n.cells[ref] = v

		if id, ok := n.styleIDs[srcRef]; ok {
			n.styleIDs[ref] = id
		}
		return true
	})
	return n, nil
}
