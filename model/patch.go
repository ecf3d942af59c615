package model

import "fmt"

// PatchKind tags the variant of a Patch value.
type PatchKind int

const (
	PatchEmpty PatchKind = iota
	PatchPut
	PatchPutWithStyle
	PatchStyleCell
	PatchStyleRange
	PatchMerge
	PatchUnmerge
	PatchClearContents
	PatchClearStyles
	PatchClearComments
	PatchAddComment
	PatchRemoveComment
	PatchSetHyperlink
	PatchRemoveHyperlink
	PatchSetColumnWidth
	PatchSetRowHeight
	PatchSetColumnHidden
	PatchSetRowHidden
	PatchFreezePanes
	PatchBatch
)

// Patch is a first-class edit value. Variants compose under Compose, which
// is associative with PatchEmpty as identity on both sides (spec.md §8,
// law 6); Apply evaluates a (possibly composed) patch against a sheet in a
// single logical pass, later operations observing the effects of earlier
// ones within the same Apply call.
type Patch struct {
	Kind PatchKind

	Ref   ARef
	Range CellRange
	Value CellValue

	Style        CellStyle
	ReplaceStyle bool

	Comment   Comment
	Hyperlink Hyperlink

	Column Column
	Row    Row
	Width  float64
	Height float64
	Hidden bool

	FreezePane FreezePane

	Items []Patch // PatchBatch
}

func PatchNone() Patch { return Patch{Kind: PatchEmpty} }

func Put(ref ARef, v CellValue) Patch { return Patch{Kind: PatchPut, Ref: ref, Value: v} }

func PutWithStyle(ref ARef, v CellValue, style CellStyle) Patch {
	return Patch{Kind: PatchPutWithStyle, Ref: ref, Value: v, Style: style}
}

func StyleCell(ref ARef, style CellStyle, replace bool) Patch {
	return Patch{Kind: PatchStyleCell, Ref: ref, Style: style, ReplaceStyle: replace}
}

func StyleRange(r CellRange, style CellStyle, replace bool) Patch {
	return Patch{Kind: PatchStyleRange, Range: r, Style: style, ReplaceStyle: replace}
}

func MergePatch(r CellRange) Patch { return Patch{Kind: PatchMerge, Range: r} }

func UnmergePatch(r CellRange) Patch { return Patch{Kind: PatchUnmerge, Range: r} }

func ClearContents(r CellRange) Patch { return Patch{Kind: PatchClearContents, Range: r} }

func ClearStyles(r CellRange) Patch { return Patch{Kind: PatchClearStyles, Range: r} }

func ClearComments(r CellRange) Patch { return Patch{Kind: PatchClearComments, Range: r} }

func AddComment(ref ARef, c Comment) Patch { return Patch{Kind: PatchAddComment, Ref: ref, Comment: c} }

func RemoveComment(ref ARef) Patch { return Patch{Kind: PatchRemoveComment, Ref: ref} }

func SetHyperlink(ref ARef, h Hyperlink) Patch {
	return Patch{Kind: PatchSetHyperlink, Ref: ref, Hyperlink: h}
}

func RemoveHyperlink(ref ARef) Patch { return Patch{Kind: PatchRemoveHyperlink, Ref: ref} }

func SetColumnWidth(col Column, w float64) Patch {
	return Patch{Kind: PatchSetColumnWidth, Column: col, Width: w}
}

func SetRowHeight(row Row, h float64) Patch {
	return Patch{Kind: PatchSetRowHeight, Row: row, Height: h}
}

func SetColumnHidden(col Column, hidden bool) Patch {
	return Patch{Kind: PatchSetColumnHidden, Column: col, Hidden: hidden}
}

func SetRowHidden(row Row, hidden bool) Patch {
	return Patch{Kind: PatchSetRowHidden, Row: row, Hidden: hidden}
}

func FreezePanes(col Column, row Row) Patch {
	return Patch{Kind: PatchFreezePanes, FreezePane: FreezePane{Column: col, Row: row}}
}

func Batch(items ...Patch) Patch {
	return Patch{Kind: PatchBatch, Items: flatten(items)}
}

// flatten inlines nested Batches and drops Empty entries, so that Compose
// chains never grow structurally beyond one level — the basis for the
// "single pass" implementation note in spec.md §4.5.
func flatten(items []Patch) []Patch {
	out := make([]Patch, 0, len(items))
	for _, p := range items {
		switch p.Kind {
		case PatchEmpty:
			continue
		case PatchBatch:
			out = append(out, p.Items...)
		default:
			out = append(out, p)
		}
	}
	return out
}

// Compose returns a patch semantically equivalent to applying p then q.
// Compose(Empty, p) == p, Compose(p, Empty) == p, and Compose is associative,
// satisfying the patch monoid law (spec.md §8, law 6).
func Compose(p, q Patch) Patch {
	if p.Kind == PatchEmpty {
		return q
	}
	if q.Kind == PatchEmpty {
		return p
	}
	return Batch(p, q)
}

// BatchError reports the first operation in a Batch that failed to apply,
// naming its index and underlying cause. Batch application is
// all-or-nothing at the sheet level (spec.md §7): when Apply returns a
// *BatchError the sheet argument is unchanged.
type BatchError struct {
	Index int
	Op    Patch
	Cause error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("patch operation %d (kind=%d) failed: %v", e.Index, e.Op.Kind, e.Cause)
}

func (e *BatchError) Unwrap() error { return e.Cause }

// Apply evaluates p against sheet, returning a new sheet. Apply performs no
// fills and rewrites no formula references (Sheet.Fill is a direct sheet
// operation, not a Patch variant).
func Apply(sheet *Sheet, p Patch) (*Sheet, error) {
	items := flatten([]Patch{p})
	cur := sheet
	for i, op := range items {
		next, err := applyOne(cur, op)
		if err != nil {
			return nil, &BatchError{Index: i, Op: op, Cause: err}
		}
		cur = next
	}
	return cur, nil
}

func applyOne(s *Sheet, p Patch) (*Sheet, error) {
	switch p.Kind {
	case PatchEmpty:
		return s, nil
	case PatchPut:
		return s.Put(p.Ref, p.Value), nil
	case PatchPutWithStyle:
		return s.PutWithStyle(p.Ref, p.Value, p.Style), nil
	case PatchStyleCell:
		return s.StyleCell(p.Ref, p.Style, p.ReplaceStyle), nil
	case PatchStyleRange:
		return s.StyleRange(p.Range, p.Style, p.ReplaceStyle), nil
	case PatchMerge:
		if s.OverlapsAnyMerge(p.Range) {
			return nil, fmt.Errorf("merge %s overlaps an existing merged range", p.Range)
		}
		if p.Range.Start == p.Range.End {
			return nil, fmt.Errorf("merge range %s must span at least two cells", p.Range)
		}
		return s.Merge(p.Range), nil
	case PatchUnmerge:
		return s.Unmerge(p.Range), nil
	case PatchClearContents:
		return s.ClearContents(p.Range), nil
	case PatchClearStyles:
		return s.ClearStyles(p.Range), nil
	case PatchClearComments:
		return s.ClearComments(p.Range), nil
	case PatchAddComment:
		return s.AddComment(p.Ref, p.Comment), nil
	case PatchRemoveComment:
		return s.RemoveComment(p.Ref), nil
	case PatchSetHyperlink:
		return s.SetHyperlink(p.Ref, p.Hyperlink), nil
	case PatchRemoveHyperlink:
		return s.RemoveHyperlink(p.Ref), nil
	case PatchSetColumnWidth:
		w := p.Width
		return s.SetColumnProperties(p.Column, ColumnProps{Width: &w, Hidden: s.ColumnProperties(p.Column).Hidden}), nil
	case PatchSetRowHeight:
		h := p.Height
		return s.SetRowProperties(p.Row, RowProps{Height: &h, Hidden: s.RowProperties(p.Row).Hidden}), nil
	case PatchSetColumnHidden:
		props := s.ColumnProperties(p.Column)
		props.Hidden = p.Hidden
		return s.SetColumnProperties(p.Column, props), nil
	case PatchSetRowHidden:
		props := s.RowProperties(p.Row)
		props.Hidden = p.Hidden
		return s.SetRowProperties(p.Row, props), nil
	case PatchFreezePanes:
		fp := p.FreezePane
		return s.WithFreezePane(&fp), nil
	case PatchBatch:
		return Apply(s, p)
	}
	return nil, fmt.Errorf("unknown patch kind %d", p.Kind)
}

// ValueLens is the get/set pair spec.md §8 states the lens laws over: get
// returns the cell's value, set returns a new sheet with it replaced.
type ValueLens struct{ Ref ARef }

func (l ValueLens) Get(s *Sheet) CellValue { return s.Cell(l.Ref).Value }

func (l ValueLens) Set(s *Sheet, v CellValue) *Sheet { return s.Put(l.Ref, v) }
