package model

import (
	"fmt"
	"strings"
)

// CellRange is an ordered, normalized rectangular region: Start <= End
// componentwise. Construct via NewCellRange or ParseCellRange, never by
// struct literal, to preserve the normalization invariant.
type CellRange struct {
	Start ARef
	End   ARef
}

// InvalidRangeError reports a malformed or unparsable range reference.
type InvalidRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: %s", e.Input, e.Reason)
}

// NewCellRange builds a CellRange from two corners, normalizing so that
// Start <= End componentwise regardless of input order.
func NewCellRange(a, b ARef) CellRange {
	start := ARef{Col: min(a.Col, b.Col), Row: min(a.Row, b.Row)}
	end := ARef{Col: max(a.Col, b.Col), Row: max(a.Row, b.Row)}
	return CellRange{Start: start, End: end}
}

// ParseCellRange accepts "A1:B10" and single-cell forms ("A1", treated as
// "A1:A1"), normalizing unordered corners.
func ParseCellRange(s string) (CellRange, error) {
	parts := strings.SplitN(s, ":", 2)
	a, err := ParseARef(parts[0])
	if err != nil {
		return CellRange{}, &InvalidRangeError{Input: s, Reason: "bad start reference"}
	}
	if len(parts) == 1 {
		return CellRange{Start: a, End: a}, nil
	}
	b, err := ParseARef(parts[1])
	if err != nil {
		return CellRange{}, &InvalidRangeError{Input: s, Reason: "bad end reference"}
	}
	return NewCellRange(a, b), nil
}

// String renders the range in "A1:B10" form, or "A1" when it is a single
// cell, matching the forms ParseCellRange accepts.
func (r CellRange) String() string {
	if r.Start == r.End {
		return r.Start.ToA1()
	}
	return r.Start.ToA1() + ":" + r.End.ToA1()
}

// ColumnSpan returns the number of columns spanned by the range.
func (r CellRange) ColumnSpan() int { return int(r.End.Col-r.Start.Col) + 1 }

// RowSpan returns the number of rows spanned by the range.
func (r CellRange) RowSpan() int { return int(r.End.Row-r.Start.Row) + 1 }

// Contains reports whether ref lies within the range.
func (r CellRange) Contains(ref ARef) bool {
	return ref.Col >= r.Start.Col && ref.Col <= r.End.Col &&
		ref.Row >= r.Start.Row && ref.Row <= r.End.Row
}

// ContainsRange reports whether other lies entirely within r.
func (r CellRange) ContainsRange(other CellRange) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// Intersects reports whether r and other overlap.
func (r CellRange) Intersects(other CellRange) bool {
	return r.Start.Col <= other.End.Col && other.Start.Col <= r.End.Col &&
		r.Start.Row <= other.End.Row && other.Start.Row <= r.End.Row
}

// Cells enumerates every ARef in the range in row-major order (ascending row,
// then ascending column), calling visit for each. Iteration stops early if
// visit returns false.
func (r CellRange) Cells(visit func(ARef) bool) {
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			if !visit(ARef{Col: col, Row: row}) {
				return
			}
		}
	}
}

// Shift translates both corners by (dCol, dRow), without clamping to the
// worksheet bounds; callers validate the result separately if needed.
func (r CellRange) Shift(dCol Column, dRow Row) CellRange {
	return CellRange{
		Start: ARef{Col: r.Start.Col + dCol, Row: r.Start.Row + dRow},
		End:   ARef{Col: r.End.Col + dCol, Row: r.End.Row + dRow},
	}
}
