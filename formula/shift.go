package formula

import "github.com/adnsv/xlpatch/model"

// ShiftExpr walks expr, translating every non-absolute-anchored reference
// component by (dCol, dRow). Column and row are shifted independently per
// their own anchor flag; 3-D sheet references are left unchanged in their
// sheet span. Shifting is additive: ShiftExpr(e, a+c, b+d) is equivalent to
// ShiftExpr(ShiftExpr(e, a, b), c, d).
func ShiftExpr(expr Expr, dCol model.Column, dRow model.Row) Expr {
	switch x := expr.(type) {
	case RefExpr:
		if !x.IsRange {
			x.Cell = shiftCellRef(x.Cell, dCol, dRow)
			return x
		}
		x.Start = shiftCellRef(x.Start, dCol, dRow)
		x.End = shiftCellRef(x.End, dCol, dRow)
		return x
	case UnaryExpr:
		x.X = ShiftExpr(x.X, dCol, dRow)
		return x
	case BinaryExpr:
		x.X = ShiftExpr(x.X, dCol, dRow)
		x.Y = ShiftExpr(x.Y, dCol, dRow)
		return x
	case CallExpr:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = ShiftExpr(a, dCol, dRow)
		}
		x.Args = args
		return x
	default:
		return expr
	}
}

func shiftCellRef(c CellRef, dCol model.Column, dRow model.Row) CellRef {
	if !c.ColAbs {
		c.Col += dCol
	}
	if !c.RowAbs {
		c.Row += dRow
	}
	return c
}

// Shift parses formulaText, shifts every relative reference component by
// (dCol, dRow), and re-prints the result. It satisfies model.FormulaShifter,
// letting Sheet.Fill shift formulas without model importing formula. On a
// parse failure the original text is returned unchanged, since Fill must
// not fail merely because a target cell's formula is malformed.
func Shift(formulaText string, dCol model.Column, dRow model.Row) string {
	expr, err := Parse(formulaText)
	if err != nil {
		return formulaText
	}
	return Print(ShiftExpr(expr, dCol, dRow))
}
