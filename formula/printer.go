package formula

import (
	"strconv"
	"strings"
)

// Print renders an expression tree back to formula text (without a leading
// '='). It is the algebraic inverse of Parse: for every well-formed tree p,
// Parse(Print(p)) yields a structurally equivalent tree, adding explicit
// parentheses only where precedence requires them.
func Print(e Expr) string {
	return printPrec(e, 0)
}

// precedence levels, lowest to highest, matching the parser's grammar.
const (
	precComparison = 1
	precConcat     = 2
	precAdditive   = 3
	precMultiplic  = 4
	precExponent   = 5
	precUnary      = 6
	precPrimary    = 7
)

func binaryPrec(op BinaryOp) int {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return precComparison
	case OpCat:
		return precConcat
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv:
		return precMultiplic
	case OpPow:
		return precExponent
	}
	return precPrimary
}

func rightAssoc(op BinaryOp) bool { return op == OpPow }

func printPrec(e Expr, minPrec int) string {
	switch x := e.(type) {
	case NumberLit:
		return formatNumber(x.Value)
	case StringLit:
		return `"` + strings.ReplaceAll(x.Value, `"`, `""`) + `"`
	case BoolLit:
		if x.Value {
			return "TRUE"
		}
		return "FALSE"
	case ErrorLit:
		return string(x.Kind_)
	case RefExpr:
		return printRef(x)
	case NameRef:
		return x.Name
	case UnaryExpr:
		return printUnary(x, minPrec)
	case BinaryExpr:
		return printBinary(x, minPrec)
	case CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = printPrec(a, precComparison)
		}
		return x.Name + "(" + strings.Join(args, ",") + ")"
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func printUnary(x UnaryExpr, minPrec int) string {
	var s string
	if x.Op == UnaryPercent {
		s = printPrec(x.X, precUnary) + "%"
	} else {
		s = string(x.Op) + printPrec(x.X, precUnary)
	}
	if precUnary < minPrec {
		return "(" + s + ")"
	}
	return s
}

func printBinary(x BinaryExpr, minPrec int) string {
	prec := binaryPrec(x.Op)
	leftMin, rightMin := prec, prec+1
	if rightAssoc(x.Op) {
		leftMin, rightMin = prec+1, prec
	}
	s := printPrec(x.X, leftMin) + string(x.Op) + printPrec(x.Y, rightMin)
	if prec < minPrec {
		return "(" + s + ")"
	}
	return s
}

func printRef(r RefExpr) string {
	var sheetPrefix string
	if r.HasSheet {
		sheetPrefix = quoteSheetIfNeeded(r.Sheet)
		if r.Sheet2 != r.Sheet {
			sheetPrefix += ":" + quoteSheetIfNeeded(r.Sheet2)
		}
		sheetPrefix += "!"
	}
	if !r.IsRange {
		return sheetPrefix + printCellRef(r.Cell)
	}
	return sheetPrefix + printCellRef(r.Start) + ":" + printCellRef(r.End)
}

func printCellRef(c CellRef) string {
	var sb strings.Builder
	if c.ColAbs {
		sb.WriteByte('$')
	}
	sb.WriteString(c.Col.ToLetter())
	if c.RowAbs {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(int(c.Row) + 1))
	return sb.String()
}

func quoteSheetIfNeeded(name string) string {
	needsQuote := name == ""
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(isLetter(c) || isDigit(c)) {
			needsQuote = true
			break
		}
	}
	if len(name) > 0 && isDigit(name[0]) {
		needsQuote = true
	}
	if !needsQuote {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
