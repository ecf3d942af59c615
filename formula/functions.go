package formula

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/xlpatch/model"
)

// functionSpec describes one built-in function's arity for parse-time
// validation; the registry's keys are also what UnknownFunctionError
// suggestions are drawn from.
type functionSpec struct {
	minArgs int
	maxArgs int // -1 means unlimited
}

var functionRegistry = map[string]functionSpec{
	"IF":      {2, 3},
	"AND":     {1, -1},
	"OR":      {1, -1},
	"NOT":     {1, 1},
	"SUM":     {1, -1},
	"AVERAGE": {1, -1},
	"MIN":     {1, -1},
	"MAX":     {1, -1},
	"COUNT":   {1, -1},
	"COUNTA":  {1, -1},
	"ROUND":   {2, 2},
	"INT":     {1, 1},
	"ABS":     {1, 1},
	"CONCAT":  {1, -1},
	"LEFT":    {1, 2},
	"RIGHT":   {1, 2},
	"MID":     {3, 3},
	"LEN":     {1, 1},
	"UPPER":   {1, 1},
	"LOWER":   {1, 1},
	"TRIM":    {1, 1},
	"TEXT":    {2, 2},
	"VALUE":   {1, 1},
	"DATE":    {3, 3},
	"TODAY":   {0, 0},
	"NOW":     {0, 0},
	"YEAR":    {1, 1},
	"MONTH":   {1, 1},
	"DAY":     {1, 1},
	"VLOOKUP": {3, 4},
	"INDEX":   {2, 3},
	"MATCH":   {2, 3},
	"ROW":     {0, 1},
	"COLUMN":  {0, 1},
}

func (ctx *evalContext) evalCall(x CallExpr) model.CellValue {
	switch x.Name {
	case "IF":
		return ctx.fnIf(x.Args)
	case "AND":
		return ctx.fnAndOr(x.Args, true)
	case "OR":
		return ctx.fnAndOr(x.Args, false)
	case "NOT":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		n, e := toNumber(v)
		if e != nil {
			return *e
		}
		return model.Bool(n == 0)
	case "SUM":
		return ctx.fnAggregate(x.Args, aggSum)
	case "AVERAGE":
		return ctx.fnAggregate(x.Args, aggAverage)
	case "MIN":
		return ctx.fnAggregate(x.Args, aggMin)
	case "MAX":
		return ctx.fnAggregate(x.Args, aggMax)
	case "COUNT":
		return ctx.fnCount(x.Args, false)
	case "COUNTA":
		return ctx.fnCount(x.Args, true)
	case "ROUND":
		return ctx.fnRound(x.Args)
	case "INT":
		v, e := ctx.numArg(x.Args[0])
		if e != nil {
			return *e
		}
		return model.Number(math.Floor(v))
	case "ABS":
		v, e := ctx.numArg(x.Args[0])
		if e != nil {
			return *e
		}
		return model.Number(math.Abs(v))
	case "CONCAT":
		var sb strings.Builder
		for _, a := range x.Args {
			v := ctx.eval(a)
			if v.Kind == model.KindError {
				return v
			}
			sb.WriteString(toText(v))
		}
		return model.Text(sb.String())
	case "LEFT":
		return ctx.fnLeftRight(x.Args, true)
	case "RIGHT":
		return ctx.fnLeftRight(x.Args, false)
	case "MID":
		return ctx.fnMid(x.Args)
	case "LEN":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		return model.Number(float64(len([]rune(toText(v)))))
	case "UPPER":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		return model.Text(strings.ToUpper(toText(v)))
	case "LOWER":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		return model.Text(strings.ToLower(toText(v)))
	case "TRIM":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		return model.Text(strings.TrimSpace(toText(v)))
	case "TEXT":
		return ctx.fnText(x.Args)
	case "VALUE":
		v := ctx.eval(x.Args[0])
		if v.Kind == model.KindError {
			return v
		}
		n, e := toNumber(v)
		if e != nil {
			return *e
		}
		return model.Number(n)
	case "DATE":
		return ctx.fnDate(x.Args)
	case "TODAY":
		return model.Number(math.Floor(dateToSerial(time.Now())))
	case "NOW":
		return model.Number(dateToSerial(time.Now()))
	case "YEAR":
		t, e := ctx.dateArg(x.Args[0])
		if e != nil {
			return *e
		}
		return model.Number(float64(t.Year()))
	case "MONTH":
		t, e := ctx.dateArg(x.Args[0])
		if e != nil {
			return *e
		}
		return model.Number(float64(t.Month()))
	case "DAY":
		t, e := ctx.dateArg(x.Args[0])
		if e != nil {
			return *e
		}
		return model.Number(float64(t.Day()))
	case "VLOOKUP":
		return ctx.fnVlookup(x.Args)
	case "INDEX":
		return ctx.fnIndex(x.Args)
	case "MATCH":
		return ctx.fnMatch(x.Args)
	case "ROW":
		return ctx.fnRowColumn(x.Args, true)
	case "COLUMN":
		return ctx.fnRowColumn(x.Args, false)
	}
	return model.Error(model.ErrName)
}

func (ctx *evalContext) fnRowColumn(args []Expr, isRow bool) model.CellValue {
	if len(args) == 0 {
		if ctx.currentRef == nil {
			return model.Error(model.ErrValue)
		}
		if isRow {
			return model.Number(float64(ctx.currentRef.Row) + 1)
		}
		return model.Number(float64(ctx.currentRef.Col) + 1)
	}
	ref, ok := args[0].(RefExpr)
	if !ok {
		return model.Error(model.ErrValue)
	}
	cell := ref.Cell
	if ref.IsRange {
		cell = ref.Start
	}
	if isRow {
		return model.Number(float64(cell.Row) + 1)
	}
	return model.Number(float64(cell.Col) + 1)
}

func (ctx *evalContext) numArg(e Expr) (float64, *model.CellValue) {
	v := ctx.eval(e)
	if v.Kind == model.KindError {
		return 0, &v
	}
	return toNumber(v)
}

func (ctx *evalContext) dateArg(e Expr) (time.Time, *model.CellValue) {
	v := ctx.eval(e)
	if v.Kind == model.KindError {
		return time.Time{}, &v
	}
	if v.Kind == model.KindDateTime {
		return v.DateVal, nil
	}
	n, errv := toNumber(v)
	if errv != nil {
		return time.Time{}, errv
	}
	return serialToDate(n), nil
}

func (ctx *evalContext) fnIf(args []Expr) model.CellValue {
	cond := ctx.eval(args[0])
	if cond.Kind == model.KindError {
		return cond
	}
	n, e := toNumber(cond)
	if e != nil {
		return *e
	}
	if n != 0 {
		return ctx.eval(args[1])
	}
	if len(args) == 3 {
		return ctx.eval(args[2])
	}
	return model.Bool(false)
}

func (ctx *evalContext) fnAndOr(args []Expr, isAnd bool) model.CellValue {
	result := isAnd
	for _, a := range args {
		for _, v := range ctx.expandArg(a) {
			if v.Kind == model.KindError {
				return v
			}
			n, e := toNumber(v)
			if e != nil {
				return *e
			}
			b := n != 0
			if isAnd {
				result = result && b
			} else {
				result = result || b
			}
		}
	}
	return model.Bool(result)
}

// expandArg evaluates an argument, returning one value for a scalar
// expression or the flattened cell values for a range reference.
func (ctx *evalContext) expandArg(e Expr) []model.CellValue {
	if ref, ok := e.(RefExpr); ok && ref.IsRange {
		sheetName := ctx.sheetName
		if ref.HasSheet {
			sheetName = model.SheetName(ref.Sheet)
		}
		rng := model.NewCellRange(ref.Start.ARef(), ref.End.ARef())
		var out []model.CellValue
		rng.Cells(func(a model.ARef) bool {
			out = append(out, ctx.valueAt(sheetName, a))
			return true
		})
		return out
	}
	return []model.CellValue{ctx.eval(e)}
}

type aggKind int

const (
	aggSum aggKind = iota
	aggAverage
	aggMin
	aggMax
)

func (ctx *evalContext) fnAggregate(args []Expr, kind aggKind) model.CellValue {
	var nums []float64
	for _, a := range args {
		for _, v := range ctx.expandArg(a) {
			if v.Kind == model.KindError {
				return v
			}
			if v.Kind == model.KindEmpty || v.Kind == model.KindText {
				continue
			}
			n, e := toNumber(v)
			if e != nil {
				return *e
			}
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		if kind == aggSum {
			return model.Number(0)
		}
		return model.Error(model.ErrDiv0)
	}
	switch kind {
	case aggSum:
		s := 0.0
		for _, n := range nums {
			s += n
		}
		return model.Number(s)
	case aggAverage:
		s := 0.0
		for _, n := range nums {
			s += n
		}
		return model.Number(s / float64(len(nums)))
	case aggMin:
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return model.Number(m)
	case aggMax:
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return model.Number(m)
	}
	return model.Error(model.ErrValue)
}

func (ctx *evalContext) fnCount(args []Expr, countAll bool) model.CellValue {
	n := 0
	for _, a := range args {
		for _, v := range ctx.expandArg(a) {
			if v.Kind == model.KindError {
				if countAll {
					n++
				}
				continue
			}
			if countAll {
				if v.Kind != model.KindEmpty {
					n++
				}
				continue
			}
			if v.Kind == model.KindNumber || v.Kind == model.KindDateTime || v.Kind == model.KindBool {
				n++
			}
		}
	}
	return model.Number(float64(n))
}

func (ctx *evalContext) fnRound(args []Expr) model.CellValue {
	v, e := ctx.numArg(args[0])
	if e != nil {
		return *e
	}
	digits, e2 := ctx.numArg(args[1])
	if e2 != nil {
		return *e2
	}
	mult := math.Pow(10, digits)
	return model.Number(math.Round(v*mult) / mult)
}

func (ctx *evalContext) fnLeftRight(args []Expr, left bool) model.CellValue {
	v := ctx.eval(args[0])
	if v.Kind == model.KindError {
		return v
	}
	s := []rune(toText(v))
	n := 1
	if len(args) == 2 {
		nv, e := ctx.numArg(args[1])
		if e != nil {
			return *e
		}
		n = int(nv)
	}
	if n < 0 {
		return model.Error(model.ErrValue)
	}
	if n > len(s) {
		n = len(s)
	}
	if left {
		return model.Text(string(s[:n]))
	}
	return model.Text(string(s[len(s)-n:]))
}

func (ctx *evalContext) fnMid(args []Expr) model.CellValue {
	v := ctx.eval(args[0])
	if v.Kind == model.KindError {
		return v
	}
	start, e := ctx.numArg(args[1])
	if e != nil {
		return *e
	}
	length, e2 := ctx.numArg(args[2])
	if e2 != nil {
		return *e2
	}
	s := []rune(toText(v))
	i := int(start) - 1
	if i < 0 || length < 0 {
		return model.Error(model.ErrValue)
	}
	if i >= len(s) {
		return model.Text("")
	}
	end := i + int(length)
	if end > len(s) {
		end = len(s)
	}
	return model.Text(string(s[i:end]))
}

func (ctx *evalContext) fnText(args []Expr) model.CellValue {
	v := ctx.eval(args[0])
	if v.Kind == model.KindError {
		return v
	}
	fmtArg := ctx.eval(args[1])
	if fmtArg.Kind == model.KindError {
		return fmtArg
	}
	code := toText(fmtArg)
	if v.Kind == model.KindDateTime {
		return model.Text(v.DateVal.Format(excelLayoutHint(code)))
	}
	n, e := toNumber(v)
	if e != nil {
		return model.Text(toText(v))
	}
	return model.Text(formatNumberForText(n, code))
}

// excelLayoutHint maps a handful of common Excel date format codes to a Go
// reference layout; uncommon codes fall back to ISO 8601.
func excelLayoutHint(code string) string {
	switch code {
	case "yyyy-mm-dd":
		return "2006-01-02"
	case "mm/dd/yyyy":
		return "01/02/2006"
	case "dd/mm/yyyy":
		return "02/01/2006"
	case "m/d/yy":
		return "1/2/06"
	}
	return "2006-01-02"
}

func formatNumberForText(n float64, code string) string {
	switch {
	case strings.Contains(code, "%"):
		return strconv.FormatFloat(n*100, 'f', 2, 64) + "%"
	case strings.Contains(code, "0.00"):
		return strconv.FormatFloat(n, 'f', 2, 64)
	case strings.Contains(code, "0.0"):
		return strconv.FormatFloat(n, 'f', 1, 64)
	default:
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
}

func (ctx *evalContext) fnDate(args []Expr) model.CellValue {
	y, e := ctx.numArg(args[0])
	if e != nil {
		return *e
	}
	m, e2 := ctx.numArg(args[1])
	if e2 != nil {
		return *e2
	}
	d, e3 := ctx.numArg(args[2])
	if e3 != nil {
		return *e3
	}
	t := time.Date(int(y), time.Month(int(m)), int(d), 0, 0, 0, 0, time.UTC)
	return model.Number(dateToSerial(t))
}

func (ctx *evalContext) fnVlookup(args []Expr) model.CellValue {
	key := ctx.eval(args[0])
	if key.Kind == model.KindError {
		return key
	}
	ref, ok := args[1].(RefExpr)
	if !ok || !ref.IsRange {
		return model.Error(model.ErrRef)
	}
	colIdx, e := ctx.numArg(args[2])
	if e != nil {
		return *e
	}
	exact := false
	if len(args) == 4 {
		v := ctx.eval(args[3])
		if v.Kind == model.KindError {
			return v
		}
		n, e4 := toNumber(v)
		if e4 != nil {
			return *e4
		}
		exact = n == 0
	}

	sheetName := ctx.sheetName
	if ref.HasSheet {
		sheetName = model.SheetName(ref.Sheet)
	}
	width := int(ref.End.Col-ref.Start.Col) + 1
	if int(colIdx) < 1 || int(colIdx) > width {
		return model.Error(model.ErrRef)
	}
	var bestApprox *model.ARef
	for row := ref.Start.Row; row <= ref.End.Row; row++ {
		cellRef := model.ARef{Col: ref.Start.Col, Row: row}
		cand := ctx.valueAt(sheetName, cellRef)
		if valuesEqualForLookup(cand, key) {
			target := model.ARef{Col: ref.Start.Col + model.Column(int(colIdx)-1), Row: row}
			return ctx.valueAt(sheetName, target)
		}
		if !exact && !compareValues(cand, key, OpGt) {
			r := cellRef
			bestApprox = &r
		}
	}
	if !exact && bestApprox != nil {
		target := model.ARef{Col: ref.Start.Col + model.Column(int(colIdx)-1), Row: bestApprox.Row}
		return ctx.valueAt(sheetName, target)
	}
	return model.Error(model.ErrNA)
}

func valuesEqualForLookup(a, b model.CellValue) bool {
	return compareValues(a, b, OpEq)
}

func (ctx *evalContext) fnIndex(args []Expr) model.CellValue {
	ref, ok := args[0].(RefExpr)
	if !ok || !ref.IsRange {
		return model.Error(model.ErrRef)
	}
	rowNum, e := ctx.numArg(args[1])
	if e != nil {
		return *e
	}
	colNum := 1.0
	if len(args) == 3 {
		cn, e2 := ctx.numArg(args[2])
		if e2 != nil {
			return *e2
		}
		colNum = cn
	}
	sheetName := ctx.sheetName
	if ref.HasSheet {
		sheetName = model.SheetName(ref.Sheet)
	}
	height := int(ref.End.Row-ref.Start.Row) + 1
	width := int(ref.End.Col-ref.Start.Col) + 1
	if int(rowNum) < 1 || int(rowNum) > height || int(colNum) < 1 || int(colNum) > width {
		return model.Error(model.ErrRef)
	}
	target := model.ARef{
		Col: ref.Start.Col + model.Column(int(colNum)-1),
		Row: ref.Start.Row + model.Row(int(rowNum)-1),
	}
	return ctx.valueAt(sheetName, target)
}

func (ctx *evalContext) fnMatch(args []Expr) model.CellValue {
	key := ctx.eval(args[0])
	if key.Kind == model.KindError {
		return key
	}
	ref, ok := args[1].(RefExpr)
	if !ok || !ref.IsRange {
		return model.Error(model.ErrRef)
	}
	matchType := 1.0
	if len(args) == 3 {
		mt, e := ctx.numArg(args[2])
		if e != nil {
			return *e
		}
		matchType = mt
	}
	sheetName := ctx.sheetName
	if ref.HasSheet {
		sheetName = model.SheetName(ref.Sheet)
	}
	isRow := ref.Start.Row == ref.End.Row
	pos := 1
	if isRow {
		for col := ref.Start.Col; col <= ref.End.Col; col, pos = col+1, pos+1 {
			v := ctx.valueAt(sheetName, model.ARef{Col: col, Row: ref.Start.Row})
			if matchFound(v, key, matchType) {
				return model.Number(float64(pos))
			}
		}
	} else {
		for row := ref.Start.Row; row <= ref.End.Row; row, pos = row+1, pos+1 {
			v := ctx.valueAt(sheetName, model.ARef{Col: ref.Start.Col, Row: row})
			if matchFound(v, key, matchType) {
				return model.Number(float64(pos))
			}
		}
	}
	return model.Error(model.ErrNA)
}

// matchFound implements exact matching for all match types; ascending/
// descending approximate matching (matchType != 0) is a documented
// simplification, see DESIGN.md.
func matchFound(v, key model.CellValue, matchType float64) bool {
	return valuesEqualForLookup(v, key)
}
