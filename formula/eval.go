package formula

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/xlpatch/model"
)

// evalContext carries everything a single Evaluate call needs to resolve
// references: the sheet being evaluated against, an optional workbook for
// cross-sheet references and defined names, scalar overrides substituted
// for named cells, and (during a dependency-checked pass) a shadow map of
// freshly computed results that take precedence over any stale cached
// value stored in the sheet itself.
type evalContext struct {
	sheet     *model.Sheet
	workbook  *model.Workbook
	sheetName model.SheetName

	overrides map[model.ARef]model.CellValue
	shadow    map[NodeRef]model.CellValue

	// currentRef is the address of the cell whose formula is being evaluated,
	// used by argument-less ROW()/COLUMN(). Nil when evaluating a detached
	// expression with no host cell.
	currentRef *model.ARef
}

// Evaluate evaluates expr against sheet (using workbook, if non-nil, to
// resolve cross-sheet references and defined names), substituting overrides
// for the named cells of sheet before and during evaluation.
func Evaluate(sheet *model.Sheet, workbook *model.Workbook, expr Expr, overrides map[model.ARef]model.CellValue) model.CellValue {
	ctx := &evalContext{sheet: sheet, workbook: workbook, sheetName: sheet.Name(), overrides: overrides}
	return ctx.eval(expr)
}

// EvaluateText parses formulaText and evaluates it, per Evaluate.
func EvaluateText(sheet *model.Sheet, workbook *model.Workbook, formulaText string, overrides map[model.ARef]model.CellValue) (model.CellValue, error) {
	expr, err := Parse(formulaText)
	if err != nil {
		return model.CellValue{}, err
	}
	return Evaluate(sheet, workbook, expr, overrides), nil
}

// EvaluateCell evaluates the formula stored at ref, or returns its value
// unchanged if ref does not hold a formula.
func EvaluateCell(sheet *model.Sheet, workbook *model.Workbook, ref model.ARef, overrides map[model.ARef]model.CellValue) (model.CellValue, error) {
	c := sheet.Cell(ref)
	if c.Value.Kind != model.KindFormula {
		return c.Value, nil
	}
	expr, err := Parse(c.Value.FormulaText)
	if err != nil {
		return model.CellValue{}, err
	}
	r := ref
	ctx := &evalContext{sheet: sheet, workbook: workbook, sheetName: sheet.Name(), overrides: overrides, currentRef: &r}
	return ctx.eval(expr), nil
}

// EvaluateWithDependencyCheck builds the dependency graph over sheet (and
// the rest of workbook, if non-nil, for cross-sheet precedents), rejects
// circular references, evaluates every formula cell in topological order
// into a shadow map so downstream formulas observe fresh results, and
// returns a new sheet with every formula's cached value refreshed.
func EvaluateWithDependencyCheck(sheet *model.Sheet, workbook *model.Workbook, overrides map[model.ARef]model.CellValue) (*model.Sheet, error) {
	wb := workbook
	if wb == nil {
		tmp := model.NewWorkbook()
		var err error
		wb, err = tmp.AddSheet(sheet)
		if err != nil {
			return nil, err
		}
	}

	g, err := Build(wb)
	if err != nil {
		return nil, err
	}
	if cycles := g.DetectCycles(); len(cycles) > 0 {
		return nil, &CircularReferenceError{Path: cycles[0]}
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	shadow := make(map[NodeRef]model.CellValue, len(overrides))
	for ref, v := range overrides {
		shadow[NodeRef{Sheet: sheet.Name(), Ref: ref}] = v
	}

	result := sheet
	for _, node := range order {
		sh, serr := wb.Sheet(node.Sheet)
		if serr != nil {
			continue
		}
		c := sh.Cell(node.Ref)
		if c.Value.Kind != model.KindFormula {
			continue
		}
		if v, overridden := shadow[node]; overridden && node.Sheet == sheet.Name() {
			if _, isOverride := overrides[node.Ref]; isOverride {
				shadow[node] = v
				continue
			}
		}
		expr, perr := Parse(c.Value.FormulaText)
		if perr != nil {
			shadow[node] = model.Error(model.ErrValue)
			continue
		}
		r := node.Ref
		ctx := &evalContext{sheet: sh, workbook: wb, sheetName: sh.Name(), overrides: overrides, shadow: shadow, currentRef: &r}
		v := ctx.eval(expr)
		shadow[node] = v
		if node.Sheet == sheet.Name() {
			result = result.Put(node.Ref, c.Value.WithCached(v))
		}
	}
	return result, nil
}

func (ctx *evalContext) resolveSheet(name model.SheetName) (*model.Sheet, bool) {
	if name == "" || name == ctx.sheetName {
		return ctx.sheet, true
	}
	if ctx.workbook == nil {
		return nil, false
	}
	sh, err := ctx.workbook.Sheet(name)
	if err != nil {
		return nil, false
	}
	return sh, true
}

// valueAt resolves the current value of a cell, consulting overrides and
// the shadow map (fresher than any stale cached value) before falling back
// to the sheet's stored value, evaluating on demand if it holds an
// unevaluated or stale formula.
func (ctx *evalContext) valueAt(sheetName model.SheetName, ref model.ARef) model.CellValue {
	if (sheetName == "" || sheetName == ctx.sheetName) && ctx.overrides != nil {
		if v, ok := ctx.overrides[ref]; ok {
			return v
		}
	}
	key := NodeRef{Sheet: sheetName, Ref: ref}
	if sheetName == "" {
		key.Sheet = ctx.sheetName
	}
	if ctx.shadow != nil {
		if v, ok := ctx.shadow[key]; ok {
			return v
		}
	}
	sh, ok := ctx.resolveSheet(sheetName)
	if !ok {
		return model.Error(model.ErrRef)
	}
	c := sh.Cell(ref)
	if c.Value.Kind != model.KindFormula {
		return c.Value
	}
	if c.Value.CachedValue != nil && !c.Value.CachedStale {
		return *c.Value.CachedValue
	}
	expr, err := Parse(c.Value.FormulaText)
	if err != nil {
		return model.Error(model.ErrValue)
	}
	sub := &evalContext{sheet: sh, workbook: ctx.workbook, sheetName: key.Sheet, overrides: ctx.overrides, shadow: ctx.shadow}
	return sub.eval(expr)
}

func (ctx *evalContext) eval(expr Expr) model.CellValue {
	switch x := expr.(type) {
	case NumberLit:
		return model.Number(x.Value)
	case StringLit:
		return model.Text(x.Value)
	case BoolLit:
		return model.Bool(x.Value)
	case ErrorLit:
		return model.Error(x.Kind_)
	case RefExpr:
		sheetName := ctx.sheetName
		if x.HasSheet {
			sheetName = model.SheetName(x.Sheet)
		}
		if !x.IsRange {
			return ctx.valueAt(sheetName, x.Cell.ARef())
		}
		// A bare range used outside an aggregating function implicitly
		// intersects to its top-left cell.
		return ctx.valueAt(sheetName, x.Start.ARef())
	case NameRef:
		return ctx.evalName(x)
	case UnaryExpr:
		return ctx.evalUnary(x)
	case BinaryExpr:
		return ctx.evalBinary(x)
	case CallExpr:
		return ctx.evalCall(x)
	}
	return model.Error(model.ErrValue)
}

func (ctx *evalContext) evalName(x NameRef) model.CellValue {
	if ctx.workbook == nil {
		return model.Error(model.ErrName)
	}
	target, ok := ctx.workbook.DefinedNames()[x.Name]
	if !ok {
		return model.Error(model.ErrName)
	}
	r, err := model.ParseReference(target)
	if err != nil {
		return model.Error(model.ErrName)
	}
	switch r.Kind {
	case model.RefCell:
		return ctx.valueAt(ctx.sheetName, r.Cell)
	case model.RefQualifiedCell:
		return ctx.valueAt(model.SheetName(r.Sheet), r.Cell)
	case model.RefRange:
		return ctx.valueAt(ctx.sheetName, r.Range.Start)
	case model.RefQualifiedRange:
		return ctx.valueAt(model.SheetName(r.Sheet), r.Range.Start)
	}
	return model.Error(model.ErrName)
}

func (ctx *evalContext) evalUnary(x UnaryExpr) model.CellValue {
	v := ctx.eval(x.X)
	if v.Kind == model.KindError {
		return v
	}
	n, errv := toNumber(v)
	if errv != nil {
		return *errv
	}
	switch x.Op {
	case UnaryPlus:
		return model.Number(n)
	case UnaryMinus:
		return model.Number(-n)
	case UnaryPercent:
		return model.Number(n / 100)
	}
	return model.Error(model.ErrValue)
}

func (ctx *evalContext) evalBinary(x BinaryExpr) model.CellValue {
	l := ctx.eval(x.X)
	if l.Kind == model.KindError {
		return l
	}
	r := ctx.eval(x.Y)
	if r.Kind == model.KindError {
		return r
	}
	switch x.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpPow:
		a, ea := toNumber(l)
		if ea != nil {
			return *ea
		}
		b, eb := toNumber(r)
		if eb != nil {
			return *eb
		}
		switch x.Op {
		case OpAdd:
			return model.Number(a + b)
		case OpSub:
			return model.Number(a - b)
		case OpMul:
			return model.Number(a * b)
		case OpDiv:
			if b == 0 {
				return model.Error(model.ErrDiv0)
			}
			return model.Number(a / b)
		case OpPow:
			v := math.Pow(a, b)
			if math.IsNaN(v) {
				return model.Error(model.ErrNum)
			}
			return model.Number(v)
		}
	case OpCat:
		return model.Text(toText(l) + toText(r))
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return model.Bool(compareValues(l, r, x.Op))
	}
	return model.Error(model.ErrValue)
}

func toNumber(v model.CellValue) (float64, *model.CellValue) {
	switch v.Kind {
	case model.KindNumber:
		return v.Number, nil
	case model.KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case model.KindEmpty:
		return 0, nil
	case model.KindDateTime:
		return dateToSerial(v.DateVal), nil
	case model.KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			e := model.Error(model.ErrValue)
			return 0, &e
		}
		return n, nil
	case model.KindError:
		e := v
		return 0, &e
	}
	e := model.Error(model.ErrValue)
	return 0, &e
}

func toText(v model.CellValue) string {
	switch v.Kind {
	case model.KindText:
		return v.Text
	case model.KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case model.KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case model.KindDateTime:
		return v.DateVal.Format("2006-01-02")
	case model.KindError:
		return string(v.ErrKind)
	case model.KindRichText:
		var sb strings.Builder
		for _, run := range v.Runs {
			sb.WriteString(run.Text)
		}
		return sb.String()
	}
	return ""
}

func compareValues(l, r model.CellValue, op BinaryOp) bool {
	ln, lok := numericOnly(l)
	rn, rok := numericOnly(r)
	if lok && rok {
		return applyCompareNum(ln, rn, op)
	}
	ls := strings.ToUpper(toText(l))
	rs := strings.ToUpper(toText(r))
	return applyCompareStr(ls, rs, op)
}

func numericOnly(v model.CellValue) (float64, bool) {
	switch v.Kind {
	case model.KindNumber:
		return v.Number, true
	case model.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case model.KindDateTime:
		return dateToSerial(v.DateVal), true
	case model.KindEmpty:
		return 0, true
	}
	return 0, false
}

func applyCompareNum(a, b float64, op BinaryOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

func applyCompareStr(a, b string, op BinaryOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

// excelEpoch (Dec 30, 1899) makes serials match Excel's 1900 date system for
// dates from Mar 1, 1900 on (serial 61); earlier dates come out one higher
// than Excel's. The 1900 leap-year bug (serial 60 = the nonexistent
// Feb 29, 1900) is a reader/writer serialization concern handled in
// internal/ooxml, not reproduced here in the evaluator's date arithmetic.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func dateToSerial(t time.Time) float64 {
	d := t.Sub(excelEpoch)
	return d.Hours() / 24
}

func serialToDate(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	t := excelEpoch.AddDate(0, 0, int(days))
	return t.Add(time.Duration(frac * 24 * float64(time.Hour)))
}
