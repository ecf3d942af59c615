package model

import "time"

// ErrorKind enumerates the Excel error values a cell can hold.
type ErrorKind string

const (
	ErrDiv0 ErrorKind = "#DIV/0!"
	ErrNA   ErrorKind = "#N/A"
	ErrName ErrorKind = "#NAME?"
	ErrNull ErrorKind = "#NULL!"
	ErrNum  ErrorKind = "#NUM!"
	ErrRef  ErrorKind = "#REF!"
	ErrValue ErrorKind = "#VALUE!"
	ErrSpill ErrorKind = "#SPILL!"
	ErrCalc ErrorKind = "#CALC!"
)

// RichTextRun is one formatted fragment of a RichText cell value.
type RichTextRun struct {
	Text string
	Font *Font // nil means "inherit the cell's font"
}

// ValueKind tags the variant of a CellValue.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindDateTime
	KindError
	KindRichText
	KindFormula
)

// CellValue is the sum type of everything a cell can hold. Exactly one group
// of fields is meaningful per Kind; zero value is KindEmpty.
type CellValue struct {
	Kind ValueKind

	Text    string      // KindText
	Number  float64     // KindNumber
	Bool    bool        // KindBool
	DateVal time.Time   // KindDateTime
	ErrKind ErrorKind   // KindError
	Runs    []RichTextRun // KindRichText

	FormulaText  string     // KindFormula: the expression text, without a leading '='
	CachedValue  *CellValue // KindFormula: the last evaluated result, or nil if never evaluated
	CachedStale  bool       // KindFormula: true if a precedent changed since CachedValue was computed
}

func Empty() CellValue                    { return CellValue{Kind: KindEmpty} }
func Text(s string) CellValue             { return CellValue{Kind: KindText, Text: s} }
func Number(v float64) CellValue          { return CellValue{Kind: KindNumber, Number: v} }
func Bool(v bool) CellValue               { return CellValue{Kind: KindBool, Bool: v} }
func DateTime(t time.Time) CellValue      { return CellValue{Kind: KindDateTime, DateVal: t} }
func Error(k ErrorKind) CellValue         { return CellValue{Kind: KindError, ErrKind: k} }
func RichText(runs []RichTextRun) CellValue {
	return CellValue{Kind: KindRichText, Runs: append([]RichTextRun(nil), runs...)}
}

// Formula builds an unevaluated formula cell value. text must not carry a
// leading '='.
func Formula(text string) CellValue {
	return CellValue{Kind: KindFormula, FormulaText: text}
}

// WithCached returns a copy of a KindFormula value with its cached result
// set and marked fresh.
func (v CellValue) WithCached(result CellValue) CellValue {
	v.CachedValue = &result
	v.CachedStale = false
	return v
}

// MarkStale returns a copy of a KindFormula value whose cached result is
// retained (for OOXML serialization compatibility, per spec §4.13) but
// flagged stale.
func (v CellValue) MarkStale() CellValue {
	v.CachedStale = true
	return v
}

// IsEmpty reports whether the value is the Empty variant.
func (v CellValue) IsEmpty() bool { return v.Kind == KindEmpty }

// Equal performs a structural, value-based comparison (used by the patch
// idempotence law and by tests). Formula cached values are ignored for
// equality purposes since they are derived state.
func (v CellValue) Equal(o CellValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindEmpty:
		return true
	case KindText:
		return v.Text == o.Text
	case KindNumber:
		return v.Number == o.Number
	case KindBool:
		return v.Bool == o.Bool
	case KindDateTime:
		return v.DateVal.Equal(o.DateVal)
	case KindError:
		return v.ErrKind == o.ErrKind
	case KindRichText:
		if len(v.Runs) != len(o.Runs) {
			return false
		}
		for i := range v.Runs {
			if v.Runs[i].Text != o.Runs[i].Text {
				return false
			}
		}
		return true
	case KindFormula:
		return v.FormulaText == o.FormulaText
	}
	return false
}
