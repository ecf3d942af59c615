package model

import (
	"fmt"
	"time"
)

// CodecError reports a failed CellReader conversion: a CellValue whose Kind
// could not be coerced into the requested native type.
type CodecError struct {
	SourceKind ValueKind
	TargetType string
	Reason     string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("cannot read %s value as %s: %s", valueKindName(e.SourceKind), e.TargetType, e.Reason)
}

func valueKindName(k ValueKind) string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindBool:
		return "Bool"
	case KindDateTime:
		return "DateTime"
	case KindError:
		return "Error"
	case KindRichText:
		return "RichText"
	case KindFormula:
		return "Formula"
	}
	return "Unknown"
}

// CellWriter converts a native Go value into a CellValue, plus an optional
// NumFmt hint the style registry should pair with the cell's style.
type CellWriter[A any] func(v A) (CellValue, *NumFmt)

// CellReader converts a CellValue into a native Go value, or fails with a
// *CodecError when the cell's Kind is incompatible.
type CellReader[A any] func(v CellValue) (A, error)

// StringCodec round-trips Go strings through KindText.
var StringCodec = struct {
	Write CellWriter[string]
	Read  CellReader[string]
}{
	Write: func(v string) (CellValue, *NumFmt) { return Text(v), nil },
	Read: func(v CellValue) (string, error) {
		if v.Kind != KindText {
			return "", &CodecError{SourceKind: v.Kind, TargetType: "string", Reason: "not a text cell"}
		}
		return v.Text, nil
	},
}

// Float64Codec round-trips float64 through KindNumber, with a Decimal format
// hint on write.
var Float64Codec = struct {
	Write CellWriter[float64]
	Read  CellReader[float64]
}{
	Write: func(v float64) (CellValue, *NumFmt) {
		h := NumFmtDecimal
		return Number(v), &h
	},
	Read: func(v CellValue) (float64, error) {
		if v.Kind != KindNumber {
			return 0, &CodecError{SourceKind: v.Kind, TargetType: "float64", Reason: "not a number cell"}
		}
		return v.Number, nil
	},
}

// IntCodec round-trips int through KindNumber, with an Integer format hint.
var IntCodec = struct {
	Write CellWriter[int]
	Read  CellReader[int]
}{
	Write: func(v int) (CellValue, *NumFmt) {
		h := NumFmtInteger
		return Number(float64(v)), &h
	},
	Read: func(v CellValue) (int, error) {
		if v.Kind != KindNumber {
			return 0, &CodecError{SourceKind: v.Kind, TargetType: "int", Reason: "not a number cell"}
		}
		if v.Number != float64(int(v.Number)) {
			return 0, &CodecError{SourceKind: v.Kind, TargetType: "int", Reason: "fractional value"}
		}
		return int(v.Number), nil
	},
}

// BoolCodec round-trips bool through KindBool.
var BoolCodec = struct {
	Write CellWriter[bool]
	Read  CellReader[bool]
}{
	Write: func(v bool) (CellValue, *NumFmt) { return Bool(v), nil },
	Read: func(v CellValue) (bool, error) {
		if v.Kind != KindBool {
			return false, &CodecError{SourceKind: v.Kind, TargetType: "bool", Reason: "not a bool cell"}
		}
		return v.Bool, nil
	},
}

// TimeCodec round-trips time.Time through KindDateTime, with a DateTime
// format hint (Date if the time-of-day component is exactly midnight).
var TimeCodec = struct {
	Write CellWriter[time.Time]
	Read  CellReader[time.Time]
}{
	Write: func(v time.Time) (CellValue, *NumFmt) {
		h := NumFmtDateTime
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			h = NumFmtDate
		}
		return DateTime(v), &h
	},
	Read: func(v CellValue) (time.Time, error) {
		if v.Kind != KindDateTime {
			return time.Time{}, &CodecError{SourceKind: v.Kind, TargetType: "time.Time", Reason: "not a datetime cell"}
		}
		return v.DateVal, nil
	},
}
