package ooxml

import "time"

// epoch1900 is the day before serial day 1 under the 1900 date system
// (ECMA-376 §18.17.4.1). Excel's historical bug treats 1900 as a leap year;
// this package emulates that quirk (spec.md §4.9) so round-tripped date
// cells match what Excel itself would read/write, unlike formula/eval.go's
// evaluator arithmetic, which intentionally does not.
var epoch1900 = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
var epoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
var fictitiousLeapDayBoundary = time.Date(1900, time.February, 28, 23, 59, 59, 0, time.UTC)

// dateToSerial converts t to an OOXML date serial number under the
// workbook's declared epoch system.
func dateToSerial(t time.Time, date1904 bool) float64 {
	if date1904 {
		return t.Sub(epoch1904).Hours() / 24
	}
	days := t.Sub(epoch1900).Hours() / 24
	if t.After(fictitiousLeapDayBoundary) {
		days++
	}
	return days
}

// serialToDate converts an OOXML date serial number back to a time.Time
// under the workbook's declared epoch system.
func serialToDate(serial float64, date1904 bool) time.Time {
	if date1904 {
		whole := int64(serial)
		frac := serial - float64(whole)
		return epoch1904.AddDate(0, 0, int(whole)).Add(time.Duration(frac * float64(24*time.Hour)))
	}
	whole := int64(serial)
	frac := serial - float64(whole)
	if whole >= 60 {
		whole--
	}
	return epoch1900.AddDate(0, 0, int(whole)).Add(time.Duration(frac * float64(24*time.Hour)))
}

// DateToSerial and SerialToDate are exported wrappers so
// internal/streaming's phase-2 emitter and reader apply the same epoch and
// leap-year-quirk rules as the in-memory codec (C9/C10) without duplicating
// them.
func DateToSerial(t time.Time, date1904 bool) float64      { return dateToSerial(t, date1904) }
func SerialToDate(serial float64, date1904 bool) time.Time { return serialToDate(serial, date1904) }
