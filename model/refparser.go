package model

import (
	"strings"
)

// RefKind tags the variant of a parsed Reference.
type RefKind int

const (
	RefCell RefKind = iota
	RefRange
	RefQualifiedCell
	RefQualifiedRange
)

// Reference is the tagged union returned by ParseReference: a plain or
// sheet-qualified cell or range reference, e.g. "A1", "A1:B10", "Sheet!A1",
// "'Quoted Name'!A1:B10".
type Reference struct {
	Kind   RefKind
	Sheet  string // set for RefQualifiedCell/RefQualifiedRange
	Sheet2 string // set for 3-D refs ("Sheet1:Sheet4!A1"); equals Sheet otherwise
	Cell   ARef
	Range  CellRange
}

// ParseReference recognizes plain references ("A1", "A1:B10") and
// sheet-qualified forms ("Name!A1", "'Quoted Name'!A1:B10",
// "Sheet1:Sheet4!A1"), where doubled single quotes ('') inside a quoted name
// denote a literal apostrophe.
func ParseReference(s string) (Reference, error) {
	sheetPart, refPart, hasSheet, err := splitSheetQualifier(s)
	if err != nil {
		return Reference{}, err
	}
	if !hasSheet {
		return parsePlainReference(refPart)
	}

	sheet1, sheet2 := sheetPart, sheetPart
	if i := strings.Index(sheetPart, ":"); i >= 0 && !strings.HasPrefix(sheetPart, "'") {
		sheet1, sheet2 = sheetPart[:i], sheetPart[i+1:]
	}

	plain, err := parsePlainReference(refPart)
	if err != nil {
		return Reference{}, err
	}
	switch plain.Kind {
	case RefCell:
		return Reference{Kind: RefQualifiedCell, Sheet: sheet1, Sheet2: sheet2, Cell: plain.Cell}, nil
	default:
		return Reference{Kind: RefQualifiedRange, Sheet: sheet1, Sheet2: sheet2, Range: plain.Range}, nil
	}
}

func parsePlainReference(s string) (Reference, error) {
	if strings.Contains(s, ":") {
		r, err := ParseCellRange(s)
		if err != nil {
			return Reference{}, err
		}
		return Reference{Kind: RefRange, Range: r}, nil
	}
	a, err := ParseARef(s)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Kind: RefCell, Cell: a}, nil
}

// splitSheetQualifier splits "Name!A1" or "'Quoted Name'!A1:B10" into the
// sheet-name part (unquoted, with '' collapsed to a literal ') and the
// reference part. hasSheet is false when there is no unquoted '!' separator.
func splitSheetQualifier(s string) (sheet, ref string, hasSheet bool, err error) {
	if strings.HasPrefix(s, "'") {
		i := 1
		var sb strings.Builder
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				break
			}
			sb.WriteByte(s[i])
			i++
		}
		if i >= len(s) || s[i] != '\'' {
			return "", "", false, &InvalidRangeError{Input: s, Reason: "unterminated quoted sheet name"}
		}
		i++
		if i >= len(s) || s[i] != '!' {
			return "", "", false, &InvalidRangeError{Input: s, Reason: "expected '!' after quoted sheet name"}
		}
		return sb.String(), s[i+1:], true, nil
	}
	if i := strings.Index(s, "!"); i >= 0 {
		return s[:i], s[i+1:], true, nil
	}
	return "", s, false, nil
}
