package streaming

import (
	"strconv"
	"time"

	"github.com/adnsv/xlpatch/model"
)

// colWidthSampler estimates xl/worksheets' <col width=...> from the first N
// rows of a sheet, a fixed-width monospace character-count heuristic (no
// font metrics are available headless, per DESIGN.md's Open Question
// resolution on "rich-text auto-fit width estimator").
type colWidthSampler struct {
	rowsSeen int
	limit    int
	maxChars map[model.Column]int
}

func newColWidthSampler(limit int) *colWidthSampler {
	return &colWidthSampler{limit: limit, maxChars: map[model.Column]int{}}
}

// observe feeds one row's cells into the sample, a no-op once limit rows
// have been seen.
func (s *colWidthSampler) observe(row RowData) {
	if s.rowsSeen >= s.limit {
		return
	}
	s.rowsSeen++
	for _, c := range row.Cells {
		n := renderedWidth(c.Value)
		if n > s.maxChars[c.Col] {
			s.maxChars[c.Col] = n
		}
	}
}

// width returns the estimated column width in Excel's character-count units,
// with a floor of 8 (Excel's own default) and a +2 padding margin.
func (s *colWidthSampler) width(col model.Column) float64 {
	n := s.maxChars[col]
	if n < 6 {
		n = 6
	}
	return float64(n + 2)
}

func renderedWidth(v model.CellValue) int {
	switch v.Kind {
	case model.KindText:
		return len(v.Text)
	case model.KindRichText:
		return len(concatRuns(v.Runs))
	case model.KindNumber:
		return len(strconv.FormatFloat(v.Number, 'g', -1, 64))
	case model.KindBool:
		if v.Bool {
			return len("TRUE")
		}
		return len("FALSE")
	case model.KindDateTime:
		return len(v.DateVal.Format(time.RFC3339))
	case model.KindError:
		return len(v.ErrKind)
	case model.KindFormula:
		return len(v.FormulaText) + 1
	default:
		return 0
	}
}
