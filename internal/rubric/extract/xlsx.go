package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/amtlabs/amt/internal/rubric"
)

// Xlsx reads a rubric from the first sheet of a spreadsheet. Row 0 is the
// header: column 0 names the criterion column, the last column holds the max
// points, and every column in between is a grade label read verbatim (a
// sheet may define arbitrary grade names). Each data row becomes one
// criterion. This format maps cleanly enough to skip an intermediate form.
func Xlsx(data []byte, source string) (rubric.Rubric, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return rubric.Rubric{}, &rubric.ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return rubric.Rubric{}, &rubric.ParseError{Format: "xlsx", Err: err}
	}
	if len(rows) < 2 {
		return rubric.Rubric{}, &rubric.StructuralError{Format: "xlsx", Reason: "not enough rows"}
	}
	header := rows[0]
	if len(header) < 2 {
		return rubric.Rubric{}, &rubric.StructuralError{Format: "xlsx", Reason: "not enough columns"}
	}
	gradeNames := header[1 : len(header)-1]

	r := rubric.Rubric{Title: sheet, SourceReference: source}
	for _, row := range rows[1:] {
		mp := parseNumber(rowCell(row, len(row)-1))
		c := rubric.Criterion{
			Name:      strings.TrimSpace(rowCell(row, 0)),
			MaxPoints: &mp,
		}
		for j, grade := range gradeNames {
			c.Grades = append(c.Grades, rubric.GradeBand{
				Label:       grade,
				Description: splitCellLines(rowCell(row, j+1)),
				PointsRange: "", // this format carries no separate range field
			})
		}
		r.Criteria = append(r.Criteria, c)
	}
	return r, nil
}

func rowCell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func splitCellLines(s string) []string {
	out := []string{}
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
