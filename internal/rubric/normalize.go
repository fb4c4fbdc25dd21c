package rubric

import (
	"regexp"
	"strconv"
	"strings"
)

// Cell is one table cell extracted from a source document.
type Cell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Data string `json:"data"`
}

// Table is an ordered grid of cells, row-major. Cells are never pruned, even
// when empty, so column positions stay aligned.
type Table [][]Cell

const (
	headerRow     = 0
	nameCol       = 0
	firstGradeCol = 1
	lastGradeCol  = 5
	maxPointsCol  = 6
)

var (
	parenRe     = regexp.MustCompile(`\([^)]*\)`)
	blankLineRe = regexp.MustCompile(`\n{2,}`)
	digitRe     = regexp.MustCompile(`\d`)
)

// TablesToRubric converts extracted DOCX tables into a canonical rubric.
// Only the first table is read: row 0 is the header (columns 1-5 carry the
// grade labels), and every following row becomes one criterion. Zero tables
// yield the empty-rubric sentinel.
func TablesToRubric(tables []Table, title, source string) Rubric {
	r := Rubric{Title: title, SourceReference: source}
	if len(tables) == 0 || len(tables[0]) == 0 {
		return r
	}
	t := tables[0]
	labels := gradeLabels(t[headerRow])

	for _, row := range t[1:] {
		c := Criterion{Name: strings.TrimSpace(cellData(row, nameCol))}
		mp := filterPoints(cellData(row, maxPointsCol))
		c.MaxPoints = &mp

		for col := firstGradeCol; col <= lastGradeCol; col++ {
			band, ok := gradeCellToBand(cellData(row, col), labels[col-firstGradeCol])
			if ok {
				c.Grades = append(c.Grades, band)
			}
		}
		r.Criteria = append(r.Criteria, c)
	}
	return r
}

func gradeLabels(header []Cell) []string {
	labels := make([]string, lastGradeCol-firstGradeCol+1)
	for i := range labels {
		label := strings.TrimSpace(cellData(header, firstGradeCol+i))
		if label == "" {
			label = DefaultGradeLabels[i]
		}
		labels[i] = label
	}
	return labels
}

func cellData(row []Cell, col int) string {
	for _, c := range row {
		if c.Col == col {
			return c.Data
		}
	}
	return ""
}

// gradeCellToBand splits one grade cell into a band. The source format
// repeats the criterion's max points as a redundant first line inside every
// grade cell, so the first line is always dropped. A parenthesized substring
// on the last remaining line becomes the points range.
func gradeCellToBand(data, label string) (GradeBand, bool) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return GradeBand{}, false
	}
	lines = lines[1:]

	band := GradeBand{Label: label, Description: []string{}}
	if len(lines) == 0 {
		return band, true
	}

	last := lines[len(lines)-1]
	if m := parenRe.FindString(last); m != "" {
		band.PointsRange = m
		rest := strings.TrimSpace(strings.Replace(last, m, "", 1))
		if rest == "" {
			lines = lines[:len(lines)-1]
		} else {
			lines[len(lines)-1] = rest
		}
	}
	band.Description = append(band.Description, lines...)
	return band, true
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// filterPoints extracts digits and the decimal point from a max-points cell
// (typically "/ 15" or "15 points"), defaulting to 0.
func filterPoints(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// Repair validates and repairs a rubric in place and returns it. It is
// idempotent: a rubric that is already canonical passes through unchanged.
//
// Repairs applied:
//   - MaxPoints coerced to a number (0 when absent or unparseable)
//   - a description still held as one raw string is split into paragraphs
//     on blank-line boundaries
//   - when no points range is set and the last paragraph carries a digit and
//     the word "point", that paragraph is moved into PointsRange
func Repair(r Rubric) Rubric {
	for i := range r.Criteria {
		c := &r.Criteria[i]
		if c.MaxPoints == nil {
			zero := 0.0
			c.MaxPoints = &zero
		}
		for j := range c.Grades {
			repairBand(&c.Grades[j])
		}
	}
	return r
}

func repairBand(g *GradeBand) {
	if g.rawDescription && len(g.Description) == 1 {
		var parts []string
		for _, p := range blankLineRe.Split(g.Description[0], -1) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			last := parts[len(parts)-1]
			if g.PointsRange == "" && digitRe.MatchString(last) && strings.Contains(last, "point") {
				g.PointsRange = last
				parts = parts[:len(parts)-1]
			}
		}
		g.Description = parts
		g.rawDescription = false
	}
	if g.Description == nil {
		g.Description = []string{}
	}
}
