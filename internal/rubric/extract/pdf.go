package extract

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/amtlabs/amt/internal/rubric"
)

var (
	criterionStartRe = regexp.MustCompile(`(?i)^(Criterion|\d+\.)`)
	criterionNameRe  = regexp.MustCompile(`(?i)^Criterion[:\s]*`)
	parenLineRe      = regexp.MustCompile(`^\(.*\)$`)
)

// PdfLines extracts the document's plain text as trimmed non-blank lines.
// PDFs carry no table structure; a flat line list is all this format gives.
func PdfLines(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &rubric.ParseError{Format: "pdf", Err: err}
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return nil, &rubric.ParseError{Format: "pdf", Err: err}
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, &rubric.ParseError{Format: "pdf", Err: err}
	}
	var lines []string
	for _, l := range strings.Split(string(raw), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// LinesToRubric segments extracted PDF lines into criteria:
//
//   - a line starting with the word "Criterion" or a leading "N." opens a
//     new criterion
//   - a fully parenthesized line opens a grade band carrying that points
//     range
//   - any other line appends to the most recent band's description
//
// Grade identity is not recoverable from flat text, so every band is
// labelled Unknown rather than guessed into the five-grade ordering.
// A document with no extractable lines yields the empty-rubric sentinel.
func LinesToRubric(lines []string, source string) rubric.Rubric {
	r := rubric.Rubric{SourceReference: source}
	if len(lines) == 0 {
		return r
	}
	r.Title = lines[0]

	var current *rubric.Criterion
	for _, line := range lines[1:] {
		switch {
		case criterionStartRe.MatchString(line):
			if current != nil {
				r.Criteria = append(r.Criteria, *current)
			}
			current = &rubric.Criterion{
				Name: strings.TrimSpace(criterionNameRe.ReplaceAllString(line, "")),
			}
		case parenLineRe.MatchString(line):
			if current != nil {
				current.Grades = append(current.Grades, rubric.GradeBand{
					Label:       rubric.GradeUnknown,
					PointsRange: line,
					Description: []string{},
				})
			}
		default:
			if current != nil && len(current.Grades) > 0 {
				last := &current.Grades[len(current.Grades)-1]
				last.Description = append(last.Description, line)
			}
		}
	}
	if current != nil {
		r.Criteria = append(r.Criteria, *current)
	}
	return r
}

// Pdf extracts a rubric from raw PDF bytes.
func Pdf(data []byte, source string) (rubric.Rubric, error) {
	lines, err := PdfLines(data)
	if err != nil {
		return rubric.Rubric{}, err
	}
	return LinesToRubric(lines, source), nil
}
