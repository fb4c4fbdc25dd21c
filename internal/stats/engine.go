// Package stats computes the moderation comparison tables: the unit chair's
// reference scores, the ±5% tolerance band around them, and each marker's
// scores with in-range classification.
package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// System row labels. Rows with these labels are never in-range classified.
const (
	LabelUnitChair = "Unit Chair Marks"
	LabelLower     = "5% Lower Range"
	LabelUpper     = "5% Upper Range"
)

// Cell is one score entry: a number, or the unfilled sentinel rendered as
// "-" in JSON.
type Cell struct {
	Filled bool
	Value  float64
}

// Unfilled is the "-" sentinel.
var Unfilled = Cell{}

func Number(v float64) Cell { return Cell{Filled: true, Value: v} }

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Filled {
		return json.Marshal("-")
	}
	return json.Marshal(c.Value)
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*c = Number(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "-" {
		*c = Unfilled
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("score cell %q: %w", s, err)
	}
	*c = Number(v)
	return nil
}

// Row is one line of a moderation comparison table. Scores align 1:1 with
// the rubric's criteria. Rows are computed on demand and never persisted.
type Row struct {
	Label  string `json:"label"`
	Scores []Cell `json:"scores"`
	Total  Cell   `json:"total"`
	UserID string `json:"user_id,omitempty"`
}

// AdminFeedback is the admin's per-criterion reference scoring, stored as
// free text plus a literal "value / max" score per criterion.
type AdminFeedback struct {
	Criteria []AdminCriterion `json:"criteria"`
}

type AdminCriterion struct {
	Criterion  string `json:"criterion"`
	Feedback   string `json:"feedback"`
	AdminScore string `json:"admin_score"`
}

// ParseAdminFeedback decodes the admin feedback JSON document. An empty
// document is valid and yields all-zero admin scores.
func ParseAdminFeedback(data []byte) (AdminFeedback, error) {
	var fb AdminFeedback
	if len(data) == 0 {
		return fb, nil
	}
	if err := json.Unmarshal(data, &fb); err != nil {
		return AdminFeedback{}, fmt.Errorf("admin feedback: %w", err)
	}
	return fb, nil
}

// Scores resolves the admin score per criterion for n criteria: the part of
// "value / max" before the slash, 0 on missing or malformed entries.
func (fb AdminFeedback) Scores(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(fb.Criteria); i++ {
		out[i] = parseScorePart(fb.Criteria[i].AdminScore)
	}
	return out
}

func parseScorePart(s string) float64 {
	part := strings.TrimSpace(strings.SplitN(s, "/", 2)[0])
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0
	}
	return v
}

// Marker identifies one expected marker of a moderation.
type Marker struct {
	ID        string
	FirstName string
	LastName  string
}

func (m Marker) DisplayName() string {
	if m.FirstName != "" {
		return strings.TrimSpace(m.FirstName + " " + m.LastName)
	}
	return "Marker " + m.ID
}

// MarkerScores maps marker ID -> criterion index -> raw mark. A missing
// entry means that criterion is unscored by that marker.
type MarkerScores map[string]map[int]float64

// Compute builds the comparison rows for a moderation with n criteria:
// the unit chair row, the two tolerance rows, then one row per marker in
// list order. Markers with no score records still get a fully "-" filled
// row; the table must show who is expected to mark.
//
// Tolerance totals are the sums of the per-criterion rounded bounds, not a
// rescaling of the admin total: the two differ once rounding is involved.
func Compute(n int, fb AdminFeedback, scores MarkerScores, markers []Marker) []Row {
	adminScores := fb.Scores(n)

	admin := Row{Label: LabelUnitChair, Scores: make([]Cell, n)}
	lower := Row{Label: LabelLower, Scores: make([]Cell, n)}
	upper := Row{Label: LabelUpper, Scores: make([]Cell, n)}
	var adminTotal, lowerTotal, upperTotal float64
	for i, s := range adminScores {
		lo := round2(s * 0.95)
		hi := round2(s * 1.05)
		admin.Scores[i] = Number(s)
		lower.Scores[i] = Number(lo)
		upper.Scores[i] = Number(hi)
		adminTotal += s
		lowerTotal += lo
		upperTotal += hi
	}
	admin.Total = Number(round2(adminTotal))
	lower.Total = Number(round2(lowerTotal))
	upper.Total = Number(round2(upperTotal))

	rows := []Row{admin, lower, upper}
	for _, m := range markers {
		rows = append(rows, markerRow(n, m, scores[m.ID]))
	}
	return rows
}

func markerRow(n int, m Marker, byCriterion map[int]float64) Row {
	row := Row{Label: m.DisplayName(), UserID: m.ID, Scores: make([]Cell, n)}
	var sum float64
	any := false
	for i := 0; i < n; i++ {
		v, ok := byCriterion[i]
		if !ok {
			row.Scores[i] = Unfilled
			continue
		}
		row.Scores[i] = Number(v)
		sum += v
		any = true
	}
	if any {
		row.Total = Number(sum)
	}
	return row
}

// InRangeFlags classifies each marker row's scores against the tolerance
// rows: in range iff filled and lower <= score <= upper for that criterion.
// The three system rows get nil flags; they are never classified.
func InRangeFlags(rows []Row) [][]bool {
	flags := make([][]bool, len(rows))
	if len(rows) < 3 {
		return flags
	}
	lower, upper := rows[1], rows[2]
	for ri := 3; ri < len(rows); ri++ {
		rf := make([]bool, len(rows[ri].Scores))
		for i, c := range rows[ri].Scores {
			if !c.Filled || i >= len(lower.Scores) || i >= len(upper.Scores) {
				continue
			}
			rf[i] = lower.Scores[i].Value <= c.Value && c.Value <= upper.Scores[i].Value
		}
		flags[ri] = rf
	}
	return flags
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
