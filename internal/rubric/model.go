package rubric

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultGradeLabels is the fixed grading-scale vocabulary, strongest first.
// Renderers lay rubrics out in this order regardless of how many bands an
// individual criterion populates.
var DefaultGradeLabels = []string{
	"High Distinction",
	"Distinction",
	"Credit",
	"Pass",
	"Fail",
}

// GradeUnknown labels bands whose grade identity cannot be recovered from
// the source document (plain-text PDF extraction).
const GradeUnknown = "Unknown"

// Rubric is the canonical representation every source format is converted
// into. A rubric with zero criteria is the "no rubric available" sentinel,
// not an error.
type Rubric struct {
	Title           string      `json:"rubricTitle,omitempty"`
	SourceReference string      `json:"sourceReference,omitempty"`
	Criteria        []Criterion `json:"criteria"`
}

// Empty reports whether the rubric is the no-rubric sentinel.
func (r Rubric) Empty() bool { return len(r.Criteria) == 0 }

// Criterion is one gradeable row. Its position in Rubric.Criteria is its ID:
// submitted scores reference criteria by index, and indices are never
// renumbered once a rubric snapshot has been persisted and scored against.
type Criterion struct {
	Name      string      `json:"criterion"`
	MaxPoints *float64    `json:"maxPoints"`
	Grades    []GradeBand `json:"grades"`
}

// DisplayName falls back to a positional name when the source document had
// no text in the criterion column.
func (c Criterion) DisplayName(index int) string {
	if s := strings.TrimSpace(c.Name); s != "" {
		return s
	}
	return fmt.Sprintf("Criterion %d", index+1)
}

// GradeBand is one column of a criterion's grading scale.
type GradeBand struct {
	Label       string   `json:"grade"`
	Description []string `json:"description"`
	PointsRange string   `json:"pointsRange"`

	// rawDescription records that Description arrived as a bare JSON string
	// rather than a paragraph array; Repair uses it to decide whether the
	// text still needs splitting.
	rawDescription bool
}

func (g *GradeBand) UnmarshalJSON(b []byte) error {
	type alias GradeBand
	aux := struct {
		Description json.RawMessage `json:"description"`
		*alias
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.Description) == 0 || string(aux.Description) == "null" {
		g.Description = nil
		return nil
	}
	if aux.Description[0] == '"' {
		var s string
		if err := json.Unmarshal(aux.Description, &s); err != nil {
			return err
		}
		g.Description = []string{s}
		g.rawDescription = true
		return nil
	}
	return json.Unmarshal(aux.Description, &g.Description)
}

func (c *Criterion) UnmarshalJSON(b []byte) error {
	type alias Criterion
	aux := struct {
		MaxPoints json.RawMessage `json:"maxPoints"`
		*alias
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.MaxPoints = parseMaxPoints(aux.MaxPoints)
	return nil
}

// parseMaxPoints accepts a JSON number, a numeric string, or null. Anything
// unparseable resolves to nil; Repair later coerces nil to 0.
func parseMaxPoints(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// Decode parses a canonical-shaped rubric JSON document (manual entry or a
// stored rubric_json snapshot).
func Decode(data []byte) (Rubric, error) {
	var r Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return Rubric{}, &ParseError{Format: "json", Err: err}
	}
	return r, nil
}
