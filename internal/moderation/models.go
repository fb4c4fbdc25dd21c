package moderation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/amtlabs/amt/internal/rubric"
)

// Moderation is one gradeable module instance: an assignment, a rubric
// snapshot, and a deadline, scored independently by markers and compared
// against the admin's reference marks. The (year, semester, assignment,
// moderation) tuple is unique per the DB constraint.
type Moderation struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Year          int           `json:"year"`
	Semester      int           `json:"semester"`
	AssignmentNum int           `json:"assignment_num"`
	ModerationNum int           `json:"moderation_num"`
	Description   string        `json:"description,omitempty"`
	DueDate       string        `json:"due_date,omitempty"`
	UploadDate    int64         `json:"upload_date,omitempty"`
	Hidden        bool          `json:"hidden_from_markers"`
	Rubric        rubric.Rubric `json:"rubric_json"`

	// Blob store keys for the raw uploads.
	AssignmentKey    string `json:"assignment_key,omitempty"`
	RubricKey        string `json:"rubric_key,omitempty"`
	AdminFeedbackKey string `json:"admin_feedback_key,omitempty"`

	// AdminFeedback is the admin's reference scoring document, kept verbatim
	// for the statistics engine to parse.
	AdminFeedback json.RawMessage `json:"admin_feedback,omitempty"`
	AdminID       string          `json:"admin_id,omitempty"`
}

// UnfilledScore marks a criterion the marker has not scored.
const UnfilledScore = "-"

// MarkingResult is one marker's pass over a rubric. Keys are criterion
// indices into the moderation's rubric snapshot; score values are literal
// "{value} / {maxPoints}" strings or the unfilled sentinel.
type MarkingResult struct {
	Scores   map[int]string `json:"scores"`
	Comments map[int]string `json:"comments,omitempty"`
}

// ScoreValue parses the numeric part of the score for criterion i.
func (mr MarkingResult) ScoreValue(i int) (float64, bool) {
	raw, ok := mr.Scores[i]
	if !ok || raw == UnfilledScore {
		return 0, false
	}
	part := strings.TrimSpace(strings.SplitN(raw, "/", 2)[0])
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Total sums the filled scores. Unfilled criteria are excluded, not zeroed.
func (mr MarkingResult) Total() float64 {
	var sum float64
	for i := range mr.Scores {
		if v, ok := mr.ScoreValue(i); ok {
			sum += v
		}
	}
	return sum
}

// Complete reports whether every scorable criterion is filled. A criterion
// with nil MaxPoints is not scorable and does not gate completion.
// Completeness gates submission.
func (mr MarkingResult) Complete(r rubric.Rubric) bool {
	for i, c := range r.Criteria {
		if c.MaxPoints == nil {
			continue
		}
		if _, ok := mr.ScoreValue(i); !ok {
			return false
		}
	}
	return true
}

// Mark is a persisted marking submission.
type Mark struct {
	ID           string        `json:"id"`
	ModerationID string        `json:"moderation_id"`
	MarkerID     string        `json:"marker_id"`
	Result       MarkingResult `json:"result"`
	TotalScore   float64       `json:"total_score"`
	SubmittedAt  int64         `json:"submitted_at"`
}
