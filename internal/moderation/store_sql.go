package moderation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amtlabs/amt/internal/rubric"
	"github.com/amtlabs/amt/internal/stats"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSlot means a moderation already occupies the
	// (year, semester, assignment, moderation) tuple. Concurrent uploads can
	// both pass a pre-insert existence check; the DB constraint is what
	// actually closes that race.
	ErrDuplicateSlot = errors.New("moderation slot already taken")
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutModeration(ctx context.Context, m Moderation) error {
	rj, err := json.Marshal(m.Rubric)
	if err != nil {
		return err
	}
	if m.UploadDate == 0 {
		m.UploadDate = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO moderations
		(id,name,year,semester,assignment_num,moderation_num,description,due_date,upload_date,
		 hidden_from_markers,rubric_json,assignment_key,rubric_key,admin_feedback_key,admin_feedback,admin_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		m.ID, m.Name, m.Year, m.Semester, m.AssignmentNum, m.ModerationNum, m.Description,
		m.DueDate, m.UploadDate, boolInt(m.Hidden), string(rj), m.AssignmentKey, m.RubricKey,
		m.AdminFeedbackKey, string(m.AdminFeedback), m.AdminID)
	if isUniqueViolation(err) {
		return ErrDuplicateSlot
	}
	return err
}

func (s *SQLStore) GetModeration(ctx context.Context, id string) (Moderation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,year,semester,assignment_num,moderation_num,
		description,due_date,upload_date,hidden_from_markers,rubric_json,assignment_key,rubric_key,
		admin_feedback_key,admin_feedback,admin_id
		FROM moderations WHERE id=$1`, id)
	m, err := scanModeration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Moderation{}, ErrNotFound
	}
	return m, err
}

// ListModerations returns moderations ordered the way the front page groups
// them: year descending, then semester, assignment, and moderation number
// ascending. Markers never see hidden moderations.
func (s *SQLStore) ListModerations(ctx context.Context, includeHidden bool) ([]Moderation, error) {
	q := `SELECT id,name,year,semester,assignment_num,moderation_num,
		description,due_date,upload_date,hidden_from_markers,rubric_json,assignment_key,rubric_key,
		admin_feedback_key,admin_feedback,admin_id
		FROM moderations`
	if !includeHidden {
		q += ` WHERE hidden_from_markers=0`
	}
	q += ` ORDER BY year DESC, semester ASC, assignment_num ASC, moderation_num ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Moderation
	for rows.Next() {
		m, err := scanModeration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteModerations(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args := inClause(`DELETE FROM moderations WHERE id IN (%s)`, ids)
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *SQLStore) SetHidden(ctx context.Context, ids []string, hidden bool) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{boolInt(hidden)}
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	q := fmt.Sprintf(`UPDATE moderations SET hidden_from_markers=$1 WHERE id IN (%s)`, strings.Join(ph, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *SQLStore) SaveAdminFeedback(ctx context.Context, id string, feedback json.RawMessage, blobKey string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE moderations SET admin_feedback=$1, admin_feedback_key=$2 WHERE id=$3`,
		string(feedback), blobKey, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) PutMark(ctx context.Context, m Mark) error {
	rj, err := json.Marshal(m.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO marks
		(id,moderation_id,marker_id,result_json,total_score,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (moderation_id,marker_id) DO UPDATE SET
		  result_json=EXCLUDED.result_json, total_score=EXCLUDED.total_score, submitted_at=EXCLUDED.submitted_at`,
		m.ID, m.ModerationID, m.MarkerID, string(rj), m.TotalScore, m.SubmittedAt)
	return err
}

func (s *SQLStore) GetMark(ctx context.Context, moderationID, markerID string) (Mark, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,moderation_id,marker_id,result_json,total_score,submitted_at
		FROM marks WHERE moderation_id=$1 AND marker_id=$2`, moderationID, markerID)
	m, err := scanMark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Mark{}, ErrNotFound
	}
	return m, err
}

func (s *SQLStore) ListMarks(ctx context.Context, moderationID string) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,moderation_id,marker_id,result_json,total_score,submitted_at
		FROM marks WHERE moderation_id=$1 ORDER BY submitted_at ASC`, moderationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mark
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMarkers returns every marker account, the user list statistics rows
// are built from.
func (s *SQLStore) ListMarkers(ctx context.Context) ([]stats.Marker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name FROM users WHERE role='marker' ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stats.Marker
	for rows.Next() {
		var m stats.Marker
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkerScores collects each marker's raw per-criterion marks for a
// moderation in the shape the statistics engine consumes.
func (s *SQLStore) MarkerScores(ctx context.Context, moderationID string) (stats.MarkerScores, error) {
	marks, err := s.ListMarks(ctx, moderationID)
	if err != nil {
		return nil, err
	}
	scores := stats.MarkerScores{}
	for _, mk := range marks {
		byCriterion := map[int]float64{}
		for i := range mk.Result.Scores {
			if v, ok := mk.Result.ScoreValue(i); ok {
				byCriterion[i] = v
			}
		}
		scores[mk.MarkerID] = byCriterion
	}
	return scores, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanModeration(r rowScanner) (Moderation, error) {
	var m Moderation
	var hidden int
	var rubricJSON, feedback string
	if err := r.Scan(&m.ID, &m.Name, &m.Year, &m.Semester, &m.AssignmentNum, &m.ModerationNum,
		&m.Description, &m.DueDate, &m.UploadDate, &hidden, &rubricJSON, &m.AssignmentKey,
		&m.RubricKey, &m.AdminFeedbackKey, &feedback, &m.AdminID); err != nil {
		return Moderation{}, err
	}
	m.Hidden = hidden != 0
	if rubricJSON != "" {
		rb, err := rubric.Decode([]byte(rubricJSON))
		if err != nil {
			return Moderation{}, err
		}
		m.Rubric = rb
	}
	if feedback != "" {
		m.AdminFeedback = json.RawMessage(feedback)
	}
	return m, nil
}

func scanMark(r rowScanner) (Mark, error) {
	var m Mark
	var resultJSON string
	if err := r.Scan(&m.ID, &m.ModerationID, &m.MarkerID, &resultJSON, &m.TotalScore, &m.SubmittedAt); err != nil {
		return Mark{}, err
	}
	if resultJSON != "" {
		if err := json.Unmarshal([]byte(resultJSON), &m.Result); err != nil {
			return Mark{}, err
		}
	}
	return m, nil
}

func inClause(format string, ids []string) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return fmt.Sprintf(format, strings.Join(ph, ",")), args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
