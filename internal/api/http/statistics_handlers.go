package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/amtlabs/amt/internal/auth/middleware"
	"github.com/amtlabs/amt/internal/moderation"
	"github.com/amtlabs/amt/internal/rubric"
	"github.com/amtlabs/amt/internal/stats"
	"github.com/amtlabs/amt/internal/storage"
)

// GET /moderations/{id}/statistics builds the per-criterion comparison table:
// unit chair row, the 5% tolerance rows, then one row per marker. Admins get
// the full table; a marker gets the system rows and their own row only.
func ModerationStatsHandler(store *moderation.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := store.GetModeration(r.Context(), id)
		if err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				http.Error(w, "moderation not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}

		fb, err := stats.ParseAdminFeedback(m.AdminFeedback)
		if err != nil {
			// A malformed reference document degrades to all-zero admin
			// scores rather than blocking the whole table.
			log.Printf("moderation %s: %v", id, err)
			fb = stats.AdminFeedback{}
		}
		markers, err := store.ListMarkers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		scores, err := store.MarkerScores(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		n := len(m.Rubric.Criteria)
		rows := stats.Compute(n, fb, scores, markers)
		flags := stats.InRangeFlags(rows)
		if !isAdmin(r) {
			rows, flags = narrowToOwnRows(rows, flags, authmw.SubjectFromContext(r.Context()))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"moderation_id": id,
			"criteria":      criterionNames(m.Rubric),
			"rows":          rows,
			"in_range":      flags,
		})
	}
}

func criterionNames(r rubric.Rubric) []string {
	names := make([]string, len(r.Criteria))
	for i, c := range r.Criteria {
		names[i] = c.DisplayName(i)
	}
	return names
}

// narrowToOwnRows cuts the comparison table down to what a marker may see:
// the three system rows plus their own row. Other markers' named rows never
// leave the server for non-admin callers.
func narrowToOwnRows(rows []stats.Row, flags [][]bool, callerID string) ([]stats.Row, [][]bool) {
	if len(rows) < 3 {
		return rows, flags
	}
	outRows := append([]stats.Row(nil), rows[:3]...)
	outFlags := append([][]bool(nil), flags[:3]...)
	for i := 3; i < len(rows); i++ {
		if rows[i].UserID == callerID {
			outRows = append(outRows, rows[i])
			outFlags = append(outFlags, flags[i])
		}
	}
	return outRows, outFlags
}

// GET /moderations/{id}/highlight?criterion=N&score=X reports which grade bands a
// score falls into, for live rubric highlighting while marking.
func HighlightHandler(store *moderation.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := store.GetModeration(r.Context(), id)
		if err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				http.Error(w, "moderation not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		ci := parseIntDefault(r.URL.Query().Get("criterion"), -1)
		if ci < 0 || ci >= len(m.Rubric.Criteria) {
			http.Error(w, "criterion index out of range", http.StatusBadRequest)
			return
		}
		score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
		if err != nil {
			http.Error(w, "bad score", http.StatusBadRequest)
			return
		}
		grades := m.Rubric.Criteria[ci].Grades
		_ = json.NewEncoder(w).Encode(map[string]any{
			"active_bands": rubric.ActiveBands(score, grades),
			"active_band":  rubric.ActiveBand(score, grades),
		})
	}
}

// POST /display_modules_frontpage is the dashboard listing. Admins see every
// moderation with aggregate statistics over marker totals; markers see the
// visible ones with their own total against the unit chair's.
func FrontPageHandler(store *moderation.SQLStore, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin := isAdmin(r)
		caller := authmw.SubjectFromContext(r.Context())

		list, err := store.ListModerations(r.Context(), admin)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		out := make([]map[string]any, 0, len(list))
		for _, m := range list {
			card := moderationView(m, bs)
			marks, err := store.ListMarks(r.Context(), m.ID)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			if admin {
				var totals []float64
				for _, mk := range marks {
					if mk.MarkerID == m.AdminID {
						continue
					}
					totals = append(totals, mk.TotalScore)
				}
				card["marker_summary"] = stats.Summarize(totals)
				card["submissions"] = len(totals)
			} else {
				card["marked"] = false
				for _, mk := range marks {
					if mk.MarkerID == caller {
						card["marked"] = true
						card["own_total"] = mk.TotalScore
						break
					}
				}
				if fb, err := stats.ParseAdminFeedback(m.AdminFeedback); err == nil {
					n := len(m.Rubric.Criteria)
					var adminTotal float64
					for _, s := range fb.Scores(n) {
						adminTotal += s
					}
					card["unit_chair_total"] = adminTotal
				}
			}
			out = append(out, card)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"moderations": out})
	}
}
