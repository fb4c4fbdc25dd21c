package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/amtlabs/amt/internal/auth/middleware"
	"github.com/amtlabs/amt/internal/moderation"
	syncx "github.com/amtlabs/amt/internal/sync"
)

// POST /moderations/{id}/marks
func SubmitMarksHandler(store *moderation.SQLStore, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modID := chi.URLParam(r, "id")
		markerID := authmw.SubjectFromContext(r.Context())
		if markerID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		var result moderation.MarkingResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			http.Error(w, "bad marking result json", http.StatusBadRequest)
			return
		}

		m, err := store.GetModeration(r.Context(), modID)
		if err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				http.Error(w, "moderation not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		if !result.Complete(m.Rubric) {
			http.Error(w, "marking incomplete: every criterion needs a score", http.StatusUnprocessableEntity)
			return
		}

		mark := moderation.Mark{
			ID:           uuid.NewString(),
			ModerationID: modID,
			MarkerID:     markerID,
			Result:       result,
			TotalScore:   result.Total(),
			SubmittedAt:  time.Now().Unix(),
		}
		if err := store.PutMark(r.Context(), mark); err != nil {
			http.Error(w, "save marks: "+err.Error(), 500)
			return
		}
		if err := events.Record(r.Context(), syncx.TypeMarksSubmitted, modID,
			map[string]any{"marker_id": markerID, "total": mark.TotalScore}); err != nil {
			log.Printf("event log: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "total": mark.TotalScore})
	}
}

// GET /moderations/{id}/marks returns the caller's own submission. Admins may
// fetch any marker's via ?marker_id=.
func GetMarkHandler(store *moderation.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modID := chi.URLParam(r, "id")
		markerID := authmw.SubjectFromContext(r.Context())
		if q := r.URL.Query().Get("marker_id"); q != "" && isAdmin(r) {
			markerID = q
		}
		mark, err := store.GetMark(r.Context(), modID, markerID)
		if err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				http.Error(w, "no marks submitted", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(mark)
	}
}
