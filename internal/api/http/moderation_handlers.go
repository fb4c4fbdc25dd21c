package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/amtlabs/amt/internal/auth/middleware"
	"github.com/amtlabs/amt/internal/moderation"
	"github.com/amtlabs/amt/internal/rubric"
	"github.com/amtlabs/amt/internal/rubric/extract"
	"github.com/amtlabs/amt/internal/stats"
	"github.com/amtlabs/amt/internal/storage"
	syncx "github.com/amtlabs/amt/internal/sync"
)

// POST /upload_moderation (multipart: assignment=file, rubric=file OR rubric_table=json)
func UploadModerationHandler(store *moderation.SQLStore, bs storage.BlobStore, events *syncx.EventRepo, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		af, ahdr, err := r.FormFile("assignment")
		if err != nil {
			http.Error(w, "assignment file required", http.StatusBadRequest)
			return
		}
		defer af.Close()

		// Rubric comes either as an uploaded document or as a manually
		// entered table in the canonical JSON shape.
		var (
			rb         rubric.Rubric
			rubricName string
			rubricData []byte
		)
		if rf, rhdr, ferr := r.FormFile("rubric"); ferr == nil {
			defer rf.Close()
			rubricData, err = io.ReadAll(rf)
			if err != nil {
				http.Error(w, "read rubric: "+err.Error(), http.StatusBadRequest)
				return
			}
			rubricName = rhdr.Filename
			rb, err = extract.FromBytes(rhdr.Filename, rubricData)
			if err != nil {
				writeRubricError(w, err)
				return
			}
		} else if table := r.FormValue("rubric_table"); table != "" {
			rb, err = rubric.Decode([]byte(table))
			if err != nil {
				http.Error(w, "bad rubric table json", http.StatusBadRequest)
				return
			}
			rb = rubric.Repair(rb)
			rb.SourceReference = "manual"
		} else {
			http.Error(w, "rubric file or rubric_table required", http.StatusBadRequest)
			return
		}

		m := moderation.Moderation{
			ID:            uuid.NewString(),
			Name:          strings.TrimSpace(r.FormValue("name")),
			Year:          parseIntDefault(r.FormValue("year"), 0),
			Semester:      parseIntDefault(r.FormValue("semester"), 0),
			AssignmentNum: parseIntDefault(r.FormValue("assignment_number"), 0),
			ModerationNum: parseIntDefault(r.FormValue("moderation_number"), 0),
			Description:   strings.TrimSpace(r.FormValue("description")),
			DueDate:       strings.TrimSpace(r.FormValue("due_date")),
			UploadDate:    time.Now().Unix(),
			Rubric:        rb,
			AdminID:       authmw.SubjectFromContext(r.Context()),
		}
		if m.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}

		key, err := bs.Put(storage.AssignmentKey(m.ID, ahdr.Filename), af)
		if err != nil {
			http.Error(w, "store assignment: "+err.Error(), 500)
			return
		}
		m.AssignmentKey = key
		if rubricData != nil {
			key, err := bs.Put(storage.RubricKey(m.ID, rubricName), strings.NewReader(string(rubricData)))
			if err != nil {
				http.Error(w, "store rubric: "+err.Error(), 500)
				return
			}
			m.RubricKey = key
		}

		if err := store.PutModeration(r.Context(), m); err != nil {
			if errors.Is(err, moderation.ErrDuplicateSlot) {
				http.Error(w, "a moderation already exists for that year/semester/assignment/moderation", http.StatusConflict)
				return
			}
			http.Error(w, "save moderation: "+err.Error(), 500)
			return
		}
		if err := events.Record(r.Context(), syncx.TypeModerationPublished, m.ID,
			map[string]any{"name": m.Name, "admin_id": m.AdminID}); err != nil {
			log.Printf("event log: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "moduleId": m.ID})
	}
}

// writeRubricError maps the extraction error taxonomy onto HTTP statuses.
// The underlying cause is logged, never echoed to the client.
func writeRubricError(w http.ResponseWriter, err error) {
	var pe *rubric.ParseError
	var se *rubric.StructuralError
	switch {
	case errors.Is(err, rubric.ErrUnsupportedFormat):
		http.Error(w, "unsupported rubric format", http.StatusUnsupportedMediaType)
	case errors.As(err, &pe):
		log.Printf("rubric parse: %v", pe)
		http.Error(w, "rubric parsing failed", http.StatusUnprocessableEntity)
	case errors.As(err, &se):
		http.Error(w, "could not build rubric from file: "+se.Reason, http.StatusUnprocessableEntity)
	default:
		http.Error(w, "rubric extraction failed", 500)
	}
}

// GET /moderations/{id}
func GetModerationHandler(store *moderation.SQLStore, bs storage.BlobStore) http.HandlerFunc {
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
		_ = json.NewEncoder(w).Encode(moderationView(m, bs))
	}
}

// GET /moderations
func ListModerationsHandler(store *moderation.SQLStore, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeHidden := isAdmin(r)
		list, err := store.ListModerations(r.Context(), includeHidden)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out := make([]map[string]any, 0, len(list))
		for _, m := range list {
			out = append(out, moderationView(m, bs))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"moderations": out})
	}
}

// POST /moderations/batch-delete  { "ids": [...] }
func BatchDeleteHandler(store *moderation.SQLStore, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
			http.Error(w, "no moderation IDs supplied", http.StatusBadRequest)
			return
		}
		// Collect blob keys before the rows go away.
		var keys []string
		for _, id := range req.IDs {
			m, err := store.GetModeration(r.Context(), id)
			if err != nil {
				continue
			}
			keys = append(keys, m.AssignmentKey, m.RubricKey, m.AdminFeedbackKey)
		}
		if err := store.DeleteModerations(r.Context(), req.IDs); err != nil {
			http.Error(w, "delete moderations: "+err.Error(), 500)
			return
		}
		for _, k := range keys {
			if k == "" {
				continue
			}
			if err := bs.Delete(k); err != nil {
				log.Printf("delete blob %s: %v", k, err)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}

// POST /moderations/batch-visibility  { "ids": [...], "hidden": bool }
func BatchVisibilityHandler(store *moderation.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs    []string `json:"ids"`
			Hidden bool     `json:"hidden"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
			http.Error(w, "no moderation IDs supplied", http.StatusBadRequest)
			return
		}
		if err := store.SetHidden(r.Context(), req.IDs, req.Hidden); err != nil {
			http.Error(w, "update visibility: "+err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "hidden": req.Hidden})
	}
}

// POST /moderations/{id}/admin_feedback stores the admin's reference scoring.
func SaveAdminFeedbackHandler(store *moderation.SQLStore, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		// Validate the shape before persisting.
		if _, err := stats.ParseAdminFeedback(body); err != nil {
			http.Error(w, "bad admin feedback json", http.StatusBadRequest)
			return
		}
		if err := store.SaveAdminFeedback(r.Context(), id, body, ""); err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				http.Error(w, "moderation not found", http.StatusNotFound)
				return
			}
			http.Error(w, "save admin feedback: "+err.Error(), 500)
			return
		}
		if err := events.Record(r.Context(), syncx.TypeAdminFeedbackSaved, id, nil); err != nil {
			log.Printf("event log: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}

func moderationView(m moderation.Moderation, bs storage.BlobStore) map[string]any {
	v := map[string]any{
		"id":                  m.ID,
		"name":                m.Name,
		"year":                m.Year,
		"semester":            m.Semester,
		"assignment_num":      m.AssignmentNum,
		"moderation_num":      m.ModerationNum,
		"description":         m.Description,
		"due_date":            m.DueDate,
		"upload_date":         m.UploadDate,
		"hidden_from_markers": m.Hidden,
		"rubric_json":         m.Rubric,
	}
	if m.AssignmentKey != "" {
		if u, err := bs.SignedURL(m.AssignmentKey); err == nil {
			v["assignment_public_url"] = u
		}
	}
	if m.RubricKey != "" {
		if u, err := bs.SignedURL(m.RubricKey); err == nil {
			v["rubric_public_url"] = u
		}
	}
	if m.AdminFeedbackKey != "" {
		if u, err := bs.SignedURL(m.AdminFeedbackKey); err == nil {
			v["admin_feedback_public_url"] = u
		}
	}
	return v
}
