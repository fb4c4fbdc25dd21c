package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/amtlabs/amt/internal/auth/middleware"
	"github.com/amtlabs/amt/internal/moderation"
)

// POST /users lets an admin create a marker account.
func CreateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username  string `json:"username"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Role      string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = "marker"
		}
		if req.Role != "marker" && req.Role != "admin" {
			http.Error(w, "role must be marker or admin", http.StatusBadRequest)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash password", 500)
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, pass_hash, role, first_name, last_name)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			id, req.Username, string(hash), req.Role, req.FirstName, req.LastName)
		if err != nil {
			http.Error(w, "create user: username may already exist", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "username": req.Username, "role": req.Role})
	}
}

// GET /users/markers
func ListMarkersHandler(store *moderation.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markers, err := store.ListMarkers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out := make([]map[string]string, 0, len(markers))
		for _, m := range markers {
			out = append(out, map[string]string{
				"id":           m.ID,
				"first_name":   m.FirstName,
				"last_name":    m.LastName,
				"display_name": m.DisplayName(),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"markers": out})
	}
}

// POST /users/change-password rotates the caller's own password.
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT pass_hash FROM users WHERE id=$1`, sub).Scan(&hash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OldPassword)) != nil {
			http.Error(w, "old password does not match", http.StatusForbidden)
			return
		}
		newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash password", 500)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET pass_hash=$1 WHERE id=$2`, string(newHash), sub); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}
