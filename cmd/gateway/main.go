package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	api "github.com/amtlabs/amt/internal/api/http"
	auth "github.com/amtlabs/amt/internal/auth/middleware"
	"github.com/amtlabs/amt/internal/config"
	"github.com/amtlabs/amt/internal/db"
	"github.com/amtlabs/amt/internal/moderation"
	rbac "github.com/amtlabs/amt/internal/rbac"
	storage "github.com/amtlabs/amt/internal/storage"
	syncx "github.com/amtlabs/amt/internal/sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := moderation.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)

	if err := ensureAdmin(ctx, dbh, cfg); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		// Admin-only: publish and manage moderations
		pr.With(rbac.Require("moderation:create")).
			Post("/upload_moderation", api.UploadModerationHandler(store, bs, events, cfg.MaxUploadBytes))
		pr.With(rbac.Require("moderation:delete")).
			Post("/moderations/batch-delete", api.BatchDeleteHandler(store, bs))
		pr.With(rbac.Require("moderation:update")).
			Post("/moderations/batch-visibility", api.BatchVisibilityHandler(store))
		pr.With(rbac.Require("moderation:update")).
			Post("/moderations/{id}/admin_feedback", api.SaveAdminFeedbackHandler(store, events))

		// Shared views; what a marker can actually see is narrowed in the
		// handlers by role (hidden moderations, other markers' submissions).
		pr.With(rbac.Require("moderation:view")).
			Get("/moderations", api.ListModerationsHandler(store, bs))
		pr.With(rbac.Require("moderation:view")).
			Get("/moderations/{id}", api.GetModerationHandler(store, bs))
		pr.With(rbac.Require("moderation:view")).
			Post("/display_modules_frontpage", api.FrontPageHandler(store, bs))
		pr.With(rbac.Require("moderation:view")).
			Get("/moderations/{id}/highlight", api.HighlightHandler(store))

		// Marking flow
		pr.With(rbac.Require("marks:submit")).
			Post("/moderations/{id}/marks", api.SubmitMarksHandler(store, events))
		pr.With(rbac.RequireAny("marks:view-own", "marks:view-all")).
			Get("/moderations/{id}/marks", api.GetMarkHandler(store))
		pr.With(rbac.RequireAny("stats:view-own", "stats:view-all")).
			Get("/moderations/{id}/statistics", api.ModerationStatsHandler(store))

		// Users
		pr.With(rbac.Require("users:create")).
			Post("/users", api.CreateUserHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users/markers", api.ListMarkersHandler(store))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// ensureAdmin creates the bootstrap admin account when the users table has
// no row for it. ADMIN_PASS_HASH must be a bcrypt hash; when unset no
// account is created and login is only possible for pre-seeded users.
func ensureAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	if cfg.AdminPassHash == "" {
		return nil
	}
	var id string
	err := dbh.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username=$1`, cfg.AdminUser).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, pass_hash, role, first_name, last_name)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), cfg.AdminUser, cfg.AdminPassHash, "admin", "Unit", "Chair")
	return err
}
