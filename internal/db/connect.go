package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:amt.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/amt?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// The moderation slot tuple is UNIQUE at the schema level: two concurrent
// uploads can both pass an existence check, so the constraint is what keeps
// the slot at-most-one.
const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS moderations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  year INTEGER NOT NULL,
  semester INTEGER NOT NULL,
  assignment_num INTEGER NOT NULL,
  moderation_num INTEGER NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  due_date TEXT NOT NULL DEFAULT '',
  upload_date INTEGER NOT NULL,
  hidden_from_markers INTEGER NOT NULL DEFAULT 0,
  rubric_json TEXT NOT NULL DEFAULT '',
  assignment_key TEXT NOT NULL DEFAULT '',
  rubric_key TEXT NOT NULL DEFAULT '',
  admin_feedback_key TEXT NOT NULL DEFAULT '',
  admin_feedback TEXT NOT NULL DEFAULT '',
  admin_id TEXT NOT NULL DEFAULT '',
  UNIQUE (year, semester, assignment_num, moderation_num)
);

CREATE TABLE IF NOT EXISTS marks (
  id TEXT PRIMARY KEY,
  moderation_id TEXT NOT NULL REFERENCES moderations(id) ON DELETE CASCADE,
  marker_id TEXT NOT NULL,
  result_json TEXT NOT NULL,
  total_score REAL NOT NULL DEFAULT 0,
  submitted_at INTEGER NOT NULL,
  UNIQUE (moderation_id, marker_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., MarksSubmitted
  key TEXT NOT NULL,                         -- natural key: moderationID or markID
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS moderations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  year INTEGER NOT NULL,
  semester INTEGER NOT NULL,
  assignment_num INTEGER NOT NULL,
  moderation_num INTEGER NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  due_date TEXT NOT NULL DEFAULT '',
  upload_date BIGINT NOT NULL,
  hidden_from_markers INTEGER NOT NULL DEFAULT 0,
  rubric_json TEXT NOT NULL DEFAULT '',
  assignment_key TEXT NOT NULL DEFAULT '',
  rubric_key TEXT NOT NULL DEFAULT '',
  admin_feedback_key TEXT NOT NULL DEFAULT '',
  admin_feedback TEXT NOT NULL DEFAULT '',
  admin_id TEXT NOT NULL DEFAULT '',
  UNIQUE (year, semester, assignment_num, moderation_num)
);

CREATE TABLE IF NOT EXISTS marks (
  id TEXT PRIMARY KEY,
  moderation_id TEXT NOT NULL REFERENCES moderations(id) ON DELETE CASCADE,
  marker_id TEXT NOT NULL,
  result_json TEXT NOT NULL,
  total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  submitted_at BIGINT NOT NULL,
  UNIQUE (moderation_id, marker_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  offset BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
