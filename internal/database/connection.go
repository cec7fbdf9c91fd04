package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/studyplan/internal/config"
)

// Connect opens the database selected by the configuration and creates the schema
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DBType == "postgres" {
		return Open("postgres", cfg.DatabaseURL)
	}

	// Create data directory if it doesn't exist
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return Open("sqlite3", cfg.DBPath)
}

// Open connects with an explicit driver name ("sqlite3" or "postgres") and DSN
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				timezone TEXT NOT NULL DEFAULT 'UTC',
				study_days TEXT NOT NULL DEFAULT '[0,1,2,3,4,5,6]',
				daily_capacity INTEGER NOT NULL DEFAULT 20,
				auto_recovery BOOLEAN NOT NULL DEFAULT false,
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"reviewable_items", `
			CREATE TABLE IF NOT EXISTS reviewable_items (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				content_id BIGINT NOT NULL,
				content_type TEXT NOT NULL,
				due TIMESTAMP NOT NULL,
				stability REAL NOT NULL DEFAULT 0,
				difficulty REAL NOT NULL DEFAULT 5,
				elapsed_days INTEGER NOT NULL DEFAULT 0,
				scheduled_days INTEGER NOT NULL DEFAULT 0,
				reps INTEGER NOT NULL DEFAULT 0,
				lapses INTEGER NOT NULL DEFAULT 0 CHECK (lapses >= 0),
				state TEXT NOT NULL DEFAULT 'NEW',
				last_review TIMESTAMP NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, content_type, content_id)
			)`},
		{"reviewable_items index", `
			CREATE INDEX IF NOT EXISTS idx_reviewable_items_user_due
			ON reviewable_items (user_id, due)`},
		{"study_sessions", `
			CREATE TABLE IF NOT EXISTS study_sessions (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				started_at TIMESTAMP NOT NULL,
				duration INTEGER NOT NULL DEFAULT 0,
				items_studied INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"study_sessions index", `
			CREATE INDEX IF NOT EXISTS idx_study_sessions_user_started
			ON study_sessions (user_id, started_at)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}
