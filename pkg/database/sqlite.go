package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/afit-lms/edge-server/pkg/config"
)

// DSN appends the pragmas every pooled connection must carry. A pragma
// run with Exec applies only to the single connection that executed it,
// so FK enforcement has to ride on the connection string.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// NewSQLite opens the embedded database file owned by this edge node.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", DSN(cfg.Path))
	if err != nil {
		return nil, err
	}

	// modernc's driver serializes through a single connection; more open
	// connections only add lock contention on the file.
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS lecturers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		sch_id TEXT UNIQUE,
		rfid_uid TEXT UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		sch_id TEXT UNIQUE,
		rfid_uid TEXT UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		code TEXT PRIMARY KEY,
		course_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS lecture_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_code TEXT NOT NULL,
		lecturer_id INTEGER NOT NULL,
		session_date TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_code) REFERENCES courses(code) ON DELETE RESTRICT,
		FOREIGN KEY (lecturer_id) REFERENCES lecturers(id) ON DELETE RESTRICT
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		session_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		attendance_time TIMESTAMP NOT NULL,
		attended BOOLEAN NOT NULL DEFAULT 1,
		PRIMARY KEY (session_id, student_id),
		FOREIGN KEY (session_id) REFERENCES lecture_sessions(id) ON DELETE CASCADE,
		FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE RESTRICT
	)`,
	`CREATE TABLE IF NOT EXISTS card_enrollments (
		id TEXT PRIMARY KEY,
		rfid_uid TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL,
		unique_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// EnsureSchema creates the edge schema if it does not exist yet. Runs once
// at startup, before any traffic is accepted.
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
