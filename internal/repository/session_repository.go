package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/afit-lms/edge-server/internal/models"
)

// SessionRepository persists lecture sessions and their attendance records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession records a lecture session and returns its generated id.
func (r *SessionRepository) InsertSession(ctx context.Context, session *models.LectureSession) (int64, error) {
	const query = `INSERT INTO lecture_sessions (course_code, lecturer_id, session_date) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, session.CourseCode, session.LecturerID, session.SessionDate)
	if err != nil {
		return 0, translateConstraint("insert lecture session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("lecture session id: %w", err)
	}
	return id, nil
}

// LatestSessionID resolves the most recent lecture session for a course.
func (r *SessionRepository) LatestSessionID(ctx context.Context, courseCode string) (int64, error) {
	const query = `SELECT id FROM lecture_sessions WHERE course_code = ? ORDER BY session_date DESC, id DESC LIMIT 1`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, courseCode); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("latest session for %s: %w", courseCode, err)
	}
	return id, nil
}

// UpsertAttendance records a student's presence at a session. Terminals may
// re-send the same scan, so the (session, student) key overwrites.
func (r *SessionRepository) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `INSERT INTO attendance_records (session_id, student_id, attendance_time, attended)
		VALUES (:session_id, :student_id, :attendance_time, :attended)
		ON CONFLICT(session_id, student_id) DO UPDATE SET
			attendance_time = excluded.attendance_time,
			attended = excluded.attended`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return translateConstraint("upsert attendance", err)
	}
	return nil
}

// Roster returns attendance rows joined with student identity for a session.
func (r *SessionRepository) Roster(ctx context.Context, sessionID int64) ([]models.AttendanceEntry, error) {
	const query = `SELECT a.student_id, s.name AS student_name, s.sch_id, a.attendance_time, a.attended
		FROM attendance_records a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = ?
		ORDER BY s.name`
	var roster []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &roster, query, sessionID); err != nil {
		return nil, fmt.Errorf("roster for session %d: %w", sessionID, err)
	}
	return roster, nil
}
