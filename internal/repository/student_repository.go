package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/afit-lms/edge-server/internal/models"
)

// StudentRepository manages the synchronized student mirror.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Insert stores a student pushed down from the central store.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (id, name, sch_id, rfid_uid) VALUES (:id, :name, :sch_id, :rfid_uid)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return translateConstraint("insert student", err)
	}
	return nil
}

// List returns all mirrored students.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, name, sch_id, rfid_uid, created_at FROM students ORDER BY id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindBySchID resolves a student by school id, used when terminals report
// attendance keyed by the id printed on the student card.
func (r *StudentRepository) FindBySchID(ctx context.Context, schID string) (*models.Student, error) {
	const query = `SELECT id, name, sch_id, rfid_uid, created_at FROM students WHERE sch_id = ?`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, schID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by sch_id: %w", err)
	}
	return &student, nil
}

// DeleteAll clears the mirror ahead of a full resync.
func (r *StudentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students`); err != nil {
		return translateConstraint("delete students", err)
	}
	return nil
}
