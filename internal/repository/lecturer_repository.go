package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/afit-lms/edge-server/internal/models"
)

// LecturerRepository manages the synchronized lecturer mirror.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// Insert stores a lecturer pushed down from the central store.
func (r *LecturerRepository) Insert(ctx context.Context, lecturer *models.Lecturer) error {
	const query = `INSERT INTO lecturers (id, name, sch_id, rfid_uid) VALUES (:id, :name, :sch_id, :rfid_uid)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return translateConstraint("insert lecturer", err)
	}
	return nil
}

// List returns all mirrored lecturers.
func (r *LecturerRepository) List(ctx context.Context) ([]models.Lecturer, error) {
	const query = `SELECT id, name, sch_id, rfid_uid, created_at FROM lecturers ORDER BY id`
	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query); err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	return lecturers, nil
}

// DeleteAll clears the mirror ahead of a full resync.
func (r *LecturerRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lecturers`); err != nil {
		return translateConstraint("delete lecturers", err)
	}
	return nil
}
