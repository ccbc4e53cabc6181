package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/afit-lms/edge-server/internal/models"
)

// EnrollmentRepository persists card-to-user mappings, the only durable
// output of an enrollment session.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Upsert writes the card mapping keyed by card uid. Re-enrolling a known
// card replaces its owner.
func (r *EnrollmentRepository) Upsert(ctx context.Context, enrollment *models.CardEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	const query = `INSERT INTO card_enrollments (id, rfid_uid, username, unique_id, created_at, updated_at)
		VALUES (:id, :rfid_uid, :username, :unique_id, :created_at, :updated_at)
		ON CONFLICT(rfid_uid) DO UPDATE SET
			username = excluded.username,
			unique_id = excluded.unique_id,
			updated_at = excluded.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return translateConstraint("upsert card enrollment", err)
	}
	return nil
}

// FindByUID resolves the identity bound to a card.
func (r *EnrollmentRepository) FindByUID(ctx context.Context, rfidUID string) (*models.CardEnrollment, error) {
	const query = `SELECT id, rfid_uid, username, unique_id, created_at, updated_at FROM card_enrollments WHERE rfid_uid = ?`
	var enrollment models.CardEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, rfidUID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find card enrollment: %w", err)
	}
	return &enrollment, nil
}
