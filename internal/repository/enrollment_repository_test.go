package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/afit-lms/edge-server/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryUpsertMintsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO card_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.CardEnrollment{RFIDUID: "04A1B2C3", Username: "ada", UniqueID: "u42"}
	require.NoError(t, repo.Upsert(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.False(t, enrollment.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO card_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	enrollment := &models.CardEnrollment{ID: "enr-1", RFIDUID: "04A1B2C3", Username: "ada", UniqueID: "u42", CreatedAt: created}
	require.NoError(t, repo.Upsert(context.Background(), enrollment))
	require.Equal(t, "enr-1", enrollment.ID)
	require.Equal(t, created, enrollment.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByUID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "rfid_uid", "username", "unique_id", "created_at", "updated_at"}).
		AddRow("enr-1", "04A1B2C3", "ada", "u42", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, rfid_uid, username, unique_id, created_at, updated_at FROM card_enrollments").
		WithArgs("04A1B2C3").
		WillReturnRows(rows)

	enrollment, err := repo.FindByUID(context.Background(), "04A1B2C3")
	require.NoError(t, err)
	require.Equal(t, "ada", enrollment.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByUIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT id, rfid_uid, username, unique_id, created_at, updated_at FROM card_enrollments").
		WithArgs("FFFFFFFF").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUID(context.Background(), "FFFFFFFF")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateConstraint(t *testing.T) {
	dup := translateConstraint("insert student", errors.New("constraint failed: UNIQUE constraint failed: students.sch_id"))
	require.ErrorIs(t, dup, ErrDuplicate)

	fk := translateConstraint("insert session", errors.New("constraint failed: FOREIGN KEY constraint failed"))
	require.ErrorIs(t, fk, ErrForeignKey)

	other := translateConstraint("insert student", errors.New("database is locked"))
	require.NotErrorIs(t, other, ErrDuplicate)
	require.NotErrorIs(t, other, ErrForeignKey)
}
