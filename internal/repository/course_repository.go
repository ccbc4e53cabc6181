package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/afit-lms/edge-server/internal/models"
)

// CourseRepository manages the synchronized course mirror.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Insert stores a course pushed down from the central store.
func (r *CourseRepository) Insert(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (code, course_id, title) VALUES (:code, :course_id, :title)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return translateConstraint("insert course", err)
	}
	return nil
}

// List returns all mirrored courses.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT code, course_id, title, created_at FROM courses ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode fetches a single course.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT code, course_id, title, created_at FROM courses WHERE code = ?`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Codes returns just the course codes, the payload terminals ask for.
func (r *CourseRepository) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, `SELECT code FROM courses ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list course codes: %w", err)
	}
	return codes, nil
}
