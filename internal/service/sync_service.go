package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/repository"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
)

const (
	cacheKeyLecturers = "sync:lecturers"
	cacheKeyStudents  = "sync:students"
	cacheKeyCourses   = "sync:courses"
)

type lecturerRepository interface {
	Insert(ctx context.Context, lecturer *models.Lecturer) error
	List(ctx context.Context) ([]models.Lecturer, error)
	DeleteAll(ctx context.Context) error
}

type studentSyncRepository interface {
	Insert(ctx context.Context, student *models.Student) error
	List(ctx context.Context) ([]models.Student, error)
	DeleteAll(ctx context.Context) error
}

type courseSyncRepository interface {
	Insert(ctx context.Context, course *models.Course) error
	List(ctx context.Context) ([]models.Course, error)
}

type referenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SyncLecturerRequest carries one lecturer record pushed from the central
// store. IDs come from the central side; the edge never mints them.
type SyncLecturerRequest struct {
	ID      int64  `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	SchID   string `json:"sch_id" validate:"required"`
	RFIDUID string `json:"rfid_uid"`
}

// SyncStudentRequest carries one student record from the central store.
type SyncStudentRequest struct {
	ID      int64  `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	SchID   string `json:"sch_id" validate:"required"`
	RFIDUID string `json:"rfid_uid"`
}

// SyncCourseRequest carries one course record from the central store.
type SyncCourseRequest struct {
	Code     string `json:"code" validate:"required"`
	CourseID int64  `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
}

// SyncService mirrors reference data (lecturers, students, courses) pushed
// down from the central store, with read-through caching for the list
// endpoints terminals and dashboards poll.
type SyncService struct {
	lecturers lecturerRepository
	students  studentSyncRepository
	courses   courseSyncRepository
	cache     referenceCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewSyncService constructs the sync service.
func NewSyncService(lecturers lecturerRepository, students studentSyncRepository, courses courseSyncRepository, cache referenceCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *SyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		lecturers: lecturers,
		students:  students,
		courses:   courses,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// SyncLecturer stores one lecturer record.
func (s *SyncService) SyncLecturer(ctx context.Context, req SyncLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer data provided")
	}
	lecturer := &models.Lecturer{ID: req.ID, Name: req.Name, SchID: req.SchID, RFIDUID: req.RFIDUID}
	if err := s.lecturers.Insert(ctx, lecturer); err != nil {
		return nil, s.mapWriteError(err, "lecturer")
	}
	s.invalidate(ctx, cacheKeyLecturers)
	s.logger.Info("lecturer synced", zap.String("sch_id", req.SchID))
	return lecturer, nil
}

// Lecturers lists the mirrored lecturers, cache first.
func (s *SyncService) Lecturers(ctx context.Context) ([]models.Lecturer, error) {
	var cached []models.Lecturer
	if err := s.cache.Get(ctx, cacheKeyLecturers, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false)

	lecturers, err := s.lecturers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	if err := s.cache.Set(ctx, cacheKeyLecturers, lecturers, s.cacheTTL); err != nil {
		s.logger.Warn("lecturer cache write failed", zap.Error(err))
	}
	return lecturers, nil
}

// PurgeLecturers clears the lecturer mirror ahead of a full resync.
func (s *SyncService) PurgeLecturers(ctx context.Context) error {
	if err := s.lecturers.DeleteAll(ctx); err != nil {
		return s.mapWriteError(err, "lecturer")
	}
	s.invalidate(ctx, cacheKeyLecturers)
	return nil
}

// SyncStudent stores one student record.
func (s *SyncService) SyncStudent(ctx context.Context, req SyncStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student data provided")
	}
	student := &models.Student{ID: req.ID, Name: req.Name, SchID: req.SchID, RFIDUID: req.RFIDUID}
	if err := s.students.Insert(ctx, student); err != nil {
		return nil, s.mapWriteError(err, "student")
	}
	s.invalidate(ctx, cacheKeyStudents)
	s.logger.Info("student synced", zap.String("sch_id", req.SchID))
	return student, nil
}

// Students lists the mirrored students, cache first.
func (s *SyncService) Students(ctx context.Context) ([]models.Student, error) {
	var cached []models.Student
	if err := s.cache.Get(ctx, cacheKeyStudents, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false)

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if err := s.cache.Set(ctx, cacheKeyStudents, students, s.cacheTTL); err != nil {
		s.logger.Warn("student cache write failed", zap.Error(err))
	}
	return students, nil
}

// PurgeStudents clears the student mirror ahead of a full resync.
func (s *SyncService) PurgeStudents(ctx context.Context) error {
	if err := s.students.DeleteAll(ctx); err != nil {
		return s.mapWriteError(err, "student")
	}
	s.invalidate(ctx, cacheKeyStudents)
	return nil
}

// SyncCourse stores one course record.
func (s *SyncService) SyncCourse(ctx context.Context, req SyncCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course data provided")
	}
	course := &models.Course{Code: req.Code, CourseID: req.CourseID, Title: req.Title}
	if err := s.courses.Insert(ctx, course); err != nil {
		return nil, s.mapWriteError(err, "course")
	}
	s.invalidate(ctx, cacheKeyCourses)
	s.logger.Info("course synced", zap.String("code", req.Code))
	return course, nil
}

// Courses lists the mirrored courses, cache first.
func (s *SyncService) Courses(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if err := s.cache.Get(ctx, cacheKeyCourses, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false)

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if err := s.cache.Set(ctx, cacheKeyCourses, courses, s.cacheTTL); err != nil {
		s.logger.Warn("course cache write failed", zap.Error(err))
	}
	return courses, nil
}

func (s *SyncService) mapWriteError(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, entity+" already synced")
	case errors.Is(err, repository.ErrForeignKey):
		return appErrors.Clone(appErrors.ErrIntegrity, "integrity error syncing "+entity)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error syncing "+entity)
	}
}

func (s *SyncService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
