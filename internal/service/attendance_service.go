package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/repository"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
)

type sessionRepository interface {
	InsertSession(ctx context.Context, session *models.LectureSession) (int64, error)
	LatestSessionID(ctx context.Context, courseCode string) (int64, error)
	UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error
	Roster(ctx context.Context, sessionID int64) ([]models.AttendanceEntry, error)
}

type courseReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Codes(ctx context.Context) ([]string, error)
}

type studentResolver interface {
	FindBySchID(ctx context.Context, schID string) (*models.Student, error)
}

// LectureSessionMessage announces a scheduled lecture occurrence, received
// on the lecture session topic.
type LectureSessionMessage struct {
	CourseCode  string    `json:"course_code" validate:"required"`
	LecturerID  int64     `json:"lecturer_id" validate:"required"`
	SessionDate time.Time `json:"session_date" validate:"required"`
}

// AttendanceMessage is one scan event from a terminal.
type AttendanceMessage struct {
	SessionID      int64     `json:"session_id" validate:"required"`
	StudentID      int64     `json:"student_id" validate:"required"`
	AttendanceTime time.Time `json:"attendance_time"`
	Attended       bool      `json:"attended"`
}

// TerminalAttendanceUpdate is one roster row in a terminal batch report,
// keyed by the student's school id.
type TerminalAttendanceUpdate struct {
	SchID    string `json:"sch_id" validate:"required"`
	Attended bool   `json:"attended"`
}

// TerminalAttendanceBatch is a terminal's end-of-lecture report for a
// course's most recent session.
type TerminalAttendanceBatch struct {
	CourseCode string                     `json:"course_code" validate:"required"`
	Lecturer   bool                       `json:"lecturer"`
	Students   []TerminalAttendanceUpdate `json:"students"`
}

// AttendanceService applies attendance traffic arriving from the broker and
// answers terminal queries about courses and rosters.
type AttendanceService struct {
	sessions  sessionRepository
	courses   courseReader
	students  studentResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(sessions sessionRepository, courses courseReader, students studentResolver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{sessions: sessions, courses: courses, students: students, validator: validate, logger: logger}
}

// RecordSession stores a lecture session announcement and returns its id.
func (s *AttendanceService) RecordSession(ctx context.Context, msg LectureSessionMessage) (int64, error) {
	if err := s.validator.Struct(msg); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture session payload")
	}
	id, err := s.sessions.InsertSession(ctx, &models.LectureSession{
		CourseCode:  msg.CourseCode,
		LecturerID:  msg.LecturerID,
		SessionDate: msg.SessionDate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return 0, appErrors.Clone(appErrors.ErrIntegrity, "unknown course or lecturer for session")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record lecture session")
	}
	s.logger.Info("lecture session recorded",
		zap.Int64("session_id", id),
		zap.String("course_code", msg.CourseCode))
	return id, nil
}

// RecordAttendance stores one scan event.
func (s *AttendanceService) RecordAttendance(ctx context.Context, msg AttendanceMessage) error {
	if err := s.validator.Struct(msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	when := msg.AttendanceTime
	if when.IsZero() {
		when = time.Now().UTC()
	}
	record := &models.AttendanceRecord{
		SessionID:      msg.SessionID,
		StudentID:      msg.StudentID,
		AttendanceTime: when,
		Attended:       msg.Attended,
	}
	if err := s.sessions.UpsertAttendance(ctx, record); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return appErrors.Clone(appErrors.ErrIntegrity, "unknown session or student for attendance")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return nil
}

// CourseCodes lists the course codes terminals can select from.
func (s *AttendanceService) CourseCodes(ctx context.Context) ([]string, error) {
	codes, err := s.courses.Codes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course codes")
	}
	return codes, nil
}

// AttendanceInfo returns a course with the roster of its most recent
// session, the payload terminals display at the lecture hall door.
func (s *AttendanceService) AttendanceInfo(ctx context.Context, courseCode string) (*models.CourseAttendance, error) {
	course, err := s.courses.FindByCode(ctx, courseCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	info := &models.CourseAttendance{Course: *course}
	sessionID, err := s.sessions.LatestSessionID(ctx, courseCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return info, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve latest session")
	}
	info.SessionID = sessionID

	roster, err := s.sessions.Roster(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	info.Roster = roster
	return info, nil
}

// ApplyTerminalBatch records a terminal's end-of-lecture report against the
// course's most recent session. Unknown students are skipped and logged;
// the lecturer flag is logged only, since lecturer attendance has no table
// in the edge schema.
func (s *AttendanceService) ApplyTerminalBatch(ctx context.Context, batch TerminalAttendanceBatch) error {
	if err := s.validator.Struct(batch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid terminal attendance payload")
	}

	sessionID, err := s.sessions.LatestSessionID(ctx, batch.CourseCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "no session recorded for course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve latest session")
	}

	s.logger.Info("terminal batch received",
		zap.String("course_code", batch.CourseCode),
		zap.Int64("session_id", sessionID),
		zap.Bool("lecturer_attended", batch.Lecturer),
		zap.Int("students", len(batch.Students)))

	now := time.Now().UTC()
	for _, update := range batch.Students {
		student, err := s.students.FindBySchID(ctx, update.SchID)
		if err != nil {
			s.logger.Warn("skipping unknown student in terminal batch",
				zap.String("sch_id", update.SchID),
				zap.Error(err))
			continue
		}
		record := &models.AttendanceRecord{
			SessionID:      sessionID,
			StudentID:      student.ID,
			AttendanceTime: now,
			Attended:       update.Attended,
		}
		if err := s.sessions.UpsertAttendance(ctx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply terminal batch")
		}
	}
	return nil
}
