package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/repository"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
)

type fakeSessionRepo struct {
	sessions  []models.LectureSession
	records   []models.AttendanceRecord
	roster    []models.AttendanceEntry
	latestID  int64
	latestErr error
	insertErr error
}

func (f *fakeSessionRepo) InsertSession(_ context.Context, session *models.LectureSession) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.sessions = append(f.sessions, *session)
	return int64(len(f.sessions)), nil
}

func (f *fakeSessionRepo) LatestSessionID(_ context.Context, _ string) (int64, error) {
	if f.latestErr != nil {
		return 0, f.latestErr
	}
	return f.latestID, nil
}

func (f *fakeSessionRepo) UpsertAttendance(_ context.Context, record *models.AttendanceRecord) error {
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeSessionRepo) Roster(_ context.Context, _ int64) ([]models.AttendanceEntry, error) {
	return f.roster, nil
}

type fakeCourseReader struct {
	course *models.Course
	codes  []string
}

func (f *fakeCourseReader) FindByCode(_ context.Context, code string) (*models.Course, error) {
	if f.course == nil || f.course.Code != code {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

func (f *fakeCourseReader) Codes(_ context.Context) ([]string, error) {
	return f.codes, nil
}

type fakeStudentResolver struct {
	bySchID map[string]*models.Student
}

func (f *fakeStudentResolver) FindBySchID(_ context.Context, schID string) (*models.Student, error) {
	student, ok := f.bySchID[schID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func newAttendanceFixture(sessions *fakeSessionRepo, courses *fakeCourseReader, students *fakeStudentResolver) *AttendanceService {
	return NewAttendanceService(sessions, courses, students, nil, zap.NewNop())
}

func TestRecordSession(t *testing.T) {
	sessions := &fakeSessionRepo{}
	svc := newAttendanceFixture(sessions, &fakeCourseReader{}, &fakeStudentResolver{})

	id, err := svc.RecordSession(context.Background(), LectureSessionMessage{
		CourseCode:  "CSC101",
		LecturerID:  7,
		SessionDate: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	require.Len(t, sessions.sessions, 1)
}

func TestRecordSessionUnknownCourse(t *testing.T) {
	sessions := &fakeSessionRepo{insertErr: repository.ErrForeignKey}
	svc := newAttendanceFixture(sessions, &fakeCourseReader{}, &fakeStudentResolver{})

	_, err := svc.RecordSession(context.Background(), LectureSessionMessage{
		CourseCode:  "NOPE999",
		LecturerID:  7,
		SessionDate: time.Now(),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrIntegrity.Code, appErr.Code)
}

func TestRecordAttendanceDefaultsTime(t *testing.T) {
	sessions := &fakeSessionRepo{}
	svc := newAttendanceFixture(sessions, &fakeCourseReader{}, &fakeStudentResolver{})

	err := svc.RecordAttendance(context.Background(), AttendanceMessage{
		SessionID: 9,
		StudentID: 12,
		Attended:  true,
	})
	require.NoError(t, err)
	require.Len(t, sessions.records, 1)
	assert.False(t, sessions.records[0].AttendanceTime.IsZero())
}

func TestAttendanceInfoIncludesLatestRoster(t *testing.T) {
	sessions := &fakeSessionRepo{
		latestID: 9,
		roster: []models.AttendanceEntry{
			{StudentID: 12, StudentName: "Ada Obi", SchID: "U19CS1001", Attended: true},
		},
	}
	courses := &fakeCourseReader{course: &models.Course{Code: "CSC101", Title: "Intro to Computing"}}
	svc := newAttendanceFixture(sessions, courses, &fakeStudentResolver{})

	info, err := svc.AttendanceInfo(context.Background(), "CSC101")
	require.NoError(t, err)
	assert.EqualValues(t, 9, info.SessionID)
	require.Len(t, info.Roster, 1)
	assert.Equal(t, "Ada Obi", info.Roster[0].StudentName)
}

func TestAttendanceInfoWithoutSession(t *testing.T) {
	sessions := &fakeSessionRepo{latestErr: sql.ErrNoRows}
	courses := &fakeCourseReader{course: &models.Course{Code: "CSC101", Title: "Intro to Computing"}}
	svc := newAttendanceFixture(sessions, courses, &fakeStudentResolver{})

	info, err := svc.AttendanceInfo(context.Background(), "CSC101")
	require.NoError(t, err)
	assert.Zero(t, info.SessionID)
	assert.Empty(t, info.Roster)
}

func TestAttendanceInfoUnknownCourse(t *testing.T) {
	svc := newAttendanceFixture(&fakeSessionRepo{}, &fakeCourseReader{}, &fakeStudentResolver{})

	_, err := svc.AttendanceInfo(context.Background(), "NOPE999")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestApplyTerminalBatchSkipsUnknownStudents(t *testing.T) {
	sessions := &fakeSessionRepo{latestID: 9}
	students := &fakeStudentResolver{bySchID: map[string]*models.Student{
		"U19CS1001": {ID: 12, Name: "Ada Obi", SchID: "U19CS1001"},
	}}
	svc := newAttendanceFixture(sessions, &fakeCourseReader{}, students)

	err := svc.ApplyTerminalBatch(context.Background(), TerminalAttendanceBatch{
		CourseCode: "CSC101",
		Lecturer:   true,
		Students: []TerminalAttendanceUpdate{
			{SchID: "U19CS1001", Attended: true},
			{SchID: "GHOST", Attended: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, sessions.records, 1)
	assert.EqualValues(t, 12, sessions.records[0].StudentID)
	assert.EqualValues(t, 9, sessions.records[0].SessionID)
}

func TestApplyTerminalBatchNoSession(t *testing.T) {
	sessions := &fakeSessionRepo{latestErr: sql.ErrNoRows}
	svc := newAttendanceFixture(sessions, &fakeCourseReader{}, &fakeStudentResolver{})

	err := svc.ApplyTerminalBatch(context.Background(), TerminalAttendanceBatch{CourseCode: "CSC101"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseCodes(t *testing.T) {
	svc := newAttendanceFixture(&fakeSessionRepo{}, &fakeCourseReader{codes: []string{"CSC101"}}, &fakeStudentResolver{})

	codes, err := svc.CourseCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CSC101"}, codes)
}
