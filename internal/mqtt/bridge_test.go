package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/service"
	"github.com/afit-lms/edge-server/pkg/config"
)

type fakeRecorder struct {
	sessions   []service.LectureSessionMessage
	records    []service.AttendanceMessage
	batches    []service.TerminalAttendanceBatch
	codes      []string
	info       *models.CourseAttendance
	codesErr   error
	sessionErr error
}

func (f *fakeRecorder) RecordSession(_ context.Context, msg service.LectureSessionMessage) (int64, error) {
	if f.sessionErr != nil {
		return 0, f.sessionErr
	}
	f.sessions = append(f.sessions, msg)
	return int64(len(f.sessions)), nil
}

func (f *fakeRecorder) RecordAttendance(_ context.Context, msg service.AttendanceMessage) error {
	f.records = append(f.records, msg)
	return nil
}

func (f *fakeRecorder) CourseCodes(_ context.Context) ([]string, error) {
	return f.codes, f.codesErr
}

func (f *fakeRecorder) AttendanceInfo(_ context.Context, courseCode string) (*models.CourseAttendance, error) {
	if f.info == nil {
		return nil, errors.New("no course")
	}
	return f.info, nil
}

func (f *fakeRecorder) ApplyTerminalBatch(_ context.Context, batch service.TerminalAttendanceBatch) error {
	f.batches = append(f.batches, batch)
	return nil
}

type published struct {
	topic   string
	payload []byte
}

func newTestBridge(rec *fakeRecorder) (*Bridge, *[]published) {
	var out []published
	cfg := config.MQTTConfig{Host: "localhost", Port: 1883, ClientID: "test", ConnectTimeout: time.Second}
	bridge := NewBridge(cfg, rec, service.NewMetricsService(), zap.NewNop())
	return bridge, &out
}

func capture(out *[]published) publishFunc {
	return func(topic string, payload []byte) {
		*out = append(*out, published{topic: topic, payload: payload})
	}
}

func TestBridgeRoutesLectureSession(t *testing.T) {
	rec := &fakeRecorder{}
	bridge, out := newTestBridge(rec)

	body, err := json.Marshal(map[string]any{
		"course_code":  "CSC101",
		"lecturer_id":  7,
		"session_date": time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	bridge.handleMessage(TopicLectureSession, body, capture(out))

	require.Len(t, rec.sessions, 1)
	assert.Equal(t, "CSC101", rec.sessions[0].CourseCode)
	assert.EqualValues(t, 7, rec.sessions[0].LecturerID)
	assert.Empty(t, *out)
}

func TestBridgeRoutesAttendanceRecord(t *testing.T) {
	rec := &fakeRecorder{}
	bridge, out := newTestBridge(rec)

	body := []byte(`{"session_id":3,"student_id":12,"attended":true}`)
	bridge.handleMessage(TopicAttendance, body, capture(out))

	require.Len(t, rec.records, 1)
	assert.EqualValues(t, 3, rec.records[0].SessionID)
	assert.EqualValues(t, 12, rec.records[0].StudentID)
	assert.True(t, rec.records[0].Attended)
}

func TestBridgeDropsMalformedPayload(t *testing.T) {
	rec := &fakeRecorder{}
	bridge, out := newTestBridge(rec)

	bridge.handleMessage(TopicLectureSession, []byte("{not json"), capture(out))
	bridge.handleMessage(TopicAttendance, []byte("[]"), capture(out))

	assert.Empty(t, rec.sessions)
	assert.Empty(t, rec.records)
	assert.Empty(t, *out)
}

func TestBridgeAnswersCourseCodesRequest(t *testing.T) {
	rec := &fakeRecorder{codes: []string{"CSC101", "MTH201"}}
	bridge, out := newTestBridge(rec)

	bridge.handleMessage(TopicRequestCourseCodes, []byte(`{}`), capture(out))

	require.Len(t, *out, 1)
	assert.Equal(t, TopicResponseCourseCodes, (*out)[0].topic)

	var codes []string
	require.NoError(t, json.Unmarshal((*out)[0].payload, &codes))
	assert.Equal(t, []string{"CSC101", "MTH201"}, codes)
}

func TestBridgeAnswersEmptyCourseCodesAsList(t *testing.T) {
	rec := &fakeRecorder{}
	bridge, out := newTestBridge(rec)

	bridge.handleMessage(TopicRequestCourseCodes, nil, capture(out))

	require.Len(t, *out, 1)
	assert.JSONEq(t, `[]`, string((*out)[0].payload))
}

func TestBridgeAnswersAttendanceInfoRequest(t *testing.T) {
	rec := &fakeRecorder{info: &models.CourseAttendance{
		Course:    models.Course{Code: "CSC101", Title: "Intro to Computing"},
		SessionID: 9,
	}}
	bridge, out := newTestBridge(rec)

	bridge.handleMessage(TopicRequestAttendanceInfo, []byte(`{"course_code":"CSC101"}`), capture(out))

	require.Len(t, *out, 1)
	assert.Equal(t, TopicResponseAttendanceInfo, (*out)[0].topic)

	var info models.CourseAttendance
	require.NoError(t, json.Unmarshal((*out)[0].payload, &info))
	assert.Equal(t, "CSC101", info.Course.Code)
	assert.EqualValues(t, 9, info.SessionID)
}

func TestBridgeMapsTerminalRecordBatch(t *testing.T) {
	rec := &fakeRecorder{}
	bridge, out := newTestBridge(rec)

	body := []byte(`{
		"course_code": "CSC101",
		"updates": {
			"lecturer": true,
			"students": [
				{"sch_id": "U19CS1001", "attended": true},
				{"sch_id": "U19CS1002", "attended": false}
			]
		}
	}`)
	bridge.handleMessage(TopicRecordAttendance, body, capture(out))

	require.Len(t, rec.batches, 1)
	batch := rec.batches[0]
	assert.Equal(t, "CSC101", batch.CourseCode)
	assert.True(t, batch.Lecturer)
	require.Len(t, batch.Students, 2)
	assert.Equal(t, "U19CS1001", batch.Students[0].SchID)
	assert.False(t, batch.Students[1].Attended)
}

func TestBridgeSurvivesHandlerError(t *testing.T) {
	rec := &fakeRecorder{sessionErr: errors.New("db locked"), codesErr: errors.New("db locked")}
	bridge, out := newTestBridge(rec)

	bridge.handleMessage(TopicLectureSession, []byte(`{"course_code":"CSC101","lecturer_id":1,"session_date":"2026-03-02T09:00:00Z"}`), capture(out))
	bridge.handleMessage(TopicRequestCourseCodes, nil, capture(out))

	assert.Empty(t, rec.sessions)
	assert.Empty(t, *out)
}
