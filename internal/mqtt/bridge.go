package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/service"
	"github.com/afit-lms/edge-server/pkg/config"
)

// Topics exchanged with the central store and the field terminals.
const (
	TopicLectureSession = "cs/lecture/session"
	TopicAttendance     = "cs/attendance"

	TopicRequestCourseCodes    = "esp32/request/course_codes"
	TopicRequestAttendanceInfo = "esp32/request/attendance_info"
	TopicRecordAttendance      = "esp32/record/attendance"

	TopicResponseCourseCodes    = "esp32/response/course_codes"
	TopicResponseAttendanceInfo = "esp32/response/attendance_info"
)

const handlerTimeout = 10 * time.Second

type attendanceRecorder interface {
	RecordSession(ctx context.Context, msg service.LectureSessionMessage) (int64, error)
	RecordAttendance(ctx context.Context, msg service.AttendanceMessage) error
	CourseCodes(ctx context.Context) ([]string, error)
	AttendanceInfo(ctx context.Context, courseCode string) (*models.CourseAttendance, error)
	ApplyTerminalBatch(ctx context.Context, batch service.TerminalAttendanceBatch) error
}

type publishFunc func(topic string, payload []byte)

// Bridge links the edge node to the attendance MQTT broker. It mirrors
// lecture sessions and attendance records pushed by the central store
// and answers the request/response topics the terminals use.
type Bridge struct {
	cfg        config.MQTTConfig
	client     paho.Client
	attendance attendanceRecorder
	metrics    *service.MetricsService
	logger     *zap.Logger
}

// NewBridge constructs the broker link. Connect happens in Start.
func NewBridge(cfg config.MQTTConfig, attendance attendanceRecorder, metrics *service.MetricsService, logger *zap.Logger) *Bridge {
	return &Bridge{
		cfg:        cfg,
		attendance: attendance,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start connects to the broker and subscribes. A connect failure is
// returned to the caller so the node can keep serving HTTP without the
// broker; there is no retry loop here.
func (b *Bridge) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port)).
		SetClientID(b.cfg.ClientID).
		SetConnectTimeout(b.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.logger.Warn("mqtt connection lost", zap.Error(err))
		})

	b.client = paho.NewClient(opts)

	token := b.client.Connect()
	if !token.WaitTimeout(b.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect to %s:%d timed out", b.cfg.Host, b.cfg.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	b.logger.Info("mqtt connected",
		zap.String("broker", fmt.Sprintf("%s:%d", b.cfg.Host, b.cfg.Port)),
		zap.String("client_id", b.cfg.ClientID))

	return nil
}

// Stop disconnects from the broker, allowing in-flight work to flush.
func (b *Bridge) Stop() {
	if b.client == nil {
		return
	}
	b.client.Disconnect(250)
	b.logger.Info("mqtt disconnected")
}

func (b *Bridge) onConnect(client paho.Client) {
	topics := map[string]byte{
		TopicLectureSession:        1,
		TopicAttendance:            1,
		TopicRequestCourseCodes:    0,
		TopicRequestAttendanceInfo: 0,
		TopicRecordAttendance:      0,
	}

	handler := func(c paho.Client, msg paho.Message) {
		b.handleMessage(msg.Topic(), msg.Payload(), func(topic string, payload []byte) {
			c.Publish(topic, 0, false, payload)
		})
	}

	token := client.SubscribeMultiple(topics, handler)
	if token.WaitTimeout(b.cfg.ConnectTimeout) && token.Error() != nil {
		b.logger.Error("mqtt subscribe failed", zap.Error(token.Error()))
		return
	}

	b.logger.Info("mqtt subscribed", zap.Int("topics", len(topics)))
}

// terminalRecordPayload is the wire shape of esp32/record/attendance.
type terminalRecordPayload struct {
	CourseCode string `json:"course_code"`
	Updates    struct {
		Lecturer bool                               `json:"lecturer"`
		Students []service.TerminalAttendanceUpdate `json:"students"`
	} `json:"updates"`
}

type attendanceInfoRequest struct {
	CourseCode string `json:"course_code"`
}

// courseCodesRequest carries the terminal's filter hints. The reference
// schema has no level/faculty/dept columns, so they are logged only.
type courseCodesRequest struct {
	Level   string `json:"level"`
	Faculty string `json:"faculty"`
	Dept    string `json:"dept"`
}

// handleMessage routes one inbound message. Malformed payloads and
// handler errors are logged and dropped so the subscription survives.
func (b *Bridge) handleMessage(topic string, payload []byte, publish publishFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var err error
	switch topic {
	case TopicLectureSession:
		err = b.handleLectureSession(ctx, payload)
	case TopicAttendance:
		err = b.handleAttendance(ctx, payload)
	case TopicRequestCourseCodes:
		err = b.handleCourseCodesRequest(ctx, payload, publish)
	case TopicRequestAttendanceInfo:
		err = b.handleAttendanceInfoRequest(ctx, payload, publish)
	case TopicRecordAttendance:
		err = b.handleRecordAttendance(ctx, payload)
	default:
		b.logger.Debug("mqtt message on unhandled topic", zap.String("topic", topic))
		return
	}

	if err != nil {
		b.logger.Warn("mqtt message dropped",
			zap.String("topic", topic),
			zap.Error(err))
		b.metrics.ObserveMQTTMessage(topic, "error")
		return
	}

	b.metrics.ObserveMQTTMessage(topic, "ok")
}

func (b *Bridge) handleLectureSession(ctx context.Context, payload []byte) error {
	var msg service.LectureSessionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode lecture session: %w", err)
	}

	sessionID, err := b.attendance.RecordSession(ctx, msg)
	if err != nil {
		return err
	}

	b.logger.Info("lecture session recorded",
		zap.Int64("session_id", sessionID),
		zap.String("course_code", msg.CourseCode))
	return nil
}

func (b *Bridge) handleAttendance(ctx context.Context, payload []byte) error {
	var msg service.AttendanceMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode attendance: %w", err)
	}

	return b.attendance.RecordAttendance(ctx, msg)
}

func (b *Bridge) handleCourseCodesRequest(ctx context.Context, payload []byte, publish publishFunc) error {
	var req courseCodesRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("decode course codes request: %w", err)
		}
	}
	if req.Level != "" || req.Faculty != "" || req.Dept != "" {
		b.logger.Debug("course codes filters ignored",
			zap.String("level", req.Level),
			zap.String("faculty", req.Faculty),
			zap.String("dept", req.Dept))
	}

	codes, err := b.attendance.CourseCodes(ctx)
	if err != nil {
		return err
	}
	if codes == nil {
		codes = []string{}
	}

	body, err := json.Marshal(codes)
	if err != nil {
		return err
	}

	publish(TopicResponseCourseCodes, body)
	return nil
}

func (b *Bridge) handleAttendanceInfoRequest(ctx context.Context, payload []byte, publish publishFunc) error {
	var req attendanceInfoRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode attendance info request: %w", err)
	}

	info, err := b.attendance.AttendanceInfo(ctx, req.CourseCode)
	if err != nil {
		return err
	}

	body, err := json.Marshal(info)
	if err != nil {
		return err
	}

	publish(TopicResponseAttendanceInfo, body)
	return nil
}

func (b *Bridge) handleRecordAttendance(ctx context.Context, payload []byte) error {
	var req terminalRecordPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode terminal record: %w", err)
	}

	return b.attendance.ApplyTerminalBatch(ctx, service.TerminalAttendanceBatch{
		CourseCode: req.CourseCode,
		Lecturer:   req.Updates.Lecturer,
		Students:   req.Updates.Students,
	})
}
