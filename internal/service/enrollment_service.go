package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/channel"
	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/reader"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
	"github.com/afit-lms/edge-server/pkg/tasks"
)

// StatusChannelPathPrefix is where clients attach for live session updates.
const StatusChannelPathPrefix = "/ws/enrollment_status/"

type enrollmentStore interface {
	Upsert(ctx context.Context, enrollment *models.CardEnrollment) error
}

type statusChannel interface {
	Send(sessionID string, env channel.Envelope) bool
	Unregister(sessionID string)
}

// BeginEnrollmentRequest is the payload accepted by the enroll endpoint.
type BeginEnrollmentRequest struct {
	Username string `json:"username" validate:"required"`
	UniqueID string `json:"unique_id" validate:"required"`
}

// EnrollmentTicket acknowledges an accepted enrollment session. The true
// outcome is only observable on the status channel.
type EnrollmentTicket struct {
	SessionID   string `json:"enrollment_session_id"`
	ChannelPath string `json:"channel_path"`
}

// EnrollmentService orchestrates card enrollment sessions: it launches the
// card read on its own goroutine, relays staged progress to the session's
// status channel, and records the terminal outcome. The service is the
// source of truth for a session; the channel is a side-effect consumer and
// its absence never affects the workflow.
type EnrollmentService struct {
	store     enrollmentStore
	reader    reader.CardReader
	channels  statusChannel
	runner    *tasks.Runner
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewEnrollmentService constructs the enrollment orchestrator.
func NewEnrollmentService(store enrollmentStore, cardReader reader.CardReader, channels statusChannel, runner *tasks.Runner, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		store:     store,
		reader:    cardReader,
		channels:  channels,
		runner:    runner,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// Begin validates the request, mints a session id and schedules the
// workflow. It returns as soon as the workflow is scheduled; it never waits
// for card presentation.
func (s *EnrollmentService) Begin(ctx context.Context, req BeginEnrollmentRequest) (*EnrollmentTicket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and unique_id are required")
	}

	sessionID := fmt.Sprintf("enroll_%s_%d", req.UniqueID, time.Now().Unix())
	if err := s.runner.Go("enrollment:"+sessionID, func(runCtx context.Context) {
		s.run(runCtx, sessionID, req.Username, req.UniqueID)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrollment workflows are not accepting work")
	}

	s.logger.Info("enrollment session accepted",
		zap.String("session_id", sessionID),
		zap.String("username", req.Username))

	return &EnrollmentTicket{
		SessionID:   sessionID,
		ChannelPath: StatusChannelPathPrefix + sessionID,
	}, nil
}

// run executes one enrollment session end to end. Every exit path emits
// exactly one terminal message and then releases the channel entry; no
// fault escapes this function.
func (s *EnrollmentService) run(ctx context.Context, sessionID, username, uniqueID string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("enrollment workflow panicked",
				zap.String("session_id", sessionID),
				zap.Any("panic", rec))
			s.fail(sessionID, "an unexpected error occurred during enrollment", nil)
		}
	}()

	s.emitStage(sessionID, models.StageInitiated, "Enrollment process started")
	s.emitStage(sessionID, models.StageConnectingReader, "Connecting to card reader...")
	s.emitStage(sessionID, models.StageWaitingForCard, "Please present RFID card on terminal.")

	uid, err := s.reader.ReadCard(ctx, username, uniqueID)
	if err != nil {
		var procErr *reader.ProcessError
		switch {
		case errors.As(err, &procErr):
			s.fail(sessionID, procErr.Error(), map[string]interface{}{
				"stdout": strings.TrimSpace(procErr.Stdout),
				"stderr": strings.TrimSpace(procErr.Stderr),
			})
		case errors.Is(err, reader.ErrNoUID):
			s.fail(sessionID, "Enrollment failed: could not retrieve card identifier.", nil)
		default:
			s.logger.Warn("card read failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			s.fail(sessionID, fmt.Sprintf("Enrollment failed: %v", err), nil)
		}
		return
	}

	// The mapping is recorded regardless of whether anyone is still
	// listening; channel delivery stays best-effort.
	enrollment := &models.CardEnrollment{RFIDUID: uid, Username: username, UniqueID: uniqueID}
	if err := s.store.Upsert(ctx, enrollment); err != nil {
		s.logger.Error("failed to record card mapping",
			zap.String("session_id", sessionID),
			zap.String("uid", uid),
			zap.Error(err))
		s.fail(sessionID, "Enrollment failed: could not record card mapping.", nil)
		return
	}

	s.complete(sessionID, uid, username, uniqueID)
}

// emitStage pushes a non-terminal progress update, best-effort.
func (s *EnrollmentService) emitStage(sessionID string, stage models.EnrollmentStage, details string) {
	delivered := s.channels.Send(sessionID, channel.Envelope{
		Type: channel.TypeStatus,
		Data: map[string]interface{}{
			"stage":   stage,
			"details": details,
		},
	})
	if !delivered {
		s.logger.Debug("stage update not delivered",
			zap.String("session_id", sessionID),
			zap.String("stage", string(stage)))
	}
}

func (s *EnrollmentService) complete(sessionID, uid, username, uniqueID string) {
	s.channels.Send(sessionID, channel.Envelope{
		Type: channel.TypeCompleted,
		Data: map[string]interface{}{
			"message":   fmt.Sprintf("Enrollment successful for %s with UID %s.", username, uid),
			"uid":       uid,
			"username":  username,
			"unique_id": uniqueID,
			"success":   true,
		},
	})
	s.channels.Unregister(sessionID)
	s.metrics.ObserveEnrollment(string(models.StageCompleted))
	s.logger.Info("enrollment completed",
		zap.String("session_id", sessionID),
		zap.String("uid", uid))
}

func (s *EnrollmentService) fail(sessionID, message string, details map[string]interface{}) {
	data := map[string]interface{}{
		"message": message,
		"success": false,
	}
	if details != nil {
		data["details"] = details
	}
	s.channels.Send(sessionID, channel.Envelope{Type: channel.TypeFailed, Data: data})
	s.channels.Unregister(sessionID)
	s.metrics.ObserveEnrollment(string(models.StageFailed))
	s.logger.Warn("enrollment failed",
		zap.String("session_id", sessionID),
		zap.String("reason", message))
}
