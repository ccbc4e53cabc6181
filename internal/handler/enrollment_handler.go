package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afit-lms/edge-server/internal/service"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
	"github.com/afit-lms/edge-server/pkg/response"
)

// EnrollmentHandler exposes the card enrollment endpoint.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Begin godoc
// @Summary Start a card enrollment session
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.BeginEnrollmentRequest true "Enrollment payload"
// @Success 202 {object} response.Envelope
// @Router /cs/enroll [post]
func (h *EnrollmentHandler) Begin(c *gin.Context) {
	var req service.BeginEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	ticket, err := h.enrollments.Begin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The 202 only acknowledges acceptance; the outcome arrives on the
	// status channel.
	response.Accepted(c, gin.H{
		"message":               "Enrollment process initiated. Connect to the status channel for updates.",
		"enrollment_session_id": ticket.SessionID,
		"websocket_url":         fmt.Sprintf("ws://%s%s", c.Request.Host, ticket.ChannelPath),
	})
}
