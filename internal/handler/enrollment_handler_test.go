package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/channel"
	"github.com/afit-lms/edge-server/internal/models"
	"github.com/afit-lms/edge-server/internal/reader"
	"github.com/afit-lms/edge-server/internal/service"
	"github.com/afit-lms/edge-server/pkg/tasks"
)

type memoryStore struct{}

func (memoryStore) Upsert(context.Context, *models.CardEnrollment) error { return nil }

func newEnrollRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runner := tasks.NewRunner("test", zap.NewNop())
	runner.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	registry := channel.NewRegistry(zap.NewNop())
	svc := service.NewEnrollmentService(memoryStore{}, reader.NewSimReader(10*time.Millisecond), registry, runner, nil, zap.NewNop(), nil)

	r := gin.New()
	r.POST("/cs/enroll", NewEnrollmentHandler(svc).Begin)
	return r
}

func TestEnrollEndpointAccepts(t *testing.T) {
	r := newEnrollRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cs/enroll", strings.NewReader(`{"username":"ada","unique_id":"u42"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Host = "edge.local:8000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var body struct {
		Data struct {
			Message   string `json:"message"`
			SessionID string `json:"enrollment_session_id"`
			SocketURL string `json:"websocket_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Data.SessionID, "enroll_u42_"))
	assert.Equal(t, "ws://edge.local:8000"+service.StatusChannelPathPrefix+body.Data.SessionID, body.Data.SocketURL)
}

func TestEnrollEndpointRejectsMissingFields(t *testing.T) {
	r := newEnrollRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cs/enroll", strings.NewReader(`{"username":"ada"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollEndpointRejectsMalformedJSON(t *testing.T) {
	r := newEnrollRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cs/enroll", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
