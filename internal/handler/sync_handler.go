package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afit-lms/edge-server/internal/service"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
	"github.com/afit-lms/edge-server/pkg/response"
)

// SyncHandler exposes the reference data sync surface the central server
// pushes into.
type SyncHandler struct {
	sync *service.SyncService
}

// NewSyncHandler constructs SyncHandler.
func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// CreateLecturer godoc
// @Summary Sync one lecturer from the central store
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body service.SyncLecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Router /cs/sync/lecturers [post]
func (h *SyncHandler) CreateLecturer(c *gin.Context) {
	var req service.SyncLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecturer, err := h.sync.SyncLecturer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// ListLecturers godoc
// @Summary List mirrored lecturers
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cs/sync/lecturers [get]
func (h *SyncHandler) ListLecturers(c *gin.Context) {
	lecturers, err := h.sync.Lecturers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers)
}

// DeleteLecturers godoc
// @Summary Clear the lecturer mirror
// @Tags Sync
// @Success 204
// @Router /cs/sync/lecturers [delete]
func (h *SyncHandler) DeleteLecturers(c *gin.Context) {
	if err := h.sync.PurgeLecturers(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateStudent godoc
// @Summary Sync one student from the central store
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body service.SyncStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /cs/sync/students [post]
func (h *SyncHandler) CreateStudent(c *gin.Context) {
	var req service.SyncStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.sync.SyncStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// ListStudents godoc
// @Summary List mirrored students
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cs/sync/students [get]
func (h *SyncHandler) ListStudents(c *gin.Context) {
	students, err := h.sync.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// DeleteStudents godoc
// @Summary Clear the student mirror
// @Tags Sync
// @Success 204
// @Router /cs/sync/students [delete]
func (h *SyncHandler) DeleteStudents(c *gin.Context) {
	if err := h.sync.PurgeStudents(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateCourse godoc
// @Summary Sync one course from the central store
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body service.SyncCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /cs/sync/courses [post]
func (h *SyncHandler) CreateCourse(c *gin.Context) {
	var req service.SyncCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.sync.SyncCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// ListCourses godoc
// @Summary List mirrored courses
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cs/sync/courses [get]
func (h *SyncHandler) ListCourses(c *gin.Context) {
	courses, err := h.sync.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}
