package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afit-lms/edge-server/internal/service"
	"github.com/afit-lms/edge-server/pkg/response"
)

// ReportHandler serves downloadable attendance sheets.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// AttendanceSheet godoc
// @Summary Download the attendance sheet for a course
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param code path string true "Course code"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Router /cs/reports/attendance/{code} [get]
func (h *ReportHandler) AttendanceSheet(c *gin.Context) {
	code := c.Param("code")
	format := c.DefaultQuery("format", service.ReportFormatPDF)

	data, contentType, err := h.reports.AttendanceSheet(c.Request.Context(), code, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_%s.%s", code, format))
	c.Data(http.StatusOK, contentType, data)
}
