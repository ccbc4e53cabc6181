package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/pkg/export"
	appErrors "github.com/afit-lms/edge-server/pkg/errors"
)

// Report output formats.
const (
	ReportFormatPDF = "pdf"
	ReportFormatCSV = "csv"
)

// ReportService renders attendance sheets for a course's latest session.
type ReportService struct {
	attendance *AttendanceService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(attendance *AttendanceService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// AttendanceSheet renders the latest-session roster for a course in the
// requested format and returns the bytes plus their content type.
func (s *ReportService) AttendanceSheet(ctx context.Context, courseCode, format string) ([]byte, string, error) {
	info, err := s.attendance.AttendanceInfo(ctx, courseCode)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "School ID", "Time", "Attended"},
	}
	for _, entry := range info.Roster {
		attended := "no"
		if entry.Attended {
			attended = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":   entry.StudentName,
			"School ID": entry.SchID,
			"Time":      entry.AttendanceTime.Format(time.RFC3339),
			"Attended":  attended,
		})
	}

	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case ReportFormatPDF, "":
		title := fmt.Sprintf("%s %s attendance", info.Course.Code, info.Course.Title)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format: "+format)
	}
}
