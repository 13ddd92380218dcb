package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/export"
	"github.com/sstb-school/student-affairs-api/pkg/storage"
)

// ExportFormat selects the rendered artifact type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult describes a rendered export artifact and its signed download
// token.
type ExportResult struct {
	ExportID    string    `json:"export_id"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExportService renders point deduction histories to CSV or PDF files and
// hands out time-limited signed download links.
type ExportService struct {
	deductions *DeductionService
	users      userRepository
	storage    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService creates an instance of ExportService.
func NewExportService(deductions *DeductionService, users userRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		deductions: deductions,
		users:      users,
		storage:    store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

var exportHeaders = []string{"Date", "Category", "Behavior", "Points", "Location", "Recorded By", "Notes"}

// ExportStudentHistory renders a student's full ledger in the requested
// format and returns a signed download link.
func (s *ExportService) ExportStudentHistory(ctx context.Context, actor *models.Actor, studentID string, format ExportFormat) (*ExportResult, error) {
	if !actor.Can(models.CapExportDeductions) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exporting requires a teacher")
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	details, err := s.deductions.ListByStudent(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	studentName := models.UnknownReference
	if student, err := s.users.FindByID(ctx, studentID); err == nil {
		studentName = student.Name
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, len(details))}
	for i, d := range details {
		dataset.Rows[i] = map[string]string{
			"Date":        d.CreatedAt.Format("2006-01-02 15:04"),
			"Category":    d.RuleCategory,
			"Behavior":    d.RuleBehavior,
			"Points":      strconv.Itoa(d.Points),
			"Location":    d.LocationName,
			"Recorded By": d.TeacherName,
			"Notes":       d.Notes,
		}
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("deductions-%s-%s.%s", studentID, exportID, format)

	var rendered []byte
	switch format {
	case FormatCSV:
		rendered, err = s.csv.Render(dataset)
	case FormatPDF:
		rendered, err = s.pdf.Render(dataset, fmt.Sprintf("Point Deductions - %s", studentName))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	if _, err := s.storage.Save(filename, rendered); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("export rendered",
		zap.String("export_id", exportID),
		zap.String("student_id", studentID),
		zap.String("format", string(format)),
		zap.Int("rows", len(details)))

	return &ExportResult{
		ExportID:    exportID,
		Filename:    filename,
		Format:      string(format),
		DownloadURL: fmt.Sprintf("/api/v1/exports/download?token=%s", token),
		ExpiresAt:   expiresAt,
	}, nil
}

// Download validates a signed token and opens the referenced artifact. The
// caller owns closing the file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	return file, relPath, nil
}

// CleanupExpired removes artifacts older than ttl.
func (s *ExportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}
