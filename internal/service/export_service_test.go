package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/storage"
)

func newExportFixture(t *testing.T) (*ExportService, *deductionRepoStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	users := seedDirectory()
	repo := &deductionRepoStub{}
	deductions := NewDeductionService(repo, users, newCatalogStub(), nil, validator.New(), nil)
	return NewExportService(deductions, users, store, signer, nil), repo
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	svc, repo := newExportFixture(t)
	repo.entries = []models.PointDeduction{{
		ID:         "pd-1",
		StudentID:  "s01",
		TeacherID:  "t01",
		RuleID:     "rule01",
		LocationID: "loc01",
		Notes:      "late again",
		CreatedAt:  time.Date(2026, 5, 12, 8, 30, 0, 0, time.UTC),
	}}

	result, err := svc.ExportStudentHistory(context.Background(), teacherActor(), "s01", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.Contains(t, result.DownloadURL, "token=")

	token := result.DownloadURL[strings.Index(result.DownloadURL, "token=")+len("token="):]
	file, name, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, result.Filename, name)

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "2026-05-12 08:30")
	assert.Contains(t, body, "ไม่ใส่เข็มขัด")
	assert.Contains(t, body, "Somchai")
}

func TestExportServicePDF(t *testing.T) {
	svc, repo := newExportFixture(t)
	repo.entries = []models.PointDeduction{{
		ID:         "pd-1",
		StudentID:  "s01",
		TeacherID:  "t01",
		RuleID:     "rule01",
		LocationID: "loc01",
		CreatedAt:  time.Now().UTC(),
	}}

	result, err := svc.ExportStudentHistory(context.Background(), teacherActor(), "s01", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Format)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportStudentHistory(context.Background(), teacherActor(), "s01", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRequiresTeacher(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportStudentHistory(context.Background(), &models.Actor{ID: "s01", Role: models.RoleStudent}, "s01", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceTamperedTokenRejected(t *testing.T) {
	svc, _ := newExportFixture(t)

	result, err := svc.ExportStudentHistory(context.Background(), teacherActor(), "s01", FormatCSV)
	require.NoError(t, err)

	token := result.DownloadURL[strings.Index(result.DownloadURL, "token=")+len("token="):]
	_, _, err = svc.Download(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
