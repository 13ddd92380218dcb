package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

func TestDeductionRepositoryCreateAppends(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDeductionRepository(db)

	mock.ExpectExec("INSERT INTO point_deductions").
		WithArgs("pd-1", "s-001", "t-001", "rule01", "loc01", "คุยในแถว", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deduction := &models.PointDeduction{
		ID:         "pd-1",
		StudentID:  "s-001",
		TeacherID:  "t-001",
		RuleID:     "rule01",
		LocationID: "loc01",
		Notes:      "คุยในแถว",
	}
	require.NoError(t, repo.Create(context.Background(), deduction))
	assert.False(t, deduction.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductionRepositoryListByStudentNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDeductionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "rule_id", "location_id", "notes", "created_at"}).
		AddRow("pd-2", "s-001", "t-001", "rule02", "loc01", "", time.Now()).
		AddRow("pd-1", "s-001", "t-001", "rule01", "loc02", "", time.Now().Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_deductions WHERE student_id = $1 ORDER BY created_at DESC")).
		WithArgs("s-001").
		WillReturnRows(rows)

	deductions, err := repo.ListByStudent(context.Background(), "s-001")
	require.NoError(t, err)
	require.Len(t, deductions, 2)
	assert.Equal(t, "pd-2", deductions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Summary joins the rule catalog for points. Entries whose rule has been
// deleted still count but the COALESCE keeps their points at zero.
func TestDeductionRepositorySummaryJoinsRules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDeductionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN behavior_rules r ON r.id = d.rule_id")).
		WithArgs("s-001").
		WillReturnRows(sqlmock.NewRows([]string{"entries", "total_points"}).AddRow(3, -25))

	summary, err := repo.Summary(context.Background(), "s-001")
	require.NoError(t, err)
	assert.Equal(t, "s-001", summary.StudentID)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, -25, summary.TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}
