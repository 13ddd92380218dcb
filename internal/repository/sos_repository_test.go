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

func sosRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reporter_user_id", "reporter_name", "reporter_class", "category", "description", "location", "contact_info", "image_url", "advisory", "status", "acknowledged_by", "created_at"})
}

func TestSOSRepositoryFindByIDMapsReporter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSOSRepository(db)

	mock.ExpectQuery("SELECT .+ FROM sos_alerts WHERE id = \\$1").
		WithArgs("sos-1").
		WillReturnRows(sosRows().AddRow(
			"sos-1", "", "guest kid", "ม.1/2", string(models.IncidentAccident),
			"fell down", "หน้าเสาธง", "081-000-0000", "", "", "NEW", "", time.Now()))

	alert, err := repo.FindByID(context.Background(), "sos-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReporterAnonymous, alert.Reporter.Kind())
	assert.Equal(t, "guest kid", alert.Reporter.Name)
	assert.Equal(t, models.SOSStatusNew, alert.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSOSRepositoryListStatusFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSOSRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sos_alerts WHERE 1=1 AND status = $1 ORDER BY created_at DESC")).
		WithArgs("NEW").
		WillReturnRows(sosRows())

	status := models.SOSStatusNew
	alerts, err := repo.List(context.Background(), models.SOSAlertFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSOSRepositoryMarkAcknowledgedGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSOSRepository(db)

	mock.ExpectExec("UPDATE sos_alerts SET status").
		WithArgs("sos-1", "t01", "ACKNOWLEDGED", "NEW").
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitioned, err := repo.MarkAcknowledged(context.Background(), "sos-1", "t01")
	require.NoError(t, err)
	assert.True(t, transitioned)

	// Second attempt matches no row: the guard keeps the transition single-shot.
	mock.ExpectExec("UPDATE sos_alerts SET status").
		WithArgs("sos-1", "t02", "ACKNOWLEDGED", "NEW").
		WillReturnResult(sqlmock.NewResult(0, 0))

	transitioned, err = repo.MarkAcknowledged(context.Background(), "sos-1", "t02")
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSOSRepositorySetAdvisory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSOSRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sos_alerts SET advisory = $2 WHERE id = $1")).
		WithArgs("sos-1", "stay calm and find a teacher").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetAdvisory(context.Background(), "sos-1", "stay calm and find a teacher"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
