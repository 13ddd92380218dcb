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

func lostFoundRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reporter_user_id", "reporter_name", "name", "category", "location_id", "description", "image_url", "status", "created_at"})
}

func TestLostFoundRepositoryFindByIDMapsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectQuery("SELECT .+ FROM lost_found_items WHERE id = \\$1").
		WithArgs("lf-1").
		WillReturnRows(lostFoundRows().AddRow(
			"lf-1", "s-001", "Malee", "กระเป๋าสตางค์", "WALLET", "loc01",
			"สีน้ำตาล", "", "FOUND", time.Now()))

	item, err := repo.FindByID(context.Background(), "lf-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusFound, item.Status)
	assert.Equal(t, models.ReporterRegistered, item.Reporter.Kind())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLostFoundRepositoryListStatusFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lost_found_items WHERE 1=1 AND status = $1 ORDER BY created_at DESC")).
		WithArgs("SEARCHING").
		WillReturnRows(lostFoundRows())

	status := models.ItemStatusSearching
	items, err := repo.List(context.Background(), models.LostFoundFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The claim UPDATE only matches rows still in FOUND, so a second claim
// affects zero rows and reports false.
func TestLostFoundRepositoryMarkClaimedGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectExec("UPDATE lost_found_items SET status").
		WithArgs("lf-1", "CLAIMED", "FOUND").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lost_found_items SET status").
		WithArgs("lf-1", "CLAIMED", "FOUND").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.MarkClaimed(context.Background(), "lf-1")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.MarkClaimed(context.Background(), "lf-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
