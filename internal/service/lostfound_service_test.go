package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type catalogStub struct {
	locations map[string]models.Location
	rules     map[string]models.BehaviorRule
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		locations: map[string]models.Location{
			"loc01": {ID: "loc01", Name: "โรงอาหาร"},
			"loc02": {ID: "loc02", Name: "สนามกีฬา"},
		},
		rules: map[string]models.BehaviorRule{
			"rule01": {ID: "rule01", Category: "การแต่งกาย", Behavior: "ไม่ใส่เข็มขัด", Points: -5},
			"rule02": {ID: "rule02", Category: "ความประพฤติ", Behavior: "ทะเลาะวิวาท", Points: -20},
		},
	}
}

func (s *catalogStub) FindLocation(ctx context.Context, id string) (*models.Location, error) {
	if loc, ok := s.locations[id]; ok {
		return &loc, nil
	}
	return nil, sql.ErrNoRows
}

func (s *catalogStub) FindRule(ctx context.Context, id string) (*models.BehaviorRule, error) {
	if rule, ok := s.rules[id]; ok {
		return &rule, nil
	}
	return nil, sql.ErrNoRows
}

type lostFoundRepoStub struct {
	items map[string]models.LostFoundItem
	err   error
}

func newLostFoundRepoStub() *lostFoundRepoStub {
	return &lostFoundRepoStub{items: make(map[string]models.LostFoundItem)}
}

func (s *lostFoundRepoStub) Create(ctx context.Context, item *models.LostFoundItem) error {
	if s.err != nil {
		return s.err
	}
	s.items[item.ID] = *item
	return nil
}

func (s *lostFoundRepoStub) FindByID(ctx context.Context, id string) (*models.LostFoundItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if item, ok := s.items[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *lostFoundRepoStub) List(ctx context.Context, filter models.LostFoundFilter) ([]models.LostFoundItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.LostFoundItem{}
	for _, item := range s.items {
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *lostFoundRepoStub) MarkClaimed(ctx context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	item, ok := s.items[id]
	if !ok || item.Status != models.ItemStatusFound {
		return false, nil
	}
	item.Status = models.ItemStatusClaimed
	s.items[id] = item
	return true, nil
}

func validItemRequest(intent models.ItemIntent) ReportItemRequest {
	return ReportItemRequest{
		Intent:       intent,
		Name:         "กระเป๋าสตางค์สีดำ",
		Category:     "กระเป๋าสตางค์",
		LocationID:   "loc01",
		Description:  "found under a canteen table",
		ReporterName: "guest",
	}
}

func TestLostFoundServiceReportLostStartsSearching(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentLost))
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusSearching, item.Status)
}

func TestLostFoundServiceReportFoundStartsFound(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentFound))
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusFound, item.Status)
}

func TestLostFoundServiceReportWithoutDescriptionRejected(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	req := validItemRequest(models.IntentFound)
	req.Description = ""

	_, err := svc.Report(context.Background(), nil, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceReportUnknownLocation(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	req := validItemRequest(models.IntentLost)
	req.LocationID = "loc99"

	_, err := svc.Report(context.Background(), nil, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceReportGuestRequiresName(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	req := validItemRequest(models.IntentLost)
	req.ReporterName = ""

	_, err := svc.Report(context.Background(), nil, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceReportRegisteredReporter(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), &models.Actor{ID: "s01", Role: models.RoleStudent}, validItemRequest(models.IntentLost))
	require.NoError(t, err)
	assert.Equal(t, models.ReporterRegistered, item.Reporter.Kind())
	assert.Equal(t, "Malee", item.Reporter.Name)
}

func TestLostFoundServiceClaimFoundItem(t *testing.T) {
	repo := newLostFoundRepoStub()
	svc := NewLostFoundService(repo, seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentFound))
	require.NoError(t, err)

	claimed, err := svc.Claim(context.Background(), nil, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusClaimed, claimed.Status)
	assert.Equal(t, models.ItemStatusClaimed, repo.items[item.ID].Status)
}

func TestLostFoundServiceClaimSearchingItemRejected(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentLost))
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), nil, item.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceClaimTwiceRejected(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	item, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentFound))
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), nil, item.ID)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), nil, item.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceClaimUnknownItem(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	_, err := svc.Claim(context.Background(), nil, "lf-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLostFoundServiceListFilterByStatus(t *testing.T) {
	svc := NewLostFoundService(newLostFoundRepoStub(), seedDirectory(), newCatalogStub(), validator.New(), nil)

	_, err := svc.Report(context.Background(), nil, validItemRequest(models.IntentLost))
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), nil, validItemRequest(models.IntentFound))
	require.NoError(t, err)

	status := models.ItemStatusFound
	items, err := svc.List(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemStatusFound, items[0].Status)
}
