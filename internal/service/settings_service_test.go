package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type settingsRepoStub struct {
	stored *models.AppSettings
	err    error
}

func (s *settingsRepoStub) Get(ctx context.Context) (*models.AppSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	return s.stored, nil
}

func (s *settingsRepoStub) Save(ctx context.Context, settings *models.AppSettings) error {
	if s.err != nil {
		return s.err
	}
	s.stored = settings
	return nil
}

func TestSettingsServiceGetDefaults(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), nil)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLogoSize, settings.LogoSize)
}

func TestSettingsServiceUpdate(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, validator.New(), nil)

	settings, err := svc.Update(context.Background(), adminActor("a01"), UpdateSettingsRequest{
		LogoURL:  "https://example.com/logo.png",
		LogoSize: 48,
	})
	require.NoError(t, err)
	assert.Equal(t, 48, settings.LogoSize)
	assert.NotNil(t, repo.stored)
}

func TestSettingsServiceUpdateRequiresAdmin(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), nil)

	_, err := svc.Update(context.Background(), &models.Actor{ID: "t01", Role: models.RoleTeacher}, UpdateSettingsRequest{
		LogoURL:  "https://example.com/logo.png",
		LogoSize: 48,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSettingsServiceUpdateValidatesSize(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), nil)

	_, err := svc.Update(context.Background(), adminActor("a01"), UpdateSettingsRequest{
		LogoURL:  "https://example.com/logo.png",
		LogoSize: 4,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
