package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.AppSettings, error)
	Save(ctx context.Context, settings *models.AppSettings) error
}

// UpdateSettingsRequest replaces the branding values.
type UpdateSettingsRequest struct {
	LogoURL  string `json:"logo_url" validate:"required"`
	LogoSize int    `json:"logo_size" validate:"required,min=16,max=256"`
}

// SettingsService manages the Admin-editable branding settings.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService creates an instance of SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the current settings. Missing settings fall back to defaults
// so the header always renders.
func (s *SettingsService) Get(ctx context.Context) (*models.AppSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AppSettings{LogoSize: models.DefaultLogoSize}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update replaces the branding settings. Admin only.
func (s *SettingsService) Update(ctx context.Context, actor *models.Actor, req UpdateSettingsRequest) (*models.AppSettings, error) {
	if !actor.Can(models.CapManageSettings) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "managing settings requires an admin")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings := &models.AppSettings{
		LogoURL:   req.LogoURL,
		LogoSize:  req.LogoSize,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}

	s.logger.Info("settings updated", zap.String("updated_by", actor.ID))
	return settings, nil
}
