package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

// SettingsRepository persists the single-row application settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a new repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the current settings.
func (r *SettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	if err := r.db.GetContext(ctx, &settings, "SELECT logo_url, logo_size, updated_at FROM app_settings WHERE id = 1"); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

// Save replaces the stored settings.
func (r *SettingsRepository) Save(ctx context.Context, settings *models.AppSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE app_settings SET logo_url = $1, logo_size = $2, updated_at = $3 WHERE id = 1`,
		settings.LogoURL, settings.LogoSize, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
