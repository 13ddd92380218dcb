package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

// CatalogRepository reads the static reference tables. There are no write
// operations: the catalogs are immutable seed data.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a new repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListLocations returns all locations in id order.
func (r *CatalogRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, "SELECT id, name FROM locations ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// FindLocation loads a single location.
func (r *CatalogRepository) FindLocation(ctx context.Context, id string) (*models.Location, error) {
	var location models.Location
	if err := r.db.GetContext(ctx, &location, "SELECT id, name FROM locations WHERE id = $1 LIMIT 1", id); err != nil {
		return nil, err
	}
	return &location, nil
}

// ListRules returns all behavior rules in id order.
func (r *CatalogRepository) ListRules(ctx context.Context) ([]models.BehaviorRule, error) {
	var rules []models.BehaviorRule
	if err := r.db.SelectContext(ctx, &rules, "SELECT id, category, behavior, points FROM behavior_rules ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list behavior rules: %w", err)
	}
	return rules, nil
}

// FindRule loads a single behavior rule.
func (r *CatalogRepository) FindRule(ctx context.Context, id string) (*models.BehaviorRule, error) {
	var rule models.BehaviorRule
	if err := r.db.GetContext(ctx, &rule, "SELECT id, category, behavior, points FROM behavior_rules WHERE id = $1 LIMIT 1", id); err != nil {
		return nil, err
	}
	return &rule, nil
}
