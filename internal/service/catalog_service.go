package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type catalogRepository interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListRules(ctx context.Context) ([]models.BehaviorRule, error)
}

const (
	cacheKeyLocations = "catalog:locations"
	cacheKeyRules     = "catalog:rules"
)

// CatalogService serves the static reference catalogs through a read-through
// Redis cache. The catalogs never change at runtime, so a cache miss is the
// only time the database is touched.
type CatalogService struct {
	repo     catalogRepository
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates an instance of CatalogService. redis may be nil,
// in which case every read hits the repository.
func NewCatalogService(repo catalogRepository, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &CatalogService{repo: repo, redis: redisClient, cacheTTL: cacheTTL, logger: logger}
}

// Locations returns all campus locations.
func (s *CatalogService) Locations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if s.cacheGet(ctx, cacheKeyLocations, &locations) {
		return locations, nil
	}
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	s.cacheSet(ctx, cacheKeyLocations, locations)
	return locations, nil
}

// Rules returns all behavior rules.
func (s *CatalogService) Rules(ctx context.Context) ([]models.BehaviorRule, error) {
	var rules []models.BehaviorRule
	if s.cacheGet(ctx, cacheKeyRules, &rules) {
		return rules, nil
	}
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behavior rules")
	}
	s.cacheSet(ctx, cacheKeyRules, rules)
	return rules, nil
}

// IncidentCategories returns the SOS categories. These are compiled in, no
// storage involved.
func (s *CatalogService) IncidentCategories() []models.IncidentCategory {
	return models.IncidentCategories()
}

// ItemCategories returns the lost & found categories.
func (s *CatalogService) ItemCategories() []string {
	return models.ItemCategories()
}

// cacheGet reports whether dest was populated from cache. Cache failures are
// logged and treated as misses.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
