package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type lostFoundRepository interface {
	Create(ctx context.Context, item *models.LostFoundItem) error
	FindByID(ctx context.Context, id string) (*models.LostFoundItem, error)
	List(ctx context.Context, filter models.LostFoundFilter) ([]models.LostFoundItem, error)
	MarkClaimed(ctx context.Context, id string) (bool, error)
}

type locationFinder interface {
	FindLocation(ctx context.Context, id string) (*models.Location, error)
}

// ReportItemRequest is the intake payload for a lost or found item. Intent
// selects the flow: "lost" items start Searching, "found" items start Found.
type ReportItemRequest struct {
	Intent       models.ItemIntent `json:"intent" validate:"required"`
	Name         string            `json:"name" validate:"required"`
	Category     string            `json:"category" validate:"required"`
	LocationID   string            `json:"location_id" validate:"required"`
	Description  string            `json:"description" validate:"required"`
	ImageURL     string            `json:"image_url"`
	ReporterName string            `json:"reporter_name"`
}

// LostFoundService owns the item registry: items enter via one of two intake
// flows and may transition Found -> Claimed exactly once. Nothing is deleted.
type LostFoundService struct {
	repo      lostFoundRepository
	users     userRepository
	locations locationFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLostFoundService creates an instance of LostFoundService.
func NewLostFoundService(repo lostFoundRepository, users userRepository, locations locationFinder, validate *validator.Validate, logger *zap.Logger) *LostFoundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LostFoundService{repo: repo, users: users, locations: locations, validator: validate, logger: logger}
}

// Report files a new item. The location must be a known catalog entry; the
// category is free text from the published list but not enforced, matching
// how the school actually fills the form.
func (s *LostFoundService) Report(ctx context.Context, actor *models.Actor, req ReportItemRequest) (*models.LostFoundItem, error) {
	if !actor.Can(models.CapReportItems) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reporting items not permitted")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}
	if !req.Intent.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "intent must be lost or found")
	}

	if _, err := s.locations.FindLocation(ctx, req.LocationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown location")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve location")
	}

	var reporter models.Reporter
	if actor.Guest() {
		if req.ReporterName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "guest reports require a reporter name")
		}
		reporter = models.AnonymousReporter(req.ReporterName, "")
	} else {
		user, err := s.users.FindByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown reporter identity")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve reporter")
		}
		reporter = models.RegisteredReporter(*user)
	}

	item := &models.LostFoundItem{
		ID:          fmt.Sprintf("lf-%s", uuid.NewString()),
		Reporter:    reporter,
		Name:        req.Name,
		Category:    req.Category,
		LocationID:  req.LocationID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      req.Intent.Status(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store item")
	}

	s.logger.Info("lost-found item reported",
		zap.String("item_id", item.ID),
		zap.String("intent", string(req.Intent)),
		zap.String("status", string(item.Status)))
	return item, nil
}

// Claim transitions a Found item to Claimed. Claiming a Searching or already
// Claimed item is an invalid transition.
func (s *LostFoundService) Claim(ctx context.Context, actor *models.Actor, itemID string) (*models.LostFoundItem, error) {
	if !actor.Can(models.CapClaimItems) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "claiming items not permitted")
	}

	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	if item.Status != models.ItemStatusFound {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot claim an item in state %s", item.Status))
	}

	transitioned, err := s.repo.MarkClaimed(ctx, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim item")
	}
	if !transitioned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "item is no longer claimable")
	}

	item.Status = models.ItemStatusClaimed
	s.logger.Info("lost-found item claimed", zap.String("item_id", itemID))
	return item, nil
}

// List returns items newest-first, optionally filtered by status. The
// registry is public: anyone may browse it to look for their belongings.
func (s *LostFoundService) List(ctx context.Context, status *models.ItemStatus) ([]models.LostFoundItem, error) {
	items, err := s.repo.List(ctx, models.LostFoundFilter{Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return items, nil
}

// Get returns a single item.
func (s *LostFoundService) Get(ctx context.Context, itemID string) (*models.LostFoundItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}
