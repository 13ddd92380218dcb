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
	"github.com/sstb-school/student-affairs-api/pkg/jobs"
)

type sosRepository interface {
	Create(ctx context.Context, alert *models.SOSAlert) error
	FindByID(ctx context.Context, id string) (*models.SOSAlert, error)
	List(ctx context.Context, filter models.SOSAlertFilter) ([]models.SOSAlert, error)
	MarkAcknowledged(ctx context.Context, id, staffID string) (bool, error)
}

// TaskDispatcher hands committed side effects to a detached worker pool.
type TaskDispatcher interface {
	Dispatch(task jobs.Task) error
}

// TaskKindAdvisory labels advisory generation tasks.
const TaskKindAdvisory = "sos.advisory"

// AdvisoryTaskPayload carries what the advisory generator needs.
type AdvisoryTaskPayload struct {
	AlertID     string
	Category    models.IncidentCategory
	Location    string
	Description string
}

// RaiseAlertRequest is the intake payload for a new SOS alert. ReporterName
// identifies guests; it is ignored when the caller is signed in.
type RaiseAlertRequest struct {
	Category      models.IncidentCategory `json:"category" validate:"required"`
	Description   string                  `json:"description"`
	Location      string                  `json:"location" validate:"required"`
	ContactInfo   string                  `json:"contact_info" validate:"required"`
	ImageURL      string                  `json:"image_url"`
	ReporterName  string                  `json:"reporter_name"`
	ReporterClass string                  `json:"reporter_class"`
}

// SOSService owns the alert lifecycle: alerts enter New, transition exactly
// once to Acknowledged, and are never removed.
type SOSService struct {
	repo       sosRepository
	users      userRepository
	dispatcher TaskDispatcher
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSOSService creates an instance of SOSService. dispatcher may be nil when
// advisory generation is disabled.
func NewSOSService(repo sosRepository, users userRepository, dispatcher TaskDispatcher, validate *validator.Validate, logger *zap.Logger) *SOSService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SOSService{repo: repo, users: users, dispatcher: dispatcher, validator: validate, logger: logger}
}

// Raise files a new alert. Signed-in callers become registered reporters;
// guests must self-identify with a name. Advisory text is generated after the
// alert is stored and never blocks or fails the intake.
func (s *SOSService) Raise(ctx context.Context, actor *models.Actor, req RaiseAlertRequest) (*models.SOSAlert, error) {
	if !actor.Can(models.CapRaiseAlerts) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "raising alerts not permitted")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alert payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown incident category")
	}

	reporter, err := s.resolveReporter(ctx, actor, req.ReporterName, req.ReporterClass)
	if err != nil {
		return nil, err
	}

	alert := &models.SOSAlert{
		ID:          fmt.Sprintf("sos-%s", uuid.NewString()),
		Reporter:    reporter,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
		ImageURL:    req.ImageURL,
		Status:      models.SOSStatusNew,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store alert")
	}

	s.logger.Info("sos alert raised",
		zap.String("alert_id", alert.ID),
		zap.String("category", string(alert.Category)),
		zap.String("reporter_kind", string(reporter.Kind())))

	if s.dispatcher != nil {
		task := jobs.Task{
			ID:   alert.ID,
			Kind: TaskKindAdvisory,
			Payload: AdvisoryTaskPayload{
				AlertID:     alert.ID,
				Category:    alert.Category,
				Location:    alert.Location,
				Description: alert.Description,
			},
		}
		if err := s.dispatcher.Dispatch(task); err != nil {
			s.logger.Warn("advisory task not dispatched", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}

	return alert, nil
}

// Acknowledge transitions an alert from New to Acknowledged, recording the
// acknowledging staff member. Acknowledging an already-acknowledged alert is
// an invalid transition, not a no-op.
func (s *SOSService) Acknowledge(ctx context.Context, actor *models.Actor, alertID string) (*models.SOSAlert, error) {
	if !actor.Can(models.CapAcknowledgeAlerts) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "acknowledging alerts requires staff")
	}

	if _, err := s.repo.FindByID(ctx, alertID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	transitioned, err := s.repo.MarkAcknowledged(ctx, alertID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge alert")
	}
	if !transitioned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "alert is already acknowledged")
	}

	alert, err := s.repo.FindByID(ctx, alertID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload alert")
	}

	s.logger.Info("sos alert acknowledged", zap.String("alert_id", alertID), zap.String("staff_id", actor.ID))
	return alert, nil
}

// ListQueue returns alerts newest-first for the staff response queue.
func (s *SOSService) ListQueue(ctx context.Context, actor *models.Actor, status *models.SOSStatus) ([]models.SOSAlert, error) {
	if !actor.Can(models.CapViewAlertQueue) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "alert queue requires staff")
	}
	alerts, err := s.repo.List(ctx, models.SOSAlertFilter{Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, nil
}

// ListMine returns the calling user's own alerts, newest-first.
func (s *SOSService) ListMine(ctx context.Context, actor *models.Actor) ([]models.SOSAlert, error) {
	if actor.Guest() || !actor.Can(models.CapViewOwnAlerts) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "viewing own alerts requires an identity")
	}
	alerts, err := s.repo.List(ctx, models.SOSAlertFilter{ReporterUserID: actor.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, nil
}

// Get returns one alert. Staff see everything; others only their own.
func (s *SOSService) Get(ctx context.Context, actor *models.Actor, alertID string) (*models.SOSAlert, error) {
	alert, err := s.repo.FindByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}
	if !actor.Can(models.CapViewAlertQueue) {
		if actor.Guest() || alert.Reporter.UserID != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not your alert")
		}
	}
	return alert, nil
}

// resolveReporter builds the reporter variant for the calling identity.
func (s *SOSService) resolveReporter(ctx context.Context, actor *models.Actor, name, class string) (models.Reporter, error) {
	if actor.Guest() {
		if name == "" {
			return models.Reporter{}, appErrors.Clone(appErrors.ErrValidation, "guest reports require a reporter name")
		}
		return models.AnonymousReporter(name, class), nil
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reporter{}, appErrors.Clone(appErrors.ErrUnauthorized, "unknown reporter identity")
		}
		return models.Reporter{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve reporter")
	}
	return models.RegisteredReporter(*user), nil
}
