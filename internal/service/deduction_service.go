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

type deductionRepository interface {
	Create(ctx context.Context, deduction *models.PointDeduction) error
	ListByStudent(ctx context.Context, studentID string) ([]models.PointDeduction, error)
	Summary(ctx context.Context, studentID string) (*models.StudentPointSummary, error)
}

type catalogReader interface {
	FindLocation(ctx context.Context, id string) (*models.Location, error)
	FindRule(ctx context.Context, id string) (*models.BehaviorRule, error)
}

// TaskKindGuardianNotify labels guardian notification tasks.
const TaskKindGuardianNotify = "deduction.notify"

// GuardianNotifyPayload carries what the guardian webhook needs.
type GuardianNotifyPayload struct {
	Student models.User
	Detail  models.DeductionDetail
}

// RecordDeductionRequest is the payload for recording one ledger entry. The
// recording teacher is taken from the session, never from the payload.
type RecordDeductionRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	RuleID     string `json:"rule_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Notes      string `json:"notes"`
}

// DeductionService owns the point deduction ledger. Entries are append-only:
// there is no update or delete, and history survives the deletion of any
// user it references.
type DeductionService struct {
	repo       deductionRepository
	users      userRepository
	catalog    catalogReader
	dispatcher TaskDispatcher
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewDeductionService creates an instance of DeductionService. dispatcher may
// be nil when guardian notification is disabled.
func NewDeductionService(repo deductionRepository, users userRepository, catalog catalogReader, dispatcher TaskDispatcher, validate *validator.Validate, logger *zap.Logger) *DeductionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DeductionService{repo: repo, users: users, catalog: catalog, dispatcher: dispatcher, validator: validate, logger: logger}
}

// Record appends one ledger entry after validating every reference: the
// student must be an existing STUDENT account, and the rule and location must
// be catalog entries. Guardian notification happens after the entry is
// stored and never blocks or fails the recording.
func (s *DeductionService) Record(ctx context.Context, actor *models.Actor, req RecordDeductionRequest) (*models.DeductionDetail, error) {
	if !actor.Can(models.CapRecordDeductions) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "recording deductions requires a teacher")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deduction payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deductions apply to student accounts only")
	}

	rule, err := s.catalog.FindRule(ctx, req.RuleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown behavior rule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior rule")
	}

	location, err := s.catalog.FindLocation(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown location")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	deduction := &models.PointDeduction{
		ID:         fmt.Sprintf("pd-%s", uuid.NewString()),
		StudentID:  student.ID,
		TeacherID:  actor.ID,
		RuleID:     rule.ID,
		LocationID: location.ID,
		Notes:      req.Notes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, deduction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store deduction")
	}

	teacherName := models.UnknownReference
	if teacher, err := s.users.FindByID(ctx, actor.ID); err == nil {
		teacherName = teacher.Name
	}

	detail := models.DeductionDetail{
		PointDeduction: *deduction,
		RuleCategory:   rule.Category,
		RuleBehavior:   rule.Behavior,
		Points:         rule.Points,
		LocationName:   location.Name,
		TeacherName:    teacherName,
	}

	s.logger.Info("deduction recorded",
		zap.String("deduction_id", deduction.ID),
		zap.String("student_id", student.ID),
		zap.String("rule_id", rule.ID),
		zap.Int("points", rule.Points))

	if s.dispatcher != nil {
		task := jobs.Task{
			ID:      deduction.ID,
			Kind:    TaskKindGuardianNotify,
			Payload: GuardianNotifyPayload{Student: *student, Detail: detail},
		}
		if err := s.dispatcher.Dispatch(task); err != nil {
			s.logger.Warn("guardian notify task not dispatched", zap.String("deduction_id", deduction.ID), zap.Error(err))
		}
	}

	return &detail, nil
}

// ListByStudent returns a student's ledger entries newest-first, each
// resolved against the catalogs and directory. Dangling references resolve
// to "unknown": history outlives the records it points at.
func (s *DeductionService) ListByStudent(ctx context.Context, actor *models.Actor, studentID string) ([]models.DeductionDetail, error) {
	if !s.canViewLedger(actor, studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your ledger")
	}

	deductions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deductions")
	}

	details := make([]models.DeductionDetail, len(deductions))
	for i, d := range deductions {
		details[i] = s.resolve(ctx, d)
	}
	return details, nil
}

// Summary aggregates a student's total entries and points.
func (s *DeductionService) Summary(ctx context.Context, actor *models.Actor, studentID string) (*models.StudentPointSummary, error) {
	if !s.canViewLedger(actor, studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your ledger")
	}
	summary, err := s.repo.Summary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise deductions")
	}
	return summary, nil
}

// canViewLedger: staff-like roles see any ledger, students only their own.
func (s *DeductionService) canViewLedger(actor *models.Actor, studentID string) bool {
	if actor.Guest() {
		return false
	}
	if actor.Role.StaffLike() {
		return true
	}
	return actor.ID == studentID
}

func (s *DeductionService) resolve(ctx context.Context, d models.PointDeduction) models.DeductionDetail {
	detail := models.DeductionDetail{
		PointDeduction: d,
		RuleCategory:   models.UnknownReference,
		RuleBehavior:   models.UnknownReference,
		LocationName:   models.UnknownReference,
		TeacherName:    models.UnknownReference,
	}
	if rule, err := s.catalog.FindRule(ctx, d.RuleID); err == nil {
		detail.RuleCategory = rule.Category
		detail.RuleBehavior = rule.Behavior
		detail.Points = rule.Points
	}
	if location, err := s.catalog.FindLocation(ctx, d.LocationID); err == nil {
		detail.LocationName = location.Name
	}
	if teacher, err := s.users.FindByID(ctx, d.TeacherID); err == nil {
		detail.TeacherName = teacher.Name
	}
	return detail
}
