package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type deductionRepoStub struct {
	entries []models.PointDeduction
	err     error
}

func (s *deductionRepoStub) Create(ctx context.Context, deduction *models.PointDeduction) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *deduction)
	return nil
}

func (s *deductionRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.PointDeduction, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.PointDeduction{}
	for _, d := range s.entries {
		if d.StudentID == studentID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *deductionRepoStub) Summary(ctx context.Context, studentID string) (*models.StudentPointSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	summary := &models.StudentPointSummary{StudentID: studentID}
	for _, d := range s.entries {
		if d.StudentID == studentID {
			summary.Entries++
		}
	}
	return summary, nil
}

func teacherActor() *models.Actor {
	return &models.Actor{ID: "t01", Role: models.RoleTeacher}
}

func validDeductionRequest() RecordDeductionRequest {
	return RecordDeductionRequest{
		StudentID:  "s01",
		RuleID:     "rule01",
		LocationID: "loc01",
		Notes:      "caught at the canteen",
	}
}

func TestDeductionServiceRecord(t *testing.T) {
	repo := &deductionRepoStub{}
	dispatcher := &dispatcherStub{}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), dispatcher, validator.New(), nil)

	detail, err := svc.Record(context.Background(), teacherActor(), validDeductionRequest())
	require.NoError(t, err)
	assert.Equal(t, "s01", detail.StudentID)
	assert.Equal(t, "t01", detail.TeacherID, "the recording teacher comes from the session")
	assert.Equal(t, -5, detail.Points)
	assert.Equal(t, "โรงอาหาร", detail.LocationName)
	assert.Equal(t, "Somchai", detail.TeacherName)

	require.Len(t, repo.entries, 1)
	require.Len(t, dispatcher.tasks, 1)
	assert.Equal(t, TaskKindGuardianNotify, dispatcher.tasks[0].Kind)
}

func TestDeductionServiceRecordUnknownStudent(t *testing.T) {
	svc := NewDeductionService(&deductionRepoStub{}, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	req := validDeductionRequest()
	req.StudentID = "s99"
	_, err := svc.Record(context.Background(), teacherActor(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeductionServiceRecordTargetMustBeStudent(t *testing.T) {
	svc := NewDeductionService(&deductionRepoStub{}, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	req := validDeductionRequest()
	req.StudentID = "t01"
	_, err := svc.Record(context.Background(), teacherActor(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeductionServiceRecordUnknownRule(t *testing.T) {
	svc := NewDeductionService(&deductionRepoStub{}, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	req := validDeductionRequest()
	req.RuleID = "rule99"
	_, err := svc.Record(context.Background(), teacherActor(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeductionServiceRecordUnknownLocation(t *testing.T) {
	svc := NewDeductionService(&deductionRepoStub{}, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	req := validDeductionRequest()
	req.LocationID = "loc99"
	_, err := svc.Record(context.Background(), teacherActor(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeductionServiceRecordByStudentRejected(t *testing.T) {
	repo := &deductionRepoStub{}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	_, err := svc.Record(context.Background(), &models.Actor{ID: "s01", Role: models.RoleStudent}, validDeductionRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.entries, "a rejected recording leaves the ledger untouched")
}

func TestDeductionServiceRecordSurvivesDispatchFailure(t *testing.T) {
	repo := &deductionRepoStub{}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), &dispatcherStub{err: assert.AnError}, validator.New(), nil)

	_, err := svc.Record(context.Background(), teacherActor(), validDeductionRequest())
	require.NoError(t, err, "guardian notification failure never fails the recording")
	assert.Len(t, repo.entries, 1)
}

func TestDeductionServiceListResolvesDanglingReferences(t *testing.T) {
	repo := &deductionRepoStub{entries: []models.PointDeduction{{
		ID:         "pd-1",
		StudentID:  "s01",
		TeacherID:  "t-deleted",
		RuleID:     "rule-deleted",
		LocationID: "loc-deleted",
		CreatedAt:  time.Now().UTC(),
	}}}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	details, err := svc.ListByStudent(context.Background(), teacherActor(), "s01")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, models.UnknownReference, details[0].TeacherName)
	assert.Equal(t, models.UnknownReference, details[0].RuleBehavior)
	assert.Equal(t, models.UnknownReference, details[0].LocationName)
	assert.Zero(t, details[0].Points)
}

func TestDeductionServiceStudentSeesOwnLedgerOnly(t *testing.T) {
	repo := &deductionRepoStub{}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	_, err := svc.Record(context.Background(), teacherActor(), validDeductionRequest())
	require.NoError(t, err)

	own, err := svc.ListByStudent(context.Background(), &models.Actor{ID: "s01", Role: models.RoleStudent}, "s01")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = svc.ListByStudent(context.Background(), &models.Actor{ID: "s02", Role: models.RoleStudent}, "s01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeductionServiceLedgerSurvivesTeacherDeletion(t *testing.T) {
	users := seedDirectory()
	repo := &deductionRepoStub{}
	svc := NewDeductionService(repo, users, newCatalogStub(), nil, validator.New(), nil)

	_, err := svc.Record(context.Background(), teacherActor(), validDeductionRequest())
	require.NoError(t, err)

	require.NoError(t, users.Delete(context.Background(), "t01"))

	details, err := svc.ListByStudent(context.Background(), &models.Actor{ID: "a01", Role: models.RoleAdmin}, "s01")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, models.UnknownReference, details[0].TeacherName)
	assert.Equal(t, -5, details[0].Points, "catalog references still resolve")
}

func TestDeductionServiceSummary(t *testing.T) {
	repo := &deductionRepoStub{}
	svc := NewDeductionService(repo, seedDirectory(), newCatalogStub(), nil, validator.New(), nil)

	_, err := svc.Record(context.Background(), teacherActor(), validDeductionRequest())
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), teacherActor(), "s01")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Entries)
}
