package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for creating directory accounts.
// Class is mandatory for students only.
type CreateUserRequest struct {
	Name  string          `json:"name" validate:"required"`
	Email string          `json:"email" validate:"required,email"`
	Role  models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT STAFF"`
	Class string          `json:"class" validate:"required_if=Role STUDENT"`
}

// UpdateUserRequest replaces a stored account's attributes.
type UpdateUserRequest struct {
	Name  string          `json:"name" validate:"required"`
	Email string          `json:"email" validate:"required,email"`
	Role  models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT STAFF"`
	Class string          `json:"class" validate:"required_if=Role STUDENT"`
}

// DirectoryService owns the user directory and its mutation invariants:
// the directory never loses its last Admin, and nobody deletes themselves.
type DirectoryService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDirectoryService creates an instance of DirectoryService.
func NewDirectoryService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DirectoryService{repo: repo, validator: validate, logger: logger}
}

// List returns directory accounts in insertion order.
func (s *DirectoryService) List(ctx context.Context, actor *models.Actor, filter models.UserFilter) ([]models.User, error) {
	if actor.Guest() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "directory listing requires an identity")
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *DirectoryService) Get(ctx context.Context, actor *models.Actor, id string) (*models.User, error) {
	if actor.Guest() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "directory lookup requires an identity")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new account. The id is namespaced by role so student and
// staff ids are drawn from visibly distinct spaces.
func (s *DirectoryService) Create(ctx context.Context, actor *models.Actor, req CreateUserRequest) (*models.User, error) {
	if !actor.Can(models.CapManageUsers) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "managing users requires an admin")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	email := strings.ToLower(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	class := req.Class
	if req.Role != models.RoleStudent {
		class = ""
	}

	id := namespacedID(req.Role)
	user := &models.User{
		ID:        id,
		Name:      req.Name,
		Email:     email,
		Role:      req.Role,
		Class:     class,
		AvatarURL: defaultAvatarURL(id),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update replaces the stored record matching id. A role change that would
// leave the directory without an Admin is rejected.
func (s *DirectoryService) Update(ctx context.Context, actor *models.Actor, id string, req UpdateUserRequest) (*models.User, error) {
	if !actor.Can(models.CapManageUsers) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "managing users requires an admin")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin {
		adminCount, err := s.repo.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
		}
		if adminCount <= 1 {
			return nil, appErrors.Clone(appErrors.ErrInvariant, "cannot demote the last admin")
		}
	}

	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	if req.Role == models.RoleStudent {
		user.Class = req.Class
	} else {
		user.Class = ""
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	return user, nil
}

// UpdateAvatar lets a user change their own avatar, or an admin change anyone's.
func (s *DirectoryService) UpdateAvatar(ctx context.Context, actor *models.Actor, id, avatarURL string) (*models.User, error) {
	if actor.Guest() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "avatar update requires an identity")
	}
	if actor.ID != id && !actor.Can(models.CapManageUsers) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change another user's avatar")
	}
	if avatarURL == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatar reference required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.AvatarURL = avatarURL
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update avatar")
	}
	return user, nil
}

// Delete removes an account. Self-deletion and deleting the last Admin are
// invariant violations; history referencing the account is never cascaded.
func (s *DirectoryService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if !actor.Can(models.CapManageUsers) {
		return appErrors.Clone(appErrors.ErrForbidden, "managing users requires an admin")
	}
	if actor != nil && actor.ID == id {
		return appErrors.Clone(appErrors.ErrInvariant, "cannot delete yourself")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin {
		adminCount, err := s.repo.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
		}
		if adminCount <= 1 {
			return appErrors.Clone(appErrors.ErrInvariant, "cannot delete the last admin")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("deleted_by", actor.ID))
	return nil
}

// namespacedID draws student and staff ids from distinct id spaces.
func namespacedID(role models.UserRole) string {
	prefix := "t"
	if role == models.RoleStudent {
		prefix = "s"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

func defaultAvatarURL(id string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/100", id)
}
