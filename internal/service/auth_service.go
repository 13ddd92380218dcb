package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/pkg/config"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

// AuthService issues and validates session tokens. There is no password
// check: a session is created by selecting a known directory identity, and
// the resulting token carries the role the rest of the API enforces.
type AuthService struct {
	users     userRepository
	cfg       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService creates an instance of AuthService.
func NewAuthService(users userRepository, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, cfg: cfg, validator: validate, logger: logger}
}

// Identities lists the staff-like accounts selectable on the login screen.
// Student identities are not offered there; students sign in through their
// own entry point.
func (s *AuthService) Identities(ctx context.Context) ([]models.Identity, error) {
	users, err := s.users.List(ctx, models.UserFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list identities")
	}
	identities := make([]models.Identity, 0, len(users))
	for _, u := range users {
		if !u.Role.StaffLike() {
			continue
		}
		identities = append(identities, models.Identity{
			ID:        u.ID,
			Name:      u.Name,
			Role:      u.Role,
			AvatarURL: u.AvatarURL,
		})
	}
	return identities, nil
}

// CreateSession issues a signed token for the selected identity.
func (s *AuthService) CreateSession(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown identity")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load identity")
	}

	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("session created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.SessionResponse{
		Token:     signed,
		ExpiresIn: int64(s.cfg.Expiration.Seconds()),
		User:      *user,
		IssuedAt:  now,
	}, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// WhoAmI resolves the current actor's full directory record.
func (s *AuthService) WhoAmI(ctx context.Context, actor *models.Actor) (*models.User, error) {
	if actor.Guest() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load identity")
	}
	return user, nil
}
