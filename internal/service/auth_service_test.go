package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/pkg/config"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "student-affairs-api",
	}
}

func TestAuthServiceSessionRoundTrip(t *testing.T) {
	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)

	session, err := svc.CreateSession(context.Background(), models.SessionRequest{UserID: "t01"})
	require.NoError(t, err)
	assert.Equal(t, "t01", session.User.ID)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "t01", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	actor := claims.Actor()
	require.NotNil(t, actor)
	assert.True(t, actor.Can(models.CapRecordDeductions))
	assert.False(t, actor.Can(models.CapManageUsers))
}

func TestAuthServiceUnknownIdentity(t *testing.T) {
	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)

	_, err := svc.CreateSession(context.Background(), models.SessionRequest{UserID: "nobody"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateGarbageToken(t *testing.T) {
	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceTokenFromOtherSecretRejected(t *testing.T) {
	issuer := NewAuthService(seedDirectory(), config.JWTConfig{Secret: "other-secret", Expiration: time.Hour}, validator.New(), nil)
	session, err := issuer.CreateSession(context.Background(), models.SessionRequest{UserID: "t01"})
	require.NoError(t, err)

	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)
	_, err = svc.ValidateToken(session.Token)
	require.Error(t, err)
}

func TestAuthServiceIdentitiesExcludeStudents(t *testing.T) {
	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)

	identities, err := svc.Identities(context.Background())
	require.NoError(t, err)
	require.Len(t, identities, 2)
	for _, identity := range identities {
		assert.NotEqual(t, models.RoleStudent, identity.Role)
	}
}

func TestAuthServiceWhoAmIGuest(t *testing.T) {
	svc := NewAuthService(seedDirectory(), testJWTConfig(), validator.New(), nil)

	_, err := svc.WhoAmI(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
