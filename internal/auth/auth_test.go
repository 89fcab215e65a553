package auth

import (
	"testing"
	"time"

	"guild-tracker/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(&config.Config{AdminPasswordHash: string(hash), JWTSecret: "secret"})
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.Login("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDisabled(t *testing.T) {
	svc := NewService(&config.Config{})
	assert.False(t, svc.Enabled())

	_, _, err := svc.Login("anything")
	assert.ErrorIs(t, err, ErrAdminDisabled)
	_, err = svc.ValidateToken("x")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestValidateRejects(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.Login("hunter2")
	require.NoError(t, err)

	other := newTestService(t)
	other.jwtSecret = []byte("different")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestService(t).ValidateToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, CheckPassword("pw", hash))
	assert.False(t, CheckPassword("other", hash))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}
