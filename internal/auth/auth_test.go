package auth

import (
	"testing"
	"time"

	"disaster-relief-api-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokensRoundTrip(t *testing.T) {
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	tok, err := tokens.Generate(&models.User{ID: "u1", Role: models.RoleNGO})
	require.NoError(t, err)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleNGO, claims.Role)
}

func TestTokensRejects(t *testing.T) {
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokens("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Generate(&models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.Error(t, err)

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := tokens.Generate(&models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)
	tokens.now = time.Now
	_, err = tokens.Parse(expired)
	assert.Error(t, err)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:           "u1",
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := badRole.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(signed)
	assert.Error(t, err)

	_, err = NewTokens("", time.Hour)
	assert.Error(t, err)
}
