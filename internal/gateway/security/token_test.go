package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbridge/internal/models"
)

const testSecret = "test-secret-please-rotate"

func TestAccessTokenRoundTrip(t *testing.T) {
	user := models.User{
		ID:         "usr-1",
		Email:      "client@example.com",
		UserType:   models.UserTypeClient,
		IsVerified: true,
	}

	token, err := GenerateAccessToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.Equal(t, models.UserTypeClient, claims.UserType)
	assert.True(t, claims.Verified)
	assert.Equal(t, "usr-1", claims.Subject)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, models.User{ID: "usr-1", UserType: models.UserTypeOps}, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "some-other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, models.User{ID: "usr-1", UserType: models.UserTypeOps}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestNewOpaqueToken(t *testing.T) {
	first, err := NewOpaqueToken(32)
	require.NoError(t, err)
	second, err := NewOpaqueToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)

	// Zero length falls back to the default rather than an empty token.
	fallback, err := NewOpaqueToken(0)
	require.NoError(t, err)
	assert.NotEmpty(t, fallback)
}
