package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbridge/internal/gateway/security"
	"docbridge/internal/models"
)

func seedUser(t *testing.T, users *fakeUsers, email string, userType models.UserType, verified bool, password string) models.GatewayUser {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	user := models.GatewayUser{
		User: models.User{
			ID:         "usr-" + email,
			Email:      email,
			UserType:   userType,
			IsVerified: verified,
		},
		PasswordHash: hash,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestSignupCreatesUnverifiedClient(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, testConfig(), zerolog.Nop())

	url, err := svc.Signup(context.Background(), "New@Example.COM", "secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://gateway.test/verify-email?token="))

	created, err := users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeClient, created.UserType)
	assert.False(t, created.IsVerified)
	require.NotNil(t, created.VerificationToken)
	assert.NotEmpty(t, created.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "taken@example.com", models.UserTypeClient, true, "secret")
	svc := NewAuthService(users, testConfig(), zerolog.Nop())

	_, err := svc.Signup(context.Background(), "taken@example.com", "secret")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyEmail(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, testConfig(), zerolog.Nop())

	url, err := svc.Signup(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	token := url[strings.Index(url, "token=")+len("token="):]

	require.NoError(t, svc.VerifyEmail(context.Background(), token))

	user, err := users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.VerificationToken)

	// Tokens are single use.
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), token), ErrInvalidVerifyToken)
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), ""), ErrInvalidVerifyToken)
}

func TestLoginSuccess(t *testing.T) {
	users := newFakeUsers()
	seeded := seedUser(t, users, "client@example.com", models.UserTypeClient, true, "secret")
	cfg := testConfig()
	svc := NewAuthService(users, cfg, zerolog.Nop())

	user, token, err := svc.Login(context.Background(), "client@example.com", "secret", models.UserTypeClient)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	claims, err := security.ParseAccessToken(token, cfg.Security.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, models.UserTypeClient, claims.UserType)
}

func TestLoginSameRejectionForEveryMismatch(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "client@example.com", models.UserTypeClient, true, "secret")
	svc := NewAuthService(users, testConfig(), zerolog.Nop())
	ctx := context.Background()

	// Unknown email, wrong password, and wrong role are indistinguishable.
	_, _, err := svc.Login(ctx, "nobody@example.com", "secret", models.UserTypeClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "client@example.com", "wrong", models.UserTypeClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "client@example.com", "secret", models.UserTypeOps)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedClientRejected(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "pending@example.com", models.UserTypeClient, false, "secret")
	svc := NewAuthService(users, testConfig(), zerolog.Nop())

	_, _, err := svc.Login(context.Background(), "pending@example.com", "secret", models.UserTypeClient)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestLoginUnverifiedOpsAllowed(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "ops@example.com", models.UserTypeOps, false, "secret")
	svc := NewAuthService(users, testConfig(), zerolog.Nop())

	user, token, err := svc.Login(context.Background(), "ops@example.com", "secret", models.UserTypeOps)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeOps, user.UserType)
	assert.NotEmpty(t, token)
}

func TestUserFromToken(t *testing.T) {
	users := newFakeUsers()
	seeded := seedUser(t, users, "client@example.com", models.UserTypeClient, true, "secret")
	cfg := testConfig()
	svc := NewAuthService(users, cfg, zerolog.Nop())

	_, token, err := svc.Login(context.Background(), "client@example.com", "secret", models.UserTypeClient)
	require.NoError(t, err)

	user, err := svc.UserFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	_, err = svc.UserFromToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
