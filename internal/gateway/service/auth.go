package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"docbridge/internal/config"
	"docbridge/internal/gateway/repository"
	"docbridge/internal/gateway/security"
	"docbridge/internal/ids"
	"docbridge/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email, password, or user type")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidVerifyToken = errors.New("invalid verification token")
)

type AuthService struct {
	users Users
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAuthService(users Users, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, cfg: cfg, log: log}
}

// Signup creates a client account and returns the verification URL the user
// must redeem before they can log in. Ops accounts are provisioned out of
// band, never through signup.
func (s *AuthService) Signup(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return "", err
	}

	verifyToken, err := security.NewOpaqueToken(32)
	if err != nil {
		return "", err
	}

	user := models.GatewayUser{
		User: models.User{
			ID:       ids.New(),
			Email:    email,
			UserType: models.UserTypeClient,
		},
		PasswordHash:      passwordHash,
		VerificationToken: &verifyToken,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", user.ID).Msg("client account created, verification pending")

	// In production the URL travels by email; the gateway returns it so demo
	// deployments work without a mail relay.
	return fmt.Sprintf("%s/verify-email?token=%s", s.cfg.Gateway.PublicURL, verifyToken), nil
}

// VerifyEmail redeems a verification token. Tokens are single use: the row
// update retires the token in the same statement that flips the flag.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidVerifyToken
	}

	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidVerifyToken
		}
		return err
	}

	return s.users.MarkVerified(ctx, user.ID)
}

// Login authenticates email+password for the requested role and mints a
// bearer token. The same rejection covers a missing user, a wrong password,
// and a role mismatch, so responses don't leak which part failed.
func (s *AuthService) Login(ctx context.Context, email, password string, userType models.UserType) (models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, "", ErrInvalidCredentials
	}

	if user.UserType != userType {
		return models.User{}, "", ErrInvalidCredentials
	}

	// Clients must verify before their first login; ops accounts are created
	// verified by provisioning, and keeping them loggable regardless avoids
	// locking out the uploader side on a mail outage.
	if !user.IsVerified && user.UserType == models.UserTypeClient {
		return models.User{}, "", ErrNotVerified
	}

	token, err := security.GenerateAccessToken(s.cfg.Security.JWTSecret, user.User, s.cfg.Security.JWTAccessTTL)
	if err != nil {
		return models.User{}, "", err
	}

	return user.User, token, nil
}

// UserFromToken resolves a bearer token to the current user record. The
// database is the source of truth; the claims only locate the row.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (models.User, error) {
	claims, err := security.ParseAccessToken(token, s.cfg.Security.JWTSecret)
	if err != nil {
		return models.User{}, fmt.Errorf("parse token: %w", err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, err
	}
	return user.User, nil
}
