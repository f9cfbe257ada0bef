package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docbridge/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.GatewayUser) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, user_type, is_verified, verification_token, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.UserType,
		user.IsVerified,
		user.VerificationToken,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.GatewayUser, error) {
	const query = `
		SELECT id, email, password_hash, user_type, is_verified, verification_token, created_at, updated_at
		FROM users WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.GatewayUser, error) {
	const query = `
		SELECT id, email, password_hash, user_type, is_verified, verification_token, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (models.GatewayUser, error) {
	const query = `
		SELECT id, email, password_hash, user_type, is_verified, verification_token, created_at, updated_at
		FROM users WHERE verification_token = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, token))
}

// MarkVerified flips is_verified and retires the token in one statement, so a
// token can never verify twice.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (models.GatewayUser, error) {
	var user models.GatewayUser
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.UserType,
		&user.IsVerified,
		&user.VerificationToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GatewayUser{}, ErrUserNotFound
		}
		return models.GatewayUser{}, err
	}
	return user, nil
}
