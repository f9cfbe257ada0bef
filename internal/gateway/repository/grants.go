package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docbridge/internal/models"
)

var ErrGrantNotFound = errors.New("download grant not found")

type GrantRepository struct {
	pool *pgxpool.Pool
}

func NewGrantRepository(pool *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

func (r *GrantRepository) Create(ctx context.Context, grant models.DownloadGrant) error {
	const query = `
		INSERT INTO download_grants (
			id, user_id, file_id, token, expires_at, is_used, created_at
		) VALUES (
			$1, $2, $3, $4, $5, FALSE, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		grant.ID,
		grant.UserID,
		grant.FileID,
		grant.Token,
		grant.ExpiresAt,
	)
	return err
}

// FindByToken scopes the lookup to the requesting user: a leaked link is
// worthless to anyone but the client it was issued to.
func (r *GrantRepository) FindByToken(ctx context.Context, userID, token string) (models.DownloadGrant, error) {
	const query = `
		SELECT id, user_id, file_id, token, expires_at, is_used, created_at
		FROM download_grants
		WHERE user_id = $1 AND token = $2
	`

	row := r.pool.QueryRow(ctx, query, userID, token)
	var grant models.DownloadGrant
	if err := row.Scan(
		&grant.ID,
		&grant.UserID,
		&grant.FileID,
		&grant.Token,
		&grant.ExpiresAt,
		&grant.IsUsed,
		&grant.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DownloadGrant{}, ErrGrantNotFound
		}
		return models.DownloadGrant{}, err
	}
	return grant, nil
}

func (r *GrantRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `UPDATE download_grants SET is_used = TRUE WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// History lists the user's grants newest first, joined with the filename the
// portal shows in the download-history table.
func (r *GrantRepository) History(ctx context.Context, userID string) ([]models.DownloadGrant, []string, error) {
	const query = `
		SELECT g.id, g.user_id, g.file_id, g.token, g.expires_at, g.is_used, g.created_at,
		       f.original_filename
		FROM download_grants g
		JOIN files f ON f.id = g.file_id
		WHERE g.user_id = $1
		ORDER BY g.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		grants    []models.DownloadGrant
		filenames []string
	)
	for rows.Next() {
		var (
			grant    models.DownloadGrant
			filename string
		)
		if err := rows.Scan(
			&grant.ID,
			&grant.UserID,
			&grant.FileID,
			&grant.Token,
			&grant.ExpiresAt,
			&grant.IsUsed,
			&grant.CreatedAt,
			&filename,
		); err != nil {
			return nil, nil, err
		}
		grants = append(grants, grant)
		filenames = append(filenames, filename)
	}
	return grants, filenames, rows.Err()
}

// PurgeExpired deletes grants whose expiry is older than the cutoff and
// returns how many were removed.
func (r *GrantRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM download_grants WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
