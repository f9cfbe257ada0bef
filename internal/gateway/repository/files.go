package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docbridge/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

func (r *FileRepository) Create(ctx context.Context, file models.FileRecord) error {
	const query = `
		INSERT INTO files (
			id, original_filename, file_type, size_bytes, bucket, object_key, uploaded_by, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		file.ID,
		file.OriginalFilename,
		file.FileType,
		file.SizeBytes,
		file.Bucket,
		file.ObjectKey,
		file.UploadedBy,
	)
	return err
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (models.FileRecord, error) {
	const query = `
		SELECT f.id, f.original_filename, f.file_type, f.size_bytes, f.bucket, f.object_key,
		       f.uploaded_by, u.email, f.uploaded_at
		FROM files f
		JOIN users u ON u.id = f.uploaded_by
		WHERE f.id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FileRecord{}, ErrFileNotFound
		}
		return models.FileRecord{}, err
	}
	return file, nil
}

// List returns every document in the exchange, newest first. An empty
// uploadedBy lists all files (the client view); ops dashboards pass their own
// id to see only their uploads.
func (r *FileRepository) List(ctx context.Context, uploadedBy string) ([]models.FileRecord, error) {
	const query = `
		SELECT f.id, f.original_filename, f.file_type, f.size_bytes, f.bucket, f.object_key,
		       f.uploaded_by, u.email, f.uploaded_at
		FROM files f
		JOIN users u ON u.id = f.uploaded_by
		WHERE ($1 = '' OR f.uploaded_by = $1)
		ORDER BY f.uploaded_at DESC
	`

	rows, err := r.pool.Query(ctx, query, uploadedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.FileRecord
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func scanFile(row pgx.Row) (models.FileRecord, error) {
	var file models.FileRecord
	err := row.Scan(
		&file.ID,
		&file.OriginalFilename,
		&file.FileType,
		&file.SizeBytes,
		&file.Bucket,
		&file.ObjectKey,
		&file.UploadedBy,
		&file.UploaderEmail,
		&file.UploadedAt,
	)
	return file, err
}
