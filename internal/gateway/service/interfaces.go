package service

import (
	"context"
	"io"
	"time"

	"docbridge/internal/models"
)

// The services accept narrow interfaces rather than the concrete pgx/minio
// types so tests can substitute fakes.

type Users interface {
	Create(ctx context.Context, user models.GatewayUser) error
	FindByEmail(ctx context.Context, email string) (models.GatewayUser, error)
	GetByID(ctx context.Context, id string) (models.GatewayUser, error)
	FindByVerificationToken(ctx context.Context, token string) (models.GatewayUser, error)
	MarkVerified(ctx context.Context, id string) error
}

type Files interface {
	Create(ctx context.Context, file models.FileRecord) error
	GetByID(ctx context.Context, id string) (models.FileRecord, error)
	List(ctx context.Context, uploadedBy string) ([]models.FileRecord, error)
}

type Grants interface {
	Create(ctx context.Context, grant models.DownloadGrant) error
	FindByToken(ctx context.Context, userID, token string) (models.DownloadGrant, error)
	MarkUsed(ctx context.Context, id string) error
	History(ctx context.Context, userID string) ([]models.DownloadGrant, []string, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Objects interface {
	Bucket() string
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	PresignedGet(ctx context.Context, objectKey, downloadName string, ttl time.Duration) (string, error)
}
