package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"docbridge/internal/config"
	"docbridge/internal/gateway/security"
	"docbridge/internal/ids"
	"docbridge/internal/models"
)

var (
	ErrFileTypeNotAllowed = errors.New("file type not allowed, only pptx, docx and xlsx are permitted")
	ErrFileTooLarge       = errors.New("file too large")
	ErrGrantExpired       = errors.New("download link has expired")
	ErrGrantUsed          = errors.New("download link already used")
)

var contentTypes = map[models.FileType]string{
	models.FileTypePPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	models.FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	models.FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type FileService struct {
	files  Files
	grants Grants
	store  Objects
	cache  *redis.Client
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewFileService(files Files, grants Grants, store Objects, cache *redis.Client, cfg *config.AppConfig, log zerolog.Logger) *FileService {
	return &FileService{
		files:  files,
		grants: grants,
		store:  store,
		cache:  cache,
		cfg:    cfg,
		log:    log,
	}
}

type UploadInput struct {
	Uploader models.User
	Filename string
	Size     int64
	Reader   io.Reader
}

func (s *FileService) Upload(ctx context.Context, input UploadInput) (models.FileRecord, error) {
	fileType, ok := models.DetectFileType(input.Filename)
	if !ok {
		return models.FileRecord{}, ErrFileTypeNotAllowed
	}

	if input.Size <= 0 {
		return models.FileRecord{}, errors.New("empty file")
	}
	if input.Size > s.cfg.Security.MaxUploadSize {
		return models.FileRecord{}, ErrFileTooLarge
	}

	fileID := ids.New()
	objectKey := buildObjectKey(fileID, string(fileType))

	if err := s.store.Put(ctx, objectKey, input.Reader, input.Size, contentTypes[fileType]); err != nil {
		return models.FileRecord{}, err
	}

	file := models.FileRecord{
		ID:               fileID,
		OriginalFilename: input.Filename,
		FileType:         fileType,
		SizeBytes:        input.Size,
		Bucket:           s.store.Bucket(),
		ObjectKey:        objectKey,
		UploadedBy:       input.Uploader.ID,
		UploaderEmail:    input.Uploader.Email,
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.files.Create(ctx, file); err != nil {
		return models.FileRecord{}, fmt.Errorf("save metadata: %w", err)
	}

	s.log.Info().
		Str("file_id", file.ID).
		Str("uploaded_by", input.Uploader.ID).
		Int64("size", input.Size).
		Msg("document uploaded")

	return file, nil
}

// List returns what the caller may see: clients browse the whole exchange,
// ops users see their own uploads.
func (s *FileService) List(ctx context.Context, caller models.User) ([]models.FileRecord, error) {
	if caller.UserType == models.UserTypeOps {
		return s.files.List(ctx, caller.ID)
	}
	return s.files.List(ctx, "")
}

// IssueLink creates a download grant and returns the gateway URL that
// redeems it. The grant outlives nothing: it expires DownloadTTL after issue.
func (s *FileService) IssueLink(ctx context.Context, caller models.User, fileID string) (string, error) {
	if _, err := s.files.GetByID(ctx, fileID); err != nil {
		return "", err
	}

	token, err := security.NewOpaqueToken(32)
	if err != nil {
		return "", err
	}

	grant := models.DownloadGrant{
		ID:        ids.New(),
		UserID:    caller.ID,
		FileID:    fileID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.cfg.Security.DownloadTTL),
	}
	if err := s.grants.Create(ctx, grant); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/api/files/download/%s", s.cfg.Gateway.PublicURL, token), nil
}

// Redeem exchanges a grant token for a presigned object URL. Grants are
// single use; the redis guard makes concurrent redemptions lose cleanly
// before the row update lands.
func (s *FileService) Redeem(ctx context.Context, caller models.User, token string) (string, error) {
	grant, err := s.grants.FindByToken(ctx, caller.ID, token)
	if err != nil {
		return "", err
	}

	remaining := time.Until(grant.ExpiresAt)
	if remaining <= 0 {
		return "", ErrGrantExpired
	}
	if grant.IsUsed {
		return "", ErrGrantUsed
	}

	if s.cache != nil {
		used, err := s.cache.SetNX(ctx, "dl:used:"+grant.ID, "1", remaining).Result()
		if err != nil {
			s.log.Warn().Err(err).Msg("download replay guard unavailable")
		} else if !used {
			return "", ErrGrantUsed
		}
	}

	if err := s.grants.MarkUsed(ctx, grant.ID); err != nil {
		return "", err
	}

	file, err := s.files.GetByID(ctx, grant.FileID)
	if err != nil {
		return "", err
	}

	return s.store.PresignedGet(ctx, file.ObjectKey, file.OriginalFilename, remaining)
}

type HistoryItem struct {
	Grant    models.DownloadGrant
	Filename string
}

func (s *FileService) History(ctx context.Context, caller models.User) ([]HistoryItem, error) {
	grants, filenames, err := s.grants.History(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(grants))
	for i, grant := range grants {
		items = append(items, HistoryItem{Grant: grant, Filename: filenames[i]})
	}
	return items, nil
}

// PurgeExpiredGrants is the cron entry point.
func (s *FileService) PurgeExpiredGrants(ctx context.Context) {
	removed, err := s.grants.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired grants failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired download grants purged")
	}
}

func buildObjectKey(fileID string, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", fileID, ext))
}
