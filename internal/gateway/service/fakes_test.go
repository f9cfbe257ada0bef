package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"docbridge/internal/config"
	"docbridge/internal/gateway/repository"
	"docbridge/internal/models"
)

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Gateway.PublicURL = "https://gateway.test"
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.JWTAccessTTL = time.Hour
	cfg.Security.DownloadTTL = 24 * time.Hour
	cfg.Security.MaxUploadSize = 1 << 20
	return cfg
}

type fakeUsers struct {
	byID map[string]models.GatewayUser
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]models.GatewayUser)}
}

func (f *fakeUsers) Create(_ context.Context, user models.GatewayUser) error {
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.GatewayUser, error) {
	for _, user := range f.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return models.GatewayUser{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.GatewayUser, error) {
	user, ok := f.byID[id]
	if !ok {
		return models.GatewayUser{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) FindByVerificationToken(_ context.Context, token string) (models.GatewayUser, error) {
	for _, user := range f.byID {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			return user, nil
		}
	}
	return models.GatewayUser{}, repository.ErrUserNotFound
}

func (f *fakeUsers) MarkVerified(_ context.Context, id string) error {
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsVerified = true
	user.VerificationToken = nil
	f.byID[id] = user
	return nil
}

type fakeFiles struct {
	byID      map[string]models.FileRecord
	listCalls []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{byID: make(map[string]models.FileRecord)}
}

func (f *fakeFiles) Create(_ context.Context, file models.FileRecord) error {
	f.byID[file.ID] = file
	return nil
}

func (f *fakeFiles) GetByID(_ context.Context, id string) (models.FileRecord, error) {
	file, ok := f.byID[id]
	if !ok {
		return models.FileRecord{}, repository.ErrFileNotFound
	}
	return file, nil
}

func (f *fakeFiles) List(_ context.Context, uploadedBy string) ([]models.FileRecord, error) {
	f.listCalls = append(f.listCalls, uploadedBy)
	var out []models.FileRecord
	for _, file := range f.byID {
		if uploadedBy == "" || file.UploadedBy == uploadedBy {
			out = append(out, file)
		}
	}
	return out, nil
}

type fakeGrants struct {
	byID      map[string]models.DownloadGrant
	filenames map[string]string
}

func newFakeGrants() *fakeGrants {
	return &fakeGrants{
		byID:      make(map[string]models.DownloadGrant),
		filenames: make(map[string]string),
	}
}

func (f *fakeGrants) Create(_ context.Context, grant models.DownloadGrant) error {
	f.byID[grant.ID] = grant
	return nil
}

func (f *fakeGrants) FindByToken(_ context.Context, userID, token string) (models.DownloadGrant, error) {
	for _, grant := range f.byID {
		if grant.UserID == userID && grant.Token == token {
			return grant, nil
		}
	}
	return models.DownloadGrant{}, repository.ErrGrantNotFound
}

func (f *fakeGrants) MarkUsed(_ context.Context, id string) error {
	grant, ok := f.byID[id]
	if !ok {
		return repository.ErrGrantNotFound
	}
	grant.IsUsed = true
	f.byID[id] = grant
	return nil
}

func (f *fakeGrants) History(_ context.Context, userID string) ([]models.DownloadGrant, []string, error) {
	var grants []models.DownloadGrant
	var names []string
	for _, grant := range f.byID {
		if grant.UserID == userID {
			grants = append(grants, grant)
			names = append(names, f.filenames[grant.ID])
		}
	}
	return grants, names, nil
}

func (f *fakeGrants) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, grant := range f.byID {
		if grant.ExpiresAt.Before(cutoff) {
			delete(f.byID, id)
			removed++
		}
	}
	return removed, nil
}

type fakeObjects struct {
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Bucket() string { return "docbridge-test" }

func (f *fakeObjects) Put(_ context.Context, objectKey string, reader io.Reader, size int64, _ string) error {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, reader, size); err != nil {
		return err
	}
	f.objects[objectKey] = buf.Bytes()
	return nil
}

func (f *fakeObjects) PresignedGet(_ context.Context, objectKey, downloadName string, ttl time.Duration) (string, error) {
	if _, ok := f.objects[objectKey]; !ok {
		return "", fmt.Errorf("object %s not found", objectKey)
	}
	return fmt.Sprintf("https://minio.test/%s/%s?name=%s&ttl=%d", f.Bucket(), objectKey, downloadName, int64(ttl.Seconds())), nil
}
