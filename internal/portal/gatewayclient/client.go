// Package gatewayclient is the portal's HTTP client for the credential
// gateway and its file API. The gateway is an opaque collaborator: this
// package knows its wire formats and nothing about its internals.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"docbridge/internal/models"
	"docbridge/internal/portal/auth"
)

// TransportError wraps a failure to reach the gateway at all, as opposed to
// an answer that refused the request.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "gateway unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Unavailable marks this error as a transport failure for the auth state
// machine's fail-closed handling.
func (e *TransportError) Unavailable() bool { return true }

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the gateway's fixed response shape; endpoint-specific fields
// sit alongside the flag and message.
type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	User         *wireUser       `json:"user"`
	Token        string          `json:"token"`
	EncryptedURL string          `json:"encryptedUrl"`
	DownloadLink string          `json:"downloadLink"`
	Files        []wireFile      `json:"files"`
	History      []wireHistory   `json:"history"`
}

type wireUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	UserType   string `json:"userType"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt"`
}

func (w *wireUser) toModel() models.User {
	user := models.User{
		ID:         w.ID,
		Email:      w.Email,
		UserType:   models.UserType(w.UserType),
		IsVerified: w.IsVerified,
	}
	if w.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			user.CreatedAt = &t
		}
	}
	return user
}

// FileItem is a listed document as the portal's dashboards consume it.
type FileItem struct {
	ID         string
	Filename   string
	FileType   string
	SizeBytes  int64
	UploadedBy string
	UploadedAt time.Time
}

type wireFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"fileType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// HistoryItem is one row of the client's download-history table.
type HistoryItem struct {
	Filename  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	IsUsed    bool
}

type wireHistory struct {
	Filename  string    `json:"filename"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsUsed    bool      `json:"isUsed"`
}

func (c *Client) Login(ctx context.Context, email, password string, userType models.UserType) (models.User, string, error) {
	env, err := c.postJSON(ctx, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
		"userType": userType,
	})
	if err != nil {
		return models.User{}, "", err
	}
	if env.User == nil || env.Token == "" {
		return models.User{}, "", &TransportError{Err: fmt.Errorf("login response missing user or token")}
	}
	return env.User.toModel(), env.Token, nil
}

func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	env, err := c.postJSON(ctx, "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return env.EncryptedURL, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	_, err := c.postJSON(ctx, "/api/auth/verify-email", "", map[string]any{
		"token": token,
	})
	return err
}

func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	env, err := c.getJSON(ctx, "/api/auth/me", token)
	if err != nil {
		return models.User{}, err
	}
	if env.User == nil {
		return models.User{}, &TransportError{Err: fmt.Errorf("me response missing user")}
	}
	return env.User.toModel(), nil
}

func (c *Client) ListFiles(ctx context.Context, token string) ([]FileItem, error) {
	env, err := c.getJSON(ctx, "/api/files", token)
	if err != nil {
		return nil, err
	}

	files := make([]FileItem, 0, len(env.Files))
	for _, f := range env.Files {
		files = append(files, FileItem(f))
	}
	return files, nil
}

func (c *Client) Upload(ctx context.Context, token, filename string, content io.Reader) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	setBearer(req, token)

	_, err = c.do(req)
	return err
}

func (c *Client) IssueDownloadLink(ctx context.Context, token, fileID string) (string, error) {
	env, err := c.postJSON(ctx, "/api/files/"+fileID+"/link", token, map[string]any{})
	if err != nil {
		return "", err
	}
	return env.DownloadLink, nil
}

func (c *Client) DownloadHistory(ctx context.Context, token string) ([]HistoryItem, error) {
	env, err := c.getJSON(ctx, "/api/files/history", token)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(env.History))
	for _, h := range env.History {
		items = append(items, HistoryItem(h))
	}
	return items, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any) (*envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, token)

	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path, token string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	setBearer(req, token)

	return c.do(req)
}

// do executes the request and folds the outcome into the error model: a
// transport failure (or a 5xx, or an unparsable body) is a TransportError;
// an answered refusal is a RejectionError carrying the gateway's message.
func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &TransportError{Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if !env.Success {
		message := env.Message
		if message == "" {
			message = fmt.Sprintf("gateway refused the request (%d)", resp.StatusCode)
		}
		return nil, &auth.RejectionError{Message: message}
	}

	return &env, nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
