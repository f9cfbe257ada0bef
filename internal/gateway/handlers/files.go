package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docbridge/internal/gateway/middleware"
	"docbridge/internal/gateway/repository"
	"docbridge/internal/gateway/service"
	"docbridge/internal/models"
)

type fileResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"fileType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toFileResponse(file models.FileRecord) fileResponse {
	return fileResponse{
		ID:         file.ID,
		Filename:   file.OriginalFilename,
		FileType:   string(file.FileType),
		SizeBytes:  file.SizeBytes,
		UploadedBy: file.UploaderEmail,
		UploadedAt: file.UploadedAt,
	}
}

func (h HandlerSet) UploadFile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file required"})
		return
	}
	defer file.Close()

	record, err := h.fileService.Upload(c.Request.Context(), service.UploadInput{
		Uploader: user,
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrFileTypeNotAllowed) || errors.Is(err, service.ErrFileTooLarge) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "file uploaded successfully",
		"file":    toFileResponse(record),
	})
}

func (h HandlerSet) ListFiles(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	files, err := h.fileService.List(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, file := range files {
		resp = append(resp, toFileResponse(file))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "files": resp})
}

func (h HandlerSet) IssueDownloadLink(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	fileID := c.Param("id")
	link, err := h.fileService.IssueLink(c.Request.Context(), user, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "secure download link generated successfully",
		"downloadLink": link,
	})
}

func (h HandlerSet) Download(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	token := c.Param("token")
	url, err := h.fileService.Redeem(c.Request.Context(), user, token)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGrantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "invalid download link or access denied"})
		case errors.Is(err, service.ErrGrantExpired):
			c.JSON(http.StatusGone, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, service.ErrGrantUsed):
			c.JSON(http.StatusGone, gin.H{"success": false, "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}

	c.Redirect(http.StatusFound, url)
}

type historyResponse struct {
	Filename  string    `json:"filename"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsUsed    bool      `json:"isUsed"`
}

func (h HandlerSet) DownloadHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	items, err := h.fileService.History(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	resp := make([]historyResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, historyResponse{
			Filename:  item.Filename,
			IssuedAt:  item.Grant.CreatedAt,
			ExpiresAt: item.Grant.ExpiresAt,
			IsUsed:    item.Grant.IsUsed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": resp})
}
