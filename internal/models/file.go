package models

import (
	"strings"
	"time"
)

// FileType enumerates the office document formats the exchange accepts.
type FileType string

const (
	FileTypePPTX FileType = "pptx"
	FileTypeDOCX FileType = "docx"
	FileTypeXLSX FileType = "xlsx"
)

// DetectFileType maps a filename to the accepted office formats.
func DetectFileType(filename string) (FileType, bool) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return "", false
	}
	switch strings.ToLower(filename[dot:]) {
	case ".pptx":
		return FileTypePPTX, true
	case ".docx":
		return FileTypeDOCX, true
	case ".xlsx":
		return FileTypeXLSX, true
	}
	return "", false
}

// FileRecord describes one uploaded document and where its object lives.
type FileRecord struct {
	ID               string
	OriginalFilename string
	FileType         FileType
	SizeBytes        int64
	Bucket           string
	ObjectKey        string
	UploadedBy       string
	UploaderEmail    string
	UploadedAt       time.Time
}

// DownloadGrant is a time-limited, single-use authorization for one client
// user to fetch one file. The token is opaque and url-safe; the grant is
// consumed on first successful redemption.
type DownloadGrant struct {
	ID        string
	UserID    string
	FileID    string
	Token     string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}
