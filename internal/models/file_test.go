package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
		ok       bool
	}{
		{"deck.pptx", FileTypePPTX, true},
		{"Contract.DOCX", FileTypeDOCX, true},
		{"q3 report.xlsx", FileTypeXLSX, true},
		{"archive.tar.xlsx", FileTypeXLSX, true},
		{"legacy.doc", "", false},
		{"script.exe", "", false},
		{"noextension", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := DetectFileType(tc.filename)
		assert.Equal(t, tc.ok, ok, tc.filename)
		assert.Equal(t, tc.want, got, tc.filename)
	}
}

func TestUserTypeValid(t *testing.T) {
	assert.True(t, UserTypeOps.Valid())
	assert.True(t, UserTypeClient.Valid())
	assert.False(t, UserType("admin").Valid())
	assert.False(t, UserType("").Valid())
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/ops-dashboard", UserTypeOps.DashboardPath())
	assert.Equal(t, "/client-dashboard", UserTypeClient.DashboardPath())
}
