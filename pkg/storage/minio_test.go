package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".pdf", "application/pdf"},
		{".PDF", "application/pdf"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".zip", "application/zip"},
		{".bin", "application/octet-stream"},
		{"", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContentType(tt.ext))
		})
	}
}

func TestGetPublicURL(t *testing.T) {
	s := &MinIOStorage{bucket: "hamro", endpoint: "localhost:9000"}
	assert.Equal(t, "http://localhost:9000/hamro/avatars/a.png", s.GetPublicURL("avatars/a.png"))

	s.useSSL = true
	assert.Equal(t, "https://localhost:9000/hamro/avatars/a.png", s.GetPublicURL("avatars/a.png"))

	s.publicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/hamro/avatars/a.png", s.GetPublicURL("avatars/a.png"))
}
