package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formcraft_backend/internal/config"
	"formcraft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestUploadImageLocal(t *testing.T) {
	dir := t.TempDir()
	svc := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: dir}})

	url, err := svc.UploadImage(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/templates/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestUploadImageRejectsOtherContent(t *testing.T) {
	svc := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}})

	_, err := svc.UploadImage(context.Background(), strings.NewReader("%PDF-1.4 not an image"))
	var uerr *util.UploadError
	require.ErrorAs(t, err, &uerr)

	_, err = svc.UploadImage(context.Background(), bytes.NewReader(nil))
	require.ErrorAs(t, err, &uerr)

	big := append(append([]byte{}, pngHeader...), make([]byte, util.MaxImageSize)...)
	_, err = svc.UploadImage(context.Background(), bytes.NewReader(big))
	require.ErrorAs(t, err, &uerr)
}
