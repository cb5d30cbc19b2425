// internal/services/storage_service_test.go
package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/config"
)

// memFile adapts a byte slice to multipart.File for sniffing tests.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newMemFile(b []byte) memFile {
	return memFile{bytes.NewReader(b)}
}

func TestValidateImage(t *testing.T) {
	service, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	jpeg := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 64)...)
	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	gif := append([]byte("GIF89a"), make([]byte, 64)...)
	webp := append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 64)...)

	for name, data := range map[string][]byte{
		"jpeg": jpeg,
		"png":  png,
		"gif":  gif,
		"webp": webp,
	} {
		assert.NoError(t, service.ValidateImage(newMemFile(data)), name)
	}

	pdf := append([]byte("%PDF-1.7"), make([]byte, 64)...)
	err = service.ValidateImage(newMemFile(pdf))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestValidateImageRewindsFile(t *testing.T) {
	service, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	file := newMemFile(append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 64)...))
	require.NoError(t, service.ValidateImage(file))

	// The next reader should see the file from the start again.
	head := make([]byte, 3)
	_, err = file.Read(head)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, head)
}

func TestUploadBase64Image(t *testing.T) {
	service, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	encoded := base64.StdEncoding.EncodeToString(png)

	result, err := service.UploadBase64Image(encoded, "items")
	require.NoError(t, err)
	assert.Equal(t, int64(len(png)), result.Size)
	assert.Equal(t, "image/png", result.MimeType)
	assert.True(t, strings.HasPrefix(result.Key, "items/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))

	// Data URL prefixes from canvas.toDataURL are stripped.
	withPrefix, err := service.UploadBase64Image("data:image/png;base64,"+encoded, "items")
	require.NoError(t, err)
	assert.Equal(t, result.Size, withPrefix.Size)
}

func TestUploadBase64ImageRejectsBadInput(t *testing.T) {
	service, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	_, err = service.UploadBase64Image("not valid base64!!!", "items")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	pdf := base64.StdEncoding.EncodeToString(append([]byte("%PDF-1.7"), make([]byte, 64)...))
	_, err = service.UploadBase64Image(pdf, "items")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	huge := base64.StdEncoding.EncodeToString(append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 3*1024*1024)...))
	_, err = service.UploadBase64Image(huge, "avatars")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestGetDefaultUploadOptions(t *testing.T) {
	service, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	items := service.GetDefaultUploadOptions("items")
	assert.Equal(t, "items", items.Folder)
	assert.NotZero(t, items.MaxSize)

	avatars := service.GetDefaultUploadOptions("avatars")
	assert.Equal(t, "avatars", avatars.Folder)
}
