package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-go/internal/config"
)

func TestLocalUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: dir, BaseURL: "/uploads/"})
	require.NoError(t, err)

	body := "fake png bytes"
	info, err := svc.UploadFile(context.Background(), strings.NewReader(body), int64(len(body)), "me.png", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(info.URL, ".png"))
	assert.Equal(t, "me.png", info.FileName)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	require.NoError(t, svc.DeleteFile(context.Background(), info.Path))
	_, err = os.Stat(info.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalUploadSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: dir})
	require.NoError(t, err)

	_, err = svc.UploadFile(context.Background(), strings.NewReader("abc"), 10, "a.jpg", "image/jpeg")
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must be removed")
}

func TestLocalDeleteOutsideBase(t *testing.T) {
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)

	err = svc.DeleteFile(context.Background(), filepath.Join(os.TempDir(), "..", "etc", "passwd"))
	assert.Error(t, err)
}

func TestNewStorageServiceUnknownType(t *testing.T) {
	_, err := NewStorageService(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
