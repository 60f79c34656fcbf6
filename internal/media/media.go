// Package media stores avatar images and hands back their public URL.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/google/uuid"

	"aura-go/internal/config"
)

// FileInfo 包含上传文件的基本信息和访问路径。
type FileInfo struct {
	URL      string `json:"url"`      // 可公开访问的文件 URL
	Path     string `json:"path"`     // 文件在存储系统中的路径或对象名
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"` // 原始文件名
}

// StorageService 定义了头像存储操作的接口。
type StorageService interface {
	// UploadFile stores fileSize bytes from reader and returns where they can be fetched.
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	// DeleteFile removes an object previously returned in FileInfo.Path.
	DeleteFile(ctx context.Context, path string) error
}

// NewStorageService picks the backend named by cfg.Type.
func NewStorageService(ctx context.Context, cfg config.StorageConfig) (StorageService, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorageService(cfg)
	case "minio":
		return NewMinIOStorageService(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// uniqueName generates a collision free object name, keeping the original extension.
func uniqueName(fileName, mimeType string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		// 如果没有扩展名，尝试从 MIME 类型推断
		if extensions, _ := mime.ExtensionsByType(mimeType); len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	return uuid.New().String() + ext
}
