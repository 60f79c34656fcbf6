package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"aura-go/internal/config"
)

// MinIOStorageService stores avatars as objects in an S3 compatible bucket.
type MinIOStorageService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOStorageService connects to MinIO and creates the bucket when it is missing.
func NewMinIOStorageService(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.BucketName, err)
		}
		logrus.WithField("bucket", cfg.BucketName).Info("created avatar bucket")
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.BucketName
	}

	return &MinIOStorageService{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *MinIOStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error) {
	name := uniqueName(fileName, mimeType)

	info, err := s.client.PutObject(ctx, s.bucket, name, reader, fileSize, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("minio_put: %w", err)
	}

	return &FileInfo{
		URL:      s.publicURL + "/" + name,
		Path:     name,
		Size:     info.Size,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (s *MinIOStorageService) DeleteFile(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}
