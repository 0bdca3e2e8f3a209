package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/minio/minio-go/v7"
)

// Upload stores the local file at path under key. Failures are
// *models.ArtifactUploadError.
func (b *Bucket) Upload(ctx context.Context, key, path string) error {
	_, err := b.api.FPutObject(ctx, b.name, key, path, minio.PutObjectOptions{
		ContentType: contentType(path),
	})
	if err != nil {
		return &models.ArtifactUploadError{Key: key, Path: path, Err: err}
	}
	return nil
}

// PresignedURL returns a time-limited GET URL for key.
func (b *Bucket) PresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage: empty key")
	}
	u, err := b.api.PresignedGetObject(ctx, b.name, key, b.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return u.String(), nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
