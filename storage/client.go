// Package storage keeps snapshots and diagnostic artifacts in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectAPI is the subset of *minio.Client this package uses.
type ObjectAPI interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Bucket is one bucket behind an ObjectAPI.
type Bucket struct {
	api           ObjectAPI
	name          string
	presignExpiry time.Duration
}

// NewBucket wraps an existing client.
func NewBucket(api ObjectAPI, name string, presignExpiry time.Duration) *Bucket {
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}
	return &Bucket{api: api, name: name, presignExpiry: presignExpiry}
}

// Open connects to the configured endpoint. It does not contact the server.
func Open(cfg config.StorageConfig) (*Bucket, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return NewBucket(client, cfg.Bucket, cfg.PresignExpiry), nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
