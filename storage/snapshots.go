package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/minio/minio-go/v7"
)

// SnapshotKey is the object key of the snapshot taken on date.
func SnapshotKey(date time.Time) string {
	return date.Format("assets/2006/01/02.json")
}

// SaveSnapshot writes snap as JSON under SnapshotKey(date), replacing any
// snapshot already stored for that day.
func (b *Bucket) SaveSnapshot(ctx context.Context, date time.Time, snap *models.AssetSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	key := SnapshotKey(date)
	_, err = b.api.PutObject(ctx, b.name, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot reads the snapshot taken on date. A missing snapshot is
// ErrNotFound.
func (b *Bucket) LoadSnapshot(ctx context.Context, date time.Time) (*models.AssetSnapshot, error) {
	key := SnapshotKey(date)

	dir, err := os.MkdirTemp("", "dcpmon-snapshot-")
	if err != nil {
		return nil, fmt.Errorf("storage: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.json")
	if err := b.api.FGetObject(ctx, b.name, key, path, minio.GetObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("storage: %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	var snap models.AssetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return &snap, nil
}

// IsNotFound reports whether err is a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
