package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage writes uploaded videos to a directory on disk. Used when no
// Spaces bucket is configured (development and single-host deployments).
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the upload directory if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Upload writes the video to disk and returns its serving path.
func (l *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(key))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create video file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write video file: %w", err)
	}

	return "/" + filepath.ToSlash(path), nil
}

// Delete removes the video file from disk.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(l.dir, filepath.Base(key)))
}
