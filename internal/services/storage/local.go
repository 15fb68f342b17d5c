package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLocalBaseURL is the route the HTTP server serves the upload directory on.
const DefaultLocalBaseURL = "/static"

// LocalStore keeps uploads in a directory on disk.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory uploads are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key = SanitizeKey(key)
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, SanitizeKey(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), UploadPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
