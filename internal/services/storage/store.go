// Package storage keeps uploaded photos and hands back the URL they are
// served from.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pantrychef/recipegen/internal/config"
)

// UploadPrefix is prepended to every stored upload name.
const UploadPrefix = "output_"

var ErrUploadFailed = errors.New("upload failed")

// Store saves uploaded files.
type Store interface {
	// Save stores data under key and returns its public URL.
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that can expire old uploads.
type Sweeper interface {
	// Sweep removes uploads last modified before now-olderThan and reports how many went.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// HashContent returns the hex sha256 of data.
func HashContent(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SanitizeKey reduces a client supplied file name to a safe base name.
// Names that reduce to nothing are replaced by a random one.
func SanitizeKey(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}

	clean := strings.TrimLeft(sb.String(), ".")
	if clean == "" {
		return uuid.NewString()
	}
	return clean
}

// UploadKey returns the key an uploaded file is stored under.
func UploadKey(filename string) string {
	return UploadPrefix + SanitizeKey(filename)
}

// DetectContentType sniffs the MIME type of an upload.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// New builds the store selected in cfg.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "local":
		return NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	case "s3":
		return NewS3Store(ctx, cfg.AWSRegion, cfg.Storage.Bucket, cfg.Storage.BaseURL)
	case "supabase":
		return NewSupabaseStore(NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), cfg.Storage.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
