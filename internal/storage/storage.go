// Package storage holds uploaded screenshot images and hands out their
// public URLs. Objects are written once and never rewritten.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mvibe/marketplace/internal/config"
)

var (
	ErrNotImage   = errors.New("only png, jpeg, gif and webp images can be uploaded")
	ErrInvalidKey = errors.New("invalid object key")
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// ObjectStore is the object-storage half of the external backend.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ObjectKey namespaces an upload under its owner and the upload time:
// "<user_id>/<unix_millis><ext>".
func ObjectKey(userID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%d%s", userID, at.UnixMilli(), ext)
}

// validateKey rejects empty keys, absolute paths and parent traversal.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// DetectImage sniffs the leading bytes of r and returns the detected type
// together with a reader that still yields the full content.
func DetectImage(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return nil, nil, ErrNotImage
	}
	return mt, io.MultiReader(bytes.NewReader(head), r), nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
