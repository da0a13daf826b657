package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when a blob does not exist at the given key.
	ErrNotFound = errors.New("object not found")
	// ErrTooLarge is returned by ReadAll when a blob exceeds the limit.
	ErrTooLarge = errors.New("object too large")
)

// ObjectStore defines the contract for saving, reading and deleting binary objects.
// Keys returned by Save are opaque to callers.
type ObjectStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
	List(ctx context.Context) ([]string, error)
}

// ReadAll opens a stored object and reads at most limit bytes of it.
// A larger object fails with ErrTooLarge; limit <= 0 means no limit.
func ReadAll(ctx context.Context, store ObjectStore, storageKey string, limit int64) ([]byte, error) {
	rc, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object key=%s: %w", storageKey, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("read object key=%s: %w (limit %d bytes)", storageKey, ErrTooLarge, limit)
	}
	return data, nil
}

// RandomID returns a random hex identifier used to namespace uploads.
func RandomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
