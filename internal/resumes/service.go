// Package resumes implements the resume lifecycle: ingesting a PDF into an
// analyzed record and retiring a record with its stored files.
package resumes

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/rasterizer"
	"resumeai-backend/internal/shared/storage/kv"
	"resumeai-backend/internal/shared/storage/object"
	"resumeai-backend/internal/shared/telemetry"
)

// Rasterizer renders the first page of a document.
type Rasterizer interface {
	Rasterize(ctx context.Context, name string, data []byte) rasterizer.Result
}

// Service coordinates blob storage, the record store, the rasterizer and the LLM.
type Service struct {
	Blobs      object.ObjectStore
	Records    kv.Store
	Rasterizer Rasterizer
	LLM        llm.Client
	// NewID allocates record identities; defaults to uuid.NewString.
	NewID func() string
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Get loads a single record.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrInvalidInput
	}
	raw, found, err := s.Records.Get(ctx, RecordKey(id))
	if err != nil {
		return Record{}, fmt.Errorf("get resume %s: %w", id, err)
	}
	if !found {
		return Record{}, ErrNotFound
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return Record{}, fmt.Errorf("decode resume %s: %w", id, err)
	}
	return rec, nil
}

// List returns every stored record ordered by key. Entries that fail to
// decode are logged and skipped.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	items, err := s.Records.List(ctx, recordKeyPrefix+"*", true)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		rec, err := decodeRecord(item.Value)
		if err != nil {
			telemetry.Warn("resumes.list_skip", map[string]any{"key": item.Key, "err": err})
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Open streams a stored file back to the caller.
func (s *Service) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, ErrNotFound
	}
	return s.Blobs.Open(ctx, path)
}

func (s *Service) put(ctx context.Context, rec Record) error {
	value, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode resume %s: %w", rec.ID, err)
	}
	return s.Records.Set(ctx, RecordKey(rec.ID), value)
}
