package resumes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"resumeai-backend/internal/shared/telemetry"
)

const wipeConcurrency = 8

// WipeResult summarizes a Wipe.
type WipeResult struct {
	Deleted int
	Errors  []DeletionError
}

// Wipe deletes every stored file and flushes the record store. Individual
// failures are collected; an error is returned only when the files cannot be listed.
func (s *Service) Wipe(ctx context.Context) (WipeResult, error) {
	paths, err := s.Blobs.List(ctx)
	if err != nil {
		return WipeResult{}, fmt.Errorf("list files: %w", err)
	}

	errs := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(wipeConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			errs[i] = safely(ctx, func(ctx context.Context) error {
				return s.Blobs.Delete(ctx, p)
			})
			return nil
		})
	}
	_ = g.Wait()

	var result WipeResult
	for i, p := range paths {
		if errs[i] != nil {
			result.Errors = append(result.Errors, DeletionError{Resource: resourceForPath(p), Path: p, Err: errs[i]})
			continue
		}
		result.Deleted++
	}

	if err := s.Records.Flush(ctx); err != nil {
		result.Errors = append(result.Errors, DeletionError{Resource: ResourceRecordStore, Err: err})
	}

	telemetry.Info("wipe.complete", map[string]any{
		"deleted":  result.Deleted,
		"failures": len(result.Errors),
	})
	return result, nil
}

func resourceForPath(p string) Resource {
	if strings.HasSuffix(strings.ToLower(p), ".png") {
		return ResourceImageFile
	}
	return ResourceResumeFile
}
