package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"resumeai-backend/internal/shared/metrics"
	"resumeai-backend/internal/shared/telemetry"
)

// Resource identifies one artifact removed by Retire.
type Resource string

const (
	ResourceResumeFile  Resource = "resume_file"
	ResourceImageFile   Resource = "image_file"
	ResourceRecordStore Resource = "record_store"
)

// Label is the human-readable resource name.
func (r Resource) Label() string {
	switch r {
	case ResourceResumeFile:
		return "Resume file"
	case ResourceImageFile:
		return "Image file"
	case ResourceRecordStore:
		return "KV store"
	default:
		return string(r)
	}
}

// ErrDeleteReturnedFalse is recorded when the record store reports nothing was deleted.
var ErrDeleteReturnedFalse = errors.New("KV store deletion returned false")

// DeletionError is a failed deletion of one resource.
type DeletionError struct {
	Resource Resource
	// Path is set for file deletions.
	Path string
	Err  error
}

func (e DeletionError) Error() string {
	return e.Resource.Label() + ": " + e.Err.Error()
}

func (e DeletionError) Unwrap() error {
	return e.Err
}

// RetireResult lists the deletions that failed, in resource order.
type RetireResult struct {
	ID     string
	Errors []DeletionError
}

// OK reports whether every deletion succeeded.
func (r RetireResult) OK() bool {
	return len(r.Errors) == 0
}

// NeedsRefresh reports whether the record store deletion failed, in which
// case a caller's cached listing may disagree with the store.
func (r RetireResult) NeedsRefresh() bool {
	for _, e := range r.Errors {
		if e.Resource == ResourceRecordStore {
			return true
		}
	}
	return false
}

// Message returns a multi-line summary of failures, or "" on success.
func (r RetireResult) Message() string {
	if r.OK() {
		return ""
	}
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.Error()
	}
	return "Resume deleted with some issues:\n" + strings.Join(lines, "\n")
}

// Retire deletes the record's two files and its record store entry. The
// three deletions run concurrently and never short-circuit; Retire returns
// after all of them finish. done, when non-nil, is always called with the result.
func (s *Service) Retire(ctx context.Context, rec Record, done func(RetireResult)) RetireResult {
	type attempt struct {
		resource Resource
		path     string
		run      func(ctx context.Context) error
	}
	attempts := []attempt{
		{resource: ResourceResumeFile, path: rec.ResumePath, run: func(ctx context.Context) error {
			return s.Blobs.Delete(ctx, rec.ResumePath)
		}},
		{resource: ResourceImageFile, path: rec.ImagePath, run: func(ctx context.Context) error {
			return s.Blobs.Delete(ctx, rec.ImagePath)
		}},
		{resource: ResourceRecordStore, run: func(ctx context.Context) error {
			ok, err := s.Records.Del(ctx, RecordKey(rec.ID))
			if err != nil {
				return err
			}
			if !ok {
				return ErrDeleteReturnedFalse
			}
			return nil
		}},
	}

	errs := make([]error, len(attempts))
	var g errgroup.Group
	for i, a := range attempts {
		g.Go(func() error {
			errs[i] = safely(ctx, a.run)
			return nil
		})
	}
	_ = g.Wait()

	result := RetireResult{ID: rec.ID}
	for i, a := range attempts {
		if errs[i] != nil {
			result.Errors = append(result.Errors, DeletionError{Resource: a.resource, Path: a.path, Err: errs[i]})
		}
	}

	metrics.IncRetire(!result.OK())
	fields := map[string]any{"resume_id": rec.ID, "failures": len(result.Errors)}
	if result.OK() {
		telemetry.Info("retire.complete", fields)
	} else {
		fields["message"] = result.Message()
		telemetry.Warn("retire.complete", fields)
	}

	if done != nil {
		done(result)
	}
	return result
}

// RetireByID loads the record and retires it.
func (s *Service) RetireByID(ctx context.Context, id string, done func(RetireResult)) (RetireResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return RetireResult{ID: id}, err
	}
	return s.Retire(ctx, rec, done), nil
}

func safely(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
