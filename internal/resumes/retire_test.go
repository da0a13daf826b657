package resumes

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai-backend/internal/shared/storage/object"
)

func ingestOne(t *testing.T, env *testEnv) Record {
	t.Helper()
	rec, err := env.svc.Ingest(context.Background(), IngestInput{FileName: "cv.pdf", Data: pdfBytes, CompanyName: "Acme"}, nil)
	require.NoError(t, err)
	return rec
}

func TestRetireRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)

	var calls int
	var got RetireResult
	res := env.svc.Retire(context.Background(), rec, func(r RetireResult) {
		calls++
		got = r
	})

	assert.True(t, res.OK())
	assert.False(t, res.NeedsRefresh())
	assert.Empty(t, res.Message())
	assert.Equal(t, 1, calls)
	assert.Equal(t, res, got)
	assert.Zero(t, env.blobs.count())

	_, err := env.svc.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetireFailingSourceDeleteStillRemovesRest(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)
	env.blobs.deleteErr = func(key string) error {
		if key == rec.ResumePath {
			return errors.New("access denied")
		}
		return nil
	}

	res := env.svc.Retire(context.Background(), rec, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ResourceResumeFile, res.Errors[0].Resource)
	assert.Equal(t, rec.ResumePath, res.Errors[0].Path)
	assert.False(t, res.NeedsRefresh())
	assert.Equal(t, "Resume deleted with some issues:\nResume file: access denied", res.Message())

	assert.True(t, env.blobs.has(rec.ResumePath))
	assert.False(t, env.blobs.has(rec.ImagePath))
	_, err := env.svc.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetireMissingBlobsReportedInOrder(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)
	require.NoError(t, env.blobs.Delete(context.Background(), rec.ImagePath))
	require.NoError(t, env.blobs.Delete(context.Background(), rec.ResumePath))

	res := env.svc.Retire(context.Background(), rec, nil)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, ResourceResumeFile, res.Errors[0].Resource)
	assert.Equal(t, ResourceImageFile, res.Errors[1].Resource)
	for _, e := range res.Errors {
		assert.ErrorIs(t, e, object.ErrNotFound)
	}
	assert.False(t, res.NeedsRefresh())
}

func TestRetireRecordStoreReturnsFalse(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)
	env.records.delFalse = true

	res := env.svc.Retire(context.Background(), rec, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ResourceRecordStore, res.Errors[0].Resource)
	assert.ErrorIs(t, res.Errors[0], ErrDeleteReturnedFalse)
	assert.True(t, res.NeedsRefresh())
	assert.Equal(t, "Resume deleted with some issues:\nKV store: KV store deletion returned false", res.Message())
	assert.Zero(t, env.blobs.count())
}

func TestRetireAllFailuresStillCallsDone(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)
	env.blobs.deleteErr = func(string) error { panic("driver exploded") }
	env.records.delHook = func(string) error { return errors.New("connection reset") }

	var calls int
	res := env.svc.Retire(context.Background(), rec, func(RetireResult) { calls++ })

	assert.Equal(t, 1, calls)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, []Resource{ResourceResumeFile, ResourceImageFile, ResourceRecordStore},
		[]Resource{res.Errors[0].Resource, res.Errors[1].Resource, res.Errors[2].Resource})
	assert.Contains(t, res.Errors[0].Error(), "panic: driver exploded")
	assert.Equal(t, "Resume deleted with some issues:\n"+
		"Resume file: panic: driver exploded\n"+
		"Image file: panic: driver exploded\n"+
		"KV store: connection reset", res.Message())
}

func TestRetireRunsDeletionsConcurrently(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)

	var arrived atomic.Int32
	all := make(chan struct{})
	barrier := func() error {
		if arrived.Add(1) == 3 {
			close(all)
		}
		select {
		case <-all:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("deletions did not overlap")
		}
	}
	env.blobs.deleteErr = func(string) error { return barrier() }
	env.records.delHook = func(string) error { return barrier() }

	res := env.svc.Retire(context.Background(), rec, nil)
	assert.True(t, res.OK(), res.Message())
}

func TestRetireByID(t *testing.T) {
	env := newTestEnv(t)
	rec := ingestOne(t, env)

	res, err := env.svc.RetireByID(context.Background(), rec.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, rec.ID, res.ID)

	var called bool
	_, err = env.svc.RetireByID(context.Background(), rec.ID, func(RetireResult) { called = true })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}
