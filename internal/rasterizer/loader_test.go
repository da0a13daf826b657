package rasterizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{ id int }

func (stubBackend) Open([]byte) (Document, error) { return nil, errors.New("not implemented") }

func TestEnsureLoadedSharesOneInitialization(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	l := NewLoader(func(ctx context.Context) (Backend, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return &stubBackend{id: 1}, nil
	})
	assert.Equal(t, StateIdle, l.State())

	const callers = 16
	results := make([]Backend, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.EnsureLoaded(context.Background())
		}(i)
	}

	<-started
	assert.Equal(t, StateInitializing, l.State())
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, StateReady, l.State())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}

	again, err := l.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.EqualValues(t, 1, calls.Load())
}

func TestEnsureLoadedFailureReachesAllWaitersThenRetries(t *testing.T) {
	var healthy atomic.Bool
	release := make(chan struct{})
	boom := errors.New("native library missing")

	l := NewLoader(func(ctx context.Context) (Backend, error) {
		if !healthy.Load() {
			<-release
			return nil, boom
		}
		return &stubBackend{id: 2}, nil
	})

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.EnsureLoaded(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateFailed, l.State())
	assert.ErrorIs(t, l.Err(), boom)

	healthy.Store(true)
	b, err := l.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, b.(*stubBackend).id)
	assert.Equal(t, StateReady, l.State())
	assert.NoError(t, l.Err())
}

func TestEnsureLoadedRecoversInitPanic(t *testing.T) {
	l := NewLoader(func(ctx context.Context) (Backend, error) {
		panic("cgo exploded")
	})

	_, err := l.EnsureLoaded(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cgo exploded")
	assert.Equal(t, StateFailed, l.State())
}

func TestEnsureLoadedNilBackendIsAnError(t *testing.T) {
	l := NewLoader(func(ctx context.Context) (Backend, error) { return nil, nil })

	_, err := l.EnsureLoaded(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, l.State())
}

func TestEnsureLoadedCallerCancellationDoesNotAbortFlight(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(func(ctx context.Context) (Backend, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &stubBackend{id: 3}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.EnsureLoaded(ctx)
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	b, err := l.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, b.(*stubBackend).id)
}
