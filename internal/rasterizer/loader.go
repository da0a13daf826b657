package rasterizer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a Loader.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InitFunc performs the expensive one-time backend initialization.
type InitFunc func(ctx context.Context) (Backend, error)

// Loader initializes a Backend at most once per flight and caches the handle.
// Concurrent callers share the in-flight initialization and observe the same
// handle or the same error. A failed attempt leaves the loader retryable.
type Loader struct {
	init  InitFunc
	group singleflight.Group

	mu      sync.RWMutex
	state   State
	backend Backend
	err     error
}

// NewLoader constructs a Loader around init.
func NewLoader(init InitFunc) *Loader {
	return &Loader{init: init}
}

// EnsureLoaded returns the cached backend or joins the initialization in
// flight. A caller whose ctx ends stops waiting; the flight continues.
func (l *Loader) EnsureLoaded(ctx context.Context) (Backend, error) {
	l.mu.RLock()
	if l.backend != nil {
		b := l.backend
		l.mu.RUnlock()
		return b, nil
	}
	l.mu.RUnlock()

	ch := l.group.DoChan("init", func() (any, error) {
		return l.run(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Backend), nil
	}
}

func (l *Loader) run(ctx context.Context) (b Backend, err error) {
	l.mu.Lock()
	if l.backend != nil {
		b = l.backend
		l.mu.Unlock()
		return b, nil
	}
	l.state = StateInitializing
	l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("rasterizer init panic: %v", r)
		}
		if err == nil && b == nil {
			err = fmt.Errorf("rasterizer init returned no backend")
		}

		l.mu.Lock()
		if err != nil {
			l.state = StateFailed
			l.err = err
		} else {
			l.state = StateReady
			l.backend = b
			l.err = nil
		}
		l.mu.Unlock()
	}()

	return l.init(ctx)
}

// State reports the current lifecycle state.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err returns the error from the most recent failed initialization.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}
