package catalog

import (
	"context"
	"sync"
)

// Lifetime scopes a view's loads. Closing it cancels loads still in flight
// and makes Apply drop results that arrive afterwards.
type Lifetime struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func NewLifetime(parent context.Context) *Lifetime {
	ctx, cancel := context.WithCancel(parent)
	return &Lifetime{ctx: ctx, cancel: cancel}
}

func (l *Lifetime) Context() context.Context {
	return l.ctx
}

// Apply runs fn unless the lifetime is closed, and reports whether it ran.
// Close waits for a running fn to return.
func (l *Lifetime) Apply(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	fn()
	return true
}

func (l *Lifetime) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cancel()
}

func (l *Lifetime) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Bind loads within l and hands the result to apply if l is still open.
func Bind[T any](l *Lifetime, load func(ctx context.Context) T, apply func(T)) bool {
	v := load(l.Context())
	return l.Apply(func() { apply(v) })
}
