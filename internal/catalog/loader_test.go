package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// slowCategories holds every Categories call until release is closed.
type slowCategories struct {
	Backend
	calls   atomic.Int32
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func newSlowCategories() *slowCategories {
	return &slowCategories{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *slowCategories) Categories(ctx context.Context) ([]domain.Category, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return []domain.Category{{ID: 1, Name: "Smartphones", Slug: "smartphones"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type categoriesResult struct {
	data []domain.Category
	err  error
}

func loadCategories(l *Loader, lt *Lifetime) <-chan categoriesResult {
	out := make(chan categoriesResult, 1)
	go func() {
		data, err := l.Categories(lt.Context())
		out <- categoriesResult{data, err}
	}()
	return out
}

func TestLoader_ClosingOneViewLeavesSharedLoadRunning(t *testing.T) {
	backend := newSlowCategories()
	loader := NewLoader(backend, NewMemoryCache(16, time.Minute), nil)

	viewA := NewLifetime(context.Background())
	viewB := NewLifetime(context.Background())
	defer viewB.Close()

	resA := loadCategories(loader, viewA)
	<-backend.started
	resB := loadCategories(loader, viewB)
	time.Sleep(20 * time.Millisecond) // let view B join the in-flight load

	viewA.Close()
	a := <-resA
	assert.ErrorIs(t, a.err, context.Canceled)

	close(backend.release)
	b := <-resB
	require.NoError(t, b.err)
	require.Len(t, b.data, 1)
	assert.Equal(t, "Smartphones", b.data[0].Name)
	assert.EqualValues(t, 1, backend.calls.Load())

	// The detached load still filled the cache.
	again, err := loader.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 1)
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestLoader_CancelledContextReturnsImmediately(t *testing.T) {
	backend := newSlowCategories()
	loader := NewLoader(backend, NewMemoryCache(16, time.Minute), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loader.Categories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, backend.calls.Load())
}

func TestLoader_SharedLoadGivesEachCallerItsOwnCopy(t *testing.T) {
	backend := newSlowCategories()
	loader := NewLoader(backend, NewMemoryCache(16, time.Minute), nil)

	viewA := NewLifetime(context.Background())
	viewB := NewLifetime(context.Background())
	defer viewA.Close()
	defer viewB.Close()

	resA := loadCategories(loader, viewA)
	<-backend.started
	resB := loadCategories(loader, viewB)
	time.Sleep(20 * time.Millisecond)
	close(backend.release)

	a, b := <-resA, <-resB
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.EqualValues(t, 1, backend.calls.Load())

	a.data[0].Name = "Renamed"
	assert.Equal(t, "Smartphones", b.data[0].Name)

	hit, err := loader.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Smartphones", hit[0].Name)
}
