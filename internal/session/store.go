package session

import (
	"sync"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
)

// Store serializes actions over a Session and notifies subscribers with
// each new state. Toasts it shows expire on their own after
// domain.ToastLifetime.
type Store struct {
	mu          sync.Mutex
	state       Session
	subs        map[int]func(Session)
	nextSub     int
	clock       Clock
	timers      map[int64]Timer
	lastToastID int64
	closed      bool
}

type StoreOption func(*Store)

func WithClock(c Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		subs:   make(map[int]func(Session)),
		clock:  realClock{},
		timers: make(map[int64]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot. Callers must not modify it.
func (s *Store) State() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state := s.state
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn to run after every dispatch. The returned func
// removes it.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ShowToast queues a toast and schedules its removal. IDs are creation
// times in unix milliseconds, bumped when two toasts share a millisecond.
func (s *Store) ShowToast(message string, severity domain.Severity) int64 {
	s.mu.Lock()
	id := s.clock.Now().UnixMilli()
	if id <= s.lastToastID {
		id = s.lastToastID + 1
	}
	s.lastToastID = id
	s.mu.Unlock()

	s.Dispatch(AddToast{Toast: domain.Toast{ID: id, Message: message, Severity: severity}})
	metrics.ToastsShown.WithLabelValues(string(severity)).Inc()

	s.mu.Lock()
	if !s.closed {
		s.timers[id] = s.clock.AfterFunc(domain.ToastLifetime, func() { s.expire(id) })
	}
	s.mu.Unlock()
	return id
}

// DismissToast removes a toast before it expires.
func (s *Store) DismissToast(id int64) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.Dispatch(RemoveToast{ID: id})
}

func (s *Store) expire(id int64) {
	s.mu.Lock()
	_, pending := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()
	if pending {
		s.Dispatch(RemoveToast{ID: id})
	}
}

// Close stops pending toast timers. Toasts already queued stay queued.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
