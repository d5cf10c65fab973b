package api

import "sync"

// LoginPath is where the client is sent after an unrecoverable auth failure.
const LoginPath = "/login"

// Navigator performs full view transitions (login redirect, order detail).
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Location is a Navigator that remembers the current view.
type Location struct {
	mu      sync.RWMutex
	path    string
	history []string
}

func NewLocation(start string) *Location {
	return &Location{path: start}
}

func (l *Location) Navigate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, path)
	l.path = path
}

func (l *Location) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// History returns every path navigated to, oldest first.
func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.history))
	copy(out, l.history)
	return out
}
