// Package tokens persists the access/refresh token pair outside of the
// session state, the way a browser keeps it in local storage.
package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// Fixed storage keys.
const (
	AccessKey  = "access_token"
	RefreshKey = "refresh_token"
)

var ErrNotFound = errors.New("token not found")

// Store is a durable string key/value store. Implementations are safe for
// concurrent use but do not coordinate writers; the API client serializes
// refreshes on top of it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// LoadPair reads both tokens. Missing tokens are returned as empty strings.
func LoadPair(ctx context.Context, s Store) (domain.TokenPair, error) {
	var pair domain.TokenPair
	access, err := s.Get(ctx, AccessKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return pair, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := s.Get(ctx, RefreshKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return pair, fmt.Errorf("load refresh token: %w", err)
	}
	pair.Access = access
	pair.Refresh = refresh
	return pair, nil
}

// SavePair stores both tokens; an empty refresh token leaves the stored one as is.
func SavePair(ctx context.Context, s Store, pair domain.TokenPair) error {
	if err := s.Set(ctx, AccessKey, pair.Access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if pair.Refresh == "" {
		return nil
	}
	if err := s.Set(ctx, RefreshKey, pair.Refresh); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func ClearPair(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, AccessKey, RefreshKey); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// HasAccess reports whether an access token is stored.
func HasAccess(ctx context.Context, s Store) bool {
	v, err := s.Get(ctx, AccessKey)
	return err == nil && v != ""
}
