package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// DecodeList unwraps a list response that is either a bare JSON array or a
// paginated {"results": [...], "count": n} envelope. Anything else, null
// included, yields an empty list.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []T{}, nil
	}
	switch raw[0] {
	case '[':
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	case '{':
		var env struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode list envelope: %w", err)
		}
		if len(env.Results) == 0 || env.Results[0] != '[' {
			return []T{}, nil
		}
		var out []T
		if err := json.Unmarshal(env.Results, &out); err != nil {
			return nil, fmt.Errorf("decode list results: %w", err)
		}
		return out, nil
	}
	return []T{}, nil
}

// DecodePage reads a paginated envelope. A bare array is accepted as a
// single page holding every result.
func DecodePage[T any](raw json.RawMessage) (*domain.Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		items, err := DecodeList[T](raw)
		if err != nil {
			return nil, err
		}
		return &domain.Page[T]{Count: len(items), Results: items}, nil
	}
	page := &domain.Page[T]{}
	if len(raw) == 0 {
		page.Results = []T{}
		return page, nil
	}
	if err := json.Unmarshal(raw, page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}

func getList[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[T](raw)
}

func getPage[T any](ctx context.Context, c *Client, endpoint string) (*domain.Page[T], error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return DecodePage[T](raw)
}
