package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by a
	// token refresh. Tokens have been purged and the navigator sent to login.
	ErrSessionExpired = errors.New("session expired, please log in again")

	errNoRefreshToken = errors.New("no refresh token stored")
)

// HTTPError is a non-2xx response. Payload is the decoded JSON body, or
// {"error": <status text>} when the body was not JSON.
type HTTPError struct {
	Method     string
	Endpoint   string
	Status     int
	StatusText string
	Payload    map[string]any
	Raw        []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.Status, e.Message())
}

// Message picks the most human-readable text from the payload.
func (e *HTTPError) Message() string {
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := e.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	if msg := firstString(e.Payload["non_field_errors"]); msg != "" {
		return msg
	}
	fields := e.FieldErrors()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		return fmt.Sprintf("%s: %s", k, fields[k])
	}
	return e.StatusText
}

// FieldErrors flattens DRF validation errors ({"email": ["Email already registered."]})
// into one message per field.
func (e *HTTPError) FieldErrors() map[string]string {
	out := make(map[string]string)
	for k, v := range e.Payload {
		switch k {
		case "detail", "error", "message", "details":
			continue
		}
		if msg := joinStrings(v); msg != "" {
			out[k] = msg
		}
	}
	return out
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func joinStrings(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := joinStrings(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
