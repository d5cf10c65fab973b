package backendtest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondFieldErrors writes a DRF serializer error body: {"field": ["msg"]}.
func respondFieldErrors(w http.ResponseWriter, errs map[string]string) {
	body := make(map[string][]string, len(errs))
	for field, msg := range errs {
		body[field] = []string{msg}
	}
	respondJSON(w, http.StatusBadRequest, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func required(errs map[string]string, field, value string) {
	if value == "" {
		errs[field] = "This field is required."
	}
}
