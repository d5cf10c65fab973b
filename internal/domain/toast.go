package domain

import "time"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// ToastLifetime is how long a toast stays queued unless dismissed earlier.
const ToastLifetime = 3500 * time.Millisecond

type Toast struct {
	ID       int64    `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
}
