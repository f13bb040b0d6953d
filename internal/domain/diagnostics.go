package domain

import "time"

// DiagnosticStatus indicates whether a single startup check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// BackendMode names the persistence implementation chosen at startup.
type BackendMode string

const (
	BackendNative BackendMode = "native"
	BackendMemory BackendMode = "memory"
)

// DiagnosticItem is one data-directory or storage check.
type DiagnosticItem struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Status   DiagnosticStatus `json:"status"`
	Message  string           `json:"message"`
	Hint     string           `json:"hint,omitempty"`
	Required bool             `json:"required"`
}

// DiagnosticReport aggregates startup checks and the backend they selected.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Backend     BackendMode      `json:"backend"`
	Items       []DiagnosticItem `json:"items"`
}

// NativeUsable reports whether every required check passed.
func (r DiagnosticReport) NativeUsable() bool {
	for _, item := range r.Items {
		if item.Required && item.Status == DiagnosticStatusFail {
			return false
		}
	}
	return true
}
