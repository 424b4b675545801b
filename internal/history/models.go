package history

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// InterruptedReason is recorded for runs that were still running when the
// process stopped.
const InterruptedReason = "interrupted by restart"

var allStatuses = []Status{StatusRunning, StatusCompleted, StatusPartial, StatusFailed}

// AllStatuses returns every known status in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Run is one pipeline execution as stored in the database.
type Run struct {
	ID             int64
	RunID          string
	SessionID      int64
	InputKind      string
	Source         string
	Resolution     int
	SourceLanguage string
	Status         Status
	ErrorKind      string
	ErrorMessage   string
	Diagnostic     string
	Tracks         []string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration reports the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the terminal information recorded by Finish.
type Outcome struct {
	Status         Status
	SourceLanguage string
	Tracks         []string
	ErrorKind      string
	ErrorMessage   string
	Diagnostic     string
}
