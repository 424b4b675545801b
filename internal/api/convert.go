package api

import (
	"slices"
	"time"

	"subtitler/internal/deps"
	"subtitler/internal/history"
)

// FromRun converts a history record to its API representation.
func FromRun(run *history.Run) Run {
	if run == nil {
		return Run{}
	}
	dto := Run{
		RunID:          run.RunID,
		SessionID:      run.SessionID,
		InputKind:      run.InputKind,
		Source:         run.Source,
		Resolution:     run.Resolution,
		SourceLanguage: run.SourceLanguage,
		Status:         string(run.Status),
		ErrorKind:      run.ErrorKind,
		ErrorMessage:   run.ErrorMessage,
		Tracks:         slices.Clone(run.Tracks),
		StartedAt:      FormatTime(run.StartedAt),
		FinishedAt:     FormatTime(run.FinishedAt),
		DurationMillis: run.Duration().Milliseconds(),
	}
	return dto
}

// FromRuns converts a slice of history records into API DTOs. The result is
// never nil so JSON output renders an empty array.
func FromRuns(runs []*history.Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromRun(run))
	}
	return out
}

// FromRunStats converts per-status counts into a map keyed by status name.
// Every known status is present so consumers see zero counts explicitly.
func FromRunStats(stats map[history.Status]int) map[string]int {
	out := make(map[string]int, len(history.AllStatuses()))
	for _, status := range history.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromDependencies converts dependency checks into API DTOs.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FormatTime renders t in the API timestamp format, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
