package pipeline

import (
	"context"
	"strings"

	"subtitler/internal/acquire"
	"subtitler/internal/history"
	"subtitler/internal/subtitles"
)

// Job describes one pipeline run. Remote jobs (Kind youtube) carry URL and
// Resolution; every other kind carries a local Path.
type Job struct {
	SessionID  int64
	Kind       acquire.Kind
	Path       string
	URL        string
	Resolution int
}

// Remote reports whether the job must be fetched before processing.
func (j Job) Remote() bool {
	return j.Kind == acquire.KindYouTube
}

// Source returns the user-facing description of the job input.
func (j Job) Source() string {
	if j.Remote() {
		return strings.TrimSpace(j.URL)
	}
	return strings.TrimSpace(j.Path)
}

// Sink receives progress text and finished subtitle files for a run.
type Sink interface {
	Progress(ctx context.Context, text string) error
	Deliver(ctx context.Context, path, caption string) error
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Language  string
	Segments  int
	Delivered []subtitles.TrackFile
	Failures  []subtitles.TrackFailure
	Status    history.Status
}

// Partial reports whether some but not all tracks reached the user.
func (r Result) Partial() bool {
	return len(r.Delivered) > 0 && len(r.Failures) > 0
}
