package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"subtitler/internal/logging"
	"subtitler/internal/metrics"
	"subtitler/internal/services"
)

// Kind describes where a media file came from.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindVoice    Kind = "voice"
	KindDocument Kind = "document"
	KindYouTube  Kind = "youtube"
)

// MediaReference is a resolved local media file. It is consumed once by the
// audio normalizer.
type MediaReference struct {
	Path string
	Kind Kind
}

// FetchRequest asks a Fetcher to download URL using the given format
// selector. OutputBase is the destination path without extension; the fetcher
// reports the final file it produced.
type FetchRequest struct {
	URL        string
	Format     string
	OutputBase string
}

// Fetcher downloads remote media to local storage.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (string, error)
}

// UnconstrainedFormat is the best-available selector used for the retry.
const UnconstrainedFormat = "bestvideo+bestaudio/best"

// ConstrainedFormat returns a selector limited to the given frame height.
func ConstrainedFormat(height int) string {
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
}

// Acquirer produces MediaReferences for pipeline runs.
type Acquirer struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs an Acquirer. A zero timeout leaves each fetch attempt bounded
// only by the caller's context.
func New(fetcher Fetcher, timeout time.Duration, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "acquire"),
	}
}

// AcquireRemote downloads rawURL at or below the requested height. On any
// failure of the constrained attempt it retries once with UnconstrainedFormat;
// a second failure is returned as ErrAcquisition wrapping the cause.
func (a *Acquirer) AcquireRemote(ctx context.Context, rawURL string, height int, outputBase string) (MediaReference, error) {
	if a == nil || a.fetcher == nil {
		return MediaReference{}, services.Wrap(services.ErrConfiguration, "acquire", "fetch", "No fetcher configured", nil)
	}
	url, err := ValidateURL(rawURL)
	if err != nil {
		return MediaReference{}, err
	}
	if height <= 0 {
		return MediaReference{}, services.Wrap(services.ErrValidation, "acquire", "fetch", fmt.Sprintf("Invalid resolution %d", height), nil)
	}

	logger := logging.WithContext(ctx, a.logger)
	constrained := ConstrainedFormat(height)
	path, firstErr := a.attempt(ctx, FetchRequest{URL: url, Format: constrained, OutputBase: outputBase})
	if firstErr == nil {
		logger.Info("remote media acquired", logging.String("format", constrained), logging.String("path", path))
		return MediaReference{Path: path, Kind: KindYouTube}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return MediaReference{}, services.Wrap(services.ErrAcquisition, "acquire", "fetch", "Cancelled before fallback", errors.Join(firstErr, ctxErr))
	}

	metrics.AcquisitionFallbacks.Inc()
	logging.WarnWithContext(logger, "constrained format failed; retrying with best available", "acquire_fallback",
		logging.Int("height", height),
		logging.Error(firstErr),
		logging.String(logging.FieldErrorHint, "the video may not offer a stream at or below the requested height"),
	)
	path, err = a.attempt(ctx, FetchRequest{URL: url, Format: UnconstrainedFormat, OutputBase: outputBase})
	if err != nil {
		return MediaReference{}, services.Wrap(services.ErrAcquisition, "acquire", "fetch", "Remote fetch failed after fallback", err)
	}
	logger.Info("remote media acquired", logging.String("format", UnconstrainedFormat), logging.String("path", path), logging.Bool("fallback", true))
	return MediaReference{Path: path, Kind: KindYouTube}, nil
}

func (a *Acquirer) attempt(ctx context.Context, req FetchRequest) (string, error) {
	fetchCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	path, err := a.fetcher.Fetch(fetchCtx, req)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: fetch exceeded %s: %w", services.ErrTimeout, a.timeout, err)
		}
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("fetched file %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("fetched path %q is a directory", path)
	}
	return path, nil
}

// Local validates that path names an existing regular file.
func (a *Acquirer) Local(path string, kind Kind) (MediaReference, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MediaReference{}, services.Wrap(services.ErrNotFound, "acquire", "stat", fmt.Sprintf("File %q does not exist", path), nil)
		}
		return MediaReference{}, services.Wrap(services.ErrNotFound, "acquire", "stat", fmt.Sprintf("File %q is not readable", path), err)
	}
	if info.IsDir() {
		return MediaReference{}, services.Wrap(services.ErrValidation, "acquire", "stat", fmt.Sprintf("%q is a directory", path), nil)
	}
	return MediaReference{Path: path, Kind: kind}, nil
}
