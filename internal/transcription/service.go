package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/services"
)

// Service serializes access to a shared Recognizer.
type Service struct {
	recognizer Recognizer
	sem        *semaphore.Weighted
	timeout    time.Duration
	logger     *slog.Logger
}

// NewService wraps recognizer. maxConcurrent below one is treated as one.
func NewService(recognizer Recognizer, maxConcurrent int, timeout time.Duration, logger *slog.Logger) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		recognizer: recognizer,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		timeout:    timeout,
		logger:     logging.NewComponentLogger(logger, "transcriber"),
	}
}

// Backend returns the recognizer name for logs and status output.
func (s *Service) Backend() string {
	if s == nil || s.recognizer == nil {
		return ""
	}
	return s.recognizer.Name()
}

// Transcribe recognizes audioPath. The file must exist.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	if s == nil || s.recognizer == nil {
		return Transcript{}, services.Wrap(services.ErrConfiguration, "transcribe", "init", "No recognizer configured", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Transcript{}, services.Wrap(services.ErrNotFound, "transcribe", "stat", fmt.Sprintf("Audio %q does not exist", audioPath), nil)
		}
		return Transcript{}, services.Wrap(services.ErrNotFound, "transcribe", "stat", fmt.Sprintf("Audio %q is not readable", audioPath), err)
	}

	logger := logging.WithContext(ctx, s.logger)
	waitStart := time.Now()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Transcript{}, services.Wrap(services.ErrTranscription, "transcribe", "wait", "Cancelled while waiting for the recognizer", err)
	}
	defer s.sem.Release(1)
	if waited := time.Since(waitStart); waited > time.Second {
		logger.Info("recognizer slot acquired", logging.Duration("waited", waited))
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.recognizer.Recognize(runCtx, audioPath)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: recognizer exceeded %s: %w", services.ErrTimeout, s.timeout, err)
		}
		return Transcript{}, services.Wrap(services.ErrTranscription, "transcribe", s.recognizer.Name(), "Recognizer failed", err)
	}

	result.Language = normalizeLanguage(result.Language)
	for i := range result.Segments {
		result.Segments[i].Text = strings.TrimSpace(result.Segments[i].Text)
	}

	logger.Info("transcription complete",
		logging.String("backend", s.recognizer.Name()),
		logging.String("language", result.Language),
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// normalizeLanguage falls back to DefaultLanguage only when the recognizer
// reported nothing.
func normalizeLanguage(value string) string {
	if code := language.Normalize(value); code != "" {
		return code
	}
	return DefaultLanguage
}
