package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"subtitler/internal/logging"
	"subtitler/internal/services"
)

// Canonical output layout.
const (
	SampleRate = 16000
	Channels   = 1
)

// DefaultFFmpeg is used when no binary is configured.
const DefaultFFmpeg = "ffmpeg"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Normalizer transcodes media into the work directory.
type Normalizer struct {
	ffmpeg  string
	workDir string
	timeout time.Duration
	runner  Runner
	logger  *slog.Logger
	now     func() time.Time
}

// NewNormalizer constructs a Normalizer. A zero timeout leaves ffmpeg bounded
// only by the caller's context.
func NewNormalizer(ffmpeg, workDir string, timeout time.Duration, logger *slog.Logger) *Normalizer {
	ffmpeg = strings.TrimSpace(ffmpeg)
	if ffmpeg == "" {
		ffmpeg = DefaultFFmpeg
	}
	return &Normalizer{
		ffmpeg:  ffmpeg,
		workDir: workDir,
		timeout: timeout,
		runner:  runCombined,
		logger:  logging.NewComponentLogger(logger, "normalizer"),
		now:     time.Now,
	}
}

// WithRunner sets a custom command runner (for testing).
func (n *Normalizer) WithRunner(runner Runner) {
	if runner != nil {
		n.runner = runner
	}
}

// TranscodeError reports a failed ffmpeg run. It matches services.ErrTranscode.
type TranscodeError struct {
	Input  string
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode %s: %v", filepath.Base(e.Input), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		lines := strings.Split(out, "\n")
		msg += ": " + strings.TrimSpace(lines[len(lines)-1])
	}
	return msg
}

func (e *TranscodeError) Unwrap() []error { return []error{services.ErrTranscode, e.Err} }

// Diagnostic returns the full transcoder output.
func (e *TranscodeError) Diagnostic() string { return e.Output }

// OutputName returns a collision-free file name for a normalized waveform.
func OutputName(now time.Time) string {
	return "audio_" + strconv.FormatInt(now.UnixNano(), 10) + "_" + uuid.NewString()[:8] + ".wav"
}

// BuildArgs returns the ffmpeg arguments that produce the canonical waveform.
func BuildArgs(input, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// Normalize transcodes input into a new WAV file and returns its path. A
// missing input fails with services.ErrNotFound before ffmpeg runs; on any
// failure no output file is left behind.
func (n *Normalizer) Normalize(ctx context.Context, input string) (string, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "normalize", "stat", fmt.Sprintf("Input %q does not exist", input), nil)
		}
		return "", services.Wrap(services.ErrNotFound, "normalize", "stat", fmt.Sprintf("Input %q is not readable", input), err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "normalize", "stat", fmt.Sprintf("Input %q is a directory", input), nil)
	}
	if err := os.MkdirAll(n.workDir, 0o755); err != nil {
		return "", fmt.Errorf("normalize: ensure work dir: %w", err)
	}

	dest := filepath.Join(n.workDir, OutputName(n.now()))
	runCtx := ctx
	if n.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, n.logger)
	start := time.Now()
	output, err := n.runner(runCtx, n.ffmpeg, BuildArgs(input, dest)...)
	if err != nil {
		_ = os.Remove(dest)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: ffmpeg exceeded %s: %w", services.ErrTimeout, n.timeout, err)
		}
		return "", &TranscodeError{Input: input, Output: string(output), Err: err}
	}

	probe, err := Probe(dest)
	if err != nil {
		_ = os.Remove(dest)
		return "", &TranscodeError{Input: input, Output: string(output), Err: err}
	}
	if probe.SampleRate != SampleRate || probe.Channels != Channels {
		_ = os.Remove(dest)
		return "", &TranscodeError{
			Input:  input,
			Output: string(output),
			Err:    fmt.Errorf("unexpected output layout %d Hz / %d ch", probe.SampleRate, probe.Channels),
		}
	}

	logger.Info("audio normalized",
		logging.String("input", filepath.Base(input)),
		logging.String("output", dest),
		logging.Duration("audio_duration", probe.Duration),
		logging.Duration("elapsed", time.Since(start)),
	)
	return dest, nil
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
