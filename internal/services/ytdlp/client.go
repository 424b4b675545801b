// Package ytdlp downloads remote videos by running the yt-dlp executable.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subtitler/internal/acquire"
)

// DefaultBinary is used when no binary is configured.
const DefaultBinary = "yt-dlp"

// mergeFormat is the container every download is merged into.
const mergeFormat = "mp4"

// Runner executes a command and returns its stdout. Failures should carry the
// tool's stderr.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client implements acquire.Fetcher on top of yt-dlp.
type Client struct {
	binary string
	runner Runner
}

// New constructs a Client for the given binary.
func New(binary string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{binary: binary, runner: runCommand}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(runner Runner) {
	if runner != nil {
		c.runner = runner
	}
}

// FetchError reports a failed yt-dlp invocation along with its stderr.
type FetchError struct {
	Format string
	Output string
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("yt-dlp (format %s): %v", e.Format, e.Err)
	if out := lastLine(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Diagnostic returns the captured yt-dlp output.
func (e *FetchError) Diagnostic() string { return e.Output }

// Fetch downloads req.URL with req.Format and returns the merged file path
// reported by yt-dlp after post-processing.
func (c *Client) Fetch(ctx context.Context, req acquire.FetchRequest) (string, error) {
	if strings.TrimSpace(req.OutputBase) == "" {
		return "", errors.New("yt-dlp: output base required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputBase), 0o755); err != nil {
		return "", fmt.Errorf("yt-dlp: ensure output dir: %w", err)
	}

	stdout, err := c.runner(ctx, c.binary, BuildArgs(req)...)
	if err != nil {
		var exitOutput string
		var toolErr *commandError
		if errors.As(err, &toolErr) {
			exitOutput = toolErr.stderr
		}
		return "", &FetchError{Format: req.Format, Output: exitOutput, Err: err}
	}

	if path := lastLine(string(stdout)); path != "" {
		return path, nil
	}
	fallback := req.OutputBase + "." + mergeFormat
	if _, statErr := os.Stat(fallback); statErr == nil {
		return fallback, nil
	}
	return "", &FetchError{Format: req.Format, Output: string(stdout), Err: errors.New("no output file reported")}
}

// BuildArgs returns the yt-dlp arguments for a single download attempt.
func BuildArgs(req acquire.FetchRequest) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"-f", req.Format,
		"--merge-output-format", mergeFormat,
		"-o", req.OutputBase + ".%(ext)s",
		"--print", "after_move:filepath",
		req.URL,
	}
}

type commandError struct {
	name   string
	err    error
	stderr string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s: %v", e.name, e.err)
}

func (e *commandError) Unwrap() error { return e.err }

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &commandError{name: name, err: err, stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
