package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subtitler/internal/transcription"
)

// Service provides WhisperX transcription through uvx.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.UVXBinary) == "" {
		cfg.UVXBinary = UVXCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Name identifies the backend in logs.
func (s *Service) Name() string { return "whisperx" }

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Recognize transcribes audioPath and lets WhisperX detect the language.
func (s *Service) Recognize(ctx context.Context, audioPath string) (transcription.Transcript, error) {
	if audioPath == "" {
		return transcription.Transcript{}, fmt.Errorf("whisperx: source path required")
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisperx-")
	if err != nil {
		return transcription.Transcript{}, fmt.Errorf("whisperx: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, s.cfg.UVXBinary, s.buildArgs(audioPath, outputDir)...); err != nil {
		return transcription.Transcript{}, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	payload, err := LoadResult(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return transcription.Transcript{}, err
	}
	return payload.Transcript(), nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", VADMethodSilero,
	)

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the JSON document WhisperX writes per input file.
type Result struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Transcript converts the WhisperX result into the pipeline's transcript type.
func (r Result) Transcript() transcription.Transcript {
	out := transcription.Transcript{
		Language: r.Language,
		Segments: make([]transcription.Segment, 0, len(r.Segments)),
	}
	for _, seg := range r.Segments {
		out.Segments = append(out.Segments, transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return out
}

// LoadResult loads a WhisperX JSON file.
func LoadResult(jsonPath string) (Result, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read whisperx json: %w", err)
	}
	var payload Result
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload, nil
}
