package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Telegram contains chat transport settings.
type Telegram struct {
	Token              string `toml:"token"`
	PollTimeoutSeconds int    `toml:"poll_timeout_seconds"`
}

// Paths contains directory configuration.
type Paths struct {
	InputDir    string `toml:"input_dir"`
	DownloadDir string `toml:"download_dir"`
	WorkDir     string `toml:"work_dir"`
	OutputDir   string `toml:"output_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Target is one requested subtitle language and its output file name.
type Target struct {
	Language string `toml:"language"`
	FileName string `toml:"file_name"`
}

// Pipeline contains settings for a single pipeline run.
type Pipeline struct {
	Targets                  []Target `toml:"targets"`
	KeepArtifacts            bool     `toml:"keep_artifacts"`
	FetchTimeoutSeconds      int      `toml:"fetch_timeout_seconds"`
	TranscodeTimeoutSeconds  int      `toml:"transcode_timeout_seconds"`
	TranscribeTimeoutSeconds int      `toml:"transcribe_timeout_seconds"`
	DownloadTimeoutSeconds   int      `toml:"download_timeout_seconds"`
	DeliveryTimeoutSeconds   int      `toml:"delivery_timeout_seconds"`
	DefaultResolution        string   `toml:"default_resolution"`
	MaxUploadBytes           int64    `toml:"max_upload_bytes"`
}

// Tools names the external binaries the pipeline executes.
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	YTDLP  string `toml:"yt_dlp"`
	UVX    string `toml:"uvx"`
}

// Transcription selects and configures the speech recognizer.
type Transcription struct {
	Backend       string `toml:"backend"`
	MaxConcurrent int    `toml:"max_concurrent"`
	WhisperXModel string `toml:"whisperx_model"`
	WhisperXCUDA  bool   `toml:"whisperx_cuda_enabled"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	OpenAIModel   string `toml:"openai_model"`
}

// Translation selects and configures the machine translator.
type Translation struct {
	Backend        string `toml:"backend"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	GoogleBaseURL  string `toml:"google_base_url"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	OpenAIModel    string `toml:"openai_model"`
}

// Notifications contains configuration for ntfy operator notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	RunFailed      bool   `toml:"run_failed"`
}

// Status configures the HTTP health and metrics endpoint.
type Status struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subtitler.
//
// Configuration sections by subsystem:
//   - Telegram: bot token and long-poll timeout
//   - Paths: input, download, work, output, state, and log directories
//   - Pipeline: target languages, per-stage timeouts, artifact retention
//   - Tools: ffmpeg, yt-dlp, and uvx binaries
//   - Transcription: recognizer backend (whisperx or openai)
//   - Translation: translator backend (google, openai, or none)
//   - Notifications: ntfy push notification settings
//   - Status: health/metrics HTTP listener
//   - Logging: log format and level
type Config struct {
	Telegram      Telegram      `toml:"telegram"`
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Tools         Tools         `toml:"tools"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Notifications Notifications `toml:"notifications"`
	Status        Status        `toml:"status"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded into the environment first so credentials can live outside the TOML file.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	// godotenv.Load never overrides variables already present in the environment.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subtitler.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for bot operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database that records pipeline runs.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the single-instance lock file for the bot daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "subtitler.lock")
}

// Timeout converts a seconds setting to a duration; zero or negative disables the bound.
func Timeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
