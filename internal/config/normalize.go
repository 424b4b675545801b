package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subtitler/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeTelegram()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeTools()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Status.Bind = strings.TrimSpace(c.Status.Bind)
	if c.Status.Bind == "" {
		c.Status.Bind = defaultStatusBind
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		c.Telegram.Token = firstEnv("TELEGRAM_BOT_TOKEN", "TOKEN")
	}
	if c.Telegram.PollTimeoutSeconds <= 0 {
		c.Telegram.PollTimeoutSeconds = defaultPollTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.input_dir", &c.Paths.InputDir, defaultInputDir},
		{"paths.download_dir", &c.Paths.DownloadDir, defaultDownloadDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if len(c.Pipeline.Targets) == 0 {
		c.Pipeline.Targets = DefaultTargets()
	}
	for i := range c.Pipeline.Targets {
		target := &c.Pipeline.Targets[i]
		target.Language = language.ToISO2(target.Language)
		target.FileName = strings.TrimSpace(target.FileName)
		if target.FileName == "" && target.Language != "" {
			target.FileName = fmt.Sprintf("subtitles_%s.srt", target.Language)
		}
	}
	c.Pipeline.DefaultResolution = strings.TrimSpace(c.Pipeline.DefaultResolution)
	if c.Pipeline.DefaultResolution == "" {
		c.Pipeline.DefaultResolution = defaultResolution
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.YTDLP = strings.TrimSpace(c.Tools.YTDLP)
	if c.Tools.YTDLP == "" {
		c.Tools.YTDLP = defaultYTDLPBinary
	}
	c.Tools.UVX = strings.TrimSpace(c.Tools.UVX)
	if c.Tools.UVX == "" {
		c.Tools.UVX = defaultUVXBinary
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	if c.Transcription.MaxConcurrent <= 0 {
		c.Transcription.MaxConcurrent = 1
	}
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	c.Transcription.OpenAIAPIKey = strings.TrimSpace(c.Transcription.OpenAIAPIKey)
	if c.Transcription.OpenAIAPIKey == "" {
		c.Transcription.OpenAIAPIKey = firstEnv("OPENAI_API_KEY")
	}
	c.Transcription.OpenAIBaseURL = strings.TrimSpace(c.Transcription.OpenAIBaseURL)
	c.Transcription.OpenAIModel = strings.TrimSpace(c.Transcription.OpenAIModel)
	if c.Transcription.OpenAIModel == "" {
		c.Transcription.OpenAIModel = defaultOpenAITranscriptionModel
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Backend = strings.ToLower(strings.TrimSpace(c.Translation.Backend))
	if c.Translation.Backend == "" {
		c.Translation.Backend = defaultTranslationBackend
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
	c.Translation.GoogleBaseURL = strings.TrimSpace(c.Translation.GoogleBaseURL)
	if c.Translation.GoogleBaseURL == "" {
		c.Translation.GoogleBaseURL = defaultGoogleTranslateBaseURL
	}
	c.Translation.OpenAIAPIKey = strings.TrimSpace(c.Translation.OpenAIAPIKey)
	if c.Translation.OpenAIAPIKey == "" {
		c.Translation.OpenAIAPIKey = firstEnv("OPENAI_API_KEY")
	}
	c.Translation.OpenAIBaseURL = strings.TrimSpace(c.Translation.OpenAIBaseURL)
	c.Translation.OpenAIModel = strings.TrimSpace(c.Translation.OpenAIModel)
	if c.Translation.OpenAIModel == "" {
		c.Translation.OpenAIModel = defaultOpenAITranslationModel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "subtitler.log")
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
