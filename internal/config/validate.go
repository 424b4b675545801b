package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. The Telegram token is checked
// separately by RequireTelegram so offline commands work without it.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireTelegram reports whether the chat transport can be started.
func (c *Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("telegram.token is required. Set TOKEN or TELEGRAM_BOT_TOKEN env var or edit %s (create with 'subtitler config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	seenLang := make(map[string]struct{}, len(c.Pipeline.Targets))
	seenFile := make(map[string]struct{}, len(c.Pipeline.Targets))
	for i, target := range c.Pipeline.Targets {
		if target.Language == "" {
			return fmt.Errorf("pipeline.targets[%d].language must be set", i)
		}
		if _, dup := seenLang[target.Language]; dup {
			return fmt.Errorf("pipeline.targets[%d]: duplicate language %q", i, target.Language)
		}
		seenLang[target.Language] = struct{}{}
		if !filepath.IsLocal(target.FileName) || filepath.Base(target.FileName) != target.FileName {
			return fmt.Errorf("pipeline.targets[%d].file_name %q must be a plain file name", i, target.FileName)
		}
		if _, dup := seenFile[target.FileName]; dup {
			return fmt.Errorf("pipeline.targets[%d]: duplicate file name %q", i, target.FileName)
		}
		seenFile[target.FileName] = struct{}{}
	}
	if c.Pipeline.MaxUploadBytes < 0 {
		return errors.New("pipeline.max_upload_bytes must be zero or positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case TranscriptionWhisperX:
		return nil
	case TranscriptionOpenAI:
		if c.Transcription.OpenAIAPIKey == "" {
			return errors.New("transcription.openai_api_key is required when transcription.backend is openai (or set OPENAI_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q (want whisperx or openai)", c.Transcription.Backend)
	}
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Backend {
	case TranslationGoogle, TranslationNone:
		return nil
	case TranslationOpenAI:
		if c.Translation.OpenAIAPIKey == "" {
			return errors.New("translation.openai_api_key is required when translation.backend is openai (or set OPENAI_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("translation.backend: unsupported value %q (want google, openai, or none)", c.Translation.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
