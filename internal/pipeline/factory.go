package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"subtitler/internal/acquire"
	"subtitler/internal/config"
	"subtitler/internal/history"
	"subtitler/internal/media/audio"
	"subtitler/internal/notifications"
	"subtitler/internal/services"
	"subtitler/internal/services/gtranslate"
	"subtitler/internal/services/openai"
	"subtitler/internal/services/whisperx"
	"subtitler/internal/services/ytdlp"
	"subtitler/internal/subtitles"
	"subtitler/internal/transcription"
	"subtitler/internal/translation"
)

// NewRecognizer builds the configured speech recognizer.
func NewRecognizer(cfg *config.Config) (transcription.Recognizer, error) {
	switch backend := strings.ToLower(strings.TrimSpace(cfg.Transcription.Backend)); backend {
	case config.TranscriptionWhisperX, "":
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDA,
			UVXBinary:   cfg.Tools.UVX,
		}), nil
	case config.TranscriptionOpenAI:
		rec, err := openai.NewTranscriber(openai.Config{
			APIKey:  cfg.Transcription.OpenAIAPIKey,
			BaseURL: cfg.Transcription.OpenAIBaseURL,
			Model:   cfg.Transcription.OpenAIModel,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "init", "OpenAI transcriber", err)
		}
		return rec, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "init", fmt.Sprintf("Unknown transcription backend %q", backend), nil)
	}
}

// NewTranslator builds the configured translator wrapped with the per-call
// timeout.
func NewTranslator(cfg *config.Config) (translation.Translator, error) {
	var inner translation.Translator
	switch backend := strings.ToLower(strings.TrimSpace(cfg.Translation.Backend)); backend {
	case config.TranslationGoogle, "":
		inner = gtranslate.New(cfg.Translation.GoogleBaseURL, &http.Client{})
	case config.TranslationOpenAI:
		tr, err := openai.NewTranslator(openai.Config{
			APIKey:  cfg.Translation.OpenAIAPIKey,
			BaseURL: cfg.Translation.OpenAIBaseURL,
			Model:   cfg.Translation.OpenAIModel,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "translate", "init", "OpenAI translator", err)
		}
		inner = tr
	case config.TranslationNone:
		inner = translation.Disabled{}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translate", "init", fmt.Sprintf("Unknown translation backend %q", backend), nil)
	}
	return translation.WithTimeout(inner, config.Timeout(cfg.Translation.TimeoutSeconds)), nil
}

// NewFetcher builds the remote media fetcher.
func NewFetcher(cfg *config.Config) acquire.Fetcher {
	return ytdlp.New(cfg.Tools.YTDLP)
}

// Options overrides backends when assembling a Service. Nil fields are built
// from configuration.
type Options struct {
	Recognizer transcription.Recognizer
	Translator translation.Translator
	Fetcher    acquire.Fetcher
	Runner     audio.Runner
	History    *history.Store
	Notifier   notifications.Service
}

// Build assembles a Service from configuration. The recognizer is constructed
// here once and shared by every run the Service executes.
func Build(cfg *config.Config, opts Options, logger *slog.Logger) (*Service, error) {
	rec := opts.Recognizer
	if rec == nil {
		var err error
		if rec, err = NewRecognizer(cfg); err != nil {
			return nil, err
		}
	}
	tr := opts.Translator
	if tr == nil {
		var err error
		if tr, err = NewTranslator(cfg); err != nil {
			return nil, err
		}
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(cfg)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	normalizer := audio.NewNormalizer(cfg.Tools.FFmpeg, cfg.Paths.WorkDir, config.Timeout(cfg.Pipeline.TranscodeTimeoutSeconds), logger)
	if opts.Runner != nil {
		normalizer.WithRunner(opts.Runner)
	}

	deps := Dependencies{
		Acquirer:    acquire.New(fetcher, config.Timeout(cfg.Pipeline.FetchTimeoutSeconds), logger),
		Normalizer:  normalizer,
		Transcriber: transcription.NewService(rec, cfg.Transcription.MaxConcurrent, config.Timeout(cfg.Pipeline.TranscribeTimeoutSeconds), logger),
		Renderer:    subtitles.NewRenderer(tr, logger),
		History:     opts.History,
		Notifier:    notifier,
	}
	return NewService(cfg, deps, logger), nil
}
