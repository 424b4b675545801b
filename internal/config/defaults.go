package config

const (
	defaultConfigPath               = "~/.config/subtitler/config.toml"
	defaultInputDir                 = "."
	defaultDownloadDir              = "downloads"
	defaultWorkDir                  = "~/.local/share/subtitler/work"
	defaultOutputDir                = "~/.local/share/subtitler/subtitles"
	defaultStateDir                 = "~/.local/share/subtitler"
	defaultLogDir                   = "~/.local/share/subtitler/logs"
	defaultPollTimeoutSeconds       = 60
	defaultFetchTimeoutSeconds      = 1800
	defaultTranscodeTimeoutSeconds  = 900
	defaultTranscribeTimeoutSeconds = 3600
	defaultDownloadTimeoutSeconds   = 600
	defaultDeliveryTimeoutSeconds   = 120
	defaultResolution               = "360p"
	defaultMaxUploadBytes           = 20 << 20
	defaultFFmpegBinary             = "ffmpeg"
	defaultYTDLPBinary              = "yt-dlp"
	defaultUVXBinary                = "uvx"
	defaultTranscriptionBackend     = "whisperx"
	defaultWhisperXModel            = "tiny"
	defaultOpenAITranscriptionModel = "whisper-1"
	defaultTranslationBackend       = "google"
	defaultTranslationTimeout       = 15
	defaultGoogleTranslateBaseURL   = "https://translate.googleapis.com/translate_a/single"
	defaultOpenAITranslationModel   = "gpt-4o-mini"
	defaultNotifyRequestTimeout     = 10
	defaultStatusBind               = "127.0.0.1:9464"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Backend names accepted by the transcription and translation sections.
const (
	TranscriptionWhisperX = "whisperx"
	TranscriptionOpenAI   = "openai"
	TranslationGoogle     = "google"
	TranslationOpenAI     = "openai"
	TranslationNone       = "none"
)

// DefaultTargets returns the English, Urdu, and Turkish tracks produced when no
// targets are configured.
func DefaultTargets() []Target {
	return []Target{
		{Language: "en", FileName: "subtitles_en.srt"},
		{Language: "ur", FileName: "subtitles_ur.srt"},
		{Language: "tr", FileName: "subtitles_tr.srt"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			PollTimeoutSeconds: defaultPollTimeoutSeconds,
		},
		Paths: Paths{
			InputDir:    defaultInputDir,
			DownloadDir: defaultDownloadDir,
			WorkDir:     defaultWorkDir,
			OutputDir:   defaultOutputDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Pipeline: Pipeline{
			Targets:                  DefaultTargets(),
			FetchTimeoutSeconds:      defaultFetchTimeoutSeconds,
			TranscodeTimeoutSeconds:  defaultTranscodeTimeoutSeconds,
			TranscribeTimeoutSeconds: defaultTranscribeTimeoutSeconds,
			DownloadTimeoutSeconds:   defaultDownloadTimeoutSeconds,
			DeliveryTimeoutSeconds:   defaultDeliveryTimeoutSeconds,
			DefaultResolution:        defaultResolution,
			MaxUploadBytes:           defaultMaxUploadBytes,
		},
		Tools: Tools{
			FFmpeg: defaultFFmpegBinary,
			YTDLP:  defaultYTDLPBinary,
			UVX:    defaultUVXBinary,
		},
		Transcription: Transcription{
			Backend:       defaultTranscriptionBackend,
			MaxConcurrent: 1,
			WhisperXModel: defaultWhisperXModel,
			OpenAIModel:   defaultOpenAITranscriptionModel,
		},
		Translation: Translation{
			Backend:        defaultTranslationBackend,
			TimeoutSeconds: defaultTranslationTimeout,
			GoogleBaseURL:  defaultGoogleTranslateBaseURL,
			OpenAIModel:    defaultOpenAITranslationModel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunFailed:      true,
		},
		Status: Status{
			Enabled: true,
			Bind:    defaultStatusBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
