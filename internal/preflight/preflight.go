package preflight

import (
	"context"

	"subtitler/internal/config"
)

// MinFreeBytes is the free space the work directory needs for a typical
// download plus its extracted audio.
const MinFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes),
	}

	if cfg.Transcription.Backend == config.TranscriptionOpenAI {
		results = append(results, CheckOpenAI(ctx, "OpenAI transcription", cfg.Transcription.OpenAIAPIKey, cfg.Transcription.OpenAIBaseURL))
	}
	// The translation check is skipped when it would hit the same endpoint
	// with the same key as the transcription check.
	if cfg.Translation.Backend == config.TranslationOpenAI && !sameOpenAIEndpoint(cfg) {
		results = append(results, CheckOpenAI(ctx, "OpenAI translation", cfg.Translation.OpenAIAPIKey, cfg.Translation.OpenAIBaseURL))
	}
	return results
}

func sameOpenAIEndpoint(cfg *config.Config) bool {
	return cfg.Transcription.Backend == config.TranscriptionOpenAI &&
		cfg.Transcription.OpenAIAPIKey == cfg.Translation.OpenAIAPIKey &&
		cfg.Transcription.OpenAIBaseURL == cfg.Translation.OpenAIBaseURL
}
