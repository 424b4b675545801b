package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtitler/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TOKEN", "bot-token")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Telegram.Token != "bot-token" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	wantWork := filepath.Join(tempHome, ".local", "share", "subtitler", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if !filepath.IsAbs(cfg.Paths.DownloadDir) || filepath.Base(cfg.Paths.DownloadDir) != "downloads" {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if len(cfg.Pipeline.Targets) != 3 {
		t.Fatalf("expected three default targets, got %d", len(cfg.Pipeline.Targets))
	}
	wantLangs := []string{"en", "ur", "tr"}
	for i, target := range cfg.Pipeline.Targets {
		if target.Language != wantLangs[i] {
			t.Fatalf("target %d language = %q, want %q", i, target.Language, wantLangs[i])
		}
		if target.FileName != "subtitles_"+wantLangs[i]+".srt" {
			t.Fatalf("target %d file = %q", i, target.FileName)
		}
	}
	if cfg.Transcription.Backend != config.TranscriptionWhisperX {
		t.Fatalf("unexpected transcription backend %q", cfg.Transcription.Backend)
	}
	if cfg.Translation.Backend != config.TranslationGoogle {
		t.Fatalf("unexpected translation backend %q", cfg.Translation.Backend)
	}
	if cfg.Transcription.MaxConcurrent != 1 {
		t.Fatalf("expected single recognizer slot, got %d", cfg.Transcription.MaxConcurrent)
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Fatalf("RequireTelegram: %v", err)
	}
}

func TestRequireTelegramWithoutToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestLoadCustomTargetsAndBackends(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "subtitler.toml")
	content := `
[paths]
work_dir = "` + filepath.ToSlash(filepath.Join(dir, "work")) + `"

[[pipeline.targets]]
language = "Spanish"

[[pipeline.targets]]
language = "fra"
file_name = "french.srt"

[transcription]
backend = "OpenAI"

[translation]
backend = "openai"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s, got %s (exists=%v)", path, resolved, exists)
	}
	if got := cfg.Pipeline.Targets[0]; got.Language != "es" || got.FileName != "subtitles_es.srt" {
		t.Fatalf("unexpected first target %+v", got)
	}
	if got := cfg.Pipeline.Targets[1]; got.Language != "fr" || got.FileName != "french.srt" {
		t.Fatalf("unexpected second target %+v", got)
	}
	if cfg.Transcription.Backend != config.TranscriptionOpenAI {
		t.Fatalf("expected lowercased backend, got %q", cfg.Transcription.Backend)
	}
	if cfg.Transcription.OpenAIAPIKey != "sk-test" || cfg.Translation.OpenAIAPIKey != "sk-test" {
		t.Fatal("expected OPENAI_API_KEY fallback for both backends")
	}
	if cfg.Paths.WorkDir != filepath.Join(dir, "work") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"duplicate language", func(c *config.Config) {
			c.Pipeline.Targets = append(c.Pipeline.Targets, config.Target{Language: "en", FileName: "other.srt"})
		}, "duplicate language"},
		{"path in file name", func(c *config.Config) {
			c.Pipeline.Targets[0].FileName = "../escape.srt"
		}, "plain file name"},
		{"unknown transcription backend", func(c *config.Config) {
			c.Transcription.Backend = "vosk"
		}, "transcription.backend"},
		{"openai translation without key", func(c *config.Config) {
			c.Translation.Backend = config.TranslationOpenAI
			c.Translation.OpenAIAPIKey = ""
		}, "translation.openai_api_key"},
		{"log format", func(c *config.Config) {
			c.Logging.Format = "xml"
		}, "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if len(cfg.Pipeline.Targets) != 3 || cfg.Pipeline.Targets[1].Language != "ur" {
		t.Fatalf("unexpected sample targets %+v", cfg.Pipeline.Targets)
	}
	if cfg.Status.Bind != "127.0.0.1:9464" {
		t.Fatalf("unexpected status bind %q", cfg.Status.Bind)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.WorkDir, cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if filepath.Dir(cfg.HistoryPath()) != cfg.Paths.StateDir {
		t.Fatalf("history db should live in state dir, got %s", cfg.HistoryPath())
	}
}
