package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtitler/internal/config"
	"subtitler/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1-byte minimum, got: %s", result.Detail)
	}
	result := CheckFreeSpace("space", dir, ^uint64(0))
	if result.Passed {
		t.Fatal("expected failure for impossible minimum")
	}
	if !strings.Contains(result.Detail, "need") {
		t.Fatalf("detail = %q", result.Detail)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		1 << 30: "1.0 GiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"whisper-1","object":"model"}]}`))
	}))
	defer srv.Close()

	if result := CheckOpenAI(context.Background(), "openai", "good-key", srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckOpenAI(context.Background(), "openai", "bad-key", srv.URL); result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result := CheckOpenAI(context.Background(), "openai", "", srv.URL); result.Passed || result.Detail != "API key missing" {
		t.Fatalf("missing key result = %+v", result)
	}
}

func TestRunAllSkipsUnconfiguredBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(context.Background(), cfg)
	for _, r := range results {
		if strings.HasPrefix(r.Name, "OpenAI") {
			t.Fatalf("unexpected OpenAI check with default backends: %+v", r)
		}
		if strings.HasSuffix(r.Name, "directory") && !r.Passed {
			t.Fatalf("%s failed: %s", r.Name, r.Detail)
		}
	}
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
}

func TestRunAllDeduplicatesOpenAI(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Backend = config.TranscriptionOpenAI
	cfg.Translation.Backend = config.TranslationOpenAI
	cfg.Transcription.OpenAIAPIKey = ""
	cfg.Translation.OpenAIAPIKey = ""

	var openaiChecks int
	for _, r := range RunAll(context.Background(), cfg) {
		if strings.HasPrefix(r.Name, "OpenAI") {
			openaiChecks++
		}
	}
	if openaiChecks != 1 {
		t.Fatalf("openai checks = %d, want 1 when endpoints match", openaiChecks)
	}
}

func TestFailed(t *testing.T) {
	got := Failed([]Result{{Name: "a", Passed: true}, {Name: "b"}})
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("Failed = %+v", got)
	}
}
