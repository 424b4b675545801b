package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"subtitler/internal/api"
	"subtitler/internal/testsupport"
)

func TestDepsReportsAvailability(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, []string{"deps", "--preflight=false"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "yt-dlp")
	if strings.Contains(out, "Work directory") {
		t.Fatal("preflight table should be skipped")
	}
}

func TestDepsFailsWhenRequiredMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.FFmpeg = "definitely-not-installed-ffmpeg"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"deps", "--json", "--preflight=false"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("deps error = %v, want missing", err)
	}
	var report depsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(report.Dependencies) == 0 || report.Dependencies[0].Available {
		t.Fatalf("ffmpeg should be unavailable: %+v", report.Dependencies)
	}
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestTestNotifySends(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = server.URL + "/subtitler"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 || !strings.Contains(bodies[0], "Notification system test") {
		t.Fatalf("ntfy bodies = %v", bodies)
	}
}

func TestStatusQueriesEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{
			Running:        true,
			PID:            4242,
			Bot:            "subs_bot",
			Backend:        "whisperx",
			ActiveSessions: 2,
			RunStats:       map[string]int{"completed": 3, "failed": 1},
		})
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	env.cfg.Status.Enabled = true
	env.cfg.Status.Bind = strings.TrimPrefix(server.URL, "http://")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running:  yes")
	requireContains(t, out, "@subs_bot")
	requireContains(t, out, "completed=3 failed=1")
}

func TestStatusDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Status.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	if _, _, err := runCLI(t, []string{"status"}, env.configPath); err == nil {
		t.Fatal("expected error when status endpoint disabled")
	}
}

func TestLogsShowsFilteredTail(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "INFO run_id=r1 started\nINFO run_id=r2 started\nINFO run_id=r1 finished\n"
	if err := os.WriteFile(env.cfg.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--run", "r1", "-n", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "r2") {
		t.Fatalf("filtered output contains other run:\n%s", out)
	}
	requireContains(t, out, "run_id=r1 finished")
}
