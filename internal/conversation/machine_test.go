package conversation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subtitler/internal/acquire"
	"subtitler/internal/logging"
	"subtitler/internal/media/audio"
	"subtitler/internal/pipeline"
	"subtitler/internal/services"
)

const chat int64 = 42

func newTestMachine(t *testing.T, runner Runner) (*Machine, *fakeReplier, *fakeDownloader, Settings) {
	t.Helper()
	base := t.TempDir()
	settings := Settings{
		InputDir:       filepath.Join(base, "input"),
		DownloadDir:    filepath.Join(base, "downloads"),
		MaxUploadBytes: 1 << 20,
	}
	if err := os.MkdirAll(settings.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	replier := newFakeReplier()
	downloader := &fakeDownloader{}
	return NewMachine(settings, replier, downloader, runner, logging.NewNop()), replier, downloader, settings
}

func text(s string) Event { return Event{SessionID: chat, Text: s} }

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  Choice
		ok    bool
	}{
		{"video", ChoiceVideo, true},
		{"  🎥 Video ", ChoiceVideo, true},
		{"AUDIO", ChoiceAudio, true},
		{"🎵 audio", ChoiceAudio, true},
		{"youtube", ChoiceYouTube, true},
		{"Link", ChoiceYouTube, true},
		{"YouTube Link", ChoiceYouTube, true},
		{"🔗 YouTube Link", ChoiceYouTube, true},
		{"movie", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseChoice(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseChoice(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestUnknownInputLeavesChoosingInput(t *testing.T) {
	m, replier, _, _ := newTestMachine(t, nil)
	for _, input := range []string{"hello", "", "   ", "/unknown", "vid"} {
		m.Handle(context.Background(), text(input))
		if got := m.Session(chat); got != (ChoosingInput{}) {
			t.Fatalf("input %q moved session to %s", input, got.State())
		}
		if replier.last(chat) != MessageInvalidChoice {
			t.Fatalf("input %q reply = %q", input, replier.last(chat))
		}
	}
	if m.Sessions() != 0 {
		t.Fatalf("no session data should be recorded, have %d", m.Sessions())
	}
}

func TestMenuTransitions(t *testing.T) {
	m, replier, _, _ := newTestMachine(t, nil)
	ctx := context.Background()

	m.Handle(ctx, text("/start"))
	if replier.menus[chat] != 1 || replier.last(chat) != MessageMenu {
		t.Fatalf("expected menu, got %q", replier.sent(chat))
	}

	m.Handle(ctx, text("🎵 Audio"))
	if got := m.Session(chat); got != (EnteringFilename{Choice: ChoiceAudio}) {
		t.Fatalf("session = %#v", got)
	}
	if replier.last(chat) != MessagePromptAudio {
		t.Fatalf("reply = %q", replier.last(chat))
	}

	m.Handle(ctx, text("/cancel"))
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatalf("cancel did not reset, state %s", m.Session(chat).State())
	}

	m.Handle(ctx, text("youtube"))
	if m.Session(chat).State() != StateEnteringURL {
		t.Fatalf("state = %s", m.Session(chat).State())
	}
	m.Handle(ctx, text("not a link"))
	if m.Session(chat).State() != StateEnteringURL || replier.last(chat) != MessageInvalidURL {
		t.Fatalf("invalid URL changed state to %s (%q)", m.Session(chat).State(), replier.last(chat))
	}
	m.Handle(ctx, text("ftp://example.com/v"))
	if m.Session(chat).State() != StateEnteringURL {
		t.Fatal("non-http URL accepted")
	}
	m.Handle(ctx, text(" https://youtu.be/abc "))
	if got := m.Session(chat); got != (EnteringResolution{URL: "https://youtu.be/abc"}) {
		t.Fatalf("session = %#v", got)
	}
	if replier.last(chat) != MessagePromptResolution {
		t.Fatalf("reply = %q", replier.last(chat))
	}
	m.Handle(ctx, text("high"))
	if m.Session(chat).State() != StateEnteringResolution || replier.last(chat) != MessageInvalidResolution {
		t.Fatal("invalid resolution changed state")
	}
}

func TestFilenameValidation(t *testing.T) {
	var runs int
	runner := runnerFunc(func(context.Context, pipeline.Job, pipeline.Sink) (pipeline.Result, error) {
		runs++
		return pipeline.Result{}, nil
	})
	m, replier, _, _ := newTestMachine(t, runner)
	ctx := context.Background()

	m.Handle(ctx, text("video"))
	m.Handle(ctx, text("../secret.mp4"))
	if m.Session(chat).State() != StateEnteringFilename || replier.last(chat) != MessageInvalidFile {
		t.Fatalf("escaping path accepted: %s %q", m.Session(chat).State(), replier.last(chat))
	}
	m.Handle(ctx, text("/etc/passwd"))
	if m.Session(chat).State() != StateEnteringFilename {
		t.Fatal("absolute path accepted")
	}
	m.Handle(ctx, text("missing.mp4"))
	if m.Session(chat).State() != StateEnteringFilename || replier.last(chat) != fileMissingMessage("missing.mp4") {
		t.Fatalf("missing file: %s %q", m.Session(chat).State(), replier.last(chat))
	}
	if runs != 0 {
		t.Fatalf("runner called %d times", runs)
	}
}

func TestTypedFilenameRunsPipeline(t *testing.T) {
	var got pipeline.Job
	var m *Machine
	var during Session
	runner := runnerFunc(func(_ context.Context, job pipeline.Job, _ pipeline.Sink) (pipeline.Result, error) {
		got = job
		during = m.Session(chat)
		return pipeline.Result{}, nil
	})
	m, _, _, settings := newTestMachine(t, runner)
	path := filepath.Join(settings.InputDir, "talk.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	m.Handle(context.Background(), text("audio"))
	m.Handle(context.Background(), text("talk.mp3"))

	if got.Kind != acquire.KindAudio || got.Path != path || got.SessionID != chat {
		t.Fatalf("job = %+v", got)
	}
	proc, ok := during.(Processing)
	if !ok || proc.Choice != ChoiceAudio {
		t.Fatalf("session during run = %#v", during)
	}
	if _, ok := proc.Resolution(); ok {
		t.Fatal("local job should not carry a resolution")
	}
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatalf("session not reset, state %s", m.Session(chat).State())
	}
}

func TestResolutionStartsYouTubeJob(t *testing.T) {
	var m *Machine
	var during Session
	runner := runnerFunc(func(_ context.Context, job pipeline.Job, _ pipeline.Sink) (pipeline.Result, error) {
		during = m.Session(chat)
		return pipeline.Result{}, nil
	})
	m, _, _, _ = newTestMachine(t, runner)
	ctx := context.Background()
	m.Handle(ctx, text("link"))
	m.Handle(ctx, text("https://www.youtube.com/watch?v=1"))
	m.Handle(ctx, text("480P"))

	proc, ok := during.(Processing)
	if !ok {
		t.Fatalf("session during run = %#v", during)
	}
	if h, ok := proc.Resolution(); !ok || h != 480 {
		t.Fatalf("resolution = %d, %v", h, ok)
	}
	if proc.Job.URL != "https://www.youtube.com/watch?v=1" {
		t.Fatalf("url = %q", proc.Job.URL)
	}
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset")
	}
}

func TestProcessingFailureNotifiesAndResets(t *testing.T) {
	runner := runnerFunc(func(context.Context, pipeline.Job, pipeline.Sink) (pipeline.Result, error) {
		return pipeline.Result{}, &audio.TranscodeError{Input: "x", Output: "bad data", Err: errors.New("exit status 1")}
	})
	m, replier, downloader, _ := newTestMachine(t, runner)

	m.Handle(context.Background(), Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindVideo, FileID: "f1", Size: 10}})
	if len(downloader.calls) != 1 {
		t.Fatalf("expected one download, got %d", len(downloader.calls))
	}
	if replier.last(chat) != FailureMessage(services.ErrTranscode) {
		t.Fatalf("reply = %q", replier.last(chat))
	}
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset after failure")
	}
}

func TestProcessingPanicResets(t *testing.T) {
	runner := runnerFunc(func(context.Context, pipeline.Job, pipeline.Sink) (pipeline.Result, error) {
		panic("boom")
	})
	m, replier, _, _ := newTestMachine(t, runner)
	m.Handle(context.Background(), Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindAudio, FileID: "f2"}})
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset after panic")
	}
	if replier.last(chat) != FailureMessage(errors.New("x")) {
		t.Fatalf("reply = %q", replier.last(chat))
	}
}

func TestUploadRejections(t *testing.T) {
	m, replier, downloader, _ := newTestMachine(t, nil)
	ctx := context.Background()

	m.Handle(ctx, Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindVideo, FileID: "big", Size: 5 << 20}})
	if len(downloader.calls) != 0 || replier.last(chat) != uploadTooLargeMessage(1<<20) {
		t.Fatalf("oversized upload not rejected: %q", replier.last(chat))
	}

	downloader.err = errors.New("network down")
	m.Handle(ctx, text("video"))
	m.Handle(ctx, Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindVideo, FileID: "f3"}})
	if m.Session(chat).State() != StateEnteringFilename || replier.last(chat) != MessageDownloadFailed {
		t.Fatalf("failed download: %s %q", m.Session(chat).State(), replier.last(chat))
	}
}

func TestCommandParsing(t *testing.T) {
	tests := map[string]string{
		"/start":            "/start",
		" /START@subs_bot ": "/start",
		"/cancel now":       "/cancel",
		"video":             "",
	}
	for in, want := range tests {
		if got := command(in); got != want {
			t.Errorf("command(%q) = %q, want %q", in, got, want)
		}
	}
}
