package conversation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtitler/internal/acquire"
	"subtitler/internal/config"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/pipeline/pipelinetest"
	"subtitler/internal/testsupport"
)

func newE2EMachine(t *testing.T, fetcher acquire.Fetcher) (*Machine, *fakeReplier, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	svc, err := pipeline.Build(cfg, pipeline.Options{
		Recognizer: &pipelinetest.Recognizer{Transcript: pipelinetest.SampleTranscript()},
		Fetcher:    fetcher,
		Runner:     pipelinetest.WAVRunner(t),
		History:    testsupport.MustOpenHistory(t, cfg),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.Build: %v", err)
	}
	replier := newFakeReplier()
	m := NewMachine(SettingsFromConfig(cfg), replier, &fakeDownloader{}, svc, logging.NewNop())
	return m, replier, cfg
}

func assertThreeTracks(t *testing.T, replier *fakeReplier) {
	t.Helper()
	docs := replier.documents(chat)
	want := []string{"subtitles_en.srt", "subtitles_ur.srt", "subtitles_tr.srt"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i, doc := range docs {
		if doc.name != want[i] {
			t.Fatalf("document %d = %s, want %s", i, doc.name, want[i])
		}
		if !strings.HasPrefix(doc.content, "1\n00:00:00,000 --> 00:00:02,500\nHello and welcome.\n\n") {
			t.Fatalf("%s content:\n%s", doc.name, doc.content)
		}
	}
}

func TestVideoUploadScenario(t *testing.T) {
	m, replier, cfg := newE2EMachine(t, nil)
	ctx := context.Background()

	m.Handle(ctx, text("video"))
	m.Handle(ctx, Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindVideo, FileID: "vid-1", FileName: "clip.mp4", Size: 4096}})

	assertThreeTracks(t, replier)
	if m.Session(chat) != (ChoosingInput{}) {
		t.Fatalf("session not reset: %#v", m.Session(chat))
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DownloadDir, "vid-1_clip.mp4")); !os.IsNotExist(err) {
		t.Fatalf("upload left in download dir after run: %v", err)
	}
	msgs := replier.sent(chat)
	if msgs[len(msgs)-1] != pipeline.MessageDone {
		t.Fatalf("final message = %q", msgs[len(msgs)-1])
	}
	if !containsMessage(msgs, "🌍 Detected input language: English (en)") {
		t.Fatalf("language message missing: %q", msgs)
	}
}

func TestDirectUploadFastPath(t *testing.T) {
	m, replier, _ := newE2EMachine(t, nil)
	m.Handle(context.Background(), Event{SessionID: chat, Upload: &Upload{Kind: acquire.KindDocument, FileID: "doc-9"}})
	assertThreeTracks(t, replier)
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset")
	}
}

func TestYouTubeScenarioWithFallback(t *testing.T) {
	var formats []string
	fetcher := pipelinetest.FetchFunc(func(_ context.Context, req acquire.FetchRequest) (string, error) {
		formats = append(formats, req.Format)
		if req.Format == acquire.ConstrainedFormat(480) {
			return "", errors.New("requested format not available")
		}
		path := req.OutputBase + ".mp4"
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, os.WriteFile(path, []byte("video"), 0o644)
	})
	m, replier, _ := newE2EMachine(t, fetcher)
	ctx := context.Background()

	m.Handle(ctx, text("youtube"))
	m.Handle(ctx, text("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	m.Handle(ctx, text("480p"))

	if len(formats) != 2 || formats[0] != acquire.ConstrainedFormat(480) || formats[1] != acquire.UnconstrainedFormat {
		t.Fatalf("formats = %q", formats)
	}
	assertThreeTracks(t, replier)
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset")
	}
}

func TestPipelineFailureScenario(t *testing.T) {
	fetcher := pipelinetest.FetchFunc(func(context.Context, acquire.FetchRequest) (string, error) {
		return "", errors.New("private video")
	})
	m, replier, _ := newE2EMachine(t, fetcher)
	ctx := context.Background()

	m.Handle(ctx, text("youtube"))
	m.Handle(ctx, text("https://youtu.be/private"))
	m.Handle(ctx, text("720"))

	if !strings.Contains(replier.last(chat), "Could not download the video") {
		t.Fatalf("reply = %q", replier.last(chat))
	}
	if len(replier.documents(chat)) != 0 {
		t.Fatal("no documents expected")
	}
	if m.Session(chat).State() != StateChoosingInput {
		t.Fatal("session not reset")
	}
}

func containsMessage(msgs []string, want string) bool {
	for _, m := range msgs {
		if m == want {
			return true
		}
	}
	return false
}
