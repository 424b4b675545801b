package transcription

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/testsupport"
)

type stubRecognizer struct {
	result  Transcript
	err     error
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Recognize(ctx context.Context, audioPath string) (Transcript, error) {
	s.calls.Add(1)
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Transcript{}, s.err
	}
	out := Transcript{Language: s.result.Language, Segments: append([]Segment(nil), s.result.Segments...)}
	return out, nil
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	testsupport.WriteWAV(t, path, 16000, 1, 0.1)
	return path
}

func TestTranscribeNormalizesLanguageAndText(t *testing.T) {
	rec := &stubRecognizer{result: Transcript{
		Language: "urdu",
		Segments: []Segment{{Start: 0, End: 1.5, Text: "  salaam  "}},
	}}
	svc := NewService(rec, 1, 0, logging.NewNop())

	got, err := svc.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Language != "ur" {
		t.Fatalf("language = %q, want ur", got.Language)
	}
	if got.Segments[0].Text != "salaam" {
		t.Fatalf("text not trimmed: %q", got.Segments[0].Text)
	}
}

func TestTranscribeDefaultsLanguageToEnglish(t *testing.T) {
	rec := &stubRecognizer{result: Transcript{Segments: []Segment{{Start: 0, End: 1, Text: "hi"}}}}
	svc := NewService(rec, 1, 0, nil)

	got, err := svc.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Language != DefaultLanguage {
		t.Fatalf("language = %q, want %q", got.Language, DefaultLanguage)
	}
}

func TestTranscribeKeepsReportedLanguage(t *testing.T) {
	tests := []struct {
		reported string
		want     string
	}{
		{"thai", "th"},
		{"swahili", "sw"},
		{"tagalog", "tl"},
		{"haw", "haw"},
		{"yue", "yue"},
	}
	for _, tc := range tests {
		t.Run(tc.reported, func(t *testing.T) {
			rec := &stubRecognizer{result: Transcript{
				Language: tc.reported,
				Segments: []Segment{{Start: 0, End: 1, Text: "x"}},
			}}
			svc := NewService(rec, 1, 0, nil)

			got, err := svc.Transcribe(context.Background(), writeAudio(t))
			if err != nil {
				t.Fatalf("Transcribe failed: %v", err)
			}
			if got.Language != tc.want {
				t.Fatalf("language = %q, want %q", got.Language, tc.want)
			}
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	rec := &stubRecognizer{}
	svc := NewService(rec, 1, 0, nil)

	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if rec.calls.Load() != 0 {
		t.Fatal("recognizer must not be called for a missing file")
	}
}

func TestTranscribeWrapsBackendErrorWithoutRetry(t *testing.T) {
	cause := errors.New("model crashed")
	rec := &stubRecognizer{err: cause}
	svc := NewService(rec, 1, 0, nil)

	_, err := svc.Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, services.ErrTranscription) || !errors.Is(err, cause) {
		t.Fatalf("expected transcription error wrapping cause, got %v", err)
	}
	if rec.calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", rec.calls.Load())
	}
}

func TestTranscribeTimeout(t *testing.T) {
	rec := &stubRecognizer{delay: time.Second}
	svc := NewService(rec, 1, 20*time.Millisecond, nil)

	_, err := svc.Transcribe(context.Background(), writeAudio(t))
	if services.Kind(err) != services.KindTimeout {
		t.Fatalf("expected timeout kind, got %s (%v)", services.Kind(err), err)
	}
}

func TestTranscribeSerializesRecognizerAccess(t *testing.T) {
	rec := &stubRecognizer{delay: 20 * time.Millisecond, result: Transcript{Language: "en"}}
	svc := NewService(rec, 1, 0, nil)
	path := writeAudio(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Transcribe(context.Background(), path); err != nil {
				t.Errorf("Transcribe failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if rec.maxSeen.Load() != 1 {
		t.Fatalf("expected at most one concurrent recognition, saw %d", rec.maxSeen.Load())
	}
}

func TestTranscriptDuration(t *testing.T) {
	tr := Transcript{Segments: []Segment{{Start: 0, End: 4}, {Start: 3, End: 2.5}, {Start: 5, End: 9.25}}}
	if tr.Duration() != 9.25 {
		t.Fatalf("Duration = %v", tr.Duration())
	}
}
