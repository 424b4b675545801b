// Package pipelinetest provides in-memory collaborators for exercising
// pipeline runs in tests.
package pipelinetest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"subtitler/internal/acquire"
	"subtitler/internal/media/audio"
	"subtitler/internal/testsupport"
	"subtitler/internal/transcription"
)

// Recognizer returns a fixed transcript or error.
type Recognizer struct {
	Transcript transcription.Transcript
	Err        error

	mu    sync.Mutex
	calls []string
}

// Name implements transcription.Recognizer.
func (r *Recognizer) Name() string { return "fake" }

// Recognize implements transcription.Recognizer.
func (r *Recognizer) Recognize(_ context.Context, audioPath string) (transcription.Transcript, error) {
	r.mu.Lock()
	r.calls = append(r.calls, audioPath)
	r.mu.Unlock()
	if r.Err != nil {
		return transcription.Transcript{}, r.Err
	}
	return r.Transcript, nil
}

// Calls returns the audio paths seen so far.
func (r *Recognizer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// SampleTranscript is a short English transcript with three segments.
func SampleTranscript() transcription.Transcript {
	return transcription.Transcript{
		Language: "en",
		Segments: []transcription.Segment{
			{Start: 0, End: 2.5, Text: "Hello and welcome."},
			{Start: 2.5, End: 6, Text: "This is a test."},
			{Start: 6, End: 9.75, Text: "Goodbye."},
		},
	}
}

// WAVRunner returns an ffmpeg stand-in that writes a silent canonical WAV to
// the destination argument.
func WAVRunner(t testing.TB) audio.Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if len(args) == 0 {
			return nil, errors.New("no args")
		}
		testsupport.WriteWAV(t, args[len(args)-1], audio.SampleRate, audio.Channels, 0.5)
		return nil, nil
	}
}

// FetchFunc adapts a function to acquire.Fetcher.
type FetchFunc func(ctx context.Context, req acquire.FetchRequest) (string, error)

// Fetch implements acquire.Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, req acquire.FetchRequest) (string, error) {
	return f(ctx, req)
}

// Delivery is one file handed to a Sink. Content is captured at delivery
// time because the run directory may be removed afterwards.
type Delivery struct {
	Name    string
	Caption string
	Content string
}

// Sink records progress messages and delivered files.
type Sink struct {
	// FailDeliveries makes Deliver fail for files with these base names.
	FailDeliveries map[string]bool

	mu        sync.Mutex
	progress  []string
	delivered []Delivery
}

// Progress implements pipeline.Sink.
func (s *Sink) Progress(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, text)
	return nil
}

// Deliver implements pipeline.Sink.
func (s *Sink) Deliver(_ context.Context, path, caption string) error {
	name := filepath.Base(path)
	if s.FailDeliveries[name] {
		return errors.New("delivery rejected")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, Delivery{Name: name, Caption: caption, Content: string(data)})
	return nil
}

// Messages returns the progress messages received so far.
func (s *Sink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.progress...)
}

// Delivered returns the files received so far.
func (s *Sink) Delivered() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.delivered...)
}
