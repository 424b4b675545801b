package conversation

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"subtitler/internal/pipeline"
)

type sentDocument struct {
	name    string
	caption string
	content string
}

type fakeReplier struct {
	mu       sync.Mutex
	messages map[int64][]string
	menus    map[int64]int
	docs     map[int64][]sentDocument
}

func newFakeReplier() *fakeReplier {
	return &fakeReplier{
		messages: make(map[int64][]string),
		menus:    make(map[int64]int),
		docs:     make(map[int64][]sentDocument),
	}
}

func (f *fakeReplier) Reply(_ context.Context, id int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = append(f.messages[id], text)
	return nil
}

func (f *fakeReplier) ShowMenu(_ context.Context, id int64, text string, _ [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menus[id]++
	f.messages[id] = append(f.messages[id], text)
	return nil
}

func (f *fakeReplier) SendDocument(_ context.Context, id int64, path, caption string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = append(f.docs[id], sentDocument{name: filepath.Base(path), caption: caption, content: string(data)})
	return nil
}

func (f *fakeReplier) sent(id int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages[id]...)
}

func (f *fakeReplier) last(id int64) string {
	msgs := f.sent(id)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (f *fakeReplier) documents(id int64) []sentDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentDocument(nil), f.docs[id]...)
}

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeDownloader) Download(_ context.Context, fileID, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, fileID)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("media:"+fileID), 0o644)
}

type runnerFunc func(ctx context.Context, job pipeline.Job, sink pipeline.Sink) (pipeline.Result, error)

func (f runnerFunc) Run(ctx context.Context, job pipeline.Job, sink pipeline.Sink) (pipeline.Result, error) {
	return f(ctx, job, sink)
}
