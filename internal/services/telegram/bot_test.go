package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"subtitler/internal/acquire"
	"subtitler/internal/logging"
)

const testToken = "123:abc"

type fakeAPI struct {
	mu       sync.Mutex
	requests []apiRequest
}

type apiRequest struct {
	method  string
	form    map[string]string
	upload  string
	content string
}

func newFakeAPI(t *testing.T) (*httptest.Server, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/file/bot"+testToken+"/videos/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "video-bytes")
	})
	mux.HandleFunc("/bot"+testToken+"/", func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
		rec := apiRequest{method: method, form: map[string]string{}}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			for k, v := range r.MultipartForm.Value {
				rec.form[k] = v[0]
			}
			if f, hdr, err := r.FormFile("document"); err == nil {
				data, _ := io.ReadAll(f)
				rec.upload = hdr.Filename
				rec.content = string(data)
				f.Close()
			}
		} else {
			_ = r.ParseForm()
			for k, v := range r.PostForm {
				rec.form[k] = v[0]
			}
		}
		api.mu.Lock()
		api.requests = append(api.requests, rec)
		api.mu.Unlock()

		var result any
		switch method {
		case "getMe":
			result = map[string]any{"id": 1, "is_bot": true, "first_name": "Subs", "username": "subs_bot"}
		case "getFile":
			result = map[string]any{"file_id": rec.form["file_id"], "file_path": "videos/clip.mp4"}
		default:
			result = map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}}
		}
		raw, _ := json.Marshal(result)
		fmt.Fprintf(w, `{"ok":true,"result":%s}`, raw)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, api
}

func (f *fakeAPI) find(method string) (apiRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.method == method {
			return r, true
		}
	}
	return apiRequest{}, false
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	srv, api := newFakeAPI(t)
	bot, err := New(testToken, Options{
		APIEndpoint:  srv.URL + "/bot%s/%s",
		FileEndpoint: srv.URL + "/file/bot%s/%s",
		HTTPClient:   srv.Client(),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return bot, api
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New("  ", Options{}, logging.NewNop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestReplyAndMenu(t *testing.T) {
	bot, api := newTestBot(t)
	if bot.Username() != "subs_bot" {
		t.Fatalf("username = %q", bot.Username())
	}
	ctx := context.Background()
	if err := bot.Reply(ctx, 42, "hello"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	req, ok := api.find("sendMessage")
	if !ok || req.form["chat_id"] != "42" || req.form["text"] != "hello" {
		t.Fatalf("sendMessage = %+v", req)
	}

	if err := bot.ShowMenu(ctx, 42, "pick", [][]string{{"🎥 Video", "🎵 Audio"}, {"🔗 YouTube Link"}}); err != nil {
		t.Fatalf("ShowMenu: %v", err)
	}
	api.mu.Lock()
	last := api.requests[len(api.requests)-1]
	api.mu.Unlock()
	if !strings.Contains(last.form["reply_markup"], "🔗 YouTube Link") || !strings.Contains(last.form["reply_markup"], `"resize_keyboard":true`) {
		t.Fatalf("reply_markup = %s", last.form["reply_markup"])
	}
}

func TestSendDocument(t *testing.T) {
	bot, api := newTestBot(t)
	path := filepath.Join(t.TempDir(), "subtitles_en.srt")
	if err := os.WriteFile(path, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := bot.SendDocument(context.Background(), 42, path, "English subtitles"); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	req, ok := api.find("sendDocument")
	if !ok {
		t.Fatal("sendDocument not called")
	}
	if req.upload != "subtitles_en.srt" || !strings.Contains(req.content, "hi") || req.form["caption"] != "English subtitles" {
		t.Fatalf("sendDocument = %+v", req)
	}
}

func TestDownload(t *testing.T) {
	bot, _ := newTestBot(t)
	dest := filepath.Join(t.TempDir(), "clip.mp4")
	if err := bot.Download(context.Background(), "file-1", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("downloaded %q, %v", data, err)
	}
}

func TestCancelledContextSkipsCalls(t *testing.T) {
	bot, api := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bot.Reply(ctx, 42, "late"); err == nil {
		t.Fatal("expected context error")
	}
	if _, ok := api.find("sendMessage"); ok {
		t.Fatal("message sent with cancelled context")
	}
}

func TestEventFromMessage(t *testing.T) {
	chat := &tgbotapi.Chat{ID: 9}
	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		ok       bool
		text     string
		kind     acquire.Kind
		fileID   string
		fileName string
	}{
		{name: "nil", msg: nil},
		{name: "text", msg: &tgbotapi.Message{Chat: chat, Text: "video"}, ok: true, text: "video"},
		{name: "video", msg: &tgbotapi.Message{Chat: chat, Video: &tgbotapi.Video{FileID: "v", FileName: "a.mp4", FileSize: 10}}, ok: true, kind: acquire.KindVideo, fileID: "v", fileName: "a.mp4"},
		{name: "audio", msg: &tgbotapi.Message{Chat: chat, Audio: &tgbotapi.Audio{FileID: "a"}}, ok: true, kind: acquire.KindAudio, fileID: "a"},
		{name: "voice", msg: &tgbotapi.Message{Chat: chat, Voice: &tgbotapi.Voice{FileID: "o"}}, ok: true, kind: acquire.KindVoice, fileID: "o"},
		{name: "document", msg: &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "d", FileName: "b.mkv"}}, ok: true, kind: acquire.KindDocument, fileID: "d", fileName: "b.mkv"},
		{name: "sticker", msg: &tgbotapi.Message{Chat: chat}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := EventFromMessage(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ok = %v", ok)
			}
			if !ok {
				return
			}
			if ev.SessionID != 9 || ev.Text != tt.text {
				t.Fatalf("event = %+v", ev)
			}
			if tt.kind == "" {
				if ev.Upload != nil {
					t.Fatalf("unexpected upload %+v", ev.Upload)
				}
				return
			}
			if ev.Upload == nil || ev.Upload.Kind != tt.kind || ev.Upload.FileID != tt.fileID || ev.Upload.FileName != tt.fileName {
				t.Fatalf("upload = %+v", ev.Upload)
			}
		})
	}
}
