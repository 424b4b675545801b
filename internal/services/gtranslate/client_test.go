package gtranslate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslateJoinsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "en" || q.Get("tl") != "ur" || q.Get("q") != "Hello. How are you?" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = io.WriteString(w, `[[["ہیلو۔ ","Hello. ",null,null,10],["آپ کیسے ہیں؟","How are you?",null,null,10]],null,"en"]`)
	}))
	defer srv.Close()

	got, err := New(srv.URL, srv.Client()).Translate(context.Background(), "Hello. How are you?", "en", "ur")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "ہیلو۔ آپ کیسے ہیں؟" {
		t.Fatalf("Translate = %q", got)
	}
}

func TestTranslateAutoSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sl") != "auto" {
			t.Errorf("expected auto source, got %q", r.URL.Query().Get("sl"))
		}
		_, _ = io.WriteString(w, `[[["Merhaba","Hello"]]]`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil).Translate(context.Background(), "Hello", "", "tr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"status":  {http.StatusTooManyRequests, `[]`},
		"garbage": {http.StatusOK, `<html>`},
		"empty":   {http.StatusOK, `[null,null,"en"]`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()
			if _, err := New(srv.URL, nil).Translate(context.Background(), "Hello", "en", "tr"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTranslateBlankTextSkipsRequest(t *testing.T) {
	got, err := New("http://127.0.0.1:1", nil).Translate(context.Background(), "  ", "en", "tr")
	if err != nil || got != "  " {
		t.Fatalf("Translate = %q, %v", got, err)
	}
}
