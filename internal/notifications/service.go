package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subtitler/internal/config"
)

const userAgent = "Subtitler-Go/0.1.0"

// Event identifies an operator notification.
type Event string

const (
	EventRunCompleted  Event = "run_completed"
	EventRunFailed     Event = "run_failed"
	EventDaemonStarted Event = "daemon_started"
	EventTest          Event = "test"
)

// Payload carries event fields. Recognised keys: runID, source, tracks,
// failedTracks, duration, error, errorKind, sessionID, version.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier when a topic is configured and a
// no-op notifier otherwise. Run completion and failure events are filtered by
// the notifications section switches.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runCompleted: cfg.Notifications.RunCompleted,
		runFailed:    cfg.Notifications.RunFailed,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runCompleted bool
	runFailed    bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil {
		return nil
	}
	switch event {
	case EventRunCompleted:
		if !n.runCompleted {
			return nil
		}
	case EventRunFailed:
		if !n.runFailed {
			return nil
		}
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unsupported notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		body := fmt.Sprintf("✅ Subtitles delivered: %s", payload.text("source", "unknown source"))
		tracks := payload.intValue("tracks")
		failed := payload.intValue("failedTracks")
		if tracks > 0 || failed > 0 {
			body += fmt.Sprintf("\nTracks: %d delivered", tracks)
			if failed > 0 {
				body += fmt.Sprintf(", %d failed", failed)
			}
		}
		if d := payload.duration("duration"); d > 0 {
			body += fmt.Sprintf("\nTook %s", d.Round(time.Second))
		}
		tags := []string{"subtitler", "run", "completed"}
		if failed > 0 {
			tags = []string{"subtitler", "run", "partial"}
		}
		return message{title: "Subtitler - Run Complete", body: body, tags: tags}, true
	case EventRunFailed:
		var builder strings.Builder
		builder.WriteString("❌ Run failed")
		if runID := payload.text("runID", ""); runID != "" {
			builder.WriteString(" (run ")
			builder.WriteString(runID)
			builder.WriteString(")")
		}
		if kind := payload.text("errorKind", ""); kind != "" {
			builder.WriteString(" [")
			builder.WriteString(kind)
			builder.WriteString("]")
		}
		builder.WriteString(": ")
		builder.WriteString(payload.text("error", "unknown"))
		if source := payload.text("source", ""); source != "" {
			builder.WriteString("\nSource: ")
			builder.WriteString(source)
		}
		return message{
			title:    "Subtitler - Error",
			body:     builder.String(),
			tags:     []string{"subtitler", "error", "alert"},
			priority: "high",
		}, true
	case EventDaemonStarted:
		body := "🤖 Subtitler bot started"
		if version := payload.text("version", ""); version != "" {
			body += " (" + version + ")"
		}
		return message{title: "Subtitler - Started", body: body, tags: []string{"subtitler", "daemon"}, priority: "low"}, true
	case EventTest:
		return message{
			title:    "Subtitler - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"subtitler", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case error:
		s = val.Error()
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

func (p Payload) intValue(key string) int {
	switch val := p[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	default:
		return 0
	}
}

func (p Payload) duration(key string) time.Duration {
	if d, ok := p[key].(time.Duration); ok {
		return d
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
