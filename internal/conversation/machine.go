package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"subtitler/internal/acquire"
	"subtitler/internal/config"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/services"
)

// Replier sends messages back to a chat.
type Replier interface {
	Reply(ctx context.Context, sessionID int64, text string) error
	ShowMenu(ctx context.Context, sessionID int64, text string, layout [][]string) error
	SendDocument(ctx context.Context, sessionID int64, path, caption string) error
}

// Downloader fetches an uploaded attachment to dest.
type Downloader interface {
	Download(ctx context.Context, fileID, dest string) error
}

// Runner executes pipeline jobs.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, sink pipeline.Sink) (pipeline.Result, error)
}

// Settings are the configuration values the machine reads.
type Settings struct {
	InputDir        string
	DownloadDir     string
	MaxUploadBytes  int64
	DownloadTimeout time.Duration
}

// SettingsFromConfig extracts Settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		InputDir:        cfg.Paths.InputDir,
		DownloadDir:     cfg.Paths.DownloadDir,
		MaxUploadBytes:  cfg.Pipeline.MaxUploadBytes,
		DownloadTimeout: config.Timeout(cfg.Pipeline.DownloadTimeoutSeconds),
	}
}

// Machine holds every session and applies events to them. Handle must not be
// called concurrently for the same session; Dispatcher guarantees that.
type Machine struct {
	settings   Settings
	replier    Replier
	downloader Downloader
	runner     Runner
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[int64]Session
}

// NewMachine constructs a Machine.
func NewMachine(settings Settings, replier Replier, downloader Downloader, runner Runner, logger *slog.Logger) *Machine {
	return &Machine{
		settings:   settings,
		replier:    replier,
		downloader: downloader,
		runner:     runner,
		logger:     logging.NewComponentLogger(logger, "conversation"),
		sessions:   make(map[int64]Session),
	}
}

// Session returns the current variant for id. Unknown sessions are in
// ChoosingInput.
func (m *Machine) Session(id int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	return ChoosingInput{}
}

// Sessions returns the number of sessions not in ChoosingInput.
func (m *Machine) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Machine) set(id int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State() == StateChoosingInput {
		delete(m.sessions, id)
		return
	}
	m.sessions[id] = s
}

func (m *Machine) reset(id int64) {
	m.set(id, ChoosingInput{})
}

// Handle applies ev to its session.
func (m *Machine) Handle(ctx context.Context, ev Event) {
	ctx = services.WithSessionID(ctx, ev.SessionID)
	ctx = services.WithCorrelationID(ctx, ev.CorrelationID)
	current := m.Session(ev.SessionID)
	logger := logging.WithContext(ctx, m.logger)
	logger.Debug("event received",
		logging.String("state", current.State().String()),
		logging.Bool("upload", ev.Upload != nil),
	)

	if current.State() == StateProcessing {
		m.reply(ctx, ev.SessionID, MessageBusy)
		return
	}
	if ev.Upload == nil {
		switch command(ev.Text) {
		case "/start":
			m.reset(ev.SessionID)
			m.menu(ctx, ev.SessionID, MessageMenu)
			return
		case "/cancel":
			m.reset(ev.SessionID)
			m.menu(ctx, ev.SessionID, MessageCancelled+"\n\n"+MessageMenu)
			return
		case "/help":
			m.reply(ctx, ev.SessionID, MessageHelp)
			return
		}
	}

	switch s := current.(type) {
	case ChoosingInput:
		m.handleChoosing(ctx, ev)
	case EnteringFilename:
		m.handleFilename(ctx, s, ev)
	case EnteringURL:
		m.handleURL(ctx, ev)
	case EnteringResolution:
		m.handleResolution(ctx, s, ev)
	}
}

func (m *Machine) handleChoosing(ctx context.Context, ev Event) {
	if ev.Upload != nil {
		path, ok := m.download(ctx, ev.SessionID, *ev.Upload)
		if !ok {
			return
		}
		m.process(ctx, ev.SessionID, ChoiceVideo, pipeline.Job{SessionID: ev.SessionID, Kind: ev.Upload.Kind, Path: path})
		return
	}
	if strings.TrimSpace(ev.Text) == "" {
		m.reply(ctx, ev.SessionID, MessageInvalidChoice)
		return
	}
	choice, ok := ParseChoice(ev.Text)
	if !ok {
		m.reply(ctx, ev.SessionID, MessageInvalidChoice)
		return
	}
	switch choice {
	case ChoiceVideo:
		m.set(ev.SessionID, EnteringFilename{Choice: ChoiceVideo})
		m.reply(ctx, ev.SessionID, MessagePromptVideo)
	case ChoiceAudio:
		m.set(ev.SessionID, EnteringFilename{Choice: ChoiceAudio})
		m.reply(ctx, ev.SessionID, MessagePromptAudio)
	case ChoiceYouTube:
		m.set(ev.SessionID, EnteringURL{})
		m.reply(ctx, ev.SessionID, MessagePromptURL)
	}
}

func (m *Machine) handleFilename(ctx context.Context, s EnteringFilename, ev Event) {
	var job pipeline.Job
	switch {
	case ev.Upload != nil:
		path, ok := m.download(ctx, ev.SessionID, *ev.Upload)
		if !ok {
			return
		}
		job = pipeline.Job{SessionID: ev.SessionID, Kind: ev.Upload.Kind, Path: path}
	case strings.TrimSpace(ev.Text) != "":
		path, err := acquire.ResolveInputPath(m.settings.InputDir, ev.Text)
		if err != nil {
			m.reply(ctx, ev.SessionID, MessageInvalidFile)
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			m.reply(ctx, ev.SessionID, fileMissingMessage(ev.Text))
			return
		}
		kind := acquire.KindVideo
		if s.Choice == ChoiceAudio {
			kind = acquire.KindAudio
		}
		job = pipeline.Job{SessionID: ev.SessionID, Kind: kind, Path: path}
	default:
		m.reply(ctx, ev.SessionID, MessageInvalidFile)
		return
	}
	m.process(ctx, ev.SessionID, s.Choice, job)
}

func (m *Machine) handleURL(ctx context.Context, ev Event) {
	if ev.Upload != nil {
		m.reply(ctx, ev.SessionID, MessageInvalidURL)
		return
	}
	url, err := acquire.ValidateURL(ev.Text)
	if err != nil {
		m.reply(ctx, ev.SessionID, MessageInvalidURL)
		return
	}
	m.set(ev.SessionID, EnteringResolution{URL: url})
	m.reply(ctx, ev.SessionID, MessagePromptResolution)
}

func (m *Machine) handleResolution(ctx context.Context, s EnteringResolution, ev Event) {
	if ev.Upload != nil {
		m.reply(ctx, ev.SessionID, MessageInvalidResolution)
		return
	}
	height, err := acquire.ParseResolution(ev.Text)
	if err != nil {
		m.reply(ctx, ev.SessionID, MessageInvalidResolution)
		return
	}
	m.process(ctx, ev.SessionID, ChoiceYouTube, pipeline.Job{
		SessionID:  ev.SessionID,
		Kind:       acquire.KindYouTube,
		URL:        s.URL,
		Resolution: height,
	})
}

// download stores an upload under the download directory. It replies to the
// user and returns false on failure; the session state is left unchanged.
func (m *Machine) download(ctx context.Context, sessionID int64, up Upload) (string, bool) {
	logger := logging.WithContext(ctx, m.logger)
	if m.settings.MaxUploadBytes > 0 && up.Size > m.settings.MaxUploadBytes {
		m.reply(ctx, sessionID, uploadTooLargeMessage(m.settings.MaxUploadBytes))
		return "", false
	}
	if m.downloader == nil || strings.TrimSpace(up.FileID) == "" {
		m.reply(ctx, sessionID, MessageInvalidFile)
		return "", false
	}
	if err := os.MkdirAll(m.settings.DownloadDir, 0o755); err != nil {
		logger.Error("create download dir failed", logging.Error(err))
		m.reply(ctx, sessionID, MessageDownloadFailed)
		return "", false
	}
	dest := filepath.Join(m.settings.DownloadDir, acquire.UploadName(up.Kind, up.FileID, up.FileName))

	dlCtx := ctx
	if m.settings.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, m.settings.DownloadTimeout)
		defer cancel()
	}
	if err := m.downloader.Download(dlCtx, up.FileID, dest); err != nil {
		_ = os.Remove(dest)
		logging.WarnWithContext(logger, "upload download failed", "upload_download_failed",
			logging.String("file_id", up.FileID),
			logging.String("kind", string(up.Kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check chat transport connectivity and file size limits"),
		)
		m.reply(ctx, sessionID, MessageDownloadFailed)
		return "", false
	}
	logger.Info("upload stored", logging.String("kind", string(up.Kind)), logging.String("path", dest))
	return dest, true
}

// process runs job with the session in Processing. The session is reset to
// ChoosingInput on every exit path, including panics in the pipeline.
func (m *Machine) process(ctx context.Context, sessionID int64, choice Choice, job pipeline.Job) {
	m.set(sessionID, Processing{Choice: choice, Job: job})
	defer m.reset(sessionID)

	logger := logging.WithContext(ctx, m.logger)
	result, err := m.run(ctx, job, sessionSink{replier: m.replier, sessionID: sessionID})
	if err != nil {
		logger.Info("run ended with failure",
			logging.String("run_id", result.RunID),
			logging.String("error_kind", string(services.Kind(err))),
		)
		m.reply(ctx, sessionID, FailureMessage(err))
		return
	}
	if result.Partial() {
		m.reply(ctx, sessionID, partialMessage(len(result.Delivered), len(result.Failures)))
	}
}

func (m *Machine) run(ctx context.Context, job pipeline.Job, sink pipeline.Sink) (result pipeline.Result, err error) {
	if m.runner == nil {
		return result, services.Wrap(services.ErrConfiguration, "conversation", "run", "No pipeline configured", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "pipeline panicked", "run_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return m.runner.Run(ctx, job, sink)
}

func (m *Machine) reply(ctx context.Context, sessionID int64, text string) {
	if m.replier == nil {
		return
	}
	if err := m.replier.Reply(ctx, sessionID, text); err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, m.logger).Warn("reply failed", logging.Error(err))
	}
}

func (m *Machine) menu(ctx context.Context, sessionID int64, text string) {
	if m.replier == nil {
		return
	}
	if err := m.replier.ShowMenu(ctx, sessionID, text, MenuLayout); err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, m.logger).Warn("menu reply failed", logging.Error(err))
	}
}

// command returns the bot command in text ("/start@mybot args" -> "/start").
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if fields := strings.Fields(text); len(fields) > 0 {
		text = fields[0]
	}
	if at := strings.IndexByte(text, '@'); at > 0 {
		text = text[:at]
	}
	return strings.ToLower(text)
}

// sessionSink routes pipeline output to one chat.
type sessionSink struct {
	replier   Replier
	sessionID int64
}

func (s sessionSink) Progress(ctx context.Context, text string) error {
	if s.replier == nil {
		return nil
	}
	return s.replier.Reply(ctx, s.sessionID, text)
}

func (s sessionSink) Deliver(ctx context.Context, path, caption string) error {
	if s.replier == nil {
		return errors.New("no chat transport configured")
	}
	return s.replier.SendDocument(ctx, s.sessionID, path, caption)
}
