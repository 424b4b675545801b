package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subtitler/internal/config"
	"subtitler/internal/conversation"
	"subtitler/internal/deps"
	"subtitler/internal/history"
	"subtitler/internal/logging"
	"subtitler/internal/notifications"
)

// Transport is the chat connection the daemon polls and replies through.
type Transport interface {
	conversation.Replier
	conversation.Downloader
	Username() string
	Poll(ctx context.Context, timeoutSeconds int, handle func(conversation.Event)) error
}

// Dependencies are constructed by the caller and handed to New.
type Dependencies struct {
	Store     *history.Store
	Runner    conversation.Runner
	Transport Transport
	Notifier  notifications.Service
	// Backend names the recognizer for status output.
	Backend string
	Version string
}

// Daemon coordinates the bot runtime and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *history.Store
	transport Transport
	notifier  notifications.Service
	machine   *conversation.Machine
	backend   string
	version   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	Bot            string
	Backend        string
	StartedAt      time.Time
	ActiveSessions int
	HistoryPath    string
	LockFilePath   string
	Runs           map[history.Status]int
	Dependencies   []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, in Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || in.Store == nil || in.Runner == nil || in.Transport == nil {
		return nil, errors.New("daemon requires config, history store, pipeline runner, and transport")
	}
	notifier := in.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	machine := conversation.NewMachine(conversation.SettingsFromConfig(cfg), in.Transport, in.Transport, in.Runner, logger)
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     in.Store,
		transport: in.Transport,
		notifier:  notifier,
		machine:   machine,
		backend:   in.Backend,
		version:   in.Version,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Run serves the bot until ctx is cancelled. It returns nil on a clean
// shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subtitler daemon instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if n, err := d.store.MarkInterrupted(ctx); err != nil {
		d.logger.Warn("mark interrupted runs failed", logging.Error(err))
	} else if n > 0 {
		d.logger.Info("marked interrupted runs from previous process", logging.Int64("count", n))
	}

	d.started = time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	status, err := newStatusServer(d.cfg, d, d.logger)
	if err != nil {
		return err
	}
	if err := status.start(runCtx); err != nil {
		return err
	}
	defer status.stop()

	dispatcher := conversation.NewDispatcher(runCtx, d.machine, d.logger)
	d.logger.Info("subtitler daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("bot", d.transport.Username()),
		logging.String("backend", d.backend),
		logging.String("lock", d.lockPath),
	)
	if err := d.notifier.Publish(runCtx, notifications.EventDaemonStarted, notifications.Payload{"version": d.version}); err != nil {
		d.logger.Debug("startup notification failed", logging.Error(err))
	}

	pollErr := d.transport.Poll(runCtx, d.cfg.Telegram.PollTimeoutSeconds, func(ev conversation.Event) {
		dispatcher.Dispatch(ev)
	})
	cancel()
	d.logger.Info("waiting for session workers")
	dispatcher.Wait()
	d.logger.Info("subtitler daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))

	if pollErr != nil && !errors.Is(pollErr, context.Canceled) {
		return fmt.Errorf("poll updates: %w", pollErr)
	}
	return nil
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Bot:            d.transport.Username(),
		Backend:        d.backend,
		StartedAt:      d.started,
		ActiveSessions: d.machine.Sessions(),
		HistoryPath:    d.store.Path(),
		LockFilePath:   d.lockPath,
		Dependencies:   deps.CheckBinaries(deps.Requirements(d.cfg)),
	}
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Debug("history stats unavailable", logging.Error(err))
	}
	status.Runs = stats
	return status
}
