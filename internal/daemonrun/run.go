// Package daemonrun assembles the long-running bot process from configuration:
// logger, history store, pipeline, chat transport, and daemon.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"subtitler/internal/config"
	"subtitler/internal/daemon"
	"subtitler/internal/deps"
	"subtitler/internal/history"
	"subtitler/internal/logging"
	"subtitler/internal/notifications"
	"subtitler/internal/pipeline"
	"subtitler/internal/preflight"
	"subtitler/internal/services/telegram"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	Version  string
}

// Run starts the subtitler bot and blocks until SIGINT/SIGTERM or cmdCtx is
// cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	for _, dep := range deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg))) {
		logging.WarnWithContext(logger, "required dependency unavailable", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "install the binary or set its path under [tools]"),
		)
	}

	for _, check := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "subtitler.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	svc, err := pipeline.Build(cfg, pipeline.Options{History: store, Notifier: notifier}, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	bot, err := telegram.New(cfg.Telegram.Token, telegram.Options{}, logger)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}

	d, err := daemon.New(cfg, daemon.Dependencies{
		Store:     store,
		Runner:    svc,
		Transport: bot,
		Notifier:  notifier,
		Backend:   cfg.Transcription.Backend,
		Version:   opts.Version,
	}, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Run(signalCtx); err != nil {
		logger.Error("daemon stopped with error",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_failed"),
			logging.String(logging.FieldErrorHint, "check the bot token and network access"),
		)
		return err
	}
	logger.Info("subtitler daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("transcription_backend", cfg.Transcription.Backend),
		logging.String("translation_backend", cfg.Translation.Backend),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("status_enabled", cfg.Status.Enabled),
	}
	for _, dep := range deps.CheckBinaries(deps.Requirements(cfg)) {
		key := strings.ToLower(strings.ReplaceAll(dep.Name, "-", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", dep.Available),
			logging.String(key+"_binary", dep.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
