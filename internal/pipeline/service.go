package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subtitler/internal/acquire"
	"subtitler/internal/config"
	"subtitler/internal/history"
	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/media/audio"
	"subtitler/internal/metrics"
	"subtitler/internal/notifications"
	"subtitler/internal/services"
	"subtitler/internal/subtitles"
	"subtitler/internal/transcription"
)

// Stage names used in logs, metrics, and wrapped errors.
const (
	StageAcquire    = "acquire"
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageRender     = "render"
	StageDeliver    = "deliver"
)

// Progress messages sent to the user while a run is in flight.
const (
	MessageDownloading  = "⬇️ Downloading video..."
	MessageExtracting   = "🎧 Extracting audio..."
	MessageTranscribing = "⏳ Transcribing and detecting language..."
	MessageDone         = "✅ Subtitles generated and sent!"
)

// Dependencies are the collaborators a Service drives.
type Dependencies struct {
	Acquirer    *acquire.Acquirer
	Normalizer  *audio.Normalizer
	Transcriber *transcription.Service
	Renderer    *subtitles.Renderer
	History     *history.Store
	Notifier    notifications.Service
}

// Service executes pipeline runs. It is safe for concurrent use; runs share
// only the transcriber, which gates its own concurrency.
type Service struct {
	acquirer      *acquire.Acquirer
	normalizer    *audio.Normalizer
	transcriber   *transcription.Service
	renderer      *subtitles.Renderer
	history       *history.Store
	notifier      notifications.Service
	targets       []subtitles.Target
	outputDir     string
	downloadDir   string
	keepArtifacts bool
	deliverWithin time.Duration
	logger        *slog.Logger
	newRunID      func() string
}

// NewService constructs a Service from configuration and dependencies.
func NewService(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Service {
	targets := make([]subtitles.Target, 0, len(cfg.Pipeline.Targets))
	for _, t := range cfg.Pipeline.Targets {
		targets = append(targets, subtitles.Target{Language: t.Language, FileName: t.FileName})
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Service{
		acquirer:      deps.Acquirer,
		normalizer:    deps.Normalizer,
		transcriber:   deps.Transcriber,
		renderer:      deps.Renderer,
		history:       deps.History,
		notifier:      notifier,
		targets:       targets,
		outputDir:     cfg.Paths.OutputDir,
		downloadDir:   cfg.Paths.DownloadDir,
		keepArtifacts: cfg.Pipeline.KeepArtifacts,
		deliverWithin: config.Timeout(cfg.Pipeline.DeliveryTimeoutSeconds),
		logger:        logging.NewComponentLogger(logger, "pipeline"),
		newRunID:      uuid.NewString,
	}
}

// Targets returns the configured subtitle targets in delivery order.
func (s *Service) Targets() []subtitles.Target {
	return append([]subtitles.Target(nil), s.targets...)
}

// Run executes job and reports progress and files through sink. The returned
// error carries the failing stage and a services marker; Result is populated
// as far as the run progressed.
func (s *Service) Run(ctx context.Context, job Job, sink Sink) (Result, error) {
	runID := s.newRunID()
	result := Result{RunID: runID}
	ctx = services.WithRunID(ctx, runID)
	if job.SessionID != 0 {
		ctx = services.WithSessionID(ctx, job.SessionID)
	}
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	s.recordStart(ctx, logger, runID, job)
	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input_kind", string(job.Kind)),
		logging.String("source", job.Source()),
	)

	runDir := filepath.Join(s.outputDir, runID)
	defer func() {
		if s.keepArtifacts {
			return
		}
		if err := os.RemoveAll(runDir); err != nil {
			logger.Warn("remove run directory failed", logging.String("path", runDir), logging.Error(err))
		}
	}()

	err := s.execute(ctx, job, sink, runDir, &result)
	elapsed := time.Since(started)
	switch {
	case err != nil:
		result.Status = history.StatusFailed
	case len(result.Failures) > 0:
		result.Status = history.StatusPartial
	default:
		result.Status = history.StatusCompleted
	}
	metrics.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	s.recordFinish(ctx, logger, result, err)
	s.notify(ctx, logger, job, result, err, elapsed)

	if err != nil {
		logging.ErrorWithContext(logger, "pipeline run failed", "run_failure",
			logging.String("error_kind", string(services.Kind(err))),
			logging.Error(err),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return result, err
	}
	logger.Info("pipeline run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(result.Status)),
		logging.Int("tracks", len(result.Delivered)),
		logging.Int("failed_tracks", len(result.Failures)),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Service) execute(ctx context.Context, job Job, sink Sink, runDir string, result *Result) error {
	var media acquire.MediaReference
	err := s.stage(ctx, StageAcquire, func(ctx context.Context) error {
		var err error
		if job.Remote() {
			progress(ctx, sink, MessageDownloading)
			base := filepath.Join(s.downloadDir, "youtube_"+result.RunID)
			media, err = s.acquirer.AcquireRemote(ctx, job.URL, job.Resolution, base)
			return err
		}
		media, err = s.acquirer.Local(job.Path, job.Kind)
		return err
	})
	if err != nil {
		return err
	}
	defer s.removeDownloaded(ctx, media.Path)

	var audioPath string
	err = s.stage(ctx, StageNormalize, func(ctx context.Context) error {
		progress(ctx, sink, MessageExtracting)
		var err error
		audioPath, err = s.normalizer.Normalize(ctx, media.Path)
		return err
	})
	if audioPath != "" {
		defer func() {
			if rmErr := os.Remove(audioPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logging.WithContext(ctx, s.logger).Warn("remove normalized audio failed", logging.String("path", audioPath), logging.Error(rmErr))
			}
		}()
	}
	if err != nil {
		return err
	}

	var transcript transcription.Transcript
	err = s.stage(ctx, StageTranscribe, func(ctx context.Context) error {
		progress(ctx, sink, MessageTranscribing)
		var err error
		transcript, err = s.transcriber.Transcribe(ctx, audioPath)
		return err
	})
	if err != nil {
		return err
	}
	result.Language = transcript.Language
	result.Segments = len(transcript.Segments)
	progress(ctx, sink, "🌍 Detected input language: "+language.Describe(transcript.Language))

	var files []subtitles.TrackFile
	err = s.stage(ctx, StageRender, func(ctx context.Context) error {
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, StageRender, "mkdir", "Create run directory", err)
		}
		var failures []subtitles.TrackFailure
		files, failures = s.renderer.RenderAll(ctx, transcript, s.targets, runDir)
		result.Failures = append(result.Failures, failures...)
		s.checkTracks(ctx, files, transcript.Duration())
		if len(files) == 0 {
			return services.Wrap(services.ErrExternalTool, StageRender, "write", "No subtitle track could be written", joinFailures(failures))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.stage(ctx, StageDeliver, func(ctx context.Context) error {
		for _, file := range files {
			if err := s.deliver(ctx, sink, file); err != nil {
				result.Failures = append(result.Failures, subtitles.TrackFailure{Target: file.Target, Err: err})
				continue
			}
			result.Delivered = append(result.Delivered, file)
		}
		if len(result.Delivered) == 0 {
			return services.Wrap(services.ErrExternalTool, StageDeliver, "send", "No subtitle track could be delivered", joinFailures(result.Failures))
		}
		progress(ctx, sink, MessageDone)
		return nil
	})
}

// removeDownloaded deletes acquired media that the bot fetched into the
// downloads directory. Files from the input directory belong to the operator
// and are left alone.
func (s *Service) removeDownloaded(ctx context.Context, path string) {
	if s.keepArtifacts || path == "" || s.downloadDir == "" {
		return
	}
	rel, err := filepath.Rel(s.downloadDir, path)
	if err != nil || !filepath.IsLocal(rel) {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WithContext(ctx, s.logger).Warn("remove downloaded media failed", logging.String("path", path), logging.Error(err))
	}
}

// stage runs fn with stage context and timing. Errors without a services
// marker are tagged ErrExternalTool with the stage name.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		kind := services.Kind(err)
		metrics.Errors.WithLabelValues(name, string(kind)).Inc()
		logger.Debug("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", string(kind)),
			logging.Duration("elapsed", elapsed),
		)
		if kind == services.KindUnknown {
			return services.Wrap(services.ErrExternalTool, name, "", "", err)
		}
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (s *Service) deliver(ctx context.Context, sink Sink, file subtitles.TrackFile) error {
	deliverCtx := ctx
	if s.deliverWithin > 0 {
		var cancel context.CancelFunc
		deliverCtx, cancel = context.WithTimeout(ctx, s.deliverWithin)
		defer cancel()
	}
	caption := fmt.Sprintf("%s subtitles", language.DisplayName(file.Target.Language))
	if err := sink.Deliver(deliverCtx, file.Path, caption); err != nil {
		if errors.Is(deliverCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: delivery exceeded %s: %w", services.ErrTimeout, s.deliverWithin, err)
		}
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "subtitle delivery failed", "delivery_failure",
			logging.String("target", file.Target.Language),
			logging.String("path", file.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check chat transport connectivity"),
		)
		return err
	}
	return nil
}

func (s *Service) checkTracks(ctx context.Context, files []subtitles.TrackFile, mediaSeconds float64) {
	logger := logging.WithContext(ctx, s.logger)
	for _, file := range files {
		if file.Entries == 0 {
			continue
		}
		if issues := subtitles.ValidateSRT(file.Path, mediaSeconds); len(issues) > 0 {
			logging.WarnWithContext(logger, "subtitle track failed validation", "subtitle_validation",
				logging.String("target", file.Target.Language),
				logging.String("issues", strings.Join(issues, "; ")),
			)
		}
	}
}

func (s *Service) recordStart(ctx context.Context, logger *slog.Logger, runID string, job Job) {
	if s.history == nil {
		return
	}
	resolution := 0
	if job.Remote() {
		resolution = job.Resolution
	}
	if _, err := s.history.Start(ctx, history.Run{
		RunID:      runID,
		SessionID:  job.SessionID,
		InputKind:  string(job.Kind),
		Source:     job.Source(),
		Resolution: resolution,
	}); err != nil {
		logger.Warn("record run start failed", logging.Error(err))
	}
}

func (s *Service) recordFinish(ctx context.Context, logger *slog.Logger, result Result, runErr error) {
	if s.history == nil {
		return
	}
	tracks := make([]string, 0, len(result.Delivered))
	for _, file := range result.Delivered {
		tracks = append(tracks, file.Target.Language)
	}
	outcome := history.Outcome{
		Status:         result.Status,
		SourceLanguage: result.Language,
		Tracks:         tracks,
	}
	if runErr != nil {
		outcome.ErrorKind = string(services.Kind(runErr))
		outcome.ErrorMessage = runErr.Error()
		outcome.Diagnostic = services.DiagnosticText(runErr)
	} else if len(result.Failures) > 0 {
		outcome.ErrorMessage = joinFailures(result.Failures).Error()
	}
	// The run may have been cancelled; the history row must still be closed.
	if err := s.history.Finish(context.WithoutCancel(ctx), result.RunID, outcome); err != nil {
		logger.Warn("record run finish failed", logging.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, logger *slog.Logger, job Job, result Result, runErr error, elapsed time.Duration) {
	event := notifications.EventRunCompleted
	payload := notifications.Payload{
		"runID":        result.RunID,
		"source":       job.Source(),
		"tracks":       len(result.Delivered),
		"failedTracks": len(result.Failures),
		"duration":     elapsed,
	}
	if runErr != nil {
		event = notifications.EventRunFailed
		payload["error"] = runErr
		payload["errorKind"] = string(services.Kind(runErr))
	}
	if err := s.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Debug("run notification failed", logging.Error(err))
	}
}

func progress(ctx context.Context, sink Sink, text string) {
	if sink == nil {
		return
	}
	_ = sink.Progress(ctx, text)
}

func joinFailures(failures []subtitles.TrackFailure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Target.Language, f.Err))
	}
	return errors.Join(errs...)
}

func hintFor(err error) string {
	switch services.Kind(err) {
	case services.KindNotFound:
		return "the input file was missing when the stage started"
	case services.KindAcquisition:
		return "yt-dlp failed for both format selectors; check the URL and yt-dlp version"
	case services.KindTranscode:
		return "inspect the ffmpeg diagnostic stored in run history"
	case services.KindTranscription:
		return "check the transcription backend configuration"
	case services.KindTimeout:
		return "raise the matching pipeline timeout"
	default:
		return "check logs for details"
	}
}
