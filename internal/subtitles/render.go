package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/metrics"
	"subtitler/internal/transcription"
	"subtitler/internal/translation"
)

// Renderer converts transcripts into subtitle tracks.
type Renderer struct {
	translator translation.Translator
	logger     *slog.Logger
}

// NewRenderer constructs a Renderer. A nil translator behaves like
// translation.Disabled.
func NewRenderer(translator translation.Translator, logger *slog.Logger) *Renderer {
	if translator == nil {
		translator = translation.Disabled{}
	}
	return &Renderer{
		translator: translator,
		logger:     logging.NewComponentLogger(logger, "renderer"),
	}
}

// Render builds the track for target. Same-language tracks are copied without
// calling the translator. A segment whose translation fails keeps its source
// text and rendering continues with the next segment.
func (r *Renderer) Render(ctx context.Context, tr transcription.Transcript, source, target string) Track {
	source = normalizeCode(source)
	target = normalizeCode(target)
	track := Track{Language: target, Entries: make([]Entry, 0, len(tr.Segments))}
	logger := logging.WithContext(ctx, r.logger)
	translate := source != target

	for i, seg := range tr.Segments {
		text := strings.TrimSpace(seg.Text)
		if translate && text != "" {
			translated, err := r.translator.Translate(ctx, text, source, target)
			translated = strings.TrimSpace(translated)
			if err != nil || translated == "" {
				track.Fallbacks++
				metrics.TranslationFallbacks.WithLabelValues(target).Inc()
				logging.WarnWithContext(logger, "segment translation failed; using source text", "translation_fallback",
					logging.String("target", target),
					logging.Int("segment", i+1),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the translation backend; the track keeps the untranslated line"),
				)
			} else {
				text = translated
			}
		}
		track.Entries = append(track.Entries, Entry{Index: i + 1, Start: seg.Start, End: seg.End, Text: text})
	}
	metrics.SegmentsRendered.WithLabelValues(target).Add(float64(len(track.Entries)))
	return track
}

// TrackFile is a track written to disk.
type TrackFile struct {
	Target    Target
	Path      string
	Entries   int
	Fallbacks int
}

// TrackFailure is a target that could not be written.
type TrackFailure struct {
	Target Target
	Err    error
}

// RenderAll renders every target in parallel and writes each to
// dir/<FileName>. Both result slices keep the order of targets.
func (r *Renderer) RenderAll(ctx context.Context, tr transcription.Transcript, targets []Target, dir string) ([]TrackFile, []TrackFailure) {
	type outcome struct {
		file TrackFile
		err  error
	}
	results := make([]outcome, len(targets))
	var group errgroup.Group
	for i, target := range targets {
		group.Go(func() error {
			start := time.Now()
			track := r.Render(ctx, tr, tr.Language, target.Language)
			if err := ctx.Err(); err != nil {
				results[i] = outcome{err: fmt.Errorf("render %s: %w", target.Language, err)}
				return nil
			}
			path := filepath.Join(dir, target.FileName)
			if err := track.WriteFile(path); err != nil {
				results[i] = outcome{err: err}
				return nil
			}
			results[i] = outcome{file: TrackFile{Target: target, Path: path, Entries: len(track.Entries), Fallbacks: track.Fallbacks}}
			logging.WithContext(ctx, r.logger).Info("subtitle track written",
				logging.String("target", target.Language),
				logging.String("path", path),
				logging.Int("entries", len(track.Entries)),
				logging.Int("fallbacks", track.Fallbacks),
				logging.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}
	_ = group.Wait()

	var (
		files    []TrackFile
		failures []TrackFailure
	)
	for i, res := range results {
		if res.err != nil {
			failures = append(failures, TrackFailure{Target: targets[i], Err: res.err})
			continue
		}
		files = append(files, res.file)
	}
	return files, failures
}

func normalizeCode(code string) string {
	return language.Normalize(code)
}
