package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subtitler/internal/acquire"
	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	"subtitler/internal/history"
	"subtitler/internal/notifications"
	"subtitler/internal/pipeline"
	"subtitler/internal/services"
)

// pipelineOptions supplies backend overrides for the process command. Tests
// replace it to avoid external tools.
var pipelineOptions = func(*config.Config) pipeline.Options { return pipeline.Options{} }

type processResult struct {
	RunID    string   `json:"runId"`
	Status   string   `json:"status"`
	Language string   `json:"language"`
	Segments int      `json:"segments"`
	Files    []string `json:"files"`
	Failed   []string `json:"failed,omitempty"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir     string
		kind       string
		resolution string
		notify     bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "process <file|url>",
		Short: "Generate subtitles for a local file or YouTube link without the bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job, err := buildJob(args[0], kind, resolution, cfg.Pipeline.DefaultResolution)
			if err != nil {
				return err
			}
			if strings.TrimSpace(outDir) == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			logger, err := ctx.cliLogger()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			opts := pipelineOptions(cfg)
			opts.History = store
			if !notify {
				opts.Notifier = notifications.NewService(nil)
			}
			svc, err := pipeline.Build(cfg, opts, logger)
			if err != nil {
				return err
			}

			progress := cmd.OutOrStdout()
			if jsonOut {
				progress = io.Discard
			}
			sink := &fileSink{out: progress, dir: outDir}
			result, runErr := svc.Run(cmd.Context(), job, sink)
			if runErr != nil {
				if hint := services.DiagnosticText(runErr); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), hint)
				}
				return runErr
			}

			summary := processResult{
				RunID:    result.RunID,
				Status:   string(result.Status),
				Language: result.Language,
				Segments: result.Segments,
				Files:    sink.saved,
			}
			for _, failure := range result.Failures {
				summary.Failed = append(summary.Failed, failure.Target.FileName)
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s %s (%s, %d segments)\n", summary.RunID, summary.Status, summary.Language, summary.Segments)
			for _, name := range summary.Failed {
				fmt.Fprintf(out, "Failed: %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory that receives the subtitle files")
	cmd.Flags().StringVar(&kind, "kind", string(acquire.KindVideo), "Local input kind recorded in history (video, audio, voice, document)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "Maximum video height for links, e.g. 480p (defaults to pipeline.default_resolution)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Publish ntfy notifications for this run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

// buildJob classifies the argument: http(s) links become remote jobs and
// anything else is treated as a local path.
func buildJob(arg, kind, resolution, defaultResolution string) (pipeline.Job, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		link, err := acquire.ValidateURL(arg)
		if err != nil {
			return pipeline.Job{}, err
		}
		if strings.TrimSpace(resolution) == "" {
			resolution = defaultResolution
		}
		height, err := acquire.ParseResolution(resolution)
		if err != nil {
			return pipeline.Job{}, err
		}
		return pipeline.Job{Kind: acquire.KindYouTube, URL: link, Resolution: height}, nil
	}

	k := acquire.Kind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case acquire.KindVideo, acquire.KindAudio, acquire.KindVoice, acquire.KindDocument:
	default:
		return pipeline.Job{}, fmt.Errorf("unsupported --kind %q", kind)
	}
	path, err := filepath.Abs(arg)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("resolve input path: %w", err)
	}
	return pipeline.Job{Kind: k, Path: path}, nil
}

// fileSink prints progress lines and copies delivered tracks into dir.
type fileSink struct {
	out   io.Writer
	dir   string
	saved []string
}

func (s *fileSink) Progress(_ context.Context, text string) error {
	_, err := fmt.Fprintln(s.out, text)
	return err
}

func (s *fileSink) Deliver(_ context.Context, path, _ string) error {
	target := filepath.Join(s.dir, filepath.Base(path))
	if err := fileutil.CopyFile(path, target); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	s.saved = append(s.saved, target)
	fmt.Fprintf(s.out, "Saved %s\n", target)
	return nil
}
