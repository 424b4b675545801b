package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines   int
		follow  bool
		runID   string
		session string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the bot log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{}
			if runID != "" {
				filter.Contains = append(filter.Contains, runID)
			}
			if session != "" {
				filter.Contains = append(filter.Contains, session)
			}

			path := cfg.LogPath()
			out := cmd.OutOrStdout()
			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(cmd.Context(), path, offset, 500*time.Millisecond, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines mentioning this run id")
	cmd.Flags().StringVar(&session, "session", "", "Only show lines mentioning this chat session id")
	return cmd
}
