package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the running bot's status endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Status.Enabled {
				return fmt.Errorf("status endpoint is disabled (set status.enabled = true)")
			}
			status, err := fetchStatus(cmd.Context(), cfg.Status.Bind)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func fetchStatus(ctx context.Context, bind string) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+bind+"/api/status", nil)
	if err != nil {
		return status, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("contact bot at %s: %w (is `subtitler run` active?)", bind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return status, fmt.Errorf("status endpoint returned %s: %s", resp.Status, apiErr.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

func renderStatus(cmd *cobra.Command, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running:  %s\n", yesNo(status.Running))
	fmt.Fprintf(out, "PID:      %d\n", status.PID)
	fmt.Fprintf(out, "Bot:      @%s\n", status.Bot)
	fmt.Fprintf(out, "Backend:  %s\n", status.Backend)
	fmt.Fprintf(out, "Started:  %s\n", dash(status.StartedAt))
	fmt.Fprintf(out, "Sessions: %d active\n", status.ActiveSessions)
	fmt.Fprintf(out, "History:  %s\n", status.HistoryDBPath)

	names := make([]string, 0, len(status.RunStats))
	for name := range status.RunStats {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strconv.Itoa(status.RunStats[name]))
	}
	fmt.Fprintf(out, "Runs:     %s\n", strings.Join(parts, " "))

	if len(status.Dependencies) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Dependency", "Available", "Command"}, dependencyRowsFromAPI(status.Dependencies), nil))
	}
}

func dependencyRowsFromAPI(deps []api.DependencyStatus) [][]string {
	rows := make([][]string, 0, len(deps))
	for _, dep := range deps {
		rows = append(rows, []string{dep.Name, yesNo(dep.Available), dash(dep.Command)})
	}
	return rows
}
