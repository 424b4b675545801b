package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subtitler/internal/api"
	"subtitler/internal/deps"
	"subtitler/internal/preflight"
)

type depsReport struct {
	Dependencies []api.DependencyStatus `json:"dependencies"`
	Preflight    []preflightCheck       `json:"preflight,omitempty"`
}

type preflightCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var checks bool
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check that external tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			var results []preflight.Result
			if checks {
				results = preflight.RunAll(cmd.Context(), cfg)
			}
			if jsonOut {
				report := depsReport{Dependencies: api.FromDependencies(statuses)}
				for _, r := range results {
					report.Preflight = append(report.Preflight, preflightCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
				}
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, dep := range statuses {
					detail := dep.Detail
					if dep.Available {
						detail = dep.Command
					}
					rows = append(rows, []string{dep.Name, yesNo(dep.Available), yesNo(!dep.Optional), detail, dep.Description})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Available", "Required", "Detail", "Purpose"}, rows, nil))
				if len(results) > 0 {
					checkRows := make([][]string, 0, len(results))
					for _, r := range results {
						checkRows = append(checkRows, []string{r.Name, yesNo(r.Passed), r.Detail})
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Passed", "Detail"}, checkRows, nil))
				}
			}
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependency(ies) missing", len(missing))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&checks, "preflight", true, "Also check directories, free space, and configured APIs")
	return cmd
}
