package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nvandessel/carprun/internal/config"
	"github.com/nvandessel/carprun/internal/job"
	"github.com/nvandessel/carprun/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded simulator runs",
		Long: `Query the run history kept in ~/.carprun/history.db.

Examples:
  carprun history list              # 20 most recent runs
  carprun history list --limit 0    # all runs
  carprun history show <run-id>`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded.")
				return nil
			}
			fmt.Fprintf(w, "%-8s  %-40s  %-19s  %10s  %s\n", "RUN", "JOB", "STARTED", "DURATION", "STATUS")
			for _, r := range runs {
				fmt.Fprintf(w, "%-8s  %-40s  %-19s  %10s  %s\n",
					shortID(r.ID), r.JobID, r.StartedAt.Local().Format(time.DateTime),
					r.Duration().Round(time.Millisecond), runStatus(r))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs (0 for all)")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run, including the exact command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := findRun(cmd, s, args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(r)
			}
			printRun(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

// openHistoryStore opens the configured run history for querying.
func openHistoryStore() (*store.SQLiteRunStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.History.Path
	if path == "" {
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}

	s, err := store.NewSQLiteRunStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return s, nil
}

// findRun looks up a run by full ID, falling back to a unique prefix as
// printed by history list.
func findRun(cmd *cobra.Command, s store.RunStore, id string) (*store.Run, error) {
	r, err := s.Get(cmd.Context(), id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, store.ErrRunNotFound) {
		return nil, err
	}

	runs, err := s.List(cmd.Context(), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var match *store.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}
	return match, nil
}

func printRun(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "Run:       %s\n", r.ID)
	fmt.Fprintf(w, "Job:       %s\n", r.JobID)
	fmt.Fprintf(w, "Tend:      %g ms\n", r.Tend)
	fmt.Fprintf(w, "NP:        %d\n", r.NP)
	fmt.Fprintf(w, "Flavor:    %s\n", r.Flavor)
	fmt.Fprintf(w, "Visualize: %v\n", r.Visualize)
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:  %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Status:    %s\n", runStatus(*r))
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}
	fmt.Fprintf(w, "Command:   %s\n", job.Quote(r.Argv))
}

func runStatus(r store.Run) string {
	switch {
	case r.DryRun:
		return "dry-run"
	case r.Succeeded():
		return "ok"
	default:
		return fmt.Sprintf("failed (exit %d)", r.ExitCode)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
