package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nvandessel/carprun/internal/config"
	"github.com/nvandessel/carprun/internal/constants"
	"github.com/nvandessel/carprun/internal/driver"
	"github.com/nvandessel/carprun/internal/job"
	"github.com/nvandessel/carprun/internal/logging"
	"github.com/nvandessel/carprun/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simple tissue example",
		Long: `Assemble the simulator command, run it in <root>/<job-id>, and record
the run in the history.

The job ID defaults to <date>_simple_<tend>_<flavor>_np<np>. With --visualize
the intracellular grid is written and meshalyzer is launched afterwards,
unless the platform is in batch mode.

Examples:
  carprun run                         # 20 ms on one process
  carprun run --tend 100 --np 8       # launched through mpiexec
  carprun run --dry                   # print the command only
  carprun run --visualize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")

			cfg, p, mesh, err := runParamsFromFlags(cmd)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			notifySignals(sigChan)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case sig := <-sigChan:
					logger.Warn("stopping simulation", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			d := driver.New(cfg, root, logger)
			d.Runner.Stdout = cmd.OutOrStdout()
			d.Runner.Stderr = cmd.ErrOrStderr()
			d.Visualizer.Stdout = cmd.OutOrStdout()
			d.Visualizer.Stderr = cmd.ErrOrStderr()
			if jsonOut {
				// Keep stdout for the JSON result.
				d.Runner.Stdout = cmd.ErrOrStderr()
				d.Visualizer.Stdout = cmd.ErrOrStderr()
			}

			history := openHistory(cfg, logger)
			if history != nil {
				defer history.Close()
				d.History = history
			}

			out, runErr := d.Run(ctx, p, mesh)

			if jsonOut {
				writeRunJSON(cmd.OutOrStdout(), out, runErr)
			} else if runErr == nil {
				printOutcome(cmd.OutOrStdout(), out)
			}
			return runErr
		},
	}

	addRunFlags(cmd)
	return cmd
}

func newCommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the assembled simulator command without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")

			cfg, p, mesh, err := runParamsFromFlags(cmd)
			if err != nil {
				return err
			}
			p.DryRun = true

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			plan, err := driver.New(cfg, root, logger).Plan(p, mesh)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(plan)
			}

			fmt.Fprintln(cmd.OutOrStdout(), job.Quote(plan.Argv))
			for _, f := range plan.Findings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", f.Message)
			}
			return nil
		},
	}

	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags shared by run and command.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("tend", constants.DefaultTend, "Duration of simulation (ms)")
	cmd.Flags().Int("np", constants.DefaultNP, "Number of processes (default from solver.np)")
	cmd.Flags().String("flavor", constants.DefaultFlavor, "Solver backend: "+strings.Join(constants.Flavors, ", ")+" (default from solver.flavor)")
	cmd.Flags().Bool("visualize", false, "Write the intracellular grid and show the result in meshalyzer")
	cmd.Flags().Bool("dry", false, "Print the command without running it")
	cmd.Flags().String("ID", "", "Job ID overriding the generated name")
	cmd.Flags().String("overwrite-behaviour", constants.OverwriteKeep.String(), "Existing job directory: overwrite, delete or error")
	cmd.Flags().String("mesh", "", "Mesh base name (default from solver.mesh)")
	cmd.Flags().Bool("batch", false, "Batch platform: never launch meshalyzer")
}

// runParamsFromFlags loads the configuration, applies the flags on top and
// returns the validated configuration, run parameters and mesh override.
func runParamsFromFlags(cmd *cobra.Command) (*config.CarpConfig, job.Params, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, job.Params{}, "", fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("np") {
		cfg.Solver.NP, _ = flags.GetInt("np")
	}
	if flags.Changed("flavor") {
		cfg.Solver.Flavor, _ = flags.GetString("flavor")
	}
	if batch, _ := flags.GetBool("batch"); batch {
		cfg.Platform.Batch = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, job.Params{}, "", err
	}

	overwrite, _ := flags.GetString("overwrite-behaviour")
	ow := constants.Overwrite(overwrite)
	if !ow.Valid() {
		return nil, job.Params{}, "", fmt.Errorf("invalid overwrite behaviour: %s (valid: overwrite, delete, error)", overwrite)
	}

	tend, _ := flags.GetFloat64("tend")
	visualize, _ := flags.GetBool("visualize")
	dry, _ := flags.GetBool("dry")
	id, _ := flags.GetString("ID")
	mesh, _ := flags.GetString("mesh")

	return cfg, job.Params{
		Tend:      tend,
		NP:        cfg.Solver.NP,
		Flavor:    cfg.Solver.Flavor,
		Visualize: visualize,
		DryRun:    dry,
		ID:        id,
		Overwrite: ow,
	}, mesh, nil
}

// openHistory opens the run ledger. Failures are logged and disable history
// for this run.
func openHistory(cfg *config.CarpConfig, logger *slog.Logger) store.RunStore {
	if !cfg.History.Enabled {
		return nil
	}

	path := cfg.History.Path
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			logger.Warn("run history disabled", "error", err)
			return nil
		}
	}

	s, err := store.NewSQLiteRunStore(path)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}
	return s
}

func printOutcome(w io.Writer, out *driver.Outcome) {
	if out.Result.DryRun {
		return
	}
	fmt.Fprintf(w, "Job %s finished in %s\n", out.Job.ID, out.Result.Finished.Sub(out.Result.Started).Round(time.Millisecond))
	fmt.Fprintf(w, "  Output: %s\n", out.Job.Dir)
	if out.RunID != "" {
		fmt.Fprintf(w, "  Run:    %s\n", out.RunID)
	}
}

func writeRunJSON(w io.Writer, out *driver.Outcome, runErr error) {
	result := map[string]interface{}{
		"status": "success",
	}
	if out != nil {
		result["job_id"] = out.Plan.JobID
		result["argv"] = out.Plan.Argv
		result["visualized"] = out.Visualized
		if len(out.Plan.Findings) > 0 {
			result["findings"] = out.Plan.Findings
		}
		if out.Job != nil {
			result["dir"] = out.Job.Dir
		}
		if out.Result != nil {
			result["dry_run"] = out.Result.DryRun
			result["exit_code"] = out.Result.ExitCode
			result["duration_ms"] = out.Result.Finished.Sub(out.Result.Started).Milliseconds()
		}
		if out.RunID != "" {
			result["run_id"] = out.RunID
		}
	}
	if runErr != nil {
		result["status"] = "error"
		result["error"] = runErr.Error()
	}
	json.NewEncoder(w).Encode(result)
}
