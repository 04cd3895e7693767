// Package driver runs the simple tissue example end to end: it assembles
// the command, prepares the job, runs the simulator, records the run and
// launches the visualizer.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/carprun/internal/carp"
	"github.com/nvandessel/carprun/internal/config"
	"github.com/nvandessel/carprun/internal/constants"
	"github.com/nvandessel/carprun/internal/job"
	"github.com/nvandessel/carprun/internal/logging"
	"github.com/nvandessel/carprun/internal/pathutil"
	"github.com/nvandessel/carprun/internal/store"
	"github.com/nvandessel/carprun/internal/visualization"
)

// Plan is an assembled but not yet executed run.
type Plan struct {
	JobID    string         `json:"job_id"`
	ParFile  string         `json:"par_file"`
	Mesh     string         `json:"mesh"`
	Argv     []string       `json:"argv"`
	Findings []carp.Finding `json:"findings,omitempty"`

	Params  job.Params   `json:"-"`
	Command carp.Command `json:"-"`
}

// Outcome is the result of Run.
type Outcome struct {
	Plan       *Plan
	Job        *job.Job
	Result     *job.Result
	RunID      string
	Visualized bool
}

// Driver wires the collaborators of a run. History may be nil.
type Driver struct {
	Config     *config.CarpConfig
	Runner     *job.Runner
	Visualizer *visualization.Meshalyzer
	History    store.RunStore
	Logger     *slog.Logger
	Now        func() time.Time
}

// New returns a driver for cfg with default collaborators.
func New(cfg *config.CarpConfig, root string, logger *slog.Logger) *Driver {
	return &Driver{
		Config: cfg,
		Runner: &job.Runner{
			Binary:   cfg.Solver.Binary,
			Launcher: cfg.Solver.Launcher,
			Root:     root,
			Logger:   logger,
		},
		Visualizer: &visualization.Meshalyzer{
			Binary: cfg.Visualizer.Binary,
			Logger: logger,
		},
		Logger: logger,
		Now:    time.Now,
	}
}

// Plan assembles the command for p without touching the filesystem beyond
// locating the parameter file. mesh overrides the configured mesh when set.
func (d *Driver) Plan(p job.Params, mesh string) (*Plan, error) {
	return d.planAt(d.now(), p, mesh)
}

func (d *Driver) planAt(now time.Time, p job.Params, mesh string) (*Plan, error) {
	if mesh == "" {
		mesh = d.Config.Solver.Mesh
	}

	parFile, err := pathutil.ResolveSimFile(constants.ParFile, d.Config.Solver.SimDirs)
	if err != nil {
		if !p.DryRun {
			return nil, err
		}
		// A dry run still shows the command with the unresolved name.
		d.logger().Warn("parameter file not found", "file", constants.ParFile)
		parFile = constants.ParFile
	}

	jobID := job.ID(now, p)
	cmd := carp.Simple(carp.SimpleParams{
		ParFile:   parFile,
		JobID:     jobID,
		Mesh:      mesh,
		Tend:      p.Tend,
		Visualize: p.Visualize,
	})

	return &Plan{
		JobID:    jobID,
		ParFile:  parFile,
		Mesh:     mesh,
		Argv:     d.Runner.Argv(p, cmd),
		Findings: carp.Lint(cmd),
		Params:   p,
		Command:  cmd,
	}, nil
}

// Run executes the example. A simulator failure is recorded in the history
// before it is returned.
func (d *Driver) Run(ctx context.Context, p job.Params, mesh string) (*Outcome, error) {
	now := d.now()
	plan, err := d.planAt(now, p, mesh)
	if err != nil {
		return nil, err
	}

	j, err := job.Prepare(now, d.Runner.Root, p, d.Config.Logging.Level)
	if err != nil {
		return nil, err
	}
	defer j.Close()

	j.Events.Log("command_built", map[string]any{"job": j.ID, "options": len(plan.Command), "par_file": plan.ParFile})

	out := &Outcome{Plan: plan, Job: j}
	res, runErr := d.Runner.Run(ctx, j, plan.Command)
	out.Result = res
	out.RunID = d.record(ctx, plan, res, runErr)
	if runErr != nil {
		return out, runErr
	}

	if !visualization.ShouldLaunch(p.Visualize, d.Config.Platform.Batch, p.DryRun) {
		if p.Visualize && d.Config.Platform.Batch {
			d.logger().Info("batch platform, skipping meshalyzer")
		}
		return out, nil
	}

	view, err := pathutil.ResolveSimFile(constants.ViewFile, d.Config.Solver.SimDirs)
	if err != nil {
		return out, fmt.Errorf("visualization: %w", err)
	}

	vis := *d.Visualizer
	vis.Events = j.Events
	if err := vis.Launch(ctx, visualization.JobInputs(j.Dir, plan.Mesh, view)); err != nil {
		return out, err
	}
	out.Visualized = true
	return out, nil
}

// record stores the run in the history. Failures are logged, never returned.
func (d *Driver) record(ctx context.Context, plan *Plan, res *job.Result, runErr error) string {
	if d.History == nil || res == nil {
		return ""
	}

	r := store.Run{
		JobID:      plan.JobID,
		Tend:       plan.Params.Tend,
		NP:         plan.Params.NP,
		Flavor:     plan.Params.Flavor,
		Visualize:  plan.Params.Visualize,
		DryRun:     plan.Params.DryRun,
		Argv:       res.Argv,
		StartedAt:  res.Started,
		FinishedAt: res.Finished,
		ExitCode:   res.ExitCode,
	}
	if runErr != nil {
		r.Error = runErr.Error()
		var exitErr *job.ExitError
		if !errors.As(runErr, &exitErr) && r.ExitCode == 0 {
			r.ExitCode = -1
		}
	}

	// The run context may already be cancelled; the record must still land.
	id, err := d.History.Record(context.WithoutCancel(ctx), r)
	if err != nil {
		d.logger().Warn("failed to record run history", "error", err)
		return ""
	}
	d.logger().Debug("recorded run", "id", id, "job", plan.JobID)
	return id
}

func (d *Driver) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.Discard()
	}
	return d.Logger
}
