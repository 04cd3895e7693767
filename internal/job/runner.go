package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/carprun/internal/carp"
	"github.com/nvandessel/carprun/internal/logging"
)

// CommandFactory creates the process for argv. It defaults to exec.CommandContext.
type CommandFactory func(ctx context.Context, name string, args ...string) *exec.Cmd

// ExitError reports a simulator that ran but exited with a non-zero status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("simulator exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Result describes one simulator invocation.
type Result struct {
	Argv     []string
	Started  time.Time
	Finished time.Time
	ExitCode int
	DryRun   bool
}

// Runner launches the simulator.
type Runner struct {
	// Binary is the simulator executable.
	Binary string
	// Launcher is the MPI launcher used when NP > 1. Empty disables it.
	Launcher string
	// Root is the working directory of the simulator; job IDs are relative to it.
	Root string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Command CommandFactory
}

// Argv returns the full process argv for cmd: the simulator binary, behind
// "<launcher> -n <np>" when more than one process is requested.
func (r *Runner) Argv(p Params, cmd carp.Command) []string {
	var argv []string
	if p.NP > 1 && r.Launcher != "" {
		argv = append(argv, r.Launcher, "-n", strconv.Itoa(p.NP))
	}
	argv = append(argv, r.Binary)
	return append(argv, cmd.Args()...)
}

// Run executes cmd for job j and blocks until the simulator exits or ctx is
// cancelled. In dry-run mode the argv is printed and nothing is executed.
func (r *Runner) Run(ctx context.Context, j *Job, cmd carp.Command) (*Result, error) {
	logger := r.logger()
	argv := r.Argv(j.Params, cmd)
	res := &Result{Argv: argv, Started: time.Now(), DryRun: j.Params.DryRun}

	for _, f := range carp.Lint(cmd) {
		logger.Warn("repeated simulator option", "key", f.Key, "count", f.Count, "applied", f.Applied)
		j.Events.Log("lint", map[string]any{"key": f.Key, "count": f.Count, "applied": f.Applied})
	}

	if j.Params.DryRun {
		fmt.Fprintln(r.stdout(), Quote(argv))
		res.Finished = res.Started
		return res, nil
	}

	logger.Info("starting simulation", "job", j.ID, "np", j.Params.NP, "binary", argv[0])
	logger.Log(ctx, logging.LevelTrace, "simulator argv", "argv", Quote(argv))
	j.Events.Log("simulation_started", map[string]any{"job": j.ID, "argv": argv})

	newCmd := r.Command
	if newCmd == nil {
		newCmd = exec.CommandContext
	}
	c := newCmd(ctx, argv[0], argv[1:]...)
	c.Dir = r.Root
	c.Stdout = r.stdout()
	c.Stderr = r.stderr()

	err := c.Run()
	res.Finished = time.Now()
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	j.Events.Log("simulation_finished", map[string]any{
		"job":       j.ID,
		"exit_code": res.ExitCode,
		"duration":  res.Finished.Sub(res.Started).String(),
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("simulation interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ExitError{Code: res.ExitCode, Err: err}
		}
		return res, fmt.Errorf("failed to run simulator: %w", err)
	}

	logger.Info("simulation finished", "job", j.ID, "duration", res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// Quote renders argv as a single POSIX shell command line.
func Quote(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quoteArg(a)
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, c := range s {
		if !isShellSafe(c) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.ContainsRune("-_./+=:,@%", c)
}
