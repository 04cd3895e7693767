// Package store keeps the run history of carprun in SQLite.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulator invocation.
type Run struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	Tend       float64   `json:"tend"`
	NP         int       `json:"np"`
	Flavor     string    `json:"flavor"`
	Visualize  bool      `json:"visualize"`
	DryRun     bool      `json:"dry_run"`
	Argv       []string  `json:"argv"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the simulator exited cleanly.
func (r Run) Succeeded() bool {
	return r.Error == "" && r.ExitCode == 0
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStore records and queries runs.
type RunStore interface {
	// Record stores r, assigning an ID when r.ID is empty. It returns the ID.
	Record(ctx context.Context, r Run) (string, error)
	Get(ctx context.Context, id string) (*Run, error)
	// List returns the most recent runs first. limit <= 0 returns all runs.
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
