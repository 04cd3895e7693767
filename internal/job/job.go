// Package job names, prepares and runs simulator jobs.
package job

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nvandessel/carprun/internal/carp"
	"github.com/nvandessel/carprun/internal/constants"
	"github.com/nvandessel/carprun/internal/logging"
	"github.com/nvandessel/carprun/internal/pathutil"
)

// ErrJobExists is returned when the job directory exists and the overwrite
// behaviour is "error".
var ErrJobExists = errors.New("job directory already exists")

// Params are the user-facing inputs of one run.
type Params struct {
	Tend      float64
	NP        int
	Flavor    string
	Visualize bool
	DryRun    bool
	// ID overrides the generated job ID when non-empty.
	ID        string
	Overwrite constants.Overwrite
}

// Job is a prepared run: its ID and output directory.
type Job struct {
	ID     string
	Dir    string
	Params Params
	Events *logging.EventLogger
}

// Close releases the job's event log.
func (j *Job) Close() {
	j.Events.Close()
}

// ID returns the name of the top level output directory:
// <date>_simple_<tend>_<flavor>_np<np>.
func ID(now time.Time, p Params) string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%s_%s_%s_%s_np%d",
		now.Format(time.DateOnly), constants.ExampleLabel, carp.FormatFloat(p.Tend), p.Flavor, p.NP)
}

// Prepare resolves the job directory under root and applies the overwrite
// behaviour. A dry run only resolves names and touches nothing on disk.
func Prepare(now time.Time, root string, p Params, logLevel string) (*Job, error) {
	if p.NP < 1 {
		return nil, fmt.Errorf("number of processes must be at least 1, got %d", p.NP)
	}
	if p.Overwrite == "" {
		p.Overwrite = constants.OverwriteKeep
	}
	if !p.Overwrite.Valid() {
		return nil, fmt.Errorf("invalid overwrite behaviour: %s", p.Overwrite)
	}

	id := ID(now, p)
	dir, err := pathutil.JobDir(root, id)
	if err != nil {
		return nil, err
	}

	j := &Job{ID: id, Dir: dir, Params: p}
	if p.DryRun {
		return j, nil
	}

	if _, err := os.Stat(dir); err == nil {
		switch p.Overwrite {
		case constants.OverwriteError:
			return nil, fmt.Errorf("%w: %s", ErrJobExists, id)
		case constants.OverwriteDelete:
			if err := os.RemoveAll(dir); err != nil {
				return nil, fmt.Errorf("failed to remove job directory: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	j.Events = logging.NewEventLogger(dir, logLevel)
	return j, nil
}
