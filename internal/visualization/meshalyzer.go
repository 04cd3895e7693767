// Package visualization launches meshalyzer on simulation output.
package visualization

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nvandessel/carprun/internal/constants"
	"github.com/nvandessel/carprun/internal/logging"
	"github.com/nvandessel/carprun/internal/pathutil"
)

// Inputs are the three positional arguments of meshalyzer.
type Inputs struct {
	Geometry string
	Data     string
	View     string
}

// Args returns the meshalyzer argv after the binary.
func (in Inputs) Args() []string {
	return []string{in.Geometry, in.Data, in.View}
}

// JobInputs returns the inputs for a finished job: the intracellular grid
// written by -gridout_i, the transmembrane voltage, and the view settings.
func JobInputs(jobDir, mesh, view string) Inputs {
	return Inputs{
		Geometry: filepath.Join(jobDir, filepath.Base(mesh)+constants.GeometrySuffix),
		Data:     filepath.Join(jobDir, constants.TransmembraneDataFile),
		View:     view,
	}
}

// Meshalyzer launches the visualizer.
type Meshalyzer struct {
	Binary string
	Logger *slog.Logger
	Events *logging.EventLogger

	// Stdout and Stderr receive meshalyzer output. Nil means the process's own.
	Stdout io.Writer
	Stderr io.Writer

	// Command creates the process. It defaults to exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// ShouldLaunch reports whether the visualizer runs after a simulation.
func ShouldLaunch(visualize, batch, dryRun bool) bool {
	return visualize && !batch && !dryRun
}

// Launch checks the inputs and runs meshalyzer, blocking until it exits.
func (m *Meshalyzer) Launch(ctx context.Context, in Inputs) error {
	if err := checkInputs(in); err != nil {
		return err
	}

	logger := m.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	newCmd := m.Command
	if newCmd == nil {
		newCmd = exec.CommandContext
	}
	cmd := newCmd(ctx, m.Binary, in.Args()...)
	cmd.Stdout = m.stdout()
	cmd.Stderr = m.stderr()

	logger.Info("launching meshalyzer", "geometry", pathutil.RedactPath(in.Geometry), "data", pathutil.RedactPath(in.Data))
	m.Events.Log("visualizer_launched", map[string]any{"binary": m.Binary, "args": in.Args()})

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("meshalyzer failed: %w", err)
	}
	return nil
}

func (m *Meshalyzer) stdout() io.Writer {
	if m.Stdout == nil {
		return os.Stdout
	}
	return m.Stdout
}

func (m *Meshalyzer) stderr() io.Writer {
	if m.Stderr == nil {
		return os.Stderr
	}
	return m.Stderr
}

// checkInputs verifies that the geometry points file, the compressed data
// file and the view file are present.
func checkInputs(in Inputs) error {
	if _, err := os.Stat(in.Geometry + ".pts"); err != nil {
		return fmt.Errorf("geometry %s: %w", pathutil.RedactPath(in.Geometry+".pts"), err)
	}
	if err := checkGzip(in.Data); err != nil {
		return fmt.Errorf("data %s: %w", pathutil.RedactPath(in.Data), err)
	}
	if _, err := os.Stat(in.View); err != nil {
		return fmt.Errorf("view %s: %w", pathutil.RedactPath(in.View), err)
	}
	return nil
}

// checkGzip reads the gzip header of path.
func checkGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("not a gzip file: %w", err)
	}
	defer zr.Close()

	// One byte is enough to reject a truncated header block.
	if _, err := zr.Read(make([]byte, 1)); err != nil && err != io.EOF {
		return fmt.Errorf("reading compressed data: %w", err)
	}
	return nil
}
