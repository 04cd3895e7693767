package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/nvandessel/carprun/internal/carp"
	"github.com/nvandessel/carprun/internal/logging"
)

// TestHelperProcess stands in for the simulator. It echoes its argv and
// exits with HELPER_EXIT_CODE.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	fmt.Fprintln(os.Stdout, strings.Join(args, " "))
	fmt.Fprintln(os.Stderr, "helper stderr")
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT_CODE"))
	os.Exit(code)
}

func helperCommand(exitCode int) CommandFactory {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_EXIT_CODE="+strconv.Itoa(exitCode))
		return cmd
	}
}

func testCommand() carp.Command {
	return carp.Command{
		carp.Opt("-simID", carp.Str("job")),
		carp.Opt("-tend", carp.Float(20)),
	}
}

func TestRunner_Argv(t *testing.T) {
	tests := []struct {
		name     string
		launcher string
		np       int
		want     []string
	}{
		{"single process runs directly", "mpiexec", 1, []string{"openCARP", "-simID", "job", "-tend", "20.0"}},
		{"multiple processes use launcher", "mpiexec", 4, []string{"mpiexec", "-n", "4", "openCARP", "-simID", "job", "-tend", "20.0"}},
		{"no launcher configured", "", 4, []string{"openCARP", "-simID", "job", "-tend", "20.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Runner{Binary: "openCARP", Launcher: tt.launcher}
			got := r.Argv(Params{NP: tt.np}, testCommand())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Argv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunner_DryRun(t *testing.T) {
	var stdout bytes.Buffer
	called := false
	r := &Runner{
		Binary: "openCARP",
		Stdout: &stdout,
		Command: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			called = true
			return exec.CommandContext(ctx, name, args...)
		},
	}
	j := &Job{ID: "job", Params: Params{NP: 1, DryRun: true}}

	res, err := r.Run(context.Background(), j, carp.Stimuli(carp.Stimulus{Name: "S1"}))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if called {
		t.Error("dry run executed a process")
	}
	if !res.DryRun {
		t.Error("Result.DryRun = false")
	}
	want := "openCARP -num_stim 1 '-stimulus[0].name' S1"
	if !strings.HasPrefix(stdout.String(), want) {
		t.Errorf("dry run output = %q, want prefix %q", stdout.String(), want)
	}
}

func TestRunner_Run(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := &Runner{
		Binary:  "openCARP",
		Root:    t.TempDir(),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Command: helperCommand(0),
	}
	dir := t.TempDir()
	j := &Job{ID: "job", Dir: dir, Params: Params{NP: 1}, Events: logging.NewEventLogger(dir, "debug")}
	defer j.Close()

	res, err := r.Run(context.Background(), j, testCommand())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "openCARP -simID job -tend 20.0" {
		t.Errorf("simulator saw %q", got)
	}
	if !strings.Contains(stderr.String(), "helper stderr") {
		t.Errorf("stderr not forwarded: %q", stderr.String())
	}
	if res.Finished.Before(res.Started) {
		t.Error("Finished before Started")
	}

	events, err := os.ReadFile(dir + "/carprun-events.jsonl")
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	for _, name := range []string{"simulation_started", "simulation_finished"} {
		if !strings.Contains(string(events), name) {
			t.Errorf("events missing %s: %s", name, events)
		}
	}
}

func TestRunner_RunNonZeroExit(t *testing.T) {
	r := &Runner{
		Binary:  "openCARP",
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
		Command: helperCommand(3),
	}
	j := &Job{ID: "job", Params: Params{NP: 1}}

	res, err := r.Run(context.Background(), j, testCommand())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d / %d, want 3", exitErr.Code, res.ExitCode)
	}
}

func TestRunner_RunMissingBinary(t *testing.T) {
	r := &Runner{Binary: "/nonexistent/openCARP", Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	j := &Job{ID: "job", Params: Params{NP: 1}}

	_, err := r.Run(context.Background(), j, testCommand())
	if err == nil {
		t.Fatal("Run() succeeded with missing binary")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("missing binary reported as exit status: %v", err)
	}
}

func TestRunner_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Binary: "openCARP", Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Command: helperCommand(0)}
	j := &Job{ID: "job", Params: Params{NP: 1}}

	_, err := r.Run(ctx, j, testCommand())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"plain", []string{"openCARP", "-tend", "20.0"}, "openCARP -tend 20.0"},
		{"brackets", []string{"-gregion[0].ID", "1"}, "'-gregion[0].ID' 1"},
		{"spaces", []string{"-phys_region[0].name", "Intracellular domain"}, "'-phys_region[0].name' 'Intracellular domain'"},
		{"single quote", []string{"it's"}, `'it'\''s'`},
		{"empty", []string{""}, "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quote(tt.argv); got != tt.want {
				t.Errorf("Quote() = %q, want %q", got, tt.want)
			}
		})
	}
}
