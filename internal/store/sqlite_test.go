package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(jobID string, started time.Time) Run {
	return Run{
		JobID:      jobID,
		Tend:       20,
		NP:         1,
		Flavor:     "petsc",
		Visualize:  true,
		Argv:       []string{"openCARP", "-tend", "20.0", "-phys_region[0].name", "Intracellular domain"},
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	}
}

func TestNewSQLiteRunStore_CreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := NewSQLiteRunStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("history.db was not created: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestSQLiteRunStore_RecordGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 19, 9, 0, 0, 123456789, time.UTC)

	id, err := s.Record(ctx, sampleRun("2026-10-19_simple_20.0_petsc_np1", started))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id == "" {
		t.Fatal("Record() returned empty ID")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := sampleRun("2026-10-19_simple_20.0_petsc_np1", started)
	want.ID = id

	if got.JobID != want.JobID || got.Tend != want.Tend || got.NP != want.NP || got.Flavor != want.Flavor {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if !got.Visualize || got.DryRun {
		t.Errorf("flags = visualize %v dry %v, want true false", got.Visualize, got.DryRun)
	}
	if !reflect.DeepEqual(got.Argv, want.Argv) {
		t.Errorf("Argv = %v, want %v", got.Argv, want.Argv)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got.Duration())
	}
	if !got.Succeeded() {
		t.Error("Succeeded() = false, want true")
	}
}

func TestSQLiteRunStore_RecordFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRun("job", time.Now())
	r.ID = "fixed-id"
	r.ExitCode = 1
	r.Error = "simulator exited with status 1"

	id, err := s.Record(ctx, r)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("Record() id = %q, want fixed-id", id)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ExitCode != 1 || got.Error != r.Error {
		t.Errorf("got exit %d error %q", got.ExitCode, got.Error)
	}
	if got.Succeeded() {
		t.Error("Succeeded() = true, want false")
	}
}

func TestSQLiteRunStore_RecordRequiresJobID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Record(context.Background(), Run{}); err == nil {
		t.Error("Record() without job ID succeeded")
	}
}

func TestSQLiteRunStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestSQLiteRunStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	// Sub-second offsets check ordering of fractional timestamps
	offsets := []time.Duration{
		500 * time.Millisecond,
		0,
		550 * time.Millisecond,
		2 * time.Hour,
	}
	for i, off := range offsets {
		r := sampleRun("job", base.Add(off))
		r.ID = string(rune('a' + i))
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	want := []string{"d", "c", "a", "b"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("List() order = %v, want %v", ids, want)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "d" {
		t.Errorf("List(2) = %v", limited)
	}
}

func TestSQLiteRunStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewSQLiteRunStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	id, err := s.Record(ctx, sampleRun("job", time.Now()))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteRunStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get(ctx, id); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestSQLiteRunStore_ImplementsRunStore(t *testing.T) {
	var _ RunStore = newTestStore(t)
}
