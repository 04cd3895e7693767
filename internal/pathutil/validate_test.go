package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	allowedDir := t.TempDir()
	otherDir := t.TempDir()

	subDir := filepath.Join(allowedDir, "2026-10-19_simple_20.0_petsc_np1")
	if err := os.MkdirAll(subDir, 0700); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		allowedDirs []string
		wantErr     bool
		errContains string
	}{
		{
			name:        "file inside allowed dir",
			path:        filepath.Join(allowedDir, "vm.igb.gz"),
			allowedDirs: []string{allowedDir},
		},
		{
			name:        "file in job directory",
			path:        filepath.Join(subDir, "vm.igb.gz"),
			allowedDirs: []string{allowedDir},
		},
		{
			name:        "directory that does not exist yet",
			path:        filepath.Join(allowedDir, "new_job", "nested"),
			allowedDirs: []string{allowedDir},
		},
		{
			name:        "exactly the allowed dir",
			path:        allowedDir,
			allowedDirs: []string{allowedDir},
		},
		{
			name:        "traversal with dot-dot",
			path:        filepath.Join(allowedDir, "..", "etc", "passwd"),
			allowedDirs: []string{allowedDir},
			wantErr:     true,
			errContains: "outside allowed directories",
		},
		{
			name:        "absolute path outside allowed dir",
			path:        filepath.Join(otherDir, "vm.igb.gz"),
			allowedDirs: []string{allowedDir},
			wantErr:     true,
			errContains: "outside allowed directories",
		},
		{
			name:        "null byte",
			path:        filepath.Join(allowedDir, "vm\x00.igb"),
			allowedDirs: []string{allowedDir},
			wantErr:     true,
			errContains: "null byte",
		},
		{
			name:        "empty path",
			path:        "",
			allowedDirs: []string{allowedDir},
			wantErr:     true,
			errContains: "empty",
		},
		{
			name:        "no allowed dirs",
			path:        filepath.Join(allowedDir, "vm.igb.gz"),
			allowedDirs: nil,
			wantErr:     true,
			errContains: "no allowed directories",
		},
		{
			name:        "matches second allowed dir",
			path:        filepath.Join(otherDir, "vm.igb.gz"),
			allowedDirs: []string{allowedDir, otherDir},
		},
		{
			name:        "sibling with common prefix",
			path:        allowedDir + "-other" + string(os.PathSeparator) + "x",
			allowedDirs: []string{allowedDir},
			wantErr:     true,
			errContains: "outside allowed directories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowedDirs)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidatePath() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidatePath_SymlinkOutsideAllowedDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not supported on Windows")
	}

	allowedDir := t.TempDir()
	outsideDir := t.TempDir()

	symlinkPath := filepath.Join(allowedDir, "escape")
	if err := os.Symlink(outsideDir, symlinkPath); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	err := ValidatePath(filepath.Join(symlinkPath, "vm.igb.gz"), []string{allowedDir})
	if err == nil || !strings.Contains(err.Error(), "outside allowed directories") {
		t.Errorf("ValidatePath() error = %v, want error about outside allowed directories", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"simple", "/home/user/sims/simple.par", ".../sims/simple.par"},
		{"root file", "/simple.par", "simple.par"},
		{"relative", "sims/simple.par", ".../sims/simple.par"},
		{"just filename", "simple.par", "simple.par"},
		{"trailing slash cleaned", "/home/user/.carprun/", ".../user/.carprun"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactPath(tt.input); got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
