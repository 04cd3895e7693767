package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSimFileNotFound is returned when no search directory holds the file.
var ErrSimFileNotFound = errors.New("simulation file not found")

// ResolveSimFile locates a simulation input file (parameter file, view
// settings). Absolute names are checked as given; relative names are tried
// against each search directory in order. The returned path is absolute.
func ResolveSimFile(name string, dirs []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("resolving simulation file: name is empty")
	}

	if filepath.IsAbs(name) {
		if isFile(name) {
			return filepath.Clean(name), nil
		}
		return "", fmt.Errorf("%w: %s", ErrSimFileNotFound, RedactPath(name))
	}

	for _, dir := range dirs {
		candidate, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if isFile(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched %s)", ErrSimFileNotFound, name, strings.Join(dirs, ", "))
}

// JobDir returns the absolute directory of job id under root and checks
// that it stays inside root.
func JobDir(root, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("job ID is empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving output root: %w", err)
	}
	dir := filepath.Join(absRoot, id)
	if dir == absRoot {
		return "", fmt.Errorf("job ID %q does not name a directory", id)
	}
	if err := ValidatePath(dir, []string{absRoot}); err != nil {
		return "", fmt.Errorf("job ID %q: %w", id, err)
	}
	return dir, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
