package store

import (
	"path/filepath"

	"github.com/nvandessel/carprun/internal/config"
)

// DefaultPath returns ~/.carprun/history.db.
func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
