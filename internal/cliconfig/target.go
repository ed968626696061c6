package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// Target is a resolved watch target.
type Target struct {
	// Path is the absolute target path.
	Path string

	// Dir is the directory the watcher subscribes to.
	Dir string

	// IsDir is true when the whole directory is watched.
	IsDir bool
}

// ResolveTarget stats cfg.Target. A directory is watched as a whole; any
// other path is watched as a single file, which need not exist yet but
// whose parent directory must. An empty OutputDir is set to the watched
// directory.
func ResolveTarget(cfg *Config) (Target, error) {
	if cfg.Target == "" {
		return Target{}, fmt.Errorf("%w: target is required", domain.ErrInvalidConfig)
	}
	abs, err := filepath.Abs(cfg.Target)
	if err != nil {
		return Target{}, fmt.Errorf("%w: target %s: %v", domain.ErrInvalidConfig, cfg.Target, err)
	}

	t := Target{Path: abs}
	fi, err := os.Stat(abs)
	switch {
	case err == nil && fi.IsDir():
		t.Dir = abs
		t.IsDir = true
	case err == nil || os.IsNotExist(err):
		t.Dir = filepath.Dir(abs)
		di, derr := os.Stat(t.Dir)
		if derr != nil || !di.IsDir() {
			return Target{}, fmt.Errorf("%w: target directory %s does not exist", domain.ErrInvalidConfig, t.Dir)
		}
	default:
		return Target{}, fmt.Errorf("%w: stat target %s: %v", domain.ErrInvalidConfig, abs, err)
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = t.Dir
	}
	return t, nil
}
