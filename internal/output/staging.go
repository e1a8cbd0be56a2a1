// Package output writes the generated site: staged full builds promoted with
// a rename, atomic per-file replacement for incremental builds, asset copies
// and pruning of stale files.
package output

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/logfields"
)

// Staging is an isolated directory a full build writes into. Finalize swaps
// it into place; Abort discards it and leaves the previous output untouched.
type Staging struct {
	final string
	dir   string
}

// BeginStaging creates <outputDir>_stage as a sibling of outputDir, removing
// leftovers of an earlier aborted run.
func BeginStaging(outputDir string) (*Staging, error) {
	stage := outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return nil, fsError(err, "failed to clear staging directory", stage)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return nil, fsError(err, "failed to create staging directory", stage)
	}
	slog.Debug("Initialized staging directory", logfields.Path(stage))
	return &Staging{final: outputDir, dir: stage}, nil
}

// Dir is the directory to write into.
func (s *Staging) Dir() string { return s.dir }

// Finalize promotes the staging directory to the output location:
//  1. move the existing output to <output>.prev
//  2. rename staging to output
//  3. remove the backup
func (s *Staging) Finalize() error {
	if s.dir == "" {
		return errors.InternalError("no staging directory initialized").Build()
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fsError(err, "staging directory missing", s.dir)
	}

	prev := s.final + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fsError(err, "failed to remove previous backup", prev)
	}
	if _, err := os.Stat(s.final); err == nil {
		if err := os.Rename(s.final, prev); err != nil {
			return fsError(err, "failed to back up existing output", s.final)
		}
	}
	if err := os.Rename(s.dir, s.final); err != nil {
		// Put the old output back so the site stays servable.
		_ = os.Rename(prev, s.final)
		return fsError(err, "failed to promote staging directory", s.dir)
	}
	s.dir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", logfields.Path(s.final))
	return nil
}

// Abort removes the staging directory. It is safe to call after Finalize.
func (s *Staging) Abort() {
	if s.dir == "" {
		return
	}
	dir := s.dir
	s.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", logfields.Path(dir), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", logfields.Path(dir))
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fsError(err, "failed to create directory", dir)
	}
	return nil
}

// Join resolves a slash separated output relative path under root.
func Join(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
