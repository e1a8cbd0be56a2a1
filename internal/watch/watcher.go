package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/marksite/internal/events"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/metrics"
)

// Watcher turns file system notifications below a site root into
// ChangeDetected events. It never touches build state.
type Watcher struct {
	fs         *fsnotify.Watcher
	root       string
	classifier *Classifier
	bus        *events.Bus
	recorder   metrics.Recorder
}

// NewWatcher watches root and every directory below it except hidden ones
// and the generated output.
func NewWatcher(root string, classifier *Classifier, bus *events.Bus, recorder metrics.Recorder) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	w := &Watcher{fs: fw, root: root, classifier: classifier, bus: bus, recorder: recorder}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run forwards classified events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) error {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return nil
	}

	var kind events.RebuildKind
	switch {
	case ev.Has(fsnotify.Create) && isDir(ev.Name):
		if w.skipDir(ev.Name) {
			return nil
		}
		if err := w.addDirsRecursive(ev.Name); err != nil {
			slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
		}
		// Files created before the watch was added produce no event of their own.
		kind = w.classifier.ClassifyTree(ev.Name)
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		kind = w.classifier.ClassifyTree(ev.Name)
	default:
		kind = w.classifier.Classify(ev.Name)
	}
	if kind == events.RebuildNone {
		return nil
	}

	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()), logfields.Kind(kind.String()))
	w.recorder.IncRebuildRequest(kind.String())
	return w.bus.Publish(ctx, events.ChangeDetected{Kind: kind, Path: ev.Name, DetectedAt: time.Now()})
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) skipDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, out := range w.classifier.outputs {
		if within(out, path) {
			return true
		}
	}
	return false
}
