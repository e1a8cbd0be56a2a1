// Package build runs site builds. A build has two phases: Scanning loads
// every document, transforms it and fills the site index; Rendering starts
// only after the index is frozen and executes the page templates with
// backlinks, related pages and section listings the index now knows.
//
// Full builds write into a staging directory that replaces the output only
// on success. Markdown rebuilds rewrite generated pages in place and leave
// copied assets alone.
package build

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/marksite/internal/config"
	"git.home.luguber.info/inful/marksite/internal/highlight"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/metrics"
	"git.home.luguber.info/inful/marksite/internal/output"
	"git.home.luguber.info/inful/marksite/internal/report"
	"git.home.luguber.info/inful/marksite/internal/templates"
)

// Orchestrator owns the configuration, the templates and the output
// directory of one site. Builds are serialized; State and LastReport may be
// read concurrently.
type Orchestrator struct {
	root        string
	recorder    metrics.Recorder
	logger      *slog.Logger
	highlighter *highlight.Highlighter
	newID       func() string

	buildMu sync.Mutex
	cfg     *config.Config
	layout  config.Layout
	engine  *templates.Engine
	// written holds the output relative files generated from markdown by the
	// last successful build; markdown rebuilds prune what disappears from it.
	written     map[string]bool
	attachments map[string]bool

	mu         sync.RWMutex
	state      State
	lastReport *report.BuildReport
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder. nil keeps the no-op recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger build logs go to.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New loads the configuration and templates of the site rooted at root.
func New(root string, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		root:        root,
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		highlighter: highlight.New(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.Reload(); err != nil {
		return nil, err
	}
	return o, nil
}

// Reload re-reads the configuration and the templates. On error the
// previous configuration stays active.
func (o *Orchestrator) Reload() error {
	cfg, err := config.Load(o.root)
	if err != nil {
		return err
	}
	layout, err := config.NewLayout(o.root, cfg)
	if err != nil {
		return err
	}
	engine, err := templates.Load(layout.TemplatesDir)
	if err != nil {
		return err
	}

	o.buildMu.Lock()
	defer o.buildMu.Unlock()
	o.cfg = cfg
	o.layout = layout
	o.engine = engine
	o.logger.Debug("Loaded site configuration",
		logfields.Path(layout.ConfigFile),
		logfields.URL(cfg.URL),
		slog.Any("templates", engine.Names()))
	return nil
}

// Config returns the active configuration.
func (o *Orchestrator) Config() *config.Config {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()
	return o.cfg
}

// Layout returns the active directory layout.
func (o *Orchestrator) Layout() config.Layout {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()
	return o.layout
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastReport returns the report of the most recent build, or nil.
func (o *Orchestrator) LastReport() *report.BuildReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastReport
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	prev := o.state
	o.state = s
	o.mu.Unlock()
	if prev != s {
		o.logger.Debug("Build state changed", logfields.State(s.String()), slog.String("previous", prev.String()))
	}
}

// Build runs a full build and atomically replaces the output directory.
// The previous output is kept when the build fails.
func (o *Orchestrator) Build(ctx context.Context) (*report.BuildReport, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	rep, log := o.begin(report.KindFull)
	err := o.fullBuild(ctx, rep, log)
	return o.finish(rep, log, err)
}

func (o *Orchestrator) fullBuild(ctx context.Context, rep *report.BuildReport, log *slog.Logger) error {
	s, err := o.scan(ctx, rep, log)
	if err != nil {
		return err
	}
	files, err := o.render(s, rep)
	if err != nil {
		return err
	}

	start := time.Now()
	stage, err := output.BeginStaging(o.layout.OutputDir)
	if err != nil {
		return err
	}
	defer stage.Abort()

	attachments := attachmentSet(s)
	if err := o.copyAssets(stage.Dir(), attachments); err != nil {
		return err
	}
	written := make(map[string]bool, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := output.WriteFile(output.Join(stage.Dir(), f.rel), f.data); err != nil {
			return err
		}
		written[f.rel] = true
	}
	if err := stage.Finalize(); err != nil {
		return err
	}
	o.observeStage(rep, report.StageCommit, start)

	rep.Written = len(files)
	o.written = written
	o.attachments = attachments
	return nil
}

// RebuildMarkdown rescans every document and rewrites the generated pages in
// place. Pages generated by the previous build that no longer exist are
// removed; copied assets are left untouched.
func (o *Orchestrator) RebuildMarkdown(ctx context.Context) (*report.BuildReport, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	rep, log := o.begin(report.KindMarkdown)
	err := o.markdownBuild(ctx, rep, log)
	return o.finish(rep, log, err)
}

func (o *Orchestrator) markdownBuild(ctx context.Context, rep *report.BuildReport, log *slog.Logger) error {
	s, err := o.scan(ctx, rep, log)
	if err != nil {
		return err
	}
	files, err := o.render(s, rep)
	if err != nil {
		return err
	}

	start := time.Now()
	out := o.layout.OutputDir
	written := make(map[string]bool, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := output.WriteFileAtomic(output.Join(out, f.rel), f.data); err != nil {
			return err
		}
		written[f.rel] = true
	}
	var stale []string
	for rel := range o.written {
		if !written[rel] {
			stale = append(stale, rel)
		}
	}
	pruned, err := output.RemoveFiles(out, stale)
	if err != nil {
		return err
	}
	if pruned > 0 {
		log.Info("Removed stale pages", logfields.Count(pruned))
	}
	o.observeStage(rep, report.StageCommit, start)

	rep.Written = len(files)
	rep.Pruned = pruned
	o.written = written
	o.attachments = attachmentSet(s)
	return nil
}

// CopyAssets refreshes the public and attachment directories of the output
// without rebuilding any page.
func (o *Orchestrator) CopyAssets(ctx context.Context) (*report.BuildReport, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	rep, log := o.begin(report.KindAssets)
	err := ctx.Err()
	if err == nil {
		start := time.Now()
		err = output.EnsureDir(o.layout.OutputDir)
		if err == nil {
			err = o.copyAssets(o.layout.OutputDir, o.attachments)
		}
		o.observeStage(rep, report.StageAssets, start)
	}
	return o.finish(rep, log, err)
}

func (o *Orchestrator) begin(kind report.BuildKind) (*report.BuildReport, *slog.Logger) {
	rep := report.NewBuildReport(o.newID(), kind)
	log := o.logger.With(logfields.BuildID(rep.ID), logfields.Kind(string(kind)))
	o.recorder.SetBuildInProgress(true)
	log.Info("Build started", logfields.Path(o.layout.OutputDir))
	return rep, log
}

func (o *Orchestrator) finish(rep *report.BuildReport, log *slog.Logger, err error) (*report.BuildReport, error) {
	rep.Finish(err)
	o.recorder.SetBuildInProgress(false)
	o.recorder.ObserveBuildDuration(string(rep.Kind), rep.Duration())
	o.recorder.IncBuildOutcome(string(rep.Kind), string(rep.Outcome))
	o.recorder.AddDocumentsRendered(rep.Rendered)

	rep.Problems.Log(log)
	if err != nil {
		o.setState(StateFailed)
		log.Error("Build failed", logfields.Error(err), logfields.DurationMS(float64(rep.Duration().Microseconds())/1000))
	} else {
		o.setState(StateIdle)
		log.Info("Build completed",
			slog.String("outcome", string(rep.Outcome)),
			slog.Int("documents", rep.Documents),
			slog.Int("rendered", rep.Rendered),
			slog.Int("problems", rep.Problems.Count()),
			logfields.DurationMS(float64(rep.Duration().Microseconds())/1000))
	}

	o.mu.Lock()
	o.lastReport = rep
	o.mu.Unlock()
	return rep, err
}

func (o *Orchestrator) observeStage(rep *report.BuildReport, stage report.StageName, start time.Time) {
	d := rep.RecordStage(stage, start)
	o.recorder.ObserveStageDuration(string(stage), d)
}
