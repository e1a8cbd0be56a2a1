package watch

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/marksite/internal/events"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/report"
)

// Rebuilder is the build surface the builder goroutine drives.
type Rebuilder interface {
	Reload() error
	Build(ctx context.Context) (*report.BuildReport, error)
	RebuildMarkdown(ctx context.Context) (*report.BuildReport, error)
	CopyAssets(ctx context.Context) (*report.BuildReport, error)
}

// Builder executes RebuildNow plans one at a time. It is the only goroutine
// that touches the Rebuilder in watch mode.
type Builder struct {
	bus    *events.Bus
	target Rebuilder

	readyOnce sync.Once
	ready     chan struct{}
}

func NewBuilder(bus *events.Bus, target Rebuilder) *Builder {
	return &Builder{bus: bus, target: target, ready: make(chan struct{})}
}

// Ready is closed once Run subscribed to its events.
func (b *Builder) Ready() <-chan struct{} {
	return b.ready
}

// Run executes plans until ctx is done. A rebuild that started runs to
// completion even when ctx is canceled meanwhile.
func (b *Builder) Run(ctx context.Context) error {
	plans, unsubscribe := events.Subscribe[events.RebuildNow](b.bus, 1)
	defer unsubscribe()
	b.readyOnce.Do(func() { close(b.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-plans:
			if !ok {
				return nil
			}
			done := b.execute(context.WithoutCancel(ctx), p)
			if err := b.bus.Publish(ctx, done); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

func (b *Builder) execute(ctx context.Context, p events.RebuildNow) events.RebuildFinished {
	slog.Info("Rebuilding site",
		logfields.Kind(p.Kind.String()),
		slog.Int("changes", p.RequestCount),
		slog.String("cause", p.Cause))

	var (
		rep *report.BuildReport
		err error
	)
	switch p.Kind {
	case events.RebuildFull:
		if err = b.target.Reload(); err == nil {
			rep, err = b.target.Build(ctx)
		}
	case events.RebuildMarkdown:
		rep, err = b.target.RebuildMarkdown(ctx)
		if err == nil && p.Assets {
			rep, err = b.target.CopyAssets(ctx)
		}
	default:
		rep, err = b.target.CopyAssets(ctx)
	}

	done := events.RebuildFinished{Kind: p.Kind, Outcome: report.OutcomeFailed, Err: err}
	if rep != nil {
		done.BuildID = rep.ID
		done.Outcome = rep.Outcome
	}
	if err != nil {
		slog.Error("Rebuild failed; keeping previous output", logfields.Kind(p.Kind.String()), logfields.Error(err))
	}
	return done
}
