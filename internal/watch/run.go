// Package watch rebuilds a site when its sources change. Three goroutines
// cooperate over an event bus: the watcher classifies file system events,
// the coordinator coalesces them into rebuild plans and the builder runs one
// plan at a time.
package watch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/marksite/internal/config"
	"git.home.luguber.info/inful/marksite/internal/events"
	"git.home.luguber.info/inful/marksite/internal/metrics"
)

// Options configures Run.
type Options struct {
	Layout   config.Layout
	Config   *config.Config
	Target   Rebuilder
	Recorder metrics.Recorder
	// Extra goroutines started in the same group, such as the preview server.
	Extra []func(ctx context.Context) error
}

// Run watches the site until ctx is done or one goroutine fails.
func Run(ctx context.Context, opts Options) error {
	bus := events.NewBus()
	defer bus.Close()

	coordinator, err := NewCoordinator(bus, CoordinatorConfig{
		QuietWindow: opts.Config.Watch.Debounce,
		MaxDelay:    opts.Config.Watch.MaxDelay,
	})
	if err != nil {
		return err
	}
	watcher, err := NewWatcher(opts.Layout.Root, NewClassifier(opts.Layout, opts.Config), bus, opts.Recorder)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	builder := NewBuilder(bus, opts.Target)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return builder.Run(gctx) })
	g.Go(func() error { return coordinator.Run(gctx) })
	g.Go(func() error {
		// Events published before the consumers subscribed would be lost.
		select {
		case <-builder.Ready():
		case <-gctx.Done():
			return nil
		}
		select {
		case <-coordinator.Ready():
		case <-gctx.Done():
			return nil
		}
		return watcher.Run(gctx)
	})
	for _, fn := range opts.Extra {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
