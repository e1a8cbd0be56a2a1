package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/marksite/internal/events"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/logfields"
)

// CoordinatorConfig controls change coalescing.
type CoordinatorConfig struct {
	// QuietWindow is how long the coordinator waits after the last change.
	QuietWindow time.Duration
	// MaxDelay bounds how long a steady stream of changes can postpone a rebuild.
	MaxDelay time.Duration
}

// plan is the merged scope of every change seen since the last dispatch.
type plan struct {
	kind   events.RebuildKind // none, markdown or full
	assets bool
	count  int
	first  time.Time
	last   time.Time
}

func (p *plan) add(ev events.ChangeDetected) {
	at := ev.DetectedAt
	if at.IsZero() {
		at = time.Now()
	}
	if p.count == 0 {
		p.first = at
	}
	p.last = at
	p.count++
	if ev.Kind == events.RebuildAssets {
		p.assets = true
		return
	}
	// Full supersedes markdown.
	if ev.Kind > p.kind {
		p.kind = ev.Kind
	}
}

func (p *plan) empty() bool { return p.count == 0 }

func (p *plan) event(cause string) events.RebuildNow {
	kind := p.kind
	if kind == events.RebuildNone {
		kind = events.RebuildAssets
	}
	return events.RebuildNow{
		Kind:         kind,
		Assets:       p.assets,
		RequestCount: p.count,
		FirstRequest: p.first,
		LastRequest:  p.last,
		Cause:        cause,
	}
}

// Coordinator merges ChangeDetected events into RebuildNow plans. A plan is
// dispatched after a quiet window (or the max delay) and only while no
// rebuild is running; changes arriving during a rebuild are held and
// dispatched as one follow-up once RebuildFinished arrives.
type Coordinator struct {
	bus *events.Bus
	cfg CoordinatorConfig

	readyOnce sync.Once
	ready     chan struct{}

	pending plan
	due     bool // timers fired while a rebuild was running
	running bool
}

func NewCoordinator(bus *events.Bus, cfg CoordinatorConfig) (*Coordinator, error) {
	if bus == nil {
		return nil, errors.ValidationError("bus is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, errors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, errors.ValidationError("max delay must be > 0").Build()
	}
	return &Coordinator{bus: bus, cfg: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once Run subscribed to its events.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// Run coordinates until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	changes, unsubChanges := events.Subscribe[events.ChangeDetected](c.bus, 64)
	defer unsubChanges()
	finished, unsubFinished := events.Subscribe[events.RebuildFinished](c.bus, 1)
	defer unsubFinished()

	c.readyOnce.Do(func() { close(c.ready) })

	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-changes:
			if !ok {
				return nil
			}
			c.pending.add(ev)
			resetTimer(quietTimer, c.cfg.QuietWindow)
			quietC = quietTimer.C
			if c.pending.count == 1 {
				resetTimer(maxTimer, c.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			quietC, maxC = nil, nil
			maxTimer.Stop()
			if err := c.tryDispatch(ctx, "quiet"); err != nil {
				return err
			}

		case <-maxC:
			quietC, maxC = nil, nil
			quietTimer.Stop()
			if err := c.tryDispatch(ctx, "max_delay"); err != nil {
				return err
			}

		case done, ok := <-finished:
			if !ok {
				return nil
			}
			c.running = false
			slog.Debug("Rebuild finished", logfields.Kind(done.Kind.String()), logfields.BuildID(done.BuildID))
			if c.due {
				if err := c.tryDispatch(ctx, "after_running"); err != nil {
					return err
				}
			}
		}
	}
}

// tryDispatch publishes the pending plan unless a rebuild is running, in
// which case the plan waits for RebuildFinished.
func (c *Coordinator) tryDispatch(ctx context.Context, cause string) error {
	if c.pending.empty() {
		return nil
	}
	if c.running {
		c.due = true
		return nil
	}
	ev := c.pending.event(cause)
	c.pending = plan{}
	c.due = false
	c.running = true
	slog.Debug("Dispatching rebuild",
		logfields.Kind(ev.Kind.String()),
		slog.Bool("assets", ev.Assets),
		slog.Int("requests", ev.RequestCount),
		slog.String("cause", cause))
	if err := c.bus.Publish(ctx, ev); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
