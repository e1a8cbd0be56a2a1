package commands

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/marksite/internal/build"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/metrics"
	"git.home.luguber.info/inful/marksite/internal/preview"
	"git.home.luguber.info/inful/marksite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Port    int    `short:"p" help:"Preview server port" default:"8080"`
	Host    string `help:"Preview server bind address" default:"127.0.0.1"`
	NoServe bool   `name:"no-serve" help:"Rebuild on changes without serving the output"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	orch, err := build.New(root.Root, build.WithRecorder(rec))
	if err != nil {
		return err
	}
	rep, err := orch.Build(ctx)
	printSummary(g.out(), rep, root.Verbose)
	if err != nil {
		// A broken site is what watch mode is for; keep going and rebuild on the fix.
		slog.Error("Initial build failed; watching for changes", logfields.Error(err))
	}

	layout := orch.Layout()
	opts := watch.Options{
		Layout:   layout,
		Config:   orch.Config(),
		Target:   orch,
		Recorder: rec,
	}
	if !w.NoServe {
		srv := preview.New(layout.OutputDir, orch, preview.WithMetrics(metrics.HTTPHandler(reg)))
		opts.Extra = append(opts.Extra, func(ctx context.Context) error {
			return srv.ListenAndServe(ctx, net.JoinHostPort(w.Host, strconv.Itoa(w.Port)))
		})
	}

	slog.Info("Watching for changes", logfields.Path(layout.Root))
	if err := watch.Run(ctx, opts); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
