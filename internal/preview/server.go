// Package preview serves a built site over HTTP while watch mode runs.
package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/marksite/internal/build"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/report"
)

const shutdownTimeout = 5 * time.Second

// BuildStatus exposes the state of the build the server reports on.
type BuildStatus interface {
	State() build.State
	LastReport() *report.BuildReport
}

// Server serves the output directory plus health and metrics endpoints.
type Server struct {
	dir     string
	status  BuildStatus
	metrics http.Handler
	logger  *slog.Logger
	adapter *errors.HTTPErrorAdapter
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server for the site generated into dir.
func New(dir string, status BuildStatus, opts ...Option) *Server {
	s := &Server{dir: dir, status: status, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.adapter = errors.NewHTTPErrorAdapter(s.logger)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chain(s.logger, s.adapter))
	r.Use(middleware.NoCache)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Handle("/*", http.FileServer(http.Dir(s.dir)))
	return r
}

// HealthResponse is the body of a successful /healthz response.
type HealthResponse struct {
	State      string `json:"state"`
	BuildID    string `json:"build_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Documents  int    `json:"documents"`
	Problems   int    `json:"problems"`
}

// handleHealth reports the last build. A failed build is reported through the
// error adapter so its category picks the status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.status.LastReport()
	if rep != nil && rep.Outcome == report.OutcomeFailed && rep.Err != nil {
		err := rep.Err
		if c, ok := errors.AsClassified(err); ok {
			err = c.WithContext("build_id", rep.ID)
		}
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := HealthResponse{State: s.status.State().String()}
	if rep != nil {
		resp.BuildID = rep.ID
		resp.Kind = string(rep.Kind)
		resp.Outcome = string(rep.Outcome)
		resp.DurationMS = rep.Duration().Milliseconds()
		resp.Documents = rep.Documents
		resp.Problems = rep.Problems.Count()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ListenAndServe serves on addr until ctx is done. Binding happens before it
// returns an error so a busy port is reported at once.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to bind preview server").
			WithContext("addr", addr).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("Preview server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WrapError(err, errors.CategoryRuntime, "preview server failed").Build()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "preview server shutdown failed").Build()
	}
	return nil
}
