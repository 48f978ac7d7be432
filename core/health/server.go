// Package health serves the liveness endpoint probed by the hosting platform.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/prefixbot/core/buildinfo"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
)

// Body is the fixed liveness response.
const Body = "OK"

// Options configure the liveness server.
type Options struct {
	// Addr is the host:port to bind; ":0" picks a free port.
	Addr string
	// Webhook exposes a no-op POST /webhook.
	Webhook bool
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath     string
	ShutdownTimeout time.Duration
}

// Server answers GET and HEAD on every path with 200 "OK". It keeps no state
// and never logs individual requests.
type Server struct {
	opts    Options
	handler http.Handler

	mu   sync.Mutex
	addr net.Addr
}

// New builds the server; nothing is bound until Run.
func New(opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{opts: opts, handler: newRouter(opts)}
}

func newRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, promhttp.Handler())
	}
	if opts.Webhook {
		r.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<20))
			writeStatus(w, r, http.StatusOK)
		})
	}
	r.Get("/*", alive)
	r.Head("/*", alive)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusMethodNotAllowed)
	})
	return r
}

func alive(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusOK)
}

func writeStatus(w http.ResponseWriter, r *http.Request, code int) {
	metrics.ProbesTotal.WithLabelValues(methodLabel(r.Method), strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusOK && r.Method != http.MethodHead {
		_, _ = io.WriteString(w, Body)
		return
	}
	if code != http.StatusOK {
		_, _ = io.WriteString(w, http.StatusText(code))
	}
}

// methodLabel folds client-chosen methods into a fixed set of label values.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodPatch, http.MethodOptions:
		return method
	default:
		return "other"
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Name implements the supervisor component contract.
func (s *Server) Name() string { return "health" }

// Addr returns the bound address, or nil before Run bound the listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run binds the listener, reports ready and serves until ctx is done. In-flight
// requests are drained within ShutdownTimeout. A bind failure is returned as is.
func (s *Server) Run(ctx context.Context, ready func()) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Health.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	logger.LogEvent(ctx, logger.Health, slog.LevelInfo, "listening",
		slog.String("status", "ok"),
		slog.String("addr", ln.Addr().String()),
		slog.Bool("webhook", s.opts.Webhook),
		slog.String("metrics_path", s.opts.MetricsPath),
		slog.String("version", buildinfo.String()),
	)
	ready()

	select {
	case <-ctx.Done():
		start := time.Now()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("health: shutdown: %w", err)
		}
		<-serveErr
		logger.LogEvent(context.Background(), logger.Health, slog.LevelInfo, "stopped",
			slog.String("status", "ok"),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health: serve: %w", err)
	}
}
