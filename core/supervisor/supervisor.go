// Package supervisor runs long-lived components side by side and stops them
// together.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/prefixbot/core/logger"
)

// ErrComponentExited is returned when a component stops before shutdown was requested.
var ErrComponentExited = errors.New("supervisor: component exited")

// Component is a long-lived part of the process. Run must call ready once it
// is serving, block until ctx is done, and return nil on a clean stop.
type Component interface {
	Name() string
	Run(ctx context.Context, ready func()) error
}

// Supervisor starts components concurrently and cancels all of them on the
// first failure or when the parent context ends.
type Supervisor struct {
	components []Component
	ready      chan struct{}
	pending    atomic.Int32
	now        func() time.Time
}

// New returns a supervisor over components.
func New(components ...Component) *Supervisor {
	s := &Supervisor{
		components: components,
		ready:      make(chan struct{}),
		now:        time.Now,
	}
	s.pending.Store(int32(len(components)))
	return s
}

// Ready is closed once every component has reported ready.
func (s *Supervisor) Ready() <-chan struct{} { return s.ready }

// Run blocks until all components have returned. It returns nil when they
// stopped because ctx ended, and the first component error otherwise.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.components) == 0 {
		return fmt.Errorf("supervisor: no components")
	}
	startedAt := s.now()
	g, gctx := errgroup.WithContext(ctx)

	for _, c := range s.components {
		c := c
		var once sync.Once
		markReady := func() {
			once.Do(func() { s.componentReady(gctx, c.Name(), startedAt) })
		}
		g.Go(func() error {
			err := c.Run(gctx, markReady)
			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				logger.LogEvent(gctx, logger.Sup, slog.LevelError, "component.failed",
					slog.String("status", "fail"),
					slog.String("name", c.Name()),
					slog.String("err", err.Error()),
				)
				return fmt.Errorf("supervisor: %s: %w", c.Name(), err)
			case gctx.Err() == nil:
				logger.LogEvent(gctx, logger.Sup, slog.LevelError, "component.exited",
					slog.String("status", "fail"),
					slog.String("name", c.Name()),
				)
				return fmt.Errorf("%w: %s", ErrComponentExited, c.Name())
			}
			logger.LogEvent(context.Background(), logger.Sup, slog.LevelInfo, "component.stopped",
				slog.String("status", "ok"),
				slog.String("name", c.Name()),
			)
			return nil
		})
	}

	<-gctx.Done()
	if ctx.Err() != nil {
		logger.LogEvent(context.Background(), logger.Component("app"), slog.LevelInfo, "shutdown",
			slog.String("status", "ok"),
			slog.Int("components", len(s.components)),
		)
	}
	return g.Wait()
}

func (s *Supervisor) componentReady(ctx context.Context, name string, startedAt time.Time) {
	logger.LogEvent(ctx, logger.Sup, slog.LevelDebug, "component.ready",
		slog.String("status", "ok"),
		slog.String("name", name),
	)
	if s.pending.Add(-1) != 0 {
		return
	}
	close(s.ready)
	logger.Component("app").LogAttrs(ctx, slog.LevelInfo, "app ready",
		slog.String("event", "ready"),
		slog.String("status", "ok"),
		slog.Int("components", len(s.components)),
		slog.Duration("startup_duration", logger.RoundMS(s.now().Sub(startedAt))),
	)
}
