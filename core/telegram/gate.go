package telegram

import (
	"context"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// dispatchGate tracks the update being handled so shutdown can wait for it
// before the client is stopped. Updates arriving after close are dropped.
type dispatchGate struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (g *dispatchGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *dispatchGate) middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !g.enter() {
			return nil
		}
		defer g.wg.Done()
		return next(c)
	}
}

// close stops admitting updates and waits for the in-flight one, or for ctx.
func (g *dispatchGate) close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
