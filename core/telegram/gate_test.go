package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDispatchGateWaitsForInFlight(t *testing.T) {
	var g dispatchGate
	entered := make(chan struct{})
	release := make(chan struct{})
	h := g.middleware(func(tele.Context) error {
		close(entered)
		<-release
		return nil
	})
	go func() { _ = h(nil) }()
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- g.close(context.Background()) }()

	select {
	case <-closed:
		t.Fatal("close returned while a dispatch was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-closed)
}

func TestDispatchGateDropsAfterClose(t *testing.T) {
	var g dispatchGate
	require.NoError(t, g.close(context.Background()))

	called := false
	err := g.middleware(func(tele.Context) error { called = true; return nil })(nil)

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestDispatchGateCloseHonoursContext(t *testing.T) {
	var g dispatchGate
	require.True(t, g.enter())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, g.close(ctx), context.DeadlineExceeded)
	g.wg.Done()
}
