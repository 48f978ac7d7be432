package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	name     string
	startErr error
	exitNow  bool
	noReady  bool
	stopped  atomic.Bool
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Run(ctx context.Context, ready func()) error {
	if f.startErr != nil {
		return f.startErr
	}
	if !f.noReady {
		ready()
		ready()
	}
	if f.exitNow {
		return nil
	}
	<-ctx.Done()
	f.stopped.Store(true)
	return nil
}

func runAsync(ctx context.Context, s *Supervisor) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not return")
		return nil
	}
}

func TestReadyAfterAllComponents(t *testing.T) {
	a, b := &fakeComponent{name: "a"}, &fakeComponent{name: "b"}
	s := New(a, b)
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("never ready")
	}
	cancel()

	require.NoError(t, wait(t, done))
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
}

func TestNotReadyWhileComponentPending(t *testing.T) {
	s := New(&fakeComponent{name: "a"}, &fakeComponent{name: "slow", noReady: true})
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	select {
	case <-s.Ready():
		t.Fatal("ready before every component reported")
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	require.NoError(t, wait(t, done))
}

func TestFailureStopsOthers(t *testing.T) {
	boom := errors.New("bind failed")
	healthy := &fakeComponent{name: "telegram"}
	s := New(healthy, &fakeComponent{name: "health", startErr: boom})

	err := wait(t, runAsync(context.Background(), s))

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "supervisor: health")
	assert.True(t, healthy.stopped.Load())
}

func TestUnexpectedExitIsError(t *testing.T) {
	other := &fakeComponent{name: "health"}
	s := New(other, &fakeComponent{name: "telegram", exitNow: true})

	err := wait(t, runAsync(context.Background(), s))

	require.ErrorIs(t, err, ErrComponentExited)
	assert.True(t, other.stopped.Load())
}

func TestNoComponents(t *testing.T) {
	assert.Error(t, New().Run(context.Background()))
}
