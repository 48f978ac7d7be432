package health

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/prefixbot/core/metrics"
)

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetAnyPathReturnsOK(t *testing.T) {
	h := New(Options{}).Handler()

	for _, target := range []string{"/", "/anything", "/deep/nested/path?x=1"} {
		rec := serve(t, h, http.MethodGet, target)

		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "OK", rec.Body.String(), target)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"), target)
	}
}

func TestHeadHasNoBody(t *testing.T) {
	rec := serve(t, New(Options{}).Handler(), http.MethodHead, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOtherMethodsRejected(t *testing.T) {
	h := New(Options{}).Handler()

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := serve(t, h, method, "/")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestWebhookEndpoint(t *testing.T) {
	enabled := New(Options{Webhook: true}).Handler()
	disabled := New(Options{}).Handler()

	assert.Equal(t, http.StatusOK, serve(t, enabled, http.MethodPost, "/webhook").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, disabled, http.MethodPost, "/webhook").Code)
	assert.Equal(t, http.StatusOK, serve(t, enabled, http.MethodGet, "/webhook").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.UpdatesTotal.WithLabelValues("text", "ok").Inc()
	h := New(Options{MetricsPath: "/metrics"}).Handler()

	rec := serve(t, h, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "prefixbot_updates_total")
	assert.Equal(t, "OK", serve(t, New(Options{}).Handler(), http.MethodGet, "/metrics").Body.String())
}

func TestProbesCounted(t *testing.T) {
	before := testutil.ToFloat64(metrics.ProbesTotal.WithLabelValues(http.MethodGet, "200"))

	serve(t, New(Options{}).Handler(), http.MethodGet, "/")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProbesTotal.WithLabelValues(http.MethodGet, "200")))
}

func TestProbesCustomMethodsShareOneSeries(t *testing.T) {
	h := New(Options{}).Handler()
	serve(t, h, "X-warmup", "/")
	before := testutil.CollectAndCount(metrics.ProbesTotal)

	for i := 0; i < 50; i++ {
		rec := serve(t, h, fmt.Sprintf("X%d", i), "/")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	}

	assert.Equal(t, before, testutil.CollectAndCount(metrics.ProbesTotal))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.ProbesTotal.WithLabelValues("other", "405")), float64(51))
}

func TestRunServesUntilCancelled(t *testing.T) {
	srv := New(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, func() { close(ready) }) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", strings.TrimSpace(string(body)))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunFailsWhenPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	called := false
	err = New(Options{Addr: ln.Addr().String()}).Run(context.Background(), func() { called = true })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "health: listen")
	assert.False(t, called)
}
