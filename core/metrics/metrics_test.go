package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		UpdatesTotal,
		HandlerDuration,
		HandlerPanics,
		PendingSelections,
		TelegramErrors,
		ProbesTotal,
	}

	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestCounterVecsAcceptLabels(t *testing.T) {
	before := testutil.ToFloat64(UpdatesTotal.WithLabelValues("text", "ok"))
	UpdatesTotal.WithLabelValues("text", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(UpdatesTotal.WithLabelValues("text", "ok")))

	ProbesTotal.WithLabelValues("GET", "200").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(ProbesTotal.WithLabelValues("GET", "200")), 1.0)

	PendingSelections.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(PendingSelections))
}
