package train_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grad-ml/grad/internal/train"
)

func TestMetrics_ObserveAndGather(t *testing.T) {
	metrics := train.NewMetrics()

	metrics.ObserveBatch(64, 2.3, 0.001)
	metrics.ObserveBatch(64, 1.9, 0.001)
	metrics.ObserveEval(0.87, 0.42)
	metrics.ObserveEpoch(1500 * time.Millisecond)

	families, err := metrics.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		name := family.GetName()
		metric := family.GetMetric()[0]
		switch {
		case metric.GetCounter() != nil:
			values[name] = metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			values[name] = metric.GetGauge().GetValue()
		}
	}

	require.InDelta(t, 2.0, values["grad_train_batches_total"], 1e-9)
	require.InDelta(t, 128.0, values["grad_train_samples_total"], 1e-9)
	require.InDelta(t, 1.9, values["grad_train_batch_loss"], 1e-6)
	require.InDelta(t, 0.87, values["grad_train_eval_accuracy"], 1e-6)
	require.InDelta(t, 0.42, values["grad_train_eval_loss"], 1e-6)
	require.InDelta(t, 0.001, values["grad_train_learning_rate"], 1e-9)
}

func TestMetrics_HandlerServesExposition(t *testing.T) {
	metrics := train.NewMetrics()
	metrics.ObserveBatch(32, 1.0, 0.01)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/metrics", nil)

	metrics.Handler().ServeHTTP(recorder, request)

	require.Equal(t, 200, recorder.Code)
	body := recorder.Body.String()
	require.True(t, strings.Contains(body, "grad_train_batches_total"),
		"exposition missing batch counter:\n%s", body)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two metric sets in one process must not collide on registration.
	first := train.NewMetrics()
	second := train.NewMetrics()

	first.ObserveBatch(1, 1.0, 0.1)
	second.ObserveBatch(1, 2.0, 0.2)

	families, err := second.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
