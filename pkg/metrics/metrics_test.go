package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	found := map[string]string{}
	for _, pair := range metric.GetLabel() {
		found[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if found[k] != v {
			return false
		}
	}
	return true
}

func TestObserveMutationLabelsResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.ObserveMutation("add_item", nil)
	m.ObserveMutation("add_item", errors.New("insufficient stock"))
	m.ObserveMutation("", nil)

	assert.Equal(t, 1.0, counterValue(t, reg, "cart_mutations_total", map[string]string{"op": "add_item", "result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "cart_mutations_total", map[string]string{"op": "add_item", "result": "rejected"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "cart_mutations_total", map[string]string{"op": "unknown", "result": "ok"}))
}

func TestObserveCheckout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.ObserveCheckout(nil)
	m.ObserveCheckout(errors.New("gateway declined"))

	assert.Equal(t, 1.0, counterValue(t, reg, "checkout_submissions_total", map[string]string{"result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "checkout_submissions_total", map[string]string{"result": "failed"}))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *CartMetrics
	m.ObserveMutation("add_item", nil)
	m.ObserveCheckout(nil)
	m.IncStorageDegradation()

	empty := NewCartMetrics(nil)
	empty.ObserveMutation("add_item", nil)
	empty.IncStorageDegradation()
}
