package catalog

import "github.com/prometheus/client_golang/prometheus"

const labelOp = "op"

type storeMetrics struct {
	products     prometheus.Gauge
	mutations    *prometheus.CounterVec
	saveFailures prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	m := &storeMetrics{
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently held by the catalog",
		}),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Successful catalog mutations",
			},
			[]string{labelOp},
		),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_save_failures_total",
			Help: "Failed rewrites of the catalog file",
		}),
	}

	reg.MustRegister(m.products, m.mutations, m.saveFailures)
	return m
}

func (m *storeMetrics) mutated(op string, size int) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
	m.products.Set(float64(size))
}

func (m *storeMetrics) loaded(size int) {
	if m == nil {
		return
	}
	m.products.Set(float64(size))
}

func (m *storeMetrics) saveFailed() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}
