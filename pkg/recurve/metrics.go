package recurve

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	releases  prometheus.Counter
	flights   prometheus.Counter
	failures  prometheus.Counter
	committed prometheus.Gauge
	latency   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, name string) (*metrics, error) {
	labels := prometheus.Labels{"store": name}
	m := &metrics{
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recurve", Name: "releases_total",
			Help: "Batches committed.", ConstLabels: labels,
		}),
		flights: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recurve", Name: "flights_total",
			Help: "Flights written by committed batches.", ConstLabels: labels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recurve", Name: "release_failures_total",
			Help: "Batches that failed and were rolled back.", ConstLabels: labels,
		}),
		committed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "recurve", Name: "diary_committed_bytes",
			Help: "Committed diary length.", ConstLabels: labels,
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recurve", Name: "release_duration_seconds",
			Help: "Time to apply and commit a batch.", ConstLabels: labels,
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.releases, err = register(reg, m.releases)
	if err != nil {
		return nil, err
	}
	m.flights, err = register(reg, m.flights)
	if err != nil {
		return nil, err
	}
	m.failures, err = register(reg, m.failures)
	if err != nil {
		return nil, err
	}
	m.committed, err = register(reg, m.committed)
	if err != nil {
		return nil, err
	}
	m.latency, err = register(reg, m.latency)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered by an
// earlier connection to the same store.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "recurve: register metrics")
	}
	return c, nil
}
