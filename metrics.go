package reactive

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes router and match activity as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	eventsDispatched    prometheus.Counter
	handlerErrors       prometheus.Counter
	subscriptionsActive prometheus.Gauge
	teardowns           prometheus.Counter
	matchOutcomes       *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them
// with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		eventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Events handed to a subscription handler.",
		}),
		handlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Handler invocations that returned an error or panicked.",
		}),
		subscriptionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Router subscriptions that have not been torn down.",
		}),
		teardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardowns_total",
			Help:      "Subscriptions torn down.",
		}),
		matchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_outcomes_total",
			Help:      "Resolved matches by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.eventsDispatched,
			m.handlerErrors,
			m.subscriptionsActive,
			m.teardowns,
			m.matchOutcomes,
		)
	}
	return m
}

func (m *Metrics) dispatched() {
	if m != nil {
		m.eventsDispatched.Inc()
	}
}

func (m *Metrics) handlerFailed() {
	if m != nil {
		m.handlerErrors.Inc()
	}
}

func (m *Metrics) subscribed() {
	if m != nil {
		m.subscriptionsActive.Inc()
	}
}

func (m *Metrics) tornDown() {
	if m != nil {
		m.subscriptionsActive.Dec()
		m.teardowns.Inc()
	}
}

func (m *Metrics) matched(outcome string) {
	if m != nil {
		m.matchOutcomes.WithLabelValues(outcome).Inc()
	}
}
