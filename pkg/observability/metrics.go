package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
)

// Metrics exposes engine counters to Prometheus. Wire it into an agent via
// Hooks(): every executed template, appended message, and backend call is
// accounted.
type Metrics struct {
	templatesTotal     *prometheus.CounterVec
	messagesTotal      *prometheus.CounterVec
	generateTotal      *prometheus.CounterVec
	generateDuration   prometheus.Histogram
	validationFailures prometheus.Counter
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		templatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weave",
			Name:      "templates_executed_total",
			Help:      "Template node executions, by node name and outcome.",
		}, []string{"template", "outcome"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weave",
			Name:      "messages_appended_total",
			Help:      "Messages appended to sessions, by role.",
		}, []string{"role"}),
		generateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weave",
			Name:      "generate_calls_total",
			Help:      "Calls to the generation backend, by outcome.",
		}, []string{"outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weave",
			Name:      "generate_duration_seconds",
			Help:      "Latency of generation backend calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weave",
			Name:      "validation_failures_total",
			Help:      "Generated or listed content rejected by a validator.",
		}),
	}
	reg.MustRegister(m.templatesTotal, m.messagesTotal, m.generateTotal, m.generateDuration, m.validationFailures)
	return m
}

// Hooks returns the hook set feeding these collectors.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnTemplateEnd: func(_ context.Context, ev *TemplateEvent) {
			m.templatesTotal.WithLabelValues(ev.Name, outcome(ev.Err)).Inc()
		},
		OnMessage: func(msg session.Message) {
			m.messagesTotal.WithLabelValues(string(msg.Role)).Inc()
		},
		OnGenerate: func(_ context.Context, ev *GenerateEvent) {
			m.generateTotal.WithLabelValues(outcome(ev.Err)).Inc()
			m.generateDuration.Observe(ev.Duration.Seconds())
		},
		OnValidationFailure: func(string, int) {
			m.validationFailures.Inc()
		},
	}
}

func outcome(err error) string {
	var gov *source.GovernorError
	if errors.As(err, &gov) {
		return "governor"
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
