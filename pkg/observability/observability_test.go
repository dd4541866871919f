package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/template"
)

func TestInstrumentFiresHooks(t *testing.T) {
	var started, ended []string
	hooks := Hooks{
		OnTemplateStart: func(_ context.Context, name string) {
			started = append(started, name)
		},
		OnTemplateEnd: func(_ context.Context, ev *TemplateEvent) {
			ended = append(ended, ev.Name)
		},
	}

	tmpl := Instrument("user", template.NewUserStatic("hi"), hooks)
	_, err := tmpl.Execute(context.Background(), session.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"user"}, started)
	assert.Equal(t, []string{"user"}, ended)
}

func TestInstrumentGenerator(t *testing.T) {
	var events []*GenerateEvent
	hooks := Hooks{
		OnGenerate: func(_ context.Context, ev *GenerateEvent) {
			events = append(events, ev)
		},
	}

	boom := errors.New("backend down")
	gen := InstrumentGenerator(ports.GeneratorFunc(
		func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
			return ports.ModelOutput{}, boom
		},
	), hooks)

	_, err := gen.Generate(context.Background(), session.New(), ports.GenerateOptions{Model: "m1"})
	assert.ErrorIs(t, err, boom)
	require.Len(t, events, 1)
	assert.Equal(t, "m1", events[0].Model)
	assert.ErrorIs(t, events[0].Err, boom)
}

func TestMergeFiresBothHalves(t *testing.T) {
	var calls []string
	a := Hooks{OnMessage: func(session.Message) { calls = append(calls, "a") }}
	b := Hooks{OnMessage: func(session.Message) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnMessage(session.Message{})
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestMetricsCountMessages(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hooks := metrics.Hooks()

	hooks.OnMessage(session.NewMessage(session.RoleUser, "x"))
	hooks.OnMessage(session.NewMessage(session.RoleUser, "y"))
	hooks.OnMessage(session.NewMessage(session.RoleAssistant, "z"))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.messagesTotal.WithLabelValues("user")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.messagesTotal.WithLabelValues("assistant")))
}

func TestMetricsCountGenerateOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hooks := metrics.Hooks()

	hooks.OnGenerate(context.Background(), &GenerateEvent{})
	hooks.OnGenerate(context.Background(), &GenerateEvent{Err: errors.New("x")})
	hooks.OnGenerate(context.Background(), &GenerateEvent{Err: &source.GovernorError{Limit: 1, Calls: 2}})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.generateTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.generateTotal.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.generateTotal.WithLabelValues("governor")))
}

func TestMetricsCountValidationFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hooks := metrics.Hooks()

	hooks.OnValidationFailure("answer in JSON", 1)
	hooks.OnValidationFailure("answer in JSON", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.validationFailures))
}
