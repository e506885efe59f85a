package tracer

import (
	"context"
	"testing"

	"workspace-context-be/internal/config"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

func TestNewSampler(t *testing.T) {
	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	root := sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: traceID, Name: "GET /health"}

	tests := []struct {
		name  string
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{"always", 1, sdktrace.RecordAndSample},
		{"above one clamps to always", 3, sdktrace.RecordAndSample},
		{"never", 0, sdktrace.Drop},
		{"negative clamps to never", -1, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSampler(tt.ratio).ShouldSample(root).Decision
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSampler_FollowsSampledParent(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	res := newSampler(0).ShouldSample(sdktrace.SamplingParameters{ParentContext: ctx, TraceID: parent.TraceID(), Name: "ws"})

	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}

func TestNewResource(t *testing.T) {
	res := newResource(config.TracingConfig{ServiceVersion: "1.4.0", Environment: "staging"})

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}

	assert.Equal(t, serviceName, attrs[semconv.ServiceNameKey])
	assert.Equal(t, "1.4.0", attrs[semconv.ServiceVersionKey])
	assert.Equal(t, "staging", attrs[semconv.DeploymentEnvironmentKey])
}

func TestInitTracer_DisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}
