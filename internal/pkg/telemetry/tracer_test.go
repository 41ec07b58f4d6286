package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/samirrijal/streamgeo/internal/pkg/telemetry"
)

func TestStartSpan_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanDistance,
		attribute.Int(telemetry.AttrPoints, 8))
	telemetry.End(span, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != telemetry.SpanDistance {
		t.Errorf("expected span %q, got %q", telemetry.SpanDistance, s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	found := false
	for _, kv := range s.Attributes() {
		if string(kv.Key) == telemetry.AttrPoints && kv.Value.AsInt64() == 8 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s attribute, got %v", telemetry.AttrPoints, s.Attributes())
	}
}
