package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestStartSpanWithoutProvider(t *testing.T) {
	// No provider configured: the global no-op tracer must still hand back a
	// usable span.
	ctx := WithCorrelation(context.Background(), "corr-1")
	ctx, span := StartSpan(ctx, "test-tracer", "test-span")
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	defer span.End()
	if got := GetCorrelation(ctx); got != "corr-1" {
		t.Errorf("correlation lost across StartSpan: %q", got)
	}
}

func TestRecordError(t *testing.T) {
	_, span := StartSpan(context.Background(), "test-tracer", "test-span")
	defer span.End()

	RecordError(span, errors.New("dial refused"))
	RecordError(span, nil) // nil error is a no-op
}
