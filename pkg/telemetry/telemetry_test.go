package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []*Config{nil, DefaultConfig()} {
		shutdown, err := Init(ctx, cfg)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if shutdown == nil {
			t.Fatal("Expected shutdown function to be non-nil")
		}
		if err := shutdown(ctx); err != nil {
			t.Errorf("Expected no error on shutdown, got %v", err)
		}
	}
}

func TestStartEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(original)

	_, span := StartSpan(context.Background(), "profile.parse", attribute.String("layout", "vanilla"))
	EndSpan(span, nil)

	_, span = StartSpan(context.Background(), "nbt.decode")
	EndSpan(span, errors.New("truncated"))

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}

	if ended[0].Name() != "profile.parse" {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	if got := ended[0].Attributes(); len(got) != 1 || got[0].Value.AsString() != "vanilla" {
		t.Errorf("unexpected attributes %v", got)
	}
	if ended[0].Status().Code != codes.Unset {
		t.Errorf("expected unset status, got %v", ended[0].Status().Code)
	}

	if ended[1].Status().Code != codes.Error || ended[1].Status().Description != "truncated" {
		t.Errorf("expected error status, got %+v", ended[1].Status())
	}
	if len(ended[1].Events()) != 1 {
		t.Errorf("expected the error to be recorded as an event")
	}
}
