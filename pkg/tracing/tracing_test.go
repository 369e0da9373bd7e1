package tracing_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/tracing"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := tracing.Init(context.Background(), configs.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestInit_UnsupportedExporter(t *testing.T) {
	_, err := tracing.Init(context.Background(), configs.TracingConfig{
		Enabled:      true,
		ExporterType: "jaeger",
		MaxBatchSize: 1,
		MaxQueueSize: 1,
	})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestStartSpan_RecordError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := tracing.StartSpan(context.Background(), "service.Upload")
	tracing.RecordError(span, nil)
	tracing.RecordError(span, errors.New("boom"))
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d", len(spans))
	}

	if spans[0].Name() != "service.Upload" || spans[0].Status().Code != codes.Error {
		t.Fatalf("span = %s %v", spans[0].Name(), spans[0].Status())
	}
}
