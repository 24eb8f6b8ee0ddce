package obs

import (
	"context"
	"testing"
)

func TestInitTracerNoneExporter(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{Exporter: "none"})
	if err != nil {
		t.Fatalf("init tracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracerRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracer(context.Background(), TracingConfig{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestSamplingRatioBounds(t *testing.T) {
	for in, want := range map[float64]float64{0: 1, -1: 1, 2: 1, 0.25: 0.25} {
		if got := samplingRatio(in); got != want {
			t.Fatalf("samplingRatio(%v) = %v, want %v", in, got, want)
		}
	}
}
