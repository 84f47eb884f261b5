package telemetry

import (
	"context"
	"testing"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "ytdl-test", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}
}

func TestTrimScheme(t *testing.T) {
	tests := map[string]string{
		"http://otel:4318":  "otel:4318",
		"https://otel:4318": "otel:4318",
		"otel:4318":         "otel:4318",
	}
	for in, want := range tests {
		if got := trimScheme(in); got != want {
			t.Errorf("trimScheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTracerStartsSpan(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	if span == nil {
		t.Fatal("expected span")
	}
}
