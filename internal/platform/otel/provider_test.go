package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/turnforge/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("TURNFORGE_OTEL_ENDPOINT", "")
	t.Setenv("TURNFORGE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "turnforge-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	t.Setenv("TURNFORGE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("TURNFORGE_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "turnforge-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}
