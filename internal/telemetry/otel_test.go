package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracer(t *testing.T) {
	for _, serviceName := range []string{"intently-test", ""} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		tp, err := InitTracer(ctx, serviceName, "localhost:4318")
		if err != nil {
			cancel()
			t.Fatalf("InitTracer(%q): %v", serviceName, err)
		}
		if err := Shutdown(ctx, tp); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
		cancel()
	}
}

func TestShutdownNilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown(nil) = %v, want nil", err)
	}
}
