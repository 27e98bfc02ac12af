package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"droidcast/internal/core/ports"
	"droidcast/pkg/circuitbreaker"
	apperrors "droidcast/pkg/errors"
	"droidcast/pkg/retry"

	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

type fakeHandle struct{}

func (fakeHandle) Close() error { return nil }

// flakyTransport fails Provision a configurable number of times before
// succeeding.
type flakyTransport struct {
	failures int
	err      error
	calls    int
}

func (f *flakyTransport) Provision(ctx context.Context, spec ports.ProvisionSpec) (ports.ConnectionHandle, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return fakeHandle{}, nil
}

func (f *flakyTransport) OpenVideoStream(ctx context.Context, handle ports.ConnectionHandle) (ports.StreamMetadata, ports.FrameStream, error) {
	return ports.StreamMetadata{Width: 2, Height: 2, Codec: "rgba"}, nil, nil
}

func (f *flakyTransport) OpenController(handle ports.ConnectionHandle) (ports.DeviceController, error) {
	return nil, nil
}

func (f *flakyTransport) OpenClipboardStream(ctx context.Context, handle ports.ConnectionHandle) (ports.ClipboardStream, error) {
	return nil, nil
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		Enabled:      true,
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestProvision_RetriesTransientFailures(t *testing.T) {
	inner := &flakyTransport{failures: 2, err: errors.New("device busy")}
	rt := NewResilientTransport(inner, fastRetry(4), circuitbreaker.DefaultConfig(), zaptest.NewLogger(t).Sugar())

	handle, err := rt.Provision(context.Background(), ports.ProvisionSpec{BitRate: 1})
	if err != nil {
		t.Fatalf("expected provisioning to recover, got %v", err)
	}
	if handle == nil {
		t.Fatal("expected a connection handle")
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestProvision_DoesNotRetryCancellation(t *testing.T) {
	inner := &flakyTransport{failures: 10, err: context.Canceled}
	rt := NewResilientTransport(inner, fastRetry(4), circuitbreaker.DefaultConfig(), zaptest.NewLogger(t).Sugar())

	_, err := rt.Provision(context.Background(), ports.ProvisionSpec{BitRate: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to surface, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("cancellation must not be retried, got %d attempts", inner.calls)
	}
}

func TestProvision_DoesNotRetryInvalidSpec(t *testing.T) {
	inner := &flakyTransport{failures: 10, err: apperrors.NewInvalidInputError("bit rate must be positive")}
	rt := NewResilientTransport(inner, fastRetry(4), circuitbreaker.DefaultConfig(), zaptest.NewLogger(t).Sugar())

	_, err := rt.Provision(context.Background(), ports.ProvisionSpec{})
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("invalid input must not be retried, got %d attempts", inner.calls)
	}
}

func TestProvision_BreakerOpensAndShortCircuits(t *testing.T) {
	inner := &flakyTransport{failures: 100, err: errors.New("device unreachable")}
	cbCfg := circuitbreaker.Config{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Hour, HalfOpenMax: 1}
	rt := NewResilientTransport(inner, fastRetry(3), cbCfg, zaptest.NewLogger(t).Sugar())

	if _, err := rt.Provision(context.Background(), ports.ProvisionSpec{BitRate: 1}); err == nil {
		t.Fatal("expected provisioning to fail")
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts before the breaker opened, got %d", inner.calls)
	}
	if rt.BreakerState() != circuitbreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", rt.BreakerState())
	}

	// The next provisioning attempt is rejected without touching the device.
	if _, err := rt.Provision(context.Background(), ports.ProvisionSpec{BitRate: 1}); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("open breaker must not reach the device, got %d attempts", inner.calls)
	}
}

func TestProvision_EmitsTransportSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	inner := &flakyTransport{}
	rt := NewResilientTransport(inner, fastRetry(2), circuitbreaker.DefaultConfig(), zaptest.NewLogger(t).Sugar())

	if _, err := rt.Provision(context.Background(), ports.ProvisionSpec{BitRate: 8_000_000}); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "transport.provision" {
		t.Fatalf("spans = %d, want one transport.provision", len(spans))
	}
	var bitRate int64
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "bitrate" {
			bitRate = attr.Value.AsInt64()
		}
	}
	if bitRate != 8_000_000 {
		t.Errorf("bitrate attribute = %d, want 8000000", bitRate)
	}
}
