package logger

import (
	"context"
	"testing"

	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedContextLogger() (*ContextLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewContextLogger(zap.New(core)), logs
}

func TestWithContext_ExtractsTraceAndIDs(t *testing.T) {
	cl, logs := newObservedContextLogger()

	tp := tracesdk.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")

	cl.WithContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()

	sc := span.SpanContext()
	if got := fields["trace_id"]; got != sc.TraceID().String() {
		t.Errorf("trace_id = %v, want %s", got, sc.TraceID().String())
	}
	if got := fields["span_id"]; got != sc.SpanID().String() {
		t.Errorf("span_id = %v, want %s", got, sc.SpanID().String())
	}
	if got := fields["request_id"]; got != "req-1" {
		t.Errorf("request_id = %v, want req-1", got)
	}
	if got := fields["session_id"]; got != "sess-1" {
		t.Errorf("session_id = %v, want sess-1", got)
	}
}

func TestWithContext_BareContextAddsNothing(t *testing.T) {
	cl, logs := newObservedContextLogger()

	cl.WithContext(context.Background()).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if fields := entries[0].ContextMap(); len(fields) != 0 {
		t.Errorf("fields = %v, want none", fields)
	}
}

func TestLogRequest(t *testing.T) {
	cl, logs := newObservedContextLogger()

	ctx := WithRequestID(context.Background(), "req-7")
	cl.LogRequest(ctx, "GET", "/api/v1/session", 200, 12)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Message != "http_request" {
		t.Errorf("message = %q, want http_request", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/api/v1/session" {
		t.Errorf("fields = %v, want method GET and path /api/v1/session", fields)
	}
	if fields["status_code"] != int64(200) {
		t.Errorf("status_code = %v, want 200", fields["status_code"])
	}
	if fields["duration_ms"] != int64(12) {
		t.Errorf("duration_ms = %v, want 12", fields["duration_ms"])
	}
	if fields["request_id"] != "req-7" {
		t.Errorf("request_id = %v, want req-7", fields["request_id"])
	}
}
