package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHealthCheckerAllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("one", func(ctx context.Context) (bool, error) { return true, nil }, time.Second, time.Second)
	h.AddCheck("two", func(ctx context.Context) (bool, error) { return true, nil }, time.Second, time.Second)

	status := h.CheckAll(context.Background())
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want %q", status.Status, "healthy")
	}
	if !h.IsReady(context.Background()) {
		t.Error("IsReady() = false, want true")
	}
}

func TestHealthCheckerReportsFailures(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("good", func(ctx context.Context) (bool, error) { return true, nil }, time.Second, time.Second)
	h.AddCheck("bad", func(ctx context.Context) (bool, error) { return false, nil }, time.Second, time.Second)
	h.AddCheck("broken", func(ctx context.Context) (bool, error) { return false, errors.New("boom") }, time.Second, time.Second)

	status := h.CheckAll(context.Background())
	if status.Status != "unhealthy" {
		t.Errorf("Status = %q, want %q", status.Status, "unhealthy")
	}
	if status.Checks["good"] != "healthy" {
		t.Errorf("Checks[good] = %q, want %q", status.Checks["good"], "healthy")
	}
	if status.Checks["bad"] != "check failed" {
		t.Errorf("Checks[bad] = %q, want %q", status.Checks["bad"], "check failed")
	}
	if status.Checks["broken"] != "boom" {
		t.Errorf("Checks[broken] = %q, want %q", status.Checks["broken"], "boom")
	}
	if h.IsReady(context.Background()) {
		t.Error("IsReady() = true, want false")
	}
}
