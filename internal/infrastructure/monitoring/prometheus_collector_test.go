package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"droidcast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type statusStub struct {
	mu sync.Mutex
	st domain.SessionStatus
}

func (s *statusStub) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *statusStub) set(st domain.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func phaseEvent(phase domain.SessionPhase, preset string) domain.Event {
	return domain.Event{
		Type:      domain.EventPhaseChanged,
		SessionID: "sess-1",
		Phase:     phase,
		Preset:    preset,
		Timestamp: time.Now(),
	}
}

func TestCollectorPhaseGauge(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	if got := testutil.ToFloat64(c.sessionPhase.WithLabelValues("idle")); got != 1 {
		t.Errorf("initial phase idle = %v, want 1", got)
	}

	c.Publish(phaseEvent(domain.PhaseActive, "high"))

	if got := testutil.ToFloat64(c.sessionPhase.WithLabelValues("active")); got != 1 {
		t.Errorf("phase active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sessionPhase.WithLabelValues("idle")); got != 0 {
		t.Errorf("phase idle = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.sessionPreset.WithLabelValues("high")); got != 1 {
		t.Errorf("preset high = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sessionStarts); got != 1 {
		t.Errorf("session starts = %v, want 1", got)
	}
}

func TestCollectorSessionSpansRestarts(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.Publish(phaseEvent(domain.PhaseStarting, "high"))
	c.Publish(phaseEvent(domain.PhaseActive, "high"))
	c.Publish(phaseEvent(domain.PhaseAdapting, "high"))
	c.Publish(phaseEvent(domain.PhaseStarting, "standard"))
	c.Publish(phaseEvent(domain.PhaseActive, "standard"))

	if got := testutil.ToFloat64(c.sessionStarts); got != 1 {
		t.Errorf("session starts after restart = %v, want 1", got)
	}

	c.Publish(phaseEvent(domain.PhaseStopped, "standard"))
	c.Publish(phaseEvent(domain.PhaseActive, "standard"))

	if got := testutil.ToFloat64(c.sessionStarts); got != 2 {
		t.Errorf("session starts after stop and restart = %v, want 2", got)
	}
}

func TestCollectorPresetSwitch(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.Publish(phaseEvent(domain.PhaseActive, "high"))
	c.Publish(phaseEvent(domain.PhaseActive, "low"))

	if got := testutil.ToFloat64(c.sessionPreset.WithLabelValues("high")); got != 0 {
		t.Errorf("preset high = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.sessionPreset.WithLabelValues("low")); got != 1 {
		t.Errorf("preset low = %v, want 1", got)
	}
}

func TestCollectorRestartReasons(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	adapting := func(on bool, reason string) domain.Event {
		return domain.Event{Type: domain.EventAdapting, Adapting: on, Reason: reason}
	}

	c.Publish(adapting(true, "degrade"))
	c.Publish(adapting(false, "degrade"))
	c.Publish(adapting(true, "degrade"))
	c.Publish(adapting(true, "resize"))
	c.Publish(adapting(true, ""))

	if got := testutil.ToFloat64(c.restarts.WithLabelValues("degrade")); got != 2 {
		t.Errorf("restarts[degrade] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.restarts.WithLabelValues("resize")); got != 1 {
		t.Errorf("restarts[resize] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.restarts.WithLabelValues("unknown")); got != 1 {
		t.Errorf("restarts[unknown] = %v, want 1", got)
	}
}

func TestCollectorEventCounters(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.Publish(phaseEvent(domain.PhaseActive, "high"))
	c.Publish(domain.Event{Type: domain.EventFPSSample, FPS: 42.5})

	if got := testutil.ToFloat64(c.sessionFPS); got != 42.5 {
		t.Errorf("fps gauge = %v, want 42.5", got)
	}

	c.Publish(domain.Event{Type: domain.EventQualityDegraded, From: "high", To: "standard"})
	c.Publish(domain.Event{Type: domain.EventAtMinimumQuality, Preset: "low"})
	c.Publish(domain.Event{Type: domain.EventSessionFailed, Reason: "stream ended"})
	c.Publish(domain.Event{Type: domain.EventDeviceClipboard, Text: "hi"})
	c.Publish(domain.Event{Type: domain.EventDeviceClipboard, Text: "again"})

	if got := testutil.ToFloat64(c.degradations); got != 1 {
		t.Errorf("degradations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.minimumQuality); got != 1 {
		t.Errorf("at minimum = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sessionFailures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.clipboardEvents); got != 2 {
		t.Errorf("clipboard events = %v, want 2", got)
	}

	c.Publish(phaseEvent(domain.PhaseStopped, "high"))
	if got := testutil.ToFloat64(c.sessionFPS); got != 0 {
		t.Errorf("fps gauge after stop = %v, want 0", got)
	}
}

func TestCollectorRunUpdatesUptime(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())
	src := &statusStub{}
	src.set(domain.SessionStatus{
		Phase:     domain.PhaseActive,
		StartedAt: time.Now().Add(-30 * time.Second),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, src, 5*time.Millisecond)
	}()

	waitFor(t, func() bool {
		return testutil.ToFloat64(c.sessionUptime) > 0
	}, "uptime gauge to rise")

	src.set(domain.SessionStatus{Phase: domain.PhaseStopped})
	waitFor(t, func() bool {
		return testutil.ToFloat64(c.sessionUptime) == 0
	}, "uptime gauge to clear")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
