package monitoring

import (
	"context"
	"sync"
	"time"

	"droidcast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatusSource exposes the current session snapshot to monitoring probes.
type StatusSource interface {
	Status() domain.SessionStatus
}

var sessionPhases = []domain.SessionPhase{
	domain.PhaseIdle,
	domain.PhaseStarting,
	domain.PhaseActive,
	domain.PhaseAdapting,
	domain.PhaseStopped,
	domain.PhaseFailed,
}

// PrometheusCollector turns session lifecycle events into Prometheus series.
// It implements ports.EventSink, so it is registered next to the console
// bridge and sees the same event stream the UI does.
type PrometheusCollector struct {
	// Gauges
	sessionPhase  *prometheus.GaugeVec
	sessionPreset *prometheus.GaugeVec
	sessionFPS    prometheus.Gauge
	sessionUptime prometheus.Gauge

	// Counters
	sessionStarts   prometheus.Counter
	sessionFailures prometheus.Counter
	restarts        *prometheus.CounterVec
	degradations    prometheus.Counter
	minimumQuality  prometheus.Counter
	clipboardEvents prometheus.Counter

	// Histograms
	sessionDuration prometheus.Histogram

	mu         sync.Mutex
	inSession  bool
	startedAt  time.Time
	lastPreset string
}

// NewPrometheusCollector registers the droidcast metric set on reg. A nil
// registry falls back to the default one.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	p := &PrometheusCollector{
		sessionPhase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "droidcast_session_phase",
			Help: "Current session phase as a one-hot gauge",
		}, []string{"phase"}),

		sessionPreset: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "droidcast_session_preset",
			Help: "Active quality preset as a one-hot gauge",
		}, []string{"preset"}),

		sessionFPS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "droidcast_session_fps",
			Help: "Frames per second over the last measurement window",
		}),

		sessionUptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "droidcast_session_uptime_seconds",
			Help: "Seconds since the live session started, 0 when idle",
		}),

		sessionStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "droidcast_session_starts_total",
			Help: "Total number of sessions started",
		}),

		sessionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "droidcast_session_failures_total",
			Help: "Total number of sessions that ended in failure",
		}),

		restarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "droidcast_session_restarts_total",
			Help: "Total number of in-place session restarts by reason",
		}, []string{"reason"}),

		degradations: factory.NewCounter(prometheus.CounterOpts{
			Name: "droidcast_quality_degradations_total",
			Help: "Total number of automatic quality step-downs",
		}),

		minimumQuality: factory.NewCounter(prometheus.CounterOpts{
			Name: "droidcast_quality_at_minimum_total",
			Help: "Times low fps was reported with no lower preset to fall to",
		}),

		clipboardEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "droidcast_clipboard_events_total",
			Help: "Total number of device clipboard changes received",
		}),

		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "droidcast_session_duration_seconds",
			Help:    "Duration of finished sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	p.mu.Lock()
	p.setPhaseLocked(domain.PhaseIdle)
	p.mu.Unlock()
	return p
}

// Publish routes one session event into the metric set. It never blocks.
func (p *PrometheusCollector) Publish(event domain.Event) {
	switch event.Type {
	case domain.EventPhaseChanged:
		p.recordPhase(event)
	case domain.EventFPSSample:
		p.sessionFPS.Set(event.FPS)
	case domain.EventQualityDegraded:
		p.degradations.Inc()
	case domain.EventAtMinimumQuality:
		p.minimumQuality.Inc()
	case domain.EventAdapting:
		if event.Adapting {
			reason := event.Reason
			if reason == "" {
				reason = "unknown"
			}
			p.restarts.WithLabelValues(reason).Inc()
		}
	case domain.EventSessionFailed:
		p.sessionFailures.Inc()
	case domain.EventDeviceClipboard:
		p.clipboardEvents.Inc()
	}
}

func (p *PrometheusCollector) recordPhase(event domain.Event) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.setPhaseLocked(event.Phase)
	if event.Preset != "" {
		p.setPresetLocked(event.Preset)
	}

	// A session spans restarts: the adapting/starting churn in the middle
	// keeps it open, only stopped or failed closes it.
	live := event.Phase.Live()
	switch {
	case live && !p.inSession:
		p.inSession = true
		p.startedAt = ts
		p.sessionStarts.Inc()
	case !live && p.inSession:
		p.inSession = false
		p.sessionDuration.Observe(ts.Sub(p.startedAt).Seconds())
		p.sessionFPS.Set(0)
	}
}

func (p *PrometheusCollector) setPhaseLocked(phase domain.SessionPhase) {
	for _, ph := range sessionPhases {
		v := 0.0
		if ph == phase {
			v = 1
		}
		p.sessionPhase.WithLabelValues(string(ph)).Set(v)
	}
}

func (p *PrometheusCollector) setPresetLocked(name string) {
	if name == p.lastPreset {
		return
	}
	if p.lastPreset != "" {
		p.sessionPreset.WithLabelValues(p.lastPreset).Set(0)
	}
	p.sessionPreset.WithLabelValues(name).Set(1)
	p.lastPreset = name
}

// Run refreshes the uptime gauge from the session snapshot until ctx ends.
func (p *PrometheusCollector) Run(ctx context.Context, sessions StatusSource, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := sessions.Status()
			if st.Phase.Live() && !st.StartedAt.IsZero() {
				p.sessionUptime.Set(time.Since(st.StartedAt).Seconds())
			} else {
				p.sessionUptime.Set(0)
			}
		}
	}
}
