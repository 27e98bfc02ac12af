package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// PerformanceMonitor decides, with no knowledge of presets or transport,
// whether the active session's frame delivery rate is unacceptably and
// persistently low. Renderer draw calls feed it through RecordFrame; on a
// fixed interval it converts the count into an fps sample and tracks a
// streak of consecutive slow windows.
type PerformanceMonitor struct {
	logger *zap.SugaredLogger

	sampleInterval time.Duration
	fpsThreshold   float64
	streakLimit    int

	mu         sync.Mutex
	frames     int
	windowFrom time.Time
	slowStreak int
	lastFPS    float64
	onDegrade  func()
	onSample   func(fps float64)
	done       chan struct{}
	running    bool
}

// NewPerformanceMonitor creates a monitor for one session. The monitor does
// not sample until Start is called.
func NewPerformanceMonitor(sampleInterval time.Duration, fpsThreshold float64, streakLimit int, logger *zap.SugaredLogger) *PerformanceMonitor {
	return &PerformanceMonitor{
		logger:         logger,
		sampleInterval: sampleInterval,
		fpsThreshold:   fpsThreshold,
		streakLimit:    streakLimit,
	}
}

// RecordFrame counts one presented frame toward the current window.
func (m *PerformanceMonitor) RecordFrame() {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
}

// LastFPS returns the most recent fps sample for passive display. It is
// decoupled from the degradation decision.
func (m *PerformanceMonitor) LastFPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFPS
}

// OnSample registers a hook receiving every completed window's fps value,
// zero-frame windows included. Set it before Start.
func (m *PerformanceMonitor) OnSample(fn func(fps float64)) {
	m.mu.Lock()
	m.onSample = fn
	m.mu.Unlock()
}

// Start begins the sampling timer. onDegrade fires at most once per slow
// streak; the streak counter resets after firing so the signal cannot repeat
// immediately.
func (m *PerformanceMonitor) Start(onDegrade func()) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.onDegrade = onDegrade
	m.frames = 0
	m.slowStreak = 0
	m.lastFPS = 0
	m.windowFrom = time.Now()
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(m.done)
}

// Stop cancels the sampling timer and clears the callback so no post-stop
// signal can reach a disposed session. Safe to call more than once.
func (m *PerformanceMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.onDegrade = nil
	m.onSample = nil
	close(m.done)
	m.mu.Unlock()
}

func (m *PerformanceMonitor) run(done chan struct{}) {
	ticker := time.NewTicker(m.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			m.sample(now)
		}
	}
}

// sample closes the current window at the given instant. A zero-frame window
// means the stream is stalled entirely (for example mid-teardown); it is
// treated as no sample at all, leaving the slow streak untouched.
func (m *PerformanceMonitor) sample(now time.Time) {
	m.mu.Lock()

	frames := m.frames
	m.frames = 0
	elapsed := now.Sub(m.windowFrom).Seconds()
	m.windowFrom = now

	if elapsed <= 0 {
		m.mu.Unlock()
		return
	}

	fps := float64(frames) / elapsed
	m.lastFPS = fps
	emit := m.onSample

	if frames == 0 {
		m.mu.Unlock()
		if emit != nil {
			emit(fps)
		}
		return
	}

	var fire func()
	if fps < m.fpsThreshold {
		m.slowStreak++
		if m.slowStreak >= m.streakLimit {
			m.slowStreak = 0
			fire = m.onDegrade
		}
	} else {
		m.slowStreak = 0
	}
	streak := m.slowStreak
	m.mu.Unlock()

	if emit != nil {
		emit(fps)
	}
	if fire != nil {
		m.logger.Warnw("sustained low frame rate, requesting degradation",
			"fps", fps,
			"threshold", m.fpsThreshold,
		)
		fire()
		return
	}
	if streak > 0 {
		m.logger.Debugw("slow sampling window",
			"fps", fps,
			"threshold", m.fpsThreshold,
			"streak", streak,
		)
	}
}
