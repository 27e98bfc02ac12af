package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"droidcast/internal/core/domain"
)

// FrameCounter exposes the renderer's presented-frame counter.
type FrameCounter interface {
	Presented() uint64
}

// AddSessionCheck flags a session that ended in failure. Idle and stopped
// sessions are healthy, a failed one stays unhealthy until the next start.
func (h *HealthChecker) AddSessionCheck(sessions StatusSource, interval, timeout time.Duration) {
	h.AddCheck("session", func(ctx context.Context) (bool, error) {
		st := sessions.Status()
		if st.Phase == domain.PhaseFailed {
			return false, fmt.Errorf("session %s failed", st.ID)
		}
		return true, nil
	}, interval, timeout)
}

// AddPipelineCheck flags a stalled frame pipeline: an active session whose
// presented-frame counter has not moved for stallAfter. Phases other than
// active reset the baseline, restarts are not mistaken for stalls.
func (h *HealthChecker) AddPipelineCheck(sessions StatusSource, frames FrameCounter, stallAfter, interval, timeout time.Duration) {
	var (
		mu   sync.Mutex
		last uint64
		seen time.Time
	)

	h.AddCheck("pipeline", func(ctx context.Context) (bool, error) {
		st := sessions.Status()
		if st.Phase != domain.PhaseActive {
			mu.Lock()
			seen = time.Time{}
			mu.Unlock()
			return true, nil
		}

		count := frames.Presented()
		now := time.Now()

		mu.Lock()
		defer mu.Unlock()

		if seen.IsZero() || count != last {
			last = count
			seen = now
			return true, nil
		}
		if stalled := now.Sub(seen); stalled > stallAfter {
			return false, fmt.Errorf("no frames presented for %s", stalled.Truncate(time.Millisecond))
		}
		return true, nil
	}, interval, timeout)
}
