package domain

import "time"

type SessionID string

// SessionPhase is the lifecycle phase of the single mirroring session.
type SessionPhase string

const (
	PhaseIdle     SessionPhase = "idle"
	PhaseStarting SessionPhase = "starting"
	PhaseActive   SessionPhase = "active"
	PhaseAdapting SessionPhase = "adapting"
	PhaseStopped  SessionPhase = "stopped"
	PhaseFailed   SessionPhase = "failed"
)

// Live reports whether a session in this phase holds transport resources.
// Starting a new session is rejected while the current one is live.
func (p SessionPhase) Live() bool {
	return p == PhaseStarting || p == PhaseActive || p == PhaseAdapting
}

// SessionStatus is the read-only view of the current session exposed to the
// console UI.
type SessionStatus struct {
	ID          SessionID    `json:"id,omitempty"`
	Phase       SessionPhase `json:"phase"`
	Preset      string       `json:"preset,omitempty"`
	ScreenSize  Size         `json:"screen_size"`
	FPS         float64      `json:"fps"`
	Adapting    bool         `json:"adapting"`
	AutoAdapt   bool         `json:"auto_adapt"`
	DesktopMode bool         `json:"desktop_mode"`
	StartedAt   time.Time    `json:"started_at,omitempty"`
}

// TouchAction is a normalized pointer phase forwarded to the device.
type TouchAction string

const (
	TouchDown TouchAction = "down"
	TouchMove TouchAction = "move"
	TouchUp   TouchAction = "up"
)

// KeyAction is a key phase forwarded to the device.
type KeyAction string

const (
	KeyDown KeyAction = "down"
	KeyUp   KeyAction = "up"
)
