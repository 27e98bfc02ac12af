package domain

import "time"

// EventType tags a session lifecycle event pushed to the console UI.
type EventType string

const (
	EventPhaseChanged     EventType = "phase.changed"
	EventFPSSample        EventType = "fps.sample"
	EventQualityDegraded  EventType = "quality.degraded"
	EventAtMinimumQuality EventType = "quality.at_minimum"
	EventAdapting         EventType = "session.adapting"
	EventSessionFailed    EventType = "session.failed"
	EventDeviceClipboard  EventType = "clipboard.device"
)

// Event is the wire shape of a session lifecycle notification. Fields are
// populated per type and omitted otherwise.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID SessionID    `json:"session_id,omitempty"`
	Phase     SessionPhase `json:"phase,omitempty"`
	Preset    string       `json:"preset,omitempty"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	FPS       float64      `json:"fps,omitempty"`
	Adapting  bool         `json:"adapting,omitempty"`
	Width     int          `json:"width,omitempty"`
	Height    int          `json:"height,omitempty"`
	Text      string       `json:"text,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
