package ports

import (
	"context"

	"droidcast/internal/core/domain"
)

// StartOptions selects what the session mirrors and at which quality.
// An empty Preset falls back to the configured default, an unknown one to
// the ladder default. HostBounds seeds resize reconciliation and, in desktop
// mode, the virtual display geometry.
type StartOptions struct {
	Preset      string
	DesktopMode bool
	HostBounds  domain.Size
}

type SessionService interface {
	Start(ctx context.Context, opts StartOptions) (domain.SessionStatus, error)
	Stop(ctx context.Context) error
	Status() domain.SessionStatus
	SelectPreset(ctx context.Context, name string) error
	SetAutoAdapt(enabled bool)
	ObserveHostResize(size domain.Size)
	Presets() []domain.QualityPreset
}

type InputService interface {
	Touch(action domain.TouchAction, x, y float64) error
	Key(action domain.KeyAction, keyCode int) error
	Text(text string) error
	PushClipboard(text string, paste bool) error
	SetScreenPower(on bool) error
	MapContainerPoint(x, y float64) (float64, float64, bool)
}
