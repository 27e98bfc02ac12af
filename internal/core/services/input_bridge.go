package services

import (
	"droidcast/internal/core/domain"
	"droidcast/pkg/errors"

	"go.uber.org/zap"
)

// InputBridge forwards console input to the device. Pointer coordinates
// arrive normalized to the video region and are scaled against the
// device-reported stream geometry, never the requested one. Input received
// while no session is Active is dropped silently: the UI keeps emitting
// events while a session tears down or restarts, and those must not surface
// as errors.
type InputBridge struct {
	sessions *SessionController
	logger   *zap.SugaredLogger
}

func NewInputBridge(sessions *SessionController, logger *zap.SugaredLogger) *InputBridge {
	return &InputBridge{sessions: sessions, logger: logger}
}

// Touch injects a pointer event. x and y are fractions of the video region
// in [0,1]; out-of-range values clamp to the nearest edge.
func (b *InputBridge) Touch(action domain.TouchAction, x, y float64) error {
	control, screen, ok := b.sessions.injectionState()
	if !ok {
		return nil
	}
	px := scaleCoord(x, screen.Width)
	py := scaleCoord(y, screen.Height)
	if err := control.InjectTouch(action, px, py); err != nil {
		b.logger.Warnw("touch injection failed",
			"action", action,
			"x", px,
			"y", py,
			"error", err,
		)
		return errors.NewInjectionError("touch injection failed", err)
	}
	return nil
}

// Key injects a key event using the device's numeric key codes.
func (b *InputBridge) Key(action domain.KeyAction, keyCode int) error {
	control, _, ok := b.sessions.injectionState()
	if !ok {
		return nil
	}
	if err := control.InjectKey(action, keyCode); err != nil {
		b.logger.Warnw("key injection failed",
			"action", action,
			"key_code", keyCode,
			"error", err,
		)
		return errors.NewInjectionError("key injection failed", err)
	}
	return nil
}

// Text types a string on the device.
func (b *InputBridge) Text(text string) error {
	control, _, ok := b.sessions.injectionState()
	if !ok {
		return nil
	}
	if err := control.InjectText(text); err != nil {
		b.logger.Warnw("text injection failed", "length", len(text), "error", err)
		return errors.NewInjectionError("text injection failed", err)
	}
	return nil
}

// PushClipboard sets the device clipboard and optionally pastes it into the
// focused field.
func (b *InputBridge) PushClipboard(text string, paste bool) error {
	control, _, ok := b.sessions.injectionState()
	if !ok {
		return nil
	}
	if err := control.SetClipboard(text, paste); err != nil {
		b.logger.Warnw("clipboard push failed", "paste", paste, "error", err)
		return errors.NewInjectionError("clipboard push failed", err)
	}
	return nil
}

// SetScreenPower turns the device screen on or off while mirroring continues.
func (b *InputBridge) SetScreenPower(on bool) error {
	control, _, ok := b.sessions.injectionState()
	if !ok {
		return nil
	}
	if err := control.SetScreenPowerMode(on); err != nil {
		b.logger.Warnw("screen power toggle failed", "on", on, "error", err)
		return errors.NewInjectionError("screen power toggle failed", err)
	}
	return nil
}

// MapContainerPoint translates a point in host container pixels into video
// region fractions. ok is false when the point falls on a letterbox bar or
// no geometry is known yet; such points are not forwardable.
func (b *InputBridge) MapContainerPoint(x, y float64) (float64, float64, bool) {
	container, video := b.sessions.viewGeometry()
	if container.IsZero() || video.IsZero() {
		return 0, 0, false
	}
	region := domain.VideoRegion(container, video)
	if region.Width <= 0 || region.Height <= 0 {
		return 0, 0, false
	}
	vx := (x - float64(region.X)) / float64(region.Width)
	vy := (y - float64(region.Y)) / float64(region.Height)
	if vx < 0 || vx > 1 || vy < 0 || vy > 1 {
		return 0, 0, false
	}
	return vx, vy, true
}

// scaleCoord maps a fraction in [0,1] onto a pixel span, clamping both the
// fraction and the result so the device never sees an out-of-screen point.
func scaleCoord(v float64, span int) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p := int(v * float64(span))
	if p >= span {
		p = span - 1
	}
	if p < 0 {
		p = 0
	}
	return p
}
