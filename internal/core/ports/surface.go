package ports

import (
	"image"

	"droidcast/internal/core/domain"
)

// Surface is the host-side drawable the renderer binds to for the lifetime
// of one session. Bind sizes the backing buffer to the device-reported
// geometry and returns it for direct pixel access; Release drops the binding
// so the next session starts from a clean surface.
type Surface interface {
	Bind(width, height int) (*image.RGBA, error)
	Present()
	Release()
	HostBounds() domain.Size
	SetHostBounds(bounds domain.Size)
}

// FrameProvider supplies overlay source frames. NextFrame returns the most
// recent frame, or ok=false when none is available yet; the compositor skips
// the overlay for that frame instead of waiting.
type FrameProvider interface {
	NextFrame() (frame *image.RGBA, ok bool)
}

// OverlaySpec configures a secondary video source composited on top of the
// mirrored frame. Placement is fractional so it survives preset and resize
// restarts. CornerRadius applies to rounded rectangles only, as a fraction
// of the clip rectangle's smaller dimension; zero picks the default.
type OverlaySpec struct {
	Shape        domain.OverlayShape
	Placement    domain.FractionRect
	CornerRadius float64
	Source       FrameProvider
}

// FrameRenderer composites decoded frames onto the bound surface. Draw both
// draws and presents; implementations must never queue frames, a frame is
// drawn or dropped immediately.
type FrameRenderer interface {
	Bind(width, height int) error
	Draw(frame VideoFrame) error
	SetOverlay(spec *OverlaySpec)
	SnapshotPNG() ([]byte, error)
	Release()
}
