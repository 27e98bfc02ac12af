package ports

import (
	"context"

	"droidcast/internal/core/domain"
)

// ProvisionSpec carries the encoding bounds requested from the device when a
// mirroring endpoint is provisioned. In desktop mode VirtualDisplay supplies
// explicit geometry and MaxDimension is ignored.
type ProvisionSpec struct {
	MaxDimension   int
	BitRate        int
	MaxFrameRate   int
	VirtualDisplay *domain.DisplayConfig
}

// ConnectionHandle is an opaque live connection owned by the Transport and
// borrowed by exactly one session. Close releases the device-side endpoint.
type ConnectionHandle interface {
	Close() error
}

// StreamMetadata is reported by the device when the video stream opens. The
// device is authoritative: Width and Height may diverge from the request.
type StreamMetadata struct {
	Width  int
	Height int
	Codec  string
}

// VideoFrame is one decoded frame in RGBA order. Pix is valid until the next
// call to FrameStream.Next.
type VideoFrame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// FrameStream delivers decoded frames one at a time. Next blocks until a
// frame is available, the stream ends, or ctx is canceled; there is no
// internal queue, so a slow caller drops frames on the device side rather
// than buffering stale ones.
type FrameStream interface {
	Next(ctx context.Context) (VideoFrame, error)
	Close() error
}

// DeviceController injects input into the device. Coordinates are absolute
// device pixels; key codes are the device's numeric codes.
type DeviceController interface {
	InjectTouch(action domain.TouchAction, x, y int) error
	InjectKey(action domain.KeyAction, keyCode int) error
	InjectText(text string) error
	SetClipboard(text string, paste bool) error
	SetScreenPowerMode(on bool) error
	Close() error
}

// ClipboardStream delivers device-side clipboard changes. Next blocks until
// the device clipboard changes or ctx is canceled.
type ClipboardStream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Transport provisions the device connection and owns everything below it:
// the mirroring wire protocol, codec handling, and device authentication.
type Transport interface {
	Provision(ctx context.Context, spec ProvisionSpec) (ConnectionHandle, error)
	OpenVideoStream(ctx context.Context, handle ConnectionHandle) (StreamMetadata, FrameStream, error)
	OpenController(handle ConnectionHandle) (DeviceController, error)
	OpenClipboardStream(ctx context.Context, handle ConnectionHandle) (ClipboardStream, error)
}
