package synthetic

import (
	"context"
	"net"
	"sync"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Driver is an in-process transport that generates a deterministic test
// pattern instead of talking to a device. It honors provisioning the way a
// device would: the stream geometry derives from MaxDimension or the virtual
// display, dimensions stay even, and frames tick at the requested rate.
// Development and CI run against it; the wire transport plugs into the same
// ports.
type Driver struct {
	device domain.Size
	logger *zap.SugaredLogger
}

// NewDriver creates a driver emulating a device with the given native screen.
func NewDriver(device domain.Size, logger *zap.SugaredLogger) *Driver {
	if device.IsZero() {
		device = domain.Size{Width: 1080, Height: 2340}
	}
	return &Driver{device: device, logger: logger}
}

func (d *Driver) Provision(ctx context.Context, spec ports.ProvisionSpec) (ports.ConnectionHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.BitRate <= 0 {
		return nil, errors.NewInvalidInputError("bit rate must be positive")
	}
	fps := spec.MaxFrameRate
	if fps <= 0 {
		fps = 30
	}

	conn := &connection{
		id:     uuid.New().String(),
		size:   streamSize(d.device, spec),
		fps:    fps,
		logger: d.logger,
		clips:  make(chan string, 8),
		done:   make(chan struct{}),
	}
	d.logger.Infow("synthetic connection provisioned",
		"connection_id", conn.id,
		"width", conn.size.Width,
		"height", conn.size.Height,
		"bit_rate", spec.BitRate,
		"max_frame_rate", fps,
		"virtual_display", spec.VirtualDisplay != nil,
	)
	return conn, nil
}

func (d *Driver) OpenVideoStream(ctx context.Context, handle ports.ConnectionHandle) (ports.StreamMetadata, ports.FrameStream, error) {
	conn, err := d.connection(handle)
	if err != nil {
		return ports.StreamMetadata{}, nil, err
	}
	meta := ports.StreamMetadata{
		Width:  conn.size.Width,
		Height: conn.size.Height,
		Codec:  "rgba",
	}
	return meta, newPatternStream(conn), nil
}

func (d *Driver) OpenController(handle ports.ConnectionHandle) (ports.DeviceController, error) {
	conn, err := d.connection(handle)
	if err != nil {
		return nil, err
	}
	return &loopController{conn: conn, logger: d.logger}, nil
}

func (d *Driver) OpenClipboardStream(ctx context.Context, handle ports.ConnectionHandle) (ports.ClipboardStream, error) {
	conn, err := d.connection(handle)
	if err != nil {
		return nil, err
	}
	return &clipboardStream{conn: conn}, nil
}

func (d *Driver) connection(handle ports.ConnectionHandle) (*connection, error) {
	conn, ok := handle.(*connection)
	if !ok {
		return nil, errors.NewProtocolError("handle does not belong to this transport", nil)
	}
	if conn.isClosed() {
		return nil, net.ErrClosed
	}
	return conn, nil
}

// streamSize applies the provisioning bounds to the native screen. A virtual
// display overrides everything; otherwise MaxDimension caps the longer side
// with both dimensions floored to even, which is what the device encoder
// does.
func streamSize(device domain.Size, spec ports.ProvisionSpec) domain.Size {
	if spec.VirtualDisplay != nil {
		return domain.Size{Width: spec.VirtualDisplay.Width, Height: spec.VirtualDisplay.Height}
	}
	longer := device.Width
	if device.Height > longer {
		longer = device.Height
	}
	if spec.MaxDimension <= 0 || longer <= spec.MaxDimension {
		return device
	}
	return domain.Size{
		Width:  (device.Width * spec.MaxDimension / longer) &^ 1,
		Height: (device.Height * spec.MaxDimension / longer) &^ 1,
	}
}

// connection is one provisioned mirroring endpoint. Closing it ends every
// stream opened from it.
type connection struct {
	id     string
	size   domain.Size
	fps    int
	logger *zap.SugaredLogger

	clips chan string

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	c.logger.Debugw("synthetic connection closed", "connection_id", c.id)
	return nil
}

func (c *connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// publishClipboard emits a device-side clipboard change. Drops when nobody
// is draining, the same as a real device notification channel under
// backpressure.
func (c *connection) publishClipboard(text string) {
	select {
	case c.clips <- text:
	default:
	}
}
