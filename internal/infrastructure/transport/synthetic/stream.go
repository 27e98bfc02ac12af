package synthetic

import (
	"context"
	"image"
	"net"
	"sync"
	"time"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
)

// patternStream produces the animated test pattern at the provisioned frame
// rate. The pixel buffer is reused between frames per the FrameStream
// contract.
type patternStream struct {
	conn   *connection
	ticker *time.Ticker
	frame  *image.RGBA
	seq    int
}

func newPatternStream(conn *connection) *patternStream {
	return &patternStream{
		conn:   conn,
		ticker: time.NewTicker(time.Second / time.Duration(conn.fps)),
		frame:  image.NewRGBA(image.Rect(0, 0, conn.size.Width, conn.size.Height)),
	}
}

func (s *patternStream) Next(ctx context.Context) (ports.VideoFrame, error) {
	select {
	case <-ctx.Done():
		return ports.VideoFrame{}, ctx.Err()
	case <-s.conn.done:
		return ports.VideoFrame{}, net.ErrClosed
	case <-s.ticker.C:
	}

	s.seq++
	drawPattern(s.frame, s.seq)
	return ports.VideoFrame{
		Pix:    s.frame.Pix,
		Width:  s.frame.Rect.Dx(),
		Height: s.frame.Rect.Dy(),
		Stride: s.frame.Stride,
	}, nil
}

func (s *patternStream) Close() error {
	s.ticker.Stop()
	return nil
}

// drawPattern fills the buffer with a diagonal gradient whose blue channel
// drifts with the sequence number, so motion is visible and every frame is
// distinguishable in tests.
func drawPattern(img *image.RGBA, seq int) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		g := uint8(y * 255 / h)
		for x := 0; x < w; x++ {
			row[x*4] = uint8(x * 255 / w)
			row[x*4+1] = g
			row[x*4+2] = uint8(x + y + seq*4)
			row[x*4+3] = 0xff
		}
	}
}

// Camera simulates a secondary capture source for overlay composition. Every
// NextFrame advances the pattern one step.
type Camera struct {
	mu    sync.Mutex
	frame *image.RGBA
	seq   int
}

// NewCamera creates a camera producing frames of the given size.
func NewCamera(size domain.Size) *Camera {
	if size.IsZero() {
		size = domain.Size{Width: 320, Height: 240}
	}
	return &Camera{frame: image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))}
}

func (c *Camera) NextFrame() (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	drawPattern(c.frame, c.seq*3)
	return c.frame, true
}
