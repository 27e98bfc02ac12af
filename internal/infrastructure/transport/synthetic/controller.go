package synthetic

import (
	"context"
	"net"

	"droidcast/internal/core/domain"

	"go.uber.org/zap"
)

// loopController accepts injections and logs them. Clipboard pushes echo
// back as device-side changes so the bidirectional clipboard path can be
// exercised without hardware.
type loopController struct {
	conn   *connection
	logger *zap.SugaredLogger
}

func (c *loopController) InjectTouch(action domain.TouchAction, x, y int) error {
	if c.conn.isClosed() {
		return net.ErrClosed
	}
	c.logger.Debugw("synthetic touch", "action", action, "x", x, "y", y)
	return nil
}

func (c *loopController) InjectKey(action domain.KeyAction, keyCode int) error {
	if c.conn.isClosed() {
		return net.ErrClosed
	}
	c.logger.Debugw("synthetic key", "action", action, "key_code", keyCode)
	return nil
}

func (c *loopController) InjectText(text string) error {
	if c.conn.isClosed() {
		return net.ErrClosed
	}
	c.logger.Debugw("synthetic text", "length", len(text))
	return nil
}

func (c *loopController) SetClipboard(text string, paste bool) error {
	if c.conn.isClosed() {
		return net.ErrClosed
	}
	c.logger.Debugw("synthetic clipboard set", "length", len(text), "paste", paste)
	c.conn.publishClipboard(text)
	return nil
}

func (c *loopController) SetScreenPowerMode(on bool) error {
	if c.conn.isClosed() {
		return net.ErrClosed
	}
	c.logger.Debugw("synthetic screen power", "on", on)
	return nil
}

func (c *loopController) Close() error {
	return nil
}

// clipboardStream delivers device clipboard changes for one connection.
type clipboardStream struct {
	conn *connection
}

func (s *clipboardStream) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.conn.done:
		return "", net.ErrClosed
	case text := <-s.conn.clips:
		return text, nil
	}
}

func (s *clipboardStream) Close() error {
	return nil
}
