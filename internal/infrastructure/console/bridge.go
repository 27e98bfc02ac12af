package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/config"
	"droidcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Bridge is the WebSocket side of the console: it pushes session lifecycle
// events to every connected browser tab and accepts input, clipboard and
// resize messages from them. It implements ports.EventSink, so it is
// registered next to the metrics collector and sees the same event stream.
type Bridge struct {
	sessions ports.SessionService
	input    ports.InputService
	logger   *zap.SugaredLogger

	upgrader websocket.Upgrader

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	limitMessages bool
	messageRate   rate.Limit
	messageBurst  int
	maxMessageLen int64
	maxClients    int

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// client is one connected console tab. Events are fanned out through a
// buffered channel; a tab that cannot keep up drops events rather than
// stalling the session.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// inboundMessage is the envelope for everything a console tab sends.
type inboundMessage struct {
	Type    string  `json:"type"`
	Action  string  `json:"action,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	KeyCode int     `json:"key_code,omitempty"`
	Text    string  `json:"text,omitempty"`
	Paste   bool    `json:"paste,omitempty"`
	On      bool    `json:"on,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
}

// statusMessage is sent once on connect so a tab can render without waiting
// for the next event.
type statusMessage struct {
	Type   string               `json:"type"`
	Status domain.SessionStatus `json:"status"`
}

// NewBridge creates the bridge. Limits and timeouts come from the console and
// rate limiting sections of the configuration.
func NewBridge(sessions ports.SessionService, input ports.InputService, cfg *config.Config, logger *zap.SugaredLogger) *Bridge {
	b := &Bridge{
		sessions:     sessions,
		input:        input,
		logger:       logger,
		pingInterval: cfg.Console.PingInterval,
		pongTimeout:  cfg.Console.PongTimeout,
		writeTimeout: 10 * time.Second,
		clients:      make(map[*client]struct{}),
	}

	if cfg.RateLimiting.Enabled {
		b.limitMessages = cfg.RateLimiting.WebSocket.MessagesPerSecond > 0
		b.messageRate = rate.Limit(cfg.RateLimiting.WebSocket.MessagesPerSecond)
		b.messageBurst = cfg.RateLimiting.WebSocket.Burst
		b.maxMessageLen = cfg.RateLimiting.WebSocket.MaxMessageSizeBytes
		b.maxClients = cfg.RateLimiting.WebSocket.MaxConcurrent
	}

	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Console.AllowedOrigins),
	}
	return b
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Publish fans one session event out to every connected tab. It never blocks:
// a full client buffer drops the event.
func (b *Bridge) Publish(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Errorw("failed to encode event", "type", event.Type, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			b.logger.Debugw("dropping event for slow console client", "type", event.Type)
		}
	}
}

// HandleWebSocket upgrades one console connection and serves it until the tab
// disconnects or the bridge closes.
func (b *Bridge) HandleWebSocket(c *gin.Context) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.mu.Unlock()
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "too many console connections"})
		return
	}
	b.mu.Unlock()

	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.logger.Warnw("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, 32),
		done: make(chan struct{}),
	}
	if b.limitMessages {
		cl.limiter = rate.NewLimiter(b.messageRate, b.messageBurst)
	}

	b.mu.Lock()
	b.clients[cl] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()
	b.logger.Infow("console connected", "remote", conn.RemoteAddr().String(), "clients", total)

	conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
	if err := conn.WriteJSON(statusMessage{Type: "session.status", Status: b.sessions.Status()}); err != nil {
		b.logger.Warnw("failed to send initial status", "error", err)
		b.drop(cl)
		return
	}

	go b.writePump(cl)
	b.readPump(cl)
}

func (b *Bridge) drop(cl *client) {
	b.mu.Lock()
	delete(b.clients, cl)
	b.mu.Unlock()
	cl.close()
}

// writePump drains the client's event buffer and keeps the connection alive
// with pings.
func (b *Bridge) writePump(cl *client) {
	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case data := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.drop(cl)
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.drop(cl)
				return
			}
		}
	}
}

// readPump parses inbound messages until the connection ends. Messages over
// the rate limit are dropped, not queued: input for a real-time mirror is
// worthless once stale.
func (b *Bridge) readPump(cl *client) {
	defer b.drop(cl)

	if b.maxMessageLen > 0 {
		cl.conn.SetReadLimit(b.maxMessageLen)
	}
	cl.conn.SetReadDeadline(time.Now().Add(b.pongTimeout))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(b.pongTimeout))
		return nil
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				b.logger.Warnw("console read failed", "error", err)
			} else {
				b.logger.Debugw("console disconnected")
			}
			return
		}
		cl.conn.SetReadDeadline(time.Now().Add(b.pongTimeout))

		if cl.limiter != nil && !cl.limiter.Allow() {
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.sendError(cl, "malformed message")
			continue
		}
		if err := b.dispatch(cl, msg); err != nil {
			b.sendError(cl, err.Error())
		}
	}
}

// dispatch wraps one console message in a span: input messages get an input
// span carrying the session id, everything else a websocket span carrying the
// client address.
func (b *Bridge) dispatch(cl *client, msg inboundMessage) error {
	var (
		ctx  context.Context
		span trace.Span
	)
	switch msg.Type {
	case "touch", "pointer", "key", "text", "clipboard", "screen_power":
		ctx, span = tracing.TraceInputOperation(context.Background(), msg.Type, string(b.sessions.Status().ID))
	default:
		ctx, span = tracing.TraceWebSocketMessage(context.Background(), msg.Type, cl.conn.RemoteAddr().String())
	}
	defer span.End()

	if err := b.handleMessage(msg); err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	return nil
}

// handleMessage dispatches one console message. Injection errors are local by
// design: the user retries the gesture, the session stays up, and the tab is
// not bothered with an error frame.
func (b *Bridge) handleMessage(msg inboundMessage) error {
	switch msg.Type {
	case "touch":
		action, err := touchAction(msg.Action)
		if err != nil {
			return err
		}
		b.input.Touch(action, msg.X, msg.Y)
		return nil

	case "pointer":
		// Container-pixel coordinates; points on letterbox bars do not map and
		// are dropped.
		action, err := touchAction(msg.Action)
		if err != nil {
			return err
		}
		if x, y, ok := b.input.MapContainerPoint(msg.X, msg.Y); ok {
			b.input.Touch(action, x, y)
		}
		return nil

	case "key":
		action, err := keyAction(msg.Action)
		if err != nil {
			return err
		}
		b.input.Key(action, msg.KeyCode)
		return nil

	case "text":
		b.input.Text(msg.Text)
		return nil

	case "clipboard":
		b.input.PushClipboard(msg.Text, msg.Paste)
		return nil

	case "screen_power":
		b.input.SetScreenPower(msg.On)
		return nil

	case "resize":
		b.sessions.ObserveHostResize(domain.Size{Width: msg.Width, Height: msg.Height})
		return nil

	default:
		return errUnknownMessage(msg.Type)
	}
}

func (b *Bridge) sendError(cl *client, message string) {
	data, err := json.Marshal(gin.H{"type": "error", "message": message})
	if err != nil {
		return
	}
	select {
	case cl.send <- data:
	default:
	}
}

// Close disconnects every client. Used on shutdown.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.clients = make(map[*client]struct{})
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ClientCount reports the number of connected console tabs.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func touchAction(s string) (domain.TouchAction, error) {
	switch a := domain.TouchAction(s); a {
	case domain.TouchDown, domain.TouchMove, domain.TouchUp:
		return a, nil
	}
	return "", fmt.Errorf("unknown touch action %q", s)
}

func keyAction(s string) (domain.KeyAction, error) {
	switch a := domain.KeyAction(s); a {
	case domain.KeyDown, domain.KeyUp:
		return a, nil
	}
	return "", fmt.Errorf("unknown key action %q", s)
}

func errUnknownMessage(t string) error {
	return fmt.Errorf("unknown message type %q", t)
}
