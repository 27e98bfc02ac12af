package console

import (
	stderrors "errors"
	"net/http"
	"sync"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FrameCounter exposes the surface's presented-frame counter; the snapshot
// endpoint uses it to avoid re-encoding a frame nobody has replaced.
type FrameCounter interface {
	Presented() uint64
}

// SessionHandler is the REST side of the console: session lifecycle control,
// the preset ladder and a PNG snapshot of the last composited frame.
type SessionHandler struct {
	sessions ports.SessionService
	renderer ports.FrameRenderer
	frames   FrameCounter
	logger   *zap.SugaredLogger

	overlaySource ports.FrameProvider

	snapMu  sync.Mutex
	snapPNG []byte
	snapFor uint64
}

// NewSessionHandler creates the handler. frames may be nil, which disables
// snapshot memoization.
func NewSessionHandler(sessions ports.SessionService, renderer ports.FrameRenderer, frames FrameCounter, logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		renderer: renderer,
		frames:   frames,
		logger:   logger,
	}
}

// SetOverlaySource installs the frame source used when a client enables the
// overlay. With no source the overlay endpoint reports the feature absent.
func (h *SessionHandler) SetOverlaySource(source ports.FrameProvider) {
	h.overlaySource = source
}

// SetupRoutes registers the console API under /api/v1.
func (h *SessionHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/presets", h.ListPresets)
		api.GET("/session", h.GetSession)
		api.POST("/session/start", h.StartSession)
		api.POST("/session/stop", h.StopSession)
		api.POST("/session/preset", h.SelectPreset)
		api.POST("/session/adapt", h.SetAutoAdapt)
		api.POST("/session/overlay", h.SetOverlay)
		api.GET("/session/frame", h.Snapshot)
	}
}

func (h *SessionHandler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.sessions.Presets()})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": h.sessions.Status()})
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	var req struct {
		Preset      string `json:"preset"`
		DesktopMode bool   `json:"desktop_mode"`
		Width       int    `json:"width" binding:"min=0"`
		Height      int    `json:"height" binding:"min=0"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.sessions.Start(c.Request.Context(), ports.StartOptions{
		Preset:      req.Preset,
		DesktopMode: req.DesktopMode,
		HostBounds:  domain.Size{Width: req.Width, Height: req.Height},
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": status})
}

func (h *SessionHandler) StopSession(c *gin.Context) {
	if err := h.sessions.Stop(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.sessions.Status()})
}

func (h *SessionHandler) SelectPreset(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.SelectPreset(c.Request.Context(), req.Name); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.sessions.Status()})
}

func (h *SessionHandler) SetAutoAdapt(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.sessions.SetAutoAdapt(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"session": h.sessions.Status()})
}

// SetOverlay enables or disables the composited overlay. Placement is
// fractional so it survives preset and resize restarts.
func (h *SessionHandler) SetOverlay(c *gin.Context) {
	var req struct {
		Enabled      *bool   `json:"enabled" binding:"required"`
		Shape        string  `json:"shape"`
		X            float64 `json:"x"`
		Y            float64 `json:"y"`
		Width        float64 `json:"width"`
		Height       float64 `json:"height"`
		CornerRadius float64 `json:"corner_radius"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !*req.Enabled {
		h.renderer.SetOverlay(nil)
		c.JSON(http.StatusOK, gin.H{"overlay": "disabled"})
		return
	}

	if h.overlaySource == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no overlay source configured"})
		return
	}
	shape := domain.OverlayShape(req.Shape)
	if !shape.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown overlay shape"})
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > 1 || req.Height > 1 ||
		req.X < 0 || req.Y < 0 || req.X+req.Width > 1 || req.Y+req.Height > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "overlay placement must be fractions within the frame"})
		return
	}

	h.renderer.SetOverlay(&ports.OverlaySpec{
		Shape:        shape,
		Placement:    domain.FractionRect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height},
		CornerRadius: req.CornerRadius,
		Source:       h.overlaySource,
	})
	c.JSON(http.StatusOK, gin.H{"overlay": "enabled"})
}

// Snapshot serves the last composited frame as PNG. The encoded bytes are
// memoized against the presented-frame counter so polling clients do not
// re-encode an unchanged frame.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	if h.frames != nil {
		presented := h.frames.Presented()
		h.snapMu.Lock()
		if h.snapPNG != nil && h.snapFor == presented {
			data := h.snapPNG
			h.snapMu.Unlock()
			c.Data(http.StatusOK, "image/png", data)
			return
		}
		h.snapMu.Unlock()

		data, err := h.renderer.SnapshotPNG()
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.snapMu.Lock()
		h.snapPNG = data
		h.snapFor = presented
		h.snapMu.Unlock()
		c.Data(http.StatusOK, "image/png", data)
		return
	}

	data, err := h.renderer.SnapshotPNG()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (h *SessionHandler) respondError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, domain.ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, domain.ErrNoActiveSession):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, domain.ErrSurfaceMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": "no frame available"})
	default:
		if appErr := errors.GetAppError(err); appErr != nil {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
			})
			return
		}
		h.logger.Errorw("console request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
