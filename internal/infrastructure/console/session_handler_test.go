package console

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSessionService struct {
	mu        sync.Mutex
	status    domain.SessionStatus
	startErr  error
	presetErr error

	started   []ports.StartOptions
	stops     int
	presets   []string
	autoAdapt []bool
	resizes   []domain.Size
}

func (f *fakeSessionService) Start(ctx context.Context, opts ports.StartOptions) (domain.SessionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return domain.SessionStatus{}, f.startErr
	}
	f.started = append(f.started, opts)
	return f.status, nil
}

func (f *fakeSessionService) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSessionService) Status() domain.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSessionService) SelectPreset(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presetErr != nil {
		return f.presetErr
	}
	f.presets = append(f.presets, name)
	return nil
}

func (f *fakeSessionService) SetAutoAdapt(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoAdapt = append(f.autoAdapt, enabled)
}

func (f *fakeSessionService) ObserveHostResize(size domain.Size) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, size)
}

func (f *fakeSessionService) Presets() []domain.QualityPreset {
	return domain.DefaultLadder().Presets()
}

type fakeRenderer struct {
	mu        sync.Mutex
	png       []byte
	err       error
	snapshots int
	overlays  []*ports.OverlaySpec
}

func (f *fakeRenderer) Bind(width, height int) error      { return nil }
func (f *fakeRenderer) Draw(frame ports.VideoFrame) error { return nil }
func (f *fakeRenderer) Release()                          {}

func (f *fakeRenderer) SetOverlay(spec *ports.OverlaySpec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlays = append(f.overlays, spec)
}

func (f *fakeRenderer) SnapshotPNG() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return f.png, f.err
}

func (f *fakeRenderer) snapshotCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots
}

type fakeFrames struct {
	mu        sync.Mutex
	presented uint64
}

func (f *fakeFrames) Presented() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presented
}

func (f *fakeFrames) advance() {
	f.mu.Lock()
	f.presented++
	f.mu.Unlock()
}

func newTestRouter(t *testing.T, sessions *fakeSessionService, renderer *fakeRenderer, frames FrameCounter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSessionHandler(sessions, renderer, frames, zaptest.NewLogger(t).Sugar())
	h.SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetSession(t *testing.T) {
	sessions := &fakeSessionService{status: domain.SessionStatus{Phase: domain.PhaseActive, Preset: "high"}}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/session", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"active"`)
	assert.Contains(t, w.Body.String(), `"preset":"high"`)
}

func TestListPresets(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/presets", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ultra"`)
	assert.Contains(t, w.Body.String(), `"low"`)
}

func TestStartSession(t *testing.T) {
	sessions := &fakeSessionService{status: domain.SessionStatus{Phase: domain.PhaseActive}}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/start",
		`{"preset":"high","desktop_mode":true,"width":1600,"height":900}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, sessions.started, 1)
	assert.Equal(t, "high", sessions.started[0].Preset)
	assert.True(t, sessions.started[0].DesktopMode)
	assert.Equal(t, domain.Size{Width: 1600, Height: 900}, sessions.started[0].HostBounds)
}

func TestStartSession_Busy(t *testing.T) {
	sessions := &fakeSessionService{startErr: domain.ErrSessionBusy}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/start", `{}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartSession_ProvisioningFailure(t *testing.T) {
	sessions := &fakeSessionService{
		startErr: errors.NewProvisioningError("transport provisioning failed", nil),
	}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/start", `{}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "PROVISIONING_FAILED")
}

func TestStopSession(t *testing.T) {
	sessions := &fakeSessionService{}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/stop", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sessions.stops)
}

func TestSelectPreset(t *testing.T) {
	sessions := &fakeSessionService{}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/preset", `{"name":"standard"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sessions.presets, 1)
	assert.Equal(t, "standard", sessions.presets[0])
}

func TestSelectPreset_Validation(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/preset", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectPreset_NoSession(t *testing.T) {
	sessions := &fakeSessionService{presetErr: domain.ErrNoActiveSession}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/preset", `{"name":"high"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSetAutoAdapt(t *testing.T) {
	sessions := &fakeSessionService{}
	router := newTestRouter(t, sessions, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/adapt", `{"enabled":false}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sessions.autoAdapt, 1)
	assert.False(t, sessions.autoAdapt[0])

	w = doRequest(router, http.MethodPost, "/api/v1/session/adapt", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubFrames struct{}

func (stubFrames) NextFrame() (frame *image.RGBA, ok bool) { return nil, false }

func TestSetOverlay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	renderer := &fakeRenderer{}
	router := gin.New()
	h := NewSessionHandler(&fakeSessionService{}, renderer, nil, zaptest.NewLogger(t).Sugar())
	h.SetOverlaySource(stubFrames{})
	h.SetupRoutes(router)

	w := doRequest(router, http.MethodPost, "/api/v1/session/overlay",
		`{"enabled":true,"shape":"circle","x":0.7,"y":0.7,"width":0.25,"height":0.25}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, renderer.overlays, 1)
	spec := renderer.overlays[0]
	require.NotNil(t, spec)
	assert.Equal(t, domain.OverlayCircle, spec.Shape)
	assert.Equal(t, 0.7, spec.Placement.X)
	assert.Equal(t, 0.25, spec.Placement.Width)

	w = doRequest(router, http.MethodPost, "/api/v1/session/overlay", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, renderer.overlays, 2)
	assert.Nil(t, renderer.overlays[1])
}

func TestSetOverlay_Validation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	renderer := &fakeRenderer{}
	router := gin.New()
	h := NewSessionHandler(&fakeSessionService{}, renderer, nil, zaptest.NewLogger(t).Sugar())
	h.SetOverlaySource(stubFrames{})
	h.SetupRoutes(router)

	cases := []struct {
		name string
		body string
	}{
		{"missing enabled", `{}`},
		{"unknown shape", `{"enabled":true,"shape":"triangle","x":0.1,"y":0.1,"width":0.2,"height":0.2}`},
		{"placement outside frame", `{"enabled":true,"shape":"square","x":0.9,"y":0.1,"width":0.2,"height":0.2}`},
		{"zero size", `{"enabled":true,"shape":"fit_rect","x":0.1,"y":0.1,"width":0,"height":0.2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/v1/session/overlay", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, renderer.overlays)
}

func TestSetOverlay_NoSourceConfigured(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, &fakeRenderer{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/session/overlay",
		`{"enabled":true,"shape":"circle","x":0.1,"y":0.1,"width":0.2,"height":0.2}`)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestSnapshot_NoSurface(t *testing.T) {
	renderer := &fakeRenderer{err: domain.ErrSurfaceMissing}
	router := newTestRouter(t, &fakeSessionService{}, renderer, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/session/frame", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshot_MemoizesUnchangedFrame(t *testing.T) {
	renderer := &fakeRenderer{png: []byte("png-bytes")}
	frames := &fakeFrames{presented: 1}
	router := newTestRouter(t, &fakeSessionService{}, renderer, frames)

	w := doRequest(router, http.MethodGet, "/api/v1/session/frame", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())

	// Same presented counter: encoded bytes are reused.
	doRequest(router, http.MethodGet, "/api/v1/session/frame", "")
	assert.Equal(t, 1, renderer.snapshotCalls())

	// A newly presented frame invalidates the memo.
	frames.advance()
	doRequest(router, http.MethodGet, "/api/v1/session/frame", "")
	assert.Equal(t, 2, renderer.snapshotCalls())
}
