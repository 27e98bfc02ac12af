package services

import (
	"context"
	"sync"
	"time"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/errors"
	"droidcast/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionSettings carries the tunables of the lifecycle controller.
type SessionSettings struct {
	DefaultPreset     string
	AutoAdapt         bool
	ResizeThresholdPx int
	ResizeDebounce    time.Duration
	TransitionBitRate int
	Desktop           domain.DesktopGeometry

	MonitorInterval  time.Duration
	MonitorThreshold float64
	MonitorStreak    int
}

// session owns every transport-side resource of one mirroring attempt. It is
// created on start, mutated through its phases and discarded on stop; a
// restart always builds a fresh one so no binding leaks across attempts.
type session struct {
	id       domain.SessionID
	phase    domain.SessionPhase
	preset   domain.QualityPreset
	geometry domain.Size
	desktop  *domain.DisplayConfig
	started  time.Time

	handle  ports.ConnectionHandle
	video   ports.FrameStream
	control ports.DeviceController
	clip    ports.ClipboardStream
	monitor *PerformanceMonitor

	cancelPipe context.CancelFunc
	cancelClip context.CancelFunc
	pipeDone   chan struct{}
	clipDone   chan struct{}

	stopRequested bool
	closing       bool
	done          chan struct{}
}

// SessionController drives the lifecycle of the single mirroring session:
// start, stop, degrade restarts, resize reconciliation and manual preset
// switches. All state transitions run under one mutex; the in-flight flags
// keep a resize-triggered restart and a degrade-triggered restart from
// interleaving. Losers are dropped rather than queued, the next monitor tick
// or resize observation re-evaluates from the settled state.
type SessionController struct {
	transport ports.Transport
	renderer  ports.FrameRenderer
	surface   ports.Surface
	ladder    domain.Ladder
	events    ports.EventSink
	settings  SessionSettings
	logger    *zap.SugaredLogger

	mu              sync.Mutex
	sess            *session
	autoAdapt       bool
	restartInFlight bool
	resizeInFlight  bool
	stopEpoch       uint64

	hostBounds    domain.Size
	lastStartSize domain.Size
	pendingSize   domain.Size
	resizeTimer   *time.Timer
}

// NewSessionController creates the controller. The event sink may be nil when
// nothing consumes lifecycle notifications.
func NewSessionController(
	transport ports.Transport,
	renderer ports.FrameRenderer,
	surface ports.Surface,
	ladder domain.Ladder,
	events ports.EventSink,
	settings SessionSettings,
	logger *zap.SugaredLogger,
) *SessionController {
	if events == nil {
		events = ports.EventSinks{}
	}
	return &SessionController{
		transport: transport,
		renderer:  renderer,
		surface:   surface,
		ladder:    ladder,
		events:    events,
		settings:  settings,
		logger:    logger,
		autoAdapt: settings.AutoAdapt,
	}
}

// AttachSinks replaces the event sink set. The console bridge is constructed
// after the controller and registers itself here; call before Start.
func (c *SessionController) AttachSinks(sinks ...ports.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = ports.EventSinks(sinks)
}

// startRequest is one concrete provisioning attempt.
type startRequest struct {
	preset  domain.QualityPreset
	desktop bool
	host    domain.Size
	bitRate int // overrides preset.BitRate when > 0
}

// Start provisions a fresh session. An empty preset name falls back to the
// configured default, an unknown one to the ladder default.
func (c *SessionController) Start(ctx context.Context, opts ports.StartOptions) (domain.SessionStatus, error) {
	ctx, span := tracing.TraceSessionOperation(ctx, "start", "")
	defer span.End()
	begun := time.Now()

	name := opts.Preset
	if name == "" {
		name = c.settings.DefaultPreset
	}
	status, err := c.start(ctx, startRequest{
		preset:  c.ladder.Resolve(name),
		desktop: opts.DesktopMode,
		host:    opts.HostBounds,
	}, nil, 0)
	if err != nil {
		tracing.RecordError(ctx, err)
		return status, err
	}
	tracing.AddSpanAttributes(ctx,
		tracing.SessionIDKey.String(string(status.ID)),
		tracing.PresetKey.String(status.Preset),
	)
	tracing.MeasureDuration(ctx, begun, "session.start")
	return status, nil
}

// start installs and provisions a fresh session. When replacing is non-nil
// the call comes from a restart: it only proceeds if that session is still
// current and no explicit stop arrived since epoch was captured.
func (c *SessionController) start(ctx context.Context, req startRequest, replacing *session, epoch uint64) (domain.SessionStatus, error) {
	c.mu.Lock()
	if replacing != nil {
		if c.sess != replacing || c.stopEpoch != epoch {
			c.mu.Unlock()
			return c.Status(), errors.NewCanceledError("restart abandoned", nil)
		}
	} else if c.sess != nil && c.sess.phase.Live() {
		c.mu.Unlock()
		return domain.SessionStatus{}, domain.ErrSessionBusy
	}
	if !req.host.IsZero() {
		c.hostBounds = req.host
	}
	if c.hostBounds.IsZero() {
		c.hostBounds = c.surface.HostBounds()
	}
	host := c.hostBounds

	sess := &session{
		id:      domain.SessionID(uuid.New().String()),
		phase:   domain.PhaseStarting,
		preset:  req.preset,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	c.sess = sess
	c.mu.Unlock()

	c.publishPhase(sess)
	c.logger.Infow("starting session",
		"session_id", sess.id,
		"preset", req.preset.Name,
		"desktop_mode", req.desktop,
	)

	spec := ports.ProvisionSpec{
		MaxDimension: req.preset.MaxDimension,
		BitRate:      req.preset.BitRate,
		MaxFrameRate: req.preset.MaxFrameRate,
	}
	if req.bitRate > 0 {
		spec.BitRate = req.bitRate
	}
	if req.desktop {
		display := domain.NewDisplayConfig(host, c.settings.Desktop)
		spec.MaxDimension = 0
		spec.VirtualDisplay = &display
		sess.desktop = &display
	}

	handle, err := c.transport.Provision(ctx, spec)
	if err != nil {
		return c.failStart(sess, errors.NewProvisioningError("transport provisioning failed", err))
	}
	if !c.adopt(sess, func() { sess.handle = handle }) {
		return c.abortStart(sess, handle.Close)
	}

	meta, stream, err := c.transport.OpenVideoStream(ctx, handle)
	if err != nil {
		return c.failStart(sess, errors.NewProvisioningError("opening video stream failed", err))
	}
	if !c.adopt(sess, func() { sess.video = stream }) {
		return c.abortStart(sess, stream.Close)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return c.failStart(sess, errors.NewProtocolError("device reported invalid stream geometry", domain.ErrStreamMetadata))
	}
	// The device is authoritative: its reported geometry wins over the request.
	c.adopt(sess, func() { sess.geometry = domain.Size{Width: meta.Width, Height: meta.Height} })

	control, err := c.transport.OpenController(handle)
	if err != nil {
		return c.failStart(sess, errors.NewProvisioningError("opening controller channel failed", err))
	}
	if !c.adopt(sess, func() { sess.control = control }) {
		return c.abortStart(sess, control.Close)
	}

	pipeCtx, cancelPipe := context.WithCancel(context.Background())
	clipCtx, cancelClip := context.WithCancel(context.Background())

	clip, err := c.transport.OpenClipboardStream(clipCtx, handle)
	if err != nil {
		cancelPipe()
		cancelClip()
		return c.failStart(sess, errors.NewProvisioningError("opening clipboard stream failed", err))
	}
	if !c.adopt(sess, func() { sess.clip = clip }) {
		cancelPipe()
		cancelClip()
		return c.abortStart(sess, clip.Close)
	}

	if err := c.renderer.Bind(meta.Width, meta.Height); err != nil {
		cancelPipe()
		cancelClip()
		return c.failStart(sess, errors.WrapError(err, errors.ErrCodeInternal, "binding drawing surface failed", 500))
	}

	mon := NewPerformanceMonitor(
		c.settings.MonitorInterval,
		c.settings.MonitorThreshold,
		c.settings.MonitorStreak,
		c.logger,
	)
	id := sess.id

	// The pipes, the monitor and the Active flip happen in one critical
	// section so a concurrent stop either prevents all of them or tears all
	// of them down.
	c.mu.Lock()
	if sess.stopRequested || sess.closing {
		c.mu.Unlock()
		cancelPipe()
		cancelClip()
		return c.abortStart(sess, nil)
	}
	sess.monitor = mon
	sess.cancelPipe = cancelPipe
	sess.cancelClip = cancelClip
	sess.pipeDone = make(chan struct{})
	sess.clipDone = make(chan struct{})
	sess.phase = domain.PhaseActive
	c.lastStartSize = host
	go c.pipeFrames(pipeCtx, sess)
	go c.listenClipboard(clipCtx, sess)
	mon.OnSample(func(fps float64) {
		c.events.Publish(domain.Event{
			Type:      domain.EventFPSSample,
			SessionID: id,
			FPS:       fps,
			Timestamp: time.Now(),
		})
	})
	mon.Start(func() { c.onDegrade(id) })
	c.mu.Unlock()

	c.publishPhase(sess)
	c.logger.Infow("session active",
		"session_id", sess.id,
		"preset", sess.preset.Name,
		"width", meta.Width,
		"height", meta.Height,
		"codec", meta.Codec,
	)
	return c.Status(), nil
}

// adopt publishes a freshly created resource onto the session unless a stop
// raced ahead, in which case the caller still owns it and must release it.
func (c *SessionController) adopt(sess *session, assign func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess.stopRequested || sess.closing {
		return false
	}
	assign()
	return true
}

// abortStart finishes a start that lost the race against an explicit stop.
// Resources already adopted belong to the stopper's teardown; only the
// orphan created after the stop is released here.
func (c *SessionController) abortStart(sess *session, orphan func() error) (domain.SessionStatus, error) {
	if orphan != nil {
		c.closeQuiet("orphaned resource", orphan, sess.id)
	}
	c.logger.Infow("session start aborted by stop", "session_id", sess.id)
	return c.Status(), errors.NewCanceledError("session stopped during start", nil)
}

// failStart releases whatever the partially started session already holds,
// marks it Failed and surfaces the error.
func (c *SessionController) failStart(sess *session, err error) (domain.SessionStatus, error) {
	c.logger.Errorw("session start failed",
		"session_id", sess.id,
		"preset", sess.preset.Name,
		"error", err,
	)
	c.teardown(sess, domain.PhaseFailed)

	c.publishPhase(sess)
	c.events.Publish(domain.Event{
		Type:      domain.EventSessionFailed,
		SessionID: sess.id,
		Reason:    err.Error(),
		Timestamp: time.Now(),
	})
	return c.Status(), err
}

// Stop tears the current session down and reports it Stopped. Stopping when
// nothing is live is a no-op.
func (c *SessionController) Stop(ctx context.Context) error {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || !sess.phase.Live() {
		c.mu.Unlock()
		return nil
	}
	_, span := tracing.TraceSessionOperation(ctx, "stop", string(sess.id))
	defer span.End()
	c.stopEpoch++
	sess.stopRequested = true
	c.clearResizeTimerLocked()
	c.mu.Unlock()

	c.teardown(sess, domain.PhaseStopped)

	// A restart may have owned the teardown; the explicit stop still decides
	// the final phase.
	c.mu.Lock()
	sess.phase = domain.PhaseStopped
	c.mu.Unlock()

	c.publishPhase(sess)
	c.logger.Infow("session stopped", "session_id", sess.id)
	return nil
}

// teardown runs the ordered release of one session's resources exactly once;
// concurrent callers wait for the winner to finish.
func (c *SessionController) teardown(sess *session, final domain.SessionPhase) {
	c.mu.Lock()
	if sess.closing {
		c.mu.Unlock()
		<-sess.done
		return
	}
	sess.closing = true
	c.mu.Unlock()

	c.releaseResources(sess)

	c.mu.Lock()
	sess.phase = final
	c.mu.Unlock()
	close(sess.done)
}

// releaseResources closes everything a session may hold, tolerating partial
// initialization. Order matters: stop the recurring sampling timer, cancel
// the frame pipe and the clipboard listener, and only then close the
// underlying channels and the transport handle. Closing the transport first
// would let the pipe observe a sudden disconnect that must not be misread
// as a failure.
func (c *SessionController) releaseResources(sess *session) {
	c.mu.Lock()
	mon := sess.monitor
	cancelPipe, cancelClip := sess.cancelPipe, sess.cancelClip
	pipeDone, clipDone := sess.pipeDone, sess.clipDone
	video, control, clip, handle := sess.video, sess.control, sess.clip, sess.handle
	c.mu.Unlock()

	if mon != nil {
		mon.Stop()
	}
	if cancelPipe != nil {
		cancelPipe()
	}
	if cancelClip != nil {
		cancelClip()
	}
	if pipeDone != nil {
		<-pipeDone
	}
	if clipDone != nil {
		<-clipDone
	}

	if video != nil {
		c.closeQuiet("video stream", video.Close, sess.id)
	}
	if control != nil {
		c.closeQuiet("controller channel", control.Close, sess.id)
	}
	if clip != nil {
		c.closeQuiet("clipboard stream", clip.Close, sess.id)
	}
	if handle != nil {
		c.closeQuiet("transport handle", handle.Close, sess.id)
	}
	c.renderer.Release()

	c.mu.Lock()
	sess.video = nil
	sess.control = nil
	sess.clip = nil
	sess.handle = nil
	sess.monitor = nil
	c.mu.Unlock()
}

func (c *SessionController) closeQuiet(what string, close func() error, id domain.SessionID) {
	if err := close(); err != nil && !errors.IsExpectedCancellation(err) {
		c.logger.Warnw("close failed during teardown",
			"resource", what,
			"session_id", id,
			"error", err,
		)
	}
}

// pipeFrames pulls decoded frames into the renderer until the stream ends or
// the pipe context is canceled. Frames are drawn or dropped immediately,
// never queued; the monitor counts only frames the renderer presented.
func (c *SessionController) pipeFrames(ctx context.Context, sess *session) {
	defer close(sess.pipeDone)

	for {
		frame, err := sess.video.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.IsExpectedCancellation(err) {
				c.logger.Debugw("frame pipe closed", "session_id", sess.id)
				return
			}
			c.logger.Errorw("frame pipe failed", "session_id", sess.id, "error", err)
			go c.failLive(sess, err)
			return
		}
		if err := c.renderer.Draw(frame); err != nil {
			c.logger.Warnw("frame draw failed", "session_id", sess.id, "error", err)
			continue
		}
		c.mu.Lock()
		mon := sess.monitor
		c.mu.Unlock()
		if mon != nil {
			mon.RecordFrame()
		}
	}
}

// listenClipboard forwards device clipboard changes to the event sink. The
// listener is cancellable independently of the rest of the teardown and its
// cancellation is never reported as a failure.
func (c *SessionController) listenClipboard(ctx context.Context, sess *session) {
	defer close(sess.clipDone)

	for {
		text, err := sess.clip.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.IsExpectedCancellation(err) {
				c.logger.Debugw("clipboard listener closed", "session_id", sess.id)
			} else {
				c.logger.Warnw("clipboard listener failed", "session_id", sess.id, "error", err)
			}
			return
		}
		c.events.Publish(domain.Event{
			Type:      domain.EventDeviceClipboard,
			SessionID: sess.id,
			Text:      text,
			Timestamp: time.Now(),
		})
	}
}

// failLive handles an unexpected mid-session stream error: the session is
// torn down and surfaced as Failed. Stale calls for a replaced session are
// ignored.
func (c *SessionController) failLive(sess *session, cause error) {
	c.mu.Lock()
	if c.sess != sess || !sess.phase.Live() || sess.closing {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.teardown(sess, domain.PhaseFailed)
	c.publishPhase(sess)
	c.events.Publish(domain.Event{
		Type:      domain.EventSessionFailed,
		SessionID: sess.id,
		Reason:    cause.Error(),
		Timestamp: time.Now(),
	})
}

// onDegrade reacts to the performance monitor. The signal is only honored
// when the session is still the one the monitor was built for, it is Active,
// automatic adaptation is enabled and no other restart is pending.
func (c *SessionController) onDegrade(id domain.SessionID) {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || sess.id != id || sess.phase != domain.PhaseActive || sess.stopRequested {
		c.mu.Unlock()
		return
	}
	if !c.autoAdapt || c.restartInFlight || c.resizeInFlight {
		c.mu.Unlock()
		return
	}

	next, ok := c.ladder.NextLower(sess.preset.Name)
	if !ok {
		c.mu.Unlock()
		c.logger.Infow("frame rate low but already at minimum quality",
			"session_id", sess.id,
			"preset", sess.preset.Name,
		)
		c.events.Publish(domain.Event{
			Type:      domain.EventAtMinimumQuality,
			SessionID: sess.id,
			Preset:    sess.preset.Name,
			Timestamp: time.Now(),
		})
		return
	}

	c.restartInFlight = true
	sess.phase = domain.PhaseAdapting
	from := sess.preset.Name
	epoch := c.stopEpoch
	c.mu.Unlock()

	c.logger.Infow("degrading quality",
		"session_id", sess.id,
		"from", from,
		"to", next.Name,
	)
	c.publishPhase(sess)
	c.events.Publish(domain.Event{
		Type:      domain.EventQualityDegraded,
		SessionID: sess.id,
		From:      from,
		To:        next.Name,
		Timestamp: time.Now(),
	})

	c.restart(sess, epoch, startRequest{
		preset:  next,
		desktop: sess.desktop != nil,
	}, &c.restartInFlight, "degrade")
}

// SelectPreset restarts the session on the named preset. Unknown names fall
// back to the ladder default. An explicit choice disables automatic
// adaptation until the user re-enables it.
func (c *SessionController) SelectPreset(ctx context.Context, name string) error {
	preset := c.ladder.Resolve(name)

	c.mu.Lock()
	sess := c.sess
	if sess == nil || !sess.phase.Live() {
		c.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	if sess.phase != domain.PhaseActive || c.restartInFlight || c.resizeInFlight {
		c.mu.Unlock()
		return domain.ErrSessionBusy
	}
	c.restartInFlight = true
	c.autoAdapt = false
	sess.phase = domain.PhaseAdapting
	from := sess.preset.Name
	epoch := c.stopEpoch
	c.mu.Unlock()

	c.logger.Infow("switching preset",
		"session_id", sess.id,
		"from", from,
		"to", preset.Name,
	)
	c.publishPhase(sess)

	return c.restart(sess, epoch, startRequest{
		preset:  preset,
		desktop: sess.desktop != nil,
	}, &c.restartInFlight, "preset")
}

// restart tears the old session down quietly and provisions the replacement.
// When an explicit stop arrives anywhere in between, the restart is
// abandoned and the stop's final phase stands.
func (c *SessionController) restart(old *session, epoch uint64, req startRequest, inFlight *bool, reason string) error {
	ctx, span := tracing.TraceSessionOperation(context.Background(), "restart", string(old.id))
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.PresetKey.String(req.preset.Name))

	c.publishAdapting(old.id, true, reason)

	// The old session keeps its Adapting phase through the quiet teardown so
	// an explicit stop in this window still sees a live session to act on.
	c.teardown(old, domain.PhaseAdapting)

	_, err := c.start(ctx, req, old, epoch)

	c.mu.Lock()
	*inFlight = false
	c.mu.Unlock()
	c.publishAdapting(old.id, false, reason)

	if err != nil {
		if appErr := errors.GetAppError(err); appErr != nil && appErr.Code == errors.ErrCodeCanceled {
			c.logger.Infow("restart abandoned", "session_id", old.id)
			return nil
		}
		tracing.RecordError(ctx, err)
		c.logger.Errorw("restart failed",
			"session_id", old.id,
			"preset", req.preset.Name,
			"error", err,
		)
	}
	return err
}

// ObserveHostResize records the latest host container size. A restart is
// scheduled only once the delta since the last successful start exceeds the
// pixel threshold, and then only after the debounce window passes with no
// further resize.
func (c *SessionController) ObserveHostResize(size domain.Size) {
	if size.IsZero() {
		return
	}
	c.surface.SetHostBounds(size)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hostBounds = size
	sess := c.sess
	if sess == nil || sess.phase != domain.PhaseActive {
		return
	}
	if size.MaxDelta(c.lastStartSize) < c.settings.ResizeThresholdPx {
		return
	}

	c.pendingSize = size
	id := sess.id
	c.clearResizeTimerLocked()
	c.resizeTimer = time.AfterFunc(c.settings.ResizeDebounce, func() {
		c.resizeSettled(id)
	})
}

// resizeSettled fires after the debounce window. It re-evaluates from the
// settled state: the session must still be the same and Active, no other
// restart may be pending, and the delta must still clear the threshold.
func (c *SessionController) resizeSettled(id domain.SessionID) {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || sess.id != id || sess.phase != domain.PhaseActive || sess.stopRequested {
		c.mu.Unlock()
		return
	}
	if c.restartInFlight || c.resizeInFlight {
		c.mu.Unlock()
		return
	}
	size := c.pendingSize
	if size.MaxDelta(c.lastStartSize) < c.settings.ResizeThresholdPx {
		c.mu.Unlock()
		return
	}
	c.resizeInFlight = true
	sess.phase = domain.PhaseAdapting
	epoch := c.stopEpoch
	c.mu.Unlock()

	c.logger.Infow("host resized, restarting session",
		"session_id", sess.id,
		"width", size.Width,
		"height", size.Height,
	)

	// The restart runs on the transition bit rate to shorten the visual
	// disruption; the preset's own rate returns on the next explicit action.
	c.restart(sess, epoch, startRequest{
		preset:  sess.preset,
		desktop: sess.desktop != nil,
		host:    size,
		bitRate: c.settings.TransitionBitRate,
	}, &c.resizeInFlight, "resize")
}

func (c *SessionController) clearResizeTimerLocked() {
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
		c.resizeTimer = nil
	}
}

// SetAutoAdapt toggles the automatic degradation policy.
func (c *SessionController) SetAutoAdapt(enabled bool) {
	c.mu.Lock()
	c.autoAdapt = enabled
	c.mu.Unlock()
	c.logger.Infow("auto adaptation toggled", "enabled", enabled)
}

// Presets lists the quality ladder from best to worst.
func (c *SessionController) Presets() []domain.QualityPreset {
	return c.ladder.Presets()
}

// Status reports the current session for the console UI.
func (c *SessionController) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := domain.SessionStatus{
		Phase:     domain.PhaseIdle,
		AutoAdapt: c.autoAdapt,
	}
	sess := c.sess
	if sess == nil {
		return st
	}
	st.ID = sess.id
	st.Phase = sess.phase
	st.Preset = sess.preset.Name
	st.ScreenSize = sess.geometry
	st.DesktopMode = sess.desktop != nil
	st.Adapting = sess.phase == domain.PhaseAdapting || c.restartInFlight || c.resizeInFlight
	st.StartedAt = sess.started
	if sess.monitor != nil {
		st.FPS = sess.monitor.LastFPS()
	}
	return st
}

// injectionState snapshots what the input bridge needs: the control channel
// and the authoritative device geometry. ok is false unless the session is
// Active.
func (c *SessionController) injectionState() (ports.DeviceController, domain.Size, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.phase != domain.PhaseActive || c.sess.control == nil {
		return nil, domain.Size{}, false
	}
	return c.sess.control, c.sess.geometry, true
}

// viewGeometry returns the host container bounds and the device-reported
// video size used to exclude letterbox bars from pointer mapping.
func (c *SessionController) viewGeometry() (container, video domain.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	container = c.hostBounds
	if c.sess != nil {
		video = c.sess.geometry
	}
	return container, video
}

func (c *SessionController) publishPhase(sess *session) {
	c.mu.Lock()
	ev := domain.Event{
		Type:      domain.EventPhaseChanged,
		SessionID: sess.id,
		Phase:     sess.phase,
		Preset:    sess.preset.Name,
		Width:     sess.geometry.Width,
		Height:    sess.geometry.Height,
		Timestamp: time.Now(),
	}
	c.mu.Unlock()
	c.events.Publish(ev)
}

func (c *SessionController) publishAdapting(id domain.SessionID, adapting bool, reason string) {
	c.events.Publish(domain.Event{
		Type:      domain.EventAdapting,
		SessionID: id,
		Adapting:  adapting,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}
