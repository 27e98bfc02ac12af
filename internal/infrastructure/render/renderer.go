package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/ports"
	"droidcast/pkg/errors"

	"go.uber.org/zap"
	draw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const watermarkMargin = 8

// Renderer composites decoded frames, one optional overlay and the watermark
// onto the bound surface. Draw draws and presents in one call; a frame that
// cannot be drawn is dropped, never queued.
type Renderer struct {
	surface       ports.Surface
	logger        *zap.SugaredLogger
	watermark     string
	defaultRadius float64

	mu      sync.Mutex
	target  *image.RGBA
	size    domain.Size
	overlay *ports.OverlaySpec
	mask    *image.Alpha
	maskFor maskKey
	scratch *image.RGBA
}

type maskKey struct {
	shape  domain.OverlayShape
	w, h   int
	radius float64
}

// NewRenderer creates a renderer over the given surface. watermark is drawn
// bottom-right on every frame when non-empty; cornerRadius is the default
// rounded-rect radius as a fraction of the clip rectangle's smaller side.
func NewRenderer(surface ports.Surface, watermark string, cornerRadius float64, logger *zap.SugaredLogger) *Renderer {
	if cornerRadius <= 0 {
		cornerRadius = defaultCornerRadius
	}
	return &Renderer{
		surface:       surface,
		logger:        logger,
		watermark:     watermark,
		defaultRadius: cornerRadius,
	}
}

// Bind sizes the surface to the device-reported stream geometry. The overlay
// spec survives rebinding: its placement is fractional, so it lands in the
// same relative spot after a preset or resize restart.
func (r *Renderer) Bind(width, height int) error {
	target, err := r.surface.Bind(width, height)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.target = target
	r.size = domain.Size{Width: width, Height: height}
	r.mu.Unlock()
	r.logger.Debugw("surface bound", "width", width, "height", height)
	return nil
}

// Draw scales the frame onto the surface, composites the overlay and the
// watermark, and presents the result.
func (r *Renderer) Draw(frame ports.VideoFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target == nil {
		return domain.ErrSurfaceMissing
	}
	if frame.Width <= 0 || frame.Height <= 0 || frame.Stride < 4*frame.Width || len(frame.Pix) < frame.Stride*frame.Height {
		return errors.NewProtocolError("malformed video frame", nil)
	}

	src := &image.RGBA{
		Pix:    frame.Pix,
		Stride: frame.Stride,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	if src.Rect == r.target.Rect && src.Stride == r.target.Stride {
		copy(r.target.Pix, src.Pix)
	} else {
		draw.ApproxBiLinear.Scale(r.target, r.target.Rect, src, src.Rect, draw.Src, nil)
	}

	r.drawOverlayLocked()
	r.drawWatermarkLocked()
	r.surface.Present()
	return nil
}

// SetOverlay installs or clears the overlay spec. Takes effect on the next
// drawn frame.
func (r *Renderer) SetOverlay(spec *ports.OverlaySpec) {
	r.mu.Lock()
	r.overlay = spec
	r.mask = nil
	r.maskFor = maskKey{}
	r.mu.Unlock()
}

// SnapshotPNG encodes the last presented frame.
func (r *Renderer) SnapshotPNG() ([]byte, error) {
	r.mu.Lock()
	if r.target == nil {
		r.mu.Unlock()
		return nil, domain.ErrSurfaceMissing
	}
	clone := image.NewRGBA(r.target.Rect)
	copy(clone.Pix, r.target.Pix)
	r.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, clone); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Release drops the surface binding. The overlay spec is kept for the next
// session.
func (r *Renderer) Release() {
	r.mu.Lock()
	r.target = nil
	r.size = domain.Size{}
	r.scratch = nil
	r.mu.Unlock()
	r.surface.Release()
}

func (r *Renderer) drawOverlayLocked() {
	spec := r.overlay
	if spec == nil || spec.Source == nil {
		return
	}
	frame, ok := spec.Source.NextFrame()
	if !ok || frame == nil {
		return
	}

	place := spec.Placement.Pixels(r.size)
	clip := clipRect(spec.Shape, image.Rect(place.X, place.Y, place.X+place.Width, place.Y+place.Height))
	clip = clip.Intersect(r.target.Rect)
	if clip.Empty() {
		return
	}

	srcRect := frame.Bounds()
	if spec.Shape == domain.OverlayFitRect {
		clip = fitInside(clip, srcRect)
		if clip.Empty() {
			return
		}
	} else {
		srcRect = coverCrop(srcRect, clip)
	}

	scaled := r.scratchLocked(clip.Dx(), clip.Dy())
	draw.ApproxBiLinear.Scale(scaled, scaled.Rect, frame, srcRect, draw.Src, nil)

	radius := spec.CornerRadius
	if radius <= 0 {
		radius = r.defaultRadius
	}
	if mask := r.maskLocked(spec.Shape, clip.Dx(), clip.Dy(), radius); mask != nil {
		draw.DrawMask(r.target, clip, scaled, image.Point{}, mask, image.Point{}, draw.Over)
	} else {
		draw.Draw(r.target, clip, scaled, image.Point{}, draw.Over)
	}
}

// scratchLocked reuses the intermediate overlay buffer across frames; the
// clip size only changes when the placement or surface does.
func (r *Renderer) scratchLocked(w, h int) *image.RGBA {
	if r.scratch == nil || r.scratch.Rect.Dx() != w || r.scratch.Rect.Dy() != h {
		r.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return r.scratch
}

func (r *Renderer) maskLocked(shape domain.OverlayShape, w, h int, radius float64) *image.Alpha {
	key := maskKey{shape: shape, w: w, h: h, radius: radius}
	if r.mask != nil && r.maskFor == key {
		return r.mask
	}
	r.mask = buildMask(shape, w, h, radius)
	r.maskFor = key
	return r.mask
}

func (r *Renderer) drawWatermarkLocked() {
	if r.watermark == "" {
		return
	}
	d := font.Drawer{
		Dst:  r.target,
		Src:  image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xa8}),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(r.watermark).Ceil()
	x := r.size.Width - w - watermarkMargin
	if x < watermarkMargin {
		x = watermarkMargin
	}
	d.Dot = fixed.P(x, r.size.Height-watermarkMargin)
	d.DrawString(r.watermark)
}
