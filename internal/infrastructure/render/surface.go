package render

import (
	"image"
	"sync"

	"droidcast/internal/core/domain"
	"droidcast/pkg/errors"
)

// ImageSurface is the in-memory drawing surface behind the renderer. The
// console serves its contents to the browser; Present marks a completed
// frame so readers can tell a bound-but-empty surface from a live one.
type ImageSurface struct {
	mu        sync.Mutex
	buf       *image.RGBA
	bounds    domain.Size
	presented uint64
}

// NewImageSurface creates a surface. bounds seeds the host container size
// used before the console reports a real one.
func NewImageSurface(bounds domain.Size) *ImageSurface {
	if bounds.IsZero() {
		bounds = domain.Size{Width: 1280, Height: 720}
	}
	return &ImageSurface{bounds: bounds}
}

// Bind allocates a backing buffer for the given stream geometry and returns
// it for direct pixel access.
func (s *ImageSurface) Bind(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewInvalidInputError("surface dimensions must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = image.NewRGBA(image.Rect(0, 0, width, height))
	s.presented = 0
	return s.buf, nil
}

func (s *ImageSurface) Present() {
	s.mu.Lock()
	s.presented++
	s.mu.Unlock()
}

func (s *ImageSurface) Release() {
	s.mu.Lock()
	s.buf = nil
	s.presented = 0
	s.mu.Unlock()
}

// HostBounds returns the latest known browser container size.
func (s *ImageSurface) HostBounds() domain.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// SetHostBounds records the container size reported by the console UI.
func (s *ImageSurface) SetHostBounds(bounds domain.Size) {
	if bounds.IsZero() {
		return
	}
	s.mu.Lock()
	s.bounds = bounds
	s.mu.Unlock()
}

// Presented reports how many frames were presented since the last Bind.
func (s *ImageSurface) Presented() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}
