package domain

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether either dimension is unset.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// MaxDelta returns the larger per-dimension difference between two sizes.
// Resize reconciliation compares it against the restart threshold.
func (s Size) MaxDelta(o Size) int {
	dw := s.Width - o.Width
	if dw < 0 {
		dw = -dw
	}
	dh := s.Height - o.Height
	if dh < 0 {
		dh = -dh
	}
	if dw > dh {
		return dw
	}
	return dh
}

// Rect is a pixel rectangle in some concrete coordinate space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FractionRect is a placement rectangle expressed as fractions (0..1) of the
// rendering surface, so overlay placement survives resolution changes.
type FractionRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pixels maps the fractional rectangle onto a surface of the given size.
func (f FractionRect) Pixels(surface Size) Rect {
	return Rect{
		X:      int(f.X * float64(surface.Width)),
		Y:      int(f.Y * float64(surface.Height)),
		Width:  int(f.Width * float64(surface.Width)),
		Height: int(f.Height * float64(surface.Height)),
	}
}

// PlacementFromHost translates an overlay container's on-screen bounds into
// fractions of the mirror container's on-screen bounds. The host reports both
// in the same coordinate space (CSS pixels); the renderer later scales the
// fractions into surface pixels, which generally differ from on-screen size.
func PlacementFromHost(overlay, mirror Rect) FractionRect {
	if mirror.Width <= 0 || mirror.Height <= 0 {
		return FractionRect{}
	}
	return FractionRect{
		X:      float64(overlay.X-mirror.X) / float64(mirror.Width),
		Y:      float64(overlay.Y-mirror.Y) / float64(mirror.Height),
		Width:  float64(overlay.Width) / float64(mirror.Width),
		Height: float64(overlay.Height) / float64(mirror.Height),
	}
}

// VideoRegion computes the sub-rectangle of the host container actually
// covered by video when the container and video aspect ratios differ. Pointer
// coordinates are normalized against this region so letterbox bars around the
// video never receive touches.
func VideoRegion(container Size, video Size) Rect {
	if container.IsZero() || video.IsZero() {
		return Rect{Width: container.Width, Height: container.Height}
	}

	containerAR := float64(container.Width) / float64(container.Height)
	videoAR := float64(video.Width) / float64(video.Height)

	if containerAR > videoAR {
		// Pillarbox: bars left and right.
		w := int(float64(container.Height) * videoAR)
		return Rect{X: (container.Width - w) / 2, Y: 0, Width: w, Height: container.Height}
	}
	// Letterbox: bars above and below.
	h := int(float64(container.Width) / videoAR)
	return Rect{X: 0, Y: (container.Height - h) / 2, Width: container.Width, Height: h}
}

// DisplayConfig describes a virtual ("desktop mode") display to create on the
// device instead of mirroring the physical screen.
type DisplayConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	DPI    int `json:"dpi"`
}

// DesktopGeometry holds the reference pair and floor used to derive a virtual
// display's DPI from its pixel size.
type DesktopGeometry struct {
	ReferenceSize int
	ReferenceDPI  int
	MinDPI        int
}

// NewDisplayConfig computes virtual-display geometry from the host
// container's rendered size. Width and height are rounded down to even
// integers (the encoder rejects odd dimensions); DPI scales the reference
// pair by the smaller dimension and is clamped to the configured minimum.
func NewDisplayConfig(container Size, geo DesktopGeometry) DisplayConfig {
	w := container.Width &^ 1
	h := container.Height &^ 1

	smaller := w
	if h < smaller {
		smaller = h
	}

	dpi := geo.MinDPI
	if geo.ReferenceSize > 0 {
		dpi = geo.ReferenceDPI * smaller / geo.ReferenceSize
		if dpi < geo.MinDPI {
			dpi = geo.MinDPI
		}
	}

	return DisplayConfig{Width: w, Height: h, DPI: dpi}
}
