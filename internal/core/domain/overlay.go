package domain

// OverlayShape selects how the compositor clips an overlay before drawing it
// onto the mirrored frame.
type OverlayShape string

const (
	// OverlayRoundedRect clips to the placement rectangle with rounded corners.
	OverlayRoundedRect OverlayShape = "rounded_rect"
	// OverlayCircle center-crops the placement rectangle to a circle whose
	// diameter is the smaller dimension.
	OverlayCircle OverlayShape = "circle"
	// OverlaySquare center-crops the placement rectangle to a square whose
	// side is the smaller dimension.
	OverlaySquare OverlayShape = "square"
	// OverlayFitRect clips to the placement rectangle exactly.
	OverlayFitRect OverlayShape = "fit_rect"
)

// CenterCrops reports whether the shape reduces the placement rectangle to
// its smaller dimension before clipping.
func (s OverlayShape) CenterCrops() bool {
	return s == OverlayCircle || s == OverlaySquare
}

// Valid reports whether s names a known shape.
func (s OverlayShape) Valid() bool {
	switch s {
	case OverlayRoundedRect, OverlayCircle, OverlaySquare, OverlayFitRect:
		return true
	}
	return false
}
