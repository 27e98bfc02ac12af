package render

import (
	"image"
	"image/color"

	"droidcast/internal/core/domain"
)

// defaultCornerRadius is the rounded-rect radius as a fraction of the clip
// rectangle's smaller dimension, used when the overlay spec leaves it unset.
const defaultCornerRadius = 0.1

// clipRect reduces the placement rectangle to the region the shape actually
// covers. Circle and square center-crop to the smaller dimension; the other
// shapes keep the full rectangle.
func clipRect(shape domain.OverlayShape, place image.Rectangle) image.Rectangle {
	if !shape.CenterCrops() {
		return place
	}
	side := place.Dx()
	if place.Dy() < side {
		side = place.Dy()
	}
	x0 := place.Min.X + (place.Dx()-side)/2
	y0 := place.Min.Y + (place.Dy()-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

// fitInside returns the largest sub-rectangle of dst with src's aspect
// ratio, centered. Used by the fit-rect shape so the source is never
// distorted or cropped.
func fitInside(dst image.Rectangle, src image.Rectangle) image.Rectangle {
	if src.Dx() <= 0 || src.Dy() <= 0 || dst.Dx() <= 0 || dst.Dy() <= 0 {
		return image.Rectangle{}
	}
	w := dst.Dx()
	h := w * src.Dy() / src.Dx()
	if h > dst.Dy() {
		h = dst.Dy()
		w = h * src.Dx() / src.Dy()
	}
	x0 := dst.Min.X + (dst.Dx()-w)/2
	y0 := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// coverCrop returns the largest sub-rectangle of src with dst's aspect
// ratio, centered. The clipping shapes scale it to fill their region so the
// overlay never shows bars inside a circle or rounded card.
func coverCrop(src image.Rectangle, dst image.Rectangle) image.Rectangle {
	if src.Dx() <= 0 || src.Dy() <= 0 || dst.Dx() <= 0 || dst.Dy() <= 0 {
		return src
	}
	w := src.Dx()
	h := w * dst.Dy() / dst.Dx()
	if h > src.Dy() {
		h = src.Dy()
		w = h * dst.Dx() / dst.Dy()
	}
	x0 := src.Min.X + (src.Dx()-w)/2
	y0 := src.Min.Y + (src.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// buildMask renders the alpha mask for a shape at the given clip size. A nil
// mask means the full rectangle is drawn.
func buildMask(shape domain.OverlayShape, w, h int, radius float64) *image.Alpha {
	switch shape {
	case domain.OverlayCircle:
		return ellipseMask(w, h)
	case domain.OverlayRoundedRect:
		if radius <= 0 {
			radius = defaultCornerRadius
		}
		smaller := w
		if h < smaller {
			smaller = h
		}
		return roundedMask(w, h, radius*float64(smaller))
	default:
		return nil
	}
}

func ellipseMask(w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	rx, ry := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - rx) / rx
			dy := (float64(y) + 0.5 - ry) / ry
			if dx*dx+dy*dy <= 1 {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

func roundedMask(w, h int, r float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideRounded(x, y, w, h, r) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

// insideRounded tests pixel centers against the corner arcs; pixels outside
// the four corner squares are always inside the shape.
func insideRounded(x, y, w, h int, r float64) bool {
	fx := float64(x) + 0.5
	fy := float64(y) + 0.5
	fw := float64(w)
	fh := float64(h)

	var cx, cy float64
	switch {
	case fx < r && fy < r:
		cx, cy = r, r
	case fx > fw-r && fy < r:
		cx, cy = fw-r, r
	case fx < r && fy > fh-r:
		cx, cy = r, fh-r
	case fx > fw-r && fy > fh-r:
		cx, cy = fw-r, fh-r
	default:
		return true
	}
	dx := fx - cx
	dy := fy - cy
	return dx*dx+dy*dy <= r*r
}
