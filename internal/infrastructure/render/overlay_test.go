package render

import (
	"image"
	"testing"

	"droidcast/internal/core/domain"
)

func TestClipRect(t *testing.T) {
	place := image.Rect(10, 20, 50, 40) // 40x20

	tests := []struct {
		name  string
		shape domain.OverlayShape
		want  image.Rectangle
	}{
		{"rounded rect keeps placement", domain.OverlayRoundedRect, place},
		{"fit rect keeps placement", domain.OverlayFitRect, place},
		{"circle crops to centered square", domain.OverlayCircle, image.Rect(20, 20, 40, 40)},
		{"square crops to centered square", domain.OverlaySquare, image.Rect(20, 20, 40, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clipRect(tt.shape, place); got != tt.want {
				t.Errorf("clipRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		name string
		dst  image.Rectangle
		src  image.Rectangle
		want image.Rectangle
	}{
		{
			name: "wide source letterboxes vertically",
			dst:  image.Rect(0, 0, 40, 40),
			src:  image.Rect(0, 0, 20, 10),
			want: image.Rect(0, 10, 40, 30),
		},
		{
			name: "tall source pillarboxes horizontally",
			dst:  image.Rect(0, 0, 40, 40),
			src:  image.Rect(0, 0, 10, 20),
			want: image.Rect(10, 0, 30, 40),
		},
		{
			name: "matching aspect fills destination",
			dst:  image.Rect(5, 5, 45, 25),
			src:  image.Rect(0, 0, 20, 10),
			want: image.Rect(5, 5, 45, 25),
		},
		{
			name: "degenerate source yields empty",
			dst:  image.Rect(0, 0, 40, 40),
			src:  image.Rectangle{},
			want: image.Rectangle{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitInside(tt.dst, tt.src); got != tt.want {
				t.Errorf("fitInside() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoverCrop(t *testing.T) {
	tests := []struct {
		name string
		src  image.Rectangle
		dst  image.Rectangle
		want image.Rectangle
	}{
		{
			name: "wide source crops sides for square destination",
			src:  image.Rect(0, 0, 40, 20),
			dst:  image.Rect(0, 0, 30, 30),
			want: image.Rect(10, 0, 30, 20),
		},
		{
			name: "tall source crops top and bottom",
			src:  image.Rect(0, 0, 20, 40),
			dst:  image.Rect(0, 0, 30, 30),
			want: image.Rect(0, 10, 20, 30),
		},
		{
			name: "matching aspect keeps source",
			src:  image.Rect(0, 0, 20, 20),
			dst:  image.Rect(0, 0, 50, 50),
			want: image.Rect(0, 0, 20, 20),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coverCrop(tt.src, tt.dst); got != tt.want {
				t.Errorf("coverCrop() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEllipseMask(t *testing.T) {
	mask := ellipseMask(40, 40)

	if a := mask.AlphaAt(20, 20).A; a != 0xff {
		t.Errorf("center alpha = %d, want opaque", a)
	}
	if a := mask.AlphaAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
	if a := mask.AlphaAt(20, 1).A; a != 0xff {
		t.Errorf("top midpoint alpha = %d, want opaque", a)
	}
}

func TestRoundedMask(t *testing.T) {
	mask := roundedMask(40, 40, 8)

	if a := mask.AlphaAt(20, 20).A; a != 0xff {
		t.Errorf("center alpha = %d, want opaque", a)
	}
	if a := mask.AlphaAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
	if a := mask.AlphaAt(8, 8).A; a != 0xff {
		t.Errorf("inside corner radius alpha = %d, want opaque", a)
	}
	if a := mask.AlphaAt(20, 0).A; a != 0xff {
		t.Errorf("top edge midpoint alpha = %d, want opaque", a)
	}
}

func TestBuildMask(t *testing.T) {
	if m := buildMask(domain.OverlaySquare, 10, 10, 0.1); m != nil {
		t.Error("square mask should be nil (full rectangle)")
	}
	if m := buildMask(domain.OverlayFitRect, 10, 10, 0.1); m != nil {
		t.Error("fit-rect mask should be nil (full rectangle)")
	}
	if m := buildMask(domain.OverlayCircle, 10, 10, 0); m == nil {
		t.Error("circle mask missing")
	}
	if m := buildMask(domain.OverlayRoundedRect, 10, 10, 0); m == nil {
		t.Error("rounded-rect mask missing")
	}
}
