package plane

import (
	"math"
	"testing"
)

func TestRect(t *testing.T) {
	r := Rect{MinX: 2, MinY: 3, MaxX: 10, MaxY: 4}
	if r.Dx() != 8 {
		t.Errorf("Dx() = %d, want 8", r.Dx())
	}
	if r.Dy() != 1 {
		t.Errorf("Dy() = %d, want 1", r.Dy())
	}
	if r.Empty() {
		t.Error("Empty() = true, want false")
	}
	if !(Rect{2, 3, 2, 9}).Empty() {
		t.Error("zero width rect is not empty")
	}
	if !(Rect{2, 3, 9, 3}).Empty() {
		t.Error("zero height rect is not empty")
	}
}

func TestFootprint(t *testing.T) {
	tests := []struct {
		name    string
		size    Vec2
		anchor  Vec2
		pos     Vec2
		padding float64
		want    Rect
	}{
		{
			name:   "centered",
			size:   Vec2{4, 4},
			anchor: Vec2{0.5, 0.5},
			pos:    Vec2{4, 4},
			want:   Rect{2, 2, 6, 6},
		},
		{
			name:    "padded",
			size:    Vec2{4, 4},
			anchor:  Vec2{0.5, 0.5},
			pos:     Vec2{4, 4},
			padding: 2,
			want:    Rect{0, 0, 8, 8},
		},
		{
			name:   "bottom anchor",
			size:   Vec2{10, 20},
			anchor: Vec2{0.5, 1},
			pos:    Vec2{30, 30},
			want:   Rect{25, 10, 35, 30},
		},
		{
			name:   "fractional truncates",
			size:   Vec2{5, 5},
			anchor: Vec2{0.5, 0.5},
			pos:    Vec2{10.9, 10.9},
			want:   Rect{8, 8, 13, 13},
		},
		{
			name:    "clipped left and top",
			size:    Vec2{10, 10},
			anchor:  Vec2{0.5, 0.5},
			pos:     Vec2{1, 2},
			padding: 1,
			want:    Rect{0, 0, 7, 8},
		},
		{
			name:   "clipped right and bottom",
			size:   Vec2{10, 10},
			anchor: Vec2{0, 0},
			pos:    Vec2{60, 28},
			want:   Rect{60, 28, 64, 32},
		},
		{
			name:   "left of plane",
			size:   Vec2{4, 4},
			anchor: Vec2{0.5, 0.5},
			pos:    Vec2{-10, 10},
			want:   Rect{0, 8, 0, 12},
		},
		{
			name:   "below plane",
			size:   Vec2{4, 4},
			anchor: Vec2{0.5, 0.5},
			pos:    Vec2{10, 100},
			want:   Rect{8, 32, 12, 32},
		},
		{
			name:   "huge position",
			size:   Vec2{4, 4},
			anchor: Vec2{0.5, 0.5},
			pos:    Vec2{1e300, math.Inf(-1)},
			want:   Rect{64, 0, 64, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Footprint(64, 32, tt.size, tt.anchor, tt.pos, tt.padding)
			if got != tt.want {
				t.Errorf("Footprint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFootprintEmptyOutsidePlane(t *testing.T) {
	positions := []Vec2{{-20, 5}, {5, -20}, {200, 5}, {5, 200}}
	for _, pos := range positions {
		r := Footprint(64, 32, Vec2{8, 8}, Vec2{0.5, 0.5}, pos, 1)
		if !r.Empty() {
			t.Errorf("Footprint at %v = %v, want empty", pos, r)
		}
	}
}

func TestFootprintAlwaysInsidePlane(t *testing.T) {
	const w, h = 40, 24
	for x := -30.0; x <= 70; x += 3.7 {
		for y := -30.0; y <= 55; y += 4.3 {
			for _, pad := range []float64{0, 1.5, 12} {
				r := Footprint(w, h, Vec2{9, 13}, Vec2{0.25, 0.75}, Vec2{x, y}, pad)
				if r.MinX < 0 || r.MinX > r.MaxX || r.MaxX > w ||
					r.MinY < 0 || r.MinY > r.MaxY || r.MaxY > h {
					t.Fatalf("Footprint at (%v, %v) pad %v = %v escapes %dx%d", x, y, pad, r, w, h)
				}
			}
		}
	}
}
