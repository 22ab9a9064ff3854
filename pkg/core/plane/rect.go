package plane

import "math"

// Vec2 is a 2D vector of pixel values: a size, an anchor or a position.
type Vec2 [2]float64

// X returns the first component.
func (v Vec2) X() float64 { return v[0] }

// Y returns the second component.
func (v Vec2) Y() float64 { return v[1] }

// Rect is a half-open integer rectangle [MinX,MaxX) × [MinY,MaxY) in plane
// coordinates.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() int { return r.MaxX - r.MinX }

// Dy returns the height of the rectangle.
func (r Rect) Dy() int { return r.MaxY - r.MinY }

// Empty reports whether the rectangle covers no pixel.
func (r Rect) Empty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// Footprint builds the plane rectangle covered by a sprite of the given size
// whose anchor sits at pos, grown by padding on every side.
//
// Coordinates are truncated toward zero and then clamped into [0,w] and
// [0,h]. The result is empty when the padded sprite lies completely outside
// the plane.
func Footprint(w, h int, size, anchor, pos Vec2, padding float64) Rect {
	x1 := pos.X() - size.X()*anchor.X() - padding
	y1 := pos.Y() - size.Y()*anchor.Y() - padding
	x2 := pos.X() + size.X()*(1-anchor.X()) + padding
	y2 := pos.Y() + size.Y()*(1-anchor.Y()) + padding

	return Rect{
		MinX: clampTrunc(x1, w),
		MinY: clampTrunc(y1, h),
		MaxX: clampTrunc(x2, w),
		MaxY: clampTrunc(y2, h),
	}
}

// clampTrunc truncates v toward zero and clamps it into [0,limit]. Clamping
// happens on the float so huge or infinite values never overflow int.
func clampTrunc(v float64, limit int) int {
	v = math.Trunc(v)
	switch {
	case !(v > 0):
		// Also catches NaN.
		return 0
	case v >= float64(limit):
		return limit
	default:
		return int(v)
	}
}
