// Package plane implements the bit-packed occupancy grid used to detect
// marker collisions.
//
// # Overview
//
// A [Plane] covers the current viewport with one bit per pixel. Rows are
// stored back to back and every row starts on a byte boundary because the
// plane width is always rounded up to a multiple of 8. Inside a byte the
// most significant bit is the leftmost pixel.
//
// Two operations are supported, both over a half-open [Rect]:
//
//   - [Plane.Collides] reports whether any bit inside the rectangle is set.
//   - [Plane.Paint] sets every bit inside the rectangle.
//
// Both walk the rectangle row by row and touch whole bytes wherever
// possible, so their cost is rows × bytes-per-row and neither allocates.
//
// # Footprints
//
// [Footprint] turns a sprite's size and anchor, a marker position and a
// padding into a plane-clipped [Rect]. An empty result means the padded
// sprite does not intersect the viewport at all:
//
//	p := plane.New(256, 256)
//	r := plane.Footprint(p.Width(), p.Height(),
//	    plane.Vec2{16, 16}, plane.Vec2{0.5, 1}, plane.Vec2{120, 80}, 2)
//	if !r.Empty() && !p.Collides(r) {
//	    p.Paint(r)
//	}
package plane
