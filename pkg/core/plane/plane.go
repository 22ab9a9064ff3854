package plane

// Plane is a bit-packed occupancy grid, one bit per pixel, row-major.
// The zero value is an empty 0×0 plane.
type Plane struct {
	width  int
	height int
	bits   []byte
}

// New allocates a cleared plane covering at least w×h pixels. The width is
// rounded up to the next multiple of 8 so every row starts on a byte.
func New(w, h int) *Plane {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	w = AlignWidth(w)
	return &Plane{
		width:  w,
		height: h,
		bits:   make([]byte, w*h>>3),
	}
}

// AlignWidth rounds w up to the next multiple of 8.
func AlignWidth(w int) int {
	return (w + 7) &^ 7
}

// Width returns the padded plane width in pixels.
func (p *Plane) Width() int { return p.width }

// Height returns the plane height in pixels.
func (p *Plane) Height() int { return p.height }

// Get reports whether the pixel at (x, y) is set. Out-of-range pixels are
// reported as clear.
func (p *Plane) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	i := y*p.width + x
	return p.bits[i>>3]&(0x80>>(i&7)) != 0
}

// Reset clears every bit.
func (p *Plane) Reset() {
	clear(p.bits)
}

// Collides reports whether any bit inside r is set. r must already be
// clipped to the plane, as produced by [Footprint].
func (p *Plane) Collides(r Rect) bool {
	if r.Empty() {
		return false
	}
	head, tail := headMask(r.MinX), tailMask(r.MaxX)
	for y := r.MinY; y < r.MaxY; y++ {
		row := y * p.width
		start := (row + r.MinX) >> 3
		end := (row + r.MaxX) >> 3

		if start == end {
			if p.bits[start]&head&tail != 0 {
				return true
			}
			continue
		}

		sum := p.bits[start] & head
		for i := start + 1; i < end; i++ {
			sum |= p.bits[i]
		}
		if tail != 0 {
			sum |= p.bits[end] & tail
		}
		if sum != 0 {
			return true
		}
	}
	return false
}

// Paint sets every bit inside r. Painting is idempotent. r must already be
// clipped to the plane, as produced by [Footprint].
func (p *Plane) Paint(r Rect) {
	if r.Empty() {
		return
	}
	head, tail := headMask(r.MinX), tailMask(r.MaxX)
	for y := r.MinY; y < r.MaxY; y++ {
		row := y * p.width
		start := (row + r.MinX) >> 3
		end := (row + r.MaxX) >> 3

		if start == end {
			p.bits[start] |= head & tail
			continue
		}

		p.bits[start] |= head
		for i := start + 1; i < end; i++ {
			p.bits[i] = 0xFF
		}
		// A zero tail mask means the row ends on a byte boundary; end may
		// then point one past the last byte of the plane.
		if tail != 0 {
			p.bits[end] |= tail
		}
	}
}

// headMask selects bits x&7 through 7 of the byte holding x.
func headMask(x int) byte {
	return 0xFF >> (x & 7)
}

// tailMask selects the bits before x&7 in the byte holding x.
func tailMask(x int) byte {
	return ^byte(0xFF >> (x & 7))
}
