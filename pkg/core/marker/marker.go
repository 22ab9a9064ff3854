// Package marker provides the flat marker buffer shared between the
// generalization core and its callers.
//
// Markers live in one contiguous []float64, a fixed number of values per
// marker (the stride). The layout stays flat so a host can hand the same
// memory to a worker or another process without copying; inside Go every
// field is reached through named accessors on [Marker].
//
// The "not placed yet" state of the previous-group field is stored as NaN
// in the buffer and surfaced as tagged presence by [Marker.PrevGroup].
package marker

import (
	"fmt"
	"math"
)

// Hidden is the icon value of a marker that must not be drawn.
const Hidden = -1

// Schema describes where each field lives inside one marker record.
type Schema struct {
	Stride    int
	Group     int
	PrevGroup int
	X         int
	Y         int
	Icon      int
}

// DefaultSchema is the five-field record layout used by this module.
var DefaultSchema = Schema{
	Stride:    5,
	Group:     0,
	PrevGroup: 1,
	X:         2,
	Y:         3,
	Icon:      4,
}

// Validate checks that every offset fits inside the stride.
func (s Schema) Validate() error {
	if s.Stride <= 0 {
		return fmt.Errorf("stride must be positive, got %d", s.Stride)
	}
	offsets := map[string]int{
		"group":      s.Group,
		"prev_group": s.PrevGroup,
		"x":          s.X,
		"y":          s.Y,
		"icon":       s.Icon,
	}
	seen := make(map[int]string, len(offsets))
	for name, off := range offsets {
		if off < 0 || off >= s.Stride {
			return fmt.Errorf("offset %s=%d outside stride %d", name, off, s.Stride)
		}
		if other, ok := seen[off]; ok {
			return fmt.Errorf("offsets %s and %s share index %d", name, other, off)
		}
		seen[off] = name
	}
	return nil
}

// Buffer is a fixed-stride marker array. Only the first Len markers take
// part in generalization; the rest of the capacity is ignored.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	schema Schema
	data   []float64
	count  int
}

// New allocates a buffer for n markers using [DefaultSchema]. Every marker
// starts unplaced and hidden.
func New(n int) *Buffer {
	b := &Buffer{
		schema: DefaultSchema,
		data:   make([]float64, n*DefaultSchema.Stride),
		count:  n,
	}
	for i := 0; i < n; i++ {
		m := b.At(i)
		m.ClearPrevGroup()
		m.SetIcon(Hidden)
	}
	return b
}

// Wrap borrows an existing flat buffer holding count markers laid out by
// schema. The data is used in place, not copied.
func Wrap(data []float64, count int, schema Schema) (*Buffer, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if count < 0 || count > len(data)/schema.Stride {
		return nil, fmt.Errorf("marker count %d exceeds capacity %d", count, len(data)/schema.Stride)
	}
	return &Buffer{schema: schema, data: data, count: count}, nil
}

// Len returns the number of markers.
func (b *Buffer) Len() int { return b.count }

// Schema returns the record layout.
func (b *Buffer) Schema() Schema { return b.schema }

// Data returns the underlying flat storage.
func (b *Buffer) Data() []float64 { return b.data }

// At returns an accessor for marker i. It panics if i is out of range.
func (b *Buffer) At(i int) Marker {
	if i < 0 || i >= b.count {
		panic(fmt.Sprintf("marker index %d out of range [0,%d)", i, b.count))
	}
	off := i * b.schema.Stride
	return Marker{rec: b.data[off : off+b.schema.Stride : off+b.schema.Stride], s: &b.schema}
}

// ResetIcons hides every marker that has no previous placement. Callers
// that want "never accepted ⇒ hidden" run this before each generalization;
// the generalization itself leaves unaccepted icons untouched.
func (b *Buffer) ResetIcons() {
	for i := 0; i < b.count; i++ {
		m := b.At(i)
		if _, ok := m.PrevGroup(); !ok {
			m.SetIcon(Hidden)
		}
	}
}

// Marker is a view onto one record of a [Buffer]. Writes go straight to
// the buffer.
type Marker struct {
	rec []float64
	s   *Schema
}

// Group returns the priority group the marker was assigned to.
func (m Marker) Group() int { return int(m.rec[m.s.Group]) }

// SetGroup sets the assigned priority group.
func (m Marker) SetGroup(g int) { m.rec[m.s.Group] = float64(g) }

// PrevGroup returns the group the marker was last placed at, if any.
func (m Marker) PrevGroup() (int, bool) {
	v := m.rec[m.s.PrevGroup]
	if math.IsNaN(v) {
		return 0, false
	}
	return int(v), true
}

// SetPrevGroup records the group the marker was placed at.
func (m Marker) SetPrevGroup(g int) { m.rec[m.s.PrevGroup] = float64(g) }

// ClearPrevGroup marks the marker as never placed.
func (m Marker) ClearPrevGroup() { m.rec[m.s.PrevGroup] = math.NaN() }

// X returns the horizontal pixel position in viewport-global space.
func (m Marker) X() float64 { return m.rec[m.s.X] }

// Y returns the vertical pixel position in viewport-global space.
func (m Marker) Y() float64 { return m.rec[m.s.Y] }

// SetPosition sets the pixel position.
func (m Marker) SetPosition(x, y float64) {
	m.rec[m.s.X] = x
	m.rec[m.s.Y] = y
}

// Icon returns the sprite reference, or [Hidden].
func (m Marker) Icon() int { return int(m.rec[m.s.Icon]) }

// SetIcon sets the sprite reference.
func (m Marker) SetIcon(icon int) { m.rec[m.s.Icon] = float64(icon) }

// Visible reports whether the marker currently shows an icon.
func (m Marker) Visible() bool { return m.Icon() != Hidden }
