package generalize

import (
	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/core/plane"
)

// Generalize runs replay and placement over in.Markers, updating icons and
// previous groups in place.
func Generalize(in Input) {
	Run(in)
}

// Run is [Generalize] that also reports what happened.
func Run(in Input) Stats {
	w := plane.AlignWidth(in.Bounds.Width())
	h := in.Bounds.Height()

	g := &generalizer{
		in:   in,
		main: plane.New(w, h),
		origin: plane.Vec2{
			float64(in.Bounds.MinX),
			float64(in.Bounds.MinY),
		},
	}
	// The last group casts no halo onto anyone, so it gets no plane.
	if n := len(in.Groups); n > 1 {
		g.degradation = make([]*plane.Plane, n-1)
		for i := range g.degradation {
			g.degradation[i] = plane.New(w, h)
		}
	}

	g.stats.PlaneWidth = g.main.Width()
	g.stats.PlaneHeight = g.main.Height()

	g.replay()
	g.place()

	for i := 0; i < in.Markers.Len(); i++ {
		if _, ok := in.Markers.At(i).PrevGroup(); !ok {
			g.stats.Unplaced++
		}
	}
	return g.stats
}

// generalizer holds the planes of a single call.
type generalizer struct {
	in          Input
	main        *plane.Plane
	degradation []*plane.Plane
	origin      plane.Vec2
	stats       Stats
}

// degradationPlane returns the halo plane of group i, or nil for the last
// group.
func (g *generalizer) degradationPlane(i int) *plane.Plane {
	if i < 0 || i >= len(g.degradation) {
		return nil
	}
	return g.degradation[i]
}

// footprint builds the plane rectangle of m drawn with sprite s.
func (g *generalizer) footprint(s Sprite, m marker.Marker, padding float64) plane.Rect {
	pos := plane.Vec2{m.X() - g.origin.X(), m.Y() - g.origin.Y()}
	return plane.Footprint(g.main.Width(), g.main.Height(), s.Size, s.Anchor, pos, padding)
}

// replay re-applies placements from the previous call without testing for
// collisions.
func (g *generalizer) replay() {
	groups := g.in.Groups
	for i := 0; i < g.in.Markers.Len(); i++ {
		m := g.in.Markers.At(i)
		p, ok := m.PrevGroup()
		if !ok {
			continue
		}
		if p < 0 || p >= len(groups) {
			g.stats.ReplaySkipped++
			continue
		}
		group := groups[p]
		s, ok := g.in.Sprites.Sprite(group.Icon)
		if !ok {
			g.stats.ReplaySkipped++
			continue
		}
		g.stats.Replayed++

		// Visibility only; the reservation below does not depend on it.
		if g.footprint(s, m, 0).Empty() {
			m.SetIcon(marker.Hidden)
			g.stats.ReplayHidden++
		} else {
			m.SetIcon(group.Icon)
		}

		if r := g.footprint(s, m, group.Margin); !r.Empty() {
			g.main.Paint(r)
		}
		if dp := g.degradationPlane(p); dp != nil {
			if r := g.footprint(s, m, group.Degradation); !r.Empty() {
				dp.Paint(r)
			}
		}
	}
}

// place visits groups in priority order and greedily accepts markers whose
// safe zone is still free.
func (g *generalizer) place() {
	for i, group := range g.in.Groups {
		s, ok := g.in.Sprites.Sprite(group.Icon)
		if !ok {
			continue
		}
		prev := g.degradationPlane(i - 1)
		cur := g.degradationPlane(i)

		for j := 0; j < g.in.Markers.Len(); j++ {
			m := g.in.Markers.At(j)
			if m.Group() > i {
				continue
			}
			if _, placed := m.PrevGroup(); placed {
				continue
			}

			margin := g.footprint(s, m, group.Margin)
			if margin.Empty() {
				continue
			}
			// Only a marker's own round honours the halo of the group
			// before it; later retries face the main plane alone.
			if m.Group() == i && prev != nil && prev.Collides(margin) {
				continue
			}

			safe := g.footprint(s, m, group.SafeZone)
			if safe.Empty() || g.main.Collides(safe) {
				continue
			}

			g.main.Paint(margin)
			if cur != nil {
				if r := g.footprint(s, m, group.Degradation); !r.Empty() {
					cur.Paint(r)
				}
			}
			m.SetIcon(group.Icon)
			m.SetPrevGroup(i)
			g.stats.Placed++
		}
	}
}
