package scene

import (
	"math"
	"strconv"

	"github.com/matzehuels/declutter/pkg/core/generalize"
	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/core/plane"
	"github.com/matzehuels/declutter/pkg/errors"
)

// Scene is one generalization request.
type Scene struct {
	Name    string             `json:"name,omitempty"`
	Bounds  generalize.Bounds  `json:"bounds"`
	Groups  []generalize.Group `json:"groups"`
	Sprites []SpriteDef        `json:"sprites"`
	Markers []MarkerDef        `json:"markers"`
}

// SpriteDef binds a sprite to its icon index.
type SpriteDef struct {
	Icon   int        `json:"icon" toml:"icon"`
	Size   plane.Vec2 `json:"size" toml:"size"`
	Anchor plane.Vec2 `json:"anchor" toml:"anchor"`
}

// MarkerDef is one input marker. ID is optional and defaults to the
// marker's index; it keys the placement state between runs.
type MarkerDef struct {
	ID    string  `json:"id,omitempty"`
	Group int     `json:"group"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// MarkerID returns the ID of marker i.
func (s *Scene) MarkerID(i int) string {
	if id := s.Markers[i].ID; id != "" {
		return id
	}
	return strconv.Itoa(i)
}

// Validate checks the scene against the assumptions of the generalization
// core. Returned errors carry an [errors.Code].
func (s *Scene) Validate() error {
	if s.Name != "" {
		if err := errors.ValidateName(s.Name); err != nil {
			return err
		}
	}

	b := s.Bounds
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return errors.New(errors.ErrCodeInvalidBounds, "bounds are inverted: %+v", b)
	}

	if len(s.Groups) == 0 {
		return errors.New(errors.ErrCodeInvalidScene, "at least one group is required")
	}
	for i, g := range s.Groups {
		if err := validateGroup(g); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "group %d", i)
		}
	}

	icons := make(map[int]bool, len(s.Sprites))
	for i, sp := range s.Sprites {
		if err := validateSprite(sp); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "sprite %d", i)
		}
		if icons[sp.Icon] {
			return errors.New(errors.ErrCodeInvalidScene, "sprite %d: duplicate icon %d", i, sp.Icon)
		}
		icons[sp.Icon] = true
	}

	ids := make(map[string]int, len(s.Markers))
	for i, m := range s.Markers {
		if m.Group < 0 || m.Group >= len(s.Groups) {
			return errors.New(errors.ErrCodeInvalidScene, "marker %d: group %d out of range [0,%d)", i, m.Group, len(s.Groups))
		}
		if !finite(m.X) || !finite(m.Y) {
			return errors.New(errors.ErrCodeInvalidScene, "marker %d: position is not finite", i)
		}
		id := s.MarkerID(i)
		if j, dup := ids[id]; dup {
			return errors.New(errors.ErrCodeInvalidScene, "markers %d and %d share id %q", j, i, id)
		}
		ids[id] = i
	}
	return nil
}

func validateGroup(g generalize.Group) error {
	switch {
	case g.Icon < 0:
		return errors.New(errors.ErrCodeInvalidInput, "icon must be non-negative, got %d", g.Icon)
	case !nonNegative(g.SafeZone):
		return errors.New(errors.ErrCodeInvalidInput, "safe_zone must be >= 0, got %v", g.SafeZone)
	case !nonNegative(g.Margin):
		return errors.New(errors.ErrCodeInvalidInput, "margin must be >= 0, got %v", g.Margin)
	case !nonNegative(g.Degradation):
		return errors.New(errors.ErrCodeInvalidInput, "degradation must be >= 0, got %v", g.Degradation)
	}
	return nil
}

func validateSprite(sp SpriteDef) error {
	if sp.Icon < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "icon must be non-negative, got %d", sp.Icon)
	}
	for _, v := range sp.Size {
		if !nonNegative(v) {
			return errors.New(errors.ErrCodeInvalidInput, "size must be >= 0, got %v", sp.Size)
		}
	}
	for _, v := range sp.Anchor {
		if !(v >= 0 && v <= 1) {
			return errors.New(errors.ErrCodeInvalidInput, "anchor must lie in [0,1], got %v", sp.Anchor)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }

// Atlas returns the scene's sprites keyed by icon.
func (s *Scene) Atlas() generalize.SpriteMap {
	m := make(generalize.SpriteMap, len(s.Sprites))
	for _, sp := range s.Sprites {
		m[sp.Icon] = generalize.Sprite{Size: sp.Size, Anchor: sp.Anchor}
	}
	return m
}

// Buffer builds a fresh marker buffer in scene order. Every marker starts
// unplaced and hidden.
func (s *Scene) Buffer() *marker.Buffer {
	b := marker.New(len(s.Markers))
	for i, md := range s.Markers {
		m := b.At(i)
		m.SetGroup(md.Group)
		m.SetPosition(md.X, md.Y)
	}
	return b
}

// Input assembles the generalization input over buf, which must come from
// [Scene.Buffer].
func (s *Scene) Input(buf *marker.Buffer) generalize.Input {
	return generalize.Input{
		Bounds:  s.Bounds,
		Groups:  s.Groups,
		Sprites: s.Atlas(),
		Markers: buf,
	}
}

// Pan moves the viewport by (dx, dy) pixels.
func (s *Scene) Pan(dx, dy int) {
	s.Bounds = s.Bounds.Translate(dx, dy)
}

// Fingerprint identifies the group and sprite configuration. Placement
// state recorded under a different fingerprint refers to other groups and
// must not be replayed.
func (s *Scene) Fingerprint() string {
	return fingerprint(s.Groups, s.Sprites)
}
