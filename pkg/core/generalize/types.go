package generalize

import (
	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/core/plane"
)

// Bounds is the viewport rectangle in pixel space. MinX and MinY are the
// origin of the occupancy plane.
type Bounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Width returns the horizontal extent of the viewport.
func (b Bounds) Width() int { return b.MaxX - b.MinX }

// Height returns the vertical extent of the viewport.
func (b Bounds) Height() int { return b.MaxY - b.MinY }

// Translate returns the bounds shifted by (dx, dy).
func (b Bounds) Translate(dx, dy int) Bounds {
	return Bounds{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// Group holds the icon and spacing rules of one priority level.
type Group struct {
	Icon        int     `json:"icon" toml:"icon"`
	SafeZone    float64 `json:"safe_zone" toml:"safe_zone"`
	Margin      float64 `json:"margin" toml:"margin"`
	Degradation float64 `json:"degradation" toml:"degradation"`
}

// Sprite describes an icon's pixel size and the normalized anchor point
// that sits on the marker position.
type Sprite struct {
	Size   plane.Vec2 `json:"size" toml:"size"`
	Anchor plane.Vec2 `json:"anchor" toml:"anchor"`
}

// Atlas looks up sprites by icon. A miss means the sprite is not
// available yet; markers depending on it are left alone.
type Atlas interface {
	Sprite(icon int) (Sprite, bool)
}

// SpriteMap is an in-memory [Atlas].
type SpriteMap map[int]Sprite

// Sprite implements [Atlas].
func (m SpriteMap) Sprite(icon int) (Sprite, bool) {
	s, ok := m[icon]
	return s, ok
}

// Input is everything a generalization call reads. Markers is mutated in
// place.
type Input struct {
	Bounds  Bounds
	Groups  []Group
	Sprites Atlas
	Markers *marker.Buffer
}

// Stats summarizes one call.
type Stats struct {
	PlaneWidth  int `json:"plane_width"`
	PlaneHeight int `json:"plane_height"`

	// Replayed counts markers whose previous placement was re-applied.
	Replayed int `json:"replayed"`
	// ReplayHidden counts replayed markers that scrolled out of view.
	ReplayHidden int `json:"replay_hidden"`
	// ReplaySkipped counts markers with a previous placement whose group
	// or sprite is gone.
	ReplaySkipped int `json:"replay_skipped"`
	// Placed counts markers accepted for the first time in this call.
	Placed int `json:"placed"`
	// Unplaced counts markers that ended the call without a placement.
	Unplaced int `json:"unplaced"`
}
