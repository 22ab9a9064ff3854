// Package generalize decides which map markers may show their icon
// without overlapping each other.
//
// # Overview
//
// Markers are assigned to ordered priority [Group]s, group 0 being the most
// important. Each group names an icon and three paddings:
//
//   - SafeZone pads the footprint tested against already placed markers.
//   - Margin pads the footprint an accepted marker reserves.
//   - Degradation pads a halo that keeps first-time candidates of the next
//     group away.
//
// [Generalize] allocates an occupancy plane for the viewport and runs two
// passes over the marker buffer:
//
//  1. Replay. Markers placed by a previous call reserve their space again
//     unconditionally and become hidden only if they left the viewport.
//     This keeps the result stable while the user pans or zooms a little.
//  2. Placement. Groups are visited in priority order; every still
//     unplaced marker whose own group is at or before the current one is
//     accepted greedily if its safe zone is free.
//
// The marker buffer is the only output. Its previous-group fields must be
// kept by the caller and passed into the next call.
//
// # Usage
//
//	buf := marker.New(len(points))
//	// fill groups and positions ...
//	generalize.Generalize(generalize.Input{
//	    Bounds:  generalize.Bounds{MaxX: 1280, MaxY: 720},
//	    Groups:  groups,
//	    Sprites: generalize.SpriteMap{0: {Size: plane.Vec2{24, 24}, Anchor: plane.Vec2{0.5, 1}}},
//	    Markers: buf,
//	})
//
// Calls are synchronous and must not run concurrently against the same
// buffer.
package generalize
