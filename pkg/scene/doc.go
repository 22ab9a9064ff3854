// Package scene reads and validates the inputs of a generalization run.
//
// A [Scene] is a viewport, its priority groups, the sprites those groups
// draw and the markers to declutter, all in pixel space. Scenes are JSON
// documents:
//
//	{
//	  "name": "downtown",
//	  "bounds": {"min_x": 0, "min_y": 0, "max_x": 1280, "max_y": 720},
//	  "groups": [{"icon": 0, "safe_zone": 2, "margin": 4, "degradation": 16}],
//	  "sprites": [{"icon": 0, "size": [24, 24], "anchor": [0.5, 1]}],
//	  "markers": [{"id": "cafe-1", "group": 0, "x": 412.5, "y": 230}]
//	}
//
// Groups and sprites can also come from a TOML [Style] file, which replaces
// whatever the scene declares:
//
//	[[group]]
//	icon = 0
//	safe_zone = 2.0
//	margin = 4.0
//	degradation = 16.0
//
//	[[sprite]]
//	icon = 0
//	size = [24.0, 24.0]
//	anchor = [0.5, 1.0]
//
// [Scene.Validate] enforces everything the generalization core assumes
// about its inputs, so the core itself needs no error path.
package scene
