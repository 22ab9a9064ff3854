// Package pkg provides the libraries behind declutter, a marker
// generalizer for map viewports.
//
// # Overview
//
// Dense point data cannot be drawn at every zoom level without overlap.
// Declutter decides which markers stay visible: higher-priority groups win
// contested space, lower groups may fall back to smaller icons, and markers
// accepted once keep their place while the viewport pans. The pkg
// directory is organized into these areas:
//
//  1. [core] - The generalization algorithm (bit plane, marker buffer, passes)
//  2. [scene] - JSON scenes and TOML styles
//  3. [state], [cache], [session] - Placement persistence between calls
//  4. [pipeline] - Orchestration (restore → generalize → persist)
//  5. [server], [client] - HTTP host and its client
//
// # Architecture
//
// The typical data flow of one call:
//
//	Scene file / HTTP request
//	         ↓
//	    [scene] package (decode + validate)
//	         ↓
//	    [state] package (restore previous placements by marker ID)
//	         ↓
//	    [core/generalize] package (stability replay, priority placement)
//	         ↓
//	    [state] package (persist placements for the next call)
//	         ↓
//	    Visible markers with their icons
//
// # Quick Start
//
//	sc, err := scene.LoadScene("harbour.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := pipeline.NewRunner(state.NewStore(cache.NewMemoryCache(), nil), nil)
//	result, err := runner.Execute(ctx, sc, pipeline.Options{PanX: 32})
//
// The generalization core can also be used on its own:
//
//	buf := marker.New(n)
//	// fill groups and positions ...
//	generalize.Generalize(generalize.Input{
//	    Bounds:  generalize.Bounds{MaxX: 1024, MaxY: 768},
//	    Groups:  groups,
//	    Sprites: sprites,
//	    Markers: buf,
//	})
//
// [core]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/core
// [scene]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/scene
// [state]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/state
// [cache]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/server
// [client]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/client
// [core/generalize]: https://pkg.go.dev/github.com/matzehuels/declutter/pkg/core/generalize
package pkg
