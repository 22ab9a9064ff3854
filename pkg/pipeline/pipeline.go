// Package pipeline runs marker generalization end to end.
//
// This package implements the load → generalize → save sequence shared by
// the CLI, the interactive viewer and the HTTP server. By centralizing it,
// every entry point replays placements the same way and reports the same
// results.
//
// # Architecture
//
// A run has three steps:
//
//  1. Restore: previous placements are read from a [state.Store] by marker ID
//  2. Generalize: the stability replay and the priority placement run over
//     a fresh occupancy plane
//  3. Persist: the new placements are written back for the next call
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	store := state.NewStore(cache.NewMemoryCache(), nil)
//	runner := pipeline.NewRunner(store, logger)
//	sc, _ := scene.LoadScene("city.json")
//	result, err := runner.Execute(ctx, sc, pipeline.Options{PanX: 16})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Visible(), "markers visible")
//
// Callers that keep their own marker buffer, such as the viewer, skip the
// state store and call [Runner.Generalize] directly.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/declutter/pkg/core/generalize"
	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/scene"
)

// DefaultName is the scene name used when neither the scene nor the
// options provide one. Placement state is keyed by it.
const DefaultName = "default"

// Format constants for result output.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
}

// Options configures one pipeline run.
type Options struct {
	// Name overrides the scene name used to key placement state.
	Name string `json:"name,omitempty"`

	// PanX and PanY move the viewport before generalizing.
	PanX int `json:"pan_x,omitempty"`
	PanY int `json:"pan_y,omitempty"`

	// HideUnplaced hides markers that end the call without a placement.
	// Otherwise they keep the icon they came in with.
	HideUnplaced bool `json:"hide_unplaced,omitempty"`

	// Refresh ignores saved placements. The new ones are still saved.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Style  *scene.Style `json:"-"`
	Logger *log.Logger  `json:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: text, json)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Name != "" {
		if err := errors.ValidateName(o.Name); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// prepare returns the scene the run works on. The caller's scene is not
// modified.
func (o *Options) prepare(sc *scene.Scene) *scene.Scene {
	work := *sc
	if o.Style != nil {
		work.ApplyStyle(o.Style)
	}
	if o.Name != "" {
		work.Name = o.Name
	}
	if work.Name == "" {
		work.Name = DefaultName
	}
	work.Pan(o.PanX, o.PanY)
	return &work
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the name placements were stored under.
	Scene string `json:"scene"`

	// Bounds is the viewport after panning.
	Bounds generalize.Bounds `json:"bounds"`

	// Markers lists every marker in input order.
	Markers []MarkerResult `json:"markers"`

	// Restored counts markers whose placement was read from the store.
	Restored int `json:"restored"`

	// Stats are the counters of the generalization passes.
	Stats generalize.Stats `json:"stats"`

	// Duration is the wall time of the generalization step.
	Duration time.Duration `json:"duration_ns"`
}

// MarkerResult is the outcome for one marker.
type MarkerResult struct {
	ID        string  `json:"id"`
	Group     int     `json:"group"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	PrevGroup *int    `json:"prev_group,omitempty"`
	Icon      int     `json:"icon"`
	Visible   bool    `json:"visible"`
}

// Visible returns the number of markers shown with an icon.
func (r *Result) Visible() int {
	n := 0
	for _, m := range r.Markers {
		if m.Visible {
			n++
		}
	}
	return n
}

// Hidden returns the number of markers not shown.
func (r *Result) Hidden() int {
	return len(r.Markers) - r.Visible()
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d visible, %d hidden", r.Scene, r.Visible(), r.Hidden())
}
