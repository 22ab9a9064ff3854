package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/core/generalize"
	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/observability"
	"github.com/matzehuels/declutter/pkg/scene"
	"github.com/matzehuels/declutter/pkg/state"
)

// Runner encapsulates pipeline execution with placement state.
// Both CLI and server use this to avoid duplicating the replay logic.
//
// The Runner is stateless except for the store and logger. Runs on the
// same scene name must be serialized by the caller, otherwise the later
// save wins and stability is lost; runs on different names may proceed
// concurrently.
type Runner struct {
	State  *state.Store
	Logger *log.Logger
}

// NewRunner creates a runner over the given store.
// If store is nil, placements are not persisted.
func NewRunner(store *state.Store, logger *log.Logger) *Runner {
	if store == nil {
		store = state.NewStore(cache.NewNullCache(), nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		State:  store,
		Logger: logger,
	}
}

// Execute runs the complete restore → generalize → persist pipeline.
// The scene is validated after the options are applied; sc itself is not
// modified.
func (r *Runner) Execute(ctx context.Context, sc *scene.Scene, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	work := opts.prepare(sc)
	if err := work.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := work.Buffer()

	// Stage 1: Restore
	restored := 0
	if opts.Refresh {
		r.Logger.Debug("ignoring saved placements", "scene", work.Name)
	} else {
		n, err := r.State.Load(ctx, work, buf)
		if err != nil {
			// Without previous placements the result is still valid, only
			// less stable.
			r.Logger.Warn("could not restore placements", "scene", work.Name, "err", err)
		}
		restored = n
		r.Logger.Debug("restored placements", "scene", work.Name, "markers", n)
	}

	// Stage 2: Generalize
	result := r.Generalize(ctx, work, buf, opts)
	result.Restored = restored

	// Stage 3: Persist
	if err := r.State.Save(ctx, work, buf); err != nil {
		r.Logger.Warn("could not save placements", "scene", work.Name, "err", err)
	}

	return result, nil
}

// Generalize runs the generalization passes over buf, which holds the
// markers of sc together with their previous placements, and returns the
// outcome. Panning sc between calls with the same buffer is how an
// interactive host keeps placements stable without a store.
func (r *Runner) Generalize(ctx context.Context, sc *scene.Scene, buf *marker.Buffer, opts Options) *Result {
	hooks := observability.Pipeline()
	hooks.OnGeneralizeStart(ctx, sc.Name, buf.Len(), len(sc.Groups))

	if opts.HideUnplaced {
		buf.ResetIcons()
	}

	start := time.Now()
	stats := generalize.Run(sc.Input(buf))
	elapsed := time.Since(start)

	result := &Result{
		Scene:    sc.Name,
		Bounds:   sc.Bounds,
		Markers:  Collect(sc, buf),
		Stats:    stats,
		Duration: elapsed,
	}
	hooks.OnGeneralizeComplete(ctx, sc.Name, result.Visible(), result.Hidden(), elapsed, nil)

	r.Logger.Info("generalized markers",
		"scene", sc.Name,
		"markers", buf.Len(),
		"visible", result.Visible(),
		"replayed", stats.Replayed,
		"placed", stats.Placed,
		"duration", elapsed)
	if stats.ReplaySkipped > 0 {
		r.Logger.Debug("dropped stale placements", "scene", sc.Name, "markers", stats.ReplaySkipped)
	}
	return result
}

// Collect converts buf into per-marker results in input order.
func Collect(sc *scene.Scene, buf *marker.Buffer) []MarkerResult {
	out := make([]MarkerResult, buf.Len())
	for i := range out {
		m := buf.At(i)
		mr := MarkerResult{
			ID:      sc.MarkerID(i),
			Group:   m.Group(),
			X:       m.X(),
			Y:       m.Y(),
			Icon:    m.Icon(),
			Visible: m.Visible(),
		}
		if g, ok := m.PrevGroup(); ok {
			mr.PrevGroup = &g
		}
		out[i] = mr
	}
	return out
}

// Close releases resources held by the runner's store.
func (r *Runner) Close() error {
	if r.State != nil {
		return r.State.Close()
	}
	return nil
}
