// Package state persists marker placements between generalization calls.
//
// Stability across calls depends on every marker remembering the group it
// was last accepted under. A [Store] records that group and the icon shown
// for it, keyed by marker ID, so the next call can replay the placement
// even if the caller reorders or adds markers. A snapshot carries the
// fingerprint of the group and sprite configuration it was taken under and
// is ignored once that configuration changes.
package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/observability"
	"github.com/matzehuels/declutter/pkg/scene"
)

const keyType = "state"

// Entry is the persisted placement of one marker.
type Entry struct {
	PrevGroup int `json:"prev_group"`
	Icon      int `json:"icon"`
}

// Snapshot is the stored form of a scene's placements.
type Snapshot struct {
	Fingerprint string           `json:"fingerprint"`
	Entries     map[string]Entry `json:"entries"`
}

// Store reads and writes snapshots through a [cache.Cache].
type Store struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewStore returns a store over c. A nil keyer selects [cache.DefaultKeyer].
func NewStore(c cache.Cache, keyer cache.Keyer) *Store {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Store{cache: c, keyer: keyer}
}

// Key returns the cache key used for the named scene.
func (s *Store) Key(name string) string {
	return s.keyer.StateKey(name)
}

// Load restores the placements saved for sc into buf, which must have been
// built by sc.Buffer. It returns the number of markers restored. Markers
// without a saved entry are left unplaced, as is everything when the
// saved fingerprint does not match.
func (s *Store) Load(ctx context.Context, sc *scene.Scene, buf *marker.Buffer) (int, error) {
	data, ok, err := s.cache.Get(ctx, s.Key(sc.Name))
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return 0, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot only costs stability; start over.
		observability.Cache().OnCacheMiss(ctx, keyType)
		return 0, nil
	}
	if snap.Fingerprint != sc.Fingerprint() {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return 0, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType)

	restored := 0
	for i := 0; i < buf.Len(); i++ {
		e, ok := snap.Entries[sc.MarkerID(i)]
		if !ok {
			continue
		}
		m := buf.At(i)
		m.SetPrevGroup(e.PrevGroup)
		m.SetIcon(e.Icon)
		restored++
	}
	return restored, nil
}

// Save records the placements in buf for sc. Markers without a placement
// are not stored.
func (s *Store) Save(ctx context.Context, sc *scene.Scene, buf *marker.Buffer) error {
	snap := Capture(sc, buf)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.cache.Set(ctx, s.Key(sc.Name), data, cache.TTLState); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// Clear forgets the placements of the named scene.
func (s *Store) Clear(ctx context.Context, name string) error {
	if err := s.cache.Delete(ctx, s.Key(name)); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Capture builds the snapshot of buf without storing it.
func Capture(sc *scene.Scene, buf *marker.Buffer) Snapshot {
	snap := Snapshot{
		Fingerprint: sc.Fingerprint(),
		Entries:     make(map[string]Entry),
	}
	for i := 0; i < buf.Len(); i++ {
		m := buf.At(i)
		g, ok := m.PrevGroup()
		if !ok {
			continue
		}
		snap.Entries[sc.MarkerID(i)] = Entry{PrevGroup: g, Icon: m.Icon()}
	}
	return snap
}

// Close closes the underlying cache.
func (s *Store) Close() error {
	return s.cache.Close()
}
