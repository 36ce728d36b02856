// Package worldregistry is the thread-safe in-memory table of active worlds
// for the terrain-service demo: register/get/update-by-function/remove,
// with copies returned to callers so internal state never leaks out.
//
// Rebuilds are never done inline on a controls update: QueueControls only
// queues the pending controls and marks the world dirty — a periodic Sweep,
// driven by robfig/cron, batches the actual pipeline runs.
package worldregistry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	terrainerrors "terraincore/internal/errors"
	"terraincore/internal/logging"
	"terraincore/internal/navigation"
	"terraincore/internal/terrain"
)

// World is one generated map and its derived navigation structures.
type World struct {
	ID              uuid.UUID
	Config          terrain.Config
	Controls        terrain.Controls
	Cache           *terrain.Cache
	Graph           *navigation.Graph
	PickIndex       *navigation.PickIndex
	TerrainVersion  int64
	Dirty           bool
	PendingControls terrain.Controls
	pipeline        *terrain.Pipeline
}

// Publisher notifies collaborators that a world's terrainVersion changed.
// main supplies a fan-out over the WebSocket notifier and, when NATS is
// connected, a NATS wrapper; kept as an interface so tests can
// substitute a no-op or recording fake.
type Publisher interface {
	PublishVersionBumped(ctx context.Context, worldID uuid.UUID, version int64) error
}

// SnapshotSaver persists a world's opaque snapshot after every rebuild.
type SnapshotSaver interface {
	Save(ctx context.Context, worldID uuid.UUID, snapshot terrain.Snapshot) error
}

// Registry is a thread-safe in-memory registry of world states.
type Registry struct {
	mu        sync.RWMutex
	worlds    map[uuid.UUID]*World
	saver     SnapshotSaver
	publisher Publisher
}

// New creates an empty registry. saver and publisher may be nil, in which
// case persistence and event publishing are skipped (useful in tests).
func New(saver SnapshotSaver, publisher Publisher) *Registry {
	return &Registry{
		worlds:    make(map[uuid.UUID]*World),
		saver:     saver,
		publisher: publisher,
	}
}

// safeBuild runs a pipeline build and recovers a panic raised for an
// "impossible invariant" (such as a face with fewer than three vertices
// after clipping): the BugError is logged with its stable id via
// logging.LogBug and surfaced to the caller as a plain error instead of
// crashing the service. Any other panic is not ours to interpret and is
// re-raised.
func safeBuild(ctx context.Context, worldID uuid.UUID, pipeline *terrain.Pipeline, cfg terrain.Config, controls terrain.Controls, previous *terrain.Cache) (cache *terrain.Cache, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			bug, ok := rec.(*terrainerrors.BugError)
			if !ok {
				panic(rec)
			}
			logging.LogBug(ctx, worldID, bug)
			err = fmt.Errorf("pipeline invariant violated: %w", bug)
		}
	}()
	return pipeline.Build(cfg, controls, previous, "")
}

// CreateWorld builds a fresh world from cfg/controls, registers it, persists
// its snapshot, and publishes the initial version-bump event.
func (r *Registry) CreateWorld(ctx context.Context, cfg terrain.Config, controls terrain.Controls) (*World, error) {
	worldID := uuid.New()
	pipeline := &terrain.Pipeline{}
	cache, err := safeBuild(ctx, worldID, pipeline, cfg, controls, nil)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}
	logging.LogStageReport(ctx, worldID, 1, pipeline.LastRun)

	w := &World{
		ID:             worldID,
		Config:         cfg,
		Controls:       cache.Controls,
		Cache:          cache,
		Graph:          navigation.Build(cache),
		PickIndex:      navigation.BuildPickIndex(cache),
		TerrainVersion: 1,
		pipeline:       pipeline,
	}

	r.mu.Lock()
	r.worlds[w.ID] = w
	r.mu.Unlock()

	if err := r.persistAndPublish(ctx, w); err != nil {
		return nil, err
	}
	return w.copy(), nil
}

// Get retrieves a world by id. The returned World is a shallow copy; its
// Cache/Graph/PickIndex pointers are shared and must be treated read-only.
func (r *Registry) Get(worldID uuid.UUID) (*World, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.worlds[worldID]
	if !ok {
		return nil, fmt.Errorf("world %s not found", worldID)
	}
	return w.copy(), nil
}

// QueueControls marks a world dirty with pending controls. The rebuild
// happens later, in a batch, via Sweep.
func (r *Registry) QueueControls(worldID uuid.UUID, controls terrain.Controls) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.worlds[worldID]
	if !ok {
		return fmt.Errorf("world %s not found", worldID)
	}
	w.PendingControls = controls
	w.Dirty = true
	return nil
}

// Sweep rebuilds every dirty world, reusing unchanged pipeline stages via
// each world's own *terrain.Pipeline, and publishes a version-bump event for
// every world it rebuilt; each successful rebuild bumps TerrainVersion,
// whether or not any stage output changed. It returns the ids it rebuilt.
func (r *Registry) Sweep(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	dirty := make([]*World, 0)
	for _, w := range r.worlds {
		if w.Dirty {
			dirty = append(dirty, w)
		}
	}
	r.mu.RUnlock()

	rebuilt := make([]uuid.UUID, 0, len(dirty))
	for _, w := range dirty {
		cache, err := safeBuild(ctx, w.ID, w.pipeline, w.Config, w.PendingControls, w.Cache)
		if err != nil {
			log.Error().Err(err).Str("world_id", w.ID.String()).Msg("dirty rebuild failed")
			continue
		}

		r.mu.Lock()
		w.Controls = cache.Controls
		w.Cache = cache
		w.Graph = navigation.Build(cache)
		w.PickIndex = navigation.BuildPickIndex(cache)
		w.TerrainVersion++
		w.Dirty = false
		r.mu.Unlock()
		logging.LogStageReport(ctx, w.ID, w.TerrainVersion, w.pipeline.LastRun)

		if err := r.persistAndPublish(ctx, w); err != nil {
			log.Error().Err(err).Str("world_id", w.ID.String()).Msg("persist rebuilt world failed")
			continue
		}
		rebuilt = append(rebuilt, w.ID)
	}
	return rebuilt, nil
}

// ForceRegenerate immediately rebuilds a world from its current controls,
// bypassing the dirty queue. Used by the admin-gated regenerate endpoint.
func (r *Registry) ForceRegenerate(ctx context.Context, worldID uuid.UUID) (*World, error) {
	r.mu.RLock()
	w, ok := r.worlds[worldID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("world %s not found", worldID)
	}

	cache, err := safeBuild(ctx, w.ID, w.pipeline, w.Config, w.Controls, w.Cache)
	if err != nil {
		return nil, fmt.Errorf("regenerate world: %w", err)
	}

	r.mu.Lock()
	w.Cache = cache
	w.Graph = navigation.Build(cache)
	w.PickIndex = navigation.BuildPickIndex(cache)
	w.TerrainVersion++
	w.Dirty = false
	r.mu.Unlock()
	logging.LogStageReport(ctx, w.ID, w.TerrainVersion, w.pipeline.LastRun)

	if err := r.persistAndPublish(ctx, w); err != nil {
		return nil, err
	}
	return w.copy(), nil
}

func (r *Registry) persistAndPublish(ctx context.Context, w *World) error {
	if r.saver != nil {
		snap := terrain.Snapshot{
			SchemaVersion:  1,
			Controls:       w.Controls,
			MapWidth:       w.Config.Width,
			MapHeight:      w.Config.Height,
			TerrainVersion: w.TerrainVersion,
		}
		if err := r.saver.Save(ctx, w.ID, snap); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishVersionBumped(ctx, w.ID, w.TerrainVersion); err != nil {
			return fmt.Errorf("publish version bump: %w", err)
		}
	}
	return nil
}

// copy returns a shallow copy so callers can't mutate the registry's
// bookkeeping fields through the pointers they hold. Cache/Graph/PickIndex
// remain shared, immutable-by-convention snapshots of one build.
func (w *World) copy() *World {
	cp := *w
	return &cp
}
