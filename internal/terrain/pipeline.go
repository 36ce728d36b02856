package terrain

import (
	"fmt"
	"hash/fnv"

	terrainerrors "terraincore/internal/errors"
)

func stableHash(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func configKey(cfg Config) string {
	return fmt.Sprintf("%d,%d", cfg.Width, cfg.Height)
}

func meshKey(c Controls) string {
	return fmt.Sprintf("%v,%v,%v", c.Spacing, c.Seed, c.IntermediateSeed)
}
func waterKey(c Controls) string {
	return fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%v", c.WaterLevel, c.WaterRoughness, c.WaterNoiseScale, c.WaterNoiseStrength, c.WaterNoiseOctaves, c.WaterWarpScale, c.WaterWarpStrength, c.Seed)
}
func elevationKey(c Controls) string {
	return fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v",
		c.LandRelief, c.RidgeStrength, c.RidgeCount, c.PlateauStrength, c.RidgeDistribution,
		c.RidgeSeparation, c.RidgeContinuity, c.RidgeContinuityThreshold, c.OceanPeakClamp,
		c.RidgeOceanClamp, c.RidgeWidth, c.Seed)
}
func riversKey(c Controls) string {
	return fmt.Sprintf("%v,%v,%v,%v", c.RiverDensity, c.RiverBranchChance, c.RiverClimbChance, c.Seed)
}
func provincesKey(c Controls) string {
	return fmt.Sprintf("%v,%v,%v,%v,%v,%v", c.ProvinceCount, c.ProvinceSizeVariance, c.ProvincePassageElevation, c.ProvinceRiverPenalty, c.IslandSizeMultiplier, c.Seed)
}

func computeFingerprints(cfg Config, c Controls, stopAfter StageName) StageFingerprints {
	cfgK := configKey(cfg)
	mesh := stableHash(cfgK, meshKey(c))
	water := stableHash(cfgK, waterKey(c), fmt.Sprint(mesh))
	elevation := stableHash(cfgK, elevationKey(c), fmt.Sprint(water))
	rivers := stableHash(cfgK, riversKey(c), fmt.Sprint(elevation))
	provinces := stableHash(cfgK, provincesKey(c), fmt.Sprint(rivers))
	all := [...]uint64{mesh, water, elevation, rivers, provinces}
	// stages past stopAfter never run, so their fingerprints stay 0 and a
	// later build does not take their missing output for a reusable one
	for i, name := range stageOrder[1:] {
		if stopAfter != "" && stagePastStopAfter(name, stopAfter) {
			all[i+1] = 0
		}
	}
	return StageFingerprints{Mesh: all[0], Water: all[1], Elevation: all[2], Rivers: all[3], Provinces: all[4]}
}

// StageName enumerates the pipeline's ordered stages.
type StageName string

const (
	StageMesh      StageName = "mesh"
	StageWater     StageName = "water"
	StageElevation StageName = "elevation"
	StageRivers    StageName = "rivers"
	StageProvinces StageName = "provinces"
)

var stageOrder = []StageName{StageMesh, StageWater, StageElevation, StageRivers, StageProvinces}

// StageReport records whether one stage ran or was reused by move from the
// previous cache, for P7 dirty-propagation assertions and progress UIs.
type StageReport struct {
	Stage  StageName
	Reused bool
}

// Pipeline is C8: the ordered stage driver. It keeps no generation state
// between invocations — callers pass the previous cache explicitly for
// reuse; LastRun only reports the stages of the most recent Build.
type Pipeline struct {
	LastRun []StageReport
}

// Build runs C3->C4->C5->C6->C7 eagerly, reusing any prior stage whose
// fingerprint is unchanged. stopAfter, if non-empty, short-circuits later
// stages (e.g. callers that only need navigation stop after rivers).
func (p *Pipeline) Build(cfg Config, controls Controls, previous *Cache, stopAfter StageName) (*Cache, error) {
	normCfg, ok := NormalizeConfig(cfg)
	if !ok {
		return nil, terrainerrors.ErrInvalidConfig
	}
	normControls, ok := controls.Normalize()
	if !ok {
		return nil, terrainerrors.ErrInvalidControls
	}

	fp := computeFingerprints(normCfg, normControls, stopAfter)
	cache := &Cache{Config: normCfg, Controls: normControls, Fingerprints: fp}
	p.LastRun = nil

	reusable := previous != nil && previous.Config == normCfg

	runStage := func(name StageName, prevFP, newFP uint64) bool {
		reused := reusable && previous != nil && prevFP == newFP
		p.LastRun = append(p.LastRun, StageReport{Stage: name, Reused: reused})
		return reused
	}

	meshReused := runStage(StageMesh, fingerprintOf(previous, StageMesh), fp.Mesh)
	if meshReused {
		cache.Mesh = previous.Mesh
	} else {
		cache.Mesh = BuildMesh(normCfg, normControls)
	}

	for _, name := range stageOrder[1:] {
		if stopAfter != "" && stagePastStopAfter(name, stopAfter) {
			break
		}
		switch name {
		case StageWater:
			if runStage(StageWater, fingerprintOf(previous, StageWater), fp.Water) && sameUpstream(previous, StageMesh, fp.Mesh) {
				cache.Water = previous.Water
			} else {
				cache.Water = ClassifyWater(cache.Mesh, normCfg, normControls)
			}
		case StageElevation:
			elevationReused := runStage(StageElevation, fingerprintOf(previous, StageElevation), fp.Elevation) && sameUpstream(previous, StageWater, fp.Water)
			if elevationReused {
				cache.Elevation = previous.Elevation
			} else {
				cache.Elevation = BuildElevation(cache.Mesh, cache.Water, normControls)
			}
			if meshReused && !elevationReused {
				cache.Mesh = cloneMeshFaces(cache.Mesh)
			}
			for i := range cache.Mesh.Faces {
				cache.Mesh.Faces[i].Elevation = cache.Elevation.FaceElevation[i]
			}
		case StageRivers:
			if runStage(StageRivers, fingerprintOf(previous, StageRivers), fp.Rivers) && sameUpstream(previous, StageElevation, fp.Elevation) {
				cache.Rivers = previous.Rivers
			} else {
				cache.Rivers = TraceRivers(cache.Mesh, cache.Water, cache.Elevation, normControls)
			}
		case StageProvinces:
			if runStage(StageProvinces, fingerprintOf(previous, StageProvinces), fp.Provinces) && sameUpstream(previous, StageRivers, fp.Rivers) {
				cache.Provinces = previous.Provinces
			} else {
				cache.Provinces = BuildProvinces(cache.Mesh, cache.Water, cache.Elevation, cache.Rivers, normControls)
			}
		}
		if name == stopAfter {
			break
		}
	}

	return cache, nil
}

func stagePastStopAfter(name, stopAfter StageName) bool {
	idx := func(n StageName) int {
		for i, s := range stageOrder {
			if s == n {
				return i
			}
		}
		return -1
	}
	return idx(name) > idx(stopAfter)
}

func fingerprintOf(c *Cache, stage StageName) uint64 {
	if c == nil {
		return 0
	}
	switch stage {
	case StageMesh:
		return c.Fingerprints.Mesh
	case StageWater:
		return c.Fingerprints.Water
	case StageElevation:
		return c.Fingerprints.Elevation
	case StageRivers:
		return c.Fingerprints.Rivers
	case StageProvinces:
		return c.Fingerprints.Provinces
	}
	return 0
}

func sameUpstream(previous *Cache, upstream StageName, newFP uint64) bool {
	return previous != nil && fingerprintOf(previous, upstream) == newFP
}

// cloneMeshFaces returns a MeshGraph sharing mesh's vertices and edges but
// owning its own Faces slice, so a stage can write per-face fields without
// reaching through to a mesh a prior, still-live cache also points at.
func cloneMeshFaces(mesh *MeshGraph) *MeshGraph {
	return &MeshGraph{
		Faces:    append([]Face(nil), mesh.Faces...),
		Vertices: mesh.Vertices,
		Edges:    mesh.Edges,
	}
}

// Run is the step-based iterator form of Build, for UIs that want
// per-stage progress.
type Run struct {
	cfg        Config
	controls   Controls
	previous   *Cache
	stopAfter  StageName
	cache      *Cache
	stageIdx   int
	pipeline   *Pipeline
	fp         StageFingerprints
	reusable   bool
	meshReused bool
	done       bool
	err        error
}

// NewRun prepares a stepwise pipeline run. Call Step repeatedly until done.
func NewRun(cfg Config, controls Controls, previous *Cache, stopAfter StageName) *Run {
	return &Run{cfg: cfg, controls: controls, previous: previous, stopAfter: stopAfter, pipeline: &Pipeline{}}
}

// Step advances the run by one stage, returning the stage name just
// completed (or normalization error on the first call), and whether the
// run is finished.
func (r *Run) Step() (StageName, bool, error) {
	if r.done {
		return "", true, r.err
	}
	if r.cache == nil {
		normCfg, ok := NormalizeConfig(r.cfg)
		if !ok {
			r.done, r.err = true, terrainerrors.ErrInvalidConfig
			return "", true, r.err
		}
		normControls, ok := r.controls.Normalize()
		if !ok {
			r.done, r.err = true, terrainerrors.ErrInvalidControls
			return "", true, r.err
		}
		r.fp = computeFingerprints(normCfg, normControls, r.stopAfter)
		r.cache = &Cache{Config: normCfg, Controls: normControls, Fingerprints: r.fp}
		r.reusable = r.previous != nil && r.previous.Config == normCfg
	}

	name := stageOrder[r.stageIdx]
	r.runOneStage(name)
	r.stageIdx++

	finished := r.stageIdx >= len(stageOrder) || name == r.stopAfter
	if finished {
		r.done = true
	}
	return name, r.done, nil
}

func (r *Run) runOneStage(name StageName) {
	cache := r.cache
	switch name {
	case StageMesh:
		r.meshReused = r.reusable && fingerprintOf(r.previous, StageMesh) == r.fp.Mesh
		if r.meshReused {
			cache.Mesh = r.previous.Mesh
		} else {
			cache.Mesh = BuildMesh(cache.Config, cache.Controls)
		}
	case StageWater:
		if r.reusable && fingerprintOf(r.previous, StageWater) == r.fp.Water && sameUpstream(r.previous, StageMesh, r.fp.Mesh) {
			cache.Water = r.previous.Water
		} else {
			cache.Water = ClassifyWater(cache.Mesh, cache.Config, cache.Controls)
		}
	case StageElevation:
		elevationReused := r.reusable && fingerprintOf(r.previous, StageElevation) == r.fp.Elevation && sameUpstream(r.previous, StageWater, r.fp.Water)
		if elevationReused {
			cache.Elevation = r.previous.Elevation
		} else {
			cache.Elevation = BuildElevation(cache.Mesh, cache.Water, cache.Controls)
		}
		if r.meshReused && !elevationReused {
			cache.Mesh = cloneMeshFaces(cache.Mesh)
		}
		for i := range cache.Mesh.Faces {
			cache.Mesh.Faces[i].Elevation = cache.Elevation.FaceElevation[i]
		}
	case StageRivers:
		if r.reusable && fingerprintOf(r.previous, StageRivers) == r.fp.Rivers && sameUpstream(r.previous, StageElevation, r.fp.Elevation) {
			cache.Rivers = r.previous.Rivers
		} else {
			cache.Rivers = TraceRivers(cache.Mesh, cache.Water, cache.Elevation, cache.Controls)
		}
	case StageProvinces:
		if r.reusable && fingerprintOf(r.previous, StageProvinces) == r.fp.Provinces && sameUpstream(r.previous, StageRivers, r.fp.Rivers) {
			cache.Provinces = r.previous.Provinces
		} else {
			cache.Provinces = BuildProvinces(cache.Mesh, cache.Water, cache.Elevation, cache.Rivers, cache.Controls)
		}
	}
}

// Cache returns the in-progress (or completed) cache.
func (r *Run) Cache() *Cache { return r.cache }
