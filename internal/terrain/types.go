// Package terrain implements the deterministic procedural terrain
// generation pipeline: mesh construction, water classification, elevation
// assignment, river tracing, and province partitioning over a Voronoi-like
// polygonal map.
package terrain

import "math"

// Vec2 is a pair of finite 64-bit floats.
type Vec2 struct {
	X, Y float64
}

// FaceId, VertexId, and EdgeId index into MeshGraph's arenas. ProvinceId
// indexes into a ProvinceGraph. All four are small integers rather than
// pointers or UUIDs: the mesh, its faces/vertices/edges, and the province
// graph all own their data in flat arrays, and every cross-reference is an
// index into one of those arrays.
type (
	FaceId     int
	VertexId   int
	EdgeId     int
	ProvinceId int
)

// NoFace and NoProvince mark the absence of a reference (a
// border edge's missing far face, an unassigned face's province). -1 is
// used consistently instead of a second "valid" bool field, matching the
// data model's own "FaceId | -1" notation.
const (
	NoFace     FaceId     = -1
	NoProvince ProvinceId = -1
)

// Config is immutable for the duration of a single generation.
type Config struct {
	Width  int // map extent in world units, 256..4096
	Height int
}

// NormalizeConfig clamps Width/Height into range and reports whether the
// result is still usable. A config that fails normalization is a
// programmer error (error taxonomy class 1) and must not reach any stage.
func NormalizeConfig(cfg Config) (Config, bool) {
	if cfg.Width < 256 || cfg.Width > 4096 || cfg.Height < 256 || cfg.Height > 4096 {
		return cfg, false
	}
	return cfg, true
}

// Controls enumerates every knob of the pipeline. All fields are scalar
// and clamped to documented ranges by Normalize. It is a single closed,
// versioned record (spec design note: "a single closed record... unknown
// fields dropped during normalization" — in Go that simply means decoding
// into this struct and ignoring anything else present in the source JSON).
type Controls struct {
	SchemaVersion int

	// Mesh
	Spacing float64 // Poisson minimum distance, 16..128

	// Seeds
	Seed             uint32
	IntermediateSeed uint32

	// Water shape
	WaterLevel         float64 // -40..40, smaller -> more land
	WaterRoughness     float64 // 0..100
	WaterNoiseScale    float64
	WaterNoiseStrength float64
	WaterNoiseOctaves  int // 1..6
	WaterWarpScale     float64
	WaterWarpStrength  float64 // 0..0.8

	// Elevation
	LandRelief               float64 // 0..1
	RidgeStrength            float64 // 0..1
	RidgeCount               int     // 1..10
	PlateauStrength          float64 // 0..1
	RidgeDistribution        float64 // 0..1
	RidgeSeparation          float64 // 0..1
	RidgeContinuity          float64 // 0..1
	RidgeContinuityThreshold float64 // 0..1
	OceanPeakClamp           float64 // 0..1
	RidgeOceanClamp          float64 // 0..1
	RidgeWidth               float64 // 0..1

	// Rivers
	RiverDensity      float64 // 0..2
	RiverBranchChance float64 // 0..1
	RiverClimbChance  float64 // 0..1

	// Provinces
	ProvinceCount            int     // 1..32
	ProvinceSizeVariance     float64 // 0..0.75
	ProvincePassageElevation float64
	ProvinceRiverPenalty     float64
	IslandSizeMultiplier     float64

	// Movement
	TimePerFaceSeconds  float64
	LowlandThreshold    int     // 1..31
	ImpassableThreshold int     // 2..32, enforced > LowlandThreshold
	ElevationPower      float64 // 0.5..2
	ElevationGainK      float64 // 0..4
	RiverPenalty        float64 // 0..8
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize clamps every field into its documented range and enforces
// ImpassableThreshold > LowlandThreshold (forced to
// max(lowlandThreshold+1, impassableThreshold), per the controls schema
// normalization rule). It never fails — degenerate-but-in-range controls
// are valid input whose degeneracy shows up later as data (e.g. zero
// ridges), not as an error. The returned bool reports whether
// ImpassableThreshold > LowlandThreshold holds after clamping; with
// LowlandThreshold capped at 31 and ImpassableThreshold at 32 it always
// does, so the result is true for every input.
func (c Controls) Normalize() (Controls, bool) {
	n := c
	if n.SchemaVersion == 0 {
		n.SchemaVersion = 1
	}
	n.Spacing = clamp(n.Spacing, 16, 128)
	n.WaterLevel = clamp(n.WaterLevel, -40, 40)
	n.WaterRoughness = clamp(n.WaterRoughness, 0, 100)
	n.WaterNoiseOctaves = clampInt(n.WaterNoiseOctaves, 1, 6)
	n.WaterWarpStrength = clamp(n.WaterWarpStrength, 0, 0.8)

	n.LandRelief = clamp(n.LandRelief, 0, 1)
	n.RidgeStrength = clamp(n.RidgeStrength, 0, 1)
	n.RidgeCount = clampInt(n.RidgeCount, 1, 10)
	n.PlateauStrength = clamp(n.PlateauStrength, 0, 1)
	n.RidgeDistribution = clamp(n.RidgeDistribution, 0, 1)
	n.RidgeSeparation = clamp(n.RidgeSeparation, 0, 1)
	n.RidgeContinuity = clamp(n.RidgeContinuity, 0, 1)
	n.RidgeContinuityThreshold = clamp(n.RidgeContinuityThreshold, 0, 1)
	n.OceanPeakClamp = clamp(n.OceanPeakClamp, 0, 1)
	n.RidgeOceanClamp = clamp(n.RidgeOceanClamp, 0, 1)
	n.RidgeWidth = clamp(n.RidgeWidth, 0, 1)

	n.RiverDensity = clamp(n.RiverDensity, 0, 2)
	n.RiverBranchChance = clamp(n.RiverBranchChance, 0, 1)
	n.RiverClimbChance = clamp(n.RiverClimbChance, 0, 1)

	n.ProvinceCount = clampInt(n.ProvinceCount, 1, 32)
	n.ProvinceSizeVariance = clamp(n.ProvinceSizeVariance, 0, 0.75)
	if n.IslandSizeMultiplier <= 0 {
		n.IslandSizeMultiplier = 1
	}

	n.LowlandThreshold = clampInt(n.LowlandThreshold, 1, 31)
	if n.ImpassableThreshold < n.LowlandThreshold+1 {
		n.ImpassableThreshold = n.LowlandThreshold + 1
	}
	n.ImpassableThreshold = clampInt(n.ImpassableThreshold, 2, 32)
	if n.ImpassableThreshold <= n.LowlandThreshold {
		// unreachable with the ranges above: LowlandThreshold is at most 31
		// and ImpassableThreshold is forced to at least LowlandThreshold+1,
		// which the 32 cap leaves in place; kept as a guard on that ordering.
		return n, false
	}
	n.ElevationPower = clamp(n.ElevationPower, 0.5, 2)
	n.ElevationGainK = clamp(n.ElevationGainK, 0, 4)
	n.RiverPenalty = clamp(n.RiverPenalty, 0, 8)

	return n, true
}

// Face is a Voronoi cell / polygon.
type Face struct {
	Index         FaceId
	Point         Vec2
	Vertices      []VertexId
	AdjacentFaces []FaceId
	Edges         []EdgeId
	Elevation     int32
}

// Vertex is a Voronoi corner shared by 2-3 faces.
type Vertex struct {
	Index            VertexId
	Point            Vec2
	Faces            []FaceId
	AdjacentVertices []VertexId
	Edges            []EdgeId
	Elevation        float64
}

// Edge is a boundary segment between two faces, or one face and the
// exterior (FaceB == NoFace).
type Edge struct {
	Index    EdgeId
	FaceA    FaceId
	FaceB    FaceId
	VertexA  VertexId
	VertexB  VertexId
	Midpoint Vec2
}

// MeshGraph holds the arenas built by MeshBuilder (C3) and read by every
// downstream stage. Edges are listed by both endpoints and (up to) both
// incident faces; adjacency lists are de-duplicated; face vertex loops are
// ordered along the polygon boundary.
type MeshGraph struct {
	Faces    []Face
	Vertices []Vertex
	Edges    []Edge
}

// OtherFace returns the face on the opposite side of e from f, or NoFace
// if e is a border edge on that side.
func (e Edge) OtherFace(f FaceId) FaceId {
	switch f {
	case e.FaceA:
		return e.FaceB
	case e.FaceB:
		return e.FaceA
	default:
		return NoFace
	}
}

// WaterState is C4's output.
type WaterState struct {
	IsLand       []bool
	LandFaces    []FaceId // ascending order
	OceanWater   []bool   // water connected to the rectangle boundary
	LandDistance []int32  // BFS distance in faces from nearest coast; -1 for non-land
	HasLand      bool
	HasWater     bool
}

// ElevationState is C5's output.
type ElevationState struct {
	FaceElevation   []int32
	VertexElevation []float64
	LandBaseLevel   []int32 // intermediate, retained for reproducible refinement
	RidgeBoost      []int32
}

// RiverTrace is one traced river path.
type RiverTrace struct {
	Edges       []EdgeId
	Vertices    []VertexId
	Depth       uint8 // 0 for trunks, 1+ for branches
	ClosedBasin bool  // true if the trace terminated at a pit rather than water
}

// RiverState is C6's output.
type RiverState struct {
	Traces         []RiverTrace
	RiverEdgeMask  []bool // indexed by edge id
	BarrierEdgeSet map[EdgeId]bool
}

// OuterEdge is a province-boundary edge: either a shore edge (one side
// NoProvince) or a province-province edge.
type OuterEdge struct {
	Edge      EdgeId
	ProvinceA ProvinceId
	ProvinceB ProvinceId
	FaceA     FaceId
	FaceB     FaceId
}

// Province is one connected component of the balanced growth in C7.
type Province struct {
	Index             ProvinceId
	Faces             []FaceId
	AdjacentProvinces []ProvinceId
	OuterEdges        []int // indices into ProvinceGraph.OuterEdges
}

// ProvinceGraph is C7's output.
type ProvinceGraph struct {
	Provinces      []Province
	OuterEdges     []OuterEdge
	ProvinceByFace []ProvinceId // NoProvince for water faces
	SeedFaces      []FaceId
	LandFaces      []FaceId
	IsLand         []bool
}

// StageFingerprints records the per-stage dirty-tracking hash computed by
// the pipeline (C8). A fingerprint of 0 means the stage has never run.
type StageFingerprints struct {
	Mesh      uint64
	Water     uint64
	Elevation uint64
	Rivers    uint64
	Provinces uint64
}

// Cache is the complete pipeline output: the five stage outputs plus their
// fingerprints. It is cheaply-clonable value data with no back-pointers
// between stages.
type Cache struct {
	Config       Config
	Controls     Controls
	Mesh         *MeshGraph
	Water        *WaterState
	Elevation    *ElevationState
	Rivers       *RiverState
	Provinces    *ProvinceGraph
	Fingerprints StageFingerprints
}

// FaceCenter returns the site point of a face, matching the Entity-store
// collaborator contract ("points from faceCenter(FaceId)").
func (c *Cache) FaceCenter(f FaceId) (Vec2, bool) {
	if c == nil || c.Mesh == nil || int(f) < 0 || int(f) >= len(c.Mesh.Faces) {
		return Vec2{}, false
	}
	return c.Mesh.Faces[f].Point, true
}

// ProvinceOf returns the province id owning face f, or NoProvince if f is
// water or out of range.
func (c *Cache) ProvinceOf(f FaceId) ProvinceId {
	if c == nil || c.Provinces == nil || int(f) < 0 || int(f) >= len(c.Provinces.ProvinceByFace) {
		return NoProvince
	}
	return c.Provinces.ProvinceByFace[f]
}

func dist2(a, b Vec2) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func euclidean(a, b Vec2) float64 {
	return math.Sqrt(dist2(a, b))
}
