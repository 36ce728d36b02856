// Package navigation builds a weighted face graph from a terrain cache
// (C9) and indexes face polygons for point lookups (C10).
package navigation

import (
	"math"

	"terraincore/internal/terrain"
)

// FaceNeighbor is one weighted edge out of a face node.
type FaceNeighbor struct {
	NeighborFaceId terrain.FaceId
	StepCost       float64
	ViaEdge        terrain.EdgeId
}

// FaceNode is a navigation graph node: the face's outgoing neighbor list.
type FaceNode struct {
	Neighbors []FaceNeighbor
}

// CostParams mirrors the movement-relevant subset of Controls used to
// build step costs.
type CostParams struct {
	TimePerFaceSeconds  float64
	LowlandThreshold    int
	ImpassableThreshold int
	ElevationPower      float64
	ElevationGainK      float64
	RiverPenalty        float64
	Spacing             float64
}

// Graph is the navigation core's build output: a read-only weighted view
// over a terrain cache.
type Graph struct {
	Nodes       []FaceNode // indexed by FaceId; zero-value for water/out-of-range
	LandFaceIds []terrain.FaceId
	CostParams  CostParams
	cache       *terrain.Cache
}

func stepFactor(elevA, elevB int32, params CostParams) (float64, bool) {
	maxElev := elevA
	if elevB > maxElev {
		maxElev = elevB
	}
	if int(maxElev) >= params.ImpassableThreshold {
		return 0, false
	}
	t := (float64(maxElev) - float64(params.LowlandThreshold)) / float64(params.ImpassableThreshold-params.LowlandThreshold)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	factor := 1 + params.ElevationGainK*math.Pow(t, params.ElevationPower)
	return factor, true
}

// Build runs C9's graph construction. Thresholds are sanitized so
// impassable > lowland before any edge is evaluated.
func Build(cache *terrain.Cache) *Graph {
	c := cache.Controls
	if c.ImpassableThreshold <= c.LowlandThreshold {
		c.ImpassableThreshold = c.LowlandThreshold + 1
	}
	params := CostParams{
		TimePerFaceSeconds:  c.TimePerFaceSeconds,
		LowlandThreshold:    c.LowlandThreshold,
		ImpassableThreshold: c.ImpassableThreshold,
		ElevationPower:      c.ElevationPower,
		ElevationGainK:      c.ElevationGainK,
		RiverPenalty:        c.RiverPenalty,
		Spacing:             c.Spacing,
	}

	g := &Graph{
		Nodes:      make([]FaceNode, len(cache.Mesh.Faces)),
		CostParams: params,
		cache:      cache,
	}

	for _, fid := range cache.Water.LandFaces {
		g.LandFaceIds = append(g.LandFaceIds, fid)
		face := cache.Mesh.Faces[fid]
		for _, eid := range face.Edges {
			edge := cache.Mesh.Edges[eid]
			other := edge.OtherFace(fid)
			if other == terrain.NoFace || !cache.Water.IsLand[other] {
				continue
			}
			factor, ok := stepFactor(cache.Elevation.FaceElevation[fid], cache.Elevation.FaceElevation[other], params)
			if !ok {
				continue
			}
			if cache.Rivers.RiverEdgeMask[eid] {
				factor *= 1 + params.RiverPenalty
			}
			g.Nodes[fid].Neighbors = append(g.Nodes[fid].Neighbors, FaceNeighbor{
				NeighborFaceId: other,
				StepCost:       factor,
				ViaEdge:        eid,
			})
		}
	}
	return g
}

// EdgeTimeSeconds converts a step cost into traversal time.
func (g *Graph) EdgeTimeSeconds(stepCost float64) float64 {
	return g.CostParams.TimePerFaceSeconds * stepCost
}
