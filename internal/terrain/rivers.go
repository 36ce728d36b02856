package terrain

import "sort"

// sourceCandidate is a land vertex eligible to seed a river trace.
type sourceCandidate struct {
	vertex VertexId
	weight float64
}

func selectRiverSources(mesh *MeshGraph, water *WaterState, elevation *ElevationState, controls Controls) []VertexId {
	if controls.RiverDensity <= 0 {
		return nil
	}
	var candidates []sourceCandidate
	for _, v := range mesh.Vertices {
		onLand := false
		for _, fid := range v.Faces {
			if water.IsLand[fid] {
				onLand = true
				break
			}
		}
		if !onLand || elevation.VertexElevation[v.Index] <= 1 {
			continue
		}
		candidates = append(candidates, sourceCandidate{vertex: v.Index, weight: elevation.VertexElevation[v.Index]})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].vertex < candidates[j].vertex })

	count := int(float64(len(candidates)) * controls.RiverDensity / 8)
	if count < 1 {
		count = 1
	}
	if count > len(candidates) {
		count = len(candidates)
	}

	rng := Substream(controls.Seed, "river-sources")
	remaining := append([]sourceCandidate(nil), candidates...)
	var picked []VertexId
	for len(picked) < count && len(remaining) > 0 {
		var total float64
		for _, c := range remaining {
			total += c.weight
		}
		if total <= 0 {
			picked = append(picked, remaining[0].vertex)
			remaining = remaining[1:]
			continue
		}
		r := rng.Range(0, total)
		var acc float64
		idx := 0
		for i, c := range remaining {
			acc += c.weight
			if r <= acc {
				idx = i
				break
			}
		}
		picked = append(picked, remaining[idx].vertex)
		remaining[idx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return picked
}

func edgeTouchesWater(mesh *MeshGraph, water *WaterState, e EdgeId) bool {
	edge := mesh.Edges[e]
	if edge.FaceA != NoFace && !water.IsLand[edge.FaceA] {
		return true
	}
	if edge.FaceB != NoFace && !water.IsLand[edge.FaceB] {
		return true
	}
	return false
}

func sortedEdges(mesh *MeshGraph, v VertexId) []EdgeId {
	edges := append([]EdgeId(nil), mesh.Vertices[v].Edges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i] < edges[j] })
	return edges
}

func farVertex(mesh *MeshGraph, e EdgeId, from VertexId) VertexId {
	edge := mesh.Edges[e]
	if edge.VertexA == from {
		return edge.VertexB
	}
	return edge.VertexA
}

// traceOne walks a single downslope/branching chain starting at source,
// per spec §4.6: at each vertex it prefers the incident edge whose far
// vertex has the lowest mean face elevation, ending at an edge incident to
// a water face (mouth) or a closed basin; it may spawn one branch per
// visited vertex (riverBranchChance) and may climb one vertex uphill to
// escape a pit (riverClimbChance) before resuming descent.
func traceOne(mesh *MeshGraph, water *WaterState, elevation *ElevationState, controls Controls, source VertexId, depth uint8, rng *Rng, out *[]RiverTrace) {
	if depth > 6 {
		return
	}
	var trace RiverTrace
	trace.Depth = depth
	trace.Vertices = append(trace.Vertices, source)

	visited := map[VertexId]bool{source: true}
	current := source

	for steps := 0; steps < 4*len(mesh.Vertices)+16; steps++ {
		edges := sortedEdges(mesh, current)

		mouthEdge := EdgeId(-1)
		for _, e := range edges {
			if edgeTouchesWater(mesh, water, e) {
				mouthEdge = e
				break
			}
		}
		if mouthEdge != -1 {
			trace.Edges = append(trace.Edges, mouthEdge)
			*out = append(*out, trace)
			return
		}

		curElev := elevation.VertexElevation[current]
		bestEdge := EdgeId(-1)
		bestFar := VertexId(-1)
		bestElev := curElev
		var branchEdge EdgeId = -1
		var branchFar VertexId = -1

		for _, e := range edges {
			w := farVertex(mesh, e, current)
			if visited[w] {
				continue
			}
			we := elevation.VertexElevation[w]
			if we < curElev {
				if bestEdge == -1 || we < bestElev {
					if bestEdge != -1 && branchEdge == -1 {
						branchEdge = bestEdge
						branchFar = bestFar
					}
					bestEdge = e
					bestFar = w
					bestElev = we
				} else if branchEdge == -1 {
					branchEdge = e
					branchFar = w
				}
			}
		}

		if bestEdge != -1 {
			if branchEdge != -1 && rng.Float64() < controls.RiverBranchChance {
				traceOne(mesh, water, elevation, controls, branchFar, depth+1, rng, out)
			}
			trace.Edges = append(trace.Edges, bestEdge)
			trace.Vertices = append(trace.Vertices, bestFar)
			visited[bestFar] = true
			current = bestFar
			continue
		}

		// pit: no strictly-downhill unvisited neighbor
		if rng.Float64() < controls.RiverClimbChance {
			var climbEdge EdgeId = -1
			var climbFar VertexId = -1
			climbElev := curElev
			for _, e := range edges {
				w := farVertex(mesh, e, current)
				if visited[w] {
					continue
				}
				we := elevation.VertexElevation[w]
				if climbEdge == -1 || we < climbElev {
					climbEdge = e
					climbFar = w
					climbElev = we
				}
			}
			if climbEdge != -1 {
				trace.Edges = append(trace.Edges, climbEdge)
				trace.Vertices = append(trace.Vertices, climbFar)
				visited[climbFar] = true
				current = climbFar
				continue
			}
		}

		trace.ClosedBasin = true
		*out = append(*out, trace)
		return
	}
	trace.ClosedBasin = true
	*out = append(*out, trace)
}

// TraceRivers runs C6.
func TraceRivers(mesh *MeshGraph, water *WaterState, elevation *ElevationState, controls Controls) *RiverState {
	state := &RiverState{
		RiverEdgeMask:  make([]bool, len(mesh.Edges)),
		BarrierEdgeSet: make(map[EdgeId]bool),
	}
	if !water.HasLand || !water.HasWater {
		return state
	}

	sources := selectRiverSources(mesh, water, elevation, controls)
	rng := Substream(controls.Seed, "rivers")
	for _, src := range sources {
		traceOne(mesh, water, elevation, controls, src, 0, rng, &state.Traces)
	}

	// Trunk edges (depth 0) are hard barriers provinces may never grow
	// across; branch edges (depth >= 1, the tributaries spawned by
	// riverBranchChance) are fordable and only add provinceRiverPenalty to
	// the growth score, per the two-tier barrier/penalty split documented
	// in DESIGN.md's Open Questions resolved.
	for _, trace := range state.Traces {
		for _, e := range trace.Edges {
			state.RiverEdgeMask[e] = true
			if trace.Depth == 0 {
				state.BarrierEdgeSet[e] = true
			}
		}
	}
	return state
}
