package terrain

import "math"

const maxElev = 32

// BuildElevation runs C5's seven-step algorithm: base relief, ridge
// seeding, ridge boost, ridge connection/widening, ocean-distance caps,
// lowland smoothing, and water depth.
func BuildElevation(mesh *MeshGraph, water *WaterState, controls Controls) *ElevationState {
	n := len(mesh.Faces)
	state := &ElevationState{
		FaceElevation:   make([]int32, n),
		VertexElevation: make([]float64, len(mesh.Vertices)),
		LandBaseLevel:   make([]int32, n),
		RidgeBoost:      make([]int32, n),
	}

	if !water.HasLand {
		for _, f := range mesh.Faces {
			if water.IsLand[f.Index] {
				state.FaceElevation[f.Index] = 1
			}
		}
	} else {
		maxLandDistance := int32(1)
		for _, d := range water.LandDistance {
			if d > maxLandDistance {
				maxLandDistance = d
			}
		}

		// 1. base relief
		for _, fid := range water.LandFaces {
			d := water.LandDistance[fid]
			t := float64(d) / float64(maxLandDistance)
			base := 1 + int32(math.Floor(math.Pow(t, 1.6)*controls.LandRelief*float64(maxElev-1)))
			if base < 1 {
				base = 1
			}
			if base > maxElev {
				base = maxElev
			}
			state.LandBaseLevel[fid] = base
			state.FaceElevation[fid] = base
		}

		// 2. ridge seeds
		seeds := selectRidgeSeeds(mesh, water, controls, maxLandDistance)

		// 3. ridge boost via BFS rings from seeds
		applyRidgeBoost(mesh, water, state, controls, seeds, maxLandDistance)

		// 4. ridge connection + widening
		connectRidges(mesh, water, state, controls, seeds)

		// 5. ocean-distance caps
		applyOceanCaps(water, state, controls)

		// 6. lowland smoothing
		smoothLowlands(mesh, water, state, controls)
	}

	// 7. water depth
	applyWaterDepth(mesh, water, state)

	for _, v := range mesh.Vertices {
		if len(v.Faces) == 0 {
			continue
		}
		var sum float64
		for _, fid := range v.Faces {
			sum += float64(state.FaceElevation[fid])
		}
		state.VertexElevation[v.Index] = sum / float64(len(v.Faces))
	}

	return state
}

func isLocalMaxDistance(mesh *MeshGraph, water *WaterState, f FaceId) bool {
	d := water.LandDistance[f]
	for _, nb := range mesh.Faces[f].AdjacentFaces {
		if water.IsLand[nb] && water.LandDistance[nb] > d {
			return false
		}
	}
	return true
}

// selectRidgeSeeds implements step 2: candidates are local maxima of
// landDistance beyond distance 2, falling back to the deepest inland
// faces if there are too few; the final ridgeCount set is chosen greedily
// as a farthest-point selection, each pick taking the candidate with the
// highest score blending distance-to-sea and distance-to-existing-picks
// (weighted by ridgeSeparation).
func selectRidgeSeeds(mesh *MeshGraph, water *WaterState, controls Controls, maxLandDistance int32) []FaceId {
	var candidates []FaceId
	for _, fid := range water.LandFaces {
		if water.LandDistance[fid] > 2 && isLocalMaxDistance(mesh, water, fid) {
			candidates = append(candidates, fid)
		}
	}
	if len(candidates) < controls.RidgeCount {
		// fall back to the deepest inland faces
		sorted := append([]FaceId(nil), water.LandFaces...)
		sortFacesByDistanceDesc(water, sorted)
		candidates = sorted
	}
	if len(candidates) == 0 {
		return nil
	}

	rng := Substream(controls.Seed, "ridge-seeds")
	target := controls.RidgeCount
	if target > len(candidates) {
		target = len(candidates)
	}

	var picked []FaceId
	remaining := append([]FaceId(nil), candidates...)
	for len(picked) < target && len(remaining) > 0 {
		var bestIdx int
		var bestScore float64 = -1
		scores := make([]float64, len(remaining))
		for i, fid := range remaining {
			seaScore := float64(water.LandDistance[fid]) / float64(maxLandDistance)
			minPickDist := math.Inf(1)
			for _, p := range picked {
				d := euclidean(mesh.Faces[fid].Point, mesh.Faces[p].Point)
				if d < minPickDist {
					minPickDist = d
				}
			}
			if math.IsInf(minPickDist, 1) {
				minPickDist = 0
			}
			score := seaScore + controls.RidgeSeparation*minPickDist/math.Max(1, float64(maxLandDistance))
			scores[i] = score
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		// one draw per pick advances the ridge-seeds stream; the value does
		// not affect the choice, which is always the highest-scoring candidate
		_ = rng.Float64()
		picked = append(picked, remaining[bestIdx])
		remaining[bestIdx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return picked
}

func sortFacesByDistanceDesc(water *WaterState, faces []FaceId) {
	// simple insertion sort keeps this deterministic without importing
	// sort for a comparator capturing water by closure semantics that
	// differ across Go versions' sort implementations
	for i := 1; i < len(faces); i++ {
		j := i
		for j > 0 && water.LandDistance[faces[j-1]] < water.LandDistance[faces[j]] {
			faces[j-1], faces[j] = faces[j], faces[j-1]
			j--
		}
	}
}

func applyRidgeBoost(mesh *MeshGraph, water *WaterState, state *ElevationState, controls Controls, seeds []FaceId, maxLandDistance int32) {
	if len(seeds) == 0 {
		return
	}
	radius := lerp(3, float64(maxLandDistance), controls.RidgeDistribution)
	exponent := lerp(2.2, 3.2, controls.RidgeStrength)

	ringDist := make([]int32, len(mesh.Faces))
	for i := range ringDist {
		ringDist[i] = -1
	}
	var queue []FaceId
	for _, s := range seeds {
		ringDist[s] = 0
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if float64(ringDist[f]) > radius {
			continue
		}
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if water.IsLand[nb] && ringDist[nb] == -1 {
				ringDist[nb] = ringDist[f] + 1
				queue = append(queue, nb)
			}
		}
	}

	for _, fid := range water.LandFaces {
		rd := ringDist[fid]
		if rd < 0 || float64(rd) > radius {
			continue
		}
		t := 1 - float64(rd)/radius
		if t < 0 {
			t = 0
		}
		coastFactor := float64(water.LandDistance[fid]) / float64(maxLandDistance)
		shape := math.Pow(t, exponent)
		boost := int32(math.Round(shape * coastFactor * controls.RidgeStrength * float64(maxElev-1)))
		state.RidgeBoost[fid] = boost
		state.FaceElevation[fid] = clampElev(state.LandBaseLevel[fid] + boost)
	}
}

func clampElev(e int32) int32 {
	if e < 1 {
		return 1
	}
	if e > maxElev {
		return maxElev
	}
	return e
}

// connectRidges implements step 4: link each new seed to the nearest
// already-connected seed by shortest land-face path, blending the boost
// along the path toward the endpoints' interpolated value (weighted by
// ridgeContinuity, rejecting links beyond a threshold driven by
// ridgeContinuityThreshold), then widens the ridge outward with a
// quadratic-falloff BFS.
func connectRidges(mesh *MeshGraph, water *WaterState, state *ElevationState, controls Controls, seeds []FaceId) {
	if len(seeds) < 2 {
		widenRidges(mesh, water, state, controls, seeds)
		return
	}
	maxLinkLen := lerp(40, 2, controls.RidgeContinuityThreshold)
	connected := []FaceId{seeds[0]}
	for _, seed := range seeds[1:] {
		nearest, path := nearestConnectedPath(mesh, water, seed, connected)
		if nearest == NoFace || float64(len(path)) > maxLinkLen {
			connected = append(connected, seed)
			continue
		}
		boostStart := state.RidgeBoost[seed]
		boostEnd := state.RidgeBoost[nearest]
		for i, fid := range path {
			t := float64(i) / float64(max(1, len(path)-1))
			interp := lerp(float64(boostStart), float64(boostEnd), t)
			blended := lerp(float64(state.RidgeBoost[fid]), interp, controls.RidgeContinuity)
			state.RidgeBoost[fid] = int32(math.Round(blended))
			state.FaceElevation[fid] = clampElev(state.LandBaseLevel[fid] + state.RidgeBoost[fid])
		}
		connected = append(connected, seed)
	}
	widenRidges(mesh, water, state, controls, seeds)
}

func nearestConnectedPath(mesh *MeshGraph, water *WaterState, from FaceId, connected []FaceId) (FaceId, []FaceId) {
	targets := make(map[FaceId]bool, len(connected))
	for _, c := range connected {
		targets[c] = true
	}
	prev := make(map[FaceId]FaceId)
	visited := map[FaceId]bool{from: true}
	queue := []FaceId{from}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if targets[f] && f != from {
			var path []FaceId
			cur := f
			for cur != from {
				path = append([]FaceId{cur}, path...)
				cur = prev[cur]
			}
			return f, path
		}
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if water.IsLand[nb] && !visited[nb] {
				visited[nb] = true
				prev[nb] = f
				queue = append(queue, nb)
			}
		}
	}
	return NoFace, nil
}

func widenRidges(mesh *MeshGraph, water *WaterState, state *ElevationState, controls Controls, seeds []FaceId) {
	widen := int(math.Round(lerp(0, 6, controls.RidgeWidth)))
	if widen <= 0 {
		return
	}
	ringDist := make([]int32, len(mesh.Faces))
	for i := range ringDist {
		ringDist[i] = -1
	}
	var queue []FaceId
	for _, fid := range water.LandFaces {
		if state.RidgeBoost[fid] > 0 {
			ringDist[fid] = 0
			queue = append(queue, fid)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if int(ringDist[f]) >= widen {
			continue
		}
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if water.IsLand[nb] && ringDist[nb] == -1 {
				ringDist[nb] = ringDist[f] + 1
				queue = append(queue, nb)
				t := 1 - float64(ringDist[nb])/float64(widen)
				falloff := t * t
				spill := int32(math.Round(falloff * float64(state.RidgeBoost[f])))
				if spill > state.RidgeBoost[nb] {
					state.RidgeBoost[nb] = spill
					state.FaceElevation[nb] = clampElev(state.LandBaseLevel[nb] + spill)
				}
			}
		}
	}
}

func applyOceanCaps(water *WaterState, state *ElevationState, controls Controls) {
	for _, fid := range water.LandFaces {
		d := float64(water.LandDistance[fid])
		boostCap := 2 * d
		if controls.RidgeOceanClamp > 0 && float64(state.RidgeBoost[fid]) > boostCap {
			capped := lerp(float64(state.RidgeBoost[fid]), boostCap, controls.RidgeOceanClamp)
			state.RidgeBoost[fid] = int32(math.Round(capped))
		}
		total := float64(state.LandBaseLevel[fid] + state.RidgeBoost[fid])
		totalCap := 2 * d
		if controls.OceanPeakClamp > 0 && total > totalCap {
			cappedTotal := lerp(total, totalCap, controls.OceanPeakClamp)
			state.RidgeBoost[fid] = int32(math.Round(cappedTotal)) - state.LandBaseLevel[fid]
		}
		state.FaceElevation[fid] = clampElev(state.LandBaseLevel[fid] + state.RidgeBoost[fid])
	}
}

func smoothLowlands(mesh *MeshGraph, water *WaterState, state *ElevationState, controls Controls) {
	if controls.PlateauStrength <= 0 {
		return
	}
	orig := append([]int32(nil), state.FaceElevation...)
	for _, fid := range water.LandFaces {
		if orig[fid] > 10 {
			continue
		}
		var sum float64
		count := 0
		for _, nb := range mesh.Faces[fid].AdjacentFaces {
			if water.IsLand[nb] {
				sum += float64(orig[nb])
				count++
			}
		}
		if count == 0 {
			continue
		}
		avg := sum / float64(count)
		blended := lerp(float64(orig[fid]), avg, controls.PlateauStrength)
		state.FaceElevation[fid] = clampElev(int32(math.Round(blended)))
	}
}

func applyWaterDepth(mesh *MeshGraph, water *WaterState, state *ElevationState) {
	dist := make([]int32, len(mesh.Faces))
	for i := range dist {
		dist[i] = -1
	}
	var queue []FaceId
	for _, face := range mesh.Faces {
		if water.IsLand[face.Index] {
			continue
		}
		for _, nb := range face.AdjacentFaces {
			if water.IsLand[nb] {
				dist[face.Index] = 0
				queue = append(queue, face.Index)
				break
			}
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if !water.IsLand[nb] && dist[nb] == -1 {
				dist[nb] = dist[f] + 1
				queue = append(queue, nb)
			}
		}
	}
	for _, face := range mesh.Faces {
		if water.IsLand[face.Index] {
			continue
		}
		ring := dist[face.Index]
		if ring < 0 {
			ring = 6 // fully interior water not reached by shore BFS (landlocked basin)
		}
		elev := -ring
		if elev < -6 {
			elev = -6
		}
		state.FaceElevation[face.Index] = elev
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
