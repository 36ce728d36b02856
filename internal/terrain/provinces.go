package terrain

import (
	"container/heap"
	"math"
	"sort"
)

// landComponents flood-fills land faces into connected components using
// plain land-face adjacency (passability restrictions apply later, during
// balanced growth, not to component membership).
func landComponents(mesh *MeshGraph, water *WaterState) [][]FaceId {
	visited := make(map[FaceId]bool)
	var components [][]FaceId
	for _, fid := range water.LandFaces {
		if visited[fid] {
			continue
		}
		var comp []FaceId
		queue := []FaceId{fid}
		visited[fid] = true
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			comp = append(comp, f)
			for _, nb := range mesh.Faces[f].AdjacentFaces {
				if water.IsLand[nb] && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

// allocateSeedCounts distributes provinceCount seeds across components
// proportional to component size, capped at one seed per face, with
// islandSizeMultiplier biasing small components toward a single province.
func allocateSeedCounts(components [][]FaceId, controls Controls) []int {
	totalLand := 0
	for _, c := range components {
		totalLand += len(c)
	}
	if totalLand == 0 {
		return nil
	}
	counts := make([]int, len(components))
	allocated := 0
	for i, c := range components {
		small := float64(len(c)) < controls.Spacing*controls.Spacing/8*controls.IslandSizeMultiplier
		if small {
			counts[i] = 1
		} else {
			share := int(math.Round(float64(controls.ProvinceCount) * float64(len(c)) / float64(totalLand)))
			if share < 1 {
				share = 1
			}
			if share > len(c) {
				share = len(c)
			}
			counts[i] = share
		}
		allocated += counts[i]
	}
	// trim overallocation from the largest components first, deterministically
	order := make([]int, len(components))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return len(components[order[i]]) > len(components[order[j]]) })
	idx := 0
	for allocated > controls.ProvinceCount && len(order) > 0 {
		i := order[idx%len(order)]
		if counts[i] > 1 {
			counts[i]--
			allocated--
		}
		idx++
		if idx > len(order)*controls.ProvinceCount+8 {
			break
		}
	}
	return counts
}

// farthestPointSeeds picks seedCount faces within comp by iterative
// farthest-point selection: the first seed is the first face (by id) for
// determinism, subsequent seeds maximize the minimum distance to
// already-picked seeds.
func farthestPointSeeds(mesh *MeshGraph, comp []FaceId, seedCount int) []FaceId {
	if seedCount <= 0 || len(comp) == 0 {
		return nil
	}
	picked := []FaceId{comp[0]}
	for len(picked) < seedCount && len(picked) < len(comp) {
		var bestFace FaceId
		bestDist := -1.0
		for _, fid := range comp {
			already := false
			for _, p := range picked {
				if p == fid {
					already = true
					break
				}
			}
			if already {
				continue
			}
			minDist := math.Inf(1)
			for _, p := range picked {
				d := euclidean(mesh.Faces[fid].Point, mesh.Faces[p].Point)
				if d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				bestFace = fid
			}
		}
		picked = append(picked, bestFace)
	}
	return picked
}

type growthItem struct {
	face     FaceId
	province ProvinceId
	score    float64
	index    int
}

type growthHeap []*growthItem

func (h growthHeap) Len() int { return len(h) }
func (h growthHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].face < h[j].face
}
func (h growthHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *growthHeap) Push(x interface{}) {
	item := x.(*growthItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *growthHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// BuildProvinces runs C7: land components, seed allocation/placement,
// balanced multi-source growth, nearest-seed fallback, and province graph
// construction.
func BuildProvinces(mesh *MeshGraph, water *WaterState, elevation *ElevationState, rivers *RiverState, controls Controls) *ProvinceGraph {
	graph := &ProvinceGraph{
		IsLand:         append([]bool(nil), water.IsLand...),
		LandFaces:      append([]FaceId(nil), water.LandFaces...),
		ProvinceByFace: make([]ProvinceId, len(mesh.Faces)),
	}
	for i := range graph.ProvinceByFace {
		graph.ProvinceByFace[i] = NoProvince
	}
	if len(water.LandFaces) == 0 {
		return graph
	}

	components := landComponents(mesh, water)
	seedCounts := allocateSeedCounts(components, controls)

	balanceWeight := math.Max(8, controls.Spacing*1.1)
	passageLimit := controls.ProvincePassageElevation

	assigned := make([]bool, len(mesh.Faces))
	dist := make([]float64, len(mesh.Faces))
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	h := &growthHeap{}
	heap.Init(h)

	nextProvince := ProvinceId(0)
	targetSize := make(map[ProvinceId]int)
	currentSize := make(map[ProvinceId]int)

	for ci, comp := range components {
		seeds := farthestPointSeeds(mesh, comp, seedCounts[ci])
		for _, s := range seeds {
			pid := nextProvince
			nextProvince++
			graph.SeedFaces = append(graph.SeedFaces, s)
			targetSize[pid] = len(comp) / max(1, len(seeds))
			dist[s] = 0
			heap.Push(h, &growthItem{face: s, province: pid, score: 0})
			graph.ProvinceByFace[s] = pid
			assigned[s] = true
			currentSize[pid] = 1
		}
	}

	canCross := func(from, to FaceId) (bool, EdgeId) {
		for _, eid := range mesh.Faces[from].Edges {
			e := mesh.Edges[eid]
			if e.OtherFace(from) == to {
				return true, eid
			}
		}
		return false, -1
	}

	for h.Len() > 0 {
		item := heap.Pop(h).(*growthItem)
		if item.score > dist[item.face] {
			continue
		}
		for _, nb := range mesh.Faces[item.face].AdjacentFaces {
			if !water.IsLand[nb] {
				continue
			}
			ok, eid := canCross(item.face, nb)
			if !ok || rivers.BarrierEdgeSet[eid] {
				continue
			}
			maxElevAB := math.Max(float64(elevation.FaceElevation[item.face]), float64(elevation.FaceElevation[nb]))
			if passageLimit > 0 && maxElevAB > passageLimit {
				continue
			}
			step := euclidean(mesh.Faces[item.face].Point, mesh.Faces[nb].Point)
			if rivers.RiverEdgeMask[eid] {
				step += controls.ProvinceRiverPenalty
			}
			pid := item.province
			balance := balanceWeight * (float64(currentSize[pid]) / math.Max(1, float64(targetSize[pid])))
			newScore := item.score + step + balance
			if newScore < dist[nb] {
				dist[nb] = newScore
				if !assigned[nb] || graph.ProvinceByFace[nb] != pid {
					assigned[nb] = true
					graph.ProvinceByFace[nb] = pid
					currentSize[pid]++
				}
				heap.Push(h, &growthItem{face: nb, province: pid, score: newScore})
			}
		}
	}

	// fallback: unassigned land faces go to the nearest seed by Euclidean distance
	for _, fid := range water.LandFaces {
		if graph.ProvinceByFace[fid] != NoProvince {
			continue
		}
		best := NoProvince
		bestDist := math.Inf(1)
		for pid, seed := range graph.SeedFaces {
			d := euclidean(mesh.Faces[fid].Point, mesh.Faces[seed].Point)
			if d < bestDist {
				bestDist = d
				best = ProvinceId(pid)
			}
		}
		graph.ProvinceByFace[fid] = best
	}

	buildProvinceGraph(mesh, water, graph, int(nextProvince))
	return graph
}

func buildProvinceGraph(mesh *MeshGraph, water *WaterState, graph *ProvinceGraph, provinceCount int) {
	graph.Provinces = make([]Province, provinceCount)
	for i := range graph.Provinces {
		graph.Provinces[i] = Province{Index: ProvinceId(i)}
	}
	for _, fid := range water.LandFaces {
		pid := graph.ProvinceByFace[fid]
		if pid == NoProvince {
			continue
		}
		graph.Provinces[pid].Faces = append(graph.Provinces[pid].Faces, fid)
	}

	adjSeen := make(map[[2]ProvinceId]bool)
	for _, face := range mesh.Faces {
		if !water.IsLand[face.Index] {
			continue
		}
		pidA := graph.ProvinceByFace[face.Index]
		for _, eid := range face.Edges {
			e := mesh.Edges[eid]
			if e.FaceA != face.Index {
				continue // visit each edge once, from its first face
			}
			other := e.FaceB
			if other == NoFace {
				graph.OuterEdges = append(graph.OuterEdges, OuterEdge{Edge: eid, ProvinceA: pidA, ProvinceB: NoProvince, FaceA: face.Index, FaceB: NoFace})
				continue
			}
			if !water.IsLand[other] {
				graph.OuterEdges = append(graph.OuterEdges, OuterEdge{Edge: eid, ProvinceA: pidA, ProvinceB: NoProvince, FaceA: face.Index, FaceB: other})
				continue
			}
			pidB := graph.ProvinceByFace[other]
			if pidB != pidA {
				graph.OuterEdges = append(graph.OuterEdges, OuterEdge{Edge: eid, ProvinceA: pidA, ProvinceB: pidB, FaceA: face.Index, FaceB: other})
				key := [2]ProvinceId{minPid(pidA, pidB), maxPid(pidA, pidB)}
				if !adjSeen[key] {
					adjSeen[key] = true
					graph.Provinces[pidA].AdjacentProvinces = append(graph.Provinces[pidA].AdjacentProvinces, pidB)
					graph.Provinces[pidB].AdjacentProvinces = append(graph.Provinces[pidB].AdjacentProvinces, pidA)
				}
			}
		}
	}
	for i := range graph.Provinces {
		sort.Slice(graph.Provinces[i].AdjacentProvinces, func(a, b int) bool {
			return graph.Provinces[i].AdjacentProvinces[a] < graph.Provinces[i].AdjacentProvinces[b]
		})
	}
	for idx, oe := range graph.OuterEdges {
		if oe.ProvinceA != NoProvince {
			graph.Provinces[oe.ProvinceA].OuterEdges = append(graph.Provinces[oe.ProvinceA].OuterEdges, idx)
		}
		if oe.ProvinceB != NoProvince {
			graph.Provinces[oe.ProvinceB].OuterEdges = append(graph.Provinces[oe.ProvinceB].OuterEdges, idx)
		}
	}
}

func minPid(a, b ProvinceId) ProvinceId {
	if a < b {
		return a
	}
	return b
}
func maxPid(a, b ProvinceId) ProvinceId {
	if a > b {
		return a
	}
	return b
}
