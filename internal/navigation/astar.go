package navigation

import (
	"container/heap"
	"math"

	"terraincore/internal/terrain"
)

// searchNode is one entry in the A* open set, grounded on the teacher's
// pathfinding.go Node/PriorityQueue pattern (container/heap over a slice of
// pointers), generalized here from raster Points to FaceId graph nodes and
// extended with the spec's deterministic tie-break rule.
type searchNode struct {
	face      terrain.FaceId
	g         float64
	f         float64
	parent    terrain.FaceId
	hasParent bool
	index     int
}

type openSet []*searchNode

func (h openSet) Len() int { return len(h) }
func (h openSet) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	// ties: g descending (prefer the node that traveled further), then
	// face id ascending, per spec §4.9
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].face < h[j].face
}
func (h openSet) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openSet) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *openSet) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func heuristic(g *Graph, from, to terrain.FaceId) float64 {
	a, _ := g.cache.FaceCenter(from)
	b, _ := g.cache.FaceCenter(to)
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx+dy*dy) / g.CostParams.Spacing
}

// FindPath runs A* over the navigation graph. Unreachable targets return
// an empty path and +Inf cost, never an error (degenerate output, not a
// failure).
func (g *Graph) FindPath(start, goal terrain.FaceId) ([]terrain.FaceId, float64) {
	if int(start) < 0 || int(start) >= len(g.Nodes) || int(goal) < 0 || int(goal) >= len(g.Nodes) {
		return nil, math.Inf(1)
	}
	if start == goal {
		return []terrain.FaceId{start}, 0
	}

	best := map[terrain.FaceId]*searchNode{}
	closed := map[terrain.FaceId]bool{}

	startNode := &searchNode{face: start, g: 0, f: heuristic(g, start, goal)}
	best[start] = startNode

	h := &openSet{startNode}
	heap.Init(h)

	for h.Len() > 0 {
		cur := heap.Pop(h).(*searchNode)
		if closed[cur.face] {
			continue
		}
		if cur.face == goal {
			return reconstructPath(best, cur.face), cur.g
		}
		closed[cur.face] = true

		for _, nb := range g.Nodes[cur.face].Neighbors {
			if closed[nb.NeighborFaceId] {
				continue
			}
			tentativeG := cur.g + nb.StepCost
			existing, seen := best[nb.NeighborFaceId]
			if seen && tentativeG >= existing.g {
				continue
			}
			node := &searchNode{
				face:      nb.NeighborFaceId,
				g:         tentativeG,
				f:         tentativeG + heuristic(g, nb.NeighborFaceId, goal),
				parent:    cur.face,
				hasParent: true,
			}
			best[nb.NeighborFaceId] = node
			heap.Push(h, node)
		}
	}

	return nil, math.Inf(1)
}

func reconstructPath(best map[terrain.FaceId]*searchNode, goal terrain.FaceId) []terrain.FaceId {
	var path []terrain.FaceId
	cur := goal
	for {
		path = append([]terrain.FaceId{cur}, path...)
		node := best[cur]
		if !node.hasParent {
			break
		}
		cur = node.parent
	}
	return path
}
