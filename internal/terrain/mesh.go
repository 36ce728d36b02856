package terrain

import (
	"math"
	"sort"

	terrainerrors "terraincore/internal/errors"
)

// poissonDiskSample implements Bridson's algorithm over the map rectangle:
// a seeded first point, an active list, up to 30 candidates per active
// point at radius [r, 2r), acceptance checked against a background grid of
// cell size r/sqrt(2) sized so each cell holds at most one accepted point.
func poissonDiskSample(width, height float64, r float64, rng *Rng) []Vec2 {
	const k = 30
	cellSize := r / math.Sqrt2
	gw := int(math.Ceil(width/cellSize)) + 1
	gh := int(math.Ceil(height/cellSize)) + 1

	grid := make([][]int, gw*gh) // stores index into samples, -1 for empty via len check
	cellIndex := func(p Vec2) (int, int) {
		return int(p.X / cellSize), int(p.Y / cellSize)
	}

	var samples []Vec2
	inBounds := func(p Vec2) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
	}

	fits := func(p Vec2) bool {
		if !inBounds(p) {
			return false
		}
		cx, cy := cellIndex(p)
		for gx := cx - 2; gx <= cx+2; gx++ {
			for gy := cy - 2; gy <= cy+2; gy++ {
				if gx < 0 || gy < 0 || gx >= gw || gy >= gh {
					continue
				}
				for _, idx := range grid[gy*gw+gx] {
					if dist2(samples[idx], p) < r*r {
						return false
					}
				}
			}
		}
		return true
	}

	addSample := func(p Vec2) int {
		idx := len(samples)
		samples = append(samples, p)
		cx, cy := cellIndex(p)
		grid[cy*gw+cx] = append(grid[cy*gw+cx], idx)
		return idx
	}

	first := Vec2{X: rng.Range(0, width), Y: rng.Range(0, height)}
	active := []int{addSample(first)}

	for len(active) > 0 {
		ai := rng.Int(len(active))
		origin := samples[active[ai]]
		placed := false
		for i := 0; i < k; i++ {
			theta := rng.Range(0, 2*math.Pi)
			radius := rng.Range(r, 2*r)
			cand := Vec2{X: origin.X + radius*math.Cos(theta), Y: origin.Y + radius*math.Sin(theta)}
			if fits(cand) {
				idx := addSample(cand)
				active = append(active, idx)
				placed = true
				break
			}
		}
		if !placed {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	return samples
}

// clipByHalfPlane clips a convex polygon against the half-plane
// {p : (p - through) . normal <= 0} using Sutherland-Hodgman.
func clipByHalfPlane(poly []Vec2, through, normal Vec2) []Vec2 {
	if len(poly) == 0 {
		return poly
	}
	side := func(p Vec2) float64 {
		return (p.X-through.X)*normal.X + (p.Y-through.Y)*normal.Y
	}
	var out []Vec2
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curSide := side(cur)
		prevSide := side(prev)
		curIn := curSide <= 0
		prevIn := prevSide <= 0
		if curIn != prevIn {
			denom := prevSide - curSide
			var t float64
			if denom != 0 {
				t = prevSide / denom
			}
			out = append(out, Vec2{
				X: prev.X + (cur.X-prev.X)*t,
				Y: prev.Y + (cur.Y-prev.Y)*t,
			})
		}
		if curIn {
			out = append(out, cur)
		}
	}
	return out
}

// voronoiCell computes the clipped Voronoi polygon of sites[i] against the
// map rectangle and all other sites, per spec §4.3.
func voronoiCell(sites []Vec2, i int, width, height float64) []Vec2 {
	poly := []Vec2{
		{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height}, {X: 0, Y: height},
	}
	site := sites[i]
	for j, other := range sites {
		if j == i {
			continue
		}
		mid := Vec2{X: (site.X + other.X) / 2, Y: (site.Y + other.Y) / 2}
		normal := Vec2{X: other.X - site.X, Y: other.Y - site.Y}
		poly = clipByHalfPlane(poly, mid, normal)
		if len(poly) < 3 {
			return poly
		}
	}
	return poly
}

const vertexQuantization = 1e-3

func quantize(v float64) int64 {
	return int64(math.Round(v / vertexQuantization))
}

type quantizedKey struct{ qx, qy int64 }

type edgeKey struct{ a, b VertexId }

func makeEdgeKey(a, b VertexId) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BuildMesh runs C3: Poisson-disk site sampling, per-site Voronoi clipping,
// and assembly into a MeshGraph with full adjacency.
func BuildMesh(cfg Config, controls Controls) *MeshGraph {
	rng := Substream(controls.Seed, "mesh")
	sites := poissonDiskSample(float64(cfg.Width), float64(cfg.Height), controls.Spacing, rng)

	mesh := &MeshGraph{}
	vertexByKey := make(map[quantizedKey]VertexId)
	edgeByKey := make(map[edgeKey]EdgeId)

	internVertex := func(p Vec2) VertexId {
		key := quantizedKey{quantize(p.X), quantize(p.Y)}
		if id, ok := vertexByKey[key]; ok {
			return id
		}
		id := VertexId(len(mesh.Vertices))
		qp := Vec2{X: float64(key.qx) * vertexQuantization, Y: float64(key.qy) * vertexQuantization}
		mesh.Vertices = append(mesh.Vertices, Vertex{Index: id, Point: qp})
		vertexByKey[key] = id
		return id
	}

	internEdge := func(a, b VertexId) EdgeId {
		key := makeEdgeKey(a, b)
		if id, ok := edgeByKey[key]; ok {
			return id
		}
		id := EdgeId(len(mesh.Edges))
		va, vb := mesh.Vertices[a].Point, mesh.Vertices[b].Point
		mesh.Edges = append(mesh.Edges, Edge{
			Index:    id,
			FaceA:    NoFace,
			FaceB:    NoFace,
			VertexA:  a,
			VertexB:  b,
			Midpoint: Vec2{X: (va.X + vb.X) / 2, Y: (va.Y + vb.Y) / 2},
		})
		edgeByKey[key] = id
		return id
	}

	for i, site := range sites {
		poly := voronoiCell(sites, i, float64(cfg.Width), float64(cfg.Height))
		if len(poly) < 3 {
			// degenerate clip for this site: drop it, not an invariant
			// violation, since it only occurs for sites whose cells are
			// squeezed to nothing by very close neighbors
			continue
		}
		faceId := FaceId(len(mesh.Faces))
		vids := make([]VertexId, len(poly))
		for k, p := range poly {
			vids[k] = internVertex(p)
		}
		var eids []EdgeId
		n := len(vids)
		for k := 0; k < n; k++ {
			a, b := vids[k], vids[(k+1)%n]
			if a == b {
				continue
			}
			eid := internEdge(a, b)
			eids = append(eids, eid)
			e := &mesh.Edges[eid]
			if e.FaceA == NoFace {
				e.FaceA = faceId
			} else if e.FaceB == NoFace && e.FaceA != faceId {
				e.FaceB = faceId
			}
		}
		mesh.Faces = append(mesh.Faces, Face{
			Index:    faceId,
			Point:    site,
			Vertices: vids,
			Edges:    eids,
		})
	}

	if len(mesh.Faces) == 0 {
		panic(terrainerrors.Bug("mesh-zero-faces", "Poisson sampling and Voronoi clipping produced no faces"))
	}

	populateAdjacency(mesh)
	return mesh
}

func populateAdjacency(mesh *MeshGraph) {
	for fi := range mesh.Faces {
		face := &mesh.Faces[fi]
		seen := make(map[FaceId]bool)
		for _, eid := range face.Edges {
			e := mesh.Edges[eid]
			other := e.OtherFace(face.Index)
			if other == NoFace || seen[other] {
				continue
			}
			seen[other] = true
			face.AdjacentFaces = append(face.AdjacentFaces, other)
		}
		sort.Slice(face.AdjacentFaces, func(i, j int) bool { return face.AdjacentFaces[i] < face.AdjacentFaces[j] })
	}

	vertexFaces := make([][]FaceId, len(mesh.Vertices))
	vertexEdges := make([][]EdgeId, len(mesh.Vertices))
	for _, face := range mesh.Faces {
		for _, vid := range face.Vertices {
			vertexFaces[vid] = appendUniqueFace(vertexFaces[vid], face.Index)
		}
	}
	for _, e := range mesh.Edges {
		vertexEdges[e.VertexA] = append(vertexEdges[e.VertexA], e.Index)
		vertexEdges[e.VertexB] = append(vertexEdges[e.VertexB], e.Index)
	}
	for vi := range mesh.Vertices {
		v := &mesh.Vertices[vi]
		v.Faces = vertexFaces[vi]
		v.Edges = vertexEdges[vi]
		seen := make(map[VertexId]bool)
		for _, eid := range v.Edges {
			e := mesh.Edges[eid]
			other := e.VertexA
			if other == v.Index {
				other = e.VertexB
			}
			if !seen[other] {
				seen[other] = true
				v.AdjacentVertices = append(v.AdjacentVertices, other)
			}
		}
		sort.Slice(v.AdjacentVertices, func(i, j int) bool { return v.AdjacentVertices[i] < v.AdjacentVertices[j] })
	}

	for fi := range mesh.Faces {
		if len(mesh.Faces[fi].Vertices) < 3 {
			panic(terrainerrors.Bug("mesh-face-lt-3-vertices", "face has fewer than 3 vertices after clipping"))
		}
	}
}

func appendUniqueFace(list []FaceId, f FaceId) []FaceId {
	for _, existing := range list {
		if existing == f {
			return list
		}
	}
	return append(list, f)
}

// FaceAABB computes a face's axis-aligned bounding box from its vertex loop.
func FaceAABB(mesh *MeshGraph, f FaceId) (minP, maxP Vec2) {
	face := mesh.Faces[f]
	minP = Vec2{X: math.Inf(1), Y: math.Inf(1)}
	maxP = Vec2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, vid := range face.Vertices {
		p := mesh.Vertices[vid].Point
		if p.X < minP.X {
			minP.X = p.X
		}
		if p.Y < minP.Y {
			minP.Y = p.Y
		}
		if p.X > maxP.X {
			maxP.X = p.X
		}
		if p.Y > maxP.Y {
			maxP.Y = p.Y
		}
	}
	return
}
