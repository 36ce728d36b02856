package navigation

import (
	"math"

	"terraincore/internal/terrain"
)

const pickCellSize = 32.0

type pickCell struct{ cx, cy int }

// PickIndex is C10: a uniform grid over face AABBs plus even-odd
// point-in-polygon, grounded on the teacher's SpatialGrid
// (cell-bucketed index over cellSize, radius/area queries) generalized
// from point entities to face polygons.
type PickIndex struct {
	cache *terrain.Cache
	cells map[pickCell][]terrain.FaceId
}

// BuildPickIndex partitions the map into 32x32 world-unit cells and lists
// each face in every cell its AABB overlaps.
func BuildPickIndex(cache *terrain.Cache) *PickIndex {
	idx := &PickIndex{cache: cache, cells: make(map[pickCell][]terrain.FaceId)}
	for _, face := range cache.Mesh.Faces {
		minP, maxP := terrain.FaceAABB(cache.Mesh, face.Index)
		minCX := int(math.Floor(minP.X / pickCellSize))
		minCY := int(math.Floor(minP.Y / pickCellSize))
		maxCX := int(math.Floor(maxP.X / pickCellSize))
		maxCY := int(math.Floor(maxP.Y / pickCellSize))
		for cx := minCX; cx <= maxCX; cx++ {
			for cy := minCY; cy <= maxCY; cy++ {
				cell := pickCell{cx, cy}
				idx.cells[cell] = append(idx.cells[cell], face.Index)
			}
		}
	}
	return idx
}

func pointInAABB(p, minP, maxP terrain.Vec2) bool {
	return p.X >= minP.X && p.X <= maxP.X && p.Y >= minP.Y && p.Y <= maxP.Y
}

// pointInPolygon applies the even-odd rule over a face's ordered vertex loop.
func pointInPolygon(mesh *terrain.MeshGraph, face terrain.Face, p terrain.Vec2) bool {
	inside := false
	n := len(face.Vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi := mesh.Vertices[face.Vertices[i]].Point
		vj := mesh.Vertices[face.Vertices[j]].Point
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xCross := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// Pick looks up the face (and province) under a world point. The first
// matching candidate in the cell wins; a matched water face resolves to
// NoProvince.
func (idx *PickIndex) Pick(p terrain.Vec2) (terrain.FaceId, terrain.ProvinceId, bool) {
	cell := pickCell{int(math.Floor(p.X / pickCellSize)), int(math.Floor(p.Y / pickCellSize))}
	candidates, ok := idx.cells[cell]
	if !ok {
		return terrain.NoFace, terrain.NoProvince, false
	}
	for _, fid := range candidates {
		face := idx.cache.Mesh.Faces[fid]
		minP, maxP := terrain.FaceAABB(idx.cache.Mesh, fid)
		if !pointInAABB(p, minP, maxP) {
			continue
		}
		if pointInPolygon(idx.cache.Mesh, face, p) {
			if !idx.cache.Water.IsLand[fid] {
				return fid, terrain.NoProvince, true
			}
			return fid, idx.cache.ProvinceOf(fid), true
		}
	}
	return terrain.NoFace, terrain.NoProvince, false
}
