package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terraincore/internal/terrain"
)

// TestPick_Scenarios covers P9: picking at a face's own site returns that
// face; a water face resolves to no province; a land face's site resolves
// to provinceByFace[face].
func TestPick_Scenarios(t *testing.T) {
	cache := fixtureCache(t, 1337)
	idx := BuildPickIndex(cache)

	for _, face := range cache.Mesh.Faces {
		fid, pid, ok := idx.Pick(face.Point)
		require.True(t, ok, "face %d site must resolve to a face", face.Index)
		assert.Equal(t, face.Index, fid)
		if cache.Water.IsLand[face.Index] {
			assert.Equal(t, cache.Provinces.ProvinceByFace[face.Index], pid)
		} else {
			assert.Equal(t, terrain.NoProvince, pid)
		}
	}
}

func TestPick_OutsideAnyCellReturnsFalse(t *testing.T) {
	cache := fixtureCache(t, 7)
	idx := BuildPickIndex(cache)
	_, _, ok := idx.Pick(terrain.Vec2{X: -1000, Y: -1000})
	assert.False(t, ok)
}

func TestPointInPolygon_Square(t *testing.T) {
	mesh := &terrain.MeshGraph{
		Vertices: []terrain.Vertex{
			{Point: terrain.Vec2{X: 0, Y: 0}},
			{Point: terrain.Vec2{X: 10, Y: 0}},
			{Point: terrain.Vec2{X: 10, Y: 10}},
			{Point: terrain.Vec2{X: 0, Y: 10}},
		},
	}
	face := terrain.Face{Vertices: []terrain.VertexId{0, 1, 2, 3}}

	assert.True(t, pointInPolygon(mesh, face, terrain.Vec2{X: 5, Y: 5}))
	assert.False(t, pointInPolygon(mesh, face, terrain.Vec2{X: 15, Y: 5}))
}
