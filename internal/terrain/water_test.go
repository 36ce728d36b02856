package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWaterFixture(t *testing.T, seed uint32) (*MeshGraph, *WaterState) {
	t.Helper()
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(seed)
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	return mesh, water
}

// TestClassifyWater_LandAndWaterPresent gives end-to-end scenario (1): a
// default-ish config produces both land and water faces.
func TestClassifyWater_LandAndWaterPresent(t *testing.T) {
	_, water := buildWaterFixture(t, 1337)
	require.True(t, water.HasLand)
	require.True(t, water.HasWater)
	assert.NotEmpty(t, water.LandFaces)
}

func TestClassifyWater_LandFacesAscending(t *testing.T) {
	_, water := buildWaterFixture(t, 9)
	for i := 1; i < len(water.LandFaces); i++ {
		assert.Less(t, water.LandFaces[i-1], water.LandFaces[i])
	}
}

// TestClassifyWater_OceanIsBoundaryConnectedComponent covers P3: ocean is
// exactly the connected component of water touching the rectangle boundary.
func TestClassifyWater_OceanIsBoundaryConnectedComponent(t *testing.T) {
	mesh, water := buildWaterFixture(t, 1337)

	for _, face := range mesh.Faces {
		if water.IsLand[face.Index] {
			assert.False(t, water.OceanWater[face.Index])
			continue
		}
		if !water.OceanWater[face.Index] {
			// non-ocean water is checked by the reachability comparison
			// below: none of it may be reached from the boundary
			continue
		}
	}

	// every ocean face must be water-adjacency-reachable from some
	// boundary-touching face
	visited := map[FaceId]bool{}
	var queue []FaceId
	for _, face := range mesh.Faces {
		minP, maxP := FaceAABB(mesh, face.Index)
		touches := minP.X <= 0 || minP.Y <= 0 || maxP.X >= 512 || maxP.Y >= 512
		if touches && !water.IsLand[face.Index] {
			visited[face.Index] = true
			queue = append(queue, face.Index)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if !water.IsLand[nb] && !visited[nb] {
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	for _, face := range mesh.Faces {
		assert.Equal(t, visited[face.Index], water.OceanWater[face.Index])
	}
}

func TestClassifyWater_Deterministic(t *testing.T) {
	_, w1 := buildWaterFixture(t, 2024)
	_, w2 := buildWaterFixture(t, 2024)
	assert.Equal(t, w1.IsLand, w2.IsLand)
	assert.Equal(t, w1.LandDistance, w2.LandDistance)
}

func TestClassifyWater_DegenerateAllWaterDoesNotPanic(t *testing.T) {
	cfg := Config{Width: 256, Height: 256}
	controls := testControls(3)
	controls.WaterLevel = 40 // maximal water, minimal land
	controls.WaterRoughness = 0
	controls.WaterNoiseStrength = 0
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	// may or may not produce land depending on baseRadius floor, but must
	// never panic and must report consistent has-flags
	assert.Equal(t, len(water.LandFaces) > 0, water.HasLand)
}
