package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildElevationFixture(t *testing.T, seed uint32) (*MeshGraph, *WaterState, *ElevationState) {
	t.Helper()
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(seed)
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	elevation := BuildElevation(mesh, water, controls)
	return mesh, water, elevation
}

// TestBuildElevation_LandWaterSign covers P3's elevation-sign half: land
// elevations are >= 1 and water elevations are <= 0.
func TestBuildElevation_LandWaterSign(t *testing.T) {
	_, water, elevation := buildElevationFixture(t, 1337)
	for i, isLand := range water.IsLand {
		if isLand {
			assert.GreaterOrEqual(t, elevation.FaceElevation[i], int32(1))
			assert.LessOrEqual(t, elevation.FaceElevation[i], int32(32))
		} else {
			assert.LessOrEqual(t, elevation.FaceElevation[i], int32(0))
		}
	}
}

// TestBuildElevation_CoastMonotonicity covers P4: mean land elevation at
// coast distance d+1 is >= mean at distance d, for a relief-dominant config
// with ridges turned off.
func TestBuildElevation_CoastMonotonicity(t *testing.T) {
	cfg := Config{Width: 768, Height: 768}
	controls := testControls(55)
	controls.LandRelief = 0.9
	controls.RidgeStrength = 0
	controls.RidgeCount = 1
	controls.PlateauStrength = 0
	controls.RidgeOceanClamp = 0
	controls.OceanPeakClamp = 0
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	require.True(t, water.HasLand)
	elevation := BuildElevation(mesh, water, controls)

	sums := map[int32]float64{}
	counts := map[int32]int{}
	for _, fid := range water.LandFaces {
		d := water.LandDistance[fid]
		sums[d] += float64(elevation.FaceElevation[fid])
		counts[d]++
	}
	var maxD int32
	for d := range counts {
		if d > maxD {
			maxD = d
		}
	}
	var prevMean float64 = -1
	for d := int32(0); d <= maxD; d++ {
		if counts[d] == 0 {
			continue
		}
		mean := sums[d] / float64(counts[d])
		if prevMean >= 0 {
			assert.GreaterOrEqual(t, mean, prevMean-1e-9)
		}
		prevMean = mean
	}
}

func TestBuildElevation_Deterministic(t *testing.T) {
	_, _, e1 := buildElevationFixture(t, 9001)
	_, _, e2 := buildElevationFixture(t, 9001)
	assert.Equal(t, e1.FaceElevation, e2.FaceElevation)
	assert.Equal(t, e1.VertexElevation, e2.VertexElevation)
}

func TestBuildElevation_NoLandLeavesEveryFaceAtOrBelowSeaLevel(t *testing.T) {
	cfg := Config{Width: 256, Height: 256}
	controls := testControls(4)
	controls.WaterLevel = 40
	mesh := BuildMesh(cfg, controls)
	water := &WaterState{
		IsLand:       make([]bool, len(mesh.Faces)),
		LandDistance: make([]int32, len(mesh.Faces)),
		HasLand:      false,
		HasWater:     true,
	}
	for i := range water.LandDistance {
		water.LandDistance[i] = -1
	}
	elevation := BuildElevation(mesh, water, controls)
	for _, e := range elevation.FaceElevation {
		assert.LessOrEqual(t, e, int32(0))
	}
}
