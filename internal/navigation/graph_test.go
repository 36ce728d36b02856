package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terraincore/internal/terrain"
)

func fixtureCache(t *testing.T, seed uint32) *terrain.Cache {
	t.Helper()
	cfg := terrain.Config{Width: 512, Height: 512}
	controls := terrain.Controls{
		Spacing:              64,
		Seed:                 seed,
		WaterLevel:           0,
		WaterRoughness:       40,
		WaterNoiseStrength:   0.4,
		WaterNoiseOctaves:    3,
		WaterWarpStrength:    0.3,
		LandRelief:           0.6,
		RidgeStrength:        0.5,
		RidgeCount:           4,
		RiverDensity:         1,
		RiverBranchChance:    0.2,
		RiverClimbChance:     0.1,
		ProvinceCount:        8,
		IslandSizeMultiplier: 1,
		TimePerFaceSeconds:   1,
		LowlandThreshold:     10,
		ImpassableThreshold:  28,
		ElevationPower:       1.2,
		ElevationGainK:       1.5,
		RiverPenalty:         2,
	}
	normControls, ok := controls.Normalize()
	require.True(t, ok)

	p := &terrain.Pipeline{}
	cache, err := p.Build(cfg, normControls, nil, "")
	require.NoError(t, err)
	return cache
}

// TestBuild_ImpassableEdgesNotAdded covers scenario (2): with
// impassableThreshold=2, lowlandThreshold=1, no edge between two faces whose
// max elevation is >= 2 is ever added.
func TestBuild_ImpassableEdgesNotAdded(t *testing.T) {
	cache := fixtureCache(t, 1337)
	cache.Controls.ImpassableThreshold = 2
	cache.Controls.LowlandThreshold = 1
	g := Build(cache)

	for fid, node := range g.Nodes {
		for _, nb := range node.Neighbors {
			maxElev := cache.Elevation.FaceElevation[fid]
			if cache.Elevation.FaceElevation[nb.NeighborFaceId] > maxElev {
				maxElev = cache.Elevation.FaceElevation[nb.NeighborFaceId]
			}
			assert.Less(t, int(maxElev), 2)
		}
	}
}

func TestBuild_RiverEdgesArePenalized(t *testing.T) {
	cache := fixtureCache(t, 9)
	g := Build(cache)

	foundRiverEdge := false
	for fid, node := range g.Nodes {
		for _, nb := range node.Neighbors {
			if !cache.Rivers.RiverEdgeMask[nb.ViaEdge] {
				continue
			}
			foundRiverEdge = true
			// the same pair without the river penalty would have a lower
			// factor; recompute directly to compare
			base, ok := stepFactor(cache.Elevation.FaceElevation[fid], cache.Elevation.FaceElevation[nb.NeighborFaceId], g.CostParams)
			require.True(t, ok)
			assert.InDelta(t, base*(1+g.CostParams.RiverPenalty), nb.StepCost, 1e-9)
		}
	}
	_ = foundRiverEdge // presence is seed-dependent; assertion above covers it when found
}

func TestBuild_SanitizesThresholds(t *testing.T) {
	cache := fixtureCache(t, 5)
	cache.Controls.LowlandThreshold = 10
	cache.Controls.ImpassableThreshold = 10
	g := Build(cache)
	assert.Greater(t, g.CostParams.ImpassableThreshold, g.CostParams.LowlandThreshold)
}

func TestStepFactor_LowlandIsUnitFactor(t *testing.T) {
	params := CostParams{LowlandThreshold: 10, ImpassableThreshold: 28, ElevationGainK: 2, ElevationPower: 1.5}
	factor, ok := stepFactor(3, 5, params)
	require.True(t, ok)
	assert.Equal(t, 1.0, factor)
}

func TestStepFactor_AtOrAboveImpassableIsExcluded(t *testing.T) {
	params := CostParams{LowlandThreshold: 10, ImpassableThreshold: 28, ElevationGainK: 2, ElevationPower: 1.5}
	_, ok := stepFactor(28, 3, params)
	assert.False(t, ok)
}

func TestEdgeTimeSeconds(t *testing.T) {
	g := &Graph{CostParams: CostParams{TimePerFaceSeconds: 2}}
	assert.Equal(t, 6.0, g.EdgeTimeSeconds(3))
}
