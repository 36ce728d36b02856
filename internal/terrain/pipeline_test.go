package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipeline_Determinism covers P1 and end-to-end scenario 3: two fresh
// generations from the same (config, controls) are byte-identical.
func TestPipeline_Determinism(t *testing.T) {
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(2024)

	p1 := &Pipeline{}
	c1, err := p1.Build(cfg, controls, nil, "")
	require.NoError(t, err)

	p2 := &Pipeline{}
	c2, err := p2.Build(cfg, controls, nil, "")
	require.NoError(t, err)

	require.Equal(t, len(c1.Mesh.Faces), len(c2.Mesh.Faces))
	assert.Equal(t, c1.Mesh.Faces, c2.Mesh.Faces)
	assert.Equal(t, c1.Mesh.Edges, c2.Mesh.Edges)
	assert.Equal(t, c1.Water.IsLand, c2.Water.IsLand)
	assert.Equal(t, c1.Elevation.FaceElevation, c2.Elevation.FaceElevation)
	assert.Equal(t, c1.Rivers.RiverEdgeMask, c2.Rivers.RiverEdgeMask)
	assert.Equal(t, c1.Provinces.ProvinceByFace, c2.Provinces.ProvinceByFace)
	assert.Equal(t, c1.Fingerprints, c2.Fingerprints)
}

// TestPipeline_Scenario1 covers end-to-end scenario (1): a 512x512 map at
// seed 1337 / spacing 64 produces both land and water and a bounded number
// of provinces.
func TestPipeline_Scenario1(t *testing.T) {
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(1337)
	controls.Spacing = 64
	controls.ProvinceCount = 8

	p := &Pipeline{}
	cache, err := p.Build(cfg, controls, nil, "")
	require.NoError(t, err)

	assert.Greater(t, len(cache.Water.LandFaces), 0)
	waterFaces := 0
	for _, land := range cache.Water.IsLand {
		if !land {
			waterFaces++
		}
	}
	assert.Greater(t, waterFaces, 0)
	assert.LessOrEqual(t, len(cache.Provinces.Provinces), 8)
}

// TestPipeline_NormalizerRejectsOutOfBoundsConfig covers §6/§7 class 1:
// programmer errors are reported before any stage runs.
func TestPipeline_NormalizerRejectsOutOfBoundsConfig(t *testing.T) {
	p := &Pipeline{}
	_, err := p.Build(Config{Width: 10, Height: 10}, testControls(1), nil, "")
	assert.Error(t, err)
}

// TestPipeline_StopAfterRivers covers the stopAfter short-circuit used by
// callers that only need navigation.
func TestPipeline_StopAfterRivers(t *testing.T) {
	p := &Pipeline{}
	cache, err := p.Build(Config{Width: 512, Height: 512}, testControls(4), nil, StageRivers)
	require.NoError(t, err)
	require.NotNil(t, cache.Rivers)
	assert.Nil(t, cache.Provinces)
}

// TestRun_StepwiseMatchesBuild exercises the Design Notes' step-based
// iterator and confirms it reaches the same cache as Build.
func TestRun_StepwiseMatchesBuild(t *testing.T) {
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(55)

	run := NewRun(cfg, controls, nil, "")
	var stages []StageName
	for {
		name, done, err := run.Step()
		require.NoError(t, err)
		if name != "" {
			stages = append(stages, name)
		}
		if done {
			break
		}
	}
	assert.Equal(t, []StageName{StageMesh, StageWater, StageElevation, StageRivers, StageProvinces}, stages)

	p := &Pipeline{}
	built, err := p.Build(cfg, controls, nil, "")
	require.NoError(t, err)

	assert.Equal(t, built.Fingerprints, run.Cache().Fingerprints)
	assert.Equal(t, built.Water.IsLand, run.Cache().Water.IsLand)
}

// TestPipeline_ReusedMeshNotMutatedByElevationRebuild guards against a
// rebuild that reuses the mesh (mesh/water controls unchanged) while the
// elevation controls did change: the new Face.Elevation values must land on
// a mesh the new cache owns, never on the previous cache's still-shared
// *MeshGraph. A caller holding the previous cache (worldregistry.Registry's
// in-flight World copies, for example) must keep seeing its own elevations.
func TestPipeline_ReusedMeshNotMutatedByElevationRebuild(t *testing.T) {
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(9)

	p := &Pipeline{}
	first, err := p.Build(cfg, controls, nil, "")
	require.NoError(t, err)

	staleElevations := make([]int32, len(first.Mesh.Faces))
	for i, f := range first.Mesh.Faces {
		staleElevations[i] = f.Elevation
	}

	changed := controls
	changed.LandRelief = controls.LandRelief + 0.2

	second, err := p.Build(cfg, changed, first, "")
	require.NoError(t, err)
	require.NotEqual(t, first.Fingerprints.Elevation, second.Fingerprints.Elevation)

	currentFirstElevations := make([]int32, len(first.Mesh.Faces))
	for i, f := range first.Mesh.Faces {
		currentFirstElevations[i] = f.Elevation
	}
	assert.Equal(t, staleElevations, currentFirstElevations, "rebuilding with new elevation controls must not mutate the previous cache's mesh")

	for i := range second.Mesh.Faces {
		assert.Equal(t, second.Elevation.FaceElevation[i], second.Mesh.Faces[i].Elevation)
	}
}
