package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRiverFixture(t *testing.T, seed uint32) (*MeshGraph, *WaterState, *ElevationState, *RiverState) {
	t.Helper()
	cfg := Config{Width: 768, Height: 768}
	controls := testControls(seed)
	controls.RiverDensity = 1.5
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	elevation := BuildElevation(mesh, water, controls)
	rivers := TraceRivers(mesh, water, elevation, controls)
	return mesh, water, elevation, rivers
}

// TestTraceRivers_SinksAtWaterOrClosedBasin covers P5: every trace ends at a
// vertex incident to water, or is explicitly marked a closed basin.
func TestTraceRivers_SinksAtWaterOrClosedBasin(t *testing.T) {
	mesh, water, _, rivers := buildRiverFixture(t, 1337)
	require.NotEmpty(t, rivers.Traces)

	for _, trace := range rivers.Traces {
		if trace.ClosedBasin {
			continue
		}
		require.NotEmpty(t, trace.Vertices)
		last := trace.Vertices[len(trace.Vertices)-1]
		touchesWater := false
		for _, fid := range mesh.Vertices[last].Faces {
			if !water.IsLand[fid] {
				touchesWater = true
				break
			}
		}
		assert.True(t, touchesWater, "non-closed-basin trace must end at a water-incident vertex")
	}
}

// TestTraceRivers_EdgeMaskMatchesTraces covers the trunk side of the
// two-tier barrier/penalty split: every traced edge is a river edge, and
// every trunk (depth 0) edge is a hard barrier. It does not check that
// branch edges stay out of BarrierEdgeSet.
func TestTraceRivers_EdgeMaskMatchesTraces(t *testing.T) {
	_, _, _, rivers := buildRiverFixture(t, 42)
	for _, trace := range rivers.Traces {
		for _, e := range trace.Edges {
			assert.True(t, rivers.RiverEdgeMask[e])
			if trace.Depth == 0 {
				assert.True(t, rivers.BarrierEdgeSet[e])
			}
		}
	}
}

func TestTraceRivers_ZeroDensityProducesNoTraces(t *testing.T) {
	cfg := Config{Width: 512, Height: 512}
	controls := testControls(1)
	controls.RiverDensity = 0
	mesh := BuildMesh(cfg, controls)
	water := ClassifyWater(mesh, cfg, controls)
	elevation := BuildElevation(mesh, water, controls)
	rivers := TraceRivers(mesh, water, elevation, controls)
	assert.Empty(t, rivers.Traces)
}

func TestTraceRivers_Deterministic(t *testing.T) {
	_, _, _, r1 := buildRiverFixture(t, 2024)
	_, _, _, r2 := buildRiverFixture(t, 2024)
	require.Equal(t, len(r1.Traces), len(r2.Traces))
	for i := range r1.Traces {
		assert.Equal(t, r1.Traces[i].Edges, r2.Traces[i].Edges)
	}
	assert.Equal(t, r1.RiverEdgeMask, r2.RiverEdgeMask)
}

func TestTraceRivers_NoWaterProducesNoTraces(t *testing.T) {
	cfg := Config{Width: 256, Height: 256}
	controls := testControls(1)
	mesh := BuildMesh(cfg, controls)
	water := &WaterState{
		IsLand:       make([]bool, len(mesh.Faces)),
		LandDistance: make([]int32, len(mesh.Faces)),
		HasLand:      true,
		HasWater:     false,
	}
	for i := range water.IsLand {
		water.IsLand[i] = true
	}
	elevation := BuildElevation(mesh, water, controls)
	rivers := TraceRivers(mesh, water, elevation, controls)
	assert.Empty(t, rivers.Traces)
}
