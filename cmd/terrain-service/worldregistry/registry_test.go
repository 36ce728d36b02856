package worldregistry

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terraincore/internal/terrain"
)

func smallWorldInputs() (terrain.Config, terrain.Controls) {
	cfg, _ := terrain.NormalizeConfig(terrain.Config{Width: 256, Height: 256})
	controls, _ := terrain.Controls{
		Spacing:                  96,
		Seed:                     1,
		IntermediateSeed:         2,
		WaterLevel:               0,
		WaterRoughness:           40,
		WaterNoiseScale:          0.02,
		WaterNoiseStrength:       0.4,
		WaterNoiseOctaves:        3,
		WaterWarpScale:           0.05,
		WaterWarpStrength:        0.3,
		LandRelief:               0.6,
		RidgeStrength:            0.5,
		RidgeCount:               2,
		PlateauStrength:          0.3,
		RidgeDistribution:        0.5,
		RidgeSeparation:          0.5,
		RidgeContinuity:          0.5,
		RidgeContinuityThreshold: 0.5,
		OceanPeakClamp:           0.5,
		RidgeOceanClamp:          0.5,
		RidgeWidth:               0.3,
		RiverDensity:             1,
		RiverBranchChance:        0.2,
		RiverClimbChance:         0.1,
		ProvinceCount:            2,
		ProvinceSizeVariance:     0.3,
		ProvincePassageElevation: 28,
		ProvinceRiverPenalty:     20,
		IslandSizeMultiplier:     1,
		TimePerFaceSeconds:       1,
		LowlandThreshold:         10,
		ImpassableThreshold:      28,
		ElevationPower:           1.2,
		ElevationGainK:           1.5,
		RiverPenalty:             2,
	}.Normalize()
	return cfg, controls
}

// fakeSaver records every snapshot it's handed without touching a database,
// mirroring the teacher's in-memory fakes for its repository interfaces.
type fakeSaver struct {
	mu    sync.Mutex
	calls int
	last  terrain.Snapshot
	err   error
}

func (f *fakeSaver) Save(_ context.Context, _ uuid.UUID, snap terrain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = snap
	return f.err
}

// fakePublisher records every version bump it's handed instead of publishing
// to NATS/WebSocket collaborators.
type fakePublisher struct {
	mu       sync.Mutex
	versions []int64
	err      error
}

func (f *fakePublisher) PublishVersionBumped(_ context.Context, _ uuid.UUID, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions = append(f.versions, version)
	return f.err
}

func TestCreateWorld_RegistersAndPersists(t *testing.T) {
	saver := &fakeSaver{}
	pub := &fakePublisher{}
	r := New(saver, pub)

	cfg, controls := smallWorldInputs()
	w, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)

	assert.Equal(t, int64(1), w.TerrainVersion)
	assert.NotNil(t, w.Graph)
	assert.NotNil(t, w.PickIndex)
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, []int64{1}, pub.versions)

	got, err := r.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}

func TestGet_UnknownWorldErrors(t *testing.T) {
	r := New(nil, nil)
	_, err := r.Get(uuid.New())
	assert.Error(t, err)
}

func TestGet_ReturnsCopyNotSharedPointer(t *testing.T) {
	r := New(nil, nil)
	cfg, controls := smallWorldInputs()
	w, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)

	got, err := r.Get(w.ID)
	require.NoError(t, err)
	got.TerrainVersion = 999

	got2, err := r.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got2.TerrainVersion)
}

func TestQueueControls_MarksDirtyWithoutRebuilding(t *testing.T) {
	r := New(nil, nil)
	cfg, controls := smallWorldInputs()
	w, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)

	controls2 := controls
	controls2.Seed = 42
	require.NoError(t, r.QueueControls(w.ID, controls2))

	got, err := r.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TerrainVersion, "queueing controls must not rebuild inline")
}

func TestQueueControls_UnknownWorldErrors(t *testing.T) {
	r := New(nil, nil)
	_, controls := smallWorldInputs()
	assert.Error(t, r.QueueControls(uuid.New(), controls))
}

func TestSweep_RebuildsOnlyDirtyWorlds(t *testing.T) {
	saver := &fakeSaver{}
	pub := &fakePublisher{}
	r := New(saver, pub)

	cfg, controls := smallWorldInputs()
	clean, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)
	dirty, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)

	controls2 := controls
	controls2.Seed = 77
	require.NoError(t, r.QueueControls(dirty.ID, controls2))

	rebuilt, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dirty.ID}, rebuilt)

	gotClean, err := r.Get(clean.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotClean.TerrainVersion)

	gotDirty, err := r.Get(dirty.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gotDirty.TerrainVersion)
	assert.False(t, gotDirty.Dirty)
}

func TestForceRegenerate_BumpsVersionAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	r := New(nil, pub)

	cfg, controls := smallWorldInputs()
	w, err := r.CreateWorld(context.Background(), cfg, controls)
	require.NoError(t, err)

	got, err := r.ForceRegenerate(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TerrainVersion)
	assert.Equal(t, []int64{1, 2}, pub.versions)
}

func TestForceRegenerate_UnknownWorldErrors(t *testing.T) {
	r := New(nil, nil)
	_, err := r.ForceRegenerate(context.Background(), uuid.New())
	assert.Error(t, err)
}
