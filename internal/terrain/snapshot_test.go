package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_MarshalUnmarshalRoundTrip(t *testing.T) {
	controls, ok := testControls(1337), true
	_ = ok
	snap := Snapshot{
		SchemaVersion:  1,
		Controls:       controls,
		MapWidth:       512,
		MapHeight:      512,
		TerrainVersion: 3,
	}
	blob, err := snap.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestUnmarshalSnapshot_DefaultsSchemaVersion(t *testing.T) {
	got, err := UnmarshalSnapshot([]byte(`{"mapWidth":512,"mapHeight":512}`))
	require.NoError(t, err)
	assert.Equal(t, 1, got.SchemaVersion)
}

func TestUnmarshalSnapshot_IgnoresUnknownFields(t *testing.T) {
	got, err := UnmarshalSnapshot([]byte(`{"schemaVersion":1,"mapWidth":512,"mapHeight":512,"somethingNew":true}`))
	require.NoError(t, err)
	assert.Equal(t, 512, got.MapWidth)
}

func TestUnmarshalSnapshot_RejectsInvalidJSON(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte(`not json`))
	assert.Error(t, err)
}
