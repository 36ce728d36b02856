package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeConfig_RejectsOutOfRange(t *testing.T) {
	_, ok := NormalizeConfig(Config{Width: 100, Height: 512})
	assert.False(t, ok)
	_, ok = NormalizeConfig(Config{Width: 5000, Height: 512})
	assert.False(t, ok)
	_, ok = NormalizeConfig(Config{Width: 512, Height: 512})
	assert.True(t, ok)
}

// TestControls_Normalize_ImpassableForcedAboveLowland covers end-to-end
// scenario (6): {impassableThreshold: 5, lowlandThreshold: 10} becomes
// {lowlandThreshold: 10, impassableThreshold: 11}.
func TestControls_Normalize_ImpassableForcedAboveLowland(t *testing.T) {
	c := Controls{LowlandThreshold: 10, ImpassableThreshold: 5, Spacing: 64}
	n, ok := c.Normalize()
	assert.True(t, ok)
	assert.Equal(t, 10, n.LowlandThreshold)
	assert.Equal(t, 11, n.ImpassableThreshold)
}

func TestControls_Normalize_ClampsOutOfRangeFields(t *testing.T) {
	c := Controls{
		Spacing:             1000,
		WaterLevel:          999,
		WaterNoiseOctaves:   40,
		RidgeCount:          40,
		ProvinceCount:       90,
		LowlandThreshold:    1,
		ImpassableThreshold: 2,
	}
	n, ok := c.Normalize()
	assert.True(t, ok)
	assert.Equal(t, 128.0, n.Spacing)
	assert.Equal(t, 40.0, n.WaterLevel)
	assert.Equal(t, 6, n.WaterNoiseOctaves)
	assert.Equal(t, 10, n.RidgeCount)
	assert.Equal(t, 32, n.ProvinceCount)
}

func TestControls_Normalize_DefaultsSchemaVersion(t *testing.T) {
	n, ok := Controls{Spacing: 64, LowlandThreshold: 1, ImpassableThreshold: 2}.Normalize()
	assert.True(t, ok)
	assert.Equal(t, 1, n.SchemaVersion)
}

func TestEdge_OtherFace(t *testing.T) {
	e := Edge{FaceA: 3, FaceB: 7}
	assert.Equal(t, FaceId(7), e.OtherFace(3))
	assert.Equal(t, FaceId(3), e.OtherFace(7))
	assert.Equal(t, NoFace, e.OtherFace(99))
}

func TestCache_FaceCenterAndProvinceOf(t *testing.T) {
	var c *Cache
	_, ok := c.FaceCenter(0)
	assert.False(t, ok)
	assert.Equal(t, NoProvince, c.ProvinceOf(0))

	cache := &Cache{
		Mesh:      &MeshGraph{Faces: []Face{{Index: 0, Point: Vec2{X: 1, Y: 2}}}},
		Provinces: &ProvinceGraph{ProvinceByFace: []ProvinceId{5}},
	}
	p, ok := cache.FaceCenter(0)
	assert.True(t, ok)
	assert.Equal(t, Vec2{X: 1, Y: 2}, p)
	assert.Equal(t, ProvinceId(5), cache.ProvinceOf(0))
	assert.Equal(t, NoProvince, cache.ProvinceOf(99))
}
