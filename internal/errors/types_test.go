package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerrainError_Error(t *testing.T) {
	t.Run("without underlying error", func(t *testing.T) {
		e := &TerrainError{Code: "X", Message: "bad thing"}
		assert.Equal(t, "bad thing", e.Error())
	})

	t.Run("with underlying error", func(t *testing.T) {
		e := &TerrainError{Code: "X", Message: "bad thing", Err: stderrors.New("root cause")}
		assert.Equal(t, "bad thing: root cause", e.Error())
	})
}

func TestWithDetail(t *testing.T) {
	e := WithDetail(ErrInvalidConfig, "width=10")
	assert.Equal(t, ErrInvalidConfig.Code, e.Code)
	assert.Contains(t, e.Message, "width=10")
}

func TestBug(t *testing.T) {
	b := Bug("mesh-face-lt-3-vertices", "face 12 has 2 vertices after clip")
	assert.Equal(t, "mesh-face-lt-3-vertices", b.ID)
	assert.Contains(t, b.Error(), "mesh-face-lt-3-vertices")
}

func TestErrorsAsTerrainError(t *testing.T) {
	var target *TerrainError
	assert.True(t, stderrors.As(error(ErrInvalidControls), &target))
}
