package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuitState(t *testing.T) {
	var q quitState
	code, quit := q.check(false)
	assert.False(t, quit)
	assert.Zero(t, code)

	code, quit = q.check(true)
	assert.True(t, quit, "closing the window quits")
	assert.Zero(t, code)

	q.post(3)
	q.post(7)
	code, quit = q.check(false)
	assert.True(t, quit)
	assert.Equal(t, 3, code, "first posted code wins")
}

func TestGfxWithoutRenderer(t *testing.T) {
	w := &Window{}
	_, err := w.Gfx()
	require.ErrorIs(t, err, ErrNoGfx)
	assert.False(t, w.Valid())

	var nw *Window
	assert.False(t, nw.Valid())
}
