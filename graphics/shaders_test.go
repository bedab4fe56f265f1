package graphics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shaderDir(t *testing.T) ShaderPaths {
	t.Helper()
	dir := t.TempDir()
	p := ShaderPaths{
		CubeVertex:     filepath.Join(dir, "cube.vert.spv"),
		CubePixel:      filepath.Join(dir, "cube.frag.spv"),
		TriangleVertex: filepath.Join(dir, "triangle.vert.spv"),
		TrianglePixel:  filepath.Join(dir, "triangle.frag.spv"),
	}
	for i, f := range p.all() {
		require.NoError(t, os.WriteFile(f, []byte{byte(i), 0, 0, 0}, 0o644))
	}
	return p
}

func TestLoadShaders(t *testing.T) {
	p := shaderDir(t)
	s, err := LoadShaders(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, s.Blob(p.CubePixel))
	assert.Equal(t, p, s.Paths())
	assert.Nil(t, s.Blob("unknown"))
}

func TestReloadRejectsBadBytecode(t *testing.T) {
	p := shaderDir(t)
	s, err := LoadShaders(p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p.CubeVertex, []byte{1, 2, 3}, 0o644))
	assert.Error(t, s.Reload(p.CubeVertex))
	assert.Equal(t, []byte{0, 0, 0, 0}, s.Blob(p.CubeVertex), "previous blob is kept")

	require.NoError(t, os.WriteFile(p.CubeVertex, nil, 0o644))
	assert.Error(t, s.Reload(p.CubeVertex))
}

func TestWatchReloadsChangedShader(t *testing.T) {
	p := shaderDir(t)
	s, err := LoadShaders(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, nil) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	want := []byte{9, 9, 9, 9, 8, 8, 8, 8}
	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		// Rewrite until the watcher is up and has seen a write.
		require.NoError(c, os.WriteFile(p.TrianglePixel, want, 0o644))
		assert.Equal(c, want, s.Blob(p.TrianglePixel))
	}, 5*time.Second, 50*time.Millisecond)
}
