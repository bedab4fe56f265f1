package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, 1, c.Graphics.SyncInterval)
	assert.Equal(t, "shaders/cube.vert.spv", c.Options().Shaders.CubeVertex)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hw3d.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
width = 640
title = "cubes"
show_elapsed = true

[graphics]
debug = false
sync_interval = 0
pixel_shader = "build/cube.frag.spv"

[log]
level = "debug"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, c.Window.Width)
	assert.Equal(t, 600, c.Window.Height, "unset keys keep their default")
	assert.Equal(t, "cubes", c.Window.Title)
	assert.True(t, c.Window.ShowElapsed)
	assert.False(t, c.Graphics.Debug)
	assert.True(t, c.Graphics.Depth)
	assert.Zero(t, c.Graphics.SyncInterval)
	assert.Equal(t, "debug", c.Log.Level)

	opts := c.Options()
	assert.Equal(t, "build/cube.frag.spv", opts.Shaders.CubePixel)
	assert.Equal(t, "shaders/cube.vert.spv", opts.Shaders.CubeVertex)
	assert.False(t, opts.Debug)
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		body string
		want string
	}{
		"unknown key":  {"[window]\nfullscreen = true\n", "fullscreen"},
		"syntax":       {"[window\nwidth = 1\n", "line "},
		"wrong type":   {"[window]\nwidth = \"wide\"\n", "int"},
		"invalid size": {"[window]\nwidth = 0\n", "invalid size 0x600"},
		"sync":         {"[graphics]\nsync_interval = 9\n", "sync_interval 9"},
		"level":        {"[log]\nlevel = \"loud\"\n", "invalid log level"},
		"shader":       {"[graphics]\nvertex_shader = \"\"\n", "vertex_shader is empty"},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hw3d.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateJoinsErrors(t *testing.T) {
	c := Default()
	c.Window.Height = -1
	c.Log.Level = "verbose"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window")
	assert.Contains(t, err.Error(), "log")
}

func TestApplyOverrides(t *testing.T) {
	c := Default()
	require.NoError(t, c.Apply(Overrides{LogLevel: "debug", LogDir: "/tmp/hw3d", Capture: true}))
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "/tmp/hw3d", c.Log.Dir)
	assert.True(t, c.Graphics.Capture)

	c = Default()
	require.NoError(t, c.Apply(Overrides{}))
	assert.Equal(t, Default(), c)

	err := c.Apply(Overrides{LogLevel: "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose: invalid log level")
}
