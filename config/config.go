// Package config loads the harness settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/celer/hw3d/graphics"
	"github.com/celer/hw3d/log"
)

type Config struct {
	Window   Window   `toml:"window"`
	Graphics Graphics `toml:"graphics"`
	Log      Log      `toml:"log"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	// ShowElapsed puts the elapsed time in the title every frame.
	ShowElapsed bool `toml:"show_elapsed"`
}

type Graphics struct {
	Debug        bool `toml:"debug"`
	Depth        bool `toml:"depth"`
	SyncInterval int  `toml:"sync_interval"`
	Capture      bool `toml:"capture"`

	VertexShader         string `toml:"vertex_shader"`
	PixelShader          string `toml:"pixel_shader"`
	TriangleVertexShader string `toml:"triangle_vertex_shader"`
	TrianglePixelShader  string `toml:"triangle_pixel_shader"`
}

type Log struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"`
}

func Default() Config {
	def := graphics.DefaultOptions()
	return Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "hw3d",
		},
		Graphics: Graphics{
			Debug:                def.Debug,
			Depth:                def.Depth,
			SyncInterval:         def.SyncInterval,
			VertexShader:         def.Shaders.CubeVertex,
			PixelShader:          def.Shaders.CubePixel,
			TriangleVertexShader: def.Shaders.TriangleVertex,
			TrianglePixelShader:  def.Shaders.TrianglePixel,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := Decode(b, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, c.Validate()
}

// Decode decodes TOML into c, keeping the values of keys b does not set.
func Decode(b []byte, c *Config) error {
	d := toml.NewDecoder(bytes.NewReader(b))
	d.DisallowUnknownFields()
	if err := d.Decode(c); err != nil {
		var se *toml.StrictMissingError
		if errors.As(err, &se) {
			return fmt.Errorf("unknown keys:\n%s", se.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window: invalid size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Graphics.SyncInterval < 0 || c.Graphics.SyncInterval > 4 {
		errs = append(errs, fmt.Errorf("graphics: sync_interval %d out of range [0, 4]", c.Graphics.SyncInterval))
	}
	for _, s := range []struct{ key, path string }{
		{"vertex_shader", c.Graphics.VertexShader},
		{"pixel_shader", c.Graphics.PixelShader},
		{"triangle_vertex_shader", c.Graphics.TriangleVertexShader},
		{"triangle_pixel_shader", c.Graphics.TrianglePixelShader},
	} {
		if s.path == "" {
			errs = append(errs, fmt.Errorf("graphics: %s is empty", s.key))
		}
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

// Overrides are command line settings that take precedence over the file.
// Empty fields leave the loaded value alone.
type Overrides struct {
	LogLevel string
	LogDir   string
	Capture  bool
}

// Apply merges o into c and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogDir != "" {
		c.Log.Dir = o.LogDir
	}
	if o.Capture {
		c.Graphics.Capture = true
	}
	return c.Validate()
}

// Options returns the renderer options the configuration selects.
func (c Config) Options() graphics.Options {
	return graphics.Options{
		Debug:        c.Graphics.Debug,
		Depth:        c.Graphics.Depth,
		SyncInterval: c.Graphics.SyncInterval,
		Capture:      c.Graphics.Capture,
		Shaders: graphics.ShaderPaths{
			CubeVertex:     c.Graphics.VertexShader,
			CubePixel:      c.Graphics.PixelShader,
			TriangleVertex: c.Graphics.TriangleVertexShader,
			TrianglePixel:  c.Graphics.TrianglePixelShader,
		},
	}
}
