package graphics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/celer/hw3d/log"
	"github.com/fsnotify/fsnotify"
)

// ShaderPaths names the compiled shader binaries, relative to the working
// directory.
type ShaderPaths struct {
	CubeVertex     string
	CubePixel      string
	TriangleVertex string
	TrianglePixel  string
}

func DefaultShaderPaths() ShaderPaths {
	return ShaderPaths{
		CubeVertex:     "shaders/cube.vert.spv",
		CubePixel:      "shaders/cube.frag.spv",
		TriangleVertex: "shaders/triangle.vert.spv",
		TrianglePixel:  "shaders/triangle.frag.spv",
	}
}

func (p ShaderPaths) all() []string {
	return []string{p.CubeVertex, p.CubePixel, p.TriangleVertex, p.TrianglePixel}
}

// ShaderSet holds the shader blobs read from disk. Blobs may be reloaded
// while frames are being drawn.
type ShaderSet struct {
	paths ShaderPaths

	mu    sync.RWMutex
	blobs map[string][]byte
}

// LoadShaders reads every blob named by paths.
func LoadShaders(paths ShaderPaths) (*ShaderSet, error) {
	s := &ShaderSet{paths: paths, blobs: make(map[string][]byte)}
	for _, p := range paths.all() {
		if err := s.Reload(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ShaderSet) Paths() ShaderPaths {
	return s.paths
}

// Blob returns the bytecode read from path.
func (s *ShaderSet) Blob(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blobs[path]
}

// Reload rereads path. The previous blob stays in place when reading fails.
func (s *ShaderSet) Reload(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading shader: %w", err)
	}
	if len(b) == 0 || len(b)%4 != 0 {
		return fmt.Errorf("%s: shader bytecode length %d is not a positive multiple of 4", path, len(b))
	}
	s.mu.Lock()
	s.blobs[path] = b
	s.mu.Unlock()
	return nil
}

// Watch reloads blobs when their files change until ctx is done.
func (s *ShaderSet) Watch(ctx context.Context, lg *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	tracked := make(map[string]string)
	for _, p := range s.paths.all() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		tracked[abs] = p
		dir := filepath.Dir(abs)
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			p, ok := tracked[ev.Name]
			if !ok {
				continue
			}
			if err := s.Reload(p); err != nil {
				lg.Warnf("%s: shader reload failed: %v", p, err)
			} else {
				lg.Infof("%s: shader reloaded", p)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			lg.Warnf("shader watcher: %v", err)
		}
	}
}
