// hw3d opens a window and draws two spinning cubes over a pulsing
// background until the window is closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"

	"github.com/celer/hw3d/app"
	"github.com/celer/hw3d/config"
	"github.com/celer/hw3d/graphics"
	"github.com/celer/hw3d/log"
	"github.com/celer/hw3d/vkg"
	"github.com/celer/hw3d/window"
)

var (
	configFile   = flag.String("config", "", "TOML configuration file")
	logLevel     = flag.String("loglevel", "", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
	captureFile  = flag.String("capture", "", "write the last presented frame to this PNG file")
	maxFrames    = flag.Int("frames", 0, "exit after this many frames")
	watchShaders = flag.Bool("watch-shaders", false, "reload shader binaries when they change on disk")
)

func init() {
	// GLFW must be called from the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hw3d: %v\n", err)
		return 1
	}
	err = cfg.Apply(config.Overrides{
		LogLevel: *logLevel,
		LogDir:   *logDir,
		Capture:  *captureFile != "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hw3d: %v\n", err)
		return 1
	}

	lg := log.New(cfg.Log.Level, cfg.Log.Dir)
	defer lg.Close()
	code, err := start(cfg, lg)
	if err != nil {
		lg.Error("fatal", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	lg.Info("exiting", slog.Int("code", code))
	return code
}

func start(cfg config.Config, lg *log.Logger) (int, error) {
	if err := window.Init(lg); err != nil {
		return 1, err
	}
	defer window.Terminate()

	wnd, err := window.New(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, lg)
	if err != nil {
		return 1, err
	}
	defer wnd.Destroy()

	drv := vkg.NewDriver(window.VulkanProcAddr(), cfg.Window.Title, lg)
	g, err := graphics.New(drv, wnd, cfg.Options(), lg)
	if err != nil {
		return 1, err
	}
	wnd.Attach(g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *watchShaders {
		go func() {
			if err := g.Shaders().Watch(ctx, lg); err != nil {
				lg.Warn("shader watcher stopped", slog.Any("error", err))
			}
		}()
	}

	a := app.New(wnd, g, lg,
		app.WithElapsedTitle(cfg.Window.ShowElapsed),
		app.WithMaxFrames(*maxFrames))
	code, err := a.Go(ctx)
	lg.Info("loop finished", slog.Int("frames", a.Frames()), slog.Any("stats", g.Stats()))
	if err != nil {
		if errors.Is(err, graphics.ErrDeviceRemoved) {
			lg.Error("graphics device removed", slog.Any("error", err))
		}
		return 1, err
	}

	if *captureFile != "" {
		if err := writeCapture(g, *captureFile); err != nil {
			return 1, err
		}
		lg.Info("captured frame", slog.String("file", *captureFile))
	}
	return code, nil
}

func writeCapture(g *graphics.Graphics, path string) error {
	img, err := g.Capture()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
