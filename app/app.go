// Package app runs the message loop: it pumps window messages and draws a
// frame whenever no quit has been posted.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/celer/hw3d/log"
	"github.com/chewxy/math32"
)

// MessagePump is the window side of the loop.
type MessagePump interface {
	// ProcessMessages handles pending messages without blocking and
	// reports whether a quit was posted, with its exit code.
	ProcessMessages() (code int, quit bool)
	SetTitle(title string)
}

// Renderer is the part of graphics.Graphics a frame uses.
type Renderer interface {
	ClearBuffer(r, g, b float32)
	DrawTestCube(angle, x, y, z float32) error
	EndFrame() error
}

type App struct {
	wnd MessagePump
	gfx Renderer
	lg  *log.Logger

	timer       *Timer
	showElapsed bool
	maxFrames   int
	frames      int
}

type Option func(*App)

// WithClock drives the animation from now instead of the wall clock.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.timer = NewTimer(now) }
}

// WithElapsedTitle shows the elapsed time in the window title.
func WithElapsedTitle(on bool) Option {
	return func(a *App) { a.showElapsed = on }
}

// WithMaxFrames stops the loop with exit code 0 after n frames. Zero runs
// until a quit is posted.
func WithMaxFrames(n int) Option {
	return func(a *App) { a.maxFrames = n }
}

func New(wnd MessagePump, gfx Renderer, lg *log.Logger, opts ...Option) *App {
	a := &App{wnd: wnd, gfx: gfx, lg: lg}
	for _, opt := range opts {
		opt(a)
	}
	if a.timer == nil {
		a.timer = NewTimer(nil)
	}
	return a
}

// Go runs the loop until a quit is posted, returning its exit code. A
// frame error ends the loop and is returned. Cancelling ctx ends it with
// code 0.
func (a *App) Go(ctx context.Context) (int, error) {
	for {
		if code, quit := a.wnd.ProcessMessages(); quit {
			a.lg.Info("quit posted", slog.Int("code", code), slog.Int("frames", a.frames))
			return code, nil
		}
		select {
		case <-ctx.Done():
			a.lg.Info("loop cancelled", slog.Int("frames", a.frames))
			return 0, nil
		default:
		}
		if a.maxFrames > 0 && a.frames >= a.maxFrames {
			return 0, nil
		}
		if err := a.DoFrame(); err != nil {
			return 0, fmt.Errorf("frame %d: %w", a.frames, err)
		}
	}
}

// DoFrame clears to a colour oscillating with time and draws two cubes.
func (a *App) DoFrame() error {
	t := a.timer.Peek()
	c := math32.Sin(t)/2 + 0.5
	a.gfx.ClearBuffer(c, c, 1)
	if err := a.gfx.DrawTestCube(t, 0, 0, 7); err != nil {
		return err
	}
	if err := a.gfx.DrawTestCube(t, 1, 1, 4); err != nil {
		return err
	}
	if a.showElapsed {
		a.wnd.SetTitle(fmt.Sprintf("Time elapsed: %.1fs", t))
	}
	if err := a.gfx.EndFrame(); err != nil {
		return err
	}
	a.frames++
	return nil
}

// Frames returns the number of frames presented so far.
func (a *App) Frames() int {
	return a.frames
}
