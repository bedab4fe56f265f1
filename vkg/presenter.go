package vkg

import (
	"errors"
	"image"

	"github.com/celer/hw3d/graphics"
)

var (
	// ErrCaptureDisabled is returned by Capture on a swap chain created
	// without Capture set.
	ErrCaptureDisabled = errors.New("vkg: swap chain created without capture")
	// ErrNoFrame is returned by Capture before the first present.
	ErrNoFrame = errors.New("vkg: no frame presented yet")
)

type swapChain struct {
	r        *renderer
	released bool
}

func (s *swapChain) Desc() graphics.SwapChainDesc {
	return s.r.desc
}

// Present submits the frame and waits for the GPU to finish it. Errors
// recorded by the context since the last present are returned here.
func (s *swapChain) Present(syncInterval int) error {
	return s.r.present(syncInterval)
}

func (s *swapChain) Capture() (*image.RGBA, error) {
	if !s.r.desc.Capture {
		return nil, ErrCaptureDisabled
	}
	if s.r.captured == nil {
		return nil, ErrNoFrame
	}
	img := image.NewRGBA(s.r.captured.Rect)
	copy(img.Pix, s.r.captured.Pix)
	return img, nil
}

func (s *swapChain) Release() {
	if s.released {
		return
	}
	s.released = true
	s.r.unref()
}
