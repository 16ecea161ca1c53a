// Package preview scales a rendered page to fit an arbitrary viewport for
// on-screen display. The transform is purely cosmetic: it is applied to a
// display copy of the rasterized page, never to the page itself, so the
// capture pipeline always sees the native pixel dimensions.
package preview

import (
	"context"
	"image"
	"math"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/inkwellhq/stencil/scene"
)

// Mode selects how the scale factor is computed.
type Mode int

const (
	// Contain fits both axes: min(availW/W, availH/H).
	Contain Mode = iota
	// FitWidth fits the width only; the viewport scrolls vertically.
	FitWidth
)

// Viewport is the available display area in CSS-equivalent pixels. Both
// window resizes and container-only resizes (e.g. a sidebar collapsing) are
// delivered as Viewport updates.
type Viewport struct {
	W float64
	H float64
}

// Rasterizer produces the native raster of a page; the preview down-scales
// that raster for display. Satisfied by the capture pipeline's rasterizer.
type Rasterizer interface {
	Rasterize(ctx context.Context, p *scene.Page, scale float64) (image.Image, error)
}

// Options bound the computed scale factor.
type Options struct {
	Mode     Mode
	MinScale float64 // floor; default 0.10
	MaxScale float64 // ceiling; default 1.0
}

// Scaler wraps one rendered page for display. It never mutates the page.
type Scaler struct {
	page *scene.Page
	opts Options

	mu       sync.Mutex
	scale    float64
	onChange func(float64)
}

// NewScaler wraps page with the given options.
func NewScaler(page *scene.Page, opts Options) *Scaler {
	if opts.MinScale <= 0 {
		opts.MinScale = 0.10
	}
	if opts.MaxScale <= 0 {
		opts.MaxScale = 1.0
	}
	return &Scaler{page: page, opts: opts, scale: 1}
}

// OnChange registers a callback invoked whenever the scale factor changes.
func (s *Scaler) OnChange(fn func(scale float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SetViewport recomputes the scale factor for the available area and returns
// it. The result is clamped to [MinScale, MaxScale].
func (s *Scaler) SetViewport(v Viewport) float64 {
	factor := s.compute(v)
	s.mu.Lock()
	changed := factor != s.scale
	s.scale = factor
	fn := s.onChange
	s.mu.Unlock()
	if changed && fn != nil {
		fn(factor)
	}
	return factor
}

func (s *Scaler) compute(v Viewport) float64 {
	if s.page == nil || s.page.Width <= 0 || s.page.Height <= 0 || v.W <= 0 {
		return 1
	}
	factor := v.W / s.page.Width
	if s.opts.Mode == Contain && v.H > 0 {
		factor = math.Min(factor, v.H/s.page.Height)
	}
	if factor < s.opts.MinScale {
		factor = s.opts.MinScale
	}
	if factor > s.opts.MaxScale {
		factor = s.opts.MaxScale
	}
	return factor
}

// Scale returns the current display scale factor.
func (s *Scaler) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Page returns the wrapped native-size page. Capture callers must locate the
// page through the registry, not through the scaler; this accessor exists for
// the view that mounts the preview.
func (s *Scaler) Page() *scene.Page { return s.page }

// DisplaySize returns the scaled display dimensions in whole pixels, or
// zeros when no page is mounted.
func (s *Scaler) DisplaySize() (int, int) {
	if s.page == nil {
		return 0, 0
	}
	f := s.Scale()
	return int(math.Round(s.page.Width * f)), int(math.Round(s.page.Height * f))
}

// Watch applies viewport updates from ch until ctx is done or ch closes.
// Window- and container-resize producers share the channel.
func (s *Scaler) Watch(ctx context.Context, ch <-chan Viewport) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				s.SetViewport(v)
			}
		}
	}()
}

// Preview rasterizes the page at native size and resizes the raster to the
// current display dimensions. Only this display copy is scaled; the page and
// its native raster stay untouched for export.
func (s *Scaler) Preview(ctx context.Context, r Rasterizer) (image.Image, error) {
	native, err := r.Rasterize(ctx, s.page, 1)
	if err != nil {
		return nil, err
	}
	w, h := s.DisplaySize()
	if w <= 0 || h <= 0 {
		return native, nil
	}
	return imaging.Resize(native, w, h, imaging.Lanczos), nil
}
