// Package fit shrinks text to the largest font size that fits a fixed
// rectangle. It is the sizing authority for every text field on a rendered
// page: preview, PNG, PDF and print all draw at the size chosen here, so the
// fit decision must be deterministic and idempotent.
package fit

import "math"

// Font identifies a typeface for measurement purposes.
type Font struct {
	Family string
	Weight string // "" / "normal" / "bold" etc.
}

// Metrics is the measured extent of rendered text.
type Metrics struct {
	Width  float64
	Height float64
}

// Measurer measures the rendered extent of text at a given size. For
// multiline text the measurer wraps to maxWidth and reports the wrapped
// block; for single-line text maxWidth is ignored and the natural line
// extent is returned.
type Measurer interface {
	Measure(text string, font Font, size float64, maxWidth float64, multiline bool) (Metrics, error)
}

// Options tune the shrink loop. Zero values select the defaults.
type Options struct {
	// MinSize is the floor below which text never shrinks. Default 6.
	MinSize float64
	// Step is the decrement applied per iteration. Default 0.5.
	Step float64
	// SafetyMargin is subtracted from the available box on both axes so text
	// shrinks slightly before true overflow; sub-pixel rounding differs
	// between the preview and the capture rasterization. Default 2.
	SafetyMargin float64
}

func (o Options) withDefaults() Options {
	if o.MinSize <= 0 {
		o.MinSize = 6
	}
	if o.Step <= 0 {
		o.Step = 0.5
	}
	if o.SafetyMargin < 0 {
		o.SafetyMargin = 0
	} else if o.SafetyMargin == 0 {
		o.SafetyMargin = 2
	}
	return o
}

// Fit returns the largest font size ≤ initial at which text fits the
// boxW×boxH rectangle: width only for single-line text (height is fixed by
// line-height), both axes for multiline. Text that already fits keeps its
// initial size; the engine never grows text. An empty box (zero width or
// height) yields the initial size unchanged, since no meaningful fit
// decision can be made there.
func Fit(m Measurer, text string, font Font, initial, boxW, boxH float64, multiline bool, opts Options) (float64, error) {
	if boxW <= 0 || boxH <= 0 || text == "" || initial <= 0 {
		return initial, nil
	}
	o := opts.withDefaults()
	if initial < o.MinSize {
		return initial, nil
	}

	availW := math.Max(boxW-o.SafetyMargin, 1)
	availH := math.Max(boxH-o.SafetyMargin, 1)

	size := initial
	// The iteration bound is derived from the provable range of the loop,
	// not an arbitrary ceiling: the size strictly decreases by Step until it
	// reaches the floor.
	maxIter := int((initial-o.MinSize)/o.Step) + 1
	for i := 0; i <= maxIter; i++ {
		got, err := m.Measure(text, font, size, availW, multiline)
		if err != nil {
			return initial, err
		}
		if fits(got, availW, availH, multiline) {
			return size, nil
		}
		if size-o.Step < o.MinSize {
			return o.MinSize, nil
		}
		size -= o.Step
	}
	return o.MinSize, nil
}

func fits(m Metrics, availW, availH float64, multiline bool) bool {
	if multiline {
		return m.Width <= availW && m.Height <= availH
	}
	return m.Width <= availW
}
