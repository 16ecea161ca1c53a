package capture

import (
	"fmt"

	"github.com/inkwellhq/stencil/scene"
	"github.com/inkwellhq/stencil/style"
)

// Sanitize returns an isolated deep copy of the page with every visually
// relevant color rewritten to the numeric rgb()/rgba() form the raster
// backend understands. Template authors may use modern color syntax
// (oklch, display-p3, ...) that would otherwise mis-render silently.
//
// The clone strategy means the live page is never touched: there is no
// restore step to get wrong, no mutation window visible on screen, and no
// shared mutable state between concurrent export calls.
func Sanitize(p *scene.Page) (*scene.Page, error) {
	if p == nil {
		return nil, fmt.Errorf("capture: nil page")
	}
	clone := p.Clone()

	if err := normalizeStyle(&clone.Style); err != nil {
		return nil, fmt.Errorf("capture: page style: %w", err)
	}
	for i := range clone.Texts {
		if err := normalizeStyle(&clone.Texts[i].Style); err != nil {
			return nil, fmt.Errorf("capture: field %s: %w", clone.Texts[i].FieldID, err)
		}
	}
	for i := range clone.Tables {
		t := &clone.Tables[i]
		if err := normalizeStyle(&t.Style); err != nil {
			return nil, fmt.Errorf("capture: field %s: %w", t.FieldID, err)
		}
		if err := normalizeStyle(&t.HeaderStyle); err != nil {
			return nil, fmt.Errorf("capture: field %s header: %w", t.FieldID, err)
		}
	}
	return clone, nil
}

func normalizeStyle(s *style.Style) error {
	for _, field := range []*string{&s.Color, &s.Background, &s.Border} {
		if *field == "" {
			continue
		}
		norm, err := style.Normalize(*field)
		if err != nil {
			return err
		}
		*field = norm
	}
	return nil
}
