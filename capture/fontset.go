package capture

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
)

// FontResource supplies a font either by bytes or by path.
type FontResource struct {
	Bytes []byte
	Path  string
}

// FontSet caches loaded font families. Resolution order for a family name:
// injected resource, <fontDir>/<name>.ttf, system font lookup, then the
// sans-serif system fallback.
type FontSet struct {
	fontDir   string
	resources map[string]FontResource

	mu       sync.Mutex
	families map[string]*canvas.FontFamily
	fallback *canvas.FontFamily
}

// NewFontSet builds a font set rooted at fontDir with optional injected
// resources keyed by family name.
func NewFontSet(fontDir string, resources map[string]FontResource) *FontSet {
	return &FontSet{
		fontDir:   fontDir,
		resources: resources,
		families:  map[string]*canvas.FontFamily{},
	}
}

// Face returns a font face for the family/weight at the given size in
// canvas-pixel units.
func (s *FontSet) Face(family, weight string, sizePx float64, col color.Color) (*canvas.FontFace, error) {
	fam, err := s.family(family, weight)
	if err != nil {
		return nil, err
	}
	// canvas faces take points and convert them to canvas units at pt→mm
	// scale; our canvas units are pixels, so undo that conversion to make
	// one pixel equal one unit.
	return fam.Face(sizePx*pxToFacePt, col, parseFontStyle(weight), canvas.FontNormal), nil
}

const pxToFacePt = 1 / 0.352777

func (s *FontSet) family(name, weight string) (*canvas.FontFamily, error) {
	if name == "" {
		name = "sans-serif"
	}
	key := name + "|" + strings.ToLower(weight)
	style := parseFontStyle(weight)

	s.mu.Lock()
	defer s.mu.Unlock()
	if fam, ok := s.families[key]; ok {
		return fam, nil
	}

	fam := canvas.NewFontFamily(name)
	if err := s.loadInto(fam, name, style); err != nil {
		fb, fbErr := s.fallbackFamily(style)
		if fbErr != nil {
			return nil, fmt.Errorf("capture: loading font %s: %w", name, err)
		}
		s.families[key] = fb
		return fb, nil
	}
	s.families[key] = fam
	return fam, nil
}

func (s *FontSet) loadInto(fam *canvas.FontFamily, name string, style canvas.FontStyle) error {
	if res, ok := s.resources[name]; ok {
		data := res.Bytes
		if len(data) == 0 && res.Path != "" {
			var err error
			data, err = os.ReadFile(res.Path)
			if err != nil {
				return err
			}
		}
		if len(data) > 0 {
			return fam.LoadFont(data, 0, style)
		}
	}
	if s.fontDir != "" {
		path := filepath.Join(s.fontDir, name+".ttf")
		if data, err := os.ReadFile(path); err == nil {
			return fam.LoadFont(data, 0, style)
		}
	}
	return fam.LoadSystemFont(name, style)
}

func (s *FontSet) fallbackFamily(style canvas.FontStyle) (*canvas.FontFamily, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	fam := canvas.NewFontFamily("fallback")
	if err := fam.LoadSystemFont("sans-serif", style); err != nil {
		return nil, err
	}
	s.fallback = fam
	return fam, nil
}

// Ensure loads every named family up front so rasterization never waits on a
// font mid-draw. The capture pipeline calls this before drawing, the moral
// equivalent of waiting for web-font readiness.
func (s *FontSet) Ensure(families map[string]string) error {
	for name, weight := range families {
		if _, err := s.family(name, weight); err != nil {
			return err
		}
	}
	return nil
}

func parseFontStyle(weight string) canvas.FontStyle {
	w := strings.ToLower(weight)
	result := canvas.FontRegular
	switch {
	case strings.Contains(w, "black"):
		result = canvas.FontBlack
	case strings.Contains(w, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(w, "bold"):
		result = canvas.FontBold
	case strings.Contains(w, "semibold"), strings.Contains(w, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(w, "medium"):
		result = canvas.FontMedium
	case strings.Contains(w, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(w, "italic") || strings.Contains(w, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
