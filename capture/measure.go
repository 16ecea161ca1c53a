package capture

import (
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/inkwellhq/stencil/fit"
)

// TextMeasurer measures rendered text extents with the same font faces the
// rasterizer draws with, so the auto-fit decision and the captured output
// can never disagree.
type TextMeasurer struct {
	fonts *FontSet
}

// NewTextMeasurer builds a measurer over the given font set.
func NewTextMeasurer(fonts *FontSet) *TextMeasurer {
	return &TextMeasurer{fonts: fonts}
}

var _ fit.Measurer = (*TextMeasurer)(nil)

// Measure implements fit.Measurer. Single-line text reports its natural
// extent; multiline text is wrapped to maxWidth and reports the wrapped
// block.
func (m *TextMeasurer) Measure(text string, font fit.Font, size float64, maxWidth float64, multiline bool) (fit.Metrics, error) {
	face, err := m.fonts.Face(font.Family, font.Weight, size, canvas.Black)
	if err != nil {
		return fit.Metrics{}, err
	}
	lineHeight := face.Metrics().LineHeight

	var lines []string
	if multiline {
		lines = wrapText(face, text, maxWidth)
	} else {
		lines = strings.Split(text, "\n")
	}

	var width float64
	for _, line := range lines {
		if w := face.TextWidth(line); w > width {
			width = w
		}
	}
	return fit.Metrics{
		Width:  width,
		Height: float64(len(lines)) * lineHeight,
	}, nil
}

// wrapText greedily wraps text to the width limit, splitting at whitespace
// and falling back to in-word splits for tokens wider than a whole line.
// Explicit newlines are honored.
func wrapText(face *canvas.FontFace, text string, limit float64) []string {
	if limit <= 0 {
		return strings.Split(text, "\n")
	}

	var lines []string
	var builder strings.Builder
	current := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, "")
			}
			return
		}
		lines = append(lines, strings.TrimRight(builder.String(), " \t"))
		builder.Reset()
		current = 0
	}
	push := func(tok string) {
		builder.WriteString(tok)
		current += face.TextWidth(tok)
	}

	for _, tok := range tokenize(text) {
		if tok == "\n" {
			emit(true)
			continue
		}
		w := face.TextWidth(tok)
		if current > 0 && current+w > limit {
			emit(false)
			if strings.TrimSpace(tok) == "" {
				continue // drop the breaking whitespace
			}
		}
		if w <= limit {
			push(tok)
			continue
		}
		for _, chunk := range splitByWidth(face, tok, limit) {
			cw := face.TextWidth(chunk)
			if current > 0 && current+cw > limit {
				emit(false)
			}
			push(chunk)
		}
	}
	emit(len(lines) == 0)
	return lines
}

// tokenize splits text into runs of whitespace and non-whitespace, keeping
// newlines as their own tokens.
func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(face *canvas.FontFace, token string, limit float64) []string {
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
