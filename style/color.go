// Package style parses author-supplied CSS color strings into concrete sRGB
// values. Templates are authored in a web editor and may carry modern color
// syntax (oklch, oklab, color(display-p3 ...)) that the raster backend does
// not understand; everything visually relevant must be normalized to plain
// numeric sRGB before rasterization.
package style

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Style holds the raw color declarations of one scene box. Values are CSS
// color strings in whatever syntax the template author used; they are parsed
// only by the sanitize pass.
type Style struct {
	Color      string `json:"color,omitempty"`      // text / stroke color
	Background string `json:"background,omitempty"` // fill color
	Border     string `json:"border,omitempty"`     // border edge color
}

// White is the default page fill.
var White = color.NRGBA{255, 255, 255, 255}

var named = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor converts a CSS color string into an 8-bit sRGB color. Supported
// syntaxes: named colors, #rgb/#rgba/#rrggbb/#rrggbbaa, rgb()/rgba(),
// hsl()/hsla(), oklch(), oklab(), color(srgb ...), color(display-p3 ...).
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return color.NRGBA{}, fmt.Errorf("style: empty color value")
	}
	if c, ok := named[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}
	fn, args, err := splitFunc(v)
	if err != nil {
		return color.NRGBA{}, err
	}
	switch fn {
	case "rgb", "rgba":
		return parseRGB(args)
	case "hsl", "hsla":
		return parseHSL(args)
	case "oklch":
		return parseOKLCH(args)
	case "oklab":
		return parseOKLab(args)
	case "color":
		return parseColorFunc(args)
	default:
		return color.NRGBA{}, fmt.Errorf("style: unsupported color syntax %q", s)
	}
}

// Normalize rewrites any supported color string into the broadly supported
// rgb()/rgba() numeric form. The output parses back to the identical value.
func Normalize(s string) (string, error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	return FormatRGB(c), nil
}

// FormatRGB renders c as an rgb() or rgba() string.
func FormatRGB(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	a := strconv.FormatFloat(float64(c.A)/255, 'f', -1, 64)
	// keep at most three decimals so the round trip stays stable
	if f, err := strconv.ParseFloat(a, 64); err == nil {
		a = strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, a)
}

func parseHex(v string) (color.NRGBA, error) {
	h := strings.TrimPrefix(v, "#")
	switch len(h) {
	case 3, 4:
		var expand strings.Builder
		for _, r := range h {
			expand.WriteRune(r)
			expand.WriteRune(r)
		}
		h = expand.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("style: bad hex color %q", v)
	}
	parse := func(s string) (uint8, error) {
		n, err := strconv.ParseUint(s, 16, 8)
		return uint8(n), err
	}
	r, err1 := parse(h[0:2])
	g, err2 := parse(h[2:4])
	b, err3 := parse(h[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return color.NRGBA{}, fmt.Errorf("style: bad hex color %q", v)
	}
	a := uint8(255)
	if len(h) == 8 {
		var err error
		a, err = parse(h[6:8])
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("style: bad hex color %q", v)
		}
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// splitFunc separates "fn(a b c / d)" into its name and argument tokens,
// accepting both comma and whitespace separators.
func splitFunc(v string) (string, []string, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return "", nil, fmt.Errorf("style: unsupported color syntax %q", v)
	}
	name := strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]
	body = strings.ReplaceAll(body, ",", " ")
	body = strings.ReplaceAll(body, "/", " / ")
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("style: empty color arguments in %q", v)
	}
	return name, fields, nil
}

// splitAlpha strips a trailing "/ alpha" pair from args.
func splitAlpha(args []string) ([]string, float64, error) {
	alpha := 1.0
	for i, a := range args {
		if a == "/" {
			if i != len(args)-2 {
				return nil, 0, fmt.Errorf("style: misplaced alpha separator")
			}
			v, err := parseNumberOrPercent(args[i+1], 1)
			if err != nil {
				return nil, 0, err
			}
			return args[:i], clamp01(v), nil
		}
	}
	return args, alpha, nil
}

// parseNumberOrPercent parses "40%" relative to scale, or a plain number.
func parseNumberOrPercent(s string, scale float64) (float64, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("style: bad percentage %q", s)
		}
		return f / 100 * scale, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("style: bad number %q", s)
	}
	return f, nil
}

func parseRGB(args []string) (color.NRGBA, error) {
	args, alpha, err := splitAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(args) == 4 { // legacy rgba(r, g, b, a)
		a, err := parseNumberOrPercent(args[3], 1)
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha = clamp01(a)
		args = args[:3]
	}
	if len(args) != 3 {
		return color.NRGBA{}, fmt.Errorf("style: rgb() needs 3 channels, got %d", len(args))
	}
	var ch [3]uint8
	for i, a := range args {
		v, err := parseNumberOrPercent(a, 255)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = clamp8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: clamp8(alpha * 255)}, nil
}

func parseHSL(args []string) (color.NRGBA, error) {
	args, alpha, err := splitAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(args) == 4 {
		a, err := parseNumberOrPercent(args[3], 1)
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha = clamp01(a)
		args = args[:3]
	}
	if len(args) != 3 {
		return color.NRGBA{}, fmt.Errorf("style: hsl() needs 3 channels, got %d", len(args))
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("style: bad hue %q", args[0])
	}
	s, err := parseNumberOrPercent(args[1], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	l, err := parseNumberOrPercent(args[2], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := hslToRGB(math.Mod(math.Mod(h, 360)+360, 360), clamp01(s), clamp01(l))
	return color.NRGBA{R: clamp8(r * 255), G: clamp8(g * 255), B: clamp8(b * 255), A: clamp8(alpha * 255)}, nil
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func parseOKLCH(args []string) (color.NRGBA, error) {
	args, alpha, err := splitAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(args) != 3 {
		return color.NRGBA{}, fmt.Errorf("style: oklch() needs 3 channels, got %d", len(args))
	}
	l, err := parseNumberOrPercent(args[0], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	c, err := parseNumberOrPercent(args[1], 0.4)
	if err != nil {
		return color.NRGBA{}, err
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[2], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("style: bad hue %q", args[2])
	}
	rad := h * math.Pi / 180
	return oklabToNRGBA(l, c*math.Cos(rad), c*math.Sin(rad), alpha), nil
}

func parseOKLab(args []string) (color.NRGBA, error) {
	args, alpha, err := splitAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(args) != 3 {
		return color.NRGBA{}, fmt.Errorf("style: oklab() needs 3 channels, got %d", len(args))
	}
	l, err := parseNumberOrPercent(args[0], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	a, err := parseNumberOrPercent(args[1], 0.4)
	if err != nil {
		return color.NRGBA{}, err
	}
	b, err := parseNumberOrPercent(args[2], 0.4)
	if err != nil {
		return color.NRGBA{}, err
	}
	return oklabToNRGBA(l, a, b, alpha), nil
}

// oklabToNRGBA converts OKLab coordinates to gamma-encoded sRGB, clamping
// out-of-gamut channels.
func oklabToNRGBA(l, a, b, alpha float64) color.NRGBA {
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b
	l3 := l_ * l_ * l_
	m3 := m_ * m_ * m_
	s3 := s_ * s_ * s_
	r := 4.0767416621*l3 - 3.3077115913*m3 + 0.2309699292*s3
	g := -1.2684380046*l3 + 2.6097574011*m3 - 0.3413193965*s3
	bb := -0.0041960863*l3 - 0.7034186147*m3 + 1.7076147010*s3
	return color.NRGBA{
		R: clamp8(srgbEncode(r) * 255),
		G: clamp8(srgbEncode(g) * 255),
		B: clamp8(srgbEncode(bb) * 255),
		A: clamp8(clamp01(alpha) * 255),
	}
}

func parseColorFunc(args []string) (color.NRGBA, error) {
	if len(args) < 4 {
		return color.NRGBA{}, fmt.Errorf("style: color() needs a color space and 3 channels")
	}
	space := args[0]
	args, alpha, err := splitAlpha(args[1:])
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(args) != 3 {
		return color.NRGBA{}, fmt.Errorf("style: color(%s ...) needs 3 channels, got %d", space, len(args))
	}
	var ch [3]float64
	for i, a := range args {
		v, err := parseNumberOrPercent(a, 1)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = v
	}
	switch space {
	case "srgb":
		return color.NRGBA{
			R: clamp8(clamp01(ch[0]) * 255),
			G: clamp8(clamp01(ch[1]) * 255),
			B: clamp8(clamp01(ch[2]) * 255),
			A: clamp8(clamp01(alpha) * 255),
		}, nil
	case "srgb-linear":
		return color.NRGBA{
			R: clamp8(srgbEncode(ch[0]) * 255),
			G: clamp8(srgbEncode(ch[1]) * 255),
			B: clamp8(srgbEncode(ch[2]) * 255),
			A: clamp8(clamp01(alpha) * 255),
		}, nil
	case "display-p3":
		r, g, b := p3ToSRGB(srgbDecode(ch[0]), srgbDecode(ch[1]), srgbDecode(ch[2]))
		return color.NRGBA{
			R: clamp8(srgbEncode(r) * 255),
			G: clamp8(srgbEncode(g) * 255),
			B: clamp8(srgbEncode(b) * 255),
			A: clamp8(clamp01(alpha) * 255),
		}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("style: unsupported color space %q", space)
	}
}

// p3ToSRGB maps linear Display-P3 channels onto linear sRGB through XYZ(D65).
func p3ToSRGB(r, g, b float64) (float64, float64, float64) {
	x := 0.4865709*r + 0.2656677*g + 0.1982173*b
	y := 0.2289746*r + 0.6917385*g + 0.0792869*b
	z := 0.0000000*r + 0.0451134*g + 1.0439444*b
	sr := 3.2404542*x - 1.5371385*y - 0.4985314*z
	sg := -0.9692660*x + 1.8760108*y + 0.0415560*z
	sb := 0.0556434*x - 0.2040259*y + 1.0572252*z
	return sr, sg, sb
}

func srgbEncode(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func srgbDecode(v float64) float64 {
	v = clamp01(v)
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
