package capture

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/inkwellhq/stencil/assets"
	"github.com/inkwellhq/stencil/scene"
	"github.com/inkwellhq/stencil/style"
)

const tableBorderWidth = 1.0

// CanvasRasterizer draws a sanitized page onto a tdewolff/canvas surface and
// rasterizes it at the requested scale. Canvas units are pixels throughout, so
// a scale of 1 yields a bitmap at the page's native dimensions and higher
// scales supersample.
type CanvasRasterizer struct {
	fonts  *FontSet
	assets *assets.Loader
}

func NewCanvasRasterizer(fonts *FontSet, loader *assets.Loader) *CanvasRasterizer {
	return &CanvasRasterizer{fonts: fonts, assets: loader}
}

// Rasterize renders the page into an RGBA bitmap of size
// (page.Width*scale, page.Height*scale).
func (r *CanvasRasterizer) Rasterize(ctx context.Context, p *scene.Page, scale float64) (image.Image, error) {
	if p == nil {
		return nil, fmt.Errorf("capture: nil page")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("capture: page %s has no area", p.ID)
	}
	if scale <= 0 {
		scale = 1
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cv := canvas.New(p.Width, p.Height)
	cc := canvas.NewContext(cv)
	cc.SetCoordSystem(canvas.CartesianIV) // keep the scene's top-left origin

	if err := r.drawBackground(cc, p); err != nil {
		return nil, err
	}
	for i := range p.Tables {
		if err := r.drawTable(cc, &p.Tables[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Texts {
		if err := r.drawText(cc, &p.Texts[i]); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// DPMM because one canvas unit is one pixel here, not a millimetre.
	return rasterizer.Draw(cv, canvas.DPMM(scale), canvas.DefaultColorSpace), nil
}

func (r *CanvasRasterizer) drawBackground(cc *canvas.Context, p *scene.Page) error {
	fill := style.White
	if p.Style.Background != "" {
		c, err := style.ParseColor(p.Style.Background)
		if err != nil {
			return fmt.Errorf("capture: page background: %w", err)
		}
		fill = c
	}
	cc.SetFillColor(fill)
	cc.SetStrokeColor(canvas.Transparent)
	cc.DrawPath(0, 0, canvas.Rectangle(p.Width, p.Height))

	if p.Background == nil || p.Background.Src == "" {
		return nil
	}
	img := r.assets.Fitted(p.Background.Src, int(p.Background.W), int(p.Background.H))
	if img == nil {
		// A background that failed to load degrades to the plain fill.
		return nil
	}
	cc.DrawImage(p.Background.X, p.Background.Y, img, canvas.DPMM(1))
	return nil
}

func (r *CanvasRasterizer) drawText(cc *canvas.Context, tb *scene.TextBox) error {
	if tb.Content == "" {
		return nil
	}
	col, err := style.ParseColor(textColor(tb.Style))
	if err != nil {
		return fmt.Errorf("capture: field %s color: %w", tb.FieldID, err)
	}
	face, err := r.fonts.Face(tb.FontFamily, tb.FontWeight, tb.FontSize, col)
	if err != nil {
		return fmt.Errorf("capture: field %s: %w", tb.FieldID, err)
	}

	var lines []string
	if tb.Multiline {
		lines = wrapText(face, tb.Content, tb.W)
	} else {
		lines = strings.Split(tb.Content, "\n")
	}
	if len(lines) == 0 {
		return nil
	}

	textAlign, anchorX := resolveAlign(tb.Align, tb.X, tb.W)
	metrics := face.Metrics()
	lineHeight := metrics.LineHeight

	cursorY := tb.Y
	if !tb.Multiline && len(lines) == 1 {
		// Single-line fields center vertically inside their box.
		cursorY = tb.Y + (tb.H-(metrics.Ascent+metrics.Descent))/2
		if cursorY < tb.Y {
			cursorY = tb.Y
		}
	}
	for _, line := range lines {
		if line != "" {
			tl := canvas.NewTextLine(face, line, textAlign)
			cc.DrawText(anchorX, cursorY+metrics.Ascent, tl)
		}
		cursorY += lineHeight
	}
	return nil
}

func (r *CanvasRasterizer) drawTable(cc *canvas.Context, t *scene.TableBox) error {
	if len(t.ColumnWidths) == 0 {
		return nil
	}
	border, err := style.ParseColor(borderColor(t.Style))
	if err != nil {
		return fmt.Errorf("capture: field %s border: %w", t.FieldID, err)
	}
	textCol, err := style.ParseColor(textColor(t.Style))
	if err != nil {
		return fmt.Errorf("capture: field %s color: %w", t.FieldID, err)
	}
	headerFill := style.White
	if t.HeaderStyle.Background != "" {
		headerFill, err = style.ParseColor(t.HeaderStyle.Background)
		if err != nil {
			return fmt.Errorf("capture: field %s header: %w", t.FieldID, err)
		}
	}

	rows := make([][]scene.TableCell, 0, len(t.Rows)+1)
	if len(t.Header) > 0 {
		rows = append(rows, t.Header)
	}
	rows = append(rows, t.Rows...)

	y := t.Y
	for ri, row := range rows {
		isHeader := ri == 0 && len(t.Header) > 0
		x := t.X
		for ci, cell := range row {
			colIdx := ci
			if colIdx >= len(t.ColumnWidths) {
				colIdx = len(t.ColumnWidths) - 1
			}
			colWidth := t.ColumnWidths[colIdx]

			fill := style.White
			if isHeader {
				fill = headerFill
			}
			cc.SetFillColor(fill)
			cc.SetStrokeColor(border)
			cc.SetStrokeWidth(tableBorderWidth)
			cc.DrawPath(x, y, canvas.Rectangle(colWidth, t.RowHeight))

			if cell.Content != "" {
				weight := "normal"
				if isHeader {
					weight = "bold"
				}
				face, err := r.fonts.Face(t.FontFamily, weight, cell.FontSize, textCol)
				if err != nil {
					return fmt.Errorf("capture: field %s: %w", t.FieldID, err)
				}
				metrics := face.Metrics()
				textAlign, anchorX := resolveAlign(cell.Align, x+cellPaddingPx, colWidth-2*cellPaddingPx)
				baseline := y + (t.RowHeight-(metrics.Ascent+metrics.Descent))/2 + metrics.Ascent
				cc.DrawText(anchorX, baseline, canvas.NewTextLine(face, cell.Content, textAlign))
			}
			x += colWidth
		}
		y += t.RowHeight
	}
	return nil
}

const cellPaddingPx = 4.0

func resolveAlign(align string, x, w float64) (canvas.TextAlign, float64) {
	switch strings.ToLower(align) {
	case "center":
		return canvas.Center, x + w/2
	case "right", "end":
		return canvas.Right, x + w
	default:
		return canvas.Left, x
	}
}

func textColor(s style.Style) string {
	if s.Color != "" {
		return s.Color
	}
	return "#1e1e1e"
}

func borderColor(s style.Style) string {
	if s.Border != "" {
		return s.Border
	}
	return "#c8c8c8"
}
