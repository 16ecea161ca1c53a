// Package scene defines the rendered page model: the fixed-size tree of
// absolutely positioned boxes produced by pouring document data into a
// template. One scene is the single rendering target for every output medium;
// the preview, the PNG, the PDF and the print job must all derive from the
// same scene so they cannot drift apart.
package scene

import "github.com/inkwellhq/stencil/style"

// TextBox is one laid-out text field. FontSize is the fitted size decided by
// the auto-fit engine, never recomputed downstream.
type TextBox struct {
	FieldID    string      `json:"fieldId"`
	Content    string      `json:"content"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	W          float64     `json:"w"`
	H          float64     `json:"h"`
	FontFamily string      `json:"fontFamily,omitempty"`
	FontWeight string      `json:"fontWeight,omitempty"`
	FontSize   float64     `json:"fontSize"`
	Align      string      `json:"align,omitempty"` // left (default) / center / right
	Multiline  bool        `json:"multiline,omitempty"`
	Style      style.Style `json:"style"`
}

// ImageBox places a decoded-on-demand image; Src is resolved through the
// asset loader at capture time.
type ImageBox struct {
	Src string  `json:"src"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	W   float64 `json:"w"`
	H   float64 `json:"h"`
}

// TableCell is one cell of the line-items table.
type TableCell struct {
	Content  string  `json:"content"`
	Align    string  `json:"align,omitempty"`
	FontSize float64 `json:"fontSize"`
}

// TableBox is the expanded line-items field: a header row plus one row per
// line item, laid out inside the field rectangle.
type TableBox struct {
	FieldID      string      `json:"fieldId"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	W            float64     `json:"w"`
	H            float64     `json:"h"`
	ColumnWidths []float64   `json:"columnWidths"`
	Header       []TableCell `json:"header"`
	Rows         [][]TableCell `json:"rows"`
	RowHeight    float64     `json:"rowHeight"`
	FontFamily   string      `json:"fontFamily,omitempty"`
	Style        style.Style `json:"style"`
	HeaderStyle  style.Style `json:"headerStyle"`
}

// Page is one rendered document page at its native pixel size. Width and
// Height always equal the resolved template canvas exactly; display scaling
// never touches them.
type Page struct {
	ID         string      `json:"id"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Background *ImageBox   `json:"background,omitempty"`
	Texts      []TextBox   `json:"texts"`
	Tables     []TableBox  `json:"tables"`
	Style      style.Style `json:"style"` // page background fill
}

// Clone returns a deep copy of the page. The capture pipeline sanitizes and
// rasterizes the copy so the live page is never mutated, which keeps
// concurrent export calls from interfering with each other.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	if p.Background != nil {
		bg := *p.Background
		out.Background = &bg
	}
	out.Texts = make([]TextBox, len(p.Texts))
	copy(out.Texts, p.Texts)
	out.Tables = make([]TableBox, len(p.Tables))
	for i, t := range p.Tables {
		nt := t
		nt.ColumnWidths = append([]float64(nil), t.ColumnWidths...)
		nt.Header = append([]TableCell(nil), t.Header...)
		nt.Rows = make([][]TableCell, len(t.Rows))
		for j, r := range t.Rows {
			nt.Rows[j] = append([]TableCell(nil), r...)
		}
		out.Tables[i] = nt
	}
	return &out
}

// ImageSrcs lists every image reference on the page, background included.
func (p *Page) ImageSrcs() []string {
	var srcs []string
	if p.Background != nil && p.Background.Src != "" {
		srcs = append(srcs, p.Background.Src)
	}
	return srcs
}
