// Package render composes a scene page from a template plus resolved
// document data. The output page has exactly the template's canvas
// dimensions; it is the literal rendering target for every output medium.
package render

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkwellhq/stencil/fit"
	"github.com/inkwellhq/stencil/scene"
	"github.com/inkwellhq/stencil/style"
	"github.com/inkwellhq/stencil/template"
)

const (
	defaultFontSize = 14.0
	defaultColor    = "#1e1e1e"
	cellPadding     = 4.0
)

// Composer turns (Template, DocumentData) pairs into rendered pages. It owns
// no page state; every Compose call produces a fresh page that replaces the
// previous one wholesale.
type Composer struct {
	measurer fit.Measurer
	fmtr     *Formatter
	fitOpts  fit.Options
}

// NewComposer wires the text measurer and the locale formatter supplied by
// the settings collaborator.
func NewComposer(m fit.Measurer, fmtr *Formatter) *Composer {
	return &Composer{measurer: m, fmtr: fmtr}
}

// Compose renders tpl with data under the stable page id. An empty id gets a
// generated one; the id is the sole handle the capture pipeline uses to find
// the page. Fields whose semantic type has no value in data render empty —
// absent data is a normal state, not a failure.
func (c *Composer) Compose(tpl *template.Template, data *template.DocumentData, pageID string) (*scene.Page, error) {
	if tpl == nil || data == nil {
		return nil, fmt.Errorf("render: template and data are required")
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if pageID == "" {
		pageID = uuid.NewString()
	}

	// Variant swap happens before any field is laid out so field coordinates
	// stay consistent with their declared canvas.
	layout := tpl.Resolve(data.DocType)

	page := &scene.Page{
		ID:     pageID,
		Width:  layout.Width,
		Height: layout.Height,
		Style:  style.Style{Background: "#ffffff"},
	}
	if layout.Background != "" {
		page.Background = &scene.ImageBox{
			Src: layout.Background,
			X:   0, Y: 0,
			W: layout.Width, H: layout.Height,
		}
	}

	for _, f := range layout.Fields {
		if f.Type == template.FieldLineItems {
			tb, err := c.composeTable(f, data)
			if err != nil {
				return nil, err
			}
			page.Tables = append(page.Tables, tb)
			continue
		}
		box, err := c.composeText(f, data)
		if err != nil {
			return nil, err
		}
		page.Texts = append(page.Texts, box)
	}
	return page, nil
}

func (c *Composer) composeText(f template.MappedField, data *template.DocumentData) (scene.TextBox, error) {
	content := c.fieldValue(f, data)
	size := f.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	fitted, err := fit.Fit(c.measurer, content, fit.Font{Family: f.FontFamily, Weight: f.FontWeight},
		size, f.Rect.W, f.Rect.H, f.Multiline, c.fitOpts)
	if err != nil {
		return scene.TextBox{}, fmt.Errorf("render: fitting field %s: %w", f.ID, err)
	}
	col := f.Color
	if col == "" {
		col = defaultColor
	}
	return scene.TextBox{
		FieldID:    f.ID,
		Content:    content,
		X:          f.Rect.X,
		Y:          f.Rect.Y,
		W:          f.Rect.W,
		H:          f.Rect.H,
		FontFamily: f.FontFamily,
		FontWeight: f.FontWeight,
		FontSize:   fitted,
		Align:      f.Align,
		Multiline:  f.Multiline,
		Style:      style.Style{Color: col},
	}, nil
}

// composeTable expands the line-items field into a header row plus one row
// per line item. Rows that do not fit the field rectangle are clipped; the
// field's height is part of the template contract, not something layout may
// stretch.
func (c *Composer) composeTable(f template.MappedField, data *template.DocumentData) (scene.TableBox, error) {
	size := f.FontSize
	if size <= 0 {
		size = defaultFontSize - 2
	}
	rowH := size * 1.8
	maxRows := int(f.Rect.H/rowH) - 1 // minus header
	if maxRows < 0 {
		maxRows = 0
	}

	descLabel := f.Label
	if descLabel == "" {
		descLabel = "Description"
	}
	widths := []float64{
		f.Rect.W * 0.46,
		f.Rect.W * 0.14,
		f.Rect.W * 0.20,
		f.Rect.W * 0.20,
	}
	header := []scene.TableCell{
		{Content: descLabel, Align: "left", FontSize: size},
		{Content: "Qty", Align: "right", FontSize: size},
		{Content: "Unit Price", Align: "right", FontSize: size},
		{Content: "Amount", Align: "right", FontSize: size},
	}

	items := data.LineItems
	if maxRows < len(items) {
		items = items[:maxRows]
	}
	rows := make([][]scene.TableCell, 0, len(items))
	for _, it := range items {
		cells := []scene.TableCell{
			{Content: it.Description, Align: "left", FontSize: size},
			{Content: c.fmtr.Number(it.Quantity), Align: "right", FontSize: size},
			{Content: c.fmtr.Money(it.UnitPrice), Align: "right", FontSize: size},
			{Content: c.fmtr.Money(it.Amount), Align: "right", FontSize: size},
		}
		for i := range cells {
			avail := widths[i] - 2*cellPadding
			fitted, err := fit.Fit(c.measurer, cells[i].Content,
				fit.Font{Family: f.FontFamily, Weight: f.FontWeight},
				size, avail, rowH, false, c.fitOpts)
			if err != nil {
				return scene.TableBox{}, fmt.Errorf("render: fitting line-item cell: %w", err)
			}
			cells[i].FontSize = fitted
		}
		rows = append(rows, cells)
	}

	col := f.Color
	if col == "" {
		col = defaultColor
	}
	return scene.TableBox{
		FieldID:      f.ID,
		X:            f.Rect.X,
		Y:            f.Rect.Y,
		W:            f.Rect.W,
		H:            f.Rect.H,
		ColumnWidths: widths,
		Header:       header,
		Rows:         rows,
		RowHeight:    rowH,
		FontFamily:   f.FontFamily,
		Style:        style.Style{Color: col, Border: "#c8c8c8"},
		HeaderStyle:  style.Style{Color: col, Background: "#f8f8f8"},
	}, nil
}

// fieldValue resolves a field's semantic type against the document data.
// Unknown or unsupported field types render as empty rather than failing, so
// legacy templates keep exporting.
func (c *Composer) fieldValue(f template.MappedField, data *template.DocumentData) string {
	switch f.Type {
	case template.FieldDocumentNumber:
		return data.DocumentNumber
	case template.FieldDate:
		return c.fmtr.Date(data.Date)
	case template.FieldDueDate:
		if data.DueDate == nil {
			return ""
		}
		return c.fmtr.Date(*data.DueDate)
	case template.FieldCustomerName:
		return data.CustomerName
	case template.FieldCustomerEmail:
		return data.CustomerEmail
	case template.FieldCustomerPhone:
		return data.CustomerPhone
	case template.FieldCustomerAddress:
		return data.CustomerAddress
	case template.FieldSubtotal:
		return c.fmtr.Money(data.Subtotal)
	case template.FieldDiscount:
		return c.fmtr.Money(data.DiscountAmount)
	case template.FieldTax:
		return c.fmtr.Money(data.TaxAmount)
	case template.FieldGrandTotal:
		return c.fmtr.Money(data.GrandTotal)
	case template.FieldAmountPaid:
		return moneyOrEmpty(c.fmtr, data.AmountPaid)
	case template.FieldAmountDue:
		return moneyOrEmpty(c.fmtr, data.AmountDue)
	case template.FieldAmountInWords:
		return data.AmountInWords
	case template.FieldNotes:
		return data.Notes
	case template.FieldStaticText:
		return f.Value
	case template.FieldCustom:
		return data.CustomValues[f.ID]
	default:
		return ""
	}
}

func moneyOrEmpty(f *Formatter, d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return f.Money(*d)
}
