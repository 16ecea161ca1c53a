package template

import "fmt"

// This file defines the visual template model: a fixed-size canvas with an
// ordered list of positioned fields, optionally carrying per-document-type
// variants.

// DocType identifies the business document kind a template renders.
type DocType string

const (
	DocInvoice      DocType = "invoice"
	DocReceipt      DocType = "receipt"
	DocDeliveryNote DocType = "delivery-note"
)

// IsAllowedDocType reports whether t names a supported document type.
func IsAllowedDocType(t DocType) bool {
	switch t {
	case DocInvoice, DocReceipt, DocDeliveryNote:
		return true
	default:
		return false
	}
}

// FieldType is the semantic type of a mapped field. It decides which value of
// DocumentData the field pulls at render time.
type FieldType string

const (
	FieldDocumentNumber  FieldType = "document-number"
	FieldDate            FieldType = "date"
	FieldDueDate         FieldType = "due-date"
	FieldCustomerName    FieldType = "customer-name"
	FieldCustomerEmail   FieldType = "customer-email"
	FieldCustomerPhone   FieldType = "customer-phone"
	FieldCustomerAddress FieldType = "customer-address"
	FieldLineItems       FieldType = "line-items"
	FieldSubtotal        FieldType = "subtotal"
	FieldDiscount        FieldType = "discount"
	FieldTax             FieldType = "tax"
	FieldGrandTotal      FieldType = "grand-total"
	FieldAmountPaid      FieldType = "amount-paid"
	FieldAmountDue       FieldType = "amount-due"
	FieldAmountInWords   FieldType = "amount-in-words"
	FieldNotes           FieldType = "notes"
	FieldStaticText      FieldType = "static-text"
	FieldCustom          FieldType = "custom"
)

// Rect is a field rectangle in template pixel space, origin top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether the rectangle has no usable area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// MappedField is one positioned content slot on the template canvas.
// Every field type renders as a single auto-fit text block except
// FieldLineItems, which expands into a table.
type MappedField struct {
	ID         string    `json:"id"`
	Type       FieldType `json:"type"`
	Rect       Rect      `json:"rect"`
	Align      string    `json:"align,omitempty"` // left (default) / center / right
	FontFamily string    `json:"fontFamily,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty"` // px; initial size before auto-fit
	FontWeight string    `json:"fontWeight,omitempty"`
	Color      string    `json:"color,omitempty"` // CSS color string, any supported syntax
	Multiline  bool      `json:"multiline,omitempty"`
	// Value carries the literal content for static-text fields; ignored for
	// every other type.
	Value string `json:"value,omitempty"`
	// Label overrides the printed label of the line-items description column
	// and is unused elsewhere.
	Label string `json:"label,omitempty"`
}

// Variant is an alternate field set, background and canvas size used when a
// connected template is rendered for a document type other than its primary.
type Variant struct {
	Background  string        `json:"background,omitempty"`
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	Orientation string        `json:"orientation,omitempty"`
	Fields      []MappedField `json:"fields"`
}

// Template is a named fixed-size visual layout bound to one primary document
// type. Width/Height are display-space pixels fixed at creation time; the
// canvas always renders at exactly this size.
type Template struct {
	Name        string    `json:"name"`
	Version     int       `json:"version,omitempty"`
	DocType     DocType   `json:"docType"`
	Background  string    `json:"background,omitempty"` // image path or URL
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Orientation string    `json:"orientation,omitempty"` // portrait / landscape
	IsDefault   bool      `json:"isDefault,omitempty"`
	// Connected enables variant lookup for linked document workflows.
	Connected bool                `json:"connected,omitempty"`
	Variants  map[DocType]Variant `json:"variants,omitempty"`
	Fields    []MappedField       `json:"fields"`
}

// Layout is the concrete canvas configuration a render uses: either the
// template's primary configuration or a variant's, swapped wholesale.
type Layout struct {
	Background string
	Width      float64
	Height     float64
	Fields     []MappedField
}

// Resolve returns the layout to use when rendering t for document type dt.
// When t is connected and carries a variant for dt, the variant's
// background/dimensions/fields replace the primary configuration entirely, so
// field coordinates stay consistent with their declared canvas. The swap
// happens here, before any field is resolved.
func (t *Template) Resolve(dt DocType) Layout {
	if t.Connected && dt != t.DocType {
		if v, ok := t.Variants[dt]; ok {
			return Layout{
				Background: v.Background,
				Width:      v.Width,
				Height:     v.Height,
				Fields:     v.Fields,
			}
		}
	}
	return Layout{
		Background: t.Background,
		Width:      t.Width,
		Height:     t.Height,
		Fields:     t.Fields,
	}
}

// Validate checks the template invariants that the renderer depends on.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template: missing name")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("template %s: canvas dimensions must be positive, got %gx%g", t.Name, t.Width, t.Height)
	}
	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if f.ID == "" {
			return fmt.Errorf("template %s: field %d has no id", t.Name, i)
		}
		if seen[f.ID] {
			return fmt.Errorf("template %s: duplicate field id %s", t.Name, f.ID)
		}
		seen[f.ID] = true
	}
	for dt, v := range t.Variants {
		if v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("template %s: variant %s dimensions must be positive", t.Name, dt)
		}
	}
	return nil
}
