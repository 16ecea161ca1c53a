package template

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleTemplate() *Template {
	return &Template{
		Name:    "modern-blue",
		DocType: DocInvoice,
		Width:   800,
		Height:  1100,
		Fields: []MappedField{
			{ID: "number", Type: FieldDocumentNumber, Rect: Rect{X: 40, Y: 40, W: 200, H: 28}},
			{ID: "items", Type: FieldLineItems, Rect: Rect{X: 40, Y: 200, W: 720, H: 400}},
		},
	}
}

func TestResolvePrimaryLayout(t *testing.T) {
	tpl := sampleTemplate()
	l := tpl.Resolve(DocInvoice)
	if l.Width != 800 || l.Height != 1100 {
		t.Fatalf("primary layout dimensions wrong: %gx%g", l.Width, l.Height)
	}
	if len(l.Fields) != 2 {
		t.Fatalf("primary layout fields: got %d want 2", len(l.Fields))
	}
}

func TestResolveSwapsVariantWholesale(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Connected = true
	tpl.Variants = map[DocType]Variant{
		DocReceipt: {
			Width:  400,
			Height: 600,
			Fields: []MappedField{
				{ID: "number", Type: FieldDocumentNumber, Rect: Rect{X: 20, Y: 20, W: 120, H: 24}},
			},
		},
	}

	l := tpl.Resolve(DocReceipt)
	if l.Width != 400 || l.Height != 600 {
		t.Fatalf("variant dimensions not applied: %gx%g", l.Width, l.Height)
	}
	if len(l.Fields) != 1 || l.Fields[0].Rect.X != 20 {
		t.Fatalf("variant fields not swapped wholesale: %+v", l.Fields)
	}

	// A doc type without a variant falls back to the primary layout, it never
	// mixes the two.
	l = tpl.Resolve(DocDeliveryNote)
	if l.Width != 800 || len(l.Fields) != 2 {
		t.Fatalf("fallback to primary broken: %gx%g, %d fields", l.Width, l.Height, len(l.Fields))
	}
}

func TestResolveIgnoresVariantsWhenNotConnected(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Variants = map[DocType]Variant{
		DocReceipt: {Width: 400, Height: 600},
	}
	if l := tpl.Resolve(DocReceipt); l.Width != 800 {
		t.Fatalf("unconnected template used a variant: %gx%g", l.Width, l.Height)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Template)
		wantErr string
	}{
		{"valid", func(*Template) {}, ""},
		{"no name", func(tpl *Template) { tpl.Name = "" }, "missing name"},
		{"zero width", func(tpl *Template) { tpl.Width = 0 }, "dimensions"},
		{"duplicate field id", func(tpl *Template) { tpl.Fields[1].ID = "number" }, "duplicate field id"},
		{"field without id", func(tpl *Template) { tpl.Fields[0].ID = "" }, "has no id"},
		{"bad variant", func(tpl *Template) {
			tpl.Variants = map[DocType]Variant{DocReceipt: {Width: 0, Height: 600}}
		}, "variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := sampleTemplate()
			tt.mutate(tpl)
			err := tpl.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpl.json")
	tpl := sampleTemplate()
	if err := Save(path, tpl); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, tpl) {
		t.Fatalf("round trip changed the template:\n%+v\n%+v", tpl, got)
	}
}

func TestDecodeData(t *testing.T) {
	payload := `{
		"docType": "invoice",
		"documentNumber": "INV-0042",
		"currency": "EUR",
		"customerName": "Acme Co",
		"grandTotal": "1500"
	}`
	d, err := DecodeData(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Currency != "EUR" {
		t.Fatalf("currency: %q", d.Currency)
	}
	if d.DocumentNumber != "INV-0042" || d.CustomerName != "Acme Co" {
		t.Fatalf("fields: %+v", d)
	}
	if !d.GrandTotal.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("grand total: %s", d.GrandTotal)
	}
}

func TestIsAllowedDocType(t *testing.T) {
	for _, dt := range []DocType{DocInvoice, DocReceipt, DocDeliveryNote} {
		if !IsAllowedDocType(dt) {
			t.Fatalf("%s should be allowed", dt)
		}
	}
	if IsAllowedDocType("purchase-order") {
		t.Fatal("unknown doc type should not be allowed")
	}
}
