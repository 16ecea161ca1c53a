package dsl

import (
	"strings"
	"testing"

	"github.com/inkwellhq/stencil/template"
)

const sampleSource = `
// Letterhead for the linked invoice/receipt workflow.
template "Classic Letterhead" invoice {
	page 794 1123 portrait
	background "letterhead.png"
	default

	field document-number {
		rect 560 40 200 28
		size 16
		align right
		weight bold
		color #1a73e8
	}
	field customer-name "bill-to" {
		rect 40 160 300 24
		size 14
	}
	field customer-address {
		rect 40 190 300 60
		multiline
	}
	field line-items {
		rect 40 300 714 480
	}
	field notes {
		rect 40 820 500 80
		multiline
		color "rgb(100, 100, 100)"
	}
	field static-text "footer" {
		rect 40 1060 714 24
		align center
		value "Thank you for your business"
	}

	variant receipt {
		page 600 800
		field document-number { rect 380 30 180 24; size 14 }
		field grand-total { rect 380 700 180 30; align right }
	}
}
`

func parseSample(t *testing.T) *template.Template {
	t.Helper()
	file, err := Parse(strings.NewReader(sampleSource))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tpls, err := Build(file)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(tpls) != 1 {
		t.Fatalf("got %d templates, want 1", len(tpls))
	}
	return tpls[0]
}

func TestParseTemplateHeader(t *testing.T) {
	tpl := parseSample(t)
	if tpl.Name != "Classic Letterhead" {
		t.Fatalf("name: %q", tpl.Name)
	}
	if tpl.DocType != template.DocInvoice {
		t.Fatalf("doc type: %q", tpl.DocType)
	}
	if tpl.Width != 794 || tpl.Height != 1123 || tpl.Orientation != "portrait" {
		t.Fatalf("page: %gx%g %q", tpl.Width, tpl.Height, tpl.Orientation)
	}
	if tpl.Background != "letterhead.png" {
		t.Fatalf("background: %q", tpl.Background)
	}
	if !tpl.IsDefault {
		t.Fatal("default flag not set")
	}
}

func TestParseFields(t *testing.T) {
	tpl := parseSample(t)
	if len(tpl.Fields) != 6 {
		t.Fatalf("got %d fields, want 6", len(tpl.Fields))
	}

	num := tpl.Fields[0]
	if num.Type != template.FieldDocumentNumber || num.ID != "document-number" {
		t.Fatalf("field 0: %+v", num)
	}
	if num.Rect != (template.Rect{X: 560, Y: 40, W: 200, H: 28}) {
		t.Fatalf("field 0 rect: %+v", num.Rect)
	}
	if num.FontSize != 16 || num.Align != "right" || num.FontWeight != "bold" || num.Color != "#1a73e8" {
		t.Fatalf("field 0 props: %+v", num)
	}

	// Explicit id overrides the type-derived default.
	if tpl.Fields[1].ID != "bill-to" {
		t.Fatalf("field 1 id: %q", tpl.Fields[1].ID)
	}
	if !tpl.Fields[2].Multiline {
		t.Fatal("customer-address should be multiline")
	}
	if tpl.Fields[4].Color != "rgb(100, 100, 100)" {
		t.Fatalf("notes color: %q", tpl.Fields[4].Color)
	}
	if tpl.Fields[5].Value != "Thank you for your business" {
		t.Fatalf("static value: %q", tpl.Fields[5].Value)
	}
}

func TestParseVariantImpliesConnected(t *testing.T) {
	tpl := parseSample(t)
	if !tpl.Connected {
		t.Fatal("declaring a variant must mark the template connected")
	}
	v, ok := tpl.Variants[template.DocReceipt]
	if !ok {
		t.Fatal("receipt variant missing")
	}
	if v.Width != 600 || v.Height != 800 {
		t.Fatalf("variant page: %gx%g", v.Width, v.Height)
	}
	if len(v.Fields) != 2 {
		t.Fatalf("variant fields: %d", len(v.Fields))
	}
}

func TestParseHexColorWidths(t *testing.T) {
	tests := []struct {
		name, color string
	}{
		{"short", "#1a7"},
		{"short alpha", "#1a7f"},
		{"full", "#1a73e8"},
		{"full alpha", "#1a73e880"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `template "T" invoice { page 100 100 field notes { rect 1 1 10 10; color ` + tt.color + ` } }`
			file, err := Parse(strings.NewReader(src))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			tpls, err := Build(file)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if got := tpls[0].Fields[0].Color; got != tt.color {
				t.Fatalf("color: %q want %q", got, tt.color)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{
			"unknown doc type",
			`template "T" quote { page 100 100 field notes { rect 1 1 10 10 } }`,
			"unknown document type",
		},
		{
			"field without rect",
			`template "T" invoice { page 100 100 field notes { size 12 } }`,
			"has no rect",
		},
		{
			"unknown variant type",
			`template "T" invoice { page 100 100 field notes { rect 1 1 10 10 } variant quote { page 50 50 } }`,
			"unknown variant document type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(strings.NewReader(tt.src))
			if err == nil {
				_, err = Build(file)
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
