// Package dsl parses the .stencil template definition language: a compact
// text format for authoring fixed-canvas document templates with positioned
// fields and per-document-type variants.
//
// Example:
//
//	template "Classic Letterhead" invoice {
//	    page 794 1123 portrait
//	    background "letterhead.png"
//	    default
//	    field customer-name {
//	        rect 20 20 200 20
//	        size 14
//	        align left
//	    }
//	    variant receipt {
//	        page 600 800
//	        field grand-total { rect 20 50 200 20 }
//	    }
//	}
package dsl

import (
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		// longest alternative first, otherwise #rrggbb lexes as #rgb + digits
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3,4})`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[;:,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
		participle.Unquote("String"),
	)
)

// File is the root AST node of a .stencil file.
type File struct {
	Pos       lexer.Position  `parser:"" json:"-"`
	Templates []*TemplateDecl `parser:"Newline* ( @@ Newline* )*"`
}

// TemplateDecl declares one template with its primary document type.
type TemplateDecl struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"'template' @String"`
	DocType string         `parser:"@Ident"`
	Body    *Body          `parser:"@@"`
}

// Body is a brace-delimited statement list shared by templates and variants.
type Body struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement is one declaration inside a template or variant body.
type Statement struct {
	Page       *PageDecl    `parser:"  @@"`
	Background *string      `parser:"| 'background' @String"`
	Default    bool         `parser:"| @'default'"`
	Connected  bool         `parser:"| @'connected'"`
	Field      *FieldDecl   `parser:"| @@"`
	Variant    *VariantDecl `parser:"| @@"`
}

// PageDecl fixes the canvas size in pixels with an optional orientation.
type PageDecl struct {
	Width       float64 `parser:"'page' @Number"`
	Height      float64 `parser:"@Number"`
	Orientation string  `parser:"( @( 'portrait' | 'landscape' ) )?"`
}

// FieldDecl positions one mapped field. The optional string argument is an
// explicit field id; it defaults to the field type.
type FieldDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Type  string         `parser:"'field' @Ident"`
	ID    string         `parser:"( @String )?"`
	Props []*FieldProp   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// FieldProp is one attribute of a field declaration.
type FieldProp struct {
	Rect      *RectDecl `parser:"  @@"`
	Size      *float64  `parser:"| 'size' @Number"`
	Align     *string   `parser:"| 'align' @Ident"`
	Font      *string   `parser:"| 'font' @String"`
	Weight    *string   `parser:"| 'weight' @Ident"`
	Color     *string   `parser:"| 'color' ( @Color | @String )"`
	Multiline bool      `parser:"| @'multiline'"`
	Value     *string   `parser:"| 'value' @String"`
	Label     *string   `parser:"| 'label' @String"`
}

// RectDecl is the field rectangle in template pixel space: x y w h.
type RectDecl struct {
	X float64 `parser:"'rect' @Number"`
	Y float64 `parser:"@Number"`
	W float64 `parser:"@Number"`
	H float64 `parser:"@Number"`
}

// VariantDecl declares an alternate configuration for another document type.
// Its body accepts the same statements as a template except nested variants.
type VariantDecl struct {
	Pos     lexer.Position `parser:"" json:"-"`
	DocType string         `parser:"'variant' @Ident"`
	Body    *Body          `parser:"@@"`
}

// Parse reads a .stencil file from r.
func Parse(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}
