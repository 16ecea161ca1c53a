package dsl

import (
	"fmt"

	"github.com/inkwellhq/stencil/template"
)

// Build converts a parsed file into validated templates.
func Build(f *File) ([]*template.Template, error) {
	if f == nil {
		return nil, fmt.Errorf("dsl: nil file")
	}
	out := make([]*template.Template, 0, len(f.Templates))
	for _, decl := range f.Templates {
		t, err := buildTemplate(decl)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func buildTemplate(decl *TemplateDecl) (*template.Template, error) {
	dt := template.DocType(decl.DocType)
	if !template.IsAllowedDocType(dt) {
		return nil, fmt.Errorf("dsl: %s: unknown document type %q", decl.Pos, decl.DocType)
	}
	t := &template.Template{
		Name:    decl.Name,
		DocType: dt,
	}
	for _, st := range decl.Body.Statements {
		switch {
		case st.Page != nil:
			t.Width = st.Page.Width
			t.Height = st.Page.Height
			t.Orientation = st.Page.Orientation
		case st.Background != nil:
			t.Background = *st.Background
		case st.Default:
			t.IsDefault = true
		case st.Connected:
			t.Connected = true
		case st.Field != nil:
			f, err := buildField(st.Field)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, f)
		case st.Variant != nil:
			vdt := template.DocType(st.Variant.DocType)
			if !template.IsAllowedDocType(vdt) {
				return nil, fmt.Errorf("dsl: %s: unknown variant document type %q", st.Variant.Pos, st.Variant.DocType)
			}
			v, err := buildVariant(st.Variant)
			if err != nil {
				return nil, err
			}
			if t.Variants == nil {
				t.Variants = map[template.DocType]template.Variant{}
			}
			t.Variants[vdt] = v
			t.Connected = true
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("dsl: %s: %w", decl.Pos, err)
	}
	return t, nil
}

func buildVariant(decl *VariantDecl) (template.Variant, error) {
	var v template.Variant
	for _, st := range decl.Body.Statements {
		switch {
		case st.Page != nil:
			v.Width = st.Page.Width
			v.Height = st.Page.Height
			v.Orientation = st.Page.Orientation
		case st.Background != nil:
			v.Background = *st.Background
		case st.Field != nil:
			f, err := buildField(st.Field)
			if err != nil {
				return v, err
			}
			v.Fields = append(v.Fields, f)
		case st.Variant != nil:
			return v, fmt.Errorf("dsl: %s: variants cannot nest", st.Variant.Pos)
		case st.Default, st.Connected:
			return v, fmt.Errorf("dsl: %s: default/connected belong to the template, not a variant", decl.Pos)
		}
	}
	return v, nil
}

func buildField(decl *FieldDecl) (template.MappedField, error) {
	f := template.MappedField{
		ID:   decl.ID,
		Type: template.FieldType(decl.Type),
	}
	if f.ID == "" {
		f.ID = decl.Type
	}
	for _, p := range decl.Props {
		switch {
		case p.Rect != nil:
			f.Rect = template.Rect{X: p.Rect.X, Y: p.Rect.Y, W: p.Rect.W, H: p.Rect.H}
		case p.Size != nil:
			f.FontSize = *p.Size
		case p.Align != nil:
			f.Align = *p.Align
		case p.Font != nil:
			f.FontFamily = *p.Font
		case p.Weight != nil:
			f.FontWeight = *p.Weight
		case p.Color != nil:
			f.Color = *p.Color
		case p.Multiline:
			f.Multiline = true
		case p.Value != nil:
			f.Value = *p.Value
		case p.Label != nil:
			f.Label = *p.Label
		}
	}
	if f.Rect.Empty() {
		return f, fmt.Errorf("dsl: %s: field %s has no rect", decl.Pos, f.ID)
	}
	return f, nil
}
