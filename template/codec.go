package template

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON template from r and validates it.
func Decode(r io.Reader) (*Template, error) {
	var t Template
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("template: decoding JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and validates a JSON template file.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes t as indented JSON, the interchange form template editors
// produce and consume.
func Encode(w io.Writer, t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("template: encoding JSON: %w", err)
	}
	return nil
}

// Save writes t to path as JSON.
func Save(path string, t *Template) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("template: creating %s: %w", path, err)
	}
	if err := Encode(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DecodeData reads a JSON DocumentData payload from r.
func DecodeData(r io.Reader) (*DocumentData, error) {
	var d DocumentData
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("template: decoding document data: %w", err)
	}
	return &d, nil
}

// LoadData reads a JSON DocumentData file.
func LoadData(path string) (*DocumentData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: opening %s: %w", path, err)
	}
	defer f.Close()
	return DecodeData(f)
}
