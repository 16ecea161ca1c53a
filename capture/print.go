package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"strings"
)

// printHTMLTemplate wraps the rendered page bitmap in a minimal print
// document. The @page rule pins the paper size to the page's physical
// dimensions so nothing is scaled or letterboxed on the way to the printer.
const printHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    @page {
      size: {{printf "%.2f" .WidthMM}}mm {{printf "%.2f" .HeightMM}}mm;
      margin: 0;
    }
    html, body {
      margin: 0;
      padding: 0;
    }
    img.page {
      display: block;
      width: {{printf "%.2f" .WidthMM}}mm;
      height: {{printf "%.2f" .HeightMM}}mm;
    }
  </style>
</head>
<body>
  <img class="page" src="data:image/png;base64,{{.ImageData}}" alt="" />
</body>
</html>
`

var printTmpl = template.Must(template.New("print").Parse(printHTMLTemplate))

// Dispatcher hands a spooled print document to the platform's print
// mechanism. The command dispatcher shells out; tests inject a fake.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string) error
}

// CommandDispatcher runs a configured command with the spool file path
// appended, e.g. "lp" or "xdg-open".
type CommandDispatcher struct {
	Command string
	Args    []string
}

func (d *CommandDispatcher) Dispatch(ctx context.Context, path string) error {
	if d.Command == "" {
		return fmt.Errorf("capture: no print command configured")
	}
	args := append(append([]string(nil), d.Args...), path)
	cmd := exec.CommandContext(ctx, d.Command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("capture: print command %s: %w: %s", d.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// spoolPrintHTML renders the print document and writes it to a temp file,
// returning its path. The caller owns cleanup after dispatch.
func spoolPrintHTML(title string, pngData []byte, widthPx, heightPx float64) (string, error) {
	var buf bytes.Buffer
	err := printTmpl.Execute(&buf, struct {
		Title     string
		WidthMM   float64
		HeightMM  float64
		ImageData string
	}{
		Title:     title,
		WidthMM:   widthPx * mmPerInch / referenceDPI,
		HeightMM:  heightPx * mmPerInch / referenceDPI,
		ImageData: base64.StdEncoding.EncodeToString(pngData),
	})
	if err != nil {
		return "", fmt.Errorf("capture: render print page: %w", err)
	}

	f, err := os.CreateTemp("", "stencil-print-*.html")
	if err != nil {
		return "", fmt.Errorf("capture: spool print page: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("capture: spool print page: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("capture: spool print page: %w", err)
	}
	return f.Name(), nil
}
