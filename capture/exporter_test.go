package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/inkwellhq/stencil/scene"
	"github.com/inkwellhq/stencil/style"
)

// stubRasterizer records invocations and returns a blank bitmap.
type stubRasterizer struct {
	mu    sync.Mutex
	calls []*scene.Page
	fail  error
}

func (r *stubRasterizer) Rasterize(_ context.Context, p *scene.Page, scale float64) (image.Image, error) {
	r.mu.Lock()
	r.calls = append(r.calls, p)
	r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	return image.NewRGBA(image.Rect(0, 0, int(p.Width*scale), int(p.Height*scale))), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	failed []string
}

func (n *recordingNotifier) ExportFailed(pageID, operation string, err error) {
	n.mu.Lock()
	n.failed = append(n.failed, operation)
	n.mu.Unlock()
}

type recordingDispatcher struct {
	path string
	data []byte
}

func (d *recordingDispatcher) Dispatch(_ context.Context, path string) error {
	d.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	d.data = data
	return nil
}

func stylishPage() *scene.Page {
	return &scene.Page{
		ID:     "page-1",
		Width:  80,
		Height: 110,
		Style:  style.Style{Background: "#ffffff"},
		Texts: []scene.TextBox{
			{
				FieldID: "number", Content: "INV-0042",
				X: 10, Y: 10, W: 60, H: 14, FontSize: 12,
				Style: style.Style{Color: "oklch(0.4 0.1 250)"},
			},
		},
		Tables: []scene.TableBox{
			{
				FieldID: "items", X: 10, Y: 40, W: 60, H: 50,
				ColumnWidths: []float64{30, 30},
				Header:       []scene.TableCell{{Content: "Description"}, {Content: "Amount"}},
				Rows:         [][]scene.TableCell{{{Content: "Work"}, {Content: "$5.00"}}},
				RowHeight:    12,
				Style:        style.Style{Color: "#1e1e1e", Border: "hsl(0, 0%, 78%)"},
				HeaderStyle:  style.Style{Background: "color(display-p3 0.97 0.97 0.97)"},
			},
		},
	}
}

func newTestExporter(raster Rasterizer, notifier Notifier) (*Exporter, *scene.Registry) {
	reg := scene.NewRegistry()
	return NewExporter(reg, nil, nil, raster, Options{Notifier: notifier}), reg
}

func TestSanitizeNormalizesColorsOnCloneOnly(t *testing.T) {
	live := stylishPage()
	before := live.Clone()

	clone, err := Sanitize(live)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	// Every color on the clone is plain numeric rgb()/rgba().
	check := func(v string) {
		if v != "" && !strings.HasPrefix(v, "rgb") {
			t.Fatalf("unsanitized color %q", v)
		}
	}
	check(clone.Style.Background)
	for _, tb := range clone.Texts {
		check(tb.Style.Color)
	}
	for _, tbl := range clone.Tables {
		check(tbl.Style.Color)
		check(tbl.Style.Border)
		check(tbl.HeaderStyle.Background)
	}
	if clone.Texts[0].Style.Color == "oklch(0.4 0.1 250)" {
		t.Fatal("clone still carries the authored syntax")
	}

	// The live page is byte-for-byte what it was before the export.
	if !reflect.DeepEqual(live, before) {
		t.Fatalf("live page mutated by sanitize:\nbefore %+v\nafter  %+v", before, live)
	}
}

func TestSanitizeRejectsUnparseableColor(t *testing.T) {
	p := stylishPage()
	p.Texts[0].Style.Color = "blurple"
	if _, err := Sanitize(p); err == nil {
		t.Fatal("expected error for unparseable color")
	}
}

func TestExportPNG(t *testing.T) {
	raster := &stubRasterizer{}
	exp, reg := newTestExporter(raster, nil)
	reg.Put(stylishPage())

	art, err := exp.ExportPNG(context.Background(), "page-1", "Invoice 0042")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art.MIME != "image/png" || art.Filename != "Invoice 0042.png" {
		t.Fatalf("artifact meta: %+v", art)
	}
	if !bytes.HasPrefix(art.Data, []byte("\x89PNG")) {
		t.Fatal("artifact is not a PNG")
	}
	// The rasterizer received the sanitized clone, not the live page.
	if len(raster.calls) != 1 {
		t.Fatalf("raster calls: %d", len(raster.calls))
	}
	if got := raster.calls[0].Texts[0].Style.Color; !strings.HasPrefix(got, "rgb") {
		t.Fatalf("rasterizer saw unsanitized color %q", got)
	}
	live, _ := reg.Get("page-1")
	if live.Texts[0].Style.Color != "oklch(0.4 0.1 250)" {
		t.Fatal("live page color was rewritten")
	}
}

func TestExportPDF(t *testing.T) {
	exp, reg := newTestExporter(&stubRasterizer{}, nil)
	reg.Put(stylishPage())

	art, err := exp.ExportPDF(context.Background(), "page-1", "invoice")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art.MIME != "application/pdf" || art.Filename != "invoice.pdf" {
		t.Fatalf("artifact meta: %+v", art)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF")) {
		t.Fatal("artifact is not a PDF")
	}
}

func TestExportUnknownPage(t *testing.T) {
	notifier := &recordingNotifier{}
	exp, _ := newTestExporter(&stubRasterizer{}, notifier)

	_, err := exp.ExportPDF(context.Background(), "gone", "x")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("got %v, want ErrPageNotFound", err)
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != "pdf" {
		t.Fatalf("failure not notified: %v", notifier.failed)
	}
}

func TestExportNotifiesOnRasterFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	exp, reg := newTestExporter(&stubRasterizer{fail: errors.New("boom")}, notifier)
	live := stylishPage()
	reg.Put(live)
	before := live.Clone()

	if _, err := exp.ExportPNG(context.Background(), "page-1", "x"); err == nil {
		t.Fatal("expected raster failure to propagate")
	}
	if len(notifier.failed) != 1 {
		t.Fatalf("failure not notified: %v", notifier.failed)
	}
	// The failure path leaves the live page exactly as it was.
	if !reflect.DeepEqual(live, before) {
		t.Fatal("live page mutated on the failure path")
	}
}

func TestPrintSpoolsAndDispatches(t *testing.T) {
	disp := &recordingDispatcher{}
	reg := scene.NewRegistry()
	exp := NewExporter(reg, nil, nil, &stubRasterizer{}, Options{Dispatcher: disp})
	reg.Put(stylishPage())

	if err := exp.Print(context.Background(), "page-1", "Invoice 0042"); err != nil {
		t.Fatalf("print: %v", err)
	}
	if disp.path == "" {
		t.Fatal("dispatcher never received a spool file")
	}
	doc := string(disp.data)
	if !strings.Contains(doc, "@page") || !strings.Contains(doc, "data:image/png;base64,") {
		t.Fatalf("spooled document malformed:\n%s", doc)
	}
	// Page size pinned in physical units: 80px at 96dpi is ~21.17mm.
	if !strings.Contains(doc, "21.17mm") {
		t.Fatalf("spooled document misses the physical page size:\n%s", doc)
	}
	// The spool file is cleaned up after dispatch.
	if _, err := os.Stat(disp.path); !os.IsNotExist(err) {
		t.Fatalf("spool file still present: %v", err)
	}
}

func TestPrintWithoutDispatcher(t *testing.T) {
	exp, reg := newTestExporter(&stubRasterizer{}, &recordingNotifier{})
	reg.Put(stylishPage())
	if err := exp.Print(context.Background(), "page-1", "x"); err == nil {
		t.Fatal("expected error when no dispatcher is configured")
	}
}

func TestConcurrentExportsShareNothing(t *testing.T) {
	raster := &stubRasterizer{}
	exp, reg := newTestExporter(raster, nil)
	live := stylishPage()
	reg.Put(live)
	before := live.Clone()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := exp.ExportPNG(context.Background(), "page-1", "x"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent export: %v", err)
	}

	// Each export drew its own clone.
	seen := map[*scene.Page]bool{}
	for _, p := range raster.calls {
		if p == live {
			t.Fatal("rasterizer received the live page")
		}
		if seen[p] {
			t.Fatal("two exports shared one clone")
		}
		seen[p] = true
	}
	if !reflect.DeepEqual(live, before) {
		t.Fatal("live page mutated by concurrent exports")
	}
}

func TestPackagePDFOrientation(t *testing.T) {
	png := encodeBlankPNG(t, 60, 40)
	data, err := packagePDF(png, 60, 40)
	if err != nil {
		t.Fatalf("landscape: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("not a PDF")
	}
	if _, err := packagePDF(png, 0, 40); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func encodeBlankPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"Invoice 0042", ".pdf", "Invoice 0042.pdf"},
		{"invoice.pdf", ".pdf", "invoice.pdf"},
		{"../../etc/passwd", ".pdf", "-..-etc-passwd.pdf"},
		{`a:b*c?"d"`, ".png", "a-b-c--d-.png"},
		{"", ".pdf", "document.pdf"},
		{"   ", ".png", "document.png"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in, tt.ext); got != tt.want {
			t.Errorf("SanitizeFilename(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}
