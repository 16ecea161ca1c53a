// Package capture turns a registered scene page into shareable artifacts:
// PNG bitmaps, single-page PDFs and print jobs. Every output derives from one
// rasterization path so what the user downloads is what the preview showed.
//
// The pipeline per export: locate the page, wait for its images, ensure its
// fonts are loadable, sanitize an isolated clone, rasterize, package. The
// live page is never mutated.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inkwellhq/stencil/assets"
	"github.com/inkwellhq/stencil/scene"
)

var (
	// ErrPageNotFound means the page id has no registered scene, typically
	// because the document was closed while the export was queued.
	ErrPageNotFound = errors.New("capture: page not found")
)

// Artifact is one finished export: the bytes plus enough metadata to hand it
// to a download or a filesystem.
type Artifact struct {
	Filename string
	MIME     string
	Data     []byte
}

// Rasterizer renders a page into a bitmap at the given scale.
type Rasterizer interface {
	Rasterize(ctx context.Context, p *scene.Page, scale float64) (image.Image, error)
}

// Notifier surfaces export failures to the user. Exports run detached from
// any request/response cycle, so a failed one must be reported actively
// rather than returned into the void.
type Notifier interface {
	ExportFailed(pageID, operation string, err error)
}

// LogNotifier reports failures through the structured log.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) ExportFailed(pageID, operation string, err error) {
	log := n.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"page":      pageID,
		"operation": operation,
	}).WithError(err).Error("export failed")
}

// Options tunes the export pipeline.
type Options struct {
	// Supersample is the raster scale for PDF and print output. 3 gives
	// effectively 288 DPI at the 96 DPI reference density.
	Supersample float64
	// Dispatcher receives spooled print documents. Nil disables Print.
	Dispatcher Dispatcher
	// Notifier receives failure reports. Nil falls back to LogNotifier.
	Notifier Notifier
	Log      *logrus.Logger
}

// Exporter runs the capture pipeline against a page registry.
type Exporter struct {
	reg        *scene.Registry
	loader     *assets.Loader
	fonts      *FontSet
	raster     Rasterizer
	dispatcher Dispatcher
	notifier   Notifier
	log        *logrus.Logger
	scale      float64
}

func NewExporter(reg *scene.Registry, loader *assets.Loader, fonts *FontSet, raster Rasterizer, opts Options) *Exporter {
	if opts.Supersample <= 0 {
		opts.Supersample = 3
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = &LogNotifier{Log: log}
	}
	return &Exporter{
		reg:        reg,
		loader:     loader,
		fonts:      fonts,
		raster:     raster,
		dispatcher: opts.Dispatcher,
		notifier:   notifier,
		log:        log,
		scale:      opts.Supersample,
	}
}

// ExportPNG rasterizes the page at the supersample scale and returns it as a
// PNG artifact.
func (e *Exporter) ExportPNG(ctx context.Context, pageID, filename string) (*Artifact, error) {
	data, _, err := e.renderPNG(ctx, pageID, e.scale)
	if err != nil {
		e.notifier.ExportFailed(pageID, "png", err)
		return nil, err
	}
	return &Artifact{
		Filename: SanitizeFilename(filename, ".png"),
		MIME:     "image/png",
		Data:     data,
	}, nil
}

// ExportPDF rasterizes the page and wraps the bitmap in a single-page PDF
// sized to the page's physical dimensions.
func (e *Exporter) ExportPDF(ctx context.Context, pageID, filename string) (*Artifact, error) {
	data, page, err := e.renderPNG(ctx, pageID, e.scale)
	if err != nil {
		e.notifier.ExportFailed(pageID, "pdf", err)
		return nil, err
	}
	pdfData, err := packagePDF(data, page.Width, page.Height)
	if err != nil {
		e.notifier.ExportFailed(pageID, "pdf", err)
		return nil, err
	}
	return &Artifact{
		Filename: SanitizeFilename(filename, ".pdf"),
		MIME:     "application/pdf",
		Data:     pdfData,
	}, nil
}

// Print renders the page, spools it as a print document and hands it to the
// configured dispatcher. The spool file is removed after dispatch.
func (e *Exporter) Print(ctx context.Context, pageID, title string) error {
	if e.dispatcher == nil {
		err := fmt.Errorf("capture: no print dispatcher configured")
		e.notifier.ExportFailed(pageID, "print", err)
		return err
	}
	data, page, err := e.renderPNG(ctx, pageID, e.scale)
	if err != nil {
		e.notifier.ExportFailed(pageID, "print", err)
		return err
	}
	path, err := spoolPrintHTML(title, data, page.Width, page.Height)
	if err != nil {
		e.notifier.ExportFailed(pageID, "print", err)
		return err
	}
	defer os.Remove(path)
	if err := e.dispatcher.Dispatch(ctx, path); err != nil {
		e.notifier.ExportFailed(pageID, "print", err)
		return err
	}
	e.log.WithField("page", pageID).Info("print job dispatched")
	return nil
}

// renderPNG runs the shared pipeline up to the encoded bitmap. It returns the
// sanitized page alongside the bytes because the packagers need its native
// dimensions.
func (e *Exporter) renderPNG(ctx context.Context, pageID string, scale float64) ([]byte, *scene.Page, error) {
	page, ok := e.reg.Get(pageID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	// Settle pending image loads first so the bitmap is not missing assets
	// that were still in flight.
	if e.loader != nil {
		if err := e.loader.Wait(ctx, page.ImageSrcs()); err != nil {
			return nil, nil, err
		}
	}
	if e.fonts != nil {
		if err := e.fonts.Ensure(pageFonts(page)); err != nil {
			return nil, nil, err
		}
	}

	clone, err := Sanitize(page)
	if err != nil {
		return nil, nil, err
	}
	img, err := e.raster.Rasterize(ctx, clone, scale)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, fmt.Errorf("capture: encode png: %w", err)
	}
	return buf.Bytes(), clone, nil
}

// pageFonts collects the family/weight pairs the page uses so their faces can
// be resolved before any drawing starts.
func pageFonts(p *scene.Page) map[string]string {
	fonts := map[string]string{}
	for _, t := range p.Texts {
		if t.FontFamily != "" {
			fonts[t.FontFamily] = t.FontWeight
		}
	}
	for _, t := range p.Tables {
		if t.FontFamily != "" {
			fonts[t.FontFamily] = "normal"
		}
	}
	return fonts
}

// SanitizeFilename strips path separators and control characters from a
// user-supplied name and guarantees the extension. An empty name becomes
// "document"+ext.
func SanitizeFilename(name, ext string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('-')
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		out = "document"
	}
	if !strings.HasSuffix(strings.ToLower(out), ext) {
		out += ext
	}
	return out
}
