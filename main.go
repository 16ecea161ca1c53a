package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/inkwellhq/stencil/assets"
	"github.com/inkwellhq/stencil/capture"
	"github.com/inkwellhq/stencil/dsl"
	"github.com/inkwellhq/stencil/render"
	"github.com/inkwellhq/stencil/scene"
	"github.com/inkwellhq/stencil/template"
)

func main() {
	tplPath := flag.String("template", "", "template file (.stencil or .json)")
	dataPath := flag.String("data", "", "document data JSON file")
	outPath := flag.String("out", "", "output file (defaults next to the data file)")
	format := flag.String("format", "pdf", "output format: pdf, png or print")
	locale := flag.String("locale", "en-US", "locale for date and number formatting")
	currency := flag.String("currency", "", "ISO 4217 currency code (overrides the data file)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// .env carries deployment-local paths; absent is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env")
	}

	if *tplPath == "" || *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(log, *tplPath, *dataPath, *outPath, *format, *locale, *currency); err != nil {
		log.WithError(err).Fatal("render failed")
	}
}

func run(log *logrus.Logger, tplPath, dataPath, outPath, format, locale, currencyCode string) error {
	tpl, err := loadTemplate(tplPath)
	if err != nil {
		return err
	}
	data, err := template.LoadData(dataPath)
	if err != nil {
		return err
	}
	if currencyCode == "" {
		currencyCode = data.Currency
	}

	fonts := capture.NewFontSet(os.Getenv("STENCIL_FONT_DIR"), nil)
	fmtr, err := render.NewFormatter(locale, currencyCode)
	if err != nil {
		return err
	}
	composer := render.NewComposer(capture.NewTextMeasurer(fonts), fmtr)

	page, err := composer.Compose(tpl, data, "")
	if err != nil {
		return err
	}
	reg := scene.NewRegistry()
	reg.Put(page)

	assetDir := os.Getenv("STENCIL_ASSET_DIR")
	if assetDir == "" {
		assetDir = filepath.Dir(tplPath)
	}
	loader := assets.NewLoader(assetDir, log)
	for _, src := range page.ImageSrcs() {
		loader.Prefetch(src)
	}

	exporter := capture.NewExporter(reg, loader, fonts, capture.NewCanvasRasterizer(fonts, loader), capture.Options{
		Dispatcher: printDispatcher(),
		Log:        log,
	})

	ctx := context.Background()
	base := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	switch strings.ToLower(format) {
	case "pdf":
		art, err := exporter.ExportPDF(ctx, page.ID, base)
		if err != nil {
			return err
		}
		return writeArtifact(log, art, outPath)
	case "png":
		art, err := exporter.ExportPNG(ctx, page.ID, base)
		if err != nil {
			return err
		}
		return writeArtifact(log, art, outPath)
	case "print":
		if err := exporter.Print(ctx, page.ID, base); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// loadTemplate reads either a .stencil source file or a JSON template export.
func loadTemplate(path string) (*template.Template, error) {
	if strings.EqualFold(filepath.Ext(path), ".stencil") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open template %s: %w", path, err)
		}
		defer f.Close()
		file, err := dsl.Parse(f)
		if err != nil {
			return nil, err
		}
		tpls, err := dsl.Build(file)
		if err != nil {
			return nil, err
		}
		if len(tpls) == 0 {
			return nil, fmt.Errorf("template %s declares no templates", path)
		}
		return tpls[0], nil
	}
	return template.Load(path)
}

func printDispatcher() capture.Dispatcher {
	cmd := os.Getenv("STENCIL_PRINT_CMD")
	if cmd == "" {
		cmd = "lp"
	}
	parts := strings.Fields(cmd)
	return &capture.CommandDispatcher{Command: parts[0], Args: parts[1:]}
}

func writeArtifact(log *logrus.Logger, art *capture.Artifact, outPath string) error {
	if outPath == "" {
		outPath = art.Filename
	}
	if err := os.WriteFile(outPath, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	log.WithFields(logrus.Fields{"file": outPath, "bytes": len(art.Data)}).Info("artifact written")
	return nil
}
