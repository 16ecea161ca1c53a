package capture

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// referenceDPI maps bitmap pixels onto physical paper: 96 px per inch, the
// same density the template canvas assumes. The PDF page is sized to the
// page's native pixel dimensions so the document prints full bleed with no
// letterboxing.
const referenceDPI = 96.0

const mmPerInch = 25.4

// packagePDF wraps a rendered PNG into a single-page PDF. widthPx/heightPx
// are the page's native dimensions, not the (possibly supersampled) bitmap
// dimensions; the image is placed to cover the page exactly.
func packagePDF(pngData []byte, widthPx, heightPx float64) ([]byte, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("capture: invalid page size %.0fx%.0f", widthPx, heightPx)
	}
	widthMM := widthPx * mmPerInch / referenceDPI
	heightMM := heightPx * mmPerInch / referenceDPI

	// fpdf wants the size in portrait order and the orientation separately.
	orientation := "P"
	sizeW, sizeH := widthMM, heightMM
	if widthMM > heightMM {
		orientation = "L"
		sizeW, sizeH = heightMM, widthMM
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: sizeW, Ht: sizeH},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	doc.RegisterImageOptionsReader("page", opts, bytes.NewReader(pngData))
	doc.ImageOptions("page", 0, 0, widthMM, heightMM, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("capture: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
