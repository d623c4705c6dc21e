package certificate

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/jung-kurt/gofpdf"

	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
)

// RenderPDF embeds the certificate in a single page sized to the image,
// one point per pixel
func (r *Renderer) RenderPDF(spec Spec) ([]byte, error) {
	canvas, err := r.Draw(spec)
	if err != nil {
		log.Errorf("[Certificate] PDF render failed for folio %s: %v", spec.Folio, err)
		return nil, apperr.Render(err)
	}

	var img bytes.Buffer
	if err := imaging.Encode(&img, canvas, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, apperr.Render(fmt.Errorf("encode jpeg: %w", err))
	}

	w := float64(canvas.Bounds().Dx())
	h := float64(canvas.Bounds().Dy())
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(Title+" "+spec.Folio, true)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("certificado", opts, &img)
	pdf.ImageOptions("certificado", 0, 0, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		log.Errorf("[Certificate] PDF output failed for folio %s: %v", spec.Folio, err)
		return nil, apperr.Render(fmt.Errorf("write pdf: %w", err))
	}
	return out.Bytes(), nil
}
