package certificate

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/skip2/go-qrcode"
)

const qrMargin = 50

// drawQRCode stamps a verification code for content in the bottom right corner
func drawQRCode(canvas draw.Image, content string, size int) error {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr code: %w", err)
	}
	code.DisableBorder = true
	qr := code.Image(size)

	b := canvas.Bounds()
	offset := image.Pt(b.Max.X-qr.Bounds().Dx()-qrMargin, b.Max.Y-qr.Bounds().Dy()-qrMargin)
	draw.Draw(canvas, qr.Bounds().Add(offset), qr, image.Point{}, draw.Over)
	return nil
}
