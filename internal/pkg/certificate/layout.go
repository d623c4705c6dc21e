package certificate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Title is printed centered on every certificate
const Title = "CERTIFICADO DE DONACIÓN"

// Layout constants. Positions are the top-left corner of each text run.
const (
	titleY        = 150
	folioY        = 100
	folioMargin   = 50
	leftX         = 150
	grantedLabelY = 300
	titularY      = 345
	onBehalfY     = 430
	beneficiaryY  = 475
	certificateY  = 570
	amountY       = 630
	messageY      = 720
	messagePitch  = 50
	dateY         = 950
)

var (
	colorTitle       = hexColor(0x2c, 0x3e, 0x50)
	colorFolio       = hexColor(0x38, 0xab, 0x82)
	colorFolioStroke = hexColor(0x54, 0x54, 0x54)
	colorLabel       = hexColor(0x34, 0x49, 0x5e)
	colorTitular     = hexColor(0x32, 0x85, 0x31)
	colorOnBehalf    = hexColor(0x20, 0x49, 0x56)
	colorBeneficiary = hexColor(0x29, 0x80, 0xb9)
	colorMessage     = hexColor(0x05, 0x45, 0x70)
)

func hexColor(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// Layout draws every text element of spec onto canvas
func Layout(canvas draw.Image, spec Spec, faces map[Role]font.Face) {
	width := canvas.Bounds().Dx()

	title := faces[RoleTitle]
	drawText(canvas, title, (width-textWidth(title, Title))/2, titleY, Title, colorTitle)

	if spec.Folio != "" {
		folio := faces[RoleFolio]
		x := width - textWidth(folio, spec.Folio) - folioMargin
		drawStrokedText(canvas, folio, x, folioY, spec.Folio, colorFolio, colorFolioStroke)
	}

	text := faces[RoleText]
	name := faces[RoleName]
	drawText(canvas, text, leftX, grantedLabelY, "Otorgado a:", colorLabel)
	drawText(canvas, name, leftX, titularY, spec.TitularName, colorTitular)

	if spec.ShowsBeneficiary() {
		drawText(canvas, text, leftX, onBehalfY, "A nombre de:", colorOnBehalf)
		drawText(canvas, name, leftX, beneficiaryY, spec.BeneficiaryName, colorBeneficiary)
	}

	drawText(canvas, text, leftX, certificateY, "Certificado: "+spec.CertificateName, colorLabel)
	drawText(canvas, text, leftX, amountY, AmountLine(spec.Quantity, spec.Amount), colorLabel)

	if spec.Message != "" {
		y := messageY
		for _, line := range WrapText(spec.Message, MessageWidth) {
			drawText(canvas, faces[RoleMessage], leftX, y, line, colorMessage)
			y += messagePitch
		}
	}

	drawText(canvas, text, leftX, dateY, "Fecha: "+spec.DateLabel, colorLabel)
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawText places s with its ascent line at y
func drawText(dst draw.Image, face font.Face, x, y int, s string, c color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

// drawStrokedText draws a one pixel outline in stroke and the text in fill on top
func drawStrokedText(dst draw.Image, face font.Face, x, y int, s string, fill, stroke color.Color) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawText(dst, face, x+dx, y+dy, s, stroke)
		}
	}
	drawText(dst, face, x, y, s, fill)
}
