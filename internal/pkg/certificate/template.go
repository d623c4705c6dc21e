package certificate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

// Blank canvas used when neither the requested nor the default template exists
const (
	BlankWidth  = 1200
	BlankHeight = 1600
	borderInset = 50
	borderWidth = 5
)

var borderColor = color.NRGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}

// TemplateStore loads backgrounds from a directory. A missing template is
// never an error; a template that exists but cannot be decoded is.
type TemplateStore struct {
	dir             string
	defaultTemplate string
}

func NewTemplateStore(dir, defaultTemplate string) *TemplateStore {
	return &TemplateStore{dir: dir, defaultTemplate: defaultTemplate}
}

// Resolve returns a fresh drawable copy of the template for ref
func (s *TemplateStore) Resolve(ref string) (*image.NRGBA, error) {
	for _, name := range []string{templateFileName(ref), templateFileName(s.defaultTemplate)} {
		if name == "" {
			continue
		}
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat template %s: %w", name, err)
		}

		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode template %s: %w", name, err)
		}
		return imaging.Clone(img), nil
	}

	log.Warnf("[Certificate] No template found for %q, using blank canvas", ref)
	return BlankCanvas(), nil
}

// BlankCanvas is a white 1200x1600 page with a dark frame
func BlankCanvas() *image.NRGBA {
	canvas := imaging.New(BlankWidth, BlankHeight, color.White)
	src := image.NewUniform(borderColor)
	x0, y0 := borderInset, borderInset
	x1, y1 := BlankWidth-borderInset, BlankHeight-borderInset

	edges := []image.Rectangle{
		image.Rect(x0, y0, x1+1, y0+borderWidth),
		image.Rect(x0, y1-borderWidth+1, x1+1, y1+1),
		image.Rect(x0, y0, x0+borderWidth, y1+1),
		image.Rect(x1-borderWidth+1, y0, x1+1, y1+1),
	}
	for _, edge := range edges {
		draw.Draw(canvas, edge, src, image.Point{}, draw.Src)
	}
	return canvas
}
