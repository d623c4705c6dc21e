package certificate

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
)

// Config configures a Renderer
type Config struct {
	Profile      Profile
	TemplatesDir string
	FontsDir     string
	// QRBaseURL enables the verification code when set; the folio is appended
	QRBaseURL string
}

// Renderer turns a Spec into an encoded certificate. It is safe for
// concurrent use.
type Renderer struct {
	profile   Profile
	templates *TemplateStore
	fonts     *FontSet
	qrBaseURL string
	now       func() time.Time
}

func NewRenderer(cfg Config) *Renderer {
	if cfg.Profile.Name == "" {
		cfg.Profile = ProfileV2
	}
	return &Renderer{
		profile:   cfg.Profile,
		templates: NewTemplateStore(cfg.TemplatesDir, cfg.Profile.DefaultTemplate),
		fonts:     LoadFontSet(cfg.FontsDir, cfg.Profile),
		qrBaseURL: cfg.QRBaseURL,
		now:       time.Now,
	}
}

// Profile returns the rendering profile in use
func (r *Renderer) Profile() Profile {
	return r.profile
}

// Templates exposes the template store
func (r *Renderer) Templates() *TemplateStore {
	return r.templates
}

// Draw composes the certificate image without encoding it
func (r *Renderer) Draw(spec Spec) (*image.NRGBA, error) {
	if spec.DateLabel == "" {
		spec.DateLabel = FormatDateLabel(r.now())
	}

	canvas, err := r.templates.Resolve(spec.TemplateRef)
	if err != nil {
		return nil, err
	}

	faces, release, err := r.fonts.Faces()
	if err != nil {
		return nil, err
	}
	defer release()

	Layout(canvas, spec, faces)

	if r.qrBaseURL != "" && spec.Folio != "" {
		if err := drawQRCode(canvas, r.qrBaseURL+spec.Folio, r.profile.QRSize); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

// Render returns the certificate as PNG bytes. On failure no bytes are
// returned and the error is a render error.
func (r *Renderer) Render(spec Spec) ([]byte, error) {
	canvas, err := r.Draw(spec)
	if err != nil {
		log.Errorf("[Certificate] Render failed for folio %s: %v", spec.Folio, err)
		return nil, apperr.Render(err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		log.Errorf("[Certificate] PNG encoding failed for folio %s: %v", spec.Folio, err)
		return nil, apperr.Render(fmt.Errorf("encode png: %w", err))
	}
	return buf.Bytes(), nil
}

// RenderToFile writes the PNG to path and returns path. The file appears
// complete or not at all.
func (r *Renderer) RenderToFile(spec Spec, path string) (string, error) {
	data, err := r.Render(spec)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Render(fmt.Errorf("create output dir: %w", err))
	}
	tmp, err := os.CreateTemp(dir, ".certificado-*.png")
	if err != nil {
		return "", apperr.Render(fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", apperr.Render(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", apperr.Render(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return "", apperr.Render(fmt.Errorf("move certificate into place: %w", err))
	}
	return path, nil
}
