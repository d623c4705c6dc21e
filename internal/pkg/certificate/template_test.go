package certificate

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, imaging.Save(imaging.New(w, h, c), filepath.Join(dir, name)))
}

func TestTemplateStore_UsesRequestedTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "arbol.png", 300, 200, color.NRGBA{R: 255, A: 255})
	writeTemplate(t, dir, "plantilla_default.jpg", 400, 500, color.White)

	img, err := NewTemplateStore(dir, "plantilla_default.jpg").Resolve("/static/arbol.png")
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestTemplateStore_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "plantilla_default.jpg", 400, 500, color.White)

	img, err := NewTemplateStore(dir, "plantilla_default.jpg").Resolve("plantilla_99.jpg")
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestTemplateStore_FallsBackToBlankCanvas(t *testing.T) {
	img, err := NewTemplateStore(t.TempDir(), "plantilla_default.jpg").Resolve("plantilla_99.jpg")
	require.NoError(t, err)
	assert.Equal(t, BlankWidth, img.Bounds().Dx())
	assert.Equal(t, BlankHeight, img.Bounds().Dy())

	assert.Equal(t, borderColor, img.NRGBAAt(52, 52))
	assert.Equal(t, borderColor, img.NRGBAAt(1148, 1548))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(600, 800))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(10, 10))
}

func TestTemplateStore_EmptyReference(t *testing.T) {
	img, err := NewTemplateStore(t.TempDir(), "plantilla_default.jpg").Resolve("")
	require.NoError(t, err)
	assert.Equal(t, BlankWidth, img.Bounds().Dx())
}

func TestTemplateStore_CorruptTemplateIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roto.jpg"), []byte("not an image"), 0o644))

	_, err := NewTemplateStore(dir, "plantilla_default.jpg").Resolve("roto.jpg")
	assert.Error(t, err)
}

func TestTemplateStore_ReturnsIndependentCopies(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "plantilla_default.png", 50, 50, color.White)
	store := NewTemplateStore(dir, "plantilla_default.png")

	a, err := store.Resolve("")
	require.NoError(t, err)
	a.Set(0, 0, color.Black)

	b, err := store.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, b.NRGBAAt(0, 0))
}
