package certificate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet holds parsed fonts per role. Parsed fonts are shared; faces are
// created per render because a font.Face is not safe for concurrent use.
type FontSet struct {
	fonts    map[Role]*opentype.Font
	sizes    map[Role]float64
	basic    bool
	fallback bool
}

// LoadFontSet parses every profile font from dir. Any failure switches all
// roles to the profile fallback face.
func LoadFontSet(dir string, profile Profile) *FontSet {
	set, err := loadProfileFonts(dir, profile)
	if err == nil {
		return set
	}

	log.Warnf("[Certificate] Font loading failed, using %s fallback for all roles: %v", profile.Fallback, err)
	return fallbackFontSet(profile)
}

func loadProfileFonts(dir string, profile Profile) (*FontSet, error) {
	set := &FontSet{
		fonts: make(map[Role]*opentype.Font, len(roles)),
		sizes: make(map[Role]float64, len(roles)),
	}
	parsed := map[string]*opentype.Font{}
	for _, role := range roles {
		spec, ok := profile.Fonts[role]
		if !ok {
			return nil, fmt.Errorf("no font configured for role %s", role)
		}
		f, ok := parsed[spec.File]
		if !ok {
			data, err := os.ReadFile(filepath.Join(dir, spec.File))
			if err != nil {
				return nil, fmt.Errorf("read font %s: %w", spec.File, err)
			}
			f, err = opentype.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("parse font %s: %w", spec.File, err)
			}
			parsed[spec.File] = f
		}
		set.fonts[role] = f
		set.sizes[role] = spec.Size
	}
	return set, nil
}

func fallbackFontSet(profile Profile) *FontSet {
	set := &FontSet{basic: true, fallback: true}
	if profile.Fallback != FallbackGoRegular {
		return set
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Errorf("[Certificate] Bundled Go font unusable, using basic face: %v", err)
		return set
	}
	set.basic = false
	set.fonts = make(map[Role]*opentype.Font, len(roles))
	set.sizes = make(map[Role]float64, len(roles))
	for _, role := range roles {
		set.fonts[role] = f
		set.sizes[role] = profile.Fonts[role].Size
	}
	return set
}

// IsFallback reports whether the profile fonts could not be used
func (s *FontSet) IsFallback() bool {
	return s.fallback
}

// Faces creates one face per role for a single render
func (s *FontSet) Faces() (map[Role]font.Face, func(), error) {
	faces := make(map[Role]font.Face, len(roles))
	if s.basic {
		for _, role := range roles {
			faces[role] = basicfont.Face7x13
		}
		return faces, func() {}, nil
	}

	closeAll := func() {
		for _, face := range faces {
			_ = face.Close()
		}
	}
	for _, role := range roles {
		face, err := opentype.NewFace(s.fonts[role], &opentype.FaceOptions{
			Size:    s.sizes[role],
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create %s face: %w", role, err)
		}
		faces[role] = face
	}
	return faces, closeAll, nil
}
