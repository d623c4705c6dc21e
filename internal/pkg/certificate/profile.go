package certificate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Role names a text style on the certificate
type Role string

const (
	RoleTitle   Role = "title"
	RoleName    Role = "name"
	RoleText    Role = "text"
	RoleMessage Role = "message"
	RoleFolio   Role = "folio"
)

var roles = []Role{RoleTitle, RoleName, RoleText, RoleMessage, RoleFolio}

// FontSpec is a font file inside the fonts directory and its point size
type FontSpec struct {
	File string
	Size float64
}

// Fallback faces used when any profile font fails to load
const (
	FallbackBasic     = "basic"
	FallbackGoRegular = "goregular"
)

// Profile versions the look and the template naming rules
type Profile struct {
	Name            string
	DefaultTemplate string
	// TypeTemplatePattern derives a per type template name from the type id,
	// empty disables the derivation
	TypeTemplatePattern string
	Fonts               map[Role]FontSpec
	Fallback            string
	QRSize              int
}

var defaultFonts = map[Role]FontSpec{
	RoleTitle:   {File: "PlayfairDisplay.ttf", Size: 60},
	RoleName:    {File: "DancingScript.ttf", Size: 60},
	RoleText:    {File: "PlayfairDisplay.ttf", Size: 30},
	RoleMessage: {File: "Abel-Regular.ttf", Size: 35},
	RoleFolio:   {File: "PlayfairDisplay.ttf", Size: 30},
}

// ProfileV1 keeps the payment route behaviour of the first release: stored
// template or the global default.
var ProfileV1 = Profile{
	Name:            "v1",
	DefaultTemplate: "plantilla_default.jpg",
	Fonts:           defaultFonts,
	Fallback:        FallbackBasic,
	QRSize:          200,
}

// ProfileV2 adds plantilla_<id>.jpg between the stored template and the default
var ProfileV2 = Profile{
	Name:                "v2",
	DefaultTemplate:     "plantilla_default.jpg",
	TypeTemplatePattern: "plantilla_%d.jpg",
	Fonts:               defaultFonts,
	Fallback:            FallbackBasic,
	QRSize:              200,
}

// ProfileByName returns the named profile, v2 for anything unknown
func ProfileByName(name string) Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "v1":
		return ProfileV1
	default:
		return ProfileV2
	}
}

// TemplateRef resolves the template reference for a line item from the
// catalog state: stored image, then the type pattern, then the default.
func (p Profile) TemplateRef(storedImage string, typeID *uint) string {
	if storedImage != "" {
		return storedImage
	}
	if typeID != nil && p.TypeTemplatePattern != "" {
		return fmt.Sprintf(p.TypeTemplatePattern, *typeID)
	}
	return p.DefaultTemplate
}

// templateFileName maps a reference such as "/static/arbol.jpg" onto a
// file name inside the template store
func templateFileName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	name := filepath.Base(filepath.FromSlash(ref))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
