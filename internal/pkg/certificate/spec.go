// Package certificate renders donation certificates: template resolution,
// text layout and PNG/PDF encoding.
package certificate

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Spec is everything needed to draw one certificate. It is built either from
// a fresh payment or from persisted rows, and both paths must agree.
type Spec struct {
	TitularName     string  `json:"nombre_titular"`
	BeneficiaryName string  `json:"nombre_beneficiario"`
	Email           string  `json:"email"`
	Message         string  `json:"mensaje"`
	CertificateName string  `json:"certificado_nombre"`
	Quantity        int     `json:"cantidad"`
	Amount          float64 `json:"monto"`
	DateLabel       string  `json:"fecha"`
	Folio           string  `json:"folio"`
	TemplateRef     string  `json:"plantilla"`
}

// ShowsBeneficiary reports whether the "A nombre de" block is drawn
func (s Spec) ShowsBeneficiary() bool {
	return s.BeneficiaryName != "" && s.BeneficiaryName != s.TitularName
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDateLabel renders t as "15 de enero, 2024"
func FormatDateLabel(t time.Time) string {
	return fmt.Sprintf("%02d de %s, %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// FormatAmount renders 5000 as "5,000.00"
func FormatAmount(amount float64) string {
	// Printer buffers internally, so one per call
	return message.NewPrinter(language.English).Sprintf("%.2f", amount)
}

// AmountLine is the quantity and price line printed under the title
func AmountLine(quantity int, amount float64) string {
	return fmt.Sprintf("Cantidad: %d | Monto: $%s MXN", quantity, FormatAmount(amount))
}
