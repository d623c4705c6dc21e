// Package ledger records payments and rebuilds certificate specs from the
// persisted rows.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
)

const (
	// DateTimeLayout is how donation timestamps appear in listings
	DateTimeLayout = "2006-01-02 15:04:05"

	genericTypeSegment = "GEN"
	notFoundMessage    = "Certificado no encontrado"
)

// Ledger is the write and read side of donations
type Ledger struct {
	types        repository.CertificateTypeRepository
	donations    repository.DonationRepository
	certificates repository.CertificateRepository
	profile      certificate.Profile
	validate     *validator.Validate
	now          func() time.Time
	folioSuffix  func() string
}

func New(repos *repository.Repositories, profile certificate.Profile) *Ledger {
	return &Ledger{
		types:        repos.CertificateType,
		donations:    repos.Donation,
		certificates: repos.Certificate,
		profile:      profile,
		validate:     validator.New(),
		now:          time.Now,
		folioSuffix:  randomFolioSuffix,
	}
}

// randomFolioSuffix is 6 uppercase hex characters of a random uuid
func randomFolioSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
}

// NewFolio builds "DON-YYYYMMDD-XXXXXX"
func NewFolio(at time.Time, suffix string) string {
	return "DON-" + at.Format("20060102") + "-" + suffix
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(notFoundMessage)
	}
	return apperr.Persistence(err)
}

// BuildSpec derives the certificate spec from a donation and one of its
// details. The payment path and the lookup path both go through here.
func BuildSpec(donation *models.Donation, detail *models.DonationDetail, templateRef string) certificate.Spec {
	beneficiary := detail.BeneficiaryName
	if beneficiary == "" {
		beneficiary = donation.PayerName
	}
	folio := detail.LineFolio
	if folio == "" {
		folio = donation.Folio
	}
	return certificate.Spec{
		TitularName:     donation.PayerName,
		BeneficiaryName: beneficiary,
		Email:           donation.Email,
		Message:         detail.Message,
		CertificateName: detail.CertificateName,
		Quantity:        detail.Quantity,
		Amount:          detail.Amount(),
		DateLabel:       certificate.FormatDateLabel(donation.Date),
		Folio:           folio,
		TemplateRef:     templateRef,
	}
}
