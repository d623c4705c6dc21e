package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
)

// FetchSpec rebuilds the spec for a detail and counts the fetch as a
// download. Every successful fetch counts, whatever the caller does with it.
func (l *Ledger) FetchSpec(ctx context.Context, detailID uint) (*certificate.Spec, error) {
	spec, _, err := l.PeekSpec(ctx, detailID)
	if err != nil {
		return nil, err
	}
	if err := l.RecordDownload(ctx, detailID); err != nil {
		return nil, err
	}
	return spec, nil
}

// PeekSpec rebuilds the spec without touching the download counter
func (l *Ledger) PeekSpec(ctx context.Context, detailID uint) (*certificate.Spec, *models.DonationDetail, error) {
	detail, err := l.certificates.GetDetail(ctx, detailID)
	if err != nil {
		return nil, nil, notFoundOr(err)
	}
	if detail.Donation == nil {
		return nil, nil, apperr.NotFound(notFoundMessage)
	}

	spec := BuildSpec(detail.Donation, detail, l.templateFor(detail))
	return &spec, detail, nil
}

// RecordDownload bumps the counter of the detail's generated record. Details
// without a generated record are left alone.
func (l *Ledger) RecordDownload(ctx context.Context, detailID uint) error {
	counted, err := l.certificates.RecordDownload(ctx, detailID, l.now())
	if err != nil {
		log.Errorf("[Ledger] Failed to record download of detail %d: %v", detailID, err)
		return apperr.Persistence(fmt.Errorf("record download: %w", err))
	}
	if !counted {
		log.Warnf("[Ledger] Detail %d has no generated certificate record", detailID)
	}
	return nil
}

// templateFor prefers the snapshot taken at payment time. Rows written
// before snapshots existed derive it from the current catalog.
func (l *Ledger) templateFor(detail *models.DonationDetail) string {
	if detail.Template != "" {
		return detail.Template
	}
	stored := ""
	if detail.CertificateType != nil {
		stored = detail.CertificateType.ImageURL
	}
	return l.profile.TemplateRef(stored, detail.CertificateTypeID)
}

// DonationCertificate is one row of a donation's certificate listing
type DonationCertificate struct {
	DetailID        uint       `json:"detalle_id"`
	CertificateName string     `json:"nombre_certificado"`
	Quantity        int        `json:"cantidad"`
	Amount          float64    `json:"monto"`
	BeneficiaryName string     `json:"nombre_beneficiario"`
	Folio           string     `json:"folio"`
	Date            string     `json:"fecha"`
	DownloadCount   int        `json:"veces_descargado"`
	LastDownloadAt  *time.Time `json:"ultima_descarga"`
	ViewURL         string     `json:"url_ver"`
	DownloadURL     string     `json:"url_descargar"`
}

// EmailCertificate is one row of the per email listing
type EmailCertificate struct {
	DonationID      uint    `json:"donacion_id"`
	DetailID        uint    `json:"detalle_id"`
	Date            string  `json:"fecha"`
	Folio           string  `json:"folio"`
	CertificateName string  `json:"certificado_nombre"`
	Quantity        int     `json:"cantidad"`
	Amount          float64 `json:"monto_total"`
	BeneficiaryName string  `json:"nombre_beneficiario"`
	DownloadCount   int     `json:"veces_descargado"`
	ViewURL         string  `json:"url_ver"`
	DownloadURL     string  `json:"url_descargar"`
}

const unspecifiedBeneficiary = "No especificado"

func viewURL(detailID uint) string {
	return fmt.Sprintf("/api/certificado/%d", detailID)
}

func downloadURL(detailID uint) string {
	return fmt.Sprintf("/api/certificado/%d?formato=download", detailID)
}

func lineFolio(detail *models.DonationDetail) string {
	if detail.LineFolio != "" {
		return detail.LineFolio
	}
	if detail.Donation != nil {
		return detail.Donation.Folio
	}
	return ""
}

func donationDate(detail *models.DonationDetail) string {
	if detail.Donation == nil {
		return ""
	}
	return detail.Donation.Date.Format(DateTimeLayout)
}

// DonationCertificates lists every certificate of a donation in purchase order
func (l *Ledger) DonationCertificates(ctx context.Context, donationID uint) ([]DonationCertificate, error) {
	details, err := l.certificates.ListByDonation(ctx, donationID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	out := make([]DonationCertificate, 0, len(details))
	for i := range details {
		d := &details[i]
		row := DonationCertificate{
			DetailID:        d.ID,
			CertificateName: d.CertificateName,
			Quantity:        d.Quantity,
			Amount:          d.Amount(),
			BeneficiaryName: d.BeneficiaryName,
			Folio:           lineFolio(d),
			Date:            donationDate(d),
			ViewURL:         viewURL(d.ID),
			DownloadURL:     downloadURL(d.ID),
		}
		if d.Generated != nil {
			row.DownloadCount = d.Generated.DownloadCount
			row.LastDownloadAt = d.Generated.LastDownloadAt
		}
		out = append(out, row)
	}
	return out, nil
}

// CertificatesByEmail lists every certificate bought with email, newest first
func (l *Ledger) CertificatesByEmail(ctx context.Context, email string) ([]EmailCertificate, error) {
	details, err := l.certificates.ListByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	out := make([]EmailCertificate, 0, len(details))
	for i := range details {
		d := &details[i]
		beneficiary := d.BeneficiaryName
		if beneficiary == "" {
			beneficiary = unspecifiedBeneficiary
		}
		row := EmailCertificate{
			DonationID:      d.DonationID,
			DetailID:        d.ID,
			Date:            donationDate(d),
			Folio:           lineFolio(d),
			CertificateName: d.CertificateName,
			Quantity:        d.Quantity,
			Amount:          d.Amount(),
			BeneficiaryName: beneficiary,
			ViewURL:         viewURL(d.ID),
			DownloadURL:     downloadURL(d.ID),
		}
		if d.Generated != nil {
			row.DownloadCount = d.Generated.DownloadCount
		}
		out = append(out, row)
	}
	return out, nil
}
