package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
)

// PaymentItem is one purchased certificate line
type PaymentItem struct {
	CertificateTypeID *uint   `json:"certificado_id"`
	Name              string  `json:"nombre" validate:"required"`
	Price             float64 `json:"precio" validate:"gte=0"`
	Quantity          int     `json:"cantidad" validate:"required,gt=0"`
	BeneficiaryName   string  `json:"nombre_beneficiario"`
	Message           string  `json:"mensaje"`
}

// PaymentRequest is the body of a payment
type PaymentRequest struct {
	PayerName string        `json:"nombre_titular" validate:"required"`
	Email     string        `json:"email" validate:"required,email"`
	Items     []PaymentItem `json:"items" validate:"required,min=1,dive"`
}

// IssuedCertificate is one persisted line and the spec to draw it
type IssuedCertificate struct {
	DetailID    uint             `json:"detalle_id"`
	GeneratedID uint             `json:"cert_gen_id"`
	Spec        certificate.Spec `json:"datos"`
}

// PaymentResult has what the caller needs to render the first certificate
// without another query
type PaymentResult struct {
	DonationID   uint                `json:"donacion_id"`
	Folio        string              `json:"folio"`
	Total        float64             `json:"total"`
	Certificates []IssuedCertificate `json:"certificados"`
}

// Validate checks the request and returns a validation error naming the first bad field
func (l *Ledger) Validate(req *PaymentRequest) error {
	if err := l.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(fmt.Sprintf("Campo inválido: %s", fieldName(verrs[0])))
		}
		return apperr.Validation("Datos inválidos")
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

// Total sums price times quantity in cents
func Total(items []PaymentItem) float64 {
	var cents int64
	for _, item := range items {
		cents += models.AmountToCents(item.Price) * int64(item.Quantity)
	}
	return models.CentsToAmount(cents)
}

// LineFolios derives one folio per item: folio plus the type id or GEN.
// Repeats inside the same donation get an ordinal suffix.
func LineFolios(folio string, items []PaymentItem) []string {
	seen := make(map[string]int, len(items))
	out := make([]string, len(items))
	for i, item := range items {
		segment := genericTypeSegment
		if item.CertificateTypeID != nil {
			segment = strconv.FormatUint(uint64(*item.CertificateTypeID), 10)
		}
		base := folio + "-" + segment
		seen[base]++
		if n := seen[base]; n > 1 {
			out[i] = fmt.Sprintf("%s-%d", base, n)
		} else {
			out[i] = base
		}
	}
	return out
}

// RecordPayment validates the request and writes the donation, its details
// and their generated records as one unit
func (l *Ledger) RecordPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if err := l.Validate(req); err != nil {
		return nil, err
	}

	now := l.now().Truncate(time.Second)
	folio := NewFolio(now, l.folioSuffix())
	lineFolios := LineFolios(folio, req.Items)

	donation := &models.Donation{
		PayerName: req.PayerName,
		Email:     req.Email,
		Total:     Total(req.Items),
		Date:      now,
		Status:    models.DonationStatusCompleted,
		Folio:     folio,
		Details:   make([]models.DonationDetail, 0, len(req.Items)),
	}

	for i, item := range req.Items {
		template, err := l.resolveTemplate(ctx, item.CertificateTypeID)
		if err != nil {
			return nil, err
		}
		beneficiary := item.BeneficiaryName
		if beneficiary == "" {
			beneficiary = req.PayerName
		}
		donation.Details = append(donation.Details, models.DonationDetail{
			CertificateTypeID: item.CertificateTypeID,
			Quantity:          item.Quantity,
			UnitPrice:         item.Price,
			CertificateName:   item.Name,
			BeneficiaryName:   beneficiary,
			Message:           item.Message,
			LineFolio:         lineFolios[i],
			Template:          template,
			Generated: &models.GeneratedCertificate{
				DonorName:       req.PayerName,
				DonorEmail:      req.Email,
				BeneficiaryName: beneficiary,
				Message:         item.Message,
			},
		})
	}

	if err := l.donations.CreateWithDetails(ctx, donation); err != nil {
		log.Errorf("[Ledger] Failed to record donation %s: %v", folio, err)
		return nil, apperr.Persistence(err)
	}

	result := &PaymentResult{
		DonationID:   donation.ID,
		Folio:        folio,
		Total:        donation.Total,
		Certificates: make([]IssuedCertificate, 0, len(donation.Details)),
	}
	for i := range donation.Details {
		detail := &donation.Details[i]
		result.Certificates = append(result.Certificates, IssuedCertificate{
			DetailID:    detail.ID,
			GeneratedID: detail.Generated.ID,
			Spec:        BuildSpec(donation, detail, detail.Template),
		})
	}

	log.Infof("[Ledger] Recorded donation %s (id=%d, lines=%d, total=%.2f)", folio, donation.ID, len(donation.Details), donation.Total)
	return result, nil
}

// resolveTemplate snapshots the template for a line from the current
// catalog. Unknown type ids fall through to the profile default; types
// withdrawn from the catalog can no longer be bought.
func (l *Ledger) resolveTemplate(ctx context.Context, typeID *uint) (string, error) {
	if typeID == nil {
		return l.profile.TemplateRef("", nil), nil
	}
	certType, err := l.types.GetByID(ctx, *typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return l.profile.TemplateRef("", typeID), nil
		}
		return "", apperr.Persistence(fmt.Errorf("load certificate type %d: %w", *typeID, err))
	}
	if !certType.Active {
		return "", apperr.Validation(fmt.Sprintf("El certificado %q ya no está disponible", certType.Name))
	}
	return l.profile.TemplateRef(certType.ImageURL, typeID), nil
}
