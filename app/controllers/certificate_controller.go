package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertiFox/internal/pkg/ledger"
	"github.com/ManuelReschke/CertiFox/internal/pkg/notify"
	"github.com/ManuelReschke/CertiFox/internal/pkg/statistics"
)

// ============================================================================
// CERTIFICATE CONTROLLER - catalog, payment, lookup and resend
// ============================================================================

// CertificateController handles the donation API
type CertificateController struct {
	types      repository.CertificateTypeRepository
	ledger     *ledger.Ledger
	renderer   *certificate.Renderer
	dispatcher notify.Dispatcher
	deliverer  *notify.Deliverer
	stats      *statistics.Service
}

// Dependencies groups what the controller needs
type Dependencies struct {
	Repositories *repository.Repositories
	Ledger       *ledger.Ledger
	Renderer     *certificate.Renderer
	Dispatcher   notify.Dispatcher
	Deliverer    *notify.Deliverer
	Statistics   *statistics.Service
}

func NewCertificateController(deps Dependencies) *CertificateController {
	return &CertificateController{
		types:      deps.Repositories.CertificateType,
		ledger:     deps.Ledger,
		renderer:   deps.Renderer,
		dispatcher: deps.Dispatcher,
		deliverer:  deps.Deliverer,
		stats:      deps.Statistics,
	}
}

type certificateTypeResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Price       float64 `json:"precio"`
	ImageURL    string  `json:"imagen_url"`
}

func toCertificateTypeResponse(t *models.CertificateType) certificateTypeResponse {
	return certificateTypeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		ImageURL:    t.PublicImageURL(),
	}
}

// HandleListCertificateTypes returns the active catalog
func (cc *CertificateController) HandleListCertificateTypes(c *fiber.Ctx) error {
	types, err := cc.types.ListActive(c.UserContext())
	if err != nil {
		return apperr.Persistence(err)
	}

	out := make([]certificateTypeResponse, 0, len(types))
	for i := range types {
		out = append(out, toCertificateTypeResponse(&types[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"certificados": out})
}

// HandleGetCertificateType returns one active catalog entry
func (cc *CertificateController) HandleGetCertificateType(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	certType, err := cc.types.GetActiveByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(notFoundMessage)
		}
		return apperr.Persistence(err)
	}
	return c.Status(fiber.StatusOK).JSON(toCertificateTypeResponse(certType))
}

// HandleProcessPayment records the donation and streams the first certificate.
// Email delivery is handed off and not awaited.
func (cc *CertificateController) HandleProcessPayment(c *fiber.Ctx) error {
	var req ledger.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("Datos inválidos")
	}

	ctx := c.UserContext()
	result, err := cc.ledger.RecordPayment(ctx, &req)
	if err != nil {
		return err
	}
	cc.stats.Invalidate(ctx)
	log.Infof("[Payment] Donation %s from %s recorded with %d certificates", result.Folio, ClientIP(c), len(result.Certificates))

	first := result.Certificates[0]
	png, err := cc.renderer.Render(first.Spec)
	if err != nil {
		return err
	}

	sent := cc.submit(ctx, notify.Notification{
		Email: req.Email,
		Name:  first.Spec.BeneficiaryName,
		Folio: result.Folio,
		Image: png,
	})

	c.Set("X-Donacion-ID", strconv.FormatUint(uint64(result.DonationID), 10))
	c.Set("X-Folio", result.Folio)
	c.Set("X-Certificados", strconv.Itoa(len(result.Certificates)))
	c.Set("X-Email-Enviado", strconv.FormatBool(sent))
	c.Attachment(attachmentName("certificado_", first.Spec.BeneficiaryName, ".png"))
	return c.Status(fiber.StatusOK).Send(png)
}

func (cc *CertificateController) submit(ctx context.Context, n notify.Notification) bool {
	if cc.dispatcher == nil {
		return false
	}
	if err := cc.dispatcher.Submit(ctx, n); err != nil {
		log.Warnf("[Payment] Notification for %s not queued: %v", n.Folio, err)
		return false
	}
	return true
}

// HandleGetCertificate regenerates a certificate from the stored rows.
// formato: view (default), download, json, pdf.
func (cc *CertificateController) HandleGetCertificate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	spec, err := cc.ledger.FetchSpec(c.UserContext(), id)
	if err != nil {
		return err
	}

	switch strings.ToLower(c.Query("formato", "view")) {
	case "json":
		return c.Status(fiber.StatusOK).JSON(spec)
	case "pdf":
		pdf, err := cc.renderer.RenderPDF(*spec)
		if err != nil {
			return err
		}
		c.Attachment(attachmentName("certificado_", spec.Folio, ".pdf"))
		return c.Status(fiber.StatusOK).Send(pdf)
	case "download":
		png, err := cc.renderer.Render(*spec)
		if err != nil {
			return err
		}
		c.Attachment(attachmentName("certificado_", spec.Folio, ".png"))
		return c.Status(fiber.StatusOK).Send(png)
	default:
		png, err := cc.renderer.Render(*spec)
		if err != nil {
			return err
		}
		c.Type("png")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, attachmentName("certificado_", spec.Folio, ".png")))
		return c.Status(fiber.StatusOK).Send(png)
	}
}

// HandleDonationCertificates lists the certificates of one donation
func (cc *CertificateController) HandleDonationCertificates(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	certs, err := cc.ledger.DonationCertificates(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"donacion_id":  id,
		"certificados": certs,
	})
}

// HandleCertificatesByEmail lists every certificate bought with an email, newest first
func (cc *CertificateController) HandleCertificatesByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Params("email"))
	if email == "" {
		return apperr.Validation("Campo inválido: email")
	}

	certs, err := cc.ledger.CertificatesByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"email":              email,
		"total_certificados": len(certs),
		"certificados":       certs,
	})
}

// HandleResendCertificate renders and mails the certificate synchronously.
// Only an accepted email counts as a download.
func (cc *CertificateController) HandleResendCertificate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	spec, _, err := cc.ledger.PeekSpec(ctx, id)
	if err != nil {
		return err
	}

	png, err := cc.renderer.Render(*spec)
	if err != nil {
		return err
	}

	err = cc.deliverer.Deliver(ctx, notify.Notification{
		Email: spec.Email,
		Name:  spec.BeneficiaryName,
		Folio: spec.Folio,
		Image: png,
	})
	if err != nil {
		return err
	}

	if err := cc.ledger.RecordDownload(ctx, id); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Certificado reenviado correctamente",
	})
}

// HandleStatistics returns the donation dashboard
func (cc *CertificateController) HandleStatistics(c *fiber.Ctx) error {
	summary, err := cc.stats.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// HandleNotificationStatus reports the certificate email backlog
func (cc *CertificateController) HandleNotificationStatus(c *fiber.Ctx) error {
	stats, err := cc.dispatcher.Stats(c.UserContext())
	if err != nil {
		log.Errorf("[API] Notification stats failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Estado de notificaciones no disponible",
		})
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// HandleCheckDB reports table counts and the latest donations
func (cc *CertificateController) HandleCheckDB(c *fiber.Ctx) error {
	health, err := cc.stats.Health(c.UserContext())
	if err != nil {
		log.Errorf("[API] Database check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error",
			"error":  "No se pudo consultar la base de datos",
		})
	}
	return c.Status(fiber.StatusOK).JSON(health)
}
