package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global certificate controller instance
var certificateController *CertificateController

// InitializeCertificateController sets the global controller used by the router
func InitializeCertificateController(deps Dependencies) {
	certificateController = NewCertificateController(deps)
}

// GetCertificateController returns the global certificate controller instance
func GetCertificateController() *CertificateController {
	if certificateController == nil {
		panic("certificate controller not initialized")
	}
	return certificateController
}

// Adapter functions for the router

func HandleListCertificateTypes(c *fiber.Ctx) error {
	return GetCertificateController().HandleListCertificateTypes(c)
}

func HandleGetCertificateType(c *fiber.Ctx) error {
	return GetCertificateController().HandleGetCertificateType(c)
}

func HandleProcessPayment(c *fiber.Ctx) error {
	return GetCertificateController().HandleProcessPayment(c)
}

func HandleGetCertificate(c *fiber.Ctx) error {
	return GetCertificateController().HandleGetCertificate(c)
}

func HandleDonationCertificates(c *fiber.Ctx) error {
	return GetCertificateController().HandleDonationCertificates(c)
}

func HandleCertificatesByEmail(c *fiber.Ctx) error {
	return GetCertificateController().HandleCertificatesByEmail(c)
}

func HandleResendCertificate(c *fiber.Ctx) error {
	return GetCertificateController().HandleResendCertificate(c)
}

func HandleStatistics(c *fiber.Ctx) error {
	return GetCertificateController().HandleStatistics(c)
}

func HandleCheckDB(c *fiber.Ctx) error {
	return GetCertificateController().HandleCheckDB(c)
}

func HandleNotificationStatus(c *fiber.Ctx) error {
	return GetCertificateController().HandleNotificationStatus(c)
}
