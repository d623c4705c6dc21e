package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
)

const notFoundMessage = "Certificado no encontrado"

// ErrorHandler renders every returned error as {"error": message}. Causes are
// logged, never sent.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperr.As(err); ok {
		if appErr.Err != nil {
			log.Errorf("[API] %s %s: %v", c.Method(), c.Path(), appErr)
		}
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"error": appErr.Message})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	log.Errorf("[API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error interno del servidor"})
}

// paramID reads a positive integer route parameter. Anything else is a 404
// like an unknown id.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(notFoundMessage)
	}
	return uint(id), nil
}

// ClientIP returns the caller address, preferring proxy headers
func ClientIP(c *fiber.Ctx) string {
	if cf := strings.TrimSpace(c.Get("CF-Connecting-IP")); cf != "" {
		return cf
	}
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		return real
	}
	return strings.TrimPrefix(c.IP(), "::ffff:")
}

// attachmentName keeps file names header safe
func attachmentName(prefix, value, ext string) string {
	name := strings.ReplaceAll(strings.TrimSpace(value), " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '/' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, name)
	return prefix + name + ext
}
