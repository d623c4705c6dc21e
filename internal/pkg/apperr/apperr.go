// Package apperr is the error taxonomy shared by the ledger, the renderer
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for status mapping
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindRender       Kind = "render"
	KindPersistence  Kind = "persistence"
	KindNotification Kind = "notification"
)

// Error carries a client-facing message plus the internal cause.
// Err is logged but never sent to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a response status
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func Render(err error) *Error {
	return New(KindRender, "Error al generar el certificado", err)
}

func Persistence(err error) *Error {
	return New(KindPersistence, "Error al guardar la donación", err)
}

func Notification(err error) *Error {
	return New(KindNotification, "Error al enviar el email", err)
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
