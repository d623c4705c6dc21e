// Package notify hands rendered certificates to background delivery.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CertiFox/internal/pkg/mail"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notification dispatcher is closed")
)

// Notification is one certificate email to deliver
type Notification struct {
	Email string
	Name  string
	Folio string
	Image []byte
}

// Dispatcher accepts notifications without waiting for delivery
type Dispatcher interface {
	Submit(ctx context.Context, n Notification) error
	Stats(ctx context.Context) (Stats, error)
	Close()
}

// Stats describes the delivery backlog. Counters reset with the process for
// the local backend and live in redis for the queue backend.
type Stats struct {
	Backend   string `json:"backend"`
	Pending   int64  `json:"pendientes"`
	InFlight  int64  `json:"en_proceso"`
	Scheduled int64  `json:"reintentos_programados"`
	Delivered int64  `json:"entregados"`
	Failed    int64  `json:"fallidos"`
	Retried   int64  `json:"reintentos"`
}

// Archiver stores a copy of the delivered certificate
type Archiver interface {
	Store(ctx context.Context, folio string, at time.Time, png []byte) (string, error)
}

// Deliverer sends the email and archives the image when an archiver is set
type Deliverer struct {
	Mailer   mail.Mailer
	Archiver Archiver
	now      func() time.Time
}

func NewDeliverer(m mail.Mailer, a Archiver) *Deliverer {
	return &Deliverer{Mailer: m, Archiver: a, now: time.Now}
}

// Deliver sends synchronously. Archive failures are logged and do not fail delivery.
func (d *Deliverer) Deliver(ctx context.Context, n Notification) error {
	msg := mail.CertificateMessage(n.Email, n.Name, n.Folio, n.Image)
	if err := d.Mailer.Send(ctx, msg); err != nil {
		return apperr.Notification(err)
	}

	if d.Archiver != nil {
		if key, err := d.Archiver.Store(ctx, n.Folio, d.now(), n.Image); err != nil {
			log.Warnf("[Notify] Archive of %s failed: %v", n.Folio, err)
		} else {
			log.Debugf("[Notify] Archived %s as %s", n.Folio, key)
		}
	}
	return nil
}
