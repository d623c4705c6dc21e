// Package mail delivers certificate emails through SMTP or the Mailjet send API.
package mail

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

// Attachment is a file sent along with a message
type Attachment struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Message is one outgoing email
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer sends messages. Implementations are safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is the From identity
type Sender struct {
	Email string
	Name  string
}

// SenderFromEnv reads MAIL_DEFAULT_SENDER and MAIL_SENDER_NAME
func SenderFromEnv() Sender {
	email := env.GetEnv("MAIL_DEFAULT_SENDER", "")
	if email == "" {
		email = "no-reply@localhost"
		log.Warnf("[Mail] MAIL_DEFAULT_SENDER not set, using default sender: %s", email)
	}
	return Sender{Email: email, Name: env.GetEnv("MAIL_SENDER_NAME", "TecSalud")}
}

// NewFromEnv picks the backend named by MAIL_BACKEND: mailjet, smtp or log
func NewFromEnv() Mailer {
	sender := SenderFromEnv()
	switch strings.ToLower(env.GetEnv("MAIL_BACKEND", "log")) {
	case "mailjet":
		return NewMailjetMailer(MailjetConfig{
			APIKey:    env.GetEnv("MAILJET_API_KEY", ""),
			SecretKey: env.GetEnv("MAILJET_SECRET_KEY", ""),
			Endpoint:  env.GetEnv("MAILJET_ENDPOINT", DefaultMailjetEndpoint),
			Sender:    sender,
		})
	case "smtp":
		return NewSMTPMailer(SMTPConfig{
			Host:     env.GetEnv("SMTP_HOST", ""),
			Port:     env.GetEnv("SMTP_PORT", "587"),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			Sender:   Sender{Email: env.GetEnv("SMTP_SENDER", sender.Email), Name: sender.Name},
		})
	default:
		log.Info("[Mail] Using log mailer, no email will leave the process")
		return LogMailer{}
	}
}

// LogMailer only logs, for development
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Infof("[Mail] (log) to=%s subject=%q attachments=%d", msg.To, msg.Subject, len(msg.Attachments))
	return nil
}

// CertificateMessage builds the delivery email for one certificate.
// name comes from the payment request and is escaped for the HTML body.
func CertificateMessage(to, name, folio string, png []byte) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Tu certificado - %s", folio),
		HTMLBody: fmt.Sprintf(`<h3>Gracias por tu donación</h3>
<p>Hola %s</p>
<p>Adjunto encontrarás tu certificado.</p>
<p><strong>Folio:</strong> %s</p>`, html.EscapeString(name), html.EscapeString(folio)),
		Attachments: []Attachment{{
			ContentType: "image/png",
			Filename:    fmt.Sprintf("certificado_%s.png", folio),
			Data:        png,
		}},
	}
}
