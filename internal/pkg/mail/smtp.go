package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"
	gomail "github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   Sender
}

// SMTPMailer builds messages with go-mail and hands them to net/smtp
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	raw, err := buildMessage(m.cfg.Sender, msg)
	if err != nil {
		return err
	}

	if err := m.sendMail(addr, auth, m.cfg.Sender.Email, []string{msg.To}, raw); err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
		return err
	}
	log.Infof("[Mail] Email sent to %s via %s", msg.To, addr)
	return nil
}

// buildMessage renders msg as multipart/mixed with the HTML body first
func buildMessage(from Sender, msg Message) ([]byte, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(from.Name, from.Email); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from.Email, err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)

	for _, a := range msg.Attachments {
		m.AttachReadSeeker(a.Filename, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	return buf.Bytes(), nil
}
