package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const DefaultMailjetEndpoint = "https://api.mailjet.com/v3.1/send"

type MailjetConfig struct {
	APIKey    string
	SecretKey string
	Endpoint  string
	Sender    Sender
	Timeout   time.Duration
}

// MailjetMailer posts to the Mailjet v3.1 send API. Only a 200 counts as sent.
type MailjetMailer struct {
	cfg MailjetConfig
}

func NewMailjetMailer(cfg MailjetConfig) *MailjetMailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultMailjetEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MailjetMailer{cfg: cfg}
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetAttachment struct {
	ContentType   string `json:"ContentType"`
	Filename      string `json:"Filename"`
	Base64Content string `json:"Base64Content"`
}

type mailjetMessage struct {
	From        mailjetAddress      `json:"From"`
	To          []mailjetAddress    `json:"To"`
	Subject     string              `json:"Subject"`
	HTMLPart    string              `json:"HTMLPart"`
	Attachments []mailjetAttachment `json:"Attachments,omitempty"`
}

type mailjetRequest struct {
	Messages []mailjetMessage `json:"Messages"`
}

func (m *MailjetMailer) payload(msg Message) mailjetRequest {
	out := mailjetMessage{
		From:     mailjetAddress{Email: m.cfg.Sender.Email, Name: m.cfg.Sender.Name},
		To:       []mailjetAddress{{Email: msg.To, Name: msg.ToName}},
		Subject:  msg.Subject,
		HTMLPart: msg.HTMLBody,
	}
	for _, a := range msg.Attachments {
		out.Attachments = append(out.Attachments, mailjetAttachment{
			ContentType:   a.ContentType,
			Filename:      a.Filename,
			Base64Content: base64.StdEncoding.EncodeToString(a.Data),
		})
	}
	return mailjetRequest{Messages: []mailjetMessage{out}}
}

func (m *MailjetMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.APIKey == "" || m.cfg.SecretKey == "" {
		return errors.New("mailjet credentials missing")
	}

	timeout := m.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(m.cfg.Endpoint)
	agent.BasicAuth(m.cfg.APIKey, m.cfg.SecretKey)
	agent.JSON(m.payload(msg))
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("mailjet request: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		log.Errorf("[Mail] Mailjet rejected message to %s: status=%d body=%s", msg.To, code, string(body))
		return fmt.Errorf("mailjet returned status %d", code)
	}
	log.Infof("[Mail] Email sent to %s via Mailjet", msg.To)
	return nil
}
