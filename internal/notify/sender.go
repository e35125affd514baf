// Package notify sends order confirmation emails and runs the queue that delivers them
// outside the request path.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"store-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Sender delivers confirmation emails.
type Sender interface {
	// SendConfirmationEmail reports true only when the transport accepted the message
	// and the customer's address is among its recipients.
	SendConfirmationEmail(ctx context.Context, order *model.Order) (bool, error)
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BCC      string
	Timeout  time.Duration
}

type smtpSender struct {
	cfg       SMTPConfig
	templates *Templates
	logger    zerolog.Logger
	deliver   func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPSender creates a sender that dials the server for every message over implicit TLS.
func NewSMTPSender(cfg SMTPConfig, templates *Templates, logger zerolog.Logger) (Sender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return newSender(cfg, templates, logger, func(ctx context.Context, msg *mail.Msg) error {
		return client.DialAndSendWithContext(ctx, msg)
	}), nil
}

func newSender(cfg SMTPConfig, templates *Templates, logger zerolog.Logger, deliver func(context.Context, *mail.Msg) error) *smtpSender {
	return &smtpSender{
		cfg:       cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
		deliver:   deliver,
	}
}

func (s *smtpSender) SendConfirmationEmail(ctx context.Context, order *model.Order) (bool, error) {
	msg, err := s.buildMessage(order)
	if err != nil {
		return false, err
	}

	if err := s.deliver(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to send confirmation email")
		return false, fmt.Errorf("failed to send confirmation email: %w", err)
	}

	recipients, err := msg.GetRecipients()
	if err != nil {
		return false, fmt.Errorf("failed to read recipients: %w", err)
	}

	accepted := containsAddress(recipients, order.Details.Email)
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Bool("accepted", accepted).
		Msg("confirmation email sent")

	return accepted, nil
}

func (s *smtpSender) buildMessage(order *model.Order) (*mail.Msg, error) {
	if order.Details.Email == "" {
		return nil, fmt.Errorf("order %s has no email address", order.ID)
	}

	html, text, err := s.templates.RenderConfirmation(order)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(order.Details.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if s.cfg.BCC != "" {
		if err := msg.Bcc(s.cfg.BCC); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}
	msg.Subject(fmt.Sprintf("Order confirmation %s", shortID(order)))
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return msg, nil
}

func containsAddress(recipients []string, address string) bool {
	for _, r := range recipients {
		if strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(address)) {
			return true
		}
	}
	return false
}

func shortID(order *model.Order) string {
	return strings.ToUpper(order.ID.String()[:8])
}
