package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/wneessen/go-mail"
)

// ErrMailerNotConfigured is returned when no SMTP relay is set up.
var ErrMailerNotConfigured = errors.New("mailer: no SMTP host configured")

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// MailerConfig holds the SMTP settings for SMTPMailer
type MailerConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer implements Mailer on top of an SMTP relay
type SMTPMailer struct {
	config MailerConfig
}

// NewSMTPMailer creates a mailer for the given relay. A zero Host yields a
// mailer whose every Send fails with ErrMailerNotConfigured.
func NewSMTPMailer(config MailerConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// Send delivers one message with an HTML body and, when textBody is set, a
// plain-text alternative.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if m.config.Host == "" {
		return ErrMailerNotConfigured
	}

	msg, err := m.buildMessage(to, subject, htmlBody, textBody)
	if err != nil {
		return err
	}

	client, err := m.createSMTPClient()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody, textBody string) (*mail.Msg, error) {
	if !govalidator.IsEmail(to) {
		return nil, fmt.Errorf("invalid recipient address %q", to)
	}

	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())
	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return nil, fmt.Errorf("failed to set email from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("failed to set email recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	if textBody != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, textBody)
	}
	return msg, nil
}

func (m *SMTPMailer) createSMTPClient() (*mail.Client, error) {
	options := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}

	// Local relays often run without authentication
	if m.config.Username != "" && m.config.Password != "" {
		options = append(options,
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	client, err := mail.NewClient(m.config.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}
