package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a single HTML email
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers email messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(config SMTPConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: logger,
	}
}

// Send sends an HTML email. Without credentials the message is logged and dropped.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", msg.To).
			Str("subject", msg.Subject).
			Msg("SMTP credentials not configured - email not sent")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := buildMIME(s.config.FromName, s.config.FromEmail, msg)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{msg.To}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

// buildMIME renders headers and body with a stable header order
func buildMIME(fromName, fromEmail string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}
