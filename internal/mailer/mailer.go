// Package mailer sends booking emails over SMTP.
//
// Any SMTP relay works; for development Mailtrap (smtp.mailtrap.io, port 2525)
// is a convenient sink that never delivers to real inboxes.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// DefaultTimeout bounds a send whose context carries no deadline.
const DefaultTimeout = 30 * time.Second

// Sender defines the interface for sending a single email. Implementations
// must return once ctx is done.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Config contains the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// sendFunc is smtp.SendMail with a context.
type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg  Config
	send sendFunc
}

// New creates an SMTPMailer. Host and From are required; credentials are
// optional for relays that accept unauthenticated mail.
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTPMailer{cfg: cfg, send: sendMail}, nil
}

// Send sends body to recipient. The Content-Type is text/html when body looks
// like HTML and text/plain otherwise.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" || m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	msg := buildMessage(m.cfg.From, recipient, subject, body)
	if err := m.send(ctx, addr, auth, m.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendMail follows smtp.SendMail but puts the whole exchange under a deadline,
// so a relay that accepts the connection and then goes silent cannot hold the
// caller.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	// Cancellation before the deadline unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		conn.Close()
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(sender, recipient, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, sender, subject, contentType, body))
}
