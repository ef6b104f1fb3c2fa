// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/smtp"

	"go.uber.org/zap"
)

// Sender is what handlers depend on. *Mailer implements it.
type Sender interface {
	Send(email Email) error
}

// Mailer sends emails via SMTP. A Mailer without a host logs and drops
// messages so development setups need no SMTP server.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
		send:     smtp.SendMail,
	}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool { return m != nil && m.host != "" && m.from != "" }

// FromName returns the sender display name, used as the app name in templates.
func (m *Mailer) FromName() string {
	return m.fromName
}

// Email is one outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Send delivers email. With HTMLBody set the message is multipart/alternative.
func (m *Mailer) Send(email Email) error {
	if !m.Configured() {
		m.log.Info("mail not configured; dropping email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject))
		return nil
	}

	msg := m.build(email, randomBoundary())
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := m.send(addr, auth, m.from, []string{email.To}, msg); err != nil {
		m.log.Error("failed to send email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// SendAsync sends in a goroutine; failures are only logged.
func SendAsync(s Sender, log *zap.Logger, email Email) {
	if s == nil {
		return
	}
	go func() {
		if err := s.Send(email); err != nil {
			log.Warn("async email failed", zap.String("subject", email.Subject), zap.Error(err))
		}
	}()
}

func (m *Mailer) build(email Email, boundary string) []byte {
	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.fromName), m.from)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody == "" {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.TextBody)
		return msg.Bytes()
	}

	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	for _, part := range []struct{ ctype, body string }{
		{"text/plain", email.TextBody},
		{"text/html", email.HTMLBody},
	} {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=UTF-8\r\n\r\n", part.ctype)
		msg.WriteString(part.body)
		msg.WriteString("\r\n")
	}
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

func randomBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return "----=_Part_" + hex.EncodeToString(b)
}
