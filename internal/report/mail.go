package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
)

// MailConfig is the SMTP relay used for report e-mails.
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
	// Timeout bounds one delivery, from dial to QUIT. Zero means DefaultMailTimeout.
	Timeout time.Duration
}

const DefaultMailTimeout = 30 * time.Second

var headerReplacer = strings.NewReplacer("\r\n", "", "\r", "", "\n", "", "%0a", "", "%0d", "")

// MailEmitter sends the report as a plain text e-mail. Without credentials it
// talks to the relay unauthenticated.
type MailEmitter struct {
	cfg MailConfig
	now func() time.Time
}

func NewMailEmitter(cfg MailConfig) *MailEmitter {
	return &MailEmitter{cfg: cfg, now: time.Now}
}

func (m *MailEmitter) Emit(ctx context.Context, r birthday.Report) error {
	if len(m.cfg.To) == 0 {
		return fmt.Errorf("mail report: no recipients")
	}
	if err := m.send(ctx, m.compose(r)); err != nil {
		return fmt.Errorf("mail report: %w", err)
	}
	return nil
}

func (m *MailEmitter) send(ctx context.Context, msg []byte) error {
	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(m.cfg.Host, m.cfg.Port))
	if err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	if m.cfg.Username != "" || m.cfg.Password != "" {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return err
			}
		}
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(headerReplacer.Replace(m.cfg.From)); err != nil {
		return err
	}
	for _, to := range m.cfg.To {
		if err := c.Rcpt(headerReplacer.Replace(to)); err != nil {
			return err
		}
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *MailEmitter) compose(r birthday.Report) []byte {
	to := make([]string, len(m.cfg.To))
	for i, addr := range m.cfg.To {
		to[i] = headerReplacer.Replace(addr)
	}
	body := strings.ReplaceAll(r.Summary(), "\n", "\r\n")

	return []byte("To: " + strings.Join(to, ",") + "\r\n" +
		"From: " + headerReplacer.Replace(m.cfg.From) + "\r\n" +
		"Subject: " + headerReplacer.Replace(r.Subject()) + "\r\n" +
		"Date: " + m.now().Format(time.RFC1123Z) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" + body + "\r\n")
}
