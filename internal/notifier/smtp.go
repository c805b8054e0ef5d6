package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrwillibald/nuliga-helper/internal/config"
)

// implicitTLSPort is the SMTP submission port that expects TLS from the
// first byte. Every other port is upgraded with STARTTLS.
const implicitTLSPort = 465

// SMTPMailer sends mail through an authenticated SMTP server
type SMTPMailer struct {
	host    string
	port    int
	account config.Account
	now     func() time.Time
}

// NewSMTPMailer creates a mailer that sends from account
func NewSMTPMailer(host string, port int, account config.Account) *SMTPMailer {
	return &SMTPMailer{
		host:    host,
		port:    port,
		account: account,
		now:     time.Now,
	}
}

// Send delivers m
func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	msg, err := s.buildMessage(m)
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.account.Login(), s.account.Password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication: %w", err)
	}

	if err := client.Mail(s.account.Address); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(m.ToAddr); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", m.ToAddr, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing DATA: %w", err)
	}

	return client.Quit()
}

func (s *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	tlsConfig := &tls.Config{ServerName: s.host}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if s.port == implicitTLSPort {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}

	if s.port != implicitTLSPort {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS: %w", err)
		}
	}
	return client, nil
}

// buildMessage renders m as a quoted-printable UTF-8 text message
func (s *SMTPMailer) buildMessage(m Mail) ([]byte, error) {
	if m.ToAddr == "" {
		return nil, fmt.Errorf("mail has no recipient")
	}

	from := mail.Address{Name: s.account.Name, Address: s.account.Address}
	to := mail.Address{Name: m.ToName, Address: m.ToAddr}

	domain := "localhost"
	if _, d, ok := strings.Cut(s.account.Address, "@"); ok {
		domain = d
	}

	var buf bytes.Buffer
	headers := [][2]string{
		{"From", from.String()},
		{"To", to.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", s.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h[0], h[1])
	}
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}

	return buf.Bytes(), nil
}
