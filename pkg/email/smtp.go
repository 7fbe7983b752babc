package email

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/loredrop/campus-backend/pkg/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender relays through an authenticated SMTP server. STARTTLS is
// negotiated by net/smtp when the server offers it.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	codeTTL  time.Duration
	sendMail sendMailFunc
}

func NewSMTPSender(cfg config.EmailConfig, codeTTL time.Duration) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		return nil, errors.New("smtp user and password are required")
	}
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:     smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost),
		from:     from,
		codeTTL:  codeTTL,
		sendMail: smtp.SendMail,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, code string) (bool, error) {
	msg, err := RenderVerification(s.from, to, code, s.codeTTL)
	if err != nil {
		return false, err
	}
	raw, err := mimeMessage(msg)
	if err != nil {
		return false, err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.addr, s.auth, s.from, []string{to}, raw)
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-done:
		if err != nil {
			return false, fmt.Errorf("smtp send: %w", err)
		}
		return true, nil
	}
}

func mimeMessage(msg Message) ([]byte, error) {
	boundaryBytes := make([]byte, 12)
	if _, err := rand.Read(boundaryBytes); err != nil {
		return nil, err
	}
	boundary := hex.EncodeToString(boundaryBytes)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String()), nil
}
