// Package email delivers verification codes through SMTP, Amazon SES, or the log.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/logger"
)

const verificationSubject = "LoreDrop Verification Code"

// Sender delivers a verification code. The bool reports whether a real
// delivery happened; the log provider returns false.
type Sender interface {
	Send(ctx context.Context, to, code string) (bool, error)
}

// Message is a rendered verification email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

var htmlTemplate = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Email Verification</h2>
  <p style="color: #666; font-size: 16px;">Your LoreDrop verification code is:</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 5px; color: #007bff;">{{.Code}}</p>
  <p style="color: #666; font-size: 14px;">This code will expire in {{.Minutes}} minutes.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
</div>`))

// RenderVerification builds the message for a code valid for ttl.
func RenderVerification(from, to, code string, ttl time.Duration) (Message, error) {
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 15
	}
	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, struct {
		Code    string
		Minutes int
	}{code, minutes}); err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: verificationSubject,
		Text:    fmt.Sprintf("Your LoreDrop verification code is %s. It expires in %d minutes.", code, minutes),
		HTML:    html.String(),
	}, nil
}

// New selects the provider named in cfg.Provider.
func New(ctx context.Context, cfg config.EmailConfig, codeTTL time.Duration, logg *logger.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.EmailProviderSMTP:
		return NewSMTPSender(cfg, codeTTL)
	case config.EmailProviderSES:
		return NewSESSender(ctx, cfg, codeTTL)
	case config.EmailProviderLog, "":
		return NewLogSender(logg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
