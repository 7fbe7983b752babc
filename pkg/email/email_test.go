package email

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/logger"
)

func TestRenderVerification(t *testing.T) {
	msg, err := RenderVerification("noreply@loredrop.com", "asha@iitk.ac.in", "042917", 15*time.Minute)
	if err != nil {
		t.Fatalf("RenderVerification: %v", err)
	}
	if !strings.Contains(msg.HTML, "042917") || !strings.Contains(msg.Text, "042917") {
		t.Fatal("rendered message must contain the code")
	}
	if !strings.Contains(msg.HTML, "15 minutes") {
		t.Fatalf("expected expiry hint in html: %s", msg.HTML)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "email-test", Output: io.Discard})
	sender, err := New(context.Background(), config.EmailConfig{Provider: config.EmailProviderLog}, time.Minute, logg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := sender.(*LogSender); !ok {
		t.Fatalf("expected log sender, got %T", sender)
	}
	if _, err := New(context.Background(), config.EmailConfig{Provider: "fax"}, time.Minute, logg); err == nil {
		t.Fatal("expected unknown provider to fail")
	}
	if _, err := New(context.Background(), config.EmailConfig{Provider: config.EmailProviderSMTP, SMTPHost: "smtp.example"}, time.Minute, logg); err == nil {
		t.Fatal("expected smtp without credentials to fail")
	}
}

func TestLogSenderReportsNotDelivered(t *testing.T) {
	delivered, err := NewLogSender(nil).Send(context.Background(), "a@iitk.ac.in", "123456")
	if err != nil || delivered {
		t.Fatalf("expected undelivered without error, got %v %v", delivered, err)
	}
}

func TestSMTPSenderSends(t *testing.T) {
	sender, err := NewSMTPSender(config.EmailConfig{
		SMTPHost: "smtp.example", SMTPPort: 587, SMTPUser: "bot@example", SMTPPassword: "pw", From: "noreply@loredrop.com",
	}, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	var gotAddr string
	var gotBody []byte
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotBody = msg
		return nil
	}

	delivered, err := sender.Send(context.Background(), "asha@iitk.ac.in", "123456")
	if err != nil || !delivered {
		t.Fatalf("expected delivery, got %v %v", delivered, err)
	}
	if gotAddr != "smtp.example:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if !strings.Contains(string(gotBody), "Subject: "+verificationSubject) {
		t.Fatal("missing subject header")
	}

	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
	if delivered, err := sender.Send(context.Background(), "asha@iitk.ac.in", "123456"); err == nil || delivered {
		t.Fatalf("expected smtp failure, got %v %v", delivered, err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func TestSESSenderBuildsInput(t *testing.T) {
	api := &fakeSES{}
	sender := &SESSender{client: api, from: "noreply@loredrop.com", codeTTL: 15 * time.Minute}

	delivered, err := sender.Send(context.Background(), "asha@iitk.ac.in", "654321")
	if err != nil || !delivered {
		t.Fatalf("expected delivery, got %v %v", delivered, err)
	}
	if api.input.Destination.ToAddresses[0] != "asha@iitk.ac.in" {
		t.Fatalf("unexpected recipients %v", api.input.Destination.ToAddresses)
	}
	if !strings.Contains(*api.input.Content.Simple.Body.Html.Data, "654321") {
		t.Fatal("html body must contain the code")
	}

	api.err = errors.New("throttled")
	if _, err := sender.Send(context.Background(), "asha@iitk.ac.in", "654321"); err == nil {
		t.Fatal("expected ses error")
	}
}
