package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"StockBrief/internal/domain/models"
	applogger "StockBrief/pkg/logger"

	"github.com/wneessen/go-mail"
)

func newTestMailer() *SMTP {
	return New(Config{
		Host:      "smtp.example.com",
		Port:      587,
		From:      "me@example.com",
		Password:  "app-password",
		Recipient: "you@example.com",
	}, applogger.Nop())
}

var report = models.Report{
	Subject: "Daily Stock Report - 2024-05-01",
	HTML:    "<html><body><h2>AAPL</h2></body></html>",
	Text:    "AAPL plain",
}

func TestMessageIsMultipartAlternative(t *testing.T) {
	msg, err := newTestMailer().message(report)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{
		"multipart/alternative",
		"text/plain",
		"text/html",
		"Daily Stock Report - 2024-05-01",
		"me@example.com",
		"you@example.com",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Index(raw, "text/plain") > strings.Index(raw, "text/html") {
		t.Error("html alternative should come after plain text")
	}
}

func TestSendReportsDialError(t *testing.T) {
	m := newTestMailer()
	var sent *mail.Msg
	m.dial = func(_ context.Context, _ *mail.Client, msg *mail.Msg) error {
		sent = msg
		return errors.New("535 auth failed")
	}

	err := m.Send(context.Background(), report)
	if err == nil || !strings.Contains(err.Error(), "535 auth failed") {
		t.Fatalf("expected dial error, got %v", err)
	}
	if sent == nil {
		t.Fatal("dial was not called")
	}
}

func TestSendSuccess(t *testing.T) {
	m := newTestMailer()
	m.dial = func(context.Context, *mail.Client, *mail.Msg) error { return nil }
	if err := m.Send(context.Background(), report); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestSendRejectsBadInput(t *testing.T) {
	if err := newTestMailer().Send(context.Background(), models.Report{}); err == nil {
		t.Fatal("empty report should fail")
	}

	m := New(Config{Host: "h", Port: 587, From: "not an address", Recipient: "you@example.com"}, applogger.Nop())
	if err := m.Send(context.Background(), report); err == nil {
		t.Fatal("invalid sender should fail")
	}
}
