package email

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildMessage_HTMLHeaders(t *testing.T) {
	msg := buildMessage("noreply@example.com", "Study Cards", "user@example.com", "Verify Your Email", "<h1>Hi</h1>")

	for _, want := range []string{
		"From: Study Cards <noreply@example.com>\r\n",
		"To: user@example.com\r\n",
		"Subject: Verify Your Email\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected message to contain %q, got %q", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<h1>Hi</h1>") {
		t.Fatalf("expected body after blank line, got %q", msg)
	}
}

func TestBuildMessage_NoFromName(t *testing.T) {
	msg := buildMessage("noreply@example.com", " ", "user@example.com", "s", "b")
	if !strings.HasPrefix(msg, "From: noreply@example.com\r\n") {
		t.Fatalf("expected bare from header, got %q", msg)
	}
}

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "from@example.com", "", false); err == nil {
		t.Fatalf("expected error for missing host")
	}
	if _, err := NewSMTPSender("smtp.example.com", 587, "", "", "", "", false); err == nil {
		t.Fatalf("expected error for missing from")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "from@example.com", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestLogSender_LogsContent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))

	if err := sender.Send(context.Background(), "user@example.com", "Subject", "<p>body</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	entries := logs.FilterMessage("email").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["to"] != "user@example.com" || fields["subject"] != "Subject" {
		t.Fatalf("unexpected fields: %+v", fields)
	}

	if err := sender.Send(context.Background(), "", "Subject", "body"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("not configured").Send(context.Background(), "a@b.c", "s", "b")
	if err == nil || err.Error() != "not configured" {
		t.Fatalf("expected configured reason, got %v", err)
	}
}
