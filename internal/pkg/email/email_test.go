package email

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDeliverRendersAndSends(t *testing.T) {
	s := NewEmailService(SMTPConfig{
		Username:  "user",
		Password:  "pass",
		FromName:  "AlumNet",
		FromEmail: "noreply@example.com",
		ClientURL: "https://alumnet.example.com/",
	}, zerolog.Nop())

	var to string
	var sent []byte
	s.send = func(toEmail string, message []byte) error {
		to, sent = toEmail, message
		return nil
	}

	if err := s.SendOTPEmail("jane@example.com", "Jane <admin>", "123456"); err != nil {
		t.Fatalf("SendOTPEmail: %v", err)
	}
	body := string(sent)
	if to != "jane@example.com" {
		t.Errorf("recipient = %q", to)
	}
	for _, want := range []string{"Subject: Your AlumNet password reset code", "123456", "Jane &lt;admin&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q", want)
		}
	}

	if err := s.SendApprovalEmail("jane@example.com", "Jane"); err != nil {
		t.Fatalf("SendApprovalEmail: %v", err)
	}
	if !strings.Contains(string(sent), "https://alumnet.example.com/login") {
		t.Error("approval email missing login link")
	}
}

func TestDeliverSkipsWhenDisabled(t *testing.T) {
	s := NewEmailService(SMTPConfig{Username: "u", Password: "p", Disabled: true}, zerolog.Nop())
	s.send = func(string, []byte) error {
		t.Fatal("send called while disabled")
		return nil
	}
	if err := s.SendDeletionEmail("a@b.c", "A"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
