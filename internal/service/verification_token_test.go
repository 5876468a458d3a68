package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerificationToken_RoundTrip(t *testing.T) {
	svc := NewVerificationTokenService("secret")
	token, err := svc.Issue(" a@x.com ")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	email, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "a@x.com" {
		t.Fatalf("expected a@x.com, got %q", email)
	}
}

func TestVerificationToken_Expiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewVerificationTokenService("secret")
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(24*time.Hour - time.Second) }
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected valid before 24h, got %v", err)
	}

	svc.now = func() time.Time { return issued.Add(24*time.Hour + time.Second) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerificationToken_TamperedBytes(t *testing.T) {
	svc := NewVerificationTokenService("secret")
	token, err := svc.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		b := []byte(token)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		if _, err := svc.Verify(string(b)); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("byte %d: expected ErrTokenInvalid, got %v", i, err)
		}
	}
}

func TestVerificationToken_Rejects(t *testing.T) {
	svc := NewVerificationTokenService("secret")

	other, _ := NewVerificationTokenService("other").Issue("a@x.com")
	wrongPurpose, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, verificationClaims{
		Purpose: "password-reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "a@x.com",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}).SignedString([]byte("secret"))

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"wrong secret":  other,
		"wrong purpose": wrongPurpose,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}
