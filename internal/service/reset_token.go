package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studycards/internal/kv"
)

var (
	ErrResetTokenInvalid = errors.New("reset token invalid")
	ErrResetTokenExpired = errors.New("reset token expired")
)

const (
	resetTokenTTL = time.Hour
	// resetTokenGrace mantiene la entrada tras expirar para distinguir expirado de desconocido.
	resetTokenGrace = 24 * time.Hour
	resetKeyPrefix  = "auth:reset:"
)

type resetEntry struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetTokenService emite tokens aleatorios de un solo uso para reset de password.
type ResetTokenService struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewResetTokenService(store kv.Store) *ResetTokenService {
	if store == nil {
		store = kv.NewMemoryStore()
	}
	return &ResetTokenService{
		store: store,
		ttl:   resetTokenTTL,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ResetTokenService) Issue(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(resetEntry{Email: email, ExpiresAt: s.now().Add(s.ttl)})
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, resetKeyPrefix+token, string(payload), s.ttl+resetTokenGrace); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Redeem valida el token sin consumirlo. Un token expirado se elimina.
func (s *ResetTokenService) Redeem(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenInvalid
	}
	raw, ok, err := s.store.Get(ctx, resetKeyPrefix+token)
	if err != nil {
		return "", fmt.Errorf("load reset token: %w", err)
	}
	if !ok {
		return "", ErrResetTokenInvalid
	}
	var entry resetEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Email == "" {
		return "", ErrResetTokenInvalid
	}
	if s.now().After(entry.ExpiresAt) {
		_ = s.store.Delete(ctx, resetKeyPrefix+token)
		return "", ErrResetTokenExpired
	}
	return entry.Email, nil
}

func (s *ResetTokenService) Consume(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, resetKeyPrefix+token)
}
