package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"studycards/internal/kv"
)

// RefreshTokenStore guarda jti para refresh tokens y permite revocarlos.
type RefreshTokenStore interface {
	Store(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

type kvRefreshTokenStore struct {
	store  kv.Store
	prefix string
}

// NewRefreshTokenStore guarda los jti en el kv.Store dado (memoria o Redis).
func NewRefreshTokenStore(store kv.Store) RefreshTokenStore {
	if store == nil {
		return nil
	}
	return &kvRefreshTokenStore{
		store:  store,
		prefix: "auth:refresh:",
	}
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return NewRefreshTokenStore(kv.NewMemoryStore())
}

func (s *kvRefreshTokenStore) Store(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return s.store.Set(ctx, s.prefix+jti, strconv.FormatInt(userID, 10), ttl)
}

func (s *kvRefreshTokenStore) Exists(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	_, ok, err := s.store.Get(ctx, s.prefix+jti)
	return ok, err
}

func (s *kvRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	return s.store.Delete(ctx, s.prefix+jti)
}
