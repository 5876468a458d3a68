package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestEmailRateLimiter_Window(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewEmailRateLimiter(time.Minute, 2).(*emailRateLimiter)
	l.now = func() time.Time { return current }

	if !l.Allow("a@x.com") || !l.Allow("A@x.com ") {
		t.Fatalf("expected first two hits allowed")
	}
	if l.Allow("a@x.com") {
		t.Fatalf("expected third hit denied")
	}
	if !l.Allow("b@x.com") {
		t.Fatalf("expected independent key allowed")
	}

	current = current.Add(61 * time.Second)
	if !l.Allow("a@x.com") {
		t.Fatalf("expected allow after window")
	}
	if l.Allow("   ") {
		t.Fatalf("expected empty key rejected")
	}
}

func TestRedisEmailRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisEmailRateLimiter
		if !l.Allow("user@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisEmailRateLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 3, prefix: "email:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisEmailRateLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "email:rl:"}
		if !l.Allow(" Reset:User@Example.com ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "email:rl:reset:user@example.com" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisEmailAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisEmailRateLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "email:rl:"}
		if l.Allow("user@example.com") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisEmailRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "email:rl:"}
		if !l.Allow("user@example.com") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
