package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studycards")
	t.Setenv("SECRET_KEY", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Fatalf("expected default backend timeout 10s, got %v", cfg.BackendTimeout)
	}
	if cfg.AuthProviderEnabled() {
		t.Fatalf("expected auth provider disabled without credentials")
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studycards")
	t.Setenv("SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when SECRET_KEY is empty")
	}
}

func TestLoadConfig_AuthProvider(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studycards")
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("AUTH_PROVIDER_URL", "https://project.supabase.co")
	t.Setenv("AUTH_PROVIDER_KEY", "anon-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AuthProviderEnabled() {
		t.Fatalf("expected auth provider enabled")
	}
}
