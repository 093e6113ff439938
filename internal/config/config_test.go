package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("App.Port = %q, want %q", cfg.App.Port, "8080")
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("App.Addr() = %q, want %q", cfg.App.Addr(), "0.0.0.0:8080")
	}
	if cfg.Token.MaxTTLSeconds != 0 {
		t.Errorf("Token.MaxTTLSeconds = %d, want 0 (unbounded)", cfg.Token.MaxTTLSeconds)
	}
	if cfg.Usage.Backend != "postgres" {
		t.Errorf("Usage.Backend = %q, want %q", cfg.Usage.Backend, "postgres")
	}
	if cfg.Usage.WindowMaxDays != 90 {
		t.Errorf("Usage.WindowMaxDays = %d, want 90", cfg.Usage.WindowMaxDays)
	}
	if cfg.Auth.Enabled() {
		t.Error("Auth.Enabled() = true with no auth env set, want false")
	}
	if cfg.Credential.Configured() {
		t.Error("Credential.Configured() = true with no credential env set, want false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ID", "app-test")
	t.Setenv("APP_CERTIFICATE", "cert-test")
	t.Setenv("TOKEN_MAX_TTL_SECONDS", "86400")
	t.Setenv("USAGE_BACKEND", "redis")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_OPERATOR_KEY", "ops")
	t.Setenv("AUTH_OPERATOR_SECRET", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Credential.Configured() {
		t.Error("Credential.Configured() = false, want true")
	}
	if cfg.Token.MaxTTLSeconds != 86400 {
		t.Errorf("Token.MaxTTLSeconds = %d, want 86400", cfg.Token.MaxTTLSeconds)
	}
	if cfg.Usage.Backend != "redis" {
		t.Errorf("Usage.Backend = %q, want %q", cfg.Usage.Backend, "redis")
	}
	if !cfg.Auth.Enabled() {
		t.Error("Auth.Enabled() = false, want true")
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("TOKEN_MAX_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token.MaxTTLSeconds != 0 {
		t.Errorf("Token.MaxTTLSeconds = %d, want fallback 0", cfg.Token.MaxTTLSeconds)
	}
}
