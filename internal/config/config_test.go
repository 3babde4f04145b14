package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DSN", "host=localhost dbname=tracker sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.SessionTTL != 180*24*time.Hour {
		t.Errorf("Expected 180d session TTL, got %v", cfg.SessionTTL)
	}
	if cfg.ConfirmTokenTTL != 7*24*time.Hour {
		t.Errorf("Expected 7d confirmation TTL, got %v", cfg.ConfirmTokenTTL)
	}
	if cfg.ResetTokenTTL != 15*time.Minute {
		t.Errorf("Expected 15m reset TTL, got %v", cfg.ResetTokenTTL)
	}
	if cfg.TokenPolicy != TokenPolicyAllowMany {
		t.Errorf("Expected allow-many policy, got %s", cfg.TokenPolicy)
	}
	if !cfg.MaskForbidden {
		t.Error("Expected MaskForbidden on by default")
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("DATABASE_DSN", "host=localhost")

	if _, err := Load(); err == nil {
		t.Error("Expected error for short JWT secret, got none")
	}
}

func TestLoad_RejectsUnknownTokenPolicy(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("TOKEN_POLICY", "whenever")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown token policy, got none")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("TOKEN_POLICY", "single-active")
	t.Setenv("MASK_FORBIDDEN", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.ServerPort)
	}
	if cfg.ResetTokenTTL != 30*time.Minute {
		t.Errorf("Expected 30m reset TTL, got %v", cfg.ResetTokenTTL)
	}
	if cfg.TokenPolicy != TokenPolicySingleActive {
		t.Errorf("Expected single-active policy, got %s", cfg.TokenPolicy)
	}
	if cfg.MaskForbidden {
		t.Error("Expected MaskForbidden off")
	}
}

func TestLoad_AssemblesDSNFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "tracker")
	t.Setenv("POSTGRES_PASSWORD", "hunter2")
	t.Setenv("POSTGRES_DB", "tracker")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := "host=db.internal user=tracker password=hunter2 dbname=tracker port=5432 sslmode=disable"
	if cfg.DatabaseDSN != want {
		t.Errorf("Expected DSN %q, got %q", want, cfg.DatabaseDSN)
	}
}
