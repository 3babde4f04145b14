package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TokenPolicy controls whether requesting a new one-time code invalidates
// the previous one.
type TokenPolicy string

const (
	// TokenPolicyAllowMany keeps every issued code active until redeemed
	// or expired.
	TokenPolicyAllowMany TokenPolicy = "allow-many"
	// TokenPolicySingleActive deletes prior codes of the same purpose
	// when a new one is issued.
	TokenPolicySingleActive TokenPolicy = "single-active"
)

type Config struct {
	ServerPort string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret  string
	SessionTTL time.Duration

	ConfirmTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	TokenPolicy     TokenPolicy

	// MaskForbidden reports authorization failures on projects and tasks
	// as 404 instead of 403, so callers cannot probe which entities exist.
	MaskForbidden bool

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; a missing file is not an error.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseDriver:  getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 180*24*time.Hour),
		ConfirmTokenTTL: getEnvDuration("CONFIRM_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:   getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute),
		TokenPolicy:     TokenPolicy(getEnv("TOKEN_POLICY", string(TokenPolicyAllowMany))),
		MaskForbidden:   getEnvBool("MASK_FORBIDDEN", true),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		MailFrom:        getEnv("MAIL_FROM", "no-reply@project-tracker.local"),
	}

	if cfg.DatabaseDSN == "" {
		// assemble from the discrete POSTGRES_* variables
		cfg.DatabaseDSN = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"), os.Getenv("POSTGRES_DB"),
			getEnv("POSTGRES_PORT", "5432"))
	}

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch cfg.TokenPolicy {
	case TokenPolicyAllowMany, TokenPolicySingleActive:
	default:
		return nil, fmt.Errorf("TOKEN_POLICY must be %q or %q",
			TokenPolicyAllowMany, TokenPolicySingleActive)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
