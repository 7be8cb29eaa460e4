package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "ibanking/backend/libs/config"
)

// Config represents service configuration loaded from YAML/env.
// Database and Redis are optional: when unset the service runs on
// in-memory stores, which is the dev and test mode.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"PAYMENT_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"PAYMENT_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"PAYMENT_REDIS_ADDR"`
		Password string `yaml:"password" env:"PAYMENT_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"PAYMENT_REDIS_DB"`
	} `yaml:"redis"`
	JWT struct {
		Secret           string `yaml:"secret" env:"PAYMENT_JWT_SECRET"`
		ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"PAYMENT_JWT_EXPIRES_MINUTES"`
	} `yaml:"jwt"`
	OTP struct {
		TTLSeconds           int `yaml:"ttlSeconds" env:"PAYMENT_OTP_TTL_SECONDS"`
		Length               int `yaml:"length" env:"PAYMENT_OTP_LENGTH"`
		MaxAttempts          int `yaml:"maxAttempts" env:"PAYMENT_OTP_MAX_ATTEMPTS"`
		ResendLimit          int `yaml:"resendLimit" env:"PAYMENT_OTP_RESEND_LIMIT"`
		ResendSpacingSeconds int `yaml:"resendSpacingSeconds" env:"PAYMENT_OTP_RESEND_SPACING_SECONDS"`
		SweepIntervalSeconds int `yaml:"sweepIntervalSeconds" env:"PAYMENT_OTP_SWEEP_INTERVAL_SECONDS"`
	} `yaml:"otp"`
	Seed bool `yaml:"seed" env:"PAYMENT_SEED"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.JWT.ExpiresInMinutes = 60
	cfg.OTP.TTLSeconds = 120
	cfg.OTP.Length = 6
	cfg.OTP.MaxAttempts = 5
	cfg.OTP.ResendLimit = 3
	cfg.OTP.ResendSpacingSeconds = 30
	cfg.OTP.SweepIntervalSeconds = 30

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.JWT.ExpiresInMinutes <= 0 {
		cfg.JWT.ExpiresInMinutes = 60
	}

	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}

// OTPTTL converts configured OTP validity to duration.
func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTP.TTLSeconds) * time.Second
}

// ResendSpacing converts configured resend spacing to duration.
func (c *Config) ResendSpacing() time.Duration {
	return time.Duration(c.OTP.ResendSpacingSeconds) * time.Second
}

// SweepInterval converts configured sweep interval to duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.OTP.SweepIntervalSeconds) * time.Second
}
