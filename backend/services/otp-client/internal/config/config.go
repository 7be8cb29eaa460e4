package config

import (
	"os"
	"path/filepath"
	"time"

	"ibanking/backend/libs/config"
)

// Config is the client configuration, loaded from an optional YAML file
// and overridable per-field from the environment.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url" env:"IBANKING_API_URL"`
	} `yaml:"api"`
	Auth struct {
		StatePath string `yaml:"state_path" env:"IBANKING_AUTH_STATE"`
	} `yaml:"auth"`
	OTP struct {
		TTLSeconds            int `yaml:"ttl_seconds" env:"IBANKING_OTP_TTL_SECONDS"`
		ResendCooldownSeconds int `yaml:"resend_cooldown_seconds" env:"IBANKING_RESEND_COOLDOWN_SECONDS"`
		AutoCloseSeconds      int `yaml:"auto_close_seconds" env:"IBANKING_AUTO_CLOSE_SECONDS"`
		PollIntervalSeconds   int `yaml:"poll_interval_seconds" env:"IBANKING_POLL_INTERVAL_SECONDS"`
	} `yaml:"otp"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := config.LoadConfig(&cfg); err != nil {
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.Auth.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Auth.StatePath = filepath.Join(home, ".ibanking", "session.json")
	}
	if cfg.OTP.TTLSeconds == 0 {
		cfg.OTP.TTLSeconds = 120
	}
	if cfg.OTP.ResendCooldownSeconds == 0 {
		cfg.OTP.ResendCooldownSeconds = 30
	}
	if cfg.OTP.AutoCloseSeconds == 0 {
		cfg.OTP.AutoCloseSeconds = 10
	}
	if cfg.OTP.PollIntervalSeconds == 0 {
		cfg.OTP.PollIntervalSeconds = 5
	}
	return &cfg, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.OTP.PollIntervalSeconds) * time.Second
}
