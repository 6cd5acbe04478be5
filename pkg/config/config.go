package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConnectTimeout is the fixed connection timeout used for every Marketo call
const ConnectTimeout = 20 * time.Second

type Config struct {
	UserID        string
	EncryptionKey string
	APIHost       string

	// MaxTries bounds attempts for the WSDL fetch. SOAP calls are sent once
	// since syncLead and requestCampaign are not idempotent.
	MaxTries uint
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		UserID:        os.Getenv("MKTOWS_USER_ID"),
		EncryptionKey: os.Getenv("MKTOWS_ENCRYPTION_KEY"),
		APIHost:       os.Getenv("MKTOWS_API_HOST"),
		MaxTries:      1,
	}

	if raw := os.Getenv("MKTOWS_MAX_TRIES"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("MKTOWS_MAX_TRIES must be a positive integer, got %q", raw)
		}
		cfg.MaxTries = uint(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("MKTOWS_USER_ID is required")
	}
	if c.EncryptionKey == "" {
		return fmt.Errorf("MKTOWS_ENCRYPTION_KEY is required")
	}
	if c.APIHost == "" {
		return fmt.Errorf("MKTOWS_API_HOST is required")
	}
	return nil
}
