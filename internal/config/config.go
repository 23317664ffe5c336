package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportEmailJS = "emailjs"
	TransportSMTP    = "smtp"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Delivery
	Transport        string
	DestinationEmail string

	// EmailJS
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string
	EmailJSEndpoint   string

	// SMTP
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPFromEmail string
	SMTPFromName  string

	// SMTPTemplateFile holds a {{token}} body template for SMTP delivery.
	SMTPTemplateFile string

	// Limits
	RateLimitPerMinute int
	MaxUploadSizeMB    int

	// Reports
	StripMetadata   bool
	TimestampLayout string
	Timezone        string
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader(lookup)

	cfg := &Config{
		Port: env.get("PORT", "8080"),
		Env:  env.get("ENV", "development"),

		Transport:        strings.ToLower(env.get("TRANSPORT", TransportEmailJS)),
		DestinationEmail: env.get("DESTINATION_EMAIL", ""),

		EmailJSServiceID:  env.get("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: env.get("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  env.get("EMAILJS_PUBLIC_KEY", ""),
		EmailJSPrivateKey: env.get("EMAILJS_PRIVATE_KEY", ""),
		EmailJSEndpoint:   env.get("EMAILJS_ENDPOINT", ""),

		SMTPHost:      env.get("SMTP_HOST", ""),
		SMTPPort:      env.getInt("SMTP_PORT", 587),
		SMTPUser:      env.get("SMTP_USER", ""),
		SMTPPass:      env.get("SMTP_PASS", ""),
		SMTPFromEmail: env.get("SMTP_FROM_EMAIL", ""),
		SMTPFromName:  env.get("SMTP_FROM_NAME", "Bug Reports"),

		SMTPTemplateFile: env.get("SMTP_TEMPLATE_FILE", ""),

		RateLimitPerMinute: env.getInt("RATE_LIMIT_PER_MINUTE", 10),
		MaxUploadSizeMB:    env.getInt("MAX_UPLOAD_SIZE_MB", 50),

		StripMetadata:   env.getBool("STRIP_METADATA", false),
		TimestampLayout: env.get("TIMESTAMP_LAYOUT", ""),
		Timezone:        env.get("TIMEZONE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DestinationEmail == "" {
		return fmt.Errorf("DESTINATION_EMAIL is required")
	}

	switch c.Transport {
	case TransportEmailJS:
		if c.EmailJSServiceID == "" || c.EmailJSTemplateID == "" {
			return fmt.Errorf("EMAILJS_SERVICE_ID and EMAILJS_TEMPLATE_ID are required")
		}
		if c.EmailJSPublicKey == "" {
			return fmt.Errorf("EMAILJS_PUBLIC_KEY is required")
		}
	case TransportSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required")
		}
		if c.SMTPFromEmail == "" {
			return fmt.Errorf("SMTP_FROM_EMAIL is required")
		}
	default:
		return fmt.Errorf("TRANSPORT must be %q or %q, got %q", TransportEmailJS, TransportSMTP, c.Transport)
	}

	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MaxUploadSizeMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE, defaulting to the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

type envReader func(string) (string, bool)

func (e envReader) get(key, fallback string) string {
	if value, ok := e(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e envReader) getInt(key string, fallback int) int {
	if value, ok := e(key); ok && value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func (e envReader) getBool(key string, fallback bool) bool {
	if value, ok := e(key); ok && value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
