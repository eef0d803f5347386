package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; when unset outbound messages are sent synchronously)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// WhatsApp gateway (Meta Cloud API)
	MetaAccessToken   string
	MetaPhoneNumberID string
	MetaVerifyToken   string

	// Language model API
	OpenAIAPIKey string

	// Auth
	JWTSecret string

	// Reminder dispatch
	ReminderCronSecret string
	ReminderInterval   time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financas.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "outbound_messages"),

		MetaAccessToken:   getEnv("META_ACCESS_TOKEN", ""),
		MetaPhoneNumberID: getEnv("META_PHONE_NUMBER_ID", ""),
		MetaVerifyToken:   getEnv("META_VERIFY_TOKEN", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ReminderCronSecret: getEnv("REMINDER_CRON_SECRET", ""),
		ReminderInterval:   getEnvDuration("REMINDER_INTERVAL", time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid.
// The WhatsApp gateway and language model credentials are deliberately
// optional: without them the related endpoints answer with an explicit
// unconfigured-service response instead of failing startup.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Access token and phone number ID only work as a pair
	if (c.MetaAccessToken == "") != (c.MetaPhoneNumberID == "") {
		errors = append(errors, "META_ACCESS_TOKEN and META_PHONE_NUMBER_ID must both be set to enable the WhatsApp gateway")
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET too short: must be at least 16 characters")
	}

	if c.ReminderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 minute", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// WhatsAppConfigured reports whether the messaging gateway credentials are present.
func (c *Config) WhatsAppConfigured() bool {
	return c.MetaAccessToken != "" && c.MetaPhoneNumberID != ""
}

// AIConfigured reports whether the language model API key is present.
func (c *Config) AIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
