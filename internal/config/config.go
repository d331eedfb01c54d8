package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Stripe      StripeConfig
	Email       EmailConfig
	Fulfillment FulfillmentConfig
	Import      ImportConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// StripeConfig holds payment gateway settings.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	FrontendURL   string
}

// EmailConfig holds SendGrid settings for transactional email.
type EmailConfig struct {
	Enabled      bool
	APIKey       string
	FromAddress  string
	FromName     string
	AdminAddress string
}

// FulfillmentConfig controls order generation.
type FulfillmentConfig struct {
	Timezone         string
	PopulateSchedule string // cron spec for the weekly population job
	SchedulerEnabled bool
}

// ImportConfig holds AWS S3 configuration for meal catalogue files.
type ImportConfig struct {
	S3Enabled bool
	Bucket    string
	Region    string
	Prefix    string // Path prefix within bucket (e.g., "meals/")
	LocalDir  string
}

// Load loads configuration from environment variables, after reading an
// optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "mealkart"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "aed")),
			FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		},
		Email: EmailConfig{
			Enabled:      getEnvAsBool("EMAIL_ENABLED", false),
			APIKey:       getEnv("SENDGRID_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:     getEnv("EMAIL_FROM_NAME", "Meal Kart"),
			AdminAddress: getEnv("EMAIL_ADMIN_ADDRESS", ""),
		},
		Fulfillment: FulfillmentConfig{
			Timezone:         getEnv("FULFILLMENT_TIMEZONE", "Local"),
			PopulateSchedule: getEnv("POPULATE_WEEK_CRON", "0 1 * * *"),
			SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", false),
		},
		Import: ImportConfig{
			S3Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Prefix:    getEnv("S3_PREFIX", "meals/"),
			LocalDir:  getEnv("MEAL_IMPORT_DIR", "./data"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Stripe.Currency != "" && len(c.Stripe.Currency) != 3 {
		return fmt.Errorf("invalid stripe currency: %s", c.Stripe.Currency)
	}

	if c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe webhook secret is required when a secret key is set")
	}

	if c.Email.Enabled {
		if c.Email.APIKey == "" {
			return fmt.Errorf("SendGrid API key is required when email is enabled")
		}
		if c.Email.FromAddress == "" {
			return fmt.Errorf("email from address is required when email is enabled")
		}
	}

	if _, err := c.Fulfillment.Location(); err != nil {
		return fmt.Errorf("invalid fulfillment timezone: %s", c.Fulfillment.Timezone)
	}

	if c.Fulfillment.SchedulerEnabled {
		if _, err := cron.ParseStandard(c.Fulfillment.PopulateSchedule); err != nil {
			return fmt.Errorf("invalid populate schedule %q: %w", c.Fulfillment.PopulateSchedule, err)
		}
	}

	if c.Import.S3Enabled {
		if c.Import.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Import.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the timezone used for delivery days. An empty value means
// the process-local zone.
func (c *FulfillmentConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SuccessURL is where the hosted checkout redirects after payment.
func (c *StripeConfig) SuccessURL() string {
	return c.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the hosted checkout redirects when abandoned.
func (c *StripeConfig) CancelURL() string {
	return c.FrontendURL + "/payment/cancel"
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
