package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Inventory InventoryConfig
	Cache     CacheConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// InventoryConfig points at the backend that owns stock batch records.
type InventoryConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CacheConfig configures the batch read cache. An empty RedisAddr disables it.
type CacheConfig struct {
	RedisAddr string
	TTL       time.Duration
}

// Enabled reports whether a Redis address was configured.
func (c CacheConfig) Enabled() bool { return c.RedisAddr != "" }

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	VerifyToken    string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether WhatsApp credentials were provided.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" && c.PhoneNumberID != "" }

// SheetsConfig contains configuration required to export expiry rows to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether the Sheets export is configured.
func (c SheetsConfig) Enabled() bool { return c.CredentialsPath != "" && c.SpreadsheetID != "" }

// ReportingConfig holds the expiry sweep settings.
type ReportingConfig struct {
	CronSchedule        string
	Timezone            string
	ExpiryThresholdDays int
}

// MongoDBConfig holds settings for the report store. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether MongoDB was configured.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeout, err := getenvDuration("INVENTORY_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getenvDuration("CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	threshold, err := getenvInt("EXPIRY_THRESHOLD_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Inventory: InventoryConfig{
			BaseURL: os.Getenv("INVENTORY_API_URL"),
			Token:   os.Getenv("INVENTORY_API_TOKEN"),
			Timeout: timeout,
		},
		Cache: CacheConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
			TTL:       cacheTTL,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:    os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_RANGE", "Expiring!A:G"),
		},
		Reporting: ReportingConfig{
			CronSchedule:        getenvWithDefault("REPORT_CRON_SCHEDULE", "0 7 * * *"),
			Timezone:            getenvWithDefault("TIMEZONE", "UTC"),
			ExpiryThresholdDays: threshold,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "batchdesk"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Inventory.BaseURL == "":
		return errors.New("INVENTORY_API_URL must be provided")
	case c.Inventory.Token == "":
		return errors.New("INVENTORY_API_TOKEN must be provided")
	case c.Inventory.Timeout <= 0:
		return errors.New("INVENTORY_API_TIMEOUT must be positive")
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.VerifyToken == "" {
			return errors.New("META_VERIFY_TOKEN must be provided when WhatsApp is enabled")
		}
		if c.WhatsApp.BaseURL == "" || c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.Range == "" {
		return errors.New("GOOGLE_SHEET_RANGE must not be empty")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}
	if c.Reporting.ExpiryThresholdDays <= 0 {
		return errors.New("EXPIRY_THRESHOLD_DAYS must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
