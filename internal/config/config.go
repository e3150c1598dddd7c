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
	Server   ServerConfig
	Database DatabaseConfig
	MongoDB  MongoDBConfig
	Sheets   SheetsConfig
	Model    ModelConfig
	Pricing  PricingConfig
	Export   ExportConfig
	Engine   EngineConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DatabaseConfig selects the relational store holding lots and costs.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// MongoDBConfig holds settings for the snapshot archive. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export datasets to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	DatasetTab      string
}

// Enabled reports whether the dataset export has credentials.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ModelConfig points at the price model inference service.
type ModelConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PricingConfig holds defaults for price suggestions.
type PricingConfig struct {
	DefaultMarginRate float64
}

// ExportConfig holds scheduler-related settings.
type ExportConfig struct {
	CronSchedule string
	Timezone     string
}

// EngineConfig locates the feature engine tuning file.
type EngineConfig struct {
	ConfigPath string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

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
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	margin, err := getenvFloat("DEFAULT_MARGIN_RATE", 0.10)
	if err != nil {
		return nil, err
	}
	timeout, err := getenvDuration("MODEL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	development, err := getenvBool("LOG_DEVELOPMENT", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver: getenvWithDefault("DB_DRIVER", "postgres"),
			DSN:    os.Getenv("DATABASE_URL"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "lotprice"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATASET_ID"),
			DatasetTab:      getenvWithDefault("GOOGLE_SHEET_DATASET_TAB", "Features"),
		},
		Model: ModelConfig{
			BaseURL: os.Getenv("MODEL_BASE_URL"),
			APIKey:  os.Getenv("MODEL_API_KEY"),
			Timeout: timeout,
		},
		Pricing: PricingConfig{
			DefaultMarginRate: margin,
		},
		Export: ExportConfig{
			CronSchedule: getenvWithDefault("EXPORT_CRON_SCHEDULE", "30 2 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/La_Paz"),
		},
		Engine: EngineConfig{
			ConfigPath: os.Getenv("ENGINE_CONFIG_PATH"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: development,
		},
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

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("DATABASE_URL must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATASET_ID must be provided together")
	}

	if c.Pricing.DefaultMarginRate < 0 || c.Pricing.DefaultMarginRate > 1 {
		return errors.New("DEFAULT_MARGIN_RATE must be between 0 and 1")
	}

	if c.Export.CronSchedule == "" {
		return errors.New("EXPORT_CRON_SCHEDULE must be provided")
	}

	if c.Export.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
