package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPeriodLabels are the column labels of the funding workbook, in
// column order. The workbook header only carries end dates.
var DefaultPeriodLabels = []string{"FY2022", "2022", "FY2023", "2023", "FY2024", "2024", "FY2025"}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Database
	SQLiteDBPath string

	// Logging
	LogLevel string

	// Page
	PageTitle   string
	ChartCDNURL string

	// Import
	ImportSource        string
	ImportFile          string
	PeriodLabels        []string
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// LoadEnvFile loads a .env file for local development. A missing file is not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/grants.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		PageTitle:   getEnv("PAGE_TITLE", "Funding Dashboard"),
		ChartCDNURL: getEnv("CHART_CDN_URL", "https://cdn.jsdelivr.net/npm/chart.js"),

		ImportSource:        getEnv("IMPORT_SOURCE", "file"),
		ImportFile:          getEnv("IMPORT_FILE", "./data/GrantFundingOverTime.csv"),
		PeriodLabels:        getEnvList("PERIOD_LABELS", DefaultPeriodLabels),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "GrantFundingOverTime"),
	}

	return cfg
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if c.ChartCDNURL == "" {
		errors = append(errors, "chart CDN URL cannot be empty")
	} else if u, err := url.Parse(c.ChartCDNURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid chart CDN URL '%s': %v", c.ChartCDNURL, err))
	} else if u.Scheme != "https" && u.Scheme != "http" {
		errors = append(errors, fmt.Sprintf("invalid chart CDN URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateImport checks the extra settings used by the import command.
func (c *Config) ValidateImport() error {
	var errors []string

	switch c.ImportSource {
	case "file":
		if c.ImportFile == "" {
			errors = append(errors, "import file cannot be empty when using file source")
		} else if _, err := os.Stat(c.ImportFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("import file does not exist: %s", c.ImportFile))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets source")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid import source '%s': must be one of [file sheets]", c.ImportSource))
	}

	if len(c.PeriodLabels) == 0 {
		errors = append(errors, "at least one period label is required")
	}
	seen := make(map[string]bool, len(c.PeriodLabels))
	for _, l := range c.PeriodLabels {
		if seen[l] {
			errors = append(errors, fmt.Sprintf("duplicate period label '%s'", l))
		}
		seen[l] = true
	}

	if len(errors) > 0 {
		return fmt.Errorf("import configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of [debug info warn error]", s)
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
