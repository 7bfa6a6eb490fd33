// Package config reads the application configuration from environment variables, which
// the root command may first populate from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDBPath is used when DB_PATH is unset and no existing database is found.
var DefaultDBPath = filepath.Join("data", "processed", "books_data.db")

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Ingest  IngestConfig
	Logger  LoggerConfig
	Search  SearchConfig
	Feature FeatureConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string
}

// DBConfig holds the store location.
type DBConfig struct {
	Path string
}

// IngestConfig holds the input locations.
type IngestConfig struct {
	DataDir     string
	MappingPath string
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level   string
	Format  string
	Queries bool
}

// SearchConfig holds result size limits.
type SearchConfig struct {
	MaxResults      int
	DefaultPageSize int
}

// FeatureConfig holds feature flags.
type FeatureConfig struct {
	Export bool
}

// Load builds the configuration from the environment, falling back to defaults.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Environment: getConfigValue("APP_ENV", "development"),
		},
		DB: DBConfig{
			Path: databasePath(),
		},
		Ingest: IngestConfig{
			DataDir:     getConfigValue("DATA_DIR", filepath.Join("data", "raw")),
			MappingPath: getConfigValue("MAPPING_PATH", "data_map.yaml"),
		},
		Logger: LoggerConfig{
			Level:   getConfigValue("LOG_LEVEL", "info"),
			Format:  getConfigValue("LOG_FORMAT", "text"),
			Queries: getBoolConfigValue("LOG_QUERIES", false),
		},
		Search: SearchConfig{
			MaxResults:      getIntConfigValue("MAX_SEARCH_RESULTS", 100),
			DefaultPageSize: getIntConfigValue("DEFAULT_PAGE_SIZE", 20),
		},
		Feature: FeatureConfig{
			Export: getBoolConfigValue("ENABLE_EXPORT", true),
		},
	}
}

// databasePath returns DB_PATH when set, otherwise the first existing candidate, otherwise
// DefaultDBPath.
func databasePath() string {
	if p := strings.TrimSpace(os.Getenv("DB_PATH")); p != "" {
		return p
	}
	for _, candidate := range []string{DefaultDBPath, "books_data.db"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return DefaultDBPath
}

// Validate returns configuration warnings. None of them stop the program.
func (c *Config) Validate() []string {
	var warnings []string

	if _, err := os.Stat(c.DB.Path); err != nil {
		warnings = append(warnings,
			fmt.Sprintf("Database file not found: %s", c.DB.Path),
			"Run the ingest command to create the database")
	}

	return append(warnings, c.ValidateSettings()...)
}

// ValidateSettings is Validate without the database check, for commands that create
// the database or never open it.
func (c *Config) ValidateSettings() []string {
	var warnings []string

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "critical":
	default:
		warnings = append(warnings, fmt.Sprintf("Invalid log level: %s", c.Logger.Level))
	}

	if c.Search.DefaultPageSize < 0 {
		warnings = append(warnings, "Default page size cannot be negative")
	}
	if c.Search.MaxResults > 1000 {
		warnings = append(warnings, "Large search result limits may impact performance")
	}

	return warnings
}

func getConfigValue(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func getBoolConfigValue(envKey string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))
	switch v {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("Invalid boolean value, using default", "key", envKey, "value", v, "default", defaultValue)
	return defaultValue
}

func getIntConfigValue(envKey string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(envKey))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer value, using default", "key", envKey, "value", v, "default", defaultValue)
		return defaultValue
	}
	return n
}
