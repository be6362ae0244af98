package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Ingest   IngestConfig
	Report   ReportConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// IngestConfig controls the XML to database load.
type IngestConfig struct {
	RootDir     string
	MarkerDir   string
	Extension   string
	Limit       int
	Workers     int
	MetricsFile string
}

// ReportConfig controls the PDF cross-reference reports.
type ReportConfig struct {
	BaseDir   string
	XMLDir    string
	ScanDir   string
	OutputDir string
	Workers   int
}

// flagKeys maps command-line flag names to configuration keys. A flag that
// is present in the flag set passed to Load overrides the environment.
var flagKeys = map[string]string{
	"host":         "DB_HOST",
	"port":         "DB_PORT",
	"database":     "DB_NAME",
	"user":         "DB_USER",
	"password":     "DB_PASSWORD",
	"xml-dir":      "XML_DIR",
	"limit":        "XML_LIMIT",
	"threads":      "WORKERS",
	"metrics-file": "METRICS_FILE",
	"base-dir":     "REPORT_BASE_DIR",
	"scan-dir":     "REPORT_SCAN_DIR",
	"out-dir":      "REPORT_OUTPUT_DIR",
	"listen":       "PORT",
	"env":          "ENV",
}

// Load reads configuration from defaults, an optional .env file,
// environment variables and, when flags is non-nil, command-line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "cadastral_db")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_POOL_MIN", 1)
	v.SetDefault("DB_POOL_MAX", 11)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("XML_DIR", "")
	v.SetDefault("XML_MARKER_DIR", "xml")
	v.SetDefault("XML_EXTENSION", ".xml")
	v.SetDefault("XML_LIMIT", 0)
	v.SetDefault("WORKERS", 10)
	v.SetDefault("METRICS_FILE", "")
	v.SetDefault("REPORT_BASE_DIR", "")
	v.SetDefault("REPORT_XML_DIR", "xml")
	v.SetDefault("REPORT_SCAN_DIR", "ho-so-quet")
	v.SetDefault("REPORT_OUTPUT_DIR", "bao_cao_pdf")
	v.SetDefault("REPORT_WORKERS", 4)

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
		},
		Ingest: IngestConfig{
			RootDir:     v.GetString("XML_DIR"),
			MarkerDir:   v.GetString("XML_MARKER_DIR"),
			Extension:   v.GetString("XML_EXTENSION"),
			Limit:       v.GetInt("XML_LIMIT"),
			Workers:     v.GetInt("WORKERS"),
			MetricsFile: v.GetString("METRICS_FILE"),
		},
		Report: ReportConfig{
			BaseDir:   v.GetString("REPORT_BASE_DIR"),
			XMLDir:    v.GetString("REPORT_XML_DIR"),
			ScanDir:   v.GetString("REPORT_SCAN_DIR"),
			OutputDir: v.GetString("REPORT_OUTPUT_DIR"),
			Workers:   v.GetInt("REPORT_WORKERS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the database settings shared by every command.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// ValidateIngest checks the settings of the load command.
func (c *Config) ValidateIngest() error {
	if c.Ingest.RootDir == "" {
		return fmt.Errorf("XML_DIR is required")
	}
	if c.Ingest.MarkerDir == "" {
		return fmt.Errorf("XML_MARKER_DIR is required")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	if c.Ingest.Limit < 0 {
		return fmt.Errorf("XML_LIMIT must be non-negative")
	}
	return nil
}

// ValidateReport checks the settings of the PDF report commands.
func (c *Config) ValidateReport() error {
	if c.Report.XMLDir == "" {
		return fmt.Errorf("REPORT_XML_DIR is required")
	}
	if c.Report.ScanDir == "" {
		return fmt.Errorf("REPORT_SCAN_DIR is required")
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("REPORT_WORKERS must be at least 1")
	}
	return nil
}

// ValidateServer checks the settings of the read API.
func (c *Config) ValidateServer() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}
	return nil
}

// EnsurePoolFor raises the pool ceiling so every worker can hold its own
// connection while one more stays free for setup queries.
func (c *DatabaseConfig) EnsurePoolFor(workers int) {
	if c.PoolMax < workers+1 {
		c.PoolMax = workers + 1
	}
}

// loadDotEnv loads variables from path when the file exists. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// parseList splits a comma-separated string into trimmed, non-empty parts.
func parseList(list string) []string {
	if list == "" {
		return []string{}
	}

	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
