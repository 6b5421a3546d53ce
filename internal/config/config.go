//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-ecomdw.
// Configuration is loaded from config files, a .env file, the database
// environment variables of the original deployment, and CLI flags.
// CLI flags take precedence over everything else.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Season rules.
const (
	SeasonRuleCalendar = "calendar"
	SeasonRuleLegacy   = "legacy"
)

// Config holds all configuration for pgedge-ecomdw.
type Config struct {
	// Connection is an optional PostgreSQL URL that overrides storage.postgres.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFile is the append-only run log.
	LogFile string `mapstructure:"log_file"`

	// MetricsFile receives stage metrics in Prometheus textfile format.
	MetricsFile string `mapstructure:"metrics_file"`

	Source   SourceConfig   `mapstructure:"source"`
	Storage  StorageConfig  `mapstructure:"storage"`
	ETL      ETLConfig      `mapstructure:"etl"`
	Generate GenerateConfig `mapstructure:"generate"`
}

// SourceConfig locates the raw extracts.
type SourceConfig struct {
	// Dir is a local directory or an s3://bucket/prefix URI.
	Dir string   `mapstructure:"dir"`
	S3  S3Config `mapstructure:"s3"`
}

// S3Config holds object storage settings used when Dir is an s3:// URI.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// StorageConfig selects and configures the warehouse backend.
type StorageConfig struct {
	// Driver is one of postgres, sqlite or memory.
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	// SystemDatabase is the maintenance database used to drop and create
	// Database when RecreateDatabase is set.
	SystemDatabase   string `mapstructure:"system_database"`
	RecreateDatabase bool   `mapstructure:"recreate_database"`
}

// SQLiteConfig holds settings for the embedded warehouse.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ETLConfig tunes the load engine.
type ETLConfig struct {
	// BatchSize is the number of rows per bulk statement.
	BatchSize int `mapstructure:"batch_size"`

	// SeasonRule is calendar (corrected boundaries) or legacy.
	SeasonRule string `mapstructure:"season_rule"`

	// CacheKeys memoizes resolved surrogate keys for the run.
	CacheKeys bool `mapstructure:"cache_keys"`
}

// GenerateConfig holds configuration for synthetic dataset generation.
type GenerateConfig struct {
	OutDir    string  `mapstructure:"out_dir"`
	Customers int     `mapstructure:"customers"`
	Sellers   int     `mapstructure:"sellers"`
	Products  int     `mapstructure:"products"`
	Orders    int     `mapstructure:"orders"`
	DirtyRate float64 `mapstructure:"dirty_rate"`
	Seed      uint64  `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  "pipeline.log",
		Source: SourceConfig{
			Dir: "ecommerce_dataset",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Storage: StorageConfig{
			Driver: DriverPostgres,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "ecommerce_dw",
				SSLMode:  "disable",
			},
			SQLite: SQLiteConfig{
				Path: "warehouse.db",
			},
		},
		ETL: ETLConfig{
			BatchSize:  1000,
			SeasonRule: SeasonRuleCalendar,
			CacheKeys:  true,
		},
		Generate: GenerateConfig{
			OutDir:    "ecommerce_dataset",
			Customers: 1000,
			Sellers:   100,
			Products:  500,
			Orders:    2000,
			DirtyRate: 0.02,
		},
	}
}

// envBindings maps config keys to the environment variables used by the
// original deployment's .env file.
var envBindings = map[string]string{
	"storage.postgres.host":            "DB_HOST",
	"storage.postgres.port":            "DB_PORT",
	"storage.postgres.database":        "DB_NAME",
	"storage.postgres.user":            "DB_USER",
	"storage.postgres.password":        "DB_PASSWORD",
	"storage.postgres.system_database": "SYSTEM_DB",
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-ecomdw.yaml
// 3. ~/.config/pgedge-ecomdw/config.yaml
//
// A .env file in the working directory is loaded first if present; it
// never overrides variables that are already set.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("pgedge-ecomdw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-ecomdw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// PostgresURL returns the connection URL for the warehouse database.
func (c *Config) PostgresURL() string {
	if c.Connection != "" {
		return c.Connection
	}
	return c.Storage.Postgres.URL(c.Storage.Postgres.Database)
}

// SystemURL returns the connection URL for the maintenance database.
func (c *Config) SystemURL() string {
	return c.Storage.Postgres.URL(c.Storage.Postgres.SystemDatabase)
}

// URL builds a postgres:// URL for the named database.
func (p PostgresConfig) URL(database string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + database,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.Source.Dir == "" {
		return fmt.Errorf("source directory is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Connection == "" {
			if c.Storage.Postgres.Host == "" {
				return fmt.Errorf("postgres host is required")
			}
			if c.Storage.Postgres.Database == "" {
				return fmt.Errorf("postgres database is required")
			}
		}
		if c.Storage.Postgres.RecreateDatabase && c.Storage.Postgres.SystemDatabase == "" {
			return fmt.Errorf("system_database is required when recreate_database is set")
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage driver must be 'postgres', 'sqlite' or 'memory'")
	}
	if c.ETL.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	switch strings.ToLower(c.ETL.SeasonRule) {
	case SeasonRuleCalendar, SeasonRuleLegacy:
	default:
		return fmt.Errorf("season_rule must be 'calendar' or 'legacy'")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	g := c.Generate
	if g.OutDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if g.Customers < 1 || g.Sellers < 1 || g.Products < 1 {
		return fmt.Errorf("customers, sellers and products must be at least 1")
	}
	if g.Orders < 0 {
		return fmt.Errorf("orders must be non-negative")
	}
	if g.DirtyRate < 0 || g.DirtyRate > 1 {
		return fmt.Errorf("dirty_rate must be between 0 and 1")
	}
	return nil
}
