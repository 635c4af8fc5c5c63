// Package config provides connection and runtime configuration for the
// arecord command.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the arecord command.
type Config struct {
	// Database connection settings
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Log settings
	Log LogConfig `json:"log" yaml:"log"`

	// Migrations settings
	Migrations MigrationsConfig `json:"migrations" yaml:"migrations"`
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Name     string `json:"name" yaml:"name"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Charset  string `json:"charset" yaml:"charset"`

	// Timeout bounds dialing the server
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// SlowQuery is the threshold above which statements are logged as slow.
	// Zero disables slow query logging.
	SlowQuery time.Duration `json:"slow_query" yaml:"slow_query"`

	// Debug logs every statement
	Debug bool `json:"debug" yaml:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is text or json
	Format string `json:"format" yaml:"format"`
}

// MigrationsConfig holds migration settings.
type MigrationsConfig struct {
	// Dir is where make:migration writes new units
	Dir string `json:"dir" yaml:"dir"`

	// Table is the ledger table
	Table string `json:"table" yaml:"table"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      3306,
			Name:      "test",
			User:      "root",
			Password:  "",
			Charset:   "utf8mb4",
			Timeout:   10 * time.Second,
			SlowQuery: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Migrations: MigrationsConfig{
			Dir:   "migrations",
			Table: "migrations",
		},
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Charset == "" {
		return fmt.Errorf("database.charset is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	if !identRe.MatchString(c.Migrations.Table) {
		return fmt.Errorf("invalid migrations.table: %q", c.Migrations.Table)
	}
	if c.Migrations.Dir == "" {
		return fmt.Errorf("migrations.dir is required")
	}
	return nil
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Log.Level)
	}
	return l, nil
}

// DSN returns the go-sql-driver/mysql data source name.
func (c *Config) DSN() string {
	m := mysql.NewConfig()
	m.User = c.Database.User
	m.Passwd = c.Database.Password
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	m.DBName = c.Database.Name
	m.Timeout = c.Database.Timeout
	m.ParseTime = true
	m.Params = map[string]string{"charset": c.Database.Charset}
	return m.FormatDSN()
}

// Addr returns host:port of the database server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables that are already
// set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromEnv overrides cfg from environment variables. Connection
// settings use the DB_ prefix, everything else ARECORD_. A set but empty
// DB_PASSWORD clears the password.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		cfg.Database.Port = port
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_CHARSET"); v != "" {
		cfg.Database.Charset = v
	}

	if v := os.Getenv("ARECORD_DB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ARECORD_DB_TIMEOUT %q: %w", v, err)
		}
		cfg.Database.Timeout = d
	}
	if v := os.Getenv("ARECORD_SLOW_QUERY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ARECORD_SLOW_QUERY %q: %w", v, err)
		}
		cfg.Database.SlowQuery = d
	}
	if v := os.Getenv("ARECORD_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ARECORD_DEBUG %q: %w", v, err)
		}
		cfg.Database.Debug = b
	}

	if v := os.Getenv("ARECORD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARECORD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ARECORD_MIGRATIONS_DIR"); v != "" {
		cfg.Migrations.Dir = v
	}
	if v := os.Getenv("ARECORD_MIGRATIONS_TABLE"); v != "" {
		cfg.Migrations.Table = v
	}
	return nil
}

// Load builds the configuration: defaults, then the optional file, then
// .env, then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
