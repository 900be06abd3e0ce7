// Package config loads shelf settings from command-line flags, SHELF_*
// environment variables, a .env file and built-in defaults, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: db-path is read from SHELF_DB_PATH.
const EnvPrefix = "SHELF"

// Keys shared by flags, environment variables and defaults.
const (
	KeyEnv           = "env"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyLogFile       = "log-file"
	KeyDBPath        = "db-path"
	KeyExportDir     = "export-dir"
	KeyLoginAttempts = "login-attempts"
	KeyLoginWindow   = "login-window"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Export   ExportConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // empty picks from the environment
	File   string // optional JSON activity log
}

// DatabaseConfig locates the SQLite library file.
type DatabaseConfig struct {
	Path string
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	Dir string // directory receiving CSV exports
}

// AuthConfig controls login throttling.
type AuthConfig struct {
	LoginAttempts int           // failed attempts allowed per username before throttling
	LoginWindow   time.Duration // period over which attempts refill
}

// SetDefaults registers the lowest-precedence values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDBPath, filepath.Join("~", "Shelf", "library.db"))
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyLoginAttempts, 5)
	v.SetDefault(KeyLoginWindow, time.Minute)
}

// NewViper returns a viper instance with defaults and environment lookup
// configured. If envFile exists it is loaded into the process environment
// first; variables already set are not overwritten.
func NewViper(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// InteractiveLogLevel is the console level for the interactive shell, where
// info records would interleave with the menus. The activity log still gets
// them.
const InteractiveLogLevel = "warn"

// SetInteractiveDefaults lowers the default console level for the shell.
// An explicit flag or SHELF_LOG_LEVEL still wins.
func SetInteractiveDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, InteractiveLogLevel)
}

// Load builds and validates a Config from v. Flags must already be bound.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: strings.ToLower(strings.TrimSpace(v.GetString(KeyEnv))),
		},
		Logger: LoggerConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			File:   v.GetString(KeyLogFile),
		},
		Database: DatabaseConfig{
			Path: v.GetString(KeyDBPath),
		},
		Export: ExportConfig{
			Dir: v.GetString(KeyExportDir),
		},
		Auth: AuthConfig{
			LoginAttempts: v.GetInt(KeyLoginAttempts),
			LoginWindow:   v.GetDuration(KeyLoginWindow),
		},
	}

	var err error
	if cfg.Database.Path, err = expandPath(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("invalid db path: %w", err)
	}
	if cfg.Export.Dir, err = expandPath(cfg.Export.Dir); err != nil {
		return nil, fmt.Errorf("invalid export dir: %w", err)
	}
	if cfg.Logger.File != "" {
		if cfg.Logger.File, err = expandPath(cfg.Logger.File); err != nil {
			return nil, fmt.Errorf("invalid log file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, production, or test)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "" && c.Logger.Format != "pretty" && c.Logger.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be pretty or json)", c.Logger.Format)
	}

	if c.Database.Path == "" {
		return errors.New("db path cannot be empty")
	}
	if c.Export.Dir == "" {
		return errors.New("export dir cannot be empty")
	}

	if c.Auth.LoginAttempts < 1 {
		return fmt.Errorf("login attempts must be at least 1, got %d", c.Auth.LoginAttempts)
	}
	if c.Auth.LoginWindow <= 0 {
		return fmt.Errorf("login window must be positive, got %s", c.Auth.LoginWindow)
	}

	return nil
}

// expandPath expands a leading ~ and makes the path absolute.
// An empty path stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
