// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/logging"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/parser"
)

// ErrConfigInvalid indicates a missing or malformed setting.
var ErrConfigInvalid = errors.New("invalid configuration")

// StorageBackend selects the object store implementation.
type StorageBackend string

const (
	BackendLocal  StorageBackend = "local"
	BackendAzblob StorageBackend = "azblob"
)

// Config is the complete runtime configuration.
type Config struct {
	Storage StorageConfig
	Split   SplitConfig
	Staging StagingConfig
	Log     LogConfig
	Server  ServerConfig
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Backend          StorageBackend
	ConnectionString string
	LocalRoot        string
	// ProcessedPrefix is prepended to every uploaded output file name.
	ProcessedPrefix string
}

// SplitConfig holds the fixed splitting settings.
type SplitConfig struct {
	SheetName       string
	Columns         []string
	ContinueOnError bool
}

// StagingConfig holds local staging settings.
type StagingConfig struct {
	Dir  string
	Keep bool
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format logging.Format
}

// ServerConfig holds HTTP trigger settings.
type ServerConfig struct {
	Port string
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrConfigInvalid, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	columns, err := parser.ParseColumns(getEnvOrDefault("SHEETSPLIT_COLUMNS", "A-T"))
	if err != nil {
		return nil, fmt.Errorf("%w: SHEETSPLIT_COLUMNS: %v", ErrConfigInvalid, err)
	}
	continueOnError, err := getEnvBool("SHEETSPLIT_CONTINUE_ON_ERROR", false)
	if err != nil {
		return nil, err
	}
	keepStaging, err := getEnvBool("SHEETSPLIT_KEEP_STAGING", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Storage: StorageConfig{
			Backend:          StorageBackend(strings.ToLower(getEnvOrDefault("SHEETSPLIT_STORAGE", string(BackendLocal)))),
			ConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
			LocalRoot:        getEnvOrDefault("SHEETSPLIT_LOCAL_ROOT", "./data"),
			ProcessedPrefix:  getEnvOrDefault("SHEETSPLIT_PROCESSED_PREFIX", "processed/"),
		},
		Split: SplitConfig{
			SheetName:       getEnvOrDefault("SHEETSPLIT_SHEET", sheetsplit.DefaultSheetName),
			Columns:         columns,
			ContinueOnError: continueOnError,
		},
		Staging: StagingConfig{
			Dir:  getEnvOrDefault("SHEETSPLIT_STAGING_DIR", filepath.Join(os.TempDir(), "sheetsplit")),
			Keep: keepStaging,
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: logging.Format(getEnvOrDefault("LOG_FORMAT", string(logging.FormatJSON))),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.LocalRoot == "" {
			return fmt.Errorf("%w: SHEETSPLIT_LOCAL_ROOT is required for the local backend", ErrConfigInvalid)
		}
	case BackendAzblob:
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("%w: AZURE_STORAGE_CONNECTION_STRING is required for the azblob backend", ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown SHEETSPLIT_STORAGE %q", ErrConfigInvalid, c.Storage.Backend)
	}

	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("%w: unknown LOG_FORMAT %q", ErrConfigInvalid, c.Log.Format)
	}

	if len(c.Split.Columns) < sheetsplit.DefaultKeyPosition {
		return fmt.Errorf("%w: SHEETSPLIT_COLUMNS must select at least %d columns", ErrConfigInvalid, sheetsplit.DefaultKeyPosition)
	}
	if c.Staging.Dir == "" {
		return fmt.Errorf("%w: SHEETSPLIT_STAGING_DIR is required", ErrConfigInvalid)
	}
	return nil
}

// SplitOptions returns splitter options writing under outputDir.
func (c *Config) SplitOptions(outputDir string) sheetsplit.Options {
	opts := sheetsplit.DefaultOptions(outputDir)
	opts.SheetName = c.Split.SheetName
	opts.Columns = append([]string(nil), c.Split.Columns...)
	opts.ContinueOnError = c.Split.ContinueOnError
	return opts
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, key, err)
	}
	return b, nil
}
