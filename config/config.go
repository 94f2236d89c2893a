package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/theapemachine/s3flow/logger"
)

// StorageType represents the type of storage to use
type StorageType string

const (
	// S3Storage talks to an S3 compatible service
	S3Storage StorageType = "s3"
	// FileStorage mirrors buckets into a local directory
	FileStorage StorageType = "file"
)

/*
Config holds the client settings shared by every node: where the object
store lives, how to authenticate against it, and how the upsert engine
should behave. A Config is read-only once built; CLI overrides go through
the setters before any node is constructed.
*/
type Config struct {
	// Storage backend
	StorageType StorageType
	StoragePath string

	// S3 client settings
	Endpoint        string
	Region          string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	RequestTimeout  time.Duration

	// Upsert engine settings
	Concurrency int
	StrictProbe bool

	// Logging settings
	LogLevel log.Level
}

/*
New creates a configuration from the environment. A .env file in the working
directory is loaded first when present; real environment variables win over it.
*/
func New() *Config {
	_ = godotenv.Load()
	return fromViper(newViper())
}

/*
Load builds a configuration from a YAML, JSON or TOML file, with environment
variables still taking precedence over values in the file.
*/
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return fromViper(v), nil
}

func newViper() *viper.Viper {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	v.SetDefault("STORAGE_TYPE", string(S3Storage))
	v.SetDefault("STORAGE_PATH", filepath.Join(home, ".s3flow", "buckets"))
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_FORCE_PATH_STYLE", false)
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "0s")
	v.SetDefault("UPSERT_CONCURRENCY", 1)
	v.SetDefault("UPSERT_STRICT_PROBE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		StorageType:     StorageType(strings.ToLower(v.GetString("STORAGE_TYPE"))),
		StoragePath:     v.GetString("STORAGE_PATH"),
		Endpoint:        strings.TrimSpace(v.GetString("S3_ENDPOINT")),
		Region:          strings.TrimSpace(v.GetString("S3_REGION")),
		ForcePathStyle:  v.GetBool("S3_FORCE_PATH_STYLE"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		Concurrency:     v.GetInt("UPSERT_CONCURRENCY"),
		StrictProbe:     v.GetBool("UPSERT_STRICT_PROBE"),
		LogLevel:        logger.ParseLevel(v.GetString("LOG_LEVEL")),
	}
}

/*
Validate checks if the configuration is valid.
It ensures required fields are set and have appropriate values.
*/
func (c *Config) Validate() error {
	switch c.StorageType {
	case S3Storage:
		if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be provided together")
		}
	case FileStorage:
		if c.StoragePath == "" {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_TYPE=file")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (valid values: s3, file)", c.StorageType)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("UPSERT_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT cannot be negative")
	}

	return nil
}

/*
SetEndpoint overrides the S3 endpoint, for S3 compatible services.
*/
func (c *Config) SetEndpoint(endpoint string) {
	if endpoint != "" {
		c.Endpoint = strings.TrimSpace(endpoint)
	}
}

/*
SetRegion sets the region in the configuration.
*/
func (c *Config) SetRegion(region string) {
	if region != "" {
		c.Region = strings.TrimSpace(region)
	}
}

func (c *Config) SetStorageType(storageType string) {
	if storageType != "" {
		c.StorageType = StorageType(strings.ToLower(storageType))
	}
}

func (c *Config) SetStoragePath(path string) {
	if path != "" {
		c.StoragePath = path
	}
}

func (c *Config) SetConcurrency(n int) {
	if n > 0 {
		c.Concurrency = n
	}
}

/*
SetLogLevel sets the log level in the configuration.
*/
func (c *Config) SetLogLevel(level string) {
	if level != "" {
		c.LogLevel = logger.ParseLevel(level)
	}
}

/*
ApplyLogging configures the logger based on the current configuration.
*/
func (c *Config) ApplyLogging() {
	logger.SetLevel(c.LogLevel)
	logger.Debug("Logging configured",
		"level", c.LogLevel.String(),
		"storage", c.StorageType,
		"region", c.Region,
		"endpoint", c.Endpoint)
}
