package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration options for the workshop timer client
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Timer       TimerConfig
	Validation  ValidationConfig
	Logging     LoggingConfig
	Application ApplicationConfig
}

// ServerConfig holds backend connection configuration
type ServerConfig struct {
	BaseURL        string        `env:"WT_SERVER_URL"`
	AuthToken      string        `env:"WT_SERVER_TOKEN"`
	RequestTimeout time.Duration `env:"WT_SERVER_TIMEOUT"`
}

// StorageConfig holds local session store configuration
type StorageConfig struct {
	Dir            string        `env:"WT_DATA_DIR"`
	Filename       string        `env:"WT_STORE_FILENAME"`
	DirPermissions uint32        `env:"WT_DATA_DIR_PERMISSIONS"`
	WriteTimeout   time.Duration `env:"WT_STORE_WRITE_TIMEOUT"`
}

// TimerConfig holds the cadences of the two background loops
type TimerConfig struct {
	TickInterval      time.Duration `env:"WT_TICK_INTERVAL"`
	PollInterval      time.Duration `env:"WT_POLL_INTERVAL"`
	PollMissThreshold int           `env:"WT_POLL_MISS_THRESHOLD"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	RatingMin      int `env:"WT_VALIDATION_RATING_MIN"`
	RatingMax      int `env:"WT_VALIDATION_RATING_MAX"`
	NotesMaxLength int `env:"WT_VALIDATION_NOTES_MAX"`
}

// LoggingConfig holds structured logging configuration
type LoggingConfig struct {
	Level      string `env:"WT_LOG_LEVEL"`
	Filename   string `env:"WT_LOG_FILENAME"`
	MaxSizeMB  int    `env:"WT_LOG_MAX_SIZE_MB"`
	MaxBackups int    `env:"WT_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `env:"WT_LOG_MAX_AGE_DAYS"`
	Console    bool   `env:"WT_LOG_CONSOLE"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout time.Duration `env:"WT_APP_TIMEOUT"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(homeDir, ".wt")

	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8321",
			RequestTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Dir:            defaultDataDir,
			Filename:       "session.db",
			DirPermissions: 0755,
			WriteTimeout:   5 * time.Second,
		},
		Timer: TimerConfig{
			TickInterval:      time.Second,
			PollInterval:      5 * time.Second,
			PollMissThreshold: 2,
		},
		Validation: ValidationConfig{
			RatingMin:      1,
			RatingMax:      5,
			NotesMaxLength: 2000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Filename:   "wt.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Console:    false,
		},
		Application: ApplicationConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// GetStorePath returns the full path to the local session store
func (c *Config) GetStorePath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.Filename)
}

// GetLogPath returns the full path to the rotating log file
func (c *Config) GetLogPath() string {
	return filepath.Join(c.Storage.Dir, c.Logging.Filename)
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Server configuration
	if url := os.Getenv("WT_SERVER_URL"); url != "" {
		c.Server.BaseURL = url
	}
	if token := os.Getenv("WT_SERVER_TOKEN"); token != "" {
		c.Server.AuthToken = token
	}
	if timeout := os.Getenv("WT_SERVER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Server.RequestTimeout = d
		}
	}

	// Storage configuration
	if dir := os.Getenv("WT_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
	if filename := os.Getenv("WT_STORE_FILENAME"); filename != "" {
		c.Storage.Filename = filename
	}
	if perms := os.Getenv("WT_DATA_DIR_PERMISSIONS"); perms != "" {
		if p, err := strconv.ParseUint(perms, 8, 32); err == nil {
			c.Storage.DirPermissions = uint32(p)
		}
	}
	if timeout := os.Getenv("WT_STORE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Storage.WriteTimeout = d
		}
	}

	// Timer configuration
	if interval := os.Getenv("WT_TICK_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.Timer.TickInterval = d
		}
	}
	if interval := os.Getenv("WT_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.Timer.PollInterval = d
		}
	}
	if threshold := os.Getenv("WT_POLL_MISS_THRESHOLD"); threshold != "" {
		if n, err := strconv.Atoi(threshold); err == nil {
			c.Timer.PollMissThreshold = n
		}
	}

	// Validation configuration
	if min := os.Getenv("WT_VALIDATION_RATING_MIN"); min != "" {
		if n, err := strconv.Atoi(min); err == nil {
			c.Validation.RatingMin = n
		}
	}
	if max := os.Getenv("WT_VALIDATION_RATING_MAX"); max != "" {
		if n, err := strconv.Atoi(max); err == nil {
			c.Validation.RatingMax = n
		}
	}
	if max := os.Getenv("WT_VALIDATION_NOTES_MAX"); max != "" {
		if n, err := strconv.Atoi(max); err == nil {
			c.Validation.NotesMaxLength = n
		}
	}

	// Logging configuration
	if level := os.Getenv("WT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if filename := os.Getenv("WT_LOG_FILENAME"); filename != "" {
		c.Logging.Filename = filename
	}
	if size := os.Getenv("WT_LOG_MAX_SIZE_MB"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			c.Logging.MaxSizeMB = n
		}
	}
	if backups := os.Getenv("WT_LOG_MAX_BACKUPS"); backups != "" {
		if n, err := strconv.Atoi(backups); err == nil {
			c.Logging.MaxBackups = n
		}
	}
	if age := os.Getenv("WT_LOG_MAX_AGE_DAYS"); age != "" {
		if n, err := strconv.Atoi(age); err == nil {
			c.Logging.MaxAgeDays = n
		}
	}
	if console := os.Getenv("WT_LOG_CONSOLE"); console != "" {
		if b, err := strconv.ParseBool(console); err == nil {
			c.Logging.Console = b
		}
	}

	// Application configuration
	if timeout := os.Getenv("WT_APP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Application.Timeout = d
		}
	}

	return nil
}
