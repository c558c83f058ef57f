package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config represents the application configuration
// The current project and working directory are passed per-call by the
// shell integration, not configured here.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Record  RecordConfig  `mapstructure:"record"`
	Session SessionConfig `mapstructure:"session"`
	Merge   MergeConfig   `mapstructure:"merge"`
}

// StoreConfig holds history database configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"` // Path to the SQLite history database
}

// RecordConfig holds command recording configuration
type RecordConfig struct {
	DefaultProject string `mapstructure:"default_project"` // Project used when none is given
}

// SessionConfig holds session history file configuration
type SessionConfig struct {
	Dir      string `mapstructure:"dir"`       // Directory for materialized session files
	MaxLines int    `mapstructure:"max_lines"` // Maximum lines materialized per session
}

// MergeConfig holds merge/search defaults
type MergeConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"` // Literal substrings always excluded
	ExcludeRegexps  []string `mapstructure:"exclude_regexps"`  // Regular expressions always excluded
	Format          string   `mapstructure:"format"`           // Default output format for listings
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Set defaults
	setDefaults()

	// Unmarshal the config
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	// Expand paths
	if err := expandPaths(config); err != nil {
		return nil, errors.Wrap(err, "failed to expand paths")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	if c.Store.DatabasePath == "" {
		return errors.New("store.database_path must not be empty")
	}
	if c.Record.DefaultProject == "" {
		return errors.New("record.default_project must not be empty")
	}
	if c.Session.MaxLines <= 0 {
		return errors.Newf("session.max_lines must be positive, got %d", c.Session.MaxLines)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory if home dir can't be determined
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "hist-ng")

	// Store defaults
	viper.SetDefault("store.database_path", filepath.Join(dataDir, "history.db"))

	// Record defaults
	viper.SetDefault("record.default_project", "global")

	// Session defaults
	viper.SetDefault("session.dir", filepath.Join(dataDir, "sessions"))
	viper.SetDefault("session.max_lines", 1000)

	// Merge defaults
	viper.SetDefault("merge.exclude_patterns", []string{})
	viper.SetDefault("merge.exclude_regexps", []string{})
	viper.SetDefault("merge.format", "%i  %t  %c")
}

// expandPaths expands ~ and environment variables in paths
func expandPaths(config *Config) error {
	var err error

	config.Store.DatabasePath, err = expandPath(config.Store.DatabasePath)
	if err != nil {
		return err
	}

	config.Session.Dir, err = expandPath(config.Session.Dir)
	if err != nil {
		return err
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}
