package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"thoreinstein.com/histng/pkg/config"
	histerrors "thoreinstein.com/histng/pkg/errors"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and history database",
	Long: `Create the hist-ng configuration directory, write a default config file
if none exists, and create the history database schema.

Safe to run repeatedly: existing configuration and data are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInitCommand()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// tomlConfig mirrors config.Config for writing the default config file.
type tomlConfig struct {
	Store struct {
		DatabasePath string `toml:"database_path"`
	} `toml:"store"`
	Record struct {
		DefaultProject string `toml:"default_project"`
	} `toml:"record"`
	Session struct {
		Dir      string `toml:"dir"`
		MaxLines int    `toml:"max_lines"`
	} `toml:"session"`
	Merge struct {
		ExcludePatterns []string `toml:"exclude_patterns"`
		ExcludeRegexps  []string `toml:"exclude_regexps"`
		Format          string   `toml:"format"`
	} `toml:"merge"`
}

func runInitCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	// Config file, unless one is already in place.
	configPath := cfgFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return histerrors.Wrap(err, "failed to get home directory")
		}
		configPath = filepath.Join(home, ".config", "hist-ng", "config.toml")
	}

	if err := writeDefaultConfig(configPath, cfg); err != nil {
		return err
	}

	// Sessions directory.
	if err := os.MkdirAll(cfg.Session.Dir, 0o700); err != nil {
		return histerrors.Wrapf(err, "failed to create sessions directory %q", cfg.Session.Dir)
	}

	// Database schema: opening applies any pending migrations.
	s, err := openStore(cfg)
	if err != nil {
		return histerrors.Wrap(err, "failed to initialize history database")
	}
	defer s.Close()

	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "database %s at schema v%d\n", cfg.Store.DatabasePath, version)
	}
	fmt.Println("Initialized.")

	return nil
}

// writeDefaultConfig writes the effective configuration to path if no file
// exists there yet. An existing file is never overwritten.
func writeDefaultConfig(path string, cfg *config.Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return histerrors.Wrapf(err, "failed to check config file %q", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return histerrors.Wrapf(err, "failed to create config directory %q", filepath.Dir(path))
	}

	var out tomlConfig
	out.Store.DatabasePath = cfg.Store.DatabasePath
	out.Record.DefaultProject = cfg.Record.DefaultProject
	out.Session.Dir = cfg.Session.Dir
	out.Session.MaxLines = cfg.Session.MaxLines
	out.Merge.ExcludePatterns = cfg.Merge.ExcludePatterns
	out.Merge.ExcludeRegexps = cfg.Merge.ExcludeRegexps
	out.Merge.Format = cfg.Merge.Format

	data, err := toml.Marshal(out)
	if err != nil {
		return histerrors.Wrap(err, "failed to render default config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return histerrors.Wrapf(err, "failed to write config file %q", path)
	}

	return nil
}
