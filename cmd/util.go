package cmd

import (
	"os"
	"time"

	"thoreinstein.com/histng/pkg/config"
	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

// timeLayouts are the formats accepted by --from/--to/--time flags, tried
// in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// parseTimeString parses a user-supplied time in one of the accepted
// layouts, interpreted in local time.
func parseTimeString(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, histerrors.NewValidationError("time",
		"unrecognized time "+value+" (want YYYY-MM-DD[ HH:MM[:SS]] or RFC3339)")
}

// openStore opens the configured history database.
func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Store.DatabasePath, verbose)
}

// resolveProject picks the project for the current invocation: the explicit
// flag wins, then the configured default (which a directory-local
// .histng.toml may have pinned).
func resolveProject(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Record.DefaultProject
}

// resolvePwd picks the working directory for the current invocation: the
// explicit flag wins, else the process working directory. The core never
// reads ambient state itself, so the lookup happens here.
func resolvePwd(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", histerrors.Wrap(err, "failed to determine working directory")
	}
	return pwd, nil
}
