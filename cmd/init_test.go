package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thoreinstein.com/histng/pkg/config"
)

func testInitConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Store.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	cfg.Record.DefaultProject = "global"
	cfg.Session.Dir = filepath.Join(t.TempDir(), "sessions")
	cfg.Session.MaxLines = 1000
	cfg.Merge.Format = "%i  %t  %c"
	return cfg
}

func TestWriteDefaultConfig(t *testing.T) {
	cfg := testInitConfig(t)
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	if err := writeDefaultConfig(path, cfg); err != nil {
		t.Fatalf("writeDefaultConfig error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"database_path", "default_project", "max_lines", "[merge]"} {
		if !strings.Contains(content, want) {
			t.Errorf("config file missing %q:\n%s", want, content)
		}
	}
}

func TestWriteDefaultConfigNeverOverwrites(t *testing.T) {
	cfg := testInitConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	existing := "# hand-edited\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := writeDefaultConfig(path, cfg); err != nil {
		t.Fatalf("writeDefaultConfig error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != existing {
		t.Errorf("existing config was overwritten: %q", string(data))
	}
}
