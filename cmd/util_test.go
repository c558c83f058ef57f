package cmd

import (
	"testing"
	"time"

	"thoreinstein.com/histng/pkg/config"
	histerrors "thoreinstein.com/histng/pkg/errors"
)

func TestParseTimeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "date only",
			input: "2025-08-14",
			want:  time.Date(2025, 8, 14, 0, 0, 0, 0, time.Local),
		},
		{
			name:  "date and minutes",
			input: "2025-08-14 09:30",
			want:  time.Date(2025, 8, 14, 9, 30, 0, 0, time.Local),
		},
		{
			name:  "date and seconds",
			input: "2025-08-14 09:30:15",
			want:  time.Date(2025, 8, 14, 9, 30, 15, 0, time.Local),
		},
		{
			name:  "rfc3339",
			input: "2025-08-14T09:30:15Z",
			want:  time.Date(2025, 8, 14, 9, 30, 15, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "last tuesday",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimeString(tt.input)
			if tt.wantErr {
				if !histerrors.IsValidationError(err) {
					t.Errorf("want ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimeString(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimeString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveProject(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Record.DefaultProject = "global"

	if got := resolveProject(cfg, "api"); got != "api" {
		t.Errorf("explicit flag: got %q, want %q", got, "api")
	}
	if got := resolveProject(cfg, ""); got != "global" {
		t.Errorf("config fallback: got %q, want %q", got, "global")
	}
}
