package bootstrap

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		label   string
		want    Mode
		wantErr bool
	}{
		{"runtime", ModeRuntime, false},
		{"RUNTIME", ModeRuntime, false},
		{"Run-Time", ModeRuntime, false},
		{"run_time", ModeRuntime, false},
		{" runtime ", ModeRuntime, false},
		{"debug", ModeDebug, false},
		{"Debug", ModeDebug, false},
		{"DE-BUG", ModeDebug, false},
		{"release", ModeRelease, false},
		{"Release!", ModeRelease, false},
		{"turbo", 0, true},
		{"", 0, true},
		{"runtime2", 0, true},
		{"prod", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseMode(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) = %v, want error", tt.label, got)
				}
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Errorf("ParseMode(%q) error = %T, want *ConfigurationError", tt.label, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) unexpected error: %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeRuntime, "runtime"},
		{ModeDebug, "debug"},
		{ModeRelease, "release"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q; want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestBannerLineDistinctPerMode(t *testing.T) {
	seen := map[string]Mode{}
	for _, m := range []Mode{ModeRuntime, ModeDebug, ModeRelease} {
		line := m.BannerLine()
		if line == "" {
			t.Errorf("mode %s has an empty banner line", m)
		}
		if other, dup := seen[line]; dup {
			t.Errorf("modes %s and %s share the banner line %q", m, other, line)
		}
		seen[line] = m
	}
}
