package bootstrap

import (
	"fmt"
	"strings"
)

// Mode is the deployment mode label, a closed set. It only selects
// the login banner text; it never changes the procedure itself.
type Mode int

const (
	ModeRuntime Mode = iota
	ModeDebug
	ModeRelease
)

func (m Mode) String() string {
	switch m {
	case ModeRuntime:
		return "runtime"
	case ModeDebug:
		return "debug"
	case ModeRelease:
		return "release"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// BannerLine returns the message-of-the-day line for the mode.
func (m Mode) BannerLine() string {
	switch m {
	case ModeDebug:
		return "metaserve deployment: debug mode. Verbose diagnostics are enabled; do not expose this instance publicly."
	case ModeRelease:
		return "metaserve deployment: release mode."
	default:
		return "metaserve deployment: runtime mode."
	}
}

// normalizeLabel strips every character outside [A-Za-z0-9-] and
// lower-cases the rest, so "Run-Time", "RUNTIME" and "runtime" all
// compare equal.
func normalizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, label)
}

// ParseMode matches a free-form label against the closed mode set.
// Matching is case-insensitive and ignores punctuation; anything not
// in the set is a ConfigurationError.
func ParseMode(label string) (Mode, error) {
	switch normalizeLabel(label) {
	case "runtime":
		return ModeRuntime, nil
	case "debug":
		return ModeDebug, nil
	case "release":
		return ModeRelease, nil
	default:
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown mode %q (expected runtime, debug or release)", label)}
	}
}
