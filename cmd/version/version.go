package version

import (
	"fmt"
	"runtime"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// CurrentVersion is set by build flags during release builds:
//
//	go build -ldflags "-X ragchat-cli/cmd/version.CurrentVersion=v1.2.3"
var CurrentVersion = "dev"

// NormalizeVersion ensures version has a 'v' prefix and validates it using semver.
func NormalizeVersion(version string) string {
	if version == "" {
		return ""
	}

	// Strip any existing prefix for validation
	normalized := strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V")

	if _, err := semver.NewVersion(normalized); err != nil {
		// Not semver (could be a tag name) but still gets the prefix
		if !strings.HasPrefix(version, "v") && !strings.HasPrefix(version, "V") {
			return "v" + version
		}
		return version
	}

	return "v" + normalized
}

// IsRelease reports whether version parses as a semantic version.
func IsRelease(version string) bool {
	_, err := semver.NewVersion(strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V"))
	return err == nil
}

// FormatVersionForDisplay normalizes a version string for consistent display.
// Releases get a 'v' prefix; anything else, such as "dev", is shown as is.
// Examples: "1.0.0" -> "v1.0.0", "dev" -> "dev", "" -> "unknown"
func FormatVersionForDisplay(version string) string {
	if version == "" {
		return "unknown"
	}
	if !IsRelease(version) {
		return version
	}
	return NormalizeVersion(version)
}

// Describe is the line printed by `ragchat version`.
func Describe(version string) string {
	display := FormatVersionForDisplay(version)
	if version != "" && !IsRelease(version) {
		return fmt.Sprintf("ragchat %s (development build)", display)
	}
	return "ragchat " + display
}

// UserAgent identifies this client on outgoing backend requests.
func UserAgent() string {
	return fmt.Sprintf("ragchat/%s (%s/%s)", FormatVersionForDisplay(CurrentVersion), runtime.GOOS, runtime.GOARCH)
}
