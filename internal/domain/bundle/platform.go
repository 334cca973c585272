package bundle

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies a supported target operating system.
// Exactly three values exist; anything else is rejected at the first
// dispatch step, before the pipeline touches the filesystem.
type Platform string

const (
	// PlatformLinux targets desktop Linux distributions.
	PlatformLinux Platform = "linux"
	// PlatformDarwin targets macOS.
	PlatformDarwin Platform = "darwin"
	// PlatformWindows targets Windows.
	PlatformWindows Platform = "windows"
)

// ErrUnsupportedPlatform indicates the host OS has no build recipe.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ParsePlatform maps an operating system identifier (typically runtime.GOOS)
// to a Platform. There is no default recipe: unknown identifiers fail.
func ParsePlatform(name string) (Platform, error) {
	osLC := strings.ToLower(strings.TrimSpace(name))

	switch {
	case strings.Contains(osLC, "linux"):
		return PlatformLinux, nil
	case strings.Contains(osLC, "darwin"):
		return PlatformDarwin, nil
	case strings.Contains(osLC, "windows"):
		return PlatformWindows, nil
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupportedPlatform)
	}
}

// CurrentPlatform resolves the platform of the machine running the bundler.
func CurrentPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// String returns the platform identifier.
func (p Platform) String() string {
	return string(p)
}

// ExecutableExtension returns ".exe" for Windows and "" elsewhere.
func (p Platform) ExecutableExtension() string {
	if p == PlatformWindows {
		return ".exe"
	}

	return ""
}
