package bundle

import "strings"

// ExclusionRule removes a system-provided library from the bundled binary set.
// A bundled copy of such a library would shadow the one guaranteed to exist on
// the target machine and break at runtime; the rule never removes anything the
// application requires exclusively.
type ExclusionRule struct {
	// Match is the case-sensitive substring compared against the bare
	// file name of a binary asset.
	Match string
}

// Matches reports whether the rule removes the given asset.
func (r ExclusionRule) Matches(asset Asset) bool {
	return strings.Contains(asset.TargetName(), r.Match)
}

//nolint:gochecknoglobals // Static, hand-curated catalogues.
var (
	// linuxExclusions lists libraries every supported distribution provides.
	// Shipping our own copies is a known source of loader crashes.
	linuxExclusions = []ExclusionRule{
		// The bundled glibc ties the runtime to the build machine's dynamic linker.
		{Match: "libc.so"},
		// Target libstdc++ is newer than the build machine's on all supported distros.
		{Match: "libstdc++.so"},
		// GOMP threading breaks when the bundled copy meets the system OpenMP runtime.
		{Match: "libgomp.so.1"},
		// libdrm must match the host GPU driver stack.
		{Match: "libdrm.so.2"},
	}

	// darwinExclusions removes the OS core runtime; macOS always provides it.
	darwinExclusions = []ExclusionRule{
		{Match: "libSystem"},
	}
)

// ExclusionRules returns the static exclusion catalogue for a platform.
// Windows has none: its recipe adds vendored binaries instead of removing any.
func ExclusionRules(p Platform) []ExclusionRule {
	switch p {
	case PlatformLinux:
		return append([]ExclusionRule(nil), linuxExclusions...)
	case PlatformDarwin:
		return append([]ExclusionRule(nil), darwinExclusions...)
	case PlatformWindows:
		return nil
	default:
		return nil
	}
}

// FilterBinaries returns assets minus every entry matching any rule.
// The filter is a single-pass pure set difference: rules do not chain, and
// applying them in any order (or twice) yields the same result.
func FilterBinaries(assets []Asset, rules []ExclusionRule) []Asset {
	if len(rules) == 0 {
		return append([]Asset(nil), assets...)
	}

	filtered := make([]Asset, 0, len(assets))

	for _, asset := range assets {
		if matchesAny(asset, rules) {
			continue
		}

		filtered = append(filtered, asset)
	}

	return filtered
}

// matchesAny reports whether any rule removes the asset.
func matchesAny(asset Asset, rules []ExclusionRule) bool {
	for _, rule := range rules {
		if rule.Matches(asset) {
			return true
		}
	}

	return false
}
