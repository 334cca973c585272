package recipe

import (
	"context"
	"fmt"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/signing"
)

// Materials are the external inputs a recipe's hooks may consume: artifact
// naming, auxiliary asset paths and the signing collaborator.
type Materials struct {
	// ProductName is the user-facing application name.
	ProductName string
	// ExecutableName is the internal executable name.
	ExecutableName string
	// BundleID is the reverse-DNS identifier written into app bundles.
	BundleID string
	// Version is the application version string for this run.
	Version string
	// Icon is the platform icon file, empty when the platform has none.
	Icon string
	// Entitlements is the macOS entitlements file, optional.
	Entitlements string
	// SigningIdentity enables signing on macOS when non-empty.
	SigningIdentity string
	// InstallerPath is the vendored Windows driver installer.
	InstallerPath string
	// RedistDir is the Windows redistributable DLL directory.
	RedistDir string
	// OutputDir is where finished artifacts are placed.
	OutputDir string
	// Signer performs the actual signing tool invocation.
	Signer signing.Signer
}

// Recipe is the packaging recipe for one platform. The zero hooks mean
// "nothing extra": no payload augmentation and a collection that already is
// the final artifact.
type Recipe struct {
	// Platform is the target operating system this recipe packages for.
	Platform bundle.Platform
	// Console keeps the terminal window visible on launch.
	Console bool
	// Settings is the collector's strip and compress policy.
	Settings bundle.CollectSettings

	extraBinaries func(ctx context.Context, m Materials) ([]bundle.Asset, error)
	finalize      func(ctx context.Context, m Materials, collected *bundle.Collected) (*bundle.Artifact, error)
}

// ForPlatform returns the packaging recipe for the given platform.
func ForPlatform(p bundle.Platform) (Recipe, error) {
	switch p {
	case bundle.PlatformLinux:
		return Recipe{
			Platform: p,
			Console:  true,
			Settings: bundle.CollectSettings{StripSymbols: true, CompressBinaries: true},
		}, nil
	case bundle.PlatformDarwin:
		// Compression is off so signing still validates after collection.
		return Recipe{
			Platform: p,
			Console:  true,
			Settings: bundle.CollectSettings{},
			finalize: darwinFinalize,
		}, nil
	case bundle.PlatformWindows:
		return Recipe{
			Platform:      p,
			Console:       false,
			Settings:      bundle.CollectSettings{CompressBinaries: true},
			extraBinaries: windowsExtraBinaries,
		}, nil
	default:
		return Recipe{}, fmt.Errorf("%w: %s", bundle.ErrUnsupportedPlatform, p)
	}
}

// ExclusionRules returns the platform's binary exclusion catalogue.
func (r Recipe) ExclusionRules() []bundle.ExclusionRule {
	return bundle.ExclusionRules(r.Platform)
}

// OutputName returns the collection directory name, a fixed per-platform
// convention: Linux ships under the internal executable name, macOS and
// Windows under the user-facing product name.
func (r Recipe) OutputName(m Materials) string {
	if r.Platform == bundle.PlatformLinux {
		return m.ExecutableName
	}

	return m.ProductName
}

// ExtraBinaries returns additional payload binaries the platform ships
// beyond the resolved dependency set.
func (r Recipe) ExtraBinaries(ctx context.Context, m Materials) ([]bundle.Asset, error) {
	if r.extraBinaries == nil {
		return nil, nil
	}

	return r.extraBinaries(ctx, m)
}

// Finalize turns the collected directory into the distributable artifact.
// Collected entries are never modified; platforms that wrap the collection
// produce a new artifact around it.
func (r Recipe) Finalize(ctx context.Context, m Materials, collected *bundle.Collected) (*bundle.Artifact, error) {
	if r.finalize == nil {
		return &bundle.Artifact{
			Platform: r.Platform,
			Format:   bundle.FormatDirectory,
			Path:     collected.Root,
			Version:  m.Version,
		}, nil
	}

	return r.finalize(ctx, m, collected)
}
