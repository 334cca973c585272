package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
	"github.com/guohaomeng/pupil/internal/recipe"
	"github.com/guohaomeng/pupil/internal/signing"
)

var (
	// errEntryPointMissing is returned when the application entry point
	// cannot be found.
	errEntryPointMissing = errors.New("entry point missing")
	// errIconMissing is returned when the configured icon cannot be found.
	errIconMissing = errors.New("icon file missing")
	// errSignerNotConfigured is returned when the platform wants a signed
	// executable but no signing collaborator was provided.
	errSignerNotConfigured = errors.New("signer is not configured")
)

// Linker produces the standalone executable described by the artifact spec,
// writing intermediate build products into the build directory.
type Linker interface {
	Link(ctx context.Context, spec bundle.ArtifactSpec, assets *bundle.ResolvedAssets, buildDir string) (*bundle.Executable, error)
}

// Options describe one assembly run.
type Options struct {
	// EntryPoint is the application script handed to the linker.
	EntryPoint string
	// SearchPaths are extra import directories for the linker.
	SearchPaths []string
	// BuildDir is the scratch directory for intermediate products.
	BuildDir string
	// Recipe is the platform recipe selected for this run.
	Recipe recipe.Recipe
	// Materials carry the naming and auxiliary asset inputs.
	Materials recipe.Materials
	// Assets is the filtered asset set travelling into the executable.
	Assets *bundle.ResolvedAssets
}

// Assembler drives the linker and the signer for one platform run.
type Assembler struct {
	linker Linker
	signer signing.Signer
}

// New builds an Assembler around the given collaborators.
func New(linker Linker, signer signing.Signer) *Assembler {
	return &Assembler{linker: linker, signer: signer}
}

// Run composes the artifact spec, verifies its referenced inputs and produces
// the standalone executable in the build directory.
func (a *Assembler) Run(ctx context.Context, opts *Options) (*bundle.Executable, error) {
	if _, err := os.Stat(opts.EntryPoint); err != nil {
		return nil, fmt.Errorf("%w: %s", errEntryPointMissing, opts.EntryPoint)
	}

	spec := composeSpec(opts)

	if spec.Icon != "" {
		if _, err := os.Stat(spec.Icon); err != nil {
			return nil, fmt.Errorf("%w: %s", errIconMissing, spec.Icon)
		}
	}

	if err := os.MkdirAll(opts.BuildDir, bundle.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create build directory: %w", err)
	}

	logger.InfoKV(ctx, "Assembling executable",
		"name", spec.Name,
		"entry_point", spec.EntryPoint,
		"console", spec.Console)

	executable, err := a.linker.Link(ctx, spec, opts.Assets, opts.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("link executable: %w", err)
	}

	if spec.SigningIdentity != "" {
		if a.signer == nil {
			return nil, errSignerNotConfigured
		}

		if err = a.signer.Sign(ctx, executable.Path, spec.SigningIdentity, spec.Entitlements); err != nil {
			return nil, fmt.Errorf("sign executable: %w", err)
		}
	}

	return executable, nil
}

// composeSpec merges platform policy and run inputs into the artifact spec:
// the executable name carries the platform extension, the console stays
// visible except on Windows, the icon is embedded on Windows only and the
// signing identity travels on macOS only.
func composeSpec(opts *Options) bundle.ArtifactSpec {
	spec := bundle.ArtifactSpec{
		EntryPoint:  opts.EntryPoint,
		SearchPaths: append([]string(nil), opts.SearchPaths...),
		Name:        opts.Materials.ExecutableName + opts.Recipe.Platform.ExecutableExtension(),
		Console:     opts.Recipe.Console,
	}

	switch opts.Recipe.Platform {
	case bundle.PlatformWindows:
		spec.Icon = opts.Materials.Icon
	case bundle.PlatformDarwin:
		spec.SigningIdentity = opts.Materials.SigningIdentity
		spec.Entitlements = opts.Materials.Entitlements
	case bundle.PlatformLinux:
	}

	return spec
}
