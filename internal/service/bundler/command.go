package bundler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guohaomeng/pupil/internal/appversion"
	"github.com/guohaomeng/pupil/internal/assemble"
	"github.com/guohaomeng/pupil/internal/collect"
	"github.com/guohaomeng/pupil/internal/config"
	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
	"github.com/guohaomeng/pupil/internal/recipe"
	"github.com/guohaomeng/pupil/internal/resolver"
	"github.com/guohaomeng/pupil/internal/signing"
)

// errBundlerAlreadyRunning indicates another run is in flight against the
// same output directory.
var errBundlerAlreadyRunning = errors.New("the bundler is already running")

// Options are inputs accepted by the bundler entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// PlatformName optionally overrides the target platform; the default is
	// the build host's operating system.
	PlatformName string
}

// worker holds the collaborators and state for a single packaging run.
type worker struct {
	cfg        *config.Config    // Packaging configuration loaded from YAML.
	platform   bundle.Platform   // Target operating system of this run.
	selected   recipe.Recipe     // Platform recipe selected once per run.
	materials  recipe.Materials  // Naming and auxiliary asset inputs.
	deps       resolver.Resolver // Reports the assets per declared library.
	assembler  *assemble.Assembler
	collector  *collect.Collector
	markerPath string // Created marker file, removed on cleanup.
}

// Run executes the packaging pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pupil-bundler")

	w, err := newWorker(ctx, opts)
	if err != nil {
		return err
	}

	defer w.cleanup(ctx)

	if err = w.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Packaging run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Packaging completed")

	return nil
}

// newWorker validates the target platform, loads settings, wires the external
// tool adapters and claims the output directory with a marker file.
func newWorker(ctx context.Context, opts *Options) (*worker, error) {
	w := &worker{}

	// Platform dispatch happens before anything touches the filesystem.
	var err error
	if opts.PlatformName != "" {
		w.platform, err = bundle.ParsePlatform(opts.PlatformName)
	} else {
		w.platform, err = bundle.CurrentPlatform()
	}

	if err != nil {
		return w, err
	}

	if w.selected, err = recipe.ForPlatform(w.platform); err != nil {
		return w, err
	}

	if w.cfg, err = config.Load(opts.ConfigPath); err != nil {
		return w, err
	}

	if err = w.wireCollaborators(); err != nil {
		return w, err
	}

	if IsBundlerRunningNow(ctx, w.cfg.OutputDir) {
		return w, errBundlerAlreadyRunning
	}

	if err = w.claimOutputDirectory(); err != nil {
		return w, err
	}

	return w, nil
}

// wireCollaborators builds the external tool adapters from configuration.
func (w *worker) wireCollaborators() error {
	deps, err := resolver.NewHookResolver(w.cfg.ResolverCommand, w.cfg.Timeout)
	if err != nil {
		return err
	}

	linker, err := assemble.NewCommandLinker(w.cfg.LinkerCommand, w.cfg.Timeout)
	if err != nil {
		return err
	}

	signer, err := signing.NewCommandSigner(w.cfg.SignerCommand, w.cfg.Timeout)
	if err != nil {
		return err
	}

	w.deps = deps
	w.assembler = assemble.New(linker, signer)
	w.collector = collect.New(
		collect.NewExecToolRunner(w.cfg.Timeout),
		w.cfg.StripCommand,
		w.cfg.CompressCommand)

	w.materials = recipe.Materials{
		ProductName:    w.cfg.ProductName,
		ExecutableName: w.cfg.ExecutableName,
		BundleID:       w.cfg.BundleID,
		OutputDir:      w.cfg.OutputDir,
		InstallerPath:  w.cfg.Windows.Installer,
		RedistDir:      w.cfg.Windows.RedistDir,
		Signer:         signer,
	}

	switch w.platform {
	case bundle.PlatformDarwin:
		w.materials.Icon = w.cfg.MacOS.Icon
		w.materials.Entitlements = w.cfg.MacOS.Entitlements
		w.materials.SigningIdentity = w.cfg.MacOS.SigningIdentity
	case bundle.PlatformWindows:
		w.materials.Icon = w.cfg.Windows.Icon
	case bundle.PlatformLinux:
	}

	return nil
}

// claimOutputDirectory creates the output directory and the in-flight marker.
func (w *worker) claimOutputDirectory() error {
	if err := os.MkdirAll(w.cfg.OutputDir, bundle.DefaultFileMode); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	markerPath := filepath.Join(w.cfg.OutputDir, MarkerFilename)

	marker, err := os.Create(markerPath)
	if err != nil {
		return fmt.Errorf("create bundle marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return fmt.Errorf("close bundle marker: %w", err)
	}

	w.markerPath = markerPath

	return nil
}

// Run executes the pipeline for this worker instance:
// 1) Detect the application version.
// 2) Resolve the declared runtime libraries.
// 3) Filter out binaries the platform must provide itself.
// 4) Assemble the standalone executable.
// 5) Augment the payload with platform extras.
// 6) Collect the bundle tree.
// 7) Finalize the platform artifact.
func (w *worker) Run(ctx context.Context) error {
	version, err := appversion.Detect(ctx, w.cfg.Version, w.cfg.AppSource)
	if err != nil {
		return fmt.Errorf("detect application version: %w", err)
	}

	w.materials.Version = version

	libraries := bundle.RuntimeDependencies(w.platform)
	logger.InfoKV(ctx, "Resolving runtime libraries",
		"platform", w.platform,
		"version", version,
		"libraries", len(libraries))

	assets, err := resolver.Collect(ctx, w.deps, libraries)
	if err != nil {
		return err
	}

	binaries := bundle.FilterBinaries(assets.Binaries, w.selected.ExclusionRules())
	logger.InfoKV(ctx, "Filtered platform binaries",
		"kept", len(binaries),
		"excluded", len(assets.Binaries)-len(binaries))

	executable, err := w.assembler.Run(ctx, &assemble.Options{
		EntryPoint:  w.cfg.EntryPoint,
		SearchPaths: w.cfg.SearchPaths,
		BuildDir:    w.cfg.BuildDir,
		Recipe:      w.selected,
		Materials:   w.materials,
		Assets:      assets,
	})
	if err != nil {
		return err
	}

	extras, err := w.selected.ExtraBinaries(ctx, w.materials)
	if err != nil {
		return err
	}

	binaries = append(binaries, extras...)

	collected, err := w.collector.Run(ctx, &collect.Options{
		OutputDir:  w.cfg.OutputDir,
		OutputName: w.selected.OutputName(w.materials),
		Executable: executable,
		Binaries:   binaries,
		DataFiles:  assets.DataFiles,
		Settings:   w.selected.Settings,
		Platform:   w.platform,
		Version:    version,
	})
	if err != nil {
		return err
	}

	artifact, err := w.selected.Finalize(ctx, w.materials, collected)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Artifact written",
		"path", artifact.Path,
		"format", artifact.Format,
		"version", artifact.Version)

	return nil
}

// cleanup releases the output directory claim.
func (w *worker) cleanup(ctx context.Context) {
	if w.markerPath != "" {
		if _, err := os.Stat(w.markerPath); err == nil {
			_ = os.Remove(w.markerPath)
		}
	}

	logger.Info(ctx, "The bundler has been stopped")
}
