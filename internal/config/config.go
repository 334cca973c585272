package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds packaging parameters shared by the bundler binaries.
type Config struct {
	// AppSource is the application source directory; the release version is
	// detected there when no override is given.
	AppSource string `yaml:"app_source"`
	// EntryPoint is the application script handed to the linker.
	EntryPoint string `yaml:"entry_point"`
	// SearchPaths are extra directories the linker scans for imports.
	SearchPaths []string `yaml:"search_paths"`
	// ProductName is the user-facing application name.
	ProductName string `yaml:"product_name"`
	// ExecutableName is the file name of the produced executable.
	ExecutableName string `yaml:"executable_name"`
	// BundleID is the reverse-DNS identifier written into app bundles.
	BundleID string `yaml:"bundle_id"`
	// Version overrides the detected application version when set.
	Version string `yaml:"version"`
	// OutputDir is where finished bundles are placed.
	OutputDir string `yaml:"output_dir"`
	// BuildDir is the scratch directory for intermediate build products.
	BuildDir string `yaml:"build_dir"`
	// ResolverCommand invokes the dependency report tool per library.
	ResolverCommand []string `yaml:"resolver_command"`
	// LinkerCommand invokes the executable build tool.
	LinkerCommand []string `yaml:"linker_command"`
	// SignerCommand invokes the code signing tool.
	SignerCommand []string `yaml:"signer_command"`
	// StripCommand invokes the symbol stripping tool.
	StripCommand []string `yaml:"strip_command"`
	// CompressCommand invokes the executable compression tool.
	CompressCommand []string `yaml:"compress_command"`
	// Timeout bounds every external tool invocation.
	Timeout time.Duration `yaml:"timeout"`
	// MacOS holds packaging inputs used only on macOS.
	MacOS MacOSConfig `yaml:"macos"`
	// Windows holds packaging inputs used only on Windows.
	Windows WindowsConfig `yaml:"windows"`
}

// MacOSConfig holds app bundle inputs.
type MacOSConfig struct {
	// Icon is the .icns file attached to the app bundle.
	Icon string `yaml:"icon"`
	// SigningIdentity is passed verbatim to the signing tool.
	SigningIdentity string `yaml:"signing_identity"`
	// Entitlements is the plist granting the app its runtime permissions.
	Entitlements string `yaml:"entitlements"`
}

// WindowsConfig holds installer payload inputs.
type WindowsConfig struct {
	// Icon is the .ico file embedded into the executable.
	Icon string `yaml:"icon"`
	// Installer is the vendored driver installer shipped with the bundle.
	Installer string `yaml:"installer"`
	// RedistDir is the directory of redistributable DLLs shipped alongside.
	RedistDir string `yaml:"redist_dir"`
}

const (
	// DefaultConfigFilename is the default filename for bundling settings.
	DefaultConfigFilename = "pupil-bundler-settings.yaml"

	// DefaultProductName is the user-facing application name.
	DefaultProductName = "Pupil Service"

	// DefaultExecutableName is the produced executable name.
	DefaultExecutableName = "pupil_service"

	// DefaultBundleID identifies app bundles.
	DefaultBundleID = "com.pupil-labs.core.service"

	// DefaultOutputDirname is where finished bundles land.
	DefaultOutputDirname = "dist"

	// DefaultBuildDirname is the scratch directory name.
	DefaultBuildDirname = "build"

	// DefaultRedistDirname is the redistributable directory shipped with
	// Windows bundles.
	DefaultRedistDirname = "pupil_external"

	// DefaultInstallerFilename is the vendored driver installer name.
	DefaultInstallerFilename = "PupilDrvInst.exe"

	// DefaultTimeout is the default duration for external tool invocations.
	DefaultTimeout = 10 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEntryPointRequired is returned when the entry point is missing.
	errEntryPointRequired = errors.New("entry point must be provided")
	// errResolverCommandRequired is returned when no resolver tool is set.
	errResolverCommandRequired = errors.New("resolver command must be provided")
	// errLinkerCommandRequired is returned when no linker tool is set.
	errLinkerCommandRequired = errors.New("linker command must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.EntryPoint == "" {
		return errEntryPointRequired
	}

	if len(cfg.ResolverCommand) == 0 {
		return errResolverCommandRequired
	}

	if len(cfg.LinkerCommand) == 0 {
		return errLinkerCommandRequired
	}

	// The application lives next to its entry point unless told otherwise.
	if cfg.AppSource == "" {
		cfg.AppSource = filepath.Dir(cfg.EntryPoint)
	}

	if cfg.ProductName == "" {
		cfg.ProductName = DefaultProductName
	}

	if cfg.ExecutableName == "" {
		cfg.ExecutableName = DefaultExecutableName
	}

	if cfg.BundleID == "" {
		cfg.BundleID = DefaultBundleID
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDirname
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDirname
	}

	if len(cfg.SignerCommand) == 0 {
		cfg.SignerCommand = []string{"codesign"}
	}

	if len(cfg.StripCommand) == 0 {
		cfg.StripCommand = []string{"strip"}
	}

	if len(cfg.CompressCommand) == 0 {
		cfg.CompressCommand = []string{"upx"}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Windows.RedistDir == "" {
		cfg.Windows.RedistDir = DefaultRedistDirname
	}

	if cfg.Windows.Installer == "" {
		cfg.Windows.Installer = filepath.Join(cfg.Windows.RedistDir, DefaultInstallerFilename)
	}

	return nil
}
