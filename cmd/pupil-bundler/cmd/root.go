package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guohaomeng/pupil/internal/config"
	"github.com/guohaomeng/pupil/internal/service/bundler"
	"github.com/guohaomeng/pupil/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for packaging the application runtime.
	rootCmd = &cobra.Command{
		Use:   "pupil-bundler [platform]",
		Short: "Package the application runtime into a distributable bundle.",
		Long: `Freezes the application entry point and packages it together with its
shared libraries and data files into a self-contained bundle directory.

The target platform defaults to the build host and can be overridden with an
argument. On Linux the result is a flat directory with stripped and compressed
binaries, on macOS a signed application bundle and on Windows an installer
payload with the driver tooling placed alongside the executable.

Bundling settings such as the entry point, resolver and freezer commands are
loaded from the configuration file.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"linux", "darwin", "windows"},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use platform argument if provided, otherwise target the build host.
			var platformName string
			if len(args) > 0 {
				platformName = args[0]
			}

			return bundler.Run(ctx, &bundler.Options{
				ConfigPath:   configPath,
				PlatformName: platformName,
			})
		},
	}
)

// Execute runs the pupil-bundler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
