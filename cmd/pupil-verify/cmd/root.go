package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guohaomeng/pupil/internal/service/verifier"
	"github.com/guohaomeng/pupil/internal/version"
)

var (
	// rootCmd represents the base command for verifying a collected bundle.
	rootCmd = &cobra.Command{
		Use:   "pupil-verify [bundle-dir]",
		Short: "Verify a collected bundle against its manifest",
		Long: `Re-hashes every file recorded in the bundle manifest and reports files
that have been removed or modified since the bundle was collected.

The bundle directory is the output of pupil-bundler, the one holding the
version manifest next to the packaged executable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &verifier.Options{
				BundleDir: args[0],
			}

			return verifier.Run(ctx, options)
		},
	}
)

// Execute runs the pupil-verify CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
