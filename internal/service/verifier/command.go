package verifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

var (
	// errBundleMismatch indicates at least one bundle file is missing or
	// differs from its recorded checksum.
	errBundleMismatch = errors.New("bundle does not match its manifest")
	// errEmptyManifest indicates the manifest records no files at all.
	errEmptyManifest = errors.New("manifest records no files")
)

// Options are inputs accepted by the verifier entry point.
type Options struct {
	// BundleDir is the collected bundle root containing the manifest.
	BundleDir string
}

// Run re-hashes every file recorded in the bundle manifest and reports the
// ones that are missing or modified. It is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "pupil-verify")

	manifest, err := bundle.LoadManifest(opts.BundleDir)
	if err != nil {
		return err
	}

	if len(manifest.Files) == 0 {
		return errEmptyManifest
	}

	logger.InfoKV(ctx, "Verifying bundle",
		"root", opts.BundleDir,
		"version", manifest.VersionNumber,
		"platform", manifest.Platform,
		"files", len(manifest.Files))

	var broken []string

	for _, target := range sortedTargets(manifest.Files) {
		ok, checkErr := fileMatchesManifest(opts.BundleDir, target, manifest.Files[target])
		if checkErr != nil {
			logger.WarnKV(ctx, "Bundle file unreadable", "file", target, "error", checkErr)
			broken = append(broken, target)

			continue
		}

		if !ok {
			logger.WarnKV(ctx, "Bundle file modified", "file", target)
			broken = append(broken, target)
		}
	}

	if len(broken) > 0 {
		return fmt.Errorf("%w: %s", errBundleMismatch, strings.Join(broken, ", "))
	}

	logger.InfoKV(ctx, "Bundle matches its manifest", "version", manifest.VersionNumber)

	return nil
}

// fileMatchesManifest compares one bundle file against its recorded checksum.
func fileMatchesManifest(root, target, encoded string) (bool, error) {
	expected, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("decode checksum: %w", err)
	}

	path := filepath.Join(root, filepath.FromSlash(target))
	if _, err = os.Stat(path); err != nil {
		return false, err
	}

	actual, err := bundle.FileChecksum(path)
	if err != nil {
		return false, err
	}

	return bytes.Equal(expected, actual), nil
}

// sortedTargets returns manifest keys in stable order for readable reports.
func sortedTargets(files map[string]string) []string {
	targets := make([]string, 0, len(files))
	for target := range files {
		targets = append(targets, target)
	}

	sort.Strings(targets)

	return targets
}
