package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

const (
	appBundleExtension = ".app"
	contentsDirname    = "Contents"
	payloadDirname     = "MacOS"
	resourcesDirname   = "Resources"
	manifestFilename   = "Info.plist"
)

var (
	// errIconMissing is returned when the configured icon cannot be found.
	errIconMissing = errors.New("icon file missing")
	// errEntitlementsMissing is returned when the configured entitlements
	// file cannot be found.
	errEntitlementsMissing = errors.New("entitlements file missing")
	// errSignerNotConfigured is returned when an identity is set but no
	// signing collaborator was provided.
	errSignerNotConfigured = errors.New("signer is not configured")
)

// xmlReplacer guards manifest strings against markup characters.
var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// darwinFinalize wraps the collected directory into a versioned application
// bundle, writes the bundle manifest and hands the result to the signer.
func darwinFinalize(ctx context.Context, m Materials, collected *bundle.Collected) (*bundle.Artifact, error) {
	appRoot := filepath.Join(m.OutputDir, m.ProductName+appBundleExtension)
	contentsDir := filepath.Join(appRoot, contentsDirname)
	resourcesDir := filepath.Join(contentsDir, resourcesDirname)

	// A leftover bundle from a previous run blocks the payload move.
	if err := os.RemoveAll(appRoot); err != nil {
		return nil, fmt.Errorf("clear previous bundle: %w", err)
	}

	if err := os.MkdirAll(resourcesDir, bundle.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create bundle layout: %w", err)
	}

	// The collected payload becomes Contents/MacOS wholesale.
	if err := os.Rename(collected.Root, filepath.Join(contentsDir, payloadDirname)); err != nil {
		return nil, fmt.Errorf("move payload into bundle: %w", err)
	}

	iconName, err := attachIcon(m.Icon, resourcesDir)
	if err != nil {
		return nil, err
	}

	if err = writeBundleManifest(contentsDir, m, iconName, collected.Executable.Name); err != nil {
		return nil, err
	}

	if err = signBundle(ctx, m, appRoot); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Application bundle finalized",
		"path", appRoot,
		"version", m.Version)

	return &bundle.Artifact{
		Platform: bundle.PlatformDarwin,
		Format:   bundle.FormatAppBundle,
		Path:     appRoot,
		Version:  m.Version,
	}, nil
}

// attachIcon copies the configured icon into Resources and returns its
// bundle-internal name, empty when no icon is configured.
func attachIcon(icon, resourcesDir string) (string, error) {
	if icon == "" {
		return "", nil
	}

	if _, err := os.Stat(icon); err != nil {
		return "", fmt.Errorf("%w: %s", errIconMissing, icon)
	}

	iconName := filepath.Base(icon)
	if err := copyFile(icon, filepath.Join(resourcesDir, iconName)); err != nil {
		return "", fmt.Errorf("copy icon: %w", err)
	}

	return iconName, nil
}

// signBundle hands the finished bundle to the signer when an identity is set.
func signBundle(ctx context.Context, m Materials, appRoot string) error {
	if m.SigningIdentity == "" {
		return nil
	}

	if m.Signer == nil {
		return errSignerNotConfigured
	}

	if m.Entitlements != "" {
		if _, err := os.Stat(m.Entitlements); err != nil {
			return fmt.Errorf("%w: %s", errEntitlementsMissing, m.Entitlements)
		}
	}

	return m.Signer.Sign(ctx, appRoot, m.SigningIdentity, m.Entitlements)
}

// writeBundleManifest renders the minimal Info.plist: identity, version and
// the high resolution capability flag.
func writeBundleManifest(contentsDir string, m Materials, iconName, executableName string) error {
	entries := [][2]string{
		{"CFBundleDevelopmentRegion", "en"},
		{"CFBundleDisplayName", m.ProductName},
		{"CFBundleExecutable", executableName},
		{"CFBundleIdentifier", m.BundleID},
		{"CFBundleName", m.ProductName},
		{"CFBundlePackageType", "APPL"},
		{"CFBundleShortVersionString", m.Version},
		{"CFBundleVersion", m.Version},
	}

	if iconName != "" {
		entries = append(entries, [2]string{"CFBundleIconFile", iconName})
	}

	var builder strings.Builder

	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	builder.WriteString("<plist version=\"1.0\">\n<dict>\n")

	for _, entry := range entries {
		fmt.Fprintf(&builder, "\t<key>%s</key>\n\t<string>%s</string>\n",
			entry[0], xmlReplacer.Replace(entry[1]))
	}

	builder.WriteString("\t<key>NSHighResolutionCapable</key>\n\t<true/>\n")
	builder.WriteString("</dict>\n</plist>\n")

	manifestPath := filepath.Join(contentsDir, manifestFilename)
	if err := os.WriteFile(manifestPath, []byte(builder.String()), bundle.DefaultFileMode); err != nil {
		return fmt.Errorf("write bundle manifest: %w", err)
	}

	return nil
}

// copyFile duplicates a regular file, keeping the distribution file mode.
func copyFile(source, target string) error {
	input, err := os.Open(filepath.Clean(source))
	if err != nil {
		return err
	}

	defer func() {
		_ = input.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, bundle.DefaultFileMode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(output, input); err != nil {
		_ = output.Close()
		return err
	}

	return output.Close()
}
