package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

// redistPattern matches the redistributable runtime libraries shipped
// alongside the Windows payload.
const redistPattern = "*.dll"

var (
	// errInstallerMissing is returned when the vendored driver installer
	// cannot be found.
	errInstallerMissing = errors.New("driver installer missing")
	// errRedistDirMissing is returned when the redistributable directory
	// cannot be found.
	errRedistDirMissing = errors.New("redistributable directory missing")
)

// windowsExtraBinaries injects the vendored driver installer and every
// redistributable DLL into the binary set handed to the collector.
func windowsExtraBinaries(ctx context.Context, m Materials) ([]bundle.Asset, error) {
	if _, err := os.Stat(m.InstallerPath); err != nil {
		return nil, fmt.Errorf("%w: %s", errInstallerMissing, m.InstallerPath)
	}

	extras := []bundle.Asset{{
		Source: m.InstallerPath,
		Target: filepath.Base(m.InstallerPath),
		Kind:   bundle.AssetKindBinary,
	}}

	if _, err := os.Stat(m.RedistDir); err != nil {
		return nil, fmt.Errorf("%w: %s", errRedistDirMissing, m.RedistDir)
	}

	matches, err := filepath.Glob(filepath.Join(m.RedistDir, redistPattern))
	if err != nil {
		return nil, fmt.Errorf("glob redistributables: %w", err)
	}

	// Glob order is filesystem dependent.
	sort.Strings(matches)

	for _, match := range matches {
		extras = append(extras, bundle.Asset{
			Source: match,
			Target: filepath.Base(match),
			Kind:   bundle.AssetKindBinary,
		})
	}

	logger.InfoKV(ctx, "Windows payload augmented",
		"installer", m.InstallerPath,
		"redistributables", len(matches))

	return extras, nil
}
