package recipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
)

// TestWindowsExtraBinaries expects exactly one installer entry plus one entry
// per DLL found in the redistributable directory.
func TestWindowsExtraBinaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	redistDir := filepath.Join(dir, "pupil_external")
	require.NoError(t, os.MkdirAll(redistDir, 0o755))

	installer := filepath.Join(redistDir, "PupilDrvInst.exe")
	for _, name := range []string{"PupilDrvInst.exe", "b.dll", "a.dll", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(redistDir, name), []byte(name), 0o644))
	}

	windows, err := ForPlatform(bundle.PlatformWindows)
	require.NoError(t, err)

	extras, err := windows.ExtraBinaries(context.Background(), Materials{
		InstallerPath: installer,
		RedistDir:     redistDir,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(extras))
	for _, extra := range extras {
		require.Equal(t, bundle.AssetKindBinary, extra.Kind)
		names = append(names, extra.Target)
	}

	// Installer first, DLLs in sorted order, nothing else.
	require.Equal(t, []string{"PupilDrvInst.exe", "a.dll", "b.dll"}, names)
}

// TestWindowsExtraBinariesMissingInstaller is fatal and names the path.
func TestWindowsExtraBinariesMissingInstaller(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	installer := filepath.Join(dir, "PupilDrvInst.exe")

	windows, err := ForPlatform(bundle.PlatformWindows)
	require.NoError(t, err)

	_, err = windows.ExtraBinaries(context.Background(), Materials{
		InstallerPath: installer,
		RedistDir:     dir,
	})
	require.ErrorIs(t, err, errInstallerMissing)
	require.ErrorContains(t, err, installer)
}

// TestWindowsExtraBinariesMissingRedistDir is fatal and names the path.
func TestWindowsExtraBinariesMissingRedistDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	installer := filepath.Join(dir, "PupilDrvInst.exe")
	require.NoError(t, os.WriteFile(installer, []byte("installer"), 0o644))

	missing := filepath.Join(dir, "absent")

	windows, err := ForPlatform(bundle.PlatformWindows)
	require.NoError(t, err)

	_, err = windows.ExtraBinaries(context.Background(), Materials{
		InstallerPath: installer,
		RedistDir:     missing,
	})
	require.ErrorIs(t, err, errRedistDirMissing)
	require.ErrorContains(t, err, missing)
}

// TestWindowsExtraBinariesEmptyRedistDir ships just the installer.
func TestWindowsExtraBinariesEmptyRedistDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	installer := filepath.Join(dir, "PupilDrvInst.exe")
	require.NoError(t, os.WriteFile(installer, []byte("installer"), 0o644))

	windows, err := ForPlatform(bundle.PlatformWindows)
	require.NoError(t, err)

	extras, err := windows.ExtraBinaries(context.Background(), Materials{
		InstallerPath: installer,
		RedistDir:     dir,
	})
	require.NoError(t, err)
	require.Len(t, extras, 1)
	require.Equal(t, "PupilDrvInst.exe", extras[0].Target)
}
