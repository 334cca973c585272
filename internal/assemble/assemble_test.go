package assemble

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/recipe"
)

// fakeLinker records the artifact spec it received and fabricates an executable.
type fakeLinker struct {
	spec     bundle.ArtifactSpec
	buildDir string
	err      error
}

func (f *fakeLinker) Link(_ context.Context, spec bundle.ArtifactSpec, _ *bundle.ResolvedAssets, buildDir string) (*bundle.Executable, error) {
	f.spec = spec
	f.buildDir = buildDir

	if f.err != nil {
		return nil, f.err
	}

	path := filepath.Join(buildDir, spec.Name)
	if err := os.WriteFile(path, []byte("executable"), 0o755); err != nil {
		return nil, err
	}

	return &bundle.Executable{Name: spec.Name, Path: path}, nil
}

// fakeSigner records signing requests.
type fakeSigner struct {
	calls        int
	path         string
	identity     string
	entitlements string
}

func (f *fakeSigner) Sign(_ context.Context, path, identity, entitlements string) error {
	f.calls++
	f.path, f.identity, f.entitlements = path, identity, entitlements

	return nil
}

// fixtureOptions builds assembly options around a real entry point file.
func fixtureOptions(t *testing.T, platform bundle.Platform) *Options {
	t.Helper()

	dir := t.TempDir()
	entryPoint := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(entryPoint, []byte("print('pupil')"), 0o644))

	selected, err := recipe.ForPlatform(platform)
	require.NoError(t, err)

	return &Options{
		EntryPoint:  entryPoint,
		SearchPaths: []string{filepath.Join(dir, "shared_modules")},
		BuildDir:    filepath.Join(dir, "build"),
		Recipe:      selected,
		Materials:   recipe.Materials{ExecutableName: "pupil_service"},
		Assets:      &bundle.ResolvedAssets{HiddenImports: []string{"zmq.backend.cython"}},
	}
}

// TestRunLinux produces a console executable without icon or signing.
func TestRunLinux(t *testing.T) {
	t.Parallel()

	linker := &fakeLinker{}
	opts := fixtureOptions(t, bundle.PlatformLinux)

	executable, err := New(linker, nil).Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, "pupil_service", executable.Name)
	require.FileExists(t, executable.Path)

	require.True(t, linker.spec.Console)
	require.Empty(t, linker.spec.Icon)
	require.Empty(t, linker.spec.SigningIdentity)
	require.Equal(t, opts.BuildDir, linker.buildDir)

	// The build directory was created for the linker.
	require.DirExists(t, opts.BuildDir)
}

// TestRunWindows embeds the icon and hides the console.
func TestRunWindows(t *testing.T) {
	t.Parallel()

	linker := &fakeLinker{}
	opts := fixtureOptions(t, bundle.PlatformWindows)

	icon := filepath.Join(t.TempDir(), "pupil.ico")
	require.NoError(t, os.WriteFile(icon, []byte("icon"), 0o644))
	opts.Materials.Icon = icon

	_, err := New(linker, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	require.Equal(t, "pupil_service.exe", linker.spec.Name)
	require.False(t, linker.spec.Console)
	require.Equal(t, icon, linker.spec.Icon)
	require.Empty(t, linker.spec.SigningIdentity)
}

// TestRunDarwinSignsExecutable hands the linked executable to the signer.
func TestRunDarwinSignsExecutable(t *testing.T) {
	t.Parallel()

	linker := &fakeLinker{}
	signer := &fakeSigner{}
	opts := fixtureOptions(t, bundle.PlatformDarwin)
	opts.Materials.SigningIdentity = "Developer ID Application: Pupil Labs"
	opts.Materials.Entitlements = "entitlements.plist"

	executable, err := New(linker, signer).Run(context.Background(), opts)
	require.NoError(t, err)

	require.Equal(t, 1, signer.calls)
	require.Equal(t, executable.Path, signer.path)
	require.Equal(t, "Developer ID Application: Pupil Labs", signer.identity)
	require.Equal(t, "entitlements.plist", signer.entitlements)
}

// TestRunDarwinWithoutIdentitySkipsSigning leaves unsigned builds alone.
func TestRunDarwinWithoutIdentitySkipsSigning(t *testing.T) {
	t.Parallel()

	linker := &fakeLinker{}
	signer := &fakeSigner{}
	opts := fixtureOptions(t, bundle.PlatformDarwin)

	_, err := New(linker, signer).Run(context.Background(), opts)
	require.NoError(t, err)
	require.Zero(t, signer.calls)
}

// TestRunMissingEntryPoint is fatal and names the path.
func TestRunMissingEntryPoint(t *testing.T) {
	t.Parallel()

	opts := fixtureOptions(t, bundle.PlatformLinux)
	opts.EntryPoint = filepath.Join(t.TempDir(), "absent.py")

	_, err := New(&fakeLinker{}, nil).Run(context.Background(), opts)
	require.ErrorIs(t, err, errEntryPointMissing)
	require.ErrorContains(t, err, opts.EntryPoint)
}

// TestRunMissingIcon is fatal and names the path.
func TestRunMissingIcon(t *testing.T) {
	t.Parallel()

	opts := fixtureOptions(t, bundle.PlatformWindows)
	opts.Materials.Icon = filepath.Join(t.TempDir(), "absent.ico")

	_, err := New(&fakeLinker{}, nil).Run(context.Background(), opts)
	require.ErrorIs(t, err, errIconMissing)
	require.ErrorContains(t, err, opts.Materials.Icon)
}

// TestRunLinkerFailure wraps the linker error.
func TestRunLinkerFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("import scan failed")
	opts := fixtureOptions(t, bundle.PlatformLinux)

	_, err := New(&fakeLinker{err: cause}, nil).Run(context.Background(), opts)
	require.ErrorIs(t, err, cause)
}

// TestRunSignerMissing refuses a signing identity without a signer.
func TestRunSignerMissing(t *testing.T) {
	t.Parallel()

	opts := fixtureOptions(t, bundle.PlatformDarwin)
	opts.Materials.SigningIdentity = "Developer ID Application: Pupil Labs"

	_, err := New(&fakeLinker{}, nil).Run(context.Background(), opts)
	require.ErrorIs(t, err, errSignerNotConfigured)
}
