package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

// fakeResolver serves canned per-library results and records every request.
type fakeResolver struct {
	results map[string]*bundle.LibraryAssets
	errs    map[string]error
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, library string) (*bundle.LibraryAssets, error) {
	f.calls = append(f.calls, library)

	if err, found := f.errs[library]; found {
		return nil, err
	}

	return f.results[library], nil
}

// TestCollect resolves a small library list and checks the merged union.
func TestCollect(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{
		results: map[string]*bundle.LibraryAssets{
			"numpy": {
				Binaries:      []bundle.Asset{{Source: "/cache/libopenblas.so", Target: "libopenblas.so", Kind: bundle.AssetKindBinary}},
				HiddenImports: []string{"numpy.core._methods"},
			},
			"zmq": {
				Binaries:      []bundle.Asset{{Source: "/cache/libzmq.so.5", Target: "libzmq.so.5", Kind: bundle.AssetKindBinary}},
				DataFiles:     []bundle.Asset{{Source: "/cache/zmq.inc", Target: "zmq/zmq.inc", Kind: bundle.AssetKindData}},
				HiddenImports: []string{"zmq.backend.cython"},
			},
		},
	}

	resolved, err := Collect(context.Background(), fake, []string{"numpy", "zmq"})
	require.NoError(t, err)

	// Only the declared libraries were resolved, in declaration order.
	require.Equal(t, []string{"numpy", "zmq"}, fake.calls)

	require.Len(t, resolved.Binaries, 2)
	require.Equal(t, "libopenblas.so", resolved.Binaries[0].Target)
	require.Equal(t, "libzmq.so.5", resolved.Binaries[1].Target)
	require.Len(t, resolved.DataFiles, 1)
	require.Equal(t, []string{"numpy.core._methods", "zmq.backend.cython"}, resolved.HiddenImports)
}

// TestCollectFailsFast stops on the first unresolvable library, naming it,
// without touching the rest of the list.
func TestCollectFailsFast(t *testing.T) {
	t.Parallel()

	cause := errors.New("no hook for library")
	fake := &fakeResolver{
		results: map[string]*bundle.LibraryAssets{
			"numpy": {},
			"glfw":  {},
		},
		errs: map[string]error{"scipy": cause},
	}

	_, err := Collect(context.Background(), fake, []string{"numpy", "scipy", "glfw"})
	require.ErrorIs(t, err, cause)
	require.ErrorContains(t, err, `"scipy"`)
	require.Equal(t, []string{"numpy", "scipy"}, fake.calls)
}

// TestCollectNilReport treats a missing report as a resolution failure.
func TestCollectNilReport(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{}

	_, err := Collect(context.Background(), fake, []string{"msgpack"})
	require.ErrorIs(t, err, errEmptyReport)
	require.ErrorContains(t, err, `"msgpack"`)
}

// TestCollectWarnsOnDifferingDuplicates expects a warning when two libraries
// claim one target with different file contents, and first-wins in the result.
func TestCollectWarnsOnDifferingDuplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	keptPath := filepath.Join(dir, "numpy-libgfortran.so")
	droppedPath := filepath.Join(dir, "scipy-libgfortran.so")
	require.NoError(t, os.WriteFile(keptPath, []byte("kept contents"), 0o600))
	require.NoError(t, os.WriteFile(droppedPath, []byte("dropped contents"), 0o600))

	fake := &fakeResolver{
		results: map[string]*bundle.LibraryAssets{
			"numpy": {Binaries: []bundle.Asset{{Source: keptPath, Target: "libgfortran.so", Kind: bundle.AssetKindBinary}}},
			"scipy": {Binaries: []bundle.Asset{{Source: droppedPath, Target: "libgfortran.so", Kind: bundle.AssetKindBinary}}},
		},
	}

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	resolved, err := Collect(ctx, fake, []string{"numpy", "scipy"})
	require.NoError(t, err)

	require.Len(t, resolved.Binaries, 1)
	require.Equal(t, keptPath, resolved.Binaries[0].Source)

	warnings := logs.FilterMessage("Duplicate target with differing contents").All()
	require.Len(t, warnings, 1)
}

// TestHookResolver runs the real exec adapter against a stub report script.
func TestHookResolver(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "report.sh")

	report := `{"datas": [{"source": "/cache/zmq.inc", "target": "zmq/zmq.inc"}],
"binaries": [{"source": "/cache/libzmq.so.5", "target": "libzmq.so.5"}],
"hiddenimports": ["zmq.backend.cython"]}`

	scriptBody := fmt.Sprintf("#!/bin/sh\n[ \"$1\" = \"zmq\" ] || exit 1\ncat <<'EOF'\n%s\nEOF\n", report)
	require.NoError(t, os.WriteFile(script, []byte(scriptBody), 0o700))

	hook, err := NewHookResolver([]string{"sh", script}, 0)
	require.NoError(t, err)

	assets, err := hook.Resolve(context.Background(), "zmq")
	require.NoError(t, err)

	require.Equal(t, "zmq", assets.Library)
	require.Len(t, assets.Binaries, 1)
	require.Equal(t, bundle.AssetKindBinary, assets.Binaries[0].Kind)
	require.Len(t, assets.DataFiles, 1)
	require.Equal(t, bundle.AssetKindData, assets.DataFiles[0].Kind)
	require.Equal(t, []string{"zmq.backend.cython"}, assets.HiddenImports)
}

// TestHookResolverFailure surfaces the tool's stderr in the error.
func TestHookResolverFailure(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "report.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'no hook found' >&2\nexit 3\n"), 0o700))

	hook, err := NewHookResolver([]string{"sh", script}, 0)
	require.NoError(t, err)

	_, err = hook.Resolve(context.Background(), "uvloop")
	require.Error(t, err)
	require.ErrorContains(t, err, "no hook found")
}

// TestNewHookResolverEmptyCommand rejects a missing command line.
func TestNewHookResolverEmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := NewHookResolver(nil, 0)
	require.ErrorIs(t, err, errHookCommandEmpty)
}
