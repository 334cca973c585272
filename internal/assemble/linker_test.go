package assemble

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
)

// TestNewCommandLinkerEmptyCommand rejects a missing tool command.
func TestNewCommandLinkerEmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := NewCommandLinker(nil, 0)
	require.ErrorIs(t, err, errLinkerCommandEmpty)
}

// TestCommandLinker streams the link plan to a stub tool and reads back the
// produced executable path.
func TestCommandLinker(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	buildDir := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))

	produced := filepath.Join(buildDir, "pupil_service")
	planCopy := filepath.Join(dir, "plan.json")
	script := filepath.Join(dir, "freeze.sh")

	// The stub records the plan it was given, fabricates the executable and
	// reports its path.
	scriptBody := "#!/bin/sh\ncat > " + planCopy + "\n" +
		"printf 'executable' > " + produced + "\n" +
		"printf '%s\\n' " + produced + "\n"
	require.NoError(t, os.WriteFile(script, []byte(scriptBody), 0o700))

	linker, err := NewCommandLinker([]string{"sh", script}, 0)
	require.NoError(t, err)

	spec := bundle.ArtifactSpec{
		EntryPoint:  "pupil_src/main.py",
		SearchPaths: []string{"pupil_src/shared_modules"},
		Name:        "pupil_service",
		Console:     true,
	}
	assets := &bundle.ResolvedAssets{HiddenImports: []string{"zmq.backend.cython"}}

	executable, err := linker.Link(context.Background(), spec, assets, buildDir)
	require.NoError(t, err)
	require.Equal(t, "pupil_service", executable.Name)
	require.Equal(t, produced, executable.Path)

	// The tool saw the complete plan.
	recorded, err := os.ReadFile(planCopy)
	require.NoError(t, err)

	var plan linkPlan
	require.NoError(t, json.Unmarshal(recorded, &plan))
	require.Equal(t, "pupil_src/main.py", plan.EntryPoint)
	require.Equal(t, []string{"pupil_src/shared_modules"}, plan.SearchPaths)
	require.Equal(t, []string{"zmq.backend.cython"}, plan.HiddenImports)
	require.Equal(t, buildDir, plan.BuildDir)
	require.True(t, plan.Console)
}

// TestCommandLinkerNoOutput fails when the tool reports nothing.
func TestCommandLinkerNoOutput(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "freeze.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > /dev/null\n"), 0o700))

	linker, err := NewCommandLinker([]string{"sh", script}, 0)
	require.NoError(t, err)

	_, err = linker.Link(context.Background(), bundle.ArtifactSpec{Name: "pupil_service"}, nil, t.TempDir())
	require.ErrorIs(t, err, errLinkerNoOutput)
}

// TestCommandLinkerMissingOutput fails when the reported path does not exist.
func TestCommandLinkerMissingOutput(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "freeze.sh")
	ghost := filepath.Join(dir, "ghost")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > /dev/null\nprintf '%s\\n' "+ghost+"\n"), 0o700))

	linker, err := NewCommandLinker([]string{"sh", script}, 0)
	require.NoError(t, err)

	_, err = linker.Link(context.Background(), bundle.ArtifactSpec{Name: "pupil_service"}, nil, dir)
	require.Error(t, err)
	require.ErrorContains(t, err, "locate linked executable")
}

// TestCommandLinkerFailure surfaces the tool's stderr in the error.
func TestCommandLinkerFailure(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "freeze.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > /dev/null\necho 'module not found' >&2\nexit 1\n"), 0o700))

	linker, err := NewCommandLinker([]string{"sh", script}, 0)
	require.NoError(t, err)

	_, err = linker.Link(context.Background(), bundle.ArtifactSpec{Name: "pupil_service"}, nil, t.TempDir())
	require.Error(t, err)
	require.ErrorContains(t, err, "module not found")
}
