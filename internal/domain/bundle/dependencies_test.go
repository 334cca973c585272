package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRuntimeDependencies checks the catalogue per platform, including the
// uvloop rule: present everywhere except Windows, always last.
func TestRuntimeDependencies(t *testing.T) {
	t.Parallel()

	base := []string{"numpy", "scipy", "glfw", "av", "cv2", "zmq", "msgpack"}

	require.Equal(t, append(append([]string{}, base...), "uvloop"), RuntimeDependencies(PlatformLinux))
	require.Equal(t, append(append([]string{}, base...), "uvloop"), RuntimeDependencies(PlatformDarwin))
	require.Equal(t, base, RuntimeDependencies(PlatformWindows))
}

// TestRuntimeDependenciesImmutable ensures mutating a returned slice cannot
// corrupt later calls.
func TestRuntimeDependenciesImmutable(t *testing.T) {
	t.Parallel()

	first := RuntimeDependencies(PlatformLinux)
	first[0] = "mutated"

	require.Equal(t, "numpy", RuntimeDependencies(PlatformLinux)[0])
}
