package bundle

// runtimeLibraries is the fixed, hand-maintained set of third-party libraries
// the instrument runtime needs bundled. The order is meaningful: when two
// libraries ship a file with the same target path, the earlier declaration
// wins during merging.
//
//nolint:gochecknoglobals // Process-lifetime constant catalogue.
var runtimeLibraries = [...]string{
	"numpy",
	"scipy",
	"glfw",
	"av",
	"cv2",
	"zmq",
	"msgpack",
}

// uvloopLibrary replaces the default event loop on POSIX systems.
// It does not exist on Windows, so the catalogue builder appends it
// only for the other platforms.
const uvloopLibrary = "uvloop"

// RuntimeDependencies assembles the declared library list for a platform.
// The result is a fresh slice on every call, so the catalogue itself can
// never be mutated by callers.
func RuntimeDependencies(p Platform) []string {
	libs := make([]string, 0, len(runtimeLibraries)+1)
	libs = append(libs, runtimeLibraries[:]...)

	if p != PlatformWindows {
		libs = append(libs, uvloopLibrary)
	}

	return libs
}
