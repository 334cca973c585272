package bundle

// ArtifactSpec describes the standalone executable to produce for one
// platform recipe. It is constructed once per run and handed to the
// executable assembler.
type ArtifactSpec struct {
	// EntryPoint is the application's entry script.
	EntryPoint string
	// SearchPaths are module directories, in priority order, the runtime
	// consults when loading the hidden imports.
	SearchPaths []string
	// Name is the internal executable name (platform extension included).
	Name string
	// Icon is the platform icon file, empty when the platform embeds none.
	Icon string
	// Console keeps the terminal window attached to the executable.
	// Windows builds run windowed, the other platforms keep the console.
	Console bool
	// SigningIdentity is handed to the external signer, macOS only.
	SigningIdentity string
	// Entitlements is the entitlements file reference, macOS only.
	Entitlements string
}

// Executable is the standalone executable artifact produced by the linker.
type Executable struct {
	// Name is the executable's file name.
	Name string
	// Path is the executable's location in the build directory.
	Path string
}

// CollectSettings are the per-recipe collection knobs. Each is independently
// toggleable; recipes pick the platform policy.
type CollectSettings struct {
	// StripSymbols removes debug symbols from placed binaries.
	StripSymbols bool
	// CompressBinaries runs the external packer over placed binaries.
	// Disabled on macOS so later signing stays valid.
	CompressBinaries bool
}

// Collected is the directory tree produced by the bundle collector:
// the distributable unit on Linux, the pre-finalization payload elsewhere.
// Ownership passes to the finalizer, which wraps it into a new Artifact and
// never rewrites already-collected entries.
type Collected struct {
	// OutputName is the outer directory name, the per-platform product
	// naming convention.
	OutputName string
	// Root is the location of the collected tree.
	Root string
	// Executable is the placed standalone executable.
	Executable Executable
	// Binaries are the placed binary assets, target paths relative to Root.
	Binaries []Asset
	// DataFiles are the placed data assets, target paths relative to Root.
	DataFiles []Asset
}

// ArtifactFormat tells what shape the final artifact takes on disk.
type ArtifactFormat string

const (
	// FormatDirectory is a flat directory ready to archive (Linux, Windows).
	FormatDirectory ArtifactFormat = "directory"
	// FormatAppBundle is a versioned macOS application bundle.
	FormatAppBundle ArtifactFormat = "app-bundle"
)

// Artifact is the terminal output of the pipeline for one platform.
type Artifact struct {
	// Platform the artifact was produced for.
	Platform Platform
	// Format of the artifact on disk.
	Format ArtifactFormat
	// Path is the artifact's location on disk.
	Path string
	// Version is the application version embedded in the artifact.
	Version string
}
