// Package bundler drives the packaging pipeline end to end.
//
// One run resolves the declared runtime libraries, filters the binaries the
// target platform must provide itself, assembles the standalone executable,
// collects the distributable tree and finalizes it into the platform
// artifact. A marker file refuses concurrent runs against one output
// directory, since a half-written bundle cannot be recovered.
package bundler
