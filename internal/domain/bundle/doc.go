// Package bundle contains the core domain types for the packaging pipeline.
//
// It defines the supported target platforms, the asset model produced by
// dependency resolution (data files, native binaries, hidden imports), the
// per-platform binary exclusion catalogue, and the artifact types handed
// between the pipeline stages. Everything in this package is pure data and
// pure functions; filesystem work happens in the stage packages.
package bundle
