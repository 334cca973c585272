// Package config defines bundling settings used by the binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the application source layout, artifact naming, the
// external tool commands and the platform-specific packaging inputs.
package config
