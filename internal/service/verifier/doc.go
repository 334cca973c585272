// Package verifier checks a collected bundle against its version manifest.
//
// Every file recorded in the manifest is re-hashed; missing or modified
// files fail the check. The companion pupil-verify binary exposes this as a
// standalone tool for release machines.
package verifier
