// Package assemble turns the resolved asset set into one standalone
// executable.
//
// The actual import scanning and binary linking is a black box behind the
// Linker interface; the production adapter shells out to the configured build
// tool. The assembler composes the artifact spec from platform policy, checks
// the referenced inputs exist and signs the result where the platform wants
// a signed executable.
package assemble
