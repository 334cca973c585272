// Package signing hands produced artifacts to an external code signing tool.
//
// The cryptography stays outside: the Signer only carries the identity string
// and entitlements file into the tool invocation.
package signing
