// Package recipe carries the per-platform packaging knowledge as a value
// with capability hooks.
//
// One pipeline runs everywhere; the Recipe selected once per run decides the
// exclusion rules, the collection policy, the extra payload binaries and how
// the collected directory is finalized into the distributable artifact.
package recipe
