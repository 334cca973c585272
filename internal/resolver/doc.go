// Package resolver turns the declared runtime libraries into concrete
// bundle assets.
//
// Resolution itself is delegated: the production Resolver shells out to the
// configured report tool once per library and decodes its JSON report, while
// tests substitute in-memory implementations. Collect drives a Resolver over
// the whole dependency list and merges the per-library results.
package resolver
