// Package collect aggregates the executable, the filtered binaries and the
// data files into one directory tree, the distributable unit.
//
// Every file placement is checksum verified, post-processed per the platform
// policy and recorded in the bundle version manifest. Any failure aborts the
// run; a partially written tree is rebuilt from scratch, never patched.
package collect
