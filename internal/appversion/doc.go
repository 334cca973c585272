// Package appversion reports the version of the application being packaged.
//
// The version is an external input: either the configured override or the
// repository description of the application source directory.
package appversion
