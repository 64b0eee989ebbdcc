// Package build invokes the Go toolchain once per registered target,
// producing statically linked, canonically named artifacts.
//
// Builds share no mutable state: each target gets its own compiler
// process and output path, so the matrix fans out in parallel behind a
// bounded worker limit and joins before staging. The policy is fail-fast:
// the first target failure cancels the rest and discards the run's
// partial output, because a registry with a hole in it must never reach
// the stager.
package build
