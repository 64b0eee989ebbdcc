// Package stage assembles the distribution tree: the minimal,
// source-free directory that gets published verbatim.
//
// A tree holds one artifact per target, the generated dispatch shim, the
// declared metadata and documentation files, and a checksum manifest
// computed over the final artifact bytes. Trees are never mutated
// incrementally — the staging directory is rebuilt whole on every run,
// and a missing required metadata file fails the phase before anything
// can be published.
package stage
