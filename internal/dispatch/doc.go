// Package dispatch resolves a host's platform identity to the matching
// prebuilt artifact and hands control to it.
//
// Resolution is a small fail-closed state machine: the kernel-name and
// machine-hardware reports are normalized through explicit tables, the
// artifact path is composed from the canonical naming convention anchored
// at the shim's own directory, and the artifact replaces the current
// process. Any token absent from the tables — or a missing artifact —
// ends in a diagnostic, never in a guessed binary: dispatching the wrong
// artifact silently is strictly worse than refusing.
//
// The same tables drive two surfaces: the in-process resolver (used by
// the CLI and tests) and the generated POSIX shell shim shipped inside
// every distribution tree, which must run on end-user machines with no
// Go toolchain present.
package dispatch
