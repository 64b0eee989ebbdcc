// Package target defines the build matrix: the (OS, architecture) pairs
// the pipeline compiles for and the canonical naming convention shared
// between the build executor and the dispatch shim.
//
// A target's suffix ("<os>-<arch>") and extension (".exe" on Windows) are
// pure functions of the pair, so artifact names produced at build time
// always match the names the shim composes at run time.
package target
