// Package pipeline sequences a complete release run: tag resolution,
// the test gate, the build matrix, staging, and publishing, in that
// order behind fail-fast transitions.
//
// A run is a short-lived batch process owned end to end by Run; the
// transient entities (artifacts, the staged tree) live only for the
// run, and only the published snapshot and the pinning descriptor
// outlive it. The distribution branch is the sole shared mutable
// resource — the invoking automation must serialize publishes per
// branch; the pipeline never assumes its local state reflects the
// branch's true content and always publishes a full replacement.
package pipeline
