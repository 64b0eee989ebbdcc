// Package manifest defines the release.yaml file that declares a
// plugin's release pipeline: the logical binary name, the build matrix,
// the metadata files the distribution tree must carry, and the publish
// destination.
//
// The manifest is the only per-project input; everything else is derived
// (artifact names from the target convention, the repository slug from
// the git remote when not declared).
package manifest
