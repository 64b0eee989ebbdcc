// Package git provides typed access to the git CLI for the pipeline's
// repository operations: resolving and checking out release tags, and
// publishing distribution snapshots.
//
// All commands target a specific repository directory via the -C flag,
// injected by every Repository method. Snapshot publishing uses plumbing
// commands (write-tree, commit-tree) against a throwaway index so the
// operator's working tree is never disturbed, and always produces a
// single parentless commit: the distribution branch is a channel, not a
// history.
package git
