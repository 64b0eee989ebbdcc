package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Identifies a published distribution snapshot.
//
// The tree hash is the content hash: two publishes of bit-identical
// trees produce the same tree hash even though each publish mints a new
// commit. Consumers that pin the tree hash can verify content
// independently of publish time.
type Snapshot struct {
	Commit string // Commit hash at the branch head.
	Tree   string // Tree object hash of the published content.
}

// Publishes a directory as the complete content of a branch.
//
// The snapshot is built with plumbing commands against a throwaway index
// so the repository's working tree and real index are never touched: the
// directory is staged, written as a tree object, committed with no
// parent, and force-pushed. The branch's prior history is discarded
// entirely — each publish is a full substitution, not an append.
func (r *Repository) PublishSnapshot(ctx context.Context, treeDir, remote, branch, message string) (*Snapshot, error) {
	absTree, err := filepath.Abs(treeDir)
	if err != nil {
		return nil, fmt.Errorf("resolving tree %q: %w", treeDir, err)
	}

	out, err := r.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, fmt.Errorf("locating git dir: %w", err)
	}
	gitDir := strings.TrimSpace(out)

	indexFile, err := os.CreateTemp("", "plugrel-index-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp index: %w", err)
	}
	indexPath := indexFile.Name()
	indexFile.Close()
	os.Remove(indexPath) // git creates the index itself
	defer os.Remove(indexPath)

	// Staging commands run from inside the tree so pathspecs resolve
	// against the snapshot content, not the source checkout.
	env := []string{
		"GIT_DIR=" + gitDir,
		"GIT_WORK_TREE=" + absTree,
		"GIT_INDEX_FILE=" + indexPath,
	}

	if _, err := runIn(ctx, absTree, env, "add", "-A", "."); err != nil {
		return nil, fmt.Errorf("staging snapshot: %w", err)
	}

	out, err = runIn(ctx, absTree, env, "write-tree")
	if err != nil {
		return nil, fmt.Errorf("writing snapshot tree: %w", err)
	}
	treeHash := strings.TrimSpace(out)

	// No parent: the distribution branch carries no history by design.
	out, err = r.Run(ctx, "commit-tree", treeHash, "-m", message)
	if err != nil {
		return nil, fmt.Errorf("committing snapshot: %w", err)
	}
	commitHash := strings.TrimSpace(out)

	refspec := fmt.Sprintf("+%s:refs/heads/%s", commitHash, branch)
	if _, err := r.Run(ctx, "push", remote, refspec); err != nil {
		return nil, classifyPushError(err)
	}

	slog.Info("published snapshot",
		"branch", branch,
		"commit", commitHash,
		"tree", treeHash,
	)

	return &Snapshot{Commit: commitHash, Tree: treeHash}, nil
}

// Executes a git command with an explicit working directory and extra
// environment, without the -C injection used for repository-relative
// commands.
func runIn(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	command := exec.CommandContext(ctx, "git", args...)
	command.Dir = dir
	command.Env = append(command.Environ(), env...)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", &CommandError{
			Args:   args,
			Dir:    dir,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
