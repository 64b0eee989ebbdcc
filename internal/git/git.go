package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Represents a git repository at a specific directory. All operations
// target this directory via "git -C <dir>"; there is no default
// directory, callers must always say which repository they mean.
type Repository struct {
	dir string
}

// Returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Executes a git command targeting this repository and returns stdout.
// Stderr is captured separately and included in error messages on
// failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	return r.runEnv(ctx, nil, args...)
}

// Executes a git command with extra environment entries appended to the
// inherited environment.
func (r *Repository) runEnv(ctx context.Context, env []string, args ...string) (string, error) {
	command := r.Command(ctx, args...)
	if len(env) > 0 {
		command.Env = append(command.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", &CommandError{
			Args:   args,
			Dir:    r.dir,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// Returns an *exec.Cmd for a git command without running it. The caller
// gets full control over the streams before starting the process. The -C
// flag targeting this repository is automatically prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}

// Resolves a tag name to the commit hash it points at.
//
// Annotated tags are peeled to the underlying commit so the pipeline
// always pins content, not tag objects.
func (r *Repository) ResolveTag(ctx context.Context, tag string) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "--verify", tag+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving tag %q: %w", tag, err)
	}
	return strings.TrimSpace(out), nil
}

// Checks out the exact content at a tag as a detached HEAD.
//
// The pipeline must build the pinned snapshot, never whatever the branch
// has moved to since the tag was cut.
func (r *Repository) CheckoutTag(ctx context.Context, tag string) error {
	if _, err := r.Run(ctx, "checkout", "--detach", tag); err != nil {
		return fmt.Errorf("checking out tag %q: %w", tag, err)
	}
	return nil
}

// Returns the fetch URL of a remote.
func (r *Repository) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := r.Run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("reading remote %q: %w", remote, err)
	}
	return strings.TrimSpace(out), nil
}
