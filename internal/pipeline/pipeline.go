package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/JamesPrial/go-plugin-release/internal/build"
	"github.com/JamesPrial/go-plugin-release/internal/git"
	"github.com/JamesPrial/go-plugin-release/internal/github"
	"github.com/JamesPrial/go-plugin-release/internal/manifest"
	"github.com/JamesPrial/go-plugin-release/internal/paths"
	"github.com/JamesPrial/go-plugin-release/internal/stage"
)

// Filename of the pinning descriptor written next to the build output.
const PinFile = "pin.yaml"

// The subset of the GitHub client the pipeline depends on.
type Releaser interface {
	CreateRelease(ctx context.Context, tag, name, notes string) (*github.Release, error)
	UploadAsset(ctx context.Context, release *github.Release, path string) (*github.Asset, error)
}

// Controls one pipeline run.
type Config struct {
	Manifest *manifest.Manifest // Release declaration. Required.
	Repo     *git.Repository    // Source repository. Required.
	Releaser Releaser           // Release backend. Nil skips the release record (publish-branch only).

	// Tag is the explicit release tag for manual re-dispatch. When
	// empty, the tag is extracted from the trigger ref in the
	// environment (GITHUB_REF).
	Tag string

	// Notes is the operator-supplied release body. Empty requests
	// auto-generated notes.
	Notes string

	// BuildDir and StageDir override the scratch locations. Empty uses
	// the XDG defaults keyed by tag.
	BuildDir string
	StageDir string

	// Toolchain overrides the compiler command (tests inject a fake).
	Toolchain string

	// RetryAttempts and RetryBackoff bound the publish retry loop for
	// transient failures. Zero values use the defaults.
	RetryAttempts int
	RetryBackoff  time.Duration
}

// The outcome of a successful run.
type Result struct {
	Tag      string            // Released tag.
	Commit   string            // Source commit the tag resolved to.
	Tree     *stage.Tree       // Published distribution tree.
	Snapshot *git.Snapshot     // Distribution branch snapshot.
	Release  *github.Release   // Created release record, nil if no Releaser.
	Assets   []string          // Uploaded asset names.
	Pin      PinningDescriptor // Descriptor for downstream consumers.
	PinPath  string            // Where the descriptor was written.
}

// Drives one complete release: resolve the tag, gate on tests, build the
// matrix, stage the tree, publish, and emit the pinning descriptor.
//
// A run is a fresh, one-shot batch: re-running the same tag repeats
// every phase and fully replaces the prior published snapshot. Any phase
// failure aborts the run with a *PhaseError and leaves previously
// published state untouched.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Manifest == nil {
		return nil, fmt.Errorf("pipeline: no manifest")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("pipeline: no repository")
	}

	phase := PhaseIdle
	fail := func(err error) (*Result, error) {
		return nil, &PhaseError{Phase: phase.Next(), Err: err}
	}

	// Tag resolution: exactly one tag drives a run, and the pipeline
	// builds the content at that tag, never a newer snapshot.
	tag, err := resolveTag(cfg.Tag)
	if err != nil {
		return fail(err)
	}
	commit, err := cfg.Repo.ResolveTag(ctx, tag)
	if err != nil {
		return fail(err)
	}
	if err := cfg.Repo.CheckoutTag(ctx, tag); err != nil {
		return fail(err)
	}
	phase = PhaseTagResolved
	slog.Info("tag resolved", "tag", tag, "commit", commit)

	// Test gate: nothing builds until the pinned snapshot passes.
	if err := runTestGate(ctx, cfg.Repo.Dir(), cfg.Manifest.Test); err != nil {
		return fail(err)
	}
	phase = PhaseTestGatePassed
	slog.Info("test gate passed", "command", cfg.Manifest.Test)

	registry, err := cfg.Manifest.Registry()
	if err != nil {
		return fail(err)
	}

	buildDir := cfg.BuildDir
	if buildDir == "" {
		buildDir = paths.BuildOutput(tag)
	}

	artifacts, err := build.Run(ctx, build.Options{
		Source:      cfg.Repo.Dir(),
		Package:     cfg.Manifest.Main,
		Output:      buildDir,
		Base:        cfg.Manifest.Name,
		Targets:     registry.Targets(),
		Parallelism: cfg.Manifest.Parallelism,
		Toolchain:   cfg.Toolchain,
	})
	if err != nil {
		return fail(err)
	}
	phase = PhaseBuilt

	stageDir := cfg.StageDir
	if stageDir == "" {
		stageDir = paths.Staging(tag)
	}

	tree, err := stage.Assemble(stage.Options{
		Dir:       stageDir,
		Source:    cfg.Repo.Dir(),
		Base:      cfg.Manifest.Name,
		Artifacts: artifacts,
		Metadata:  cfg.Manifest.Metadata,
		Docs:      cfg.Manifest.Docs,
	})
	if err != nil {
		return fail(err)
	}
	phase = PhaseStaged

	result := &Result{Tag: tag, Commit: commit, Tree: tree}

	if err := publish(ctx, cfg, tag, tree, artifacts, result); err != nil {
		return fail(err)
	}
	phase = PhasePublished

	result.PinPath = filepath.Join(buildDir, PinFile)
	if err := result.Pin.Write(result.PinPath); err != nil {
		return fail(err)
	}

	slog.Info("pipeline done",
		"tag", tag,
		"tree", result.Snapshot.Tree,
		"assets", len(result.Assets),
	)
	return result, nil
}

// Publishes the staged tree: snapshot the distribution branch, then
// create the release record with every artifact and the checksum
// manifest attached.
//
// Transient failures are retried with bounded backoff; permission
// refusals surface immediately since only an operator can fix them.
func publish(ctx context.Context, cfg Config, tag string, tree *stage.Tree, artifacts []build.Artifact, result *Result) error {
	m := cfg.Manifest

	var snapshot *git.Snapshot
	message := fmt.Sprintf("%s %s", m.Name, tag)
	err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryBackoff, retryablePublish, func() error {
		var err error
		snapshot, err = cfg.Repo.PublishSnapshot(ctx, tree.Dir, m.Remote, m.Branch, message)
		return err
	})
	if err != nil {
		return err
	}
	result.Snapshot = snapshot
	result.Pin = PinningDescriptor{
		Repository: m.Repository,
		Ref:        m.Branch,
		Commit:     snapshot.Commit,
		Tree:       snapshot.Tree,
	}

	if cfg.Releaser == nil {
		slog.Warn("no release backend configured, skipping release record")
		return nil
	}

	var release *github.Release
	name := fmt.Sprintf("%s %s", m.Name, tag)
	err = withRetry(ctx, cfg.RetryAttempts, cfg.RetryBackoff, retryablePublish, func() error {
		var err error
		release, err = cfg.Releaser.CreateRelease(ctx, tag, name, cfg.Notes)
		return err
	})
	if err != nil {
		return err
	}
	result.Release = release

	// Attach every artifact plus the checksum manifest.
	uploads := make([]string, 0, len(artifacts)+1)
	for _, artifact := range artifacts {
		uploads = append(uploads, filepath.Join(tree.Dir, artifact.Name()))
	}
	uploads = append(uploads, tree.ManifestPath)

	for _, path := range uploads {
		err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryBackoff, retryablePublish, func() error {
			_, err := cfg.Releaser.UploadAsset(ctx, release, path)
			return err
		})
		if err != nil {
			return err
		}
		result.Assets = append(result.Assets, filepath.Base(path))
	}

	return nil
}

// Whether a publish error may be retried.
//
// Permission refusals from either backend are permanent; GitHub
// transport errors, rate limits, and 5xx responses are transient, as is
// any git failure that is not a permission refusal (the push runs over
// the network).
func retryablePublish(err error) bool {
	if errors.Is(err, git.ErrPermissionDenied) || github.IsPermission(err) {
		return false
	}
	if github.IsTransient(err) {
		return true
	}
	return errors.Is(err, git.ErrGit)
}

// Determines the tag driving this run: the explicit operator-supplied
// tag wins, else the trigger ref from the environment.
func resolveTag(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if ref := os.Getenv("GITHUB_REF"); ref != "" {
		return TagFromRef(ref)
	}
	return "", fmt.Errorf("no tag: pass one explicitly or run from a tag-push trigger")
}

// Extracts the tag name from a tag-push ref like "refs/tags/v1.0.0".
func TagFromRef(ref string) (string, error) {
	tag, ok := strings.CutPrefix(ref, "refs/tags/")
	if !ok || tag == "" {
		return "", fmt.Errorf("ref %q is not a tag ref", ref)
	}
	return tag, nil
}

// Runs the test gate command via the shell against the checked-out tag.
func runTestGate(ctx context.Context, dir, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("test gate %q: %w\n%s", command, err, strings.TrimSpace(output.String()))
	}
	return nil
}
