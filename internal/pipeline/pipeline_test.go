package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/JamesPrial/go-plugin-release/internal/git"
	"github.com/JamesPrial/go-plugin-release/internal/github"
	"github.com/JamesPrial/go-plugin-release/internal/manifest"
)

// Records release calls without any network.
type fakeReleaser struct {
	created  []string // Tags releases were created for.
	uploaded []string // Uploaded asset basenames.
	fail     error    // When set, every call fails with this error.
}

func (f *fakeReleaser) CreateRelease(ctx context.Context, tag, name, notes string) (*github.Release, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, tag)
	return &github.Release{ID: 1, TagName: tag, Name: name}, nil
}

func (f *fakeReleaser) UploadAsset(ctx context.Context, release *github.Release, path string) (*github.Asset, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	name := filepath.Base(path)
	f.uploaded = append(f.uploaded, name)
	return &github.Asset{ID: int64(len(f.uploaded)), Name: name}, nil
}

// Builds a tagged source repository with a local bare origin and a fake
// compiler, returning everything a pipeline run needs.
func setupPipeline(t *testing.T) (Config, *fakeReleaser) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	remote := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-q", "-b", "main")
	run("config", "user.name", "test")
	run("config", "user.email", "test@example.com")

	files := map[string]string{
		"main.go":     "package main\n",
		"plugin.yaml": "name: my-plugin\n",
		"README.md":   "# my-plugin\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	run("tag", "v1.0.0")

	bare := exec.Command("git", "init", "-q", "--bare", remote)
	if out, err := bare.CombinedOutput(); err != nil {
		t.Fatalf("git init --bare: %v\n%s", err, out)
	}
	run("remote", "add", "origin", remote)

	// Stand-in compiler: writes the -o argument target.
	toolchain := filepath.Join(t.TempDir(), "fakego")
	script := `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
    if [ "$prev" = "-o" ]; then out="$arg"; fi
    prev="$arg"
done
printf '%s' "$GOOS/$GOARCH" > "$out"
`
	if err := os.WriteFile(toolchain, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	releaser := &fakeReleaser{}
	cfg := Config{
		Manifest: &manifest.Manifest{
			Name:       "my-plugin",
			Main:       ".",
			Metadata:   []string{"plugin.yaml"},
			Docs:       []string{"README.md"},
			Branch:     "dist",
			Remote:     "origin",
			Repository: "owner/my-plugin",
			Test:       "true",
		},
		Repo:         git.NewRepository(dir),
		Releaser:     releaser,
		Tag:          "v1.0.0",
		BuildDir:     filepath.Join(t.TempDir(), "out"),
		StageDir:     filepath.Join(t.TempDir(), "tree"),
		Toolchain:    toolchain,
		RetryBackoff: time.Millisecond,
	}
	return cfg, releaser
}

func TestRunFullPipeline(t *testing.T) {
	cfg, releaser := setupPipeline(t)

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Tag != "v1.0.0" {
		t.Errorf("tag = %q", result.Tag)
	}
	if result.Snapshot == nil || result.Snapshot.Tree == "" {
		t.Fatal("no snapshot published")
	}

	// 5 targets + shim + manifest + metadata + doc in the tree.
	if len(result.Tree.Files) != 9 {
		t.Errorf("tree has %d files, want 9: %v", len(result.Tree.Files), result.Tree.Files)
	}

	// 5 binaries + checksum manifest attached to the release.
	if len(result.Assets) != 6 {
		t.Errorf("release has %d assets, want 6: %v", len(result.Assets), result.Assets)
	}
	if len(releaser.created) != 1 || releaser.created[0] != "v1.0.0" {
		t.Errorf("releases created = %v", releaser.created)
	}

	// The pinning descriptor must reference the published snapshot.
	if result.Pin.Tree != result.Snapshot.Tree || result.Pin.Commit != result.Snapshot.Commit {
		t.Errorf("pin %+v does not match snapshot %+v", result.Pin, result.Snapshot)
	}
	if result.Pin.Ref != "dist" || result.Pin.Repository != "owner/my-plugin" {
		t.Errorf("pin = %+v", result.Pin)
	}
	if _, err := os.Stat(result.PinPath); err != nil {
		t.Errorf("pinning descriptor not written: %v", err)
	}
}

func TestRunTestGateFailureBlocksBuild(t *testing.T) {
	cfg, _ := setupPipeline(t)
	cfg.Manifest.Test = "false"

	// Replace the fake compiler with one that records being called.
	marker := filepath.Join(t.TempDir(), "compiled")
	tool := filepath.Join(t.TempDir(), "fakego")
	script := fmt.Sprintf("#!/bin/sh\ntouch %s\n", marker)
	if err := os.WriteFile(tool, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	cfg.Toolchain = tool

	_, err := Run(context.Background(), cfg)
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		t.Fatalf("error is %T, want *PhaseError", err)
	}
	if phaseErr.Phase != PhaseTestGatePassed {
		t.Errorf("failing phase = %s, want %s", phaseErr.Phase, PhaseTestGatePassed)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("compiler was invoked despite test gate failure")
	}
}

func TestRunBuildFailurePublishesNothing(t *testing.T) {
	cfg, releaser := setupPipeline(t)

	tool := filepath.Join(t.TempDir(), "fakego")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}
	cfg.Toolchain = tool

	_, err := Run(context.Background(), cfg)
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		t.Fatalf("error is %T, want *PhaseError", err)
	}
	if phaseErr.Phase != PhaseBuilt {
		t.Errorf("failing phase = %s, want %s", phaseErr.Phase, PhaseBuilt)
	}

	// Atomicity: no branch update, no release record.
	if _, err := cfg.Repo.Run(context.Background(), "ls-remote", "--exit-code", "origin", "refs/heads/dist"); err == nil {
		t.Error("distribution branch was published despite build failure")
	}
	if len(releaser.created) != 0 {
		t.Errorf("release was created despite build failure: %v", releaser.created)
	}
}

func TestRunMissingMetadataBlocksPublish(t *testing.T) {
	cfg, releaser := setupPipeline(t)
	cfg.Manifest.Metadata = []string{"hooks.yaml"} // not in the repo

	_, err := Run(context.Background(), cfg)
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		t.Fatalf("error is %T, want *PhaseError", err)
	}
	if phaseErr.Phase != PhaseStaged {
		t.Errorf("failing phase = %s, want %s", phaseErr.Phase, PhaseStaged)
	}
	if len(releaser.created) != 0 {
		t.Error("release was created despite staging failure")
	}
}

func TestRunRedispatchReplacesSnapshot(t *testing.T) {
	cfg, _ := setupPipeline(t)
	ctx := context.Background()

	first, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// Identical content: the tree hash pins are identical, each publish
	// still mints a fresh commit.
	if first.Snapshot.Tree != second.Snapshot.Tree {
		t.Errorf("tree hash changed for identical content: %s vs %s",
			first.Snapshot.Tree, second.Snapshot.Tree)
	}
}

func TestRunPermissionFailureIsNotRetried(t *testing.T) {
	cfg, releaser := setupPipeline(t)
	// Branch publish succeeds; the release backend refuses.
	calls := 0
	releaser.fail = &github.APIError{StatusCode: 403, Message: "Resource not accessible by integration"}
	orig := cfg.Releaser
	cfg.Releaser = &countingReleaser{inner: orig, calls: &calls}

	_, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("Run succeeded, want permission failure")
	}
	if !github.IsPermission(errors.Unwrap(err)) && !github.IsPermission(err) {
		t.Errorf("error is not a permission failure: %v", err)
	}
	if calls != 1 {
		t.Errorf("release backend called %d times, want 1 (no retry)", calls)
	}
}

// Wraps a Releaser and counts calls.
type countingReleaser struct {
	inner Releaser
	calls *int
}

func (c *countingReleaser) CreateRelease(ctx context.Context, tag, name, notes string) (*github.Release, error) {
	*c.calls++
	return c.inner.CreateRelease(ctx, tag, name, notes)
}

func (c *countingReleaser) UploadAsset(ctx context.Context, release *github.Release, path string) (*github.Asset, error) {
	*c.calls++
	return c.inner.UploadAsset(ctx, release, path)
}

func TestTagFromRef(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "refs/tags/v1.0.0", want: "v1.0.0"},
		{ref: "refs/tags/release-2", want: "release-2"},
		{ref: "refs/heads/main", wantErr: true},
		{ref: "refs/tags/", wantErr: true},
		{ref: "v1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		got, err := TagFromRef(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("TagFromRef(%q) = %q, want error", tt.ref, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("TagFromRef(%q): %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TagFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	always := func(error) bool { return true }
	never := func(error) bool { return false }

	t.Run("success passes through", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 3, time.Millisecond, always, func() error {
			calls++
			return nil
		})
		if err != nil || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("transient retried until exhausted", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := withRetry(ctx, 3, time.Millisecond, always, func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-retryable fails immediately", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 3, time.Millisecond, never, func() error {
			calls++
			return errors.New("denied")
		})
		if err == nil || calls != 1 {
			t.Errorf("err = %v, calls = %d, want 1", err, calls)
		}
	})

	t.Run("recovers after transient failure", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 3, time.Millisecond, always, func() error {
			calls++
			if calls < 2 {
				return errors.New("flaky")
			}
			return nil
		})
		if err != nil || calls != 2 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})
}

func TestPhaseOrder(t *testing.T) {
	order := []Phase{
		PhaseIdle, PhaseTagResolved, PhaseTestGatePassed,
		PhaseBuilt, PhaseStaged, PhasePublished, PhaseDone,
	}
	for i := 0; i < len(order)-1; i++ {
		if order[i].Next() != order[i+1] {
			t.Errorf("%s.Next() = %s, want %s", order[i], order[i].Next(), order[i+1])
		}
	}
	if PhaseDone.Next() != PhaseDone {
		t.Error("done must be terminal")
	}
}
