package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/JamesPrial/go-plugin-release/internal"
	"github.com/JamesPrial/go-plugin-release/internal/build"
	"github.com/JamesPrial/go-plugin-release/internal/git"
	"github.com/JamesPrial/go-plugin-release/internal/github"
	"github.com/JamesPrial/go-plugin-release/internal/manifest"
	"github.com/JamesPrial/go-plugin-release/internal/target"
)

// Represents the root command for the plugrel tool.
var RootCmd struct {
	Quiet    bool   `short:"q" help:"Suppress informational output."`
	Verbose  bool   `short:"v" help:"Enable verbose output."`
	Debug    bool   `short:"d" help:"Enable debug output."`
	Dir      string `short:"C" default:"." help:"Project directory." placeholder:"DIR"`
	Manifest string `short:"f" help:"Override the release manifest path." placeholder:"PATH"`

	Run      RunCmd      `cmd:"" help:"Run the full release pipeline for a tag."`
	Build    BuildCmd    `cmd:"" help:"Compile the target matrix."`
	Stage    StageCmd    `cmd:"" help:"Assemble a distribution tree from built artifacts."`
	Publish  PublishCmd  `cmd:"" help:"Publish a staged distribution tree."`
	Dispatch DispatchCmd `cmd:"" help:"Resolve the host platform and exec the matching artifact."`
	Targets  TargetsCmd  `cmd:"" help:"List the registered build targets."`
	Shim     ShimCmd     `cmd:"" help:"Write the platform dispatch shim."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Cross-platform build-and-release pipeline for plugin binaries.\n\nCompiles a tagged snapshot for every registered target, stages a\nself-contained distribution tree, and publishes it to a history-less\ndistribution branch with an immutable tagged release."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags and ldflags defaults.
func configureLogger() {
	level := slog.LevelInfo
	if RootCmd.Debug || internal.IsDebug() {
		level = slog.LevelDebug
	} else if RootCmd.Quiet || internal.IsQuiet() {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: RootCmd.Verbose || internal.IsVerbose(),
	})
	slog.SetDefault(slog.New(handler).With("app", internal.Name))
}

// Loads the release manifest and opens the project repository.
func loadProject() (*manifest.Manifest, *git.Repository, error) {
	path := RootCmd.Manifest
	if path == "" {
		path = filepath.Join(RootCmd.Dir, manifest.DefaultFile)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}

	return m, git.NewRepository(RootCmd.Dir), nil
}

// Fills in the manifest's repository slug from the git remote when the
// manifest does not declare one.
func resolveRepository(ctx context.Context, m *manifest.Manifest, repo *git.Repository) error {
	if m.Repository != "" {
		return nil
	}

	url, err := repo.RemoteURL(ctx, m.Remote)
	if err != nil {
		return err
	}

	slug, err := manifest.InferRepository(url)
	if err != nil {
		return err
	}

	slog.Debug("inferred repository slug", "repository", slug, "remote", m.Remote)
	m.Repository = slug
	return nil
}

// Creates the release backend from the ambient token, or nil when no
// token is configured (branch-only publishing).
func newReleaser(m *manifest.Manifest) (*github.Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		slog.Warn("GITHUB_TOKEN not set, skipping the release record")
		return nil, nil
	}

	return github.NewClient(github.Config{
		Token:      token,
		Repository: m.Repository,
	})
}

// Re-describes previously built artifacts in a directory, one per
// registered target. Used by the manual stage and publish phases.
func collectArtifacts(dir, base string, registry *target.Registry) ([]build.Artifact, error) {
	artifacts := make([]build.Artifact, 0, registry.Len())
	for _, tgt := range registry.Targets() {
		artifact, err := build.Describe(tgt, filepath.Join(dir, tgt.ArtifactName(base)))
		if err != nil {
			return nil, fmt.Errorf("artifact for %s: %w", tgt, err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}
