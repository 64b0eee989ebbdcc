package build

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/JamesPrial/go-plugin-release/internal/paths"
	"github.com/JamesPrial/go-plugin-release/internal/target"
)

// Controls a build matrix run.
type Options struct {
	Source      string          // Directory containing the checked-out source.
	Package     string          // Package to compile, relative to Source. Defaults to ".".
	Output      string          // Directory for compiled artifacts.
	Base        string          // Logical binary name, prefix of every artifact.
	Targets     []target.Target // Targets to build, in registry order.
	Parallelism int             // Max concurrent compiler invocations. Defaults to NumCPU.
	Env         []string        // Extra environment entries for the compiler.
	Toolchain   string          // Compiler command. Defaults to "go".
}

// A compiled binary for one target.
type Artifact struct {
	Target target.Target // Target the binary was compiled for.
	Path   string        // Absolute path of the binary.
	Size   int64         // Size in bytes.
	Digest digest.Digest // Canonical content digest (sha256).
}

// Returns the artifact's filename.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// Compiles the full target matrix.
//
// Targets build independently and in parallel up to the configured limit;
// each writes to a distinct output path so no coordination is needed
// beyond the join. The first failure cancels the remaining builds and no
// partial artifact set is returned. On success the result holds exactly
// one artifact per target, in input order.
func Run(ctx context.Context, opts Options) ([]Artifact, error) {
	if len(opts.Targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrBuild)
	}
	if opts.Base == "" {
		return nil, fmt.Errorf("%w: no binary name", ErrBuild)
	}

	if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	limit := opts.Parallelism
	if limit <= 0 {
		limit = goruntime.NumCPU()
	}

	slog.Info("building target matrix",
		"name", opts.Base,
		"targets", len(opts.Targets),
		"parallelism", limit,
		"output", opts.Output,
	)

	artifacts := make([]Artifact, len(opts.Targets))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, tgt := range opts.Targets {
		i, tgt := i, tgt
		group.Go(func() error {
			artifact, err := buildTarget(ctx, opts, tgt)
			if err != nil {
				return err
			}
			artifacts[i] = artifact
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// Compiles a single target.
//
// The compiler runs with target-selecting environment and a
// reproducibility-oriented configuration: cgo disabled for static output,
// local paths trimmed, and symbol tables stripped. Any existing artifact
// at the output path is replaced.
func buildTarget(ctx context.Context, opts Options, tgt target.Target) (Artifact, error) {
	out := filepath.Join(opts.Output, tgt.ArtifactName(opts.Base))

	pkg := opts.Package
	if pkg == "" {
		pkg = "."
	}

	toolchain := opts.Toolchain
	if toolchain == "" {
		toolchain = "go"
	}

	slog.Debug("compiling", "target", tgt.String(), "output", out)

	cmd := exec.CommandContext(ctx, toolchain, "build",
		"-trimpath",
		"-ldflags", "-s -w",
		"-o", out,
		pkg,
	)
	cmd.Dir = opts.Source
	cmd.Env = append(os.Environ(),
		"GOOS="+tgt.OS,
		"GOARCH="+tgt.Arch,
		"CGO_ENABLED=0",
	)
	cmd.Env = append(cmd.Env, opts.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Artifact{}, &TargetError{
			Target: tgt,
			Output: stderr.String(),
			Err:    err,
		}
	}

	return Describe(tgt, out)
}

// Stats and digests a compiled binary.
//
// The digest is computed by streaming the final bytes on disk, so the
// checksum manifest always reflects exactly what ships. Also used to
// re-describe existing artifacts when pipeline phases run individually.
func Describe(tgt target.Target, path string) (Artifact, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	defer file.Close()

	dgst, err := digest.FromReader(file)
	if err != nil {
		return Artifact{}, fmt.Errorf("digesting %s: %w", abs, err)
	}

	slog.Debug("artifact ready",
		"target", tgt.String(),
		"size", info.Size(),
		"digest", dgst.String(),
	)

	return Artifact{
		Target: tgt,
		Path:   abs,
		Size:   info.Size(),
		Digest: dgst,
	}, nil
}
