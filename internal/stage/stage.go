package stage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JamesPrial/go-plugin-release/internal/build"
	"github.com/JamesPrial/go-plugin-release/internal/dispatch"
	"github.com/JamesPrial/go-plugin-release/internal/paths"
)

// Filename of the checksum manifest inside the distribution tree.
const ManifestName = "checksums.txt"

// Path fragments that must never be staged, even when named by a
// metadata glob. The distribution tree is published publicly, so source,
// VCS state, and environment files are excluded unconditionally.
var denylist = []string{".git", ".env", "go.sum", "go.work"}

// Controls assembly of a distribution tree.
type Options struct {
	Dir       string           // Directory to assemble the tree in. Recreated from scratch.
	Source    string           // Source checkout, root for metadata paths.
	Base      string           // Logical binary name for the dispatch shim.
	Artifacts []build.Artifact // Complete artifact set from the build phase.
	Metadata  []string         // Required metadata files, relative to Source.
	Docs      []string         // Optional documentation files, relative to Source.
}

// An assembled, self-sufficient distribution tree.
type Tree struct {
	Dir          string   // Root of the tree.
	ShimPath     string   // Path of the generated dispatch shim.
	ManifestPath string   // Path of the checksum manifest.
	Files        []string // Every file in the tree, relative to Dir, sorted.
}

// Assembles a distribution tree from compiled artifacts and declared
// metadata.
//
// The tree is always built whole: the staging directory is deleted and
// recreated, artifacts and the generated shim are copied in, required
// metadata is verified present, and the checksum manifest is computed
// last so it covers the exact bytes being shipped. Nothing from the
// source tree is included beyond the declared metadata and docs.
func Assemble(opts Options) (*Tree, error) {
	if len(opts.Artifacts) == 0 {
		return nil, fmt.Errorf("%w: no artifacts", ErrStaging)
	}

	slog.Info("staging distribution tree",
		"dir", opts.Dir,
		"artifacts", len(opts.Artifacts),
		"metadata", len(opts.Metadata),
	)

	if err := os.RemoveAll(opts.Dir); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStaging, err)
	}
	if err := os.MkdirAll(opts.Dir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStaging, err)
	}

	for _, artifact := range opts.Artifacts {
		dest := filepath.Join(opts.Dir, artifact.Name())
		if err := copyFile(artifact.Path, dest, paths.ExecFileMode); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStaging, err)
		}
	}

	shim, err := dispatch.WriteShim(opts.Dir, opts.Base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStaging, err)
	}

	if err := copyDeclared(opts.Dir, opts.Source, opts.Metadata, true); err != nil {
		return nil, err
	}
	if err := copyDeclared(opts.Dir, opts.Source, opts.Docs, false); err != nil {
		return nil, err
	}

	manifest, err := writeManifest(opts.Dir, opts.Artifacts)
	if err != nil {
		return nil, err
	}

	files, err := listFiles(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStaging, err)
	}

	return &Tree{
		Dir:          opts.Dir,
		ShimPath:     shim,
		ManifestPath: manifest,
		Files:        files,
	}, nil
}

// Copies declared files from the source checkout into the tree,
// preserving relative paths.
//
// Required files that are missing fail staging: the published tree must
// be installable without the source repository, so a hole in the declared
// metadata is not recoverable downstream.
func copyDeclared(dir, source string, names []string, required bool) error {
	for _, name := range names {
		if excluded(name) {
			return fmt.Errorf("%w: %q is excluded from distribution", ErrStaging, name)
		}

		src := filepath.Join(source, name)
		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) && !required {
				slog.Debug("optional file absent, skipping", "file", name)
				continue
			}
			return &MissingError{Path: name}
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %q is a directory, expected a file", ErrStaging, name)
		}

		dest := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(dest), paths.DefaultDirMode); err != nil {
			return fmt.Errorf("%w: %w", ErrStaging, err)
		}
		if err := copyFile(src, dest, paths.DefaultFileMode); err != nil {
			return fmt.Errorf("%w: %w", ErrStaging, err)
		}
	}
	return nil
}

// Whether a declared path hits the distribution denylist.
func excluded(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		for _, banned := range denylist {
			if part == banned || strings.HasSuffix(part, banned) {
				return true
			}
		}
	}
	return false
}

// Writes the checksum manifest covering the artifact set.
//
// The format is sha256sum-compatible ("<hex>  <filename>"), one line per
// artifact, ordered by filename. The manifest covers artifacts only; the
// shim and metadata files are not artifacts and are excluded.
func writeManifest(dir string, artifacts []build.Artifact) (string, error) {
	sorted := append([]build.Artifact(nil), artifacts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	lines := make([]string, 0, len(sorted))
	for _, artifact := range sorted {
		lines = append(lines, fmt.Sprintf("%s  %s", artifact.Digest.Encoded(), artifact.Name()))
	}

	path := filepath.Join(dir, ManifestName)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStaging, err)
	}

	return path, nil
}

// Copies a single file, replacing any existing destination.
func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// Returns every file under dir, relative to dir, sorted.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
