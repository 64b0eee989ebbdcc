package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "plugrel"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Permission mode for executables (artifacts and the dispatch shim).
	ExecFileMode os.FileMode = 0755
)

// Path to the scratch directory for pipeline runs.
//
//	Linux:   ~/.cache/plugrel
//	macOS:   ~/Library/Caches/plugrel
func Scratch() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Path to the build output directory for a tag.
//
// Compiled artifacts land here before staging, one file per target.
func BuildOutput(tag string) string {
	return filepath.Join(Scratch(), "build", tag)
}

// Path to the staging directory for a tag.
//
// The distribution tree is assembled here and published from here. The
// directory is recreated from scratch on every run.
func Staging(tag string) string {
	return filepath.Join(Scratch(), "stage", tag)
}
