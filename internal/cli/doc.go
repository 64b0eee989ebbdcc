// Parses flags and dispatches the plugrel subcommands.
//
// The tool accepts the following global flags:
//
//	-q, --quiet      Suppress informational output.
//	-v, --verbose    Enable verbose output.
//	-d, --debug      Enable debug output.
//	-C, --dir        Project directory.
//	-f, --manifest   Override the release manifest path.
//
// Flags override build-time defaults set via linker flags. After parsing,
// the global logger is reconfigured to reflect the final level before the
// selected command runs.
package cli
