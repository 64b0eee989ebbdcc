// Provides platform-appropriate scratch paths for pipeline runs.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The tool name "plugrel" is used as the subdirectory
// under each base path. Build output and staging trees are keyed by release
// tag so concurrent runs for different tags never collide.
package paths
