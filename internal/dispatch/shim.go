package dispatch

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/JamesPrial/go-plugin-release/internal/paths"
)

// POSIX shell template for the dispatch shim. The case arms are rendered
// from the same tables the Go resolver uses, so the shipped shim and the
// in-process resolver can never disagree.
//
//go:embed shim.sh.tmpl
var shimTemplate string

// Template context for a rendered shim.
type shimData struct {
	Base      string   // Logical binary name.
	OSCases   []string // Shell case arms mapping kernel names to OS tokens.
	ArchCases []string // Shell case arms mapping machine names to arch tokens.
}

// Renders the dispatch shim script for a logical binary name.
func RenderShim(base string) ([]byte, error) {
	tmpl, err := template.New("shim").Parse(shimTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing shim template: %w", err)
	}

	var out strings.Builder
	data := shimData{
		Base:      base,
		OSCases:   osCaseArms(),
		ArchCases: archCaseArms(),
	}
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("rendering shim for %q: %w", base, err)
	}

	return []byte(out.String()), nil
}

// Writes the dispatch shim into dir under the logical binary name, marked
// executable. Returns the shim path.
func WriteShim(dir, base string) (string, error) {
	script, err := RenderShim(base)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, script, paths.ExecFileMode); err != nil {
		return "", fmt.Errorf("writing shim %s: %w", path, err)
	}

	return path, nil
}

// Returns shell case arms for the OS table, one arm per canonical token.
//
// Exact kernel names come first in sorted order; the Windows shell-marker
// prefixes share one glob arm.
func osCaseArms() []string {
	arms := make([]string, 0, len(osTable)+1)
	for _, kernel := range sortedKeys(osTable) {
		arms = append(arms, fmt.Sprintf("%s) os=%s ;;", kernel, osTable[kernel]))
	}

	globs := make([]string, len(windowsPrefixes))
	for i, prefix := range windowsPrefixes {
		globs[i] = prefix + "*"
	}
	arms = append(arms, fmt.Sprintf("%s) os=windows ;;", strings.Join(globs, "|")))

	return arms
}

// Returns shell case arms for the architecture table, grouping aliases
// that map to the same canonical token into a single arm.
func archCaseArms() []string {
	byToken := make(map[string][]string)
	for machine, token := range archTable {
		byToken[token] = append(byToken[token], machine)
	}

	arms := make([]string, 0, len(byToken))
	for _, token := range sortedKeys(byToken) {
		aliases := byToken[token]
		sort.Strings(aliases)
		arms = append(arms, fmt.Sprintf("%s) arch=%s ;;", strings.Join(aliases, "|"), token))
	}

	return arms
}

// Returns the map's keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
