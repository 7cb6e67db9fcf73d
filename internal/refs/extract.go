// Package refs extracts embedded cross-document references from markdown
// content and recursively loads them into a bounded tree.
//
// A reference is an at-sign token pointing at another document, optionally a
// specific section: "@/api/specs/auth.md#setup", "@auth.md" (relative to the
// current namespace), or "@#overview" (same document).
package refs

import (
	"path"
	"regexp"
	"strings"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/address"
)

// Ref is one extracted reference token. Path and Section are raw until
// normalized against a base document.
type Ref struct {
	Raw     string
	Path    string
	Section string
}

// refPattern matches at-sign references at a token boundary, so email
// addresses and mid-word at-signs are not picked up.
var refPattern = regexp.MustCompile(`(?:^|[\s(\[>])(@([A-Za-z0-9._/-]+)?(?:#([A-Za-z0-9._-]+))?)`)

// Extract returns the references embedded in content, in document order,
// deduplicated by raw token.
func Extract(content string) []Ref {
	var out []Ref
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(content, -1) {
		raw, p, sec := m[1], m[2], m[3]
		if p == "" && sec == "" {
			continue
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, Ref{Raw: raw, Path: p, Section: sec})
	}
	return out
}

// NormalizeRef resolves one reference against the normalized path of the
// document it was found in: an empty path means the base document itself, a
// leading slash is absolute, and anything else is relative to the base's
// directory.
func NormalizeRef(ref Ref, basePath string) (Ref, error) {
	var target string
	switch {
	case ref.Path == "":
		target = basePath
	case strings.HasPrefix(ref.Path, "/"):
		target = ref.Path
	default:
		target = path.Join(path.Dir(basePath), ref.Path)
	}
	norm, err := address.Normalize(target)
	if err != nil {
		return Ref{}, err
	}
	return Ref{
		Raw:     ref.Raw,
		Path:    norm,
		Section: strings.ToLower(ref.Section),
	}, nil
}

// Normalize resolves a batch of references against a base document,
// discarding ones that do not normalize to a valid address.
func Normalize(refs []Ref, basePath string) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if n, err := NormalizeRef(r, basePath); err == nil {
			out = append(out, n)
		}
	}
	return out
}
