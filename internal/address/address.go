// Package address models virtual document, section, and task addresses.
//
// A virtual path is the caller-facing document identifier, always absolute
// (rooted at "/"), independent of the physical storage layout. Sections are
// addressed as "path#slug"; a bare "#slug" or "slug" resolves against a
// context document.
package address

import (
	"fmt"
	"path"
	"strings"
)

// RootNamespace is the sentinel namespace for documents at the tree root.
const RootNamespace = "root"

// DocumentAddress identifies a single markdown document.
type DocumentAddress struct {
	Path      string // normalized absolute virtual path, e.g. "/api/specs/auth.md"
	Namespace string // parent segments joined with "/", or RootNamespace
	Slug      string // final path segment without extension
	CacheKey  string
}

// SectionAddress identifies a heading-delimited section within a document.
type SectionAddress struct {
	Document DocumentAddress
	Slug     string
	FullPath string // "path#slug"
	CacheKey string
}

// TaskAddress is a SectionAddress whose heading passed a structural task
// check. The check itself lives with the section engine; this type only
// records that it succeeded.
type TaskAddress struct {
	SectionAddress
}

// InvalidAddressError reports a malformed or unsafe address input.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// Normalize converts a raw virtual path into canonical form: lowercase,
// absolute, cleaned of redundant segments and trailing slashes, with a ".md"
// extension appended when none is present. Traversal segments are rejected
// before cleaning so "/a/../../etc" can never escape the root.
func Normalize(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", &InvalidAddressError{Input: raw, Reason: "empty path"}
	}
	if !strings.HasPrefix(p, "/") {
		return "", &InvalidAddressError{Input: raw, Reason: "path must start at the document root"}
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", &InvalidAddressError{Input: raw, Reason: "traversal segment not allowed"}
		}
	}
	clean := path.Clean(strings.ToLower(p))
	if clean == "/" {
		return "", &InvalidAddressError{Input: raw, Reason: "path names no document"}
	}
	if path.Ext(clean) == "" {
		clean += ".md"
	}
	return clean, nil
}

// ParseDocument builds a DocumentAddress from a raw virtual path.
func ParseDocument(raw string) (DocumentAddress, error) {
	p, err := Normalize(raw)
	if err != nil {
		return DocumentAddress{}, err
	}
	return DocumentAddress{
		Path:      p,
		Namespace: namespaceOf(p),
		Slug:      strings.TrimSuffix(path.Base(p), path.Ext(p)),
		CacheKey:  p,
	}, nil
}

// ParseSection builds a SectionAddress from one of three forms: "slug",
// "#slug", or "path#slug". The first two require a context document path.
func ParseSection(raw, contextDoc string) (SectionAddress, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return SectionAddress{}, &InvalidAddressError{Input: raw, Reason: "empty section address"}
	}

	docPart := ""
	slug := input
	if i := strings.Index(input, "#"); i >= 0 {
		docPart = input[:i]
		slug = input[i+1:]
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return SectionAddress{}, &InvalidAddressError{Input: raw, Reason: "missing section slug"}
	}
	if strings.Contains(slug, "#") {
		return SectionAddress{}, &InvalidAddressError{Input: raw, Reason: "multiple # separators"}
	}

	if docPart == "" {
		if contextDoc == "" {
			return SectionAddress{}, &InvalidAddressError{Input: raw, Reason: "bare slug needs a context document"}
		}
		docPart = contextDoc
	}
	doc, err := ParseDocument(docPart)
	if err != nil {
		return SectionAddress{}, err
	}

	full := doc.Path + "#" + slug
	return SectionAddress{
		Document: doc,
		Slug:     slug,
		FullPath: full,
		CacheKey: full,
	}, nil
}

func namespaceOf(p string) string {
	dir := path.Dir(p)
	if dir == "/" || dir == "." {
		return RootNamespace
	}
	return strings.TrimPrefix(dir, "/")
}
