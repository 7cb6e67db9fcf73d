// Package doccache owns parsed document representations and serves them with
// bounded memory. Eviction is LRU over weighted access recency, with a global
// ceiling on the total number of cached headings.
package doccache

import (
	"crypto/sha256"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/docstore"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/sections"
)

// Access tags the purpose of a cache access. Reference-expansion and search
// accesses carry more eviction resistance than ad hoc direct reads, since
// they tend to belong to multi-step workflows.
type Access string

const (
	AccessDirect    Access = "direct"
	AccessSearch    Access = "search"
	AccessReference Access = "reference"
)

// Weight is the multiplier applied to the recency score when an entry is
// touched with this access purpose.
func (a Access) Weight() float64 {
	switch a {
	case AccessReference:
		return 3
	case AccessSearch:
		return 2
	default:
		return 1
	}
}

// Metadata is lightweight summary data computed once per parse.
type Metadata struct {
	Title          string    `json:"title"`
	WordCount      int       `json:"word_count"`
	LinkCount      int       `json:"link_count"`
	CodeBlockCount int       `json:"code_block_count"`
	Hash           string    `json:"hash"`
	Size           int64     `json:"size"`
	ModTime        time.Time `json:"mod_time"`
}

// Document is an immutable parsed view of one markdown file. The section map
// is rebuilt wholesale on every parse, never patched incrementally, so every
// slug in it corresponds to exactly one heading.
type Document struct {
	Path     string             `json:"path"`
	Content  string             `json:"content"`
	Headings []sections.Heading `json:"headings"`
	Sections map[string]string  `json:"-"`
	Meta     Metadata           `json:"meta"`
	CacheKey string             `json:"-"`
}

var linkPattern = regexp.MustCompile(`\[[^\]]*\]\([^)]+\)`)

func build(virtual string, raw []byte, info docstore.FileInfo) *Document {
	content := string(raw)
	secs, headings := sections.SectionMap(content)

	title := strings.TrimSuffix(path.Base(virtual), path.Ext(virtual))
	for _, h := range headings {
		if h.Depth == 1 {
			title = h.Title
			break
		}
	}

	return &Document{
		Path:     virtual,
		Content:  content,
		Headings: headings,
		Sections: secs,
		Meta: Metadata{
			Title:          title,
			WordCount:      len(strings.Fields(content)),
			LinkCount:      len(linkPattern.FindAllStringIndex(content, -1)),
			CodeBlockCount: countCodeBlocks(content),
			Hash:           ContentHash(raw),
			Size:           info.Size,
			ModTime:        info.ModTime,
		},
		CacheKey: virtual,
	}
}

// ContentHash computes the SHA-256 of content as a hex string.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

func countCodeBlocks(content string) int {
	fences := 0
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~") {
			fences++
		}
	}
	return fences / 2
}
