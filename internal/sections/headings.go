// Package sections parses Markdown into a heading index and performs
// boundary-safe CRUD on heading-delimited regions.
package sections

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of a document's heading index, in document order.
type Heading struct {
	Index       int    `json:"index"`
	Depth       int    `json:"depth"` // 1-6
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ParentIndex int    `json:"parent_index"` // nearest preceding heading of smaller depth; -1 for top-level
}

// NotFoundError reports a slug that matches no heading, along with the slugs
// that do exist so callers can offer alternatives.
type NotFoundError struct {
	Slug      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("section %q not found (have: %s)", e.Slug, strings.Join(e.Available, ", "))
}

// span is the byte extent of one section within its source.
type span struct {
	start      int // first byte of the heading line
	bodyStart  int // first byte after the heading line(s)
	contentEnd int // start of the next heading of any depth, or len(src)
	end        int // start of the next heading of depth <= own, or len(src)
}

// doc is a parsed view of one markdown body: the heading index plus the byte
// spans needed for boundary-safe edits.
type doc struct {
	src      []byte
	headings []Heading
	spans    []span
	bySlug   map[string]int
}

var md = goldmark.New()

// parse walks the goldmark AST and indexes every top-level heading. Headings
// nested inside blockquotes or lists do not delimit sections.
func parse(src []byte) *doc {
	root := md.Parser().Parse(text.NewReader(src))
	d := &doc{src: src, bySlug: make(map[string]int)}
	slugger := NewSlugger()

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)
		start := lineStart(src, first.Start)
		// Clamp into the last text line: goldmark's ATX segments stop before
		// the newline, setext line segments stop after it.
		pos := last.Stop
		if pos > 0 && pos <= len(src) && src[pos-1] == '\n' {
			pos--
		}
		bodyStart := lineEnd(src, pos)
		if !isATXLine(src, start) {
			// Setext heading: the underline line belongs to the heading.
			bodyStart = lineEnd(src, bodyStart)
		}

		title := string(bytes.TrimSpace(h.Text(src)))
		idx := len(d.headings)
		hd := Heading{
			Index:       idx,
			Depth:       h.Level,
			Title:       title,
			Slug:        slugger.Slug(title),
			ParentIndex: -1,
		}
		for j := idx - 1; j >= 0; j-- {
			if d.headings[j].Depth < hd.Depth {
				hd.ParentIndex = j
				break
			}
		}
		d.headings = append(d.headings, hd)
		d.spans = append(d.spans, span{start: start, bodyStart: bodyStart, contentEnd: len(src), end: len(src)})
		d.bySlug[hd.Slug] = idx
	}

	for i := range d.spans {
		if i+1 < len(d.spans) {
			d.spans[i].contentEnd = d.spans[i+1].start
		}
		for j := i + 1; j < len(d.spans); j++ {
			if d.headings[j].Depth <= d.headings[i].Depth {
				d.spans[i].end = d.spans[j].start
				break
			}
		}
	}
	return d
}

func (d *doc) find(slug string) (int, error) {
	if i, ok := d.bySlug[strings.ToLower(slug)]; ok {
		return i, nil
	}
	return 0, &NotFoundError{Slug: slug, Available: d.slugs()}
}

func (d *doc) slugs() []string {
	out := make([]string, len(d.headings))
	for i, h := range d.headings {
		out[i] = h.Slug
	}
	return out
}

// ListHeadings returns the heading index of content.
func ListHeadings(content string) []Heading {
	return parse([]byte(content)).headings
}

// ReadSection returns the direct body of the section addressed by slug: the
// text between its heading line and the next heading of any depth. Child
// sections are separate entries, so reading every slug in order partitions
// the document.
func ReadSection(content, slug string) (string, error) {
	d := parse([]byte(content))
	i, err := d.find(slug)
	if err != nil {
		return "", err
	}
	sp := d.spans[i]
	return string(d.src[sp.bodyStart:sp.contentEnd]), nil
}

// SectionMap returns every slug mapped to its direct body, rebuilt wholesale
// from content. Key order follows the heading index.
func SectionMap(content string) (map[string]string, []Heading) {
	d := parse([]byte(content))
	m := make(map[string]string, len(d.headings))
	for i, h := range d.headings {
		sp := d.spans[i]
		m[h.Slug] = string(d.src[sp.bodyStart:sp.contentEnd])
	}
	return m, d.headings
}

func lineStart(src []byte, i int) int {
	if i > len(src) {
		i = len(src)
	}
	return bytes.LastIndexByte(src[:i], '\n') + 1
}

// lineEnd returns the index just past the newline terminating the line that
// position i falls on, or len(src) for the final unterminated line.
func lineEnd(src []byte, i int) int {
	if i >= len(src) {
		return len(src)
	}
	j := bytes.IndexByte(src[i:], '\n')
	if j < 0 {
		return len(src)
	}
	return i + j + 1
}

func isATXLine(src []byte, start int) bool {
	i := start
	for i < len(src) && src[i] == ' ' && i-start < 3 {
		i++
	}
	return i < len(src) && src[i] == '#'
}
