package sections

import (
	"errors"
	"fmt"
	"strings"
)

// InsertMode selects where Insert places a new heading relative to the
// reference heading.
type InsertMode string

const (
	InsertBefore InsertMode = "insert_before" // sibling, before the reference section
	InsertAfter  InsertMode = "insert_after"  // sibling, after the reference section
	AppendChild  InsertMode = "append_child"  // child at reference depth+1, at the end of the reference section
)

// MaxDepth is the deepest heading level markdown supports.
const MaxDepth = 6

// ErrEmptyDocument is returned when an edit would leave the document with no
// content at all.
var ErrEmptyDocument = errors.New("operation would empty the document")

// ReplaceBody swaps the direct body of the section addressed by slug for
// newBody and returns the re-serialized document. Replacing a body with the
// exact output of ReadSection yields byte-identical content.
func ReplaceBody(content, slug, newBody string) (string, error) {
	d := parse([]byte(content))
	i, err := d.find(slug)
	if err != nil {
		return "", err
	}
	sp := d.spans[i]
	if newBody != "" && !strings.HasSuffix(newBody, "\n") && sp.contentEnd < len(d.src) {
		newBody += "\n"
	}
	return string(d.src[:sp.bodyStart]) + newBody + string(d.src[sp.contentEnd:]), nil
}

// Insert places a new heading (with optional body) relative to the section
// addressed by refSlug. Sibling modes use the reference's own depth;
// AppendChild uses reference depth+1, capped at MaxDepth.
func Insert(content, refSlug string, mode InsertMode, title, body string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("insert: empty title")
	}

	d := parse([]byte(content))
	i, err := d.find(refSlug)
	if err != nil {
		return "", err
	}
	ref := d.headings[i]
	sp := d.spans[i]

	var depth, pos int
	switch mode {
	case InsertBefore:
		depth, pos = ref.Depth, sp.start
	case InsertAfter:
		depth, pos = ref.Depth, sp.end
	case AppendChild:
		depth, pos = min(ref.Depth+1, MaxDepth), sp.end
	default:
		return "", fmt.Errorf("insert: unknown mode %q", mode)
	}

	var b strings.Builder
	if pos > 0 && d.src[pos-1] != '\n' {
		b.WriteByte('\n')
	}
	if pos > 0 && !(pos >= 2 && d.src[pos-2] == '\n' && d.src[pos-1] == '\n') {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("#", depth))
	b.WriteByte(' ')
	b.WriteString(strings.TrimSpace(title))
	b.WriteByte('\n')
	if body != "" {
		b.WriteByte('\n')
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteByte('\n')
		}
	}

	return string(d.src[:pos]) + b.String() + string(d.src[pos:]), nil
}

// Rename rewrites the heading line of the section addressed by slug with a
// new title at the same depth and in the same style: ATX headings keep their
// hash prefix, setext headings keep their underline. Slugs are re-derived on
// the next parse, so a rename that collides with a sibling simply picks up a
// disambiguating suffix there.
func Rename(content, slug, newTitle string) (string, error) {
	title := strings.TrimSpace(newTitle)
	if title == "" {
		return "", fmt.Errorf("rename: empty title")
	}
	d := parse([]byte(content))
	i, err := d.find(slug)
	if err != nil {
		return "", err
	}
	h := d.headings[i]
	sp := d.spans[i]
	if isATXLine(d.src, sp.start) {
		line := strings.Repeat("#", h.Depth) + " " + title + "\n"
		return string(d.src[:sp.start]) + line + string(d.src[sp.bodyStart:]), nil
	}
	// Setext: only the title line changes, the underline stays as written.
	titleEnd := lineEnd(d.src, sp.start)
	return string(d.src[:sp.start]) + title + "\n" + string(d.src[titleEnd:]), nil
}

// Delete removes the section addressed by slug, including its child
// sections. It fails with ErrEmptyDocument rather than producing an empty
// document.
func Delete(content, slug string) (string, error) {
	d := parse([]byte(content))
	i, err := d.find(slug)
	if err != nil {
		return "", err
	}
	sp := d.spans[i]
	out := string(d.src[:sp.start]) + string(d.src[sp.end:])
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyDocument
	}
	return out, nil
}
