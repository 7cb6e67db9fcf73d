package sections

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deburr strips combining marks after NFD decomposition, so "Résumé"
// slugifies the same as "Resume".
var deburr = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives an identifier-safe slug from a heading title: lowercased,
// diacritics folded, punctuation stripped, word runs joined with hyphens.
// A title with no usable characters yields "section".
func Slugify(title string) string {
	folded, _, err := transform.String(deburr, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	s := b.String()
	if s == "" {
		return "section"
	}
	return s
}

// Slugger assigns collision-adjusted slugs within a single document. Repeated
// titles receive stable disambiguating suffixes ("task", "task-1", "task-2")
// rather than being rejected. One Slugger instance spans one full parse so
// the suffix sequence depends only on the title multiset, not operation order.
type Slugger struct {
	used map[string]bool
	next map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{
		used: make(map[string]bool),
		next: make(map[string]int),
	}
}

// Slug returns the collision-adjusted slug for title.
func (s *Slugger) Slug(title string) string {
	base := Slugify(title)
	if !s.used[base] {
		s.used[base] = true
		s.next[base] = 1
		return base
	}
	for {
		candidate := fmt.Sprintf("%s-%d", base, s.next[base])
		s.next[base]++
		if !s.used[candidate] {
			s.used[candidate] = true
			return candidate
		}
	}
}
