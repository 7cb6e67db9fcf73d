// Package fingerprint maintains a keyword-to-document inverted index built
// from bounded content prefixes. It cheaply shortlists candidate documents
// before expensive full loads; it is a pre-filter, never a final answer.
package fingerprint

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/doccache"
)

// MaxKeywords caps the keyword set stored per document.
const MaxKeywords = 20

// Fingerprint is a compact keyword summary of one document.
type Fingerprint struct {
	Path      string
	Namespace string
	Keywords  []string
	Hash      string
	ModTime   time.Time
}

// Stats is a snapshot of index state.
type Stats struct {
	Documents int `json:"documents"`
	Keywords  int `json:"keywords"`
}

// Lister is the subset of the document store the index needs.
type Lister interface {
	List() ([]string, error)
	ReadPrefix(virtual string, n int) ([]byte, error)
}

// Index maps lowercase keywords to the documents containing them.
type Index struct {
	store       Lister
	prefixBytes int
	log         *slog.Logger

	mu       sync.RWMutex
	docs     map[string]Fingerprint
	postings map[string]map[string]struct{}
}

func New(store Lister, prefixBytes int, log *slog.Logger) *Index {
	if prefixBytes <= 0 {
		prefixBytes = 8192
	}
	return &Index{
		store:       store,
		prefixBytes: prefixBytes,
		log:         log,
		docs:        make(map[string]Fingerprint),
		postings:    make(map[string]map[string]struct{}),
	}
}

// Initialize walks every document once, fingerprinting each from a bounded
// prefix. A failure on one document excludes it from the index without
// aborting the walk.
func (ix *Index) Initialize() error {
	paths, err := ix.store.List()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := ix.Update(p); err != nil {
			ix.log.Warn("fingerprint failed, document excluded", "path", p, "error", err)
		}
	}
	ix.log.Info("fingerprint index built", "documents", len(paths))
	return nil
}

// Update (re)derives the fingerprint of one document and repairs postings.
// It serves both initial adds and change events.
func (ix *Index) Update(virtual string) error {
	prefix, err := ix.store.ReadPrefix(virtual, ix.prefixBytes)
	if err != nil {
		ix.Remove(virtual)
		return err
	}
	keywords := ExtractKeywords(string(prefix), MaxKeywords)
	fp := Fingerprint{
		Path:      virtual,
		Namespace: namespaceOf(virtual),
		Keywords:  keywords,
		Hash:      doccache.ContentHash(prefix),
		ModTime:   time.Now(),
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(virtual)
	ix.docs[virtual] = fp
	for _, kw := range keywords {
		set, ok := ix.postings[kw]
		if !ok {
			set = make(map[string]struct{})
			ix.postings[kw] = set
		}
		set[virtual] = struct{}{}
	}
	return nil
}

// Remove drops a document's fingerprint and empties out its postings.
func (ix *Index) Remove(virtual string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(virtual)
}

func (ix *Index) removeLocked(virtual string) {
	fp, ok := ix.docs[virtual]
	if !ok {
		return
	}
	delete(ix.docs, virtual)
	for _, kw := range fp.Keywords {
		if set, ok := ix.postings[kw]; ok {
			delete(set, virtual)
			if len(set) == 0 {
				delete(ix.postings, kw)
			}
		}
	}
}

// FindCandidates returns documents whose keyword set intersects any query
// token, best matches first. A query that filters down to nothing (blank or
// all stop words) fails open and returns every document.
func (ix *Index) FindCandidates(query string) []string {
	tokens := filterStopWords(tokenize(query))

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(tokens) == 0 {
		all := make([]string, 0, len(ix.docs))
		for p := range ix.docs {
			all = append(all, p)
		}
		sort.Strings(all)
		return all
	}

	matches := make(map[string]int)
	for _, tok := range tokens {
		for p := range ix.postings[tok] {
			matches[p]++
		}
	}
	out := make([]string, 0, len(matches))
	for p := range matches {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if matches[out[i]] != matches[out[j]] {
			return matches[out[i]] > matches[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Stats returns a snapshot of index counters.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{Documents: len(ix.docs), Keywords: len(ix.postings)}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// ExtractKeywords derives the stop-word-filtered, frequency-ranked keyword
// set of a text, capped at max entries.
func ExtractKeywords(text string, max int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range filterStopWords(tokenize(text)) {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > max {
		order = order[:max]
	}
	sort.Strings(order)
	return order
}

func filterStopWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if len(t) < 3 || stopWords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func namespaceOf(virtual string) string {
	dir := path.Dir(virtual)
	if dir == "/" || dir == "." {
		return "root"
	}
	return strings.TrimPrefix(dir, "/")
}
