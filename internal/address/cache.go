package address

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Parser memoizes parsed addresses in bounded LRU caches so hot paths do not
// re-run string normalization. Entries are keyed by the literal input (plus
// context for sections); parse failures are not cached.
type Parser struct {
	docs     *lru.Cache[string, DocumentAddress]
	sections *lru.Cache[string, SectionAddress]
}

// NewParser creates a memoizing parser holding up to size entries per kind.
func NewParser(size int) (*Parser, error) {
	if size <= 0 {
		size = 1024
	}
	docs, err := lru.New[string, DocumentAddress](size)
	if err != nil {
		return nil, fmt.Errorf("address cache: %w", err)
	}
	sections, err := lru.New[string, SectionAddress](size)
	if err != nil {
		return nil, fmt.Errorf("address cache: %w", err)
	}
	return &Parser{docs: docs, sections: sections}, nil
}

// Document parses raw into a DocumentAddress, serving repeats from cache.
func (p *Parser) Document(raw string) (DocumentAddress, error) {
	if addr, ok := p.docs.Get(raw); ok {
		return addr, nil
	}
	addr, err := ParseDocument(raw)
	if err != nil {
		return DocumentAddress{}, err
	}
	p.docs.Add(raw, addr)
	return addr, nil
}

// Section parses raw (optionally against a context document) into a
// SectionAddress, serving repeats from cache.
func (p *Parser) Section(raw, contextDoc string) (SectionAddress, error) {
	key := raw + "\x00" + contextDoc
	if addr, ok := p.sections.Get(key); ok {
		return addr, nil
	}
	addr, err := ParseSection(raw, contextDoc)
	if err != nil {
		return SectionAddress{}, err
	}
	p.sections.Add(key, addr)
	return addr, nil
}
