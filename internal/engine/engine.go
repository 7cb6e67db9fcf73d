// Package engine wires the addressing, caching, section, fingerprint, and
// reference subsystems into one explicitly constructed context object. There
// is no global state: everything an operation needs hangs off the Engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/address"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/config"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/doccache"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/docstore"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/fingerprint"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/refs"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/sections"
)

// maxAlternatives caps how many nearby paths a not-found error carries.
const maxAlternatives = 10

type Engine struct {
	cfg       config.Config
	log       *slog.Logger
	store     *docstore.Store
	cache     *doccache.Cache
	index     *fingerprint.Index
	loader    *refs.Loader
	addresses *address.Parser
}

func New(cfg config.Config, log *slog.Logger) (*Engine, error) {
	store, err := docstore.New(cfg.DocsRoot)
	if err != nil {
		return nil, err
	}
	addresses, err := address.NewParser(cfg.AddressCacheSize)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		log:       log,
		store:     store,
		cache:     doccache.New(store, cfg.CacheMaxHeadings, log),
		index:     fingerprint.New(store, cfg.FingerprintPrefixBytes, log),
		addresses: addresses,
	}
	e.loader = refs.NewLoader(refSource{e}, cfg.ReferenceDepth, cfg.ReferenceMaxNodes, cfg.ReferenceTimeBudget, log)
	return e, nil
}

// Initialize builds the fingerprint index with a single walk over the
// document tree.
func (e *Engine) Initialize(ctx context.Context) error {
	_ = ctx
	return e.index.Initialize()
}

// Store exposes the filesystem collaborator, mainly so main can attach the
// change watcher.
func (e *Engine) Store() *docstore.Store {
	return e.store
}

// refSource adapts the document cache to the reference loader, tagging every
// load with reference-expansion access.
type refSource struct{ e *Engine }

func (s refSource) GetForReference(ctx context.Context, path string) (refs.Target, error) {
	doc, err := s.e.cache.Get(ctx, path, doccache.AccessReference)
	if err != nil {
		return refs.Target{}, err
	}
	return refs.Target{Content: doc.Content, Sections: doc.Sections}, nil
}

// ResolveDocument parses and normalizes a raw document path.
func (e *Engine) ResolveDocument(input string) (address.DocumentAddress, error) {
	return e.addresses.Document(input)
}

// ResolveSection parses a section address, optionally against a context
// document for the bare-slug and "#slug" forms.
func (e *Engine) ResolveSection(input, contextDoc string) (address.SectionAddress, error) {
	return e.addresses.Section(input, contextDoc)
}

// ResolveTask resolves a section address and additionally requires the
// heading to pass the structural task check.
func (e *Engine) ResolveTask(ctx context.Context, input, contextDoc string) (address.TaskAddress, error) {
	sec, err := e.ResolveSection(input, contextDoc)
	if err != nil {
		return address.TaskAddress{}, err
	}
	doc, err := e.GetDocument(ctx, sec.Document.Path, doccache.AccessDirect)
	if err != nil {
		return address.TaskAddress{}, err
	}
	if !sections.IsTask(doc.Headings, sec.Slug) {
		return address.TaskAddress{}, &NotATaskError{Address: sec.FullPath}
	}
	return address.TaskAddress{SectionAddress: sec}, nil
}

// GetDocument fetches a document through the cache, resolving and
// normalizing the path first.
func (e *Engine) GetDocument(ctx context.Context, path string, access doccache.Access) (*doccache.Document, error) {
	addr, err := e.addresses.Document(path)
	if err != nil {
		return nil, err
	}
	doc, err := e.cache.Get(ctx, addr.Path, access)
	if err != nil {
		if errors.Is(err, doccache.ErrNotFound) {
			return nil, &DocumentNotFoundError{Path: addr.Path, Alternatives: e.nearbyDocs(addr)}
		}
		return nil, err
	}
	return doc, nil
}

// GetSection returns the body of one section addressed by any accepted
// section form.
func (e *Engine) GetSection(ctx context.Context, input, contextDoc string) (string, error) {
	sec, err := e.ResolveSection(input, contextDoc)
	if err != nil {
		return "", err
	}
	doc, err := e.GetDocument(ctx, sec.Document.Path, doccache.AccessDirect)
	if err != nil {
		return "", err
	}
	body, ok := doc.Sections[sec.Slug]
	if !ok {
		return "", e.sectionNotFound(doc, sec.Slug)
	}
	return body, nil
}

// Operation names a section mutation.
type Operation string

const (
	OpReplaceBody  Operation = "replace_body"
	OpInsertBefore Operation = Operation(sections.InsertBefore)
	OpInsertAfter  Operation = Operation(sections.InsertAfter)
	OpAppendChild  Operation = Operation(sections.AppendChild)
	OpRename       Operation = "rename"
	OpDelete       Operation = "delete"
)

// Mutation describes one section edit. Slug addresses the target (or
// reference) section; Title and Body are operation-specific. BaseHash, when
// set, is the content hash the caller last read; a mismatch fails the write
// so the caller can re-read and retry.
type Mutation struct {
	Path     string    `json:"path"`
	Slug     string    `json:"slug"`
	Op       Operation `json:"operation"`
	Title    string    `json:"title,omitempty"`
	Body     string    `json:"body,omitempty"`
	BaseHash string    `json:"base_hash,omitempty"`
}

// MutateSection applies a mutation, persists the re-serialized document
// atomically, and returns the new content. The cache entry and fingerprint
// are refreshed afterward.
func (e *Engine) MutateSection(ctx context.Context, m Mutation) (string, error) {
	doc, err := e.GetDocument(ctx, m.Path, doccache.AccessDirect)
	if err != nil {
		return "", err
	}
	if m.BaseHash != "" && m.BaseHash != doc.Meta.Hash {
		return "", &PreconditionFailedError{Path: doc.Path, Expected: m.BaseHash, Actual: doc.Meta.Hash}
	}

	var out string
	switch m.Op {
	case OpReplaceBody:
		out, err = sections.ReplaceBody(doc.Content, m.Slug, m.Body)
	case OpInsertBefore, OpInsertAfter, OpAppendChild:
		out, err = sections.Insert(doc.Content, m.Slug, sections.InsertMode(m.Op), m.Title, m.Body)
	case OpRename:
		out, err = sections.Rename(doc.Content, m.Slug, m.Title)
	case OpDelete:
		out, err = sections.Delete(doc.Content, m.Slug)
	default:
		return "", fmt.Errorf("unknown operation %q", m.Op)
	}
	if err != nil {
		var nf *sections.NotFoundError
		if errors.As(err, &nf) {
			return "", e.sectionNotFound(doc, nf.Slug)
		}
		return "", err
	}

	if err := e.store.Write(doc.Path, []byte(out)); err != nil {
		return "", err
	}
	e.cache.Invalidate(doc.Path)
	if err := e.index.Update(doc.Path); err != nil {
		e.log.Warn("fingerprint update after mutation failed", "path", doc.Path, "error", err)
	}
	return out, nil
}

// LoadReferenceTree expands the references in content into a bounded forest.
func (e *Engine) LoadReferenceTree(ctx context.Context, content, basePath string, depth int) ([]*refs.Node, error) {
	return e.loader.Load(ctx, content, basePath, depth)
}

// Search shortlists candidate documents for a query via the fingerprint
// index. It never loads document content.
func (e *Engine) Search(query string) []string {
	return e.index.FindCandidates(query)
}

// HandleEvent is the watcher callback: it invalidates the cache entry and
// repairs the fingerprint for the changed path.
func (e *Engine) HandleEvent(ev docstore.Event) {
	e.cache.Invalidate(ev.Path)
	if ev.Remove {
		e.index.Remove(ev.Path)
		return
	}
	if err := e.index.Update(ev.Path); err != nil {
		e.log.Warn("fingerprint update failed", "path", ev.Path, "error", err)
	}
}

// Stats aggregates cache and index counters.
type Stats struct {
	Cache doccache.Stats    `json:"cache"`
	Index fingerprint.Stats `json:"index"`
}

func (e *Engine) Stats() Stats {
	return Stats{Cache: e.cache.Stats(), Index: e.index.Stats()}
}

func (e *Engine) sectionNotFound(doc *doccache.Document, slug string) error {
	available := make([]string, len(doc.Headings))
	for i, h := range doc.Headings {
		available[i] = h.Slug
	}
	return &SectionNotFoundError{Path: doc.Path, Slug: slug, Available: available}
}

// nearbyDocs lists existing documents in the same namespace, for not-found
// error context.
func (e *Engine) nearbyDocs(addr address.DocumentAddress) []string {
	paths, err := e.store.List()
	if err != nil {
		return nil
	}
	var out []string
	for _, p := range paths {
		other, err := address.ParseDocument(p)
		if err != nil {
			continue
		}
		if other.Namespace == addr.Namespace && len(out) < maxAlternatives {
			out = append(out, p)
		}
	}
	return out
}
