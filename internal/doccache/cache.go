package doccache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/docstore"
)

// ErrNotFound is returned when the underlying file does not exist.
var ErrNotFound = docstore.ErrNotFound

// Stats is a point-in-time snapshot of cache state.
type Stats struct {
	Documents   int    `json:"documents"`
	Headings    int    `json:"headings"`
	MaxHeadings int    `json:"max_headings"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
}

type entry struct {
	doc      *Document
	score    float64
	headings int
}

// refresh coalescing: concurrent Gets for the same stale path share one parse.
type call struct {
	done chan struct{}
	doc  *Document
	err  error
}

// Cache holds parsed documents keyed by virtual path. A cached entry is stale
// when the underlying file's modification time or size differs from the
// cached copy; refresh reparses the whole document and swaps it in as a unit.
// When total cached headings exceed the ceiling, the lowest weighted-recency
// entries are evicted until the cache is back under budget.
type Cache struct {
	store       *docstore.Store
	maxHeadings int
	log         *slog.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*call
	tick     uint64
	headings int

	hits, misses, evictions uint64
}

func New(store *docstore.Store, maxHeadings int, log *slog.Logger) *Cache {
	if maxHeadings <= 0 {
		maxHeadings = 100000
	}
	return &Cache{
		store:       store,
		maxHeadings: maxHeadings,
		log:         log,
		entries:     make(map[string]*entry),
		inflight:    make(map[string]*call),
	}
}

// Get returns the cached document for a normalized virtual path, reparsing
// from disk when absent or stale.
func (c *Cache) Get(ctx context.Context, path string, access Access) (*Document, error) {
	c.mu.Lock()
	e := c.entries[path]
	var cached *Document
	if e != nil {
		cached = e.doc
	}
	c.mu.Unlock()

	if cached != nil {
		info, err := c.store.Stat(path)
		if err == nil && info.ModTime.Equal(cached.Meta.ModTime) && info.Size == cached.Meta.Size {
			c.mu.Lock()
			if e, ok := c.entries[path]; ok && e.doc == cached {
				c.hits++
				c.touch(e, access)
				c.mu.Unlock()
				return cached, nil
			}
			c.mu.Unlock()
		}
		if err != nil && errors.Is(err, ErrNotFound) {
			c.Invalidate(path)
			return nil, err
		}
	}

	return c.refresh(ctx, path, access)
}

func (c *Cache) refresh(ctx context.Context, path string, access Access) (*Document, error) {
	c.mu.Lock()
	if cl, ok := c.inflight[path]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if cl.err != nil {
			return nil, cl.err
		}
		c.mu.Lock()
		if e, ok := c.entries[path]; ok {
			c.touch(e, access)
		}
		c.mu.Unlock()
		return cl.doc, nil
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[path] = cl
	c.misses++
	c.mu.Unlock()

	raw, info, err := c.store.Read(path)
	var doc *Document
	if err == nil {
		doc = build(path, raw, info)
	}

	c.mu.Lock()
	delete(c.inflight, path)
	if err != nil {
		cl.err = err
	} else {
		if old, ok := c.entries[path]; ok {
			c.headings -= old.headings
		}
		e := &entry{doc: doc, headings: len(doc.Headings)}
		c.entries[path] = e
		c.headings += e.headings
		c.touch(e, access)
		c.evict(path)
		cl.doc = doc
	}
	c.mu.Unlock()
	close(cl.done)

	return doc, err
}

// touch bumps an entry's weighted recency score. Must hold c.mu.
func (c *Cache) touch(e *entry, access Access) {
	c.tick++
	e.score = float64(c.tick) * access.Weight()
}

// evict drops lowest-score entries until total headings fit the ceiling. The
// entry named by keep (the one just refreshed) is never evicted, so a single
// oversized document cannot thrash. Must hold c.mu.
func (c *Cache) evict(keep string) {
	for c.headings > c.maxHeadings {
		victim := ""
		var worst float64
		for path, e := range c.entries {
			if path == keep {
				continue
			}
			if victim == "" || e.score < worst {
				victim = path
				worst = e.score
			}
		}
		if victim == "" {
			return
		}
		c.headings -= c.entries[victim].headings
		delete(c.entries, victim)
		c.evictions++
		c.log.Debug("evicted document", "path", victim, "total_headings", c.headings)
	}
}

// Invalidate drops a single entry. Calling it for an uncached path is a
// no-op.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		c.headings -= e.headings
		delete(c.entries, path)
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Documents:   len(c.entries),
		Headings:    c.headings,
		MaxHeadings: c.maxHeadings,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
	}
}
